package mlplugin

import (
	"testing"

	"github.com/gophervrp/bbcore/bbnode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func edge(i, j int) bbnode.Candidate {
	return bbnode.SingleCandidate(bbnode.Edge{I: i, J: j})
}

func TestScorerSelectPicksClosestToHalf(t *testing.T) {
	s := NewScorer()
	m := map[bbnode.Candidate]float64{
		edge(1, 2): 0.9,
		edge(3, 4): 0.51,
		edge(5, 6): 0.2,
	}
	chosen, err := s.Select(m)
	require.NoError(t, err)
	assert.Equal(t, edge(3, 4), chosen)
}

func TestScorerSelectSkipsIntegralEdges(t *testing.T) {
	s := NewScorer()
	m := map[bbnode.Candidate]float64{
		edge(1, 2): 1.0,
		edge(3, 4): 0.0,
	}
	_, err := s.Select(m)
	assert.ErrorIs(t, err, ErrNoCandidate)
}

func TestScorerSelectEmptyMap(t *testing.T) {
	s := NewScorer()
	_, err := s.Select(map[bbnode.Candidate]float64{})
	assert.ErrorIs(t, err, ErrNoCandidate)
}

func TestRecorderAccumulatesSamples(t *testing.T) {
	r := NewRecorder()
	r.Record(Sample{NodeIdx: 1, Chosen: edge(1, 2), TreeSize: 3})
	r.Record(Sample{NodeIdx: 2, Chosen: edge(3, 4), TreeSize: 4})

	got := r.Samples()
	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0].NodeIdx)
	assert.Equal(t, int64(2), got[1].NodeIdx)
}

func TestModeString(t *testing.T) {
	assert.Equal(t, "no-use", NoUse.String())
	assert.Equal(t, "get-data-1", GetData1.String())
	assert.Equal(t, "get-data-2", GetData2.String())
	assert.Equal(t, "use-model", UseModel.String())
}
