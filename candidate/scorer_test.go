package candidate

import (
	"testing"

	"github.com/gophervrp/bbcore/bbnode"
	"github.com/gophervrp/bbcore/bkf"
	"github.com/gophervrp/bbcore/history"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func edge(i, j int) bbnode.Candidate { return bbnode.SingleCandidate(bbnode.Edge{I: i, J: j}) }

func constFunc(l, r float64) TestFunc {
	return func(*bbnode.Node, bbnode.Candidate) (float64, float64, error) { return l, r, nil }
}

func perCandidateFunc(vals map[bbnode.Candidate][2]float64) TestFunc {
	return func(_ *bbnode.Node, c bbnode.Candidate) (float64, float64, error) {
		v := vals[c]
		return v[0], v[1], nil
	}
}

func TestBestCandidateEmptyMapReturnsErr(t *testing.T) {
	s := New(5, 5, 5, 5, constFunc(1, 1), constFunc(1, 1), constFunc(1, 1), history.New(), bkf.New())
	_, err := s.BestCandidate(nil, map[bbnode.Candidate]float64{})
	assert.ErrorIs(t, err, ErrNoCandidate)
}

func TestBestCandidatePicksHighestExactScore(t *testing.T) {
	vals := map[bbnode.Candidate][2]float64{
		edge(1, 2): {1, 1},
		edge(3, 4): {5, 5},
	}
	s := New(5, 5, 5, 5, constFunc(1, 1), constFunc(1, 1), perCandidateFunc(vals), history.New(), bkf.New())
	winner, err := s.BestCandidate(nil, map[bbnode.Candidate]float64{
		edge(1, 2): 0.5,
		edge(3, 4): 0.5,
	})
	require.NoError(t, err)
	assert.Equal(t, edge(3, 4), winner)
}

func TestRevisedScoreExtremeUnbalanced(t *testing.T) {
	balanced := revisedScore(2, 3)
	assert.InDelta(t, 6, balanced, 1e-9)

	unbalanced := revisedScore(0.01, 5)
	assert.InDelta(t, 0.01+ExtremeUnbalancedPenalty*5, unbalanced, 1e-9)
}

func TestTopTwoExcludesPairSummingToOne(t *testing.T) {
	vals := map[bbnode.Candidate][2]float64{
		edge(1, 2): {5, 5},
		edge(3, 4): {4, 4},
		edge(5, 6): {3, 3},
	}
	s := New(5, 5, 5, 5, constFunc(1, 1), constFunc(1, 1), perCandidateFunc(vals), history.New(), bkf.New())
	candidateMap := map[bbnode.Candidate]float64{
		edge(1, 2): 0.6,
		edge(3, 4): 0.4, // sums to 1.0 with edge(1,2): must be excluded
		edge(5, 6): 0.7,
	}
	pair, err := s.TopTwoCandidates(nil, candidateMap)
	require.NoError(t, err)
	assert.Equal(t, edge(1, 2), pair[0])
	assert.Equal(t, edge(5, 6), pair[1])
}

func TestTopTwoFallsBackWhenAllPairsSumToOne(t *testing.T) {
	vals := map[bbnode.Candidate][2]float64{
		edge(1, 2): {5, 5},
		edge(3, 4): {4, 4},
	}
	s := New(5, 5, 5, 5, constFunc(1, 1), constFunc(1, 1), perCandidateFunc(vals), history.New(), bkf.New())
	candidateMap := map[bbnode.Candidate]float64{
		edge(1, 2): 0.5,
		edge(3, 4): 0.5,
	}
	pair, err := s.TopTwoCandidates(nil, candidateMap)
	require.NoError(t, err)
	assert.Equal(t, edge(1, 2), pair[0])
	assert.Equal(t, edge(3, 4), pair[1])
}

func TestBestCandidatePromotesDynamicallyViaBKF(t *testing.T) {
	vals := map[bbnode.Candidate][2]float64{
		edge(1, 2): {5, 5},
		edge(3, 4): {4, 4},
		edge(5, 6): {3, 3},
	}
	calls := 0
	countingExact := func(_ *bbnode.Node, c bbnode.Candidate) (float64, float64, error) {
		calls++
		v := vals[c]
		return v[0], v[1], nil
	}

	adv := bkf.New()
	adv.Record(bkf.LPPhase, 1)
	adv.Record(bkf.HeuristicPhase, 1)

	s := New(5, 5, 5, 5, constFunc(2, 2), constFunc(1, 1), countingExact, history.New(), adv)
	s.BKF.Heuristic = PromotionParams{M: 0, N: 1}

	candidateMap := map[bbnode.Candidate]float64{
		edge(1, 2): 0.5,
		edge(3, 4): 0.5,
		edge(5, 6): 0.5,
	}
	winner, err := s.BestCandidate(nil, candidateMap)
	require.NoError(t, err)
	assert.Equal(t, edge(1, 2), winner)
	assert.Equal(t, 1, calls, "exact phase should only run on the one candidate BKF promoted")
}

func TestBestCandidateStaticWhenBKFUnset(t *testing.T) {
	vals := map[bbnode.Candidate][2]float64{
		edge(1, 2): {5, 5},
		edge(3, 4): {4, 4},
	}
	calls := 0
	countingExact := func(_ *bbnode.Node, c bbnode.Candidate) (float64, float64, error) {
		calls++
		v := vals[c]
		return v[0], v[1], nil
	}
	adv := bkf.New()
	adv.Record(bkf.LPPhase, 1)
	adv.Record(bkf.HeuristicPhase, 1)

	s := New(5, 5, 5, 5, constFunc(1, 1), constFunc(1, 1), countingExact, history.New(), adv)
	_, err := s.BestCandidate(nil, map[bbnode.Candidate]float64{
		edge(1, 2): 0.5,
		edge(3, 4): 0.5,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls, "leaving Scorer.BKF at its zero value must keep the static N1/N2/N3 counts")
}

func TestPropagatesTestFuncError(t *testing.T) {
	failing := func(*bbnode.Node, bbnode.Candidate) (float64, float64, error) {
		return 0, 0, assert.AnError
	}
	s := New(5, 5, 5, 5, failing, constFunc(1, 1), constFunc(1, 1), history.New(), bkf.New())
	_, err := s.BestCandidate(nil, map[bbnode.Candidate]float64{edge(1, 2): 0.5})
	assert.ErrorIs(t, err, assert.AnError)
}
