package history

import (
	"sync"
	"testing"

	"github.com/gophervrp/bbcore/bbnode"
	"github.com/stretchr/testify/assert"
)

func TestUnobservedCandidateFallsBackToFractionality(t *testing.T) {
	h := New()
	c := bbnode.SingleCandidate(bbnode.Edge{I: 1, J: 2})
	assert.Equal(t, 0.5, h.Score(c, 0.5))
}

func TestRecordUpDownMovesMean(t *testing.T) {
	h := New()
	c := bbnode.SingleCandidate(bbnode.Edge{I: 1, J: 2})
	h.RecordUp(c, 10)
	h.RecordUp(c, 20)
	h.RecordDown(c, 4)

	snap := h.Snapshot(c)
	assert.Equal(t, int64(2), snap.UpCount)
	assert.InDelta(t, 15, snap.UpMeanGain, 1e-9)
	assert.Equal(t, int64(1), snap.DownCount)
	assert.InDelta(t, 4, snap.DownMeanGain, 1e-9)
}

func TestScoreUsesPseudoCostOnceObserved(t *testing.T) {
	h := New()
	c := bbnode.SingleCandidate(bbnode.Edge{I: 1, J: 2})
	h.RecordUp(c, 10)
	h.RecordDown(c, 10)
	got := h.Score(c, 0)
	assert.InDelta(t, 100.0/2, got, 1e-9)
}

func TestMarkExhausted(t *testing.T) {
	h := New()
	c := bbnode.SingleCandidate(bbnode.Edge{I: 1, J: 2})
	h.MarkExhausted(c)
	assert.True(t, h.Snapshot(c).Exhausted)
}

func TestConcurrentWritesAreSerialized(t *testing.T) {
	h := New()
	c := bbnode.SingleCandidate(bbnode.Edge{I: 5, J: 6})
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.RecordUp(c, 1)
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(50), h.Snapshot(c).UpCount)
}
