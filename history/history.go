// Package history maintains the branch-and-bound tree's shared branching
// history: per-candidate moving pseudo-costs and exploration counts,
// read through a per-candidate atomic snapshot (the candidate map itself
// under a read-write lock) and written under a per-candidate mutex, in the
// spirit of a
// VSIDS-style variable activity table.
package history

import (
	"sync"
	"sync/atomic"

	"github.com/gophervrp/bbcore/bbnode"
)

// MinObservations is the minimum per-side observation count below which
// the initial-screen score falls back to pure LP-fractionality.
const MinObservations = 1

// Record is one candidate's exploration statistics. Callers must not
// mutate a Record obtained from Snapshot; it is a value copy.
type Record struct {
	UpCount      int64
	DownCount    int64
	UpMeanGain   float64
	DownMeanGain float64
	Exhausted    bool
}

// score returns the initial-screen score for the record given the
// candidate's current LP fractionality, larger being better.
func (r Record) score(fractionality float64) float64 {
	if r.UpCount < MinObservations || r.DownCount < MinObservations {
		return fractionality
	}
	denom := float64(r.UpCount*r.DownCount + 1)
	return (r.UpMeanGain*r.DownMeanGain)/denom + fractionality
}

type entry struct {
	mu     sync.Mutex
	record atomic.Pointer[Record]
}

// History is the shared candidate → Record table. The zero value is not
// usable; construct with New.
type History struct {
	mu      sync.RWMutex
	entries map[bbnode.Candidate]*entry
}

// New returns an empty History.
func New() *History {
	return &History{entries: make(map[bbnode.Candidate]*entry)}
}

func (h *History) entryFor(c bbnode.Candidate) *entry {
	h.mu.RLock()
	e, ok := h.entries[c]
	h.mu.RUnlock()
	if ok {
		return e
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if e, ok = h.entries[c]; ok {
		return e
	}
	e = &entry{}
	e.record.Store(&Record{})
	h.entries[c] = e
	return e
}

// Snapshot returns a lock-free read of the candidate's current record. A
// candidate never observed returns the zero Record.
func (h *History) Snapshot(c bbnode.Candidate) Record {
	h.mu.RLock()
	e, ok := h.entries[c]
	h.mu.RUnlock()
	if !ok {
		return Record{}
	}
	return *e.record.Load()
}

// Score returns the initial-screening score for c, mixing the candidate's
// moving pseudo-costs with its current LP fractionality.
func (h *History) Score(c bbnode.Candidate, fractionality float64) float64 {
	return h.Snapshot(c).score(fractionality)
}

// RecordUp folds an up-branch (FORCE side) LP-gain observation into c's
// moving mean, serializing writers per candidate.
func (h *History) RecordUp(c bbnode.Candidate, gain float64) {
	e := h.entryFor(c)
	e.mu.Lock()
	defer e.mu.Unlock()
	cur := *e.record.Load()
	cur.UpMeanGain = movingMean(cur.UpMeanGain, cur.UpCount, gain)
	cur.UpCount++
	e.record.Store(&cur)
}

// RecordDown folds a down-branch (FORBID side) LP-gain observation into
// c's moving mean, serializing writers per candidate.
func (h *History) RecordDown(c bbnode.Candidate, gain float64) {
	e := h.entryFor(c)
	e.mu.Lock()
	defer e.mu.Unlock()
	cur := *e.record.Load()
	cur.DownMeanGain = movingMean(cur.DownMeanGain, cur.DownCount, gain)
	cur.DownCount++
	e.record.Store(&cur)
}

// MarkExhausted flags c as no longer worth re-testing.
func (h *History) MarkExhausted(c bbnode.Candidate) {
	e := h.entryFor(c)
	e.mu.Lock()
	defer e.mu.Unlock()
	cur := *e.record.Load()
	cur.Exhausted = true
	e.record.Store(&cur)
}

func movingMean(mean float64, count int64, sample float64) float64 {
	if count == 0 {
		return sample
	}
	n := float64(count)
	return (mean*n + sample) / (n + 1)
}
