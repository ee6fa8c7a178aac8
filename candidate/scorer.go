// Package candidate implements the multi-phase strong-branching pipeline
// that ranks fractional edges/edge-pairs and picks a winner, consulting
// the branching history for pseudo-cost-guided screening and the BKF
// advisor for phase-time bookkeeping.
package candidate

import (
	"errors"
	"sort"
	"time"

	"github.com/gophervrp/bbcore/bbnode"
	"github.com/gophervrp/bbcore/bkf"
	"github.com/gophervrp/bbcore/history"
)

// ErrNoCandidate is returned when the candidate map is empty; the caller
// (the BBT controller) is expected to mark the node terminate.
var ErrNoCandidate = errors.New("candidate: no candidate available")

// ExtremeUnbalancedRatio is the left/right delta ratio above which the
// extreme-unbalanced revision substitutes the score with the smaller side
// plus a penalty, preventing a nearly-infeasible branch from dominating.
const ExtremeUnbalancedRatio = 10.0

// ExtremeUnbalancedPenalty weights the larger delta under the
// extreme-unbalanced revision: the score becomes smaller + penalty*larger.
const ExtremeUnbalancedPenalty = 0.05

// PairSumTolerance is how close two candidates' LP values may sum to 1.0
// before being excluded from three-way top-two selection.
const PairSumTolerance = 1e-9

// TestFunc runs one phase's collaborator callback (LP/heuristic/exact
// column generation) on the given candidate applied to node, returning
// the LP-root increase observed on the down-branch (left) and up-branch
// (right) respectively.
type TestFunc func(node *bbnode.Node, cand bbnode.Candidate) (deltaLeft, deltaRight float64, err error)

// PromotionParams is a (M, N) parameter pair controlling how many
// survivors of one phase are promoted into the next; see
// bkf.Advisor.Promote. The zero value disables dynamic sizing.
type PromotionParams struct {
	M, N float64
}

// Scorer runs the four-phase strong-branching pipeline.
type Scorer struct {
	N0, N1, N2, N3 int

	// BKF holds the promotion parameters for entering the LP, heuristic
	// and exact phases respectively. A zero PromotionParams for a phase
	// keeps that phase's survivor count at its static N1/N2/N3 value;
	// a non-zero one lets Advisor.Promote size it dynamically from
	// measured phase times instead.
	BKF struct {
		LP, Heuristic, Exact PromotionParams
	}

	ProcessLP    TestFunc
	ProcessHeur  TestFunc
	ProcessExact TestFunc

	History *history.History
	Advisor *bkf.Advisor
}

// New returns a Scorer with the given per-phase counts and test
// callbacks.
func New(n0, n1, n2, n3 int, lp, heur, exact TestFunc, h *history.History, adv *bkf.Advisor) *Scorer {
	return &Scorer{N0: n0, N1: n1, N2: n2, N3: n3, ProcessLP: lp, ProcessHeur: heur, ProcessExact: exact, History: h, Advisor: adv}
}

type scored struct {
	cand  bbnode.Candidate
	score float64
}

// initialScreen ranks every candidate in candidateMap by the history's
// pseudo-cost score mixed with its LP fractionality, keeping the top n.
func (s *Scorer) initialScreen(candidateMap map[bbnode.Candidate]float64, n int) []scored {
	ranked := make([]scored, 0, len(candidateMap))
	for c, frac := range candidateMap {
		ranked = append(ranked, scored{cand: c, score: s.History.Score(c, frac)})
	}
	sortDesc(ranked)
	return truncate(ranked, n)
}

// promote returns how many of upstream candidates should survive into the
// phase named by to. When p is the zero PromotionParams, or there is no
// advisor, it falls back to static, the configured N1/N2/N3 count.
func (s *Scorer) promote(from, to bkf.Phase, upstream int, p PromotionParams, static int) int {
	if s.Advisor == nil || p == (PromotionParams{}) {
		return static
	}
	return s.Advisor.Promote(from, to, upstream, p.M, p.N)
}

// runPhase executes fn on every surviving candidate, revises the score via
// extreme-unbalanced revision, records pseudo-costs, and returns the
// candidates re-ranked, truncated to keep.
func (s *Scorer) runPhase(node *bbnode.Node, survivors []scored, fn TestFunc, phase bkf.Phase, keep int) ([]scored, error) {
	start := time.Now()
	out := make([]scored, 0, len(survivors))
	for _, sv := range survivors {
		deltaL, deltaR, err := fn(node, sv.cand)
		if err != nil {
			return nil, err
		}
		s.History.RecordDown(sv.cand, deltaL)
		s.History.RecordUp(sv.cand, deltaR)
		out = append(out, scored{cand: sv.cand, score: revisedScore(deltaL, deltaR)})
	}
	if s.Advisor != nil {
		s.Advisor.Record(phase, time.Since(start).Seconds())
	}
	sortDesc(out)
	return truncate(out, keep), nil
}

// revisedScore is the product of left/right improvements, substituted
// under extreme-unbalanced revision when one side drastically outweighs
// the other.
func revisedScore(deltaLeft, deltaRight float64) float64 {
	lo, hi := deltaLeft, deltaRight
	if lo > hi {
		lo, hi = hi, lo
	}
	if lo <= 0 {
		return lo * hi
	}
	if hi/lo > ExtremeUnbalancedRatio {
		return lo + ExtremeUnbalancedPenalty*hi
	}
	return deltaLeft * deltaRight
}

// BestCandidate runs all four phases against node and returns the winning
// candidate. ErrNoCandidate is returned for an empty candidateMap.
func (s *Scorer) BestCandidate(node *bbnode.Node, candidateMap map[bbnode.Candidate]float64) (bbnode.Candidate, error) {
	if len(candidateMap) == 0 {
		return bbnode.Candidate{}, ErrNoCandidate
	}

	n0 := s.initialScreen(candidateMap, s.N0)

	n1 := s.promote(bkf.LPPhase, bkf.LPPhase, len(n0), s.BKF.LP, s.N1)
	survivors, err := s.runPhase(node, n0, s.ProcessLP, bkf.LPPhase, n1)
	if err != nil {
		return bbnode.Candidate{}, err
	}
	n2 := s.promote(bkf.LPPhase, bkf.HeuristicPhase, len(survivors), s.BKF.Heuristic, s.N2)
	survivors, err = s.runPhase(node, survivors, s.ProcessHeur, bkf.HeuristicPhase, n2)
	if err != nil {
		return bbnode.Candidate{}, err
	}
	n3 := s.promote(bkf.HeuristicPhase, bkf.ExactPhase, len(survivors), s.BKF.Exact, s.N3)
	survivors, err = s.runPhase(node, survivors, s.ProcessExact, bkf.ExactPhase, n3)
	if err != nil {
		return bbnode.Candidate{}, err
	}
	if len(survivors) == 0 {
		return bbnode.Candidate{}, ErrNoCandidate
	}
	return survivors[0].cand, nil
}

// TopTwoCandidates runs the initial screen and the exact phase only,
// skipping LP/heuristic testing for the pair path, and returns two
// candidates whose LP values in candidateMap do not sum to 1.0 within
// PairSumTolerance, scanning every valid pair for the one whose sum is
// farthest from 1.0. If no such pair exists, it falls back to the top
// two by rank.
func (s *Scorer) TopTwoCandidates(node *bbnode.Node, candidateMap map[bbnode.Candidate]float64) ([2]bbnode.Candidate, error) {
	if len(candidateMap) == 0 {
		return [2]bbnode.Candidate{}, ErrNoCandidate
	}

	survivors := s.initialScreen(candidateMap, s.N0)
	survivors, err := s.runPhase(node, survivors, s.ProcessExact, bkf.ExactPhase, len(survivors))
	if err != nil {
		return [2]bbnode.Candidate{}, err
	}
	if len(survivors) < 2 {
		return [2]bbnode.Candidate{}, ErrNoCandidate
	}

	bestI, bestJ := -1, -1
	bestDist := -1.0
	for i := 0; i < len(survivors); i++ {
		iVal := candidateMap[survivors[i].cand]
		for j := i + 1; j < len(survivors); j++ {
			sum := iVal + candidateMap[survivors[j].cand]
			dist := sum - 1.0
			if dist < 0 {
				dist = -dist
			}
			if dist <= PairSumTolerance {
				continue
			}
			if dist > bestDist {
				bestDist = dist
				bestI, bestJ = i, j
			}
		}
	}
	if bestI < 0 {
		return [2]bbnode.Candidate{survivors[0].cand, survivors[1].cand}, nil
	}
	return [2]bbnode.Candidate{survivors[bestI].cand, survivors[bestJ].cand}, nil
}

func sortDesc(s []scored) {
	sort.Slice(s, func(i, j int) bool {
		if s[i].score != s[j].score {
			return s[i].score > s[j].score
		}
		return s[i].cand.Less(s[j].cand)
	})
}

func truncate(s []scored, n int) []scored {
	if n <= 0 || n >= len(s) {
		return s
	}
	return s[:n]
}
