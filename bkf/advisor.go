// Package bkf implements the branch-cost-and-forecast advisor: it watches
// how long each strong-branching phase takes and decides how many
// surviving candidates to promote to the next, more expensive phase,
// using a moving-average estimate of each phase's cost.
package bkf

// Phase names the three strong-branching test phases the advisor tracks.
type Phase int

const (
	LPPhase Phase = iota
	HeuristicPhase
	ExactPhase
	numPhases
)

func (p Phase) String() string {
	switch p {
	case LPPhase:
		return "lp"
	case HeuristicPhase:
		return "heuristic"
	case ExactPhase:
		return "exact"
	default:
		return "?"
	}
}

// phaseStats is the (time, count) pair the advisor keeps per phase.
type phaseStats struct {
	totalTime float64
	count     int64
}

func (s phaseStats) mean() float64 {
	if s.count == 0 {
		return 0
	}
	return s.totalTime / float64(s.count)
}

// Advisor holds per-phase timing statistics and a node-processing-time
// estimate, and decides how many candidates a phase should promote to the
// next.
type Advisor struct {
	stats [numPhases]phaseStats
	nNode phaseStats // T_node estimate, tracked the same way as a phase
}

// New returns an Advisor with no observations yet.
func New() *Advisor { return &Advisor{} }

// Record folds one observed wall-clock duration (in seconds) for phase
// into the advisor's moving statistics.
func (a *Advisor) Record(phase Phase, seconds float64) {
	a.stats[phase].totalTime += seconds
	a.stats[phase].count++
}

// RecordNodeTime folds one observed total node-processing duration into
// the T_node estimate.
func (a *Advisor) RecordNodeTime(seconds float64) {
	a.nNode.totalTime += seconds
	a.nNode.count++
}

// MeanTime returns the current moving-average time for phase, or 0 if it
// has never been observed.
func (a *Advisor) MeanTime(phase Phase) float64 { return a.stats[phase].mean() }

// NodeTimeEstimate returns T_node, the current moving-average
// node-processing time.
func (a *Advisor) NodeTimeEstimate() float64 { return a.nNode.mean() }

// Promote decides how many of the upstream count candidates should be
// promoted to the next phase, given the BKF parameter pair (m, n): the
// ratio of the *current* phase's mean time to the *next* phase's mean
// time (m/n roles), scaled against upstream. The rule is monotone in
// m/n and never promotes more than upstream.
//
// When either phase has no observations yet, the advisor promotes
// everything, since there is no basis yet to trim.
func (a *Advisor) Promote(from, to Phase, upstream int, m, n float64) int {
	if upstream <= 0 {
		return 0
	}
	fromMean, toMean := a.MeanTime(from), a.MeanTime(to)
	if fromMean == 0 || toMean == 0 || n == 0 {
		return upstream
	}
	ratio := (m / n) * (fromMean / toMean)
	if ratio > 1 {
		ratio = 1
	}
	if ratio < 0 {
		ratio = 0
	}
	promoted := int(ratio * float64(upstream))
	if promoted < 1 {
		promoted = 1
	}
	if promoted > upstream {
		promoted = upstream
	}
	return promoted
}

// SkipEffective reports whether, based on measured phase time ratios, the
// controller should bypass the given phase entirely for the current node
// — the "measured average phase time ratio predicts a subsequent phase is
// cost-ineffective" rule the controller consults before invoking it.
func (a *Advisor) SkipEffective(phase Phase) bool {
	nodeTime := a.NodeTimeEstimate()
	phaseTime := a.MeanTime(phase)
	if nodeTime == 0 || phaseTime == 0 {
		return false
	}
	return phaseTime > nodeTime
}
