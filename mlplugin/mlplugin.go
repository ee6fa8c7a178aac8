// Package mlplugin implements the machine-learning candidate-selection
// plug-in seam: a Selector the controller can consult in place of the
// full LP/heuristic/exact pipeline, plus a Recorder that captures
// (node, edge-map, chosen-candidate) training triples in the two
// "get-data" modes. No model is trained here; Scorer always falls back
// to a closeness-to-0.5 heuristic in place of a learned model.
package mlplugin

import (
	"errors"
	"math"

	"github.com/gophervrp/bbcore/bbnode"
)

// ErrNoCandidate mirrors candidate.ErrNoCandidate for callers that only
// depend on this package.
var ErrNoCandidate = errors.New("mlplugin: no candidate available")

// Mode selects how the plug-in seam participates in a run.
type Mode int

const (
	// NoUse disables the seam entirely; the controller runs its normal
	// four-phase pipeline.
	NoUse Mode = iota
	// GetData1 and GetData2 run the normal pipeline but additionally
	// record training triples at two different points in a run.
	GetData1
	GetData2
	// UseModel replaces the pipeline with Scorer.Select for every node.
	UseModel
)

func (m Mode) String() string {
	switch m {
	case NoUse:
		return "no-use"
	case GetData1:
		return "get-data-1"
	case GetData2:
		return "get-data-2"
	case UseModel:
		return "use-model"
	default:
		return "?"
	}
}

// Sample is one recorded (node, edge-map, chosen-candidate) training
// triple.
type Sample struct {
	NodeIdx   int64
	EdgeMap   map[bbnode.Candidate]float64
	Chosen    bbnode.Candidate
	TreeSize  int
	Objective float64
}

// Recorder accumulates training samples for the get-data modes.
type Recorder struct {
	samples []Sample
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder { return &Recorder{} }

// Record appends one sample.
func (r *Recorder) Record(s Sample) { r.samples = append(r.samples, s) }

// Samples returns every sample recorded so far.
func (r *Recorder) Samples() []Sample { return append([]Sample(nil), r.samples...) }

// SolutionTolerance is the fractionality tolerance below which an edge is
// considered integral and excluded from consideration.
const SolutionTolerance = 1e-6

// closenessToHalf scores a fractional LP value by negative distance from
// 0.5, so the candidate closest to 0.5 wins.
func closenessToHalf(v float64) float64 { return -math.Abs(v-0.5) }

// Scorer selects a branching candidate by closeness to 0.5, a stub
// heuristic standing in for a learned model. It has no learned state; a
// future model implementation would satisfy the same Select signature.
type Scorer struct{}

// NewScorer returns a Scorer ready to use.
func NewScorer() *Scorer { return &Scorer{} }

// Select picks the fractional candidate closest to 0.5, skipping any
// candidate whose LP value is within SolutionTolerance of an integer. It
// returns ErrNoCandidate if candidateMap is empty or every candidate is
// already integral.
func (s *Scorer) Select(candidateMap map[bbnode.Candidate]float64) (bbnode.Candidate, error) {
	if len(candidateMap) == 0 {
		return bbnode.Candidate{}, ErrNoCandidate
	}

	bestScore := math.Inf(-1)
	var best bbnode.Candidate
	found := false

	for cand, v := range candidateMap {
		if v < SolutionTolerance || v > 1-SolutionTolerance {
			continue
		}
		score := closenessToHalf(v)
		if score > bestScore {
			bestScore = score
			best = cand
			found = true
		}
	}

	if !found {
		return bbnode.Candidate{}, ErrNoCandidate
	}
	return best, nil
}
