package main

import (
	"math"

	"github.com/gophervrp/bbcore/bbnode"
	"github.com/gophervrp/bbcore/lpsolver"
)

// fractionalTolerance is how far from 0 or 1 an edge's LP value must be
// to count as fractional, both for candidate generation and for the
// integer-feasibility check.
const fractionalTolerance = 1e-6

// fractionalCandidates implements bbt.CandidateFinder by reporting every
// edge whose aggregated LP usage is strictly between 0 and 1.
type fractionalCandidates struct{}

func (fractionalCandidates) Candidates(node *bbnode.Node) (map[bbnode.Candidate]float64, error) {
	edgeMap, err := node.ObtainSolEdgeMap()
	if err != nil {
		return nil, err
	}
	out := make(map[bbnode.Candidate]float64, len(edgeMap))
	for e, v := range edgeMap {
		if v > fractionalTolerance && v < 1-fractionalTolerance {
			out[bbnode.SingleCandidate(e)] = v
		}
	}
	return out, nil
}

// integerFeasibility implements bbt.FeasibilityChecker: a node is integer
// feasible once the artificial covering column carries no weight and
// every real column's value is within fractionalTolerance of an integer.
type integerFeasibility struct{}

func (integerFeasibility) CheckIntegerFeasible(node *bbnode.Node) (bool, float64, error) {
	sol, err := node.Solver.Solve()
	if err != nil {
		return false, 0, err
	}
	if !sol.IsOptimal() {
		return false, 0, nil
	}
	if len(sol.ColValues) > 0 && sol.ColValues[0] > fractionalTolerance {
		return false, 0, nil
	}
	for _, v := range sol.ColValues {
		frac := v - math.Floor(v)
		if frac > fractionalTolerance && frac < 1-fractionalTolerance {
			return false, 0, nil
		}
	}
	return true, sol.Objective, nil
}

// edgeCoefficientProbe implements candidate.TestFunc by tentatively
// forbidding or forcing a candidate edge on a cloned LP and reading the
// resulting objective increase. The demo CLI reuses this single probe
// for all three strong-branching phases since it has no separate
// heuristic or exact pricing engine of its own; a production deployment
// would substitute progressively more expensive callbacks per phase.
type edgeCoefficientProbe struct{}

func (edgeCoefficientProbe) test(node *bbnode.Node, cand bbnode.Candidate) (deltaLeft, deltaRight float64, err error) {
	cols, vals := node.ObtainBrcCoefficient(cand.First)

	forbidClone, err := node.Solver.Clone()
	if err != nil {
		return 0, 0, err
	}
	if _, err := forbidClone.AddRow(cols, vals, lpsolver.EQ, 0); err != nil {
		return 0, 0, err
	}
	forbidSol, err := forbidClone.Solve()
	if err != nil {
		return 0, 0, err
	}
	deltaLeft = boundIncrease(forbidSol, node.Value)

	forceClone, err := node.Solver.Clone()
	if err != nil {
		return 0, 0, err
	}
	if _, err := forceClone.AddRow(cols, vals, lpsolver.EQ, 1); err != nil {
		return 0, 0, err
	}
	forceSol, err := forceClone.Solve()
	if err != nil {
		return 0, 0, err
	}
	deltaRight = boundIncrease(forceSol, node.Value)

	return deltaLeft, deltaRight, nil
}

func boundIncrease(sol lpsolver.Solution, base float64) float64 {
	if !sol.IsOptimal() {
		return math.Inf(1)
	}
	d := sol.Objective - base
	if d < 0 {
		return 0
	}
	return d
}
