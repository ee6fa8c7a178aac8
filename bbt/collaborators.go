package bbt

import "github.com/gophervrp/bbcore/bbnode"

// Pricer generates columns for a node before it is scored, mirroring the
// pricing-at-begin collaborator. It may set node.Terminate to prune the
// node without branching.
type Pricer interface {
	PriceAtBegin(node *bbnode.Node) error
}

// Cutter separates violated cuts into a node's LP, looping internally
// until no violated cut is found or its own stop criterion fires. It may
// set node.Terminate.
type Cutter interface {
	Cut(node *bbnode.Node) error
}

// FeasibilityChecker reports whether a node's current LP solution is
// integer-feasible and, if so, its objective value.
type FeasibilityChecker interface {
	CheckIntegerFeasible(node *bbnode.Node) (feasible bool, objective float64, err error)
}

// CandidateFinder builds the fractional-edge candidate map the scorer
// ranks, from the node's current LP solution.
type CandidateFinder interface {
	Candidates(node *bbnode.Node) (map[bbnode.Candidate]float64, error)
}

// IncumbentObserver is notified whenever the controller records a new
// best integer-feasible solution.
type IncumbentObserver interface {
	OnIncumbent(node *bbnode.Node, objective float64)
}

// Checkpointer optionally persists processed nodes and restores a saved
// frontier before a run resumes.
type Checkpointer interface {
	NodeOut(node *bbnode.Node) error
	NodeIn() (*bbnode.Node, bool, error)
}

// EnumTrigger decides when a fractional/pricing-state node should switch to
// enumeration state and supplies the enumeration pool's initial columns
// when it does. ShouldEnumerate is consulted once per node, before
// branching; Enumerate is only called when it returns true.
type EnumTrigger interface {
	ShouldEnumerate(node *bbnode.Node, lowerBound, upperBound float64) bool
	Enumerate(node *bbnode.Node) ([]bbnode.Column, error)
}
