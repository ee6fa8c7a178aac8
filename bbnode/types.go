// Package bbnode implements the branch-and-bound node (C1 in the design):
// the LP model, arc-bucket graph, columns, cuts and branch history that make
// up one subproblem in the search tree.
package bbnode

import "fmt"

// InvalidBrcIndex is the sentinel row index for a branch constraint that has
// no corresponding LP row.
const InvalidBrcIndex = -1

// Edge is an undirected arc between two customer/depot indices.
type Edge struct {
	I, J int
}

// Canonical returns e with I <= J, so that symmetric lookups agree
// regardless of which endpoint was named first.
func (e Edge) Canonical() Edge {
	if e.I <= e.J {
		return e
	}
	return Edge{I: e.J, J: e.I}
}

// Less gives a deterministic lexicographic tie-break over edges.
func (e Edge) Less(o Edge) bool {
	ce, co := e.Canonical(), o.Canonical()
	if ce.I != co.I {
		return ce.I < co.I
	}
	return ce.J < co.J
}

func (e Edge) String() string { return fmt.Sprintf("(%d,%d)", e.I, e.J) }

// Candidate is either a single edge (2-way branching) or an ordered pair of
// edges (3-way branching). It is a plain comparable struct so it can be used
// directly as a map key, with no hand-rolled hash function.
type Candidate struct {
	First  Edge
	Second Edge // meaningful only when Pair is true
	Pair   bool
}

// SingleCandidate builds a 2-way candidate.
func SingleCandidate(e Edge) Candidate { return Candidate{First: e.Canonical()} }

// PairCandidate builds a 3-way candidate from two edges.
func PairCandidate(e1, e2 Edge) Candidate {
	return Candidate{First: e1.Canonical(), Second: e2.Canonical(), Pair: true}
}

// Less implements the deterministic tie-break for candidates: lexicographic
// on edge endpoints, single edges before pairs when the first edge ties.
func (c Candidate) Less(o Candidate) bool {
	if c.First != o.First {
		return c.First.Less(o.First)
	}
	if c.Pair != o.Pair {
		return !c.Pair
	}
	return c.Second.Less(o.Second)
}

func (c Candidate) String() string {
	if !c.Pair {
		return c.First.String()
	}
	return fmt.Sprintf("[%s,%s]", c.First, c.Second)
}

// BrcDirection is the direction of a branch constraint.
type BrcDirection byte

const (
	// Force enforces the candidate edge(s) to value 1 ("x_e = 1").
	Force BrcDirection = iota
	// Forbid enforces the candidate edge(s) to value 0 ("x_e = 0").
	Forbid
	// Middle is the 3-way "exactly one of the two edges" branch.
	Middle
)

func (d BrcDirection) String() string {
	switch d {
	case Force:
		return "FORCE"
	case Forbid:
		return "FORBID"
	case Middle:
		return "MIDDLE"
	default:
		return "?"
	}
}

// Brc is a branch constraint: the candidate it derives from, the LP row it
// occupies (or InvalidBrcIndex), its direction, and whether it was produced
// by a 3-way split. It is immutable after insertion.
type Brc struct {
	Candidate  Candidate
	RowIdx     int
	Dir        BrcDirection
	FromThreeW bool
}

// Column is one enumerated route: an ordered sequence of customer indices,
// its objective coefficient, and the demand it consumes.
type Column struct {
	Seq    []int
	Cost   float64
	Demand int
}

// visits reports whether the column's route passes through customer v.
func (c Column) visits(v int) bool {
	for _, u := range c.Seq {
		if u == v {
			return true
		}
	}
	return false
}

// visitsConsecutive reports whether i and j appear consecutively in the
// route, in either direction.
func (c Column) visitsConsecutive(i, j int) bool {
	for k := 0; k+1 < len(c.Seq); k++ {
		if (c.Seq[k] == i && c.Seq[k+1] == j) || (c.Seq[k] == j && c.Seq[k+1] == i) {
			return true
		}
	}
	return false
}

// IsDummy reports whether the column is the sentinel dummy column that
// always sits at index 0 and is never removed.
func (c Column) IsDummy() bool { return c.Seq == nil }

// DummyColumn returns the sentinel column installed at index 0 of every node.
func DummyColumn() Column { return Column{Seq: nil, Cost: 0} }
