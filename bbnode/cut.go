package bbnode

import "github.com/gophervrp/bbcore/lpsolver"

// CutKind distinguishes the cut families a node can carry.
type CutKind byte

const (
	// RCC is a rounded capacity cut.
	RCC CutKind = iota
	// R1C is a rank-1 cut.
	R1C
)

func (k CutKind) String() string {
	if k == RCC {
		return "RCC"
	}
	return "R1C"
}

// Cut is a valid inequality tightening the LP relaxation. RowIdx is its LP
// row; Coeff/RHS are kept for checkpointing and for re-deriving the row
// after a clone if the LP backend cannot itself be cloned deeply.
type Cut struct {
	Kind   CutKind
	RowIdx int
	ColIdx []int
	Coeff  []float64
	Sense  lpsolver.Sense
	RHS    float64
}
