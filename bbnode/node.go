package bbnode

import (
	"fmt"

	"github.com/gophervrp/bbcore/lpsolver"
)

// IndexAllocator hands out the monotonically increasing node index. It is a
// dependency injected by the controller rather than a package-level
// counter, so multiple concurrent searches can coexist in one process.
type IndexAllocator interface {
	Next() int64
}

// Node is one subproblem in the branch-and-bound tree: the invariants
// enforced here are documented next to the method that would otherwise be
// able to violate them.
type Node struct {
	Idx int64

	Solver lpsolver.Interface
	Cols   []Column

	Brcs []Brc
	RCCs []Cut
	R1Cs []Cut

	// Enumeration is false while the node is in fractional/pricing state
	// and true once it has switched to enumeration state.
	Enumeration bool
	Terminate   bool

	Value   float64
	LastGap float64

	Buckets *ArcBucketGraph // nil when Enumeration is true
	Enum    *EnumState      // nil unless Enumeration is true

	// ThreeWayBudgetUsed counts 3-way splits taken on the path from the
	// root to this node.
	ThreeWayBudgetUsed int

	baseRows  int
	symmetric bool

	edgeMapCache map[Edge]float64
	edgeMapValid bool
	pairMapCache map[[2]Edge]float64
	pairMapValid bool
}

// ClearSolCache invalidates the cached edge-solution maps. The branching
// operator calls this on every child it produces, even though a freshly
// cloned node already starts with no cache — the call matters for a node
// that was mutated in place (the 2-way FALSE child, or the shared parent
// node while building a 3-way split).
func (n *Node) ClearSolCache() {
	n.edgeMapValid = false
	n.pairMapValid = false
}

// NewRoot builds the root node: empty brcs, base LP rows already installed
// by the caller (pricing/cutting collaborators own the base model), and the
// dummy column at index 0.
func NewRoot(solver lpsolver.Interface, baseRows int, buckets *ArcBucketGraph, symmetric bool) *Node {
	return &Node{
		Idx:       0,
		Solver:    solver,
		Cols:      []Column{DummyColumn()},
		Buckets:   buckets,
		baseRows:  baseRows,
		symmetric: symmetric,
	}
}

// Restore reconstructs a node from checkpointed bookkeeping fields onto a
// caller-supplied solver and, for a non-enumeration node, arc buckets. The
// caller is responsible for bringing solver into a state consistent with
// brcs/rccs/r1cs (typically by replaying their rows against the same base
// model the run started from) before resuming search on the result.
func Restore(solver lpsolver.Interface, baseRows int, buckets *ArcBucketGraph, enum *EnumState, symmetric bool, idx int64, cols []Column, brcs []Brc, rccs, r1cs []Cut, value, lastGap float64, threeWayBudgetUsed int) *Node {
	return &Node{
		Idx:                idx,
		Solver:             solver,
		Cols:               append([]Column(nil), cols...),
		Brcs:               append([]Brc(nil), brcs...),
		RCCs:               append([]Cut(nil), rccs...),
		R1Cs:               append([]Cut(nil), r1cs...),
		Enumeration:        enum != nil,
		Value:              value,
		LastGap:            lastGap,
		Buckets:            buckets,
		Enum:               enum,
		ThreeWayBudgetUsed: threeWayBudgetUsed,
		baseRows:           baseRows,
		symmetric:          symmetric,
	}
}

// IsRoot reports whether the node is the unique node with empty brcs.
func (n *Node) IsRoot() bool { return len(n.Brcs) == 0 }

// ValidRowBrcCount returns the number of branch constraints occupying an
// actual LP row.
func (n *Node) ValidRowBrcCount() int {
	c := 0
	for _, b := range n.Brcs {
		if b.RowIdx != InvalidBrcIndex {
			c++
		}
	}
	return c
}

// CheckRowInvariant verifies that the LP row count matches base rows plus
// valid-row branch constraints plus cuts.
func (n *Node) CheckRowInvariant() error {
	want := n.baseRows + n.ValidRowBrcCount() + len(n.RCCs) + len(n.R1Cs)
	got := n.Solver.NumRows()
	if got != want {
		return fmt.Errorf("bbnode: row invariant violated: want %d rows, solver has %d", want, got)
	}
	return nil
}

// CloneWithBranch produces a new node inheriting cols, a deep-copied LP
// model, rccs, r1cs, brcs plus newBrc, the gap, and either arc buckets
// (non-enumeration) or enumeration-pool indices (enumeration state).
// Failure to clone the solver or the arc buckets is fatal: the caller must
// not attempt to recover a partially cloned node.
func (n *Node) CloneWithBranch(alloc IndexAllocator, newBrc Brc) *Node {
	clonedSolver, err := n.Solver.Clone()
	if err != nil {
		panic(&lpsolver.Error{Op: "Clone", Err: err})
	}
	child := &Node{
		Idx:                alloc.Next(),
		Solver:             clonedSolver,
		Cols:               append([]Column(nil), n.Cols...),
		Brcs:               append(append([]Brc(nil), n.Brcs...), newBrc),
		RCCs:               append([]Cut(nil), n.RCCs...),
		R1Cs:               append([]Cut(nil), n.R1Cs...),
		Enumeration:        n.Enumeration,
		Value:              n.Value,
		LastGap:            n.LastGap,
		baseRows:           n.baseRows,
		symmetric:          n.symmetric,
		ThreeWayBudgetUsed: n.ThreeWayBudgetUsed,
	}
	if newBrc.FromThreeW {
		child.ThreeWayBudgetUsed++
	}
	if n.Enumeration {
		child.Enum = n.Enum.Clone()
	} else {
		child.Buckets = n.Buckets.Clone()
	}
	return child
}

// ObtainBrcCoefficient returns the column indices and coefficients of the
// branching-cut row for edge over this node's current columns: 1 for every
// column that visits both endpoints consecutively, plus a coefficient of 1
// on the dummy column (index 0), which always participates so that a
// FORCE row never becomes infeasible before pricing has a chance to
// generate a column covering the edge.
func (n *Node) ObtainBrcCoefficient(edge Edge) (cols []int, vals []float64) {
	e := edge.Canonical()
	cols = append(cols, 0)
	vals = append(vals, 1)
	for i := 1; i < len(n.Cols); i++ {
		if n.Cols[i].visitsConsecutive(e.I, e.J) {
			cols = append(cols, i)
			vals = append(vals, 1)
		}
	}
	return cols, vals
}

// ObtainColIdxNotAllowedByEdge returns, in enumeration state, the columns
// that must be removed when forcing edge=1: those visiting exactly one of
// the two endpoints.
func (n *Node) ObtainColIdxNotAllowedByEdge(edge Edge) []int {
	e := edge.Canonical()
	var out []int
	for i, c := range n.Cols {
		if c.IsDummy() {
			continue
		}
		visitsI, visitsJ := c.visits(e.I), c.visits(e.J)
		if visitsI != visitsJ {
			out = append(out, i)
		}
	}
	return out
}

// RemoveLPCols removes columns from the LP model and from Cols. The dummy
// column at index 0 is never removed even if named in idx.
func (n *Node) RemoveLPCols(idx []int) error {
	filtered := idx[:0:0]
	for _, i := range idx {
		if i != 0 {
			filtered = append(filtered, i)
		}
	}
	if len(filtered) == 0 {
		return nil
	}
	if err := n.Solver.RemoveCols(filtered); err != nil {
		return &lpsolver.Error{Op: "RemoveCols", Err: err}
	}
	remove := make(map[int]bool, len(filtered))
	for _, i := range filtered {
		remove[i] = true
	}
	newCols := n.Cols[:0:0]
	for i, c := range n.Cols {
		if !remove[i] {
			newCols = append(newCols, c)
		}
	}
	n.Cols = newCols
	n.ClearSolCache()
	return nil
}

// EnumDualsSentinel is the value RegenerateEnumMatrix requires for every
// entry of its duals argument: a value no real pricing dual could ever
// equal, so callers can't mistake a matrix regeneration for a pricing pass
// or accidentally recycle a stale base row against it.
const EnumDualsSentinel = -1.0

// RegenerateEnumMatrix rebuilds the LP's column matrix from n.Enum's active
// columns, dropping everything the enumeration-state branch has marked
// deleted. duals must be all EnumDualsSentinel and sized to the LP's
// current row count; RegenerateEnumMatrix rejects anything else so a real
// pricing dual vector can never be mistaken for a matrix regeneration.
func (n *Node) RegenerateEnumMatrix(duals []float64) error {
	if !n.Enumeration || n.Enum == nil {
		return fmt.Errorf("bbnode: RegenerateEnumMatrix requires enumeration state")
	}
	numRows := n.Solver.NumRows()
	if len(duals) != numRows {
		return fmt.Errorf("bbnode: RegenerateEnumMatrix: want %d duals, got %d", numRows, len(duals))
	}
	for _, d := range duals {
		if d != EnumDualsSentinel {
			return fmt.Errorf("bbnode: RegenerateEnumMatrix: duals must all be the enumeration sentinel %.0f", EnumDualsSentinel)
		}
	}

	n.Enum.Compact()

	removeIdx := make([]int, 0, len(n.Cols)-1)
	for i := 1; i < len(n.Cols); i++ {
		removeIdx = append(removeIdx, i)
	}
	if err := n.RemoveLPCols(removeIdx); err != nil {
		return err
	}

	active := n.Enum.ActiveColumns()
	fresh := make([]Column, 0, len(active))
	for _, a := range active {
		rowIdx, rowVal := columnCoverageRows(a.Col)
		if _, err := n.Solver.AddCol(a.Col.Cost, rowIdx, rowVal); err != nil {
			return &lpsolver.Error{Op: "AddCol", Err: err}
		}
		fresh = append(fresh, a.Col)
	}
	n.Cols = append(n.Cols, fresh...)
	n.ClearSolCache()
	return nil
}

// columnCoverageRows builds the customer-visit row coefficients for col:
// coefficient 1 on the row of every non-depot customer it visits, the same
// shape internal/naivepricing uses when adding a priced column.
func columnCoverageRows(col Column) (rowIdx []int, rowVal []float64) {
	for _, v := range col.Seq {
		if v == 0 {
			continue
		}
		rowIdx = append(rowIdx, v-1)
		rowVal = append(rowVal, 1)
	}
	return rowIdx, rowVal
}

// ObtainSolEdgeMap aggregates fractional usage per edge from the current LP
// primal solution.
func (n *Node) ObtainSolEdgeMap() (map[Edge]float64, error) {
	if n.edgeMapValid {
		return n.edgeMapCache, nil
	}
	x, err := n.Solver.GetX(0, n.Solver.NumCols())
	if err != nil {
		return nil, &lpsolver.Error{Op: "GetX", Err: err}
	}
	out := make(map[Edge]float64)
	for i := 1; i < len(n.Cols) && i < len(x); i++ {
		v := x[i]
		if v == 0 {
			continue
		}
		seq := n.Cols[i].Seq
		for k := 0; k+1 < len(seq); k++ {
			e := Edge{I: seq[k], J: seq[k+1]}.Canonical()
			out[e] += v
		}
	}
	n.edgeMapCache = out
	n.edgeMapValid = true
	return out, nil
}

// ObtainSol3DEdgeMap aggregates, for every pair of distinct edges that
// co-occur in a shared column, the sum of that column's fractional usage.
func (n *Node) ObtainSol3DEdgeMap() (map[[2]Edge]float64, error) {
	if n.pairMapValid {
		return n.pairMapCache, nil
	}
	x, err := n.Solver.GetX(0, n.Solver.NumCols())
	if err != nil {
		return nil, &lpsolver.Error{Op: "GetX", Err: err}
	}
	out := make(map[[2]Edge]float64)
	for i := 1; i < len(n.Cols) && i < len(x); i++ {
		v := x[i]
		if v == 0 {
			continue
		}
		seq := n.Cols[i].Seq
		var edges []Edge
		for k := 0; k+1 < len(seq); k++ {
			edges = append(edges, Edge{I: seq[k], J: seq[k+1]}.Canonical())
		}
		for a := 0; a < len(edges); a++ {
			for b := a + 1; b < len(edges); b++ {
				e1, e2 := edges[a], edges[b]
				if e2.Less(e1) {
					e1, e2 = e2, e1
				}
				out[[2]Edge{e1, e2}] += v
			}
		}
	}
	n.pairMapCache = out
	n.pairMapValid = true
	return out, nil
}
