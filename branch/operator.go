// Package branch materializes child nodes from a winning candidate: the
// branching operator that turns a scorer's decision into 2 or 3
// bbnode.Node clones with the right LP rows, arc pruning, and column
// removal applied to each.
package branch

import (
	"fmt"

	"github.com/gophervrp/bbcore/bbnode"
	"github.com/gophervrp/bbcore/lpsolver"
)

// ThreeWayDepthBudget bounds how many 3-way splits a single root-to-node
// path may take before Impose3 degrades Branch C to two 2-way children.
const ThreeWayDepthBudget = 10

// Operator applies branch decisions to nodes, given a way to allocate the
// resulting children's indices.
type Operator struct {
	Alloc bbnode.IndexAllocator
}

// New returns an Operator backed by alloc.
func New(alloc bbnode.IndexAllocator) *Operator {
	return &Operator{Alloc: alloc}
}

// Impose applies a 2-way branch on edge to node, returning [falseChild,
// trueChild]. If node.Terminate, it returns nil. The true child is a
// fresh clone with a FORCE row; the false child is node itself, mutated
// in place and re-indexed, with the forbidden columns and arc removed.
func (o *Operator) Impose(node *bbnode.Node, edge bbnode.Edge) ([]*bbnode.Node, error) {
	if node.Terminate {
		return nil, nil
	}

	trueChild, err := o.forceChild(node, edge)
	if err != nil {
		return nil, err
	}

	falseChild, err := o.forbidInPlace(node, edge)
	if err != nil {
		return nil, err
	}

	return []*bbnode.Node{falseChild, trueChild}, nil
}

// forceChild builds the FORCE(edge=1) child: clone plus a new row with
// coefficients from ObtainBrcCoefficient, sense EQ, RHS 1.
func (o *Operator) forceChild(node *bbnode.Node, edge bbnode.Edge) (*bbnode.Node, error) {
	cols, vals := node.ObtainBrcCoefficient(edge)
	child := node.CloneWithBranch(o.Alloc, bbnode.Brc{
		Candidate: bbnode.SingleCandidate(edge),
		RowIdx:    bbnode.InvalidBrcIndex,
		Dir:       bbnode.Force,
	})
	rowIdx, err := child.Solver.AddRow(cols, vals, lpsolver.EQ, 1)
	if err != nil {
		return nil, &lpsolver.Error{Op: "AddRow(FORCE)", Err: err}
	}
	child.Brcs[len(child.Brcs)-1].RowIdx = rowIdx
	child.ClearSolCache()
	return child, nil
}

// forbidInPlace mutates node into the FORBID(edge=0) child: no new LP row
// (the constraint is implicit column exclusion), columns that use the edge
// (non-zero coefficient in ObtainBrcCoefficient) are removed, the edge is
// pruned from arc buckets (skipped
// in enumeration state, where node.Buckets is nil), and the node is
// re-indexed as if newly produced.
func (o *Operator) forbidInPlace(node *bbnode.Node, edge bbnode.Edge) (*bbnode.Node, error) {
	node.Brcs = append(node.Brcs, bbnode.Brc{
		Candidate: bbnode.SingleCandidate(edge),
		RowIdx:    bbnode.InvalidBrcIndex,
		Dir:       bbnode.Forbid,
	})
	remove, _ := node.ObtainBrcCoefficient(edge)
	if err := forbidColumns(node, remove); err != nil {
		return nil, err
	}
	if node.Buckets != nil {
		node.Buckets.DeleteArc(edge)
	}
	node.Idx = o.Alloc.Next()
	node.ClearSolCache()
	return node, nil
}

// forbidColumns removes removeIdx from node: a plain LP removal in
// fractional/pricing state, or, once node.Enumeration is true, marking the
// corresponding enumeration-pool slots deleted and regenerating the LP's
// column matrix from what survives.
func forbidColumns(node *bbnode.Node, removeIdx []int) error {
	if node.Enumeration {
		return markEnumDeletedAndRegenerate(node, removeIdx)
	}
	return node.RemoveLPCols(removeIdx)
}

// markEnumDeletedAndRegenerate translates node.Cols indices (1-based, past
// the dummy column) into local EnumState positions, marks them deleted,
// and regenerates the LP matrix with an all-EnumDualsSentinel duals
// vector, so the regeneration can never be mistaken for a pricing pass.
func markEnumDeletedAndRegenerate(node *bbnode.Node, removeIdx []int) error {
	local := make([]int, 0, len(removeIdx))
	for _, i := range removeIdx {
		if i == 0 {
			continue
		}
		local = append(local, i-1)
	}
	node.Enum.MarkDeleted(local)

	duals := make([]float64, node.Solver.NumRows())
	for i := range duals {
		duals[i] = bbnode.EnumDualsSentinel
	}
	return node.RegenerateEnumMatrix(duals)
}

// Impose3 applies a 3-way branch on the two edges in pair to node,
// producing Branch A (both FORCE), Branch B (both FORBID) and Branch C
// (MIDDLE, exactly one of the two) in that order — unless node's 3-way
// depth budget is exhausted, in which case Branch C is replaced by two
// 2-way children enforcing (e1=1,e2=0) and (e1=0,e2=1).
func (o *Operator) Impose3(node *bbnode.Node, pair [2]bbnode.Edge) ([]*bbnode.Node, error) {
	if node.Terminate {
		return nil, nil
	}
	e1, e2 := pair[0], pair[1]

	branchA, err := o.forceBoth(node, e1, e2)
	if err != nil {
		return nil, err
	}
	branchB, err := o.forbidBoth(node, e1, e2)
	if err != nil {
		return nil, err
	}

	if node.ThreeWayBudgetUsed >= ThreeWayDepthBudget {
		fallbackAB, err := o.forceForbidPair(node, e1, e2)
		if err != nil {
			return nil, err
		}
		fallbackBA, err := o.forceForbidPair(node, e2, e1)
		if err != nil {
			return nil, err
		}
		children := []*bbnode.Node{branchA, branchB, fallbackAB, fallbackBA}
		for _, c := range children {
			c.ClearSolCache()
		}
		return children, nil
	}

	branchC, err := o.middle(node, e1, e2)
	if err != nil {
		return nil, err
	}

	children := []*bbnode.Node{branchA, branchB, branchC}
	for _, c := range children {
		c.ClearSolCache()
	}
	return children, nil
}

// forceForbidPair builds a plain 2-way-style fallback child enforcing
// force=1 on force and 0 on forbid, used only when the 3-way depth budget
// has been exhausted and Branch C degrades to two such children.
func (o *Operator) forceForbidPair(node *bbnode.Node, force, forbid bbnode.Edge) (*bbnode.Node, error) {
	child := node.CloneWithBranch(o.Alloc, bbnode.Brc{
		Candidate:  bbnode.SingleCandidate(force),
		RowIdx:     bbnode.InvalidBrcIndex,
		Dir:        bbnode.Force,
		FromThreeW: true,
	})
	cols, vals := child.ObtainBrcCoefficient(force)
	rowIdx, err := child.Solver.AddRow(cols, vals, lpsolver.EQ, 1)
	if err != nil {
		return nil, &lpsolver.Error{Op: "AddRow(fallback FORCE)", Err: err}
	}
	child.Brcs[len(child.Brcs)-1].RowIdx = rowIdx

	child.Brcs = append(child.Brcs, bbnode.Brc{
		Candidate:  bbnode.SingleCandidate(forbid),
		RowIdx:     bbnode.InvalidBrcIndex,
		Dir:        bbnode.Forbid,
		FromThreeW: true,
	})
	remove, _ := child.ObtainBrcCoefficient(forbid)
	if err := forbidColumns(child, remove); err != nil {
		return nil, err
	}
	if child.Buckets != nil {
		child.Buckets.DeleteArc(forbid)
	}
	return child, nil
}

// forceBoth builds Branch A: x_e1=1 and x_e2=1, each as its own LP row.
func (o *Operator) forceBoth(node *bbnode.Node, e1, e2 bbnode.Edge) (*bbnode.Node, error) {
	child := node.CloneWithBranch(o.Alloc, bbnode.Brc{
		Candidate:  bbnode.SingleCandidate(e1),
		RowIdx:     bbnode.InvalidBrcIndex,
		Dir:        bbnode.Force,
		FromThreeW: true,
	})
	cols1, vals1 := child.ObtainBrcCoefficient(e1)
	row1, err := child.Solver.AddRow(cols1, vals1, lpsolver.EQ, 1)
	if err != nil {
		return nil, &lpsolver.Error{Op: "AddRow(A e1)", Err: err}
	}
	child.Brcs[len(child.Brcs)-1].RowIdx = row1

	child.Brcs = append(child.Brcs, bbnode.Brc{
		Candidate:  bbnode.SingleCandidate(e2),
		RowIdx:     bbnode.InvalidBrcIndex,
		Dir:        bbnode.Force,
		FromThreeW: true,
	})
	cols2, vals2 := child.ObtainBrcCoefficient(e2)
	row2, err := child.Solver.AddRow(cols2, vals2, lpsolver.EQ, 1)
	if err != nil {
		return nil, &lpsolver.Error{Op: "AddRow(A e2)", Err: err}
	}
	child.Brcs[len(child.Brcs)-1].RowIdx = row2
	return child, nil
}

// forbidBoth builds Branch B: x_e1=0 and x_e2=0. Arc buckets are not
// pruned here; the constraints are LP-level only, and pricing is trusted
// to honor them on its next solve. In enumeration state (no buckets),
// each edge's forbidden columns are instead removed from the enumeration
// pool via forbidColumns.
func (o *Operator) forbidBoth(node *bbnode.Node, e1, e2 bbnode.Edge) (*bbnode.Node, error) {
	child := node.CloneWithBranch(o.Alloc, bbnode.Brc{
		Candidate:  bbnode.SingleCandidate(e1),
		RowIdx:     bbnode.InvalidBrcIndex,
		Dir:        bbnode.Forbid,
		FromThreeW: true,
	})
	remove1, _ := child.ObtainBrcCoefficient(e1)
	if err := forbidColumns(child, remove1); err != nil {
		return nil, err
	}

	child.Brcs = append(child.Brcs, bbnode.Brc{
		Candidate:  bbnode.SingleCandidate(e2),
		RowIdx:     bbnode.InvalidBrcIndex,
		Dir:        bbnode.Forbid,
		FromThreeW: true,
	})
	remove2, _ := child.ObtainBrcCoefficient(e2)
	if err := forbidColumns(child, remove2); err != nil {
		return nil, err
	}
	return child, nil
}

// middle builds Branch C: x_e1 + x_e2 = 1, a single shared LP row whose
// coefficients are the column-wise sum of each edge's own coefficients,
// with the dummy column always at coefficient 1.
func (o *Operator) middle(node *bbnode.Node, e1, e2 bbnode.Edge) (*bbnode.Node, error) {
	child := node.CloneWithBranch(o.Alloc, bbnode.Brc{
		Candidate:  bbnode.SingleCandidate(e1),
		RowIdx:     bbnode.InvalidBrcIndex,
		Dir:        bbnode.Middle,
		FromThreeW: true,
	})
	cols, vals := mergeCoefficients(child, e1, e2)
	rowIdx, err := child.Solver.AddRow(cols, vals, lpsolver.EQ, 1)
	if err != nil {
		return nil, &lpsolver.Error{Op: "AddRow(C)", Err: err}
	}
	child.Brcs[len(child.Brcs)-1].RowIdx = rowIdx

	child.Brcs = append(child.Brcs, bbnode.Brc{
		Candidate:  bbnode.SingleCandidate(e2),
		RowIdx:     rowIdx,
		Dir:        bbnode.Middle,
		FromThreeW: true,
	})
	return child, nil
}

// mergeCoefficients sums the per-column coefficients of e1 and e2, keeping
// the dummy column's coefficient at exactly 1 regardless of how many of
// the two edges it would otherwise contribute to.
func mergeCoefficients(node *bbnode.Node, e1, e2 bbnode.Edge) ([]int, []float64) {
	sum := make(map[int]float64)
	cols1, vals1 := node.ObtainBrcCoefficient(e1)
	for i, c := range cols1 {
		sum[c] += vals1[i]
	}
	cols2, vals2 := node.ObtainBrcCoefficient(e2)
	for i, c := range cols2 {
		sum[c] += vals2[i]
	}
	sum[0] = 1

	cols := make([]int, 0, len(sum))
	for c := range sum {
		cols = append(cols, c)
	}
	// deterministic column order for reproducible row construction.
	for i := 1; i < len(cols); i++ {
		for j := i; j > 0 && cols[j-1] > cols[j]; j-- {
			cols[j-1], cols[j] = cols[j], cols[j-1]
		}
	}
	vals := make([]float64, len(cols))
	for i, c := range cols {
		vals[i] = sum[c]
	}
	return cols, vals
}

// CheckMiddleRowInvariant verifies that a MIDDLE brc pair sharing rowIdx
// has a coefficient vector equal to the sum of e1's and e2's own
// coefficients, as reconstructed from the node's current columns.
func CheckMiddleRowInvariant(node *bbnode.Node, e1, e2 bbnode.Edge, gotCols []int, gotVals []float64) error {
	wantCols, wantVals := mergeCoefficients(node, e1, e2)
	want := make(map[int]float64, len(wantCols))
	for i, c := range wantCols {
		want[c] = wantVals[i]
	}
	got := make(map[int]float64, len(gotCols))
	for i, c := range gotCols {
		got[c] = gotVals[i]
	}
	if len(want) != len(got) {
		return fmt.Errorf("branch: middle row invariant: column count mismatch: want %d, got %d", len(want), len(got))
	}
	for c, v := range want {
		if got[c] != v {
			return fmt.Errorf("branch: middle row invariant: column %d: want %v, got %v", c, v, got[c])
		}
	}
	return nil
}
