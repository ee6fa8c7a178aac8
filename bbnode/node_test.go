package bbnode

import (
	"testing"

	"github.com/gophervrp/bbcore/internal/testlp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type seqAlloc struct{ next int64 }

func (a *seqAlloc) Next() int64 {
	a.next++
	return a.next
}

func newTestRoot(t *testing.T) *Node {
	t.Helper()
	m := testlp.New(3) // dummy + 2 columns
	root := NewRoot(m, 0, NewArcBucketGraph(4, 2, true), true)
	root.Cols = append(root.Cols,
		Column{Seq: []int{0, 1, 2, 0}, Cost: 5},
		Column{Seq: []int{0, 2, 1, 0}, Cost: 6},
	)
	return root
}

func TestDummyColumnNeverRemoved(t *testing.T) {
	root := newTestRoot(t)
	err := root.RemoveLPCols([]int{0, 1})
	require.NoError(t, err)
	assert.Len(t, root.Cols, 2) // dummy + col 2 survive
	assert.True(t, root.Cols[0].IsDummy())
}

func TestObtainBrcCoefficientSymmetric(t *testing.T) {
	root := newTestRoot(t)
	colsA, valsA := root.ObtainBrcCoefficient(Edge{I: 1, J: 2})
	colsB, valsB := root.ObtainBrcCoefficient(Edge{I: 2, J: 1})
	assert.Equal(t, colsA, colsB)
	assert.Equal(t, valsA, valsB)
	// dummy column always present with coefficient 1.
	assert.Equal(t, 0, colsA[0])
	assert.Equal(t, 1.0, valsA[0])
}

func TestObtainColIdxNotAllowedByEdge(t *testing.T) {
	root := newTestRoot(t)
	root.Cols = append(root.Cols, Column{Seq: []int{0, 3, 0}, Cost: 9})
	idx := root.ObtainColIdxNotAllowedByEdge(Edge{I: 1, J: 3})
	// col1 and col2 visit 1 not 3, col3 visits 3 not 1.
	assert.ElementsMatch(t, []int{1, 2, 3}, idx)
}

func TestCloneWithBranchIsIndependent(t *testing.T) {
	root := newTestRoot(t)
	alloc := &seqAlloc{}
	child := root.CloneWithBranch(alloc, Brc{Candidate: SingleCandidate(Edge{I: 1, J: 2}), RowIdx: 0, Dir: Force})
	require.Len(t, child.Brcs, 1)
	assert.Equal(t, int64(1), child.Idx)
	assert.NotSame(t, root.Buckets, child.Buckets)

	// mutating the child's columns must not affect the parent.
	child.Cols[1].Cost = 999
	assert.NotEqual(t, root.Cols[1].Cost, child.Cols[1].Cost)
}

func TestCloneWithBranchTracksThreeWayBudget(t *testing.T) {
	root := newTestRoot(t)
	alloc := &seqAlloc{}
	child := root.CloneWithBranch(alloc, Brc{FromThreeW: true})
	assert.Equal(t, 1, child.ThreeWayBudgetUsed)
	grandchild := child.CloneWithBranch(alloc, Brc{FromThreeW: false})
	assert.Equal(t, 1, grandchild.ThreeWayBudgetUsed)
}

func TestObtainSolEdgeMap(t *testing.T) {
	m := testlp.New(3)
	m.SetX([]float64{1, 0.5, 0.25})
	root := NewRoot(m, 0, nil, true)
	root.Enumeration = true
	root.Cols = append(root.Cols,
		Column{Seq: []int{0, 1, 2, 0}},
		Column{Seq: []int{0, 1, 3, 0}},
	)
	edgeMap, err := root.ObtainSolEdgeMap()
	require.NoError(t, err)
	assert.InDelta(t, 0.75, edgeMap[Edge{I: 0, J: 1}.Canonical()], 1e-9)
	assert.InDelta(t, 0.5, edgeMap[Edge{I: 1, J: 2}.Canonical()], 1e-9)
	assert.InDelta(t, 0.25, edgeMap[Edge{I: 1, J: 3}.Canonical()], 1e-9)
}

func TestObtainSol3DEdgeMap(t *testing.T) {
	m := testlp.New(2)
	m.SetX([]float64{1, 0.4})
	root := NewRoot(m, 0, nil, true)
	root.Enumeration = true
	root.Cols = append(root.Cols, Column{Seq: []int{0, 1, 2, 0}})
	m3, err := root.ObtainSol3DEdgeMap()
	require.NoError(t, err)
	key := [2]Edge{Edge{I: 0, J: 1}, Edge{I: 1, J: 2}}
	assert.InDelta(t, 0.4, m3[key], 1e-9)
}

func newEnumTestRoot(t *testing.T) *Node {
	t.Helper()
	m := testlp.New(3) // dummy + 2 columns
	for i := 0; i < 2; i++ {
		if _, err := m.AddRow([]int{0}, []float64{1}, 0, 1); err != nil {
			t.Fatal(err)
		}
	}
	pool := NewEnumPool()
	cols := []Column{
		{Seq: []int{0, 1, 0}, Cost: 3},
		{Seq: []int{0, 2, 0}, Cost: 4},
	}
	colIdx := pool.Append(cols...)
	enum := NewEnumState(pool, colIdx, []float64{3, 4})
	return Restore(m, 2, nil, enum, true, 0, append([]Column{DummyColumn()}, cols...), nil, nil, nil, 0, 0, 0)
}

func TestRegenerateEnumMatrixRejectsWrongDualsLength(t *testing.T) {
	root := newEnumTestRoot(t)
	err := root.RegenerateEnumMatrix([]float64{EnumDualsSentinel})
	assert.Error(t, err)
}

func TestRegenerateEnumMatrixRejectsNonSentinelDuals(t *testing.T) {
	root := newEnumTestRoot(t)
	err := root.RegenerateEnumMatrix([]float64{0, 0})
	assert.Error(t, err)
}

func TestRegenerateEnumMatrixRejectsNonEnumerationNode(t *testing.T) {
	root := newTestRoot(t)
	err := root.RegenerateEnumMatrix([]float64{EnumDualsSentinel, EnumDualsSentinel})
	assert.Error(t, err)
}

func TestRegenerateEnumMatrixRebuildsFromActiveColumns(t *testing.T) {
	root := newEnumTestRoot(t)
	root.Enum.MarkDeleted([]int{0})

	err := root.RegenerateEnumMatrix([]float64{EnumDualsSentinel, EnumDualsSentinel})
	require.NoError(t, err)

	require.Len(t, root.Cols, 2)
	assert.True(t, root.Cols[0].IsDummy())
	assert.Equal(t, []int{0, 2, 0}, root.Cols[1].Seq)
	assert.Equal(t, 2, root.Solver.NumCols())
}

func TestRowInvariant(t *testing.T) {
	m := testlp.New(1)
	root := NewRoot(m, 2, nil, true)
	_, _ = m.AddRow([]int{0}, []float64{1}, 0, 1)
	_, _ = m.AddRow([]int{0}, []float64{1}, 0, 1)
	assert.NoError(t, root.CheckRowInvariant())
	_, _ = m.AddRow([]int{0}, []float64{1}, 0, 1)
	assert.Error(t, root.CheckRowInvariant())
}
