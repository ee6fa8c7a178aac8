package refsolver

import (
	"testing"

	"github.com/gophervrp/bbcore/lpsolver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// minimize x1 + 2*x2 subject to x1 + x2 = 4, x1 <= 3, x1,x2 >= 0.
// Optimum: x1=3, x2=1, objective=5.
func TestSolveEqualityAndLessEqual(t *testing.T) {
	m := New()
	rowEq, err := m.AddRow(nil, nil, lpsolver.EQ, 4)
	require.NoError(t, err)
	rowLE, err := m.AddRow(nil, nil, lpsolver.LE, 3)
	require.NoError(t, err)

	x1, err := m.AddCol(1, []int{rowEq, rowLE}, []float64{1, 1})
	require.NoError(t, err)
	x2, err := m.AddCol(2, []int{rowEq}, []float64{1})
	require.NoError(t, err)

	sol, err := m.Solve()
	require.NoError(t, err)
	require.Equal(t, lpsolver.StatusOptimal, sol.Status)
	assert.InDelta(t, 3, sol.ColValues[x1], 1e-6)
	assert.InDelta(t, 1, sol.ColValues[x2], 1e-6)
	assert.InDelta(t, 5, sol.Objective, 1e-6)
}

// minimize 2*x1 + 3*x2 subject to x1 + x2 >= 10, x1,x2 >= 0. Optimum:
// x1=10, x2=0, objective=20 (x1 is cheaper per unit).
func TestSolveGreaterEqual(t *testing.T) {
	m := New()
	row, err := m.AddRow(nil, nil, lpsolver.GE, 10)
	require.NoError(t, err)
	x1, err := m.AddCol(2, []int{row}, []float64{1})
	require.NoError(t, err)
	x2, err := m.AddCol(3, []int{row}, []float64{1})
	require.NoError(t, err)

	sol, err := m.Solve()
	require.NoError(t, err)
	require.Equal(t, lpsolver.StatusOptimal, sol.Status)
	assert.InDelta(t, 10, sol.ColValues[x1], 1e-6)
	assert.InDelta(t, 0, sol.ColValues[x2], 1e-6)
	assert.InDelta(t, 20, sol.Objective, 1e-6)
}

// x1 + x2 = 5 and x1 + x2 = 10 is infeasible.
func TestSolveInfeasible(t *testing.T) {
	m := New()
	row1, err := m.AddRow(nil, nil, lpsolver.EQ, 5)
	require.NoError(t, err)
	row2, err := m.AddRow(nil, nil, lpsolver.EQ, 10)
	require.NoError(t, err)
	_, err = m.AddCol(1, []int{row1, row2}, []float64{1, 1})
	require.NoError(t, err)

	sol, err := m.Solve()
	require.NoError(t, err)
	assert.Equal(t, lpsolver.StatusInfeasible, sol.Status)
}

func TestRemoveColsShrinksModel(t *testing.T) {
	m := New()
	row, err := m.AddRow(nil, nil, lpsolver.LE, 5)
	require.NoError(t, err)
	_, err = m.AddCol(1, []int{row}, []float64{1})
	require.NoError(t, err)
	keep, err := m.AddCol(2, []int{row}, []float64{1})
	require.NoError(t, err)
	require.NoError(t, m.RemoveCols([]int{0}))
	assert.Equal(t, 1, m.NumCols())
	assert.Equal(t, 0, keep-1) // keep's original index shifts to 0
}

func TestCloneIsIndependent(t *testing.T) {
	m := New()
	row, err := m.AddRow(nil, nil, lpsolver.LE, 5)
	require.NoError(t, err)
	_, err = m.AddCol(1, []int{row}, []float64{1})
	require.NoError(t, err)

	cloned, err := m.Clone()
	require.NoError(t, err)
	_, err = cloned.AddCol(1, []int{row}, []float64{1})
	require.NoError(t, err)
	assert.Equal(t, 1, m.NumCols())
	assert.Equal(t, 2, cloned.NumCols())
}
