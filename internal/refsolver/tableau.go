package refsolver

import (
	"math"

	"github.com/gophervrp/bbcore/lpsolver"
)

// tableau is a dense Big-M simplex tableau. Rows 0..m-1 are the
// constraint rows; row m is the objective (reduced-cost) row. Columns
// 0..numStructural-1 are the model's own columns; the rest are the
// slack/surplus/artificial columns this package adds internally.
type tableau struct {
	rows           [][]float64 // includes objective row at index m
	basis          []int       // basis[i] = column index basic in row i
	numStructural  int
	numTotal       int
	rhsCol         int
	artificialCols map[int]bool
	rowScaled      []bool    // rows multiplied by -1 to make rhs >= 0
	rowSlackCol    []int     // first extra (slack/surplus) column allocated for each row
	costOf         []float64 // per-column Big-M cost, for reference/debugging
}

func buildTableau(m *Model) (*tableau, error) {
	numRows := len(m.rows)
	numStructural := m.numCols

	// Count extra columns needed.
	extra := 0
	for _, r := range m.rows {
		switch r.sense {
		case lpsolver.LE:
			extra++ // slack
		case lpsolver.GE:
			extra += 2 // surplus + artificial
		case lpsolver.EQ:
			extra++ // artificial
		}
	}
	numTotal := numStructural + extra
	rhsCol := numTotal

	t := &tableau{
		numStructural:  numStructural,
		numTotal:       numTotal,
		rhsCol:         rhsCol,
		artificialCols: make(map[int]bool),
		basis:          make([]int, numRows),
		rowScaled:      make([]bool, numRows),
		rowSlackCol:    make([]int, numRows),
	}
	t.rows = make([][]float64, numRows+1)
	for i := range t.rows {
		t.rows[i] = make([]float64, numTotal+1)
	}

	nextCol := numStructural
	for i, r := range m.rows {
		rhs := r.rhs
		coeffs := append([]float64(nil), m.a[i]...)
		sense := r.sense
		if rhs < 0 {
			for j := range coeffs {
				coeffs[j] = -coeffs[j]
			}
			rhs = -rhs
			switch sense {
			case lpsolver.LE:
				sense = lpsolver.GE
			case lpsolver.GE:
				sense = lpsolver.LE
			}
			t.rowScaled[i] = true
		}
		copy(t.rows[i][:numStructural], coeffs)
		t.rows[i][rhsCol] = rhs
		t.rowSlackCol[i] = nextCol

		switch sense {
		case lpsolver.LE:
			t.rows[i][nextCol] = 1
			t.basis[i] = nextCol
			nextCol++
		case lpsolver.GE:
			t.rows[i][nextCol] = -1 // surplus
			nextCol++
			t.rows[i][nextCol] = 1 // artificial
			t.artificialCols[nextCol] = true
			t.basis[i] = nextCol
			nextCol++
		case lpsolver.EQ:
			t.rows[i][nextCol] = 1 // artificial
			t.artificialCols[nextCol] = true
			t.basis[i] = nextCol
			nextCol++
		}
	}

	cost := make([]float64, numTotal)
	copy(cost[:numStructural], m.obj)
	for col := range t.artificialCols {
		cost[col] = bigM
	}

	// Objective row: reduced costs c_j - sum_i cost[basis[i]] * a_ij.
	objRow := t.rows[numRows]
	copy(objRow[:numTotal], cost)
	for i := 0; i < numRows; i++ {
		cb := cost[t.basis[i]]
		if cb == 0 {
			continue
		}
		for j := 0; j <= numTotal; j++ {
			objRow[j] -= cb * t.rows[i][j]
		}
	}
	t.costOf = cost

	return t, nil
}

func (t *tableau) run() (lpsolver.ModelStatus, error) {
	const maxIters = 20000
	numRows := len(t.rows) - 1

	for iter := 0; iter < maxIters; iter++ {
		enter := -1
		best := -tolerance
		objRow := t.rows[numRows]
		for j := 0; j < t.numTotal; j++ {
			if objRow[j] < best {
				best = objRow[j]
				enter = j
			}
		}
		if enter == -1 {
			break // optimal
		}

		leave := -1
		bestRatio := math.Inf(1)
		for i := 0; i < numRows; i++ {
			coeff := t.rows[i][enter]
			if coeff <= tolerance {
				continue
			}
			ratio := t.rows[i][t.rhsCol] / coeff
			if ratio < bestRatio-tolerance || (math.Abs(ratio-bestRatio) <= tolerance && (leave == -1 || t.basis[i] < t.basis[leave])) {
				bestRatio = ratio
				leave = i
			}
		}
		if leave == -1 {
			return lpsolver.StatusUnbounded, nil
		}

		t.pivot(leave, enter)
	}

	for i := 0; i < numRows; i++ {
		if t.artificialCols[t.basis[i]] && t.rows[i][t.rhsCol] > 1e-6 {
			return lpsolver.StatusInfeasible, nil
		}
	}
	return lpsolver.StatusOptimal, nil
}

func (t *tableau) pivot(pivotRow, pivotCol int) {
	pv := t.rows[pivotRow][pivotCol]
	row := t.rows[pivotRow]
	for j := range row {
		row[j] /= pv
	}
	for i := range t.rows {
		if i == pivotRow {
			continue
		}
		factor := t.rows[i][pivotCol]
		if factor == 0 {
			continue
		}
		target := t.rows[i]
		for j := range target {
			target[j] -= factor * row[j]
		}
	}
	t.basis[pivotRow] = pivotCol
}

// primal returns the values of the first n structural columns from the
// current basis.
func (t *tableau) primal(n int) []float64 {
	x := make([]float64, n)
	for i, b := range t.basis {
		if b < n {
			x[b] = t.rows[i][t.rhsCol]
		}
	}
	return x
}

// duals returns the shadow price of each of the m constraint rows: the
// objective row's coefficient on that row's own slack/surplus starting
// column (for a LE/GE row) or the negated coefficient on its artificial
// column divided by bigM (for an EQ row, which has no slack), restoring
// the sign flip applied to rows whose rhs was negated during tableau
// construction.
func (t *tableau) duals(m int) []float64 {
	numRows := len(t.rows) - 1
	objRow := t.rows[numRows]
	duals := make([]float64, m)
	for i := 0; i < m && i < numRows; i++ {
		col := t.rowSlackCol[i]
		v := objRow[col]
		if t.artificialCols[col] {
			v = -v / bigM
		}
		if t.rowScaled[i] {
			v = -v
		}
		duals[i] = v
	}
	return duals
}
