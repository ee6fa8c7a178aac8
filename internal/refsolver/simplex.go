// Package refsolver is a small, self-contained single-phase Big-M primal
// simplex implementing lpsolver.Interface. It exists so this repository's
// end-to-end tests and demo CLI have something real to solve against; it
// is not a production LP solver (no sparse storage, no numerical
// safeguards beyond a fixed tolerance, dense tableau rebuilt on every
// Solve).
package refsolver

import (
	"errors"
	"fmt"

	"github.com/gophervrp/bbcore/lpsolver"
)

const (
	bigM      = 1e7
	tolerance = 1e-9
)

type rowDef struct {
	sense lpsolver.Sense
	rhs   float64
}

// Model is a dense-tableau LP model.
type Model struct {
	rows []rowDef
	// a[row] holds one coefficient per structural column; grown to match
	// numCols whenever a column is added.
	a       [][]float64
	obj     []float64
	numCols int

	lastX         []float64
	lastDuals     []float64
	lastObjective float64
}

// New returns an empty model with no rows or columns.
func New() *Model { return &Model{} }

// AddRow appends a row with the given sparse coefficients over existing
// columns.
func (m *Model) AddRow(indices []int, values []float64, sense lpsolver.Sense, rhs float64) (int, error) {
	if len(indices) != len(values) {
		return 0, errors.New("refsolver: indices/values length mismatch")
	}
	row := make([]float64, m.numCols)
	for k, idx := range indices {
		if idx < 0 || idx >= m.numCols {
			return 0, fmt.Errorf("refsolver: column index %d out of range [0,%d)", idx, m.numCols)
		}
		row[idx] += values[k]
	}
	m.a = append(m.a, row)
	m.rows = append(m.rows, rowDef{sense: sense, rhs: rhs})
	return len(m.rows) - 1, nil
}

// AddCol appends a column with objective coefficient obj and sparse row
// coefficients, returning its index.
func (m *Model) AddCol(obj float64, rowIndices []int, rowValues []float64) (int, error) {
	if len(rowIndices) != len(rowValues) {
		return 0, errors.New("refsolver: rowIndices/rowValues length mismatch")
	}
	idx := m.numCols
	m.numCols++
	for i := range m.a {
		m.a[i] = append(m.a[i], 0)
	}
	m.obj = append(m.obj, obj)
	for k, r := range rowIndices {
		if r < 0 || r >= len(m.rows) {
			return 0, fmt.Errorf("refsolver: row index %d out of range [0,%d)", r, len(m.rows))
		}
		m.a[r][idx] += rowValues[k]
	}
	return idx, nil
}

// RemoveCols removes the given column indices, in any order, tolerating
// duplicates and an empty slice.
func (m *Model) RemoveCols(indices []int) error {
	if len(indices) == 0 {
		return nil
	}
	remove := make(map[int]bool, len(indices))
	for _, i := range indices {
		if i < 0 || i >= m.numCols {
			return fmt.Errorf("refsolver: column index %d out of range [0,%d)", i, m.numCols)
		}
		remove[i] = true
	}
	newObj := m.obj[:0:0]
	for j, c := range m.obj {
		if !remove[j] {
			newObj = append(newObj, c)
		}
	}
	for i := range m.a {
		newRow := m.a[i][:0:0]
		for j, v := range m.a[i] {
			if !remove[j] {
				newRow = append(newRow, v)
			}
		}
		m.a[i] = newRow
	}
	m.obj = newObj
	m.numCols = len(newObj)
	return nil
}

// NumRows returns the number of rows currently in the model.
func (m *Model) NumRows() int { return len(m.rows) }

// NumCols returns the number of columns currently in the model.
func (m *Model) NumCols() int { return m.numCols }

// GetX returns primal values for columns [lo, hi) from the last Solve.
func (m *Model) GetX(lo, hi int) ([]float64, error) {
	if lo < 0 || hi > len(m.lastX) || lo > hi {
		return nil, fmt.Errorf("refsolver: GetX range [%d,%d) invalid for %d columns", lo, hi, len(m.lastX))
	}
	return append([]float64(nil), m.lastX[lo:hi]...), nil
}

// Write serializes the model to filename in a plain-text row/column dump,
// for debugging and checkpointing.
func (m *Model) Write(filename string) error {
	return writeLP(filename, m)
}

// Clone returns a deep, independent copy of the model.
func (m *Model) Clone() (lpsolver.Interface, error) {
	nm := &Model{
		rows:          append([]rowDef(nil), m.rows...),
		obj:           append([]float64(nil), m.obj...),
		numCols:       m.numCols,
		lastX:         append([]float64(nil), m.lastX...),
		lastDuals:     append([]float64(nil), m.lastDuals...),
		lastObjective: m.lastObjective,
	}
	nm.a = make([][]float64, len(m.a))
	for i, row := range m.a {
		nm.a[i] = append([]float64(nil), row...)
	}
	return nm, nil
}

// Solve runs the Big-M primal simplex on the current model, minimizing
// the objective.
func (m *Model) Solve() (lpsolver.Solution, error) {
	t, err := buildTableau(m)
	if err != nil {
		return lpsolver.Solution{}, err
	}
	status, err := t.run()
	if err != nil {
		return lpsolver.Solution{}, err
	}

	m.lastX = t.primal(m.numCols)
	m.lastDuals = t.duals(len(m.rows))
	m.lastObjective = t.objectiveValue(m.obj, m.lastX)

	return lpsolver.Solution{
		Status:    status,
		ColValues: append([]float64(nil), m.lastX...),
		RowDuals:  append([]float64(nil), m.lastDuals...),
		Objective: m.lastObjective,
	}, nil
}

func (t *tableau) objectiveValue(obj []float64, x []float64) float64 {
	sum := 0.0
	for j, c := range obj {
		if j < len(x) {
			sum += c * x[j]
		}
	}
	return sum
}
