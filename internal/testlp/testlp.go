// Package testlp is a tiny in-memory stand-in for lpsolver.Interface used
// only by unit tests in this repository. It does not solve anything; it
// just tracks rows/columns and lets tests set the primal values a Solve
// call should report, which is all bbnode/branch/candidate tests need.
package testlp

import (
	"errors"

	"github.com/gophervrp/bbcore/lpsolver"
)

type row struct {
	indices []int
	values  []float64
	sense   lpsolver.Sense
	rhs     float64
}

// Model is a minimal fake LP model.
type Model struct {
	rows    []row
	numCols int
	x       []float64
	obj     float64
	duals   []float64
}

// New returns a fake model with numCols columns and no rows.
func New(numCols int) *Model {
	return &Model{numCols: numCols, x: make([]float64, numCols)}
}

// SetX sets the primal values Solve() will report.
func (m *Model) SetX(x []float64) { m.x = append([]float64(nil), x...) }

// SetRowDuals sets the dual values Solve() will report.
func (m *Model) SetRowDuals(d []float64) { m.duals = append([]float64(nil), d...) }

func (m *Model) AddRow(indices []int, values []float64, sense lpsolver.Sense, rhs float64) (int, error) {
	m.rows = append(m.rows, row{indices: append([]int(nil), indices...), values: append([]float64(nil), values...), sense: sense, rhs: rhs})
	return len(m.rows) - 1, nil
}

func (m *Model) RemoveCols(indices []int) error {
	remove := make(map[int]bool, len(indices))
	for _, i := range indices {
		remove[i] = true
	}
	newX := m.x[:0:0]
	shift := make([]int, m.numCols)
	next := 0
	for i := 0; i < m.numCols; i++ {
		if remove[i] {
			shift[i] = -1
			continue
		}
		shift[i] = next
		next++
		if i < len(m.x) {
			newX = append(newX, m.x[i])
		}
	}
	m.numCols = next
	m.x = newX
	for ri, r := range m.rows {
		var idx []int
		var val []float64
		for k, c := range r.indices {
			if s := shift[c]; s >= 0 {
				idx = append(idx, s)
				val = append(val, r.values[k])
			}
		}
		m.rows[ri].indices, m.rows[ri].values = idx, val
	}
	return nil
}

func (m *Model) AddCol(obj float64, rowIndices []int, rowValues []float64) (int, error) {
	idx := m.numCols
	m.numCols++
	m.x = append(m.x, 0)
	return idx, nil
}

func (m *Model) NumRows() int { return len(m.rows) }
func (m *Model) NumCols() int { return m.numCols }

func (m *Model) Solve() (lpsolver.Solution, error) {
	if len(m.x) < m.numCols {
		return lpsolver.Solution{}, errors.New("testlp: x shorter than numCols")
	}
	return lpsolver.Solution{Status: lpsolver.StatusOptimal, ColValues: append([]float64(nil), m.x...), RowDuals: append([]float64(nil), m.duals...), Objective: m.obj}, nil
}

func (m *Model) GetX(lo, hi int) ([]float64, error) {
	if hi > len(m.x) {
		hi = len(m.x)
	}
	if lo > hi {
		lo = hi
	}
	return append([]float64(nil), m.x[lo:hi]...), nil
}

func (m *Model) Write(filename string) error { return nil }

func (m *Model) Clone() (lpsolver.Interface, error) {
	nm := &Model{numCols: m.numCols, x: append([]float64(nil), m.x...), obj: m.obj}
	nm.rows = append([]row(nil), m.rows...)
	return nm, nil
}
