// Package naivecutting supplies a small rounded-capacity-cut separator:
// the reference Cutter the demo CLI and integration tests use in place
// of a real separation routine. It only detects the generalized capacity
// inequality (a demand-infeasible customer cluster needs at least
// ceil(demand/capacity) routes touching it), not the full exponential
// family of rounded capacity cuts a production separator would search.
package naivecutting

import (
	"math"

	"github.com/gophervrp/bbcore/bbnode"
	"github.com/gophervrp/bbcore/instance"
	"github.com/gophervrp/bbcore/lpsolver"
)

// FractionalThreshold is the LP edge value above which two customers are
// considered "linked" for connected-component clustering.
const FractionalThreshold = 0.5

// ViolationTolerance is how far below the right-hand side a candidate cut
// may sit before it is treated as satisfied rather than violated.
const ViolationTolerance = 1e-6

// Cutter separates generalized capacity cuts over the current LP
// solution's fractional edge clusters.
type Cutter struct {
	Instance *instance.Instance
}

// New returns a Cutter over inst.
func New(inst *instance.Instance) *Cutter {
	return &Cutter{Instance: inst}
}

// Cut clusters customers connected by strongly fractional edges,
// computes each cluster's total demand, and adds a violated capacity
// row for any cluster whose demand exceeds vehicle capacity and whose
// current column coverage falls short of the rounded minimum number of
// routes required to serve it.
func (c *Cutter) Cut(node *bbnode.Node) error {
	edgeMap, err := node.ObtainSolEdgeMap()
	if err != nil {
		return err
	}

	n := c.Instance.NumCustomers()
	parent := make([]int, n+1)
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(x int) int {
		if parent[x] != x {
			parent[x] = find(parent[x])
		}
		return parent[x]
	}
	union := func(a, b int) {
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[ra] = rb
		}
	}

	for e, v := range edgeMap {
		if v < FractionalThreshold {
			continue
		}
		if e.I == 0 || e.J == 0 {
			continue
		}
		union(e.I, e.J)
	}

	clusters := make(map[int][]int)
	for v := 1; v <= n; v++ {
		root := find(v)
		clusters[root] = append(clusters[root], v)
	}

	for _, members := range clusters {
		if len(members) < 2 {
			continue
		}
		demand := 0
		for _, v := range members {
			demand += c.Instance.Demands[v]
		}
		if demand <= c.Instance.Capacity {
			continue
		}
		needed := math.Ceil(float64(demand) / float64(c.Instance.Capacity))

		inCluster := make(map[int]bool, len(members))
		for _, v := range members {
			inCluster[v] = true
		}

		var colIdx []int
		var coeff []float64
		coverage := 0.0
		for i := 1; i < len(node.Cols); i++ {
			if !touchesCluster(node.Cols[i], inCluster) {
				continue
			}
			colIdx = append(colIdx, i)
			coeff = append(coeff, 1)
		}
		x, err := node.Solver.GetX(0, node.Solver.NumCols())
		if err == nil {
			for _, i := range colIdx {
				if i < len(x) {
					coverage += x[i]
				}
			}
		}
		if coverage >= needed-ViolationTolerance {
			continue
		}

		rowIdx, err := node.Solver.AddRow(colIdx, coeff, lpsolver.GE, needed)
		if err != nil {
			return err
		}
		node.RCCs = append(node.RCCs, bbnode.Cut{
			Kind:   bbnode.RCC,
			RowIdx: rowIdx,
			ColIdx: append([]int(nil), colIdx...),
			Coeff:  append([]float64(nil), coeff...),
			Sense:  lpsolver.GE,
			RHS:    needed,
		})
	}

	node.ClearSolCache()
	return nil
}

func touchesCluster(col bbnode.Column, inCluster map[int]bool) bool {
	for _, v := range col.Seq {
		if inCluster[v] {
			return true
		}
	}
	return false
}
