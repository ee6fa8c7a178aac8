// Package naivepricing supplies a small, complete-enumeration column
// generator: a reference Pricer for the demo CLI and integration tests to
// use in place of a real subproblem solver, since a production pricing
// algorithm (labeling, ng-routes, RCSP) is out of scope for this module.
// Its columns carry the same per-route Demand field a bucket-graph pricer
// would, without any of the dynamic-programming machinery.
package naivepricing

import (
	"fmt"

	"github.com/gophervrp/bbcore/bbnode"
	"github.com/gophervrp/bbcore/instance"
)

// Pricer enumerates every elementary depot-to-depot route under the
// instance's capacity and, for VRPTW instances, each customer's time
// window, and adds the MaxColsPerCall most negative reduced-cost routes
// as new LP columns. It only prices customer-visit rows (row i for
// customer i, 1-indexed after the depot); it does not extend generated
// columns to branch or cut rows, so it is only suitable for small
// instances with few active branch constraints and cuts.
type Pricer struct {
	Instance       *instance.Instance
	MaxColsPerCall int
	Tolerance      float64
}

// New returns a Pricer over inst with sensible defaults for
// MaxColsPerCall and Tolerance.
func New(inst *instance.Instance) *Pricer {
	return &Pricer{Instance: inst, MaxColsPerCall: 5, Tolerance: 1e-7}
}

type candidateRoute struct {
	seq    []int
	cost   float64
	demand int
	rc     float64
}

// windowStart returns the time the vehicle may depart the depot: the
// depot's own window start for VRPTW, or 0 for CVRP.
func (p *Pricer) windowStart() float64 {
	if p.Instance.Windows == nil {
		return 0
	}
	return p.Instance.Windows[0].Start
}

// arrivalTime returns the service-start time at next after departing cur
// at depart, and whether next's time window still permits arriving there.
// CVRP instances (nil Windows) always report feasible.
func (p *Pricer) arrivalTime(depart float64, cur, next int) (float64, bool) {
	if p.Instance.Windows == nil {
		return 0, true
	}
	arrive := depart + p.Instance.Distance(cur, next)
	w := p.Instance.Windows[next]
	if arrive > w.End {
		return 0, false
	}
	if arrive < w.Start {
		arrive = w.Start
	}
	return arrive + w.Service, true
}

// PriceAtBegin solves node's current LP relaxation, enumerates every
// elementary route the arc-bucket graph still allows, and appends any
// with negative reduced cost as new columns. Enumeration nodes (post
// branch-and-price, columns fixed) are left untouched.
func (p *Pricer) PriceAtBegin(node *bbnode.Node) error {
	if node.Enumeration {
		return nil
	}

	sol, err := node.Solver.Solve()
	if err != nil {
		return fmt.Errorf("naivepricing: solve: %w", err)
	}
	if !sol.IsOptimal() {
		return nil
	}

	numCustomers := p.Instance.NumCustomers()
	if len(sol.RowDuals) < numCustomers {
		return nil
	}
	duals := sol.RowDuals[:numCustomers]

	var routes []candidateRoute
	visited := make([]bool, numCustomers+1)
	p.enumerate(node, 0, []int{0}, 0, p.windowStart(), duals, visited, &routes)

	if len(routes) == 0 {
		return nil
	}
	sortByReducedCostAsc(routes)
	if len(routes) > p.MaxColsPerCall {
		routes = routes[:p.MaxColsPerCall]
	}

	for _, r := range routes {
		if r.rc >= -p.Tolerance {
			continue
		}
		rowIdx := make([]int, 0, len(r.seq)-2)
		rowVal := make([]float64, 0, len(r.seq)-2)
		for _, v := range r.seq {
			if v == 0 {
				continue
			}
			rowIdx = append(rowIdx, v-1)
			rowVal = append(rowVal, 1)
		}
		if _, err := node.Solver.AddCol(r.cost, rowIdx, rowVal); err != nil {
			return fmt.Errorf("naivepricing: add column for route %v: %w", r.seq, err)
		}
		node.Cols = append(node.Cols, bbnode.Column{Seq: append([]int(nil), r.seq...), Cost: r.cost, Demand: r.demand})
	}
	node.ClearSolCache()
	return nil
}

// EnumerateAll enumerates every elementary depot-to-depot route the arc
// buckets and instance constraints (capacity, time windows) still allow,
// regardless of reduced cost, for a bbt.EnumTrigger seeding a node's
// enumeration pool. node.Buckets must still be set (called before the
// node switches to enumeration state).
func (p *Pricer) EnumerateAll(node *bbnode.Node) ([]bbnode.Column, error) {
	numCustomers := p.Instance.NumCustomers()
	zeroDuals := make([]float64, numCustomers)
	visited := make([]bool, numCustomers+1)
	var routes []candidateRoute
	p.enumerate(node, 0, []int{0}, 0, p.windowStart(), zeroDuals, visited, &routes)

	cols := make([]bbnode.Column, len(routes))
	for i, r := range routes {
		cols[i] = bbnode.Column{Seq: r.seq, Cost: r.cost, Demand: r.demand}
	}
	return cols, nil
}

// enumerate performs a depth-first search over customers reachable from
// path's last vertex, respecting node.Buckets pruning, the vehicle
// capacity, and (for VRPTW instances) the cumulative arrival time against
// each customer's time window, closing every partial route back to the
// depot as a candidate whose final leg also respects the depot's window.
func (p *Pricer) enumerate(node *bbnode.Node, cur int, path []int, demand int, arrival float64, duals []float64, visited []bool, out *[]candidateRoute) {
	if len(path) > 1 {
		if _, ok := p.arrivalTime(arrival, cur, 0); ok {
			cost := p.routeCost(path) + p.Instance.Distance(cur, 0)
			rc := cost - sumDuals(path, duals)
			*out = append(*out, candidateRoute{
				seq:    append(append([]int(nil), path...), 0),
				cost:   cost,
				demand: demand,
				rc:     rc,
			})
		}
	}

	for next := 1; next <= p.Instance.NumCustomers(); next++ {
		if visited[next] {
			continue
		}
		if demand+p.Instance.Demands[next] > p.Instance.Capacity {
			continue
		}
		if !edgeUsable(node, cur, next) {
			continue
		}
		nextArrival, ok := p.arrivalTime(arrival, cur, next)
		if !ok {
			continue
		}
		visited[next] = true
		path = append(path, next)
		p.enumerate(node, next, path, demand+p.Instance.Demands[next], nextArrival, duals, visited, out)
		path = path[:len(path)-1]
		visited[next] = false
	}
}

func (p *Pricer) routeCost(path []int) float64 {
	total := 0.0
	for k := 0; k+1 < len(path); k++ {
		total += p.Instance.Distance(path[k], path[k+1])
	}
	return total
}

func sumDuals(path []int, duals []float64) float64 {
	total := 0.0
	for _, v := range path {
		if v == 0 {
			continue
		}
		total += duals[v-1]
	}
	return total
}

// edgeUsable reports whether the arc-bucket graph still permits traveling
// between i and j in any resource bin, which is how FORBID branch
// constraints prune the pricing subproblem.
func edgeUsable(node *bbnode.Node, i, j int) bool {
	if node.Buckets == nil {
		return true
	}
	numBins := node.Buckets.NumBins()
	for bin := 0; bin < numBins; bin++ {
		if node.Buckets.HasArc(i, bin, j) {
			return true
		}
	}
	return false
}

func sortByReducedCostAsc(routes []candidateRoute) {
	for i := 1; i < len(routes); i++ {
		for j := i; j > 0 && routes[j].rc < routes[j-1].rc; j-- {
			routes[j], routes[j-1] = routes[j-1], routes[j]
		}
	}
}
