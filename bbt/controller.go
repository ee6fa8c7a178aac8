// Package bbt implements the branch-and-bound controller: the frontier of
// open nodes, the running upper/lower bounds, and the per-iteration loop
// that invokes pricing, cutting, the candidate scorer and the branching
// operator, in that order, until the frontier drains or a soft deadline
// fires.
package bbt

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/gophervrp/bbcore/bbnode"
	"github.com/gophervrp/bbcore/bkf"
	"github.com/gophervrp/bbcore/branch"
	"github.com/gophervrp/bbcore/candidate"
	"github.com/gophervrp/bbcore/metrics"
	"github.com/gophervrp/bbcore/mlplugin"
)

// DefaultEpsilon is the pruning tolerance used when Config.Epsilon is left
// at its zero value: a node is pruned once its value is within Epsilon of
// the current upper bound.
const DefaultEpsilon = 1e-6

// ExitReason names why Run stopped.
type ExitReason int

const (
	ExitUnknown ExitReason = iota
	ExitOptimal
	ExitTimeLimit
	ExitInfeasible
)

func (r ExitReason) String() string {
	switch r {
	case ExitOptimal:
		return "optimal"
	case ExitTimeLimit:
		return "time-limit"
	case ExitInfeasible:
		return "infeasible"
	default:
		return "unknown"
	}
}

// Config holds the run-level parameters that do not change once search
// starts.
type Config struct {
	// TimeLimit is the soft wall-clock deadline. Zero means the frontier
	// is drained at most one node (the root) before the next iteration's
	// deadline check halts the search — a fully unlimited run should set
	// a very large duration explicitly.
	TimeLimit time.Duration
	// Epsilon is the pruning tolerance; zero is replaced with
	// DefaultEpsilon.
	Epsilon float64
	// ThreeWay selects the 3-way branching path (TopTwoCandidates +
	// Impose3) over the default 2-way path (BestCandidate + Impose).
	ThreeWay bool
}

// Controller drives the branch-and-bound search over a frontier of open
// nodes.
type Controller struct {
	Cfg Config

	Frontier *Frontier
	Operator *branch.Operator
	Scorer   *candidate.Scorer
	Advisor  *bkf.Advisor

	Pricer      Pricer
	Cutter      Cutter
	Feasibility FeasibilityChecker
	Candidates  CandidateFinder
	Observer    IncumbentObserver
	Checkpoint  Checkpointer
	Metrics     *metrics.Collectors

	// EnumTrigger, when set, is consulted once per non-enumeration node
	// that survives pricing/cutting/feasibility, before branching. A true
	// verdict switches the node into enumeration state for the rest of
	// the search below it.
	EnumTrigger EnumTrigger

	// MLMode selects how the machine-learning candidate-selection seam
	// participates in this run. NoUse (the zero value) leaves branchNode
	// running the ordinary scorer pipeline. GetData1/GetData2 additionally
	// record a training sample per branched node via MLRecorder. UseModel
	// replaces the scorer pipeline outright with MLScorer.Select.
	MLMode     mlplugin.Mode
	MLScorer   *mlplugin.Scorer
	MLRecorder *mlplugin.Recorder

	UB        float64
	LB        float64
	Incumbent *bbnode.Node

	ExitReason ExitReason
}

// New returns a Controller seeded with root as the only open node.
func New(cfg Config, root *bbnode.Node, op *branch.Operator, scorer *candidate.Scorer, adv *bkf.Advisor) *Controller {
	if cfg.Epsilon == 0 {
		cfg.Epsilon = DefaultEpsilon
	}
	f := NewFrontier()
	f.Push(root)
	return &Controller{
		Cfg:      cfg,
		Frontier: f,
		Operator: op,
		Scorer:   scorer,
		Advisor:  adv,
		UB:       math.Inf(1),
		LB:       root.Value,
	}
}

// RestoreCheckpoint drains every saved node from the Checkpointer's NodeIn
// and pushes it onto the frontier. It is meant to be called once, before
// Run, when resuming a previous search.
func (c *Controller) RestoreCheckpoint() error {
	if c.Checkpoint == nil {
		return nil
	}
	for {
		node, ok, err := c.Checkpoint.NodeIn()
		if err != nil {
			return fmt.Errorf("bbt: restore checkpoint: %w", err)
		}
		if !ok {
			return nil
		}
		c.Frontier.Push(node)
	}
}

// Run executes the controller loop until the frontier drains, ctx is
// canceled, or the soft time limit elapses.
func (c *Controller) Run(ctx context.Context) (ExitReason, error) {
	start := time.Now()

	for {
		select {
		case <-ctx.Done():
			c.ExitReason = ExitTimeLimit
			return c.ExitReason, nil
		default:
		}

		if c.Frontier.Empty() || time.Since(start) > c.Cfg.TimeLimit {
			c.ExitReason = c.finalReason()
			return c.ExitReason, nil
		}

		node := c.Frontier.PopBest()

		if node.Value >= c.UB-c.Cfg.Epsilon {
			c.updateLB()
			continue
		}

		nodeStart := time.Now()
		if err := c.processNode(node); err != nil {
			return ExitUnknown, err
		}
		if c.Advisor != nil {
			c.Advisor.RecordNodeTime(time.Since(nodeStart).Seconds())
		}
		if c.Metrics != nil {
			c.Metrics.RecordNode(node.Idx, node.Value)
		}

		if c.Checkpoint != nil {
			if err := c.Checkpoint.NodeOut(node); err != nil {
				return ExitUnknown, fmt.Errorf("bbt: checkpoint node-out: %w", err)
			}
			if c.Metrics != nil {
				c.Metrics.RecordCheckpointWrite()
			}
		}

		c.updateLB()
		if c.Metrics != nil {
			c.Metrics.SetBounds(c.LB, c.UB)
		}
	}
}

// processNode runs one node through pricing, cutting, the feasibility
// check and, failing that, the candidate scorer and branching operator.
func (c *Controller) processNode(node *bbnode.Node) error {
	if c.Pricer != nil {
		if err := c.Pricer.PriceAtBegin(node); err != nil {
			return fmt.Errorf("bbt: pricing at node %d: %w", node.Idx, err)
		}
	}
	if node.Terminate {
		return nil
	}

	if c.Cutter != nil {
		if err := c.Cutter.Cut(node); err != nil {
			return fmt.Errorf("bbt: cutting at node %d: %w", node.Idx, err)
		}
	}
	if node.Terminate {
		return nil
	}

	if c.Feasibility != nil {
		feasible, objective, err := c.Feasibility.CheckIntegerFeasible(node)
		if err != nil {
			return fmt.Errorf("bbt: feasibility check at node %d: %w", node.Idx, err)
		}
		if feasible {
			if objective < c.UB {
				c.UB = objective
				c.Incumbent = node
				if c.Observer != nil {
					c.Observer.OnIncumbent(node, objective)
				}
				if c.Metrics != nil {
					c.Metrics.RecordIncumbent(node.Idx, objective)
				}
			}
			return nil
		}
	}

	if !node.Enumeration && c.EnumTrigger != nil && c.EnumTrigger.ShouldEnumerate(node, c.LB, c.UB) {
		if err := c.switchToEnumeration(node); err != nil {
			return fmt.Errorf("bbt: enumeration switch at node %d: %w", node.Idx, err)
		}
	}

	return c.branchNode(node)
}

// switchToEnumeration transitions node from fractional/pricing state into
// enumeration state: it enumerates the node's column pool via EnumTrigger,
// drops the arc-bucket graph, and rebuilds the LP matrix strictly from the
// fresh enumeration pool with the enumeration sentinel duals.
func (c *Controller) switchToEnumeration(node *bbnode.Node) error {
	cols, err := c.EnumTrigger.Enumerate(node)
	if err != nil {
		return fmt.Errorf("enumerate: %w", err)
	}

	pool := bbnode.NewEnumPool()
	colIdx := pool.Append(cols...)
	costs := make([]float64, len(cols))
	for i, col := range cols {
		costs[i] = col.Cost
	}

	node.Enumeration = true
	node.Buckets = nil
	node.Enum = bbnode.NewEnumState(pool, colIdx, costs)

	dropIdx := make([]int, 0, len(node.Cols)-1)
	for i := 1; i < len(node.Cols); i++ {
		dropIdx = append(dropIdx, i)
	}
	if err := node.RemoveLPCols(dropIdx); err != nil {
		return fmt.Errorf("drop pre-enumeration columns: %w", err)
	}

	duals := make([]float64, node.Solver.NumRows())
	for i := range duals {
		duals[i] = bbnode.EnumDualsSentinel
	}
	if err := node.RegenerateEnumMatrix(duals); err != nil {
		return fmt.Errorf("regenerate enumeration matrix: %w", err)
	}

	if c.Metrics != nil {
		c.Metrics.RecordEnumerationSwitch(node.Idx, len(cols))
	}
	return nil
}

// branchNode consults the candidate scorer and branching operator, pushing
// the resulting children back onto the frontier in the order the ordering
// guarantees require, or marks node terminate when there is nothing left
// to branch on.
func (c *Controller) branchNode(node *bbnode.Node) error {
	if c.Candidates == nil {
		node.Terminate = true
		return nil
	}
	candidateMap, err := c.Candidates.Candidates(node)
	if err != nil {
		return fmt.Errorf("bbt: candidate generation at node %d: %w", node.Idx, err)
	}

	if c.MLMode == mlplugin.UseModel && c.MLScorer != nil {
		winner, err := c.MLScorer.Select(candidateMap)
		if errors.Is(err, mlplugin.ErrNoCandidate) {
			node.Terminate = true
			return nil
		}
		if err != nil {
			return fmt.Errorf("bbt: ml candidate selection at node %d: %w", node.Idx, err)
		}
		children, err := c.Operator.Impose(node, winner.First)
		if err != nil {
			return fmt.Errorf("bbt: impose at node %d: %w", node.Idx, err)
		}
		c.pushChildren(children)
		return nil
	}

	scorer := c.effectiveScorer()

	if c.Cfg.ThreeWay {
		pair, err := scorer.TopTwoCandidates(node, candidateMap)
		if errors.Is(err, candidate.ErrNoCandidate) {
			node.Terminate = true
			return nil
		}
		if err != nil {
			return fmt.Errorf("bbt: top-two selection at node %d: %w", node.Idx, err)
		}
		children, err := c.Operator.Impose3(node, [2]bbnode.Edge{pair[0].First, pair[1].First})
		if err != nil {
			return fmt.Errorf("bbt: impose3 at node %d: %w", node.Idx, err)
		}
		c.pushChildren(children)
		return nil
	}

	winner, err := scorer.BestCandidate(node, candidateMap)
	if errors.Is(err, candidate.ErrNoCandidate) {
		node.Terminate = true
		return nil
	}
	if err == nil && c.MLRecorder != nil && (c.MLMode == mlplugin.GetData1 || c.MLMode == mlplugin.GetData2) {
		c.MLRecorder.Record(mlplugin.Sample{
			NodeIdx:   node.Idx,
			EdgeMap:   candidateMap,
			Chosen:    winner,
			Objective: node.Value,
		})
	}
	if err != nil {
		return fmt.Errorf("bbt: candidate selection at node %d: %w", node.Idx, err)
	}
	children, err := c.Operator.Impose(node, winner.First)
	if err != nil {
		return fmt.Errorf("bbt: impose at node %d: %w", node.Idx, err)
	}
	c.pushChildren(children)
	return nil
}

// pushChildren pushes children in the order the ordering guarantees
// require. Impose returns [falseChild, trueChild], but true-before-false
// must win frontier ties, so the 2-way case pushes index 1 before index 0.
// Impose3 already returns its children (A, B, C, or the depth-budget
// fallback pair) in push order.
func (c *Controller) pushChildren(children []*bbnode.Node) {
	if len(children) == 2 {
		c.Frontier.Push(children[1])
		c.Frontier.Push(children[0])
		return
	}
	for _, child := range children {
		c.Frontier.Push(child)
	}
}

// effectiveScorer returns c.Scorer, or a shallow copy with the heuristic
// and/or exact test functions substituted by a cheaper upstream phase's
// when the BKF advisor predicts the real phase would not be cost
// effective for the current run. History and Advisor pointers are shared,
// so pseudo-cost and timing bookkeeping is unaffected.
func (c *Controller) effectiveScorer() *candidate.Scorer {
	if c.Advisor == nil {
		return c.Scorer
	}
	s := *c.Scorer
	if c.Advisor.SkipEffective(bkf.HeuristicPhase) {
		s.ProcessHeur = s.ProcessLP
		if c.Metrics != nil {
			c.Metrics.RecordPhaseSkip(bkf.HeuristicPhase.String())
		}
	}
	if c.Advisor.SkipEffective(bkf.ExactPhase) {
		s.ProcessExact = s.ProcessHeur
		if c.Metrics != nil {
			c.Metrics.RecordPhaseSkip(bkf.ExactPhase.String())
		}
	}
	return &s
}

func (c *Controller) updateLB() {
	if v, ok := c.Frontier.PeekMinValue(); ok {
		c.LB = v
	} else {
		c.LB = c.UB
	}
}

func (c *Controller) finalReason() ExitReason {
	if !c.Frontier.Empty() {
		return ExitTimeLimit
	}
	if math.IsInf(c.UB, 1) {
		return ExitInfeasible
	}
	return ExitOptimal
}
