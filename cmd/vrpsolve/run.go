// Command vrpsolve is the branch-and-bound solver's CLI: a single
// verb-first executable that parses an instance, runs the search, and
// reports through exit codes, built on github.com/spf13/cobra with one
// root command plus a helper for options shared by every verb.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"

	"github.com/gophervrp/bbcore/bbnode"
	"github.com/gophervrp/bbcore/bbt"
	"github.com/gophervrp/bbcore/bkf"
	"github.com/gophervrp/bbcore/branch"
	"github.com/gophervrp/bbcore/candidate"
	"github.com/gophervrp/bbcore/checkpoint"
	"github.com/gophervrp/bbcore/config"
	"github.com/gophervrp/bbcore/history"
	"github.com/gophervrp/bbcore/instance"
	"github.com/gophervrp/bbcore/internal/naivecutting"
	"github.com/gophervrp/bbcore/internal/naivepricing"
	"github.com/gophervrp/bbcore/internal/refsolver"
	"github.com/gophervrp/bbcore/lpsolver"
	"github.com/gophervrp/bbcore/metrics"
	"github.com/gophervrp/bbcore/mlplugin"
)

// dummyCost is the objective coefficient of the root LP's artificial
// covering column, large enough that any real route generated by pricing
// is preferred as soon as one exists.
const dummyCost = 1e6

// runOptions holds every flag common to the solve and tree subcommands.
type runOptions struct {
	instancePath string
	timeLimit    time.Duration
	mode         config.Mode
	mlMode       mlplugin.Mode
	dumpOut      string
	dumpIn       string
	configPath   string
	redisAddr    string
	phaseCounts  config.PhaseCounts
	bkf          config.BKFConfig
	enumGap      float64
}

// seqAllocator is the process-wide monotonic node-index counter injected
// into branch.New, per the design note that this state should be
// dependency-injected rather than a package-level counter.
type seqAllocator struct{ next int64 }

func (a *seqAllocator) Next() int64 { return atomic.AddInt64(&a.next, 1) }

// runContext bundles everything buildController assembles so both the
// solve and tree commands can drive the same search.
type runContext struct {
	inst       *instance.Instance
	controller *bbt.Controller
	metrics    *metrics.Collectors
	recorder   *mlplugin.Recorder
}

func buildController(opts runOptions) (*runContext, error) {
	mode := instance.CVRP
	if opts.mode == config.VRPTW {
		mode = instance.VRPTW
	}
	inst, err := instance.ParseFile(opts.instancePath, mode)
	if err != nil {
		return nil, fmt.Errorf("vrpsolve: parse instance: %w", err)
	}

	root, err := buildRootNode(inst)
	if err != nil {
		return nil, fmt.Errorf("vrpsolve: build root node: %w", err)
	}

	h := history.New()
	adv := bkf.New()
	probe := edgeCoefficientProbe{}
	pc := opts.phaseCounts
	if pc == (config.PhaseCounts{}) {
		pc = config.DefaultPhaseCounts
	}
	scorer := candidate.New(pc.N0, pc.N1, pc.N2, pc.N3, probe.test, probe.test, probe.test, h, adv)
	scorer.BKF.LP = candidate.PromotionParams(opts.bkf.LP)
	scorer.BKF.Heuristic = candidate.PromotionParams(opts.bkf.Heuristic)
	scorer.BKF.Exact = candidate.PromotionParams(opts.bkf.Exact)
	op := branch.New(&seqAllocator{})

	cfg := bbt.Config{TimeLimit: opts.timeLimit, ThreeWay: false}
	controller := bbt.New(cfg, root, op, scorer, adv)

	pricer := naivepricing.New(inst)
	controller.Pricer = pricer
	controller.Cutter = naivecutting.New(inst)
	controller.Feasibility = integerFeasibility{}
	controller.Candidates = fractionalCandidates{}
	if opts.enumGap > 0 {
		controller.EnumTrigger = &naivepricing.EnumTrigger{Pricer: pricer, GapThreshold: opts.enumGap}
	}

	mc := metrics.New()
	controller.Metrics = mc

	controller.MLMode = opts.mlMode
	if opts.mlMode == mlplugin.UseModel {
		controller.MLScorer = mlplugin.NewScorer()
	}
	var recorder *mlplugin.Recorder
	if opts.mlMode == mlplugin.GetData1 || opts.mlMode == mlplugin.GetData2 {
		recorder = mlplugin.NewRecorder()
		controller.MLRecorder = recorder
	}

	if store, runID, err := buildCheckpointStore(opts); err != nil {
		return nil, err
	} else if store != nil {
		baseSolver, err := root.Solver.Clone()
		if err != nil {
			return nil, fmt.Errorf("vrpsolve: snapshot base solver: %w", err)
		}
		adapter := &checkpoint.Adapter{
			Store:   store,
			RunID:   runID,
			Rebuild: rebuildFunc(inst, baseSolver),
		}
		controller.Checkpoint = adapter
		if opts.dumpIn != "" {
			if err := controller.RestoreCheckpoint(); err != nil {
				return nil, fmt.Errorf("vrpsolve: restore checkpoint: %w", err)
			}
		}
	}

	return &runContext{inst: inst, controller: controller, metrics: mc, recorder: recorder}, nil
}

// buildRootNode constructs the LP relaxation's root row-per-customer
// set-partitioning model with a single artificial covering column, the
// bootstrap the naive pricer's real routes gradually displace.
func buildRootNode(inst *instance.Instance) (*bbnode.Node, error) {
	m := refsolver.New()
	if _, err := m.AddCol(dummyCost, nil, nil); err != nil {
		return nil, err
	}
	for c := 1; c <= inst.NumCustomers(); c++ {
		if _, err := m.AddRow([]int{0}, []float64{1}, lpsolver.EQ, 1); err != nil {
			return nil, err
		}
	}
	root := bbnode.NewRoot(m, inst.NumCustomers(), fullyConnectedBuckets(inst), true)
	sol, err := m.Solve()
	if err != nil {
		return nil, err
	}
	root.Value = sol.Objective
	return root, nil
}

// fullyConnectedBuckets builds a single-bin arc-bucket graph with every
// depot/customer pair connected, the starting point both the root node
// and every rebuilt checkpointed node prune FORBID branches from.
func fullyConnectedBuckets(inst *instance.Instance) *bbnode.ArcBucketGraph {
	buckets := bbnode.NewArcBucketGraph(inst.Dimension, 1, true)
	for i := 0; i < inst.Dimension; i++ {
		for j := 0; j < inst.Dimension; j++ {
			if i != j {
				buckets.AddArc(i, 0, j)
			}
		}
	}
	return buckets
}

// rebuildFunc returns the checkpoint.Adapter.Rebuild callback: it replays a
// record's branch rows and cuts onto a fresh clone of baseSolver (the root
// LP before any branching or cutting touched it), since the checkpoint
// format itself carries only rows and columns, not the LP model.
func rebuildFunc(inst *instance.Instance, baseSolver lpsolver.Interface) func(checkpoint.Record) (*bbnode.Node, error) {
	return func(rec checkpoint.Record) (*bbnode.Node, error) {
		solver, err := baseSolver.Clone()
		if err != nil {
			return nil, fmt.Errorf("vrpsolve: clone base solver: %w", err)
		}
		buckets := fullyConnectedBuckets(inst)
		node := rec.Attach(solver, inst.NumCustomers(), buckets, true)

		middleRows := make(map[int][]bbnode.Edge)
		for _, brc := range rec.Brcs {
			switch brc.Dir {
			case bbnode.Forbid:
				buckets.DeleteArc(brc.Candidate.First)
			case bbnode.Force:
				if brc.RowIdx == bbnode.InvalidBrcIndex {
					continue
				}
				cols, vals := node.ObtainBrcCoefficient(brc.Candidate.First)
				if _, err := node.Solver.AddRow(cols, vals, lpsolver.EQ, 1); err != nil {
					return nil, fmt.Errorf("vrpsolve: replay FORCE row: %w", err)
				}
			case bbnode.Middle:
				middleRows[brc.RowIdx] = append(middleRows[brc.RowIdx], brc.Candidate.First)
			}
		}
		for rowIdx, edges := range middleRows {
			if rowIdx == bbnode.InvalidBrcIndex || len(edges) != 2 {
				continue
			}
			cols, vals := mergeEdgeCoefficients(node, edges[0], edges[1])
			if _, err := node.Solver.AddRow(cols, vals, lpsolver.EQ, 1); err != nil {
				return nil, fmt.Errorf("vrpsolve: replay MIDDLE row: %w", err)
			}
		}
		for _, cut := range rec.RCCs {
			if _, err := node.Solver.AddRow(cut.ColIdx, cut.Coeff, cut.Sense, cut.RHS); err != nil {
				return nil, fmt.Errorf("vrpsolve: replay RCC: %w", err)
			}
		}
		for _, cut := range rec.R1Cs {
			if _, err := node.Solver.AddRow(cut.ColIdx, cut.Coeff, cut.Sense, cut.RHS); err != nil {
				return nil, fmt.Errorf("vrpsolve: replay R1C: %w", err)
			}
		}
		node.ClearSolCache()
		return node, nil
	}
}

// mergeEdgeCoefficients sums the per-column coefficients of two edges
// sharing a MIDDLE row, the same combination branch.Operator's own
// mergeCoefficients performs when the row was first created.
func mergeEdgeCoefficients(node *bbnode.Node, e1, e2 bbnode.Edge) ([]int, []float64) {
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

func buildCheckpointStore(opts runOptions) (checkpoint.Store, string, error) {
	switch {
	case opts.redisAddr != "":
		client := redis.NewClient(&redis.Options{Addr: opts.redisAddr})
		return &checkpoint.RedisStore{Client: client}, checkpoint.NewRunID(), nil
	case opts.dumpIn != "":
		runID, err := resolveRunID(opts.dumpIn)
		if err != nil {
			return nil, "", fmt.Errorf("vrpsolve: resolve run to resume from %s: %w", opts.dumpIn, err)
		}
		return &checkpoint.FileStore{Dir: opts.dumpIn}, runID, nil
	case opts.dumpOut != "":
		return &checkpoint.FileStore{Dir: opts.dumpOut}, checkpoint.NewRunID(), nil
	default:
		return nil, "", nil
	}
}

// resolveRunID recovers the run identifier a previous solve wrote its
// checkpoints under, so resuming reads back the same run's files instead of
// minting a new, empty one. FileStore names every file
// "<runID>-<position>.ckpt"; the position-0 file is always written first.
func resolveRunID(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	for _, e := range entries {
		name := e.Name()
		if strings.HasSuffix(name, "-000000.ckpt") {
			return strings.TrimSuffix(name, "-000000.ckpt"), nil
		}
	}
	return "", fmt.Errorf("no checkpoint files found in %s", dir)
}

// exitCode maps a bbt.ExitReason (and any run error) onto the process
// exit codes named in the external-interfaces contract.
func exitCode(reason bbt.ExitReason, err error) int {
	if err != nil {
		return 3
	}
	switch reason {
	case bbt.ExitOptimal:
		return 0
	case bbt.ExitTimeLimit:
		return 1
	case bbt.ExitInfeasible:
		return 2
	default:
		return 3
	}
}

func runSearch(ctx context.Context, rc *runContext, logger *log.Logger) (bbt.ExitReason, error) {
	reason, err := rc.controller.Run(ctx)
	if err != nil {
		logger.Error("search aborted", "err", err)
		return reason, err
	}
	logger.Info("search finished", "reason", reason.String(), "lb", rc.controller.LB, "ub", rc.controller.UB)
	return reason, nil
}
