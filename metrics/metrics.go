// Package metrics exports controller/BKF/history statistics as
// Prometheus collectors registered on a Registry the embedding
// application can serve however it likes (typically via promhttp on a
// /metrics endpoint), plus charmbracelet/log lines, in place of periodic
// stdout progress printing. This package does not itself start an HTTP
// server.
package metrics

import (
	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
)

// Collectors holds every Prometheus metric the controller updates as it
// runs, all registered under a single registry.
type Collectors struct {
	Registry *prometheus.Registry

	NodesExplored    prometheus.Counter
	LowerBound       prometheus.Gauge
	UpperBound       prometheus.Gauge
	PhaseSkips       *prometheus.CounterVec
	CheckpointWrites prometheus.Counter
	EnumSwitches     prometheus.Counter

	Logger *log.Logger
}

// New returns a Collectors with every metric registered against a fresh
// registry, and a logger writing structured lines to os.Stderr via
// charmbracelet/log's default configuration.
func New() *Collectors {
	reg := prometheus.NewRegistry()

	c := &Collectors{
		Registry: reg,
		NodesExplored: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bbcore",
			Name:      "nodes_explored_total",
			Help:      "Number of branch-and-bound nodes fully processed.",
		}),
		LowerBound: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "bbcore",
			Name:      "lower_bound",
			Help:      "Current lower bound across the open-node frontier.",
		}),
		UpperBound: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "bbcore",
			Name:      "upper_bound",
			Help:      "Current best known objective (incumbent), or +Inf.",
		}),
		PhaseSkips: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bbcore",
			Name:      "phase_skips_total",
			Help:      "Strong-branching phases bypassed on the BKF advisor's cost-ineffectiveness prediction, by phase.",
		}, []string{"phase"}),
		CheckpointWrites: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bbcore",
			Name:      "checkpoint_writes_total",
			Help:      "Node checkpoint records written.",
		}),
		EnumSwitches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bbcore",
			Name:      "enumeration_switches_total",
			Help:      "Nodes switched from fractional/pricing state into enumeration state.",
		}),
		Logger: log.Default(),
	}

	reg.MustRegister(c.NodesExplored, c.LowerBound, c.UpperBound, c.PhaseSkips, c.CheckpointWrites, c.EnumSwitches)
	return c
}

// RecordNode increments the explored-node counter and logs the node's
// index and value at debug level.
func (c *Collectors) RecordNode(nodeIdx int64, value float64) {
	c.NodesExplored.Inc()
	c.Logger.Debug("node processed", "idx", nodeIdx, "value", value)
}

// SetBounds updates the LB/UB gauges. It writes no log line; a new
// incumbent is logged by RecordIncumbent.
func (c *Collectors) SetBounds(lb, ub float64) {
	c.LowerBound.Set(lb)
	c.UpperBound.Set(ub)
}

// RecordIncumbent logs a new best-cost-so-far incumbent at info level.
func (c *Collectors) RecordIncumbent(nodeIdx int64, objective float64) {
	c.Logger.Info("new incumbent", "idx", nodeIdx, "objective", objective)
}

// RecordPhaseSkip increments the phase-skip counter for phase and logs it
// at debug level.
func (c *Collectors) RecordPhaseSkip(phase string) {
	c.PhaseSkips.WithLabelValues(phase).Inc()
	c.Logger.Debug("phase skipped", "phase", phase)
}

// RecordCheckpointWrite increments the checkpoint-write counter.
func (c *Collectors) RecordCheckpointWrite() {
	c.CheckpointWrites.Inc()
}

// RecordEnumerationSwitch increments the enumeration-switch counter and
// logs the transition at info level.
func (c *Collectors) RecordEnumerationSwitch(nodeIdx int64, numColumns int) {
	c.EnumSwitches.Inc()
	c.Logger.Info("switched to enumeration state", "idx", nodeIdx, "columns", numColumns)
}
