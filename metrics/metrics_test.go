package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordNodeIncrementsCounter(t *testing.T) {
	c := New()
	c.RecordNode(1, 4.5)
	c.RecordNode(2, 5.0)
	assert.Equal(t, float64(2), testutil.ToFloat64(c.NodesExplored))
}

func TestSetBoundsUpdatesGauges(t *testing.T) {
	c := New()
	c.SetBounds(3.5, 10.0)
	assert.Equal(t, 3.5, testutil.ToFloat64(c.LowerBound))
	assert.Equal(t, 10.0, testutil.ToFloat64(c.UpperBound))
}

func TestRecordPhaseSkipIncrementsLabeledCounter(t *testing.T) {
	c := New()
	c.RecordPhaseSkip("heuristic")
	c.RecordPhaseSkip("heuristic")
	c.RecordPhaseSkip("exact")
	assert.Equal(t, float64(2), testutil.ToFloat64(c.PhaseSkips.WithLabelValues("heuristic")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.PhaseSkips.WithLabelValues("exact")))
}

func TestRecordCheckpointWriteIncrementsCounter(t *testing.T) {
	c := New()
	c.RecordCheckpointWrite()
	assert.Equal(t, float64(1), testutil.ToFloat64(c.CheckpointWrites))
}

func TestRecordEnumerationSwitchIncrementsCounter(t *testing.T) {
	c := New()
	c.RecordEnumerationSwitch(7, 42)
	assert.Equal(t, float64(1), testutil.ToFloat64(c.EnumSwitches))
}
