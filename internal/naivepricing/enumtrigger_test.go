package naivepricing

import (
	"math"
	"testing"

	"github.com/gophervrp/bbcore/bbnode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnumTriggerShouldEnumerateGapThreshold(t *testing.T) {
	trigger := &EnumTrigger{GapThreshold: 0.1}
	node := &bbnode.Node{Value: 95}

	assert.True(t, trigger.ShouldEnumerate(node, 0, 100))

	node.Value = 80
	assert.False(t, trigger.ShouldEnumerate(node, 0, 100))
}

func TestEnumTriggerShouldEnumerateWithoutIncumbent(t *testing.T) {
	trigger := &EnumTrigger{GapThreshold: 0.5}
	node := &bbnode.Node{Value: 10}

	assert.False(t, trigger.ShouldEnumerate(node, 0, math.Inf(1)))
	assert.False(t, trigger.ShouldEnumerate(node, 0, 0))
}

func TestEnumTriggerEnumerateDelegatesToPricer(t *testing.T) {
	root := newRootForPricing(t)
	p := New(toyInstance())
	trigger := &EnumTrigger{Pricer: p, GapThreshold: 1}

	cols, err := trigger.Enumerate(root)
	require.NoError(t, err)
	assert.NotEmpty(t, cols)
}
