package bbnode

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeleteArcRemovesBothDirections(t *testing.T) {
	g := NewArcBucketGraph(4, 2, true)
	g.AddArc(1, 0, 2)
	g.AddArc(2, 0, 1)
	g.DeleteArc(Edge{I: 1, J: 2})
	assert.False(t, g.HasArc(1, 0, 2))
	assert.False(t, g.HasArc(2, 0, 1))
}

func TestDeleteArcRemovesJumpArcs(t *testing.T) {
	g := NewArcBucketGraph(4, 3, true)
	g.AddJumpArc(1, 0, JumpArc{Resource: 5, Head: 3})
	g.DeleteArc(Edge{I: 1, J: 3})
	assert.False(t, g.HasArc(1, 0, 3))
}

func TestDeleteArcCommutes(t *testing.T) {
	build := func() *ArcBucketGraph {
		g := NewArcBucketGraph(4, 2, true)
		g.AddArc(0, 0, 1)
		g.AddArc(1, 0, 2)
		g.AddArc(2, 0, 3)
		return g
	}
	g1 := build()
	g1.DeleteArc(Edge{I: 0, J: 1})
	g1.DeleteArc(Edge{I: 2, J: 3})

	g2 := build()
	g2.DeleteArc(Edge{I: 2, J: 3})
	g2.DeleteArc(Edge{I: 0, J: 1})

	for v := 0; v < 4; v++ {
		for b := 0; b < 2; b++ {
			assert.Equal(t, g1.forward[v][b].arcs, g2.forward[v][b].arcs, "vertex %d bin %d", v, b)
		}
	}
}

func TestBackwardGraphOnlyWhenAsymmetric(t *testing.T) {
	sym := NewArcBucketGraph(3, 1, true)
	assert.Nil(t, sym.backward)
	asym := NewArcBucketGraph(3, 1, false)
	assert.NotNil(t, asym.backward)
}

func TestCloneIsIndependent(t *testing.T) {
	g := NewArcBucketGraph(3, 1, true)
	g.AddArc(0, 0, 1)
	clone := g.Clone()
	clone.AddArc(0, 0, 2)
	assert.False(t, g.HasArc(0, 0, 2))
	assert.True(t, clone.HasArc(0, 0, 2))
}
