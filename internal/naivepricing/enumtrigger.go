package naivepricing

import (
	"math"

	"github.com/gophervrp/bbcore/bbnode"
)

// EnumTrigger switches a node into enumeration state once its optimality
// gap against the current incumbent falls at or below GapThreshold,
// seeding the enumeration pool from every route Pricer.EnumerateAll finds.
// It implements bbt.EnumTrigger.
type EnumTrigger struct {
	Pricer       *Pricer
	GapThreshold float64
}

// ShouldEnumerate reports whether node's relative gap to upperBound is at
// or below GapThreshold. Without a finite, positive incumbent the gap is
// undefined, so ShouldEnumerate always answers false.
func (t *EnumTrigger) ShouldEnumerate(node *bbnode.Node, lowerBound, upperBound float64) bool {
	if math.IsInf(upperBound, 1) || upperBound <= 0 {
		return false
	}
	gap := (upperBound - node.Value) / upperBound
	return gap <= t.GapThreshold
}

// Enumerate delegates to Pricer.EnumerateAll.
func (t *EnumTrigger) Enumerate(node *bbnode.Node) ([]bbnode.Column, error) {
	return t.Pricer.EnumerateAll(node)
}
