package bbt

import "github.com/gophervrp/bbcore/bbnode"

// Frontier is the open-node priority collection: a binary min-heap ordered
// by defineBetterNode (lowest node.Value first, ties broken by push order),
// using the classic percolate-up/percolate-down shape over a value-ordered
// slice of node pointers. There is no reverse-index bookkeeping for
// arbitrary decrease/increase-key updates, since the controller only ever
// inserts and removes the minimum.
type Frontier struct {
	items []frontierItem
	next  int64
}

type frontierItem struct {
	node *bbnode.Node
	seq  int64
}

// NewFrontier returns an empty frontier.
func NewFrontier() *Frontier { return &Frontier{} }

// Len returns the number of open nodes.
func (f *Frontier) Len() int { return len(f.items) }

// Empty reports whether the frontier holds no nodes.
func (f *Frontier) Empty() bool { return len(f.items) == 0 }

func left(i int) int   { return i*2 + 1 }
func right(i int) int  { return (i + 1) * 2 }
func parent(i int) int { return (i - 1) >> 1 }

func (f *Frontier) less(a, b frontierItem) bool {
	if a.node.Value != b.node.Value {
		return a.node.Value < b.node.Value
	}
	return a.seq < b.seq
}

func (f *Frontier) percolateUp(i int) {
	for i > 0 {
		p := parent(i)
		if !f.less(f.items[i], f.items[p]) {
			break
		}
		f.items[i], f.items[p] = f.items[p], f.items[i]
		i = p
	}
}

func (f *Frontier) percolateDown(i int) {
	n := len(f.items)
	for {
		l, r := left(i), right(i)
		smallest := i
		if l < n && f.less(f.items[l], f.items[smallest]) {
			smallest = l
		}
		if r < n && f.less(f.items[r], f.items[smallest]) {
			smallest = r
		}
		if smallest == i {
			break
		}
		f.items[i], f.items[smallest] = f.items[smallest], f.items[i]
		i = smallest
	}
}

// Push inserts node, stamping it with the next push-order sequence number
// so that value ties resolve in push order — the mechanism the ordering
// guarantees (true-before-false, A-before-B-before-C) rely on.
func (f *Frontier) Push(node *bbnode.Node) {
	if node == nil {
		return
	}
	f.items = append(f.items, frontierItem{node: node, seq: f.next})
	f.next++
	f.percolateUp(len(f.items) - 1)
}

// PopBest removes and returns the node with the lowest value (earliest
// push order on ties). It panics if the frontier is empty; callers must
// check Empty first.
func (f *Frontier) PopBest() *bbnode.Node {
	n := len(f.items)
	best := f.items[0].node
	f.items[0] = f.items[n-1]
	f.items = f.items[:n-1]
	if len(f.items) > 0 {
		f.percolateDown(0)
	}
	return best
}

// PeekMinValue returns the value of the current best node, and false if
// the frontier is empty.
func (f *Frontier) PeekMinValue() (float64, bool) {
	if len(f.items) == 0 {
		return 0, false
	}
	return f.items[0].node.Value, true
}
