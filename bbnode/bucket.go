package bbnode

// JumpArc is a resource-indexed shortcut to a later bin.
type JumpArc struct {
	Resource int
	Head     int
}

// bucket holds the arcs reachable from one (vertex, bin) pair: a small
// ordered slice per key, mutated in place as branch decisions prune arcs.
type bucket struct {
	arcs  []int
	jumps []JumpArc
}

func (b *bucket) removeArc(head int) bool {
	for i, h := range b.arcs {
		if h == head {
			last := len(b.arcs) - 1
			b.arcs[i] = b.arcs[last]
			b.arcs = b.arcs[:last]
			return true
		}
	}
	return false
}

func (b *bucket) removeJumpsTo(head int) {
	kept := b.jumps[:0]
	for _, j := range b.jumps {
		if j.Head != head {
			kept = append(kept, j)
		}
	}
	b.jumps = kept
}

func (b *bucket) clone() bucket {
	nb := bucket{}
	if len(b.arcs) > 0 {
		nb.arcs = append([]int(nil), b.arcs...)
	}
	if len(b.jumps) > 0 {
		nb.jumps = append([]JumpArc(nil), b.jumps...)
	}
	return nb
}

// ArcBucketGraph is the per-node forward (and, when the instance is not
// symmetric, backward) time/load-discretized arc graph that constrains the
// pricing engine's feasible extensions.
type ArcBucketGraph struct {
	numVertices int
	numBins     int
	symmetric   bool
	forward     [][]bucket
	backward    [][]bucket // nil when symmetric
}

// NewArcBucketGraph allocates a graph for numVertices vertices and numBins
// bins per vertex. Allocation failure is fatal; Go reports it as an
// allocation panic, which the caller is expected not to recover from.
func NewArcBucketGraph(numVertices, numBins int, symmetric bool) *ArcBucketGraph {
	g := &ArcBucketGraph{
		numVertices: numVertices,
		numBins:     numBins,
		symmetric:   symmetric,
		forward:     makeBuckets(numVertices, numBins),
	}
	if !symmetric {
		g.backward = makeBuckets(numVertices, numBins)
	}
	return g
}

func makeBuckets(numVertices, numBins int) [][]bucket {
	rows := make([][]bucket, numVertices)
	for v := range rows {
		rows[v] = make([]bucket, numBins)
	}
	return rows
}

// AddArc records that head is reachable from (vertex, bin) within the bin
// (as opposed to a jump arc).
func (g *ArcBucketGraph) AddArc(vertex, bin, head int) {
	g.forward[vertex][bin].arcs = append(g.forward[vertex][bin].arcs, head)
	if !g.symmetric {
		g.backward[vertex][bin].arcs = append(g.backward[vertex][bin].arcs, head)
	}
}

// AddJumpArc records a jump arc from (vertex, bin) to head via resource.
func (g *ArcBucketGraph) AddJumpArc(vertex, bin int, j JumpArc) {
	g.forward[vertex][bin].jumps = append(g.forward[vertex][bin].jumps, j)
	if !g.symmetric {
		g.backward[vertex][bin].jumps = append(g.backward[vertex][bin].jumps, j)
	}
}

// HasArc reports whether head is reachable from (vertex, bin) in the
// forward graph, directly or via a jump arc.
func (g *ArcBucketGraph) HasArc(vertex, bin, head int) bool {
	b := g.forward[vertex][bin]
	for _, h := range b.arcs {
		if h == head {
			return true
		}
	}
	for _, j := range b.jumps {
		if j.Head == head {
			return true
		}
	}
	return false
}

// DeleteArc removes every occurrence of edge (i,j) from every bucket of i
// and j, in both forward and (when applicable) backward graphs.
//
// Deletion of (i,j) and (k,l) commutes because each call only ever touches
// buckets of i and j.
func (g *ArcBucketGraph) DeleteArc(edge Edge) {
	g.deleteArcOneWay(g.forward, edge.I, edge.J)
	g.deleteArcOneWay(g.forward, edge.J, edge.I)
	if !g.symmetric {
		g.deleteArcOneWay(g.backward, edge.I, edge.J)
		g.deleteArcOneWay(g.backward, edge.J, edge.I)
	}
}

func (g *ArcBucketGraph) deleteArcOneWay(buckets [][]bucket, from, to int) {
	for bin := range buckets[from] {
		b := &buckets[from][bin]
		for b.removeArc(to) {
		}
		b.removeJumpsTo(to)
	}
}

// Clone deep-copies the graph, as required whenever a node is cloned.
func (g *ArcBucketGraph) Clone() *ArcBucketGraph {
	ng := &ArcBucketGraph{
		numVertices: g.numVertices,
		numBins:     g.numBins,
		symmetric:   g.symmetric,
		forward:     cloneBuckets(g.forward),
	}
	if !g.symmetric {
		ng.backward = cloneBuckets(g.backward)
	}
	return ng
}

func cloneBuckets(src [][]bucket) [][]bucket {
	dst := make([][]bucket, len(src))
	for v, row := range src {
		dst[v] = make([]bucket, len(row))
		for bin, b := range row {
			dst[v][bin] = b.clone()
		}
	}
	return dst
}

// Symmetric reports whether the graph assumes edge symmetry.
func (g *ArcBucketGraph) Symmetric() bool { return g.symmetric }

// NumVertices returns the number of vertices the graph was built for.
func (g *ArcBucketGraph) NumVertices() int { return g.numVertices }

// NumBins returns the number of bins per vertex.
func (g *ArcBucketGraph) NumBins() int { return g.numBins }
