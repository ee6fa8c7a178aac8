package bbnode

import "github.com/RoaringBitmap/roaring/v2"

// EnumPool is the shared, append-only enumeration column pool used once a
// node switches to enumeration state. Columns are never relocated; nodes
// reference columns by index and keep a private deleted-mask. A roaring
// bitmap gives cheap membership tests and cheap forking of the mask when a
// node clones, which matters once the pool holds hundreds of thousands of
// enumerated routes.
type EnumPool struct {
	cols []Column
}

// NewEnumPool creates an empty shared pool.
func NewEnumPool() *EnumPool { return &EnumPool{} }

// Append adds columns to the pool and returns their indices.
func (p *EnumPool) Append(cols ...Column) []int {
	idx := make([]int, len(cols))
	for i, c := range cols {
		idx[i] = len(p.cols)
		p.cols = append(p.cols, c)
	}
	return idx
}

// Get returns the column at index i.
func (p *EnumPool) Get(i int) Column { return p.cols[i] }

// Len returns the number of columns ever appended to the pool.
func (p *EnumPool) Len() int { return len(p.cols) }

// EnumState is a node's private view into the shared EnumPool: the indices
// it currently references, their per-node cost override, and a
// deleted-mask of indices (within ColIdx) that must be treated as removed.
type EnumState struct {
	Pool    *EnumPool
	ColIdx  []int
	Costs   []float64
	deleted *roaring.Bitmap
}

// NewEnumState builds an enumeration view referencing the given pool
// indices with the given per-column costs.
func NewEnumState(pool *EnumPool, colIdx []int, costs []float64) *EnumState {
	return &EnumState{Pool: pool, ColIdx: append([]int(nil), colIdx...), Costs: append([]float64(nil), costs...), deleted: roaring.New()}
}

// Clone deep-copies the per-node view; the shared Pool pointer is kept as-is
// since the pool itself is append-only and never mutated in place.
func (s *EnumState) Clone() *EnumState {
	return &EnumState{
		Pool:    s.Pool,
		ColIdx:  append([]int(nil), s.ColIdx...),
		Costs:   append([]float64(nil), s.Costs...),
		deleted: s.deleted.Clone(),
	}
}

// MarkDeleted flags the local slots (positions into ColIdx, not pool
// indices) as removed.
func (s *EnumState) MarkDeleted(localPositions []int) {
	for _, p := range localPositions {
		s.deleted.Add(uint32(p))
	}
}

// IsDeleted reports whether the local slot was marked deleted.
func (s *EnumState) IsDeleted(localPosition int) bool {
	return s.deleted.Contains(uint32(localPosition))
}

// ActiveColumns returns the (position, Column) pairs that have not been
// marked deleted, materialized against the shared pool.
func (s *EnumState) ActiveColumns() []struct {
	Pos int
	Col Column
} {
	out := make([]struct {
		Pos int
		Col Column
	}, 0, len(s.ColIdx))
	for pos, idx := range s.ColIdx {
		if s.deleted.Contains(uint32(pos)) {
			continue
		}
		out = append(out, struct {
			Pos int
			Col Column
		}{Pos: pos, Col: s.Pool.Get(idx)})
	}
	return out
}

// Snapshot materializes every pool column this view references (including
// slots marked deleted), their costs, and the local positions currently
// marked deleted, self-contained enough for
// a checkpoint to round-trip without needing the shared Pool to survive a
// process restart.
func (s *EnumState) Snapshot() (cols []Column, costs []float64, deletedPositions []uint32) {
	cols = make([]Column, len(s.ColIdx))
	for i, idx := range s.ColIdx {
		cols[i] = s.Pool.Get(idx)
	}
	return cols, append([]float64(nil), s.Costs...), s.deleted.ToArray()
}

// Compact drops deleted slots and regenerates ColIdx/Costs from the
// surviving columns.
func (s *EnumState) Compact() {
	newIdx := s.ColIdx[:0:0]
	newCosts := s.Costs[:0:0]
	for pos, idx := range s.ColIdx {
		if s.deleted.Contains(uint32(pos)) {
			continue
		}
		newIdx = append(newIdx, idx)
		newCosts = append(newCosts, s.Costs[pos])
	}
	s.ColIdx = newIdx
	s.Costs = newCosts
	s.deleted = roaring.New()
}
