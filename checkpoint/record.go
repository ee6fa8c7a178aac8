// Package checkpoint implements the node dump/load format: on a writable
// node the controller emits the node's column list, brcs, cuts, LP bounds
// and frontier position; loading reconstructs a node in an equivalent
// state for resuming. Records are gob-encoded and gzip-compressed, and
// can be stored either as a local file or as a Redis key under a run's
// uuid.
package checkpoint

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/gophervrp/bbcore/bbnode"
	"github.com/gophervrp/bbcore/lpsolver"
	"github.com/klauspost/compress/gzip"
)

// Record is the on-disk/on-wire snapshot of one node.
type Record struct {
	RunID              string
	NodeIdx            int64
	Cols               []bbnode.Column
	Brcs               []bbnode.Brc
	RCCs               []bbnode.Cut
	R1Cs               []bbnode.Cut
	Value              float64
	LastGap            float64
	ThreeWayBudgetUsed int
	Enumeration        bool
	// EnumColumns, EnumCosts and EnumDeleted materialize the node's
	// EnumState when Enumeration is true: the enumeration pool's columns
	// this node still references, their per-node cost override, and the
	// local positions (indices into EnumColumns/EnumCosts) marked
	// deleted. Columns are materialized rather than referencing a shared
	// pool index, since the runtime pool does not survive a checkpoint
	// round-trip.
	EnumColumns      []bbnode.Column
	EnumCosts        []float64
	EnumDeleted      []uint32
	FrontierPosition int
}

// Snapshot captures node's dumpable bookkeeping state at the given
// frontier position, under runID.
func Snapshot(runID string, node *bbnode.Node, frontierPosition int) Record {
	rec := Record{
		RunID:              runID,
		NodeIdx:            node.Idx,
		Cols:               append([]bbnode.Column(nil), node.Cols...),
		Brcs:               append([]bbnode.Brc(nil), node.Brcs...),
		RCCs:               append([]bbnode.Cut(nil), node.RCCs...),
		R1Cs:               append([]bbnode.Cut(nil), node.R1Cs...),
		Value:              node.Value,
		LastGap:            node.LastGap,
		ThreeWayBudgetUsed: node.ThreeWayBudgetUsed,
		Enumeration:        node.Enumeration,
		FrontierPosition:   frontierPosition,
	}
	if node.Enumeration && node.Enum != nil {
		rec.EnumColumns, rec.EnumCosts, rec.EnumDeleted = node.Enum.Snapshot()
	}
	return rec
}

// Attach reconstructs a Node from rec onto solver and, when rec.Enumeration
// is false, buckets (otherwise a fresh EnumState rebuilt from
// rec.EnumColumns/EnumCosts/EnumDeleted). The caller must bring solver (and
// buckets, for a non-enumeration node) into a state consistent with
// rec.Brcs/RCCs/R1Cs before resuming search on the result — typically by
// replaying their rows against the same base model the run started from,
// since the LP model itself is not part of the checkpoint format.
func (rec Record) Attach(solver lpsolver.Interface, baseRows int, buckets *bbnode.ArcBucketGraph, symmetric bool) *bbnode.Node {
	var enum *bbnode.EnumState
	if rec.Enumeration {
		buckets = nil
		pool := bbnode.NewEnumPool()
		colIdx := pool.Append(rec.EnumColumns...)
		enum = bbnode.NewEnumState(pool, colIdx, rec.EnumCosts)
		enum.MarkDeleted(toIntSlice(rec.EnumDeleted))
	}
	return bbnode.Restore(solver, baseRows, buckets, enum, symmetric, rec.NodeIdx, rec.Cols, rec.Brcs, rec.RCCs, rec.R1Cs, rec.Value, rec.LastGap, rec.ThreeWayBudgetUsed)
}

func toIntSlice(u []uint32) []int {
	out := make([]int, len(u))
	for i, v := range u {
		out[i] = int(v)
	}
	return out
}

// Encode gob-encodes and gzip-compresses rec.
func Encode(rec Record) ([]byte, error) {
	var raw bytes.Buffer
	if err := gob.NewEncoder(&raw).Encode(rec); err != nil {
		return nil, fmt.Errorf("checkpoint: encode: %w", err)
	}
	var compressed bytes.Buffer
	gw := gzip.NewWriter(&compressed)
	if _, err := gw.Write(raw.Bytes()); err != nil {
		return nil, fmt.Errorf("checkpoint: gzip: %w", err)
	}
	if err := gw.Close(); err != nil {
		return nil, fmt.Errorf("checkpoint: gzip close: %w", err)
	}
	return compressed.Bytes(), nil
}

// Decode reverses Encode.
func Decode(data []byte) (Record, error) {
	gr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return Record{}, fmt.Errorf("checkpoint: gzip reader: %w", err)
	}
	defer gr.Close()
	var rec Record
	if err := gob.NewDecoder(gr).Decode(&rec); err != nil {
		return Record{}, fmt.Errorf("checkpoint: decode: %w", err)
	}
	return rec, nil
}
