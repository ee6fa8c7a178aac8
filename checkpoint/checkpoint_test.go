package checkpoint

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/gophervrp/bbcore/bbnode"
	"github.com/gophervrp/bbcore/internal/testlp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleNode() *bbnode.Node {
	m := testlp.New(2)
	root := bbnode.NewRoot(m, 0, bbnode.NewArcBucketGraph(3, 2, true), true)
	root.Cols = append(root.Cols, bbnode.Column{Seq: []int{0, 1, 0}, Cost: 3, Demand: 2})
	root.Brcs = append(root.Brcs, bbnode.Brc{
		Candidate: bbnode.SingleCandidate(bbnode.Edge{I: 0, J: 1}),
		RowIdx:    bbnode.InvalidBrcIndex,
		Dir:       bbnode.Forbid,
	})
	root.Value = 4.5
	root.LastGap = 0.2
	return root
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	node := sampleNode()
	rec := Snapshot("run-1", node, 3)

	data, err := Encode(rec)
	require.NoError(t, err)

	got, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, rec.RunID, got.RunID)
	assert.Equal(t, rec.NodeIdx, got.NodeIdx)
	assert.Equal(t, rec.Cols, got.Cols)
	assert.Equal(t, rec.Brcs, got.Brcs)
	assert.Equal(t, rec.Value, got.Value)
	assert.Equal(t, rec.FrontierPosition, got.FrontierPosition)
}

func TestRecordAttachRebuildsBookkeeping(t *testing.T) {
	node := sampleNode()
	rec := Snapshot("run-1", node, 0)

	fresh := testlp.New(2)
	rebuilt := rec.Attach(fresh, 0, bbnode.NewArcBucketGraph(3, 2, true), true)

	assert.Equal(t, node.Idx, rebuilt.Idx)
	assert.Equal(t, node.Cols, rebuilt.Cols)
	assert.Equal(t, node.Brcs, rebuilt.Brcs)
	assert.Equal(t, node.Value, rebuilt.Value)
	assert.Equal(t, node.LastGap, rebuilt.LastGap)
	assert.False(t, rebuilt.Enumeration)
}

func enumNode() *bbnode.Node {
	m := testlp.New(2)
	pool := bbnode.NewEnumPool()
	cols := []bbnode.Column{
		{Seq: []int{0, 1, 0}, Cost: 3, Demand: 2},
		{Seq: []int{0, 2, 0}, Cost: 4, Demand: 1},
	}
	colIdx := pool.Append(cols...)
	enum := bbnode.NewEnumState(pool, colIdx, []float64{3, 4})
	enum.MarkDeleted([]int{1})

	node := bbnode.Restore(m, 0, nil, enum, true, 7, append([]bbnode.Column{bbnode.DummyColumn()}, cols...), nil, nil, nil, 5.5, 0.1, 0)
	return node
}

func TestRecordAttachRoundTripsEnumerationState(t *testing.T) {
	node := enumNode()
	rec := Snapshot("run-1", node, 0)

	require.True(t, rec.Enumeration)
	require.Len(t, rec.EnumColumns, 2)
	require.Equal(t, []float64{3, 4}, rec.EnumCosts)
	require.Equal(t, []uint32{1}, rec.EnumDeleted)

	rebuilt := rec.Attach(testlp.New(2), 0, nil, true)
	require.True(t, rebuilt.Enumeration)
	require.Nil(t, rebuilt.Buckets)
	require.NotNil(t, rebuilt.Enum)
	active := rebuilt.Enum.ActiveColumns()
	require.Len(t, active, 1)
	assert.Equal(t, cols0Seq(node), active[0].Col.Seq)
}

func cols0Seq(node *bbnode.Node) []int {
	return node.Enum.Pool.Get(0).Seq
}

func TestFileStorePutGetRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "checkpoints")
	store := FileStore{Dir: dir}
	ctx := context.Background()

	_, ok, err := store.Get(ctx, "run-1", 0)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Put(ctx, "run-1", 0, []byte("payload")))
	data, ok, err := store.Get(ctx, "run-1", 0)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("payload"), data)
}

func TestAdapterNodeOutThenNodeIn(t *testing.T) {
	dir := t.TempDir()
	store := FileStore{Dir: dir}
	adapter := &Adapter{
		Store: store,
		RunID: "run-42",
		Rebuild: func(rec Record) (*bbnode.Node, error) {
			return rec.Attach(testlp.New(2), 0, bbnode.NewArcBucketGraph(3, 2, true), true), nil
		},
	}

	node := sampleNode()
	require.NoError(t, adapter.NodeOut(node))

	restored, ok, err := adapter.NodeIn()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, node.Cols, restored.Cols)
	assert.Equal(t, node.Brcs, restored.Brcs)

	_, ok, err = adapter.NodeIn()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNewRunIDIsNonEmpty(t *testing.T) {
	id := NewRunID()
	assert.NotEmpty(t, id)
}
