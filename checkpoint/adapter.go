package checkpoint

import (
	"context"
	"fmt"

	"github.com/gophervrp/bbcore/bbnode"
)

// Adapter implements the bbt.Checkpointer contract (NodeOut/NodeIn) over a
// Store: NodeOut snapshots and persists a node at the next output
// position; NodeIn decodes and reconstructs the next saved node, via
// Rebuild, which knows how to attach a fresh LP solver (and buckets or
// enum state) consistent with a record's brcs before resuming.
type Adapter struct {
	Store   Store
	RunID   string
	Ctx     context.Context
	Rebuild func(rec Record) (*bbnode.Node, error)

	outPos int
	inPos  int
}

func (a *Adapter) ctx() context.Context {
	if a.Ctx != nil {
		return a.Ctx
	}
	return context.Background()
}

// NodeOut persists node's dumpable state at the current output position.
func (a *Adapter) NodeOut(node *bbnode.Node) error {
	rec := Snapshot(a.RunID, node, a.outPos)
	data, err := Encode(rec)
	if err != nil {
		return err
	}
	if err := a.Store.Put(a.ctx(), a.RunID, a.outPos, data); err != nil {
		return err
	}
	a.outPos++
	return nil
}

// NodeIn loads and reconstructs the next saved node, or reports ok=false
// once the store has nothing left at the current input position.
func (a *Adapter) NodeIn() (*bbnode.Node, bool, error) {
	data, ok, err := a.Store.Get(a.ctx(), a.RunID, a.inPos)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	rec, err := Decode(data)
	if err != nil {
		return nil, false, err
	}
	a.inPos++
	if a.Rebuild == nil {
		return nil, false, fmt.Errorf("checkpoint: NodeIn: no Rebuild function configured")
	}
	node, err := a.Rebuild(rec)
	if err != nil {
		return nil, false, err
	}
	return node, true, nil
}
