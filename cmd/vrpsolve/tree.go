package main

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/goccy/go-graphviz"
	"github.com/spf13/cobra"

	"github.com/gophervrp/bbcore/bbnode"
	"github.com/gophervrp/bbcore/bbt"
)

// treeCommand renders the explored branch-and-bound tree from a completed
// (or in-progress) run as Graphviz DOT/SVG, grounded on the pack's own
// DOT-from-scratch renderer (bytes.Buffer plus goccy/go-graphviz) rather
// than a heavier graph-modeling dependency.
func treeCommand(opts *runOptions, logger *log.Logger) *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "tree <instance-path>",
		Short: "Run the search and render the explored branch-and-bound tree as SVG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.instancePath = args[0]
			rc, err := buildController(*opts)
			if err != nil {
				return err
			}
			rec := &treeRecorder{inner: rc.controller.Checkpoint}
			rc.controller.Checkpoint = rec

			if _, err := runSearch(cmd.Context(), rc, logger); err != nil {
				return err
			}

			svg, err := renderSVG(cmd.Context(), rec.dot())
			if err != nil {
				return fmt.Errorf("vrpsolve: render tree: %w", err)
			}
			return os.WriteFile(outPath, svg, 0o644)
		},
	}
	cmd.Flags().StringVar(&outPath, "out", "tree.svg", "output SVG path")
	return cmd
}

// treeNode is one processed node's tree-rendering bookkeeping: its parent
// index (or -1 for the root) and the branch decision that produced it.
type treeNode struct {
	idx    int64
	parent int64
	label  string
	value  float64
}

// treeRecorder wraps a run's real Checkpointer (if any) and additionally
// records every processed node so the tree can be rendered afterward.
// bbnode.Node deliberately carries no parent pointer, so parent linkage is
// reconstructed here by matching a node's branch history against every
// previously seen node's history with its last branch step removed.
type treeRecorder struct {
	inner   bbt.Checkpointer
	nodes   []treeNode
	seenIdx map[string]int64
}

func (r *treeRecorder) NodeOut(node *bbnode.Node) error {
	r.record(node)
	if r.inner != nil {
		return r.inner.NodeOut(node)
	}
	return nil
}

func (r *treeRecorder) NodeIn() (*bbnode.Node, bool, error) {
	if r.inner != nil {
		return r.inner.NodeIn()
	}
	return nil, false, nil
}

func (r *treeRecorder) record(node *bbnode.Node) {
	if r.seenIdx == nil {
		r.seenIdx = make(map[string]int64)
	}
	full := brcSignature(node.Brcs)
	r.seenIdx[full] = node.Idx

	parent := int64(-1)
	label := "root"
	if len(node.Brcs) > 0 {
		last := node.Brcs[len(node.Brcs)-1]
		parentBrcs := trimLastStep(node.Brcs)
		if p, ok := r.seenIdx[brcSignature(parentBrcs)]; ok {
			parent = p
		}
		label = fmt.Sprintf("%v %s", last.Candidate.First, last.Dir)
	}
	r.nodes = append(r.nodes, treeNode{idx: node.Idx, parent: parent, label: label, value: node.Value})
}

// trimLastStep drops every trailing Brc sharing the last one's RowIdx, since
// a MIDDLE branch step contributes two Brc entries for a single LP row.
func trimLastStep(brcs []bbnode.Brc) []bbnode.Brc {
	if len(brcs) == 0 {
		return brcs
	}
	rowIdx := brcs[len(brcs)-1].RowIdx
	end := len(brcs)
	for end > 0 && brcs[end-1].RowIdx == rowIdx {
		end--
	}
	return brcs[:end]
}

func brcSignature(brcs []bbnode.Brc) string {
	s := ""
	for _, b := range brcs {
		s += fmt.Sprintf("%v|%s;", b.Candidate.First, b.Dir)
	}
	return s
}

func (r *treeRecorder) dot() string {
	dot := "digraph G {\n"
	dot += "  rankdir=TB;\n"
	dot += "  node [shape=box, style=\"rounded,filled\", fillcolor=white];\n\n"
	for _, n := range r.nodes {
		dot += fmt.Sprintf("  %q [label=%q];\n", nodeID(n.idx), fmt.Sprintf("#%d\n%s\nz=%.2f", n.idx, n.label, n.value))
	}
	dot += "\n"
	for _, n := range r.nodes {
		if n.parent < 0 {
			continue
		}
		dot += fmt.Sprintf("  %q -> %q;\n", nodeID(n.parent), nodeID(n.idx))
	}
	dot += "}\n"
	return dot
}

func nodeID(idx int64) string { return fmt.Sprintf("n%d", idx) }

// renderSVG mirrors the pack's own DOT-to-SVG sequence: parse the hand-built
// DOT source and render it through Graphviz.
func renderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
