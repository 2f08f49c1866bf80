// Package dot collects source/target edges and writes them as a Graphviz
// digraph.
package dot

import (
	"bufio"
	"fmt"
	"io"

	"github.com/tidwall/btree"
)

// Edge links a source to a target reached by a node Length segments away
// from the source root.
type Edge struct {
	Source int    `json:"source"`
	Target int    `json:"target"`
	Length uint32 `json:"length"`
}

func byEndpoints(a, b Edge) bool {
	if a.Source != b.Source {
		return a.Source < b.Source
	}
	return a.Target < b.Target
}

// Graph is a set of edges keyed by (source, target). It is not safe for
// concurrent use.
type Graph struct {
	edges *btree.BTreeG[Edge]
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{edges: btree.NewBTreeG(byEndpoints)}
}

// Add records e. When the pair is already present the shorter length wins.
func (g *Graph) Add(e Edge) {
	if prev, ok := g.edges.Get(e); ok && prev.Length <= e.Length {
		return
	}
	g.edges.Set(e)
}

// Len returns the number of distinct edges.
func (g *Graph) Len() int { return g.edges.Len() }

// Edges returns the edges ordered by source, then target.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, 0, g.edges.Len())
	g.edges.Scan(func(e Edge) bool {
		out = append(out, e)
		return true
	})
	return out
}

// Write renders edges as a digraph named "connections".
func Write(w io.Writer, edges []Edge) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "digraph connections {")
	for _, e := range edges {
		fmt.Fprintf(bw, "    source_%d -> target_%d [label=%d];\n", e.Source, e.Target, e.Length)
	}
	fmt.Fprintln(bw, "}")
	return bw.Flush()
}
