// Package arena implements the append-only node store of the growth engine.
//
// Every node ever created, roots and children alike, lives in a single slice
// and is addressed by its NodeID, the index it was appended at. Nodes are never
// deleted; the only in-place mutations are the per-step growth accumulator,
// the branch counter of a parent and the information assigned on connect.
//
// The node set always forms a forest: a child's parent has a strictly smaller
// Length and following Parent from any node reaches a root in Length hops.
package arena

import (
	"fmt"
	"iter"
	"math"

	"github.com/sanonone/spacecol/pkg/core/geom"
)

// NodeID addresses a node inside an Arena.
type NodeID uint32

// NoParent is the Parent of every root node.
const NoParent NodeID = math.MaxUint32

// Node is a point of the growing structure.
//
// Values handed out by the arena are copies; mutating them has no effect on
// the arena.
type Node[I any] struct {
	ID       NodeID
	Position geom.Vec
	// Parent is NoParent for roots.
	Parent NodeID
	// Root is the owning root; a root's Root is its own ID.
	Root NodeID
	// Length is the edge count from Root.
	Length uint32
	// Branches counts the children spawned from this node so far.
	Branches uint32

	growth      geom.Vec
	growthCount uint32

	info    I
	hasInfo bool
}

// IsRoot reports whether n has no parent.
func (n Node[I]) IsRoot() bool { return n.Parent == NoParent }

// Information returns the payload assigned to n by a connecting attractor.
func (n Node[I]) Information() (I, bool) { return n.info, n.hasInfo }

// GrowthCount is the number of attractors that influenced n during the
// current step.
func (n Node[I]) GrowthCount() uint32 { return n.growthCount }

// Growth is the not yet applied growth accumulator of n.
func (n Node[I]) Growth() geom.Vec { return n.growth }

// Segment is an edge between a non-root node and its parent.
type Segment struct {
	Child  geom.Vec
	Parent geom.Vec
}

// Arena owns all nodes of a simulation.
// It is not safe for concurrent use.
type Arena[I any] struct {
	nodes []Node[I]
}

// New creates an empty arena with room for capacity nodes.
func New[I any](capacity int) *Arena[I] {
	return &Arena[I]{nodes: make([]Node[I], 0, capacity)}
}

// Len returns the number of nodes ever created.
func (a *Arena[I]) Len() int { return len(a.nodes) }

// InsertRoot appends a root node at pos.
func (a *Arena[I]) InsertRoot(pos geom.Vec) NodeID {
	id := a.nextID()
	a.nodes = append(a.nodes, Node[I]{
		ID:       id,
		Position: pos,
		Parent:   NoParent,
		Root:     id,
	})
	return id
}

// InsertRootWithInformation appends a root node carrying info.
func (a *Arena[I]) InsertRootWithInformation(pos geom.Vec, info I) NodeID {
	id := a.InsertRoot(pos)
	a.Assign(id, info)
	return id
}

// InsertChild appends a node grown from parent and increments the parent's
// branch count. It panics if parent does not exist.
func (a *Arena[I]) InsertChild(pos geom.Vec, parent NodeID) NodeID {
	p := a.mustGet(parent)
	id := a.nextID()
	child := Node[I]{
		ID:       id,
		Position: pos,
		Parent:   parent,
		Root:     p.Root,
		Length:   p.Length + 1,
	}
	p.Branches++
	// p may be invalidated by the append below.
	a.nodes = append(a.nodes, child)
	return id
}

// Node returns a copy of the node with the given id.
// It panics if id does not exist.
func (a *Arena[I]) Node(id NodeID) Node[I] {
	return *a.mustGet(id)
}

// Assign sets the information of a node, overwriting any previous value.
func (a *Arena[I]) Assign(id NodeID, info I) {
	n := a.mustGet(id)
	n.info = info
	n.hasInfo = true
}

// AddGrowth accumulates v into the growth vector of id.
func (a *Arena[I]) AddGrowth(id NodeID, v geom.Vec) {
	n := a.mustGet(id)
	n.growth = geom.Add(n.growth, v)
	n.growthCount++
}

// TakeGrowth returns the accumulated growth of id and resets it.
func (a *Arena[I]) TakeGrowth(id NodeID) (geom.Vec, uint32) {
	n := a.mustGet(id)
	g, c := n.growth, n.growthCount
	n.growth = geom.Vec{}
	n.growthCount = 0
	return g, c
}

// Window returns the half-open ID range [start, end) covering the last n
// nodes. A non-positive n, or one larger than the arena, selects every node.
func (a *Arena[I]) Window(n int) (start, end NodeID) {
	l := len(a.nodes)
	if n <= 0 || n >= l {
		return 0, NodeID(l)
	}
	return NodeID(l - n), NodeID(l)
}

// Position is a cheap accessor used by the hot scan loop.
func (a *Arena[I]) Position(id NodeID) geom.Vec {
	return a.mustGet(id).Position
}

// All yields every node in creation order.
func (a *Arena[I]) All() iter.Seq[Node[I]] {
	return func(yield func(Node[I]) bool) {
		for i := range a.nodes {
			if !yield(a.nodes[i]) {
				return
			}
		}
	}
}

// Segments yields the edge from every non-root node to its parent.
func (a *Arena[I]) Segments() iter.Seq[Segment] {
	return func(yield func(Segment) bool) {
		for i := range a.nodes {
			n := &a.nodes[i]
			if n.IsRoot() {
				continue
			}
			if !yield(Segment{Child: n.Position, Parent: a.nodes[n.Parent].Position}) {
				return
			}
		}
	}
}

// Roots yields the root nodes only.
func (a *Arena[I]) Roots() iter.Seq[Node[I]] {
	return func(yield func(Node[I]) bool) {
		for i := range a.nodes {
			if a.nodes[i].IsRoot() && !yield(a.nodes[i]) {
				return
			}
		}
	}
}

// InformationNodes yields every node that has information assigned, paired
// with its root.
func (a *Arena[I]) InformationNodes() iter.Seq2[Node[I], Node[I]] {
	return func(yield func(Node[I], Node[I]) bool) {
		for i := range a.nodes {
			n := a.nodes[i]
			if !n.hasInfo {
				continue
			}
			if !yield(n, a.nodes[n.Root]) {
				return
			}
		}
	}
}

func (a *Arena[I]) nextID() NodeID {
	if len(a.nodes) >= int(NoParent) {
		panic("arena: node id space exhausted")
	}
	return NodeID(len(a.nodes))
}

func (a *Arena[I]) mustGet(id NodeID) *Node[I] {
	if int(id) >= len(a.nodes) {
		panic(fmt.Sprintf("arena: node %d out of range (len %d)", id, len(a.nodes)))
	}
	return &a.nodes[id]
}
