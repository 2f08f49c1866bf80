package engine

import (
	"github.com/sanonone/spacecol/pkg/core/colony"
	"github.com/sanonone/spacecol/pkg/core/geom"
	"github.com/sanonone/spacecol/pkg/export/dot"
)

// Segment is an edge from a node to its parent.
type Segment struct {
	Child  geom.Vec `json:"child"`
	Parent geom.Vec `json:"parent"`
}

// AttractorPoint is the visible part of a live attractor.
type AttractorPoint struct {
	Position geom.Vec `json:"position"`
	Tag      Tag      `json:"tag"`
}

// Snapshot is a read-only copy of the simulation state, detached from the
// engine so it can be rendered or written without holding any lock.
type Snapshot struct {
	RunID      string           `json:"run_id"`
	Iteration  uint64           `json:"iteration"`
	Nodes      int              `json:"nodes"`
	Segments   []Segment        `json:"segments"`
	Attractors []AttractorPoint `json:"attractors"`
	Roots      []geom.Vec       `json:"roots"`
}

// Status summarizes the engine without copying geometry.
type Status struct {
	RunID      string           `json:"run_id"`
	Iteration  uint64           `json:"iteration"`
	Nodes      int              `json:"nodes"`
	Attractors int              `json:"attractors"`
	LastStep   colony.StepStats `json:"last_step"`
	Idle       int              `json:"idle_steps"`
}

// Snapshot copies the current state.
func (e *Engine) Snapshot() *Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.snapshotLocked()
}

func (e *Engine) snapshotLocked() *Snapshot {
	c := e.colony
	s := &Snapshot{
		RunID:      e.runID.String(),
		Iteration:  c.Iteration(),
		Nodes:      c.NodeCount(),
		Segments:   make([]Segment, 0, c.NodeCount()),
		Attractors: make([]AttractorPoint, 0, c.AttractorCount()),
	}
	for child, parent := range c.Segments() {
		s.Segments = append(s.Segments, Segment{Child: child, Parent: parent})
	}
	for a := range c.Attractors() {
		s.Attractors = append(s.Attractors, AttractorPoint{Position: a.Position, Tag: a.Information})
	}
	for r := range c.Roots() {
		s.Roots = append(s.Roots, r.Position)
	}
	return s
}

// Status returns counters describing the run.
func (e *Engine) Status() Status {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return Status{
		RunID:      e.runID.String(),
		Iteration:  e.colony.Iteration(),
		Nodes:      e.colony.NodeCount(),
		Attractors: e.colony.AttractorCount(),
		LastStep:   e.colony.LastStep(),
		Idle:       e.idle,
	}
}

// Connections extracts the source/target graph: every node that received a
// Target tag yields an edge from the source owning its root, weighted by the
// node's distance (in segments) from that root. Duplicate edges keep the
// shortest length.
func (e *Engine) Connections() []dot.Edge {
	e.mu.RLock()
	defer e.mu.RUnlock()

	g := dot.NewGraph()
	for n, root := range e.colony.InformationNodes() {
		info, _ := n.Information()
		if info.Kind != Target {
			continue
		}
		src, ok := e.sources[root.ID]
		if !ok {
			continue
		}
		g.Add(dot.Edge{Source: src, Target: info.ID, Length: n.Length})
	}
	return g.Edges()
}
