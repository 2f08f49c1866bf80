// Package colony implements the space-colonization growth engine.
//
// A Colony owns a node arena and an attractor pool. Each call to Step runs one
// discrete iteration:
//
//  1. every active attractor looks for the first node within its connect
//     distance, or else for the nearest eligible node within its attract
//     distance;
//  2. a reached attractor hands its information to the node and is killed or
//     disabled, an attractor that only influences a node adds its unit
//     direction (times its strength) to that node's growth vector;
//  3. every node that received growth spawns a child one MoveDistance along
//     the normalized growth vector.
//
// Basic usage:
//
//	c, err := colony.New[struct{}](colony.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	c.InsertRoot(geom.Vec{})
//	c.InsertDefaultAttractor(geom.Vec{X: 0.5})
//	for created := range c.Steps() {
//	    if created == 0 {
//	        break
//	    }
//	}
//
// A Colony is single threaded and not safe for concurrent use.
package colony

import (
	"fmt"
	"iter"

	"github.com/sanonone/spacecol/pkg/core/arena"
	"github.com/sanonone/spacecol/pkg/core/attractor"
	"github.com/sanonone/spacecol/pkg/core/geom"
)

const noNode = arena.NoParent

// StepStats describes what happened during one Step.
type StepStats struct {
	// Iteration is the iteration the step ran as.
	Iteration uint64 `json:"iteration"`
	// Created is the number of nodes added to the arena.
	Created int `json:"created"`
	// Connected counts attractors that reached a node.
	Connected int `json:"connected"`
	Killed    int `json:"killed"`
	Disabled  int `json:"disabled"`
	// Influenced counts attractors that contributed growth to a node.
	Influenced int `json:"influenced"`
	// Inactive counts attractors skipped because of their activation window.
	Inactive int `json:"inactive"`
	// Cancelled counts nodes whose contributions summed to the zero vector
	// and therefore could not grow.
	Cancelled int `json:"cancelled"`
}

// Colony is the growth engine over an application payload type I.
type Colony[I any] struct {
	cfg        Config
	nodes      *arena.Arena[I]
	attractors *attractor.Pool[I]
	iteration  uint64
	last       StepStats
}

// New creates an empty colony.
func New[I any](cfg Config) (*Colony[I], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Colony[I]{
		cfg:        cfg,
		nodes:      arena.New[I](1024),
		attractors: attractor.NewPool[I](1024),
	}, nil
}

// Config returns the configuration the colony was created with.
func (c *Colony[I]) Config() Config { return c.cfg }

// Iteration returns the index of the next step.
func (c *Colony[I]) Iteration() uint64 { return c.iteration }

// LastStep returns the statistics of the most recent Step.
func (c *Colony[I]) LastStep() StepStats { return c.last }

// NodeCount returns the number of nodes ever created.
func (c *Colony[I]) NodeCount() int { return c.nodes.Len() }

// AttractorCount returns the number of attractors still in the pool.
func (c *Colony[I]) AttractorCount() int { return c.attractors.Len() }

// Node returns a copy of the node with the given id.
func (c *Colony[I]) Node(id arena.NodeID) arena.Node[I] { return c.nodes.Node(id) }

// Attractor returns a copy of the attractor at pool index i.
func (c *Colony[I]) Attractor(i int) attractor.Attractor[I] { return c.attractors.At(i) }

// InsertRoot adds a growth origin.
func (c *Colony[I]) InsertRoot(pos geom.Vec) arena.NodeID {
	return c.nodes.InsertRoot(pos)
}

// InsertRootWithInformation adds a growth origin tagged with info.
func (c *Colony[I]) InsertRootWithInformation(pos geom.Vec, info I) arena.NodeID {
	return c.nodes.InsertRootWithInformation(pos, info)
}

// DefaultAttractor returns an attractor at pos using the configured defaults
// and the zero information value.
func (c *Colony[I]) DefaultAttractor(pos geom.Vec) attractor.Attractor[I] {
	return attractor.Attractor[I]{
		Position:    pos,
		AttractDist: c.cfg.AttractDist,
		ConnectDist: c.cfg.ConnectDist,
		Strength:    c.cfg.Strength,
		Action:      c.cfg.Action,
	}
}

// InsertDefaultAttractor adds an attractor using the configured defaults.
// The defaults were validated by New, so this cannot fail.
func (c *Colony[I]) InsertDefaultAttractor(pos geom.Vec) {
	if err := c.attractors.Insert(c.DefaultAttractor(pos)); err != nil {
		panic(fmt.Sprintf("colony: default attractor rejected: %v", err))
	}
}

// InsertAttractor adds an attractor with explicit parameters.
func (c *Colony[I]) InsertAttractor(a attractor.Attractor[I]) error {
	if err := c.attractors.Insert(a); err != nil {
		return fmt.Errorf("insert attractor: %w", err)
	}
	return nil
}

// Step runs one iteration and returns the number of nodes created.
func (c *Colony[I]) Step() int {
	before := c.nodes.Len()
	start, end := c.nodes.Window(c.cfg.UseLastNodes)
	stats := StepStats{Iteration: c.iteration}

	// The cursor is advanced by hand: a kill swaps the last attractor into
	// slot i, which must then be examined without advancing.
	i := 0
	for i < c.attractors.Len() {
		a := c.attractors.At(i)
		if !a.ActiveAt(c.iteration) {
			stats.Inactive++
			i++
			continue
		}

		connect, nearest := c.scan(&a, start, end)
		switch {
		case connect != noNode:
			stats.Connected++
			c.nodes.Assign(connect, a.Information)
			switch a.Action.Kind {
			case attractor.Kill:
				stats.Killed++
				c.attractors.RemoveUnordered(i)
				continue
			case attractor.Disable:
				stats.Disabled++
				c.attractors.DisableUntil(i, c.iteration+a.Action.Iterations)
			}
		case nearest != noNode:
			// nearest is at least ConnectDist away, so the direction exists.
			dir, ok := geom.Direction(c.nodes.Position(nearest), a.Position)
			if ok {
				stats.Influenced++
				c.nodes.AddGrowth(nearest, geom.Scale(a.Strength, dir))
			}
		}
		i++
	}

	for id := start; id < end; id++ {
		growth, count := c.nodes.TakeGrowth(id)
		if count == 0 {
			continue
		}
		dir, ok := geom.Unit(growth)
		if !ok {
			stats.Cancelled++
			continue
		}
		pos := geom.Add(c.nodes.Position(id), geom.Scale(c.cfg.MoveDistance, dir))
		c.nodes.InsertChild(pos, id)
	}

	stats.Created = c.nodes.Len() - before
	c.last = stats
	c.iteration++
	return stats.Created
}

// Steps returns an unbounded sequence of Step results. The caller decides
// when to stop.
func (c *Colony[I]) Steps() iter.Seq[int] {
	return func(yield func(int) bool) {
		for {
			if !yield(c.Step()) {
				return
			}
		}
	}
}

// scan returns the first node within the connect distance of a, or failing
// that the nearest eligible node within its attract distance. Unused results
// are noNode.
func (c *Colony[I]) scan(a *attractor.Attractor[I], start, end arena.NodeID) (connect, nearest arena.NodeID) {
	nearest = noNode
	best := float64(a.AttractDist)
	for id := start; id < end; id++ {
		d := geom.SquaredEuclidean(c.nodes.Position(id), a.Position)
		if d < float64(a.ConnectDist) {
			return id, noNode
		}
		if d < best && c.eligible(id) {
			best = d
			nearest = id
		}
	}
	return noNode, nearest
}

// eligible reports whether a node may still grow.
func (c *Colony[I]) eligible(id arena.NodeID) bool {
	if !c.cfg.EnforceLimits {
		return true
	}
	n := c.nodes.Node(id)
	return n.Length < c.cfg.MaxLength && n.Branches < c.cfg.MaxBranches
}

// Segments yields every edge as (child position, parent position).
func (c *Colony[I]) Segments() iter.Seq2[geom.Vec, geom.Vec] {
	return func(yield func(geom.Vec, geom.Vec) bool) {
		for s := range c.nodes.Segments() {
			if !yield(s.Child, s.Parent) {
				return
			}
		}
	}
}

// Nodes yields every node in creation order.
func (c *Colony[I]) Nodes() iter.Seq[arena.Node[I]] { return c.nodes.All() }

// AttractorPositions yields the position of every live attractor.
func (c *Colony[I]) AttractorPositions() iter.Seq[geom.Vec] { return c.attractors.Positions() }

// Attractors yields every live attractor.
func (c *Colony[I]) Attractors() iter.Seq[attractor.Attractor[I]] { return c.attractors.All() }

// Roots yields the root nodes.
func (c *Colony[I]) Roots() iter.Seq[arena.Node[I]] { return c.nodes.Roots() }

// InformationNodes yields every node that received information, paired with
// its root.
func (c *Colony[I]) InformationNodes() iter.Seq2[arena.Node[I], arena.Node[I]] {
	return c.nodes.InformationNodes()
}
