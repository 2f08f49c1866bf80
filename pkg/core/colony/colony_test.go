package colony

import (
	"math/rand/v2"
	"testing"

	"github.com/sanonone/spacecol/pkg/core/arena"
	"github.com/sanonone/spacecol/pkg/core/attractor"
	"github.com/sanonone/spacecol/pkg/core/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// smallConfig matches the termination scenario: move 0.1, connect 0.01.
func smallConfig() Config {
	cfg := DefaultConfig()
	cfg.AttractDist = geom.FromDist(0.2)
	cfg.ConnectDist = geom.FromDist(0.01)
	cfg.MoveDistance = 0.1
	return cfg
}

func newColony(t *testing.T, cfg Config) *Colony[int] {
	t.Helper()
	c, err := New[int](cfg)
	require.NoError(t, err)
	return c
}

func tagged(c *Colony[int], pos geom.Vec, info int) attractor.Attractor[int] {
	a := c.DefaultAttractor(pos)
	a.Information = info
	return a
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"connect greater than attract", func(c *Config) { c.ConnectDist = c.AttractDist * 2 }},
		{"zero connect", func(c *Config) { c.ConnectDist = 0 }},
		{"zero move", func(c *Config) { c.MoveDistance = 0 }},
		{"zero strength", func(c *Config) { c.Strength = 0 }},
		{"zero max length", func(c *Config) { c.MaxLength = 0 }},
		{"negative window", func(c *Config) { c.UseLastNodes = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			_, err := New[int](cfg)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}

	cfg := DefaultConfig()
	cfg.EnforceLimits = false
	cfg.MaxLength = 0
	_, err := New[int](cfg)
	assert.NoError(t, err)
}

func TestInsertAttractorRejectsDistanceOrder(t *testing.T) {
	c := newColony(t, smallConfig())
	a := c.DefaultAttractor(geom.Vec{})
	a.ConnectDist = geom.FromDist(1)
	err := c.InsertAttractor(a)
	assert.ErrorIs(t, err, attractor.ErrDistanceOrder)
	assert.Equal(t, 0, c.AttractorCount())
}

func TestStepEmptyPool(t *testing.T) {
	c := newColony(t, smallConfig())
	c.InsertRoot(geom.Vec{})

	assert.Equal(t, 0, c.Step())
	assert.Equal(t, 1, c.NodeCount())
	assert.Equal(t, uint64(1), c.Iteration())
}

func TestStepMovesTowardAttractor(t *testing.T) {
	c := newColony(t, smallConfig())
	root := c.InsertRoot(geom.Vec{})
	c.InsertDefaultAttractor(geom.Vec{X: 0.05})

	require.Equal(t, 1, c.Step())
	require.Equal(t, 2, c.NodeCount())

	child := c.Node(1)
	assert.Equal(t, root, child.Parent)
	assert.InDelta(t, 0.1, child.Position.X, 1e-12)
	assert.InDelta(t, 0.0, child.Position.Y, 1e-12)
	assert.InDelta(t, 0.0, child.Position.Z, 1e-12)
	assert.Equal(t, uint32(1), c.Node(root).Branches)
	assert.Equal(t, 1, c.AttractorCount())

	stats := c.LastStep()
	assert.Equal(t, 1, stats.Influenced)
	assert.Equal(t, 0, stats.Connected)
	assert.Equal(t, 1, stats.Created)
}

func TestStepConnectsWithinConnectDistance(t *testing.T) {
	c := newColony(t, smallConfig())
	root := c.InsertRoot(geom.Vec{})
	require.NoError(t, c.InsertAttractor(tagged(c, geom.Vec{X: 0.005}, 7)))

	assert.Equal(t, 0, c.Step())
	assert.Equal(t, 0, c.AttractorCount())
	info, ok := c.Node(root).Information()
	require.True(t, ok)
	assert.Equal(t, 7, info)
}

func TestDuplicateAttractorsDoNotDoubleCount(t *testing.T) {
	c := newColony(t, smallConfig())
	root := c.InsertRoot(geom.Vec{})
	require.NoError(t, c.InsertAttractor(tagged(c, geom.Vec{X: 0.005}, 1)))
	require.NoError(t, c.InsertAttractor(tagged(c, geom.Vec{X: 0.005}, 2)))

	assert.Equal(t, 0, c.Step())
	stats := c.LastStep()
	assert.Equal(t, 2, stats.Connected)
	assert.Equal(t, 2, stats.Killed)
	assert.Equal(t, 0, stats.Influenced)
	assert.Equal(t, 0, c.AttractorCount())
	assert.Equal(t, uint32(0), c.Node(root).GrowthCount())

	// the swapped-in attractor was examined in the same slot and overwrote
	// the information of the first one
	info, _ := c.Node(root).Information()
	assert.Equal(t, 2, info)
}

func TestKillRemovesExactlyOne(t *testing.T) {
	c := newColony(t, smallConfig())
	c.InsertRoot(geom.Vec{})
	require.NoError(t, c.InsertAttractor(tagged(c, geom.Vec{X: 5}, 0)))
	require.NoError(t, c.InsertAttractor(tagged(c, geom.Vec{X: 0.001}, 1)))
	require.NoError(t, c.InsertAttractor(tagged(c, geom.Vec{X: -5}, 2)))

	c.Step()
	require.Equal(t, 2, c.AttractorCount())
	assert.Equal(t, 0, c.Attractor(0).Information)
	assert.Equal(t, 2, c.Attractor(1).Information)
}

func TestDisableReactivatesOnSchedule(t *testing.T) {
	cfg := smallConfig()
	cfg.Action = attractor.DisableFor(3)
	c := newColony(t, cfg)
	c.InsertRoot(geom.Vec{})
	c.InsertDefaultAttractor(geom.Vec{X: 0.001})

	c.Step() // iteration 0
	require.Equal(t, 1, c.LastStep().Connected)
	assert.Equal(t, uint64(3), c.Attractor(0).ActiveFrom)

	for _, it := range []uint64{1, 2} {
		assert.Equal(t, 0, c.Step())
		stats := c.LastStep()
		assert.Equal(t, it, stats.Iteration)
		assert.Equal(t, 1, stats.Inactive)
		assert.Equal(t, 0, stats.Connected)
		assert.Equal(t, 0, stats.Influenced)
	}

	c.Step() // iteration 3
	stats := c.LastStep()
	assert.Equal(t, uint64(3), stats.Iteration)
	assert.Equal(t, 0, stats.Inactive)
	assert.Equal(t, 1, stats.Connected)
	assert.Equal(t, 1, c.AttractorCount())
	assert.Equal(t, uint64(6), c.Attractor(0).ActiveFrom)
}

func TestActivationWindow(t *testing.T) {
	c := newColony(t, smallConfig())
	c.InsertRoot(geom.Vec{})
	a := c.DefaultAttractor(geom.Vec{X: 0.15})
	a.ActiveFrom = 2
	require.NoError(t, c.InsertAttractor(a))

	assert.Equal(t, 0, c.Step())
	assert.Equal(t, 0, c.Step())
	assert.Equal(t, 1, c.Step())
}

func TestConnectTieBreakIsScanOrder(t *testing.T) {
	c := newColony(t, smallConfig())
	first := c.InsertRoot(geom.Vec{X: 0.002})
	closer := c.InsertRoot(geom.Vec{X: 0.0005})
	require.NoError(t, c.InsertAttractor(tagged(c, geom.Vec{}, 9)))

	c.Step()
	_, ok := c.Node(first).Information()
	assert.True(t, ok)
	_, ok = c.Node(closer).Information()
	assert.False(t, ok)
}

func TestNearestNodeReceivesGrowth(t *testing.T) {
	cfg := smallConfig()
	cfg.AttractDist = geom.FromDist(0.25)
	c := newColony(t, cfg)
	near := c.InsertRoot(geom.Vec{X: 0.1})
	c.InsertRoot(geom.Vec{X: 0.05})
	c.InsertDefaultAttractor(geom.Vec{X: 0.2})

	require.Equal(t, 1, c.Step())
	assert.Equal(t, near, c.Node(2).Parent)
	assert.InDelta(t, 0.2, c.Node(2).Position.X, 1e-12)
}

func TestStrengthWeightsDirection(t *testing.T) {
	cfg := smallConfig()
	c := newColony(t, cfg)
	c.InsertRoot(geom.Vec{})
	strong := c.DefaultAttractor(geom.Vec{X: 0.15})
	strong.Strength = 3
	require.NoError(t, c.InsertAttractor(strong))
	c.InsertDefaultAttractor(geom.Vec{Y: 0.15})

	require.Equal(t, 1, c.Step())
	child := c.Node(1)
	// direction is (3, 1) normalized
	assert.InDelta(t, 0.1*3/3.1622776601683795, child.Position.X, 1e-9)
	assert.InDelta(t, 0.1*1/3.1622776601683795, child.Position.Y, 1e-9)
}

func TestCancelledGrowthDoesNotSpawn(t *testing.T) {
	cfg := smallConfig()
	c := newColony(t, cfg)
	c.InsertRoot(geom.Vec{})
	c.InsertDefaultAttractor(geom.Vec{X: 0.15})
	c.InsertDefaultAttractor(geom.Vec{X: -0.15})

	assert.Equal(t, 0, c.Step())
	assert.Equal(t, 1, c.LastStep().Cancelled)
	assert.Equal(t, uint32(0), c.Node(0).GrowthCount())
}

func TestLimitsGateGrowth(t *testing.T) {
	build := func(enforce bool) *Colony[int] {
		cfg := smallConfig()
		cfg.MoveDistance = 0.05
		cfg.AttractDist = geom.FromDist(0.25)
		cfg.EnforceLimits = enforce
		cfg.MaxLength = 1
		cfg.MaxBranches = 1
		c := newColony(t, cfg)
		c.InsertRoot(geom.Vec{})
		c.InsertDefaultAttractor(geom.Vec{X: 0.2})
		return c
	}

	gated := build(true)
	assert.Equal(t, 1, gated.Step())
	assert.Equal(t, 0, gated.Step())
	assert.Equal(t, 0, gated.LastStep().Influenced)
	assert.Equal(t, 2, gated.NodeCount())

	free := build(false)
	assert.Equal(t, 1, free.Step())
	assert.Equal(t, 1, free.Step())
	assert.Equal(t, uint32(2), free.Node(2).Length)
}

func TestGatedNodeCanStillConnect(t *testing.T) {
	cfg := smallConfig()
	cfg.MaxLength = 1
	cfg.MaxBranches = 1
	c := newColony(t, cfg)
	root := c.InsertRoot(geom.Vec{})
	c.InsertDefaultAttractor(geom.Vec{X: 0.15})
	require.Equal(t, 1, c.Step())

	require.NoError(t, c.InsertAttractor(tagged(c, geom.Vec{X: 0.001}, 4)))
	c.Step()
	info, ok := c.Node(root).Information()
	require.True(t, ok)
	assert.Equal(t, 4, info)
}

func TestWindowRestrictsSearch(t *testing.T) {
	build := func(window int) *Colony[int] {
		cfg := smallConfig()
		cfg.UseLastNodes = window
		c := newColony(t, cfg)
		c.InsertRoot(geom.Vec{})
		c.InsertRoot(geom.Vec{X: 5})
		c.InsertDefaultAttractor(geom.Vec{X: 0.1})
		return c
	}
	assert.Equal(t, 0, build(1).Step())
	assert.Equal(t, 1, build(0).Step())
	assert.Equal(t, 1, build(2).Step())
}

func TestStepsSequence(t *testing.T) {
	c := newColony(t, smallConfig())
	c.InsertRoot(geom.Vec{})
	c.InsertDefaultAttractor(geom.Vec{X: 0.15})

	var results []int
	for n := range c.Steps() {
		results = append(results, n)
		if len(results) == 3 {
			break
		}
	}
	assert.Len(t, results, 3)
	assert.Equal(t, uint64(3), c.Iteration())
}

func TestGrowthInvariantsRandomCloud(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AttractDist = geom.FromDist(0.3)
	cfg.ConnectDist = geom.FromDist(0.05)
	cfg.MoveDistance = 0.02
	c := newColony(t, cfg)

	rng := rand.New(rand.NewPCG(1, 2))
	coord := func() float64 { return 2*rng.Float64() - 1 }
	for i := 0; i < 3; i++ {
		c.InsertRoot(geom.Vec{X: coord(), Y: coord()})
	}
	for i := 0; i < 400; i++ {
		c.InsertDefaultAttractor(geom.Vec{X: coord(), Y: coord()})
	}

	prevNodes, prevAttractors := c.NodeCount(), c.AttractorCount()
	for i := 0; i < 60; i++ {
		created := c.Step()
		assert.GreaterOrEqual(t, created, 0)
		assert.Equal(t, prevNodes+created, c.NodeCount())
		assert.Equal(t, created, c.LastStep().Created)
		assert.LessOrEqual(t, c.AttractorCount(), prevAttractors)
		prevNodes, prevAttractors = c.NodeCount(), c.AttractorCount()
	}
	require.Greater(t, c.NodeCount(), 3)

	for n := range c.Nodes() {
		if n.IsRoot() {
			assert.Equal(t, n.ID, n.Root)
			assert.Equal(t, uint32(0), n.Length)
			continue
		}
		p := c.Node(n.Parent)
		assert.Equal(t, p.Length+1, n.Length)
		assert.Equal(t, p.Root, n.Root)
		assert.Less(t, n.Parent, n.ID)
		assert.LessOrEqual(t, n.Branches, cfg.MaxBranches)
		assert.InDelta(t, cfg.MoveDistance, geom.Norm(geom.Add(n.Position, geom.Scale(-1, p.Position))), 1e-9)
	}

	segments := 0
	for range c.Segments() {
		segments++
	}
	roots := 0
	for range c.Roots() {
		roots++
	}
	assert.Equal(t, 3, roots)
	assert.Equal(t, c.NodeCount()-roots, segments)
}

func TestInformationNodesPairWithRoot(t *testing.T) {
	c := newColony(t, smallConfig())
	src := c.InsertRootWithInformation(geom.Vec{}, 100)
	c.InsertDefaultAttractor(geom.Vec{X: 0.15})
	require.Equal(t, 1, c.Step())
	require.NoError(t, c.InsertAttractor(tagged(c, geom.Vec{X: 0.101}, 200)))
	c.Step()

	got := map[arena.NodeID]arena.NodeID{}
	for n, root := range c.InformationNodes() {
		got[n.ID] = root.ID
		assert.Equal(t, src, root.ID)
	}
	assert.Equal(t, map[arena.NodeID]arena.NodeID{src: src, 1: src}, got)
}

func BenchmarkStep(b *testing.B) {
	cfg := DefaultConfig()
	cfg.MoveDistance = 0.01
	rng := rand.New(rand.NewPCG(42, 42))
	coord := func() float64 { return 2*rng.Float64() - 1 }

	for b.Loop() {
		b.StopTimer()
		c, _ := New[struct{}](cfg)
		for i := 0; i < 5; i++ {
			c.InsertRoot(geom.Vec{X: coord(), Y: coord(), Z: coord()})
		}
		for i := 0; i < 2000; i++ {
			c.InsertDefaultAttractor(geom.Vec{X: coord(), Y: coord(), Z: coord()})
		}
		b.StartTimer()
		for i := 0; i < 20; i++ {
			c.Step()
		}
	}
}
