package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/sanonone/spacecol/pkg/config"
	"github.com/sanonone/spacecol/pkg/core/arena"
	"github.com/sanonone/spacecol/pkg/core/attractor"
	"github.com/sanonone/spacecol/pkg/core/colony"
	"github.com/sanonone/spacecol/pkg/core/geom"
	"github.com/sanonone/spacecol/pkg/export/dot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

type recordingSink struct {
	frames []*Snapshot
	closed int
	err    error
}

func (s *recordingSink) WriteFrame(snap *Snapshot) error {
	s.frames = append(s.frames, snap)
	return s.err
}

func (s *recordingSink) Close() error {
	s.closed++
	return nil
}

func testConfig() config.Config {
	cfg := config.DefaultConfig()
	cfg.NumAttractionPoints = 200
	cfg.NumRoots = 2
	cfg.LogEvery = 0
	return cfg
}

func openEngine(t *testing.T, cfg config.Config, opts ...Option) *Engine {
	t.Helper()
	e, err := Open(cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })
	return e
}

// handEngine wraps a hand-built colony so tests control the geometry.
func handEngine(t *testing.T, cfg colony.Config) (*Engine, *colony.Colony[Tag]) {
	t.Helper()
	c, err := colony.New[Tag](cfg)
	require.NoError(t, err)
	return &Engine{
		cfg:     testConfig(),
		colony:  c,
		sources: make(map[arena.NodeID]int),
		runID:   uuid.New(),
		log:     discardLogger(),
	}, c
}

func TestOpenRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.KillDistance = cfg.InfluenceRadius * 2
	_, err := Open(cfg)
	assert.ErrorIs(t, err, config.ErrInvalid)
}

func TestOpenSeedsSimulation(t *testing.T) {
	e := openEngine(t, testConfig())

	st := e.Status()
	assert.Equal(t, 2, st.Nodes)
	assert.Equal(t, 200, st.Attractors)
	assert.Equal(t, uint64(0), st.Iteration)
	assert.Equal(t, e.RunID().String(), st.RunID)

	for _, r := range e.Snapshot().Roots {
		assert.Zero(t, r.Z, "2D runs keep Z at zero")
	}
}

func TestOpenIsDeterministic(t *testing.T) {
	a := openEngine(t, testConfig()).Snapshot()
	b := openEngine(t, testConfig()).Snapshot()
	assert.Equal(t, a.Roots, b.Roots)
	assert.Equal(t, a.Attractors, b.Attractors)
}

func TestOpenSeedsGraph(t *testing.T) {
	cfg := testConfig()
	cfg.Scenario = config.Graph
	cfg.NumRoots = 3
	cfg.TargetNodes = 4
	cfg.AttractorsPerTargetNode = 5
	e := openEngine(t, cfg)

	assert.Len(t, e.sources, 3)
	counts := map[TagKind]int{}
	for _, a := range e.Snapshot().Attractors {
		counts[a.Tag.Kind]++
		if a.Tag.Kind == Target {
			assert.Less(t, a.Tag.ID, 4)
		}
	}
	assert.Equal(t, 200, counts[Untagged])
	assert.Equal(t, 20, counts[Target])

	for a := range e.colony.Attractors() {
		if a.Information.Kind == Target {
			assert.Equal(t, attractor.DisableFor(cfg.TargetDisableIterations), a.Action)
		}
	}
}

func TestRunStopsAtMaxIter(t *testing.T) {
	cfg := testConfig()
	cfg.MaxIter = 7
	e := openEngine(t, cfg)

	sum, err := e.Run(context.Background())
	require.NoError(t, err)
	if sum.Reason == StopExhausted {
		assert.LessOrEqual(t, sum.Iterations, uint64(7))
		return
	}
	assert.Equal(t, StopMaxIter, sum.Reason)
	assert.Equal(t, uint64(7), sum.Iterations)
	assert.Equal(t, e.RunID().String(), sum.RunID)
}

func TestRunStopsWhenExhausted(t *testing.T) {
	cfg := testConfig()
	cfg.NumAttractionPoints = 0
	e := openEngine(t, cfg)

	sum, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StopExhausted, sum.Reason)
	assert.Equal(t, uint64(0), sum.Iterations)
}

func TestRunStopsWhenIdle(t *testing.T) {
	e, c := handEngine(t, colony.DefaultConfig())
	e.cfg.StopWhenIdle = 3
	c.InsertRoot(geom.Vec{})
	c.InsertDefaultAttractor(geom.Vec{X: 0.9, Y: 0.9})

	sum, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StopIdle, sum.Reason)
	assert.Equal(t, uint64(3), sum.Iterations)
}

func TestRunHonorsCancellation(t *testing.T) {
	e := openEngine(t, testConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sum, err := e.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, StopCancelled, sum.Reason)
	assert.Equal(t, uint64(0), sum.Iterations)
}

func TestStepWritesDueFrames(t *testing.T) {
	sink := &recordingSink{}
	cfg := testConfig()
	cfg.SaveEvery = 2
	e := openEngine(t, cfg, WithSinks(sink))

	for range 5 {
		_, err := e.Step()
		require.NoError(t, err)
	}

	require.Len(t, sink.frames, 3)
	for i, f := range sink.frames {
		assert.Equal(t, uint64(2*i), f.Iteration)
		assert.Equal(t, e.RunID().String(), f.RunID)
	}
	assert.Len(t, sink.frames[0].Segments, 0, "frame 0 shows the seeded state")
}

func TestStepReportsSinkErrors(t *testing.T) {
	boom := errors.New("disk full")
	sink := &recordingSink{err: boom}
	cfg := testConfig()
	cfg.SaveEvery = 1
	e := openEngine(t, cfg, WithSinks(sink))

	_, err := e.Step()
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, uint64(1), e.Status().Iteration, "the step still runs")
}

func TestRunStopsOnSinkError(t *testing.T) {
	boom := errors.New("disk full")
	cfg := testConfig()
	cfg.SaveEvery = 1
	cfg.MaxIter = 10
	e := openEngine(t, cfg, WithSinks(&recordingSink{err: boom}))

	summary, err := e.Run(context.Background())
	require.ErrorIs(t, err, boom)
	assert.Equal(t, StopFailed, summary.Reason)
	assert.Equal(t, uint64(1), summary.Iterations)
}

func TestCloseClosesSinksOnce(t *testing.T) {
	sink := &recordingSink{}
	e, err := Open(testConfig(), WithSinks(sink))
	require.NoError(t, err)

	require.NoError(t, e.Close())
	require.NoError(t, e.Close())
	assert.Equal(t, 1, sink.closed)
}

func TestSnapshotSegmentsMatchNodes(t *testing.T) {
	cfg := testConfig()
	cfg.MaxIter = 20
	e := openEngine(t, cfg)
	_, err := e.Run(context.Background())
	require.NoError(t, err)

	s := e.Snapshot()
	assert.Len(t, s.Segments, s.Nodes-len(s.Roots))
	for _, seg := range s.Segments {
		assert.InDelta(t, cfg.MoveDistance, geom.Norm(r3.Sub(seg.Child, seg.Parent)), 1e-9)
	}
}

func TestConnectionsFollowRootSource(t *testing.T) {
	cfg := colony.DefaultConfig()
	cfg.AttractDist = geom.FromDist(0.5)
	cfg.ConnectDist = geom.FromDist(0.1)
	cfg.MoveDistance = 0.1
	e, c := handEngine(t, cfg)

	root := c.InsertRootWithInformation(geom.Vec{}, Tag{Kind: Source, ID: 0})
	e.sources[root] = 0
	a := c.DefaultAttractor(geom.Vec{X: 0.35})
	a.Information = Tag{Kind: Target, ID: 2}
	a.Action = attractor.DisableFor(1000)
	require.NoError(t, c.InsertAttractor(a))

	for range 4 {
		_, err := e.Step()
		require.NoError(t, err)
	}

	assert.Equal(t, []dot.Edge{{Source: 0, Target: 2, Length: 3}}, e.Connections())
	assert.Equal(t, 1, e.Status().LastStep.Disabled)
}

func TestConnectionsIgnoreRootsWithoutSource(t *testing.T) {
	e, c := handEngine(t, colony.DefaultConfig())
	c.InsertRoot(geom.Vec{})
	a := c.DefaultAttractor(geom.Vec{X: 0.01})
	a.Information = Tag{Kind: Target, ID: 0}
	require.NoError(t, c.InsertAttractor(a))

	_, err := e.Step()
	require.NoError(t, err)
	assert.Empty(t, e.Connections())
}
