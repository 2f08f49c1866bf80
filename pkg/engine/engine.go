// Package engine runs a space-colonization simulation end to end.
//
// It seeds a colony from a config.Config, advances it step by step, records
// metrics, emits frames to the registered sinks and makes the state readable
// from other goroutines (HTTP server, MCP tools, terminal viewer) while a run
// loop is stepping it.
//
// Basic usage:
//
//	cfg := config.DefaultConfig()
//	cfg.MaxIter = 200
//	eng, err := engine.Open(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer eng.Close()
//	summary, err := eng.Run(ctx)
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sanonone/spacecol/pkg/config"
	"github.com/sanonone/spacecol/pkg/core/arena"
	"github.com/sanonone/spacecol/pkg/core/attractor"
	"github.com/sanonone/spacecol/pkg/core/colony"
	"github.com/sanonone/spacecol/pkg/metrics"
	"github.com/sanonone/spacecol/pkg/seed"
)

// FrameSink receives snapshots every config.SaveEvery iterations.
type FrameSink interface {
	WriteFrame(s *Snapshot) error
	Close() error
}

// StopReason tells why Run returned.
type StopReason string

const (
	StopMaxIter   StopReason = "max_iter"
	StopIdle      StopReason = "idle"
	StopExhausted StopReason = "exhausted"
	StopCancelled StopReason = "cancelled"
	StopFailed    StopReason = "failed"
)

// Summary describes a finished run.
type Summary struct {
	RunID      string     `json:"run_id"`
	Iterations uint64     `json:"iterations"`
	Nodes      int        `json:"nodes"`
	Attractors int        `json:"attractors"`
	Reason     StopReason `json:"reason"`
	Elapsed    string     `json:"elapsed"`
}

// Option customizes an Engine.
type Option func(*Engine)

// WithSinks registers frame sinks. The engine closes them on Close.
func WithSinks(sinks ...FrameSink) Option {
	return func(e *Engine) { e.sinks = append(e.sinks, sinks...) }
}

// WithPace makes Run wait at least d between steps.
func WithPace(d time.Duration) Option {
	return func(e *Engine) { e.pace = d }
}

// WithRunID overrides the generated run identifier.
func WithRunID(id uuid.UUID) Option {
	return func(e *Engine) { e.runID = id }
}

// Engine owns a colony for the duration of a run.
//
// All colony access goes through mu: steps take the write lock, snapshots and
// queries the read lock.
type Engine struct {
	mu     sync.RWMutex
	cfg    config.Config
	colony *colony.Colony[Tag]
	// sources maps root nodes of the graph scenario to their source index.
	sources map[arena.NodeID]int

	runID uuid.UUID
	log   *slog.Logger
	sinks []FrameSink
	pace  time.Duration
	idle  int

	closeOnce sync.Once
}

// Open validates cfg, creates the colony and seeds it according to the
// configured scenario.
func Open(cfg config.Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c, err := colony.New[Tag](cfg.Colony())
	if err != nil {
		return nil, fmt.Errorf("failed to create colony: %w", err)
	}

	e := &Engine{
		cfg:     cfg,
		colony:  c,
		sources: make(map[arena.NodeID]int),
		runID:   uuid.New(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.log = slog.Default().With("run_id", e.runID.String())

	if err := e.seed(); err != nil {
		return nil, fmt.Errorf("failed to seed colony: %w", err)
	}

	metrics.Nodes.Set(float64(c.NodeCount()))
	metrics.Attractors.Set(float64(c.AttractorCount()))
	e.log.Info("Simulation seeded",
		"scenario", cfg.Scenario,
		"dim", int(cfg.Dim()),
		"roots", c.NodeCount(),
		"attractors", c.AttractorCount(),
	)
	return e, nil
}

// seed places roots and attractors.
// (Unexported: internal use only)
func (e *Engine) seed() error {
	cfg := e.cfg
	s := seed.New(cfg.Dim(), cfg.Seed)

	for i := 0; i < cfg.NumRoots; i++ {
		if cfg.Scenario == config.Graph {
			id := e.colony.InsertRootWithInformation(s.Point(), Tag{Kind: Source, ID: i})
			e.sources[id] = i
			continue
		}
		e.colony.InsertRoot(s.Point())
	}

	if cfg.Scenario == config.Graph {
		for j := 0; j < cfg.TargetNodes; j++ {
			center := s.Point()
			for k := 0; k < cfg.AttractorsPerTargetNode; k++ {
				a := e.colony.DefaultAttractor(s.Around(center, cfg.TargetAttractorRadius))
				a.Information = Tag{Kind: Target, ID: j}
				a.Action = attractor.DisableFor(cfg.TargetDisableIterations)
				if err := e.colony.InsertAttractor(a); err != nil {
					return err
				}
			}
		}
	}

	for i := 0; i < cfg.NumAttractionPoints; i++ {
		e.colony.InsertDefaultAttractor(s.Point())
	}
	return nil
}

// RunID returns the unique identifier of this run.
func (e *Engine) RunID() uuid.UUID { return e.runID }

// Config returns the configuration the engine was opened with.
func (e *Engine) Config() config.Config { return e.cfg }

// Step advances the simulation by one iteration. Due frames are written
// before the step, so frame n shows the state that iteration n starts from.
func (e *Engine) Step() (colony.StepStats, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var frameErr error
	if n := e.cfg.SaveEvery; n > 0 && e.colony.Iteration()%uint64(n) == 0 {
		frameErr = e.writeFrameLocked()
	}

	start := time.Now()
	e.colony.Step()
	stats := e.colony.LastStep()
	e.record(stats, time.Since(start))

	if stats.Created == 0 {
		e.idle++
	} else {
		e.idle = 0
	}

	e.log.Debug("Step",
		"iteration", stats.Iteration,
		"created", stats.Created,
		"connected", stats.Connected,
		"influenced", stats.Influenced,
		"nodes", e.colony.NodeCount(),
		"attractors", e.colony.AttractorCount(),
	)
	if n := e.cfg.LogEvery; n > 0 && (stats.Iteration+1)%uint64(n) == 0 {
		e.log.Info("Progress",
			"iteration", stats.Iteration+1,
			"nodes", e.colony.NodeCount(),
			"attractors", e.colony.AttractorCount(),
		)
	}
	return stats, frameErr
}

// record publishes step statistics to Prometheus.
func (e *Engine) record(stats colony.StepStats, d time.Duration) {
	metrics.Iterations.Inc()
	metrics.StepDuration.Observe(d.Seconds())
	metrics.NodesCreated.Add(float64(stats.Created))
	metrics.AttractorEvents.WithLabelValues("connected").Add(float64(stats.Connected))
	metrics.AttractorEvents.WithLabelValues("killed").Add(float64(stats.Killed))
	metrics.AttractorEvents.WithLabelValues("disabled").Add(float64(stats.Disabled))
	metrics.AttractorEvents.WithLabelValues("influenced").Add(float64(stats.Influenced))
	metrics.Nodes.Set(float64(e.colony.NodeCount()))
	metrics.Attractors.Set(float64(e.colony.AttractorCount()))
}

func (e *Engine) writeFrameLocked() error {
	if len(e.sinks) == 0 {
		return nil
	}
	s := e.snapshotLocked()
	var errs []error
	for _, sink := range e.sinks {
		if err := sink.WriteFrame(s); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("failed to write frame %d: %w", s.Iteration, err)
	}
	return nil
}

// Run steps the simulation until one of the stop conditions holds:
// MaxIter steps were run, StopWhenIdle consecutive steps created nothing,
// the attractor pool is empty, or ctx is done. A cancelled context is
// reported through Summary.Reason, not as an error.
func (e *Engine) Run(ctx context.Context) (Summary, error) {
	started := time.Now()
	finish := func(reason StopReason) Summary {
		st := e.Status()
		e.log.Info("Run finished",
			"reason", reason,
			"iterations", st.Iteration,
			"nodes", st.Nodes,
			"attractors", st.Attractors,
			"elapsed", time.Since(started).String(),
		)
		return Summary{
			RunID:      st.RunID,
			Iterations: st.Iteration,
			Nodes:      st.Nodes,
			Attractors: st.Attractors,
			Reason:     reason,
			Elapsed:    time.Since(started).String(),
		}
	}

	var tick <-chan time.Time
	if e.pace > 0 {
		ticker := time.NewTicker(e.pace)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		if reason, done := e.shouldStop(); done {
			return finish(reason), nil
		}
		if tick != nil {
			select {
			case <-ctx.Done():
				return finish(StopCancelled), nil
			case <-tick:
			}
		} else if ctx.Err() != nil {
			return finish(StopCancelled), nil
		}

		if _, err := e.Step(); err != nil {
			return finish(StopFailed), err
		}
	}
}

func (e *Engine) shouldStop() (StopReason, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	switch {
	case e.cfg.MaxIter > 0 && e.colony.Iteration() >= uint64(e.cfg.MaxIter):
		return StopMaxIter, true
	case e.cfg.StopWhenIdle > 0 && e.idle >= e.cfg.StopWhenIdle:
		return StopIdle, true
	case e.colony.AttractorCount() == 0:
		return StopExhausted, true
	}
	return "", false
}

// Close closes every registered sink. It is safe to call more than once.
func (e *Engine) Close() error {
	var err error
	e.closeOnce.Do(func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		var errs []error
		for _, sink := range e.sinks {
			if cerr := sink.Close(); cerr != nil {
				errs = append(errs, cerr)
			}
		}
		err = errors.Join(errs...)
	})
	return err
}
