// Command spacecol grows space-colonization structures.
//
// Modes:
//
//	run     step headless until a stop condition holds (default)
//	view    animate the growth in the terminal
//	serve   expose the simulation over HTTP
//	mcp     expose the simulation as MCP tools over stdio
//	replay  play back a trace recorded with -trace
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gdamore/tcell/v2"
	"github.com/google/uuid"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sanonone/spacecol/internal/hostinfo"
	"github.com/sanonone/spacecol/internal/mcp"
	"github.com/sanonone/spacecol/internal/server"
	"github.com/sanonone/spacecol/internal/view"
	"github.com/sanonone/spacecol/pkg/config"
	"github.com/sanonone/spacecol/pkg/engine"
	"github.com/sanonone/spacecol/pkg/export/dot"
	"github.com/sanonone/spacecol/pkg/export/eps"
	"github.com/sanonone/spacecol/pkg/trace"
)

type options struct {
	mode       string
	preset     string
	configPath string
}

func newFlagSet() (*flag.FlagSet, *options) {
	fs := flag.NewFlagSet("spacecol", flag.ContinueOnError)
	opts := &options{}
	fs.StringVar(&opts.mode, "mode", "run", "run, view, serve, mcp or replay")
	fs.StringVar(&opts.preset, "preset", "default", "Base configuration: default, dense3d or fine2d")
	fs.StringVar(&opts.configPath, "config", "", "YAML configuration file applied on top of the preset")
	registerOverrides(fs)
	return fs, opts
}

// parse builds the configuration: preset, then file, then flags.
func parse(args []string) (options, config.Config, error) {
	fs, opts := newFlagSet()
	if err := fs.Parse(args); err != nil {
		return options{}, config.Config{}, err
	}

	cfg, err := config.Preset(opts.preset)
	if err != nil {
		return *opts, cfg, err
	}
	if cfg, err = config.LoadConfig(opts.configPath, cfg); err != nil {
		return *opts, cfg, err
	}
	if err := applyOverrides(fs, &cfg); err != nil {
		return *opts, cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return *opts, cfg, err
	}
	return *opts, cfg, nil
}

func main() {
	opts, cfg, err := parse(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Stdout belongs to the MCP transport, so logs always go to stderr.
	level, _ := config.ParseLevel(cfg.LogLevel)
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	slog.Info("Starting spacecol", "mode", opts.mode, "preset", opts.preset, "host", hostinfo.Collect())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err = run(ctx, opts.mode, cfg)
	stop()
	if err != nil {
		log.Fatalf("spacecol: %v", err)
	}
}

func run(ctx context.Context, mode string, cfg config.Config) error {
	if mode == "replay" {
		return replay(ctx, cfg)
	}

	eng, err := openEngine(cfg, mode == "serve")
	if err != nil {
		return err
	}
	defer func() {
		if err := eng.Close(); err != nil {
			slog.Error("Failed to close outputs", "error", err)
		}
	}()

	switch mode {
	case "run":
		if _, err := eng.Run(ctx); err != nil {
			return err
		}
	case "view":
		if err := watch(ctx, view.Live{Engine: eng}, cfg); err != nil {
			return err
		}
	case "serve":
		srv := server.NewServer(eng, cfg.Server.HTTPAddr, cfg.Server.AuthToken)
		errCh := make(chan error, 1)
		go func() { errCh <- srv.Run() }()
		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}
		srv.Shutdown()
	case "mcp":
		slog.Info("MCP server ready on stdio", "run_id", eng.RunID().String())
		if err := mcp.NewMCPServer(eng).Run(ctx, &sdkmcp.StdioTransport{}); err != nil && ctx.Err() == nil {
			return fmt.Errorf("MCP server: %w", err)
		}
	default:
		return fmt.Errorf("unknown mode %q", mode)
	}

	return writeDOT(cfg.Output.DOTPath, eng)
}

// openEngine wires the configured frame outputs into a new engine. A paced
// engine waits step_interval between the steps of Run.
func openEngine(cfg config.Config, paced bool) (*engine.Engine, error) {
	runID := uuid.New()
	opts := []engine.Option{engine.WithRunID(runID)}

	var sinks []engine.FrameSink
	if dir := cfg.Output.EPSDir; dir != "" {
		sink, err := eps.NewSink(dir)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, sink)
	}
	if path := cfg.Output.TracePath; path != "" {
		w, err := trace.Create(path, runID)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, w)
	}
	if len(sinks) > 0 && cfg.SaveEvery == 0 {
		slog.Warn("Frame outputs configured but save_every is 0, no frames will be written")
	}
	opts = append(opts, engine.WithSinks(sinks...))

	if interval, _ := cfg.Server.Interval(); paced && interval > 0 {
		opts = append(opts, engine.WithPace(interval))
	}

	eng, err := engine.Open(cfg, opts...)
	if err != nil {
		for _, s := range sinks {
			s.Close()
		}
		return nil, err
	}
	return eng, nil
}

func replay(ctx context.Context, cfg config.Config) error {
	if cfg.Output.TracePath == "" {
		return errors.New("replay needs -trace")
	}
	r, f, err := trace.Open(cfg.Output.TracePath)
	if err != nil {
		return err
	}
	defer f.Close()

	src, err := view.NewReplay(r)
	if err != nil {
		return err
	}
	slog.Info("Replaying trace", "path", cfg.Output.TracePath, "run_id", r.RunID().String())
	return watch(ctx, src, cfg)
}

func watch(ctx context.Context, src view.Source, cfg config.Config) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("failed to open terminal: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("failed to open terminal: %w", err)
	}
	defer screen.Fini()

	interval, _ := cfg.Server.Interval()
	return view.New(screen, src, interval).Run(ctx)
}

func writeDOT(path string, eng *engine.Engine) error {
	if path == "" {
		return nil
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create DOT file: %w", err)
	}
	edges := eng.Connections()
	if err := dot.Write(f, edges); err != nil {
		f.Close()
		return fmt.Errorf("failed to write DOT file: %w", err)
	}
	slog.Info("Connection graph written", "path", path, "edges", len(edges))
	return f.Close()
}
