// Package config defines the run configuration of a space-colonization
// simulation and its YAML loader.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/sanonone/spacecol/pkg/core/attractor"
	"github.com/sanonone/spacecol/pkg/core/colony"
	"github.com/sanonone/spacecol/pkg/core/geom"
	"gopkg.in/yaml.v3"
)

// Scenario selects how a run is seeded.
type Scenario string

const (
	// Simulate seeds random roots and a uniform cloud of attractors.
	Simulate Scenario = "simulate"
	// Graph additionally tags roots as sources and places clusters of
	// disabling attractors around random targets, so that the result can be
	// read as a source/target connection graph.
	Graph Scenario = "graph"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

// Config is the full run configuration.
// It is designed to be embedded in YAML configuration files.
type Config struct {
	Scenario Scenario `yaml:"scenario" json:"scenario"`
	// Seed for the random placement of roots and attractors.
	Seed uint64 `yaml:"seed" json:"seed"`
	// Use3D places points in the [-1,1]³ cube instead of the square.
	Use3D bool `yaml:"use_3d" json:"use_3d"`

	NumAttractionPoints int `yaml:"num_attraction_points" json:"num_attraction_points"`
	NumRoots            int `yaml:"num_roots" json:"num_roots"`

	// InfluenceRadius and KillDistance are linear distances.
	InfluenceRadius float64 `yaml:"influence_radius" json:"influence_radius"`
	KillDistance    float64 `yaml:"kill_distance" json:"kill_distance"`
	MoveDistance    float64 `yaml:"move_distance" json:"move_distance"`

	MaxLength     uint32 `yaml:"max_length" json:"max_length"`
	MaxBranches   uint32 `yaml:"max_branches" json:"max_branches"`
	EnforceLimits bool   `yaml:"enforce_limits" json:"enforce_limits"`
	// UseLastNodes restricts the nearest node search to the newest nodes.
	// 0 searches every node.
	UseLastNodes int `yaml:"use_last_nodes" json:"use_last_nodes"`

	// MaxIter stops a run after this many steps. 0 runs until stopped.
	MaxIter int `yaml:"max_iter" json:"max_iter"`
	// StopWhenIdle stops a run after this many consecutive steps that
	// created no node. 0 disables the check.
	StopWhenIdle int `yaml:"stop_when_idle" json:"stop_when_idle"`
	// SaveEvery emits a frame every n iterations. 0 disables frames.
	SaveEvery int `yaml:"save_every" json:"save_every"`
	// LogEvery logs progress at info level every n iterations.
	LogEvery int `yaml:"log_every" json:"log_every"`

	// Graph scenario only.
	TargetNodes             int     `yaml:"target_nodes" json:"target_nodes"`
	AttractorsPerTargetNode int     `yaml:"attractors_per_target_node" json:"attractors_per_target_node"`
	TargetAttractorRadius   float64 `yaml:"target_attractor_radius" json:"target_attractor_radius"`
	TargetDisableIterations uint64  `yaml:"target_disable_iterations" json:"target_disable_iterations"`

	Output Output `yaml:"output" json:"output"`
	Server Server `yaml:"server" json:"server"`

	LogLevel string `yaml:"log_level" json:"log_level"`
}

// Output configures the files written by a run.
type Output struct {
	// EPSDir receives out_NNNNN.eps frames (2D only).
	EPSDir string `yaml:"eps_dir" json:"eps_dir"`
	// TracePath receives the binary frame trace.
	TracePath string `yaml:"trace_path" json:"trace_path"`
	// DOTPath receives the source/target connection graph at the end of a run.
	DOTPath string `yaml:"dot_path" json:"dot_path"`
}

// Server configures the HTTP surface.
type Server struct {
	HTTPAddr  string `yaml:"http_addr" json:"http_addr"`
	AuthToken string `yaml:"auth_token" json:"auth_token"`
	// StepInterval paces the background run loop in serve mode, e.g. "50ms".
	StepInterval string `yaml:"step_interval" json:"step_interval"`
}

// DefaultConfig returns the defaults of the command line tool.
func DefaultConfig() Config {
	return Config{
		Scenario:                Simulate,
		Seed:                    1,
		NumAttractionPoints:     1000,
		NumRoots:                1,
		InfluenceRadius:         0.25,
		KillDistance:            0.1,
		MoveDistance:            0.05,
		MaxLength:               100,
		MaxBranches:             10,
		EnforceLimits:           true,
		LogEvery:                100,
		AttractorsPerTargetNode: 4,
		TargetAttractorRadius:   0.1,
		TargetDisableIterations: 100_000,
		Server: Server{
			HTTPAddr:     ":9093",
			StepInterval: "50ms",
		},
		LogLevel: "info",
	}
}

var presets = map[string]func() Config{
	"default": DefaultConfig,
	// dense3d grows a few roots through a large 3D cloud with coarse steps.
	"dense3d": func() Config {
		c := DefaultConfig()
		c.NumAttractionPoints = 10_000
		c.NumRoots = 5
		c.InfluenceRadius = 0.44
		c.KillDistance = 0.22
		c.MoveDistance = 0.02
		c.Use3D = true
		c.TargetAttractorRadius = 0.22
		return c
	},
	// fine2d is a flat venation-like setting with short segments.
	"fine2d": func() Config {
		c := DefaultConfig()
		c.NumAttractionPoints = 10_000
		c.NumRoots = 5
		c.InfluenceRadius = 0.1
		c.KillDistance = 0.07
		c.MoveDistance = 0.01
		c.TargetAttractorRadius = 0.07
		return c
	},
}

// Preset returns a named configuration.
func Preset(name string) (Config, error) {
	fn, ok := presets[name]
	if !ok {
		return Config{}, fmt.Errorf("unknown preset %q (available: %s)", name, strings.Join(PresetNames(), ", "))
	}
	return fn(), nil
}

// PresetNames lists the available presets in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadConfig reads a YAML configuration file on top of base using strict
// parsing. An empty path returns base unchanged.
func LoadConfig(path string, base Config) (Config, error) {
	cfg := base
	if path == "" {
		return cfg, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to open config: %w", err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)

	if err := decoder.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("YAML syntax error in config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports the first inconsistency in c.
func (c Config) Validate() error {
	switch c.Scenario {
	case Simulate, Graph:
	default:
		return fmt.Errorf("%w: unknown scenario %q", ErrInvalid, c.Scenario)
	}
	if c.NumRoots < 1 {
		return fmt.Errorf("%w: num_roots must be at least 1", ErrInvalid)
	}
	if c.NumAttractionPoints < 0 {
		return fmt.Errorf("%w: num_attraction_points must not be negative", ErrInvalid)
	}
	if c.InfluenceRadius <= 0 || c.KillDistance <= 0 {
		return fmt.Errorf("%w: influence_radius and kill_distance must be positive", ErrInvalid)
	}
	if c.TargetAttractorRadius < 0 {
		return fmt.Errorf("%w: target_attractor_radius must not be negative", ErrInvalid)
	}
	if c.KillDistance > c.InfluenceRadius {
		return fmt.Errorf("%w: kill_distance %g exceeds influence_radius %g", ErrInvalid, c.KillDistance, c.InfluenceRadius)
	}
	if c.MaxIter < 0 || c.StopWhenIdle < 0 || c.SaveEvery < 0 || c.LogEvery < 0 {
		return fmt.Errorf("%w: iteration counts must not be negative", ErrInvalid)
	}
	if c.Scenario == Graph {
		if c.TargetNodes < 1 {
			return fmt.Errorf("%w: graph scenario needs target_nodes >= 1", ErrInvalid)
		}
		if c.AttractorsPerTargetNode < 1 {
			return fmt.Errorf("%w: attractors_per_target_node must be at least 1", ErrInvalid)
		}
	}
	if c.Output.EPSDir != "" && c.Use3D {
		return fmt.Errorf("%w: EPS output only supports 2D runs", ErrInvalid)
	}
	if _, err := c.Server.Interval(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := c.Colony().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

// Interval parses StepInterval. An empty value means no pacing.
func (s Server) Interval() (time.Duration, error) {
	if s.StepInterval == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s.StepInterval)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("invalid step_interval %q", s.StepInterval)
	}
	return d, nil
}

// Dim returns the dimensionality of the run.
func (c Config) Dim() geom.Dim {
	if c.Use3D {
		return geom.Dim3
	}
	return geom.Dim2
}

// Colony converts c into the engine configuration. Default attractors are
// killed on connect.
func (c Config) Colony() colony.Config {
	return colony.Config{
		AttractDist:   geom.FromDist(c.InfluenceRadius),
		ConnectDist:   geom.FromDist(c.KillDistance),
		Strength:      1.0,
		Action:        attractor.KillAttractor(),
		MoveDistance:  c.MoveDistance,
		EnforceLimits: c.EnforceLimits,
		MaxLength:     c.MaxLength,
		MaxBranches:   c.MaxBranches,
		UseLastNodes:  c.UseLastNodes,
	}
}

// ParseLevel maps a log level name to its slog level.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return l, fmt.Errorf("unknown log level %q", s)
	}
	return l, nil
}
