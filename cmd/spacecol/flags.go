package main

import (
	"flag"
	"fmt"
	"strconv"

	"github.com/sanonone/spacecol/pkg/config"
)

// overrides maps flag names to the config field they set. Only flags given
// on the command line are applied, so file and preset values survive.
var overrides = map[string]func(c *config.Config, v string) error{
	"scenario":                   func(c *config.Config, v string) error { c.Scenario = config.Scenario(v); return nil },
	"seed":                       uintField(func(c *config.Config) *uint64 { return &c.Seed }),
	"num-points":                 intField(func(c *config.Config) *int { return &c.NumAttractionPoints }),
	"num-roots":                  intField(func(c *config.Config) *int { return &c.NumRoots }),
	"radius":                     floatField(func(c *config.Config) *float64 { return &c.InfluenceRadius }),
	"kill-distance":              floatField(func(c *config.Config) *float64 { return &c.KillDistance }),
	"move-distance":              floatField(func(c *config.Config) *float64 { return &c.MoveDistance }),
	"max-length":                 uint32Field(func(c *config.Config) *uint32 { return &c.MaxLength }),
	"max-branches":               uint32Field(func(c *config.Config) *uint32 { return &c.MaxBranches }),
	"use-last-nodes":             intField(func(c *config.Config) *int { return &c.UseLastNodes }),
	"max-iter":                   intField(func(c *config.Config) *int { return &c.MaxIter }),
	"stop-when-idle":             intField(func(c *config.Config) *int { return &c.StopWhenIdle }),
	"save-every":                 intField(func(c *config.Config) *int { return &c.SaveEvery }),
	"log-every":                  intField(func(c *config.Config) *int { return &c.LogEvery }),
	"use-3d":                     boolField(func(c *config.Config) *bool { return &c.Use3D }),
	"enforce-limits":             boolField(func(c *config.Config) *bool { return &c.EnforceLimits }),
	"target-nodes":               intField(func(c *config.Config) *int { return &c.TargetNodes }),
	"attractors-per-target-node": intField(func(c *config.Config) *int { return &c.AttractorsPerTargetNode }),
	"target-attractor-radius":    floatField(func(c *config.Config) *float64 { return &c.TargetAttractorRadius }),
	"eps-dir":                    stringField(func(c *config.Config) *string { return &c.Output.EPSDir }),
	"trace":                      stringField(func(c *config.Config) *string { return &c.Output.TracePath }),
	"dot":                        stringField(func(c *config.Config) *string { return &c.Output.DOTPath }),
	"http-addr":                  stringField(func(c *config.Config) *string { return &c.Server.HTTPAddr }),
	"auth-token":                 stringField(func(c *config.Config) *string { return &c.Server.AuthToken }),
	"step-interval":              stringField(func(c *config.Config) *string { return &c.Server.StepInterval }),
	"log-level":                  stringField(func(c *config.Config) *string { return &c.LogLevel }),
}

var usage = map[string]string{
	"scenario":                   "simulate or graph",
	"seed":                       "Random seed",
	"num-points":                 "Number of attraction points (default: 1000)",
	"num-roots":                  "Number of root nodes (default: 1)",
	"radius":                     "Influence radius (default: 0.25)",
	"kill-distance":              "Kill distance (default: 0.1)",
	"move-distance":              "Move distance (default: 0.05)",
	"max-length":                 "Maximal allowed length from root to leaf (default: 100)",
	"max-branches":               "Maximal allowed number of branches per node (default: 10)",
	"use-last-nodes":             "Only scan the n most recent nodes (default: all)",
	"max-iter":                   "Maximum iterations (default: infinite)",
	"stop-when-idle":             "Stop after n consecutive steps without growth (default: never)",
	"save-every":                 "Save a frame every n iterations (default: none)",
	"log-every":                  "Log progress every n iterations",
	"use-3d":                     "Use 3d mode",
	"enforce-limits":             "Stop growing nodes past max-length or max-branches",
	"target-nodes":               "Number of target nodes. Switches to the graph scenario",
	"attractors-per-target-node": "Number of attractors per target node (default: 4)",
	"target-attractor-radius":    "Radius of target attractors (default: 0.1)",
	"eps-dir":                    "Write out_NNNNN.eps frames into this directory (2D only)",
	"trace":                      "Record frames into this trace file; input file in replay mode",
	"dot":                        "Write the source/target connection graph here when done",
	"http-addr":                  "HTTP listen address in serve mode",
	"auth-token":                 "Bearer token required by the HTTP API",
	"step-interval":              "Delay between steps in view and serve modes (e.g. 50ms)",
	"log-level":                  "debug, info, warn or error",
}

// registerOverrides declares one string flag per override on fs.
func registerOverrides(fs *flag.FlagSet) {
	for name := range overrides {
		if name == "use-3d" || name == "enforce-limits" {
			fs.Bool(name, false, usage[name])
			continue
		}
		fs.String(name, "", usage[name])
	}
}

// applyOverrides copies every flag set on the command line into cfg.
func applyOverrides(fs *flag.FlagSet, cfg *config.Config) error {
	var err error
	fs.Visit(func(f *flag.Flag) {
		set, ok := overrides[f.Name]
		if !ok || err != nil {
			return
		}
		if e := set(cfg, f.Value.String()); e != nil {
			err = fmt.Errorf("invalid -%s: %w", f.Name, e)
		}
	})
	if err != nil {
		return err
	}

	// --target-nodes implies the graph scenario, as in the original tool.
	if cfg.TargetNodes > 0 && isSet(fs, "target-nodes") && !isSet(fs, "scenario") {
		cfg.Scenario = config.Graph
	}
	return nil
}

func isSet(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

func intField(field func(*config.Config) *int) func(*config.Config, string) error {
	return func(c *config.Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		*field(c) = n
		return nil
	}
}

func uintField(field func(*config.Config) *uint64) func(*config.Config, string) error {
	return func(c *config.Config, v string) error {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return err
		}
		*field(c) = n
		return nil
	}
}

func uint32Field(field func(*config.Config) *uint32) func(*config.Config, string) error {
	return func(c *config.Config, v string) error {
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return err
		}
		*field(c) = uint32(n)
		return nil
	}
}

func floatField(field func(*config.Config) *float64) func(*config.Config, string) error {
	return func(c *config.Config, v string) error {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return err
		}
		*field(c) = f
		return nil
	}
}

func boolField(field func(*config.Config) *bool) func(*config.Config, string) error {
	return func(c *config.Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		*field(c) = b
		return nil
	}
}

func stringField(field func(*config.Config) *string) func(*config.Config, string) error {
	return func(c *config.Config, v string) error {
		*field(c) = v
		return nil
	}
}
