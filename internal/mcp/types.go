package mcp

import (
	"github.com/sanonone/spacecol/pkg/core/colony"
	"github.com/sanonone/spacecol/pkg/engine"
	"github.com/sanonone/spacecol/pkg/export/dot"
)

// --- Tool Arguments ---

type StepArgs struct {
	Steps int `json:"steps,omitempty" jsonschema:"Number of iterations to run (default 1, max 10000)"`
}

type StepResult struct {
	Steps   int              `json:"steps"`
	Created int              `json:"created"`
	Last    colony.StepStats `json:"last"`
	Status  engine.Status    `json:"status"`
}

type StatusArgs struct{}

type ConnectionsArgs struct {
	Format string `json:"format,omitempty" jsonschema:"Output format: json (default) or dot"`
}

type ConnectionsResult struct {
	Edges []dot.Edge `json:"edges"`
	// DOT is set when the dot format was requested.
	DOT string `json:"dot,omitempty"`
}

type RenderArgs struct {
	Width  int `json:"width,omitempty" jsonschema:"Width in terminal cells (default 80)"`
	Height int `json:"height,omitempty" jsonschema:"Height in terminal cells (default 40)"`
}

type RenderResult struct {
	Iteration uint64 `json:"iteration"`
	Picture   string `json:"picture"`
}
