package mcp

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sanonone/spacecol/pkg/engine"
)

// Version is reported to MCP clients.
const Version = "0.1.0"

func NewMCPServer(eng *engine.Engine) *mcp.Server {
	service := NewService(eng)

	s := mcp.NewServer(&mcp.Implementation{
		Name:    "spacecol",
		Version: Version,
	}, nil)

	// Register Tools using the Generic AddTool which inspects structs.

	mcp.AddTool(s, &mcp.Tool{
		Name:        "step_simulation",
		Description: "Advance the space colonization simulation by a number of iterations.",
	}, service.Step)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "simulation_status",
		Description: "Report iteration, node and attractor counts and the statistics of the last step.",
	}, service.Status)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "list_connections",
		Description: "List source to target connections discovered by the growth (graph scenario).",
	}, service.Connections)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "render_colony",
		Description: "Draw the current branches and attractors as braille text (x/y projection).",
	}, service.Render)

	return s
}
