package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sanonone/spacecol/internal/view"
	"github.com/sanonone/spacecol/pkg/engine"
	"github.com/sanonone/spacecol/pkg/export/dot"
)

const maxSteps = 10_000

type Service struct {
	engine *engine.Engine
}

func NewService(eng *engine.Engine) *Service {
	return &Service{engine: eng}
}

// --- Tool Handlers ---

func (s *Service) Step(ctx context.Context, req *mcp.CallToolRequest, args StepArgs) (*mcp.CallToolResult, StepResult, error) {
	n := args.Steps
	if n == 0 {
		n = 1
	}
	if n < 0 || n > maxSteps {
		return nil, StepResult{}, fmt.Errorf("steps must be between 1 and %d", maxSteps)
	}

	res := StepResult{}
	for range n {
		if err := ctx.Err(); err != nil {
			return nil, res, err
		}
		stats, err := s.engine.Step()
		if err != nil {
			return nil, res, err
		}
		res.Steps++
		res.Created += stats.Created
		res.Last = stats
	}
	res.Status = s.engine.Status()
	return nil, res, nil
}

func (s *Service) Status(ctx context.Context, req *mcp.CallToolRequest, args StatusArgs) (*mcp.CallToolResult, engine.Status, error) {
	return nil, s.engine.Status(), nil
}

func (s *Service) Connections(ctx context.Context, req *mcp.CallToolRequest, args ConnectionsArgs) (*mcp.CallToolResult, ConnectionsResult, error) {
	res := ConnectionsResult{Edges: s.engine.Connections()}
	switch args.Format {
	case "", "json":
	case "dot":
		var b strings.Builder
		if err := dot.Write(&b, res.Edges); err != nil {
			return nil, ConnectionsResult{}, err
		}
		res.DOT = b.String()
	default:
		return nil, ConnectionsResult{}, fmt.Errorf("unknown format %q", args.Format)
	}
	return nil, res, nil
}

// Render draws the colony with braille characters so a model can "see" it.
func (s *Service) Render(ctx context.Context, req *mcp.CallToolRequest, args RenderArgs) (*mcp.CallToolResult, RenderResult, error) {
	w, h := args.Width, args.Height
	if w == 0 {
		w = 80
	}
	if h == 0 {
		h = 40
	}
	if w < 1 || h < 1 || w > 400 || h > 200 {
		return nil, RenderResult{}, fmt.Errorf("size %dx%d out of range", w, h)
	}

	snap := s.engine.Snapshot()
	pic := view.Rasterize(snap, w, h)
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: pic.String()}},
	}, RenderResult{Iteration: snap.Iteration, Picture: pic.String()}, nil
}
