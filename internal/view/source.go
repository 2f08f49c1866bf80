package view

import (
	"errors"
	"io"

	"github.com/sanonone/spacecol/pkg/engine"
	"github.com/sanonone/spacecol/pkg/trace"
)

// Source produces the frames the viewer shows.
type Source interface {
	// Snapshot returns the current frame.
	Snapshot() *engine.Snapshot
	// Advance moves to the next frame. It returns io.EOF when there is none;
	// the current frame then stays on screen.
	Advance() error
}

// Live steps an engine on every advance.
type Live struct {
	Engine *engine.Engine
}

func (l Live) Snapshot() *engine.Snapshot { return l.Engine.Snapshot() }

func (l Live) Advance() error {
	_, err := l.Engine.Step()
	return err
}

// Replay plays back a recorded trace.
type Replay struct {
	r       *trace.Reader
	current *engine.Snapshot
}

// NewReplay reads the first frame of r.
func NewReplay(r *trace.Reader) (*Replay, error) {
	first, err := r.Next()
	if errors.Is(err, io.EOF) {
		first = &engine.Snapshot{RunID: r.RunID().String()}
	} else if err != nil {
		return nil, err
	}
	return &Replay{r: r, current: first}, nil
}

func (p *Replay) Snapshot() *engine.Snapshot { return p.current }

func (p *Replay) Advance() error {
	next, err := p.r.Next()
	if err != nil {
		return err
	}
	p.current = next
	return nil
}
