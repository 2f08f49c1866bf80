package view

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/gdamore/tcell/v2"
)

var (
	styleBranch    = tcell.StyleDefault.Foreground(tcell.ColorRed)
	styleAttractor = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleStatus    = tcell.StyleDefault.Reverse(true)
)

// Viewer animates a Source on a tcell screen.
//
// Keys: q, Esc or Ctrl-C quit; space pauses; n advances one frame.
type Viewer struct {
	screen   tcell.Screen
	src      Source
	interval time.Duration

	paused bool
	ended  bool
	status string
}

// New returns a viewer advancing src every interval. The screen must be
// initialized; the caller finalizes it.
func New(screen tcell.Screen, src Source, interval time.Duration) *Viewer {
	if interval <= 0 {
		interval = 50 * time.Millisecond
	}
	return &Viewer{screen: screen, src: src, interval: interval}
}

// Run draws until the user quits or ctx is done.
func (v *Viewer) Run(ctx context.Context) error {
	events := make(chan tcell.Event, 16)
	quit := make(chan struct{})
	go v.screen.ChannelEvents(events, quit)
	defer close(quit)

	ticker := time.NewTicker(v.interval)
	defer ticker.Stop()

	v.draw()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if v.handle(ev) {
				return nil
			}
		case <-ticker.C:
			if !v.paused && !v.ended {
				v.advance()
			}
		}
		v.draw()
	}
}

// handle processes one event and reports whether the viewer should exit.
func (v *Viewer) handle(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		v.screen.Sync()
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return true
		case tcell.KeyRune:
			switch ev.Rune() {
			case 'q':
				return true
			case ' ':
				v.paused = !v.paused
			case 'n':
				v.advance()
			}
		}
	}
	return false
}

func (v *Viewer) advance() {
	err := v.src.Advance()
	switch {
	case errors.Is(err, io.EOF):
		v.ended = true
		v.status = "end of trace"
	case err != nil:
		v.status = err.Error()
	default:
		v.status = ""
	}
}

func (v *Viewer) draw() {
	w, h := v.screen.Size()
	v.screen.Clear()
	if w <= 0 || h <= 1 {
		v.screen.Show()
		return
	}

	snap := v.src.Snapshot()
	pic := Rasterize(snap, w, h-1)
	for y := range pic.H {
		for x := range pic.W {
			r, layer := pic.Cell(x, y)
			switch layer {
			case Branches:
				v.screen.SetContent(x, y, r, nil, styleBranch)
			case Attractors:
				v.screen.SetContent(x, y, r, nil, styleAttractor)
			}
		}
	}

	// Markers lead so a narrow terminal truncates the counters instead.
	line := " "
	if v.status != "" {
		line += v.status + "  "
	}
	if v.paused {
		line += "[paused]  "
	}
	line += fmt.Sprintf("iter %d  nodes %d  attractors %d", snap.Iteration, snap.Nodes, len(snap.Attractors))
	for x := range w {
		r := ' '
		if x < len(line) {
			r = rune(line[x])
		}
		v.screen.SetContent(x, h-1, r, nil, styleStatus)
	}
	v.screen.Show()
}
