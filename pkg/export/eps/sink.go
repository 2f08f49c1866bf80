package eps

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sanonone/spacecol/pkg/engine"
)

const (
	// Scale maps the [-1, 1] square onto a 400 point page.
	Scale = 400.0
	// Padding around the drawing, in points.
	Padding = 100.0
)

// Render draws a snapshot the way the frame files show it: attractors as
// black dots, segments as red lines, projected onto the x/y plane.
func Render(s *engine.Snapshot) *Document {
	dots := &Points{At: make([]Point, 0, len(s.Attractors)), Radius: 0.005 * Scale / 2}
	for _, a := range s.Attractors {
		dots.At = append(dots.At, Point{X: a.Position.X, Y: a.Position.Y})
	}
	lines := make(Lines, 0, len(s.Segments))
	for _, seg := range s.Segments {
		lines = append(lines, [2]Point{
			{X: seg.Child.X, Y: seg.Child.Y},
			{X: seg.Parent.X, Y: seg.Parent.Y},
		})
	}

	doc := New()
	doc.Add(dots, SetRGB{R: 1}, lines)
	doc.Transform(Point{X: 1, Y: 1}, Point{X: Scale / 2, Y: Scale / 2})
	return doc
}

// Sink writes one out_NNNNN.eps file per frame into a directory.
type Sink struct {
	dir string
}

// NewSink creates dir if needed and returns a sink writing into it.
func NewSink(dir string) (*Sink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create EPS directory: %w", err)
	}
	return &Sink{dir: dir}, nil
}

// FileName returns the name of the frame file for an iteration.
func FileName(iteration uint64) string {
	return fmt.Sprintf("out_%05d.eps", iteration)
}

// WriteFrame renders s into its own file.
func (k *Sink) WriteFrame(s *engine.Snapshot) error {
	path := filepath.Join(k.dir, FileName(s.Iteration))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := Render(s).WriteEPS(f, Padding, Padding); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

// Close is a no-op; every frame file is closed after it is written.
func (k *Sink) Close() error { return nil }
