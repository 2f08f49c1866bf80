// Package trace records snapshots into a compact binary file and plays them
// back.
//
// A trace is a sequence of frames. The first frame holds the run id, each
// following frame holds one snapshot with half-precision coordinates.
// Every frame is checksummed, so a truncated or damaged file is detected
// instead of replayed.
package trace

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/sanonone/spacecol/pkg/engine"
)

// Version is written in the header frame after the run id.
const Version = 1

// Writer appends snapshots to a trace. It implements engine.FrameSink.
type Writer struct {
	bw     *bufio.Writer
	closer io.Closer
	frames int
}

// Create creates (or truncates) the file at path and writes the header.
func Create(path string, runID uuid.UUID) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace: %w", err)
	}
	w, err := newWriter(f, f, runID)
	if err != nil {
		f.Close()
		return nil, err
	}
	return w, nil
}

// NewWriter writes a trace to w. Close flushes but does not close w.
func NewWriter(w io.Writer, runID uuid.UUID) (*Writer, error) {
	return newWriter(w, nil, runID)
}

func newWriter(w io.Writer, c io.Closer, runID uuid.UUID) (*Writer, error) {
	tw := &Writer{bw: bufio.NewWriter(w), closer: c}
	header := append(runID[:], Version)
	if err := writeFrame(tw.bw, OpCodeHeader, header); err != nil {
		return nil, fmt.Errorf("failed to write trace header: %w", err)
	}
	return tw, nil
}

// WriteFrame appends s to the trace.
func (w *Writer) WriteFrame(s *engine.Snapshot) error {
	if err := writeFrame(w.bw, OpCodeSnapshot, encodeSnapshot(s)); err != nil {
		return fmt.Errorf("failed to write trace frame: %w", err)
	}
	w.frames++
	return nil
}

// Frames returns the number of snapshots written so far.
func (w *Writer) Frames() int { return w.frames }

// Close flushes buffered frames and closes the underlying file, if any.
func (w *Writer) Close() error {
	err := w.bw.Flush()
	if w.closer != nil {
		err = errors.Join(err, w.closer.Close())
	}
	return err
}

// Reader replays a trace.
type Reader struct {
	r     io.Reader
	runID uuid.UUID
}

// NewReader reads and validates the header frame of r.
func NewReader(r io.Reader) (*Reader, error) {
	br := bufio.NewReader(r)
	op, payload, err := readFrame(br)
	if err != nil {
		if err == io.EOF {
			err = ErrIncompleteFrame
		}
		return nil, fmt.Errorf("failed to read trace header: %w", err)
	}
	if op != OpCodeHeader {
		return nil, fmt.Errorf("failed to read trace header: %w 0x%02x", ErrUnexpectedOpCode, op)
	}
	if len(payload) != 17 {
		return nil, fmt.Errorf("failed to read trace header: bad length %d", len(payload))
	}
	if payload[16] != Version {
		return nil, fmt.Errorf("unsupported trace version %d", payload[16])
	}

	id, err := uuid.FromBytes(payload[:16])
	if err != nil {
		return nil, fmt.Errorf("failed to read trace header: %w", err)
	}
	return &Reader{r: br, runID: id}, nil
}

// RunID returns the id of the recorded run.
func (r *Reader) RunID() uuid.UUID { return r.runID }

// Next returns the next snapshot, or io.EOF after the last one.
func (r *Reader) Next() (*engine.Snapshot, error) {
	op, payload, err := readFrame(r.r)
	if err != nil {
		return nil, err
	}
	if op != OpCodeSnapshot {
		return nil, fmt.Errorf("%w 0x%02x", ErrUnexpectedOpCode, op)
	}
	return decodeSnapshot(r.runID.String(), payload)
}

// ReadAll returns every remaining snapshot.
func (r *Reader) ReadAll() ([]*engine.Snapshot, error) {
	var out []*engine.Snapshot
	for {
		s, err := r.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, s)
	}
}

// Open opens a trace file for replay. The caller closes the returned file.
func Open(path string) (*Reader, *os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open trace: %w", err)
	}
	r, err := NewReader(f)
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return r, f, nil
}
