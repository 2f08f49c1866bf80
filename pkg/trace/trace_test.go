package trace

import (
	"bytes"
	"encoding/binary"
	"io"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/sanonone/spacecol/pkg/core/geom"
	"github.com/sanonone/spacecol/pkg/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSnapshot(it uint64) *engine.Snapshot {
	return &engine.Snapshot{
		Iteration: it,
		Nodes:     3,
		Segments: []engine.Segment{
			{Child: geom.Vec{X: 0.25, Y: 0.5}, Parent: geom.Vec{}},
			{Child: geom.Vec{X: 0.5, Y: 0.75, Z: -0.125}, Parent: geom.Vec{X: 0.25, Y: 0.5}},
		},
		Attractors: []engine.AttractorPoint{
			{Position: geom.Vec{X: -1, Y: 1}},
			{Position: geom.Vec{X: 0.5, Y: -0.5}, Tag: engine.Tag{Kind: engine.Target, ID: 7}},
		},
		Roots: []geom.Vec{{}},
	}
}

func TestRoundTrip(t *testing.T) {
	id := uuid.New()
	var buf bytes.Buffer
	w, err := NewWriter(&buf, id)
	require.NoError(t, err)
	require.NoError(t, w.WriteFrame(sampleSnapshot(0)))
	require.NoError(t, w.WriteFrame(sampleSnapshot(10)))
	require.NoError(t, w.Close())
	assert.Equal(t, 2, w.Frames())

	r, err := NewReader(&buf)
	require.NoError(t, err)
	assert.Equal(t, id, r.RunID())

	frames, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, frames, 2)

	// The sample coordinates are exact in half precision.
	want := sampleSnapshot(10)
	want.RunID = id.String()
	assert.Equal(t, want, frames[1])
	assert.Equal(t, uint64(0), frames[0].Iteration)
}

func TestHalfPrecision(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, uuid.New())
	require.NoError(t, err)
	s := &engine.Snapshot{Roots: []geom.Vec{{X: 0.123456, Y: -0.987654, Z: 0.333333}}}
	require.NoError(t, w.WriteFrame(s))
	require.NoError(t, w.Close())

	r, err := NewReader(&buf)
	require.NoError(t, err)
	got, err := r.Next()
	require.NoError(t, err)
	assert.InDelta(t, 0.123456, got.Roots[0].X, 1e-3)
	assert.InDelta(t, -0.987654, got.Roots[0].Y, 1e-3)
	assert.InDelta(t, 0.333333, got.Roots[0].Z, 1e-3)

	_, err = r.Next()
	assert.Equal(t, io.EOF, err)
}

func TestChecksumMismatch(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, uuid.New())
	require.NoError(t, err)
	require.NoError(t, w.WriteFrame(sampleSnapshot(1)))
	require.NoError(t, w.Close())

	data := buf.Bytes()
	data[len(data)-1] ^= 0xFF

	r, err := NewReader(bytes.NewReader(data))
	require.NoError(t, err)
	_, err = r.Next()
	assert.ErrorIs(t, err, ErrChecksumMismatch)
}

func TestTruncatedTrace(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, uuid.New())
	require.NoError(t, err)
	require.NoError(t, w.WriteFrame(sampleSnapshot(1)))
	require.NoError(t, w.Close())

	data := buf.Bytes()[:buf.Len()-3]
	r, err := NewReader(bytes.NewReader(data))
	require.NoError(t, err)
	_, err = r.Next()
	assert.ErrorIs(t, err, ErrIncompleteFrame)
}

func TestRejectsOversizedFrame(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, uuid.New())
	require.NoError(t, err)
	require.NoError(t, w.Close())

	header := make([]byte, HeaderSize)
	header[0] = MagicByte
	header[1] = OpCodeSnapshot
	binary.LittleEndian.PutUint32(header[2:6], 0xFFFFFFFF)
	buf.Write(header)

	r, err := NewReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	_, err = r.Next()
	assert.ErrorIs(t, err, ErrFrameTooLarge)
}

func TestRejectsForeignData(t *testing.T) {
	_, err := NewReader(bytes.NewReader([]byte("definitely not a trace")))
	assert.ErrorIs(t, err, ErrInvalidMagic)

	_, err = NewReader(bytes.NewReader(nil))
	assert.ErrorIs(t, err, ErrIncompleteFrame)
}

func TestRejectsCorruptCounts(t *testing.T) {
	payload := encodeSnapshot(sampleSnapshot(0))
	// Segment count sits after iteration (8) and nodes (4).
	payload[12] = 0xFF
	payload[13] = 0xFF
	_, err := decodeSnapshot("", payload)
	assert.ErrorIs(t, err, errShortPayload)
}

func TestCreateAndOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.trace")
	id := uuid.New()
	w, err := Create(path, id)
	require.NoError(t, err)
	require.NoError(t, w.WriteFrame(sampleSnapshot(5)))
	require.NoError(t, w.Close())

	r, f, err := Open(path)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, id, r.RunID())
	frames, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, frames, 1)
	assert.Equal(t, uint64(5), frames[0].Iteration)
}

func TestEngineRecording(t *testing.T) {
	var buf bytes.Buffer
	id := uuid.New()
	w, err := NewWriter(&buf, id)
	require.NoError(t, err)
	e, err := engine.Open(engineConfig(), engine.WithSinks(w), engine.WithRunID(id))
	require.NoError(t, err)

	for range 6 {
		_, err := e.Step()
		require.NoError(t, err)
	}
	require.NoError(t, e.Close())

	r, err := NewReader(&buf)
	require.NoError(t, err)
	frames, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, frames, 2)
	assert.Equal(t, uint64(3), frames[1].Iteration)
	assert.Equal(t, id.String(), frames[1].RunID)
	assert.Len(t, frames[0].Attractors, 100)
}
