package trace

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/sanonone/spacecol/pkg/core/geom"
	"github.com/sanonone/spacecol/pkg/engine"
	"github.com/x448/float16"
)

// Snapshot payload layout, little endian:
//
//	iteration  u64
//	nodes      u32
//	segments   u32, then per segment: child xyz, parent xyz
//	attractors u32, then per attractor: xyz, tag kind u8, tag id u32
//	roots      u32, then per root: xyz
//
// Every coordinate is an IEEE 754 half-precision float. Values inside the
// unit cube keep about three decimal digits, which is plenty for playback.

const vecSize = 3 * 2

var errShortPayload = errors.New("payload too short")

type encoder struct{ buf []byte }

func (e *encoder) u8(v uint8)   { e.buf = append(e.buf, v) }
func (e *encoder) u32(v uint32) { e.buf = binary.LittleEndian.AppendUint32(e.buf, v) }
func (e *encoder) u64(v uint64) { e.buf = binary.LittleEndian.AppendUint64(e.buf, v) }

func (e *encoder) vec(v geom.Vec) {
	for _, c := range [3]float64{v.X, v.Y, v.Z} {
		e.buf = binary.LittleEndian.AppendUint16(e.buf, float16.Fromfloat32(float32(c)).Bits())
	}
}

func encodeSnapshot(s *engine.Snapshot) []byte {
	size := 8 + 4*4 +
		len(s.Segments)*2*vecSize +
		len(s.Attractors)*(vecSize+5) +
		len(s.Roots)*vecSize
	e := encoder{buf: make([]byte, 0, size)}

	e.u64(s.Iteration)
	e.u32(uint32(s.Nodes))
	e.u32(uint32(len(s.Segments)))
	for _, seg := range s.Segments {
		e.vec(seg.Child)
		e.vec(seg.Parent)
	}
	e.u32(uint32(len(s.Attractors)))
	for _, a := range s.Attractors {
		e.vec(a.Position)
		e.u8(uint8(a.Tag.Kind))
		e.u32(uint32(a.Tag.ID))
	}
	e.u32(uint32(len(s.Roots)))
	for _, r := range s.Roots {
		e.vec(r)
	}
	return e.buf
}

// decoder reads sequentially and remembers the first error.
type decoder struct {
	buf []byte
	err error
}

func (d *decoder) take(n int) []byte {
	if d.err != nil {
		return nil
	}
	if len(d.buf) < n {
		d.err = errShortPayload
		return nil
	}
	b := d.buf[:n]
	d.buf = d.buf[n:]
	return b
}

func (d *decoder) u8() uint8 {
	if b := d.take(1); b != nil {
		return b[0]
	}
	return 0
}

func (d *decoder) u32() uint32 {
	if b := d.take(4); b != nil {
		return binary.LittleEndian.Uint32(b)
	}
	return 0
}

func (d *decoder) u64() uint64 {
	if b := d.take(8); b != nil {
		return binary.LittleEndian.Uint64(b)
	}
	return 0
}

func (d *decoder) vec() geom.Vec {
	b := d.take(vecSize)
	if b == nil {
		return geom.Vec{}
	}
	c := func(i int) float64 {
		return float64(float16.Frombits(binary.LittleEndian.Uint16(b[2*i:])).Float32())
	}
	return geom.Vec{X: c(0), Y: c(1), Z: c(2)}
}

// count reads a length prefix and checks it against the remaining bytes so
// a corrupt count cannot trigger a huge allocation.
func (d *decoder) count(itemSize int) int {
	n := int(d.u32())
	if d.err == nil && n*itemSize > len(d.buf) {
		d.err = errShortPayload
		return 0
	}
	return n
}

func decodeSnapshot(runID string, payload []byte) (*engine.Snapshot, error) {
	d := decoder{buf: payload}
	s := &engine.Snapshot{RunID: runID}

	s.Iteration = d.u64()
	s.Nodes = int(d.u32())

	n := d.count(2 * vecSize)
	s.Segments = make([]engine.Segment, 0, n)
	for range n {
		s.Segments = append(s.Segments, engine.Segment{Child: d.vec(), Parent: d.vec()})
	}

	n = d.count(vecSize + 5)
	s.Attractors = make([]engine.AttractorPoint, 0, n)
	for range n {
		p := engine.AttractorPoint{Position: d.vec()}
		p.Tag.Kind = engine.TagKind(d.u8())
		p.Tag.ID = int(d.u32())
		s.Attractors = append(s.Attractors, p)
	}

	n = d.count(vecSize)
	s.Roots = make([]geom.Vec, 0, n)
	for range n {
		s.Roots = append(s.Roots, d.vec())
	}

	if d.err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", d.err)
	}
	if len(d.buf) != 0 {
		return nil, fmt.Errorf("failed to decode snapshot: %d trailing bytes", len(d.buf))
	}
	return s, nil
}
