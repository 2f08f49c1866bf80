package trace

import (
	"encoding/binary"
	"errors"
	"hash/crc32"
	"io"
)

// Constants for the trace binary protocol.
const (
	// MagicByte marks the start of a valid frame.
	MagicByte = 0xA5

	// HeaderSize is the fixed size of the frame metadata:
	// 1 byte (Magic) + 1 byte (OpCode) + 4 bytes (Length) + 4 bytes (CRC32) = 10 bytes.
	HeaderSize = 10

	// OpCodeHeader carries the run identity. It is always the first frame.
	OpCodeHeader = 0x01
	// OpCodeSnapshot carries one encoded snapshot.
	OpCodeSnapshot = 0x02

	// MaxFrameSize bounds a single payload. Larger lengths are treated as damage.
	MaxFrameSize = 256 << 20
)

var (
	// ErrInvalidMagic indicates the stream lost synchronization or is not a trace.
	ErrInvalidMagic = errors.New("invalid magic byte")
	// ErrChecksumMismatch indicates data corruption within the frame payload.
	ErrChecksumMismatch = errors.New("crc32 checksum mismatch")
	// ErrIncompleteFrame indicates the stream ended in the middle of a frame.
	ErrIncompleteFrame = errors.New("incomplete frame")
	// ErrFrameTooLarge indicates a payload length above MaxFrameSize.
	ErrFrameTooLarge = errors.New("frame exceeds maximum size")
	// ErrUnexpectedOpCode indicates a frame of the wrong kind.
	ErrUnexpectedOpCode = errors.New("unexpected opcode")
)

// writeFrame encodes the payload into a binary frame and writes it.
// Frame Format: [Magic(1)][OpCode(1)][Length(4)][CRC(4)][Payload(N)]
func writeFrame(w io.Writer, op byte, payload []byte) error {
	if len(payload) > MaxFrameSize {
		return ErrFrameTooLarge
	}
	header := make([]byte, HeaderSize)
	header[0] = MagicByte
	header[1] = op
	binary.LittleEndian.PutUint32(header[2:6], uint32(len(payload)))
	binary.LittleEndian.PutUint32(header[6:10], crc32.ChecksumIEEE(payload))

	// w is buffered by the Writer, so header and payload reach the file together.
	if _, err := w.Write(header); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

// readFrame reads the next frame, validating the magic byte and checksum.
// It returns io.EOF only when the stream ends exactly on a frame boundary.
func readFrame(r io.Reader) (op byte, payload []byte, err error) {
	header := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		if err == io.EOF {
			return 0, nil, io.EOF
		}
		return 0, nil, ErrIncompleteFrame
	}

	if header[0] != MagicByte {
		return 0, nil, ErrInvalidMagic
	}

	length := binary.LittleEndian.Uint32(header[2:6])
	expectedCRC := binary.LittleEndian.Uint32(header[6:10])
	if length > MaxFrameSize {
		return 0, nil, ErrFrameTooLarge
	}

	payload = make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return 0, nil, ErrIncompleteFrame
	}
	if crc32.ChecksumIEEE(payload) != expectedCRC {
		return 0, nil, ErrChecksumMismatch
	}
	return header[1], payload, nil
}
