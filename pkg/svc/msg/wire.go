package msg

import (
	"encoding/binary"
	"fmt"
	"io"
)

// EncodeFrame writes a length-prefixed, big-endian frame: a uint32 byte
// count for body, followed by a uint16 Kind, a uint64 From, then body
// itself. This is the wire format used whenever an envelope's payload
// needs to cross a boundary that isn't a Go function call — logged to
// disk via the async file I/O worker, or replayed from a capture.
// Grounded on the teacher's length-prefixed big-endian framing in
// pkg/network/client.go (PacketID byte + binary.BigEndian fields).
func EncodeFrame(w io.Writer, from UID, kind Kind, body []byte) error {
	header := make([]byte, 4+2+8)
	binary.BigEndian.PutUint32(header[0:4], uint32(len(body)))
	binary.BigEndian.PutUint16(header[4:6], uint16(kind))
	binary.BigEndian.PutUint64(header[6:14], uint64(from))
	if _, err := w.Write(header); err != nil {
		return fmt.Errorf("msg: write frame header: %w", err)
	}
	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("msg: write frame body: %w", err)
	}
	return nil
}

// DecodeFrame reads one frame written by EncodeFrame.
func DecodeFrame(r io.Reader) (from UID, kind Kind, body []byte, err error) {
	header := make([]byte, 4+2+8)
	if _, err = io.ReadFull(r, header); err != nil {
		return 0, 0, nil, fmt.Errorf("msg: read frame header: %w", err)
	}
	bodyLen := binary.BigEndian.Uint32(header[0:4])
	kind = Kind(binary.BigEndian.Uint16(header[4:6]))
	from = UID(binary.BigEndian.Uint64(header[6:14]))

	body = make([]byte, bodyLen)
	if _, err = io.ReadFull(r, body); err != nil {
		return 0, 0, nil, fmt.Errorf("msg: read frame body: %w", err)
	}
	return from, kind, body, nil
}
