package protocol

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// ParseMessage splits a raw window into a Message. The payload is copied.
func ParseMessage(raw []byte) (Message, error) {
	if len(raw) < Overhead {
		return Message{}, fmt.Errorf("%w: %d bytes", ErrShortMessage, len(raw))
	}
	last := len(raw) - 1
	return Message{
		Head: raw[0],
		Type: raw[1],
		Data: append([]byte(nil), raw[2:last]...),
		Tail: raw[last],
	}, nil
}

// DecodeData reads the payload of m as a T using little-endian fixed-size encoding.
// T must have a fixed encoded size equal to len(m.Data).
func DecodeData[T any](m Message) (T, error) {
	var out T
	size := binary.Size(&out)
	if size < 0 {
		return out, fmt.Errorf("%w: %T", ErrUnsupportedData, out)
	}
	if size != len(m.Data) {
		return out, fmt.Errorf("%w: %T is %d bytes, payload is %d", ErrSizeMismatch, out, size, len(m.Data))
	}
	if err := binary.Read(bytes.NewReader(m.Data), binary.LittleEndian, &out); err != nil {
		return out, err
	}
	return out, nil
}
