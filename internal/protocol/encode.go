package protocol

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Bytes returns the literal wire encoding of m.
func (m Message) Bytes() []byte {
	return m.AppendBytes(make([]byte, 0, m.Size()))
}

// AppendBytes appends the wire encoding of m to dst.
func (m Message) AppendBytes(dst []byte) []byte {
	dst = append(dst, m.Head, m.Type)
	dst = append(dst, m.Data...)
	return append(dst, m.Tail)
}

// EncodeData writes v into the payload using little-endian fixed-size encoding.
// The encoded size of v must equal len(m.Data).
func (m *Message) EncodeData(v any) error {
	size := binary.Size(v)
	if size < 0 {
		return fmt.Errorf("%w: %T", ErrUnsupportedData, v)
	}
	if size != len(m.Data) {
		return fmt.Errorf("%w: %T is %d bytes, payload is %d", ErrSizeMismatch, v, size, len(m.Data))
	}
	var buf bytes.Buffer
	buf.Grow(size)
	if err := binary.Write(&buf, binary.LittleEndian, v); err != nil {
		return err
	}
	copy(m.Data, buf.Bytes())
	return nil
}
