package protocol

import (
	"encoding/hex"
	"strings"
)

const (
	// DefaultHeadByte marks the start of a message on the wire.
	DefaultHeadByte byte = '!'

	// Overhead is the number of framing bytes around the payload (head, type, tail).
	Overhead = 3
)

// Message is one fixed-layout wire record: [Head][Type][Data...][Tail].
// The total size is len(Data)+Overhead and equals the chunk size read per cycle.
type Message struct {
	Head byte
	Type byte
	Data []byte
	Tail byte
}

// NewMessage returns a zeroed message with the default head byte.
func NewMessage(dataSize int) Message {
	if dataSize < 0 {
		dataSize = 0
	}
	return Message{Head: DefaultHeadByte, Data: make([]byte, dataSize)}
}

// SizeFor returns the wire size of a message carrying dataSize payload bytes.
func SizeFor(dataSize int) int {
	return dataSize + Overhead
}

func (m Message) Size() int {
	return SizeFor(len(m.Data))
}

// Clone returns a copy that shares no memory with m.
func (m Message) Clone() Message {
	out := m
	out.Data = append([]byte(nil), m.Data...)
	return out
}

// String formats the raw wire view as space separated hex bytes.
func (m Message) String() string {
	raw := m.Bytes()
	var b strings.Builder
	b.Grow(len(raw) * 3)
	for i, v := range raw {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(strings.ToUpper(hex.EncodeToString([]byte{v})))
	}
	return b.String()
}
