package frame

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/TaciturnJian/bytecomm/internal/protocol"
)

var ErrInvalidSpan = errors.New("frame: buffer span must be even and at least 2 bytes")

// Outcome classifies one Examine call.
type Outcome int

const (
	OutcomeMiss Outcome = iota
	OutcomeAligned
	OutcomeResynced
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAligned:
		return "aligned"
	case OutcomeResynced:
		return "resynced"
	default:
		return "miss"
	}
}

// Buffer recovers fixed-size messages from a stream read in fixed-size chunks.
//
// The backing span is split into two adjacent regions of one message each:
// previous holds the prior chunk, incoming holds the chunk just read. A message
// split across two reads is the message-sized slice of the full span starting
// at the first head byte found in previous.
//
// V is a type parameter so hot paths keep a concrete verifier; use
// Buffer[protocol.Verifier] when the verifier is chosen at runtime.
type Buffer[V protocol.Verifier] struct {
	head     byte
	verifier V

	full     []byte
	previous []byte
	incoming []byte

	// previous is already zeroed by an earlier aligned hit.
	lastMatchInIncoming bool
	last                Outcome
}

// NewBuffer builds a Buffer over span, which must have an even length of at least 2.
func NewBuffer[V protocol.Verifier](span []byte, head byte, verifier V) (*Buffer[V], error) {
	if len(span) < 2 || len(span)%2 != 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidSpan, len(span))
	}
	half := len(span) / 2
	b := &Buffer[V]{
		head:     head,
		verifier: verifier,
		full:     span,
		previous: span[:half:half],
		incoming: span[half:],
	}
	clear(b.previous)
	return b, nil
}

// NewSizedBuffer allocates a Buffer for messages of messageSize bytes.
func NewSizedBuffer[V protocol.Verifier](messageSize int, head byte, verifier V) (*Buffer[V], error) {
	if messageSize < 1 {
		return nil, fmt.Errorf("%w: message size %d", ErrInvalidSpan, messageSize)
	}
	return NewBuffer(make([]byte, 2*messageSize), head, verifier)
}

// Incoming is the region the caller fills with exactly one chunk before Examine.
func (b *Buffer[V]) Incoming() []byte { return b.incoming }

func (b *Buffer[V]) MessageSize() int { return len(b.incoming) }

func (b *Buffer[V]) HeadByte() byte { return b.head }

// LastOutcome reports how the most recent Examine call ended.
func (b *Buffer[V]) LastOutcome() Outcome { return b.last }

// Examine checks whether a full message can be extracted now and copies it to out.
// out must hold at least MessageSize bytes, otherwise Examine returns false untouched.
func (b *Buffer[V]) Examine(out []byte) bool {
	if len(out) < len(b.incoming) {
		b.last = OutcomeMiss
		return false
	}

	if b.verify(b.incoming) {
		copy(out, b.incoming)
		b.zeroPrevious()
		b.last = OutcomeAligned
		return true
	}

	b.lastMatchInIncoming = false
	window, found := b.findWindow()
	ok := found && b.verify(window)
	if ok {
		copy(out, window)
		b.last = OutcomeResynced
	} else {
		b.last = OutcomeMiss
	}
	copy(b.previous, b.incoming)
	return ok
}

func (b *Buffer[V]) verify(window []byte) bool {
	return window[0] == b.head && b.verifier.Verify(window)
}

func (b *Buffer[V]) zeroPrevious() {
	if b.lastMatchInIncoming {
		return
	}
	b.lastMatchInIncoming = true
	clear(b.previous)
}

// findWindow only tries the first head byte in previous.
func (b *Buffer[V]) findWindow() ([]byte, bool) {
	idx := bytes.IndexByte(b.previous, b.head)
	if idx < 0 {
		return nil, false
	}
	return b.full[idx : idx+len(b.previous)], true
}
