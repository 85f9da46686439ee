package protocol

import (
	"fmt"
	"strconv"
	"strings"
)

// Verifier decides whether a candidate window is a structurally valid message.
// Callers only pass windows whose first byte already equals the head byte.
type Verifier interface {
	Verify(window []byte) bool
}

// AcceptAll treats every head-aligned window as a message.
type AcceptAll struct{}

func (AcceptAll) Verify([]byte) bool { return true }

// RejectAll never accepts a window.
type RejectAll struct{}

func (RejectAll) Verify([]byte) bool { return false }

// TailByte checks the last byte of the window. The zero value checks for a zero tail.
type TailByte struct {
	Expected byte
}

func (v TailByte) Verify(window []byte) bool {
	return len(window) > 0 && window[len(window)-1] == v.Expected
}

// VerifierFunc adapts a plain function to Verifier.
type VerifierFunc func(window []byte) bool

func (f VerifierFunc) Verify(window []byte) bool { return f(window) }

// VerifierByName resolves a configured verifier name.
// Accepted: accept-all, reject-all, tail-zero, tail:<byte> (decimal or 0x hex).
func VerifierByName(name string) (Verifier, error) {
	raw := strings.ToLower(strings.TrimSpace(name))
	switch raw {
	case "accept-all", "accept":
		return AcceptAll{}, nil
	case "reject-all", "reject":
		return RejectAll{}, nil
	case "", "tail-zero":
		return TailByte{}, nil
	}
	if value, ok := strings.CutPrefix(raw, "tail:"); ok {
		b, err := strconv.ParseUint(strings.TrimSpace(value), 0, 8)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrUnknownVerifier, name, err)
		}
		return TailByte{Expected: byte(b)}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownVerifier, name)
}
