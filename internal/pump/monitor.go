package pump

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

// Monitor decides whether a pump keeps running and absorbs its failures.
// Implementations must be safe for concurrent use: Interrupt is called from
// other goroutines while the owning pump polls IsDone.
type Monitor interface {
	Reset()
	HandleError()
	IsDone() bool
	Interrupt()
}

var ErrUnknownPolicy = errors.New("pump: unknown monitor policy")

// Policy selects how a StateMonitor reacts to HandleError.
type Policy int

const (
	// PolicyStrict stops on the first error.
	PolicyStrict Policy = iota
	// PolicyTolerant stops once the error tally reaches the monitor's limit.
	PolicyTolerant
	// PolicyRetry never stops on errors; only Interrupt ends the pump.
	PolicyRetry
)

func (p Policy) String() string {
	switch p {
	case PolicyStrict:
		return "strict"
	case PolicyTolerant:
		return "tolerant"
	case PolicyRetry:
		return "retry"
	default:
		return "unknown"
	}
}

// StateMonitor is the Running/Interrupted state machine behind every pump.
type StateMonitor struct {
	name   string
	policy Policy
	limit  uint64

	mu      sync.Mutex
	running bool
	errors  uint64
}

// NewMonitor returns a running monitor with the given policy.
func NewMonitor(name string, policy Policy) *StateMonitor {
	m := &StateMonitor{name: name, policy: policy, limit: 1}
	m.Reset()
	return m
}

// NewStrictMonitor is the per-connection default: any failure ends the session.
func NewStrictMonitor(name string) *StateMonitor {
	return NewMonitor(name, PolicyStrict)
}

// NewRetryMonitor keeps its pump alive through any number of failures.
func NewRetryMonitor(name string) *StateMonitor {
	return NewMonitor(name, PolicyRetry)
}

// NewTolerantMonitor stops after limit errors since the last Reset.
func NewTolerantMonitor(name string, limit uint64) *StateMonitor {
	if limit == 0 {
		limit = 1
	}
	m := NewMonitor(name, PolicyTolerant)
	m.limit = limit
	return m
}

func (m *StateMonitor) Name() string { return m.name }

func (m *StateMonitor) Policy() Policy { return m.policy }

func (m *StateMonitor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.running = true
	m.errors = 0
}

func (m *StateMonitor) HandleError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors++
	switch m.policy {
	case PolicyStrict:
		m.stopLocked("error")
	case PolicyTolerant:
		if m.errors >= m.limit {
			m.stopLocked("error limit")
		}
	}
}

func (m *StateMonitor) IsDone() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.running
}

func (m *StateMonitor) Interrupt() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopLocked("interrupt")
}

// Errors reports failures handled since the last Reset.
func (m *StateMonitor) Errors() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errors
}

// Snapshot is a point-in-time view for status reporting.
type Snapshot struct {
	Name    string `json:"name"`
	Policy  string `json:"policy"`
	Running bool   `json:"running"`
	Errors  uint64 `json:"errors"`
}

func (m *StateMonitor) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{
		Name:    m.name,
		Policy:  m.policy.String(),
		Running: m.running,
		Errors:  m.errors,
	}
}

func (m *StateMonitor) stopLocked(reason string) {
	if !m.running {
		return
	}
	m.running = false
	log.Debug().
		Str("monitor", m.name).
		Str("policy", m.policy.String()).
		Str("reason", reason).
		Uint64("errors", m.errors).
		Msg("pump.StateMonitor stopped")
}

// ParsePolicy accepts strict, tolerant or retry (case-insensitive).
func ParsePolicy(raw string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "strict":
		return PolicyStrict, nil
	case "tolerant":
		return PolicyTolerant, nil
	case "retry":
		return PolicyRetry, nil
	default:
		return PolicyStrict, fmt.Errorf("%w: %q", ErrUnknownPolicy, raw)
	}
}
