package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/TaciturnJian/bytecomm/internal/protocol"
	"github.com/TaciturnJian/bytecomm/internal/pump"
)

var (
	ErrInvalidConfig = errors.New("session: invalid config")
	ErrNotFunctional = errors.New("session: provider not functional")
	ErrStopped       = errors.New("session: link stopped")
)

// Config holds construction-time policy for one link.
type Config struct {
	Name     string
	HeadByte byte
	DataSize int

	ReaderInterval   time.Duration
	WriterInterval   time.Duration
	ProviderInterval time.Duration

	ReaderPolicy   pump.Policy
	WriterPolicy   pump.Policy
	ProviderPolicy pump.Policy
	// ErrorLimit applies to monitors using the tolerant policy.
	ErrorLimit uint64

	// ReceiveBackoff paces Link.Receive while the inbox stays empty;
	// Initial is replaced by the caller's poll interval.
	ReceiveBackoff Backoff
}

// DefaultConfig matches the relay testers: 8 byte payloads framed by '!',
// 1ms reads, 5ms writes and one acquisition attempt per second.
// An empty outbox is a normal state, so the writer retries instead of failing.
func DefaultConfig() Config {
	return Config{
		Name:             "bytecomm",
		HeadByte:         protocol.DefaultHeadByte,
		DataSize:         8,
		ReaderInterval:   time.Millisecond,
		WriterInterval:   5 * time.Millisecond,
		ProviderInterval: time.Second,
		ReaderPolicy:     pump.PolicyStrict,
		WriterPolicy:     pump.PolicyRetry,
		ProviderPolicy:   pump.PolicyRetry,
		ErrorLimit:       16,
		ReceiveBackoff: Backoff{
			Multiplier: 2,
			Max:        100 * time.Millisecond,
		},
	}
}

// MessageSize is the wire size of one message under this config.
func (c Config) MessageSize() int {
	return protocol.SizeFor(c.DataSize)
}

func (c Config) Validate() error {
	if c.DataSize < 0 {
		return fmt.Errorf("%w: negative data size %d", ErrInvalidConfig, c.DataSize)
	}
	if c.ReaderInterval < 0 || c.WriterInterval < 0 || c.ProviderInterval < 0 {
		return fmt.Errorf("%w: negative interval", ErrInvalidConfig)
	}
	return nil
}

func (c Config) monitor(role string, policy pump.Policy) *pump.StateMonitor {
	name := c.Name + "." + role
	if policy == pump.PolicyTolerant {
		return pump.NewTolerantMonitor(name, c.ErrorLimit)
	}
	return pump.NewMonitor(name, policy)
}
