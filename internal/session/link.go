package session

import (
	"context"
	"sync"
	"time"

	"github.com/TaciturnJian/bytecomm/internal/protocol"
	"github.com/TaciturnJian/bytecomm/internal/pump"
	"github.com/TaciturnJian/bytecomm/internal/transport"
	"github.com/rs/zerolog/log"
)

// Link bundles the mailboxes and monitors an application shares with a
// running server. Received messages land in Inbox; messages put in Outbox
// are written to whichever device is currently connected.
type Link[V protocol.Verifier] struct {
	cfg Config

	Inbox  *pump.Mailbox[protocol.Message]
	Outbox *pump.Mailbox[protocol.Message]

	ProviderMonitor *pump.StateMonitor
	ReaderMonitor   *pump.StateMonitor
	WriterMonitor   *pump.StateMonitor

	server *Server

	mu     sync.Mutex
	cancel context.CancelFunc
}

func NewLink[V protocol.Verifier](cfg Config, verifier V, provider transport.Provider) (*Link[V], error) {
	l := &Link[V]{
		cfg:             cfg,
		Inbox:           pump.NewMailbox[protocol.Message](),
		Outbox:          pump.NewMailbox[protocol.Message](),
		ProviderMonitor: cfg.monitor("provider", cfg.ProviderPolicy),
		ReaderMonitor:   cfg.monitor("reader", cfg.ReaderPolicy),
		WriterMonitor:   cfg.monitor("writer", cfg.WriterPolicy),
	}
	sessions, err := NewOrchestrator(cfg, verifier, l.Inbox, l.Outbox, l.ReaderMonitor, l.WriterMonitor)
	if err != nil {
		return nil, err
	}
	l.server = NewServer(cfg.Name, provider, sessions, l.ProviderMonitor, cfg.ProviderInterval)
	if err := l.server.Validate(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Link[V]) Config() Config { return l.cfg }

// Run serves until Stop is called or ctx is cancelled.
func (l *Link[V]) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	l.mu.Lock()
	l.cancel = cancel
	l.mu.Unlock()
	defer cancel()
	return l.server.Serve(ctx)
}

// Stop interrupts every monitor and cancels a running Run.
func (l *Link[V]) Stop() {
	l.ProviderMonitor.Interrupt()
	l.ReaderMonitor.Interrupt()
	l.WriterMonitor.Interrupt()
	l.mu.Lock()
	cancel := l.cancel
	l.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	log.Info().Str("link", l.cfg.Name).Msg("session.Link stop requested")
}

// Stopped reports whether the acquisition loop has been told to end.
func (l *Link[V]) Stopped() bool {
	return l.ProviderMonitor.IsDone()
}

// Send queues msg for the writer, replacing any message not yet written.
func (l *Link[V]) Send(msg protocol.Message) {
	l.Outbox.TrySet(msg)
}

// Receive polls Inbox until a message arrives, the link stops, or ctx ends.
// The first wait is poll; later waits back off per Config.ReceiveBackoff.
func (l *Link[V]) Receive(ctx context.Context, poll time.Duration) (protocol.Message, error) {
	if poll <= 0 {
		poll = l.cfg.ReaderInterval
	}
	if poll <= 0 {
		poll = time.Millisecond
	}
	backoff := l.cfg.ReceiveBackoff
	backoff.Initial = poll
	if backoff.Max < poll {
		backoff.Max = poll
	}
	for attempt := 1; ; attempt++ {
		if msg, ok := l.Inbox.TryGet(); ok {
			return msg, nil
		}
		if l.Stopped() {
			return protocol.Message{}, ErrStopped
		}
		if err := wait(ctx, backoff.Delay(attempt, nil)); err != nil {
			return protocol.Message{}, err
		}
	}
}

// Flush waits until the writer has taken the queued outbound message, plus
// one writer interval for the write itself to land.
func (l *Link[V]) Flush(ctx context.Context, poll time.Duration) error {
	if poll <= 0 {
		poll = time.Millisecond
	}
	for l.Outbox.Full() {
		if l.Stopped() {
			return ErrStopped
		}
		if err := wait(ctx, poll); err != nil {
			return err
		}
	}
	return wait(ctx, l.cfg.WriterInterval)
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Monitors returns provider, reader and writer state in that order.
func (l *Link[V]) Monitors() []pump.Snapshot {
	return []pump.Snapshot{
		l.ProviderMonitor.Snapshot(),
		l.ReaderMonitor.Snapshot(),
		l.WriterMonitor.Snapshot(),
	}
}
