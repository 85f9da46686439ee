package pump

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/TaciturnJian/bytecomm/internal/observability"
	"github.com/rs/zerolog/log"
)

var ErrNotFunctional = errors.New("pump: not functional")

// Source yields at most one item per call without reporting why it failed.
type Source[T any] interface {
	TryGetItem(ctx context.Context) (T, bool)
}

// Destination accepts one item per call. It may block until the item is handled.
type Destination[T any] interface {
	SetItem(ctx context.Context, item T)
}

// SourceFunc adapts a function to Source.
type SourceFunc[T any] func(ctx context.Context) (T, bool)

func (f SourceFunc[T]) TryGetItem(ctx context.Context) (T, bool) { return f(ctx) }

// DestinationFunc adapts a function to Destination.
type DestinationFunc[T any] func(ctx context.Context, item T)

func (f DestinationFunc[T]) SetItem(ctx context.Context, item T) { f(ctx, item) }

// Pump moves one item per iteration from Source to Destination, sleeping
// MinInterval before every attempt. Failures go to Monitor; the pump never
// distinguishes their causes and holds no item across iterations.
type Pump[T any] struct {
	Name        string
	Source      Source[T]
	Destination Destination[T]
	Monitor     Monitor
	MinInterval time.Duration
}

// Validate reports whether the pump is wired well enough to Run.
func (p *Pump[T]) Validate() error {
	if p == nil {
		return fmt.Errorf("%w: nil pump", ErrNotFunctional)
	}
	if p.Source == nil {
		return fmt.Errorf("%w: %s missing source", ErrNotFunctional, p.Name)
	}
	if p.Destination == nil {
		return fmt.Errorf("%w: %s missing destination", ErrNotFunctional, p.Name)
	}
	if p.Monitor == nil {
		return fmt.Errorf("%w: %s missing monitor", ErrNotFunctional, p.Name)
	}
	if p.MinInterval < 0 {
		return fmt.Errorf("%w: %s negative interval %v", ErrNotFunctional, p.Name, p.MinInterval)
	}
	return nil
}

// Run loops until the monitor reports done. Cancelling ctx interrupts the
// monitor and cuts the current sleep short; it does not preempt a blocked
// Source or Destination call.
func (p *Pump[T]) Run(ctx context.Context) {
	for !p.Monitor.IsDone() {
		if !p.sleep(ctx) {
			p.Monitor.Interrupt()
			break
		}
		// An interrupt that lands during the sleep ends the pump before another attempt.
		if p.Monitor.IsDone() {
			break
		}
		item, ok := p.Source.TryGetItem(ctx)
		observability.RecordPumpIteration(p.Name, ok)
		if !ok {
			p.Monitor.HandleError()
			continue
		}
		p.Destination.SetItem(ctx, item)
	}
	log.Debug().Str("pump", p.Name).Msg("pump.Pump.Run finished")
}

func (p *Pump[T]) sleep(ctx context.Context) bool {
	if p.MinInterval <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(p.MinInterval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
