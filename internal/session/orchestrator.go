package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/TaciturnJian/bytecomm/internal/observability"
	"github.com/TaciturnJian/bytecomm/internal/protocol"
	"github.com/TaciturnJian/bytecomm/internal/protocol/frame"
	"github.com/TaciturnJian/bytecomm/internal/pump"
	"github.com/TaciturnJian/bytecomm/internal/transport"
	"github.com/rs/zerolog/log"
)

// Orchestrator runs one duplex session per acquired device. SetItem blocks
// until both directions have stopped and the device is closed.
type Orchestrator[V protocol.Verifier] struct {
	cfg      Config
	verifier V

	inbox  pump.Destination[protocol.Message]
	outbox pump.Source[protocol.Message]

	readMonitor  pump.Monitor
	writeMonitor pump.Monitor
}

func NewOrchestrator[V protocol.Verifier](
	cfg Config,
	verifier V,
	inbox pump.Destination[protocol.Message],
	outbox pump.Source[protocol.Message],
	readMonitor pump.Monitor,
	writeMonitor pump.Monitor,
) (*Orchestrator[V], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if inbox == nil || outbox == nil {
		return nil, fmt.Errorf("%w: inbox and outbox are required", ErrInvalidConfig)
	}
	if readMonitor == nil || writeMonitor == nil {
		return nil, fmt.Errorf("%w: read and write monitors are required", ErrInvalidConfig)
	}
	// Surface framing errors here rather than on the first session.
	if _, err := frame.NewSizedBuffer(cfg.MessageSize(), cfg.HeadByte, verifier); err != nil {
		return nil, err
	}
	return &Orchestrator[V]{
		cfg:          cfg,
		verifier:     verifier,
		inbox:        inbox,
		outbox:       outbox,
		readMonitor:  readMonitor,
		writeMonitor: writeMonitor,
	}, nil
}

func (o *Orchestrator[V]) SetItem(ctx context.Context, device transport.Device) {
	buffer, err := frame.NewSizedBuffer(o.cfg.MessageSize(), o.cfg.HeadByte, o.verifier)
	if err != nil {
		log.Error().Err(err).Msg("session.Orchestrator buffer init failed")
		_ = device.Close()
		return
	}

	o.readMonitor.Reset()
	o.writeMonitor.Reset()
	finished := observability.SessionStarted()
	started := time.Now()
	log.Info().Str("session", o.cfg.Name).Msg("session.Orchestrator started")

	// Interrupt cannot unblock a pending read; cancellation closes the device instead.
	stopClose := context.AfterFunc(ctx, func() { _ = device.Close() })

	reader := &pump.Pump[protocol.Message]{
		Name:        o.cfg.Name + ".reader",
		Source:      NewReadAdapter(device, buffer),
		Destination: o.inbox,
		Monitor:     o.readMonitor,
		MinInterval: o.cfg.ReaderInterval,
	}
	writer := &pump.Pump[protocol.Message]{
		Name:        o.cfg.Name + ".writer",
		Source:      o.outbox,
		Destination: NewWriteAdapter(device, o.cfg.MessageSize()),
		Monitor:     o.writeMonitor,
		MinInterval: o.cfg.WriterInterval,
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		reader.Run(ctx)
		o.writeMonitor.Interrupt()
	}()
	go func() {
		defer wg.Done()
		writer.Run(ctx)
		o.readMonitor.Interrupt()
	}()
	wg.Wait()

	stopClose()
	if err := device.Close(); err != nil {
		log.Debug().Err(err).Msg("session.Orchestrator device close")
	}
	finished()
	log.Info().
		Str("session", o.cfg.Name).
		Dur("duration", time.Since(started)).
		Msg("session.Orchestrator ended")
}
