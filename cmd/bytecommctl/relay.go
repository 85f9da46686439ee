package main

import (
	"context"
	"errors"
	"time"

	"github.com/TaciturnJian/bytecomm/internal/protocol"
	"github.com/TaciturnJian/bytecomm/internal/session"
	"github.com/rs/zerolog/log"
)

type echoLink interface {
	Receive(ctx context.Context, poll time.Duration) (protocol.Message, error)
	Send(msg protocol.Message)
	Flush(ctx context.Context, poll time.Duration) error
}

// echo sends every received message straight back. limit <= 0 means no limit.
// It returns the number of messages echoed.
func echo(ctx context.Context, link echoLink, limit int, poll time.Duration) (int, error) {
	handled := 0
	for limit <= 0 || handled < limit {
		msg, err := link.Receive(ctx, poll)
		if err != nil {
			if errors.Is(err, session.ErrStopped) || errors.Is(err, context.Canceled) {
				return handled, nil
			}
			return handled, err
		}
		handled++
		log.Info().Int("n", handled).Uint8("type", msg.Type).Str("message", msg.String()).Msg("bytecommctl echo")
		link.Send(msg)
	}

	flushCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := link.Flush(flushCtx, poll); err != nil && !errors.Is(err, session.ErrStopped) {
		log.Warn().Err(err).Msg("bytecommctl echo flush incomplete")
	}
	return handled, nil
}
