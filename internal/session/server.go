package session

import (
	"context"
	"fmt"
	"time"

	"github.com/TaciturnJian/bytecomm/internal/pump"
	"github.com/TaciturnJian/bytecomm/internal/transport"
	"github.com/rs/zerolog/log"
)

// Server is the acquisition loop: acquire a device, run a session on it
// until it breaks, acquire the next one.
type Server struct {
	provider transport.Provider
	pump     *pump.Pump[transport.Device]
}

func NewServer(
	name string,
	provider transport.Provider,
	sessions pump.Destination[transport.Device],
	monitor pump.Monitor,
	interval time.Duration,
) *Server {
	s := &Server{provider: provider}
	s.pump = &pump.Pump[transport.Device]{
		Name:        name + ".provider",
		Destination: sessions,
		Monitor:     monitor,
		MinInterval: interval,
	}
	if provider != nil {
		s.pump.Source = provider
	}
	return s
}

func (s *Server) Validate() error {
	if s.provider == nil {
		return fmt.Errorf("%w: nil provider", ErrNotFunctional)
	}
	if !s.provider.IsFunctional() {
		return ErrNotFunctional
	}
	return s.pump.Validate()
}

// Serve runs until the acquisition monitor is done or ctx is cancelled,
// then closes the provider.
func (s *Server) Serve(ctx context.Context) error {
	if err := s.Validate(); err != nil {
		return err
	}
	log.Info().Str("server", s.pump.Name).Msg("session.Server serving")
	s.pump.Run(ctx)
	if err := s.provider.Close(); err != nil {
		log.Warn().Err(err).Msg("session.Server provider close failed")
	}
	log.Info().Str("server", s.pump.Name).Msg("session.Server stopped")
	return nil
}
