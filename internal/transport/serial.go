package transport

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/jacobsa/go-serial/serial"
	"github.com/rs/zerolog/log"
)

// OpenFunc opens a serial port. It matches serial.Open.
type OpenFunc func(serial.OpenOptions) (io.ReadWriteCloser, error)

// SerialProvider tries each candidate port in order with the same options;
// the first port that opens becomes the device.
type SerialProvider struct {
	ports   []string
	options serial.OpenOptions
	open    OpenFunc
}

func NewSerialProvider(ports []string, options serial.OpenOptions) *SerialProvider {
	cleaned := make([]string, 0, len(ports))
	for _, port := range ports {
		if port = strings.TrimSpace(port); port != "" {
			cleaned = append(cleaned, port)
		}
	}
	return &SerialProvider{ports: cleaned, options: options, open: serial.Open}
}

// WithOpener replaces the port opener. Used by tests and by platforms that
// need a different backend.
func (p *SerialProvider) WithOpener(open OpenFunc) *SerialProvider {
	if open != nil {
		p.open = open
	}
	return p
}

func (p *SerialProvider) Ports() []string {
	return append([]string(nil), p.ports...)
}

func (p *SerialProvider) IsFunctional() bool {
	return len(p.ports) > 0 && p.options.BaudRate > 0
}

func (p *SerialProvider) TryGetItem(ctx context.Context) (Device, bool) {
	if len(p.ports) == 0 {
		log.Error().Err(ErrNoSerialPorts).Msg("transport.SerialProvider open failed")
		return nil, false
	}
	for _, port := range p.ports {
		if ctx.Err() != nil {
			return nil, false
		}
		opts := p.options
		opts.PortName = port
		rwc, err := p.open(opts)
		if err != nil {
			log.Warn().Str("port", port).Err(err).Msg("transport.SerialProvider port unavailable")
			continue
		}
		log.Info().Str("port", port).Uint("baud", opts.BaudRate).Msg("transport.SerialProvider opened")
		return NewStream("serial:"+port, rwc), true
	}
	log.Error().Strs("ports", p.ports).Msg("transport.SerialProvider no port opened")
	return nil, false
}

func (p *SerialProvider) Close() error { return nil }

// ParityMode maps none/odd/even (empty means none) onto the serial package constants.
func ParityMode(name string) (serial.ParityMode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "none":
		return serial.PARITY_NONE, nil
	case "odd":
		return serial.PARITY_ODD, nil
	case "even":
		return serial.PARITY_EVEN, nil
	default:
		return serial.PARITY_NONE, fmt.Errorf("unknown parity %q", name)
	}
}
