package config

import (
	"fmt"
	"time"

	"github.com/TaciturnJian/bytecomm/internal/protocol"
	"github.com/TaciturnJian/bytecomm/internal/pump"
	"github.com/TaciturnJian/bytecomm/internal/session"
	"github.com/TaciturnJian/bytecomm/internal/transport"
	"github.com/jacobsa/go-serial/serial"
)

func millis(ms int64) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

// SessionConfig maps the file's protocol options onto session.Config.
func SessionConfig(cfg Config) (session.Config, error) {
	out := session.DefaultConfig()
	out.Name = cfg.Name
	out.HeadByte = cfg.HeadByte
	out.DataSize = cfg.DataSize
	out.ReaderInterval = millis(cfg.ReaderIntervalMS)
	out.WriterInterval = millis(cfg.WriterIntervalMS)
	out.ProviderInterval = millis(cfg.ProviderIntervalMS)
	if cfg.ErrorLimit > 0 {
		out.ErrorLimit = cfg.ErrorLimit
	}

	policies := []struct {
		raw string
		dst *pump.Policy
	}{
		{cfg.ReaderPolicy, &out.ReaderPolicy},
		{cfg.WriterPolicy, &out.WriterPolicy},
		{cfg.ProviderPolicy, &out.ProviderPolicy},
	}
	for _, p := range policies {
		if p.raw == "" {
			continue
		}
		policy, err := pump.ParsePolicy(p.raw)
		if err != nil {
			return session.Config{}, err
		}
		*p.dst = policy
	}
	return out, out.Validate()
}

// Verifier resolves the configured verifier name.
func Verifier(cfg Config) (protocol.Verifier, error) {
	return protocol.VerifierByName(cfg.Verifier)
}

// NewProvider builds the device provider selected by cfg.Kind.
func NewProvider(cfg TransportConfig) (transport.Provider, error) {
	switch cfg.Kind {
	case KindTCPListen:
		return transport.NewTCPListener(cfg.LocalAddr), nil
	case KindTCPDial:
		return transport.NewTCPDialer(cfg.LocalAddr, cfg.RemoteAddr, millis(cfg.DialTimeoutMS)), nil
	case KindUDP:
		return transport.NewUDPPeer(cfg.LocalAddr, cfg.RemoteAddr), nil
	case KindSerial:
		opts, err := SerialOptions(cfg.Serial)
		if err != nil {
			return nil, err
		}
		return transport.NewSerialProvider(cfg.Serial.Ports, opts), nil
	default:
		return nil, fmt.Errorf("unknown transport kind %q", cfg.Kind)
	}
}

// SerialOptions converts the [transport.serial] section. PortName is filled
// per candidate by the provider.
func SerialOptions(cfg SerialConfig) (serial.OpenOptions, error) {
	parity, err := transport.ParityMode(cfg.Parity)
	if err != nil {
		return serial.OpenOptions{}, err
	}
	minRead := cfg.MinimumReadSize
	if minRead == 0 && cfg.InterCharacterTimeoutMS == 0 {
		minRead = 1
	}
	return serial.OpenOptions{
		BaudRate:              cfg.BaudRate,
		DataBits:              cfg.DataBits,
		StopBits:              cfg.StopBits,
		ParityMode:            parity,
		RTSCTSFlowControl:     cfg.RTSCTSFlowControl,
		InterCharacterTimeout: cfg.InterCharacterTimeoutMS,
		MinimumReadSize:       minRead,
	}, nil
}
