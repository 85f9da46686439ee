package transport

import (
	"errors"

	"github.com/TaciturnJian/bytecomm/internal/pump"
)

var (
	ErrAddressRequired = errors.New("transport: address required")
	ErrNoSerialPorts   = errors.New("transport: no serial ports configured")
	ErrProviderClosed  = errors.New("transport: provider closed")
)

// Provider makes one attempt per TryGetItem to produce a ready Device.
// Failures are logged by the provider and reported only as a missing item.
type Provider interface {
	pump.Source[Device]
	IsFunctional() bool
	Close() error
}
