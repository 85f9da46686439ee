package protocol

import "errors"

var (
	ErrShortMessage    = errors.New("protocol: message shorter than head+type+tail")
	ErrSizeMismatch    = errors.New("protocol: payload size mismatch")
	ErrUnsupportedData = errors.New("protocol: payload type has no fixed size")
	ErrUnknownVerifier = errors.New("protocol: unknown verifier")
)
