package session

import (
	"context"

	"github.com/TaciturnJian/bytecomm/internal/observability"
	"github.com/TaciturnJian/bytecomm/internal/protocol"
	"github.com/TaciturnJian/bytecomm/internal/protocol/frame"
	"github.com/TaciturnJian/bytecomm/internal/transport"
	"github.com/rs/zerolog/log"
)

// ReadAdapter turns a device into a source of framed messages.
type ReadAdapter[V protocol.Verifier] struct {
	device transport.Device
	buffer *frame.Buffer[V]
	out    []byte
}

func NewReadAdapter[V protocol.Verifier](device transport.Device, buffer *frame.Buffer[V]) *ReadAdapter[V] {
	return &ReadAdapter[V]{
		device: device,
		buffer: buffer,
		out:    make([]byte, buffer.MessageSize()),
	}
}

// TryGetItem reads exactly one message worth of bytes. A short read or a
// window that does not frame is a failed iteration.
func (a *ReadAdapter[V]) TryGetItem(context.Context) (protocol.Message, bool) {
	incoming := a.buffer.Incoming()
	if n := a.device.ReadBytes(incoming); n != len(incoming) {
		return protocol.Message{}, false
	}
	ok := a.buffer.Examine(a.out)
	observability.RecordFrame(a.buffer.LastOutcome().String())
	if !ok {
		return protocol.Message{}, false
	}
	msg, err := protocol.ParseMessage(a.out)
	if err != nil {
		log.Error().Err(err).Msg("session.ReadAdapter parse failed")
		return protocol.Message{}, false
	}
	return msg, true
}

// WriteAdapter turns a device into a destination for messages. Each message
// is one write; the byte count is not checked.
type WriteAdapter struct {
	device transport.Device
	size   int
}

func NewWriteAdapter(device transport.Device, messageSize int) *WriteAdapter {
	return &WriteAdapter{device: device, size: messageSize}
}

func (a *WriteAdapter) SetItem(_ context.Context, msg protocol.Message) {
	if msg.Size() != a.size {
		log.Warn().Int("size", msg.Size()).Int("want", a.size).Msg("session.WriteAdapter dropped mis-sized message")
		return
	}
	a.device.WriteBytes(msg.Bytes())
}
