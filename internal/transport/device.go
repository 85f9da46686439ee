package transport

import (
	"errors"
	"io"
	"net"
	"sync"

	"github.com/rs/zerolog/log"
)

// Device is a duplex byte device. Both calls block; a result shorter than
// len(buf) signals an error or EOF and the device should be considered broken.
type Device interface {
	ReadBytes(buf []byte) int
	WriteBytes(buf []byte) int
	Close() error
}

// Stream adapts a stream-oriented connection (TCP, serial) to Device.
// Reads fill the whole buffer before returning.
type Stream struct {
	name string
	rw   io.ReadWriteCloser

	closeOnce sync.Once
	closeErr  error
}

func NewStream(name string, rw io.ReadWriteCloser) *Stream {
	return &Stream{name: name, rw: rw}
}

func (s *Stream) Name() string { return s.name }

func (s *Stream) ReadBytes(buf []byte) int {
	n, err := io.ReadFull(s.rw, buf)
	if err != nil {
		logIOFailure("read", s.name, n, len(buf), err)
	}
	return n
}

func (s *Stream) WriteBytes(buf []byte) int {
	n, err := s.rw.Write(buf)
	if err != nil {
		logIOFailure("write", s.name, n, len(buf), err)
	}
	return n
}

func (s *Stream) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.rw.Close()
	})
	return s.closeErr
}

// Datagram adapts a connected packet socket to Device: one receive or send per call.
type Datagram struct {
	name string
	conn net.Conn

	closeOnce sync.Once
	closeErr  error
}

func NewDatagram(name string, conn net.Conn) *Datagram {
	return &Datagram{name: name, conn: conn}
}

func (d *Datagram) Name() string { return d.name }

func (d *Datagram) ReadBytes(buf []byte) int {
	n, err := d.conn.Read(buf)
	if err != nil {
		logIOFailure("read", d.name, n, len(buf), err)
	}
	return n
}

func (d *Datagram) WriteBytes(buf []byte) int {
	n, err := d.conn.Write(buf)
	if err != nil {
		logIOFailure("write", d.name, n, len(buf), err)
	}
	return n
}

func (d *Datagram) Close() error {
	d.closeOnce.Do(func() {
		d.closeErr = d.conn.Close()
	})
	return d.closeErr
}

func logIOFailure(op, name string, got, want int, err error) {
	// Closed devices are the normal end of a session.
	if errors.Is(err, net.ErrClosed) || errors.Is(err, io.EOF) {
		log.Debug().Str("device", name).Str("op", op).Int("got", got).Int("want", want).Err(err).
			Msg("transport.Device closed")
		return
	}
	log.Error().Str("device", name).Str("op", op).Int("got", got).Int("want", want).Err(err).
		Msg("transport.Device io failed")
}
