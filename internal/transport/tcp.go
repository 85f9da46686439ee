package transport

import (
	"context"
	"errors"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// TCPListener accepts one inbound connection per TryGetItem. The listening
// socket is opened lazily and reused across attempts.
type TCPListener struct {
	address string

	mu     sync.Mutex
	ln     *net.TCPListener
	closed bool
}

func NewTCPListener(address string) *TCPListener {
	return &TCPListener{address: strings.TrimSpace(address)}
}

func (p *TCPListener) IsFunctional() bool {
	return p.address != ""
}

// ListenAddr reports the bound address once listening, or nil.
func (p *TCPListener) ListenAddr() net.Addr {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ln == nil {
		return nil
	}
	return p.ln.Addr()
}

// Listen opens the listening socket if it is not open yet.
func (p *TCPListener) Listen(ctx context.Context) (*net.TCPListener, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, ErrProviderClosed
	}
	if p.ln != nil {
		return p.ln, nil
	}
	if p.address == "" {
		return nil, ErrAddressRequired
	}
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", p.address)
	if err != nil {
		return nil, err
	}
	p.ln = ln.(*net.TCPListener)
	log.Info().Str("addr", p.ln.Addr().String()).Msg("transport.TCPListener listening")
	return p.ln, nil
}

func (p *TCPListener) TryGetItem(ctx context.Context) (Device, bool) {
	ln, err := p.Listen(ctx)
	if err != nil {
		log.Error().Str("addr", p.address).Err(err).Msg("transport.TCPListener listen failed")
		return nil, false
	}
	if err := ln.SetDeadline(time.Time{}); err != nil {
		log.Warn().Err(err).Msg("transport.TCPListener clear deadline failed")
	}
	stop := context.AfterFunc(ctx, func() {
		_ = ln.SetDeadline(time.Now())
	})
	defer stop()

	conn, err := ln.AcceptTCP()
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
			return nil, false
		}
		log.Error().Str("addr", p.address).Err(err).Msg("transport.TCPListener accept failed")
		return nil, false
	}
	remote := conn.RemoteAddr().String()
	log.Info().Str("remote", remote).Msg("transport.TCPListener accepted")
	return NewStream("tcp:"+remote, conn), true
}

func (p *TCPListener) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	if p.ln == nil {
		return nil
	}
	err := p.ln.Close()
	p.ln = nil
	return err
}

// TCPDialer connects to a remote endpoint per TryGetItem, optionally from a fixed local address.
type TCPDialer struct {
	localAddr  string
	remoteAddr string
	timeout    time.Duration
}

func NewTCPDialer(localAddr, remoteAddr string, timeout time.Duration) *TCPDialer {
	return &TCPDialer{
		localAddr:  strings.TrimSpace(localAddr),
		remoteAddr: strings.TrimSpace(remoteAddr),
		timeout:    timeout,
	}
}

func (p *TCPDialer) IsFunctional() bool {
	return p.remoteAddr != ""
}

func (p *TCPDialer) TryGetItem(ctx context.Context) (Device, bool) {
	dialer := net.Dialer{Timeout: p.timeout}
	if p.localAddr != "" {
		local, err := net.ResolveTCPAddr("tcp", p.localAddr)
		if err != nil {
			log.Error().Str("local", p.localAddr).Err(err).Msg("transport.TCPDialer bind address invalid")
			return nil, false
		}
		dialer.LocalAddr = local
	}
	conn, err := dialer.DialContext(ctx, "tcp", p.remoteAddr)
	if err != nil {
		log.Error().Str("remote", p.remoteAddr).Err(err).Msg("transport.TCPDialer connect failed")
		return nil, false
	}
	log.Info().Str("local", conn.LocalAddr().String()).Str("remote", p.remoteAddr).Msg("transport.TCPDialer connected")
	return NewStream("tcp:"+p.remoteAddr, conn), true
}

func (p *TCPDialer) Close() error { return nil }
