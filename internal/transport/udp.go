package transport

import (
	"context"
	"net"
	"strings"

	"github.com/rs/zerolog/log"
)

// UDPPeer binds a local endpoint and connects it to one remote endpoint.
type UDPPeer struct {
	localAddr  string
	remoteAddr string
}

func NewUDPPeer(localAddr, remoteAddr string) *UDPPeer {
	return &UDPPeer{
		localAddr:  strings.TrimSpace(localAddr),
		remoteAddr: strings.TrimSpace(remoteAddr),
	}
}

func (p *UDPPeer) IsFunctional() bool {
	return p.localAddr != "" && p.remoteAddr != ""
}

func (p *UDPPeer) TryGetItem(ctx context.Context) (Device, bool) {
	if ctx.Err() != nil {
		return nil, false
	}
	local, err := net.ResolveUDPAddr("udp", p.localAddr)
	if err != nil {
		log.Error().Str("local", p.localAddr).Err(err).Msg("transport.UDPPeer bind address invalid")
		return nil, false
	}
	remote, err := net.ResolveUDPAddr("udp", p.remoteAddr)
	if err != nil {
		log.Error().Str("remote", p.remoteAddr).Err(err).Msg("transport.UDPPeer remote address invalid")
		return nil, false
	}
	conn, err := net.DialUDP("udp", local, remote)
	if err != nil {
		log.Error().Str("local", p.localAddr).Str("remote", p.remoteAddr).Err(err).Msg("transport.UDPPeer connect failed")
		return nil, false
	}
	log.Info().Str("local", conn.LocalAddr().String()).Str("remote", p.remoteAddr).Msg("transport.UDPPeer connected")
	return NewDatagram("udp:"+p.remoteAddr, conn), true
}

func (p *UDPPeer) Close() error { return nil }
