package main

import (
	"bytes"
	"context"
	"io"
	"net"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/TaciturnJian/bytecomm/internal/config"
	"github.com/TaciturnJian/bytecomm/internal/protocol"
	"github.com/TaciturnJian/bytecomm/internal/session"
	"github.com/TaciturnJian/bytecomm/internal/testutil/testlog"
)

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	testlog.Start(t)

	out, err := runCmd(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.Contains(out, "bytecommctl version "+version) {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestInitThenValidate(t *testing.T) {
	testlog.Start(t)

	path := filepath.Join(t.TempDir(), "relay.toml")
	if _, err := runCmd(t, "init", "--kind", config.KindUDP, "--out", path); err != nil {
		t.Fatalf("init: %v", err)
	}
	if _, err := runCmd(t, "init", "--kind", config.KindUDP, "--out", path); err == nil {
		t.Fatalf("expected init to refuse overwrite")
	}
	if _, err := runCmd(t, "init", "--kind", config.KindUDP, "--out", path, "--force"); err != nil {
		t.Fatalf("init --force: %v", err)
	}
	out, err := runCmd(t, "validate", "--config", path)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !strings.Contains(out, "validated udp config") {
		t.Fatalf("unexpected output %q", out)
	}
	if _, err := runCmd(t, "init", "--kind", "carrier-pigeon", "--out", filepath.Join(t.TempDir(), "x.toml")); err == nil {
		t.Fatalf("expected unknown kind error")
	}
}

type fakeEchoLink struct {
	mu      sync.Mutex
	inbox   []protocol.Message
	sent    []protocol.Message
	stopped bool
}

func (l *fakeEchoLink) Receive(ctx context.Context, _ time.Duration) (protocol.Message, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.inbox) == 0 {
		return protocol.Message{}, session.ErrStopped
	}
	msg := l.inbox[0]
	l.inbox = l.inbox[1:]
	return msg, nil
}

func (l *fakeEchoLink) Send(msg protocol.Message) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sent = append(l.sent, msg)
}

func (l *fakeEchoLink) Flush(context.Context, time.Duration) error { return nil }

func TestEchoHonorsLimitAndStop(t *testing.T) {
	testlog.Start(t)

	msgs := []protocol.Message{protocol.NewMessage(2), protocol.NewMessage(2), protocol.NewMessage(2)}
	msgs[1].Type = 1
	msgs[2].Type = 2

	link := &fakeEchoLink{inbox: append([]protocol.Message(nil), msgs...)}
	n, err := echo(context.Background(), link, 2, time.Millisecond)
	if err != nil || n != 2 {
		t.Fatalf("expected two echoes, n=%d err=%v", n, err)
	}
	if len(link.sent) != 2 || link.sent[1].Type != 1 {
		t.Fatalf("unexpected sent messages: %+v", link.sent)
	}

	n, err = echo(context.Background(), link, 0, time.Millisecond)
	if err != nil || n != 1 {
		t.Fatalf("expected stop after the remaining message, n=%d err=%v", n, err)
	}
}

func TestServeEchoesOverTCPDial(t *testing.T) {
	testlog.Start(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	cfg := config.DefaultConfig()
	cfg.Name = "serve-test"
	cfg.DataSize = 4
	cfg.ProviderIntervalMS = 1
	cfg.Transport = config.TransportConfig{
		Kind:          config.KindTCPDial,
		RemoteAddr:    ln.Addr().String(),
		DialTimeoutMS: 1000,
	}
	if err := config.Validate(cfg); err != nil {
		t.Fatalf("config: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		done <- serve(context.Background(), cfg, serveOptions{count: 2, noAdmin: true, poll: time.Millisecond})
	}()

	_ = ln.(*net.TCPListener).SetDeadline(time.Now().Add(2 * time.Second))
	conn, err := ln.Accept()
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(3 * time.Second))

	for i := byte(1); i <= 2; i++ {
		msg := protocol.NewMessage(4)
		msg.Type = i
		msg.Data[0] = i * 10
		if _, err := conn.Write(msg.Bytes()); err != nil {
			t.Fatalf("write %d: %v", i, err)
		}
		got := make([]byte, msg.Size())
		if _, err := io.ReadFull(conn, got); err != nil {
			t.Fatalf("read echo %d: %v", i, err)
		}
		if !bytes.Equal(got, msg.Bytes()) {
			t.Fatalf("echo %d mismatch: % X", i, got)
		}
	}

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("serve did not return after reaching the count")
	}
}
