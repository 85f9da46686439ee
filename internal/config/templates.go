package config

import (
	"fmt"
	"os"
	"strings"
)

func Template(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case KindTCPListen:
		return tcpListenTemplate, nil
	case KindTCPDial:
		return tcpDialTemplate, nil
	case KindUDP:
		return udpTemplate, nil
	case KindSerial:
		return serialTemplate, nil
	default:
		return "", fmt.Errorf("unknown config kind: %s", kind)
	}
}

func WriteTemplate(path, kind string, overwrite bool) error {
	template, err := Template(kind)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

const protocolSection = `head_byte = 33
data_size = 8
verifier = "tail-zero"
reader_interval_ms = 1
writer_interval_ms = 5
provider_interval_ms = 1000
reader_policy = "strict"
writer_policy = "retry"
provider_policy = "retry"
error_limit = 16
`

const adminSection = `
[admin]
listen_addr = "127.0.0.1:9090"
cors_origins = ["http://localhost:3000"]
`

const tcpListenTemplate = `name = "relay-tcp"
` + protocolSection + `
[transport]
kind = "tcp-listen"
local_addr = "127.0.0.1:8989"
` + adminSection

const tcpDialTemplate = `name = "relay-tcp-client"
` + protocolSection + `
[transport]
kind = "tcp-dial"
remote_addr = "127.0.0.1:8989"
dial_timeout_ms = 5000
` + adminSection

const udpTemplate = `name = "relay-udp"
` + protocolSection + `
[transport]
kind = "udp"
local_addr = "127.0.0.1:8989"
remote_addr = "127.0.0.1:8990"
` + adminSection

const serialTemplate = `name = "relay-serial"
` + protocolSection + `
[transport]
kind = "serial"

[transport.serial]
ports = ["/dev/ttyUSB0", "/dev/ttyACM0"]
baud_rate = 115200
data_bits = 8
stop_bits = 1
parity = "none"
rts_cts_flow_control = false
inter_character_timeout_ms = 100
` + adminSection
