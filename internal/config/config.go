package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/TaciturnJian/bytecomm/internal/protocol"
	"github.com/TaciturnJian/bytecomm/internal/pump"
	"gopkg.in/yaml.v3"
)

const (
	KindTCPListen = "tcp-listen"
	KindTCPDial   = "tcp-dial"
	KindUDP       = "udp"
	KindSerial    = "serial"
)

// Config is the on-disk shape of one relay process.
type Config struct {
	Name               string          `toml:"name" yaml:"name"`
	HeadByte           uint8           `toml:"head_byte" yaml:"head_byte"`
	DataSize           int             `toml:"data_size" yaml:"data_size"`
	Verifier           string          `toml:"verifier" yaml:"verifier"`
	ReaderIntervalMS   int64           `toml:"reader_interval_ms" yaml:"reader_interval_ms"`
	WriterIntervalMS   int64           `toml:"writer_interval_ms" yaml:"writer_interval_ms"`
	ProviderIntervalMS int64           `toml:"provider_interval_ms" yaml:"provider_interval_ms"`
	ReaderPolicy       string          `toml:"reader_policy" yaml:"reader_policy"`
	WriterPolicy       string          `toml:"writer_policy" yaml:"writer_policy"`
	ProviderPolicy     string          `toml:"provider_policy" yaml:"provider_policy"`
	ErrorLimit         uint64          `toml:"error_limit" yaml:"error_limit"`
	Transport          TransportConfig `toml:"transport" yaml:"transport"`
	Admin              AdminConfig     `toml:"admin" yaml:"admin"`
}

type TransportConfig struct {
	Kind          string       `toml:"kind" yaml:"kind"`
	LocalAddr     string       `toml:"local_addr" yaml:"local_addr"`
	RemoteAddr    string       `toml:"remote_addr" yaml:"remote_addr"`
	DialTimeoutMS int64        `toml:"dial_timeout_ms" yaml:"dial_timeout_ms"`
	Serial        SerialConfig `toml:"serial" yaml:"serial"`
}

type SerialConfig struct {
	Ports                   []string `toml:"ports" yaml:"ports"`
	BaudRate                uint     `toml:"baud_rate" yaml:"baud_rate"`
	DataBits                uint     `toml:"data_bits" yaml:"data_bits"`
	StopBits                uint     `toml:"stop_bits" yaml:"stop_bits"`
	Parity                  string   `toml:"parity" yaml:"parity"`
	RTSCTSFlowControl       bool     `toml:"rts_cts_flow_control" yaml:"rts_cts_flow_control"`
	InterCharacterTimeoutMS uint     `toml:"inter_character_timeout_ms" yaml:"inter_character_timeout_ms"`
	MinimumReadSize         uint     `toml:"minimum_read_size" yaml:"minimum_read_size"`
}

type AdminConfig struct {
	ListenAddr  string   `toml:"listen_addr" yaml:"listen_addr"`
	CorsOrigins []string `toml:"cors_origins" yaml:"cors_origins"`
	Token       string   `toml:"token" yaml:"token"` // guards POST /stop when set
}

// DefaultConfig mirrors the reference testers: 8 byte payload, tail-zero,
// 1ms reads, 5ms writes, one acquisition attempt per second.
func DefaultConfig() Config {
	return Config{
		Name:               "bytecomm",
		HeadByte:           '!',
		DataSize:           8,
		Verifier:           "tail-zero",
		ReaderIntervalMS:   1,
		WriterIntervalMS:   5,
		ProviderIntervalMS: 1000,
		ReaderPolicy:       "strict",
		WriterPolicy:       "retry",
		ProviderPolicy:     "retry",
		ErrorLimit:         16,
		Transport: TransportConfig{
			Kind:          KindTCPListen,
			LocalAddr:     "127.0.0.1:8989",
			DialTimeoutMS: 5000,
			Serial: SerialConfig{
				BaudRate:                115200,
				DataBits:                8,
				StopBits:                1,
				Parity:                  "none",
				InterCharacterTimeoutMS: 100,
			},
		},
	}
}

// Load reads a TOML (default) or YAML (.yaml/.yml) file over DefaultConfig.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := loadYAML(path, &cfg); err != nil {
			return Config{}, err
		}
	default:
		if err := loadTOML(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	cfg.normalize()
	if err := Validate(cfg); err != nil {
		return Config{}, fmt.Errorf("config invalid (%s): %w", path, err)
	}
	return cfg, nil
}

func loadTOML(path string, out *Config) error {
	meta, err := toml.DecodeFile(path, out)
	if err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, key := range undecoded {
			keys = append(keys, key.String())
		}
		return fmt.Errorf("config parse failed (%s): unknown keys %s", path, strings.Join(keys, ", "))
	}
	return nil
}

func loadYAML(path string, out *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}

func (c *Config) normalize() {
	c.Name = strings.TrimSpace(c.Name)
	c.Verifier = strings.TrimSpace(c.Verifier)
	c.ReaderPolicy = strings.ToLower(strings.TrimSpace(c.ReaderPolicy))
	c.WriterPolicy = strings.ToLower(strings.TrimSpace(c.WriterPolicy))
	c.ProviderPolicy = strings.ToLower(strings.TrimSpace(c.ProviderPolicy))
	c.Transport.Kind = strings.ToLower(strings.TrimSpace(c.Transport.Kind))
	c.Transport.LocalAddr = strings.TrimSpace(c.Transport.LocalAddr)
	c.Transport.RemoteAddr = strings.TrimSpace(c.Transport.RemoteAddr)
	c.Transport.Serial.Parity = strings.ToLower(strings.TrimSpace(c.Transport.Serial.Parity))
	c.Admin.ListenAddr = strings.TrimSpace(c.Admin.ListenAddr)
	c.Admin.Token = strings.TrimSpace(c.Admin.Token)
}

func Validate(cfg Config) error {
	if cfg.Name == "" {
		return fmt.Errorf("missing name")
	}
	if cfg.DataSize < 0 {
		return fmt.Errorf("data_size must not be negative")
	}
	if cfg.ReaderIntervalMS < 0 || cfg.WriterIntervalMS < 0 || cfg.ProviderIntervalMS < 0 {
		return fmt.Errorf("intervals must not be negative")
	}
	if _, err := protocol.VerifierByName(cfg.Verifier); err != nil {
		return err
	}
	for _, policy := range []string{cfg.ReaderPolicy, cfg.WriterPolicy, cfg.ProviderPolicy} {
		if _, err := pump.ParsePolicy(policy); err != nil {
			return err
		}
	}
	if err := ValidateTransport(cfg.Transport); err != nil {
		return fmt.Errorf("transport invalid: %w", err)
	}
	return nil
}

func ValidateTransport(cfg TransportConfig) error {
	switch cfg.Kind {
	case KindTCPListen:
		if cfg.LocalAddr == "" {
			return fmt.Errorf("local_addr is required for %s", cfg.Kind)
		}
	case KindTCPDial:
		if cfg.RemoteAddr == "" {
			return fmt.Errorf("remote_addr is required for %s", cfg.Kind)
		}
		if cfg.DialTimeoutMS < 0 {
			return fmt.Errorf("dial_timeout_ms must not be negative")
		}
	case KindUDP:
		if cfg.LocalAddr == "" || cfg.RemoteAddr == "" {
			return fmt.Errorf("local_addr and remote_addr are required for %s", cfg.Kind)
		}
	case KindSerial:
		return ValidateSerial(cfg.Serial)
	default:
		return fmt.Errorf("unknown kind %q", cfg.Kind)
	}
	return nil
}

func ValidateSerial(cfg SerialConfig) error {
	if len(cfg.Ports) == 0 {
		return fmt.Errorf("serial.ports is required")
	}
	for i, port := range cfg.Ports {
		if strings.TrimSpace(port) == "" {
			return fmt.Errorf("serial.ports[%d] is empty", i)
		}
	}
	if cfg.BaudRate == 0 {
		return fmt.Errorf("serial.baud_rate is required")
	}
	switch cfg.Parity {
	case "", "none", "odd", "even":
	default:
		return fmt.Errorf("serial.parity %q (expected none, odd or even)", cfg.Parity)
	}
	return nil
}
