package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/titanous/json5"
	"gopkg.in/yaml.v3"
)

const (
	DefaultGatewayPort = 18789
	envPrefix          = "GOCLAW_NODE_"
)

// Location modes.
const (
	LocationOff       = "off"
	LocationWhileUsed = "whileUsing"
	LocationAlways    = "always"
)

// Voice wake modes.
const (
	VoiceWakeOff        = "off"
	VoiceWakeForeground = "foreground"
	VoiceWakeAlways     = "always"
)

// Config is the node configuration file (JSON5 or YAML).
type Config struct {
	Gateway   GatewayConfig   `json:"gateway" yaml:"gateway"`
	Node      NodeConfig      `json:"node" yaml:"node"`
	Features  Features        `json:"features" yaml:"features"`
	Canvas    CanvasConfig    `json:"canvas" yaml:"canvas"`
	Log       LogConfig       `json:"log" yaml:"log"`
	Telemetry TelemetryConfig `json:"telemetry" yaml:"telemetry"`
}

// GatewayConfig selects the gateway endpoint. With StableID set the endpoint
// is treated as discovered; otherwise it is a manual endpoint.
type GatewayConfig struct {
	Host  string `json:"host" yaml:"host"`
	Port  int    `json:"port" yaml:"port"`
	TLS   bool   `json:"tls" yaml:"tls"` // opt-in TLS for manual endpoints
	Token string `json:"token,omitempty" yaml:"token,omitempty"`

	StableID       string `json:"stableId,omitempty" yaml:"stableId,omitempty"`
	TLSHint        bool   `json:"tlsHint,omitempty" yaml:"tlsHint,omitempty"`
	TLSFingerprint string `json:"tlsFingerprint,omitempty" yaml:"tlsFingerprint,omitempty"`
}

type NodeConfig struct {
	DisplayName     string `json:"displayName,omitempty" yaml:"displayName,omitempty"`
	InstanceID      string `json:"instanceId,omitempty" yaml:"instanceId,omitempty"`
	ModelIdentifier string `json:"modelIdentifier,omitempty" yaml:"modelIdentifier,omitempty"`
	Platform        string `json:"platform,omitempty" yaml:"platform,omitempty"`
}

// Features are the live flags gating capabilities and commands.
type Features struct {
	Foreground bool   `json:"foreground" yaml:"foreground"`
	Camera     bool   `json:"camera" yaml:"camera"`
	Location   string `json:"location" yaml:"location"`
	SMS        bool   `json:"sms" yaml:"sms"`
	VoiceWake  string `json:"voiceWake" yaml:"voiceWake"`
	Microphone bool   `json:"microphone" yaml:"microphone"`
	Debug      bool   `json:"debug" yaml:"debug"`
}

// CanvasConfig controls the headless browser backing canvas.* commands.
type CanvasConfig struct {
	Enabled    bool   `json:"enabled" yaml:"enabled"`
	BrowserBin string `json:"browserBin,omitempty" yaml:"browserBin,omitempty"`
	Headless   bool   `json:"headless" yaml:"headless"`
	NoSandbox  bool   `json:"noSandbox,omitempty" yaml:"noSandbox,omitempty"`
}

type LogConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format,omitempty" yaml:"format,omitempty"` // text, json; empty picks by terminal
	Ring   int    `json:"ring,omitempty" yaml:"ring,omitempty"`     // records kept for debug.logs
}

type TelemetryConfig struct {
	OTLPEndpoint string `json:"otlpEndpoint,omitempty" yaml:"otlpEndpoint,omitempty"`
	OTLPInsecure bool   `json:"otlpInsecure,omitempty" yaml:"otlpInsecure,omitempty"`
	MetricsAddr  string `json:"metricsAddr,omitempty" yaml:"metricsAddr,omitempty"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Gateway: GatewayConfig{Host: "127.0.0.1", Port: DefaultGatewayPort},
		Node:    NodeConfig{Platform: runtime.GOOS},
		Features: Features{
			Foreground: true,
			Location:   LocationOff,
			VoiceWake:  VoiceWakeOff,
		},
		Canvas: CanvasConfig{Headless: true},
		Log:    LogConfig{Level: "info", Ring: 500},
	}
}

// Load reads path (JSON5 for .json/.json5, YAML for .yaml/.yml) over the
// defaults, then applies GOCLAW_NODE_* environment overrides. An empty path
// yields the defaults plus environment.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := decode(path, data, cfg); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parse yaml config %s: %w", path, err)
		}
	case ".json", ".json5":
		if err := json5.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parse json5 config %s: %w", path, err)
		}
	default:
		return fmt.Errorf("unsupported config format %q", filepath.Ext(path))
	}
	return nil
}

type lookupFunc func(string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(envPrefix + key); ok {
			*dst = strings.TrimSpace(v)
		}
	}
	boolean := func(key string, dst *bool) error {
		v, ok := lookup(envPrefix + key)
		if !ok {
			return nil
		}
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s%s: %w", envPrefix, key, err)
		}
		*dst = b
		return nil
	}

	str("GATEWAY_HOST", &c.Gateway.Host)
	str("GATEWAY_TOKEN", &c.Gateway.Token)
	str("GATEWAY_STABLE_ID", &c.Gateway.StableID)
	str("DISPLAY_NAME", &c.Node.DisplayName)
	str("INSTANCE_ID", &c.Node.InstanceID)
	str("LOCATION", &c.Features.Location)
	str("VOICE_WAKE", &c.Features.VoiceWake)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)
	str("OTLP_ENDPOINT", &c.Telemetry.OTLPEndpoint)
	str("METRICS_ADDR", &c.Telemetry.MetricsAddr)
	str("BROWSER_BIN", &c.Canvas.BrowserBin)

	if v, ok := lookup(envPrefix + "GATEWAY_PORT"); ok {
		port, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%sGATEWAY_PORT: %w", envPrefix, err)
		}
		c.Gateway.Port = port
	}
	for key, dst := range map[string]*bool{
		"GATEWAY_TLS": &c.Gateway.TLS,
		"FOREGROUND":  &c.Features.Foreground,
		"CAMERA":      &c.Features.Camera,
		"SMS":         &c.Features.SMS,
		"MICROPHONE":  &c.Features.Microphone,
		"DEBUG":       &c.Features.Debug,
		"CANVAS":      &c.Canvas.Enabled,
	} {
		if err := boolean(key, dst); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Gateway.Host) == "" {
		return fmt.Errorf("gateway.host is required")
	}
	if c.Gateway.Port < 1 || c.Gateway.Port > 65535 {
		return fmt.Errorf("gateway.port %d out of range", c.Gateway.Port)
	}
	switch c.Features.Location {
	case LocationOff, LocationWhileUsed, LocationAlways:
	default:
		return fmt.Errorf("features.location: unknown mode %q", c.Features.Location)
	}
	switch c.Features.VoiceWake {
	case VoiceWakeOff, VoiceWakeForeground, VoiceWakeAlways:
	default:
		return fmt.Errorf("features.voiceWake: unknown mode %q", c.Features.VoiceWake)
	}
	if c.Log.Ring < 0 {
		return fmt.Errorf("log.ring must not be negative")
	}
	return nil
}
