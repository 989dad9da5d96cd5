package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Gateway.Port != DefaultGatewayPort || !cfg.Features.Foreground {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.Features.Location != LocationOff || cfg.Features.VoiceWake != VoiceWakeOff {
		t.Fatalf("unexpected feature defaults %+v", cfg.Features)
	}
}

func TestLoad_JSON5(t *testing.T) {
	path := writeFile(t, "node.json5", `{
  // comments and trailing commas are fine
  gateway: { host: "gw.local", port: 19000, tls: true, },
  features: { camera: true, location: "whileUsing", },
}`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Gateway.Host != "gw.local" || cfg.Gateway.Port != 19000 || !cfg.Gateway.TLS {
		t.Fatalf("unexpected gateway %+v", cfg.Gateway)
	}
	if !cfg.Features.Camera || cfg.Features.Location != LocationWhileUsed {
		t.Fatalf("unexpected features %+v", cfg.Features)
	}
	// untouched keys keep defaults
	if !cfg.Features.Foreground || cfg.Log.Level != "info" {
		t.Fatalf("defaults lost: %+v", cfg)
	}
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "node.yaml", `
gateway:
  host: 10.0.0.2
  stableId: "_goclaw._tcp|local.|office"
node:
  displayName: Office Node
features:
  sms: true
  voiceWake: always
  microphone: true
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Gateway.Host != "10.0.0.2" || cfg.Gateway.StableID == "" {
		t.Fatalf("unexpected gateway %+v", cfg.Gateway)
	}
	if cfg.Node.DisplayName != "Office Node" || !cfg.Features.SMS || cfg.Features.VoiceWake != VoiceWakeAlways {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestLoad_Errors(t *testing.T) {
	cases := []struct {
		name, file, body, want string
	}{
		{"unknown extension", "node.toml", "x = 1", "unsupported config format"},
		{"bad port", "node.yaml", "gateway:\n  port: 70000\n", "out of range"},
		{"bad location", "node.yaml", "features:\n  location: sometimes\n", "features.location"},
		{"bad voice wake", "node.json", `{features: {voiceWake: "loud"}}`, "features.voiceWake"},
		{"syntax", "node.json5", `{gateway: `, "parse json5"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tc.file, tc.body))
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected %q error, got %v", tc.want, err)
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"GOCLAW_NODE_GATEWAY_HOST": " gw.example ",
		"GOCLAW_NODE_GATEWAY_PORT": "443",
		"GOCLAW_NODE_GATEWAY_TLS":  "true",
		"GOCLAW_NODE_CAMERA":       "1",
		"GOCLAW_NODE_LOG_LEVEL":    "debug",
	}
	cfg := Default()
	err := cfg.applyEnv(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})
	if err != nil {
		t.Fatalf("applyEnv: %v", err)
	}
	if cfg.Gateway.Host != "gw.example" || cfg.Gateway.Port != 443 || !cfg.Gateway.TLS {
		t.Fatalf("unexpected gateway %+v", cfg.Gateway)
	}
	if !cfg.Features.Camera || cfg.Log.Level != "debug" {
		t.Fatalf("unexpected overrides %+v", cfg)
	}
}

func TestApplyEnv_Invalid(t *testing.T) {
	cfg := Default()
	err := cfg.applyEnv(func(k string) (string, bool) {
		if k == "GOCLAW_NODE_DEBUG" {
			return "maybe", true
		}
		return "", false
	})
	if err == nil || !strings.Contains(err.Error(), "GOCLAW_NODE_DEBUG") {
		t.Fatalf("expected env parse error, got %v", err)
	}
}

func TestLive_Flags(t *testing.T) {
	cfg := Default()
	cfg.Features.Camera = true
	cfg.Features.Location = LocationAlways
	cfg.Features.VoiceWake = VoiceWakeForeground
	cfg.Gateway.TLS = true
	l := NewLive(cfg, "")

	if !l.CameraEnabled() || !l.LocationEnabled() || !l.VoiceWakeEnabled() || !l.ManualTLS() {
		t.Fatal("expected flags from snapshot")
	}
	if l.SMSAvailable() || l.DebugBuild() || l.MicrophonePermitted() {
		t.Fatal("unexpected flags set")
	}
	l.SetForeground(false)
	if l.Foreground() {
		t.Fatal("foreground override not applied")
	}
}

func TestLive_ReloadKeepsPreviousOnError(t *testing.T) {
	path := writeFile(t, "node.yaml", "features:\n  camera: true\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	l := NewLive(cfg, path)

	var notified *Config
	l.OnChange(func(c *Config) { notified = c })

	if err := os.WriteFile(path, []byte("features:\n  camera: false\n  sms: true\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := l.Reload(); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if l.CameraEnabled() || !l.SMSAvailable() || notified == nil {
		t.Fatal("reload not applied")
	}

	if err := os.WriteFile(path, []byte("features:\n  location: nowhere\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := l.Reload(); err == nil {
		t.Fatal("expected reload error")
	}
	if !l.SMSAvailable() {
		t.Fatal("previous snapshot lost after failed reload")
	}
}

func TestLive_Watch(t *testing.T) {
	path := writeFile(t, "node.yaml", "features:\n  camera: false\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	l := NewLive(cfg, path)
	changed := make(chan struct{}, 4)
	l.OnChange(func(*Config) { changed <- struct{}{} })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Watch(ctx) }()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(path, []byte("features:\n  camera: true\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	select {
	case <-changed:
	case <-time.After(3 * time.Second):
		t.Fatal("watch did not reload")
	}
	if !l.CameraEnabled() {
		t.Fatal("camera flag not reloaded")
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("watch: %v", err)
	}
}
