package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
)

// Live holds the current configuration and serves the live feature flags.
// Reads are lock-free; Reload swaps the whole snapshot.
type Live struct {
	path       string
	cur        atomic.Pointer[Config]
	foreground atomic.Bool

	mu        sync.Mutex
	listeners []func(*Config)
}

func NewLive(cfg *Config, path string) *Live {
	l := &Live{path: path}
	l.store(cfg)
	return l
}

func (l *Live) store(cfg *Config) {
	l.cur.Store(cfg)
	l.foreground.Store(cfg.Features.Foreground)
}

// Snapshot returns the current configuration. Callers must not modify it.
func (l *Live) Snapshot() *Config { return l.cur.Load() }

// OnChange registers fn to run after every successful reload.
func (l *Live) OnChange(fn func(*Config)) {
	l.mu.Lock()
	l.listeners = append(l.listeners, fn)
	l.mu.Unlock()
}

// SetForeground overrides the foreground flag until the next reload.
func (l *Live) SetForeground(v bool) { l.foreground.Store(v) }

// Reload re-reads the file. On error the previous snapshot stays active.
func (l *Live) Reload() error {
	if l.path == "" {
		return nil
	}
	cfg, err := Load(l.path)
	if err != nil {
		return err
	}
	l.store(cfg)

	l.mu.Lock()
	listeners := append([]func(*Config){}, l.listeners...)
	l.mu.Unlock()
	for _, fn := range listeners {
		fn(cfg)
	}
	return nil
}

// Watch reloads the file whenever it changes until ctx is done. The parent
// directory is watched so editors that replace the file are handled.
func (l *Live) Watch(ctx context.Context) error {
	if l.path == "" {
		<-ctx.Done()
		return nil
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create config watcher: %w", err)
	}
	defer w.Close()

	target := filepath.Clean(l.path)
	if err := w.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(target), err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target || !ev.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			if err := l.Reload(); err != nil {
				slog.Warn("config: reload failed, keeping previous", "path", l.path, "error", err)
				continue
			}
			slog.Info("config: reloaded", "path", l.path)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			slog.Warn("config: watcher error", "error", err)
		}
	}
}

// Live feature flags.

func (l *Live) Foreground() bool    { return l.foreground.Load() }
func (l *Live) CameraEnabled() bool { return l.Snapshot().Features.Camera }
func (l *Live) SMSAvailable() bool  { return l.Snapshot().Features.SMS }
func (l *Live) DebugBuild() bool    { return l.Snapshot().Features.Debug }
func (l *Live) ManualTLS() bool     { return l.Snapshot().Gateway.TLS }

func (l *Live) LocationEnabled() bool {
	return l.Snapshot().Features.Location != LocationOff
}

func (l *Live) VoiceWakeEnabled() bool {
	return l.Snapshot().Features.VoiceWake != VoiceWakeOff
}

func (l *Live) MicrophonePermitted() bool {
	return l.Snapshot().Features.Microphone
}
