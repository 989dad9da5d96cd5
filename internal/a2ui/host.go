package a2ui

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/nextlevelbuilder/goclaw-node/pkg/protocol"
)

const (
	hostPath = "/__idlehands__/a2ui/"

	defaultProbeTimeout = 3 * time.Second
	defaultReadyTTL     = 30 * time.Second
	readyCacheSize      = 16

	refreshTimeout = 10 * time.Second
)

// RefreshFunc asks the gateway to refresh the node's canvas capability and
// returns the canvas host URL it now advertises.
type RefreshFunc func(ctx context.Context) (string, error)

// Requester is the RPC surface needed by GatewayRefresher.
type Requester interface {
	Request(ctx context.Context, method string, params interface{}, timeout time.Duration) (json.RawMessage, error)
}

// GatewayRefresher refreshes the canvas capability with node.canvas.capability.refresh.
func GatewayRefresher(r Requester) RefreshFunc {
	return func(ctx context.Context) (string, error) {
		raw, err := r.Request(ctx, protocol.MethodNodeCanvasCapRefresh, nil, refreshTimeout)
		if err != nil {
			return "", err
		}
		var out protocol.CanvasCapabilityRefresh
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &out); err != nil {
				return "", fmt.Errorf("decode canvas capability refresh: %w", err)
			}
		}
		return out.CanvasHostURL, nil
	}
}

// Host tracks the gateway-advertised canvas host and probes A2UI readiness.
// Positive probes are cached for a short TTL.
type Host struct {
	platform string
	client   *http.Client
	refresh  RefreshFunc

	mu         sync.RWMutex
	canvasHost string

	ready *expirable.LRU[string, bool]
}

type HostOption func(*Host)

// WithHTTPClient sets the client used for readiness probes.
func WithHTTPClient(c *http.Client) HostOption {
	return func(h *Host) { h.client = c }
}

// WithRefresher sets the capability refresh callback.
func WithRefresher(fn RefreshFunc) HostOption {
	return func(h *Host) { h.refresh = fn }
}

// WithReadyTTL sets how long a successful probe is trusted.
func WithReadyTTL(ttl time.Duration) HostOption {
	return func(h *Host) { h.ready = expirable.NewLRU[string, bool](readyCacheSize, nil, ttl) }
}

func NewHost(platform string, opts ...HostOption) *Host {
	h := &Host{
		platform: platform,
		client:   &http.Client{Timeout: defaultProbeTimeout},
		ready:    expirable.NewLRU[string, bool](readyCacheSize, nil, defaultReadyTTL),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// SetCanvasHost records the canvas host advertised by the gateway hello.
func (h *Host) SetCanvasHost(raw string) {
	h.mu.Lock()
	h.canvasHost = strings.TrimSpace(raw)
	h.mu.Unlock()
}

func (h *Host) CanvasHost() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.canvasHost
}

// ResolveHostURL returns the A2UI page URL for the current canvas host.
func (h *Host) ResolveHostURL() (string, bool) {
	base := strings.TrimRight(h.CanvasHost(), "/")
	if base == "" {
		return "", false
	}
	u, err := url.Parse(base)
	if err != nil || u.Host == "" {
		return "", false
	}
	switch u.Scheme {
	case "http", "https":
	case "ws":
		u.Scheme = "http"
	case "wss":
		u.Scheme = "https"
	default:
		return "", false
	}
	u.Path = strings.TrimRight(u.Path, "/") + hostPath
	u.RawQuery = url.Values{"platform": {h.platform}}.Encode()
	return u.String(), true
}

// EnsureReady reports whether the A2UI host answers at url.
func (h *Host) EnsureReady(ctx context.Context, target string) bool {
	if ok, hit := h.ready.Get(target); hit && ok {
		return true
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		slog.Warn("a2ui: bad probe url", "url", target, "error", err)
		return false
	}
	resp, err := h.client.Do(req)
	if err != nil {
		slog.Debug("a2ui: probe failed", "url", target, "error", err)
		return false
	}
	resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		slog.Debug("a2ui: host not ready", "url", target, "status", resp.StatusCode)
		return false
	}
	h.ready.Add(target, true)
	return true
}

// RefreshCapability refreshes the canvas capability and adopts the canvas
// host the gateway returns, even when it is empty.
func (h *Host) RefreshCapability(ctx context.Context) bool {
	if h.refresh == nil {
		return false
	}
	canvasHost, err := h.refresh(ctx)
	if err != nil {
		slog.Warn("a2ui: canvas capability refresh failed", "error", err)
		return false
	}
	h.SetCanvasHost(canvasHost)
	h.ready.Purge()
	return true
}
