package node

import (
	"context"

	"github.com/nextlevelbuilder/goclaw-node/pkg/protocol"
)

// a2uiState is a step of the readiness handshake run before canvas.a2ui.*
// commands. Every path visits Refreshing at most once, so a handshake costs
// at most one refresh and two probes.
type a2uiState int

const (
	a2uiResolvingHost a2uiState = iota
	a2uiProbingReady
	a2uiRefreshing
	a2uiResolvingAfterRefresh
	a2uiProbingAfterRefresh
	a2uiReady
	a2uiFailed
	a2uiNotConfigured
)

func (s a2uiState) String() string {
	switch s {
	case a2uiResolvingHost, a2uiResolvingAfterRefresh:
		return "resolving_host"
	case a2uiProbingReady:
		return "probing_ready"
	case a2uiRefreshing:
		return "refreshing"
	case a2uiProbingAfterRefresh:
		return "probing_after_refresh"
	case a2uiReady:
		return "ready"
	case a2uiFailed:
		return "failed"
	case a2uiNotConfigured:
		return "not_configured"
	default:
		return "unknown"
	}
}

type a2uiHandshake struct {
	host A2UIHost
	url  string
}

// step performs the work of state s and returns the next state.
func (h *a2uiHandshake) step(ctx context.Context, s a2uiState) a2uiState {
	switch s {
	case a2uiResolvingHost, a2uiResolvingAfterRefresh:
		url, ok := h.host.ResolveHostURL()
		if !ok {
			return a2uiNotConfigured
		}
		h.url = url
		if s == a2uiResolvingHost {
			return a2uiProbingReady
		}
		return a2uiProbingAfterRefresh
	case a2uiProbingReady:
		if h.host.EnsureReady(ctx, h.url) {
			return a2uiReady
		}
		return a2uiRefreshing
	case a2uiRefreshing:
		a2uiRefreshTotal.Inc()
		if !h.host.RefreshCapability(ctx) {
			return a2uiFailed
		}
		return a2uiResolvingAfterRefresh
	case a2uiProbingAfterRefresh:
		if h.host.EnsureReady(ctx, h.url) {
			return a2uiReady
		}
		return a2uiFailed
	default:
		return a2uiFailed
	}
}

func terminal(s a2uiState) bool {
	return s == a2uiReady || s == a2uiFailed || s == a2uiNotConfigured
}

// withReadyA2UI runs fn once the A2UI host is ready.
func (d *Dispatcher) withReadyA2UI(ctx context.Context, fn func() InvokeResult) InvokeResult {
	hs := &a2uiHandshake{host: d.handlers.A2UI}
	s := a2uiResolvingHost
	for !terminal(s) {
		s = hs.step(ctx, s)
	}
	switch s {
	case a2uiReady:
		return fn()
	case a2uiNotConfigured:
		return Fail(protocol.ErrA2UIHostNotConfigured, "gateway did not advertise canvas host")
	default:
		return Fail(protocol.ErrA2UIHostUnavailable, "A2UI host not reachable")
	}
}
