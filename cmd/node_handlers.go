package cmd

import (
	"context"
	"crypto/ed25519"
	"log/slog"
	"sync"

	"github.com/nextlevelbuilder/goclaw-node/internal/a2ui"
	"github.com/nextlevelbuilder/goclaw-node/internal/config"
	"github.com/nextlevelbuilder/goclaw-node/internal/debuglog"
	"github.com/nextlevelbuilder/goclaw-node/internal/device"
	"github.com/nextlevelbuilder/goclaw-node/internal/identity"
	"github.com/nextlevelbuilder/goclaw-node/internal/node"
	"github.com/nextlevelbuilder/goclaw-node/pkg/browser"
	"github.com/nextlevelbuilder/goclaw-node/pkg/protocol"
)

// debugHandler serves debug.logs from the log ring and debug.ed25519 from
// the device key.
type debugHandler struct {
	ring *debuglog.Ring
	keys *identity.Store

	mu sync.Mutex
	id *identity.Identity
}

// identity returns the device key, retrying the keyring until a load succeeds.
func (h *debugHandler) identity() (*identity.Identity, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.id != nil {
		return h.id, nil
	}
	id, err := h.keys.LoadOrCreate()
	if err != nil {
		return nil, err
	}
	h.id = id
	return id, nil
}

func (h *debugHandler) Logs(context.Context) node.InvokeResult {
	lines := h.ring.Lines()
	if lines == nil {
		lines = []string{}
	}
	return node.OKJSON(map[string]interface{}{"logs": lines})
}

const ed25519SelfCheck = "goclaw-node.debug.ed25519"

func (h *debugHandler) Ed25519(context.Context) node.InvokeResult {
	id, err := h.identity()
	if err != nil {
		return node.Fail(protocol.ErrNodeBackgroundUnavailable, err.Error())
	}
	sig := id.Sign([]byte(ed25519SelfCheck))
	return node.OKJSON(map[string]interface{}{
		"deviceId":    id.DeviceID,
		"publicKey":   id.PublicKeyBase64URL(),
		"signatureOk": ed25519.Verify(id.PublicKey, []byte(ed25519SelfCheck), sig),
	})
}

// canvasA2UIHost keeps the canvas on the A2UI page once the host is ready,
// so pushed messages reach globalThis.goclawA2UI.
type canvasA2UIHost struct {
	*a2ui.Host
	canvas *browser.Canvas
}

func (h canvasA2UIHost) EnsureReady(ctx context.Context, url string) bool {
	if !h.Host.EnsureReady(ctx, url) {
		return false
	}
	if err := h.canvas.Show(ctx, url); err != nil {
		slog.Warn("node: canvas failed to load A2UI host", "url", url, "error", err)
		return false
	}
	return true
}

// handlerState reports a feature as enabled only when a collaborator backs
// it, so the node never advertises commands it cannot serve.
type handlerState struct {
	node.ConnectState
	h node.Handlers
}

func newHandlerState(state node.ConnectState, h node.Handlers) handlerState {
	s := handlerState{ConnectState: state, h: h}
	warnUnbacked := func(feature string, enabled, backed bool) {
		if enabled && !backed {
			slog.Warn("node: feature enabled in config but has no backend on this host; not advertised", "feature", feature)
		}
	}
	warnUnbacked("camera", state.CameraEnabled(), h.Camera != nil)
	warnUnbacked("location", state.LocationEnabled(), h.Location != nil)
	warnUnbacked("sms", state.SMSAvailable(), h.SMS != nil)
	if h.Canvas == nil {
		slog.Warn("node: canvas disabled; canvas commands will fail as unknown")
	}
	return s
}

func (s handlerState) CameraEnabled() bool   { return s.h.Camera != nil && s.ConnectState.CameraEnabled() }
func (s handlerState) LocationEnabled() bool { return s.h.Location != nil && s.ConnectState.LocationEnabled() }
func (s handlerState) SMSAvailable() bool    { return s.h.SMS != nil && s.ConnectState.SMSAvailable() }

type handlerDeps struct {
	cfg       *config.Config
	state     node.LiveState
	ring      *debuglog.Ring
	keys      *identity.Store
	a2uiHost  *a2ui.Host
	canvas    *browser.Canvas // nil when canvas is disabled
	connected func() bool
}

// buildHandlers wires the headless collaborators. Camera, location, screen
// and SMS have no backend on this host and stay unrouted.
func buildHandlers(d handlerDeps) node.Handlers {
	dev := device.NewService(device.Info{
		DisplayName:     d.cfg.Node.DisplayName,
		InstanceID:      d.cfg.Node.InstanceID,
		ModelIdentifier: d.cfg.Node.ModelIdentifier,
		Version:         Version,
	}, d.state)
	dev.Connected = d.connected

	h := node.Handlers{
		Device:        dev,
		Notifications: device.Notifications{},
		AppUpdate:     device.Updater{},
		Debug:         &debugHandler{ring: d.ring, keys: d.keys},
		OnA2UIPush:    func() { slog.Debug("node: a2ui messages applied") },
		OnA2UIReset:   func() { slog.Debug("node: a2ui reset") },
	}
	if d.canvas != nil {
		h.Canvas = d.canvas
		h.A2UI = canvasA2UIHost{Host: d.a2uiHost, canvas: d.canvas}
	}

	slog.Info("node: handlers registered",
		"canvas", d.canvas != nil,
		"device", []string{"status", "info", "permissions", "health"},
		"extras", []string{"notifications", "app.update", "debug"},
	)
	return h
}
