package node

import (
	"context"
	"errors"
	"strings"
	"sync"
)

type fakeState struct {
	foreground bool
	camera     bool
	location   bool
	sms        bool
	voiceWake  bool
	mic        bool
	debug      bool
	manualTLS  bool
}

func (s *fakeState) Foreground() bool          { return s.foreground }
func (s *fakeState) CameraEnabled() bool       { return s.camera }
func (s *fakeState) LocationEnabled() bool     { return s.location }
func (s *fakeState) SMSAvailable() bool        { return s.sms }
func (s *fakeState) VoiceWakeEnabled() bool    { return s.voiceWake }
func (s *fakeState) MicrophonePermitted() bool { return s.mic }
func (s *fakeState) DebugBuild() bool          { return s.debug }
func (s *fakeState) ManualTLS() bool           { return s.manualTLS }

type fakeCanvas struct {
	mu        sync.Mutex
	navigated []string
	evals     []string
	evalOut   string
	evalErr   error
	panicMsg  string
}

func (c *fakeCanvas) Navigate(_ context.Context, url string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.navigated = append(c.navigated, url)
	return nil
}

func (c *fakeCanvas) Eval(_ context.Context, js string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.panicMsg != "" {
		panic(c.panicMsg)
	}
	c.evals = append(c.evals, js)
	return c.evalOut, c.evalErr
}

func (c *fakeCanvas) Snapshot(context.Context, SnapshotParams) (string, error) {
	if c.evalErr != nil {
		return "", c.evalErr
	}
	return "aGVsbG8=", nil
}

// fakeA2UI replays scripted answers. The last entry of urls and ready repeats.
type fakeA2UI struct {
	urls      []string
	ready     []bool
	refreshOK bool

	resolves, probes, refreshes int
}

func (h *fakeA2UI) ResolveHostURL() (string, bool) {
	i := h.resolves
	if i >= len(h.urls) {
		i = len(h.urls) - 1
	}
	h.resolves++
	if i < 0 || h.urls[i] == "" {
		return "", false
	}
	return h.urls[i], true
}

func (h *fakeA2UI) EnsureReady(context.Context, string) bool {
	i := h.probes
	if i >= len(h.ready) {
		i = len(h.ready) - 1
	}
	h.probes++
	return i >= 0 && h.ready[i]
}

func (h *fakeA2UI) RefreshCapability(context.Context) bool {
	h.refreshes++
	return h.refreshOK
}

type fakeCamera struct{ calls int }

func (c *fakeCamera) List(context.Context, string) InvokeResult {
	c.calls++
	return OKString(`{"devices":[]}`)
}

func (c *fakeCamera) Snap(context.Context, string) InvokeResult {
	c.calls++
	return OKString(`{}`)
}

func (c *fakeCamera) Clip(context.Context, string) InvokeResult {
	c.calls++
	return OKString(`{}`)
}

type panicCamera struct{ fakeCamera }

func (c *panicCamera) Snap(context.Context, string) InvokeResult {
	panic("camera session gone")
}

type fakeDebug struct{}

func (fakeDebug) Logs(context.Context) InvokeResult    { return OKString(`{"logs":[]}`) }
func (fakeDebug) Ed25519(context.Context) InvokeResult { return OKString(`{}`) }

var errCanvasGone = errors.New("surface detached")

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func hasCodePrefix(r InvokeResult, code string) bool {
	return r.Error != nil && r.Error.Code == code && strings.HasPrefix(r.Error.Message, code+": ")
}
