package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/zalando/go-keyring"

	"github.com/nextlevelbuilder/goclaw-node/internal/chat"
	"github.com/nextlevelbuilder/goclaw-node/internal/config"
	"github.com/nextlevelbuilder/goclaw-node/internal/debuglog"
	"github.com/nextlevelbuilder/goclaw-node/internal/identity"
	"github.com/nextlevelbuilder/goclaw-node/internal/node"
	"github.com/nextlevelbuilder/goclaw-node/pkg/protocol"
)

type sentResult struct {
	method string
	params protocol.NodeInvokeResult
}

type fakeInvokeChannel struct {
	events chan protocol.EventFrame
	mu     sync.Mutex
	sent   []sentResult
	err    error
}

func (f *fakeInvokeChannel) Subscribe(context.Context) (<-chan protocol.EventFrame, error) {
	return f.events, nil
}

func (f *fakeInvokeChannel) Request(_ context.Context, method string, params interface{}, _ time.Duration) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentResult{method: method, params: params.(protocol.NodeInvokeResult)})
	return nil, f.err
}

type fakeInvoker struct {
	mu       sync.Mutex
	commands []string
	deadline bool
}

func (f *fakeInvoker) HandleInvoke(ctx context.Context, command, paramsJSON string) node.InvokeResult {
	f.mu.Lock()
	f.commands = append(f.commands, command)
	_, f.deadline = ctx.Deadline()
	f.mu.Unlock()
	if command == protocol.CmdDeviceInfo {
		return node.OKString(paramsJSON)
	}
	return node.Fail(protocol.ErrInvalidRequest, "unknown command")
}

func invokeEvent(t *testing.T, req protocol.NodeInvokeRequest) protocol.EventFrame {
	t.Helper()
	payload, err := json.Marshal(req)
	if err != nil {
		t.Fatal(err)
	}
	return protocol.EventFrame{Type: protocol.FrameTypeEvent, Event: protocol.EventNodeInvokeRequest, Payload: payload}
}

func TestConsumeInvokeRequests(t *testing.T) {
	ch := &fakeInvokeChannel{events: make(chan protocol.EventFrame, 8)}
	inv := &fakeInvoker{}

	ch.events <- invokeEvent(t, protocol.NodeInvokeRequest{ID: "r1", NodeID: "n1", Command: protocol.CmdDeviceInfo, ParamsJSON: `{"a":1}`})
	ch.events <- invokeEvent(t, protocol.NodeInvokeRequest{ID: "r2", NodeID: "n1", Command: "nope"})
	ch.events <- protocol.EventFrame{Type: protocol.FrameTypeEvent, Event: protocol.EventNodeInvokeRequest, Payload: json.RawMessage(`{"command":"x"}`)}
	ch.events <- protocol.EventFrame{Type: protocol.FrameTypeEvent, Event: protocol.EventTick}
	close(ch.events)

	if err := consumeInvokeRequests(context.Background(), ch, inv); err != nil {
		t.Fatalf("consume: %v", err)
	}

	if len(ch.sent) != 2 {
		t.Fatalf("expected 2 results, got %d", len(ch.sent))
	}
	byID := map[string]protocol.NodeInvokeResult{}
	for _, s := range ch.sent {
		if s.method != protocol.MethodNodeInvokeResult {
			t.Fatalf("unexpected method %s", s.method)
		}
		byID[s.params.ID] = s.params
	}
	ok := byID["r1"]
	if !ok.OK || ok.NodeID != "n1" || ok.PayloadJSON == nil || *ok.PayloadJSON != `{"a":1}` {
		t.Fatalf("unexpected r1 result %+v", ok)
	}
	bad := byID["r2"]
	if bad.OK || bad.Error == nil || bad.Error.Code != protocol.ErrInvalidRequest {
		t.Fatalf("unexpected r2 result %+v", bad)
	}
	if !inv.deadline {
		t.Fatal("invoke context has no deadline")
	}
}

func TestConsumeInvokeRequests_SendFailureIsLogged(t *testing.T) {
	ch := &fakeInvokeChannel{events: make(chan protocol.EventFrame, 1), err: errors.New("closed")}
	ch.events <- invokeEvent(t, protocol.NodeInvokeRequest{ID: "r1", Command: protocol.CmdDeviceInfo})
	close(ch.events)
	if err := consumeInvokeRequests(context.Background(), ch, &fakeInvoker{}); err != nil {
		t.Fatalf("send failures must not end the consumer: %v", err)
	}
}

func TestGatewayEndpoint(t *testing.T) {
	manual := gatewayEndpoint(config.GatewayConfig{Host: "GW.local", Port: 18789})
	if !manual.IsManual() || manual.StableID != "manual|gw.local|18789" {
		t.Fatalf("unexpected manual endpoint %+v", manual)
	}

	found := gatewayEndpoint(config.GatewayConfig{Host: "10.0.0.5", Port: 443, StableID: "bonjour|local.|office", TLSHint: true})
	if found.IsManual() || !found.TLSEnabled || found.URL(true) != "wss://10.0.0.5:443" {
		t.Fatalf("unexpected discovered endpoint %+v", found)
	}
}

func TestLoadAttachments(t *testing.T) {
	dir := t.TempDir()
	img := filepath.Join(dir, "shot.png")
	txt := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(img, []byte("\x89PNG\r\n\x1a\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(txt, []byte("hi"), 0o600); err != nil {
		t.Fatal(err)
	}

	atts, err := loadAttachments([]string{img, txt})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if atts[0].Type != "image" || atts[0].MimeType != "image/png" || atts[0].FileName != "shot.png" {
		t.Fatalf("unexpected image attachment %+v", atts[0])
	}
	if atts[1].Type != "file" || atts[1].Content != "aGk=" {
		t.Fatalf("unexpected file attachment %+v", atts[1])
	}

	if _, err := loadAttachments([]string{filepath.Join(dir, "missing")}); err == nil {
		t.Fatal("expected read error")
	}
}

func TestToEventLine(t *testing.T) {
	h := toEventLine(chat.Event{Kind: chat.EventHealth, HealthOK: false})
	if h.Kind != protocol.EventHealth || h.HealthOK == nil || *h.HealthOK {
		t.Fatalf("unexpected health line %+v", h)
	}
	tick := toEventLine(chat.Event{Kind: chat.EventTick})
	if tick.HealthOK != nil {
		t.Fatal("tick line must not carry healthOk")
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARNING": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewLogHandler_JSONWhenNotTerminal(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(newLogHandler(&buf, config.LogConfig{Level: "info"}))
	log.Info("hello", "k", "v")
	if !strings.HasPrefix(buf.String(), "{") || !strings.Contains(buf.String(), `"k":"v"`) {
		t.Fatalf("expected JSON output, got %q", buf.String())
	}
}

func TestDebugHandler(t *testing.T) {
	keyring.MockInit()
	ring := debuglog.NewRing(nil, slog.LevelInfo, 4)
	slog.New(ring).Info("node started")

	h := &debugHandler{ring: ring, keys: identity.NewStore()}
	logs := h.Logs(context.Background())
	if !logs.OK || !strings.Contains(*logs.Payload, "node started") {
		t.Fatalf("unexpected logs result %+v", logs)
	}

	res := h.Ed25519(context.Background())
	if !res.OK {
		t.Fatalf("ed25519: %+v", res.Error)
	}
	var out struct {
		DeviceID    string `json:"deviceId"`
		PublicKey   string `json:"publicKey"`
		SignatureOK bool   `json:"signatureOk"`
	}
	if err := json.Unmarshal([]byte(*res.Payload), &out); err != nil {
		t.Fatal(err)
	}
	if len(out.DeviceID) != 64 || out.PublicKey == "" || !out.SignatureOK {
		t.Fatalf("unexpected identity payload %+v", out)
	}
}

func TestDebugHandler_KeyringFailureIsNotCached(t *testing.T) {
	keyring.MockInitWithError(errors.New("keychain locked"))
	h := &debugHandler{ring: debuglog.NewRing(nil, slog.LevelInfo, 4), keys: identity.NewStore()}
	if res := h.Ed25519(context.Background()); res.OK || res.Error.Code != protocol.ErrNodeBackgroundUnavailable {
		t.Fatalf("expected failure while keyring is locked, got %+v", res)
	}

	keyring.MockInit()
	first := h.Ed25519(context.Background())
	if !first.OK {
		t.Fatalf("expected recovery once keyring is back, got %+v", first.Error)
	}
	second := h.Ed25519(context.Background())
	if !second.OK || *second.Payload != *first.Payload {
		t.Fatalf("identity must be cached after success: %v vs %v", first.Payload, second.Payload)
	}
}

type stubCamera struct{}

func (stubCamera) List(context.Context, string) node.InvokeResult { return node.OKString(`{"devices":[]}`) }
func (stubCamera) Snap(context.Context, string) node.InvokeResult { return node.OKString(`{}`) }
func (stubCamera) Clip(context.Context, string) node.InvokeResult { return node.OKString(`{}`) }

func TestHandlerState_HidesUnbackedFeatures(t *testing.T) {
	cfg := config.Default()
	cfg.Features.Camera = true
	cfg.Features.Location = config.LocationAlways
	cfg.Features.SMS = true
	cfg.Features.Debug = true
	live := config.NewLive(cfg, "")

	state := newHandlerState(live, node.Handlers{})
	cmds := strings.Join(node.BuildCommands(state), ",")
	for _, c := range []string{protocol.CmdCameraSnap, protocol.CmdLocationGet, protocol.CmdSMSSend} {
		if strings.Contains(cmds, c) {
			t.Fatalf("%s advertised without a backend: %s", c, cmds)
		}
	}
	if !strings.Contains(cmds, protocol.CmdDebugLogs) {
		t.Fatalf("debug commands must follow the config flag: %s", cmds)
	}

	backed := newHandlerState(live, node.Handlers{Camera: stubCamera{}})
	if !backed.CameraEnabled() || backed.LocationEnabled() {
		t.Fatalf("camera=%v location=%v", backed.CameraEnabled(), backed.LocationEnabled())
	}
	res := node.NewDispatcher(state, node.Handlers{}).HandleInvoke(context.Background(), protocol.CmdCameraSnap, "{}")
	if res.Error == nil || res.Error.Code != protocol.ErrCameraDisabled {
		t.Fatalf("expected CAMERA_DISABLED for an unbacked camera, got %+v", res.Error)
	}
}
