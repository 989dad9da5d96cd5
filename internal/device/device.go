// Package device implements the device.*, notifications.* and app.update
// commands for a headless node.
package device

import (
	"context"
	"encoding/json"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/nextlevelbuilder/goclaw-node/internal/node"
	"github.com/nextlevelbuilder/goclaw-node/pkg/protocol"
)

// Info is static host information reported by device.info.
type Info struct {
	DisplayName     string
	InstanceID      string
	ModelIdentifier string
	Version         string
}

// Service answers device commands from the Go runtime and the live flags.
type Service struct {
	info    Info
	state   node.LiveState
	started time.Time
	// Connected reports gateway connectivity for device.health; may be nil.
	Connected func() bool
}

func NewService(info Info, state node.LiveState) *Service {
	return &Service{info: info, state: state, started: time.Now()}
}

type statusPayload struct {
	Foreground    bool    `json:"foreground"`
	UptimeSeconds float64 `json:"uptimeSeconds"`
	Battery       *int    `json:"battery"` // always null on headless hosts
	Goroutines    int     `json:"goroutines"`
}

func (s *Service) Status(_ context.Context, _ string) node.InvokeResult {
	return node.OKJSON(statusPayload{
		Foreground:    s.state.Foreground(),
		UptimeSeconds: time.Since(s.started).Round(time.Second).Seconds(),
		Goroutines:    runtime.NumGoroutine(),
	})
}

type infoPayload struct {
	DeviceName      string `json:"deviceName"`
	InstanceID      string `json:"instanceId,omitempty"`
	ModelIdentifier string `json:"modelIdentifier,omitempty"`
	SystemName      string `json:"systemName"`
	Arch            string `json:"arch"`
	AppVersion      string `json:"appVersion"`
	NumCPU          int    `json:"numCpu"`
	GoVersion       string `json:"goVersion"`
}

func (s *Service) Info(_ context.Context, _ string) node.InvokeResult {
	name := s.info.DisplayName
	if name == "" {
		name, _ = os.Hostname()
	}
	return node.OKJSON(infoPayload{
		DeviceName:      name,
		InstanceID:      s.info.InstanceID,
		ModelIdentifier: s.info.ModelIdentifier,
		SystemName:      runtime.GOOS,
		Arch:            runtime.GOARCH,
		AppVersion:      s.info.Version,
		NumCPU:          runtime.NumCPU(),
		GoVersion:       runtime.Version(),
	})
}

func permission(granted bool) string {
	if granted {
		return "granted"
	}
	return "denied"
}

func (s *Service) Permissions(_ context.Context, _ string) node.InvokeResult {
	return node.OKJSON(map[string]string{
		"camera":     permission(s.state.CameraEnabled()),
		"location":   permission(s.state.LocationEnabled()),
		"sms":        permission(s.state.SMSAvailable()),
		"microphone": permission(s.state.MicrophonePermitted()),
	})
}

type healthPayload struct {
	OK               bool   `json:"ok"`
	GatewayConnected *bool  `json:"gatewayConnected,omitempty"`
	HeapAllocBytes   uint64 `json:"heapAllocBytes"`
	NumGC            uint32 `json:"numGc"`
}

func (s *Service) Health(_ context.Context, _ string) node.InvokeResult {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	p := healthPayload{OK: true, HeapAllocBytes: ms.HeapAlloc, NumGC: ms.NumGC}
	if s.Connected != nil {
		c := s.Connected()
		p.GatewayConnected = &c
	}
	return node.OKJSON(p)
}

// Notifications is the notification center of a host that has none.
type Notifications struct{}

func (Notifications) List(_ context.Context, _ string) node.InvokeResult {
	return node.OKString(`{"notifications":[]}`)
}

type actionParams struct {
	Key    string `json:"key"`
	Action string `json:"action"`
}

func (Notifications) Actions(_ context.Context, paramsJSON string) node.InvokeResult {
	var p actionParams
	if strings.TrimSpace(paramsJSON) != "" {
		if err := json.Unmarshal([]byte(paramsJSON), &p); err != nil {
			return node.Fail(protocol.ErrInvalidRequest, "expected JSON object")
		}
	}
	key := strings.TrimSpace(p.Key)
	if key == "" {
		return node.Fail(protocol.ErrInvalidRequest, "key required")
	}
	return node.Fail(protocol.ErrInvalidRequest, "unknown notification key: "+key)
}

// Updater refuses app.update; a headless node is updated by its package manager.
type Updater struct{}

func (Updater) Update(_ context.Context, _ string) node.InvokeResult {
	return node.Fail(protocol.ErrInvalidRequest, "app.update not supported on this node")
}
