package node

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"github.com/nextlevelbuilder/goclaw-node/internal/discovery"
	"github.com/nextlevelbuilder/goclaw-node/internal/trust"
	"github.com/nextlevelbuilder/goclaw-node/pkg/protocol"
)

const (
	ClientID         = "goclaw-node"
	ClientModeNode   = "node"
	ClientModeCLI    = "cli"
	userAgentProduct = "GoclawNode"
)

// ConnectState is the live state read when building connect params.
type ConnectState interface {
	LiveState
	ManualTLS() bool
}

// ClientIdentity describes this client for the connect handshake.
type ClientIdentity struct {
	DisplayName     string
	InstanceID      string
	Version         string
	ModelIdentifier string
	AuthToken       string
}

// ConnectionManager builds connect params and TLS params. Nothing is cached:
// every call reads the current state so toggles apply on the next connect.
type ConnectionManager struct {
	state ConnectState
	pins  trust.FingerprintStore
	id    ClientIdentity
}

func NewConnectionManager(state ConnectState, pins trust.FingerprintStore, id ClientIdentity) *ConnectionManager {
	return &ConnectionManager{state: state, pins: pins, id: id}
}

// ResolvedVersion returns the client version, with a -dev suffix on debug builds.
func (m *ConnectionManager) ResolvedVersion() string {
	v := strings.TrimSpace(m.id.Version)
	if v == "" {
		v = "dev"
	}
	if m.state.DebugBuild() && !strings.Contains(strings.ToLower(v), "dev") {
		v += "-dev"
	}
	return v
}

// UserAgent returns "GoclawNode/<version> (<os>; <arch>)".
func (m *ConnectionManager) UserAgent() string {
	return fmt.Sprintf("%s/%s (%s; %s)", userAgentProduct, m.ResolvedVersion(), runtime.GOOS, runtime.GOARCH)
}

func (m *ConnectionManager) ClientInfo(mode string) protocol.ClientInfo {
	return protocol.ClientInfo{
		ID:              ClientID,
		DisplayName:     m.id.DisplayName,
		Version:         m.ResolvedVersion(),
		Platform:        runtime.GOOS,
		Mode:            mode,
		InstanceID:      m.id.InstanceID,
		DeviceFamily:    deviceFamily(),
		ModelIdentifier: strings.TrimSpace(m.id.ModelIdentifier),
	}
}

// NodeConnectParams returns params for the node role: no scopes, live caps
// and commands.
func (m *ConnectionManager) NodeConnectParams() protocol.ConnectParams {
	return m.connectParams(protocol.RoleNode, []string{}, BuildCapabilities(m.state), BuildCommands(m.state), ClientModeNode)
}

// OperatorConnectParams returns params for the operator role.
func (m *ConnectionManager) OperatorConnectParams() protocol.ConnectParams {
	scopes := []string{
		protocol.ScopeOperatorRead,
		protocol.ScopeOperatorWrite,
		protocol.ScopeOperatorTalkSecrets,
	}
	return m.connectParams(protocol.RoleOperator, scopes, []string{}, []string{}, ClientModeCLI)
}

func (m *ConnectionManager) connectParams(role string, scopes, caps, commands []string, mode string) protocol.ConnectParams {
	p := protocol.ConnectParams{
		MinProtocol: protocol.ProtocolVersion,
		MaxProtocol: protocol.ProtocolVersion,
		Client:      m.ClientInfo(mode),
		Role:        role,
		Scopes:      scopes,
		Caps:        caps,
		Commands:    commands,
		UserAgent:   m.UserAgent(),
	}
	if tok := strings.TrimSpace(m.id.AuthToken); tok != "" {
		p.Auth = &protocol.ConnectAuth{Token: tok}
	}
	return p
}

// ResolveTLSParams loads the stored pin for ep and resolves TLS requirements.
func (m *ConnectionManager) ResolveTLSParams(ctx context.Context, ep discovery.Endpoint) (*trust.TLSParams, error) {
	stored := ""
	if m.pins != nil {
		fp, err := m.pins.Load(ctx, ep.StableID)
		if err != nil {
			return nil, fmt.Errorf("resolve tls for %s: %w", ep.StableID, err)
		}
		stored = fp
	}
	return trust.Resolve(ep, stored, m.state.ManualTLS()), nil
}

func deviceFamily() string {
	switch runtime.GOOS {
	case "darwin":
		return "Mac"
	case "windows":
		return "Windows"
	case "linux":
		return "Linux"
	default:
		return runtime.GOOS
	}
}
