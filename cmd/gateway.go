package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/nextlevelbuilder/goclaw-node/internal/config"
	"github.com/nextlevelbuilder/goclaw-node/internal/discovery"
	"github.com/nextlevelbuilder/goclaw-node/internal/gateway"
	"github.com/nextlevelbuilder/goclaw-node/internal/node"
	"github.com/nextlevelbuilder/goclaw-node/internal/trust"
	"github.com/nextlevelbuilder/goclaw-node/pkg/protocol"
)

// gatewayEndpoint returns the configured gateway. A stable ID marks a
// previously discovered gateway; otherwise the host/port is manual.
func gatewayEndpoint(cfg config.GatewayConfig) discovery.Endpoint {
	if cfg.StableID == "" {
		return discovery.ManualEndpoint(cfg.Host, cfg.Port)
	}
	return discovery.Endpoint{
		StableID:             cfg.StableID,
		Name:                 cfg.Host,
		Host:                 cfg.Host,
		Port:                 cfg.Port,
		TLSEnabled:           cfg.TLSHint,
		TLSFingerprintSHA256: cfg.TLSFingerprint,
	}
}

func clientIdentity(cfg *config.Config) node.ClientIdentity {
	return node.ClientIdentity{
		DisplayName:     cfg.Node.DisplayName,
		InstanceID:      cfg.Node.InstanceID,
		Version:         Version,
		ModelIdentifier: cfg.Node.ModelIdentifier,
		AuthToken:       cfg.Gateway.Token,
	}
}

// dialGateway resolves TLS for ep and opens a session with params. Params
// and TLS are rebuilt by the caller on every attempt.
func dialGateway(ctx context.Context, cm *node.ConnectionManager, ep discovery.Endpoint, params protocol.ConnectParams) (*gateway.Client, error) {
	tlsParams, err := cm.ResolveTLSParams(ctx, ep)
	if err != nil {
		return nil, err
	}
	c, err := gateway.Dial(ctx, gateway.Options{
		URL:     ep.URL(tlsParams != nil),
		TLS:     tlsParams,
		Connect: params,
		Header:  http.Header{"User-Agent": []string{cm.UserAgent()}},
	})
	var unpinned *trust.UnpinnedCertificateError
	if errors.As(err, &unpinned) {
		return nil, fmt.Errorf("%w (review it with `goclaw-node trust probe`)", err)
	}
	return c, err
}

// dialOperator opens a one-shot operator session for CLI commands.
func dialOperator(ctx context.Context) (*gateway.Client, error) {
	cfg := app.live.Snapshot()
	cm := node.NewConnectionManager(app.live, trust.NewKeyringStore(), clientIdentity(cfg))
	return dialGateway(ctx, cm, gatewayEndpoint(cfg.Gateway), cm.OperatorConnectParams())
}
