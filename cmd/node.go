package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/nextlevelbuilder/goclaw-node/internal/a2ui"
	"github.com/nextlevelbuilder/goclaw-node/internal/config"
	"github.com/nextlevelbuilder/goclaw-node/internal/gateway"
	"github.com/nextlevelbuilder/goclaw-node/internal/identity"
	"github.com/nextlevelbuilder/goclaw-node/internal/node"
	"github.com/nextlevelbuilder/goclaw-node/internal/trust"
	"github.com/nextlevelbuilder/goclaw-node/pkg/browser"
)

func nodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "node",
		Short: "Run as a gateway node",
	}
	var metricsAddr string
	run := &cobra.Command{
		Use:   "run",
		Short: "Connect to the gateway and serve invoke requests",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runNode(cmd.Context(), app.live, metricsAddr)
		},
	}
	run.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (overrides telemetry.metricsAddr)")
	cmd.AddCommand(run)
	return cmd
}

func runNode(ctx context.Context, live *config.Live, metricsAddr string) error {
	cfg := live.Snapshot()
	if metricsAddr == "" {
		metricsAddr = cfg.Telemetry.MetricsAddr
	}

	shutdownTracing, err := setupTracing(ctx, cfg.Telemetry)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			slog.Warn("tracing shutdown failed", "error", err)
		}
	}()

	var current atomic.Pointer[gateway.Client]
	host := a2ui.NewHost(cfg.Node.Platform, a2ui.WithRefresher(func(ctx context.Context) (string, error) {
		c := current.Load()
		if c == nil {
			return "", gateway.ErrClosed
		}
		return a2ui.GatewayRefresher(c)(ctx)
	}))

	var canvas *browser.Canvas
	if cfg.Canvas.Enabled {
		canvas = browser.NewCanvas(browser.Options{
			BinPath:   cfg.Canvas.BrowserBin,
			Headless:  cfg.Canvas.Headless,
			NoSandbox: cfg.Canvas.NoSandbox,
		})
		defer canvas.Stop()
	}

	handlers := buildHandlers(handlerDeps{
		cfg:       cfg,
		state:     live,
		ring:      app.ring,
		keys:      identity.NewStore(),
		a2uiHost:  host,
		canvas:    canvas,
		connected: func() bool { return current.Load() != nil },
	})
	state := newHandlerState(live, handlers)
	disp := node.NewDispatcher(state, handlers)
	cm := node.NewConnectionManager(state, trust.NewKeyringStore(), clientIdentity(cfg))

	live.OnChange(func(*config.Config) {
		slog.Info("node: feature flags changed; advertised commands update on next connect",
			"commands", node.BuildCommands(state))
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := live.Watch(gctx); err != nil {
			slog.Warn("config: live reload disabled", "error", err)
		}
		return nil
	})
	if metricsAddr != "" {
		g.Go(func() error { return serveMetrics(gctx, metricsAddr) })
	}
	g.Go(func() error {
		dial := func(ctx context.Context) (*gateway.Client, error) {
			// Re-read the snapshot so edited gateway settings apply on reconnect.
			c := live.Snapshot()
			return dialGateway(ctx, cm, gatewayEndpoint(c.Gateway), cm.NodeConnectParams())
		}
		session := func(ctx context.Context, c *gateway.Client) error {
			current.Store(c)
			defer current.Store(nil)
			host.SetCanvasHost(c.CanvasHostURL())

			sctx, cancel := context.WithCancel(ctx)
			defer cancel()
			go func() {
				<-c.Done()
				cancel()
			}()
			_ = consumeInvokeRequests(sctx, c, disp)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return c.Wait()
		}
		return gateway.RunWithReconnect(gctx, dial, session, nil)
	})

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func serveMetrics(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(sctx)
	}()

	slog.Info("metrics server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
