package cmd

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/nextlevelbuilder/goclaw-node/internal/gateway"
	"github.com/nextlevelbuilder/goclaw-node/internal/node"
	"github.com/nextlevelbuilder/goclaw-node/pkg/protocol"
)

const (
	invokeResultTimeout  = 15 * time.Second
	defaultInvokeTimeout = 60 * time.Second
)

// invokeChannel is the part of the gateway session the consumer needs.
type invokeChannel interface {
	Subscribe(ctx context.Context) (<-chan protocol.EventFrame, error)
	Request(ctx context.Context, method string, params interface{}, timeout time.Duration) (json.RawMessage, error)
}

type invoker interface {
	HandleInvoke(ctx context.Context, command, paramsJSON string) node.InvokeResult
}

// consumeInvokeRequests answers node.invoke.request events with
// node.invoke.result until the subscription ends. Invokes run concurrently;
// in-flight invokes are awaited before returning.
func consumeInvokeRequests(ctx context.Context, ch invokeChannel, disp invoker) error {
	events, err := ch.Subscribe(ctx)
	if err != nil {
		return err
	}
	slog.Info("node: invoke consumer started")

	var wg sync.WaitGroup
	defer wg.Wait()

	for ev := range events {
		switch ev.Event {
		case protocol.EventNodeInvokeRequest:
			var req protocol.NodeInvokeRequest
			if err := json.Unmarshal(ev.Payload, &req); err != nil || req.ID == "" {
				slog.Warn("node: malformed invoke request", "error", err)
				continue
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				handleInvokeRequest(ctx, ch, disp, req)
			}()
		case protocol.EventShutdown:
			slog.Info("node: gateway shutting down")
		case protocol.EventSeqGap:
			slog.Warn("node: event sequence gap", "payload", string(ev.Payload))
		}
	}
	slog.Info("node: invoke consumer stopped")
	return ctx.Err()
}

func handleInvokeRequest(ctx context.Context, ch invokeChannel, disp invoker, req protocol.NodeInvokeRequest) {
	timeout := defaultInvokeTimeout
	if req.TimeoutMs > 0 {
		timeout = time.Duration(req.TimeoutMs) * time.Millisecond
	}
	invokeCtx, cancel := context.WithTimeout(ctx, timeout)
	res := disp.HandleInvoke(invokeCtx, req.Command, req.ParamsJSON)
	cancel()

	slog.Debug("node: invoke handled", "id", req.ID, "command", req.Command, "ok", res.OK)
	params := res.ToProtocol(req.ID, req.NodeID)
	_, err := gateway.RetryDo(ctx, gateway.DefaultRetryConfig(), func() (json.RawMessage, error) {
		return ch.Request(ctx, protocol.MethodNodeInvokeResult, params, invokeResultTimeout)
	})
	if err != nil {
		slog.Warn("node: failed to send invoke result", "id", req.ID, "command", req.Command, "error", err)
	}
}
