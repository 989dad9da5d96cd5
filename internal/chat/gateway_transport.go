package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/nextlevelbuilder/goclaw-node/pkg/protocol"
)

const (
	sendTimeout      = 35 * time.Second
	sendProcessingMs = 30000
	historyTimeout   = 15 * time.Second
	sessionsTimeout  = 15 * time.Second
	abortTimeout     = 10 * time.Second

	tracerName = "github.com/nextlevelbuilder/goclaw-node/internal/chat"
)

// GatewayTransport implements Transport over a gateway Channel.
type GatewayTransport struct {
	ch     Channel
	tracer trace.Tracer
}

var _ Transport = (*GatewayTransport)(nil)

func NewGatewayTransport(ch Channel) *GatewayTransport {
	return &GatewayTransport{ch: ch, tracer: otel.Tracer(tracerName)}
}

func (t *GatewayTransport) call(ctx context.Context, method string, params interface{}, timeout time.Duration) (json.RawMessage, error) {
	ctx, span := t.tracer.Start(ctx, method, trace.WithAttributes(attribute.String("rpc.method", method)))
	defer span.End()
	raw, err := t.ch.Request(ctx, method, params, timeout)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return raw, err
}

func (t *GatewayTransport) SendMessage(ctx context.Context, req SendRequest) (*protocol.ChatSendResponse, error) {
	if req.IdempotencyKey == "" {
		return nil, errors.New("chat.send: idempotency key required")
	}
	slog.Info("chat.send start", "sessionKey", req.SessionKey, "len", len(req.Message), "attachments", len(req.Attachments))

	params := protocol.ChatSendParams{
		SessionKey:     req.SessionKey,
		Message:        req.Message,
		Thinking:       req.Thinking,
		TimeoutMs:      sendProcessingMs,
		IdempotencyKey: req.IdempotencyKey,
	}
	if len(req.Attachments) > 0 {
		params.Attachments = req.Attachments
	}
	raw, err := t.call(ctx, protocol.MethodChatSend, params, sendTimeout)
	if err != nil {
		slog.Error("chat.send failed", "sessionKey", req.SessionKey, "error", err)
		return nil, err
	}
	var resp protocol.ChatSendResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decode chat.send response: %w", err)
	}
	slog.Info("chat.send ok", "runId", resp.RunID)
	return &resp, nil
}

func (t *GatewayTransport) RequestHistory(ctx context.Context, sessionKey string) (*protocol.ChatHistoryPayload, error) {
	params := map[string]string{"sessionKey": sessionKey}
	raw, err := t.call(ctx, protocol.MethodChatHistory, params, historyTimeout)
	if err != nil {
		return nil, err
	}
	var out protocol.ChatHistoryPayload
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode chat.history response: %w", err)
	}
	return &out, nil
}

type sessionsListParams struct {
	IncludeGlobal  bool `json:"includeGlobal"`
	IncludeUnknown bool `json:"includeUnknown"`
	Limit          *int `json:"limit,omitempty"`
}

func (t *GatewayTransport) ListSessions(ctx context.Context, limit *int) (*protocol.SessionsListResponse, error) {
	params := sessionsListParams{IncludeGlobal: true, IncludeUnknown: false, Limit: limit}
	raw, err := t.call(ctx, protocol.MethodSessionsList, params, sessionsTimeout)
	if err != nil {
		return nil, err
	}
	var out protocol.SessionsListResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode sessions.list response: %w", err)
	}
	return &out, nil
}

func (t *GatewayTransport) AbortRun(ctx context.Context, sessionKey, runID string) error {
	params := map[string]string{"sessionKey": sessionKey, "runId": runID}
	_, err := t.call(ctx, protocol.MethodChatAbort, params, abortTimeout)
	return err
}

// RequestHealth calls health with the ms budget rounded up to whole seconds
// (minimum one). An undecodable payload counts as healthy.
func (t *GatewayTransport) RequestHealth(ctx context.Context, timeoutMs int) (bool, error) {
	raw, err := t.call(ctx, protocol.MethodHealth, nil, healthTimeout(timeoutMs))
	if err != nil {
		return false, err
	}
	return decodeHealthOK(raw), nil
}

func healthTimeout(timeoutMs int) time.Duration {
	seconds := int(math.Ceil(float64(timeoutMs) / 1000))
	if seconds < 1 {
		seconds = 1
	}
	return time.Duration(seconds) * time.Second
}

// Events opens one subscription and demultiplexes it. The returned channel
// closes after ctx is cancelled or the subscription ends.
func (t *GatewayTransport) Events(ctx context.Context) (<-chan Event, error) {
	ctx, cancel := context.WithCancel(ctx)
	raw, err := t.ch.Subscribe(ctx)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("subscribe events: %w", err)
	}
	out := make(chan Event)
	go func() {
		defer cancel()
		demux(ctx, raw, out)
	}()
	return out, nil
}

// SetActiveSessionKey is a no-op: operator connections see every session.
func (t *GatewayTransport) SetActiveSessionKey(context.Context, string) error { return nil }
