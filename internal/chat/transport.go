package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nextlevelbuilder/goclaw-node/pkg/protocol"
)

// ErrNotSupported is returned by transports lacking an optional RPC.
var ErrNotSupported = errors.New("not supported by this transport")

// Channel is the RPC channel a transport runs over. Request correlates one
// response to one call; Subscribe delivers server events in send order and
// closes the returned channel once ctx is cancelled.
type Channel interface {
	Request(ctx context.Context, method string, params interface{}, timeout time.Duration) (json.RawMessage, error)
	Subscribe(ctx context.Context) (<-chan protocol.EventFrame, error)
}

// SendRequest is one chat.send call. IdempotencyKey is chosen by the caller
// and deduplicated by the gateway.
type SendRequest struct {
	SessionKey     string
	Message        string
	Thinking       string
	IdempotencyKey string
	Attachments    []protocol.ChatAttachment
}

// Transport is the session-scoped chat API used by operator clients.
type Transport interface {
	SendMessage(ctx context.Context, req SendRequest) (*protocol.ChatSendResponse, error)
	RequestHistory(ctx context.Context, sessionKey string) (*protocol.ChatHistoryPayload, error)
	ListSessions(ctx context.Context, limit *int) (*protocol.SessionsListResponse, error)
	AbortRun(ctx context.Context, sessionKey, runID string) error
	RequestHealth(ctx context.Context, timeoutMs int) (bool, error)
	Events(ctx context.Context) (<-chan Event, error)
	SetActiveSessionKey(ctx context.Context, sessionKey string) error
}

// Unsupported provides the optional Transport methods for implementations
// that lack them. Embed it and override what the transport supports.
type Unsupported struct{}

func (Unsupported) AbortRun(context.Context, string, string) error {
	return fmt.Errorf("%s %w", protocol.MethodChatAbort, ErrNotSupported)
}

func (Unsupported) ListSessions(context.Context, *int) (*protocol.SessionsListResponse, error) {
	return nil, fmt.Errorf("%s %w", protocol.MethodSessionsList, ErrNotSupported)
}

// SetActiveSessionKey is a no-op: operator connections receive events for
// every session.
func (Unsupported) SetActiveSessionKey(context.Context, string) error { return nil }
