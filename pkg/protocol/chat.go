package protocol

import "encoding/json"

// ChatAttachment is an inline attachment sent with chat.send.
type ChatAttachment struct {
	Type     string `json:"type"`
	MimeType string `json:"mimeType"`
	FileName string `json:"fileName"`
	Content  string `json:"content"` // base64
}

// ChatSendParams is the params of chat.send.
type ChatSendParams struct {
	SessionKey     string           `json:"sessionKey"`
	Message        string           `json:"message"`
	Thinking       string           `json:"thinking"`
	Attachments    []ChatAttachment `json:"attachments,omitempty"`
	TimeoutMs      int              `json:"timeoutMs"`
	IdempotencyKey string           `json:"idempotencyKey"`
}

// ChatSendResponse is the payload of a chat.send response.
type ChatSendResponse struct {
	RunID  string `json:"runId"`
	Status string `json:"status"`
}

// ChatHistoryPayload is the payload of a chat.history response.
type ChatHistoryPayload struct {
	SessionKey    string            `json:"sessionKey"`
	SessionID     string            `json:"sessionId,omitempty"`
	Messages      []json.RawMessage `json:"messages,omitempty"`
	ThinkingLevel string            `json:"thinkingLevel,omitempty"`
}

// SessionEntry is one row of a sessions.list response.
type SessionEntry struct {
	Key          string `json:"key"`
	Kind         string `json:"kind,omitempty"`
	DisplayName  string `json:"displayName,omitempty"`
	Label        string `json:"label,omitempty"`
	UpdatedAt    *int64 `json:"updatedAt,omitempty"`
	SessionID    string `json:"sessionId,omitempty"`
	Model        string `json:"model,omitempty"`
	InputTokens  *int64 `json:"inputTokens,omitempty"`
	OutputTokens *int64 `json:"outputTokens,omitempty"`
	TotalTokens  *int64 `json:"totalTokens,omitempty"`
}

// SessionsListDefaults carries gateway-wide session defaults.
type SessionsListDefaults struct {
	Model         string `json:"model,omitempty"`
	ContextTokens *int64 `json:"contextTokens,omitempty"`
}

// SessionsListResponse is the payload of a sessions.list response.
type SessionsListResponse struct {
	TS       *int64                `json:"ts,omitempty"`
	Path     string                `json:"path,omitempty"`
	Count    int                   `json:"count"`
	Defaults *SessionsListDefaults `json:"defaults,omitempty"`
	Sessions []SessionEntry        `json:"sessions"`
}

// ChatEventPayload is the payload of a "chat" event.
type ChatEventPayload struct {
	RunID        string          `json:"runId,omitempty"`
	SessionKey   string          `json:"sessionKey,omitempty"`
	State        string          `json:"state,omitempty"`
	Message      json.RawMessage `json:"message,omitempty"`
	ErrorMessage string          `json:"errorMessage,omitempty"`
}

// AgentEventPayload is the payload of an "agent" event.
type AgentEventPayload struct {
	RunID  string                 `json:"runId"`
	Seq    int64                  `json:"seq"`
	Stream string                 `json:"stream"`
	TS     int64                  `json:"ts"`
	Data   map[string]interface{} `json:"data"`
}

// HealthPayload is the payload of a health response or event. OK is a
// pointer so a payload without the field can be told apart from ok=false.
type HealthPayload struct {
	OK *bool `json:"ok"`
}
