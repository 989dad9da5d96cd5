package protocol

import (
	"encoding/json"
	"fmt"
)

// Frame types on the gateway WebSocket.
const (
	FrameTypeRequest  = "req"
	FrameTypeResponse = "res"
	FrameTypeEvent    = "event"
)

// RequestFrame is a client → gateway RPC call.
type RequestFrame struct {
	Type   string          `json:"type"`
	ID     string          `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

// ResponseFrame answers a RequestFrame with the same ID.
type ResponseFrame struct {
	Type    string          `json:"type"`
	ID      string          `json:"id"`
	OK      bool            `json:"ok"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Error   *ErrorShape     `json:"error,omitempty"`
}

// EventFrame is a server-push event. Seq is monotonically increasing per
// connection when present.
type EventFrame struct {
	Type    string          `json:"type"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Seq     *int64          `json:"seq,omitempty"`
}

// NewRequestFrame marshals params (nil → omitted) into a request frame.
func NewRequestFrame(id, method string, params interface{}) (*RequestFrame, error) {
	f := &RequestFrame{Type: FrameTypeRequest, ID: id, Method: method}
	if params == nil {
		return f, nil
	}
	if raw, ok := params.(json.RawMessage); ok {
		f.Params = raw
		return f, nil
	}
	data, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("marshal %s params: %w", method, err)
	}
	f.Params = data
	return f, nil
}

// InboundFrame is used to peek at the type of an incoming frame before
// decoding it fully.
type InboundFrame struct {
	Type string `json:"type"`
}
