package node

import (
	"encoding/json"
	"fmt"

	"github.com/nextlevelbuilder/goclaw-node/pkg/protocol"
)

// InvokeError is the error half of an InvokeResult. Message carries the
// code as a prefix ("CODE: text").
type InvokeError struct {
	Code    string
	Message string
}

func (e *InvokeError) Error() string { return e.Message }

// InvokeResult is the outcome of one invocation: OK with an optional JSON
// payload, or an error from the protocol error vocabulary.
type InvokeResult struct {
	OK      bool
	Payload *string
	Error   *InvokeError
}

// OK returns a successful result; payload may be nil.
func OK(payload *string) InvokeResult {
	return InvokeResult{OK: true, Payload: payload}
}

// OKString returns a successful result with a raw JSON payload.
func OKString(payload string) InvokeResult {
	return InvokeResult{OK: true, Payload: &payload}
}

// OKJSON marshals v as the payload.
func OKJSON(v interface{}) InvokeResult {
	data, err := json.Marshal(v)
	if err != nil {
		return Fail(protocol.ErrInvalidRequest, fmt.Sprintf("encode payload: %v", err))
	}
	return OKString(string(data))
}

// Fail returns an error result with message "<code>: <text>".
func Fail(code, text string) InvokeResult {
	return InvokeResult{Error: &InvokeError{Code: code, Message: code + ": " + text}}
}

// FailRaw returns an error result whose message is used verbatim.
func FailRaw(code, message string) InvokeResult {
	return InvokeResult{Error: &InvokeError{Code: code, Message: message}}
}

// ToProtocol converts r into the node.invoke.result params for request id.
func (r InvokeResult) ToProtocol(id, nodeID string) protocol.NodeInvokeResult {
	out := protocol.NodeInvokeResult{ID: id, NodeID: nodeID, OK: r.OK, PayloadJSON: r.Payload}
	if r.Error != nil {
		out.OK = false
		out.Error = &protocol.ErrorShape{Code: r.Error.Code, Message: r.Error.Message}
	}
	return out
}

func errUnknownCommand() InvokeResult {
	return Fail(protocol.ErrInvalidRequest, "unknown command")
}

func errCanvasUnavailable() InvokeResult {
	return Fail(protocol.ErrNodeBackgroundUnavailable, "canvas unavailable")
}
