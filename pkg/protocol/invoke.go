package protocol

// NodeInvokeRequest is the payload of a node.invoke.request event.
type NodeInvokeRequest struct {
	ID         string `json:"id"`
	NodeID     string `json:"nodeId"`
	Command    string `json:"command"`
	ParamsJSON string `json:"paramsJSON,omitempty"`
	TimeoutMs  int    `json:"timeoutMs,omitempty"`
}

// NodeInvokeResult is the params of a node.invoke.result request.
type NodeInvokeResult struct {
	ID          string      `json:"id"`
	NodeID      string      `json:"nodeId"`
	OK          bool        `json:"ok"`
	PayloadJSON *string     `json:"payloadJSON,omitempty"`
	Error       *ErrorShape `json:"error,omitempty"`
}
