package protocol

// ConnectParams is sent as the params of the "connect" request.
// Built fresh for every connection attempt from live feature state.
type ConnectParams struct {
	MinProtocol int             `json:"minProtocol"`
	MaxProtocol int             `json:"maxProtocol"`
	Client      ClientInfo      `json:"client"`
	Role        string          `json:"role"`
	Scopes      []string        `json:"scopes"`
	Caps        []string        `json:"caps"`
	Commands    []string        `json:"commands"`
	Permissions map[string]bool `json:"permissions,omitempty"`
	Auth        *ConnectAuth    `json:"auth,omitempty"`
	UserAgent   string          `json:"userAgent,omitempty"`
}

// ClientInfo describes the connecting client.
type ClientInfo struct {
	ID              string `json:"id"`
	DisplayName     string `json:"displayName,omitempty"`
	Version         string `json:"version"`
	Platform        string `json:"platform"`
	Mode            string `json:"mode"`
	InstanceID      string `json:"instanceId,omitempty"`
	DeviceFamily    string `json:"deviceFamily,omitempty"`
	ModelIdentifier string `json:"modelIdentifier,omitempty"`
}

// ConnectAuth carries the shared gateway token, if any.
type ConnectAuth struct {
	Token string `json:"token,omitempty"`
}

// HelloOK is the payload of a successful connect response.
type HelloOK struct {
	Type          string         `json:"type"`
	Protocol      int            `json:"protocol"`
	Server        HelloServer    `json:"server"`
	Features      *HelloFeatures `json:"features,omitempty"`
	CanvasHostURL string         `json:"canvasHostUrl,omitempty"`
	Policy        *HelloPolicy   `json:"policy,omitempty"`
}

type HelloServer struct {
	Version string `json:"version"`
	ConnID  string `json:"connId"`
}

type HelloFeatures struct {
	Methods []string `json:"methods"`
	Events  []string `json:"events"`
}

type HelloPolicy struct {
	MaxPayload     int `json:"maxPayload"`
	TickIntervalMs int `json:"tickIntervalMs"`
}

// CanvasCapabilityRefresh is the payload of node.canvas.capability.refresh.
type CanvasCapabilityRefresh struct {
	CanvasHostURL string `json:"canvasHostUrl,omitempty"`
}
