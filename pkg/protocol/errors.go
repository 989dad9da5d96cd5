package protocol

import "fmt"

// Invoke error codes. This is the complete vocabulary a node returns
// in NodeInvokeResult.Error.
const (
	ErrInvalidRequest            = "INVALID_REQUEST"
	ErrNodeBackgroundUnavailable = "NODE_BACKGROUND_UNAVAILABLE"
	ErrCameraDisabled            = "CAMERA_DISABLED"
	ErrLocationDisabled          = "LOCATION_DISABLED"
	ErrSMSUnavailable            = "SMS_UNAVAILABLE"
	ErrA2UIHostNotConfigured     = "A2UI_HOST_NOT_CONFIGURED"
	ErrA2UIHostUnavailable       = "A2UI_HOST_UNAVAILABLE"
)

// ErrorShape is the error object carried by response frames and invoke results.
type ErrorShape struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable,omitempty"`
}

// GatewayError is returned by RPC calls whose response frame has ok=false.
type GatewayError struct {
	Method    string
	Code      string
	Message   string
	Retryable bool
}

func (e *GatewayError) Error() string {
	if e.Method == "" {
		return fmt.Sprintf("gateway error %s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: gateway error %s: %s", e.Method, e.Code, e.Message)
}
