package node

import "context"

// HandlerFunc handles one invoke command. It receives the raw params JSON
// ("" when absent) and parses it itself.
type HandlerFunc func(ctx context.Context, paramsJSON string) InvokeResult

// Canvas is the on-screen rendering surface.
type Canvas interface {
	Navigate(ctx context.Context, url string) error
	Eval(ctx context.Context, js string) (string, error)
	Snapshot(ctx context.Context, p SnapshotParams) (base64 string, err error)
}

// A2UIHost is the rendering host that canvas.a2ui.* commands target.
type A2UIHost interface {
	// ResolveHostURL returns the A2UI URL derived from the advertised canvas host.
	ResolveHostURL() (string, bool)
	// EnsureReady probes url and reports whether the host is ready.
	EnsureReady(ctx context.Context, url string) bool
	// RefreshCapability re-announces the node's canvas capability to the
	// gateway and reports whether it succeeded.
	RefreshCapability(ctx context.Context) bool
}

type Camera interface {
	List(ctx context.Context, paramsJSON string) InvokeResult
	Snap(ctx context.Context, paramsJSON string) InvokeResult
	Clip(ctx context.Context, paramsJSON string) InvokeResult
}

type Location interface {
	Get(ctx context.Context, paramsJSON string) InvokeResult
}

type Screen interface {
	Record(ctx context.Context, paramsJSON string) InvokeResult
}

type Device interface {
	Status(ctx context.Context, paramsJSON string) InvokeResult
	Info(ctx context.Context, paramsJSON string) InvokeResult
	Permissions(ctx context.Context, paramsJSON string) InvokeResult
	Health(ctx context.Context, paramsJSON string) InvokeResult
}

type Notifications interface {
	List(ctx context.Context, paramsJSON string) InvokeResult
	Actions(ctx context.Context, paramsJSON string) InvokeResult
}

type SMS interface {
	Send(ctx context.Context, paramsJSON string) InvokeResult
}

type Debug interface {
	Logs(ctx context.Context) InvokeResult
	Ed25519(ctx context.Context) InvokeResult
}

type AppUpdater interface {
	Update(ctx context.Context, paramsJSON string) InvokeResult
}

// Handlers groups the capability collaborators. A nil field leaves its
// commands unrouted; they then fail as unknown commands.
type Handlers struct {
	Canvas        Canvas
	A2UI          A2UIHost
	Camera        Camera
	Location      Location
	Screen        Screen
	Device        Device
	Notifications Notifications
	SMS           SMS
	Debug         Debug
	AppUpdate     AppUpdater

	// Optional hooks fired after a successful A2UI push or reset.
	OnA2UIPush  func()
	OnA2UIReset func()
}
