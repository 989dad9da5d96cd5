package node

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/nextlevelbuilder/goclaw-node/internal/a2ui"
	"github.com/nextlevelbuilder/goclaw-node/pkg/protocol"
)

const tracerName = "github.com/nextlevelbuilder/goclaw-node/internal/node"

// Dispatcher validates invoke requests and routes them to capability handlers.
// The route table is built once; a command whose handler is nil has no route.
type Dispatcher struct {
	state    LiveState
	handlers Handlers
	routes   map[string]HandlerFunc
	tracer   trace.Tracer
}

type Option func(*Dispatcher)

// WithTracerProvider sets the provider for invoke spans. Defaults to the
// global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(d *Dispatcher) { d.tracer = tp.Tracer(tracerName) }
}

func NewDispatcher(state LiveState, h Handlers, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		state:    state,
		handlers: h,
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.routes = d.buildRoutes()
	return d
}

// Routed reports whether command has a handler wired.
func (d *Dispatcher) Routed(command string) bool {
	_, ok := d.routes[command]
	return ok
}

// HandleInvoke runs one invocation and always returns exactly one result.
func (d *Dispatcher) HandleInvoke(ctx context.Context, command, paramsJSON string) InvokeResult {
	start := time.Now()
	label := commandLabel(command)
	ctx, span := d.tracer.Start(ctx, "node.invoke", trace.WithAttributes(attribute.String("node.command", label)))
	defer span.End()

	res := d.dispatch(ctx, command, paramsJSON)

	code := resultCode(res)
	invokeTotal.WithLabelValues(label, code).Inc()
	invokeDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())
	span.SetAttributes(attribute.String("node.result", code))
	if res.Error != nil {
		span.SetStatus(codes.Error, res.Error.Code)
	}
	return res
}

func (d *Dispatcher) dispatch(ctx context.Context, command, paramsJSON string) InvokeResult {
	spec, ok := Find(command)
	if !ok {
		return errUnknownCommand()
	}
	if spec.RequiresForeground && !d.state.Foreground() {
		return Fail(protocol.ErrNodeBackgroundUnavailable, "canvas/camera/screen commands require foreground")
	}
	if res, blocked := d.availabilityError(spec.Availability); blocked {
		return res
	}
	route, ok := d.routes[command]
	if !ok {
		return errUnknownCommand()
	}
	if spec.RequiresForeground {
		return d.runForeground(ctx, command, route, paramsJSON)
	}
	return route(ctx, paramsJSON)
}

// runForeground maps a panic from a foreground-dependent handler to
// NODE_BACKGROUND_UNAVAILABLE.
func (d *Dispatcher) runForeground(ctx context.Context, command string, route HandlerFunc, paramsJSON string) (res InvokeResult) {
	defer func() {
		if p := recover(); p != nil {
			slog.Warn("node: foreground handler panicked", "command", command, "panic", p)
			res = errCanvasUnavailable()
		}
	}()
	return route(ctx, paramsJSON)
}

func (d *Dispatcher) availabilityError(a Availability) (InvokeResult, bool) {
	if flagsOf(d.state).Allows(a) {
		return InvokeResult{}, false
	}
	switch a {
	case AvailabilityCameraEnabled:
		return Fail(protocol.ErrCameraDisabled, "enable Camera in Settings"), true
	case AvailabilityLocationEnabled:
		return Fail(protocol.ErrLocationDisabled, "enable Location in Settings"), true
	case AvailabilitySMSAvailable:
		return Fail(protocol.ErrSMSUnavailable, "SMS not available on this device"), true
	default:
		// Debug commands in release builds look exactly like unknown ones.
		return errUnknownCommand(), true
	}
}

func (d *Dispatcher) buildRoutes() map[string]HandlerFunc {
	h := d.handlers
	r := make(map[string]HandlerFunc, len(commandTable))

	if h.Canvas != nil {
		r[protocol.CmdCanvasPresent] = d.canvasNavigate
		r[protocol.CmdCanvasHide] = func(context.Context, string) InvokeResult { return OK(nil) }
		r[protocol.CmdCanvasNavigate] = d.canvasNavigate
		r[protocol.CmdCanvasEval] = d.canvasEval
		r[protocol.CmdCanvasSnapshot] = d.canvasSnapshot
		if h.A2UI != nil {
			r[protocol.CmdCanvasA2UIPush] = func(ctx context.Context, p string) InvokeResult {
				return d.a2uiPush(ctx, protocol.CmdCanvasA2UIPush, p)
			}
			r[protocol.CmdCanvasA2UIPushJSONL] = func(ctx context.Context, p string) InvokeResult {
				return d.a2uiPush(ctx, protocol.CmdCanvasA2UIPushJSONL, p)
			}
			r[protocol.CmdCanvasA2UIReset] = d.a2uiReset
		}
	}
	if h.Camera != nil {
		r[protocol.CmdCameraList] = h.Camera.List
		r[protocol.CmdCameraSnap] = h.Camera.Snap
		r[protocol.CmdCameraClip] = h.Camera.Clip
	}
	if h.Location != nil {
		r[protocol.CmdLocationGet] = h.Location.Get
	}
	if h.Screen != nil {
		r[protocol.CmdScreenRecord] = h.Screen.Record
	}
	if h.Device != nil {
		r[protocol.CmdDeviceStatus] = h.Device.Status
		r[protocol.CmdDeviceInfo] = h.Device.Info
		r[protocol.CmdDevicePermissions] = h.Device.Permissions
		r[protocol.CmdDeviceHealth] = h.Device.Health
	}
	if h.Notifications != nil {
		r[protocol.CmdNotificationsList] = h.Notifications.List
		r[protocol.CmdNotificationsActions] = h.Notifications.Actions
	}
	if h.SMS != nil {
		r[protocol.CmdSMSSend] = h.SMS.Send
	}
	if h.Debug != nil {
		r[protocol.CmdDebugLogs] = func(ctx context.Context, _ string) InvokeResult { return h.Debug.Logs(ctx) }
		r[protocol.CmdDebugEd25519] = func(ctx context.Context, _ string) InvokeResult { return h.Debug.Ed25519(ctx) }
	}
	if h.AppUpdate != nil {
		r[protocol.CmdAppUpdate] = h.AppUpdate.Update
	}
	return r
}

// withCanvasAvailable maps canvas errors and panics to NODE_BACKGROUND_UNAVAILABLE.
func (d *Dispatcher) withCanvasAvailable(command string, fn func() (InvokeResult, error)) (res InvokeResult) {
	defer func() {
		if p := recover(); p != nil {
			slog.Warn("node: canvas handler panicked", "command", command, "panic", p)
			res = errCanvasUnavailable()
		}
	}()
	out, err := fn()
	if err != nil {
		slog.Warn("node: canvas unavailable", "command", command, "error", err)
		return errCanvasUnavailable()
	}
	return out
}

func (d *Dispatcher) canvasNavigate(ctx context.Context, paramsJSON string) InvokeResult {
	p, err := ParseNavigateParams(paramsJSON)
	if err != nil {
		return Fail(protocol.ErrInvalidRequest, err.Error())
	}
	return d.withCanvasAvailable(protocol.CmdCanvasNavigate, func() (InvokeResult, error) {
		if err := d.handlers.Canvas.Navigate(ctx, p.URL); err != nil {
			return InvokeResult{}, err
		}
		return OK(nil), nil
	})
}

func (d *Dispatcher) canvasEval(ctx context.Context, paramsJSON string) InvokeResult {
	js, ok := ParseEvalJS(paramsJSON)
	if !ok {
		return Fail(protocol.ErrInvalidRequest, "javaScript required")
	}
	return d.withCanvasAvailable(protocol.CmdCanvasEval, func() (InvokeResult, error) {
		result, err := d.handlers.Canvas.Eval(ctx, js)
		if err != nil {
			return InvokeResult{}, err
		}
		return OKJSON(evalPayload{Result: result}), nil
	})
}

func (d *Dispatcher) canvasSnapshot(ctx context.Context, paramsJSON string) InvokeResult {
	p, err := ParseSnapshotParams(paramsJSON)
	if err != nil {
		return Fail(protocol.ErrInvalidRequest, err.Error())
	}
	return d.withCanvasAvailable(protocol.CmdCanvasSnapshot, func() (InvokeResult, error) {
		b64, err := d.handlers.Canvas.Snapshot(ctx, p)
		if err != nil {
			return InvokeResult{}, err
		}
		return OKJSON(snapshotPayload{Format: p.Format, Base64: b64}), nil
	})
}

func (d *Dispatcher) a2uiPush(ctx context.Context, command, paramsJSON string) InvokeResult {
	messages, err := a2ui.DecodeMessages(command, paramsJSON)
	if err != nil {
		return Fail(protocol.ErrInvalidRequest, err.Error())
	}
	js, err := a2ui.ApplyMessagesJS(messages)
	if err != nil {
		return Fail(protocol.ErrInvalidRequest, err.Error())
	}
	return d.withReadyA2UI(ctx, func() InvokeResult {
		return d.withCanvasAvailable(command, func() (InvokeResult, error) {
			res, err := d.handlers.Canvas.Eval(ctx, js)
			if err != nil {
				return InvokeResult{}, err
			}
			if d.handlers.OnA2UIPush != nil {
				d.handlers.OnA2UIPush()
			}
			return evalResult(res), nil
		})
	})
}

func (d *Dispatcher) a2uiReset(ctx context.Context, _ string) InvokeResult {
	return d.withReadyA2UI(ctx, func() InvokeResult {
		return d.withCanvasAvailable(protocol.CmdCanvasA2UIReset, func() (InvokeResult, error) {
			res, err := d.handlers.Canvas.Eval(ctx, a2ui.ResetJS)
			if err != nil {
				return InvokeResult{}, err
			}
			if d.handlers.OnA2UIReset != nil {
				d.handlers.OnA2UIReset()
			}
			return evalResult(res), nil
		})
	})
}

// evalResult passes a script's JSON result through as the payload.
func evalResult(res string) InvokeResult {
	if res == "" {
		return OK(nil)
	}
	return OKString(res)
}
