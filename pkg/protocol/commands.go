package protocol

// Capability tags advertised in ConnectParams.Caps.
const (
	CapCanvas    = "canvas"
	CapCamera    = "camera"
	CapScreen    = "screen"
	CapSMS       = "sms"
	CapVoiceWake = "voiceWake"
	CapLocation  = "location"
	CapDevice    = "device"
)

// Invoke commands advertised in ConnectParams.Commands.
const (
	CmdCanvasPresent  = "canvas.present"
	CmdCanvasHide     = "canvas.hide"
	CmdCanvasNavigate = "canvas.navigate"
	CmdCanvasEval     = "canvas.eval"
	CmdCanvasSnapshot = "canvas.snapshot"

	CmdCanvasA2UIPush      = "canvas.a2ui.push"
	CmdCanvasA2UIPushJSONL = "canvas.a2ui.pushJSONL"
	CmdCanvasA2UIReset     = "canvas.a2ui.reset"

	CmdCameraList = "camera.list"
	CmdCameraSnap = "camera.snap"
	CmdCameraClip = "camera.clip"

	CmdScreenRecord = "screen.record"

	CmdLocationGet = "location.get"

	CmdDeviceStatus      = "device.status"
	CmdDeviceInfo        = "device.info"
	CmdDevicePermissions = "device.permissions"
	CmdDeviceHealth      = "device.health"

	CmdNotificationsList    = "notifications.list"
	CmdNotificationsActions = "notifications.actions"

	CmdSMSSend = "sms.send"

	CmdAppUpdate = "app.update"

	// Debug builds only.
	CmdDebugLogs    = "debug.logs"
	CmdDebugEd25519 = "debug.ed25519"
)

// Command namespace prefixes.
const (
	CanvasNamespace        = "canvas."
	CanvasA2UINamespace    = "canvas.a2ui."
	CameraNamespace        = "camera."
	ScreenNamespace        = "screen."
	LocationNamespace      = "location."
	DeviceNamespace        = "device."
	NotificationsNamespace = "notifications."
	SMSNamespace           = "sms."
)
