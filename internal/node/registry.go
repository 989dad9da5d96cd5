package node

import "github.com/nextlevelbuilder/goclaw-node/pkg/protocol"

// Availability names the live flag gating a command.
type Availability int

const (
	AvailabilityAlways Availability = iota
	AvailabilityCameraEnabled
	AvailabilityLocationEnabled
	AvailabilitySMSAvailable
	AvailabilityDebugBuild
)

func (a Availability) String() string {
	switch a {
	case AvailabilityAlways:
		return "always"
	case AvailabilityCameraEnabled:
		return "cameraEnabled"
	case AvailabilityLocationEnabled:
		return "locationEnabled"
	case AvailabilitySMSAvailable:
		return "smsAvailable"
	case AvailabilityDebugBuild:
		return "debugBuild"
	default:
		return "unknown"
	}
}

// CommandSpec describes one invocable command.
type CommandSpec struct {
	Name               string
	RequiresForeground bool
	Availability       Availability
}

var commandTable = []CommandSpec{
	{Name: protocol.CmdCanvasPresent, RequiresForeground: true},
	{Name: protocol.CmdCanvasHide, RequiresForeground: true},
	{Name: protocol.CmdCanvasNavigate, RequiresForeground: true},
	{Name: protocol.CmdCanvasEval, RequiresForeground: true},
	{Name: protocol.CmdCanvasSnapshot, RequiresForeground: true},
	{Name: protocol.CmdCanvasA2UIPush, RequiresForeground: true},
	{Name: protocol.CmdCanvasA2UIPushJSONL, RequiresForeground: true},
	{Name: protocol.CmdCanvasA2UIReset, RequiresForeground: true},
	{Name: protocol.CmdScreenRecord, RequiresForeground: true},
	{Name: protocol.CmdCameraList, RequiresForeground: true, Availability: AvailabilityCameraEnabled},
	{Name: protocol.CmdCameraSnap, RequiresForeground: true, Availability: AvailabilityCameraEnabled},
	{Name: protocol.CmdCameraClip, RequiresForeground: true, Availability: AvailabilityCameraEnabled},
	{Name: protocol.CmdLocationGet, Availability: AvailabilityLocationEnabled},
	{Name: protocol.CmdDeviceStatus},
	{Name: protocol.CmdDeviceInfo},
	{Name: protocol.CmdDevicePermissions},
	{Name: protocol.CmdDeviceHealth},
	{Name: protocol.CmdNotificationsList},
	{Name: protocol.CmdNotificationsActions},
	{Name: protocol.CmdSMSSend, Availability: AvailabilitySMSAvailable},
	{Name: protocol.CmdDebugLogs, Availability: AvailabilityDebugBuild},
	{Name: protocol.CmdDebugEd25519, Availability: AvailabilityDebugBuild},
	{Name: protocol.CmdAppUpdate},
}

var commandIndex = func() map[string]CommandSpec {
	m := make(map[string]CommandSpec, len(commandTable))
	for _, spec := range commandTable {
		m[spec.Name] = spec
	}
	return m
}()

// Commands returns a copy of the command table in advertisement order.
func Commands() []CommandSpec {
	out := make([]CommandSpec, len(commandTable))
	copy(out, commandTable)
	return out
}

// Find looks up a command by exact name.
func Find(name string) (CommandSpec, bool) {
	spec, ok := commandIndex[name]
	return spec, ok
}

// Flags is a snapshot of the live flags that gate command availability.
type Flags struct {
	CameraEnabled   bool
	LocationEnabled bool
	SMSAvailable    bool
	DebugBuild      bool
}

// Allows reports whether the availability kind is satisfied by f.
func (f Flags) Allows(a Availability) bool {
	switch a {
	case AvailabilityAlways:
		return true
	case AvailabilityCameraEnabled:
		return f.CameraEnabled
	case AvailabilityLocationEnabled:
		return f.LocationEnabled
	case AvailabilitySMSAvailable:
		return f.SMSAvailable
	case AvailabilityDebugBuild:
		return f.DebugBuild
	default:
		return false
	}
}

// AdvertisedCommands filters the command table by the given flags.
func AdvertisedCommands(cameraEnabled, locationEnabled, smsAvailable, debugBuild bool) []string {
	f := Flags{
		CameraEnabled:   cameraEnabled,
		LocationEnabled: locationEnabled,
		SMSAvailable:    smsAvailable,
		DebugBuild:      debugBuild,
	}
	out := make([]string, 0, len(commandTable))
	for _, spec := range commandTable {
		if f.Allows(spec.Availability) {
			out = append(out, spec.Name)
		}
	}
	return out
}
