package node

import "github.com/nextlevelbuilder/goclaw-node/pkg/protocol"

// LiveState exposes the feature flags and permission snapshots read at call
// time. Implementations must be safe for concurrent reads.
type LiveState interface {
	Foreground() bool
	CameraEnabled() bool
	LocationEnabled() bool
	SMSAvailable() bool
	VoiceWakeEnabled() bool
	MicrophonePermitted() bool
	DebugBuild() bool
}

func flagsOf(state LiveState) Flags {
	return Flags{
		CameraEnabled:   state.CameraEnabled(),
		LocationEnabled: state.LocationEnabled(),
		SMSAvailable:    state.SMSAvailable(),
		DebugBuild:      state.DebugBuild(),
	}
}

// BuildCommands returns the commands to advertise for the current state.
func BuildCommands(state LiveState) []string {
	f := flagsOf(state)
	return AdvertisedCommands(f.CameraEnabled, f.LocationEnabled, f.SMSAvailable, f.DebugBuild)
}

// BuildCapabilities returns the capability tags to advertise for the current state.
func BuildCapabilities(state LiveState) []string {
	caps := []string{protocol.CapCanvas, protocol.CapScreen, protocol.CapDevice}
	if state.CameraEnabled() {
		caps = append(caps, protocol.CapCamera)
	}
	if state.SMSAvailable() {
		caps = append(caps, protocol.CapSMS)
	}
	if state.VoiceWakeEnabled() && state.MicrophonePermitted() {
		caps = append(caps, protocol.CapVoiceWake)
	}
	if state.LocationEnabled() {
		caps = append(caps, protocol.CapLocation)
	}
	return caps
}
