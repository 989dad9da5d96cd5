package node

import (
	"testing"

	"github.com/nextlevelbuilder/goclaw-node/pkg/protocol"
)

func TestAdvertisedCommands_AllFlagsOff(t *testing.T) {
	cmds := AdvertisedCommands(false, false, false, false)
	for _, want := range []string{protocol.CmdDeviceStatus, protocol.CmdAppUpdate, protocol.CmdCanvasPresent, protocol.CmdNotificationsList} {
		if !contains(cmds, want) {
			t.Fatalf("expected %s in %v", want, cmds)
		}
	}
	for _, banned := range []string{
		protocol.CmdCameraList, protocol.CmdCameraSnap, protocol.CmdCameraClip,
		protocol.CmdLocationGet, protocol.CmdSMSSend,
		protocol.CmdDebugLogs, protocol.CmdDebugEd25519,
	} {
		if contains(cmds, banned) {
			t.Fatalf("did not expect %s in %v", banned, cmds)
		}
	}
}

func TestAdvertisedCommands_AllFlagsOn(t *testing.T) {
	cmds := AdvertisedCommands(true, true, true, true)
	if len(cmds) != len(Commands()) {
		t.Fatalf("expected every command, got %d of %d", len(cmds), len(Commands()))
	}
	for i, spec := range Commands() {
		if cmds[i] != spec.Name {
			t.Fatalf("order mismatch at %d: %s vs %s", i, cmds[i], spec.Name)
		}
	}
	off := AdvertisedCommands(false, false, false, false)
	for _, c := range off {
		if !contains(cmds, c) {
			t.Fatalf("superset missing %s", c)
		}
	}
}

func TestAdvertisedCommands_SingleFlag(t *testing.T) {
	cmds := AdvertisedCommands(false, true, false, false)
	if !contains(cmds, protocol.CmdLocationGet) || contains(cmds, protocol.CmdCameraSnap) {
		t.Fatalf("unexpected commands: %v", cmds)
	}
}

func TestFind(t *testing.T) {
	spec, ok := Find(protocol.CmdCameraSnap)
	if !ok {
		t.Fatal("expected camera.snap")
	}
	if !spec.RequiresForeground || spec.Availability != AvailabilityCameraEnabled {
		t.Fatalf("unexpected spec: %+v", spec)
	}

	spec, ok = Find(protocol.CmdLocationGet)
	if !ok || spec.RequiresForeground || spec.Availability != AvailabilityLocationEnabled {
		t.Fatalf("unexpected location spec: %+v ok=%v", spec, ok)
	}

	if _, ok := Find("no.such.command"); ok {
		t.Fatal("expected miss for unknown command")
	}
	if _, ok := Find("Camera.Snap"); ok {
		t.Fatal("lookup must be exact")
	}
}

func TestCommands_ReturnsCopy(t *testing.T) {
	c := Commands()
	c[0].Name = "mutated"
	if Commands()[0].Name != protocol.CmdCanvasPresent {
		t.Fatal("command table must not be mutable through Commands()")
	}
}

func TestAvailabilityString(t *testing.T) {
	if AvailabilitySMSAvailable.String() != "smsAvailable" || AvailabilityAlways.String() != "always" {
		t.Fatal("unexpected availability strings")
	}
}

func TestBuildCapabilities(t *testing.T) {
	caps := BuildCapabilities(&fakeState{})
	if len(caps) != 3 || caps[0] != protocol.CapCanvas || caps[1] != protocol.CapScreen || caps[2] != protocol.CapDevice {
		t.Fatalf("unexpected base caps: %v", caps)
	}

	caps = BuildCapabilities(&fakeState{camera: true, sms: true, voiceWake: true, mic: true, location: true})
	want := []string{protocol.CapCanvas, protocol.CapScreen, protocol.CapDevice, protocol.CapCamera, protocol.CapSMS, protocol.CapVoiceWake, protocol.CapLocation}
	if len(caps) != len(want) {
		t.Fatalf("expected %v, got %v", want, caps)
	}
	for i := range want {
		if caps[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, caps)
		}
	}
}

func TestBuildCapabilities_VoiceWakeNeedsMicrophone(t *testing.T) {
	caps := BuildCapabilities(&fakeState{voiceWake: true})
	if contains(caps, protocol.CapVoiceWake) {
		t.Fatalf("voiceWake advertised without microphone permission: %v", caps)
	}
}
