package protocol

import (
	"encoding/json"
	"testing"
)

func TestCommandsUseStableStrings(t *testing.T) {
	cases := map[string]string{
		CmdCanvasPresent:       "canvas.present",
		CmdCanvasHide:          "canvas.hide",
		CmdCanvasNavigate:      "canvas.navigate",
		CmdCanvasEval:          "canvas.eval",
		CmdCanvasSnapshot:      "canvas.snapshot",
		CmdCanvasA2UIPush:      "canvas.a2ui.push",
		CmdCanvasA2UIPushJSONL: "canvas.a2ui.pushJSONL",
		CmdCanvasA2UIReset:     "canvas.a2ui.reset",
		CmdCameraList:          "camera.list",
		CmdCameraSnap:          "camera.snap",
		CmdCameraClip:          "camera.clip",
		CmdScreenRecord:        "screen.record",
		CmdNotificationsList:   "notifications.list",
		CmdDeviceHealth:        "device.health",
	}
	for got, want := range cases {
		if got != want {
			t.Fatalf("command constant %q, want %q", got, want)
		}
	}
}

func TestCapabilitiesUseStableStrings(t *testing.T) {
	for got, want := range map[string]string{
		CapCanvas:    "canvas",
		CapCamera:    "camera",
		CapScreen:    "screen",
		CapVoiceWake: "voiceWake",
		CapLocation:  "location",
		CapSMS:       "sms",
		CapDevice:    "device",
	} {
		if got != want {
			t.Fatalf("capability constant %q, want %q", got, want)
		}
	}
}

func TestNewRequestFrame(t *testing.T) {
	f, err := NewRequestFrame("1", MethodHealth, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, _ := json.Marshal(f)
	if string(data) != `{"type":"req","id":"1","method":"health"}` {
		t.Fatalf("unexpected frame: %s", data)
	}

	f, err = NewRequestFrame("2", MethodChatAbort, map[string]string{"runId": "r1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(f.Params) != `{"runId":"r1"}` {
		t.Fatalf("unexpected params: %s", f.Params)
	}
}
