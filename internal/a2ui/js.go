package a2ui

import (
	"encoding/json"
	"fmt"
)

// ResetJS clears the rendered A2UI surfaces. The canvas returns a JSON string.
const ResetJS = `(() => {
  try {
    const host = globalThis.goclawA2UI;
    if (!host) return JSON.stringify({ ok: false, error: "missing goclawA2UI" });
    return JSON.stringify(host.reset());
  } catch (e) {
    return JSON.stringify({ ok: false, error: String(e?.message ?? e) });
  }
})()`

const applyTemplate = `(() => {
  try {
    const host = globalThis.goclawA2UI;
    if (!host) return JSON.stringify({ ok: false, error: "missing goclawA2UI" });
    const messages = %s;
    return JSON.stringify(host.applyMessages(messages));
  } catch (e) {
    return JSON.stringify({ ok: false, error: String(e?.message ?? e) });
  }
})()`

// ApplyMessagesJS returns a script applying messages to the A2UI host.
func ApplyMessagesJS(messages []json.RawMessage) (string, error) {
	data, err := json.Marshal(messages)
	if err != nil {
		return "", fmt.Errorf("encode A2UI messages: %w", err)
	}
	return fmt.Sprintf(applyTemplate, data), nil
}
