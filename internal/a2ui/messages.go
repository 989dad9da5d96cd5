package a2ui

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/nextlevelbuilder/goclaw-node/pkg/protocol"
)

// Message kinds; every A2UI message carries exactly one of these keys.
var messageKinds = []string{"beginRendering", "surfaceUpdate", "dataModelUpdate", "deleteSurface"}

const maxJSONLLine = 1 << 20

// DecodeMessages decodes the params of canvas.a2ui.push ({"messages":[...]})
// or canvas.a2ui.pushJSONL ({"jsonl":"..."}) into validated messages.
func DecodeMessages(command, paramsJSON string) ([]json.RawMessage, error) {
	if strings.TrimSpace(paramsJSON) == "" {
		return nil, errors.New("A2UI params required")
	}
	switch command {
	case protocol.CmdCanvasA2UIPush:
		var p struct {
			Messages []json.RawMessage `json:"messages"`
		}
		if err := json.Unmarshal([]byte(paramsJSON), &p); err != nil {
			return nil, fmt.Errorf("invalid A2UI payload: %w", err)
		}
		if len(p.Messages) == 0 {
			return nil, errors.New("messages required")
		}
		for i, m := range p.Messages {
			if err := validateMessage(m); err != nil {
				return nil, fmt.Errorf("message %d: %w", i, err)
			}
		}
		return p.Messages, nil

	case protocol.CmdCanvasA2UIPushJSONL:
		var p struct {
			JSONL string `json:"jsonl"`
		}
		if err := json.Unmarshal([]byte(paramsJSON), &p); err != nil {
			return nil, fmt.Errorf("invalid A2UI payload: %w", err)
		}
		if strings.TrimSpace(p.JSONL) == "" {
			return nil, errors.New("jsonl required")
		}
		return decodeJSONL(p.JSONL)

	default:
		return nil, fmt.Errorf("unsupported A2UI command: %s", command)
	}
}

func decodeJSONL(s string) ([]json.RawMessage, error) {
	var out []json.RawMessage
	sc := bufio.NewScanner(strings.NewReader(s))
	sc.Buffer(make([]byte, 0, 64*1024), maxJSONLLine)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		msg := json.RawMessage(text)
		if !json.Valid(msg) {
			return nil, fmt.Errorf("invalid A2UI JSONL on line %d", line)
		}
		if err := validateMessage(msg); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, msg)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read A2UI JSONL: %w", err)
	}
	if len(out) == 0 {
		return nil, errors.New("jsonl contained no messages")
	}
	return out, nil
}

func validateMessage(msg json.RawMessage) error {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(msg, &obj); err != nil || obj == nil {
		return errors.New("A2UI message must be an object")
	}
	found := 0
	for _, k := range messageKinds {
		if _, ok := obj[k]; ok {
			found++
		}
	}
	if found != 1 {
		return fmt.Errorf("A2UI message must contain exactly one of %s", strings.Join(messageKinds, ", "))
	}
	return nil
}
