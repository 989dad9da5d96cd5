package chat

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/nextlevelbuilder/goclaw-node/pkg/protocol"
)

type EventKind int

const (
	EventHealth EventKind = iota + 1
	EventTick
	EventChat
	EventAgent
	EventSeqGap
)

func (k EventKind) String() string {
	switch k {
	case EventHealth:
		return protocol.EventHealth
	case EventTick:
		return protocol.EventTick
	case EventChat:
		return protocol.EventChat
	case EventAgent:
		return protocol.EventAgent
	case EventSeqGap:
		return protocol.EventSeqGap
	default:
		return "unknown"
	}
}

// Event is one demultiplexed server event. Exactly the field matching Kind
// is set; HealthOK is meaningful only for EventHealth.
type Event struct {
	Kind     EventKind
	HealthOK bool
	Chat     *protocol.ChatEventPayload
	Agent    *protocol.AgentEventPayload
}

// decodeEvent maps a raw frame to an Event. ok is false for frames that are
// dropped: unknown tags, missing payloads and undecodable chat/agent payloads.
func decodeEvent(f protocol.EventFrame) (Event, bool) {
	switch f.Event {
	case protocol.EventTick:
		return Event{Kind: EventTick}, true
	case protocol.EventSeqGap:
		return Event{Kind: EventSeqGap}, true
	case protocol.EventHealth:
		if !hasPayload(f.Payload) {
			return Event{}, false
		}
		return Event{Kind: EventHealth, HealthOK: decodeHealthOK(f.Payload)}, true
	case protocol.EventChat:
		if !hasPayload(f.Payload) {
			return Event{}, false
		}
		var p protocol.ChatEventPayload
		if err := json.Unmarshal(f.Payload, &p); err != nil {
			return Event{}, false
		}
		return Event{Kind: EventChat, Chat: &p}, true
	case protocol.EventAgent:
		if !hasPayload(f.Payload) {
			return Event{}, false
		}
		var p protocol.AgentEventPayload
		if err := json.Unmarshal(f.Payload, &p); err != nil {
			return Event{}, false
		}
		return Event{Kind: EventAgent, Agent: &p}, true
	default:
		return Event{}, false
	}
}

func hasPayload(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

// decodeHealthOK reads payload.ok, defaulting to true when the payload does
// not decode or lacks the field. Parse failures are therefore invisible here.
func decodeHealthOK(raw json.RawMessage) bool {
	var p protocol.HealthPayload
	if err := json.Unmarshal(raw, &p); err != nil || p.OK == nil {
		return true
	}
	return *p.OK
}

// demux forwards decoded events from raw to out until ctx is done or raw
// closes, then closes out.
func demux(ctx context.Context, raw <-chan protocol.EventFrame, out chan<- Event) {
	defer close(out)
	for {
		select {
		case <-ctx.Done():
			return
		case f, ok := <-raw:
			if !ok {
				return
			}
			ev, keep := decodeEvent(f)
			if !keep {
				continue
			}
			if ctx.Err() != nil {
				return
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}
}
