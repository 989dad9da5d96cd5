package protocol

// WebSocket event names pushed from the gateway to a connected client.
const (
	EventAgent            = "agent"
	EventChat             = "chat"
	EventHealth           = "health"
	EventTick             = "tick"
	EventShutdown         = "shutdown"
	EventPresence         = "presence"
	EventConnectChallenge = "connect.challenge"
	EventVoicewakeChanged = "voicewake.changed"

	// Node invocation request (payload: NodeInvokeRequest).
	EventNodeInvokeRequest = "node.invoke.request"

	// Synthesized client-side when the server sequence number skips ahead.
	// Never sent by the gateway itself.
	EventSeqGap = "seqGap"
)

// Agent event streams (in payload.stream)
const (
	AgentStreamLifecycle = "lifecycle"
	AgentStreamAssistant = "assistant"
	AgentStreamTool      = "tool"
	AgentStreamError     = "error"
)

// Chat event states (in payload.state)
const (
	ChatStateDelta   = "delta"
	ChatStateFinal   = "final"
	ChatStateAborted = "aborted"
	ChatStateError   = "error"
)
