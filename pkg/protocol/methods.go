package protocol

// ProtocolVersion is the gateway frame protocol spoken by this client.
const ProtocolVersion = 3

// RPC method names sent from client to gateway.
const (
	MethodConnect = "connect"
	MethodHealth  = "health"

	MethodChatSend    = "chat.send"
	MethodChatHistory = "chat.history"
	MethodChatAbort   = "chat.abort"

	MethodSessionsList = "sessions.list"

	MethodNodeInvokeResult     = "node.invoke.result"
	MethodNodeCanvasCapRefresh = "node.canvas.capability.refresh"
	MethodNodeEvent            = "node.event"
)

// Connection roles.
const (
	RoleNode     = "node"
	RoleOperator = "operator"
)

// Operator scopes requested on connect.
const (
	ScopeOperatorRead        = "operator.read"
	ScopeOperatorWrite       = "operator.write"
	ScopeOperatorTalkSecrets = "operator.talk.secrets"
)
