package event

import (
	"time"
)

type Type string

const (
	MessageReceivedType Type = "MESSAGE_RECEIVED"
	MessageSentType     Type = "MESSAGE_SENT"
	HistoryLoadedType   Type = "HISTORY_LOADED"
	ConnectionType      Type = "CONNECTION_STATE"
	FrameRejectedType   Type = "FRAME_REJECTED"
	TokenRefreshedType  Type = "TOKEN_REFRESHED"
)

type Event struct {
	Type      Type
	CreatedAt time.Time
	Payload   any
}

// MessageReceived is one decoded inbound frame from the realtime channel.
// The manager does not interpret content, only the envelope.
type MessageReceived struct {
	Sender  string
	Content string
}

type MessageSent struct {
	Receiver string
	Content  string
}

type HistoryLoaded struct {
	Peer  string
	Count int
}

// ConnectionChanged reports a connection state transition. Reconnection
// after a drop is the consumer's decision, never implicit.
type ConnectionChanged struct {
	From string
	To   string
}

// FrameRejected reports a single dropped malformed frame.
// The connection itself stays open.
type FrameRejected struct {
	Reason string
}

type TokenRefreshed struct{}
