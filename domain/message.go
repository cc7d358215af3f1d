// Package domain contains core concepts of the messaging client.
// This file defines Message values and peer identities.
// Messages are immutable once appended to a conversation log.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Direction tells whether a message left this client or arrived from a peer.
type Direction string

const (
	Sent     Direction = "sent"
	Received Direction = "received"
)

// Message represents one immutable entry of a conversation log.
type Message struct {
	ID        uuid.UUID // unique identifier
	SenderID  string
	Content   string
	Direction Direction
	Lang      string // ISO-639-1 code detected on received messages, may be empty
	At        time.Time
}

// Peer is a counterpart identity as returned by the user listing endpoint.
type Peer struct {
	ID       string
	Username string
}
