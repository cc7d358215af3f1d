package domain

import (
	"time"

	"github.com/google/uuid"
)

// Conversation owns the ordered message log with one peer.
// The log merges two sources: a one-time history fetch and live frames.
// Ordering is positional: once appended, a message never moves.
type Conversation struct {
	Peer Peer
	// Pending marks a conversation created by an unsolicited live message,
	// before the user ever selected the peer. It must not steal UI focus.
	Pending bool

	messages      []Message
	historyMerged bool
	// unconfirmed holds IDs of optimistic sends still awaiting their
	// server echo, in append order.
	unconfirmed []uuid.UUID
}

func NewConversation(peer Peer) *Conversation {
	return &Conversation{Peer: peer}
}

// AppendOptimistic records a locally sent message before any server
// confirmation. The matching live echo will collapse into this entry.
func (c *Conversation) AppendOptimistic(localID, content string, at time.Time) Message {
	msg := Message{
		ID:        uuid.New(),
		SenderID:  localID,
		Content:   content,
		Direction: Sent,
		At:        at,
	}
	c.messages = append(c.messages, msg)
	c.unconfirmed = append(c.unconfirmed, msg.ID)
	return msg
}

// AppendLive appends a message observed on the realtime channel.
// An echo of the local identity collapses into the earliest unconfirmed
// optimistic entry with the same content; unmatched echoes are kept as
// distinct messages rather than silently dropped.
// The boolean reports whether a new entry was actually appended.
func (c *Conversation) AppendLive(senderID, content, lang, localID string, at time.Time) (Message, bool) {
	if senderID == localID {
		if msg, ok := c.confirmOptimistic(content); ok {
			return msg, false
		}
	}

	direction := Received
	if senderID == localID {
		direction = Sent
	}
	msg := Message{
		ID:        uuid.New(),
		SenderID:  senderID,
		Content:   content,
		Direction: direction,
		Lang:      lang,
		At:        at,
	}
	c.messages = append(c.messages, msg)
	return msg, true
}

// MergeHistory prepends the fetched history ahead of any live messages
// appended while the fetch was in flight. History entries whose
// (sender, content) identity already exists in the log are skipped, so a
// frame observed live and also returned by the server appears once.
// Returns the number of entries actually prepended.
func (c *Conversation) MergeHistory(history []Message) int {
	if c.historyMerged {
		return 0
	}
	c.historyMerged = true

	// Multiset of identities already present, so two legitimate identical
	// messages in history survive as long as only one was seen live.
	seen := make(map[identity]int, len(c.messages))
	for _, m := range c.messages {
		seen[identity{m.SenderID, m.Content}]++
	}

	kept := make([]Message, 0, len(history))
	for _, h := range history {
		key := identity{h.SenderID, h.Content}
		if seen[key] > 0 {
			seen[key]--
			continue
		}
		kept = append(kept, h)
	}

	c.messages = append(kept, c.messages...)
	return len(kept)
}

// HistoryMerged reports whether the one-time history merge already ran.
func (c *Conversation) HistoryMerged() bool {
	return c.historyMerged
}

// Log returns a copy of the ordered message log.
func (c *Conversation) Log() []Message {
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

func (c *Conversation) Len() int {
	return len(c.messages)
}

func (c *Conversation) confirmOptimistic(content string) (Message, bool) {
	for i, id := range c.unconfirmed {
		idx := c.indexOf(id)
		if idx < 0 {
			continue
		}
		if c.messages[idx].Content == content {
			c.unconfirmed = append(c.unconfirmed[:i], c.unconfirmed[i+1:]...)
			return c.messages[idx], true
		}
	}
	return Message{}, false
}

func (c *Conversation) indexOf(id uuid.UUID) int {
	for i, m := range c.messages {
		if m.ID == id {
			return i
		}
	}
	return -1
}

type identity struct {
	sender  string
	content string
}
