package domain

import (
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

const localID = "alice"

func TestConversation_OptimisticEcho(t *testing.T) {
	req := require.New(t)
	now := time.Now().UTC()

	t.Run("should collapse the echo into the optimistic entry", func(t *testing.T) {
		conv := NewConversation(Peer{ID: "bob", Username: "Bob"})
		sent := conv.AppendOptimistic(localID, "hello", now)

		msg, appended := conv.AppendLive(localID, "hello", "", localID, now.Add(time.Second))

		req.False(appended)
		req.Equal(sent.ID, msg.ID)
		req.Equal(1, conv.Len())
	})

	t.Run("should keep an unmatched echo as a distinct message", func(t *testing.T) {
		conv := NewConversation(Peer{ID: "bob"})
		conv.AppendOptimistic(localID, "hello", now)

		_, appended := conv.AppendLive(localID, "different content", "", localID, now)

		req.True(appended)
		req.Equal(2, conv.Len())
	})

	t.Run("should confirm duplicates in send order", func(t *testing.T) {
		conv := NewConversation(Peer{ID: "bob"})
		first := conv.AppendOptimistic(localID, "ping", now)
		second := conv.AppendOptimistic(localID, "ping", now.Add(time.Second))

		msg, appended := conv.AppendLive(localID, "ping", "", localID, now)
		req.False(appended)
		req.Equal(first.ID, msg.ID)

		msg, appended = conv.AppendLive(localID, "ping", "", localID, now)
		req.False(appended)
		req.Equal(second.ID, msg.ID)

		// Third echo has nothing left to confirm
		_, appended = conv.AppendLive(localID, "ping", "", localID, now)
		req.True(appended)
		req.Equal(3, conv.Len())
	})

	t.Run("should never collapse a peer message into an optimistic entry", func(t *testing.T) {
		conv := NewConversation(Peer{ID: "bob"})
		conv.AppendOptimistic(localID, "hello", now)

		msg, appended := conv.AppendLive("bob", "hello", "eng", localID, now)

		req.True(appended)
		req.Equal(Received, msg.Direction)
		req.Equal("eng", msg.Lang)
		req.Equal(2, conv.Len())
	})
}

func TestConversation_MergeHistory(t *testing.T) {
	req := require.New(t)
	now := time.Now().UTC()

	history := []Message{
		{SenderID: "bob", Content: "old one", Direction: Received},
		{SenderID: localID, Content: "old two", Direction: Sent},
	}

	t.Run("should prepend history before live messages", func(t *testing.T) {
		conv := NewConversation(Peer{ID: "bob"})
		conv.AppendLive("bob", "live", "", localID, now)

		kept := conv.MergeHistory(history)

		req.Equal(2, kept)
		req.True(conv.HistoryMerged())
		contents := lo.Map(conv.Log(), func(m Message, _ int) string { return m.Content })
		req.Equal([]string{"old one", "old two", "live"}, contents)
	})

	t.Run("should merge only once", func(t *testing.T) {
		conv := NewConversation(Peer{ID: "bob"})
		req.Equal(2, conv.MergeHistory(history))
		req.Equal(0, conv.MergeHistory(history))
		req.Equal(2, conv.Len())
	})

	t.Run("should skip entries already observed live", func(t *testing.T) {
		conv := NewConversation(Peer{ID: "bob"})
		conv.AppendLive("bob", "old one", "", localID, now)

		kept := conv.MergeHistory(history)

		req.Equal(1, kept)
		contents := lo.Map(conv.Log(), func(m Message, _ int) string { return m.Content })
		req.Equal([]string{"old two", "old one"}, contents)
	})

	t.Run("should keep legitimate identical history entries", func(t *testing.T) {
		conv := NewConversation(Peer{ID: "bob"})
		conv.AppendLive("bob", "ping", "", localID, now)

		// Two identical messages in history, only one was seen live
		kept := conv.MergeHistory([]Message{
			{SenderID: "bob", Content: "ping", Direction: Received},
			{SenderID: "bob", Content: "ping", Direction: Received},
		})

		req.Equal(1, kept)
		req.Equal(2, conv.Len())
	})
}

func TestConversation_LogIsACopy(t *testing.T) {
	req := require.New(t)
	conv := NewConversation(Peer{ID: "bob"})
	conv.AppendOptimistic(localID, "hello", time.Now().UTC())

	log := conv.Log()
	log[0].Content = "mutated"

	req.Equal("hello", conv.Log()[0].Content)
}
