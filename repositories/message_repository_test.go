package repositories

import (
	"fmt"
	"log/slog"
	"testing"
	"time"

	"chat-client/domain"

	"github.com/google/uuid"
	"github.com/mama165/sdk-go/database"
	"github.com/stretchr/testify/require"
)

func TestMessageRepository_StoreAndGetSorted(t *testing.T) {
	req := require.New(t)
	_, _, badgerDB, blugeWriter, err := database.SetupBenchmark(database.DefaultPath)
	req.NoError(err)
	defer database.CleanupDB(badgerDB, blugeWriter)

	repository := NewMessageRepository(badgerDB, slog.Default(), nil)
	peer := "bob"
	at := time.Now().UTC()
	messages := []domain.Message{
		{ID: uuid.New(), SenderID: "bob", Content: "first", Direction: domain.Received, Lang: "en", At: at},
		{ID: uuid.New(), SenderID: "alice", Content: "second", Direction: domain.Sent, At: at.Add(time.Minute)},
		{ID: uuid.New(), SenderID: "bob", Content: "third", Direction: domain.Received, Lang: "en", At: at.Add(2 * time.Minute)},
	}

	// Store out of order; keys must restore chronological order
	for _, i := range []int{2, 0, 1} {
		req.NoError(repository.StoreMessage(peer, messages[i]))
	}

	fetched, err := repository.GetMessages(peer)
	req.NoError(err)
	req.Len(fetched, len(messages))
	for i := range messages {
		req.Equal(messages[i].ID, fetched[i].ID)
		req.Equal(messages[i].Content, fetched[i].Content)
		req.Equal(messages[i].Direction, fetched[i].Direction)
		req.Equal(messages[i].Lang, fetched[i].Lang)
	}
}

func TestMessageRepository_IsolatesPeers(t *testing.T) {
	req := require.New(t)
	_, _, badgerDB, blugeWriter, err := database.SetupBenchmark(database.DefaultPath)
	req.NoError(err)
	defer database.CleanupDB(badgerDB, blugeWriter)

	repository := NewMessageRepository(badgerDB, slog.Default(), nil)
	at := time.Now().UTC()
	req.NoError(repository.StoreMessage("bob", domain.Message{ID: uuid.New(), SenderID: "bob", Content: "for bob", At: at}))
	req.NoError(repository.StoreMessage("carol", domain.Message{ID: uuid.New(), SenderID: "carol", Content: "for carol", At: at}))

	fetched, err := repository.GetMessages("bob")
	req.NoError(err)
	req.Len(fetched, 1)
	req.Equal("for bob", fetched[0].Content)
}

func TestMessageRepository_Limit(t *testing.T) {
	req := require.New(t)
	_, _, badgerDB, blugeWriter, err := database.SetupBenchmark(database.DefaultPath)
	req.NoError(err)
	defer database.CleanupDB(badgerDB, blugeWriter)

	limit := 2
	repository := NewMessageRepository(badgerDB, slog.Default(), &limit)
	peer := "bob"
	at := time.Now().UTC()

	for i := 1; i <= 5; i++ {
		req.NoError(repository.StoreMessage(peer, domain.Message{
			ID:       uuid.New(),
			SenderID: "bob",
			Content:  fmt.Sprintf("message %d", i),
			At:       at.Add(time.Duration(i) * time.Minute),
		}))
	}

	fetched, err := repository.GetMessages(peer)
	req.NoError(err)
	req.Len(fetched, limit)
}
