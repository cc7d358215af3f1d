//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"chat-client/domain"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type IMessageRepository interface {
	StoreMessage(peerID string, message domain.Message) error
	GetMessages(peerID string) ([]domain.Message, error)
}

// MessageRepository is a write-through local cache of merged conversation
// logs. The server stays authoritative for history; this cache only feeds
// the search index and the offline inspector.
type MessageRepository struct {
	db            *badger.DB
	log           *slog.Logger
	limitMessages *int
}

func NewMessageRepository(db *badger.DB, log *slog.Logger, limitMessages *int) *MessageRepository {
	return &MessageRepository{db: db, log: log, limitMessages: limitMessages}
}

type storedMessage struct {
	ID        string    `json:"id"`
	SenderID  string    `json:"sender_id"`
	Content   string    `json:"content"`
	Direction string    `json:"direction"`
	Lang      string    `json:"lang,omitempty"`
	At        time.Time `json:"at"`
}

// StoreMessage persists a message under "msg:{peer_id}:{timestamp_padded}:{uuid}".
// The 19-digit zero padding keeps keys chronologically sorted under
// lexicographical iteration, with the UUID as a collision disconnector for
// two messages in the same nanosecond.
func (m *MessageRepository) StoreMessage(peerID string, message domain.Message) error {
	key := fmt.Sprintf("msg:%s:%019d:%s", peerID, message.At.UnixNano(), message.ID)
	bytes, err := json.Marshal(fromMessage(message))
	if err != nil {
		return err
	}
	return m.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), bytes)
	})
}

// GetMessages returns the cached log for a peer in chronological order.
// Collection stops once the configured limitMessages is reached.
func (m *MessageRepository) GetMessages(peerID string) ([]domain.Message, error) {
	var raw [][]byte
	err := m.db.View(func(txn *badger.Txn) error {
		prefix := []byte(fmt.Sprintf("msg:%s:", peerID))
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if m.limitMessages != nil && len(raw) == *m.limitMessages {
				m.log.Debug(fmt.Sprintf("Maximum of %d cached messages reached", *m.limitMessages))
				break
			}
			err := it.Item().Value(func(value []byte) error {
				raw = append(raw, append([]byte(nil), value...))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	messages := make([]domain.Message, 0, len(raw))
	for _, b := range raw {
		var stored storedMessage
		if err = json.Unmarshal(b, &stored); err != nil {
			return nil, err
		}
		message, err := toMessage(stored)
		if err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}
	return messages, nil
}

func fromMessage(message domain.Message) storedMessage {
	return storedMessage{
		ID:        message.ID.String(),
		SenderID:  message.SenderID,
		Content:   message.Content,
		Direction: string(message.Direction),
		Lang:      message.Lang,
		At:        message.At,
	}
}

func toMessage(stored storedMessage) (domain.Message, error) {
	id, err := uuid.Parse(stored.ID)
	if err != nil {
		return domain.Message{}, err
	}
	return domain.Message{
		ID:        id,
		SenderID:  stored.SenderID,
		Content:   stored.Content,
		Direction: domain.Direction(stored.Direction),
		Lang:      stored.Lang,
		At:        stored.At,
	}, nil
}
