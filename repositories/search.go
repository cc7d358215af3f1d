//go:generate go run go.uber.org/mock/mockgen -source=search.go -destination=../mocks/mock_search_index.go -package=mocks
package repositories

import (
	"context"
	"log/slog"

	"chat-client/domain"
	"chat-client/domain/search"

	"github.com/blugelabs/bluge"
)

type ISearchIndex interface {
	IndexMessage(peerID string, message domain.Message) error
	Search(ctx context.Context, query *search.Query) ([]search.Hit, error)
}

// SearchIndex maintains a local Bluge index over cached messages so the
// user can search past conversations without a server round trip.
type SearchIndex struct {
	writer *bluge.Writer
	log    *slog.Logger
}

func NewSearchIndex(writer *bluge.Writer, log *slog.Logger) *SearchIndex {
	return &SearchIndex{writer: writer, log: log}
}

func (s *SearchIndex) IndexMessage(peerID string, message domain.Message) error {
	doc := bluge.NewDocument(message.ID.String()).
		AddField(bluge.NewTextField("content", message.Content).StoreValue()).
		AddField(bluge.NewKeywordField("peer", peerID).StoreValue()).
		AddField(bluge.NewKeywordField("sender", message.SenderID).StoreValue())
	return s.writer.Update(doc.ID(), doc)
}

func (s *SearchIndex) Search(ctx context.Context, query *search.Query) ([]search.Hit, error) {
	if query.Terms == "" {
		return nil, nil
	}

	reader, err := s.writer.Reader()
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := reader.Close(); err != nil {
			s.log.Warn("Closing index reader failed", "error", err)
		}
	}()

	boolean := bluge.NewBooleanQuery().
		AddMust(bluge.NewMatchQuery(query.Terms).SetField("content"))
	if query.PeerID != "" {
		boolean.AddMust(bluge.NewTermQuery(query.PeerID).SetField("peer"))
	}

	iterator, err := reader.Search(ctx, bluge.NewTopNSearch(query.Limit, boolean))
	if err != nil {
		return nil, err
	}

	var hits []search.Hit
	for {
		match, err := iterator.Next()
		if err != nil {
			return nil, err
		}
		if match == nil {
			break
		}

		var hit search.Hit
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			switch field {
			case "_id":
				hit.MessageID = string(value)
			case "content":
				hit.Content = string(value)
			case "peer":
				hit.PeerID = string(value)
			case "sender":
				hit.SenderID = string(value)
			}
			return true
		})
		if err != nil {
			return nil, err
		}
		hits = append(hits, hit)
	}
	return hits, nil
}
