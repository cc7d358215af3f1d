// Package projection builds local conversation timelines from observed
// events. Handles ordering, deduplication, and history merges.
// Does not open connections or interact with UI directly.
package projection

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"chat-client/contract"
	"chat-client/domain"
	"chat-client/domain/event"
	"chat-client/repositories"

	"github.com/abadojack/whatlanggo"
)

// Store maintains one Conversation per counterpart identity, merged from
// two independent sources: fetched history and live frames. All mutations
// run under one lock, so interleavings of the WebSocket read loop and
// history-fetch goroutines apply atomically and in arrival order.
type Store struct {
	cache repositories.IMessageRepository // optional write-through cache
	index repositories.ISearchIndex       // optional local search index
	sink  contract.EventSink              // optional UI notifications
	log   *slog.Logger

	mu            sync.Mutex
	localID       string
	conversations map[string]*tracked
	epochCounter  int
}

// tracked pairs a conversation with its fetch bookkeeping. The epoch is
// bumped every time a conversation is (re)created for a peer, so a history
// response resolving after the user closed the conversation is discarded
// instead of resurrecting it.
type tracked struct {
	conv        *domain.Conversation
	epoch       int
	fetchIssued bool
}

func NewStore(localID string, cache repositories.IMessageRepository,
	index repositories.ISearchIndex, sink contract.EventSink, log *slog.Logger) *Store {
	return &Store{
		localID:       localID,
		cache:         cache,
		index:         index,
		sink:          sink,
		log:           log,
		conversations: make(map[string]*tracked),
	}
}

// Identity returns the local user identity the store dedupes echoes
// against.
func (s *Store) Identity() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.localID
}

// SetIdentity rebinds the local identity after a (re)login.
func (s *Store) SetIdentity(localID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.localID = localID
}

// Select opens (or returns) the conversation with a peer. Idempotent.
// fetchNeeded is true exactly once per conversation lifetime: the caller
// must then run the asynchronous history fetch and hand the result to
// OnHistoryLoaded with the returned epoch.
func (s *Store) Select(peerID, peerName string) (fetchNeeded bool, epoch int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.conversations[peerID]
	if !ok {
		t = &tracked{
			conv:  domain.NewConversation(domain.Peer{ID: peerID, Username: peerName}),
			epoch: s.nextEpoch(),
		}
		s.conversations[peerID] = t
	}
	t.conv.Pending = false
	if t.conv.Peer.Username == "" {
		t.conv.Peer.Username = peerName
	}

	if t.fetchIssued {
		return false, t.epoch
	}
	t.fetchIssued = true
	return true, t.epoch
}

// FetchFailed re-arms the history fetch after a failed attempt so a
// later Select can retry. No-op when the conversation is gone or was
// recreated in the meantime.
func (s *Store) FetchFailed(peerID string, epoch int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.conversations[peerID]; ok && t.epoch == epoch {
		t.fetchIssued = false
	}
}

// CloseConversation drops the conversation. History remains fetchable
// again on a later Select.
func (s *Store) CloseConversation(peerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conversations, peerID)
}

// OnHistoryLoaded merges a fetched ordered history into the conversation.
// History is prepended ahead of live messages appended while the fetch was
// in flight, never overwriting or duplicating them. A result for a closed
// or recreated conversation (epoch mismatch) is discarded.
func (s *Store) OnHistoryLoaded(ctx context.Context, peerID string, epoch int, history []domain.Message) {
	s.mu.Lock()
	t, ok := s.conversations[peerID]
	if !ok || t.epoch != epoch {
		s.mu.Unlock()
		s.log.Debug("Discarding history for closed conversation", "peer", peerID)
		return
	}

	kept := t.conv.MergeHistory(history)
	merged := t.conv.Log()
	s.mu.Unlock()

	// Write-through outside the lock; cache failures are not fatal.
	for _, msg := range merged[:kept] {
		s.persist(peerID, msg)
	}

	s.emit(ctx, event.HistoryLoadedType, event.HistoryLoaded{Peer: peerID, Count: kept})
}

// OnLiveMessage appends a message observed on the realtime channel.
// A message for an unselected peer creates a pending conversation without
// any selection event, so the UI never steals focus.
func (s *Store) OnLiveMessage(ctx context.Context, peerID, senderID, content string) {
	lang := ""
	if senderID != s.Identity() {
		info := whatlanggo.Detect(content)
		lang = info.Lang.Iso6391()
	}

	s.mu.Lock()
	t, ok := s.conversations[peerID]
	if !ok {
		t = &tracked{
			conv:  domain.NewConversation(domain.Peer{ID: peerID, Username: peerID}),
			epoch: s.nextEpoch(),
		}
		t.conv.Pending = true
		s.conversations[peerID] = t
	}
	msg, appended := t.conv.AppendLive(senderID, content, lang, s.localID, time.Now().UTC())
	s.mu.Unlock()

	if appended {
		s.persist(peerID, msg)
	}
}

// AppendOptimistic records a locally sent message before any server
// confirmation. The server echo later collapses into this entry.
func (s *Store) AppendOptimistic(peerID, content string) domain.Message {
	s.mu.Lock()
	t, ok := s.conversations[peerID]
	if !ok {
		t = &tracked{
			conv:  domain.NewConversation(domain.Peer{ID: peerID, Username: peerID}),
			epoch: s.nextEpoch(),
		}
		s.conversations[peerID] = t
	}
	msg := t.conv.AppendOptimistic(s.localID, content, time.Now().UTC())
	s.mu.Unlock()

	s.persist(peerID, msg)
	return msg
}

// Log returns the ordered message log for a peer, read-only.
func (s *Store) Log(peerID string) []domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.conversations[peerID]; ok {
		return t.conv.Log()
	}
	return nil
}

// Peers lists open conversations, pending ones included.
func (s *Store) Peers() []domain.Peer {
	s.mu.Lock()
	defer s.mu.Unlock()
	peers := make([]domain.Peer, 0, len(s.conversations))
	for _, t := range s.conversations {
		peers = append(peers, t.conv.Peer)
	}
	return peers
}

// Consume is the single event ingress from the realtime manager.
func (s *Store) Consume(ctx context.Context, e event.Event) error {
	switch payload := e.Payload.(type) {
	case event.MessageReceived:
		s.OnLiveMessage(ctx, payload.Sender, payload.Sender, payload.Content)
	}
	return nil
}

func (s *Store) persist(peerID string, msg domain.Message) {
	if s.cache != nil {
		if err := s.cache.StoreMessage(peerID, msg); err != nil {
			s.log.Warn("Message cache write failed", "peer", peerID, "error", err)
		}
	}
	if s.index != nil {
		if err := s.index.IndexMessage(peerID, msg); err != nil {
			s.log.Warn("Message indexing failed", "peer", peerID, "error", err)
		}
	}
}

func (s *Store) emit(ctx context.Context, t event.Type, payload any) {
	if s.sink == nil {
		return
	}
	e := event.Event{Type: t, CreatedAt: time.Now().UTC(), Payload: payload}
	if err := s.sink.Consume(ctx, e); err != nil {
		s.log.Warn("Event sink rejected event", "type", string(t), "error", err)
	}
}

// nextEpoch must be called with mu held.
func (s *Store) nextEpoch() int {
	s.epochCounter++
	return s.epochCounter
}
