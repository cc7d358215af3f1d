package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"chat-client/contract"
	"chat-client/domain"
	"chat-client/domain/event"
	"chat-client/domain/search"
	"chat-client/errors"
	"chat-client/gateway"
	"chat-client/moderation"
	"chat-client/projection"
	"chat-client/realtime"
	"chat-client/repositories"

	"github.com/google/uuid"
)

type IChatService interface {
	Connect(ctx context.Context) error
	Disconnect() error
	State() realtime.State
	SelectPeer(ctx context.Context, peerID, peerName string)
	ClosePeer(peerID string)
	SendMessage(ctx context.Context, peerID, content string) error
	ListUsers(ctx context.Context) ([]domain.Peer, error)
	Log(peerID string) []domain.Message
	Search(ctx context.Context, rawInput string) ([]search.Hit, error)
}

// ChatService ties the gateway, the realtime manager, and the
// conversation store together. It is the surface the UI layer talks to.
type ChatService struct {
	gateway   gateway.IGateway
	realtime  realtime.IManager
	store     *projection.Store
	index     repositories.ISearchIndex
	moderator *moderation.Moderator
	sink      contract.EventSink
	log       *slog.Logger
}

func NewChatService(gw gateway.IGateway, rt realtime.IManager,
	store *projection.Store, index repositories.ISearchIndex,
	moderator *moderation.Moderator, sink contract.EventSink,
	log *slog.Logger) *ChatService {
	return &ChatService{
		gateway:   gw,
		realtime:  rt,
		store:     store,
		index:     index,
		moderator: moderator,
		sink:      sink,
		log:       log,
	}
}

func (s *ChatService) Connect(ctx context.Context) error {
	return s.realtime.Connect(ctx)
}

func (s *ChatService) Disconnect() error {
	return s.realtime.Close()
}

func (s *ChatService) State() realtime.State {
	return s.realtime.State()
}

// SelectPeer opens the conversation and, the first time only, launches
// the asynchronous history fetch through the gateway. Selecting twice
// while the fetch is in flight issues exactly one request.
func (s *ChatService) SelectPeer(ctx context.Context, peerID, peerName string) {
	fetchNeeded, epoch := s.store.Select(peerID, peerName)
	if !fetchNeeded {
		return
	}
	go s.fetchHistory(ctx, peerID, epoch)
}

func (s *ChatService) ClosePeer(peerID string) {
	s.store.CloseConversation(peerID)
}

type historyItem struct {
	Sender  string `json:"sender"`
	Content string `json:"content"`
}

func (s *ChatService) fetchHistory(ctx context.Context, peerID string, epoch int) {
	resp, err := s.gateway.Do(ctx, http.MethodGet, "/api/chat/messages/"+peerID, nil)
	if err != nil {
		s.log.Warn("History fetch failed", "peer", peerID, "error", err)
		s.store.FetchFailed(peerID, epoch)
		return
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		s.log.Warn("History fetch rejected", "peer", peerID, "status", resp.StatusCode)
		s.store.FetchFailed(peerID, epoch)
		return
	}

	var items []historyItem
	if err = json.NewDecoder(resp.Body).Decode(&items); err != nil {
		s.log.Warn("History decode failed", "peer", peerID, "error", err)
		s.store.FetchFailed(peerID, epoch)
		return
	}

	// The wire format carries neither IDs nor timestamps. Each entry gets
	// its own ID and a nanosecond-spaced timestamp so time-keyed storage
	// preserves the server order without key collisions.
	loadedAt := time.Now().UTC()
	history := make([]domain.Message, 0, len(items))
	for i, item := range items {
		history = append(history, s.toHistoryMessage(item, loadedAt.Add(time.Duration(i))))
	}
	s.store.OnHistoryLoaded(ctx, peerID, epoch, history)
}

// toHistoryMessage maps one wire history entry to a domain message.
// The server reports the caller's own entries with the literal sender
// "me"; both that and the local identity map to a sent message.
func (s *ChatService) toHistoryMessage(item historyItem, at time.Time) domain.Message {
	localID := s.store.Identity()
	direction := domain.Received
	senderID := item.Sender
	if item.Sender == "me" || (localID != "" && item.Sender == localID) {
		direction = domain.Sent
		senderID = localID
	}
	return domain.Message{
		ID:        uuid.New(),
		SenderID:  senderID,
		Content:   item.Content,
		Direction: direction,
		At:        at,
	}
}

type sendMessageRequest struct {
	ReceiverID string `json:"receiver_id"`
	Content    string `json:"content"`
}

// SendMessage censors the content, writes it to the realtime channel,
// appends it optimistically, and finally hits the persistence endpoint as
// a best-effort parallel path. Persistence failure degrades to realtime
// only, it never fails the send.
func (s *ChatService) SendMessage(ctx context.Context, peerID, content string) error {
	if s.moderator != nil {
		content, _ = s.moderator.Censor(content)
	}

	if err := s.realtime.Send(peerID, content); err != nil {
		return err
	}
	s.store.AppendOptimistic(peerID, content)
	s.emit(ctx, event.MessageSentType, event.MessageSent{Receiver: peerID, Content: content})

	body, err := json.Marshal(sendMessageRequest{ReceiverID: peerID, Content: content})
	if err != nil {
		return err
	}
	resp, err := s.gateway.Do(ctx, http.MethodPost, "/api/chat/send-message", bytes.NewReader(body))
	if err != nil {
		s.log.Warn("Persistence path failed, message sent realtime only", "peer", peerID, "error", err)
		return nil
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		s.log.Warn("Persistence path rejected message", "peer", peerID, "status", resp.StatusCode)
	}
	return nil
}

type userItem struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// ListUsers returns the candidate peers for new conversations.
func (s *ChatService) ListUsers(ctx context.Context) ([]domain.Peer, error) {
	resp, err := s.gateway.Do(ctx, http.MethodGet, "/api/chat/users", nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: user listing returned %d", errors.ErrUnexpectedStatus, resp.StatusCode)
	}

	var items []userItem
	if err = json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("%w: unreadable user listing", errors.ErrUnexpectedStatus)
	}

	peers := make([]domain.Peer, 0, len(items))
	for _, item := range items {
		peers = append(peers, domain.Peer{ID: item.ID, Username: item.Username})
	}
	return peers, nil
}

// Log exposes the ordered conversation log, read-only.
func (s *ChatService) Log(peerID string) []domain.Message {
	return s.store.Log(peerID)
}

// Search runs a /find style query against the local message index.
func (s *ChatService) Search(ctx context.Context, rawInput string) ([]search.Hit, error) {
	if s.index == nil {
		return nil, nil
	}
	return s.index.Search(ctx, search.NewQuery(rawInput))
}

func (s *ChatService) emit(ctx context.Context, t event.Type, payload any) {
	if s.sink == nil {
		return
	}
	e := event.Event{Type: t, CreatedAt: time.Now().UTC(), Payload: payload}
	if err := s.sink.Consume(ctx, e); err != nil {
		s.log.Warn("Event sink rejected event", "type", string(t), "error", err)
	}
}
