//go:generate go run go.uber.org/mock/mockgen -source=manager.go -destination=../mocks/mock_realtime_manager.go -package=mocks

// Package realtime owns the single streaming connection of a session.
// All sends and receives route through the Manager; no other component
// opens a second connection.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"chat-client/contract"
	"chat-client/domain/event"
	"chat-client/errors"
	"chat-client/repositories"

	"github.com/gorilla/websocket"
)

type State string

const (
	Disconnected State = "DISCONNECTED"
	Connecting   State = "CONNECTING"
	Open         State = "OPEN"
	Closing      State = "CLOSING"
)

type IManager interface {
	Connect(ctx context.Context) error
	Send(receiverID, content string) error
	Close() error
	State() State
}

type inboundFrame struct {
	Sender  string `json:"sender"`
	Content string `json:"content"`
}

type outboundFrame struct {
	Receiver string `json:"receiver"`
	Content  string `json:"content"`
}

// Manager multiplexes one bidirectional WebSocket. It decodes inbound
// envelopes and forwards (sender, content) to the sink without
// interpreting content. Reconnection after a drop is caller-initiated;
// there is no background retry loop.
type Manager struct {
	url         string
	dialer      *websocket.Dialer
	credentials repositories.ICredentialStore
	sink        contract.EventSink
	log         *slog.Logger

	mu      sync.Mutex
	writeMu sync.Mutex
	state   State
	conn    *websocket.Conn
}

func NewManager(url string, handshakeTimeout time.Duration,
	credentials repositories.ICredentialStore, sink contract.EventSink,
	log *slog.Logger) *Manager {
	return &Manager{
		url:         url,
		dialer:      &websocket.Dialer{HandshakeTimeout: handshakeTimeout},
		credentials: credentials,
		sink:        sink,
		log:         log,
		state:       Disconnected,
	}
}

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Connect performs the handshake and starts the receive loop.
// Calling it while already Connecting or Open is a no-op.
func (m *Manager) Connect(ctx context.Context) error {
	m.mu.Lock()
	if m.state != Disconnected {
		m.mu.Unlock()
		return nil
	}
	changed, ok := m.change(Connecting)
	m.mu.Unlock()
	m.notify(ctx, changed, ok)

	header := http.Header{}
	if pair, err := m.credentials.Pair(); err == nil && pair.HasAccess() {
		header.Set("Authorization", "Bearer "+pair.AccessToken)
	}

	conn, resp, err := m.dialer.DialContext(ctx, m.url, header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		m.mu.Lock()
		changed, ok = m.change(Disconnected)
		m.mu.Unlock()
		m.notify(ctx, changed, ok)
		return fmt.Errorf("%w: %v", errors.ErrConnection, err)
	}

	m.mu.Lock()
	if m.state != Connecting {
		// Close ran while the dial was in flight; discard the connection.
		m.mu.Unlock()
		_ = conn.Close()
		return fmt.Errorf("%w: closed while connecting", errors.ErrNotConnected)
	}
	m.conn = conn
	changed, ok = m.change(Open)
	m.mu.Unlock()
	m.notify(ctx, changed, ok)

	go m.readLoop(ctx, conn)
	return nil
}

// Send is valid only in the Open state. The wire shape is
// {"receiver": ..., "content": ...}.
func (m *Manager) Send(receiverID, content string) error {
	m.mu.Lock()
	conn, state := m.conn, m.state
	m.mu.Unlock()

	if state != Open || conn == nil {
		return errors.ErrNotConnected
	}

	// gorilla allows a single concurrent writer per connection.
	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	if err := conn.WriteJSON(outboundFrame{Receiver: receiverID, Content: content}); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrNetwork, err)
	}
	return nil
}

// Close shuts the connection down. Idempotent. Called while a dial is in
// flight, it aborts the connection attempt.
func (m *Manager) Close() error {
	ctx := context.Background()

	m.mu.Lock()
	if m.conn == nil {
		changed, ok := m.change(Disconnected)
		m.mu.Unlock()
		m.notify(ctx, changed, ok)
		return nil
	}
	conn := m.conn
	m.conn = nil
	changed, ok := m.change(Closing)
	m.mu.Unlock()
	m.notify(ctx, changed, ok)

	m.writeMu.Lock()
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	m.writeMu.Unlock()

	err := conn.Close()
	m.mu.Lock()
	changed, ok = m.change(Disconnected)
	m.mu.Unlock()
	m.notify(ctx, changed, ok)
	return err
}

// readLoop decodes inbound frames until the connection dies. A malformed
// frame is logged and dropped; it never terminates the connection.
func (m *Manager) readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			m.mu.Lock()
			// Close() already reported the transition.
			var changed event.ConnectionChanged
			var ok bool
			if m.conn == conn {
				m.conn = nil
				changed, ok = m.change(Disconnected)
			}
			m.mu.Unlock()
			m.notify(ctx, changed, ok)
			m.log.Info("Realtime connection closed", "error", err)
			return
		}

		var frame inboundFrame
		if err = json.Unmarshal(data, &frame); err == nil && frame.Sender == "" {
			err = errors.ErrDecodeFrame
		}
		if err != nil {
			m.log.Warn("Dropping malformed frame", "error", err)
			m.emit(ctx, event.FrameRejectedType, event.FrameRejected{Reason: err.Error()})
			continue
		}

		m.emit(ctx, event.MessageReceivedType, event.MessageReceived{
			Sender:  frame.Sender,
			Content: frame.Content,
		})
	}
}

// change must be called with mu held. The returned event, if any, must
// be handed to notify after releasing mu so consumers observe
// transitions in the order they happened.
func (m *Manager) change(to State) (event.ConnectionChanged, bool) {
	from := m.state
	if from == to {
		return event.ConnectionChanged{}, false
	}
	m.state = to
	m.log.Debug("Connection state changed", "from", string(from), "to", string(to))
	return event.ConnectionChanged{From: string(from), To: string(to)}, true
}

func (m *Manager) notify(ctx context.Context, changed event.ConnectionChanged, ok bool) {
	if !ok {
		return
	}
	m.emit(ctx, event.ConnectionType, changed)
}

func (m *Manager) emit(ctx context.Context, t event.Type, payload any) {
	if m.sink == nil {
		return
	}
	e := event.Event{Type: t, CreatedAt: time.Now().UTC(), Payload: payload}
	if err := m.sink.Consume(ctx, e); err != nil {
		m.log.Warn("Event sink rejected event", "type", string(t), "error", err)
	}
}
