package realtime_test

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"chat-client/domain"
	"chat-client/domain/event"
	"chat-client/errors"
	"chat-client/mocks"
	"chat-client/realtime"

	"github.com/gorilla/websocket"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const handshakeTimeout = 2 * time.Second

// collector is a sink that records events and signals arrivals, so
// assertions can wait on the asynchronous read loop.
type collector struct {
	mu     sync.Mutex
	events []event.Event
	C      chan event.Event
}

func newCollector() *collector {
	return &collector{C: make(chan event.Event, 16)}
}

func (c *collector) Consume(_ context.Context, e event.Event) error {
	c.mu.Lock()
	c.events = append(c.events, e)
	c.mu.Unlock()
	c.C <- e
	return nil
}

func (c *collector) wait(t *testing.T, wanted event.Type) event.Event {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case e := <-c.C:
			if e.Type == wanted {
				return e
			}
		case <-deadline:
			t.Fatalf("no %s event within deadline", wanted)
		}
	}
}

type wsHarness struct {
	server *httptest.Server
	// conns receives the server side of each accepted connection.
	conns   chan *websocket.Conn
	headers chan http.Header
}

func newWSHarness(t *testing.T) *wsHarness {
	t.Helper()
	upgrader := websocket.Upgrader{}
	h := &wsHarness{
		conns:   make(chan *websocket.Conn, 1),
		headers: make(chan http.Header, 1),
	}
	h.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.headers <- r.Header.Clone()
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		h.conns <- conn
	}))
	t.Cleanup(h.server.Close)
	return h
}

func (h *wsHarness) url() string {
	return "ws" + strings.TrimPrefix(h.server.URL, "http")
}

func newTestManager(t *testing.T, url string, sink *collector) *realtime.Manager {
	t.Helper()
	ctrl := gomock.NewController(t)
	credentials := mocks.NewMockICredentialStore(ctrl)
	credentials.EXPECT().Pair().
		Return(domain.CredentialPair{AccessToken: "access-abc", RefreshToken: "r"}, nil).
		AnyTimes()
	return realtime.NewManager(url, handshakeTimeout, credentials, sink, logs.GetLoggerFromLevel(slog.LevelDebug))
}

func TestManager_ConnectAndReceive(t *testing.T) {
	req := require.New(t)
	harness := newWSHarness(t)
	sink := newCollector()
	manager := newTestManager(t, harness.url(), sink)

	req.NoError(manager.Connect(context.Background()))
	defer func() { _ = manager.Close() }()
	req.Equal(realtime.Open, manager.State())

	// The handshake carries the bearer credential
	headers := <-harness.headers
	req.Equal("Bearer access-abc", headers.Get("Authorization"))

	// A frame from the server surfaces as a MessageReceived event
	serverConn := <-harness.conns
	req.NoError(serverConn.WriteJSON(map[string]string{"sender": "bob", "content": "hello"}))

	e := sink.wait(t, event.MessageReceivedType)
	payload, ok := e.Payload.(event.MessageReceived)
	req.True(ok)
	req.Equal("bob", payload.Sender)
	req.Equal("hello", payload.Content)
}

func TestManager_ConnectTwiceIsANoOp(t *testing.T) {
	req := require.New(t)
	harness := newWSHarness(t)
	manager := newTestManager(t, harness.url(), newCollector())

	req.NoError(manager.Connect(context.Background()))
	defer func() { _ = manager.Close() }()

	req.NoError(manager.Connect(context.Background()))
	req.Equal(realtime.Open, manager.State())
	req.Len(harness.conns, 1)
}

func TestManager_Send(t *testing.T) {
	req := require.New(t)
	harness := newWSHarness(t)
	manager := newTestManager(t, harness.url(), newCollector())

	t.Run("should reject a send before connecting", func(t *testing.T) {
		req.ErrorIs(manager.Send("bob", "hello"), errors.ErrNotConnected)
	})

	t.Run("should write the outbound envelope", func(t *testing.T) {
		req.NoError(manager.Connect(context.Background()))
		defer func() { _ = manager.Close() }()

		req.NoError(manager.Send("bob", "hello"))

		serverConn := <-harness.conns
		var frame struct {
			Receiver string `json:"receiver"`
			Content  string `json:"content"`
		}
		req.NoError(serverConn.ReadJSON(&frame))
		req.Equal("bob", frame.Receiver)
		req.Equal("hello", frame.Content)
	})
}

func TestManager_MalformedFrameKeepsConnectionOpen(t *testing.T) {
	req := require.New(t)
	harness := newWSHarness(t)
	sink := newCollector()
	manager := newTestManager(t, harness.url(), sink)

	req.NoError(manager.Connect(context.Background()))
	defer func() { _ = manager.Close() }()
	serverConn := <-harness.conns

	// Garbage, then an envelope missing its sender, then a valid frame
	req.NoError(serverConn.WriteMessage(websocket.TextMessage, []byte("not json at all")))
	req.NoError(serverConn.WriteJSON(map[string]string{"content": "no sender"}))
	req.NoError(serverConn.WriteJSON(map[string]string{"sender": "bob", "content": "still alive"}))

	sink.wait(t, event.FrameRejectedType)
	e := sink.wait(t, event.MessageReceivedType)
	payload := e.Payload.(event.MessageReceived)
	req.Equal("still alive", payload.Content)
	req.Equal(realtime.Open, manager.State())
}

func TestManager_Close(t *testing.T) {
	req := require.New(t)
	harness := newWSHarness(t)
	sink := newCollector()
	manager := newTestManager(t, harness.url(), sink)

	t.Run("should be idempotent before any connection", func(t *testing.T) {
		req.NoError(manager.Close())
		req.Equal(realtime.Disconnected, manager.State())
	})

	t.Run("should disconnect and stay disconnected", func(t *testing.T) {
		req.NoError(manager.Connect(context.Background()))
		<-harness.conns

		req.NoError(manager.Close())
		req.Equal(realtime.Disconnected, manager.State())
		req.ErrorIs(manager.Send("bob", "hello"), errors.ErrNotConnected)

		req.NoError(manager.Close())
	})
}

func TestManager_TransitionOrder(t *testing.T) {
	req := require.New(t)
	harness := newWSHarness(t)
	sink := newCollector()
	manager := newTestManager(t, harness.url(), sink)

	req.NoError(manager.Connect(context.Background()))
	<-harness.conns
	req.NoError(manager.Close())

	var got []event.ConnectionChanged
	sink.mu.Lock()
	for _, e := range sink.events {
		if payload, ok := e.Payload.(event.ConnectionChanged); ok {
			got = append(got, payload)
		}
	}
	sink.mu.Unlock()
	req.Equal([]event.ConnectionChanged{
		{From: string(realtime.Disconnected), To: string(realtime.Connecting)},
		{From: string(realtime.Connecting), To: string(realtime.Open)},
		{From: string(realtime.Open), To: string(realtime.Closing)},
		{From: string(realtime.Closing), To: string(realtime.Disconnected)},
	}, got)
}

func TestManager_CloseDuringDial(t *testing.T) {
	req := require.New(t)

	// The handshake stalls until released, keeping the dial in flight.
	release := make(chan struct{})
	upgrader := websocket.Upgrader{}
	conns := make(chan *websocket.Conn, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		conns <- conn
	}))
	defer server.Close()

	sink := newCollector()
	manager := newTestManager(t, "ws"+strings.TrimPrefix(server.URL, "http"), sink)

	errCh := make(chan error, 1)
	go func() { errCh <- manager.Connect(context.Background()) }()

	req.Eventually(func() bool { return manager.State() == realtime.Connecting },
		handshakeTimeout, 5*time.Millisecond)
	req.NoError(manager.Close())
	close(release)

	select {
	case err := <-errCh:
		req.ErrorIs(err, errors.ErrNotConnected)
	case <-time.After(3 * time.Second):
		t.Fatal("connect never returned")
	}
	req.Equal(realtime.Disconnected, manager.State())
	req.ErrorIs(manager.Send("bob", "hello"), errors.ErrNotConnected)

	// The connection from the completed handshake must be torn down.
	serverConn := <-conns
	req.NoError(serverConn.SetReadDeadline(time.Now().Add(3 * time.Second)))
	_, _, err := serverConn.ReadMessage()
	req.Error(err)
}

func TestManager_ServerDropReportsDisconnected(t *testing.T) {
	req := require.New(t)
	harness := newWSHarness(t)
	sink := newCollector()
	manager := newTestManager(t, harness.url(), sink)

	req.NoError(manager.Connect(context.Background()))
	serverConn := <-harness.conns
	req.NoError(serverConn.Close())

	deadline := time.After(3 * time.Second)
	for manager.State() != realtime.Disconnected {
		select {
		case <-deadline:
			t.Fatal("manager never observed the drop")
		case <-time.After(10 * time.Millisecond):
		}
	}
	req.ErrorIs(manager.Send("bob", "hello"), errors.ErrNotConnected)
}

func TestManager_ConnectFailure(t *testing.T) {
	req := require.New(t)
	manager := newTestManager(t, "ws://127.0.0.1:1/ws", newCollector())

	err := manager.Connect(context.Background())
	req.ErrorIs(err, errors.ErrConnection)
	req.Equal(realtime.Disconnected, manager.State())
}
