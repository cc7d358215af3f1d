package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"chat-client/auth"
	"chat-client/domain"
	"chat-client/domain/event"
	"chat-client/observability"
	"chat-client/projection"
	"chat-client/repositories"
	"chat-client/services"

	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
)

// term is the presentation layer: it renders events and translates
// slash commands into service calls. The core never depends on it.
type term struct {
	monitor     *observability.Monitor
	auth        services.IAuthService
	chat        services.IChatService
	store       *projection.Store
	credentials repositories.ICredentialStore

	mu         sync.Mutex
	activePeer string
	activeName string
}

func newTerm(monitor *observability.Monitor) *term {
	return &term{monitor: monitor}
}

// Bind completes the wiring once the services exist. The term is created
// first because the projection store needs it as an event sink.
func (t *term) Bind(authService services.IAuthService, chat services.IChatService,
	store *projection.Store, credentials repositories.ICredentialStore) {
	t.auth = authService
	t.chat = chat
	t.store = store
	t.credentials = credentials
}

func (t *term) Banner() {
	color.Cyan.Println("chat-client (type /help for commands)")
}

func (t *term) Error(err error) {
	color.Red.Printf("error: %v\n", err)
}

// Consume renders events pushed by the core.
func (t *term) Consume(_ context.Context, e event.Event) error {
	switch payload := e.Payload.(type) {
	case event.MessageReceived:
		t.mu.Lock()
		active := t.activePeer
		t.mu.Unlock()
		if payload.Sender == active {
			color.Cyan.Printf("%s: %s\n", payload.Sender, payload.Content)
		} else {
			color.Gray.Printf("(new message from %s)\n", payload.Sender)
		}
	case event.HistoryLoaded:
		t.mu.Lock()
		active := t.activePeer
		t.mu.Unlock()
		if payload.Peer == active {
			t.renderLog(payload.Peer)
		}
	case event.ConnectionChanged:
		color.Yellow.Printf("connection: %s -> %s\n", payload.From, payload.To)
	case event.FrameRejected:
		color.Gray.Println("(dropped one malformed frame)")
	}
	return nil
}

// Dispatch interprets one input line.
func (t *term) Dispatch(ctx context.Context, line string) error {
	if !strings.HasPrefix(line, "/") {
		return t.send(ctx, line)
	}

	parts := strings.Fields(line)
	switch parts[0] {
	case "/help":
		t.help()
		return nil
	case "/login":
		if len(parts) != 3 {
			return fmt.Errorf("usage: /login <username> <password>")
		}
		return t.login(ctx, parts[1], parts[2])
	case "/register":
		if len(parts) < 3 {
			return fmt.Errorf("usage: /register <username> <password> [role]")
		}
		role := "user"
		if len(parts) > 3 {
			role = parts[3]
		}
		if err := t.auth.Register(ctx, parts[1], parts[2], role); err != nil {
			return err
		}
		color.Green.Println("registered, now /login")
		return nil
	case "/logout":
		t.chat.Disconnect()
		t.store.SetIdentity("")
		return t.auth.Logout()
	case "/connect":
		return t.chat.Connect(ctx)
	case "/disconnect":
		return t.chat.Disconnect()
	case "/users":
		return t.users(ctx)
	case "/open":
		if len(parts) < 2 {
			return fmt.Errorf("usage: /open <peer-id> [name]")
		}
		name := parts[1]
		if len(parts) > 2 {
			name = parts[2]
		}
		t.open(ctx, parts[1], name)
		return nil
	case "/close":
		t.closeActive()
		return nil
	case "/find":
		return t.find(ctx, line)
	case "/stats":
		t.stats()
		return nil
	default:
		return fmt.Errorf("unknown command %q, /help for commands", parts[0])
	}
}

func (t *term) login(ctx context.Context, username, password string) error {
	if err := t.auth.Login(ctx, username, password); err != nil {
		return err
	}
	pair, err := t.credentials.Pair()
	if err != nil {
		return err
	}
	t.store.SetIdentity(auth.Identity(pair.AccessToken))
	color.Green.Printf("logged in as %s\n", username)
	return nil
}

func (t *term) send(ctx context.Context, content string) error {
	t.mu.Lock()
	peer := t.activePeer
	t.mu.Unlock()
	if peer == "" {
		return fmt.Errorf("no open conversation, /open a peer first")
	}
	if err := t.chat.SendMessage(ctx, peer, content); err != nil {
		return err
	}
	color.Green.Printf("me: %s\n", content)
	return nil
}

func (t *term) open(ctx context.Context, peerID, name string) {
	t.chat.SelectPeer(ctx, peerID, name)
	t.mu.Lock()
	t.activePeer, t.activeName = peerID, name
	t.mu.Unlock()
	color.Yellow.Printf("conversation with %s opened\n", name)
	t.renderLog(peerID)
}

func (t *term) closeActive() {
	t.mu.Lock()
	peer, name := t.activePeer, t.activeName
	t.activePeer, t.activeName = "", ""
	t.mu.Unlock()
	if peer == "" {
		return
	}
	t.chat.ClosePeer(peer)
	color.Yellow.Printf("conversation with %s closed\n", name)
}

func (t *term) users(ctx context.Context) error {
	peers, err := t.chat.ListUsers(ctx)
	if err != nil {
		return err
	}
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "Username"})
	for _, p := range peers {
		table.Append([]string{p.ID, p.Username})
	}
	table.Render()
	return nil
}

func (t *term) find(ctx context.Context, raw string) error {
	hits, err := t.chat.Search(ctx, raw)
	if err != nil {
		return err
	}
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Peer", "Sender", "Content"})
	for _, h := range hits {
		table.Append([]string{h.PeerID, h.SenderID, h.Content})
	}
	table.Render()
	return nil
}

func (t *term) stats() {
	s := t.monitor.Snapshot()
	color.Yellow.Printf("sent=%d received=%d rejected=%d histories=%d refreshes=%d connects=%d uptime=%s\n",
		s.MessagesSent, s.MessagesReceived, s.FramesRejected,
		s.HistoriesLoaded, s.TokenRefreshes, s.Connections,
		s.Uptime.Round(1e9))
}

func (t *term) renderLog(peerID string) {
	for _, msg := range t.chat.Log(peerID) {
		if msg.Direction == domain.Sent {
			color.Green.Printf("me: %s\n", msg.Content)
		} else {
			color.Cyan.Printf("%s: %s\n", msg.SenderID, msg.Content)
		}
	}
}

func (t *term) help() {
	fmt.Println(`commands:
  /login <username> <password>
  /register <username> <password> [role]
  /logout
  /connect            open the realtime channel
  /disconnect
  /users              list candidate peers
  /open <id> [name]   open a conversation
  /close              close the active conversation
  /find <terms> [--peer id] [--limit n]
  /stats
  anything else is sent to the active conversation`)
}
