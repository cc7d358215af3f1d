package e2e

import (
	"context"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"chat-client/auth"
	"chat-client/gateway"
	"chat-client/projection"
	"chat-client/realtime"
	"chat-client/repositories"
	"chat-client/services"

	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/suite"
)

type messagingSuite struct {
	suite.Suite
	Config Config

	chat        services.IChatService
	auth        services.IAuthService
	store       *projection.Store
	credentials repositories.ICredentialStore
}

func TestMessagingSuite(t *testing.T) {
	suite.Run(t, &messagingSuite{})
}

func (s *messagingSuite) SetupSuite() {
	cfg, err := LoadConfig()
	s.Require().NoError(err)
	if cfg.ServerBaseURL == "" {
		s.T().Skip("E2E_SERVER_BASE_URL not set, skipping end-to-end suite")
	}
	s.Config = cfg

	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	db, err := badger.Open(badger.DefaultOptions(s.T().TempDir()).
		WithLoggingLevel(badger.ERROR).
		WithValueLogFileSize(16 << 20))
	s.Require().NoError(err)
	s.T().Cleanup(func() { _ = db.Close() })

	writer, err := bluge.OpenWriter(bluge.DefaultConfig(s.T().TempDir()))
	s.Require().NoError(err)
	s.T().Cleanup(func() { _ = writer.Close() })

	httpClient := &http.Client{Timeout: 10 * time.Second}
	s.credentials = repositories.NewCredentialRepository(db, log)
	cache := repositories.NewMessageRepository(db, log, nil)
	index := repositories.NewSearchIndex(writer, log)

	lifecycle := auth.NewTokenLifecycle(cfg.ServerBaseURL, httpClient, s.credentials, nil, log, 30*time.Second)
	gw := gateway.NewGateway(cfg.ServerBaseURL, httpClient, lifecycle, s.credentials, log)
	s.auth = services.NewAuthService(cfg.ServerBaseURL, httpClient, s.credentials, log)

	s.store = projection.NewStore("", cache, index, nil, log)
	manager := realtime.NewManager(cfg.WebsocketURL, 5*time.Second, s.credentials, s.store, log)
	s.chat = services.NewChatService(gw, manager, s.store, index, nil, nil, log)
}

func (s *messagingSuite) TestFullMessagingFlow() {
	ctx := context.Background()

	s.Run("Step 0: Register or reuse the account", func() {
		// Conflict just means a previous run already registered it
		_ = s.auth.Register(ctx, s.Config.Username, s.Config.Password, "user")
	})

	s.Run("Step 1: Login and bind the identity", func() {
		s.Require().NoError(s.auth.Login(ctx, s.Config.Username, s.Config.Password))
		pair, err := s.credentials.Pair()
		s.Require().NoError(err)
		s.Require().True(pair.HasAccess())
		s.store.SetIdentity(auth.Identity(pair.AccessToken))
	})

	s.Run("Step 2: Open the realtime channel", func() {
		s.Require().NoError(s.chat.Connect(ctx))
		s.T().Cleanup(func() { _ = s.chat.Disconnect() })
		s.Require().Equal(realtime.Open, s.chat.State())
	})

	s.Run("Step 3: List peers", func() {
		peers, err := s.chat.ListUsers(ctx)
		s.Require().NoError(err)
		s.Require().NotEmpty(peers)
	})

	if s.Config.PeerID == "" {
		s.T().Log("E2E_PEER_ID not set, skipping conversation steps")
		return
	}

	s.Run("Step 4: Open a conversation and wait for history", func() {
		s.chat.SelectPeer(ctx, s.Config.PeerID, s.Config.PeerID)
		s.Require().Eventually(func() bool {
			return s.chat.Log(s.Config.PeerID) != nil
		}, 10*time.Second, 100*time.Millisecond)
	})

	s.Run("Step 5: Send a message", func() {
		content := "e2e ping " + time.Now().UTC().Format(time.RFC3339Nano)
		s.Require().NoError(s.chat.SendMessage(ctx, s.Config.PeerID, content))

		entries := s.chat.Log(s.Config.PeerID)
		s.Require().NotEmpty(entries)
		s.Require().Equal(content, entries[len(entries)-1].Content)
	})
}
