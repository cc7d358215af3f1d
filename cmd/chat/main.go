package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"chat-client/auth"
	"chat-client/gateway"
	"chat-client/internal"
	"chat-client/moderation"
	"chat-client/observability"
	"chat-client/projection"
	"chat-client/realtime"
	"chat-client/repositories"
	"chat-client/services"
	"chat-client/sink"

	env "github.com/Netflix/go-env"
	"github.com/blugelabs/bluge"
	badger "github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

const (
	exitOK      = 0
	exitConfig  = 1
	exitRuntime = 2
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(code)
}

func run() (int, error) {
	// 1. Load configuration from .env then environment
	_ = godotenv.Load()
	var cfg internal.Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return exitConfig, fmt.Errorf("failed to load config: %w", err)
	}

	log := logs.GetLoggerFromString(cfg.LogLevel)

	// 2. Open local storage: badger for credentials and the message
	// cache, bluge for full-text search
	db, err := badger.Open(badger.DefaultOptions(cfg.BadgerFilepath).WithLogger(nil))
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to open badger at %s: %w", cfg.BadgerFilepath, err)
	}
	defer db.Close()

	writer, err := bluge.OpenWriter(bluge.DefaultConfig(cfg.BlugeFilepath))
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to open bluge at %s: %w", cfg.BlugeFilepath, err)
	}
	defer writer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 3. Repositories
	credentials := repositories.NewCredentialRepository(db, log)
	cache := repositories.NewMessageRepository(db, log, cfg.LimitMessages)
	index := repositories.NewSearchIndex(writer, log)

	// 4. Outbound moderation, only when a dictionary is configured
	var moderator *moderation.Moderator
	if words := cfg.CensoredWordList(); len(words) > 0 {
		replacement, err := internal.CharacterRune(cfg.CharReplacement)
		if err != nil {
			return exitConfig, err
		}
		m, err := moderation.NewModerator(words, replacement, log)
		if err != nil {
			return exitConfig, fmt.Errorf("failed to build moderator: %w", err)
		}
		moderator = &m
	}

	// 5. Session plumbing: lifecycle, gateway, event sinks, realtime
	monitor := observability.NewMonitor()
	ui := newTerm(monitor)

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	fanout := sink.NewFanout(log, monitor, ui)
	lifecycle := auth.NewTokenLifecycle(cfg.ServerBaseURL, httpClient,
		credentials, fanout, log, cfg.TokenExpirySkew)
	gw := gateway.NewGateway(cfg.ServerBaseURL, httpClient, lifecycle, credentials, log)
	authService := services.NewAuthService(cfg.ServerBaseURL, httpClient, credentials, log)

	pair, err := credentials.Pair()
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to read stored credentials: %w", err)
	}
	store := projection.NewStore(auth.Identity(pair.AccessToken), cache, index, fanout, log)
	fanout.Add(store)

	manager := realtime.NewManager(cfg.WebsocketURL, cfg.HandshakeTimeout,
		credentials, fanout, log)
	chat := services.NewChatService(gw, manager, store, index, moderator, fanout, log)
	ui.Bind(authService, chat, store, credentials)

	// 6. Debug inspector over the local cache
	internal.StartDebugServer(db, cfg.DebugPort, "/inspect",
		internal.MessageMapper, monitor.Stats)

	// 7. Input loop until EOF or signal
	ui.Banner()
	runLoop(ctx, ui, log)

	chat.Disconnect()
	return exitOK, nil
}

func runLoop(ctx context.Context, ui *term, log *slog.Logger) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			log.Info("shutting down")
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			if err := ui.Dispatch(ctx, line); err != nil {
				ui.Error(err)
			}
		}
	}
}
