//go:generate go run go.uber.org/mock/mockgen -source=lifecycle.go -destination=../mocks/mock_token_lifecycle.go -package=mocks
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"chat-client/contract"
	"chat-client/domain/event"
	"chat-client/errors"
	"chat-client/repositories"
)

type ITokenLifecycle interface {
	EnsureValid(ctx context.Context) error
}

// TokenLifecycle owns the refresh-or-reauthenticate decision.
// It mutates only the access token; retry policy belongs to the caller.
type TokenLifecycle struct {
	baseURL     string
	client      *http.Client
	credentials repositories.ICredentialStore
	sink        contract.EventSink
	log         *slog.Logger
	// expirySkew is how long before the recorded expiry a JWT access token
	// is already treated as stale.
	expirySkew time.Duration
}

func NewTokenLifecycle(baseURL string, client *http.Client,
	credentials repositories.ICredentialStore, sink contract.EventSink,
	log *slog.Logger, expirySkew time.Duration) *TokenLifecycle {
	return &TokenLifecycle{
		baseURL:     baseURL,
		client:      client,
		credentials: credentials,
		sink:        sink,
		log:         log,
		expirySkew:  expirySkew,
	}
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type refreshResponse struct {
	AccessToken string `json:"access_token"`
}

// EnsureValid guarantees a usable access token or fails with ErrAuthRequired.
//  1. No stored refresh token: fail immediately, zero network calls.
//  2. A still-fresh JWT access token: succeed without a round trip.
//  3. Otherwise POST /refresh_token; on success store the new access token.
//
// A non-success response or a transport failure returns ErrAuthRequired
// WITHOUT clearing the refresh token: a transient server error must not
// force a logout.
func (l *TokenLifecycle) EnsureValid(ctx context.Context) error {
	pair, err := l.credentials.Pair()
	if err != nil {
		return err
	}
	if !pair.HasRefresh() {
		return errors.ErrAuthRequired
	}
	if TokenFresh(pair.AccessToken, l.expirySkew) {
		return nil
	}

	body, err := json.Marshal(refreshRequest{RefreshToken: pair.RefreshToken})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		l.baseURL+"/refresh_token", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		l.log.Warn("Token refresh did not complete", "error", err)
		return fmt.Errorf("%w: %v", errors.ErrAuthRequired, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		l.log.Debug("Token refresh rejected", "status", resp.StatusCode)
		return fmt.Errorf("%w: refresh returned %d", errors.ErrAuthRequired, resp.StatusCode)
	}

	var out refreshResponse
	if err = json.NewDecoder(resp.Body).Decode(&out); err != nil || out.AccessToken == "" {
		return fmt.Errorf("%w: unreadable refresh response", errors.ErrAuthRequired)
	}

	if err = l.credentials.SaveAccessToken(out.AccessToken); err != nil {
		return err
	}

	if l.sink != nil {
		_ = l.sink.Consume(ctx, event.Event{
			Type:      event.TokenRefreshedType,
			CreatedAt: time.Now().UTC(),
			Payload:   event.TokenRefreshed{},
		})
	}
	return nil
}
