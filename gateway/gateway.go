//go:generate go run go.uber.org/mock/mockgen -source=gateway.go -destination=../mocks/mock_gateway.go -package=mocks

// Package gateway wraps outbound protected requests. Every call first
// passes through the token lifecycle, so a request is never transmitted
// with a known-invalid credential.
package gateway

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"chat-client/auth"
	"chat-client/errors"
	"chat-client/repositories"
)

type IGateway interface {
	Do(ctx context.Context, method, path string, body io.Reader) (*http.Response, error)
}

type Gateway struct {
	baseURL     string
	client      *http.Client
	lifecycle   auth.ITokenLifecycle
	credentials repositories.ICredentialStore
	log         *slog.Logger
}

func NewGateway(baseURL string, client *http.Client, lifecycle auth.ITokenLifecycle,
	credentials repositories.ICredentialStore, log *slog.Logger) *Gateway {
	return &Gateway{
		baseURL:     baseURL,
		client:      client,
		lifecycle:   lifecycle,
		credentials: credentials,
		log:         log,
	}
}

// Do sends a protected request with a bearer credential attached.
//   - ErrAuthRequired before any network call when no valid credential is
//     obtainable, and after an unauthorized response. There is no automatic
//     retry after a 401: a second refresh for the same request would only
//     loop forever against a revoked session.
//   - ErrNetwork when the request did not complete.
//   - Any other response is returned unchanged; callers interpret
//     success/failure codes themselves and own the redirect decision.
func (g *Gateway) Do(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	if err := g.lifecycle.EnsureValid(ctx); err != nil {
		return nil, err
	}

	pair, err := g.credentials.Pair()
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrNetwork, err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		_ = resp.Body.Close()
		g.log.Debug("Protected request unauthorized", "method", method, "path", path)
		return nil, errors.ErrAuthRequired
	}
	return resp, nil
}
