package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"chat-client/auth"
	"chat-client/domain"
	"chat-client/errors"
	"chat-client/repositories"
)

type IAuthService interface {
	Login(ctx context.Context, username, password string) error
	Register(ctx context.Context, username, password, role string) error
	Logout() error
}

// AuthService drives the unprotected authentication endpoints.
// It is the only component besides the token lifecycle that writes to the
// credential store, and the only one that writes the full pair.
type AuthService struct {
	baseURL     string
	client      *http.Client
	credentials repositories.ICredentialStore
	log         *slog.Logger
}

func NewAuthService(baseURL string, client *http.Client,
	credentials repositories.ICredentialStore, log *slog.Logger) *AuthService {
	return &AuthService{baseURL: baseURL, client: client, credentials: credentials, log: log}
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Login exchanges credentials for an access/refresh pair via the
// form-encoded /token endpoint and persists the pair.
func (s *AuthService) Login(ctx context.Context, username, password string) error {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.baseURL+"/token", strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrNetwork, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusBadRequest:
		// Generic error: the server does not distinguish unknown user
		// from wrong password, and neither do we.
		return errors.ErrInvalidCredentials
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("%w: login returned %d", errors.ErrUnexpectedStatus, resp.StatusCode)
	}

	var out tokenResponse
	if err = json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("%w: unreadable token response", errors.ErrUnexpectedStatus)
	}
	if out.AccessToken == "" || out.RefreshToken == "" {
		return fmt.Errorf("%w: incomplete token response", errors.ErrUnexpectedStatus)
	}

	return s.credentials.SavePair(domain.CredentialPair{
		AccessToken:  out.AccessToken,
		RefreshToken: out.RefreshToken,
	})
}

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// Register validates business rules locally before any network call, then
// creates the account. It does not log the user in.
func (s *AuthService) Register(ctx context.Context, username, password, role string) error {
	valReq := auth.RegisterRequest{
		Username: username,
		Password: password,
		Role:     role,
	}
	if err := auth.ValidateRegister(valReq); err != nil {
		return err
	}

	body, err := json.Marshal(registerRequest{Username: username, Password: password, Role: role})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.baseURL+"/register/", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrNetwork, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("%w: register returned %d", errors.ErrUnexpectedStatus, resp.StatusCode)
	}
	return nil
}

// Logout drops the stored pair. Purely local: the refresh token simply
// stops being presented.
func (s *AuthService) Logout() error {
	return s.credentials.Clear()
}
