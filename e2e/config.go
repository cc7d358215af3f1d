package e2e

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// E2E_SERVER_BASE_URL points at a running chat server; empty skips the suite
	ServerBaseURL string `envconfig:"E2E_SERVER_BASE_URL"`
	WebsocketURL  string `envconfig:"E2E_WEBSOCKET_URL"`
	Username      string `envconfig:"E2E_USERNAME" default:"e2e-alice"`
	Password      string `envconfig:"E2E_PASSWORD" default:"E2e&Str0ngPass!"`
	// E2E_PEER_ID is an existing account to exchange messages with
	PeerID string `envconfig:"E2E_PEER_ID"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
