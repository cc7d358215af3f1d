package internal

import (
	"fmt"
	"strings"
	"time"
)

type Config struct {
	// ServerBaseURL is the HTTP origin of the chat server, without a
	// trailing slash, e.g. http://localhost:8000
	ServerBaseURL string `env:"SERVER_BASE_URL,required=true"`
	// WebsocketURL is the streaming endpoint, e.g. ws://localhost:8000/ws
	WebsocketURL string `env:"WEBSOCKET_URL,required=true"`

	HTTPTimeout      time.Duration `env:"HTTP_TIMEOUT,required=true"`
	HandshakeTimeout time.Duration `env:"HANDSHAKE_TIMEOUT,required=true"`
	// TokenExpirySkew is how long before its recorded expiry an access
	// token is already treated as stale.
	TokenExpirySkew time.Duration `env:"TOKEN_EXPIRY_SKEW,default=30s"`

	BadgerFilepath string `env:"BADGER_FILEPATH,required=true"`
	BlugeFilepath  string `env:"BLUGE_FILEPATH,required=true"`
	LogLevel       string `env:"LOG_LEVEL,required=true"`
	LimitMessages  *int   `env:"LIMIT_MESSAGES"`

	// CensoredWords is a comma-separated dictionary; empty disables
	// outbound moderation.
	CensoredWords   string `env:"CENSORED_WORDS"`
	CharReplacement string `env:"CHARACTER_REPLACEMENT,default=*"`

	DebugPort int `env:"DEBUG_PORT,default=8099"`
}

func (c Config) CensoredWordList() []string {
	if strings.TrimSpace(c.CensoredWords) == "" {
		return nil
	}
	parts := strings.Split(c.CensoredWords, ",")
	words := make([]string, 0, len(parts))
	for _, p := range parts {
		if w := strings.TrimSpace(p); w != "" {
			words = append(words, w)
		}
	}
	return words
}

func CharacterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"CHARACTER_REPLACEMENT must be a single character, got %q",
			str,
		)
	}
	return r[0], nil
}
