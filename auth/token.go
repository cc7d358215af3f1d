package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenFresh reports whether the access token is a JWT whose expiry lies
// at least skew in the future. The signature is NOT verified: the server
// re-validates every request, this check only decides whether a refresh
// round trip can be skipped. Opaque or unparseable tokens report false,
// so they always go through a refresh.
func TokenFresh(token string, skew time.Duration) bool {
	if token == "" {
		return false
	}

	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return time.Now().Add(skew).Before(claims.ExpiresAt.Time)
}

// Identity extracts the subject claim from an access token, which the
// server fills with the authenticated username. Empty when the token is
// opaque or carries no subject.
func Identity(token string) string {
	if token == "" {
		return ""
	}
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return ""
	}
	return claims.Subject
}
