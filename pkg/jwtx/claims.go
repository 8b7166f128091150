package jwtx

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/aussiebroadwan/epicevents/pkg/cryptox"
)

// DefaultSessionTTL is the lifetime of a session token when none is configured.
const DefaultSessionTTL = 30 * time.Minute

// Claims are the session-token claims: sub (user id), iat, exp and jti.
type Claims struct {
	jwt.RegisteredClaims
}

// NewSessionClaims builds the claims for a token valid from now for ttl.
// A negative ttl yields an already expired token.
func NewSessionClaims(subject string, ttl time.Duration, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
	}
}

// NewJTI returns a URL-safe random identifier for the "jti" claim.
func NewJTI() string {
	jti, err := cryptox.GenerateToken(20)
	if err != nil {
		panic("jwtx: failed to generate jti: " + err.Error())
	}
	return jti
}

// Expiry returns the exp claim or the zero time.
func (c Claims) Expiry() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}
