package basic

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// RefreshThreshold is how long before expiry to proactively refresh.
const RefreshThreshold = 5 * time.Minute

// Keys under which the session secrets are persisted in the SecretStore.
const (
	secretKeyTokens     = "basic_auth_token"
	secretKeyUser       = "basic_auth_user"
	secretKeyLoginState = "basic_auth_state"
)

// TokenPair holds the access and refresh tokens for one session. It is owned
// by Auth and persisted as a single JSON blob under a fixed storage key.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// UserInfo is the identity-endpoint profile cached alongside the tokens at
// login time. It is a cache, not a source of truth.
type UserInfo struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

// tokenExpiry extracts the expiry claim from a bearer token without verifying
// its signature. The token is issuer-opaque to the client; only the standard
// exp claim is read.
func tokenExpiry(raw string) (time.Time, error) {
	var claims jwt.RegisteredClaims
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(raw, &claims); err != nil {
		return time.Time{}, fmt.Errorf("decode token claims: %w", err)
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, fmt.Errorf("token has no expiry claim")
	}
	return claims.ExpiresAt.Time, nil
}

// Expiry returns the access token's expiry time.
func (p TokenPair) Expiry() (time.Time, error) {
	return tokenExpiry(p.AccessToken)
}

// expiringSoon reports whether the access token expires within the given
// margin of now. Tokens whose expiry cannot be decoded count as expiring.
func (p TokenPair) expiringSoon(now time.Time, within time.Duration) bool {
	exp, err := tokenExpiry(p.AccessToken)
	if err != nil {
		return true
	}
	return now.Add(within).After(exp)
}
