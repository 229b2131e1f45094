package basic

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// signedToken builds a minimally valid bearer token with the given expiry.
// The SDK never verifies signatures, so any signing key works.
func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-1",
		"exp": exp.Unix(),
	})
	raw, err := token.SignedString([]byte("test-key"))
	if err != nil {
		t.Fatalf("sign test token: %v", err)
	}
	return raw
}

func TestTokenExpiry(t *testing.T) {
	exp := time.Now().Add(30 * time.Minute).Truncate(time.Second)
	raw := signedToken(t, exp)

	got, err := tokenExpiry(raw)
	if err != nil {
		t.Fatalf("tokenExpiry() error = %v", err)
	}
	if !got.Equal(exp) {
		t.Errorf("tokenExpiry() = %v, want %v", got, exp)
	}
}

func TestTokenExpiry_Malformed(t *testing.T) {
	if _, err := tokenExpiry("not-a-jwt"); err == nil {
		t.Error("tokenExpiry(malformed) should fail")
	}
}

func TestTokenExpiry_MissingClaim(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "user-1"})
	raw, err := token.SignedString([]byte("test-key"))
	if err != nil {
		t.Fatalf("sign test token: %v", err)
	}
	if _, err := tokenExpiry(raw); err == nil {
		t.Error("tokenExpiry(no exp claim) should fail")
	}
}

func TestTokenPair_ExpiringSoon(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name   string
		exp    time.Time
		within time.Duration
		want   bool
	}{
		{name: "fresh", exp: now.Add(time.Hour), within: RefreshThreshold, want: false},
		{name: "inside threshold", exp: now.Add(2 * time.Minute), within: RefreshThreshold, want: true},
		{name: "already expired", exp: now.Add(-time.Minute), within: RefreshThreshold, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pair := TokenPair{AccessToken: signedToken(t, tt.exp)}
			if got := pair.expiringSoon(now, tt.within); got != tt.want {
				t.Errorf("expiringSoon() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTokenPair_ExpiringSoon_Undecodable(t *testing.T) {
	pair := TokenPair{AccessToken: "garbage"}
	if !pair.expiringSoon(time.Now(), RefreshThreshold) {
		t.Error("undecodable token should count as expiring")
	}
}
