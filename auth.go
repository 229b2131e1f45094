package basic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/oauth2"
)

// Status is the externally observable lifecycle state of an Auth session.
// The refresh path is internal and resolves back into SignedIn or SignedOut.
type Status int

const (
	StatusUninitialized Status = iota
	StatusLoading
	StatusSignedOut
	StatusSignedIn
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusSignedOut:
		return "signed-out"
	case StatusSignedIn:
		return "signed-in"
	default:
		return "uninitialized"
	}
}

// AuthState is a whole-record snapshot of the session. It is replaced
// atomically on every transition; callers never observe a fresh access token
// paired with stale user info.
type AuthState struct {
	AccessToken  string
	RefreshToken string
	User         *UserInfo
	IsSignedIn   bool
}

type authConfig struct {
	baseURL     string
	clientID    string
	redirectURL string
	scopes      []string
	store       SecretStore
	httpClient  *http.Client
	logger      *slog.Logger
	now         func() time.Time
}

// Auth owns the OAuth2 session: login, persistence, expiry decisions,
// refresh, and sign-out. One Auth is shared per application; every data
// request obtains its bearer token through Token.
type Auth struct {
	mu    sync.Mutex
	cfg   authConfig
	oauth *oauth2.Config

	status Status
	state  AuthState
}

func newAuth(cfg authConfig) *Auth {
	return &Auth{
		cfg: cfg,
		oauth: &oauth2.Config{
			ClientID:    cfg.clientID,
			RedirectURL: cfg.redirectURL,
			Scopes:      cfg.scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.baseURL + "/auth/authorize",
				TokenURL: cfg.baseURL + "/auth/token",
			},
		},
	}
}

// tokenRequest is the JSON body the Basic token endpoint accepts.
type tokenRequest struct {
	GrantType    string `json:"grant_type"`
	Code         string `json:"code,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ClientID     string `json:"client_id,omitempty"`
	RedirectURI  string `json:"redirect_uri,omitempty"`
}

// tokenResponse is the token endpoint's reply for both grant types.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type,omitempty"`
	ExpiresIn    int64  `json:"expires_in,omitempty"`
	Error        string `json:"error,omitempty"`
	ErrorDesc    string `json:"error_description,omitempty"`
}

// Initialize restores the session from the secret store. A restored access
// token is validated remotely against the identity endpoint rather than
// trusting local expiry alone; if it is rejected, one refresh is attempted
// before giving up and clearing the persisted secrets. The loading state
// resolves exactly once, into SignedIn or SignedOut.
func (a *Auth) Initialize(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.status = StatusLoading

	pair, err := a.readTokens(ctx)
	if err != nil {
		if !errors.Is(err, ErrSecretNotFound) {
			a.status = StatusSignedOut
			return err
		}
		a.status = StatusSignedOut
		a.state = AuthState{}
		return nil
	}

	// Rebuild the in-memory state from the store before validating, so the
	// restored session is visible as one whole record during the check.
	storedUser, err := a.readUser(ctx)
	if err != nil && !errors.Is(err, ErrSecretNotFound) {
		a.status = StatusSignedOut
		return err
	}
	a.state = AuthState{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		User:         storedUser,
	}

	user, err := a.fetchUserInfo(ctx, pair.AccessToken)
	if err == nil {
		if err := a.persistSessionLocked(ctx, pair, user); err != nil {
			a.status = StatusSignedOut
			return err
		}
		a.status = StatusSignedIn
		return nil
	}

	var netErr *NetworkError
	if errors.As(err, &netErr) {
		// Connectivity problem, not a rejected token. Keep the persisted
		// secrets so a later Initialize can retry.
		a.status = StatusSignedOut
		a.state = AuthState{}
		return err
	}

	a.cfg.logger.Debug("restored access token rejected, attempting refresh", "err", err)

	newPair, refreshErr := a.refreshLocked(ctx, pair)
	if refreshErr != nil {
		a.clearSessionLocked(ctx)
		a.status = StatusSignedOut
		return &AuthError{Op: "refresh", Err: refreshErr}
	}

	user, err = a.fetchUserInfo(ctx, newPair.AccessToken)
	if err != nil {
		a.clearSessionLocked(ctx)
		a.status = StatusSignedOut
		return &AuthError{Op: "userinfo", Err: err}
	}
	if err := a.persistSessionLocked(ctx, newPair, user); err != nil {
		a.status = StatusSignedOut
		return err
	}
	a.status = StatusSignedIn
	return nil
}

// Token returns a currently valid access token, refreshing first when the
// cached one expires within RefreshThreshold. Safe for concurrent callers:
// the session mutex is held across the refresh, so at most one token
// exchange happens per expiry event and waiters pick up its result when they
// re-read the stored pair. A failed refresh signs the session out.
func (a *Auth) Token(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	pair, err := a.readTokens(ctx)
	if err != nil {
		if errors.Is(err, ErrSecretNotFound) {
			return "", ErrUnauthenticated
		}
		return "", err
	}

	if !pair.expiringSoon(a.cfg.now(), RefreshThreshold) {
		return pair.AccessToken, nil
	}

	newPair, err := a.refreshLocked(ctx, pair)
	if err != nil {
		a.cfg.logger.Debug("token refresh failed, signing out", "err", err)
		a.clearSessionLocked(ctx)
		a.status = StatusSignedOut
		return "", &AuthError{Op: "refresh", Err: err}
	}
	return newPair.AccessToken, nil
}

// Signout clears the persisted secrets and resets the session. Idempotent.
func (a *Auth) Signout(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.clearSessionLocked(ctx)
	a.status = StatusSignedOut
	return nil
}

// State returns a snapshot of the session state.
func (a *Auth) State() AuthState {
	a.mu.Lock()
	defer a.mu.Unlock()

	state := a.state
	if state.User != nil {
		user := *state.User
		state.User = &user
	}
	return state
}

// Status returns the session's lifecycle state.
func (a *Auth) Status() Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.status
}

// User returns the cached user profile, or nil when signed out. The profile
// is fetched at login time and is a cache, not a source of truth.
func (a *Auth) User() *UserInfo {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state.User == nil {
		return nil
	}
	user := *a.state.User
	return &user
}

// refreshLocked exchanges the refresh token for a new pair and persists it.
// Caller must hold a.mu.
func (a *Auth) refreshLocked(ctx context.Context, pair TokenPair) (TokenPair, error) {
	if pair.RefreshToken == "" {
		return TokenPair{}, fmt.Errorf("no refresh token")
	}

	newPair, err := a.tokenExchange(ctx, tokenRequest{
		GrantType:    "refresh_token",
		RefreshToken: pair.RefreshToken,
		ClientID:     a.cfg.clientID,
		RedirectURI:  a.cfg.redirectURL,
	})
	if err != nil {
		return TokenPair{}, err
	}

	// Refresh tokens are rotated by the issuer; keep the old one only when
	// the response omits a replacement.
	if newPair.RefreshToken == "" {
		newPair.RefreshToken = pair.RefreshToken
	}

	if err := a.persistSessionLocked(ctx, newPair, a.state.User); err != nil {
		return TokenPair{}, err
	}
	return newPair, nil
}

// tokenExchange posts one grant to the token endpoint.
func (a *Auth) tokenExchange(ctx context.Context, reqBody tokenRequest) (TokenPair, error) {
	tokenURL := a.oauth.Endpoint.TokenURL

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return TokenPair{}, fmt.Errorf("encode token request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, bytes.NewReader(payload))
	if err != nil {
		return TokenPair{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.cfg.httpClient.Do(req)
	if err != nil {
		return TokenPair{}, &NetworkError{URL: tokenURL, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return TokenPair{}, &NetworkError{URL: tokenURL, Err: err}
	}

	var tokenResp tokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return TokenPair{}, fmt.Errorf("invalid token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if tokenResp.ErrorDesc != "" {
			return TokenPair{}, fmt.Errorf("token endpoint rejected %s grant: %s", reqBody.GrantType, tokenResp.ErrorDesc)
		}
		if tokenResp.Error != "" {
			return TokenPair{}, fmt.Errorf("token endpoint rejected %s grant: %s", reqBody.GrantType, tokenResp.Error)
		}
		return TokenPair{}, fmt.Errorf("token endpoint returned HTTP %d", resp.StatusCode)
	}
	if tokenResp.AccessToken == "" {
		return TokenPair{}, fmt.Errorf("token response missing access_token")
	}

	return TokenPair{
		AccessToken:  tokenResp.AccessToken,
		RefreshToken: tokenResp.RefreshToken,
	}, nil
}

// fetchUserInfo loads the profile behind an access token from the identity
// endpoint. It doubles as the remote token validation at session restore.
func (a *Auth) fetchUserInfo(ctx context.Context, accessToken string) (*UserInfo, error) {
	userinfoURL := a.cfg.baseURL + "/auth/userinfo"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, userinfoURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := a.cfg.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{URL: userinfoURL, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{URL: userinfoURL, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &RequestError{
			Status:  resp.StatusCode,
			Body:    body,
			Message: "userinfo request rejected",
		}
	}

	var user UserInfo
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, fmt.Errorf("invalid userinfo response: %w", err)
	}
	return &user, nil
}

// persistSessionLocked writes the token pair and user profile to the secret
// store, then replaces the in-memory state as one record. On a partial write
// failure both secrets are removed so no half-populated session survives.
// Caller must hold a.mu.
func (a *Auth) persistSessionLocked(ctx context.Context, pair TokenPair, user *UserInfo) error {
	tokenBlob, err := json.Marshal(pair)
	if err != nil {
		return fmt.Errorf("encode token pair: %w", err)
	}
	if err := a.cfg.store.Set(ctx, secretKeyTokens, tokenBlob); err != nil {
		return fmt.Errorf("persist tokens: %w", err)
	}

	if user != nil {
		userBlob, err := json.Marshal(user)
		if err == nil {
			err = a.cfg.store.Set(ctx, secretKeyUser, userBlob)
		}
		if err != nil {
			a.clearSessionLocked(ctx)
			return fmt.Errorf("persist user info: %w", err)
		}
	}

	a.state = AuthState{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		User:         user,
		IsSignedIn:   true,
	}
	return nil
}

// clearSessionLocked removes every persisted secret and zeroes the in-memory
// state. Caller must hold a.mu.
func (a *Auth) clearSessionLocked(ctx context.Context) {
	for _, key := range []string{secretKeyTokens, secretKeyUser, secretKeyLoginState} {
		if err := a.cfg.store.Delete(ctx, key); err != nil {
			a.cfg.logger.Debug("failed to delete secret", "key", key, "err", err)
		}
	}
	a.state = AuthState{}
}

// readTokens loads the persisted token pair.
func (a *Auth) readTokens(ctx context.Context) (TokenPair, error) {
	blob, err := a.cfg.store.Get(ctx, secretKeyTokens)
	if err != nil {
		return TokenPair{}, err
	}
	var pair TokenPair
	if err := json.Unmarshal(blob, &pair); err != nil {
		return TokenPair{}, fmt.Errorf("decode stored tokens: %w", err)
	}
	if pair.AccessToken == "" {
		return TokenPair{}, ErrSecretNotFound
	}
	return pair, nil
}

// readUser loads the persisted user profile, if any.
func (a *Auth) readUser(ctx context.Context) (*UserInfo, error) {
	blob, err := a.cfg.store.Get(ctx, secretKeyUser)
	if err != nil {
		return nil, err
	}
	var user UserInfo
	if err := json.Unmarshal(blob, &user); err != nil {
		return nil, fmt.Errorf("decode stored user info: %w", err)
	}
	return &user, nil
}
