package basic

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"

	"github.com/gorilla/mux"
)

// generateLoginState returns a cryptographically secure random state value
// for one login attempt.
func generateLoginState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate login state: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// AuthorizeURL starts a login attempt: it generates and persists a fresh
// state value and returns the authorization URL the user must be sent to.
// The callback with the resulting code is completed by ExchangeCode.
func (a *Auth) AuthorizeURL(ctx context.Context) (string, error) {
	state, err := generateLoginState()
	if err != nil {
		return "", &AuthError{Op: "login", Err: err}
	}
	if err := a.cfg.store.Set(ctx, secretKeyLoginState, []byte(state)); err != nil {
		return "", &AuthError{Op: "login", Err: fmt.Errorf("persist login state: %w", err)}
	}
	return a.oauth.AuthCodeURL(state), nil
}

// ExchangeCode completes a login attempt from the authorization callback.
// The returned state must match the one persisted by AuthorizeURL; a
// mismatch is rejected before any token exchange happens. On success the
// token pair and user profile are persisted and the session is SignedIn.
// Any failure leaves no partially populated session behind.
func (a *Auth) ExchangeCode(ctx context.Context, code, state string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	stored, err := a.cfg.store.Get(ctx, secretKeyLoginState)
	// The state value is single-use regardless of outcome.
	if delErr := a.cfg.store.Delete(ctx, secretKeyLoginState); delErr != nil {
		a.cfg.logger.Debug("failed to delete login state", "err", delErr)
	}
	if err != nil {
		return &AuthError{Op: "callback", Err: fmt.Errorf("no login attempt in progress: %w", err)}
	}
	if state == "" || subtle.ConstantTimeCompare(stored, []byte(state)) != 1 {
		return &AuthError{Op: "callback", Err: errors.New("state mismatch")}
	}
	if code == "" {
		return &AuthError{Op: "callback", Err: errors.New("missing authorization code")}
	}

	pair, err := a.tokenExchange(ctx, tokenRequest{
		GrantType:   "authorization_code",
		Code:        code,
		ClientID:    a.cfg.clientID,
		RedirectURI: a.cfg.redirectURL,
	})
	if err != nil {
		return &AuthError{Op: "login", Err: err}
	}

	user, err := a.fetchUserInfo(ctx, pair.AccessToken)
	if err != nil {
		return &AuthError{Op: "userinfo", Err: err}
	}

	if err := a.persistSessionLocked(ctx, pair, user); err != nil {
		return &AuthError{Op: "login", Err: err}
	}
	a.status = StatusSignedIn
	return nil
}

// CallbackHandler returns an http.Handler for the OAuth redirect route of a
// web app. It extracts code and state from the query string, completes the
// exchange, and hands the outcome to done for rendering or redirecting.
func (a *Auth) CallbackHandler(done func(w http.ResponseWriter, r *http.Request, err error)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		err := a.ExchangeCode(r.Context(), query.Get("code"), query.Get("state"))
		done(w, r, err)
	})
}

// LoginWithLocalServer runs the full authorization-code flow for native and
// CLI apps: it serves the configured loopback redirect URL on a local
// listener, hands the authorization URL to open (typically a browser
// launcher), and waits for the callback. Cancelling ctx abandons the attempt
// without error beyond ctx.Err(); a rejected callback surfaces as an
// AuthError.
func (a *Auth) LoginWithLocalServer(ctx context.Context, open func(authorizeURL string) error) (*UserInfo, error) {
	redirect, err := url.Parse(a.cfg.redirectURL)
	if err != nil || redirect.Host == "" {
		return nil, &AuthError{Op: "login", Err: fmt.Errorf("redirect URL %q is not servable locally", a.cfg.redirectURL)}
	}
	if redirect.Scheme != "http" {
		return nil, &AuthError{Op: "login", Err: fmt.Errorf("local server login requires an http loopback redirect, got %q", redirect.Scheme)}
	}

	listener, err := net.Listen("tcp", redirect.Host)
	if err != nil {
		return nil, &AuthError{Op: "login", Err: fmt.Errorf("listen on %s: %w", redirect.Host, err)}
	}

	callbackPath := redirect.Path
	if callbackPath == "" {
		callbackPath = "/"
	}

	result := make(chan error, 1)
	router := mux.NewRouter()
	router.Handle(callbackPath, a.CallbackHandler(func(w http.ResponseWriter, r *http.Request, err error) {
		if err != nil {
			http.Error(w, "Login failed. You can close this window.", http.StatusBadRequest)
		} else {
			fmt.Fprintln(w, "Login complete. You can close this window.")
		}
		select {
		case result <- err:
		default:
		}
	})).Methods(http.MethodGet)

	server := &http.Server{Handler: router}
	go func() {
		if serveErr := server.Serve(listener); serveErr != nil && serveErr != http.ErrServerClosed {
			select {
			case result <- serveErr:
			default:
			}
		}
	}()
	defer server.Close()

	authorizeURL, err := a.AuthorizeURL(ctx)
	if err != nil {
		return nil, err
	}
	if err := open(authorizeURL); err != nil {
		return nil, &AuthError{Op: "login", Err: fmt.Errorf("open authorization URL: %w", err)}
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case err := <-result:
		if err != nil {
			return nil, err
		}
		return a.User(), nil
	}
}
