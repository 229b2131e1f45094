package basic

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the SDK.
var (
	// ErrUnauthenticated is returned when a data operation is attempted
	// without a valid session, or after the session has been signed out.
	ErrUnauthenticated = errors.New("basic: not authenticated")

	// ErrSecretNotFound is returned by SecretStore implementations when no
	// value exists for the requested key.
	ErrSecretNotFound = errors.New("basic: secret not found")
)

// AuthError reports a failed authentication step: a token exchange, a state
// mismatch during the callback, or a userinfo fetch after an exchange.
// Any AuthError from a refresh leaves the session signed out.
type AuthError struct {
	// Op identifies the failing step: "login", "callback", "refresh" or "userinfo".
	Op  string
	Err error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("basic: auth %s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("basic: auth %s failed", e.Op)
}

func (e *AuthError) Unwrap() error { return e.Err }

// RequestError is a non-2xx response from the API, or a 2xx response whose
// body did not match the expected envelope. Status is zero for shape errors
// on otherwise successful responses.
type RequestError struct {
	Status  int
	Body    []byte
	Message string
}

func (e *RequestError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("basic: request failed (HTTP %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("basic: request failed: %s", e.Message)
}

// NetworkError is a transport-level failure: connection refused, DNS failure,
// or a timeout before any HTTP response arrived.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("basic: network error for %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ValidationError reports a malformed schema, a reference to an unknown table
// or field, or an unsupported query construction.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return "basic: " + e.Message
}

func validationErrorf(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}
