package basic

import (
	"errors"
	"io"
	"strings"
	"testing"
)

func TestAuthError_Unwrap(t *testing.T) {
	err := &AuthError{Op: "refresh", Err: io.ErrUnexpectedEOF}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Error("AuthError does not unwrap its cause")
	}
	if !strings.Contains(err.Error(), "refresh") {
		t.Errorf("Error() = %q, want the failing op named", err.Error())
	}
}

func TestNetworkError_Unwrap(t *testing.T) {
	err := &NetworkError{URL: "https://api.basic.tech/auth/token", Err: io.EOF}
	if !errors.Is(err, io.EOF) {
		t.Error("NetworkError does not unwrap its cause")
	}
}

func TestRequestError_Error(t *testing.T) {
	withStatus := &RequestError{Status: 404, Message: "record not found"}
	if got := withStatus.Error(); !strings.Contains(got, "404") || !strings.Contains(got, "record not found") {
		t.Errorf("Error() = %q", got)
	}

	shape := &RequestError{Message: "response is not a data envelope"}
	if got := shape.Error(); strings.Contains(got, "HTTP") {
		t.Errorf("Error() = %q, want no status for a shape error", got)
	}
}

func TestErrorKindsAreDistinguishable(t *testing.T) {
	var authErr *AuthError
	var reqErr *RequestError
	var netErr *NetworkError
	var vErr *ValidationError

	err := error(&AuthError{Op: "login"})
	if !errors.As(err, &authErr) || errors.As(err, &reqErr) || errors.As(err, &netErr) || errors.As(err, &vErr) {
		t.Error("AuthError matched a foreign kind")
	}

	err = validationErrorf("bad %s", "input")
	if !errors.As(err, &vErr) || errors.As(err, &reqErr) {
		t.Error("ValidationError matched a foreign kind")
	}
	if vErr.Message != "bad input" {
		t.Errorf("Message = %q, want bad input", vErr.Message)
	}
}
