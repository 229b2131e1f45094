package basic

import "net/http"

// AuthTransport is an http.RoundTripper that injects the session's bearer
// token into every outgoing request. The token is obtained per request from
// Source, so expiring tokens refresh transparently mid-flight.
type AuthTransport struct {
	Base   http.RoundTripper
	Source TokenSupplier
}

// RoundTrip implements http.RoundTripper.
func (t *AuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	token, err := t.Source(req.Context())
	if err != nil {
		return nil, err
	}

	if token != "" {
		// Clone the request to avoid mutating the original.
		req2 := req.Clone(req.Context())
		req2.Header.Set("Authorization", "Bearer "+token)
		req = req2
	}

	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(req)
}
