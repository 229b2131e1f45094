// Package grpc bridges the Basic auth session to gRPC clients: TokenCredentials
// attaches the session's bearer token to every outgoing RPC.
package grpc

import (
	"context"

	"google.golang.org/grpc/credentials"

	basic "github.com/basicdb/basic-go"
)

// TokenCredentials implements credentials.PerRPCCredentials using a Basic
// token supplier. Tokens are fetched per RPC, so refresh happens
// transparently mid-stream.
type TokenCredentials struct {
	// Source supplies the access token, typically Auth.Token.
	Source basic.TokenSupplier

	// AllowInsecure permits use over non-TLS connections. Leave false
	// outside of local development.
	AllowInsecure bool
}

// NewTokenCredentials creates per-RPC credentials bound to a token supplier.
func NewTokenCredentials(source basic.TokenSupplier) *TokenCredentials {
	return &TokenCredentials{Source: source}
}

// GetRequestMetadata implements credentials.PerRPCCredentials.
func (t *TokenCredentials) GetRequestMetadata(ctx context.Context, uri ...string) (map[string]string, error) {
	token, err := t.Source(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]string{"authorization": "Bearer " + token}, nil
}

// RequireTransportSecurity implements credentials.PerRPCCredentials.
func (t *TokenCredentials) RequireTransportSecurity() bool {
	return !t.AllowInsecure
}

var _ credentials.PerRPCCredentials = (*TokenCredentials)(nil)
