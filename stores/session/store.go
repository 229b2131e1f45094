// Package session provides a SecretStore backed by an scs session manager,
// for server-rendered web apps that keep each signed-in user's token pair in
// their own session. The context passed to the store methods must carry
// session data, i.e. requests must flow through the manager's LoadAndSave
// middleware.
package session

import (
	"context"

	"github.com/alexedwards/scs/v2"

	basic "github.com/basicdb/basic-go"
)

// Store implements basic.SecretStore on top of scs session data.
type Store struct {
	sessions *scs.SessionManager
	prefix   string
}

// NewStore creates a session-backed secret store. Keys are prefixed with
// "basic:" to keep them apart from application session values.
func NewStore(sessions *scs.SessionManager) *Store {
	return &Store{sessions: sessions, prefix: "basic:"}
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	name := s.prefix + key
	if !s.sessions.Exists(ctx, name) {
		return nil, basic.ErrSecretNotFound
	}
	return s.sessions.GetBytes(ctx, name), nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	s.sessions.Put(ctx, s.prefix+key, value)
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	s.sessions.Remove(ctx, s.prefix+key)
	return nil
}
