// Package gae provides a Google Cloud Datastore SecretStore for SDK
// deployments on Google Cloud. Datastore namespaces isolate sessions of
// multi-tenant applications.
package gae

import (
	"context"
	"errors"
	"time"

	"cloud.google.com/go/datastore"
	"google.golang.org/api/iterator"

	basic "github.com/basicdb/basic-go"
)

// KindSecret is the Datastore kind used for stored secrets.
const KindSecret = "BasicSecret"

// secretEntity is the stored entity shape.
type secretEntity struct {
	Value     []byte    `datastore:",noindex"`
	UpdatedAt time.Time `datastore:"updated_at"`
}

// Store implements basic.SecretStore using Google Cloud Datastore.
type Store struct {
	client    *datastore.Client
	namespace string
}

// NewStore creates a Datastore-backed secret store. An empty namespace uses
// the default namespace.
func NewStore(client *datastore.Client, namespace string) *Store {
	return &Store{client: client, namespace: namespace}
}

func (s *Store) key(name string) *datastore.Key {
	key := datastore.NameKey(KindSecret, name, nil)
	key.Namespace = s.namespace
	return key
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var entity secretEntity
	err := s.client.Get(ctx, s.key(key), &entity)
	if errors.Is(err, datastore.ErrNoSuchEntity) {
		return nil, basic.ErrSecretNotFound
	}
	if err != nil {
		return nil, err
	}
	return entity.Value, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	entity := secretEntity{Value: value, UpdatedAt: time.Now()}
	_, err := s.client.Put(ctx, s.key(key), &entity)
	return err
}

func (s *Store) Delete(ctx context.Context, key string) error {
	return s.client.Delete(ctx, s.key(key))
}

// Keys lists the names of all stored secrets in the store's namespace,
// for maintenance and cleanup jobs.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	query := datastore.NewQuery(KindSecret).Namespace(s.namespace).KeysOnly()
	it := s.client.Run(ctx, query)

	var names []string
	for {
		key, err := it.Next(nil)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		names = append(names, key.Name)
	}
	return names, nil
}
