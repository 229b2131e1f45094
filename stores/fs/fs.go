// Package fs provides a file-based SecretStore for CLI and desktop apps.
// Secrets live in a single JSON file under the user config dir, written with
// owner-only permissions, and can optionally be encrypted at rest with a key
// derived from a passphrase.
package fs

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"

	basic "github.com/basicdb/basic-go"
)

// Argon2id parameters for the at-rest encryption key.
const (
	argonTime    uint32 = 3
	argonMemory  uint32 = 64 * 1024
	argonThreads uint8  = 1
	keyLen       uint32 = 32
	saltLen             = 16
)

// Store is a file-backed SecretStore.
type Store struct {
	mu      sync.Mutex
	path    string
	key     []byte // nil means plaintext storage
	salt    []byte
	secrets map[string][]byte
}

// secretFile is the plaintext JSON structure stored on disk.
type secretFile struct {
	Secrets map[string][]byte `json:"secrets"`
}

// sealedFile wraps the encrypted variant: Box is nonce||ciphertext of the
// serialized secretFile.
type sealedFile struct {
	Salt []byte `json:"salt"`
	Box  []byte `json:"box"`
}

// NewStore creates a plaintext file store. If path is empty it defaults to
// ~/.config/<appName>/secrets.json.
func NewStore(path, appName string) (*Store, error) {
	path, err := resolvePath(path, appName)
	if err != nil {
		return nil, err
	}
	s := &Store{path: path, secrets: make(map[string][]byte)}
	if err := s.load(); err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	return s, nil
}

// NewEncryptedStore creates a store whose file is encrypted with
// XChaCha20-Poly1305 under an Argon2id key derived from the passphrase.
// Opening an existing file with the wrong passphrase fails.
func NewEncryptedStore(path, appName string, passphrase []byte) (*Store, error) {
	if len(passphrase) == 0 {
		return nil, fmt.Errorf("fs: passphrase must not be empty")
	}
	path, err := resolvePath(path, appName)
	if err != nil {
		return nil, err
	}

	s := &Store{path: path, secrets: make(map[string][]byte)}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		salt := make([]byte, saltLen)
		if _, err := rand.Read(salt); err != nil {
			return nil, err
		}
		s.salt = salt
		s.key = argon2.IDKey(passphrase, salt, argonTime, argonMemory, argonThreads, keyLen)
		return s, nil
	}
	if err != nil {
		return nil, err
	}

	var sealed sealedFile
	if err := json.Unmarshal(data, &sealed); err != nil {
		return nil, fmt.Errorf("fs: parse secrets file: %w", err)
	}
	s.salt = sealed.Salt
	s.key = argon2.IDKey(passphrase, sealed.Salt, argonTime, argonMemory, argonThreads, keyLen)

	plaintext, err := open(s.key, sealed.Box)
	if err != nil {
		return nil, fmt.Errorf("fs: decrypt secrets file: %w", err)
	}
	var file secretFile
	if err := json.Unmarshal(plaintext, &file); err != nil {
		return nil, fmt.Errorf("fs: parse secrets file: %w", err)
	}
	if file.Secrets != nil {
		s.secrets = file.Secrets
	}
	return s, nil
}

func resolvePath(path, appName string) (string, error) {
	if path != "" {
		return path, nil
	}
	configDir, err := os.UserConfigDir()
	if err != nil {
		home, homeErr := os.UserHomeDir()
		if homeErr != nil {
			return "", fmt.Errorf("fs: could not determine config directory: %w", err)
		}
		configDir = filepath.Join(home, ".config")
	}
	if appName == "" {
		appName = "basic"
	}
	return filepath.Join(configDir, appName, "secrets.json"), nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	value, ok := s.secrets[key]
	if !ok {
		return nil, basic.ErrSecretNotFound
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := make([]byte, len(value))
	copy(stored, value)
	s.secrets[key] = stored
	return s.save()
}

func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.secrets, key)
	return s.save()
}

// Path returns the backing file's path.
func (s *Store) Path() string { return s.path }

// load reads a plaintext secrets file. Caller must hold s.mu or own s
// exclusively (construction).
func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return err
	}
	var file secretFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("fs: parse secrets file: %w", err)
	}
	if file.Secrets != nil {
		s.secrets = file.Secrets
	}
	return nil
}

// save writes the current secrets through to disk. Caller must hold s.mu.
func (s *Store) save() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("fs: create config directory: %w", err)
	}

	plaintext, err := json.Marshal(secretFile{Secrets: s.secrets})
	if err != nil {
		return fmt.Errorf("fs: serialize secrets: %w", err)
	}

	out := plaintext
	if s.key != nil {
		box, err := seal(s.key, plaintext)
		if err != nil {
			return err
		}
		out, err = json.Marshal(sealedFile{Salt: s.salt, Box: box})
		if err != nil {
			return fmt.Errorf("fs: serialize secrets: %w", err)
		}
	}

	if err := os.WriteFile(s.path, out, 0600); err != nil {
		return fmt.Errorf("fs: write secrets: %w", err)
	}
	return nil
}

// seal encrypts plaintext as nonce||ciphertext.
func seal(key, plaintext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(nonce)+len(plaintext)+aead.Overhead())
	out = append(out, nonce...)
	return append(out, aead.Seal(nil, nonce, plaintext, nil)...), nil
}

// open decrypts a nonce||ciphertext box.
func open(key, box []byte) ([]byte, error) {
	if len(box) < chacha20poly1305.NonceSizeX {
		return nil, fmt.Errorf("sealed box too short")
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	nonce := box[:chacha20poly1305.NonceSizeX]
	return aead.Open(nil, nonce, box[chacha20poly1305.NonceSizeX:], nil)
}
