package fs

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	basic "github.com/basicdb/basic-go"
)

func TestStore_PlaintextRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secrets.json")
	ctx := context.Background()

	store, err := NewStore(path, "basic-test")
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	if err := store.Set(ctx, "token", []byte("secret-value")); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	// A second store over the same file sees the persisted value.
	reopened, err := NewStore(path, "basic-test")
	if err != nil {
		t.Fatalf("NewStore() reopen error = %v", err)
	}
	got, err := reopened.Get(ctx, "token")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(got) != "secret-value" {
		t.Errorf("Get() = %q, want secret-value", got)
	}

	if _, err := reopened.Get(ctx, "missing"); !errors.Is(err, basic.ErrSecretNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrSecretNotFound", err)
	}

	if err := reopened.Delete(ctx, "token"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	third, err := NewStore(path, "basic-test")
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	if _, err := third.Get(ctx, "token"); !errors.Is(err, basic.ErrSecretNotFound) {
		t.Errorf("Get() after persisted delete error = %v, want ErrSecretNotFound", err)
	}
}

func TestStore_FilePermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "secrets.json")

	store, err := NewStore(path, "basic-test")
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	if err := store.Set(context.Background(), "k", []byte("v")); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("file mode = %o, want 0600", perm)
	}
}

func TestEncryptedStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secrets.json")
	ctx := context.Background()
	passphrase := []byte("correct horse battery staple")

	store, err := NewEncryptedStore(path, "basic-test", passphrase)
	if err != nil {
		t.Fatalf("NewEncryptedStore() error = %v", err)
	}
	if err := store.Set(ctx, "token", []byte("secret-value")); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	// Ciphertext on disk, not the secret.
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if len(raw) == 0 || bytes.Contains(raw, []byte("secret-value")) {
		t.Error("secrets file holds the plaintext value")
	}

	reopened, err := NewEncryptedStore(path, "basic-test", passphrase)
	if err != nil {
		t.Fatalf("NewEncryptedStore() reopen error = %v", err)
	}
	got, err := reopened.Get(ctx, "token")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(got) != "secret-value" {
		t.Errorf("Get() = %q, want secret-value", got)
	}
}

func TestEncryptedStore_WrongPassphrase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secrets.json")
	ctx := context.Background()

	store, err := NewEncryptedStore(path, "basic-test", []byte("right"))
	if err != nil {
		t.Fatalf("NewEncryptedStore() error = %v", err)
	}
	if err := store.Set(ctx, "token", []byte("v")); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	if _, err := NewEncryptedStore(path, "basic-test", []byte("wrong")); err == nil {
		t.Error("NewEncryptedStore() with wrong passphrase succeeded, want error")
	}
}

func TestEncryptedStore_EmptyPassphrase(t *testing.T) {
	if _, err := NewEncryptedStore(filepath.Join(t.TempDir(), "s.json"), "basic-test", nil); err == nil {
		t.Error("NewEncryptedStore() with empty passphrase succeeded, want error")
	}
}
