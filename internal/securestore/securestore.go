// Package securestore seals the bearer token and the cached user record
// before they reach a storage backend.
package securestore

import (
	"context"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"

	"github.com/coinvest/coinvest/internal/storage"
)

const (
	// KeyAuthToken holds the bearer token.
	KeyAuthToken = "auth_token"
	// KeyUserData holds the JSON encoded user returned at login.
	KeyUserData = "user_data"

	hkdfInfo = "coinvest securestore v1"
)

// ErrCorrupt means a stored value could not be opened with the current key.
var ErrCorrupt = errors.New("securestore: value cannot be decrypted")

// Store encrypts values with XChaCha20-Poly1305 before delegating to kv.
type Store struct {
	kv   storage.Store
	aead cipher.AEAD
}

// New derives the sealing key from secret and wraps kv.
func New(kv storage.Store, secret []byte) (*Store, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("securestore: secret is required")
	}
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, nil, []byte(hkdfInfo)), key); err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}
	return &Store{kv: kv, aead: aead}, nil
}

// Put seals value and stores it under key. The key name is bound as
// additional data so sealed values cannot be swapped between keys.
func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	nonce := make([]byte, s.aead.NonceSize(), s.aead.NonceSize()+len(value)+s.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("generate nonce: %w", err)
	}
	sealed := s.aead.Seal(nonce, nonce, value, []byte(key))
	return s.kv.Set(ctx, key, sealed)
}

// Get opens the value stored under key. Missing keys return storage.ErrNotFound.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	sealed, err := s.kv.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	ns := s.aead.NonceSize()
	if len(sealed) < ns+s.aead.Overhead() {
		return nil, ErrCorrupt
	}
	plain, err := s.aead.Open(nil, sealed[:ns], sealed[ns:], []byte(key))
	if err != nil {
		return nil, ErrCorrupt
	}
	return plain, nil
}

// Delete removes key.
func (s *Store) Delete(ctx context.Context, key string) error {
	return s.kv.Delete(ctx, key)
}

// Token returns the stored bearer token, or "" when none is stored.
func (s *Store) Token(ctx context.Context) (string, error) {
	b, err := s.Get(ctx, KeyAuthToken)
	if errors.Is(err, storage.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// SaveSession stores the token and the raw user JSON together.
func (s *Store) SaveSession(ctx context.Context, token string, user []byte) error {
	if err := s.Put(ctx, KeyAuthToken, []byte(token)); err != nil {
		return fmt.Errorf("store token: %w", err)
	}
	if err := s.Put(ctx, KeyUserData, user); err != nil {
		return fmt.Errorf("store user: %w", err)
	}
	return nil
}

// User returns the raw user JSON, or nil when none is stored.
func (s *Store) User(ctx context.Context) ([]byte, error) {
	b, err := s.Get(ctx, KeyUserData)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	return b, err
}

// Clear removes both the token and the user record.
func (s *Store) Clear(ctx context.Context) error {
	return errors.Join(s.Delete(ctx, KeyAuthToken), s.Delete(ctx, KeyUserData))
}
