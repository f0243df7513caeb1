package securestore

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/coinvest/coinvest/internal/storage"
)

func TestSaveSessionRoundTrip(t *testing.T) {
	kv := storage.NewMemory()
	s, err := New(kv, []byte("device-secret"))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ctx := context.Background()

	if tok, err := s.Token(ctx); err != nil || tok != "" {
		t.Fatalf("expected empty token, got %q %v", tok, err)
	}

	user := []byte(`{"id":7,"email":"ada@example.com"}`)
	if err := s.SaveSession(ctx, "tok-123", user); err != nil {
		t.Fatalf("save session: %v", err)
	}

	raw, _ := kv.Get(ctx, KeyAuthToken)
	if bytes.Contains(raw, []byte("tok-123")) {
		t.Fatalf("token stored in clear text")
	}

	tok, err := s.Token(ctx)
	if err != nil || tok != "tok-123" {
		t.Fatalf("expected tok-123, got %q %v", tok, err)
	}
	gotUser, err := s.User(ctx)
	if err != nil || !bytes.Equal(gotUser, user) {
		t.Fatalf("unexpected user %s %v", gotUser, err)
	}

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if tok, _ := s.Token(ctx); tok != "" {
		t.Fatalf("expected token cleared, got %q", tok)
	}
	if u, _ := s.User(ctx); u != nil {
		t.Fatalf("expected user cleared, got %s", u)
	}
}

func TestWrongSecretIsCorrupt(t *testing.T) {
	kv := storage.NewMemory()
	ctx := context.Background()

	a, _ := New(kv, []byte("secret-a"))
	if err := a.Put(ctx, KeyAuthToken, []byte("tok")); err != nil {
		t.Fatalf("put: %v", err)
	}

	b, _ := New(kv, []byte("secret-b"))
	if _, err := b.Get(ctx, KeyAuthToken); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt, got %v", err)
	}
}

func TestSealedValuesAreBoundToKey(t *testing.T) {
	kv := storage.NewMemory()
	ctx := context.Background()
	s, _ := New(kv, []byte("secret"))

	if err := s.Put(ctx, KeyAuthToken, []byte("tok")); err != nil {
		t.Fatalf("put: %v", err)
	}
	raw, _ := kv.Get(ctx, KeyAuthToken)
	_ = kv.Set(ctx, KeyUserData, raw)

	if _, err := s.Get(ctx, KeyUserData); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected swapped value to be rejected, got %v", err)
	}
}

func TestNewRequiresSecret(t *testing.T) {
	if _, err := New(storage.NewMemory(), nil); err == nil {
		t.Fatal("expected error for empty secret")
	}
}
