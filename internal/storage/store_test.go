package storage

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	_ "github.com/glebarez/go-sqlite"
	"github.com/redis/go-redis/v9"
)

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := s.Set(ctx, "app_data", []byte(`{"a":1}`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.Set(ctx, "app_data", []byte(`{"a":2}`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	got, err := s.Get(ctx, "app_data")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != `{"a":2}` {
		t.Fatalf("expected overwritten value, got %s", got)
	}

	if err := s.Delete(ctx, "app_data"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Get(ctx, "app_data"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := s.Delete(ctx, "app_data"); err != nil {
		t.Fatalf("delete of missing key should succeed: %v", err)
	}
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemory())
}

func TestMemoryStoreCopiesValues(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	buf := []byte("token")
	if err := s.Set(ctx, "k", buf); err != nil {
		t.Fatalf("set: %v", err)
	}
	buf[0] = 'X'
	got, _ := s.Get(ctx, "k")
	if string(got) != "token" {
		t.Fatalf("store should not alias caller buffer, got %s", got)
	}
}

func TestSQLiteStore(t *testing.T) {
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "kv.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer db.Close()

	s, err := NewSQLiteStore(context.Background(), db)
	if err != nil {
		t.Fatalf("new sqlite store: %v", err)
	}
	exerciseStore(t, s)
}

func TestRedisStore(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	exerciseStore(t, NewRedisStore(client, "test:"))

	if err := NewRedisStore(client, "").Set(context.Background(), "k", []byte("v")); err != nil {
		t.Fatalf("set: %v", err)
	}
	if !mr.Exists(defaultRedisPrefix + "k") {
		t.Fatalf("expected default prefix on stored key")
	}
}
