package app

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/coinvest/coinvest/internal/config"
	"github.com/coinvest/coinvest/internal/forms"
	"github.com/coinvest/coinvest/internal/logging"
)

func testConfig(baseURL string, t *testing.T) config.Config {
	cfg := config.Default()
	cfg.APIBaseURL = baseURL
	cfg.StorageDriver = config.StorageMemory
	cfg.DataDir = t.TempDir()
	cfg.SecureStoreKey = "test-key"
	cfg.MiningPollInterval = 0
	return cfg
}

func TestLiveCountdownFollowsLogin(t *testing.T) {
	var statusCalls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/login":
			_, _ = io.WriteString(w, `{"success":true,"data":{"token":"1|abc","user":{"id":1,"name":"Ada","email":"ada@example.com","created_at":"2024-01-01T00:00:00Z"}}}`)
		case "/mining/status":
			statusCalls.Add(1)
			_, _ = io.WriteString(w, `{"success":true,"data":{"status":"active","started_at":"`+time.Now().Add(-time.Hour).UTC().Format(time.RFC3339)+`","reward":"0.5","reward_claimed":false}}`)
		case "/logout":
			_, _ = io.WriteString(w, `{"success":true}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	ctx := context.Background()
	a, err := New(ctx, testConfig(srv.URL, t), logging.Discard(), Options{})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	defer a.Close()

	a.StartLive(ctx)
	if a.Live.Running() {
		t.Fatal("countdown must not run before login")
	}

	if _, err := a.Auth.Login(ctx, forms.Login{Email: "ada@example.com", Password: "secret1"}, ""); err != nil {
		t.Fatalf("login: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for !a.Live.Running() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if !a.Live.Running() {
		t.Fatal("expected countdown to start after login")
	}
	if statusCalls.Load() != 1 {
		t.Fatalf("expected one status call, got %d", statusCalls.Load())
	}
	if snap, _ := a.Cache.LoadMining(ctx); snap == nil {
		t.Fatal("expected reconciled snapshot to be cached")
	}

	if err := a.Auth.Logout(ctx); err != nil {
		t.Fatalf("logout: %v", err)
	}
	deadline = time.Now().Add(2 * time.Second)
	for a.Live.Running() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if a.Live.Running() {
		t.Fatal("expected countdown to stop after logout")
	}
	if snap, _ := a.Cache.LoadMining(ctx); snap != nil {
		t.Fatal("expected app data cleared on logout")
	}
}

func TestNewRejectsUnknownDriver(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1", t)
	cfg.StorageDriver = "etcd"
	if _, err := New(context.Background(), cfg, logging.Discard(), Options{}); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestNewWithSQLite(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1", t)
	cfg.StorageDriver = config.StorageSQLite
	cfg.SecureStoreKey = ""

	a, err := New(context.Background(), cfg, logging.Discard(), Options{})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	defer a.Close()

	if err := a.Cache.SetOnboardingDone(context.Background(), true); err != nil {
		t.Fatalf("write cache: %v", err)
	}
}

func TestUnauthorizedDropsCachedAppData(t *testing.T) {
	var revoked atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/login":
			_, _ = io.WriteString(w, `{"success":true,"data":{"token":"1|abc","user":{"id":1,"name":"Ada","email":"ada@example.com","created_at":"2024-01-01T00:00:00Z"}}}`)
		case "/mining/status":
			if revoked.Load() {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_, _ = io.WriteString(w, `{"success":true,"data":{"session_id":5,"status":"active","started_at":"`+time.Now().Add(-time.Hour).UTC().Format(time.RFC3339)+`","reward":"0.5","reward_claimed":false}}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	ctx := context.Background()
	a, err := New(ctx, testConfig(srv.URL, t), logging.Discard(), Options{})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	defer a.Close()

	if _, err := a.Auth.Login(ctx, forms.Login{Email: "ada@example.com", Password: "secret1"}, ""); err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := a.Mining.Status(ctx); err != nil {
		t.Fatalf("status: %v", err)
	}
	if snap, _ := a.Cache.LoadMining(ctx); snap == nil {
		t.Fatal("expected mining snapshot cached")
	}

	revoked.Store(true)
	if _, err := a.Mining.Status(ctx); err == nil {
		t.Fatal("expected unauthorized status call to fail")
	}
	if a.Auth.Authenticated(ctx) {
		t.Fatal("expected session dropped")
	}
	if snap, _ := a.Cache.LoadMining(ctx); snap != nil {
		t.Fatalf("expected mining snapshot cleared on 401, got %+v", snap)
	}
}
