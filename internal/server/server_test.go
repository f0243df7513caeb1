package server_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/coinvest/coinvest/internal/app"
	"github.com/coinvest/coinvest/internal/config"
	"github.com/coinvest/coinvest/internal/logging"
	"github.com/coinvest/coinvest/internal/server"
)

const loginData = `{"success":true,"data":{"token":"opaque-token","user":{"id":1,"name":"Ada","email":"ada@example.com","created_at":"2024-01-01T00:00:00Z"}}}`

func backend(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, loginData)
	})
	mux.HandleFunc("/deposits", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer opaque-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = io.WriteString(w, `{"success":false,"message":"The given data was invalid.","errors":{"tx_hash":["The tx hash has already been taken."]}}`)
	})
	mux.HandleFunc("/investment_plan", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"success":true,"data":[]}`)
	})
	mux.HandleFunc("/chains", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"success":true,"data":[{"id":1,"name":"Tron","symbol":"USDT","network":"TRC20","deposit_address":"TXabc","min_deposit":"10","is_active":true},{"id":2,"name":"Old","symbol":"BTC","network":"BTC","deposit_address":"bc1","min_deposit":"1","is_active":false}]}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newServer(t *testing.T) *fiber.App {
	t.Helper()
	cfg := config.Default()
	cfg.APIBaseURL = backend(t).URL
	cfg.StorageDriver = config.StorageMemory
	cfg.DataDir = t.TempDir()
	cfg.SecureStoreKey = "test-key"

	stack, err := app.New(context.Background(), cfg, logging.Discard(), app.Options{})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	t.Cleanup(func() { _ = stack.Close() })

	srv, err := server.New(stack, logging.Discard())
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	return srv.App()
}

func do(t *testing.T, f *fiber.App, method, path, body string) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	resp, err := f.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	out := map[string]any{}
	if len(raw) > 0 && raw[0] == '{' && strings.HasPrefix(resp.Header.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
		if err := json.Unmarshal(raw, &out); err != nil {
			t.Fatalf("decode %s: %v", raw, err)
		}
	}
	return resp.StatusCode, out
}

func TestHealthz(t *testing.T) {
	f := newServer(t)
	status, body := do(t, f, fiber.MethodGet, "/healthz", "")
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d: %v", status, body)
	}
}

func TestProtectedScreenWithoutSession(t *testing.T) {
	f := newServer(t)
	status, _ := do(t, f, fiber.MethodGet, "/api/v1/screens/dashboard", "")
	if status != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", status)
	}
}

func TestPublicScreen(t *testing.T) {
	f := newServer(t)
	status, body := do(t, f, fiber.MethodGet, "/api/v1/screens/plans", "")
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d: %v", status, body)
	}
}

func TestLoginFormErrors(t *testing.T) {
	f := newServer(t)
	status, body := do(t, f, fiber.MethodPost, "/api/v1/auth/login", `{"email":"not-an-email","password":"x"}`)
	if status != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", status)
	}
	fields, _ := body["fields"].(map[string]any)
	if _, ok := fields["email"]; !ok {
		t.Fatalf("expected email field error, got %v", body)
	}
	if _, ok := fields["password"]; !ok {
		t.Fatalf("expected password field error, got %v", body)
	}
}

func TestLoginThenBackendValidation(t *testing.T) {
	f := newServer(t)

	status, body := do(t, f, fiber.MethodPost, "/api/v1/auth/login", `{"email":"ada@example.com","password":"secret123"}`)
	if status != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %v", status, body)
	}

	status, body = do(t, f, fiber.MethodPost, "/api/v1/deposits", `{"amount":"100","chain_id":1,"tx_hash":"0xabcdef123456"}`)
	if status != http.StatusUnprocessableEntity {
		t.Fatalf("deposit: expected 422, got %d: %v", status, body)
	}
	if body["kind"] != "validation" {
		t.Fatalf("expected validation kind, got %v", body)
	}
	if body["error"] != "The tx hash has already been taken." {
		t.Fatalf("expected flattened backend message, got %v", body["error"])
	}

	status, body = do(t, f, fiber.MethodGet, "/api/v1/notifications", "")
	if status != http.StatusOK {
		t.Fatalf("notifications: expected 200, got %d", status)
	}
	list, _ := body["notifications"].([]any)
	if len(list) != 1 {
		t.Fatalf("expected one toast, got %v", body)
	}

	_, body = do(t, f, fiber.MethodGet, "/api/v1/notifications", "")
	if list, _ := body["notifications"].([]any); len(list) != 0 {
		t.Fatalf("expected feed drained, got %v", body)
	}
}

func TestWithdrawBelowMinimumNeverLeavesDevice(t *testing.T) {
	f := newServer(t)
	if status, _ := do(t, f, fiber.MethodPost, "/api/v1/auth/login", `{"email":"ada@example.com","password":"secret123"}`); status != http.StatusOK {
		t.Fatalf("login failed with %d", status)
	}

	status, body := do(t, f, fiber.MethodPost, "/api/v1/withdrawals",
		`{"amount":"10","chain_id":1,"wallet_address":"0x1234567890abcdef1234","otp":"123456"}`)
	if status != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", status)
	}
	fields, _ := body["fields"].(map[string]any)
	if fields["amount"] != "must be at least $50" {
		t.Fatalf("unexpected amount error %v", fields)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	f := newServer(t)
	do(t, f, fiber.MethodGet, "/api/v1/ping", "")

	req := httptest.NewRequest(fiber.MethodGet, "/metrics", nil)
	resp, err := f.Test(req, -1)
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(raw), "coinvest_gateway_requests_total") {
		t.Fatalf("expected gateway counter in metrics output")
	}
}

func TestChainScreen(t *testing.T) {
	f := newServer(t)

	status, body := do(t, f, fiber.MethodGet, "/api/v1/screens/chains/1", "")
	if status != http.StatusOK || body["network"] != "TRC20" {
		t.Fatalf("expected active chain, got %d %v", status, body)
	}

	if status, _ := do(t, f, fiber.MethodGet, "/api/v1/screens/chains/2", ""); status != http.StatusNotFound {
		t.Fatalf("expected inactive chain to be 404, got %d", status)
	}
	if status, _ := do(t, f, fiber.MethodGet, "/api/v1/screens/chains/abc", ""); status != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad id, got %d", status)
	}
}
