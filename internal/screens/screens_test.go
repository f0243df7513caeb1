package screens_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/coinvest/coinvest/internal/app"
	"github.com/coinvest/coinvest/internal/config"
	"github.com/coinvest/coinvest/internal/logging"
)

type backend struct {
	dashboardDown atomic.Bool
	loyaltyDown   atomic.Bool
}

func (b *backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/dashboard":
		if b.dashboardDown.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, `{"success":true,"data":{"total_balance":"1234.5","available_balance":"200","total_invested":"1000","total_earnings":"34.5","mining_balance":"0","referral_earnings":"0","active_investments":2}}`)
	case "/loyalty/progress":
		if b.loyaltyDown.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = io.WriteString(w, `{"success":true,"data":{"current_tier":"Silver","current_level":2,"next_tier":"Gold","total_invested":"2500","next_tier_min":"10000"}}`)
	case "/mining/status":
		_, _ = io.WriteString(w, `{"success":true,"data":{"status":"idle","reward":"0","reward_claimed":false}}`)
	default:
		http.NotFound(w, r)
	}
}

func newApp(t *testing.T, b *backend) *app.App {
	t.Helper()
	srv := httptest.NewServer(b)
	t.Cleanup(srv.Close)

	cfg := config.Default()
	cfg.APIBaseURL = srv.URL
	cfg.StorageDriver = config.StorageMemory
	cfg.DataDir = t.TempDir()
	cfg.SecureStoreKey = "k"

	a, err := app.New(context.Background(), cfg, logging.Discard(), app.Options{})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func TestDashboardCachesAndFallsBack(t *testing.T) {
	b := &backend{}
	b.loyaltyDown.Store(true)
	a := newApp(t, b)
	ctx := context.Background()

	view, err := a.Screens.Dashboard(ctx)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if view.Balances.Total != "$1,234.50" || view.Stale {
		t.Fatalf("unexpected balances %+v stale=%v", view.Balances, view.Stale)
	}
	if view.Loyalty != nil {
		t.Fatal("expected loyalty section to be empty when its call fails")
	}
	if view.Mining == nil || !view.Mining.CanStart || view.Mining.Remaining != "00:00:00" {
		t.Fatalf("unexpected mining section %+v", view.Mining)
	}

	b.dashboardDown.Store(true)
	view, err = a.Screens.Dashboard(ctx)
	if err != nil {
		t.Fatalf("dashboard fallback: %v", err)
	}
	if !view.Stale || view.Balances.Total != "$1,234.50" {
		t.Fatalf("expected stale cached balances, got %+v", view)
	}
}

func TestDashboardFailsWithoutCache(t *testing.T) {
	b := &backend{}
	b.dashboardDown.Store(true)
	a := newApp(t, b)

	if _, err := a.Screens.Dashboard(context.Background()); err == nil {
		t.Fatal("expected error with nothing cached")
	}
}

func TestKYCScreenRendersOnFailure(t *testing.T) {
	a := newApp(t, &backend{})
	view := a.Screens.KYC(context.Background())
	if view.Status != "not_submitted" || view.Documents == nil {
		t.Fatalf("unexpected view %+v", view)
	}
}
