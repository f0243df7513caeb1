package appdata

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/coinvest/coinvest/internal/logging"
	"github.com/coinvest/coinvest/internal/mining"
	"github.com/coinvest/coinvest/internal/storage"
)

func TestUpdateKeepsOtherFields(t *testing.T) {
	ctx := context.Background()
	cache := New(storage.NewMemory(), logging.Discard())
	fixed := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return fixed }

	if err := cache.SetOnboardingDone(ctx, true); err != nil {
		t.Fatalf("onboarding: %v", err)
	}
	if err := cache.SaveBalances(ctx, Balances{Total: decimal.RequireFromString("120.5")}); err != nil {
		t.Fatalf("balances: %v", err)
	}
	start := fixed.Add(-time.Hour)
	if err := cache.SaveMining(ctx, mining.State{Phase: mining.PhaseRunning, StartAt: &start, Stale: true}); err != nil {
		t.Fatalf("mining: %v", err)
	}

	d, err := cache.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !d.OnboardingDone || d.Balances == nil || !d.Balances.Total.Equal(decimal.RequireFromString("120.5")) {
		t.Fatalf("unexpected data %+v", d)
	}
	if d.Mining == nil || d.Mining.Stale || !d.Mining.StartAt.Equal(start) {
		t.Fatalf("unexpected mining snapshot %+v", d.Mining)
	}
	if !d.UpdatedAt.Equal(fixed) {
		t.Fatalf("unexpected updated_at %s", d.UpdatedAt)
	}
}

func TestConcurrentUpdates(t *testing.T) {
	ctx := context.Background()
	cache := New(storage.NewMemory(), logging.Discard())

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_ = cache.SetOnboardingDone(ctx, true)
	}()
	go func() {
		defer wg.Done()
		_ = cache.SaveBalances(ctx, Balances{Available: decimal.NewFromInt(5)})
	}()
	wg.Wait()

	d, _ := cache.Load(ctx)
	if !d.OnboardingDone || d.Balances == nil {
		t.Fatalf("expected both writes to survive, got %+v", d)
	}
}

func TestCorruptBlobReadsAsEmpty(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	_ = kv.Set(ctx, Key, []byte("{not json"))

	cache := New(kv, logging.Discard())
	d, err := cache.Load(ctx)
	if err != nil || d.Balances != nil || d.OnboardingDone {
		t.Fatalf("expected empty data, got %+v %v", d, err)
	}

	if err := cache.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if st, _ := cache.LoadMining(ctx); st != nil {
		t.Fatalf("expected no mining snapshot, got %+v", st)
	}
}
