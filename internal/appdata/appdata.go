// Package appdata caches the denormalised blob the screens render from
// while offline: balances, the last mining snapshot and the onboarding flag.
package appdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/coinvest/coinvest/internal/mining"
	"github.com/coinvest/coinvest/internal/storage"
)

// Key is the storage key of the blob.
const Key = "app_data"

// Balances mirrors the money figures of the dashboard.
type Balances struct {
	Total     decimal.Decimal `json:"total"`
	Available decimal.Decimal `json:"available"`
	Invested  decimal.Decimal `json:"invested"`
	Earnings  decimal.Decimal `json:"earnings"`
	Mining    decimal.Decimal `json:"mining"`
}

// Data is the cached blob.
type Data struct {
	Balances       *Balances     `json:"balances,omitempty"`
	Mining         *mining.State `json:"mining,omitempty"`
	OnboardingDone bool          `json:"onboarding_done"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// Cache reads and writes the blob. Writes are read-modify-write under a
// mutex so concurrent screens do not drop each other's fields.
type Cache struct {
	kv     storage.Store
	logger *slog.Logger
	now    func() time.Time
	mu     sync.Mutex
}

// New returns a cache on kv.
func New(kv storage.Store, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{kv: kv, logger: logger, now: time.Now}
}

// Load returns the cached blob. A missing or unreadable blob yields zero Data.
func (c *Cache) Load(ctx context.Context) (Data, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.load(ctx)
}

func (c *Cache) load(ctx context.Context) (Data, error) {
	raw, err := c.kv.Get(ctx, Key)
	if errors.Is(err, storage.ErrNotFound) {
		return Data{}, nil
	}
	if err != nil {
		return Data{}, fmt.Errorf("load app data: %w", err)
	}
	var d Data
	if err := json.Unmarshal(raw, &d); err != nil {
		c.logger.Warn("discarding unreadable app data", "error", err)
		return Data{}, nil
	}
	return d, nil
}

// Update applies fn to the current blob and stores the result.
func (c *Cache) Update(ctx context.Context, fn func(*Data)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	d, err := c.load(ctx)
	if err != nil {
		return err
	}
	fn(&d)
	d.UpdatedAt = c.now().UTC()

	raw, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode app data: %w", err)
	}
	if err := c.kv.Set(ctx, Key, raw); err != nil {
		return fmt.Errorf("save app data: %w", err)
	}
	return nil
}

// Clear drops the blob, used on logout.
func (c *Cache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.kv.Delete(ctx, Key); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("clear app data: %w", err)
	}
	return nil
}

// SaveBalances replaces the cached balances.
func (c *Cache) SaveBalances(ctx context.Context, b Balances) error {
	return c.Update(ctx, func(d *Data) { d.Balances = &b })
}

// SetOnboardingDone records that the intro screens were seen.
func (c *Cache) SetOnboardingDone(ctx context.Context, done bool) error {
	return c.Update(ctx, func(d *Data) { d.OnboardingDone = done })
}

// SaveMining stores a reconciled mining snapshot. Stale flags are not kept.
func (c *Cache) SaveMining(ctx context.Context, st mining.State) error {
	st.Stale = false
	return c.Update(ctx, func(d *Data) { d.Mining = &st })
}

// LoadMining returns the cached mining snapshot, or nil.
func (c *Cache) LoadMining(ctx context.Context) (*mining.State, error) {
	d, err := c.Load(ctx)
	if err != nil {
		return nil, err
	}
	return d.Mining, nil
}
