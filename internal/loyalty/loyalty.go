// Package loyalty reads the tier ladder and the user's place on it.
package loyalty

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// Tier is one rung of the loyalty ladder.
type Tier struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	Level         int             `json:"level"`
	MinInvestment decimal.Decimal `json:"min_investment"`
	BonusPercent  decimal.Decimal `json:"bonus_percent"`
	Benefits      []string        `json:"benefits"`
}

// Progress is the user's position between the current and next tier.
type Progress struct {
	CurrentTier   string          `json:"current_tier"`
	CurrentLevel  int             `json:"current_level"`
	NextTier      string          `json:"next_tier,omitempty"`
	TotalInvested decimal.Decimal `json:"total_invested"`
	NextTierMin   decimal.Decimal `json:"next_tier_min"`
}

// Fraction is how far the user is towards the next tier, in [0,1]. At the
// top tier it is 1.
func (p Progress) Fraction() float64 {
	if p.NextTier == "" || !p.NextTierMin.IsPositive() {
		return 1
	}
	f, _ := p.TotalInvested.Div(p.NextTierMin).Float64()
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// Remaining is the investment still needed for the next tier.
func (p Progress) Remaining() decimal.Decimal {
	if p.NextTier == "" {
		return decimal.Zero
	}
	r := p.NextTierMin.Sub(p.TotalInvested)
	if r.IsNegative() {
		return decimal.Zero
	}
	return r
}

// API is the subset of the HTTP client the service needs.
type API interface {
	Get(ctx context.Context, path string, out any) error
}

type Service struct {
	api API
}

func NewService(api API) *Service {
	return &Service{api: api}
}

// Tiers returns the ladder ordered by level.
func (s *Service) Tiers(ctx context.Context) ([]Tier, error) {
	var tiers []Tier
	if err := s.api.Get(ctx, "/loyalty/tiers", &tiers); err != nil {
		return nil, fmt.Errorf("list loyalty tiers: %w", err)
	}
	sort.SliceStable(tiers, func(i, j int) bool { return tiers[i].Level < tiers[j].Level })
	return tiers, nil
}

// Progress returns the user's tier progress.
func (s *Service) Progress(ctx context.Context) (Progress, error) {
	var p Progress
	if err := s.api.Get(ctx, "/loyalty/progress", &p); err != nil {
		return Progress{}, fmt.Errorf("loyalty progress: %w", err)
	}
	return p, nil
}
