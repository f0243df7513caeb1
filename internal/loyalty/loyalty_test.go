package loyalty

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

type fakeAPI map[string]string

func (f fakeAPI) Get(_ context.Context, path string, out any) error {
	return json.Unmarshal([]byte(f[path]), out)
}

func TestTiersSortedByLevel(t *testing.T) {
	svc := NewService(fakeAPI{"/loyalty/tiers": `[
		{"id":3,"name":"Gold","level":3,"min_investment":"10000","bonus_percent":"3","benefits":["Priority support"]},
		{"id":1,"name":"Bronze","level":1,"min_investment":"0","bonus_percent":"0","benefits":[]},
		{"id":2,"name":"Silver","level":2,"min_investment":"1000","bonus_percent":"1","benefits":[]}
	]`})
	tiers, err := svc.Tiers(context.Background())
	if err != nil {
		t.Fatalf("tiers: %v", err)
	}
	if tiers[0].Name != "Bronze" || tiers[2].Name != "Gold" {
		t.Fatalf("unexpected order %+v", tiers)
	}
}

func TestProgressFraction(t *testing.T) {
	svc := NewService(fakeAPI{"/loyalty/progress": `{"current_tier":"Silver","current_level":2,"next_tier":"Gold","total_invested":"2500","next_tier_min":"10000"}`})
	p, err := svc.Progress(context.Background())
	if err != nil {
		t.Fatalf("progress: %v", err)
	}
	if p.Fraction() != 0.25 {
		t.Fatalf("expected 0.25, got %v", p.Fraction())
	}
	if !p.Remaining().Equal(decimal.NewFromInt(7500)) {
		t.Fatalf("expected 7500 remaining, got %s", p.Remaining())
	}

	top := Progress{CurrentTier: "Gold", TotalInvested: decimal.NewFromInt(20000)}
	if top.Fraction() != 1 || !top.Remaining().IsZero() {
		t.Fatalf("unexpected top tier progress %v %s", top.Fraction(), top.Remaining())
	}
}
