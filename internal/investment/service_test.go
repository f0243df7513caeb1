package investment

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/coinvest/coinvest/internal/forms"
	"github.com/coinvest/coinvest/internal/logging"
)

type fakeAPI struct {
	responses map[string]string
	posted    map[string]any
}

func (f *fakeAPI) Get(_ context.Context, path string, out any) error {
	return json.Unmarshal([]byte(f.responses[path]), out)
}

func (f *fakeAPI) Post(_ context.Context, path string, body, out any) error {
	if f.posted == nil {
		f.posted = map[string]any{}
	}
	f.posted[path] = body
	return json.Unmarshal([]byte(f.responses[path]), out)
}

const plansJSON = `[
	{"id":1,"name":"Starter","min_amount":"100","max_amount":"999.99","roi_percent":"5","duration_days":30},
	{"id":2,"name":"Pro","min_amount":"1000","max_amount":"0","roi_percent":"12.5","duration_days":90}
]`

func TestInvestChecksPlanBounds(t *testing.T) {
	api := &fakeAPI{responses: map[string]string{"/investment_plan": plansJSON}}
	svc := NewService(api, nil, logging.Discard())

	_, err := svc.Invest(context.Background(), forms.Invest{PlanID: 1, Amount: "50"})
	var verr *forms.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if verr.Fields["amount"] != "must be between $100.00 and $999.99" {
		t.Fatalf("unexpected message %q", verr.Fields["amount"])
	}

	_, err = svc.Invest(context.Background(), forms.Invest{PlanID: 9, Amount: "50"})
	if !errors.As(err, &verr) || verr.Fields["plan_id"] == "" {
		t.Fatalf("expected unknown plan error, got %v", err)
	}
	if len(api.posted) != 0 {
		t.Fatal("invalid investments must not be posted")
	}
}

func TestInvestPostsWithinBounds(t *testing.T) {
	api := &fakeAPI{responses: map[string]string{
		"/investment_plan": plansJSON,
		"/investment":      `{"id":5,"plan_id":2,"plan_name":"Pro","amount":"25000","expected_return":"3125","status":"active","starts_at":"2024-05-01T00:00:00Z","ends_at":"2024-07-30T00:00:00Z"}`,
	}}
	svc := NewService(api, nil, logging.Discard())

	inv, err := svc.Invest(context.Background(), forms.Invest{PlanID: 2, Amount: "25000"})
	if err != nil {
		t.Fatalf("invest: %v", err)
	}
	if inv.ID != 5 {
		t.Fatalf("unexpected investment %+v", inv)
	}
	req, ok := api.posted["/investment"].(investRequest)
	if !ok || req.PlanID != 2 || !req.Amount.Equal(decimal.NewFromInt(25000)) {
		t.Fatalf("unexpected request %+v", api.posted["/investment"])
	}
}

func TestPlanExpectedReturn(t *testing.T) {
	p := Plan{ROIPercent: decimal.RequireFromString("12.5")}
	if got := p.ExpectedReturn(decimal.NewFromInt(1000)); !got.Equal(decimal.NewFromInt(125)) {
		t.Fatalf("expected 125, got %s", got)
	}
}
