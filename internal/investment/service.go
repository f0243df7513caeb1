package investment

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/coinvest/coinvest/internal/forms"
	"github.com/coinvest/coinvest/internal/format"
	"github.com/coinvest/coinvest/internal/notification"
)

// API is the subset of the HTTP client the service needs.
type API interface {
	Get(ctx context.Context, path string, out any) error
	Post(ctx context.Context, path string, body, out any) error
}

// Service reads plans and the dashboard and places investments.
type Service struct {
	api      API
	notifier notification.Notifier
	logger   *slog.Logger
}

// NewService constructs the investment service. notifier may be nil.
func NewService(api API, notifier notification.Notifier, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{api: api, notifier: notifier, logger: logger}
}

// Plans lists the available plans.
func (s *Service) Plans(ctx context.Context) ([]Plan, error) {
	var out []Plan
	if err := s.api.Get(ctx, "/investment_plan", &out); err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	return out, nil
}

// Invest subscribes to a plan after checking the plan's amount bounds.
func (s *Service) Invest(ctx context.Context, form forms.Invest) (UserInvestment, error) {
	if err := forms.Validate(form); err != nil {
		return UserInvestment{}, err
	}
	amount, err := forms.ParseAmount(form.Amount)
	if err != nil {
		return UserInvestment{}, err
	}

	plans, err := s.Plans(ctx)
	if err != nil {
		return UserInvestment{}, err
	}
	plan, ok := findPlan(plans, form.PlanID)
	if !ok {
		return UserInvestment{}, &forms.ValidationError{Fields: map[string]string{"plan_id": "is not an available plan"}}
	}
	if !plan.Accepts(amount) {
		return UserInvestment{}, &forms.ValidationError{Fields: map[string]string{"amount": boundsMessage(plan)}}
	}

	var inv UserInvestment
	if err := s.api.Post(ctx, "/investment", investRequest{PlanID: plan.ID, Amount: amount}, &inv); err != nil {
		return UserInvestment{}, fmt.Errorf("invest: %w", err)
	}
	if s.notifier != nil {
		msg := fmt.Sprintf("Invested %s in %s.", format.USD(inv.Amount), plan.Name)
		if err := s.notifier.Send(ctx, notification.Success(msg)); err != nil {
			s.logger.Warn("send toast", "error", err)
		}
	}
	return inv, nil
}

// Investments lists the user's investments.
func (s *Service) Investments(ctx context.Context) ([]UserInvestment, error) {
	var out []UserInvestment
	if err := s.api.Get(ctx, "/investment", &out); err != nil {
		return nil, fmt.Errorf("list investments: %w", err)
	}
	return out, nil
}

// Dashboard fetches the home screen figures.
func (s *Service) Dashboard(ctx context.Context) (Dashboard, error) {
	var d Dashboard
	if err := s.api.Get(ctx, "/dashboard", &d); err != nil {
		return Dashboard{}, fmt.Errorf("dashboard: %w", err)
	}
	return d, nil
}

// About fetches the platform information page.
func (s *Service) About(ctx context.Context) (About, error) {
	var a About
	if err := s.api.Get(ctx, "/about", &a); err != nil {
		return About{}, fmt.Errorf("about: %w", err)
	}
	return a, nil
}

func findPlan(plans []Plan, id int64) (Plan, bool) {
	for _, p := range plans {
		if p.ID == id {
			return p, true
		}
	}
	return Plan{}, false
}

func boundsMessage(p Plan) string {
	if p.MaxAmount.IsZero() {
		return "must be at least " + format.USD(p.MinAmount)
	}
	return fmt.Sprintf("must be between %s and %s", format.USD(p.MinAmount), format.USD(p.MaxAmount))
}
