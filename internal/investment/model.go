package investment

import (
	"time"

	"github.com/shopspring/decimal"
)

// Plan is an investment product offered by the platform.
type Plan struct {
	ID           int64           `json:"id"`
	Name         string          `json:"name"`
	Description  string          `json:"description,omitempty"`
	MinAmount    decimal.Decimal `json:"min_amount"`
	MaxAmount    decimal.Decimal `json:"max_amount"`
	ROIPercent   decimal.Decimal `json:"roi_percent"`
	DurationDays int             `json:"duration_days"`
}

// Accepts reports whether amount is inside the plan bounds. A zero
// maximum means the plan has no upper bound.
func (p Plan) Accepts(amount decimal.Decimal) bool {
	if amount.LessThan(p.MinAmount) {
		return false
	}
	return p.MaxAmount.IsZero() || amount.LessThanOrEqual(p.MaxAmount)
}

// ExpectedReturn is the profit promised for amount at maturity.
func (p Plan) ExpectedReturn(amount decimal.Decimal) decimal.Decimal {
	return amount.Mul(p.ROIPercent).Div(decimal.NewFromInt(100)).Round(2)
}

// UserInvestment is a subscription to a plan.
type UserInvestment struct {
	ID             int64           `json:"id"`
	PlanID         int64           `json:"plan_id"`
	PlanName       string          `json:"plan_name"`
	Amount         decimal.Decimal `json:"amount"`
	ExpectedReturn decimal.Decimal `json:"expected_return"`
	Status         string          `json:"status"`
	StartsAt       time.Time       `json:"starts_at"`
	EndsAt         time.Time       `json:"ends_at"`
}

// Dashboard holds the account figures shown on the home screen.
type Dashboard struct {
	TotalBalance      decimal.Decimal `json:"total_balance"`
	AvailableBalance  decimal.Decimal `json:"available_balance"`
	TotalInvested     decimal.Decimal `json:"total_invested"`
	TotalEarnings     decimal.Decimal `json:"total_earnings"`
	MiningBalance     decimal.Decimal `json:"mining_balance"`
	ReferralEarnings  decimal.Decimal `json:"referral_earnings"`
	ActiveInvestments int             `json:"active_investments"`
}

// About is the platform information page.
type About struct {
	Title        string `json:"title"`
	Content      string `json:"content"`
	ContactEmail string `json:"contact_email,omitempty"`
	Website      string `json:"website,omitempty"`
}

type investRequest struct {
	PlanID int64           `json:"plan_id"`
	Amount decimal.Decimal `json:"amount"`
}
