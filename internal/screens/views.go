package screens

import (
	"time"

	"github.com/coinvest/coinvest/internal/auth"
	"github.com/coinvest/coinvest/internal/chains"
	"github.com/coinvest/coinvest/internal/kyc"
	"github.com/coinvest/coinvest/internal/loyalty"
	"github.com/coinvest/coinvest/internal/referral"
)

// BalancesView is the money strip of the dashboard, already formatted.
type BalancesView struct {
	Total             string `json:"total"`
	Available         string `json:"available"`
	Invested          string `json:"invested"`
	Earnings          string `json:"earnings"`
	Mining            string `json:"mining"`
	ActiveInvestments int    `json:"active_investments"`
}

// MiningView drives the mining card and the mining screen.
type MiningView struct {
	Phase        string  `json:"phase"`
	Progress     float64 `json:"progress"`
	ProgressText string  `json:"progress_text"`
	Remaining    string  `json:"remaining"`
	Reward       string  `json:"reward"`
	CanStart     bool    `json:"can_start"`
	CanClaim     bool    `json:"can_claim"`
	Stale        bool    `json:"stale"`
}

// LoyaltyView is the tier card.
type LoyaltyView struct {
	CurrentTier  string         `json:"current_tier"`
	NextTier     string         `json:"next_tier,omitempty"`
	Progress     float64        `json:"progress"`
	ProgressText string         `json:"progress_text"`
	Remaining    string         `json:"remaining"`
	Tiers        []loyalty.Tier `json:"tiers,omitempty"`
}

// DashboardView is the home screen.
type DashboardView struct {
	User     *auth.User   `json:"user,omitempty"`
	Balances BalancesView `json:"balances"`
	Stale    bool         `json:"stale"`
	Loyalty  *LoyaltyView `json:"loyalty,omitempty"`
	Mining   *MiningView  `json:"mining,omitempty"`
}

type PlanView struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	Range        string `json:"range"`
	ROI          string `json:"roi"`
	DurationDays int    `json:"duration_days"`
}

type InvestmentRow struct {
	ID             int64     `json:"id"`
	Plan           string    `json:"plan"`
	Amount         string    `json:"amount"`
	ExpectedReturn string    `json:"expected_return"`
	Status         string    `json:"status"`
	EndsAt         time.Time `json:"ends_at"`
}

type FundingRow struct {
	ID        int64     `json:"id"`
	Amount    string    `json:"amount"`
	Chain     string    `json:"chain,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type DepositsView struct {
	Chains   []chains.Chain `json:"chains"`
	Deposits []FundingRow   `json:"deposits"`
}

type WithdrawalsView struct {
	Minimum     string         `json:"minimum"`
	Chains      []chains.Chain `json:"chains"`
	Withdrawals []FundingRow   `json:"withdrawals"`
}

type TransactionRow struct {
	ID          int64     `json:"id"`
	Type        string    `json:"type"`
	Amount      string    `json:"amount"`
	Credit      bool      `json:"credit"`
	Status      string    `json:"status"`
	Reference   string    `json:"reference,omitempty"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type KYCView struct {
	Status    string         `json:"status"`
	Documents []kyc.Document `json:"documents"`
}

type ReferralsView struct {
	Summary referral.Summary `json:"summary"`
	Members []referral.Node  `json:"members"`
	ByLevel map[int]int      `json:"by_level"`
}

type ProfileView struct {
	User      auth.User `json:"user"`
	KYCStatus string    `json:"kyc_status"`
}
