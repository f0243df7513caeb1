// Package screens composes service calls into the view model each screen
// renders.
package screens

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/coinvest/coinvest/internal/apiclient"
	"github.com/coinvest/coinvest/internal/appdata"
	"github.com/coinvest/coinvest/internal/auth"
	"github.com/coinvest/coinvest/internal/chains"
	"github.com/coinvest/coinvest/internal/format"
	"github.com/coinvest/coinvest/internal/forms"
	"github.com/coinvest/coinvest/internal/funding"
	"github.com/coinvest/coinvest/internal/investment"
	"github.com/coinvest/coinvest/internal/kyc"
	"github.com/coinvest/coinvest/internal/loyalty"
	"github.com/coinvest/coinvest/internal/mining"
	"github.com/coinvest/coinvest/internal/referral"
	"github.com/coinvest/coinvest/internal/transactions"
)

// Deps are the services the screens read from. Live is optional.
type Deps struct {
	Auth         *auth.Service
	Investment   *investment.Service
	Funding      *funding.Service
	Chains       *chains.Service
	Transactions *transactions.Service
	Mining       *mining.Service
	Live         *mining.Countdown
	KYC          *kyc.Service
	Loyalty      *loyalty.Service
	Referral     *referral.Service
	Cache        *appdata.Cache
	Logger       *slog.Logger
}

// Screens builds view models.
type Screens struct {
	d Deps
}

func New(d Deps) *Screens {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	return &Screens{d: d}
}

// Dashboard loads the account figures, loyalty progress and mining state
// concurrently. A failed dashboard call falls back to cached balances;
// loyalty and mining failures leave their section empty.
func (s *Screens) Dashboard(ctx context.Context) (DashboardView, error) {
	var (
		view     DashboardView
		dash     investment.Dashboard
		dashErr  error
		progress *loyalty.Progress
		miner    *mining.State
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		dash, dashErr = s.d.Investment.Dashboard(gctx)
		if apiclient.KindOf(dashErr) == apiclient.KindUnauthorized {
			return dashErr
		}
		return nil
	})
	g.Go(func() error {
		p, err := s.d.Loyalty.Progress(gctx)
		if err != nil {
			s.d.Logger.Warn("dashboard loyalty", "error", err)
			return nil
		}
		progress = &p
		return nil
	})
	g.Go(func() error {
		st, err := s.miningState(gctx)
		if err != nil {
			s.d.Logger.Warn("dashboard mining", "error", err)
			return nil
		}
		miner = &st
		return nil
	})
	if err := g.Wait(); err != nil {
		return DashboardView{}, err
	}

	if u, err := s.d.Auth.CurrentUser(ctx); err == nil {
		view.User = &u
	}

	if dashErr == nil {
		view.Balances = balancesView(dash)
		if err := s.d.Cache.SaveBalances(ctx, toCached(dash)); err != nil {
			s.d.Logger.Warn("cache balances", "error", err)
		}
	} else {
		data, err := s.d.Cache.Load(ctx)
		if err != nil || data.Balances == nil {
			return DashboardView{}, dashErr
		}
		view.Balances = cachedBalancesView(*data.Balances)
		view.Stale = true
	}

	if progress != nil {
		lv := loyaltyView(*progress, nil)
		view.Loyalty = &lv
	}
	if miner != nil {
		mv := miningView(*miner)
		view.Mining = &mv
	}
	return view, nil
}

// Mining is the mining screen. It reads the live countdown when one is
// running so repeated renders do not hit the server.
func (s *Screens) Mining(ctx context.Context) (MiningView, error) {
	st, err := s.miningState(ctx)
	if err != nil {
		return MiningView{}, err
	}
	return miningView(st), nil
}

func (s *Screens) miningState(ctx context.Context) (mining.State, error) {
	if s.d.Live != nil && s.d.Live.Running() {
		return s.d.Live.State(), nil
	}
	return s.d.Mining.Status(ctx)
}

func (s *Screens) Plans(ctx context.Context) ([]PlanView, error) {
	plans, err := s.d.Investment.Plans(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]PlanView, 0, len(plans))
	for _, p := range plans {
		out = append(out, planView(p))
	}
	return out, nil
}

func (s *Screens) Investments(ctx context.Context) ([]InvestmentRow, error) {
	invs, err := s.d.Investment.Investments(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]InvestmentRow, 0, len(invs))
	for _, inv := range invs {
		out = append(out, InvestmentRow{
			ID:             inv.ID,
			Plan:           inv.PlanName,
			Amount:         format.USD(inv.Amount),
			ExpectedReturn: format.USD(inv.ExpectedReturn),
			Status:         inv.Status,
			EndsAt:         inv.EndsAt,
		})
	}
	return out, nil
}

func (s *Screens) Deposits(ctx context.Context) (DepositsView, error) {
	list, err := s.d.Chains.List(ctx)
	if err != nil {
		return DepositsView{}, err
	}
	deps, err := s.d.Funding.Deposits(ctx)
	if err != nil {
		return DepositsView{}, err
	}
	rows := make([]FundingRow, 0, len(deps))
	for _, d := range deps {
		rows = append(rows, FundingRow{ID: d.ID, Amount: format.USD(d.Amount), Chain: d.ChainName, Detail: d.TxHash, Status: d.Status, CreatedAt: d.CreatedAt})
	}
	return DepositsView{Chains: list, Deposits: rows}, nil
}

func (s *Screens) Withdrawals(ctx context.Context) (WithdrawalsView, error) {
	list, err := s.d.Chains.List(ctx)
	if err != nil {
		return WithdrawalsView{}, err
	}
	wds, err := s.d.Funding.Withdrawals(ctx)
	if err != nil {
		return WithdrawalsView{}, err
	}
	rows := make([]FundingRow, 0, len(wds))
	for _, w := range wds {
		rows = append(rows, FundingRow{ID: w.ID, Amount: format.USD(w.Amount), Chain: w.ChainName, Detail: w.WalletAddress, Status: w.Status, CreatedAt: w.CreatedAt})
	}
	return WithdrawalsView{Minimum: format.USD(forms.MinWithdrawal), Chains: list, Withdrawals: rows}, nil
}

// Transactions lists history, optionally filtered by type.
func (s *Screens) Transactions(ctx context.Context, kind string) ([]TransactionRow, error) {
	txs, err := s.d.Transactions.List(ctx)
	if err != nil {
		return nil, err
	}
	txs = transactions.Filter(txs, kind)
	out := make([]TransactionRow, 0, len(txs))
	for _, t := range txs {
		out = append(out, transactionRow(t))
	}
	return out, nil
}

func (s *Screens) Transaction(ctx context.Context, id int64) (TransactionRow, error) {
	t, err := s.d.Transactions.Get(ctx, id)
	if err != nil {
		return TransactionRow{}, err
	}
	return transactionRow(t), nil
}

func (s *Screens) Chains(ctx context.Context) ([]chains.Chain, error) {
	return s.d.Chains.List(ctx)
}

// Chain is the deposit instructions for one active chain.
func (s *Screens) Chain(ctx context.Context, id int64) (chains.Chain, error) {
	return s.d.Chains.ByID(ctx, id)
}

// KYC never fails; an unreachable document list renders as not submitted.
func (s *Screens) KYC(ctx context.Context) KYCView {
	docs := s.d.KYC.Documents(ctx)
	return KYCView{Status: kyc.OverallStatus(docs), Documents: docs}
}

func (s *Screens) Loyalty(ctx context.Context) (LoyaltyView, error) {
	var (
		tiers []loyalty.Tier
		p     loyalty.Progress
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		tiers, err = s.d.Loyalty.Tiers(gctx)
		return err
	})
	g.Go(func() (err error) {
		p, err = s.d.Loyalty.Progress(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return LoyaltyView{}, err
	}
	return loyaltyView(p, tiers), nil
}

func (s *Screens) Referrals(ctx context.Context) (ReferralsView, error) {
	summary, err := s.d.Referral.Summary(ctx)
	if err != nil {
		return ReferralsView{}, err
	}
	network, err := s.d.Referral.Network(ctx)
	if err != nil {
		return ReferralsView{}, err
	}
	return ReferralsView{
		Summary: summary,
		Members: referral.Flatten(network),
		ByLevel: referral.CountByLevel(network),
	}, nil
}

func (s *Screens) Profile(ctx context.Context) (ProfileView, error) {
	u, err := s.d.Auth.Profile(ctx)
	if err != nil {
		return ProfileView{}, err
	}
	status := u.KYCStatus
	if status == "" {
		status = kyc.OverallStatus(s.d.KYC.Documents(ctx))
	}
	return ProfileView{User: u, KYCStatus: status}, nil
}

func (s *Screens) About(ctx context.Context) (investment.About, error) {
	return s.d.Investment.About(ctx)
}

func balancesView(d investment.Dashboard) BalancesView {
	return BalancesView{
		Total:             format.USD(d.TotalBalance),
		Available:         format.USD(d.AvailableBalance),
		Invested:          format.USD(d.TotalInvested),
		Earnings:          format.USD(d.TotalEarnings),
		Mining:            format.USD(d.MiningBalance),
		ActiveInvestments: d.ActiveInvestments,
	}
}

func toCached(d investment.Dashboard) appdata.Balances {
	return appdata.Balances{
		Total:     d.TotalBalance,
		Available: d.AvailableBalance,
		Invested:  d.TotalInvested,
		Earnings:  d.TotalEarnings,
		Mining:    d.MiningBalance,
	}
}

func cachedBalancesView(b appdata.Balances) BalancesView {
	return BalancesView{
		Total:     format.USD(b.Total),
		Available: format.USD(b.Available),
		Invested:  format.USD(b.Invested),
		Earnings:  format.USD(b.Earnings),
		Mining:    format.USD(b.Mining),
	}
}

func miningView(st mining.State) MiningView {
	return MiningView{
		Phase:        string(st.Phase),
		Progress:     st.Progress,
		ProgressText: format.Percent(st.Progress),
		Remaining:    format.Duration(st.RemainingSeconds),
		Reward:       format.USD(st.Reward),
		CanStart:     st.Phase == mining.PhaseIdle,
		CanClaim:     st.CanClaim(),
		Stale:        st.Stale,
	}
}

func loyaltyView(p loyalty.Progress, tiers []loyalty.Tier) LoyaltyView {
	return LoyaltyView{
		CurrentTier:  p.CurrentTier,
		NextTier:     p.NextTier,
		Progress:     p.Fraction(),
		ProgressText: format.Percent(p.Fraction()),
		Remaining:    format.USD(p.Remaining()),
		Tiers:        tiers,
	}
}

func planView(p investment.Plan) PlanView {
	rng := format.USD(p.MinAmount) + " - " + format.USD(p.MaxAmount)
	if p.MaxAmount.IsZero() {
		rng = format.USD(p.MinAmount) + "+"
	}
	return PlanView{
		ID:           p.ID,
		Name:         p.Name,
		Description:  p.Description,
		Range:        rng,
		ROI:          p.ROIPercent.String() + "%",
		DurationDays: p.DurationDays,
	}
}

func transactionRow(t transactions.Transaction) TransactionRow {
	return TransactionRow{
		ID:          t.ID,
		Type:        t.Type,
		Amount:      format.USD(t.Amount),
		Credit:      t.Credit(),
		Status:      t.Status,
		Reference:   t.Reference,
		Description: t.Description,
		CreatedAt:   t.CreatedAt,
	}
}

// IsAuthError reports whether err should send the user back to login.
func IsAuthError(err error) bool {
	return errors.Is(err, auth.ErrNotAuthenticated) || apiclient.KindOf(err) == apiclient.KindUnauthorized
}

