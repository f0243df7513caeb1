package funding

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

// Service submits deposits and withdrawals and lists their history.
type Service struct {
	api      API
	notifier notification.Notifier
	logger   *slog.Logger
}

// NewService constructs a funding service. notifier may be nil.
func NewService(api API, notifier notification.Notifier, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{api: api, notifier: notifier, logger: logger}
}

// CreateDeposit records a deposit the user sent on chain.
func (s *Service) CreateDeposit(ctx context.Context, form forms.Deposit) (Deposit, error) {
	if err := forms.Validate(form); err != nil {
		return Deposit{}, err
	}
	amount, err := forms.ParseAmount(form.Amount)
	if err != nil {
		return Deposit{}, err
	}

	var dep Deposit
	req := depositRequest{Amount: amount, ChainID: form.ChainID, TxHash: form.TxHash}
	if err := s.api.Post(ctx, "/deposits", req, &dep); err != nil {
		return Deposit{}, fmt.Errorf("create deposit: %w", err)
	}
	s.toast(ctx, fmt.Sprintf("Deposit of %s submitted for confirmation.", format.USD(dep.Amount)))
	return dep, nil
}

// Deposits lists the user's deposits.
func (s *Service) Deposits(ctx context.Context) ([]Deposit, error) {
	var out []Deposit
	if err := s.api.Get(ctx, "/user-deposits", &out); err != nil {
		return nil, fmt.Errorf("list deposits: %w", err)
	}
	return out, nil
}

// RequestWithdrawalOTP asks the backend to email the withdrawal code.
func (s *Service) RequestWithdrawalOTP(ctx context.Context) error {
	if err := s.api.Post(ctx, "/withdrawals/otp", struct{}{}, nil); err != nil {
		return fmt.Errorf("request withdrawal otp: %w", err)
	}
	s.toast(ctx, "A verification code has been sent to your email.")
	return nil
}

// Withdraw submits a withdrawal. Amounts below the minimum are rejected
// before any request is made.
func (s *Service) Withdraw(ctx context.Context, form forms.Withdraw) (Withdrawal, error) {
	if err := forms.Validate(form); err != nil {
		return Withdrawal{}, err
	}
	amount, err := forms.ParseAmount(form.Amount)
	if err != nil {
		return Withdrawal{}, err
	}

	var wd Withdrawal
	req := withdrawalRequest{Amount: amount, ChainID: form.ChainID, WalletAddress: form.WalletAddress, OTP: form.OTP}
	if err := s.api.Post(ctx, "/withdrawal", req, &wd); err != nil {
		return Withdrawal{}, fmt.Errorf("withdraw: %w", err)
	}
	s.toast(ctx, fmt.Sprintf("Withdrawal of %s requested.", format.USD(wd.Amount)))
	return wd, nil
}

// Withdrawals lists the user's withdrawals.
func (s *Service) Withdrawals(ctx context.Context) ([]Withdrawal, error) {
	var out []Withdrawal
	if err := s.api.Get(ctx, "/user-withdrawals", &out); err != nil {
		return nil, fmt.Errorf("list withdrawals: %w", err)
	}
	return out, nil
}

func (s *Service) toast(ctx context.Context, body string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Send(ctx, notification.Success(body)); err != nil {
		s.logger.Warn("send toast", "error", err)
	}
}
