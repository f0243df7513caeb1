// Package transactions reads the account's money movements.
package transactions

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Transaction types reported by the backend.
const (
	TypeDeposit    = "deposit"
	TypeWithdrawal = "withdrawal"
	TypeInvestment = "investment"
	TypeEarning    = "earning"
	TypeMining     = "mining"
	TypeReferral   = "referral"
)

// Transaction is one ledger entry of the user.
type Transaction struct {
	ID          int64           `json:"id"`
	Type        string          `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Status      string          `json:"status"`
	Reference   string          `json:"reference,omitempty"`
	Description string          `json:"description,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Credit reports whether the entry adds to the balance.
func (t Transaction) Credit() bool {
	return t.Type != TypeWithdrawal && t.Type != TypeInvestment
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

// Get fetches one transaction.
func (s *Service) Get(ctx context.Context, id int64) (Transaction, error) {
	if id <= 0 {
		return Transaction{}, fmt.Errorf("invalid transaction id %d", id)
	}
	var tx Transaction
	if err := s.api.Get(ctx, fmt.Sprintf("/single-transaction/%d", id), &tx); err != nil {
		return Transaction{}, fmt.Errorf("get transaction %d: %w", id, err)
	}
	return tx, nil
}

// List returns every transaction, newest first.
func (s *Service) List(ctx context.Context) ([]Transaction, error) {
	var out []Transaction
	if err := s.api.Get(ctx, "/all-transaction", &out); err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Filter keeps the transactions of type kind. An empty kind keeps all.
func Filter(txs []Transaction, kind string) []Transaction {
	if kind == "" {
		return txs
	}
	out := make([]Transaction, 0, len(txs))
	for _, t := range txs {
		if t.Type == kind {
			out = append(out, t)
		}
	}
	return out
}
