// Package chains lists the networks deposits and withdrawals can use.
package chains

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrNotFound is returned by ByID for unknown chain ids.
var ErrNotFound = errors.New("chains: chain not found")

// Chain is a supported deposit network.
type Chain struct {
	ID             int64           `json:"id"`
	Name           string          `json:"name"`
	Symbol         string          `json:"symbol"`
	Network        string          `json:"network"`
	DepositAddress string          `json:"deposit_address"`
	MinDeposit     decimal.Decimal `json:"min_deposit"`
	Active         bool            `json:"is_active"`
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

// List returns the active chains.
func (s *Service) List(ctx context.Context) ([]Chain, error) {
	var all []Chain
	if err := s.api.Get(ctx, "/chains", &all); err != nil {
		return nil, fmt.Errorf("list chains: %w", err)
	}
	out := all[:0]
	for _, c := range all {
		if c.Active {
			out = append(out, c)
		}
	}
	return out, nil
}

// ByID returns one active chain.
func (s *Service) ByID(ctx context.Context, id int64) (Chain, error) {
	list, err := s.List(ctx)
	if err != nil {
		return Chain{}, err
	}
	for _, c := range list {
		if c.ID == id {
			return c, nil
		}
	}
	return Chain{}, ErrNotFound
}
