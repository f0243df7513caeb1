// Package referral reads the user's referral code and downline.
package referral

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Summary is the referral screen header.
type Summary struct {
	ReferralCode   string          `json:"referral_code"`
	ReferralLink   string          `json:"referral_link"`
	TotalReferrals int             `json:"total_referrals"`
	TotalEarnings  decimal.Decimal `json:"total_earnings"`
}

// Node is a member of the referral tree. Level 1 are direct referrals.
type Node struct {
	ID       int64           `json:"id"`
	Name     string          `json:"name"`
	Email    string          `json:"email,omitempty"`
	Level    int             `json:"level"`
	Earnings decimal.Decimal `json:"earnings"`
	JoinedAt time.Time       `json:"joined_at"`
	Children []Node          `json:"children,omitempty"`
}

// Flatten walks the tree depth first. Levels missing from the payload are
// filled from the depth.
func Flatten(roots []Node) []Node {
	var out []Node
	var walk func(nodes []Node, depth int)
	walk = func(nodes []Node, depth int) {
		for _, n := range nodes {
			children := n.Children
			n.Children = nil
			if n.Level == 0 {
				n.Level = depth
			}
			out = append(out, n)
			walk(children, depth+1)
		}
	}
	walk(roots, 1)
	return out
}

// CountByLevel counts members per level.
func CountByLevel(roots []Node) map[int]int {
	counts := map[int]int{}
	for _, n := range Flatten(roots) {
		counts[n.Level]++
	}
	return counts
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

func (s *Service) Summary(ctx context.Context) (Summary, error) {
	var out Summary
	if err := s.api.Get(ctx, "/referrals", &out); err != nil {
		return Summary{}, fmt.Errorf("referral summary: %w", err)
	}
	return out, nil
}

func (s *Service) Network(ctx context.Context) ([]Node, error) {
	var out []Node
	if err := s.api.Get(ctx, "/referrals/network", &out); err != nil {
		return nil, fmt.Errorf("referral network: %w", err)
	}
	return out, nil
}
