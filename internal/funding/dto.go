package funding

import (
	"time"

	"github.com/shopspring/decimal"
)

// Deposit is a user-reported on-chain transfer awaiting confirmation.
type Deposit struct {
	ID        int64           `json:"id"`
	Amount    decimal.Decimal `json:"amount"`
	ChainID   int64           `json:"chain_id"`
	ChainName string          `json:"chain_name,omitempty"`
	TxHash    string          `json:"tx_hash,omitempty"`
	Status    string          `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
}

// Withdrawal is a payout request to an external wallet.
type Withdrawal struct {
	ID            int64           `json:"id"`
	Amount        decimal.Decimal `json:"amount"`
	Fee           decimal.Decimal `json:"fee"`
	ChainID       int64           `json:"chain_id"`
	ChainName     string          `json:"chain_name,omitempty"`
	WalletAddress string          `json:"wallet_address"`
	Status        string          `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
}

type depositRequest struct {
	Amount  decimal.Decimal `json:"amount"`
	ChainID int64           `json:"chain_id"`
	TxHash  string          `json:"tx_hash,omitempty"`
}

type withdrawalRequest struct {
	Amount        decimal.Decimal `json:"amount"`
	ChainID       int64           `json:"chain_id"`
	WalletAddress string          `json:"wallet_address"`
	OTP           string          `json:"otp"`
}
