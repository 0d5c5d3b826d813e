package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type Claim struct {
	ID         string
	MerchantID string
	Asset      Asset
	Amount     decimal.Decimal
	CreatedAt  time.Time
}

// ClaimRepository stores withdrawals already claimed by merchants.
type ClaimRepository interface {
	Add(ctx context.Context, claim Claim) error
	TotalsByMerchant(ctx context.Context, merchantID string) (map[Asset]decimal.Decimal, error)
	Close()
}
