package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var ErrPaymentNotFound = errors.New("payment not found")

type PaymentStatus int

const (
	PaymentPending PaymentStatus = iota
	PaymentFailed
	PaymentSuccess
)

func (s PaymentStatus) String() string {
	switch s {
	case PaymentSuccess:
		return "success"
	case PaymentFailed:
		return "failed"
	default:
		return "pending"
	}
}

type ConfirmedPayment struct {
	TxID            string
	Reference       string
	Asset           Asset
	ReceivedAmount  decimal.Decimal
	ExpectedAmount  decimal.Decimal
	RecipientWallet string
	PayerAddress    string
	NetworkFee      decimal.Decimal
	BlockSlot       uint64
	BlockTime       time.Time
	DisplayDate     string
	DisplayTime     string
	Status          PaymentStatus
	MerchantLabel   string
	Network         string
	FeePercent      decimal.Decimal
	InsertedAt      time.Time
}

type WriteResult int

const (
	WriteInserted WriteResult = iota
	WriteAlreadyExists
)

type HistoryFilter struct {
	RecipientWallet string
	// Asset is optional, nil means every asset.
	Asset *Asset
}

func (f HistoryFilter) Matches(p ConfirmedPayment) bool {
	if f.RecipientWallet != "" && p.RecipientWallet != f.RecipientWallet {
		return false
	}
	if f.Asset != nil && p.Asset != *f.Asset {
		return false
	}
	return true
}

type Pagination struct {
	Page     int
	PageSize int
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 200
)

// Normalize clamps page to >= 1 and page size to [1, MaxPageSize].
func (p Pagination) Normalize() Pagination {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize <= 0 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	return p
}

func (p Pagination) Offset() int {
	n := p.Normalize()
	return (n.Page - 1) * n.PageSize
}

type HistoryPage struct {
	Rows      []ConfirmedPayment
	Total     int
	Totals    map[Asset]decimal.Decimal
	FeeTotals map[Asset]decimal.Decimal
}

// NewTotals returns a zeroed per asset map.
func NewTotals() map[Asset]decimal.Decimal {
	totals := make(map[Asset]decimal.Decimal, len(Assets))
	for _, a := range Assets {
		totals[a] = decimal.Zero
	}
	return totals
}

// PaymentRepository persists confirmed payments. The tx id is the unique key and
// the only arbiter of idempotency: a duplicate insert resolves to
// WriteAlreadyExists, never to an error.
type PaymentRepository interface {
	AddIfAbsent(ctx context.Context, payment ConfirmedPayment) (WriteResult, error)
	GetByTxID(ctx context.Context, txID string) (*ConfirmedPayment, error)
	GetByReference(ctx context.Context, reference string) (*ConfirmedPayment, error)
	History(ctx context.Context, filter HistoryFilter, page Pagination) (*HistoryPage, error)
	All(ctx context.Context, filter HistoryFilter) ([]ConfirmedPayment, error)
	Close()
}

// Tally sums received amounts and platform fees per asset.
func Tally(payments []ConfirmedPayment) (totals, fees map[Asset]decimal.Decimal) {
	totals, fees = NewTotals(), NewTotals()
	for _, p := range payments {
		totals[p.Asset] = totals[p.Asset].Add(p.ReceivedAmount)
		fees[p.Asset] = fees[p.Asset].Add(FeeAmount(p.ReceivedAmount, p.FeePercent))
	}
	return totals, fees
}
