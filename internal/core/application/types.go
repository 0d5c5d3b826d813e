package application

import (
	"github.com/ArkLabsHQ/paylink/internal/core/domain"
	"github.com/shopspring/decimal"
)

type PaymentState int

const (
	StateNotFound PaymentState = iota
	StatePending
	StateConfirmed
)

func (s PaymentState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateConfirmed:
		return "confirmed"
	default:
		return "not_found"
	}
}

type PaymentStatus struct {
	State PaymentState
	// TxID, Amount and Asset are only set once confirmed.
	TxID   string
	Amount decimal.Decimal
	Asset  domain.Asset
}

type CreatePaymentRequestInput struct {
	Merchant  domain.Merchant
	RawAmount string
	Asset     domain.Asset
	// RecipientWallet overrides the merchant wallet when set.
	RecipientWallet string
	Label           string
	Message         string
	Contact         string
}

type History struct {
	Rows            []domain.ConfirmedPayment
	Total           int
	Page            int
	PageSize        int
	GrossTotals     map[domain.Asset]decimal.Decimal
	AvailableTotals map[domain.Asset]decimal.Decimal
	FeeTotals       map[domain.Asset]decimal.Decimal
}
