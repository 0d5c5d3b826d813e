package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var ErrReferenceExists = errors.New("reference already pending")

type PendingPaymentRequest struct {
	Reference       string
	Asset           Asset
	ExpectedAmount  decimal.Decimal
	RecipientWallet string
	MerchantID      string
	MerchantLabel   string
	Message         string
	CustomerContact string
	FeePercent      decimal.Decimal
	Descriptor      string
	CreatedAt       time.Time
}

// PendingRequestStore holds requests waiting for an on-chain payment. Entries
// live for the process lifetime unless swept or settled.
type PendingRequestStore interface {
	// Put must never overwrite, it returns ErrReferenceExists instead.
	Put(req PendingPaymentRequest) error
	Get(reference string) (*PendingPaymentRequest, bool)
	Remove(reference string)
	// Sweep drops every entry created before olderThan and returns how many.
	Sweep(olderThan time.Time) int
	Len() int
}
