package ports

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrTransactionNotFound means no transaction carries the reference yet.
	ErrTransactionNotFound = errors.New("transaction not found")
	// ErrTransactionNotAvailable means the transaction was seen but its parsed
	// effects are not available at the required commitment yet.
	ErrTransactionNotAvailable = errors.New("transaction not available")
)

type TaggedTransaction struct {
	Signature string
	Slot      uint64
}

type TokenBalance struct {
	AccountIndex uint16
	Owner        string
	Mint         string
	// Amount is the raw integer amount in the token's smallest unit.
	Amount   string
	Decimals uint8
}

type ParsedTransaction struct {
	Signature         string
	Slot              uint64
	BlockTime         *time.Time
	Fee               uint64
	AccountKeys       []string
	PreBalances       []uint64
	PostBalances      []uint64
	PreTokenBalances  []TokenBalance
	PostTokenBalances []TokenBalance
}

type LedgerClient interface {
	// FindTaggedTransactions returns the successful transactions that list
	// the reference key among their accounts, oldest first. It returns
	// ErrTransactionNotFound when there are none yet.
	FindTaggedTransactions(ctx context.Context, reference string) ([]TaggedTransaction, error)
	GetParsedTransaction(ctx context.Context, signature string) (*ParsedTransaction, error)
	Health(ctx context.Context) error
}
