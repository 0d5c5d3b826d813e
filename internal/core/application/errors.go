package application

import (
	"errors"
	"fmt"

	"github.com/ArkLabsHQ/paylink/internal/core/domain"
)

var (
	ErrInvalidAmount     = domain.ErrInvalidAmount
	ErrInvalidAsset      = errors.New("invalid asset")
	ErrInvalidWallet     = errors.New("invalid wallet")
	ErrInvalidContact    = errors.New("invalid contact")
	ErrReferenceNotFound = errors.New("reference not found")
)

// ReconciliationError is a ledger or storage failure met while confirming a
// reference. The request stays pending and can be polled again.
type ReconciliationError struct {
	Reference string
	Err       error
}

func (e *ReconciliationError) Error() string {
	return fmt.Sprintf("failed to reconcile %s: %s", e.Reference, e.Err)
}

func (e *ReconciliationError) Unwrap() error {
	return e.Err
}

func (e *ReconciliationError) Temporary() bool {
	return true
}
