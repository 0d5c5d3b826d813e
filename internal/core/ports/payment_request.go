package ports

import (
	"github.com/ArkLabsHQ/paylink/internal/core/domain"
	"github.com/shopspring/decimal"
)

type ReferenceGenerator interface {
	Generate() (string, error)
}

type Descriptor struct {
	URL       string
	Recipient string
	Amount    decimal.Decimal
	Asset     domain.Asset
	// SPLToken is empty for the native asset.
	SPLToken  string
	Reference string
	Label     string
	Message   string
}

type RequestEncoder interface {
	Encode(
		recipient string, amount decimal.Decimal, asset domain.Asset,
		reference, label, message string,
	) (*Descriptor, error)
	ValidateWallet(address string) error
}
