package domain

import "github.com/shopspring/decimal"

type Merchant struct {
	ID            string
	WalletAddress string
	// FeePercent overrides the global default when set.
	FeePercent *decimal.Decimal
	Label      string
	Role       string
}

// EffectiveFeePercent resolves the merchant override against the global default.
func (m Merchant) EffectiveFeePercent(def decimal.Decimal) decimal.Decimal {
	if m.FeePercent != nil {
		return *m.FeePercent
	}
	return def
}
