package domain

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrInvalidAmount = errors.New("invalid amount")

// NormalizeAmount turns a merchant supplied amount into a positive decimal
// truncated to the asset scale. Both "12.5" and "12,5" are accepted; when an
// input carries both separators commas are taken as thousands separators.
func NormalizeAmount(raw string, asset Asset) (decimal.Decimal, error) {
	if !asset.IsValid() {
		return decimal.Zero, ErrInvalidAmount
	}

	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "-") {
		return decimal.Zero, ErrInvalidAmount
	}

	if strings.Contains(s, ",") {
		if strings.Contains(s, ".") {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.ReplaceAll(s, ",", ".")
		}
	}

	var b strings.Builder
	seenPoint := false
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' && !seenPoint:
			seenPoint = true
			b.WriteRune(r)
		}
	}

	clean := strings.TrimSuffix(b.String(), ".")
	if clean == "" || clean == "." {
		return decimal.Zero, ErrInvalidAmount
	}
	if strings.HasPrefix(clean, ".") {
		clean = "0" + clean
	}

	amount, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}

	amount = amount.Truncate(asset.Scale())
	if !amount.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return amount, nil
}

// AvailableBalance subtracts claimed totals from gross totals. Each asset is
// floored at zero.
func AvailableBalance(
	gross, claimed map[Asset]decimal.Decimal,
) map[Asset]decimal.Decimal {
	available := make(map[Asset]decimal.Decimal, len(Assets))
	for _, asset := range Assets {
		total := gross[asset].Sub(claimed[asset])
		if total.IsNegative() {
			total = decimal.Zero
		}
		available[asset] = total
	}
	return available
}

// FeeAmount is the platform share of amount for a fee expressed in percent.
func FeeAmount(amount, feePercent decimal.Decimal) decimal.Decimal {
	if !feePercent.IsPositive() {
		return decimal.Zero
	}
	return amount.Mul(feePercent).Div(decimal.NewFromInt(100))
}
