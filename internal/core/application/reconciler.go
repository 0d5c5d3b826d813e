package application

import (
	"fmt"
	"math/big"

	"github.com/ArkLabsHQ/paylink/internal/core/domain"
	"github.com/ArkLabsHQ/paylink/internal/core/ports"
	"github.com/shopspring/decimal"
)

// nativeDecimals is the lamports to SOL shift.
const nativeDecimals = 9

// receivedAmount is the balance delta of the recipient for the given asset.
// A recipient absent from the transaction received nothing.
func receivedAmount(
	tx *ports.ParsedTransaction, asset domain.Asset, recipient, stableMint string,
) (decimal.Decimal, error) {
	switch asset {
	case domain.AssetNative:
		return nativeReceived(tx, recipient)
	case domain.AssetStable:
		return tokenReceived(tx, recipient, stableMint)
	default:
		return decimal.Zero, fmt.Errorf("unsupported asset %s", asset)
	}
}

func nativeReceived(tx *ports.ParsedTransaction, recipient string) (decimal.Decimal, error) {
	index := -1
	for i, key := range tx.AccountKeys {
		if key == recipient {
			index = i
			break
		}
	}
	if index < 0 {
		return decimal.Zero, nil
	}
	if index >= len(tx.PreBalances) || index >= len(tx.PostBalances) {
		return decimal.Zero, fmt.Errorf(
			"balance index %d out of range (pre %d, post %d)",
			index, len(tx.PreBalances), len(tx.PostBalances),
		)
	}

	pre := lamports(tx.PreBalances[index])
	post := lamports(tx.PostBalances[index])
	return post.Sub(pre), nil
}

func tokenReceived(tx *ports.ParsedTransaction, recipient, mint string) (decimal.Decimal, error) {
	pre, err := sumTokenBalances(tx.PreTokenBalances, recipient, mint)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid pre token balance: %w", err)
	}
	post, err := sumTokenBalances(tx.PostTokenBalances, recipient, mint)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid post token balance: %w", err)
	}
	return post.Sub(pre), nil
}

func sumTokenBalances(balances []ports.TokenBalance, owner, mint string) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, b := range balances {
		if b.Owner != owner || b.Mint != mint {
			continue
		}
		amount, err := decimal.NewFromString(b.Amount)
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(amount.Shift(-int32(b.Decimals)))
	}
	return total, nil
}

func lamports(v uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(v), -nativeDecimals)
}

// isMatch accepts any amount at least the expected one minus the tolerance.
func isMatch(received, expected, tolerance decimal.Decimal) bool {
	return received.GreaterThanOrEqual(expected.Sub(tolerance))
}

// payerAddress follows the convention that the fee payer is listed first. It
// is meant for display only.
func payerAddress(tx *ports.ParsedTransaction) string {
	if len(tx.AccountKeys) == 0 {
		return ""
	}
	return tx.AccountKeys[0]
}
