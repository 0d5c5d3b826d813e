package application

import (
	"fmt"

	"github.com/ArkLabsHQ/paylink/internal/core/domain"
)

const (
	walletSuffixLen = 6
	txFragmentLen   = 8
)

func notificationText(p domain.ConfirmedPayment) string {
	return fmt.Sprintf(
		"Payment received: %s %s on %s at %s to wallet ...%s (tx %s)",
		p.ReceivedAmount.String(), p.Asset, p.DisplayDate, p.DisplayTime,
		suffix(p.RecipientWallet, walletSuffixLen), txFragments(p.TxID),
	)
}

func suffix(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

func txFragments(txid string) string {
	if len(txid) <= 2*txFragmentLen {
		return txid
	}
	return txid[:txFragmentLen] + "..." + txid[len(txid)-txFragmentLen:]
}
