package solana

import (
	"fmt"

	"github.com/ArkLabsHQ/paylink/internal/core/domain"
	"github.com/ArkLabsHQ/paylink/internal/core/ports"
	"github.com/ArkLabsHQ/paylink/pkg/solanapay"
	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
)

type encoder struct {
	stableMint solana.PublicKey
}

func NewEncoder(stableMint string) (ports.RequestEncoder, error) {
	mint, err := solana.PublicKeyFromBase58(stableMint)
	if err != nil {
		return nil, fmt.Errorf("invalid stable mint: %w", err)
	}
	return &encoder{mint}, nil
}

func (e *encoder) Encode(
	recipient string, amount decimal.Decimal, asset domain.Asset,
	reference, label, message string,
) (*ports.Descriptor, error) {
	to, err := solana.PublicKeyFromBase58(recipient)
	if err != nil {
		return nil, fmt.Errorf("invalid recipient: %w", err)
	}
	ref, err := solana.PublicKeyFromBase58(reference)
	if err != nil {
		return nil, fmt.Errorf("invalid reference: %w", err)
	}

	req := solanapay.TransferRequest{
		Recipient:  to,
		Amount:     &amount,
		References: []solana.PublicKey{ref},
		Label:      label,
		Message:    message,
	}

	splToken := ""
	switch asset {
	case domain.AssetNative:
	case domain.AssetStable:
		mint := e.stableMint
		req.SplToken = &mint
		splToken = mint.String()
	default:
		return nil, fmt.Errorf("unsupported asset %s", asset)
	}

	return &ports.Descriptor{
		URL:       req.URL(),
		Recipient: recipient,
		Amount:    amount,
		Asset:     asset,
		SPLToken:  splToken,
		Reference: reference,
		Label:     label,
		Message:   message,
	}, nil
}

func (e *encoder) ValidateWallet(address string) error {
	_, err := solana.PublicKeyFromBase58(address)
	return err
}
