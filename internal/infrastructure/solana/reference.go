package solana

import (
	"fmt"

	"github.com/ArkLabsHQ/paylink/internal/core/ports"
	"github.com/gagliardetto/solana-go"
)

type referenceGenerator struct{}

// NewReferenceGenerator mints references as the public key of a throwaway
// ed25519 keypair, the shape wallets expect in a transfer request.
func NewReferenceGenerator() ports.ReferenceGenerator {
	return referenceGenerator{}
}

func (referenceGenerator) Generate() (string, error) {
	key, err := solana.NewRandomPrivateKey()
	if err != nil {
		return "", fmt.Errorf("failed to generate reference key: %w", err)
	}
	return key.PublicKey().String(), nil
}
