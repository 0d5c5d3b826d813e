package solana

import (
	"context"
	"errors"
	"fmt"

	"github.com/ArkLabsHQ/paylink/internal/core/ports"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	log "github.com/sirupsen/logrus"
)

const signaturesLimit = 25

type ledgerClient struct {
	client     *rpc.Client
	commitment rpc.CommitmentType
}

func NewLedgerClient(rpcURL string, commitment string) (ports.LedgerClient, error) {
	if rpcURL == "" {
		return nil, fmt.Errorf("missing rpc url")
	}

	c := rpc.CommitmentType(commitment)
	switch c {
	case rpc.CommitmentConfirmed, rpc.CommitmentFinalized:
	default:
		return nil, fmt.Errorf("unsupported commitment %q, use confirmed or finalized", commitment)
	}

	return &ledgerClient{rpc.New(rpcURL), c}, nil
}

// FindTaggedTransactions returns the successful transactions in the latest
// page of signatures mentioning the reference key, oldest first.
func (l *ledgerClient) FindTaggedTransactions(
	ctx context.Context, reference string,
) ([]ports.TaggedTransaction, error) {
	key, err := solana.PublicKeyFromBase58(reference)
	if err != nil {
		return nil, fmt.Errorf("invalid reference %s: %w", reference, err)
	}

	limit := signaturesLimit
	sigs, err := l.client.GetSignaturesForAddressWithOpts(ctx, key, &rpc.GetSignaturesForAddressOpts{
		Limit:      &limit,
		Commitment: l.commitment,
	})
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return nil, ports.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get signatures for reference: %w", err)
	}

	candidates := taggedCandidates(sigs)
	if len(candidates) == 0 {
		return nil, ports.ErrTransactionNotFound
	}
	return candidates, nil
}

// taggedCandidates reverses the newest first rpc ordering and drops failed
// transactions.
func taggedCandidates(sigs []*rpc.TransactionSignature) []ports.TaggedTransaction {
	candidates := make([]ports.TaggedTransaction, 0, len(sigs))
	for i := len(sigs) - 1; i >= 0; i-- {
		sig := sigs[i]
		if sig == nil || sig.Err != nil {
			continue
		}
		candidates = append(candidates, ports.TaggedTransaction{
			Signature: sig.Signature.String(),
			Slot:      sig.Slot,
		})
	}
	return candidates
}

func (l *ledgerClient) GetParsedTransaction(
	ctx context.Context, signature string,
) (*ports.ParsedTransaction, error) {
	sig, err := solana.SignatureFromBase58(signature)
	if err != nil {
		return nil, fmt.Errorf("invalid signature %s: %w", signature, err)
	}

	maxVersion := uint64(0)
	res, err := l.client.GetTransaction(ctx, sig, &rpc.GetTransactionOpts{
		Encoding:                       solana.EncodingBase64,
		Commitment:                     l.commitment,
		MaxSupportedTransactionVersion: &maxVersion,
	})
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return nil, ports.ErrTransactionNotAvailable
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	if res == nil || res.Meta == nil || res.Transaction == nil {
		return nil, ports.ErrTransactionNotAvailable
	}
	if res.Meta.Err != nil {
		log.WithField("signature", signature).Warnf("transaction failed on chain: %v", res.Meta.Err)
		return nil, ports.ErrTransactionNotAvailable
	}

	tx, err := res.Transaction.GetTransaction()
	if err != nil {
		return nil, fmt.Errorf("failed to decode transaction: %w", err)
	}

	// Some nodes omit token balance owners with binary encodings.
	if missingOwners(res.Meta) {
		parsed, err := l.client.GetTransaction(ctx, sig, &rpc.GetTransactionOpts{
			Encoding:                       solana.EncodingJSONParsed,
			Commitment:                     l.commitment,
			MaxSupportedTransactionVersion: &maxVersion,
		})
		if err == nil && parsed != nil && parsed.Meta != nil {
			res.Meta = parsed.Meta
		} else {
			log.WithError(err).Debugf("failed to refetch %s as jsonParsed", signature)
		}
	}

	keys := append(solana.PublicKeySlice{}, tx.Message.AccountKeys...)
	keys = append(keys, res.Meta.LoadedAddresses.Writable...)
	keys = append(keys, res.Meta.LoadedAddresses.ReadOnly...)

	parsedTx := toParsedTransaction(signature, res.Slot, res.Meta, keys)
	if res.BlockTime != nil && *res.BlockTime > 0 {
		t := res.BlockTime.Time()
		parsedTx.BlockTime = &t
	}
	return parsedTx, nil
}

func (l *ledgerClient) Health(ctx context.Context) error {
	status, err := l.client.GetHealth(ctx)
	if err != nil {
		return err
	}
	if status != rpc.HealthOk {
		return fmt.Errorf("node unhealthy: %s", status)
	}
	return nil
}

func missingOwners(meta *rpc.TransactionMeta) bool {
	for _, b := range meta.PreTokenBalances {
		if b.Owner == nil {
			return true
		}
	}
	for _, b := range meta.PostTokenBalances {
		if b.Owner == nil {
			return true
		}
	}
	return false
}

func toParsedTransaction(
	signature string, slot uint64, meta *rpc.TransactionMeta, keys solana.PublicKeySlice,
) *ports.ParsedTransaction {
	accountKeys := make([]string, 0, len(keys))
	for _, k := range keys {
		accountKeys = append(accountKeys, k.String())
	}

	return &ports.ParsedTransaction{
		Signature:         signature,
		Slot:              slot,
		Fee:               meta.Fee,
		AccountKeys:       accountKeys,
		PreBalances:       meta.PreBalances,
		PostBalances:      meta.PostBalances,
		PreTokenBalances:  toTokenBalances(meta.PreTokenBalances),
		PostTokenBalances: toTokenBalances(meta.PostTokenBalances),
	}
}

func toTokenBalances(balances []rpc.TokenBalance) []ports.TokenBalance {
	out := make([]ports.TokenBalance, 0, len(balances))
	for _, b := range balances {
		tb := ports.TokenBalance{
			AccountIndex: b.AccountIndex,
			Mint:         b.Mint.String(),
		}
		if b.Owner != nil {
			tb.Owner = b.Owner.String()
		}
		if b.UiTokenAmount != nil {
			tb.Amount = b.UiTokenAmount.Amount
			tb.Decimals = b.UiTokenAmount.Decimals
		}
		out = append(out, tb)
	}
	return out
}
