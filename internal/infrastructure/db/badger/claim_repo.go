package badgerdb

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/ArkLabsHQ/paylink/internal/core/domain"
	"github.com/dgraph-io/badger/v4"
	"github.com/shopspring/decimal"
	"github.com/timshannon/badgerhold/v4"
)

const (
	claimDir = "claims"
)

type claimData struct {
	ID         string
	MerchantID string `badgerhold:"index"`
	Asset      int
	Amount     decimal.Decimal
	CreatedAt  int64
}

type claimRepository struct {
	store *badgerhold.Store
}

func NewClaimRepository(baseDir string, logger badger.Logger) (domain.ClaimRepository, error) {
	var dir string
	if len(baseDir) > 0 {
		dir = filepath.Join(baseDir, claimDir)
	}
	store, err := createDB(dir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open claim store: %s", err)
	}
	return &claimRepository{store}, nil
}

func (r *claimRepository) Add(ctx context.Context, claim domain.Claim) error {
	data := claimData{
		ID:         claim.ID,
		MerchantID: claim.MerchantID,
		Asset:      int(claim.Asset),
		Amount:     claim.Amount,
		CreatedAt:  claim.CreatedAt.UnixNano(),
	}
	if err := r.store.Insert(claim.ID, data); err != nil {
		if errors.Is(err, badgerhold.ErrKeyExists) {
			return fmt.Errorf("claim %s already exists", claim.ID)
		}
		return err
	}
	return nil
}

func (r *claimRepository) TotalsByMerchant(
	ctx context.Context, merchantID string,
) (map[domain.Asset]decimal.Decimal, error) {
	var claims []claimData
	query := badgerhold.Where("MerchantID").Eq(merchantID).Index("MerchantID")
	if err := r.store.Find(&claims, query); err != nil {
		return nil, fmt.Errorf("failed to find claims: %w", err)
	}

	totals := domain.NewTotals()
	for _, c := range claims {
		asset := domain.Asset(c.Asset)
		totals[asset] = totals[asset].Add(c.Amount)
	}
	return totals, nil
}

func (r *claimRepository) Close() {
	// nolint:all
	r.store.Close()
}
