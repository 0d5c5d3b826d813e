package sqlitedb

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ArkLabsHQ/paylink/internal/core/domain"
	"github.com/ArkLabsHQ/paylink/internal/infrastructure/db/sqlite/sqlc/queries"
	"github.com/shopspring/decimal"
)

type claimRepository struct {
	querier *queries.Queries
}

func NewClaimRepository(db *sql.DB) (domain.ClaimRepository, error) {
	if db == nil {
		return nil, fmt.Errorf("cannot open claim repository: db is nil")
	}
	return &claimRepository{queries.New(db)}, nil
}

func (r *claimRepository) Add(ctx context.Context, claim domain.Claim) error {
	err := r.querier.InsertClaim(ctx, queries.InsertClaimParams{
		ID:         claim.ID,
		MerchantID: claim.MerchantID,
		Asset:      int64(claim.Asset),
		Amount:     claim.Amount.String(),
		CreatedAt:  claim.CreatedAt.UnixNano(),
	})
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("claim %s already exists", claim.ID)
		}
		return fmt.Errorf("failed to insert claim: %w", err)
	}
	return nil
}

func (r *claimRepository) TotalsByMerchant(
	ctx context.Context, merchantID string,
) (map[domain.Asset]decimal.Decimal, error) {
	rows, err := r.querier.ListClaimAmountsByMerchant(ctx, merchantID)
	if err != nil {
		return nil, fmt.Errorf("failed to query claims: %w", err)
	}

	totals := domain.NewTotals()
	for _, row := range rows {
		v, err := decimal.NewFromString(row.Amount)
		if err != nil {
			return nil, fmt.Errorf("invalid claim amount %q: %w", row.Amount, err)
		}
		a := domain.Asset(row.Asset)
		totals[a] = totals[a].Add(v)
	}
	return totals, nil
}

// Close is a no-op, the db handle is owned by the payment repository.
func (r *claimRepository) Close() {}
