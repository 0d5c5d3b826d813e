package mysqldb

import (
	"context"
	"fmt"

	"github.com/ArkLabsHQ/paylink/internal/core/domain"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type claimRepository struct {
	db *gorm.DB
}

func NewClaimRepository(db *gorm.DB) (domain.ClaimRepository, error) {
	if db == nil {
		return nil, fmt.Errorf("cannot open claim repository: db is nil")
	}
	return &claimRepository{db}, nil
}

func (r *claimRepository) Add(ctx context.Context, c domain.Claim) error {
	model := claim{
		ID:         c.ID,
		MerchantID: c.MerchantID,
		Asset:      int(c.Asset),
		Amount:     c.Amount,
		CreatedAt:  c.CreatedAt.UTC(),
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		if isDuplicateEntry(err) {
			return fmt.Errorf("claim %s already exists", c.ID)
		}
		return fmt.Errorf("failed to insert claim: %w", err)
	}
	return nil
}

func (r *claimRepository) TotalsByMerchant(
	ctx context.Context, merchantID string,
) (map[domain.Asset]decimal.Decimal, error) {
	var claims []claim
	if err := r.db.WithContext(ctx).
		Where("merchant_id = ?", merchantID).
		Find(&claims).Error; err != nil {
		return nil, fmt.Errorf("failed to get claims: %w", err)
	}

	totals := domain.NewTotals()
	for _, c := range claims {
		asset := domain.Asset(c.Asset)
		totals[asset] = totals[asset].Add(c.Amount)
	}
	return totals, nil
}

// Close is a no-op, the connection pool is owned by the payment repository.
func (r *claimRepository) Close() {}
