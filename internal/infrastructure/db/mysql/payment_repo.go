package mysqldb

import (
	"context"
	"errors"
	"fmt"

	"github.com/ArkLabsHQ/paylink/internal/core/domain"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type paymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) (domain.PaymentRepository, error) {
	if db == nil {
		return nil, fmt.Errorf("cannot open payment repository: db is nil")
	}
	return &paymentRepository{db}, nil
}

func (r *paymentRepository) AddIfAbsent(
	ctx context.Context, payment domain.ConfirmedPayment,
) (domain.WriteResult, error) {
	if payment.TxID == "" {
		return 0, fmt.Errorf("missing tx id")
	}

	model := toModel(payment)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		if isDuplicateEntry(err) || errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.WriteAlreadyExists, nil
		}
		return 0, fmt.Errorf("failed to insert payment: %w", err)
	}
	return domain.WriteInserted, nil
}

func (r *paymentRepository) GetByTxID(
	ctx context.Context, txID string,
) (*domain.ConfirmedPayment, error) {
	return r.first(ctx, "tx_id = ?", txID)
}

func (r *paymentRepository) GetByReference(
	ctx context.Context, reference string,
) (*domain.ConfirmedPayment, error) {
	return r.first(ctx, "reference = ?", reference)
}

func (r *paymentRepository) History(
	ctx context.Context, filter domain.HistoryFilter, page domain.Pagination,
) (*domain.HistoryPage, error) {
	page = page.Normalize()

	var count int64
	if err := r.filtered(ctx, filter).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to count payments: %w", err)
	}

	var amounts []struct {
		Asset          int
		ReceivedAmount decimal.Decimal
		FeePercent     decimal.Decimal
	}
	if err := r.filtered(ctx, filter).
		Select("asset", "received_amount", "fee_percent").
		Scan(&amounts).Error; err != nil {
		return nil, fmt.Errorf("failed to get totals: %w", err)
	}
	totals, fees := domain.NewTotals(), domain.NewTotals()
	for _, a := range amounts {
		asset := domain.Asset(a.Asset)
		totals[asset] = totals[asset].Add(a.ReceivedAmount)
		fees[asset] = fees[asset].Add(domain.FeeAmount(a.ReceivedAmount, a.FeePercent))
	}

	var models []confirmedPayment
	if err := r.filtered(ctx, filter).
		Order("block_time DESC").Order("tx_id DESC").
		Limit(page.PageSize).Offset(page.Offset()).
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to get payments: %w", err)
	}

	return &domain.HistoryPage{
		Rows:      toDomainList(models),
		Total:     int(count),
		Totals:    totals,
		FeeTotals: fees,
	}, nil
}

func (r *paymentRepository) All(
	ctx context.Context, filter domain.HistoryFilter,
) ([]domain.ConfirmedPayment, error) {
	var models []confirmedPayment
	if err := r.filtered(ctx, filter).
		Order("block_time DESC").Order("tx_id DESC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to get payments: %w", err)
	}
	return toDomainList(models), nil
}

func (r *paymentRepository) Close() {
	if sqlDB, err := r.db.DB(); err == nil {
		// nolint:all
		sqlDB.Close()
	}
}

func (r *paymentRepository) first(
	ctx context.Context, cond string, arg any,
) (*domain.ConfirmedPayment, error) {
	var model confirmedPayment
	if err := r.db.WithContext(ctx).Where(cond, arg).Order("id ASC").First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrPaymentNotFound
		}
		return nil, err
	}
	payment := model.toDomain()
	return &payment, nil
}

func (r *paymentRepository) filtered(ctx context.Context, filter domain.HistoryFilter) *gorm.DB {
	tx := r.db.WithContext(ctx).Model(&confirmedPayment{})
	if filter.RecipientWallet != "" {
		tx = tx.Where("recipient_wallet = ?", filter.RecipientWallet)
	}
	if filter.Asset != nil {
		tx = tx.Where("asset = ?", int(*filter.Asset))
	}
	return tx
}

func toDomainList(models []confirmedPayment) []domain.ConfirmedPayment {
	payments := make([]domain.ConfirmedPayment, 0, len(models))
	for _, m := range models {
		payments = append(payments, m.toDomain())
	}
	return payments
}
