package sqlitedb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ArkLabsHQ/paylink/internal/core/domain"
	"github.com/ArkLabsHQ/paylink/internal/infrastructure/db/sqlite/sqlc/queries"
	"github.com/shopspring/decimal"
)

type paymentRepository struct {
	db      *sql.DB
	querier *queries.Queries
}

func NewPaymentRepository(db *sql.DB) (domain.PaymentRepository, error) {
	if db == nil {
		return nil, fmt.Errorf("cannot open payment repository: db is nil")
	}
	return &paymentRepository{
		db:      db,
		querier: queries.New(db),
	}, nil
}

func (r *paymentRepository) AddIfAbsent(
	ctx context.Context, p domain.ConfirmedPayment,
) (domain.WriteResult, error) {
	if p.TxID == "" {
		return 0, fmt.Errorf("missing tx id")
	}

	result := domain.WriteInserted
	txBody := func(querierWithTx *queries.Queries) error {
		err := querierWithTx.InsertPayment(ctx, queries.InsertPaymentParams{
			TxID:            p.TxID,
			Reference:       p.Reference,
			Asset:           int64(p.Asset),
			ReceivedAmount:  p.ReceivedAmount.String(),
			ExpectedAmount:  p.ExpectedAmount.String(),
			RecipientWallet: p.RecipientWallet,
			PayerAddress:    p.PayerAddress,
			NetworkFee:      p.NetworkFee.String(),
			BlockSlot:       int64(p.BlockSlot),
			BlockTime:       p.BlockTime.UnixNano(),
			DisplayDate:     p.DisplayDate,
			DisplayTime:     p.DisplayTime,
			Status:          int64(p.Status),
			MerchantLabel:   p.MerchantLabel,
			Network:         p.Network,
			FeePercent:      p.FeePercent.String(),
			InsertedAt:      p.InsertedAt.UnixNano(),
		})
		if err != nil {
			if isUniqueViolation(err) {
				result = domain.WriteAlreadyExists
				return nil
			}
			return fmt.Errorf("failed to insert payment: %w", err)
		}
		return nil
	}
	if err := execTx(ctx, r.db, txBody); err != nil {
		return 0, err
	}
	return result, nil
}

func (r *paymentRepository) GetByTxID(
	ctx context.Context, txID string,
) (*domain.ConfirmedPayment, error) {
	row, err := r.querier.GetPaymentByTxID(ctx, txID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrPaymentNotFound
		}
		return nil, err
	}
	return toPayment(row)
}

func (r *paymentRepository) GetByReference(
	ctx context.Context, reference string,
) (*domain.ConfirmedPayment, error) {
	row, err := r.querier.GetPaymentByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrPaymentNotFound
		}
		return nil, err
	}
	return toPayment(row)
}

func (r *paymentRepository) History(
	ctx context.Context, filter domain.HistoryFilter, page domain.Pagination,
) (*domain.HistoryPage, error) {
	wallet, asset := toFilterParams(filter)
	page = page.Normalize()

	totals, fees, total, err := r.tally(ctx, wallet, asset)
	if err != nil {
		return nil, err
	}

	rows, err := r.querier.ListPaymentsPage(ctx, queries.ListPaymentsPageParams{
		RecipientWallet: wallet,
		Asset:           asset,
		Limit:           int64(page.PageSize),
		Offset:          int64(page.Offset()),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query payments: %w", err)
	}
	payments, err := toPayments(rows)
	if err != nil {
		return nil, err
	}

	return &domain.HistoryPage{
		Rows:      payments,
		Total:     total,
		Totals:    totals,
		FeeTotals: fees,
	}, nil
}

func (r *paymentRepository) All(
	ctx context.Context, filter domain.HistoryFilter,
) ([]domain.ConfirmedPayment, error) {
	wallet, asset := toFilterParams(filter)
	rows, err := r.querier.ListPayments(ctx, queries.ListPaymentsParams{
		RecipientWallet: wallet,
		Asset:           asset,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query payments: %w", err)
	}
	return toPayments(rows)
}

func (r *paymentRepository) Close() {
	// nolint:all
	r.db.Close()
}

func (r *paymentRepository) tally(
	ctx context.Context, wallet sql.NullString, asset sql.NullInt64,
) (totals, fees map[domain.Asset]decimal.Decimal, count int, err error) {
	rows, err := r.querier.ListPaymentAmounts(ctx, queries.ListPaymentAmountsParams{
		RecipientWallet: wallet,
		Asset:           asset,
	})
	if err != nil {
		return nil, nil, 0, fmt.Errorf("failed to get totals: %w", err)
	}

	totals, fees = domain.NewTotals(), domain.NewTotals()
	for _, row := range rows {
		amount, err := decimal.NewFromString(row.ReceivedAmount)
		if err != nil {
			return nil, nil, 0, fmt.Errorf("invalid stored amount %q: %w", row.ReceivedAmount, err)
		}
		fee, err := decimal.NewFromString(row.FeePercent)
		if err != nil {
			return nil, nil, 0, fmt.Errorf("invalid stored fee percent %q: %w", row.FeePercent, err)
		}
		a := domain.Asset(row.Asset)
		totals[a] = totals[a].Add(amount)
		fees[a] = fees[a].Add(domain.FeeAmount(amount, fee))
	}
	return totals, fees, len(rows), nil
}

func toFilterParams(filter domain.HistoryFilter) (sql.NullString, sql.NullInt64) {
	wallet := sql.NullString{
		String: filter.RecipientWallet,
		Valid:  filter.RecipientWallet != "",
	}
	asset := sql.NullInt64{}
	if filter.Asset != nil {
		asset = sql.NullInt64{Int64: int64(*filter.Asset), Valid: true}
	}
	return wallet, asset
}

func toPayments(rows []queries.ConfirmedPayment) ([]domain.ConfirmedPayment, error) {
	payments := make([]domain.ConfirmedPayment, 0, len(rows))
	for _, row := range rows {
		p, err := toPayment(row)
		if err != nil {
			return nil, err
		}
		payments = append(payments, *p)
	}
	return payments, nil
}

func toPayment(row queries.ConfirmedPayment) (*domain.ConfirmedPayment, error) {
	received, err := decimal.NewFromString(row.ReceivedAmount)
	if err != nil {
		return nil, fmt.Errorf("invalid received amount %q: %w", row.ReceivedAmount, err)
	}
	expected, err := decimal.NewFromString(row.ExpectedAmount)
	if err != nil {
		return nil, fmt.Errorf("invalid expected amount %q: %w", row.ExpectedAmount, err)
	}
	fee, err := decimal.NewFromString(row.NetworkFee)
	if err != nil {
		return nil, fmt.Errorf("invalid network fee %q: %w", row.NetworkFee, err)
	}
	feePercent, err := decimal.NewFromString(row.FeePercent)
	if err != nil {
		return nil, fmt.Errorf("invalid fee percent %q: %w", row.FeePercent, err)
	}

	return &domain.ConfirmedPayment{
		TxID:            row.TxID,
		Reference:       row.Reference,
		Asset:           domain.Asset(row.Asset),
		ReceivedAmount:  received,
		ExpectedAmount:  expected,
		RecipientWallet: row.RecipientWallet,
		PayerAddress:    row.PayerAddress,
		NetworkFee:      fee,
		BlockSlot:       uint64(row.BlockSlot),
		BlockTime:       time.Unix(0, row.BlockTime).UTC(),
		DisplayDate:     row.DisplayDate,
		DisplayTime:     row.DisplayTime,
		Status:          domain.PaymentStatus(row.Status),
		MerchantLabel:   row.MerchantLabel,
		Network:         row.Network,
		FeePercent:      feePercent,
		InsertedAt:      time.Unix(0, row.InsertedAt).UTC(),
	}, nil
}
