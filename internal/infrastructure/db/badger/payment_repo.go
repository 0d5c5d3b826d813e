package badgerdb

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/ArkLabsHQ/paylink/internal/core/domain"
	"github.com/dgraph-io/badger/v4"
	"github.com/shopspring/decimal"
	"github.com/timshannon/badgerhold/v4"
)

const (
	paymentDir = "payments"

	maxConflictRetries = 5
)

type paymentData struct {
	TxID            string
	Reference       string `badgerhold:"index"`
	Asset           int
	ReceivedAmount  decimal.Decimal
	ExpectedAmount  decimal.Decimal
	RecipientWallet string `badgerhold:"index"`
	PayerAddress    string
	NetworkFee      decimal.Decimal
	BlockSlot       uint64
	BlockTime       int64
	DisplayDate     string
	DisplayTime     string
	Status          int
	MerchantLabel   string
	Network         string
	FeePercent      decimal.Decimal
	InsertedAt      int64
}

type paymentRepository struct {
	store *badgerhold.Store
}

func NewPaymentRepository(baseDir string, logger badger.Logger) (domain.PaymentRepository, error) {
	var dir string
	if len(baseDir) > 0 {
		dir = filepath.Join(baseDir, paymentDir)
	}
	store, err := createDB(dir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open payment store: %s", err)
	}
	return &paymentRepository{store}, nil
}

func (r *paymentRepository) AddIfAbsent(
	ctx context.Context, payment domain.ConfirmedPayment,
) (domain.WriteResult, error) {
	if payment.TxID == "" {
		return 0, fmt.Errorf("missing tx id")
	}

	data := toPaymentData(payment)
	var err error
	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		err = r.store.Insert(payment.TxID, data)
		if err == nil {
			return domain.WriteInserted, nil
		}
		if errors.Is(err, badgerhold.ErrKeyExists) {
			return domain.WriteAlreadyExists, nil
		}
		if !errors.Is(err, badger.ErrConflict) {
			break
		}
		// Either the same tx id won the race or an index entry was shared.
		if _, getErr := r.GetByTxID(ctx, payment.TxID); getErr == nil {
			return domain.WriteAlreadyExists, nil
		}
	}
	return 0, fmt.Errorf("failed to insert payment %s: %w", payment.TxID, err)
}

func (r *paymentRepository) GetByTxID(
	ctx context.Context, txID string,
) (*domain.ConfirmedPayment, error) {
	var data paymentData
	if err := r.store.Get(txID, &data); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, domain.ErrPaymentNotFound
		}
		return nil, err
	}
	payment := data.toDomain()
	return &payment, nil
}

func (r *paymentRepository) GetByReference(
	ctx context.Context, reference string,
) (*domain.ConfirmedPayment, error) {
	query := badgerhold.Where("Reference").Eq(reference).Index("Reference")
	payments, err := r.find(query)
	if err != nil {
		return nil, err
	}
	if len(payments) <= 0 {
		return nil, domain.ErrPaymentNotFound
	}
	return &payments[0], nil
}

func (r *paymentRepository) History(
	ctx context.Context, filter domain.HistoryFilter, page domain.Pagination,
) (*domain.HistoryPage, error) {
	payments, err := r.All(ctx, filter)
	if err != nil {
		return nil, err
	}

	totals, fees := domain.Tally(payments)
	page = page.Normalize()

	start := min(page.Offset(), len(payments))
	end := min(start+page.PageSize, len(payments))

	return &domain.HistoryPage{
		Rows:      payments[start:end],
		Total:     len(payments),
		Totals:    totals,
		FeeTotals: fees,
	}, nil
}

func (r *paymentRepository) All(
	ctx context.Context, filter domain.HistoryFilter,
) ([]domain.ConfirmedPayment, error) {
	payments, err := r.find(historyQuery(filter))
	if err != nil {
		return nil, err
	}

	sort.SliceStable(payments, func(i, j int) bool {
		if payments[i].BlockTime.Equal(payments[j].BlockTime) {
			return payments[i].TxID > payments[j].TxID
		}
		return payments[i].BlockTime.After(payments[j].BlockTime)
	})
	return payments, nil
}

func (r *paymentRepository) Close() {
	// nolint:all
	r.store.Close()
}

func (r *paymentRepository) find(query *badgerhold.Query) ([]domain.ConfirmedPayment, error) {
	var data []paymentData
	if err := r.store.Find(&data, query); err != nil {
		return nil, fmt.Errorf("failed to find payments: %w", err)
	}

	payments := make([]domain.ConfirmedPayment, 0, len(data))
	for _, d := range data {
		payments = append(payments, d.toDomain())
	}
	return payments, nil
}

func historyQuery(filter domain.HistoryFilter) *badgerhold.Query {
	var query *badgerhold.Query
	if filter.RecipientWallet != "" {
		query = badgerhold.Where("RecipientWallet").Eq(filter.RecipientWallet).Index("RecipientWallet")
	}
	if filter.Asset != nil {
		if query == nil {
			query = badgerhold.Where("Asset").Eq(int(*filter.Asset))
		} else {
			query = query.And("Asset").Eq(int(*filter.Asset))
		}
	}
	return query
}

func toPaymentData(p domain.ConfirmedPayment) paymentData {
	return paymentData{
		TxID:            p.TxID,
		Reference:       p.Reference,
		Asset:           int(p.Asset),
		ReceivedAmount:  p.ReceivedAmount,
		ExpectedAmount:  p.ExpectedAmount,
		RecipientWallet: p.RecipientWallet,
		PayerAddress:    p.PayerAddress,
		NetworkFee:      p.NetworkFee,
		BlockSlot:       p.BlockSlot,
		BlockTime:       p.BlockTime.UnixNano(),
		DisplayDate:     p.DisplayDate,
		DisplayTime:     p.DisplayTime,
		Status:          int(p.Status),
		MerchantLabel:   p.MerchantLabel,
		Network:         p.Network,
		FeePercent:      p.FeePercent,
		InsertedAt:      p.InsertedAt.UnixNano(),
	}
}

func (d paymentData) toDomain() domain.ConfirmedPayment {
	return domain.ConfirmedPayment{
		TxID:            d.TxID,
		Reference:       d.Reference,
		Asset:           domain.Asset(d.Asset),
		ReceivedAmount:  d.ReceivedAmount,
		ExpectedAmount:  d.ExpectedAmount,
		RecipientWallet: d.RecipientWallet,
		PayerAddress:    d.PayerAddress,
		NetworkFee:      d.NetworkFee,
		BlockSlot:       d.BlockSlot,
		BlockTime:       time.Unix(0, d.BlockTime).UTC(),
		DisplayDate:     d.DisplayDate,
		DisplayTime:     d.DisplayTime,
		Status:          domain.PaymentStatus(d.Status),
		MerchantLabel:   d.MerchantLabel,
		Network:         d.Network,
		FeePercent:      d.FeePercent,
		InsertedAt:      time.Unix(0, d.InsertedAt).UTC(),
	}
}
