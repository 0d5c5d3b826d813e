package mysqldb

import (
	"time"

	"github.com/ArkLabsHQ/paylink/internal/core/domain"
	"github.com/shopspring/decimal"
)

type confirmedPayment struct {
	ID              uint            `gorm:"primaryKey"`
	TxID            string          `gorm:"column:tx_id;uniqueIndex;size:88;not null"`
	Reference       string          `gorm:"index;size:44;not null"`
	Asset           int             `gorm:"not null"`
	ReceivedAmount  decimal.Decimal `gorm:"type:decimal(38,12);not null"`
	ExpectedAmount  decimal.Decimal `gorm:"type:decimal(38,12);not null"`
	RecipientWallet string          `gorm:"index:idx_wallet_block_time,priority:1;size:44;not null"`
	PayerAddress    string          `gorm:"size:44"`
	NetworkFee      decimal.Decimal `gorm:"type:decimal(38,12)"`
	BlockSlot       uint64
	BlockTime       time.Time `gorm:"index:idx_wallet_block_time,priority:2,sort:desc;precision:6"`
	DisplayDate     string    `gorm:"size:10"`
	DisplayTime     string    `gorm:"size:8"`
	Status          int
	MerchantLabel   string          `gorm:"size:255"`
	Network         string          `gorm:"size:32"`
	FeePercent      decimal.Decimal `gorm:"type:decimal(10,4)"`
	InsertedAt      time.Time       `gorm:"precision:6"`
}

func (confirmedPayment) TableName() string {
	return "confirmed_payments"
}

type claim struct {
	ID         string          `gorm:"primaryKey;size:36"`
	MerchantID string          `gorm:"index;size:64;not null"`
	Asset      int             `gorm:"not null"`
	Amount     decimal.Decimal `gorm:"type:decimal(38,12);not null"`
	CreatedAt  time.Time       `gorm:"precision:6"`
}

func (claim) TableName() string {
	return "claims"
}

func toModel(p domain.ConfirmedPayment) confirmedPayment {
	return confirmedPayment{
		TxID:            p.TxID,
		Reference:       p.Reference,
		Asset:           int(p.Asset),
		ReceivedAmount:  p.ReceivedAmount,
		ExpectedAmount:  p.ExpectedAmount,
		RecipientWallet: p.RecipientWallet,
		PayerAddress:    p.PayerAddress,
		NetworkFee:      p.NetworkFee,
		BlockSlot:       p.BlockSlot,
		BlockTime:       p.BlockTime.UTC(),
		DisplayDate:     p.DisplayDate,
		DisplayTime:     p.DisplayTime,
		Status:          int(p.Status),
		MerchantLabel:   p.MerchantLabel,
		Network:         p.Network,
		FeePercent:      p.FeePercent,
		InsertedAt:      p.InsertedAt.UTC(),
	}
}

func (m confirmedPayment) toDomain() domain.ConfirmedPayment {
	return domain.ConfirmedPayment{
		TxID:            m.TxID,
		Reference:       m.Reference,
		Asset:           domain.Asset(m.Asset),
		ReceivedAmount:  m.ReceivedAmount,
		ExpectedAmount:  m.ExpectedAmount,
		RecipientWallet: m.RecipientWallet,
		PayerAddress:    m.PayerAddress,
		NetworkFee:      m.NetworkFee,
		BlockSlot:       m.BlockSlot,
		BlockTime:       m.BlockTime.UTC(),
		DisplayDate:     m.DisplayDate,
		DisplayTime:     m.DisplayTime,
		Status:          domain.PaymentStatus(m.Status),
		MerchantLabel:   m.MerchantLabel,
		Network:         m.Network,
		FeePercent:      m.FeePercent,
		InsertedAt:      m.InsertedAt.UTC(),
	}
}
