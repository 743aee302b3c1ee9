package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Investment is a single investor's SOL commitment to an event vault.
type Investment struct {
	ID             uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	EventID        uuid.UUID       `gorm:"column:event_id;type:uuid;not null"`
	InvestorID     uuid.UUID       `gorm:"column:investor_id;type:uuid;not null"`
	InvestorWallet string          `gorm:"column:investor_wallet;not null"`
	AmountSol      decimal.Decimal `gorm:"column:amount_sol;type:numeric(20,9);not null"`
	TxSignature    *string         `gorm:"column:tx_signature"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (i *Investment) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
