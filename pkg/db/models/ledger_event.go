package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mythra-labs/mythra-backend/pkg/enums"
)

// LedgerEvent records an immutable SOL movement tied to an event.
type LedgerEvent struct {
	ID                 uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	EventID            uuid.UUID             `gorm:"column:event_id;type:uuid;not null"`
	ActorID            uuid.UUID             `gorm:"column:actor_id;type:uuid;not null"`
	CounterpartyWallet *string               `gorm:"column:counterparty_wallet"`
	Type               enums.LedgerEventType `gorm:"column:type;type:ledger_event_type;not null"`
	AmountSol          decimal.Decimal       `gorm:"column:amount_sol;type:numeric(20,9);not null"`
	TxSignature        *string               `gorm:"column:tx_signature"`
	Metadata           json.RawMessage       `gorm:"column:metadata;type:jsonb"`
	CreatedAt          time.Time             `gorm:"column:created_at;autoCreateTime"`
}

func (l *LedgerEvent) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
