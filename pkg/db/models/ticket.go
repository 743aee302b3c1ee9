package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mythra-labs/mythra-backend/pkg/enums"
)

// Ticket is a single admission sold during selling_tickets.
type Ticket struct {
	ID          uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	EventID     uuid.UUID          `gorm:"column:event_id;type:uuid;not null"`
	BuyerID     uuid.UUID          `gorm:"column:buyer_id;type:uuid;not null"`
	Code        string             `gorm:"column:code;not null"`
	PriceSol    decimal.Decimal    `gorm:"column:price_sol;type:numeric(20,9);not null"`
	Status      enums.TicketStatus `gorm:"column:status;type:ticket_status;not null;default:'valid'"`
	CheckedInAt *time.Time         `gorm:"column:checked_in_at"`
	CheckedInBy *uuid.UUID         `gorm:"column:checked_in_by;type:uuid"`
	CreatedAt   time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

func (t *Ticket) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.Status == "" {
		t.Status = enums.TicketStatusValid
	}
	return nil
}
