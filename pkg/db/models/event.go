package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mythra-labs/mythra-backend/pkg/enums"
)

// Event is an organizer-owned event moving through the investment and ticketing lifecycle.
type Event struct {
	ID                   uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrganizerID          uuid.UUID         `gorm:"column:organizer_id;type:uuid;not null"`
	CreatorWallet        string            `gorm:"column:creator_wallet;not null"`
	Name                 string            `gorm:"column:name;not null"`
	Description          *string           `gorm:"column:description"`
	Venue                string            `gorm:"column:venue;not null;default:''"`
	StartsAt             *time.Time        `gorm:"column:starts_at"`
	EndsAt               *time.Time        `gorm:"column:ends_at"`
	TicketPriceSol       decimal.Decimal   `gorm:"column:ticket_price_sol;type:numeric(20,9);not null;default:0"`
	MaxTickets           int               `gorm:"column:max_tickets;not null;default:0"`
	TicketsSold          int               `gorm:"column:tickets_sold;not null;default:0"`
	VaultCapSol          decimal.Decimal   `gorm:"column:vault_cap_sol;type:numeric(20,9);not null;default:0"`
	TotalInvestedSol     decimal.Decimal   `gorm:"column:total_invested_sol;type:numeric(20,9);not null;default:0"`
	InvestorSharePercent decimal.Decimal   `gorm:"column:investor_share_percent;type:numeric(5,2);not null;default:0"`
	VaultAddress         *string           `gorm:"column:vault_address"`
	Status               enums.EventStatus `gorm:"column:status;type:event_status;not null;default:'draft'"`
	Version              int               `gorm:"column:version;not null;default:1"`
	CreatedAt            time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time         `gorm:"column:updated_at"`
}

func (e *Event) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.Status == "" {
		e.Status = enums.EventStatusDraft
	}
	if e.Version == 0 {
		e.Version = 1
	}
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = time.Now().UTC()
	}
	return nil
}

// TicketsRemaining returns the unsold capacity, never negative.
func (e Event) TicketsRemaining() int {
	if e.TicketsSold >= e.MaxTickets {
		return 0
	}
	return e.MaxTickets - e.TicketsSold
}
