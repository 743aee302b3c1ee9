package tickets

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mythra-labs/mythra-backend/internal/lifecycle"
	"github.com/mythra-labs/mythra-backend/pkg/db/models"
	"github.com/mythra-labs/mythra-backend/pkg/enums"
)

const maxPurchaseQuantity = 20

type PurchaseInput struct {
	EventID  uuid.UUID
	Buyer    lifecycle.Actor
	Quantity int
}

type CheckInInput struct {
	TicketID uuid.UUID
	Staff    lifecycle.Actor
}

type TicketDTO struct {
	ID          uuid.UUID          `json:"id"`
	EventID     uuid.UUID          `json:"event_id"`
	Code        string             `json:"code"`
	PriceSol    decimal.Decimal    `json:"price_sol"`
	Status      enums.TicketStatus `json:"status"`
	CheckedInAt *time.Time         `json:"checked_in_at,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
}

// PurchaseResult summarises an accepted ticket batch.
type PurchaseResult struct {
	Tickets          []TicketDTO       `json:"tickets"`
	GrossSol         decimal.Decimal   `json:"gross_sol"`
	PlatformFeeSol   decimal.Decimal   `json:"platform_fee_sol"`
	OrganizerSol     decimal.Decimal   `json:"organizer_sol"`
	TicketsRemaining int               `json:"tickets_remaining"`
	EventStatus      enums.EventStatus `json:"event_status"`
}

func NewTicketDTO(t models.Ticket) TicketDTO {
	return TicketDTO{
		ID:          t.ID,
		EventID:     t.EventID,
		Code:        t.Code,
		PriceSol:    t.PriceSol,
		Status:      t.Status,
		CheckedInAt: t.CheckedInAt,
		CreatedAt:   t.CreatedAt,
	}
}
