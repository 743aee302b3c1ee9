package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mythra-labs/mythra-backend/internal/lifecycle"
	"github.com/mythra-labs/mythra-backend/pkg/db/models"
	"github.com/mythra-labs/mythra-backend/pkg/enums"
)

// CreateEventInput carries the fields an organizer provides for a new draft.
type CreateEventInput struct {
	Actor                lifecycle.Actor
	CreatorWallet        string
	Name                 string
	Description          *string
	Venue                string
	StartsAt             *time.Time
	EndsAt               *time.Time
	TicketPriceSol       decimal.Decimal
	MaxTickets           int
	VaultCapSol          decimal.Decimal
	InvestorSharePercent decimal.Decimal
}

// UpdateDraftInput patches a draft. Nil fields are left unchanged.
type UpdateDraftInput struct {
	EventID              uuid.UUID
	Actor                lifecycle.Actor
	Name                 *string
	Description          *string
	Venue                *string
	StartsAt             *time.Time
	EndsAt               *time.Time
	TicketPriceSol       *decimal.Decimal
	MaxTickets           *int
	VaultCapSol          *decimal.Decimal
	InvestorSharePercent *decimal.Decimal
}

// TransitionInput requests a status change. ExpectedVersion, when set, must
// match the stored version. Financials are only read by the income step.
type TransitionInput struct {
	EventID         uuid.UUID
	Target          enums.EventStatus
	Actor           lifecycle.Actor
	ExpectedVersion *int
	Financials      *lifecycle.Financials
}

// ListFilters narrows event listings. Unpublished events are only listed for
// admins and, for their own events, organizers; a nil Viewer is anonymous.
type ListFilters struct {
	Status      *enums.EventStatus
	OrganizerID *uuid.UUID
	Viewer      *lifecycle.Actor
}

// EventDTO is the API view of an event.
type EventDTO struct {
	ID                   uuid.UUID           `json:"id"`
	OrganizerID          uuid.UUID           `json:"organizer_id"`
	CreatorWallet        string              `json:"creator_wallet"`
	Name                 string              `json:"name"`
	Description          *string             `json:"description,omitempty"`
	Venue                string              `json:"venue"`
	StartsAt             *time.Time          `json:"starts_at,omitempty"`
	EndsAt               *time.Time          `json:"ends_at,omitempty"`
	TicketPriceSol       decimal.Decimal     `json:"ticket_price_sol"`
	MaxTickets           int                 `json:"max_tickets"`
	TicketsSold          int                 `json:"tickets_sold"`
	VaultCapSol          decimal.Decimal     `json:"vault_cap_sol"`
	TotalInvestedSol     decimal.Decimal     `json:"total_invested_sol"`
	InvestorSharePercent decimal.Decimal     `json:"investor_share_percent"`
	VaultAddress         *string             `json:"vault_address,omitempty"`
	Status               enums.EventStatus   `json:"status"`
	NextStatuses         []enums.EventStatus `json:"next_statuses"`
	Version              int                 `json:"version"`
	CreatedAt            time.Time           `json:"created_at"`
	UpdatedAt            time.Time           `json:"updated_at"`
}

// EventList wraps a page of events plus the next cursor.
type EventList struct {
	Events     []EventDTO `json:"events"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

// NewEventDTO maps the persisted event to its API view.
func NewEventDTO(e models.Event) EventDTO {
	return EventDTO{
		ID:                   e.ID,
		OrganizerID:          e.OrganizerID,
		CreatorWallet:        e.CreatorWallet,
		Name:                 e.Name,
		Description:          e.Description,
		Venue:                e.Venue,
		StartsAt:             e.StartsAt,
		EndsAt:               e.EndsAt,
		TicketPriceSol:       e.TicketPriceSol,
		MaxTickets:           e.MaxTickets,
		TicketsSold:          e.TicketsSold,
		VaultCapSol:          e.VaultCapSol,
		TotalInvestedSol:     e.TotalInvestedSol,
		InvestorSharePercent: e.InvestorSharePercent,
		VaultAddress:         e.VaultAddress,
		Status:               e.Status,
		NextStatuses:         lifecycle.Targets(e.Status),
		Version:              e.Version,
		CreatedAt:            e.CreatedAt,
		UpdatedAt:            e.UpdatedAt,
	}
}
