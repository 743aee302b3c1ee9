package tickets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mythra-labs/mythra-backend/internal/events"
	"github.com/mythra-labs/mythra-backend/internal/ledger"
	"github.com/mythra-labs/mythra-backend/internal/lifecycle"
	"github.com/mythra-labs/mythra-backend/internal/payouts"
	"github.com/mythra-labs/mythra-backend/internal/repo"
	"github.com/mythra-labs/mythra-backend/pkg/db/models"
	"github.com/mythra-labs/mythra-backend/pkg/enums"
	pkgerrors "github.com/mythra-labs/mythra-backend/pkg/errors"
	"github.com/mythra-labs/mythra-backend/pkg/logger"
	"github.com/mythra-labs/mythra-backend/pkg/outbox"
	"github.com/mythra-labs/mythra-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service sells tickets and admits holders at the venue.
type Service interface {
	Purchase(ctx context.Context, input PurchaseInput) (*PurchaseResult, error)
	CheckIn(ctx context.Context, input CheckInInput) (*models.Ticket, error)
	ListMine(ctx context.Context, eventID uuid.UUID, buyer lifecycle.Actor) ([]models.Ticket, error)
}

// Options tunes ticket pricing. Nil PlatformFeePercent selects the default
// fee and zero RoundingPlaces selects payouts.DefaultRoundingPlaces.
type Options struct {
	PlatformFeePercent *decimal.Decimal
	RoundingPlaces     int32
	Now                func() time.Time
}

type ServiceParams struct {
	Repo      Repository
	EventRepo events.Repository
	Events    events.Service
	Tx        txRunner
	Outbox    outboxPublisher
	Ledger    ledger.Service
	Logger    *logger.Logger
	Options   Options
}

type service struct {
	repo      Repository
	eventRepo events.Repository
	events    events.Service
	tx        txRunner
	outbox    outboxPublisher
	ledger    ledger.Service
	logg      *logger.Logger
	opts      Options
}

func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Repo == nil:
		return nil, fmt.Errorf("tickets repository required")
	case params.EventRepo == nil:
		return nil, fmt.Errorf("events repository required")
	case params.Events == nil:
		return nil, fmt.Errorf("events service required")
	case params.Tx == nil:
		return nil, fmt.Errorf("transaction runner required")
	case params.Outbox == nil:
		return nil, fmt.Errorf("outbox publisher required")
	case params.Ledger == nil:
		return nil, fmt.Errorf("ledger service required")
	case params.Logger == nil:
		return nil, fmt.Errorf("logger required")
	}
	opts := params.Options
	fee := payouts.DefaultPlatformFeePercent
	if opts.PlatformFeePercent != nil {
		fee = *opts.PlatformFeePercent
	}
	if fee.IsNegative() || fee.GreaterThan(decimal.NewFromInt(100)) {
		return nil, fmt.Errorf("platform fee percent must be between 0 and 100, got %s", fee)
	}
	opts.PlatformFeePercent = &fee
	if opts.RoundingPlaces < 0 || opts.RoundingPlaces > payouts.MaxRoundingPlaces {
		return nil, fmt.Errorf("rounding places must be between 1 and %d, got %d", payouts.MaxRoundingPlaces, opts.RoundingPlaces)
	}
	if opts.RoundingPlaces == 0 {
		opts.RoundingPlaces = payouts.DefaultRoundingPlaces
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	return &service{
		repo:      params.Repo,
		eventRepo: params.EventRepo,
		events:    params.Events,
		tx:        params.Tx,
		outbox:    params.Outbox,
		ledger:    params.Ledger,
		logg:      params.Logger,
		opts:      opts,
	}, nil
}

// Purchase issues quantity tickets to the buyer. The sale that fills the last
// seat also closes sales on behalf of the system actor.
func (s *service) Purchase(ctx context.Context, input PurchaseInput) (*PurchaseResult, error) {
	if input.Buyer.ID == uuid.Nil || input.Buyer.Role == enums.ActorRoleSystem {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "buyer identity required")
	}
	if input.Quantity > maxPurchaseQuantity {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("quantity must be at most %d per purchase", maxPurchaseQuantity))
	}

	ctx = s.logg.WithFields(ctx, map[string]any{
		"event_id": input.EventID.String(),
		"buyer_id": input.Buyer.ID.String(),
		"quantity": input.Quantity,
	})

	var result *PurchaseResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		eventRepo := s.eventRepo.WithTx(tx)
		event, err := eventRepo.FindByID(ctx, input.EventID)
		if err != nil {
			if repo.IsNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "event not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load event")
		}
		if err := lifecycle.CanPurchaseTickets(*event, input.Quantity); err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "ticket purchase rejected")
			return lifecycle.TypedError(err)
		}

		gross := event.TicketPriceSol.Mul(decimal.NewFromInt(int64(input.Quantity)))
		split, err := payouts.SplitTicketRevenue(gross, *s.opts.PlatformFeePercent, s.opts.RoundingPlaces)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "split ticket revenue")
		}

		now := s.opts.Now()
		issued := make([]models.Ticket, 0, input.Quantity)
		for i := 0; i < input.Quantity; i++ {
			code, err := newCode()
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "issue ticket")
			}
			issued = append(issued, models.Ticket{
				EventID:   event.ID,
				BuyerID:   input.Buyer.ID,
				Code:      code,
				PriceSol:  event.TicketPriceSol,
				Status:    enums.TicketStatusValid,
				CreatedAt: now,
				UpdatedAt: now,
			})
		}
		if err := s.repo.WithTx(tx).CreateBatch(ctx, issued); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create tickets")
		}

		sold := event.TicketsSold + input.Quantity
		if err := eventRepo.UpdateVersioned(ctx, event.ID, event.Version, map[string]any{
			"tickets_sold": sold,
			"updated_at":   now,
		}); err != nil {
			if errors.Is(err, repo.ErrStaleVersion) {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "event changed while purchasing; retry")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update tickets sold")
		}

		ids := make([]uuid.UUID, 0, len(issued))
		for _, t := range issued {
			ids = append(ids, t.ID)
		}
		if err := s.recordSale(ctx, tx, *event, input.Buyer, ids, split); err != nil {
			return err
		}

		soldOut := sold >= event.MaxTickets
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventTicketsPurchased,
			AggregateType: enums.AggregateTicket,
			AggregateID:   event.ID,
			Actor:         &outbox.ActorRef{UserID: input.Buyer.ID, Role: input.Buyer.Role},
			Data: payloads.TicketsPurchasedEvent{
				EventID:        event.ID,
				BuyerID:        input.Buyer.ID,
				TicketIDs:      ids,
				GrossSol:       split.Gross,
				PlatformFeeSol: split.PlatformFee,
				OrganizerSol:   split.OrganizerNet,
				TicketsSold:    sold,
				SoldOut:        soldOut,
			},
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit tickets purchased")
		}

		result = &PurchaseResult{
			Tickets:          make([]TicketDTO, 0, len(issued)),
			GrossSol:         split.Gross,
			PlatformFeeSol:   split.PlatformFee,
			OrganizerSol:     split.OrganizerNet,
			TicketsRemaining: event.MaxTickets - sold,
			EventStatus:      event.Status,
		}
		for _, t := range issued {
			result.Tickets = append(result.Tickets, NewTicketDTO(t))
		}

		if soldOut {
			closed, err := s.events.TransitionTx(ctx, tx, events.TransitionInput{
				EventID: event.ID,
				Target:  enums.EventStatusWaitingForEvent,
				Actor:   lifecycle.SystemActor(),
			})
			if err != nil {
				return err
			}
			result.EventStatus = closed.Status
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"gross_sol":         result.GrossSol.String(),
		"tickets_remaining": result.TicketsRemaining,
	}), "tickets.purchased")
	return result, nil
}

func (s *service) recordSale(ctx context.Context, tx *gorm.DB, event models.Event, buyer lifecycle.Actor, ticketIDs []uuid.UUID, split payouts.RevenueSplit) error {
	metadata, _ := json.Marshal(map[string]any{
		"ticket_ids":    ticketIDs,
		"organizer_sol": split.OrganizerNet.String(),
	})
	store := s.ledger.WithTx(tx)
	if _, err := store.RecordEvent(ctx, ledger.RecordLedgerEventInput{
		EventID:   event.ID,
		ActorID:   buyer.ID,
		Type:      enums.LedgerEventTypeTicketSale,
		AmountSol: split.Gross,
		Metadata:  metadata,
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record ticket sale")
	}
	if split.PlatformFee.IsZero() {
		return nil
	}
	if _, err := store.RecordEvent(ctx, ledger.RecordLedgerEventInput{
		EventID:   event.ID,
		ActorID:   buyer.ID,
		Type:      enums.LedgerEventTypePlatformFee,
		AmountSol: split.PlatformFee,
		Metadata:  metadata,
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record platform fee")
	}
	return nil
}

func (s *service) CheckIn(ctx context.Context, input CheckInInput) (*models.Ticket, error) {
	ctx = s.logg.WithFields(ctx, map[string]any{
		"ticket_id": input.TicketID.String(),
		"staff_id":  input.Staff.ID.String(),
	})

	var admitted *models.Ticket
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		store := s.repo.WithTx(tx)
		ticket, err := store.FindByID(ctx, input.TicketID)
		if err != nil {
			if repo.IsNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "ticket not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load ticket")
		}
		event, err := s.eventRepo.WithTx(tx).FindByID(ctx, ticket.EventID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load event")
		}
		if err := lifecycle.CanCheckIn(*event, input.Staff, *ticket); err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "check-in rejected")
			return lifecycle.TypedError(err)
		}

		now := s.opts.Now()
		ok, err := store.MarkCheckedIn(ctx, ticket.ID, input.Staff.ID, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check in ticket")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "ticket already checked in").
				WithDetails(map[string]any{"reason": string(enums.GuardAlreadyCheckedIn)})
		}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventTicketCheckedIn,
			AggregateType: enums.AggregateTicket,
			AggregateID:   ticket.ID,
			Actor:         &outbox.ActorRef{UserID: input.Staff.ID, Role: input.Staff.Role},
			Data: payloads.TicketCheckedInEvent{
				TicketID:    ticket.ID,
				EventID:     event.ID,
				CheckedInBy: input.Staff.ID,
				CheckedInAt: now,
			},
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit check-in")
		}

		staffID := input.Staff.ID
		ticket.Status = enums.TicketStatusCheckedIn
		ticket.CheckedInAt = &now
		ticket.CheckedInBy = &staffID
		admitted = ticket
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logg.Info(ctx, "ticket.checked_in")
	return admitted, nil
}

func (s *service) ListMine(ctx context.Context, eventID uuid.UUID, buyer lifecycle.Actor) ([]models.Ticket, error) {
	if buyer.ID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "buyer identity required")
	}
	rows, err := s.repo.ListByBuyer(ctx, eventID, buyer.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list tickets")
	}
	return rows, nil
}
