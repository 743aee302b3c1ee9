package events

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mythra-labs/mythra-backend/internal/lifecycle"
	"github.com/mythra-labs/mythra-backend/internal/repo"
	"github.com/mythra-labs/mythra-backend/pkg/chain"
	"github.com/mythra-labs/mythra-backend/pkg/db/models"
	"github.com/mythra-labs/mythra-backend/pkg/enums"
	pkgerrors "github.com/mythra-labs/mythra-backend/pkg/errors"
	"github.com/mythra-labs/mythra-backend/pkg/logger"
	"github.com/mythra-labs/mythra-backend/pkg/metrics"
	"github.com/mythra-labs/mythra-backend/pkg/outbox"
	"github.com/mythra-labs/mythra-backend/pkg/outbox/payloads"
	"github.com/mythra-labs/mythra-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service owns event records and is the only writer of event status.
type Service interface {
	Create(ctx context.Context, input CreateEventInput) (*models.Event, error)
	UpdateDraft(ctx context.Context, input UpdateDraftInput) (*models.Event, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Event, error)
	List(ctx context.Context, params pagination.Params, filters ListFilters) (*EventList, error)
	Transition(ctx context.Context, input TransitionInput) (*models.Event, error)
	// TransitionTx runs a transition inside the caller's transaction.
	TransitionTx(ctx context.Context, tx *gorm.DB, input TransitionInput) (*models.Event, error)
	ListDueForClock(ctx context.Context, limit int) ([]models.Event, error)
}

// Options tunes lifecycle policy.
type Options struct {
	AllowEmptyDAO bool
	Now           func() time.Time
}

// ServiceParams groups the collaborators of the events service.
type ServiceParams struct {
	Repo    Repository
	Tx      txRunner
	Outbox  outboxPublisher
	Ledger  chain.Ledger
	Metrics *metrics.LifecycleMetrics
	Logger  *logger.Logger
	Options Options
}

type service struct {
	repo    Repository
	tx      txRunner
	outbox  outboxPublisher
	ledger  chain.Ledger
	metrics *metrics.LifecycleMetrics
	logg    *logger.Logger
	opts    Options
}

// NewService builds the events service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("events repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("chain ledger required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	opts := params.Options
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	return &service{
		repo:    params.Repo,
		tx:      params.Tx,
		outbox:  params.Outbox,
		ledger:  params.Ledger,
		metrics: params.Metrics,
		logg:    params.Logger,
		opts:    opts,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateEventInput) (*models.Event, error) {
	if input.Actor.Role != enums.ActorRoleOrganizer || input.Actor.ID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only organizers can create events")
	}
	wallet := strings.TrimSpace(input.CreatorWallet)
	if _, err := chain.ValidateAddress(wallet); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "creator wallet is not a valid address")
	}

	event := &models.Event{
		OrganizerID:          input.Actor.ID,
		CreatorWallet:        wallet,
		Name:                 strings.TrimSpace(input.Name),
		Description:          input.Description,
		Venue:                strings.TrimSpace(input.Venue),
		StartsAt:             utcPtr(input.StartsAt),
		EndsAt:               utcPtr(input.EndsAt),
		TicketPriceSol:       input.TicketPriceSol,
		MaxTickets:           input.MaxTickets,
		VaultCapSol:          input.VaultCapSol,
		InvestorSharePercent: input.InvestorSharePercent,
		Status:               enums.EventStatusDraft,
		UpdatedAt:            s.opts.Now(),
	}
	if err := validateEventFields(*event); err != nil {
		return nil, err
	}
	if event.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}

	if err := s.repo.Create(ctx, event); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create event")
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"event_id":     event.ID.String(),
		"organizer_id": event.OrganizerID.String(),
	}), "event.created")
	return event, nil
}

func (s *service) UpdateDraft(ctx context.Context, input UpdateDraftInput) (*models.Event, error) {
	var updated *models.Event
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		store := s.repo.WithTx(tx)
		event, err := s.load(ctx, store, input.EventID)
		if err != nil {
			return err
		}
		if !canEdit(*event, input.Actor) {
			return pkgerrors.New(pkgerrors.CodeForbidden, "only the organizer or an admin can edit this event")
		}
		if event.Status != enums.EventStatusDraft {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only draft events can be edited").
				WithDetails(map[string]any{"status": string(event.Status)})
		}

		next := *event
		updates := map[string]any{}
		if input.Name != nil {
			next.Name = strings.TrimSpace(*input.Name)
			if next.Name == "" {
				return pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
			}
			updates["name"] = next.Name
		}
		if input.Description != nil {
			next.Description = input.Description
			updates["description"] = *input.Description
		}
		if input.Venue != nil {
			next.Venue = strings.TrimSpace(*input.Venue)
			updates["venue"] = next.Venue
		}
		if input.StartsAt != nil {
			next.StartsAt = utcPtr(input.StartsAt)
			updates["starts_at"] = *next.StartsAt
		}
		if input.EndsAt != nil {
			next.EndsAt = utcPtr(input.EndsAt)
			updates["ends_at"] = *next.EndsAt
		}
		if input.TicketPriceSol != nil {
			next.TicketPriceSol = *input.TicketPriceSol
			updates["ticket_price_sol"] = next.TicketPriceSol
		}
		if input.MaxTickets != nil {
			next.MaxTickets = *input.MaxTickets
			updates["max_tickets"] = next.MaxTickets
		}
		if input.VaultCapSol != nil {
			next.VaultCapSol = *input.VaultCapSol
			updates["vault_cap_sol"] = next.VaultCapSol
		}
		if input.InvestorSharePercent != nil {
			next.InvestorSharePercent = *input.InvestorSharePercent
			updates["investor_share_percent"] = next.InvestorSharePercent
		}
		if len(updates) == 0 {
			updated = event
			return nil
		}
		if err := validateEventFields(next); err != nil {
			return err
		}

		next.UpdatedAt = s.opts.Now()
		updates["updated_at"] = next.UpdatedAt
		if err := store.UpdateVersioned(ctx, event.ID, event.Version, updates); err != nil {
			return mapWriteError(err)
		}
		next.Version = event.Version + 1
		updated = &next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	return s.load(ctx, s.repo, id)
}

func (s *service) List(ctx context.Context, params pagination.Params, filters ListFilters) (*EventList, error) {
	if filters.Status != nil && !filters.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid status %q", *filters.Status))
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	rows, err := s.repo.List(ctx, filters, cursor, pagination.LimitWithBuffer(params.Limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list events")
	}

	out := &EventList{Events: make([]EventDTO, 0, len(rows))}
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		out.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	for _, row := range rows {
		out.Events = append(out.Events, NewEventDTO(row))
	}
	return out, nil
}

func (s *service) Transition(ctx context.Context, input TransitionInput) (*models.Event, error) {
	var next *models.Event
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		next, err = s.TransitionTx(ctx, tx, input)
		return err
	})
	if err != nil {
		return nil, err
	}
	return next, nil
}

func (s *service) TransitionTx(ctx context.Context, tx *gorm.DB, input TransitionInput) (*models.Event, error) {
	if !input.Target.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid target status %q", input.Target))
	}
	store := s.repo.WithTx(tx)

	event, err := s.load(ctx, store, input.EventID)
	if err != nil {
		return nil, err
	}
	if input.ExpectedVersion != nil && *input.ExpectedVersion != event.Version {
		return nil, staleVersion(event.Version)
	}

	snap, err := store.LoadSnapshot(ctx, event.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load event snapshot")
	}

	tc := lifecycle.TransitionContext{
		Now:           s.opts.Now(),
		Questions:     snap.Questions,
		Investors:     snap.Investors,
		Votes:         snap.Votes,
		Financials:    input.Financials,
		Distribution:  snap.Distribution,
		AllowEmptyDAO: s.opts.AllowEmptyDAO,
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"event_id":   event.ID.String(),
		"from":       string(event.Status),
		"to":         string(input.Target),
		"actor_role": string(input.Actor.Role),
	})

	next, err := lifecycle.RequestTransition(*event, input.Target, input.Actor, tc)
	if err != nil {
		s.recordRejection(logCtx, err)
		return nil, lifecycle.TypedError(err)
	}

	updates := map[string]any{
		"status":     next.Status,
		"updated_at": next.UpdatedAt,
	}
	if next.Status == enums.EventStatusInvestmentWindow && event.VaultAddress == nil {
		vault, err := s.ledger.CreateEvent(ctx, chain.CreateEventRequest{
			EventID:       event.ID,
			CreatorWallet: event.CreatorWallet,
			VaultCapSol:   event.VaultCapSol,
		})
		if err != nil {
			s.logg.Error(logCtx, "open event vault failed", err)
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "could not open the event vault")
		}
		next.VaultAddress = &vault.Address
		updates["vault_address"] = vault.Address
	}

	if err := store.UpdateVersioned(ctx, event.ID, event.Version, updates); err != nil {
		return nil, mapWriteError(err)
	}
	next.Version = event.Version + 1

	if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventStatusChanged,
		AggregateType: enums.AggregateEvent,
		AggregateID:   event.ID,
		Actor:         &outbox.ActorRef{UserID: input.Actor.ID, Role: input.Actor.Role},
		Data: payloads.EventStatusChangedEvent{
			EventID:     event.ID,
			OrganizerID: event.OrganizerID,
			From:        event.Status,
			To:          next.Status,
			ActorID:     input.Actor.ID,
			ActorRole:   input.Actor.Role,
			Version:     next.Version,
			ChangedAt:   next.UpdatedAt,
		},
		OccurredAt: next.UpdatedAt,
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit status change")
	}

	s.metrics.IncTransition(string(event.Status), string(next.Status), string(input.Actor.Role))
	s.logg.Info(logCtx, "event.transition")
	return &next, nil
}

func (s *service) ListDueForClock(ctx context.Context, limit int) ([]models.Event, error) {
	if limit <= 0 {
		limit = pagination.MaxLimit
	}
	return s.repo.ListDueForClock(ctx, s.opts.Now(), limit)
}

func (s *service) load(ctx context.Context, store Repository, id uuid.UUID) (*models.Event, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "event id required")
	}
	event, err := store.FindByID(ctx, id)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "event not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load event")
	}
	return event, nil
}

func (s *service) recordRejection(ctx context.Context, err error) {
	var rej *lifecycle.Rejection
	if !errors.As(err, &rej) {
		return
	}
	s.metrics.IncRejection(rej.Kind.Error(), string(rej.Reason))
	s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
		"kind":   rej.Kind.Error(),
		"reason": string(rej.Reason),
	}), "event.transition.rejected")
}

// Visible reports whether viewer may read event. A nil viewer is anonymous.
func Visible(event models.Event, viewer *lifecycle.Actor) bool {
	if event.Status.IsPublished() {
		return true
	}
	return viewer != nil && canEdit(event, *viewer)
}

func canEdit(event models.Event, actor lifecycle.Actor) bool {
	switch actor.Role {
	case enums.ActorRoleAdmin:
		return true
	case enums.ActorRoleOrganizer:
		return actor.ID != uuid.Nil && actor.ID == event.OrganizerID
	default:
		return false
	}
}

func validateEventFields(e models.Event) error {
	problems := []string{}
	if e.TicketPriceSol.IsNegative() {
		problems = append(problems, "ticket_price_sol must be >= 0")
	}
	if e.MaxTickets < 0 {
		problems = append(problems, "max_tickets must be >= 0")
	}
	if e.VaultCapSol.IsNegative() {
		problems = append(problems, "vault_cap_sol must be >= 0")
	}
	if !lifecycle.ValidSharePercent(e.InvestorSharePercent) {
		problems = append(problems, "investor_share_percent must be between 0 and 100 with at most 2 decimals")
	}
	if e.StartsAt != nil && e.EndsAt != nil && !e.EndsAt.After(*e.StartsAt) {
		problems = append(problems, "ends_at must be after starts_at")
	}
	if len(problems) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid event fields").
			WithDetails(map[string]any{"problems": problems})
	}
	return nil
}

func mapWriteError(err error) error {
	if errors.Is(err, repo.ErrStaleVersion) {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "event was modified concurrently; reload and retry")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update event")
}

func staleVersion(current int) error {
	return pkgerrors.New(pkgerrors.CodeConflict, "event version mismatch").
		WithDetails(map[string]any{"version": current})
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
