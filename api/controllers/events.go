package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mythra-labs/mythra-backend/api/middleware"
	"github.com/mythra-labs/mythra-backend/api/responses"
	"github.com/mythra-labs/mythra-backend/api/validators"
	"github.com/mythra-labs/mythra-backend/internal/events"
	"github.com/mythra-labs/mythra-backend/pkg/enums"
	pkgerrors "github.com/mythra-labs/mythra-backend/pkg/errors"
	"github.com/mythra-labs/mythra-backend/pkg/logger"
	"github.com/mythra-labs/mythra-backend/pkg/pagination"
)

type createEventPayload struct {
	Name                 string          `json:"name" validate:"required,max=200"`
	Description          *string         `json:"description" validate:"omitempty,max=4000"`
	Venue                string          `json:"venue" validate:"required,max=200"`
	CreatorWallet        string          `json:"creator_wallet" validate:"omitempty,wallet"`
	StartsAt             *time.Time      `json:"starts_at"`
	EndsAt               *time.Time      `json:"ends_at"`
	TicketPriceSol       decimal.Decimal `json:"ticket_price_sol" validate:"gt=0"`
	MaxTickets           int             `json:"max_tickets" validate:"gt=0"`
	VaultCapSol          decimal.Decimal `json:"vault_cap_sol" validate:"gt=0"`
	InvestorSharePercent decimal.Decimal `json:"investor_share_percent" validate:"percent"`
}

type updateEventPayload struct {
	Name                 *string          `json:"name" validate:"omitempty,max=200"`
	Description          *string          `json:"description" validate:"omitempty,max=4000"`
	Venue                *string          `json:"venue" validate:"omitempty,max=200"`
	StartsAt             *time.Time       `json:"starts_at"`
	EndsAt               *time.Time       `json:"ends_at"`
	TicketPriceSol       *decimal.Decimal `json:"ticket_price_sol" validate:"omitempty,gt=0"`
	MaxTickets           *int             `json:"max_tickets" validate:"omitempty,gt=0"`
	VaultCapSol          *decimal.Decimal `json:"vault_cap_sol" validate:"omitempty,gt=0"`
	InvestorSharePercent *decimal.Decimal `json:"investor_share_percent" validate:"omitempty,percent"`
}

type transitionPayload struct {
	Target          string `json:"target" validate:"required"`
	ExpectedVersion *int   `json:"expected_version" validate:"omitempty,gte=0"`
}

// EventCreate opens a draft owned by the calling organizer. The creator
// wallet defaults to the wallet bound to the access token.
func EventCreate(svc events.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			serviceUnavailable(ctx, logg, w, "events")
			return
		}
		actor, ok := requireActor(ctx, logg, w)
		if !ok {
			return
		}

		var payload createEventPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		wallet := strings.TrimSpace(payload.CreatorWallet)
		if wallet == "" {
			wallet = middleware.WalletFromContext(ctx)
		}
		if wallet == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "creator_wallet is required").
				WithDetails(map[string]string{"creator_wallet": "is required"}))
			return
		}

		event, err := svc.Create(ctx, events.CreateEventInput{
			Actor:                actor,
			CreatorWallet:        wallet,
			Name:                 payload.Name,
			Description:          payload.Description,
			Venue:                payload.Venue,
			StartsAt:             payload.StartsAt,
			EndsAt:               payload.EndsAt,
			TicketPriceSol:       payload.TicketPriceSol,
			MaxTickets:           payload.MaxTickets,
			VaultCapSol:          payload.VaultCapSol,
			InvestorSharePercent: payload.InvestorSharePercent,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, events.NewEventDTO(*event))
	}
}

// EventList pages through events, newest first.
func EventList(svc events.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			serviceUnavailable(ctx, logg, w, "events")
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		organizerID, err := validators.ParseQueryUUID(r, "organizer_id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		filters := events.ListFilters{OrganizerID: organizerID, Viewer: optionalViewer(ctx)}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseEventStatus(raw)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
				return
			}
			filters.Status = &status
		}

		list, err := svc.List(ctx, pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}, filters)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func EventGet(svc events.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			serviceUnavailable(ctx, logg, w, "events")
			return
		}
		eventID, err := validators.ParseUUIDParam(r, "eventId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		event, err := svc.Get(ctx, eventID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if !events.Visible(*event, optionalViewer(ctx)) {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "event not found"))
			return
		}
		responses.WriteSuccess(w, events.NewEventDTO(*event))
	}
}

// EventUpdate patches a draft event.
func EventUpdate(svc events.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			serviceUnavailable(ctx, logg, w, "events")
			return
		}
		actor, ok := requireActor(ctx, logg, w)
		if !ok {
			return
		}
		eventID, err := validators.ParseUUIDParam(r, "eventId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload updateEventPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		event, err := svc.UpdateDraft(ctx, events.UpdateDraftInput{
			EventID:              eventID,
			Actor:                actor,
			Name:                 payload.Name,
			Description:          payload.Description,
			Venue:                payload.Venue,
			StartsAt:             payload.StartsAt,
			EndsAt:               payload.EndsAt,
			TicketPriceSol:       payload.TicketPriceSol,
			MaxTickets:           payload.MaxTickets,
			VaultCapSol:          payload.VaultCapSol,
			InvestorSharePercent: payload.InvestorSharePercent,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, events.NewEventDTO(*event))
	}
}

// EventTransition requests a lifecycle status change. Income figures go
// through the distribution endpoint instead.
func EventTransition(svc events.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			serviceUnavailable(ctx, logg, w, "events")
			return
		}
		actor, ok := requireActor(ctx, logg, w)
		if !ok {
			return
		}
		eventID, err := validators.ParseUUIDParam(r, "eventId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload transitionPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		target, err := enums.ParseEventStatus(payload.Target)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid target status").
				WithDetails(map[string]string{"target": "is invalid"}))
			return
		}
		if target == enums.EventStatusROIDistribution {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "submit final figures to the distribution endpoint").
				WithDetails(map[string]string{"target": "use POST /events/{eventId}/distribution"}))
			return
		}

		event, err := svc.Transition(ctx, events.TransitionInput{
			EventID:         eventID,
			Target:          target,
			Actor:           actor,
			ExpectedVersion: payload.ExpectedVersion,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, events.NewEventDTO(*event))
	}
}
