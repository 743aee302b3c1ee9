package controllers

import (
	"net/http"

	"github.com/mythra-labs/mythra-backend/api/responses"
	"github.com/mythra-labs/mythra-backend/api/validators"
	"github.com/mythra-labs/mythra-backend/internal/tickets"
	"github.com/mythra-labs/mythra-backend/pkg/logger"
)

type purchaseTicketsPayload struct {
	Quantity int `json:"quantity" validate:"required,gt=0"`
}

// TicketPurchase sells a batch of tickets to the caller.
func TicketPurchase(svc tickets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			serviceUnavailable(ctx, logg, w, "tickets")
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
		var payload purchaseTicketsPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.Purchase(ctx, tickets.PurchaseInput{
			EventID:  eventID,
			Buyer:    actor,
			Quantity: payload.Quantity,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// TicketListMine returns the caller's tickets for one event.
func TicketListMine(svc tickets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			serviceUnavailable(ctx, logg, w, "tickets")
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
		rows, err := svc.ListMine(ctx, eventID, actor)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		out := make([]tickets.TicketDTO, 0, len(rows))
		for _, t := range rows {
			out = append(out, tickets.NewTicketDTO(t))
		}
		responses.WriteSuccess(w, map[string]any{"tickets": out})
	}
}

func TicketCheckIn(svc tickets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			serviceUnavailable(ctx, logg, w, "tickets")
			return
		}
		actor, ok := requireActor(ctx, logg, w)
		if !ok {
			return
		}
		ticketID, err := validators.ParseUUIDParam(r, "ticketId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		ticket, err := svc.CheckIn(ctx, tickets.CheckInInput{TicketID: ticketID, Staff: actor})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, tickets.NewTicketDTO(*ticket))
	}
}
