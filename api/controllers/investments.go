package controllers

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mythra-labs/mythra-backend/api/middleware"
	"github.com/mythra-labs/mythra-backend/api/responses"
	"github.com/mythra-labs/mythra-backend/api/validators"
	"github.com/mythra-labs/mythra-backend/internal/investments"
	pkgerrors "github.com/mythra-labs/mythra-backend/pkg/errors"
	"github.com/mythra-labs/mythra-backend/pkg/logger"
)

type investPayload struct {
	Wallet    string          `json:"wallet" validate:"omitempty,wallet"`
	AmountSol decimal.Decimal `json:"amount_sol" validate:"gt=0"`
	Signature string          `json:"signature" validate:"required"`
}

// InvestmentCreate commits the caller's SOL to the event vault. The body
// must carry a wallet signature over the investment message.
func InvestmentCreate(svc investments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			serviceUnavailable(ctx, logg, w, "investments")
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
		var payload investPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		wallet := strings.TrimSpace(payload.Wallet)
		bound := middleware.WalletFromContext(ctx)
		switch {
		case wallet == "":
			wallet = bound
		case bound != "" && wallet != bound:
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "wallet does not match the authenticated wallet"))
			return
		}
		if wallet == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "wallet is required").
				WithDetails(map[string]string{"wallet": "is required"}))
			return
		}

		investment, err := svc.Invest(ctx, investments.InvestInput{
			EventID:   eventID,
			Actor:     actor,
			Wallet:    wallet,
			AmountSol: payload.AmountSol,
			Signature: strings.TrimSpace(payload.Signature),
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, investments.NewInvestmentDTO(*investment))
	}
}

func InvestmentList(svc investments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			serviceUnavailable(ctx, logg, w, "investments")
			return
		}
		eventID, err := validators.ParseUUIDParam(r, "eventId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		summary, err := svc.ListByEvent(ctx, eventID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}
