package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/mythra-labs/mythra-backend/api/responses"
	"github.com/mythra-labs/mythra-backend/api/validators"
	"github.com/mythra-labs/mythra-backend/internal/distributions"
	pkgerrors "github.com/mythra-labs/mythra-backend/pkg/errors"
	"github.com/mythra-labs/mythra-backend/pkg/logger"
)

type submitDistributionPayload struct {
	TotalRevenueSol      decimal.Decimal  `json:"total_revenue_sol" validate:"gte=0"`
	TotalCostsSol        decimal.Decimal  `json:"total_costs_sol" validate:"gte=0"`
	InvestorSharePercent *decimal.Decimal `json:"investor_share_percent" validate:"omitempty,percent"`
}

// DistributionSubmit records final figures, computes payouts and moves the
// event into roi_distribution.
func DistributionSubmit(svc distributions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			serviceUnavailable(ctx, logg, w, "distributions")
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
		var payload submitDistributionPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		dist, err := svc.Submit(ctx, distributions.SubmitInput{
			EventID:              eventID,
			Actor:                actor,
			TotalRevenueSol:      payload.TotalRevenueSol,
			TotalCostsSol:        payload.TotalCostsSol,
			InvestorSharePercent: payload.InvestorSharePercent,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, distributions.NewDistributionDTO(*dist))
	}
}

func DistributionGet(svc distributions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			serviceUnavailable(ctx, logg, w, "distributions")
			return
		}
		eventID, err := validators.ParseUUIDParam(r, "eventId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		dist, err := svc.Get(ctx, eventID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, distributions.NewDistributionDTO(*dist))
	}
}

// DistributionExecute pays every outstanding payout. A partial failure still
// returns the refreshed distribution in the error details.
func DistributionExecute(svc distributions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			serviceUnavailable(ctx, logg, w, "distributions")
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

		result, err := svc.Execute(ctx, distributions.ExecuteInput{EventID: eventID, Actor: actor})
		if err != nil {
			if typed := pkgerrors.As(err); typed != nil && result != nil && typed.Code() == pkgerrors.CodeDependency {
				details := map[string]any{}
				if existing, ok := typed.Details().(map[string]any); ok {
					for k, v := range existing {
						details[k] = v
					}
				}
				details["transferred"] = result.Transferred
				details["failed"] = result.Failed
				details["distribution"] = result.Distribution
				err = typed.WithDetails(details)
			}
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
