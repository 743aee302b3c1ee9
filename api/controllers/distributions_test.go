package controllers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mythra-labs/mythra-backend/internal/distributions"
	"github.com/mythra-labs/mythra-backend/pkg/db/models"
	"github.com/mythra-labs/mythra-backend/pkg/enums"
	pkgerrors "github.com/mythra-labs/mythra-backend/pkg/errors"
)

type testDistributionsService struct {
	submitFn  func(ctx context.Context, input distributions.SubmitInput) (*models.EventDistribution, error)
	executeFn func(ctx context.Context, input distributions.ExecuteInput) (*distributions.ExecuteResult, error)
}

func (s *testDistributionsService) Submit(ctx context.Context, input distributions.SubmitInput) (*models.EventDistribution, error) {
	return s.submitFn(ctx, input)
}

func (s *testDistributionsService) Execute(ctx context.Context, input distributions.ExecuteInput) (*distributions.ExecuteResult, error) {
	return s.executeFn(ctx, input)
}

func (s *testDistributionsService) Get(_ context.Context, eventID uuid.UUID) (*models.EventDistribution, error) {
	return &models.EventDistribution{ID: uuid.New(), EventID: eventID}, nil
}

func TestDistributionSubmitPassesFigures(t *testing.T) {
	organizer := actorOf(enums.ActorRoleOrganizer)
	eventID := uuid.New()
	svc := &testDistributionsService{
		submitFn: func(_ context.Context, input distributions.SubmitInput) (*models.EventDistribution, error) {
			assert.True(t, input.TotalRevenueSol.Equal(decimal.NewFromInt(1000)))
			assert.True(t, input.TotalCostsSol.Equal(decimal.NewFromInt(400)))
			assert.Nil(t, input.InvestorSharePercent)
			return &models.EventDistribution{ID: uuid.New(), EventID: input.EventID, NetProfitSol: decimal.NewFromInt(600)}, nil
		},
	}

	resp := httptest.NewRecorder()
	DistributionSubmit(svc, testLogger())(resp, newRequest(http.MethodPost, "/",
		`{"total_revenue_sol":"1000","total_costs_sol":"400"}`, &organizer, "", "eventId", eventID.String()))
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	assert.Contains(t, resp.Body.String(), `"net_profit_sol":"600"`)
}

func TestDistributionSubmitRejectsNegativeFigures(t *testing.T) {
	organizer := actorOf(enums.ActorRoleOrganizer)
	resp := httptest.NewRecorder()
	DistributionSubmit(&testDistributionsService{}, testLogger())(resp, newRequest(http.MethodPost, "/",
		`{"total_revenue_sol":"-5","total_costs_sol":"1"}`, &organizer, "", "eventId", uuid.NewString()))
	require.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, decodeError(t, resp).Error.Details, "total_revenue_sol")
}

func TestDistributionExecutePartialFailureKeepsProgress(t *testing.T) {
	admin := actorOf(enums.ActorRoleAdmin)
	failedID := uuid.New()
	svc := &testDistributionsService{
		executeFn: func(context.Context, distributions.ExecuteInput) (*distributions.ExecuteResult, error) {
			result := &distributions.ExecuteResult{Transferred: 1, Failed: 1, EventStatus: enums.EventStatusROIDistribution}
			return result, pkgerrors.Wrap(pkgerrors.CodeDependency, errors.New("rpc timeout"), "one or more payouts failed").
				WithDetails(map[string]any{"failed_payouts": []uuid.UUID{failedID}})
		},
	}

	resp := httptest.NewRecorder()
	DistributionExecute(svc, testLogger())(resp, newRequest(http.MethodPost, "/", "", &admin, "", "eventId", uuid.NewString()))

	require.Equal(t, http.StatusServiceUnavailable, resp.Code)
	body := decodeError(t, resp)
	assert.Equal(t, string(pkgerrors.CodeDependency), body.Error.Code)
	assert.EqualValues(t, 1, body.Error.Details["transferred"])
	assert.EqualValues(t, 1, body.Error.Details["failed"])
	assert.Contains(t, body.Error.Details, "failed_payouts")
}

func TestDistributionExecuteSuccess(t *testing.T) {
	admin := actorOf(enums.ActorRoleAdmin)
	svc := &testDistributionsService{
		executeFn: func(context.Context, distributions.ExecuteInput) (*distributions.ExecuteResult, error) {
			return &distributions.ExecuteResult{Transferred: 2, EventStatus: enums.EventStatusCompleted}, nil
		},
	}
	resp := httptest.NewRecorder()
	DistributionExecute(svc, testLogger())(resp, newRequest(http.MethodPost, "/", "", &admin, "", "eventId", uuid.NewString()))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"event_status":"completed"`)
}
