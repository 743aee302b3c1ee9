package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mythra-labs/mythra-backend/internal/investments"
	"github.com/mythra-labs/mythra-backend/pkg/chain"
	"github.com/mythra-labs/mythra-backend/pkg/chain/chaintest"
	"github.com/mythra-labs/mythra-backend/pkg/db/models"
	"github.com/mythra-labs/mythra-backend/pkg/enums"
)

type testInvestmentsService struct {
	investFn func(ctx context.Context, input investments.InvestInput) (*models.Investment, error)
}

func (s *testInvestmentsService) Invest(ctx context.Context, input investments.InvestInput) (*models.Investment, error) {
	return s.investFn(ctx, input)
}

func (s *testInvestmentsService) ListByEvent(_ context.Context, eventID uuid.UUID) (*investments.EventInvestments, error) {
	return &investments.EventInvestments{EventID: eventID, Investments: []investments.InvestmentDTO{}}, nil
}

func TestInvestmentCreateDefaultsToTokenWallet(t *testing.T) {
	investor := actorOf(enums.ActorRoleInvestor)
	wallet := chaintest.NewWallet(11)
	eventID := uuid.New()
	amount := decimal.RequireFromString("2.5")
	signature := wallet.Sign(chain.InvestmentMessage(eventID, amount))

	svc := &testInvestmentsService{
		investFn: func(_ context.Context, input investments.InvestInput) (*models.Investment, error) {
			assert.Equal(t, wallet.Address, input.Wallet)
			assert.Equal(t, signature, input.Signature)
			assert.True(t, input.AmountSol.Equal(amount))
			return &models.Investment{ID: uuid.New(), EventID: eventID, InvestorID: input.Actor.ID, InvestorWallet: input.Wallet, AmountSol: input.AmountSol}, nil
		},
	}

	body := `{"amount_sol":"2.5","signature":"` + signature + `"}`
	resp := httptest.NewRecorder()
	InvestmentCreate(svc, testLogger())(resp, newRequest(http.MethodPost, "/", body, &investor, wallet.Address, "eventId", eventID.String()))
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	assert.Contains(t, resp.Body.String(), `"amount_sol":"2.5"`)
}

func TestInvestmentCreateRejectsForeignWallet(t *testing.T) {
	investor := actorOf(enums.ActorRoleInvestor)
	body := `{"wallet":"` + chaintest.NewWallet(12).Address + `","amount_sol":"1","signature":"sig"}`
	resp := httptest.NewRecorder()
	InvestmentCreate(&testInvestmentsService{}, testLogger())(resp, newRequest(http.MethodPost, "/", body, &investor, chaintest.NewWallet(11).Address, "eventId", uuid.NewString()))
	assert.Equal(t, http.StatusForbidden, resp.Code)
}

func TestInvestmentCreateValidatesWalletFormat(t *testing.T) {
	investor := actorOf(enums.ActorRoleInvestor)
	resp := httptest.NewRecorder()
	InvestmentCreate(&testInvestmentsService{}, testLogger())(resp, newRequest(http.MethodPost, "/",
		`{"wallet":"not-a-wallet","amount_sol":"1","signature":"sig"}`, &investor, "", "eventId", uuid.NewString()))
	require.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, decodeError(t, resp).Error.Details, "wallet")
}
