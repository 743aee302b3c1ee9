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

	"github.com/mythra-labs/mythra-backend/internal/lifecycle"
	"github.com/mythra-labs/mythra-backend/internal/tickets"
	"github.com/mythra-labs/mythra-backend/pkg/db/models"
	"github.com/mythra-labs/mythra-backend/pkg/enums"
)

type testTicketsService struct {
	purchaseFn func(ctx context.Context, input tickets.PurchaseInput) (*tickets.PurchaseResult, error)
	checkInFn  func(ctx context.Context, input tickets.CheckInInput) (*models.Ticket, error)
}

func (s *testTicketsService) Purchase(ctx context.Context, input tickets.PurchaseInput) (*tickets.PurchaseResult, error) {
	return s.purchaseFn(ctx, input)
}

func (s *testTicketsService) CheckIn(ctx context.Context, input tickets.CheckInInput) (*models.Ticket, error) {
	return s.checkInFn(ctx, input)
}

func (s *testTicketsService) ListMine(_ context.Context, eventID uuid.UUID, buyer lifecycle.Actor) ([]models.Ticket, error) {
	return []models.Ticket{{ID: uuid.New(), EventID: eventID, BuyerID: buyer.ID, Code: "MYT-abc", Status: enums.TicketStatusValid}}, nil
}

func TestTicketPurchase(t *testing.T) {
	attendee := actorOf(enums.ActorRoleAttendee)
	eventID := uuid.New()
	svc := &testTicketsService{
		purchaseFn: func(_ context.Context, input tickets.PurchaseInput) (*tickets.PurchaseResult, error) {
			assert.Equal(t, 3, input.Quantity)
			assert.Equal(t, attendee, input.Buyer)
			return &tickets.PurchaseResult{GrossSol: decimal.RequireFromString("1.5"), TicketsRemaining: 7, EventStatus: enums.EventStatusSellingTickets}, nil
		},
	}

	resp := httptest.NewRecorder()
	TicketPurchase(svc, testLogger())(resp, newRequest(http.MethodPost, "/", `{"quantity":3}`, &attendee, "", "eventId", eventID.String()))
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	assert.Contains(t, resp.Body.String(), `"tickets_remaining":7`)
}

func TestTicketPurchaseRejectsZeroQuantity(t *testing.T) {
	attendee := actorOf(enums.ActorRoleAttendee)
	resp := httptest.NewRecorder()
	TicketPurchase(&testTicketsService{}, testLogger())(resp, newRequest(http.MethodPost, "/", `{"quantity":0}`, &attendee, "", "eventId", uuid.NewString()))
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestTicketCheckIn(t *testing.T) {
	staff := actorOf(enums.ActorRoleStaff)
	ticketID := uuid.New()
	svc := &testTicketsService{
		checkInFn: func(_ context.Context, input tickets.CheckInInput) (*models.Ticket, error) {
			assert.Equal(t, ticketID, input.TicketID)
			assert.Equal(t, staff, input.Staff)
			return &models.Ticket{ID: ticketID, Status: enums.TicketStatusCheckedIn}, nil
		},
	}
	resp := httptest.NewRecorder()
	TicketCheckIn(svc, testLogger())(resp, newRequest(http.MethodPost, "/", "", &staff, "", "ticketId", ticketID.String()))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Contains(t, resp.Body.String(), `"status":"checked_in"`)
}

func TestTicketListMine(t *testing.T) {
	attendee := actorOf(enums.ActorRoleAttendee)
	resp := httptest.NewRecorder()
	TicketListMine(&testTicketsService{}, testLogger())(resp, newRequest(http.MethodGet, "/", "", &attendee, "", "eventId", uuid.NewString()))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"code":"MYT-abc"`)
}
