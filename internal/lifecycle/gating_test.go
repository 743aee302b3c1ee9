package lifecycle

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mythra-labs/mythra-backend/pkg/db/models"
	"github.com/mythra-labs/mythra-backend/pkg/enums"
)

func reasonOf(t *testing.T, err error) enums.GuardReason {
	t.Helper()
	require.Error(t, err)
	reason, ok := ReasonOf(err)
	require.True(t, ok, "expected guard reason on %v", err)
	return reason
}

func TestCanInvest(t *testing.T) {
	event := newEvent(enums.EventStatusInvestmentWindow)
	event.VaultCapSol = decimal.NewFromInt(100)
	existingInvestor := uuid.New()
	existing := []models.Investment{
		{ID: uuid.New(), EventID: event.ID, InvestorID: existingInvestor, AmountSol: decimal.NewFromInt(60)},
		{ID: uuid.New(), EventID: uuid.New(), InvestorID: uuid.New(), AmountSol: decimal.NewFromInt(500)},
	}

	assert.NoError(t, CanInvest(event, uuid.New(), decimal.NewFromInt(40), existing))
	assert.Equal(t, enums.GuardVaultCapExceeded, reasonOf(t, CanInvest(event, uuid.New(), decimal.RequireFromString("40.000000001"), existing)))
	assert.Equal(t, enums.GuardAlreadyInvested, reasonOf(t, CanInvest(event, existingInvestor, decimal.NewFromInt(1), existing)))
	assert.Equal(t, enums.GuardInvalidAmount, reasonOf(t, CanInvest(event, uuid.New(), decimal.Zero, existing)))

	event.VaultCapSol = decimal.Zero
	assert.NoError(t, CanInvest(event, uuid.New(), decimal.NewFromInt(10_000), existing), "zero cap is uncapped")

	closed := newEvent(enums.EventStatusDAOProcess)
	assert.Equal(t, enums.GuardWindowClosed, reasonOf(t, CanInvest(closed, uuid.New(), decimal.NewFromInt(1), nil)))
}

func TestCanAuthorQuestions(t *testing.T) {
	event := newEvent(enums.EventStatusInvestmentWindow)

	assert.NoError(t, CanAuthorQuestions(event, organizer(), 0))
	assert.NoError(t, CanAuthorQuestions(event, admin(), 0))
	assert.True(t, errors.Is(CanAuthorQuestions(event, investor(), 0), ErrUnauthorized))
	assert.Equal(t, enums.GuardQuestionLocked, reasonOf(t, CanAuthorQuestions(event, organizer(), 1)))

	voting := newEvent(enums.EventStatusDAOProcess)
	assert.Equal(t, enums.GuardWindowClosed, reasonOf(t, CanAuthorQuestions(voting, organizer(), 0)))
}

func TestCanVote(t *testing.T) {
	event := newEvent(enums.EventStatusDAOProcess)
	option := models.DAOOption{ID: uuid.New()}
	question := models.DAOQuestion{ID: uuid.New(), EventID: event.ID, Options: []models.DAOOption{option, {ID: uuid.New()}}}
	investorID := uuid.New()
	investors := []uuid.UUID{investorID}

	assert.NoError(t, CanVote(event, investorID, question, option.ID, investors, nil))
	assert.Equal(t, enums.GuardInvalidOption, reasonOf(t, CanVote(event, investorID, question, uuid.New(), investors, nil)))
	assert.Equal(t, enums.GuardNotAnInvestor, reasonOf(t, CanVote(event, uuid.New(), question, option.ID, investors, nil)))

	prior := []models.DAOVote{{ID: uuid.New(), InvestorID: investorID, QuestionID: question.ID, OptionID: option.ID}}
	assert.Equal(t, enums.GuardAlreadyVoted, reasonOf(t, CanVote(event, investorID, question, option.ID, investors, prior)))

	event.Status = enums.EventStatusSellingTickets
	assert.Equal(t, enums.GuardWindowClosed, reasonOf(t, CanVote(event, investorID, question, option.ID, investors, nil)))
}

func TestCanPurchaseTickets(t *testing.T) {
	event := newEvent(enums.EventStatusSellingTickets)
	event.TicketsSold = 98

	assert.NoError(t, CanPurchaseTickets(event, 2))
	assert.Equal(t, enums.GuardCapacityExceeded, reasonOf(t, CanPurchaseTickets(event, 3)))
	assert.Equal(t, enums.GuardInvalidAmount, reasonOf(t, CanPurchaseTickets(event, 0)))

	event.Status = enums.EventStatusWaitingForEvent
	assert.Equal(t, enums.GuardSalesClosed, reasonOf(t, CanPurchaseTickets(event, 1)))
}

func TestCanCheckIn(t *testing.T) {
	event := newEvent(enums.EventStatusWaitingForEvent)
	staff := Actor{ID: uuid.New(), Role: enums.ActorRoleStaff}
	ticket := models.Ticket{ID: uuid.New(), EventID: event.ID, Status: enums.TicketStatusValid}

	assert.NoError(t, CanCheckIn(event, staff, ticket))
	assert.NoError(t, CanCheckIn(event, admin(), ticket))
	assert.True(t, errors.Is(CanCheckIn(event, organizer(), ticket), ErrUnauthorized))

	ticket.Status = enums.TicketStatusCheckedIn
	assert.Equal(t, enums.GuardAlreadyCheckedIn, reasonOf(t, CanCheckIn(event, staff, ticket)))

	event.Status = enums.EventStatusSellingTickets
	ticket.Status = enums.TicketStatusValid
	assert.Equal(t, enums.GuardWindowClosed, reasonOf(t, CanCheckIn(event, staff, ticket)))
}
