package events

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mythra-labs/mythra-backend/internal/lifecycle"
	"github.com/mythra-labs/mythra-backend/pkg/chain"
	"github.com/mythra-labs/mythra-backend/pkg/chain/chaintest"
	"github.com/mythra-labs/mythra-backend/pkg/db/dbtest"
	"github.com/mythra-labs/mythra-backend/pkg/db/models"
	"github.com/mythra-labs/mythra-backend/pkg/enums"
	pkgerrors "github.com/mythra-labs/mythra-backend/pkg/errors"
	"github.com/mythra-labs/mythra-backend/pkg/logger"
	"github.com/mythra-labs/mythra-backend/pkg/outbox"
	"github.com/mythra-labs/mythra-backend/pkg/pagination"
)

var baseTime = time.Date(2026, 6, 1, 18, 0, 0, 0, time.UTC)

type fixture struct {
	db     *gorm.DB
	svc    Service
	ledger *chain.Simulated
	now    time.Time
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	conn := dbtest.Open(t)
	logg := logger.New(logger.Options{ServiceName: "events-test", Output: io.Discard})
	f := &fixture{db: conn, ledger: chain.NewSimulated("test"), now: baseTime}
	if opts.Now == nil {
		opts.Now = func() time.Time { return f.now }
	}
	svc, err := NewService(ServiceParams{
		Repo:    NewRepository(conn),
		Tx:      dbtest.TxRunner{DB: conn},
		Outbox:  outbox.NewService(outbox.NewRepository(conn), logg),
		Ledger:  f.ledger,
		Logger:  logg,
		Options: opts,
	})
	require.NoError(t, err)
	f.svc = svc
	return f
}

func (f *fixture) seed(t *testing.T, status enums.EventStatus, mutate func(*models.Event)) models.Event {
	t.Helper()
	starts := baseTime.Add(24 * time.Hour)
	event := models.Event{
		OrganizerID:    uuid.New(),
		CreatorWallet:  chaintest.NewWallet(1).Address,
		Name:           "Launch Night",
		Venue:          "Warehouse 9",
		StartsAt:       &starts,
		TicketPriceSol: decimal.RequireFromString("0.5"),
		MaxTickets:     100,
		Status:         status,
		UpdatedAt:      baseTime.Add(-time.Hour),
	}
	if mutate != nil {
		mutate(&event)
	}
	require.NoError(t, f.db.Create(&event).Error)
	return event
}

func organizer(e models.Event) lifecycle.Actor {
	return lifecycle.Actor{ID: e.OrganizerID, Role: enums.ActorRoleOrganizer}
}

func admin() lifecycle.Actor {
	return lifecycle.Actor{ID: uuid.New(), Role: enums.ActorRoleAdmin}
}

func TestNewServiceRequiresCollaborators(t *testing.T) {
	_, err := NewService(ServiceParams{})
	require.Error(t, err)
}

func TestCreateDraft(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	organizerID := uuid.New()

	event, err := f.svc.Create(ctx, CreateEventInput{
		Actor:          lifecycle.Actor{ID: organizerID, Role: enums.ActorRoleOrganizer},
		CreatorWallet:  chaintest.NewWallet(2).Address,
		Name:           "  Rooftop Sessions ",
		TicketPriceSol: decimal.RequireFromString("1.25"),
		MaxTickets:     50,
	})
	require.NoError(t, err)
	assert.Equal(t, enums.EventStatusDraft, event.Status)
	assert.Equal(t, "Rooftop Sessions", event.Name)
	assert.Equal(t, organizerID, event.OrganizerID)
	assert.Equal(t, 1, event.Version)

	_, err = f.svc.Create(ctx, CreateEventInput{
		Actor:         lifecycle.Actor{ID: uuid.New(), Role: enums.ActorRoleInvestor},
		CreatorWallet: chaintest.NewWallet(2).Address,
		Name:          "nope",
	})
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.CodeOf(err))

	_, err = f.svc.Create(ctx, CreateEventInput{
		Actor:         lifecycle.Actor{ID: organizerID, Role: enums.ActorRoleOrganizer},
		CreatorWallet: "not-a-wallet",
		Name:          "bad wallet",
	})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}

func TestApprovalFlowOpensVaultAndEmits(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	event := f.seed(t, enums.EventStatusDraft, nil)

	submitted, err := f.svc.Transition(ctx, TransitionInput{
		EventID: event.ID,
		Target:  enums.EventStatusPendingApproval,
		Actor:   organizer(event),
	})
	require.NoError(t, err)
	assert.Equal(t, enums.EventStatusPendingApproval, submitted.Status)
	assert.Equal(t, 2, submitted.Version)

	approved, err := f.svc.Transition(ctx, TransitionInput{
		EventID: event.ID,
		Target:  enums.EventStatusInvestmentWindow,
		Actor:   admin(),
	})
	require.NoError(t, err)
	assert.Equal(t, enums.EventStatusInvestmentWindow, approved.Status)
	require.NotNil(t, approved.VaultAddress)

	stored, err := f.svc.Get(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.EventStatusInvestmentWindow, stored.Status)
	assert.Equal(t, 3, stored.Version)
	require.NotNil(t, stored.VaultAddress)
	assert.Equal(t, *approved.VaultAddress, *stored.VaultAddress)
	assert.False(t, stored.UpdatedAt.Before(event.UpdatedAt))

	var emitted int64
	require.NoError(t, f.db.Model(&models.OutboxEvent{}).
		Where("aggregate_id = ? AND event_type = ?", event.ID, enums.EventStatusChanged).
		Count(&emitted).Error)
	assert.Equal(t, int64(2), emitted)
}

func TestTransitionRejectsUnauthorizedActor(t *testing.T) {
	f := newFixture(t, Options{})
	event := f.seed(t, enums.EventStatusPendingApproval, nil)

	_, err := f.svc.Transition(context.Background(), TransitionInput{
		EventID: event.ID,
		Target:  enums.EventStatusInvestmentWindow,
		Actor:   lifecycle.Actor{ID: uuid.New(), Role: enums.ActorRoleInvestor},
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.CodeOf(err))
	assert.ErrorIs(t, err, lifecycle.ErrUnauthorized)

	stored, err := f.svc.Get(context.Background(), event.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.EventStatusPendingApproval, stored.Status)
}

func TestTransitionRejectsUnreachableTarget(t *testing.T) {
	f := newFixture(t, Options{})
	event := f.seed(t, enums.EventStatusDraft, nil)

	_, err := f.svc.Transition(context.Background(), TransitionInput{
		EventID: event.ID,
		Target:  enums.EventStatusCompleted,
		Actor:   admin(),
	})
	assert.ErrorIs(t, err, lifecycle.ErrInvalidTransition)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.CodeOf(err))
}

func TestTransitionRequiresCompleteVoting(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	event := f.seed(t, enums.EventStatusDAOProcess, nil)

	question := models.DAOQuestion{
		EventID:      event.ID,
		QuestionText: "Headliner?",
		Options:      []models.DAOOption{{OptionText: "A"}, {OptionText: "B", Position: 1}},
	}
	require.NoError(t, f.db.Create(&question).Error)

	investors := []uuid.UUID{uuid.New(), uuid.New()}
	for i, id := range investors {
		require.NoError(t, f.db.Create(&models.Investment{
			EventID:        event.ID,
			InvestorID:     id,
			InvestorWallet: chaintest.NewWallet(byte(10 + i)).Address,
			AmountSol:      decimal.NewFromInt(5),
		}).Error)
	}
	require.NoError(t, f.db.Create(&models.DAOVote{
		EventID: event.ID, QuestionID: question.ID, OptionID: question.Options[0].ID, InvestorID: investors[0],
	}).Error)

	_, err := f.svc.Transition(ctx, TransitionInput{
		EventID: event.ID,
		Target:  enums.EventStatusSellingTickets,
		Actor:   organizer(event),
	})
	require.Error(t, err)
	reason, ok := lifecycle.ReasonOf(err)
	require.True(t, ok)
	assert.Equal(t, enums.GuardVotingIncomplete, reason)

	require.NoError(t, f.db.Create(&models.DAOVote{
		EventID: event.ID, QuestionID: question.ID, OptionID: question.Options[1].ID, InvestorID: investors[1],
	}).Error)

	next, err := f.svc.Transition(ctx, TransitionInput{
		EventID: event.ID,
		Target:  enums.EventStatusSellingTickets,
		Actor:   lifecycle.SystemActor(),
	})
	require.NoError(t, err)
	assert.Equal(t, enums.EventStatusSellingTickets, next.Status)
}

func TestTransitionNoInvestorsHonoursPolicy(t *testing.T) {
	strict := newFixture(t, Options{})
	event := strict.seed(t, enums.EventStatusDAOProcess, nil)
	require.NoError(t, strict.db.Create(&models.DAOQuestion{
		EventID: event.ID, QuestionText: "Venue?", Options: []models.DAOOption{{OptionText: "x"}, {OptionText: "y"}},
	}).Error)

	_, err := strict.svc.Transition(context.Background(), TransitionInput{
		EventID: event.ID, Target: enums.EventStatusSellingTickets, Actor: organizer(event),
	})
	reason, _ := lifecycle.ReasonOf(err)
	assert.Equal(t, enums.GuardNoInvestors, reason)

	lenient := newFixture(t, Options{AllowEmptyDAO: true})
	event = lenient.seed(t, enums.EventStatusDAOProcess, nil)
	_, err = lenient.svc.Transition(context.Background(), TransitionInput{
		EventID: event.ID, Target: enums.EventStatusSellingTickets, Actor: organizer(event),
	})
	require.NoError(t, err)
}

func TestTransitionExpectedVersionMismatch(t *testing.T) {
	f := newFixture(t, Options{})
	event := f.seed(t, enums.EventStatusDraft, nil)
	stale := event.Version + 1

	_, err := f.svc.Transition(context.Background(), TransitionInput{
		EventID:         event.ID,
		Target:          enums.EventStatusPendingApproval,
		Actor:           organizer(event),
		ExpectedVersion: &stale,
	})
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.CodeOf(err))
}

func TestTransitionUnknownEvent(t *testing.T) {
	f := newFixture(t, Options{})
	_, err := f.svc.Transition(context.Background(), TransitionInput{
		EventID: uuid.New(),
		Target:  enums.EventStatusCancelled,
		Actor:   admin(),
	})
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
}

func TestUpdateDraft(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	event := f.seed(t, enums.EventStatusDraft, nil)

	name := "Launch Night II"
	maxTickets := 250
	updated, err := f.svc.UpdateDraft(ctx, UpdateDraftInput{
		EventID:    event.ID,
		Actor:      organizer(event),
		Name:       &name,
		MaxTickets: &maxTickets,
	})
	require.NoError(t, err)
	assert.Equal(t, name, updated.Name)
	assert.Equal(t, 250, updated.MaxTickets)
	assert.Equal(t, 2, updated.Version)

	badShare := decimal.NewFromInt(101)
	_, err = f.svc.UpdateDraft(ctx, UpdateDraftInput{EventID: event.ID, Actor: organizer(event), InvestorSharePercent: &badShare})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	fineShare := decimal.RequireFromString("12.345")
	_, err = f.svc.UpdateDraft(ctx, UpdateDraftInput{EventID: event.ID, Actor: organizer(event), InvestorSharePercent: &fineShare})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	_, err = f.svc.UpdateDraft(ctx, UpdateDraftInput{
		EventID: event.ID,
		Actor:   lifecycle.Actor{ID: uuid.New(), Role: enums.ActorRoleOrganizer},
		Name:    &name,
	})
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.CodeOf(err))

	pending := f.seed(t, enums.EventStatusPendingApproval, nil)
	_, err = f.svc.UpdateDraft(ctx, UpdateDraftInput{EventID: pending.ID, Actor: organizer(pending), Name: &name})
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.CodeOf(err))
}

func TestListPaginatesAndFilters(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		f.seed(t, enums.EventStatusDraft, func(e *models.Event) {
			e.CreatedAt = baseTime.Add(time.Duration(i) * time.Minute)
		})
	}
	f.seed(t, enums.EventStatusSellingTickets, nil)

	status := enums.EventStatusDraft
	reviewer := admin()
	page, err := f.svc.List(ctx, pagination.Params{Limit: 2}, ListFilters{Status: &status, Viewer: &reviewer})
	require.NoError(t, err)
	require.Len(t, page.Events, 2)
	require.NotEmpty(t, page.NextCursor)
	assert.Contains(t, page.Events[0].NextStatuses, enums.EventStatusPendingApproval)

	rest, err := f.svc.List(ctx, pagination.Params{Limit: 2, Cursor: page.NextCursor}, ListFilters{Status: &status, Viewer: &reviewer})
	require.NoError(t, err)
	require.Len(t, rest.Events, 1)
	assert.Empty(t, rest.NextCursor)

	bad := enums.EventStatus("approved")
	_, err = f.svc.List(ctx, pagination.Params{}, ListFilters{Status: &bad})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}

func TestListHidesUnpublishedEvents(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	draft := f.seed(t, enums.EventStatusDraft, nil)
	pending := f.seed(t, enums.EventStatusPendingApproval, nil)
	f.seed(t, enums.EventStatusRejected, nil)
	live := f.seed(t, enums.EventStatusSellingTickets, nil)

	ids := func(viewer *lifecycle.Actor) []uuid.UUID {
		t.Helper()
		page, err := f.svc.List(ctx, pagination.Params{}, ListFilters{Viewer: viewer})
		require.NoError(t, err)
		out := []uuid.UUID{}
		for _, e := range page.Events {
			out = append(out, e.ID)
		}
		return out
	}

	assert.ElementsMatch(t, []uuid.UUID{live.ID}, ids(nil))

	investor := lifecycle.Actor{ID: uuid.New(), Role: enums.ActorRoleInvestor}
	assert.ElementsMatch(t, []uuid.UUID{live.ID}, ids(&investor))

	owner := organizer(draft)
	assert.ElementsMatch(t, []uuid.UUID{draft.ID, live.ID}, ids(&owner))

	reviewer := admin()
	assert.Len(t, ids(&reviewer), 4)

	status := enums.EventStatusPendingApproval
	page, err := f.svc.List(ctx, pagination.Params{}, ListFilters{Status: &status})
	require.NoError(t, err)
	assert.Empty(t, page.Events)

	assert.False(t, Visible(pending, nil))
	assert.False(t, Visible(pending, &investor))
	assert.True(t, Visible(pending, &reviewer))
	assert.True(t, Visible(draft, &owner))
	assert.True(t, Visible(live, nil))
}

func TestListDueForClock(t *testing.T) {
	f := newFixture(t, Options{})
	started := baseTime.Add(-time.Minute)
	ended := baseTime.Add(-time.Second)
	future := baseTime.Add(time.Hour)

	due1 := f.seed(t, enums.EventStatusWaitingForEvent, func(e *models.Event) { e.StartsAt = &started })
	f.seed(t, enums.EventStatusWaitingForEvent, func(e *models.Event) { e.StartsAt = &future })
	due2 := f.seed(t, enums.EventStatusEventRunning, func(e *models.Event) { e.StartsAt = &started; e.EndsAt = &ended })
	f.seed(t, enums.EventStatusEventRunning, func(e *models.Event) { e.StartsAt = &started; e.EndsAt = nil })
	due3 := f.seed(t, enums.EventStatusSellingTickets, func(e *models.Event) { e.TicketsSold = e.MaxTickets })
	f.seed(t, enums.EventStatusSellingTickets, func(e *models.Event) { e.TicketsSold = 1 })

	due, err := f.svc.ListDueForClock(context.Background(), 10)
	require.NoError(t, err)
	ids := map[uuid.UUID]bool{}
	for _, e := range due {
		ids[e.ID] = true
	}
	assert.Len(t, due, 3)
	assert.True(t, ids[due1.ID] && ids[due2.ID] && ids[due3.ID])
}
