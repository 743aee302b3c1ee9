// Package platformtest wires the domain services against an in-memory
// database for cross-package service tests.
package platformtest

import (
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mythra-labs/mythra-backend/internal/events"
	"github.com/mythra-labs/mythra-backend/internal/ledger"
	"github.com/mythra-labs/mythra-backend/pkg/chain"
	"github.com/mythra-labs/mythra-backend/pkg/chain/chaintest"
	"github.com/mythra-labs/mythra-backend/pkg/db/dbtest"
	"github.com/mythra-labs/mythra-backend/pkg/db/models"
	"github.com/mythra-labs/mythra-backend/pkg/enums"
	"github.com/mythra-labs/mythra-backend/pkg/logger"
	"github.com/mythra-labs/mythra-backend/pkg/outbox"
)

// BaseTime is the fixed clock every Env starts at.
var BaseTime = time.Date(2026, 6, 1, 18, 0, 0, 0, time.UTC)

// Env holds a database and the shared collaborators built on it.
type Env struct {
	DB        *gorm.DB
	Tx        dbtest.TxRunner
	Logger    *logger.Logger
	Outbox    *outbox.Service
	Chain     *chain.Simulated
	Ledger    ledger.Service
	EventRepo events.Repository
	Events    events.Service
	Now       time.Time
}

// NewEnv opens a fresh database and wires the events service on a settable clock.
func NewEnv(t testing.TB, opts events.Options) *Env {
	t.Helper()
	conn := dbtest.Open(t)
	logg := logger.New(logger.Options{ServiceName: "platform-test", Output: io.Discard})

	env := &Env{
		DB:        conn,
		Tx:        dbtest.TxRunner{DB: conn},
		Logger:    logg,
		Outbox:    outbox.NewService(outbox.NewRepository(conn), logg),
		Chain:     chain.NewSimulated("test"),
		EventRepo: events.NewRepository(conn),
		Now:       BaseTime,
	}

	ledgerSvc, err := ledger.NewService(ledger.NewRepository(conn))
	require.NoError(t, err)
	env.Ledger = ledgerSvc

	if opts.Now == nil {
		opts.Now = env.Clock
	}
	eventsSvc, err := events.NewService(events.ServiceParams{
		Repo:    env.EventRepo,
		Tx:      env.Tx,
		Outbox:  env.Outbox,
		Ledger:  env.Chain,
		Logger:  logg,
		Options: opts,
	})
	require.NoError(t, err)
	env.Events = eventsSvc
	return env
}

// Clock returns the Env's current time.
func (e *Env) Clock() time.Time {
	return e.Now
}

// SeedEvent inserts an event directly at status, bypassing the lifecycle.
func (e *Env) SeedEvent(t testing.TB, status enums.EventStatus, mutate func(*models.Event)) models.Event {
	t.Helper()
	starts := BaseTime.Add(24 * time.Hour)
	event := models.Event{
		OrganizerID:          uuid.New(),
		CreatorWallet:        chaintest.NewWallet(1).Address,
		Name:                 "Launch Night",
		Venue:                "Warehouse 9",
		StartsAt:             &starts,
		TicketPriceSol:       decimal.RequireFromString("0.5"),
		MaxTickets:           100,
		InvestorSharePercent: decimal.NewFromInt(20),
		Status:               status,
		UpdatedAt:            BaseTime.Add(-time.Hour),
	}
	if mutate != nil {
		mutate(&event)
	}
	require.NoError(t, e.DB.Create(&event).Error)
	return event
}

// Reload reads the event back from the database.
func (e *Env) Reload(t testing.TB, id uuid.UUID) models.Event {
	t.Helper()
	var event models.Event
	require.NoError(t, e.DB.First(&event, "id = ?", id).Error)
	return event
}

// CountOutbox counts queued outbox rows of eventType.
func (e *Env) CountOutbox(t testing.TB, eventType enums.OutboxEventType) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.DB.Model(&models.OutboxEvent{}).Where("event_type = ?", eventType).Count(&n).Error)
	return n
}
