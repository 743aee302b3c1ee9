package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mythra-labs/mythra-backend/pkg/db/dbtest"
	"github.com/mythra-labs/mythra-backend/pkg/db/models"
	"github.com/mythra-labs/mythra-backend/pkg/enums"
	"github.com/mythra-labs/mythra-backend/pkg/logger"
)

type statusPayload struct {
	To string `json:"to"`
}

func newTestService(t *testing.T) (*Service, *Repository, *gorm.DB) {
	t.Helper()
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	logg := logger.New(logger.Options{ServiceName: "outbox-test", Output: io.Discard})
	return NewService(repo, logg), repo, conn
}

func TestEmitStoresEnvelopeInTransaction(t *testing.T) {
	svc, repo, conn := newTestService(t)
	ctx := context.Background()
	aggregateID := uuid.New()
	actorID := uuid.New()

	err := conn.Transaction(func(tx *gorm.DB) error {
		return svc.Emit(ctx, tx, DomainEvent{
			EventType:     enums.EventStatusChanged,
			AggregateType: enums.AggregateEvent,
			AggregateID:   aggregateID,
			Actor:         &ActorRef{UserID: actorID, Role: enums.ActorRoleOrganizer},
			Data:          statusPayload{To: "pending_approval"},
		})
	})
	require.NoError(t, err)

	rows, err := repo.ListByAggregate(ctx, enums.AggregateEvent, aggregateID)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	var envelope PayloadEnvelope
	require.NoError(t, json.Unmarshal(rows[0].Payload, &envelope))
	assert.Equal(t, 1, envelope.Version)
	assert.NotEmpty(t, envelope.EventID)
	require.NotNil(t, envelope.Actor)
	assert.Equal(t, actorID, envelope.Actor.UserID)
	assert.Equal(t, enums.ActorRoleOrganizer, envelope.Actor.Role)

	var data statusPayload
	require.NoError(t, json.Unmarshal(envelope.Data, &data))
	assert.Equal(t, "pending_approval", data.To)
}

func TestEmitRollsBackWithTransaction(t *testing.T) {
	svc, repo, conn := newTestService(t)
	ctx := context.Background()
	aggregateID := uuid.New()

	boom := errors.New("state change failed")
	err := conn.Transaction(func(tx *gorm.DB) error {
		if err := svc.Emit(ctx, tx, DomainEvent{
			EventType:     enums.EventVoteCast,
			AggregateType: enums.AggregateDAOVote,
			AggregateID:   aggregateID,
			Data:          map[string]string{"k": "v"},
		}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	rows, err := repo.ListByAggregate(ctx, enums.AggregateDAOVote, aggregateID)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestEmitRequiresTransactionAndKnownTypes(t *testing.T) {
	svc, _, conn := newTestService(t)

	err := svc.Emit(context.Background(), nil, DomainEvent{EventType: enums.EventVoteCast, AggregateType: enums.AggregateDAOVote})
	require.ErrorIs(t, err, ErrTransactionRequired)

	err = conn.Transaction(func(tx *gorm.DB) error {
		return svc.Emit(context.Background(), tx, DomainEvent{
			EventType:     enums.OutboxEventType("event_archived"),
			AggregateType: enums.AggregateEvent,
			AggregateID:   uuid.New(),
		})
	})
	require.Error(t, err)
}

func TestEmitIfNotExistsEmitsOnce(t *testing.T) {
	svc, repo, conn := newTestService(t)
	ctx := context.Background()
	aggregateID := uuid.New()
	event := DomainEvent{
		EventType:     enums.EventDistributionComputed,
		AggregateType: enums.AggregateDistribution,
		AggregateID:   aggregateID,
		Data:          map[string]string{"pool": "8.4"},
	}

	for i := 0; i < 2; i++ {
		require.NoError(t, conn.Transaction(func(tx *gorm.DB) error {
			return svc.EmitIfNotExists(ctx, tx, event)
		}))
	}

	rows, err := repo.ListByAggregate(ctx, enums.AggregateDistribution, aggregateID)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestRepositoryPublishLifecycle(t *testing.T) {
	_, repo, conn := newTestService(t)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	first := seedOutboxRow(t, conn, base)
	second := seedOutboxRow(t, conn, base.Add(time.Minute))
	exhausted := seedOutboxRow(t, conn, base.Add(2*time.Minute))
	require.NoError(t, conn.Model(&models.OutboxEvent{}).Where("id = ?", exhausted.ID).Update("attempt_count", 5).Error)

	var fetched []models.OutboxEvent
	require.NoError(t, conn.Transaction(func(tx *gorm.DB) error {
		var err error
		fetched, err = repo.FetchUnpublishedForPublish(tx, 10, 5)
		return err
	}))
	require.Len(t, fetched, 2)
	assert.Equal(t, first.ID, fetched[0].ID)
	assert.Equal(t, second.ID, fetched[1].ID)

	require.NoError(t, conn.Transaction(func(tx *gorm.DB) error {
		if err := repo.MarkPublishedTx(tx, first.ID); err != nil {
			return err
		}
		return repo.MarkFailedTx(tx, second.ID, errors.New("pubsub unavailable"))
	}))

	var failed models.OutboxEvent
	require.NoError(t, conn.First(&failed, "id = ?", second.ID).Error)
	assert.Equal(t, 1, failed.AttemptCount)
	require.NotNil(t, failed.LastError)
	assert.Equal(t, "pubsub unavailable", *failed.LastError)

	require.NoError(t, conn.Transaction(func(tx *gorm.DB) error {
		return repo.MarkTerminalTx(tx, second.ID, errors.New("gave up"), 5)
	}))
	require.NoError(t, conn.Transaction(func(tx *gorm.DB) error {
		var err error
		fetched, err = repo.FetchUnpublishedForPublish(tx, 10, 5)
		return err
	}))
	assert.Empty(t, fetched)

	deleted, err := repo.DeletePublishedBefore(ctx, nil, time.Now().UTC().Add(time.Minute), 5)
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)
}

func TestDLQRepositoryInsertTruncatesAndFilters(t *testing.T) {
	conn := dbtest.Open(t)
	dlq := NewDLQRepository(conn)
	ctx := context.Background()

	long := make([]byte, maxDLQErrorLen+50)
	for i := range long {
		long[i] = 'x'
	}
	msg := string(long)
	eventID := uuid.New()

	require.NoError(t, conn.Transaction(func(tx *gorm.DB) error {
		return dlq.InsertTx(tx, models.OutboxDLQ{
			EventID:       eventID,
			EventType:     enums.EventPayoutTransferred,
			AggregateType: enums.AggregateDistribution,
			AggregateID:   uuid.New(),
			Payload:       json.RawMessage(`{}`),
			ErrorReason:   enums.OutboxDLQReasonMaxAttempts,
			ErrorMessage:  &msg,
		})
	}))

	found, err := dlq.FindByEventID(ctx, eventID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Len(t, *found.ErrorMessage, maxDLQErrorLen)

	missing, err := dlq.FindByEventID(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func seedOutboxRow(t *testing.T, conn *gorm.DB, createdAt time.Time) models.OutboxEvent {
	t.Helper()
	row := models.OutboxEvent{
		EventType:     enums.EventStatusChanged,
		AggregateType: enums.AggregateEvent,
		AggregateID:   uuid.New(),
		Payload:       json.RawMessage(`{"version":1}`),
		CreatedAt:     createdAt,
	}
	require.NoError(t, conn.Create(&row).Error)
	return row
}
