package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mythra-labs/mythra-backend/internal/lifecycle"
	"github.com/mythra-labs/mythra-backend/internal/repo"
	"github.com/mythra-labs/mythra-backend/pkg/db/models"
	"github.com/mythra-labs/mythra-backend/pkg/enums"
	"github.com/mythra-labs/mythra-backend/pkg/pagination"
)

// Repository persists events and loads the snapshot the lifecycle needs.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, event *models.Event) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Event, error)
	List(ctx context.Context, filters ListFilters, cursor *pagination.Cursor, limit int) ([]models.Event, error)
	UpdateVersioned(ctx context.Context, id uuid.UUID, version int, updates map[string]any) error
	LoadSnapshot(ctx context.Context, eventID uuid.UUID) (*Snapshot, error)
	ListDueForClock(ctx context.Context, now time.Time, limit int) ([]models.Event, error)
}

// Snapshot is the related state read alongside an event in one transaction.
type Snapshot struct {
	Questions    []models.DAOQuestion
	Investors    []uuid.UUID
	Votes        []models.DAOVote
	Distribution *lifecycle.DistributionSummary
}

type repository struct {
	repo.Base
}

// NewRepository returns an events repository bound to db.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{Base: r.Base.WithTx(tx)}
}

func (r *repository) Create(ctx context.Context, event *models.Event) error {
	return r.DB(ctx).Create(event).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	var event models.Event
	if err := r.DB(ctx).Where("id = ?", id).First(&event).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *repository) List(ctx context.Context, filters ListFilters, cursor *pagination.Cursor, limit int) ([]models.Event, error) {
	query := r.DB(ctx).Model(&models.Event{})
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.OrganizerID != nil {
		query = query.Where("organizer_id = ?", *filters.OrganizerID)
	}
	switch {
	case filters.Viewer != nil && filters.Viewer.Role == enums.ActorRoleAdmin:
	case filters.Viewer != nil && filters.Viewer.Role == enums.ActorRoleOrganizer && filters.Viewer.ID != uuid.Nil:
		query = query.Where("(status NOT IN ? OR organizer_id = ?)", enums.UnpublishedEventStatuses(), filters.Viewer.ID)
	default:
		query = query.Where("status NOT IN ?", enums.UnpublishedEventStatuses())
	}
	if cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Event
	if err := query.Order("created_at DESC").Order("id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) UpdateVersioned(ctx context.Context, id uuid.UUID, version int, updates map[string]any) error {
	return r.Base.UpdateVersioned(ctx, &models.Event{}, id, version, updates)
}

func (r *repository) LoadSnapshot(ctx context.Context, eventID uuid.UUID) (*Snapshot, error) {
	snap := &Snapshot{}

	if err := r.DB(ctx).
		Preload("Options", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("event_id = ?", eventID).
		Order("position ASC").
		Find(&snap.Questions).Error; err != nil {
		return nil, err
	}

	if err := r.DB(ctx).
		Model(&models.Investment{}).
		Where("event_id = ?", eventID).
		Order("created_at ASC").
		Pluck("investor_id", &snap.Investors).Error; err != nil {
		return nil, err
	}

	if err := r.DB(ctx).Where("event_id = ?", eventID).Find(&snap.Votes).Error; err != nil {
		return nil, err
	}

	var dist models.EventDistribution
	err := r.DB(ctx).Preload("Payouts").Where("event_id = ?", eventID).First(&dist).Error
	switch {
	case err == nil:
		snap.Distribution = &lifecycle.DistributionSummary{
			InvestorPool: dist.InvestorPoolSol,
			Allocated:    dist.AllocatedSol(),
			Executed:     dist.ExecutedAt != nil,
		}
	case !repo.IsNotFound(err):
		return nil, err
	}

	return snap, nil
}

// ListDueForClock returns events the clock job may advance: started events
// still waiting, running events past their end, and sold-out sales.
func (r *repository) ListDueForClock(ctx context.Context, now time.Time, limit int) ([]models.Event, error) {
	var rows []models.Event
	err := r.DB(ctx).
		Where("(status = ? AND starts_at IS NOT NULL AND starts_at <= ?)", enums.EventStatusWaitingForEvent, now).
		Or("(status = ? AND ends_at IS NOT NULL AND ends_at <= ?)", enums.EventStatusEventRunning, now).
		Or("(status = ? AND max_tickets > 0 AND tickets_sold >= max_tickets)", enums.EventStatusSellingTickets).
		Order("updated_at ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
