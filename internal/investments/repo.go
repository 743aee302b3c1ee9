package investments

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mythra-labs/mythra-backend/internal/repo"
	"github.com/mythra-labs/mythra-backend/pkg/db/models"
)

// Repository persists investments.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, investment *models.Investment) error
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.Investment, error)
}

type repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{Base: r.Base.WithTx(tx)}
}

func (r *repository) Create(ctx context.Context, investment *models.Investment) error {
	return r.DB(ctx).Create(investment).Error
}

func (r *repository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.Investment, error) {
	var rows []models.Investment
	if err := r.DB(ctx).
		Where("event_id = ?", eventID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
