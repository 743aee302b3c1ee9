package ledger

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mythra-labs/mythra-backend/internal/repo"
	"github.com/mythra-labs/mythra-backend/pkg/db/models"
	"github.com/mythra-labs/mythra-backend/pkg/enums"
)

// Repository manages persistence for ledger events.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, event *models.LedgerEvent) error
	ListByEventID(ctx context.Context, eventID uuid.UUID) ([]models.LedgerEvent, error)
	FindBySignature(ctx context.Context, eventType enums.LedgerEventType, signature string) (*models.LedgerEvent, error)
}

type repository struct {
	repo.Base
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{Base: r.Base.WithTx(tx)}
}

func (r *repository) Create(ctx context.Context, event *models.LedgerEvent) error {
	return r.DB(ctx).Create(event).Error
}

func (r *repository) ListByEventID(ctx context.Context, eventID uuid.UUID) ([]models.LedgerEvent, error) {
	var events []models.LedgerEvent
	if err := r.DB(ctx).
		Where("event_id = ?", eventID).
		Order("created_at ASC").
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func (r *repository) FindBySignature(ctx context.Context, eventType enums.LedgerEventType, signature string) (*models.LedgerEvent, error) {
	var event models.LedgerEvent
	err := r.DB(ctx).
		Where("type = ? AND tx_signature = ?", eventType, signature).
		First(&event).Error
	if err != nil {
		return nil, err
	}
	return &event, nil
}
