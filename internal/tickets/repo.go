package tickets

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mythra-labs/mythra-backend/internal/repo"
	"github.com/mythra-labs/mythra-backend/pkg/db/models"
	"github.com/mythra-labs/mythra-backend/pkg/enums"
)

// Repository persists issued tickets.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateBatch(ctx context.Context, tickets []models.Ticket) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Ticket, error)
	ListByBuyer(ctx context.Context, eventID, buyerID uuid.UUID) ([]models.Ticket, error)
	MarkCheckedIn(ctx context.Context, id, staffID uuid.UUID, at time.Time) (bool, error)
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

func (r *repository) CreateBatch(ctx context.Context, tickets []models.Ticket) error {
	if len(tickets) == 0 {
		return nil
	}
	return r.DB(ctx).Create(&tickets).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Ticket, error) {
	var ticket models.Ticket
	if err := r.DB(ctx).Where("id = ?", id).First(&ticket).Error; err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *repository) ListByBuyer(ctx context.Context, eventID, buyerID uuid.UUID) ([]models.Ticket, error) {
	var rows []models.Ticket
	if err := r.DB(ctx).
		Where("event_id = ? AND buyer_id = ?", eventID, buyerID).
		Order("created_at ASC").Order("code ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// MarkCheckedIn flips a valid ticket to checked_in. It reports false when the
// ticket was already used.
func (r *repository) MarkCheckedIn(ctx context.Context, id, staffID uuid.UUID, at time.Time) (bool, error) {
	res := r.DB(ctx).Model(&models.Ticket{}).
		Where("id = ? AND status = ?", id, enums.TicketStatusValid).
		Updates(map[string]any{
			"status":        enums.TicketStatusCheckedIn,
			"checked_in_at": at,
			"checked_in_by": staffID,
			"updated_at":    at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
