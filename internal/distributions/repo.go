package distributions

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mythra-labs/mythra-backend/internal/repo"
	"github.com/mythra-labs/mythra-backend/pkg/db/models"
	"github.com/mythra-labs/mythra-backend/pkg/enums"
)

// Repository persists distributions and their payout rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, dist *models.EventDistribution) error
	FindByEvent(ctx context.Context, eventID uuid.UUID) (*models.EventDistribution, error)
	ListInvestments(ctx context.Context, eventID uuid.UUID) ([]models.Investment, error)
	MarkTransferred(ctx context.Context, payoutID uuid.UUID, signature string, at time.Time) error
	MarkFailed(ctx context.Context, payoutID uuid.UUID, reason string, at time.Time) error
	MarkExecuted(ctx context.Context, distributionID uuid.UUID, at time.Time) error
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

func (r *repository) Create(ctx context.Context, dist *models.EventDistribution) error {
	return r.DB(ctx).Create(dist).Error
}

func (r *repository) FindByEvent(ctx context.Context, eventID uuid.UUID) (*models.EventDistribution, error) {
	var dist models.EventDistribution
	err := r.DB(ctx).
		Preload("Payouts", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC").Order("investor_wallet ASC")
		}).
		Where("event_id = ?", eventID).
		First(&dist).Error
	if err != nil {
		return nil, err
	}
	return &dist, nil
}

func (r *repository) ListInvestments(ctx context.Context, eventID uuid.UUID) ([]models.Investment, error) {
	var rows []models.Investment
	if err := r.DB(ctx).Where("event_id = ?", eventID).Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) MarkTransferred(ctx context.Context, payoutID uuid.UUID, signature string, at time.Time) error {
	return r.DB(ctx).Model(&models.ROIPayout{}).
		Where("id = ? AND status <> ?", payoutID, enums.PayoutStatusTransferred).
		Updates(map[string]any{
			"status":         enums.PayoutStatusTransferred,
			"tx_signature":   signature,
			"transferred_at": at,
			"last_error":     nil,
			"attempts":       gorm.Expr("attempts + 1"),
			"updated_at":     at,
		}).Error
}

func (r *repository) MarkFailed(ctx context.Context, payoutID uuid.UUID, reason string, at time.Time) error {
	return r.DB(ctx).Model(&models.ROIPayout{}).
		Where("id = ? AND status <> ?", payoutID, enums.PayoutStatusTransferred).
		Updates(map[string]any{
			"status":     enums.PayoutStatusFailed,
			"last_error": reason,
			"attempts":   gorm.Expr("attempts + 1"),
			"updated_at": at,
		}).Error
}

func (r *repository) MarkExecuted(ctx context.Context, distributionID uuid.UUID, at time.Time) error {
	return r.DB(ctx).Model(&models.EventDistribution{}).
		Where("id = ? AND executed_at IS NULL", distributionID).
		Updates(map[string]any{"executed_at": at, "updated_at": at}).Error
}
