package dao

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mythra-labs/mythra-backend/internal/repo"
	"github.com/mythra-labs/mythra-backend/pkg/db/models"
)

// Repository persists DAO questions, options and votes.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateQuestion(ctx context.Context, question *models.DAOQuestion) error
	FindQuestion(ctx context.Context, eventID, questionID uuid.UUID) (*models.DAOQuestion, error)
	ListQuestions(ctx context.Context, eventID uuid.UUID) ([]models.DAOQuestion, error)
	UpdateQuestionText(ctx context.Context, questionID uuid.UUID, text string) error
	ReplaceOptions(ctx context.Context, questionID uuid.UUID, options []models.DAOOption) error
	DeleteQuestion(ctx context.Context, questionID uuid.UUID) error
	CountVotes(ctx context.Context, questionID uuid.UUID) (int64, error)
	CreateVote(ctx context.Context, vote *models.DAOVote) error
	ListVotes(ctx context.Context, eventID uuid.UUID) ([]models.DAOVote, error)
	ListInvestorIDs(ctx context.Context, eventID uuid.UUID) ([]uuid.UUID, error)
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

func orderedOptions(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

func (r *repository) CreateQuestion(ctx context.Context, question *models.DAOQuestion) error {
	return r.DB(ctx).Create(question).Error
}

func (r *repository) FindQuestion(ctx context.Context, eventID, questionID uuid.UUID) (*models.DAOQuestion, error) {
	var q models.DAOQuestion
	if err := r.DB(ctx).
		Preload("Options", orderedOptions).
		Where("id = ? AND event_id = ?", questionID, eventID).
		First(&q).Error; err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *repository) ListQuestions(ctx context.Context, eventID uuid.UUID) ([]models.DAOQuestion, error) {
	var rows []models.DAOQuestion
	if err := r.DB(ctx).
		Preload("Options", orderedOptions).
		Where("event_id = ?", eventID).
		Order("position ASC").
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) UpdateQuestionText(ctx context.Context, questionID uuid.UUID, text string) error {
	return r.DB(ctx).Model(&models.DAOQuestion{}).
		Where("id = ?", questionID).
		Update("question_text", text).Error
}

func (r *repository) ReplaceOptions(ctx context.Context, questionID uuid.UUID, options []models.DAOOption) error {
	if err := r.DB(ctx).Where("question_id = ?", questionID).Delete(&models.DAOOption{}).Error; err != nil {
		return err
	}
	for i := range options {
		options[i].QuestionID = questionID
	}
	if len(options) == 0 {
		return nil
	}
	return r.DB(ctx).Create(&options).Error
}

func (r *repository) DeleteQuestion(ctx context.Context, questionID uuid.UUID) error {
	if err := r.DB(ctx).Where("question_id = ?", questionID).Delete(&models.DAOOption{}).Error; err != nil {
		return err
	}
	return r.DB(ctx).Where("id = ?", questionID).Delete(&models.DAOQuestion{}).Error
}

func (r *repository) CountVotes(ctx context.Context, questionID uuid.UUID) (int64, error) {
	var n int64
	err := r.DB(ctx).Model(&models.DAOVote{}).Where("question_id = ?", questionID).Count(&n).Error
	return n, err
}

func (r *repository) CreateVote(ctx context.Context, vote *models.DAOVote) error {
	return r.DB(ctx).Create(vote).Error
}

func (r *repository) ListVotes(ctx context.Context, eventID uuid.UUID) ([]models.DAOVote, error) {
	var rows []models.DAOVote
	if err := r.DB(ctx).Where("event_id = ?", eventID).Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ListInvestorIDs(ctx context.Context, eventID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.DB(ctx).Model(&models.Investment{}).
		Where("event_id = ?", eventID).
		Order("created_at ASC").
		Pluck("investor_id", &ids).Error
	return ids, err
}
