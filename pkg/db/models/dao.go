package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DAOQuestion is an organizer-authored multiple-choice question for an event's investors.
type DAOQuestion struct {
	ID           uuid.UUID   `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	EventID      uuid.UUID   `gorm:"column:event_id;type:uuid;not null"`
	QuestionText string      `gorm:"column:question_text;not null"`
	Position     int         `gorm:"column:position;not null;default:0"`
	Options      []DAOOption `gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time   `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time   `gorm:"column:updated_at;autoUpdateTime"`
}

func (DAOQuestion) TableName() string { return "dao_questions" }

func (q *DAOQuestion) BeforeCreate(tx *gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	return nil
}

// HasOption reports whether optionID belongs to the question.
func (q DAOQuestion) HasOption(optionID uuid.UUID) bool {
	for _, opt := range q.Options {
		if opt.ID == optionID {
			return true
		}
	}
	return false
}

type DAOOption struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	QuestionID uuid.UUID `gorm:"column:question_id;type:uuid;not null"`
	OptionText string    `gorm:"column:option_text;not null"`
	Position   int       `gorm:"column:position;not null;default:0"`
}

func (DAOOption) TableName() string { return "dao_options" }

func (o *DAOOption) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// DAOVote is one investor's answer to one question.
type DAOVote struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	EventID    uuid.UUID `gorm:"column:event_id;type:uuid;not null"`
	QuestionID uuid.UUID `gorm:"column:question_id;type:uuid;not null"`
	OptionID   uuid.UUID `gorm:"column:option_id;type:uuid;not null"`
	InvestorID uuid.UUID `gorm:"column:investor_id;type:uuid;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (DAOVote) TableName() string { return "dao_votes" }

func (v *DAOVote) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}
