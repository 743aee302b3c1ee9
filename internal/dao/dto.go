package dao

import (
	"time"

	"github.com/google/uuid"

	"github.com/mythra-labs/mythra-backend/internal/lifecycle"
	"github.com/mythra-labs/mythra-backend/pkg/db/models"
	"github.com/mythra-labs/mythra-backend/pkg/enums"
)

const (
	maxQuestionLength = 200
	maxOptionLength   = 100
	minOptions        = 2
)

type CreateQuestionInput struct {
	EventID      uuid.UUID
	Actor        lifecycle.Actor
	QuestionText string
	Options      []string
}

// UpdateQuestionInput edits a question; a non-nil Options replaces every option.
type UpdateQuestionInput struct {
	EventID      uuid.UUID
	QuestionID   uuid.UUID
	Actor        lifecycle.Actor
	QuestionText *string
	Options      []string
}

type CastVoteInput struct {
	EventID    uuid.UUID
	QuestionID uuid.UUID
	OptionID   uuid.UUID
	Actor      lifecycle.Actor
}

type OptionDTO struct {
	ID         uuid.UUID `json:"id"`
	OptionText string    `json:"option_text"`
	Position   int       `json:"position"`
}

type QuestionDTO struct {
	ID           uuid.UUID   `json:"id"`
	EventID      uuid.UUID   `json:"event_id"`
	QuestionText string      `json:"question_text"`
	Position     int         `json:"position"`
	Options      []OptionDTO `json:"options"`
	CreatedAt    time.Time   `json:"created_at"`
}

// VoteResult is returned after a ballot is accepted.
type VoteResult struct {
	VoteID         uuid.UUID         `json:"vote_id"`
	VotingComplete bool              `json:"voting_complete"`
	EventStatus    enums.EventStatus `json:"event_status"`
}

func NewQuestionDTO(q models.DAOQuestion) QuestionDTO {
	out := QuestionDTO{
		ID:           q.ID,
		EventID:      q.EventID,
		QuestionText: q.QuestionText,
		Position:     q.Position,
		Options:      make([]OptionDTO, 0, len(q.Options)),
		CreatedAt:    q.CreatedAt,
	}
	for _, opt := range q.Options {
		out.Options = append(out.Options, OptionDTO{ID: opt.ID, OptionText: opt.OptionText, Position: opt.Position})
	}
	return out
}
