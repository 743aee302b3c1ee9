package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/mythra-labs/mythra-backend/api/responses"
	"github.com/mythra-labs/mythra-backend/api/validators"
	"github.com/mythra-labs/mythra-backend/internal/dao"
	"github.com/mythra-labs/mythra-backend/pkg/logger"
)

type createQuestionPayload struct {
	QuestionText string   `json:"question_text" validate:"required"`
	Options      []string `json:"options" validate:"required,min=2,dive,required"`
}

type updateQuestionPayload struct {
	QuestionText *string  `json:"question_text"`
	Options      []string `json:"options" validate:"omitempty,min=2,dive,required"`
}

type castVotePayload struct {
	QuestionID string `json:"question_id" validate:"required,uuid"`
	OptionID   string `json:"option_id" validate:"required,uuid"`
}

func QuestionList(svc dao.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			serviceUnavailable(ctx, logg, w, "dao")
			return
		}
		eventID, err := validators.ParseUUIDParam(r, "eventId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		rows, err := svc.ListQuestions(ctx, eventID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		out := make([]dao.QuestionDTO, 0, len(rows))
		for _, q := range rows {
			out = append(out, dao.NewQuestionDTO(q))
		}
		responses.WriteSuccess(w, map[string]any{"questions": out})
	}
}

// QuestionCreate adds a DAO question while the event is still editable.
func QuestionCreate(svc dao.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			serviceUnavailable(ctx, logg, w, "dao")
			return
		}
		actor, ok := requireActor(ctx, logg, w)
		if !ok {
			return
		}
		eventID, err := validators.ParseUUIDParam(r, "eventId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var payload createQuestionPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		question, err := svc.CreateQuestion(ctx, dao.CreateQuestionInput{
			EventID:      eventID,
			Actor:        actor,
			QuestionText: payload.QuestionText,
			Options:      payload.Options,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dao.NewQuestionDTO(*question))
	}
}

func QuestionUpdate(svc dao.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			serviceUnavailable(ctx, logg, w, "dao")
			return
		}
		actor, ok := requireActor(ctx, logg, w)
		if !ok {
			return
		}
		eventID, err := validators.ParseUUIDParam(r, "eventId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		questionID, err := validators.ParseUUIDParam(r, "questionId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var payload updateQuestionPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		question, err := svc.UpdateQuestion(ctx, dao.UpdateQuestionInput{
			EventID:      eventID,
			QuestionID:   questionID,
			Actor:        actor,
			QuestionText: payload.QuestionText,
			Options:      payload.Options,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, dao.NewQuestionDTO(*question))
	}
}

func QuestionDelete(svc dao.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			serviceUnavailable(ctx, logg, w, "dao")
			return
		}
		actor, ok := requireActor(ctx, logg, w)
		if !ok {
			return
		}
		eventID, err := validators.ParseUUIDParam(r, "eventId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		questionID, err := validators.ParseUUIDParam(r, "questionId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if err := svc.DeleteQuestion(ctx, eventID, questionID, actor); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"deleted": true})
	}
}

// VoteCast records the caller's ballot on one question.
func VoteCast(svc dao.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			serviceUnavailable(ctx, logg, w, "dao")
			return
		}
		actor, ok := requireActor(ctx, logg, w)
		if !ok {
			return
		}
		eventID, err := validators.ParseUUIDParam(r, "eventId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var payload castVotePayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.CastVote(ctx, dao.CastVoteInput{
			EventID:    eventID,
			QuestionID: uuid.MustParse(payload.QuestionID),
			OptionID:   uuid.MustParse(payload.OptionID),
			Actor:      actor,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// VotingStatus reports per-investor ballot progress for an event.
func VotingStatus(svc dao.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			serviceUnavailable(ctx, logg, w, "dao")
			return
		}
		eventID, err := validators.ParseUUIDParam(r, "eventId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		status, err := svc.VotingStatus(ctx, eventID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, status)
	}
}
