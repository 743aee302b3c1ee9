package dao

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mythra-labs/mythra-backend/internal/events"
	"github.com/mythra-labs/mythra-backend/internal/lifecycle"
	"github.com/mythra-labs/mythra-backend/internal/repo"
	"github.com/mythra-labs/mythra-backend/pkg/db"
	"github.com/mythra-labs/mythra-backend/pkg/db/models"
	"github.com/mythra-labs/mythra-backend/pkg/enums"
	pkgerrors "github.com/mythra-labs/mythra-backend/pkg/errors"
	"github.com/mythra-labs/mythra-backend/pkg/logger"
	"github.com/mythra-labs/mythra-backend/pkg/outbox"
	"github.com/mythra-labs/mythra-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service manages DAO questions and investor ballots.
type Service interface {
	CreateQuestion(ctx context.Context, input CreateQuestionInput) (*models.DAOQuestion, error)
	UpdateQuestion(ctx context.Context, input UpdateQuestionInput) (*models.DAOQuestion, error)
	DeleteQuestion(ctx context.Context, eventID, questionID uuid.UUID, actor lifecycle.Actor) error
	ListQuestions(ctx context.Context, eventID uuid.UUID) ([]models.DAOQuestion, error)
	CastVote(ctx context.Context, input CastVoteInput) (*VoteResult, error)
	VotingStatus(ctx context.Context, eventID uuid.UUID) (*lifecycle.VotingStatus, error)
}

type ServiceParams struct {
	Repo        Repository
	EventRepo   events.Repository
	Events      events.Service
	Tx          txRunner
	Outbox      outboxPublisher
	Logger      *logger.Logger
	AutoAdvance bool
}

type service struct {
	repo        Repository
	eventRepo   events.Repository
	events      events.Service
	tx          txRunner
	outbox      outboxPublisher
	logg        *logger.Logger
	autoAdvance bool
}

func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Repo == nil:
		return nil, fmt.Errorf("dao repository required")
	case params.EventRepo == nil:
		return nil, fmt.Errorf("events repository required")
	case params.Events == nil:
		return nil, fmt.Errorf("events service required")
	case params.Tx == nil:
		return nil, fmt.Errorf("transaction runner required")
	case params.Outbox == nil:
		return nil, fmt.Errorf("outbox publisher required")
	case params.Logger == nil:
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:        params.Repo,
		eventRepo:   params.EventRepo,
		events:      params.Events,
		tx:          params.Tx,
		outbox:      params.Outbox,
		logg:        params.Logger,
		autoAdvance: params.AutoAdvance,
	}, nil
}

func (s *service) CreateQuestion(ctx context.Context, input CreateQuestionInput) (*models.DAOQuestion, error) {
	text, err := validateQuestionText(input.QuestionText)
	if err != nil {
		return nil, err
	}
	options, err := buildOptions(input.Options)
	if err != nil {
		return nil, err
	}

	var created *models.DAOQuestion
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		store := s.repo.WithTx(tx)
		event, err := s.loadEvent(ctx, tx, input.EventID)
		if err != nil {
			return err
		}
		if err := lifecycle.CanAuthorQuestions(*event, input.Actor, 0); err != nil {
			return lifecycle.TypedError(err)
		}

		existing, err := store.ListQuestions(ctx, event.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list questions")
		}
		question := &models.DAOQuestion{
			EventID:      event.ID,
			QuestionText: text,
			Position:     nextPosition(existing),
			Options:      options,
		}
		if err := store.CreateQuestion(ctx, question); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create question")
		}
		created = question
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"event_id":    input.EventID.String(),
		"question_id": created.ID.String(),
	}), "dao.question.created")
	return created, nil
}

func (s *service) UpdateQuestion(ctx context.Context, input UpdateQuestionInput) (*models.DAOQuestion, error) {
	var text *string
	if input.QuestionText != nil {
		t, err := validateQuestionText(*input.QuestionText)
		if err != nil {
			return nil, err
		}
		text = &t
	}
	var options []models.DAOOption
	if input.Options != nil {
		built, err := buildOptions(input.Options)
		if err != nil {
			return nil, err
		}
		options = built
	}

	var updated *models.DAOQuestion
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		store := s.repo.WithTx(tx)
		event, question, err := s.loadAuthorable(ctx, tx, input.EventID, input.QuestionID, input.Actor)
		if err != nil {
			return err
		}
		if text != nil {
			if err := store.UpdateQuestionText(ctx, question.ID, *text); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update question")
			}
		}
		if options != nil {
			if err := store.ReplaceOptions(ctx, question.ID, options); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "replace options")
			}
		}
		updated, err = store.FindQuestion(ctx, event.ID, question.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload question")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) DeleteQuestion(ctx context.Context, eventID, questionID uuid.UUID, actor lifecycle.Actor) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		_, question, err := s.loadAuthorable(ctx, tx, eventID, questionID, actor)
		if err != nil {
			return err
		}
		if err := s.repo.WithTx(tx).DeleteQuestion(ctx, question.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete question")
		}
		return nil
	})
}

func (s *service) ListQuestions(ctx context.Context, eventID uuid.UUID) ([]models.DAOQuestion, error) {
	if _, err := s.loadEvent(ctx, nil, eventID); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListQuestions(ctx, eventID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list questions")
	}
	return rows, nil
}

// CastVote records one ballot. When it completes voting and auto-advance is
// enabled, the event moves to selling_tickets in the same transaction.
func (s *service) CastVote(ctx context.Context, input CastVoteInput) (*VoteResult, error) {
	if input.Actor.Role != enums.ActorRoleInvestor || input.Actor.ID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only investors can vote")
	}

	ctx = s.logg.WithFields(ctx, map[string]any{
		"event_id":    input.EventID.String(),
		"question_id": input.QuestionID.String(),
		"investor_id": input.Actor.ID.String(),
	})

	var result *VoteResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		store := s.repo.WithTx(tx)
		event, err := s.loadEvent(ctx, tx, input.EventID)
		if err != nil {
			return err
		}
		question, err := store.FindQuestion(ctx, event.ID, input.QuestionID)
		if err != nil {
			if repo.IsNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "question not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load question")
		}
		investors, err := store.ListInvestorIDs(ctx, event.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list investors")
		}
		votes, err := store.ListVotes(ctx, event.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list votes")
		}

		if err := lifecycle.CanVote(*event, input.Actor.ID, *question, input.OptionID, investors, votes); err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "vote rejected")
			return lifecycle.TypedError(err)
		}

		vote := &models.DAOVote{
			EventID:    event.ID,
			QuestionID: question.ID,
			OptionID:   input.OptionID,
			InvestorID: input.Actor.ID,
		}
		if err := store.CreateVote(ctx, vote); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.Wrap(pkgerrors.CodeStateConflict, err, "investor already voted on this question").
					WithDetails(map[string]any{"reason": string(enums.GuardAlreadyVoted)})
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create vote")
		}

		questions, err := store.ListQuestions(ctx, event.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list questions")
		}
		status := lifecycle.CheckVotingComplete(questions, investors, append(votes, *vote))

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventVoteCast,
			AggregateType: enums.AggregateDAOVote,
			AggregateID:   vote.ID,
			Actor:         &outbox.ActorRef{UserID: input.Actor.ID, Role: input.Actor.Role},
			Data: payloads.VoteCastEvent{
				VoteID:         vote.ID,
				EventID:        event.ID,
				QuestionID:     question.ID,
				OptionID:       input.OptionID,
				InvestorID:     input.Actor.ID,
				VotingComplete: status.AllVoted,
			},
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit vote")
		}

		result = &VoteResult{VoteID: vote.ID, VotingComplete: status.AllVoted, EventStatus: event.Status}
		if status.AllVoted && s.autoAdvance {
			next, err := s.events.TransitionTx(ctx, tx, events.TransitionInput{
				EventID: event.ID,
				Target:  enums.EventStatusSellingTickets,
				Actor:   lifecycle.SystemActor(),
			})
			if err != nil {
				return err
			}
			result.EventStatus = next.Status
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithField(ctx, "voting_complete", result.VotingComplete), "dao.vote.cast")
	return result, nil
}

func (s *service) VotingStatus(ctx context.Context, eventID uuid.UUID) (*lifecycle.VotingStatus, error) {
	if _, err := s.loadEvent(ctx, nil, eventID); err != nil {
		return nil, err
	}
	questions, err := s.repo.ListQuestions(ctx, eventID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list questions")
	}
	investors, err := s.repo.ListInvestorIDs(ctx, eventID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list investors")
	}
	votes, err := s.repo.ListVotes(ctx, eventID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list votes")
	}
	status := lifecycle.CheckVotingComplete(questions, investors, votes)
	return &status, nil
}

func (s *service) loadEvent(ctx context.Context, tx *gorm.DB, eventID uuid.UUID) (*models.Event, error) {
	if eventID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "event id required")
	}
	event, err := s.eventRepo.WithTx(tx).FindByID(ctx, eventID)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "event not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load event")
	}
	return event, nil
}

// loadAuthorable loads a question and checks it may still be edited.
func (s *service) loadAuthorable(ctx context.Context, tx *gorm.DB, eventID, questionID uuid.UUID, actor lifecycle.Actor) (*models.Event, *models.DAOQuestion, error) {
	store := s.repo.WithTx(tx)
	event, err := s.loadEvent(ctx, tx, eventID)
	if err != nil {
		return nil, nil, err
	}
	question, err := store.FindQuestion(ctx, event.ID, questionID)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "question not found")
		}
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load question")
	}
	votes, err := store.CountVotes(ctx, question.ID)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count votes")
	}
	if err := lifecycle.CanAuthorQuestions(*event, actor, int(votes)); err != nil {
		return nil, nil, lifecycle.TypedError(err)
	}
	return event, question, nil
}

func validateQuestionText(raw string) (string, error) {
	text := strings.TrimSpace(raw)
	if n := utf8.RuneCountInString(text); n == 0 || n > maxQuestionLength {
		return "", pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("question_text must be 1-%d characters", maxQuestionLength))
	}
	return text, nil
}

func buildOptions(raw []string) ([]models.DAOOption, error) {
	if len(raw) < minOptions {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("at least %d options are required", minOptions))
	}
	seen := map[string]struct{}{}
	out := make([]models.DAOOption, 0, len(raw))
	for i, value := range raw {
		text := strings.TrimSpace(value)
		if n := utf8.RuneCountInString(text); n == 0 || n > maxOptionLength {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("option %d must be 1-%d characters", i+1, maxOptionLength))
		}
		key := strings.ToLower(text)
		if _, dup := seen[key]; dup {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("duplicate option %q", text))
		}
		seen[key] = struct{}{}
		out = append(out, models.DAOOption{OptionText: text, Position: i})
	}
	return out, nil
}

func nextPosition(existing []models.DAOQuestion) int {
	next := 0
	for _, q := range existing {
		if q.Position >= next {
			next = q.Position + 1
		}
	}
	return next
}
