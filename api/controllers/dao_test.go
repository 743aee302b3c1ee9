package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mythra-labs/mythra-backend/internal/dao"
	"github.com/mythra-labs/mythra-backend/internal/lifecycle"
	"github.com/mythra-labs/mythra-backend/pkg/db/models"
	"github.com/mythra-labs/mythra-backend/pkg/enums"
)

type testDAOService struct {
	castVoteFn func(ctx context.Context, input dao.CastVoteInput) (*dao.VoteResult, error)
	createFn   func(ctx context.Context, input dao.CreateQuestionInput) (*models.DAOQuestion, error)
}

func (s *testDAOService) CreateQuestion(ctx context.Context, input dao.CreateQuestionInput) (*models.DAOQuestion, error) {
	return s.createFn(ctx, input)
}

func (s *testDAOService) UpdateQuestion(context.Context, dao.UpdateQuestionInput) (*models.DAOQuestion, error) {
	return nil, nil
}

func (s *testDAOService) DeleteQuestion(context.Context, uuid.UUID, uuid.UUID, lifecycle.Actor) error {
	return nil
}

func (s *testDAOService) ListQuestions(context.Context, uuid.UUID) ([]models.DAOQuestion, error) {
	return nil, nil
}

func (s *testDAOService) CastVote(ctx context.Context, input dao.CastVoteInput) (*dao.VoteResult, error) {
	return s.castVoteFn(ctx, input)
}

func (s *testDAOService) VotingStatus(_ context.Context, _ uuid.UUID) (*lifecycle.VotingStatus, error) {
	return &lifecycle.VotingStatus{AllVoted: true, TotalInvestors: 2, TotalQuestions: 1}, nil
}

func TestVoteCastReturnsAdvance(t *testing.T) {
	investor := actorOf(enums.ActorRoleInvestor)
	eventID, questionID, optionID := uuid.New(), uuid.New(), uuid.New()
	svc := &testDAOService{
		castVoteFn: func(_ context.Context, input dao.CastVoteInput) (*dao.VoteResult, error) {
			assert.Equal(t, eventID, input.EventID)
			assert.Equal(t, questionID, input.QuestionID)
			assert.Equal(t, optionID, input.OptionID)
			assert.Equal(t, investor, input.Actor)
			return &dao.VoteResult{VoteID: uuid.New(), VotingComplete: true, EventStatus: enums.EventStatusSellingTickets}, nil
		},
	}

	body := `{"question_id":"` + questionID.String() + `","option_id":"` + optionID.String() + `"}`
	resp := httptest.NewRecorder()
	VoteCast(svc, testLogger())(resp, newRequest(http.MethodPost, "/", body, &investor, "", "eventId", eventID.String()))

	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	var envelope struct {
		Data dao.VoteResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.True(t, envelope.Data.VotingComplete)
	assert.Equal(t, enums.EventStatusSellingTickets, envelope.Data.EventStatus)
}

func TestVoteCastRejectsMalformedIDs(t *testing.T) {
	investor := actorOf(enums.ActorRoleInvestor)
	resp := httptest.NewRecorder()
	VoteCast(&testDAOService{}, testLogger())(resp, newRequest(http.MethodPost, "/",
		`{"question_id":"nope","option_id":"`+uuid.NewString()+`"}`, &investor, "", "eventId", uuid.NewString()))

	require.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, decodeError(t, resp).Error.Details, "question_id")
}

func TestQuestionCreateRequiresTwoOptions(t *testing.T) {
	organizer := actorOf(enums.ActorRoleOrganizer)
	resp := httptest.NewRecorder()
	QuestionCreate(&testDAOService{}, testLogger())(resp, newRequest(http.MethodPost, "/",
		`{"question_text":"Which headliner?","options":["only one"]}`, &organizer, "", "eventId", uuid.NewString()))
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestQuestionCreateReturnsQuestion(t *testing.T) {
	organizer := actorOf(enums.ActorRoleOrganizer)
	eventID := uuid.New()
	svc := &testDAOService{
		createFn: func(_ context.Context, input dao.CreateQuestionInput) (*models.DAOQuestion, error) {
			q := &models.DAOQuestion{ID: uuid.New(), EventID: input.EventID, QuestionText: input.QuestionText}
			for i, opt := range input.Options {
				q.Options = append(q.Options, models.DAOOption{ID: uuid.New(), OptionText: opt, Position: i})
			}
			return q, nil
		},
	}

	resp := httptest.NewRecorder()
	QuestionCreate(svc, testLogger())(resp, newRequest(http.MethodPost, "/",
		`{"question_text":"Which headliner?","options":["A","B"]}`, &organizer, "", "eventId", eventID.String()))

	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	var envelope struct {
		Data dao.QuestionDTO `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.Equal(t, eventID, envelope.Data.EventID)
	assert.Len(t, envelope.Data.Options, 2)
}

func TestVotingStatusIsPublic(t *testing.T) {
	resp := httptest.NewRecorder()
	VotingStatus(&testDAOService{}, testLogger())(resp, newRequest(http.MethodGet, "/", "", nil, "", "eventId", uuid.NewString()))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"all_voted":true`)
}
