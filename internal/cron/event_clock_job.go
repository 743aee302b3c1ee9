package cron

import (
	"context"
	"fmt"

	"go.uber.org/multierr"

	"github.com/mythra-labs/mythra-backend/internal/events"
	"github.com/mythra-labs/mythra-backend/internal/lifecycle"
	"github.com/mythra-labs/mythra-backend/pkg/db/models"
	"github.com/mythra-labs/mythra-backend/pkg/enums"
	pkgerrors "github.com/mythra-labs/mythra-backend/pkg/errors"
	"github.com/mythra-labs/mythra-backend/pkg/logger"
)

const defaultClockBatch = 100

// clockTargets maps each time-driven status to the status the clock moves it to.
var clockTargets = map[enums.EventStatus]enums.EventStatus{
	enums.EventStatusSellingTickets:  enums.EventStatusWaitingForEvent,
	enums.EventStatusWaitingForEvent: enums.EventStatusEventRunning,
	enums.EventStatusEventRunning:    enums.EventStatusCalculatingIncome,
}

type clockEvents interface {
	ListDueForClock(ctx context.Context, limit int) ([]models.Event, error)
	Transition(ctx context.Context, input events.TransitionInput) (*models.Event, error)
}

type EventClockJobParams struct {
	Logger    *logger.Logger
	Events    clockEvents
	BatchSize int
}

// NewEventClockJob advances events whose schedule has come due: sold-out
// sales close, started events run, and ended events move to income calculation.
func NewEventClockJob(params EventClockJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Events == nil {
		return nil, fmt.Errorf("events service required")
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultClockBatch
	}
	return &eventClockJob{logg: params.Logger, events: params.Events, batch: batch}, nil
}

type eventClockJob struct {
	logg   *logger.Logger
	events clockEvents
	batch  int
}

func (j *eventClockJob) Name() string { return "event-clock" }

func (j *eventClockJob) Run(ctx context.Context) error {
	due, err := j.events.ListDueForClock(ctx, j.batch)
	if err != nil {
		return fmt.Errorf("list due events: %w", err)
	}

	var errs error
	advanced, skipped := 0, 0
	for _, event := range due {
		target, ok := clockTargets[event.Status]
		if !ok {
			continue
		}
		version := event.Version
		logCtx := j.logg.WithFields(ctx, map[string]any{
			"event_id": event.ID.String(),
			"from":     string(event.Status),
			"to":       string(target),
		})
		_, err := j.events.Transition(ctx, events.TransitionInput{
			EventID:         event.ID,
			Target:          target,
			Actor:           lifecycle.SystemActor(),
			ExpectedVersion: &version,
		})
		switch {
		case err == nil:
			advanced++
		case pkgerrors.HasCode(err, pkgerrors.CodeConflict), pkgerrors.HasCode(err, pkgerrors.CodeStateConflict):
			// someone else moved the event, or a guard still holds; the next tick re-evaluates
			skipped++
			j.logg.Warn(j.logg.WithField(logCtx, "error", err.Error()), "clock transition skipped")
		default:
			errs = multierr.Append(errs, fmt.Errorf("event %s: %w", event.ID, err))
		}
	}

	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"due":      len(due),
		"advanced": advanced,
		"skipped":  skipped,
	}), "event clock tick")
	return errs
}
