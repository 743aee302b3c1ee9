package distributions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/mythra-labs/mythra-backend/internal/events"
	"github.com/mythra-labs/mythra-backend/internal/ledger"
	"github.com/mythra-labs/mythra-backend/internal/lifecycle"
	"github.com/mythra-labs/mythra-backend/internal/payouts"
	"github.com/mythra-labs/mythra-backend/internal/repo"
	"github.com/mythra-labs/mythra-backend/pkg/chain"
	"github.com/mythra-labs/mythra-backend/pkg/db"
	"github.com/mythra-labs/mythra-backend/pkg/db/models"
	"github.com/mythra-labs/mythra-backend/pkg/enums"
	pkgerrors "github.com/mythra-labs/mythra-backend/pkg/errors"
	"github.com/mythra-labs/mythra-backend/pkg/logger"
	"github.com/mythra-labs/mythra-backend/pkg/metrics"
	"github.com/mythra-labs/mythra-backend/pkg/outbox"
	"github.com/mythra-labs/mythra-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service computes ROI distributions and pays them out through the chain ledger.
type Service interface {
	Submit(ctx context.Context, input SubmitInput) (*models.EventDistribution, error)
	Execute(ctx context.Context, input ExecuteInput) (*ExecuteResult, error)
	Get(ctx context.Context, eventID uuid.UUID) (*models.EventDistribution, error)
}

// Options tunes payout math. Zero RoundingPlaces selects payouts.DefaultRoundingPlaces.
type Options struct {
	RoundingPlaces int32
	Now            func() time.Time
}

type ServiceParams struct {
	Repo      Repository
	EventRepo events.Repository
	Events    events.Service
	Tx        txRunner
	Outbox    outboxPublisher
	Ledger    ledger.Service
	Chain     chain.Ledger
	Metrics   *metrics.LifecycleMetrics
	Logger    *logger.Logger
	Options   Options
}

type service struct {
	repo      Repository
	eventRepo events.Repository
	events    events.Service
	tx        txRunner
	outbox    outboxPublisher
	ledger    ledger.Service
	chain     chain.Ledger
	metrics   *metrics.LifecycleMetrics
	logg      *logger.Logger
	opts      Options
}

func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Repo == nil:
		return nil, fmt.Errorf("distributions repository required")
	case params.EventRepo == nil:
		return nil, fmt.Errorf("events repository required")
	case params.Events == nil:
		return nil, fmt.Errorf("events service required")
	case params.Tx == nil:
		return nil, fmt.Errorf("transaction runner required")
	case params.Outbox == nil:
		return nil, fmt.Errorf("outbox publisher required")
	case params.Ledger == nil:
		return nil, fmt.Errorf("ledger service required")
	case params.Chain == nil:
		return nil, fmt.Errorf("chain ledger required")
	case params.Logger == nil:
		return nil, fmt.Errorf("logger required")
	}
	opts := params.Options
	if opts.RoundingPlaces < 0 || opts.RoundingPlaces > payouts.MaxRoundingPlaces {
		return nil, fmt.Errorf("rounding places must be between 1 and %d, got %d", payouts.MaxRoundingPlaces, opts.RoundingPlaces)
	}
	if opts.RoundingPlaces == 0 {
		opts.RoundingPlaces = payouts.DefaultRoundingPlaces
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	return &service{
		repo:      params.Repo,
		eventRepo: params.EventRepo,
		events:    params.Events,
		tx:        params.Tx,
		outbox:    params.Outbox,
		ledger:    params.Ledger,
		chain:     params.Chain,
		metrics:   params.Metrics,
		logg:      params.Logger,
		opts:      opts,
	}, nil
}

// Submit moves the event into roi_distribution and stores the computed
// breakdown with one pending payout per investment.
func (s *service) Submit(ctx context.Context, input SubmitInput) (*models.EventDistribution, error) {
	ctx = s.logg.WithFields(ctx, map[string]any{
		"event_id":   input.EventID.String(),
		"actor_role": string(input.Actor.Role),
	})

	var created *models.EventDistribution
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		store := s.repo.WithTx(tx)
		event, err := s.loadEvent(ctx, tx, input.EventID)
		if err != nil {
			return err
		}

		if _, err := store.FindByEvent(ctx, event.ID); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "distribution already submitted")
		} else if !repo.IsNotFound(err) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load distribution")
		}

		share := event.InvestorSharePercent
		if input.InvestorSharePercent != nil {
			share = *input.InvestorSharePercent
		}
		figures := lifecycle.Financials{
			TotalRevenue:         input.TotalRevenueSol,
			TotalCosts:           input.TotalCostsSol,
			InvestorSharePercent: share,
		}
		if _, err := s.events.TransitionTx(ctx, tx, events.TransitionInput{
			EventID:    event.ID,
			Target:     enums.EventStatusROIDistribution,
			Actor:      input.Actor,
			Financials: &figures,
		}); err != nil {
			return err
		}

		investments, err := store.ListInvestments(ctx, event.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load investments")
		}
		wallets := make(map[uuid.UUID]string, len(investments))
		shares := make([]payouts.InvestmentShare, 0, len(investments))
		for _, inv := range investments {
			wallets[inv.ID] = inv.InvestorWallet
			shares = append(shares, payouts.InvestmentShare{
				InvestmentID: inv.ID,
				InvestorID:   inv.InvestorID,
				AmountSol:    inv.AmountSol,
			})
		}

		breakdown, err := payouts.ComputeDistribution(payouts.Input{
			TotalRevenue:         figures.TotalRevenue,
			TotalCosts:           figures.TotalCosts,
			InvestorSharePercent: figures.InvestorSharePercent,
			Investments:          shares,
			RoundingPlaces:       s.opts.RoundingPlaces,
		})
		if err != nil {
			return mapComputeError(err)
		}

		dist := &models.EventDistribution{
			EventID:              event.ID,
			TotalRevenueSol:      breakdown.TotalRevenue,
			TotalCostsSol:        breakdown.TotalCosts,
			InvestorSharePercent: breakdown.InvestorSharePercent,
			NetProfitSol:         breakdown.NetProfit,
			InvestorPoolSol:      breakdown.InvestorPool,
			OrganizerRetainedSol: breakdown.OrganizerRetained,
			TotalInvestedSol:     breakdown.TotalInvested,
			SubmittedBy:          input.Actor.ID,
			Payouts:              make([]models.ROIPayout, 0, len(breakdown.Allocations)),
		}
		for _, a := range breakdown.Allocations {
			dist.Payouts = append(dist.Payouts, models.ROIPayout{
				EventID:        event.ID,
				InvestmentID:   a.InvestmentID,
				InvestorID:     a.InvestorID,
				InvestorWallet: wallets[a.InvestmentID],
				AmountSol:      a.AmountSol,
				ROIAmountSol:   a.ROIAmount,
				TotalReturnSol: a.TotalReturn,
				Status:         enums.PayoutStatusPending,
			})
		}
		if err := store.Create(ctx, dist); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "distribution already submitted")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create distribution")
		}

		if err := s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventDistributionComputed,
			AggregateType: enums.AggregateDistribution,
			AggregateID:   dist.ID,
			Actor:         &outbox.ActorRef{UserID: input.Actor.ID, Role: input.Actor.Role},
			Data: payloads.DistributionComputedEvent{
				DistributionID:       dist.ID,
				EventID:              event.ID,
				NetProfitSol:         dist.NetProfitSol,
				InvestorPoolSol:      dist.InvestorPoolSol,
				OrganizerRetainedSol: dist.OrganizerRetainedSol,
				PayoutCount:          len(dist.Payouts),
			},
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit distribution")
		}
		created = dist
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"distribution_id":   created.ID.String(),
		"investor_pool_sol": created.InvestorPoolSol.String(),
		"payouts":           len(created.Payouts),
	}), "distribution.submitted")
	return created, nil
}

// Execute transfers every payout not yet settled. Failed transfers are marked
// and reported together; calling Execute again retries only those. The event
// completes once every investor and the organizer are paid.
func (s *service) Execute(ctx context.Context, input ExecuteInput) (*ExecuteResult, error) {
	ctx = s.logg.WithFields(ctx, map[string]any{
		"event_id":   input.EventID.String(),
		"actor_role": string(input.Actor.Role),
	})

	event, err := s.loadEvent(ctx, nil, input.EventID)
	if err != nil {
		return nil, err
	}
	if !canExecute(*event, input.Actor) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "actor cannot execute this distribution")
	}
	dist, err := s.Get(ctx, event.ID)
	if err != nil {
		return nil, err
	}
	if event.Status == enums.EventStatusCompleted && dist.ExecutedAt != nil {
		return s.result(*dist, event.Status), nil
	}
	if event.Status != enums.EventStatusROIDistribution {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "event is not distributing returns").
			WithDetails(map[string]any{"from": string(event.Status)})
	}

	var errs error
	failed := []string{}
	for _, p := range dist.Payouts {
		if p.Status == enums.PayoutStatusTransferred {
			continue
		}
		if err := s.pay(ctx, *event, *dist, p, input.Actor); err != nil {
			errs = multierr.Append(errs, err)
			failed = append(failed, p.ID.String())
		}
	}
	if errs == nil {
		errs = s.payOrganizer(ctx, *event, *dist, input.Actor)
	}

	if errs != nil {
		s.logg.Error(s.logg.WithField(ctx, "failed_payouts", len(failed)), "distribution execution incomplete", errs)
		refreshed, loadErr := s.Get(ctx, event.ID)
		if loadErr != nil {
			return nil, multierr.Append(errs, loadErr)
		}
		return s.result(*refreshed, event.Status), pkgerrors.Wrap(pkgerrors.CodeDependency, errs,
			"one or more payouts failed; execute again to retry").
			WithDetails(map[string]any{"failed_payouts": failed})
	}

	status := event.Status
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).MarkExecuted(ctx, dist.ID, s.opts.Now()); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark distribution executed")
		}
		next, err := s.events.TransitionTx(ctx, tx, events.TransitionInput{
			EventID: event.ID,
			Target:  enums.EventStatusCompleted,
			Actor:   input.Actor,
		})
		if err != nil {
			return err
		}
		status = next.Status
		return nil
	})
	if err != nil {
		return nil, err
	}

	final, err := s.Get(ctx, event.ID)
	if err != nil {
		return nil, err
	}
	s.logg.Info(ctx, "distribution.executed")
	return s.result(*final, status), nil
}

func (s *service) pay(ctx context.Context, event models.Event, dist models.EventDistribution, p models.ROIPayout, actor lifecycle.Actor) error {
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"payout_id": p.ID.String(),
		"wallet":    p.InvestorWallet,
	})
	transfer, err := s.chain.TransferPayout(ctx, chain.TransferRequest{
		EventID:   event.ID,
		Reference: "roi:" + p.ID.String(),
		ToWallet:  p.InvestorWallet,
		AmountSol: p.TotalReturnSol,
	})
	s.metrics.ObservePayout(p.TotalReturnSol, err)
	if err != nil {
		s.logg.Warn(s.logg.WithField(logCtx, "error", err.Error()), "payout transfer failed")
		if markErr := s.repo.MarkFailed(ctx, p.ID, err.Error(), s.opts.Now()); markErr != nil {
			err = multierr.Append(err, markErr)
		}
		return fmt.Errorf("payout %s: %w", p.ID, err)
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		now := s.opts.Now()
		if err := s.repo.WithTx(tx).MarkTransferred(ctx, p.ID, transfer.TxSignature, now); err != nil {
			return fmt.Errorf("payout %s: mark transferred: %w", p.ID, err)
		}
		metadata, _ := json.Marshal(map[string]any{
			"payout_id":       p.ID,
			"distribution_id": dist.ID,
			"roi_amount_sol":  p.ROIAmountSol.String(),
		})
		if _, err := s.ledger.WithTx(tx).RecordEvent(ctx, ledger.RecordLedgerEventInput{
			EventID:            event.ID,
			ActorID:            actor.ID,
			Type:               enums.LedgerEventTypeROIPayout,
			AmountSol:          p.TotalReturnSol,
			CounterpartyWallet: p.InvestorWallet,
			TxSignature:        transfer.TxSignature,
			Metadata:           metadata,
		}); err != nil {
			return fmt.Errorf("payout %s: record ledger: %w", p.ID, err)
		}
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPayoutTransferred,
			AggregateType: enums.AggregateDistribution,
			AggregateID:   dist.ID,
			Actor:         &outbox.ActorRef{UserID: actor.ID, Role: actor.Role},
			Data: payloads.PayoutTransferredEvent{
				PayoutID:       p.ID,
				DistributionID: dist.ID,
				EventID:        event.ID,
				InvestorID:     p.InvestorID,
				InvestorWallet: p.InvestorWallet,
				TotalReturnSol: p.TotalReturnSol,
				TxSignature:    transfer.TxSignature,
			},
		}); err != nil {
			return fmt.Errorf("payout %s: emit: %w", p.ID, err)
		}
		s.logg.Info(s.logg.WithField(logCtx, "tx_signature", transfer.TxSignature), "payout.transferred")
		return nil
	})
}

// payOrganizer sends the organizer's retained profit once. A loss leaves nothing to send.
func (s *service) payOrganizer(ctx context.Context, event models.Event, dist models.EventDistribution, actor lifecycle.Actor) error {
	if !dist.OrganizerRetainedSol.IsPositive() {
		return nil
	}
	paid, err := s.ledger.HasEvent(ctx, event.ID, enums.LedgerEventTypeOrganizerPayout)
	if err != nil {
		return fmt.Errorf("organizer payout: %w", err)
	}
	if paid {
		return nil
	}

	transfer, err := s.chain.TransferPayout(ctx, chain.TransferRequest{
		EventID:   event.ID,
		Reference: "organizer:" + dist.ID.String(),
		ToWallet:  event.CreatorWallet,
		AmountSol: dist.OrganizerRetainedSol,
	})
	s.metrics.ObservePayout(dist.OrganizerRetainedSol, err)
	if err != nil {
		return fmt.Errorf("organizer payout: %w", err)
	}
	metadata, _ := json.Marshal(map[string]any{"distribution_id": dist.ID})
	if _, err := s.ledger.RecordEvent(ctx, ledger.RecordLedgerEventInput{
		EventID:            event.ID,
		ActorID:            actor.ID,
		Type:               enums.LedgerEventTypeOrganizerPayout,
		AmountSol:          dist.OrganizerRetainedSol,
		CounterpartyWallet: event.CreatorWallet,
		TxSignature:        transfer.TxSignature,
		Metadata:           metadata,
	}); err != nil {
		return fmt.Errorf("organizer payout: record ledger: %w", err)
	}
	return nil
}

func (s *service) Get(ctx context.Context, eventID uuid.UUID) (*models.EventDistribution, error) {
	dist, err := s.repo.FindByEvent(ctx, eventID)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "distribution not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load distribution")
	}
	return dist, nil
}

func (s *service) result(dist models.EventDistribution, status enums.EventStatus) *ExecuteResult {
	out := &ExecuteResult{Distribution: NewDistributionDTO(dist), EventStatus: status}
	for _, p := range dist.Payouts {
		switch p.Status {
		case enums.PayoutStatusTransferred:
			out.Transferred++
		case enums.PayoutStatusFailed:
			out.Failed++
		}
	}
	return out
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

func canExecute(event models.Event, actor lifecycle.Actor) bool {
	switch actor.Role {
	case enums.ActorRoleAdmin, enums.ActorRoleSystem:
		return true
	case enums.ActorRoleOrganizer:
		return actor.ID == event.OrganizerID
	}
	return false
}

func mapComputeError(err error) error {
	switch {
	case errors.Is(err, payouts.ErrNoInvestorsToDistributeTo):
		return pkgerrors.Wrap(pkgerrors.CodeStateConflict, err, "no investors to distribute to").
			WithDetails(map[string]any{"reason": string(enums.GuardNoInvestors)})
	case errors.Is(err, payouts.ErrInvalidInput):
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid distribution figures")
	default:
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "compute distribution")
	}
}
