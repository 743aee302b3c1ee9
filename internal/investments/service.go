package investments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mythra-labs/mythra-backend/internal/events"
	"github.com/mythra-labs/mythra-backend/internal/ledger"
	"github.com/mythra-labs/mythra-backend/internal/lifecycle"
	"github.com/mythra-labs/mythra-backend/internal/repo"
	"github.com/mythra-labs/mythra-backend/pkg/chain"
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

type Service interface {
	Invest(ctx context.Context, input InvestInput) (*models.Investment, error)
	ListByEvent(ctx context.Context, eventID uuid.UUID) (*EventInvestments, error)
}

type ServiceParams struct {
	Repo   Repository
	Events events.Repository
	Tx     txRunner
	Outbox outboxPublisher
	Ledger ledger.Service
	Chain  chain.Ledger
	Logger *logger.Logger
}

type service struct {
	repo   Repository
	events events.Repository
	tx     txRunner
	outbox outboxPublisher
	ledger ledger.Service
	chain  chain.Ledger
	logg   *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Repo == nil:
		return nil, fmt.Errorf("investments repository required")
	case params.Events == nil:
		return nil, fmt.Errorf("event store required")
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
	return &service{
		repo:   params.Repo,
		events: params.Events,
		tx:     params.Tx,
		outbox: params.Outbox,
		ledger: params.Ledger,
		chain:  params.Chain,
		logg:   params.Logger,
	}, nil
}

func (s *service) Invest(ctx context.Context, input InvestInput) (*models.Investment, error) {
	if input.Actor.Role != enums.ActorRoleInvestor || input.Actor.ID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only investors can invest")
	}
	if input.EventID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "event id required")
	}
	wallet := strings.TrimSpace(input.Wallet)
	signature := strings.TrimSpace(input.Signature)
	if err := s.chain.VerifySignature(ctx, wallet, chain.InvestmentMessage(input.EventID, input.AmountSol), signature); err != nil {
		if errors.Is(err, chain.ErrInvalidAddress) || errors.Is(err, chain.ErrInvalidSignature) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "wallet signature could not be verified")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "verify wallet signature")
	}

	ctx = s.logg.WithFields(ctx, map[string]any{
		"event_id":    input.EventID.String(),
		"investor_id": input.Actor.ID.String(),
		"wallet":      wallet,
	})

	var created *models.Investment
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		eventRepo := s.events.WithTx(tx)
		store := s.repo.WithTx(tx)

		event, err := eventRepo.FindByID(ctx, input.EventID)
		if err != nil {
			if repo.IsNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "event not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load event")
		}

		existing, err := store.ListByEvent(ctx, event.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load investments")
		}
		if err := lifecycle.CanInvest(*event, input.Actor.ID, input.AmountSol, existing); err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "investment rejected")
			return lifecycle.TypedError(err)
		}

		investment := &models.Investment{
			EventID:        event.ID,
			InvestorID:     input.Actor.ID,
			InvestorWallet: wallet,
			AmountSol:      input.AmountSol,
			TxSignature:    &signature,
		}
		if err := store.Create(ctx, investment); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.Wrap(pkgerrors.CodeStateConflict, err, "investor already invested in this event").
					WithDetails(map[string]any{"reason": string(enums.GuardAlreadyInvested)})
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create investment")
		}

		total := event.TotalInvestedSol.Add(input.AmountSol)
		if err := eventRepo.UpdateVersioned(ctx, event.ID, event.Version, map[string]any{
			"total_invested_sol": total,
		}); err != nil {
			if errors.Is(err, repo.ErrStaleVersion) {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "event changed while investing; retry")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update event totals")
		}

		metadata, _ := json.Marshal(map[string]any{"investment_id": investment.ID})
		if _, err := s.ledger.WithTx(tx).RecordEvent(ctx, ledger.RecordLedgerEventInput{
			EventID:            event.ID,
			ActorID:            input.Actor.ID,
			Type:               enums.LedgerEventTypeInvestmentReceived,
			AmountSol:          input.AmountSol,
			CounterpartyWallet: wallet,
			TxSignature:        signature,
			Metadata:           metadata,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record investment ledger event")
		}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventInvestmentReceived,
			AggregateType: enums.AggregateInvestment,
			AggregateID:   investment.ID,
			Actor:         &outbox.ActorRef{UserID: input.Actor.ID, Role: input.Actor.Role, Wallet: wallet},
			Data: payloads.InvestmentReceivedEvent{
				InvestmentID:     investment.ID,
				EventID:          event.ID,
				InvestorID:       input.Actor.ID,
				InvestorWallet:   wallet,
				AmountSol:        input.AmountSol,
				TotalInvestedSol: total,
			},
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit investment")
		}

		created = investment
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithField(ctx, "amount_sol", input.AmountSol.String()), "investment.received")
	return created, nil
}

func (s *service) ListByEvent(ctx context.Context, eventID uuid.UUID) (*EventInvestments, error) {
	event, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "event not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load event")
	}
	rows, err := s.repo.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list investments")
	}

	out := &EventInvestments{
		EventID:          event.ID,
		TotalInvestedSol: decimal.Zero,
		VaultCapSol:      event.VaultCapSol,
		Investments:      make([]InvestmentDTO, 0, len(rows)),
	}
	for _, row := range rows {
		out.TotalInvestedSol = out.TotalInvestedSol.Add(row.AmountSol)
		out.Investments = append(out.Investments, NewInvestmentDTO(row))
	}
	out.Investors = len(rows)
	return out, nil
}
