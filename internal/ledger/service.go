package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mythra-labs/mythra-backend/pkg/db"
	"github.com/mythra-labs/mythra-backend/pkg/db/models"
	"github.com/mythra-labs/mythra-backend/pkg/enums"
)

// Service records the immutable SOL movements of an event.
type Service interface {
	WithTx(tx *gorm.DB) Service
	RecordEvent(ctx context.Context, input RecordLedgerEventInput) (*models.LedgerEvent, error)
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.LedgerEvent, error)
	HasEvent(ctx context.Context, eventID uuid.UUID, eventType enums.LedgerEventType) (bool, error)
}

type service struct {
	repo Repository
}

// RecordLedgerEventInput captures the immutable data a ledger event requires.
type RecordLedgerEventInput struct {
	EventID            uuid.UUID             `json:"event_id"`
	ActorID            uuid.UUID             `json:"actor_id"`
	Type               enums.LedgerEventType `json:"type"`
	AmountSol          decimal.Decimal       `json:"amount_sol"`
	CounterpartyWallet string                `json:"counterparty_wallet,omitempty"`
	TxSignature        string                `json:"tx_signature,omitempty"`
	Metadata           json.RawMessage       `json:"metadata,omitempty"`
}

// NewService wires a ledger service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) WithTx(tx *gorm.DB) Service {
	return &service{repo: s.repo.WithTx(tx)}
}

// RecordEvent appends a ledger row. Recording the same (type, tx signature)
// twice returns the existing row.
func (s *service) RecordEvent(ctx context.Context, input RecordLedgerEventInput) (*models.LedgerEvent, error) {
	if input.EventID == uuid.Nil {
		return nil, fmt.Errorf("event id is required")
	}
	if !input.Type.IsValid() {
		return nil, fmt.Errorf("invalid ledger event type %q", input.Type)
	}
	if input.AmountSol.IsNegative() {
		return nil, fmt.Errorf("ledger amount must be >= 0")
	}

	event := &models.LedgerEvent{
		EventID:   input.EventID,
		ActorID:   input.ActorID,
		Type:      input.Type,
		AmountSol: input.AmountSol,
		Metadata:  input.Metadata,
	}
	if wallet := strings.TrimSpace(input.CounterpartyWallet); wallet != "" {
		event.CounterpartyWallet = &wallet
	}
	signature := strings.TrimSpace(input.TxSignature)
	if signature != "" {
		event.TxSignature = &signature
	}

	if err := s.repo.Create(ctx, event); err != nil {
		if signature != "" && db.IsUniqueViolation(err, "") {
			return s.repo.FindBySignature(ctx, input.Type, signature)
		}
		return nil, err
	}
	return event, nil
}

func (s *service) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.LedgerEvent, error) {
	if eventID == uuid.Nil {
		return nil, fmt.Errorf("event id is required")
	}
	return s.repo.ListByEventID(ctx, eventID)
}

func (s *service) HasEvent(ctx context.Context, eventID uuid.UUID, eventType enums.LedgerEventType) (bool, error) {
	if eventID == uuid.Nil {
		return false, fmt.Errorf("event id is required")
	}
	if !eventType.IsValid() {
		return false, fmt.Errorf("invalid ledger event type %q", eventType)
	}

	events, err := s.repo.ListByEventID(ctx, eventID)
	if err != nil {
		return false, err
	}
	for _, event := range events {
		if event.Type == eventType {
			return true, nil
		}
	}
	return false, nil
}
