package investments

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mythra-labs/mythra-backend/internal/lifecycle"
	"github.com/mythra-labs/mythra-backend/pkg/db/models"
)

// InvestInput is a signed request to commit SOL to an event vault. Signature
// is the base58 ed25519 signature of chain.InvestmentMessage by Wallet.
type InvestInput struct {
	EventID   uuid.UUID
	Actor     lifecycle.Actor
	Wallet    string
	AmountSol decimal.Decimal
	Signature string
}

type InvestmentDTO struct {
	ID             uuid.UUID       `json:"id"`
	EventID        uuid.UUID       `json:"event_id"`
	InvestorID     uuid.UUID       `json:"investor_id"`
	InvestorWallet string          `json:"investor_wallet"`
	AmountSol      decimal.Decimal `json:"amount_sol"`
	CreatedAt      time.Time       `json:"created_at"`
}

// EventInvestments summarises the investments of one event.
type EventInvestments struct {
	EventID          uuid.UUID       `json:"event_id"`
	TotalInvestedSol decimal.Decimal `json:"total_invested_sol"`
	VaultCapSol      decimal.Decimal `json:"vault_cap_sol"`
	Investors        int             `json:"investors"`
	Investments      []InvestmentDTO `json:"investments"`
}

func NewInvestmentDTO(m models.Investment) InvestmentDTO {
	return InvestmentDTO{
		ID:             m.ID,
		EventID:        m.EventID,
		InvestorID:     m.InvestorID,
		InvestorWallet: m.InvestorWallet,
		AmountSol:      m.AmountSol,
		CreatedAt:      m.CreatedAt,
	}
}
