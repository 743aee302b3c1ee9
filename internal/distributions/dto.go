package distributions

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mythra-labs/mythra-backend/internal/lifecycle"
	"github.com/mythra-labs/mythra-backend/pkg/db/models"
	"github.com/mythra-labs/mythra-backend/pkg/enums"
)

// SubmitInput carries the organizer's final figures. InvestorSharePercent
// falls back to the share fixed on the event.
type SubmitInput struct {
	EventID              uuid.UUID
	Actor                lifecycle.Actor
	TotalRevenueSol      decimal.Decimal
	TotalCostsSol        decimal.Decimal
	InvestorSharePercent *decimal.Decimal
}

type ExecuteInput struct {
	EventID uuid.UUID
	Actor   lifecycle.Actor
}

type PayoutDTO struct {
	ID             uuid.UUID          `json:"id"`
	InvestmentID   uuid.UUID          `json:"investment_id"`
	InvestorID     uuid.UUID          `json:"investor_id"`
	InvestorWallet string             `json:"investor_wallet"`
	AmountSol      decimal.Decimal    `json:"amount_sol"`
	ROIAmountSol   decimal.Decimal    `json:"roi_amount_sol"`
	TotalReturnSol decimal.Decimal    `json:"total_return_sol"`
	Status         enums.PayoutStatus `json:"status"`
	TxSignature    *string            `json:"tx_signature,omitempty"`
	Attempts       int                `json:"attempts"`
	LastError      *string            `json:"last_error,omitempty"`
	TransferredAt  *time.Time         `json:"transferred_at,omitempty"`
}

type DistributionDTO struct {
	ID                   uuid.UUID       `json:"id"`
	EventID              uuid.UUID       `json:"event_id"`
	TotalRevenueSol      decimal.Decimal `json:"total_revenue_sol"`
	TotalCostsSol        decimal.Decimal `json:"total_costs_sol"`
	InvestorSharePercent decimal.Decimal `json:"investor_share_percent"`
	NetProfitSol         decimal.Decimal `json:"net_profit_sol"`
	InvestorPoolSol      decimal.Decimal `json:"investor_pool_sol"`
	OrganizerRetainedSol decimal.Decimal `json:"organizer_retained_sol"`
	TotalInvestedSol     decimal.Decimal `json:"total_invested_sol"`
	ExecutedAt           *time.Time      `json:"executed_at,omitempty"`
	Payouts              []PayoutDTO     `json:"payouts"`
	CreatedAt            time.Time       `json:"created_at"`
}

// ExecuteResult reports where a payout run left the distribution.
type ExecuteResult struct {
	Distribution DistributionDTO   `json:"distribution"`
	Transferred  int               `json:"transferred"`
	Failed       int               `json:"failed"`
	EventStatus  enums.EventStatus `json:"event_status"`
}

func NewDistributionDTO(d models.EventDistribution) DistributionDTO {
	out := DistributionDTO{
		ID:                   d.ID,
		EventID:              d.EventID,
		TotalRevenueSol:      d.TotalRevenueSol,
		TotalCostsSol:        d.TotalCostsSol,
		InvestorSharePercent: d.InvestorSharePercent,
		NetProfitSol:         d.NetProfitSol,
		InvestorPoolSol:      d.InvestorPoolSol,
		OrganizerRetainedSol: d.OrganizerRetainedSol,
		TotalInvestedSol:     d.TotalInvestedSol,
		ExecutedAt:           d.ExecutedAt,
		Payouts:              make([]PayoutDTO, 0, len(d.Payouts)),
		CreatedAt:            d.CreatedAt,
	}
	for _, p := range d.Payouts {
		out.Payouts = append(out.Payouts, PayoutDTO{
			ID:             p.ID,
			InvestmentID:   p.InvestmentID,
			InvestorID:     p.InvestorID,
			InvestorWallet: p.InvestorWallet,
			AmountSol:      p.AmountSol,
			ROIAmountSol:   p.ROIAmountSol,
			TotalReturnSol: p.TotalReturnSol,
			Status:         p.Status,
			TxSignature:    p.TxSignature,
			Attempts:       p.Attempts,
			LastError:      p.LastError,
			TransferredAt:  p.TransferredAt,
		})
	}
	return out
}
