package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mythra-labs/mythra-backend/pkg/enums"
)

// EventStatusChangedEvent is emitted for every accepted lifecycle transition.
type EventStatusChangedEvent struct {
	EventID     uuid.UUID         `json:"event_id"`
	OrganizerID uuid.UUID         `json:"organizer_id"`
	From        enums.EventStatus `json:"from"`
	To          enums.EventStatus `json:"to"`
	ActorID     uuid.UUID         `json:"actor_id"`
	ActorRole   enums.ActorRole   `json:"actor_role"`
	Version     int               `json:"version"`
	ChangedAt   time.Time         `json:"changed_at"`
}

// InvestmentReceivedEvent reports a confirmed vault deposit.
type InvestmentReceivedEvent struct {
	InvestmentID     uuid.UUID       `json:"investment_id"`
	EventID          uuid.UUID       `json:"event_id"`
	InvestorID       uuid.UUID       `json:"investor_id"`
	InvestorWallet   string          `json:"investor_wallet"`
	AmountSol        decimal.Decimal `json:"amount_sol"`
	TotalInvestedSol decimal.Decimal `json:"total_invested_sol"`
}

// VoteCastEvent reports a single DAO answer and whether it completed voting.
type VoteCastEvent struct {
	VoteID         uuid.UUID `json:"vote_id"`
	EventID        uuid.UUID `json:"event_id"`
	QuestionID     uuid.UUID `json:"question_id"`
	OptionID       uuid.UUID `json:"option_id"`
	InvestorID     uuid.UUID `json:"investor_id"`
	VotingComplete bool      `json:"voting_complete"`
}

// TicketsPurchasedEvent reports a ticket batch and its revenue split.
type TicketsPurchasedEvent struct {
	EventID        uuid.UUID       `json:"event_id"`
	BuyerID        uuid.UUID       `json:"buyer_id"`
	TicketIDs      []uuid.UUID     `json:"ticket_ids"`
	GrossSol       decimal.Decimal `json:"gross_sol"`
	PlatformFeeSol decimal.Decimal `json:"platform_fee_sol"`
	OrganizerSol   decimal.Decimal `json:"organizer_sol"`
	TicketsSold    int             `json:"tickets_sold"`
	SoldOut        bool            `json:"sold_out"`
}

// TicketCheckedInEvent reports an admission at the venue.
type TicketCheckedInEvent struct {
	TicketID    uuid.UUID `json:"ticket_id"`
	EventID     uuid.UUID `json:"event_id"`
	CheckedInBy uuid.UUID `json:"checked_in_by"`
	CheckedInAt time.Time `json:"checked_in_at"`
}

// DistributionComputedEvent carries the totals of a submitted distribution.
type DistributionComputedEvent struct {
	DistributionID       uuid.UUID       `json:"distribution_id"`
	EventID              uuid.UUID       `json:"event_id"`
	NetProfitSol         decimal.Decimal `json:"net_profit_sol"`
	InvestorPoolSol      decimal.Decimal `json:"investor_pool_sol"`
	OrganizerRetainedSol decimal.Decimal `json:"organizer_retained_sol"`
	PayoutCount          int             `json:"payout_count"`
}

// PayoutTransferredEvent reports one investor payout settled on the ledger.
type PayoutTransferredEvent struct {
	PayoutID       uuid.UUID       `json:"payout_id"`
	DistributionID uuid.UUID       `json:"distribution_id"`
	EventID        uuid.UUID       `json:"event_id"`
	InvestorID     uuid.UUID       `json:"investor_id"`
	InvestorWallet string          `json:"investor_wallet"`
	TotalReturnSol decimal.Decimal `json:"total_return_sol"`
	TxSignature    string          `json:"tx_signature"`
}
