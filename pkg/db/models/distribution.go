package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mythra-labs/mythra-backend/pkg/enums"
)

// EventDistribution records the submitted figures and computed ROI totals for an event.
type EventDistribution struct {
	ID                   uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	EventID              uuid.UUID       `gorm:"column:event_id;type:uuid;not null"`
	TotalRevenueSol      decimal.Decimal `gorm:"column:total_revenue_sol;type:numeric(20,9);not null"`
	TotalCostsSol        decimal.Decimal `gorm:"column:total_costs_sol;type:numeric(20,9);not null"`
	InvestorSharePercent decimal.Decimal `gorm:"column:investor_share_percent;type:numeric(5,2);not null"`
	NetProfitSol         decimal.Decimal `gorm:"column:net_profit_sol;type:numeric(20,9);not null"`
	InvestorPoolSol      decimal.Decimal `gorm:"column:investor_pool_sol;type:numeric(20,9);not null"`
	OrganizerRetainedSol decimal.Decimal `gorm:"column:organizer_retained_sol;type:numeric(20,9);not null"`
	TotalInvestedSol     decimal.Decimal `gorm:"column:total_invested_sol;type:numeric(20,9);not null"`
	SubmittedBy          uuid.UUID       `gorm:"column:submitted_by;type:uuid;not null"`
	ExecutedAt           *time.Time      `gorm:"column:executed_at"`
	Payouts              []ROIPayout     `gorm:"foreignKey:DistributionID;constraint:OnDelete:CASCADE"`
	CreatedAt            time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (d *EventDistribution) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

// AllocatedSol sums the ROI of every payout row.
func (d EventDistribution) AllocatedSol() decimal.Decimal {
	total := decimal.Zero
	for _, p := range d.Payouts {
		total = total.Add(p.ROIAmountSol)
	}
	return total
}

// ROIPayout is a single investor's return, transferred through the ledger.
type ROIPayout struct {
	ID             uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	DistributionID uuid.UUID          `gorm:"column:distribution_id;type:uuid;not null"`
	EventID        uuid.UUID          `gorm:"column:event_id;type:uuid;not null"`
	InvestmentID   uuid.UUID          `gorm:"column:investment_id;type:uuid;not null"`
	InvestorID     uuid.UUID          `gorm:"column:investor_id;type:uuid;not null"`
	InvestorWallet string             `gorm:"column:investor_wallet;not null"`
	AmountSol      decimal.Decimal    `gorm:"column:amount_sol;type:numeric(20,9);not null"`
	ROIAmountSol   decimal.Decimal    `gorm:"column:roi_amount_sol;type:numeric(20,9);not null"`
	TotalReturnSol decimal.Decimal    `gorm:"column:total_return_sol;type:numeric(20,9);not null"`
	Status         enums.PayoutStatus `gorm:"column:status;type:payout_status;not null;default:'pending'"`
	TxSignature    *string            `gorm:"column:tx_signature"`
	Attempts       int                `gorm:"column:attempts;not null;default:0"`
	LastError      *string            `gorm:"column:last_error"`
	TransferredAt  *time.Time         `gorm:"column:transferred_at"`
	CreatedAt      time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

func (ROIPayout) TableName() string { return "roi_payouts" }

func (p *ROIPayout) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Status == "" {
		p.Status = enums.PayoutStatusPending
	}
	return nil
}
