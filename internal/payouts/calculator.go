// Package payouts computes ROI distributions and revenue splits. Nothing here
// moves value; callers persist results and invoke the ledger per allocation.
package payouts

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultRoundingPlaces matches lamport precision (1 SOL = 1e9 lamports).
const DefaultRoundingPlaces int32 = 9

// MaxRoundingPlaces is the scale of the stored SOL columns (numeric(20,9)).
// Rounding any finer would let Postgres round each payout again on write.
const MaxRoundingPlaces int32 = 9

// workingPlaces is the precision used before rounding allocations.
const workingPlaces int32 = 24

var (
	ErrNoInvestorsToDistributeTo = errors.New("no investors to distribute to")
	ErrRoundingResidualOverflow  = errors.New("rounding residual overflow")
	ErrInvalidInput              = errors.New("invalid distribution input")
)

var hundred = decimal.NewFromInt(100)

// InvestmentShare is one investor's stake in the pool.
type InvestmentShare struct {
	InvestmentID uuid.UUID
	InvestorID   uuid.UUID
	AmountSol    decimal.Decimal
}

// Input carries the figures for a distribution.
type Input struct {
	TotalRevenue         decimal.Decimal
	TotalCosts           decimal.Decimal
	InvestorSharePercent decimal.Decimal
	Investments          []InvestmentShare
	// RoundingPlaces is the scale of every allocation, 1 to MaxRoundingPlaces.
	// Zero is the unset value and selects DefaultRoundingPlaces.
	RoundingPlaces int32
}

// Allocation is the computed return for one investment.
type Allocation struct {
	InvestmentID uuid.UUID       `json:"investment_id"`
	InvestorID   uuid.UUID       `json:"investor_id"`
	AmountSol    decimal.Decimal `json:"amount_sol"`
	ROIAmount    decimal.Decimal `json:"roi_amount"`
	TotalReturn  decimal.Decimal `json:"total_return"`
}

// Breakdown is the full result of ComputeDistribution.
type Breakdown struct {
	TotalRevenue         decimal.Decimal `json:"total_revenue"`
	TotalCosts           decimal.Decimal `json:"total_costs"`
	InvestorSharePercent decimal.Decimal `json:"investor_share_percent"`
	NetProfit            decimal.Decimal `json:"net_profit"`
	InvestorPool         decimal.Decimal `json:"investor_pool"`
	OrganizerRetained    decimal.Decimal `json:"organizer_retained"`
	TotalInvested        decimal.Decimal `json:"total_invested"`
	Allocations          []Allocation    `json:"allocations"`
}

// Allocated sums every allocation's ROI.
func (b Breakdown) Allocated() decimal.Decimal {
	total := decimal.Zero
	for _, a := range b.Allocations {
		total = total.Add(a.ROIAmount)
	}
	return total
}

// ComputeDistribution splits net profit between the organizer and investors,
// and the investor pool pro rata across investments. Each ROI is rounded half-up
// to the configured places and the residual is applied to the largest
// allocation, so allocations always sum exactly to the pool. A net loss yields
// an empty pool; the organizer carries the loss.
func ComputeDistribution(in Input) (*Breakdown, error) {
	if err := validate(in); err != nil {
		return nil, err
	}
	places := in.RoundingPlaces
	if places == 0 {
		places = DefaultRoundingPlaces
	}

	netProfit := in.TotalRevenue.Sub(in.TotalCosts)
	pool := decimal.Zero
	if netProfit.IsPositive() {
		pool = netProfit.Mul(in.InvestorSharePercent).DivRound(hundred, workingPlaces).Round(places)
	}

	totalInvested := decimal.Zero
	for _, inv := range in.Investments {
		totalInvested = totalInvested.Add(inv.AmountSol)
	}

	if pool.IsPositive() && !totalInvested.IsPositive() {
		return nil, ErrNoInvestorsToDistributeTo
	}

	out := &Breakdown{
		TotalRevenue:         in.TotalRevenue,
		TotalCosts:           in.TotalCosts,
		InvestorSharePercent: in.InvestorSharePercent,
		NetProfit:            netProfit,
		InvestorPool:         pool,
		OrganizerRetained:    netProfit.Sub(pool),
		TotalInvested:        totalInvested,
		Allocations:          make([]Allocation, 0, len(in.Investments)),
	}

	sum := decimal.Zero
	largest := -1
	for i, inv := range in.Investments {
		roi := decimal.Zero
		if pool.IsPositive() {
			roi = pool.Mul(inv.AmountSol).DivRound(totalInvested, workingPlaces).Round(places)
		}
		sum = sum.Add(roi)
		out.Allocations = append(out.Allocations, Allocation{
			InvestmentID: inv.InvestmentID,
			InvestorID:   inv.InvestorID,
			AmountSol:    inv.AmountSol,
			ROIAmount:    roi,
		})
		if largest < 0 || roi.GreaterThan(out.Allocations[largest].ROIAmount) {
			largest = i
		}
	}

	residual := pool.Sub(sum)
	if !residual.IsZero() {
		// each rounding moves at most half a unit in the last place
		maxDrift := decimal.New(5, -(places + 1)).Mul(decimal.NewFromInt(int64(len(out.Allocations))))
		if largest < 0 || residual.Abs().GreaterThan(maxDrift) {
			return nil, fmt.Errorf("%w: residual %s", ErrRoundingResidualOverflow, residual)
		}
		adjusted := out.Allocations[largest].ROIAmount.Add(residual)
		if adjusted.IsNegative() {
			return nil, fmt.Errorf("%w: residual %s", ErrRoundingResidualOverflow, residual)
		}
		out.Allocations[largest].ROIAmount = adjusted
	}

	for i := range out.Allocations {
		out.Allocations[i].TotalReturn = out.Allocations[i].AmountSol.Add(out.Allocations[i].ROIAmount)
	}

	if !out.Allocated().Equal(pool) {
		return nil, fmt.Errorf("%w: allocated %s of %s", ErrRoundingResidualOverflow, out.Allocated(), pool)
	}
	return out, nil
}

func validate(in Input) error {
	if in.TotalRevenue.IsNegative() {
		return fmt.Errorf("%w: total revenue must be >= 0", ErrInvalidInput)
	}
	if in.TotalCosts.IsNegative() {
		return fmt.Errorf("%w: total costs must be >= 0", ErrInvalidInput)
	}
	if in.InvestorSharePercent.IsNegative() || in.InvestorSharePercent.GreaterThan(hundred) {
		return fmt.Errorf("%w: investor share percent must be between 0 and 100", ErrInvalidInput)
	}
	if err := validatePlaces(in.RoundingPlaces); err != nil {
		return err
	}
	for _, inv := range in.Investments {
		if inv.AmountSol.IsNegative() {
			return fmt.Errorf("%w: investment %s has a negative amount", ErrInvalidInput, inv.InvestmentID)
		}
	}
	if in.InvestorSharePercent.IsPositive() && len(in.Investments) == 0 {
		return ErrNoInvestorsToDistributeTo
	}
	return nil
}

func validatePlaces(places int32) error {
	if places < 0 || places > MaxRoundingPlaces {
		return fmt.Errorf("%w: rounding places must be between 1 and %d", ErrInvalidInput, MaxRoundingPlaces)
	}
	return nil
}
