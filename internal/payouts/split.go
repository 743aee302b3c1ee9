package payouts

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// DefaultPlatformFeePercent is the platform's cut of ticket revenue.
var DefaultPlatformFeePercent = decimal.NewFromInt(5)

// RevenueSplit divides gross ticket revenue between the platform and the organizer.
type RevenueSplit struct {
	Gross        decimal.Decimal `json:"gross"`
	PlatformFee  decimal.Decimal `json:"platform_fee"`
	OrganizerNet decimal.Decimal `json:"organizer_net"`
}

// SplitTicketRevenue applies the platform fee to gross revenue. The fee is
// rounded half-up and the organizer receives the exact remainder.
func SplitTicketRevenue(gross, feePercent decimal.Decimal, places int32) (RevenueSplit, error) {
	if gross.IsNegative() {
		return RevenueSplit{}, fmt.Errorf("%w: gross revenue must be >= 0", ErrInvalidInput)
	}
	if feePercent.IsNegative() || feePercent.GreaterThan(hundred) {
		return RevenueSplit{}, fmt.Errorf("%w: fee percent must be between 0 and 100", ErrInvalidInput)
	}
	if err := validatePlaces(places); err != nil {
		return RevenueSplit{}, err
	}
	if places == 0 {
		places = DefaultRoundingPlaces
	}
	fee := gross.Mul(feePercent).DivRound(hundred, workingPlaces).Round(places)
	return RevenueSplit{
		Gross:        gross,
		PlatformFee:  fee,
		OrganizerNet: gross.Sub(fee),
	}, nil
}
