package payouts

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func shares(amounts ...string) []InvestmentShare {
	out := make([]InvestmentShare, 0, len(amounts))
	for _, a := range amounts {
		out = append(out, InvestmentShare{InvestmentID: uuid.New(), InvestorID: uuid.New(), AmountSol: d(a)})
	}
	return out
}

func TestComputeDistributionReferenceExample(t *testing.T) {
	out, err := ComputeDistribution(Input{
		TotalRevenue:         d("100"),
		TotalCosts:           d("30"),
		InvestorSharePercent: d("20"),
		Investments:          shares("60", "40"),
	})
	require.NoError(t, err)

	assert.True(t, out.NetProfit.Equal(d("70")), "net profit %s", out.NetProfit)
	assert.True(t, out.InvestorPool.Equal(d("14")), "pool %s", out.InvestorPool)
	assert.True(t, out.OrganizerRetained.Equal(d("56")), "retained %s", out.OrganizerRetained)
	assert.True(t, out.TotalInvested.Equal(d("100")))

	require.Len(t, out.Allocations, 2)
	assert.True(t, out.Allocations[0].ROIAmount.Equal(d("8.4")), "A roi %s", out.Allocations[0].ROIAmount)
	assert.True(t, out.Allocations[1].ROIAmount.Equal(d("5.6")), "B roi %s", out.Allocations[1].ROIAmount)
	assert.True(t, out.Allocations[0].TotalReturn.Equal(d("68.4")))
	assert.True(t, out.Allocated().Equal(d("14")))
}

func TestComputeDistributionSumInvariant(t *testing.T) {
	cases := []struct {
		name    string
		revenue string
		costs   string
		share   string
		amounts []string
		places  int32
	}{
		{name: "thirds", revenue: "10", costs: "0", share: "100", amounts: []string{"1", "1", "1"}, places: 2},
		{name: "sevenths", revenue: "1", costs: "0", share: "33.33", amounts: []string{"1", "2", "3", "4", "5", "6", "7"}},
		{name: "micro pool", revenue: "0.000001", costs: "0", share: "50", amounts: []string{"1", "1", "1"}},
		{name: "uneven", revenue: "1234.56789", costs: "234.5", share: "17.5", amounts: []string{"0.3", "12.25", "99", "0.000000001"}},
		{name: "break even", revenue: "50", costs: "50", share: "20", amounts: []string{"5", "5"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := ComputeDistribution(Input{
				TotalRevenue:         d(tc.revenue),
				TotalCosts:           d(tc.costs),
				InvestorSharePercent: d(tc.share),
				Investments:          shares(tc.amounts...),
				RoundingPlaces:       tc.places,
			})
			require.NoError(t, err)
			assert.True(t, out.Allocated().Equal(out.InvestorPool), "allocated %s pool %s", out.Allocated(), out.InvestorPool)
			assert.True(t, out.OrganizerRetained.Add(out.InvestorPool).Equal(out.NetProfit))
			for _, a := range out.Allocations {
				assert.False(t, a.ROIAmount.IsNegative())
				assert.True(t, a.TotalReturn.Equal(a.AmountSol.Add(a.ROIAmount)))
			}
		})
	}
}

func TestComputeDistributionLargestAbsorbsResidual(t *testing.T) {
	out, err := ComputeDistribution(Input{
		TotalRevenue:         d("10"),
		TotalCosts:           d("0"),
		InvestorSharePercent: d("100"),
		Investments:          shares("1", "1", "1"),
		RoundingPlaces:       2,
	})
	require.NoError(t, err)
	assert.True(t, out.Allocations[0].ROIAmount.Equal(d("3.34")), "first %s", out.Allocations[0].ROIAmount)
	assert.True(t, out.Allocations[1].ROIAmount.Equal(d("3.33")))
	assert.True(t, out.Allocations[2].ROIAmount.Equal(d("3.33")))
}

func TestComputeDistributionProportionality(t *testing.T) {
	base := shares("10", "20", "30")
	in := Input{TotalRevenue: d("500"), TotalCosts: d("120"), InvestorSharePercent: d("35"), Investments: base}
	before, err := ComputeDistribution(in)
	require.NoError(t, err)

	doubled := make([]InvestmentShare, len(base))
	copy(doubled, base)
	doubled[1].AmountSol = doubled[1].AmountSol.Mul(decimal.NewFromInt(2))
	in.Investments = doubled
	after, err := ComputeDistribution(in)
	require.NoError(t, err)

	assert.True(t, after.Allocations[1].ROIAmount.GreaterThan(before.Allocations[1].ROIAmount))
	for _, i := range []int{0, 2} {
		assert.False(t, after.Allocations[i].ROIAmount.GreaterThan(before.Allocations[i].ROIAmount), "investor %d gained", i)
	}
}

func TestComputeDistributionZeroShare(t *testing.T) {
	out, err := ComputeDistribution(Input{
		TotalRevenue:         d("100"),
		TotalCosts:           d("30"),
		InvestorSharePercent: decimal.Zero,
		Investments:          shares("60", "40"),
	})
	require.NoError(t, err)
	assert.True(t, out.InvestorPool.IsZero())
	assert.True(t, out.OrganizerRetained.Equal(out.NetProfit))
	for _, a := range out.Allocations {
		assert.True(t, a.ROIAmount.IsZero())
	}

	empty, err := ComputeDistribution(Input{TotalRevenue: d("10"), TotalCosts: d("2"), InvestorSharePercent: decimal.Zero})
	require.NoError(t, err)
	assert.Empty(t, empty.Allocations)
}

func TestComputeDistributionNetLoss(t *testing.T) {
	out, err := ComputeDistribution(Input{
		TotalRevenue:         d("20"),
		TotalCosts:           d("50"),
		InvestorSharePercent: d("20"),
		Investments:          shares("10"),
	})
	require.NoError(t, err)
	assert.True(t, out.InvestorPool.IsZero())
	assert.True(t, out.OrganizerRetained.Equal(d("-30")))
	assert.True(t, out.Allocations[0].TotalReturn.Equal(d("10")))
}

func TestComputeDistributionErrors(t *testing.T) {
	_, err := ComputeDistribution(Input{TotalRevenue: d("100"), TotalCosts: d("0"), InvestorSharePercent: d("20")})
	assert.True(t, errors.Is(err, ErrNoInvestorsToDistributeTo))

	_, err = ComputeDistribution(Input{
		TotalRevenue:         d("100"),
		TotalCosts:           d("0"),
		InvestorSharePercent: d("20"),
		Investments:          shares("0", "0"),
	})
	assert.True(t, errors.Is(err, ErrNoInvestorsToDistributeTo))

	_, err = ComputeDistribution(Input{TotalRevenue: d("-1"), TotalCosts: d("0"), InvestorSharePercent: d("0")})
	assert.True(t, errors.Is(err, ErrInvalidInput))

	_, err = ComputeDistribution(Input{TotalRevenue: d("1"), TotalCosts: d("0"), InvestorSharePercent: d("100.01"), Investments: shares("1")})
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestSplitTicketRevenue(t *testing.T) {
	split, err := SplitTicketRevenue(d("12.5"), DefaultPlatformFeePercent, 0)
	require.NoError(t, err)
	assert.True(t, split.PlatformFee.Equal(d("0.625")))
	assert.True(t, split.OrganizerNet.Equal(d("11.875")))
	assert.True(t, split.PlatformFee.Add(split.OrganizerNet).Equal(split.Gross))

	odd, err := SplitTicketRevenue(d("0.000000011"), DefaultPlatformFeePercent, 0)
	require.NoError(t, err)
	assert.True(t, odd.PlatformFee.Add(odd.OrganizerNet).Equal(odd.Gross))

	_, err = SplitTicketRevenue(d("-1"), DefaultPlatformFeePercent, 0)
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestRoundingPlacesBoundedByStoredScale(t *testing.T) {
	_, err := ComputeDistribution(Input{
		TotalRevenue:         d("10"),
		TotalCosts:           d("0"),
		InvestorSharePercent: d("100"),
		Investments:          shares("1", "1", "1"),
		RoundingPlaces:       12,
	})
	assert.True(t, errors.Is(err, ErrInvalidInput))

	_, err = SplitTicketRevenue(d("1"), DefaultPlatformFeePercent, MaxRoundingPlaces+1)
	assert.True(t, errors.Is(err, ErrInvalidInput))

	out, err := ComputeDistribution(Input{
		TotalRevenue:         d("10"),
		TotalCosts:           d("0"),
		InvestorSharePercent: d("100"),
		Investments:          shares("1", "1", "1"),
		RoundingPlaces:       MaxRoundingPlaces,
	})
	require.NoError(t, err)
	sum := decimal.Zero
	for _, a := range out.Allocations {
		assert.True(t, a.ROIAmount.Equal(a.ROIAmount.Round(MaxRoundingPlaces)))
		sum = sum.Add(a.ROIAmount)
	}
	assert.True(t, sum.Equal(out.InvestorPool))
}
