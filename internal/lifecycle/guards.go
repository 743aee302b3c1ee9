package lifecycle

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mythra-labs/mythra-backend/pkg/db/models"
	"github.com/mythra-labs/mythra-backend/pkg/enums"
)

var hundred = decimal.NewFromInt(100)

// SharePercentPlaces is the scale of the stored investor_share_percent
// columns (numeric(5,2)).
const SharePercentPlaces int32 = 2

// ValidSharePercent reports whether p is within 0..100 and fits the stored scale.
func ValidSharePercent(p decimal.Decimal) bool {
	if p.IsNegative() || p.GreaterThan(hundred) {
		return false
	}
	return p.Equal(p.Truncate(SharePercentPlaces))
}

// MissingEventFields lists the required fields an event still lacks before review.
func MissingEventFields(event models.Event) []string {
	missing := []string{}
	if strings.TrimSpace(event.Name) == "" {
		missing = append(missing, "name")
	}
	if event.StartsAt == nil || event.StartsAt.IsZero() {
		missing = append(missing, "starts_at")
	}
	if strings.TrimSpace(event.Venue) == "" {
		missing = append(missing, "venue")
	}
	if !event.TicketPriceSol.IsPositive() {
		missing = append(missing, "ticket_price_sol")
	}
	if event.MaxTickets <= 0 {
		missing = append(missing, "max_tickets")
	}
	return missing
}

func requireEventFields(event models.Event, _ Actor, _ TransitionContext) *Rejection {
	missing := MissingEventFields(event)
	if len(missing) == 0 {
		return nil
	}
	return guardFailed(event.Status, enums.EventStatusPendingApproval, enums.GuardMissingRequiredFields,
		map[string]any{"missing_fields": missing})
}

func requireQuestions(event models.Event, _ Actor, tc TransitionContext) *Rejection {
	if len(tc.Questions) > 0 {
		return nil
	}
	return guardFailed(event.Status, enums.EventStatusDAOProcess, enums.GuardNoQuestions, nil)
}

// requireNoQuestions lets events without DAO questions skip dao_process entirely.
func requireNoQuestions(event models.Event, _ Actor, tc TransitionContext) *Rejection {
	if len(tc.Questions) == 0 {
		return nil
	}
	return guardFailed(event.Status, enums.EventStatusSellingTickets, enums.GuardQuestionsDefined,
		map[string]any{"questions": len(tc.Questions)})
}

func requireVotingComplete(event models.Event, _ Actor, tc TransitionContext) *Rejection {
	status := CheckVotingComplete(tc.Questions, tc.Investors, tc.Votes)
	if status.TotalInvestors == 0 {
		if tc.AllowEmptyDAO {
			return nil
		}
		return guardFailed(event.Status, enums.EventStatusSellingTickets, enums.GuardNoInvestors, nil)
	}
	if status.AllVoted {
		return nil
	}
	return guardFailed(event.Status, enums.EventStatusSellingTickets, enums.GuardVotingIncomplete,
		map[string]any{"pending_votes": status.PendingVotes()})
}

// requireSalesClosable allows organizers and admins to close sales early; the
// system closes only once sold out.
func requireSalesClosable(event models.Event, actor Actor, _ TransitionContext) *Rejection {
	if event.TicketsSold > event.MaxTickets {
		return guardFailed(event.Status, enums.EventStatusWaitingForEvent, enums.GuardCapacityExceeded,
			map[string]any{"tickets_sold": event.TicketsSold, "max_tickets": event.MaxTickets})
	}
	if actor.Role == enums.ActorRoleSystem && event.TicketsSold < event.MaxTickets {
		return guardFailed(event.Status, enums.EventStatusWaitingForEvent, enums.GuardTicketsRemaining,
			map[string]any{"tickets_remaining": event.TicketsRemaining()})
	}
	return nil
}

func requireStarted(event models.Event, _ Actor, tc TransitionContext) *Rejection {
	if event.StartsAt == nil {
		return guardFailed(event.Status, enums.EventStatusEventRunning, enums.GuardMissingRequiredFields,
			map[string]any{"missing_fields": []string{"starts_at"}})
	}
	if tc.Now.Before(*event.StartsAt) {
		return guardFailed(event.Status, enums.EventStatusEventRunning, enums.GuardEventNotStarted,
			map[string]any{"starts_at": event.StartsAt.UTC()})
	}
	return nil
}

func requireEnded(event models.Event, _ Actor, tc TransitionContext) *Rejection {
	if event.EndsAt != nil && tc.Now.Before(*event.EndsAt) {
		return guardFailed(event.Status, enums.EventStatusCalculatingIncome, enums.GuardEventNotEnded,
			map[string]any{"ends_at": event.EndsAt.UTC()})
	}
	return nil
}

// ValidateFinancials checks organizer-submitted figures.
func ValidateFinancials(f Financials) []string {
	problems := []string{}
	if f.TotalRevenue.IsNegative() {
		problems = append(problems, "total_revenue must be >= 0")
	}
	if f.TotalCosts.IsNegative() {
		problems = append(problems, "total_costs must be >= 0")
	}
	if !ValidSharePercent(f.InvestorSharePercent) {
		problems = append(problems, "investor_share_percent must be between 0 and 100 with at most 2 decimals")
	}
	return problems
}

func requireFinancials(event models.Event, _ Actor, tc TransitionContext) *Rejection {
	if tc.Financials == nil {
		return guardFailed(event.Status, enums.EventStatusROIDistribution, enums.GuardInvalidFinancials,
			map[string]any{"problems": []string{"figures not submitted"}})
	}
	if problems := ValidateFinancials(*tc.Financials); len(problems) > 0 {
		return guardFailed(event.Status, enums.EventStatusROIDistribution, enums.GuardInvalidFinancials,
			map[string]any{"problems": problems})
	}
	return nil
}

func requireDistributionExecuted(event models.Event, _ Actor, tc TransitionContext) *Rejection {
	d := tc.Distribution
	if d == nil || !d.Executed {
		return guardFailed(event.Status, enums.EventStatusCompleted, enums.GuardDistributionNotExecuted, nil)
	}
	if d.Allocated.GreaterThan(d.InvestorPool.Add(DistributionEpsilon)) {
		return guardFailed(event.Status, enums.EventStatusCompleted, enums.GuardDistributionMismatch,
			map[string]any{"allocated": d.Allocated.String(), "investor_pool": d.InvestorPool.String()})
	}
	return nil
}
