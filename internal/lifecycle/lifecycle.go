// Package lifecycle is the authoritative event state machine. Every function is
// pure: callers load a consistent snapshot, call in, and persist the result.
package lifecycle

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mythra-labs/mythra-backend/pkg/db/models"
	"github.com/mythra-labs/mythra-backend/pkg/enums"
)

// DistributionEpsilon is the tolerance allowed between allocated ROI and the investor pool.
var DistributionEpsilon = decimal.New(1, -9)

// Actor identifies who is asking for a lifecycle change.
type Actor struct {
	ID   uuid.UUID
	Role enums.ActorRole
}

// SystemActor is used by background jobs and automatic transitions.
func SystemActor() Actor {
	return Actor{Role: enums.ActorRoleSystem}
}

// Financials are the organizer-submitted figures for income calculation.
type Financials struct {
	TotalRevenue         decimal.Decimal
	TotalCosts           decimal.Decimal
	InvestorSharePercent decimal.Decimal
}

// DistributionSummary describes the computed and executed ROI distribution.
type DistributionSummary struct {
	InvestorPool decimal.Decimal
	Allocated    decimal.Decimal
	Executed     bool
}

// TransitionContext is the auxiliary state a guard may need. Fields not
// relevant to the requested transition may be left empty.
type TransitionContext struct {
	Now           time.Time
	Questions     []models.DAOQuestion
	Investors     []uuid.UUID
	Votes         []models.DAOVote
	Financials    *Financials
	Distribution  *DistributionSummary
	AllowEmptyDAO bool
}

type guardFunc func(event models.Event, actor Actor, tc TransitionContext) *Rejection

type rule struct {
	roles []enums.ActorRole
	guard guardFunc
}

var (
	organizerOnly   = []enums.ActorRole{enums.ActorRoleOrganizer}
	adminOnly       = []enums.ActorRole{enums.ActorRoleAdmin}
	operators       = []enums.ActorRole{enums.ActorRoleOrganizer, enums.ActorRoleAdmin}
	operatorsSystem = []enums.ActorRole{enums.ActorRoleOrganizer, enums.ActorRoleAdmin, enums.ActorRoleSystem}
)

var transitions = buildTransitions()

func buildTransitions() map[enums.EventStatus]map[enums.EventStatus]rule {
	table := map[enums.EventStatus]map[enums.EventStatus]rule{
		enums.EventStatusDraft: {
			enums.EventStatusPendingApproval: {roles: organizerOnly, guard: requireEventFields},
		},
		enums.EventStatusPendingApproval: {
			enums.EventStatusInvestmentWindow: {roles: adminOnly},
			enums.EventStatusRejected:         {roles: adminOnly},
		},
		enums.EventStatusInvestmentWindow: {
			enums.EventStatusDAOProcess:     {roles: operatorsSystem, guard: requireQuestions},
			enums.EventStatusSellingTickets: {roles: operatorsSystem, guard: requireNoQuestions},
		},
		enums.EventStatusDAOProcess: {
			enums.EventStatusSellingTickets: {roles: operatorsSystem, guard: requireVotingComplete},
		},
		enums.EventStatusSellingTickets: {
			enums.EventStatusWaitingForEvent: {roles: operatorsSystem, guard: requireSalesClosable},
		},
		enums.EventStatusWaitingForEvent: {
			enums.EventStatusEventRunning: {roles: operatorsSystem, guard: requireStarted},
		},
		enums.EventStatusEventRunning: {
			enums.EventStatusCalculatingIncome: {roles: operatorsSystem, guard: requireEnded},
		},
		enums.EventStatusCalculatingIncome: {
			enums.EventStatusROIDistribution: {roles: operators, guard: requireFinancials},
		},
		enums.EventStatusROIDistribution: {
			enums.EventStatusCompleted: {roles: operatorsSystem, guard: requireDistributionExecuted},
		},
	}

	for _, status := range enums.EventStatuses() {
		if status.IsTerminal() {
			continue
		}
		if table[status] == nil {
			table[status] = map[enums.EventStatus]rule{}
		}
		table[status][enums.EventStatusCancelled] = rule{roles: operators}
	}
	return table
}

// CanTransition reports whether to is reachable from from, ignoring actor and guards.
func CanTransition(from, to enums.EventStatus) bool {
	_, ok := transitions[from][to]
	return ok
}

// Targets lists the statuses reachable from the given status.
func Targets(from enums.EventStatus) []enums.EventStatus {
	out := []enums.EventStatus{}
	for _, candidate := range enums.EventStatuses() {
		if CanTransition(from, candidate) {
			out = append(out, candidate)
		}
	}
	return out
}

// RequestTransition validates moving event to target and returns the updated
// event. The input event is never modified. Checks run in order: reachability,
// actor capability, then the transition guard.
func RequestTransition(event models.Event, target enums.EventStatus, actor Actor, tc TransitionContext) (models.Event, error) {
	from := event.Status
	r, ok := transitions[from][target]
	if !ok {
		return event, invalidTransition(from, target)
	}

	if !authorized(event, actor, r.roles) {
		return event, unauthorized(from, target, actor.Role)
	}

	now := tc.Now
	if now.IsZero() {
		now = time.Now().UTC()
		tc.Now = now
	}

	if r.guard != nil {
		if rej := r.guard(event, actor, tc); rej != nil {
			return event, rej
		}
	}

	next := event
	next.Status = target
	next.UpdatedAt = now
	if !now.After(event.UpdatedAt) {
		// clock skew between writers; keep updated_at strictly increasing
		next.UpdatedAt = event.UpdatedAt.Add(time.Microsecond)
	}
	return next, nil
}

// authorized checks the actor's role, and that organizers act only on their own events.
func authorized(event models.Event, actor Actor, roles []enums.ActorRole) bool {
	for _, role := range roles {
		if actor.Role != role {
			continue
		}
		if role == enums.ActorRoleOrganizer {
			return actor.ID != uuid.Nil && actor.ID == event.OrganizerID
		}
		return true
	}
	return false
}
