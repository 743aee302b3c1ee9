package lifecycle

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mythra-labs/mythra-backend/pkg/db/models"
	"github.com/mythra-labs/mythra-backend/pkg/enums"
)

// questionAuthoringStatuses are the statuses in which DAO questions may change.
var questionAuthoringStatuses = []enums.EventStatus{
	enums.EventStatusDraft,
	enums.EventStatusPendingApproval,
	enums.EventStatusInvestmentWindow,
}

func gateFailed(event models.Event, reason enums.GuardReason, details map[string]any) *Rejection {
	return &Rejection{Kind: ErrGuardFailed, From: event.Status, Reason: reason, Details: details}
}

// CanInvest enforces the investment window, one investment per investor and the vault cap.
func CanInvest(event models.Event, investorID uuid.UUID, amount decimal.Decimal, existing []models.Investment) error {
	if event.Status != enums.EventStatusInvestmentWindow {
		return gateFailed(event, enums.GuardWindowClosed, nil)
	}
	if !amount.IsPositive() {
		return gateFailed(event, enums.GuardInvalidAmount, map[string]any{"amount_sol": amount.String()})
	}

	total := decimal.Zero
	for _, inv := range existing {
		if inv.EventID != event.ID {
			continue
		}
		if inv.InvestorID == investorID {
			return gateFailed(event, enums.GuardAlreadyInvested, map[string]any{"investment_id": inv.ID.String()})
		}
		total = total.Add(inv.AmountSol)
	}

	if event.VaultCapSol.IsPositive() && total.Add(amount).GreaterThan(event.VaultCapSol) {
		return gateFailed(event, enums.GuardVaultCapExceeded, map[string]any{
			"vault_cap_sol": event.VaultCapSol.String(),
			"remaining_sol": decimal.Max(event.VaultCapSol.Sub(total), decimal.Zero).String(),
		})
	}
	return nil
}

// CanAuthorQuestions checks that actor may add, edit or delete questions. A
// question is locked once any vote references it.
func CanAuthorQuestions(event models.Event, actor Actor, votesOnQuestion int) error {
	if !authorized(event, actor, []enums.ActorRole{enums.ActorRoleOrganizer, enums.ActorRoleAdmin}) {
		return &Rejection{Kind: ErrUnauthorized, From: event.Status, Details: map[string]any{"role": string(actor.Role)}}
	}
	allowed := false
	for _, status := range questionAuthoringStatuses {
		if event.Status == status {
			allowed = true
			break
		}
	}
	if !allowed {
		return gateFailed(event, enums.GuardWindowClosed, nil)
	}
	if votesOnQuestion > 0 {
		return gateFailed(event, enums.GuardQuestionLocked, map[string]any{"votes": votesOnQuestion})
	}
	return nil
}

// CanVote checks a single ballot against the event snapshot.
func CanVote(event models.Event, investorID uuid.UUID, question models.DAOQuestion, optionID uuid.UUID, investors []uuid.UUID, votes []models.DAOVote) error {
	if event.Status != enums.EventStatusDAOProcess {
		return gateFailed(event, enums.GuardWindowClosed, nil)
	}
	if question.EventID != event.ID || !question.HasOption(optionID) {
		return gateFailed(event, enums.GuardInvalidOption, map[string]any{
			"question_id": question.ID.String(),
			"option_id":   optionID.String(),
		})
	}

	isInvestor := false
	for _, id := range investors {
		if id == investorID {
			isInvestor = true
			break
		}
	}
	if !isInvestor {
		return gateFailed(event, enums.GuardNotAnInvestor, nil)
	}

	for _, v := range votes {
		if v.InvestorID == investorID && v.QuestionID == question.ID {
			return gateFailed(event, enums.GuardAlreadyVoted, map[string]any{"vote_id": v.ID.String()})
		}
	}
	return nil
}

// CanPurchaseTickets checks sales status and remaining capacity.
func CanPurchaseTickets(event models.Event, quantity int) error {
	if event.Status != enums.EventStatusSellingTickets {
		return gateFailed(event, enums.GuardSalesClosed, nil)
	}
	if quantity <= 0 {
		return gateFailed(event, enums.GuardInvalidAmount, map[string]any{"quantity": quantity})
	}
	if event.TicketsSold+quantity > event.MaxTickets {
		return gateFailed(event, enums.GuardCapacityExceeded, map[string]any{
			"tickets_remaining": event.TicketsRemaining(),
			"requested":         quantity,
		})
	}
	return nil
}

// CanCheckIn admits a ticket holder once the event has closed sales and until it ends.
func CanCheckIn(event models.Event, actor Actor, ticket models.Ticket) error {
	if actor.Role != enums.ActorRoleStaff && actor.Role != enums.ActorRoleAdmin {
		return &Rejection{Kind: ErrUnauthorized, From: event.Status, Details: map[string]any{"role": string(actor.Role)}}
	}
	if event.Status != enums.EventStatusWaitingForEvent && event.Status != enums.EventStatusEventRunning {
		return gateFailed(event, enums.GuardWindowClosed, nil)
	}
	if ticket.Status == enums.TicketStatusCheckedIn {
		details := map[string]any{"ticket_id": ticket.ID.String()}
		if ticket.CheckedInAt != nil {
			details["checked_in_at"] = ticket.CheckedInAt.UTC()
		}
		return gateFailed(event, enums.GuardAlreadyCheckedIn, details)
	}
	return nil
}
