package enums

import (
	"fmt"
	"strings"
)

// EventStatus maps to the event_status enum in Postgres.
type EventStatus string

const (
	EventStatusDraft             EventStatus = "draft"
	EventStatusPendingApproval   EventStatus = "pending_approval"
	EventStatusRejected          EventStatus = "rejected"
	EventStatusInvestmentWindow  EventStatus = "investment_window"
	EventStatusDAOProcess        EventStatus = "dao_process"
	EventStatusSellingTickets    EventStatus = "selling_tickets"
	EventStatusWaitingForEvent   EventStatus = "waiting_for_event"
	EventStatusEventRunning      EventStatus = "event_running"
	EventStatusCalculatingIncome EventStatus = "calculating_income"
	EventStatusROIDistribution   EventStatus = "roi_distribution"
	EventStatusCompleted         EventStatus = "completed"
	EventStatusCancelled         EventStatus = "cancelled"
)

var validEventStatuses = []EventStatus{
	EventStatusDraft,
	EventStatusPendingApproval,
	EventStatusRejected,
	EventStatusInvestmentWindow,
	EventStatusDAOProcess,
	EventStatusSellingTickets,
	EventStatusWaitingForEvent,
	EventStatusEventRunning,
	EventStatusCalculatingIncome,
	EventStatusROIDistribution,
	EventStatusCompleted,
	EventStatusCancelled,
}

// legacy status names still found in older rows and clients.
var eventStatusAliases = map[string]EventStatus{
	"approved":   EventStatusInvestmentWindow,
	"dao_voting": EventStatusDAOProcess,
}

// EventStatuses returns every status in lifecycle order.
func EventStatuses() []EventStatus {
	out := make([]EventStatus, len(validEventStatuses))
	copy(out, validEventStatuses)
	return out
}

// String implements fmt.Stringer.
func (s EventStatus) String() string {
	return string(s)
}

// IsValid reports whether the value matches the canonical event_status enum.
func (s EventStatus) IsValid() bool {
	for _, candidate := range validEventStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition can leave this status.
func (s EventStatus) IsTerminal() bool {
	switch s {
	case EventStatusRejected, EventStatusCompleted, EventStatusCancelled:
		return true
	default:
		return false
	}
}

// unpublished statuses are only visible to admins and the owning organizer.
var unpublishedEventStatuses = []EventStatus{
	EventStatusDraft,
	EventStatusPendingApproval,
	EventStatusRejected,
}

// UnpublishedEventStatuses returns the statuses hidden from public listings.
func UnpublishedEventStatuses() []EventStatus {
	out := make([]EventStatus, len(unpublishedEventStatuses))
	copy(out, unpublishedEventStatuses)
	return out
}

// IsPublished reports whether the event has passed admin review.
func (s EventStatus) IsPublished() bool {
	for _, candidate := range unpublishedEventStatuses {
		if candidate == s {
			return false
		}
	}
	return s.IsValid()
}

// ParseEventStatus converts raw input into EventStatus, accepting legacy aliases.
func ParseEventStatus(value string) (EventStatus, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validEventStatuses {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	if alias, ok := eventStatusAliases[normalized]; ok {
		return alias, nil
	}
	return "", fmt.Errorf("invalid event status %q", value)
}
