package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateEvent        OutboxAggregateType = "event"
	AggregateInvestment   OutboxAggregateType = "investment"
	AggregateDAOVote      OutboxAggregateType = "dao_vote"
	AggregateTicket       OutboxAggregateType = "ticket"
	AggregateDistribution OutboxAggregateType = "distribution"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateEvent,
	AggregateInvestment,
	AggregateDAOVote,
	AggregateTicket,
	AggregateDistribution,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventStatusChanged        OutboxEventType = "event_status_changed"
	EventInvestmentReceived   OutboxEventType = "investment_received"
	EventVoteCast             OutboxEventType = "vote_cast"
	EventTicketsPurchased     OutboxEventType = "tickets_purchased"
	EventTicketCheckedIn      OutboxEventType = "ticket_checked_in"
	EventDistributionComputed OutboxEventType = "distribution_computed"
	EventPayoutTransferred    OutboxEventType = "payout_transferred"
)

var validOutboxEventTypes = []OutboxEventType{
	EventStatusChanged,
	EventInvestmentReceived,
	EventVoteCast,
	EventTicketsPurchased,
	EventTicketCheckedIn,
	EventDistributionComputed,
	EventPayoutTransferred,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
