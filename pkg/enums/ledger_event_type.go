package enums

import "fmt"

// LedgerEventType maps to the ledger_event_type enum in Postgres.
type LedgerEventType string

const (
	LedgerEventTypeInvestmentReceived LedgerEventType = "investment_received"
	LedgerEventTypeTicketSale         LedgerEventType = "ticket_sale"
	LedgerEventTypePlatformFee        LedgerEventType = "platform_fee"
	LedgerEventTypeROIPayout          LedgerEventType = "roi_payout"
	LedgerEventTypeOrganizerPayout    LedgerEventType = "organizer_payout"
)

var validLedgerEventTypes = []LedgerEventType{
	LedgerEventTypeInvestmentReceived,
	LedgerEventTypeTicketSale,
	LedgerEventTypePlatformFee,
	LedgerEventTypeROIPayout,
	LedgerEventTypeOrganizerPayout,
}

// IsValid reports whether the value matches the canonical ledger event enum.
func (t LedgerEventType) IsValid() bool {
	for _, candidate := range validLedgerEventTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseLedgerEventType converts raw input into LedgerEventType.
func ParseLedgerEventType(value string) (LedgerEventType, error) {
	for _, candidate := range validLedgerEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid ledger event type %q", value)
}
