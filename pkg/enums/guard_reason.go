package enums

// GuardReason names the lifecycle precondition that rejected a request.
type GuardReason string

const (
	GuardMissingRequiredFields   GuardReason = "MISSING_REQUIRED_FIELDS"
	GuardNoQuestions             GuardReason = "NO_QUESTIONS"
	GuardQuestionsDefined        GuardReason = "QUESTIONS_DEFINED"
	GuardVotingIncomplete        GuardReason = "VOTING_INCOMPLETE"
	GuardNoInvestors             GuardReason = "NO_INVESTORS"
	GuardCapacityExceeded        GuardReason = "CAPACITY_EXCEEDED"
	GuardTicketsRemaining        GuardReason = "TICKETS_REMAINING"
	GuardEventNotStarted         GuardReason = "EVENT_NOT_STARTED"
	GuardEventNotEnded           GuardReason = "EVENT_NOT_ENDED"
	GuardInvalidFinancials       GuardReason = "INVALID_FINANCIALS"
	GuardDistributionMismatch    GuardReason = "DISTRIBUTION_MISMATCH"
	GuardDistributionNotExecuted GuardReason = "DISTRIBUTION_NOT_EXECUTED"
	GuardWindowClosed            GuardReason = "WINDOW_CLOSED"
	GuardAlreadyInvested         GuardReason = "ALREADY_INVESTED"
	GuardVaultCapExceeded        GuardReason = "VAULT_CAP_EXCEEDED"
	GuardQuestionLocked          GuardReason = "QUESTION_LOCKED"
	GuardAlreadyVoted            GuardReason = "ALREADY_VOTED"
	GuardNotAnInvestor           GuardReason = "NOT_AN_INVESTOR"
	GuardInvalidAmount           GuardReason = "INVALID_AMOUNT"
	GuardInvalidOption           GuardReason = "INVALID_OPTION"
	GuardSalesClosed             GuardReason = "SALES_CLOSED"
	GuardAlreadyCheckedIn        GuardReason = "ALREADY_CHECKED_IN"
)

// String implements fmt.Stringer.
func (r GuardReason) String() string {
	return string(r)
}
