package lifecycle

import (
	"errors"
	"fmt"

	"github.com/mythra-labs/mythra-backend/pkg/enums"
	pkgerrors "github.com/mythra-labs/mythra-backend/pkg/errors"
)

var (
	// ErrInvalidTransition means the target is not reachable from the current status.
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrGuardFailed means a named precondition was false.
	ErrGuardFailed = errors.New("guard failed")
	// ErrUnauthorized means the actor lacks the capability for the request.
	ErrUnauthorized = errors.New("unauthorized")
)

// Rejection is the structured result of a refused lifecycle request.
type Rejection struct {
	Kind    error
	From    enums.EventStatus
	To      enums.EventStatus
	Reason  enums.GuardReason
	Details map[string]any
}

func (r *Rejection) Error() string {
	switch {
	case r.Reason != "":
		return fmt.Sprintf("%s: %s (%s -> %s)", r.Kind, r.Reason, r.From, r.To)
	case r.To != "":
		return fmt.Sprintf("%s: %s -> %s", r.Kind, r.From, r.To)
	default:
		return fmt.Sprintf("%s in status %s", r.Kind, r.From)
	}
}

func (r *Rejection) Unwrap() error {
	return r.Kind
}

// ReasonOf returns the guard reason carried by err, if any.
func ReasonOf(err error) (enums.GuardReason, bool) {
	var rej *Rejection
	if errors.As(err, &rej) && rej.Reason != "" {
		return rej.Reason, true
	}
	return "", false
}

func invalidTransition(from, to enums.EventStatus) *Rejection {
	return &Rejection{Kind: ErrInvalidTransition, From: from, To: to}
}

func unauthorized(from, to enums.EventStatus, role enums.ActorRole) *Rejection {
	return &Rejection{
		Kind:    ErrUnauthorized,
		From:    from,
		To:      to,
		Details: map[string]any{"role": string(role)},
	}
}

func guardFailed(from, to enums.EventStatus, reason enums.GuardReason, details map[string]any) *Rejection {
	return &Rejection{Kind: ErrGuardFailed, From: from, To: to, Reason: reason, Details: details}
}

// TypedError maps lifecycle rejections onto the API error codes. Other errors pass through.
func TypedError(err error) error {
	var rej *Rejection
	if !errors.As(err, &rej) {
		return err
	}

	details := map[string]any{"from": string(rej.From)}
	if rej.To != "" {
		details["to"] = string(rej.To)
	}
	if rej.Reason != "" {
		details["reason"] = string(rej.Reason)
	}
	for k, v := range rej.Details {
		details[k] = v
	}

	switch {
	case errors.Is(rej, ErrUnauthorized):
		return pkgerrors.Wrap(pkgerrors.CodeForbidden, rej, "actor cannot perform this lifecycle action")
	case errors.Is(rej, ErrInvalidTransition):
		return pkgerrors.Wrap(pkgerrors.CodeStateConflict, rej, "transition not allowed from current status").WithDetails(details)
	default:
		return pkgerrors.Wrap(pkgerrors.CodeStateConflict, rej, "lifecycle precondition not met").WithDetails(details)
	}
}
