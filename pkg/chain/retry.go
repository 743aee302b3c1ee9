package chain

import (
	"context"
	"errors"
	"time"

	"github.com/sethvargo/go-retry"
)

// RetryPolicy bounds retries of transient ledger failures.
type RetryPolicy struct {
	MaxRetries uint64
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// Retrying wraps a Ledger and retries ErrUnavailable with capped exponential backoff.
type Retrying struct {
	next   Ledger
	policy RetryPolicy
}

func NewRetrying(next Ledger, policy RetryPolicy) *Retrying {
	if policy.BaseDelay <= 0 {
		policy.BaseDelay = 100 * time.Millisecond
	}
	if policy.MaxDelay <= 0 {
		policy.MaxDelay = 5 * time.Second
	}
	return &Retrying{next: next, policy: policy}
}

func (r *Retrying) backoff() retry.Backoff {
	b := retry.NewExponential(r.policy.BaseDelay)
	b = retry.WithJitterPercent(10, b)
	b = retry.WithCappedDuration(r.policy.MaxDelay, b)
	return retry.WithMaxRetries(r.policy.MaxRetries, b)
}

func classify(err error) error {
	if errors.Is(err, ErrUnavailable) {
		return retry.RetryableError(err)
	}
	return err
}

func (r *Retrying) CreateEvent(ctx context.Context, req CreateEventRequest) (*EventVault, error) {
	return retry.DoValue(ctx, r.backoff(), func(ctx context.Context) (*EventVault, error) {
		vault, err := r.next.CreateEvent(ctx, req)
		return vault, classify(err)
	})
}

func (r *Retrying) TransferPayout(ctx context.Context, req TransferRequest) (*Transfer, error) {
	return retry.DoValue(ctx, r.backoff(), func(ctx context.Context) (*Transfer, error) {
		transfer, err := r.next.TransferPayout(ctx, req)
		return transfer, classify(err)
	})
}

func (r *Retrying) VerifySignature(ctx context.Context, wallet string, message []byte, signature string) error {
	return r.next.VerifySignature(ctx, wallet, message, signature)
}
