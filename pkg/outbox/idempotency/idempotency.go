package idempotency

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mythra-labs/mythra-backend/pkg/redis"
)

const defaultTTL = 7 * 24 * time.Hour

// Guard remembers which outbox envelopes a consumer already handled.
// Keys follow `mythra:idempotency:evt:<consumer>:<envelope_id>`.
type Guard struct {
	store redis.IdempotencyStore
	ttl   time.Duration
}

// NewGuard builds a guard whose claims expire after ttl (7 days when zero).
func NewGuard(store redis.IdempotencyStore, ttl time.Duration) (*Guard, error) {
	if store == nil {
		return nil, errors.New("idempotency store is required")
	}
	if ttl < 0 {
		return nil, errors.New("ttl must be non-negative")
	}
	if ttl == 0 {
		ttl = defaultTTL
	}
	return &Guard{store: store, ttl: ttl}, nil
}

// Claim marks the envelope as handled. It returns false when an earlier
// claim already exists, meaning the caller should skip the work.
func (g *Guard) Claim(ctx context.Context, consumer, envelopeID string) (bool, error) {
	key, err := g.key(consumer, envelopeID)
	if err != nil {
		return false, err
	}
	return g.store.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), g.ttl)
}

// Release forgets a claim so the envelope is handled again on the next pass.
func (g *Guard) Release(ctx context.Context, consumer, envelopeID string) error {
	key, err := g.key(consumer, envelopeID)
	if err != nil {
		return err
	}
	return g.store.Del(ctx, key)
}

func (g *Guard) key(consumer, envelopeID string) (string, error) {
	consumer = strings.TrimSpace(consumer)
	if consumer == "" {
		return "", errors.New("consumer name is required")
	}
	id, err := uuid.Parse(strings.TrimSpace(envelopeID))
	if err != nil || id == uuid.Nil {
		return "", fmt.Errorf("invalid envelope id %q", envelopeID)
	}
	return g.store.IdempotencyKey("evt:"+consumer, id.String()), nil
}
