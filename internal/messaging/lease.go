package messaging

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const defaultLeaseTTL = 2 * time.Minute

// leaseStore defines the Redis operations the dispatch lease needs.
type leaseStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	QuotaLeaseKey(fishermanID, periodKey string) string
}

// DispatchLease serializes quota-consuming batches per fisherman and period.
// Two concurrent batches would both evaluate against the same ledger row and
// over-consume; the second caller is told to retry instead.
type DispatchLease struct {
	store leaseStore
	ttl   time.Duration
}

// HeldLease is a successfully acquired lease. Release is owner-checked so a
// lease that expired mid-dispatch cannot delete a successor's key.
type HeldLease struct {
	store leaseStore
	key   string
	owner string
}

// NewDispatchLease constructs a Redis-backed dispatch lease.
func NewDispatchLease(store leaseStore, ttl time.Duration) (*DispatchLease, error) {
	if store == nil {
		return nil, errors.New("redis store required for dispatch lease")
	}
	if ttl <= 0 {
		ttl = defaultLeaseTTL
	}
	return &DispatchLease{store: store, ttl: ttl}, nil
}

// Acquire tries to take the lease for the fisherman's current period. A nil
// HeldLease with a nil error means another batch holds it.
func (l *DispatchLease) Acquire(ctx context.Context, fishermanID uuid.UUID, periodKey string) (*HeldLease, error) {
	key := l.store.QuotaLeaseKey(fishermanID.String(), periodKey)
	owner := uuid.NewString()
	ok, err := l.store.SetNX(ctx, key, owner, l.ttl)
	if err != nil {
		return nil, fmt.Errorf("acquire dispatch lease: %w", err)
	}
	if !ok {
		return nil, nil
	}
	return &HeldLease{store: l.store, key: key, owner: owner}, nil
}

// Release frees the lease only if the stored owner still matches.
func (h *HeldLease) Release(ctx context.Context) error {
	if h == nil {
		return nil
	}
	value, err := h.store.Get(ctx, h.key)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("read lease owner: %w", err)
	}
	if value != h.owner {
		return nil
	}
	if err := h.store.Del(ctx, h.key); err != nil {
		return fmt.Errorf("delete lease: %w", err)
	}
	return nil
}
