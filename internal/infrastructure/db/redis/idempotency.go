package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultIdempotencyTTL = 24 * time.Hour
	// reservationTTL bounds how long a crashed request can hold a key.
	reservationTTL    = 2 * time.Minute
	idempotencyPrefix = "idem:payment:"
	pendingValue      = "pending"
	reserveAttempts   = 2
)

// IdempotencyStore maps client Idempotency-Key values to payment ids.
// Key format: idem:payment:<user_id>:<client key>
//
// A key is reserved before the payment is created and holds "pending" until
// Complete stores the payment id, so concurrent requests with the same key
// see the first one in flight instead of creating a second payment.
type IdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewIdempotencyStore(client *redis.Client, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = DefaultIdempotencyTTL
	}
	return &IdempotencyStore{client: client, ttl: ttl}
}

// Reserve claims key with SETNX. When another request holds it, reserved is
// false and paymentID is the stored payment, or empty while that request is
// still running.
func (s *IdempotencyStore) Reserve(ctx context.Context, key string) (paymentID string, reserved bool, err error) {
	k := idempotencyPrefix + key
	for range reserveAttempts {
		ok, err := s.client.SetNX(ctx, k, pendingValue, reservationTTL).Result()
		if err != nil {
			return "", false, fmt.Errorf("idempotency reserve: %w", err)
		}
		if ok {
			return "", true, nil
		}

		val, err := s.client.Get(ctx, k).Result()
		if errors.Is(err, redis.Nil) {
			// Expired or released between SETNX and GET.
			continue
		}
		if err != nil {
			return "", false, fmt.Errorf("idempotency reserve: %w", err)
		}
		if val == pendingValue {
			return "", false, nil
		}
		return val, false, nil
	}
	return "", false, nil
}

// Complete binds a reserved key to the payment it produced.
func (s *IdempotencyStore) Complete(ctx context.Context, key, paymentID string) error {
	if err := s.client.Set(ctx, idempotencyPrefix+key, paymentID, s.ttl).Err(); err != nil {
		return fmt.Errorf("idempotency complete: %w", err)
	}
	return nil
}

// Release frees a reservation whose payment was never created so the client
// can retry with the same key.
func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, idempotencyPrefix+key).Err(); err != nil {
		return fmt.Errorf("idempotency release: %w", err)
	}
	return nil
}
