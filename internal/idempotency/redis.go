package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"storefront-bff/internal/model"
)

const (
	keyPrefix = "idempotency:admin-order:"

	// inProgressTTL bounds how long a crashed request can block retries.
	inProgressTTL = 10 * time.Minute

	// finalTTL keeps completed/failed records long enough for client
	// retries and manual reconciliation.
	finalTTL = 24 * time.Hour
)

// RedisStore implements Store on Redis.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Redis-backed idempotency store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func key(transactionID string) string {
	return keyPrefix + transactionID
}

// Begin claims the transaction ID with SET NX. If a record already exists
// and is failed, it is re-claimed (a failed attempt may be retried);
// completed and in_progress records block the claim.
func (s *RedisStore) Begin(ctx context.Context, transactionID string) (bool, *Record, error) {
	now := time.Now().UTC()
	record := Record{
		State:         StateInProgress,
		TransactionID: transactionID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	data, err := json.Marshal(record)
	if err != nil {
		return false, nil, fmt.Errorf("marshaling record: %w", err)
	}

	ok, err := s.client.SetNX(ctx, key(transactionID), data, inProgressTTL).Result()
	if err != nil {
		return false, nil, fmt.Errorf("idempotency claim failed: %w", err)
	}
	if ok {
		return true, nil, nil
	}

	existing, err := s.Get(ctx, transactionID)
	if err != nil {
		return false, nil, err
	}
	if existing == nil {
		// Record expired between SETNX and GET; treat as claimed via a
		// second attempt.
		ok, err := s.client.SetNX(ctx, key(transactionID), data, inProgressTTL).Result()
		if err != nil {
			return false, nil, fmt.Errorf("idempotency claim failed: %w", err)
		}
		return ok, nil, nil
	}

	if existing.State == StateFailed {
		if err := s.client.Set(ctx, key(transactionID), data, inProgressTTL).Err(); err != nil {
			return false, nil, fmt.Errorf("idempotency re-claim failed: %w", err)
		}
		return true, nil, nil
	}

	return false, existing, nil
}

// Complete stores the final order snapshot under the transaction ID.
func (s *RedisStore) Complete(ctx context.Context, transactionID string, order *model.Order) error {
	return s.finalize(ctx, transactionID, func(r *Record) {
		r.State = StateCompleted
		r.Order = order
	})
}

// Fail records the failure reason; a later request may retry.
func (s *RedisStore) Fail(ctx context.Context, transactionID, reason string) error {
	return s.finalize(ctx, transactionID, func(r *Record) {
		r.State = StateFailed
		r.Error = reason
	})
}

// Get returns the record for the transaction ID, or nil if absent.
func (s *RedisStore) Get(ctx context.Context, transactionID string) (*Record, error) {
	data, err := s.client.Get(ctx, key(transactionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("idempotency get failed: %w", err)
	}

	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("unmarshaling record: %w", err)
	}
	return &record, nil
}

func (s *RedisStore) finalize(ctx context.Context, transactionID string, update func(*Record)) error {
	record, err := s.Get(ctx, transactionID)
	if err != nil {
		return err
	}
	if record == nil {
		record = &Record{
			TransactionID: transactionID,
			CreatedAt:     time.Now().UTC(),
		}
	}
	update(record)
	record.UpdatedAt = time.Now().UTC()

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshaling record: %w", err)
	}
	if err := s.client.Set(ctx, key(transactionID), data, finalTTL).Err(); err != nil {
		return fmt.Errorf("idempotency set failed: %w", err)
	}
	return nil
}
