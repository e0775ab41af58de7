package idempotency

import (
	"context"
	"sync"
	"time"

	"storefront-bff/internal/model"
)

// MemoryStore implements Store in process memory. Used by tests and by
// local development without Redis. Same claim semantics as RedisStore.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]*Record
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*Record)}
}

func (s *MemoryStore) Begin(ctx context.Context, transactionID string) (bool, *Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.records[transactionID]
	if ok && existing.State != StateFailed {
		snapshot := *existing
		return false, &snapshot, nil
	}

	now := time.Now().UTC()
	s.records[transactionID] = &Record{
		State:         StateInProgress,
		TransactionID: transactionID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	return true, nil, nil
}

func (s *MemoryStore) Complete(ctx context.Context, transactionID string, order *model.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record := s.ensure(transactionID)
	record.State = StateCompleted
	record.Order = order
	record.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *MemoryStore) Fail(ctx context.Context, transactionID, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record := s.ensure(transactionID)
	record.State = StateFailed
	record.Error = reason
	record.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, transactionID string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[transactionID]
	if !ok {
		return nil, nil
	}
	snapshot := *record
	return &snapshot, nil
}

func (s *MemoryStore) ensure(transactionID string) *Record {
	record, ok := s.records[transactionID]
	if !ok {
		record = &Record{
			TransactionID: transactionID,
			CreatedAt:     time.Now().UTC(),
		}
		s.records[transactionID] = record
	}
	return record
}
