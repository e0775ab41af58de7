// Package idempotency guards admin order creation against duplicate
// requests retried with the same payment transaction ID.
//
// Records move in_progress -> completed|failed. The claim uses Redis
// SET NX, so two racing requests for the same transaction ID cannot both
// claim it; at most one non-duplicate order is created per transaction.
package idempotency

import (
	"context"
	"time"

	"storefront-bff/internal/model"
)

// State is the lifecycle state of an idempotency record.
type State string

const (
	StateInProgress State = "in_progress"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
)

// Record is what the store keeps per transaction ID.
type Record struct {
	State         State        `json:"state"`
	TransactionID string       `json:"transactionId"`
	Order         *model.Order `json:"order,omitempty"` // set when completed
	Error         string       `json:"error,omitempty"` // set when failed
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`
}

// Store persists idempotency records.
//
// Begin atomically claims the transaction ID: claimed=true means the
// caller owns the work. When claimed=false, existing describes the record
// that blocked the claim (completed or in_progress). A failed record does
// not block: Begin re-claims it so the operation can be retried.
type Store interface {
	Begin(ctx context.Context, transactionID string) (claimed bool, existing *Record, err error)
	Complete(ctx context.Context, transactionID string, order *model.Order) error
	Fail(ctx context.Context, transactionID, reason string) error
	Get(ctx context.Context, transactionID string) (*Record, error)
}
