// Package adminorder creates WooCommerce orders with admin credentials for
// payments captured outside the checkout mutation (card paid client-side,
// order recorded server-side).
//
// Creation is two-phase: the order is first created PENDING and unpaid so
// WooCommerce sends no customer email for an order that may still fail,
// then patched to processing/paid over the REST API after a short delay.
// Every request is keyed by the payment transaction ID so retries and
// double-submits cannot double-charge a completed order.
package adminorder

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"storefront-bff/internal/idempotency"
	"storefront-bff/internal/model"
	"storefront-bff/internal/retry"
)

// OrderCreator creates a pending, unpaid order. Satisfied by
// wpgraphql.AdminClient.
type OrderCreator interface {
	CreateOrder(ctx context.Context, input *model.AdminOrderInput) (*model.Order, error)
}

// OrderPatcher transitions a created order to its paid status. Satisfied
// by wprest.Client.
type OrderPatcher interface {
	PatchOrderStatus(ctx context.Context, orderID int, status, transactionID string, meta map[string]string) error
}

// CreateRequest is one admin order creation attempt.
type CreateRequest struct {
	// TransactionID is the payment processor's transaction reference.
	// It is the idempotency key; requests without one are rejected.
	TransactionID string

	Input *model.AdminOrderInput

	// Email and CartTotal feed RecoveryInfo so support can reconcile a
	// captured payment if order creation fails permanently.
	Email     string
	CartTotal string
}

// RecoveryInfo is what support needs to manually reconcile a payment whose
// order could not be created: the money has been captured, the order hasn't.
type RecoveryInfo struct {
	TransactionID string `json:"transactionId"`
	Email         string `json:"email"`
	CartTotal     string `json:"cartTotal"`
}

// CreateResult is the outcome of Create. Errors never escape as Go errors;
// the handler serializes this result either way.
type CreateResult struct {
	Success       bool          `json:"success"`
	Order         *model.Order  `json:"order,omitempty"`
	Idempotent    bool          `json:"idempotent,omitempty"` // served from a prior completion
	Error         string        `json:"error,omitempty"`
	Recovery      *RecoveryInfo `json:"recovery,omitempty"`
	CorrelationID string        `json:"correlationId"`
}

// createPolicy retries order creation against transient upstream failures.
// The attempt timeout is generous because WordPress under WAF challenge can
// be slow without being down.
var createPolicy = retry.Policy{
	Attempts:       3,
	Delays:         []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second},
	AttemptTimeout: 30 * time.Second,
}

// Service orchestrates two-phase admin order creation.
type Service struct {
	creator    OrderCreator
	patcher    OrderPatcher
	idem       idempotency.Store
	logger     *slog.Logger
	patchDelay time.Duration
	policy     retry.Policy

	// sleep is swappable so tests skip the patch delay.
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates the service. patchDelay is the wait between order creation
// and the status patch, giving WooCommerce time to settle order totals.
func New(creator OrderCreator, patcher OrderPatcher, idem idempotency.Store, logger *slog.Logger, patchDelay time.Duration) *Service {
	return &Service{
		creator:    creator,
		patcher:    patcher,
		idem:       idem,
		logger:     logger,
		patchDelay: patchDelay,
		policy:     createPolicy,
		sleep:      sleepCtx,
	}
}

// Create creates (or replays) the order for one captured payment.
func (s *Service) Create(ctx context.Context, req CreateRequest) CreateResult {
	correlationID := uuid.NewString()
	logger := s.logger.With(
		slog.String("correlation_id", correlationID),
		slog.String("transaction_id", req.TransactionID),
	)

	recovery := &RecoveryInfo{
		TransactionID: req.TransactionID,
		Email:         req.Email,
		CartTotal:     req.CartTotal,
	}

	if req.TransactionID == "" {
		return CreateResult{
			Error:         "transactionId is required",
			CorrelationID: correlationID,
		}
	}
	if req.Input == nil || len(req.Input.LineItems) == 0 {
		return CreateResult{
			Error:         "order must contain at least one line item",
			Recovery:      recovery,
			CorrelationID: correlationID,
		}
	}

	claimed, existing, err := s.idem.Begin(ctx, req.TransactionID)
	if err != nil {
		// Without the idempotency record we cannot rule out a duplicate
		// order, so refuse rather than risk charging twice.
		logger.Error("idempotency claim failed", slog.String("error", err.Error()))
		return CreateResult{
			Error:         "order processing is temporarily unavailable, please retry",
			Recovery:      recovery,
			CorrelationID: correlationID,
		}
	}
	if !claimed {
		if existing == nil {
			// The blocking record expired between the claim and the read,
			// and the re-claim lost to another request. That request owns
			// the transaction now.
			logger.Warn("idempotency claim lost to a concurrent request")
			return CreateResult{
				Idempotent:    true,
				Error:         "an order for this payment is already being processed",
				CorrelationID: correlationID,
			}
		}
		switch existing.State {
		case idempotency.StateCompleted:
			logger.Info("replaying completed order", slog.Int("order_id", existing.Order.ID))
			return CreateResult{
				Success:       true,
				Order:         existing.Order,
				Idempotent:    true,
				CorrelationID: correlationID,
			}
		default:
			logger.Warn("duplicate request while order in progress")
			return CreateResult{
				Idempotent:    true,
				Error:         "an order for this payment is already being processed",
				CorrelationID: correlationID,
			}
		}
	}

	logger.Info("creating admin order",
		slog.Int("line_items", len(req.Input.LineItems)),
		slog.String("cart_total", req.CartTotal),
	)

	var order *model.Order
	err = retry.Do(ctx, s.policy, func(ctx context.Context) error {
		var createErr error
		order, createErr = s.creator.CreateOrder(ctx, req.Input)
		return createErr
	})
	if err != nil {
		logger.Error("order creation failed after retries", slog.String("error", err.Error()))
		if failErr := s.idem.Fail(ctx, req.TransactionID, err.Error()); failErr != nil {
			logger.Error("recording failure state failed", slog.String("error", failErr.Error()))
		}
		return CreateResult{
			Error:         "order creation failed; payment was captured",
			Recovery:      recovery,
			CorrelationID: correlationID,
		}
	}

	logger.Info("order created pending", slog.Int("order_id", order.ID))

	// Let WooCommerce finish its post-create hooks before flipping status,
	// otherwise the paid email can go out with zeroed totals.
	if sleepErr := s.sleep(ctx, s.patchDelay); sleepErr != nil {
		logger.Warn("patch delay interrupted", slog.String("error", sleepErr.Error()))
	}

	if patchErr := s.patcher.PatchOrderStatus(ctx, order.ID, "processing", req.TransactionID, req.Input.Meta); patchErr != nil {
		// The order exists and the payment is recorded in its meta; a
		// stuck pending status is fixable by hand, so this is not fatal.
		logger.Warn("status patch failed, order left pending",
			slog.Int("order_id", order.ID),
			slog.String("error", patchErr.Error()),
		)
	} else {
		order.Status = "processing"
	}

	if completeErr := s.idem.Complete(ctx, req.TransactionID, order); completeErr != nil {
		logger.Error("recording completion failed", slog.String("error", completeErr.Error()))
	}

	logger.Info("admin order complete",
		slog.Int("order_id", order.ID),
		slog.String("status", order.Status),
	)

	return CreateResult{
		Success:       true,
		Order:         order,
		CorrelationID: correlationID,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
