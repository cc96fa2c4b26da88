package repository

import (
	"context"
	"time"

	"printshop-backend/internal/domains/order/model"
)

// =====================================================
// ORDER REPOSITORY INTERFACE
// =====================================================
type OrderRepository interface {
	// GetStatus returns model.ErrOrderNotFound for an unknown order
	GetStatus(ctx context.Context, orderID string) (string, error)

	// TransitionFromPending moves a pending order to toStatus and appends the
	// history row in the same transaction. When the order is not pending
	// anymore nothing is written and model.ErrOrderNotPending is returned
	TransitionFromPending(ctx context.Context, orderID, toStatus, notes string) (*model.OrderStatusHistory, error)

	// Order status history
	GetStatusHistory(ctx context.Context, orderID string) ([]model.OrderStatusHistory, error)

	// GetContact loads the recipient of order emails
	GetContact(ctx context.Context, orderID string) (*model.OrderContact, error)

	// ListStalePending lists pending orders whose newest payment reference
	// was allocated before cutoff
	ListStalePending(ctx context.Context, cutoff time.Time, limit int) ([]string, error)
}
