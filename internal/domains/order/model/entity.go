package model

import (
	"time"

	"github.com/google/uuid"
)

// =====================================================
// ORDER STATUS
// =====================================================
const (
	OrderStatusPending       = "pending"
	OrderStatusCompleted     = "completed"
	OrderStatusPaymentFailed = "payment_failed"
	OrderStatusCancelled     = "cancelled"
)

// IsTerminalStatus reports whether no further transition may leave status.
func IsTerminalStatus(status string) bool {
	switch status {
	case OrderStatusCompleted, OrderStatusPaymentFailed, OrderStatusCancelled:
		return true
	}
	return false
}

// =====================================================
// ENTITY: OrderStatusHistory
// =====================================================

// OrderStatusHistory is an append-only record of one status change.
type OrderStatusHistory struct {
	ID         uuid.UUID `json:"id"`
	OrderID    string    `json:"order_id"`
	FromStatus *string   `json:"from_status,omitempty"`
	ToStatus   string    `json:"to_status"`
	Notes      *string   `json:"notes,omitempty"`
	ChangedAt  time.Time `json:"changed_at"`
}

// =====================================================
// ENTITY: OrderContact
// =====================================================

// OrderContact is what the confirmation email needs to know about an order.
type OrderContact struct {
	OrderID      string
	Email        string
	CustomerName string
	Status       string
	TotalMinor   int64
	Currency     string
}
