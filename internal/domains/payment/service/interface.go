package service

import (
	"context"

	"printshop-backend/internal/domains/payment/model"
)

// =====================================================
// PAYMENT SERVICE INTERFACE
// =====================================================
type PaymentService interface {
	// PreparePayment allocates a gateway reference for the order, stores the
	// mapping and returns the signed redirect form
	PreparePayment(ctx context.Context, req model.PreparePaymentRequest) (*model.PreparedPayment, error)

	// ProcessRedsysCallback authenticates a gateway notification and applies
	// it to the order. It never fails: the outcome is reported in the result
	ProcessRedsysCallback(ctx context.Context, req model.RedsysCallbackRequest) model.CallbackResult

	// ListOrderReferences returns every reference allocated for an order,
	// newest first
	ListOrderReferences(ctx context.Context, orderID string) ([]model.OrderReferenceMapping, error)

	// ListCallbackLogs returns the notifications received for a reference,
	// oldest first
	ListCallbackLogs(ctx context.Context, orderReference string) ([]model.CallbackLog, error)
}

// =====================================================
// COLLABORATORS
// =====================================================

// ReferenceGenerator derives a gateway order reference from an order id.
type ReferenceGenerator interface {
	Generate(orderID string) string
}

// ConfirmationNotifier triggers the confirmation email of a paid order.
type ConfirmationNotifier interface {
	NotifyPaymentConfirmed(ctx context.Context, payload model.SendPaymentConfirmationPayload) error
}

// ReplayGuard remembers notifications that already reached a final outcome.
// Implementations may be unavailable; callers treat errors as "not seen".
type ReplayGuard interface {
	Seen(ctx context.Context, fingerprint string) (bool, error)
	Remember(ctx context.Context, fingerprint string) error
}
