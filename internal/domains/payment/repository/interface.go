package repository

import (
	"context"

	"printshop-backend/internal/domains/payment/model"
)

// =====================================================
// ORDER REFERENCE MAPPING REPOSITORY INTERFACE
// =====================================================
type OrderReferenceRepository interface {
	// Create stores a new mapping. An existing reference yields
	// model.ErrReferenceCollision; rows are never overwritten
	Create(ctx context.Context, mapping *model.OrderReferenceMapping) error

	// FindByReference returns model.ErrMappingNotFound when absent
	FindByReference(ctx context.Context, orderReference string) (*model.OrderReferenceMapping, error)

	// ListByOrderID lists every attempt for one order, newest first
	ListByOrderID(ctx context.Context, orderID string) ([]model.OrderReferenceMapping, error)
}

// =====================================================
// CALLBACK LOG REPOSITORY INTERFACE
// =====================================================
type CallbackLogRepository interface {
	// Create appends one audit row
	Create(ctx context.Context, entry *model.CallbackLog) error

	// ListByReference returns the audit trail of one reference, oldest first
	ListByReference(ctx context.Context, orderReference string) ([]model.CallbackLog, error)
}
