package model

import "errors"

// =====================================================
// CUSTOM ERROR CODES
// =====================================================
const (
	ErrCodeOrderNotFound   = "ORD001"
	ErrCodeOrderNotPending = "ORD002"
	ErrCodeInvalidStatus   = "ORD003"
)

// =====================================================
// ERROR DEFINITIONS
// =====================================================
var (
	ErrOrderNotFound   = errors.New("order not found")
	ErrOrderNotPending = errors.New("order is no longer pending")
	ErrInvalidStatus   = errors.New("invalid order status")
)
