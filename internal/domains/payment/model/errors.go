package model

import (
	"errors"
	"fmt"
)

// =====================================================
// PREDEFINED ERRORS
// =====================================================

var (
	ErrInvalidRequest     = errors.New("invalid payment request")
	ErrReferenceCollision = errors.New("order reference already allocated")
	ErrMappingNotFound    = errors.New("order reference mapping not found")
	ErrMappingPersistence = errors.New("order reference mapping could not be stored")
	ErrKeyDerivation      = errors.New("signing key could not be derived")
)

// =====================================================
// CUSTOM PAYMENT ERROR
// =====================================================

type PaymentError struct {
	Code    string
	Message string
	Err     error
}

func (e *PaymentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *PaymentError) Unwrap() error {
	return e.Err
}

// NewPaymentError creates a new payment error
func NewPaymentError(code, message string, err error) *PaymentError {
	return &PaymentError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// InvalidRequestError is bad caller input on the prepare endpoint.
type InvalidRequestError struct {
	Field  string
	Reason string
}

func (e *InvalidRequestError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid request: %s", e.Reason)
	}
	return fmt.Sprintf("invalid request: %s: %s", e.Field, e.Reason)
}

func (e *InvalidRequestError) Is(target error) bool {
	return target == ErrInvalidRequest
}

// MappingPersistenceError means the reference mapping was not written, so
// no signed request may leave the system. Retryable is set when the write
// lost against an existing reference and a fresh reference may succeed.
type MappingPersistenceError struct {
	OrderReference string
	Retryable      bool
	Err            error
}

func (e *MappingPersistenceError) Error() string {
	return fmt.Sprintf("persist mapping for reference %s (retryable=%t): %v",
		e.OrderReference, e.Retryable, e.Err)
}

func (e *MappingPersistenceError) Unwrap() error {
	return e.Err
}

func (e *MappingPersistenceError) Is(target error) bool {
	return target == ErrMappingPersistence
}

// =====================================================
// ERROR CONSTRUCTORS
// =====================================================

func NewInvalidRequestError(field, reason string) *PaymentError {
	return NewPaymentError(
		ErrCodeInvalidRequest,
		GenericPrepareFailureMessage,
		&InvalidRequestError{Field: field, Reason: reason},
	)
}

func NewKeyDerivationError(err error) *PaymentError {
	return NewPaymentError(
		ErrCodeKeyDerivation,
		GenericPrepareFailureMessage,
		fmt.Errorf("%w: %w", ErrKeyDerivation, err),
	)
}

func NewMappingPersistenceError(orderReference string, err error) *PaymentError {
	retryable := errors.Is(err, ErrReferenceCollision)

	code := ErrCodeMappingPersistence
	if retryable {
		code = ErrCodeReferenceCollision
	}

	return NewPaymentError(
		code,
		GenericPrepareFailureMessage,
		&MappingPersistenceError{OrderReference: orderReference, Retryable: retryable, Err: err},
	)
}

func NewGatewayError(err error) *PaymentError {
	return NewPaymentError(
		ErrCodeGatewayError,
		GenericPrepareFailureMessage,
		err,
	)
}

// IsRetryable reports whether a prepare failure may succeed when repeated
// with a fresh order reference.
func IsRetryable(err error) bool {
	var mpErr *MappingPersistenceError
	return errors.As(err, &mpErr) && mpErr.Retryable
}
