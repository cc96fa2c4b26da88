package model

import "time"

// =====================================================
// PAYMENT GATEWAYS
// =====================================================
const (
	GatewayRedsys = "redsys"
)

// =====================================================
// CALLBACK OUTCOMES
// =====================================================

// CallbackOutcome classifies how one gateway notification was handled.
// Every outcome is acknowledged with HTTP 200 "OK".
type CallbackOutcome string

const (
	OutcomeMalformed        CallbackOutcome = "malformed"
	OutcomeSignatureInvalid CallbackOutcome = "signature_invalid"
	OutcomeMappingNotFound  CallbackOutcome = "mapping_not_found"
	OutcomeOrderNotFound    CallbackOutcome = "order_not_found"
	OutcomeApplied          CallbackOutcome = "applied"
	OutcomeAlreadyProcessed CallbackOutcome = "already_processed"
	OutcomeInternalError    CallbackOutcome = "internal_error"
)

// IsFinal reports whether a redelivery of the same notification can only
// produce the same result.
func (o CallbackOutcome) IsFinal() bool {
	return o == OutcomeApplied || o == OutcomeAlreadyProcessed
}

// =====================================================
// INTERNAL ERROR CODES
// =====================================================
const (
	// Payment preparation errors
	ErrCodeInvalidRequest     = "PAY001"
	ErrCodeKeyDerivation      = "PAY002"
	ErrCodeReferenceCollision = "PAY003"
	ErrCodeMappingPersistence = "PAY004"
	ErrCodeGatewayError       = "PAY005"

	// Lookup errors
	ErrCodeMappingNotFound  = "PAY010"
	ErrCodeInvalidReference = "PAY011"
)

// =====================================================
// BUSINESS RULES
// =====================================================
const (
	// DefaultNotifyTimeout bounds the enqueue of the confirmation email
	// while a callback is being acknowledged
	DefaultNotifyTimeout = 2 * time.Second

	// GenericPrepareFailureMessage is the only failure text shown to shoppers
	GenericPrepareFailureMessage = "Payment could not be started, please retry"

	// PayloadExcerptLength caps logged merchant-parameter excerpts
	PayloadExcerptLength = 64

	// MaxAmountMinor is the largest DS_MERCHANT_AMOUNT the gateway accepts
	// (12 digits, in cents)
	MaxAmountMinor = 999999999999

	// ReplayGuardTimeout bounds each replay guard round trip while a
	// callback is being acknowledged
	ReplayGuardTimeout = 200 * time.Millisecond
)
