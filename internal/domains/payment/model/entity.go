package model

import (
	"time"

	"github.com/google/uuid"
)

// =====================================================
// ENTITY: OrderReferenceMapping
// =====================================================

// OrderReferenceMapping links a gateway reference to the internal order.
// One row per reference, never deleted.
type OrderReferenceMapping struct {
	OrderReference string    `json:"order_reference"`
	OrderID        string    `json:"order_id"`
	AmountMinor    int64     `json:"amount_minor"`
	Currency       string    `json:"currency"`
	CreatedAt      time.Time `json:"created_at"`
}

// =====================================================
// ENTITY: PaymentIntent
// =====================================================

// PaymentIntent is one attempt to pay an order. A retry allocates a new
// intent with a new reference instead of mutating this one.
type PaymentIntent struct {
	OrderID        string
	OrderReference string
	AmountMinor    int64
	Currency       string
	CreatedAt      time.Time
}

func (p *PaymentIntent) Mapping() *OrderReferenceMapping {
	return &OrderReferenceMapping{
		OrderReference: p.OrderReference,
		OrderID:        p.OrderID,
		AmountMinor:    p.AmountMinor,
		Currency:       p.Currency,
		CreatedAt:      p.CreatedAt,
	}
}

// =====================================================
// ENTITY: CallbackEvent
// =====================================================

// CallbackEvent is a decoded gateway notification.
type CallbackEvent struct {
	OrderReference    string
	ResponseCode      string
	AuthorizationCode string
	Amount            string
	SignatureVersion  string
	EncodedParams     string
}

// =====================================================
// ENTITY: CallbackLog
// =====================================================

// CallbackLog is the audit row written for every notification received.
type CallbackLog struct {
	ID               uuid.UUID       `json:"id"`
	OrderReference   *string         `json:"order_reference,omitempty"`
	OrderID          *string         `json:"order_id,omitempty"`
	Outcome          CallbackOutcome `json:"outcome"`
	ResponseCode     *string         `json:"response_code,omitempty"`
	SignatureVersion string          `json:"signature_version"`
	PayloadExcerpt   string          `json:"payload_excerpt"`
	ReceivedAt       time.Time       `json:"received_at"`
}

// NewCallbackLog builds an audit row from what is known about a callback.
// Empty strings are stored as NULL.
func NewCallbackLog(outcome CallbackOutcome, req RedsysCallbackRequest, event *CallbackEvent, orderID string) *CallbackLog {
	entry := &CallbackLog{
		ID:               uuid.New(),
		Outcome:          outcome,
		SignatureVersion: req.SignatureVersion,
		PayloadExcerpt:   Excerpt(req.MerchantParameters, PayloadExcerptLength),
		ReceivedAt:       time.Now(),
	}

	if event != nil {
		entry.OrderReference = nullable(event.OrderReference)
		entry.ResponseCode = nullable(event.ResponseCode)
	}
	entry.OrderID = nullable(orderID)

	return entry
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Excerpt truncates s to n bytes and marks the cut.
func Excerpt(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// RedactSignature keeps only a short prefix of a signature for logs.
func RedactSignature(sig string) string {
	const keep = 6
	if len(sig) <= keep {
		return "***"
	}
	return sig[:keep] + "***"
}
