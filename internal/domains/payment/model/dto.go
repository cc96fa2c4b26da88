package model

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/shopspring/decimal"
)

// =====================================================
// PREPARE PAYMENT REQUEST/RESPONSE
// =====================================================

type PreparePaymentRequest struct {
	OrderID string          `json:"orderId"`
	Amount  decimal.Decimal `json:"amount"` // major units, e.g. 19.99
}

// Normalize trims the order id in place.
func (r *PreparePaymentRequest) Normalize() {
	r.OrderID = strings.TrimSpace(r.OrderID)
}

func (r PreparePaymentRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.OrderID, validation.Required, validation.Length(1, 128)),
		validation.Field(&r.Amount, validation.By(positiveAmount)),
	)
}

func positiveAmount(value interface{}) error {
	amount, ok := value.(decimal.Decimal)
	if !ok {
		return errors.New("must be a number")
	}
	if !amount.IsPositive() {
		return errors.New("must be greater than zero")
	}
	if amount.Shift(2).Round(0).GreaterThan(decimal.NewFromInt(MaxAmountMinor)) {
		return fmt.Errorf("must not exceed %s", decimal.New(MaxAmountMinor, -2).StringFixed(2))
	}
	return nil
}

// FirstValidationError flattens an ozzo error map into one field and reason,
// picking the alphabetically first field so the result is stable.
func FirstValidationError(err error) (field, reason string) {
	var errs validation.Errors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return "", err.Error()
	}

	fields := make([]string, 0, len(errs))
	for f := range errs {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	return fields[0], errs[fields[0]].Error()
}

// ToMinorUnits converts a major-unit amount to cents, rounding half away
// from zero on the decimal value (12.34 -> 1234, never 1233). The second
// result is false when the cents do not fit DS_MERCHANT_AMOUNT.
func ToMinorUnits(amount decimal.Decimal) (int64, bool) {
	minor := amount.Shift(2).Round(0)
	if minor.GreaterThan(decimal.NewFromInt(MaxAmountMinor)) {
		return 0, false
	}
	return minor.IntPart(), true
}

// PreparedPayment is the service result for one prepared attempt.
type PreparedPayment struct {
	Intent           PaymentIntent
	EncodedParams    string
	Signature        string
	SignatureVersion string
	FormURL          string
}

type FormData struct {
	SignatureVersion string `json:"signatureVersion"`
	EncodedParams    string `json:"encodedParams"`
	Signature        string `json:"signature"`
}

// PreparePaymentResponse is the JSON body of a successful prepare call.
type PreparePaymentResponse struct {
	Success  bool     `json:"success"`
	FormData FormData `json:"formData"`
	FormURL  string   `json:"formUrl"`
}

func NewPreparePaymentResponse(p *PreparedPayment) PreparePaymentResponse {
	return PreparePaymentResponse{
		Success: true,
		FormData: FormData{
			SignatureVersion: p.SignatureVersion,
			EncodedParams:    p.EncodedParams,
			Signature:        p.Signature,
		},
		FormURL: p.FormURL,
	}
}

// =====================================================
// REDSYS CALLBACK
// =====================================================

// RedsysCallbackRequest is the form posted by the gateway, urlencoded or
// multipart.
type RedsysCallbackRequest struct {
	SignatureVersion   string `form:"Ds_SignatureVersion"`
	MerchantParameters string `form:"Ds_MerchantParameters"`
	Signature          string `form:"Ds_Signature"`
}

// HasRequiredFields reports whether all three fields carry a value.
func (r RedsysCallbackRequest) HasRequiredFields() bool {
	return strings.TrimSpace(r.SignatureVersion) != "" &&
		strings.TrimSpace(r.MerchantParameters) != "" &&
		strings.TrimSpace(r.Signature) != ""
}

// CallbackResult tells the caller what happened; the HTTP answer is the same
// whatever it holds.
type CallbackResult struct {
	Outcome        CallbackOutcome
	OrderReference string
	OrderID        string
	NewStatus      string
}

// =====================================================
// REFERENCE HISTORY
// =====================================================

type OrderReferenceResponse struct {
	OrderReference string          `json:"order_reference"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	CreatedAt      string          `json:"created_at"`
}

type CallbackLogResponse struct {
	ID               string  `json:"id"`
	Outcome          string  `json:"outcome"`
	OrderID          *string `json:"order_id,omitempty"`
	ResponseCode     *string `json:"response_code,omitempty"`
	SignatureVersion string  `json:"signature_version"`
	ReceivedAt       string  `json:"received_at"`
}

// NewCallbackLogResponse leaves the payload excerpt out; it stays in the
// database for operators with direct access.
func NewCallbackLogResponse(l CallbackLog) CallbackLogResponse {
	return CallbackLogResponse{
		ID:               l.ID.String(),
		Outcome:          string(l.Outcome),
		OrderID:          l.OrderID,
		ResponseCode:     l.ResponseCode,
		SignatureVersion: l.SignatureVersion,
		ReceivedAt:       l.ReceivedAt.UTC().Format(time.RFC3339),
	}
}

func NewOrderReferenceResponse(m OrderReferenceMapping) OrderReferenceResponse {
	return OrderReferenceResponse{
		OrderReference: m.OrderReference,
		Amount:         decimal.New(m.AmountMinor, -2),
		Currency:       m.Currency,
		CreatedAt:      m.CreatedAt.UTC().Format(time.RFC3339),
	}
}
