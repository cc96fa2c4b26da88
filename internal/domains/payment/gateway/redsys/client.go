package redsys

import (
	"fmt"

	"printshop-backend/internal/domains/payment/gateway"
)

// =====================================================
// REDSYS CLIENT
// =====================================================

// Client prepares redirect forms and checks notifications. It never calls
// the gateway over the network: the browser posts the form itself.
type Client struct {
	config *Config
}

func NewClient(config *Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid Redsys config: %w", err)
	}

	return &Client{config: config}, nil
}

var _ gateway.RedsysGateway = (*Client)(nil)

// NewMerchantParameters fills the merchant, terminal and URL fields from
// configuration around one order reference and amount.
func (c *Client) NewMerchantParameters(orderReference string, amountMinor int64, description string) MerchantParameters {
	return MerchantParameters{
		Amount:             amountMinor,
		Order:              orderReference,
		MerchantCode:       c.config.MerchantCode,
		Currency:           c.config.Currency,
		TransactionType:    c.config.TransactionType,
		Terminal:           c.config.Terminal,
		MerchantURL:        c.config.MerchantURL,
		URLOK:              c.config.URLOK,
		URLKO:              c.config.URLKO,
		ProductDescription: description,
		MerchantName:       c.config.MerchantName,
		ConsumerLanguage:   c.config.ConsumerLanguage,
	}
}

// BuildPaymentRequest encodes and signs the payload for the browser form.
func (c *Client) BuildPaymentRequest(req gateway.PaymentRequest) (*gateway.SignedRequest, error) {
	if !IsValidOrderReference(req.OrderReference) {
		return nil, fmt.Errorf("invalid order reference %q", req.OrderReference)
	}
	if req.AmountMinor <= 0 {
		return nil, fmt.Errorf("amount must be positive, got %d", req.AmountMinor)
	}

	return c.SignParameters(c.NewMerchantParameters(req.OrderReference, req.AmountMinor, req.Description))
}

// SignParameters encodes and signs an already assembled payload.
func (c *Client) SignParameters(params MerchantParameters) (*gateway.SignedRequest, error) {
	// Step 1: Canonical JSON -> base64
	encoded, err := EncodeMerchantParameters(params)
	if err != nil {
		return nil, err
	}

	// Step 2: Sign the base64 text with the per-order key
	signature, err := Sign([]byte(encoded), params.Order, c.config.SecretKey)
	if err != nil {
		return nil, err
	}

	return &gateway.SignedRequest{
		EncodedParams:    encoded,
		Signature:        signature,
		SignatureVersion: c.config.SignatureVersion,
		FormURL:          c.config.FormURL(),
	}, nil
}

// DecodeNotification parses Ds_MerchantParameters of a callback.
func (c *Client) DecodeNotification(encodedParams string) (*gateway.RedsysNotification, error) {
	n, err := DecodeMerchantParameters(encodedParams)
	if err != nil {
		return nil, err
	}

	return &gateway.RedsysNotification{
		OrderReference:    n.Order(),
		ResponseCode:      n.ResponseCode(),
		AuthorizationCode: n.AuthorisationCode(),
		Amount:            n.Amount(),
		Currency:          n.Currency(),
		MerchantCode:      n.MerchantCode(),
		TransactionType:   n.TransactionType(),
	}, nil
}

// VerifyNotification checks Ds_Signature against the encoded parameters as
// received.
func (c *Client) VerifyNotification(encodedParams, orderReference, signature string) bool {
	return Verify([]byte(encodedParams), orderReference, c.config.SecretKey, signature)
}

func (c *Client) SignatureVersion() string {
	return c.config.SignatureVersion
}
