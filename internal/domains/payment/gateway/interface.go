package gateway

// =====================================================
// GATEWAY INTERFACES
// =====================================================

// RedsysGateway prepares signed redirect forms and authenticates the
// asynchronous notifications the gateway posts back.
type RedsysGateway interface {
	// BuildPaymentRequest encodes and signs the merchant parameters for one
	// payment attempt
	BuildPaymentRequest(req PaymentRequest) (*SignedRequest, error)

	// DecodeNotification parses Ds_MerchantParameters
	DecodeNotification(encodedParams string) (*RedsysNotification, error)

	// VerifyNotification checks Ds_Signature over the raw encoded parameters
	VerifyNotification(encodedParams, orderReference, signature string) bool

	// SignatureVersion is the Ds_SignatureVersion the gateway expects
	SignatureVersion() string
}

// =====================================================
// COMMON REQUEST/RESPONSE TYPES
// =====================================================

// PaymentRequest describes one payment attempt
type PaymentRequest struct {
	OrderReference string // 12-digit gateway reference
	AmountMinor    int64  // Amount in cents
	Description    string // Shown on the gateway payment page
}

// SignedRequest is what the browser auto-submits to FormURL
type SignedRequest struct {
	EncodedParams    string // Ds_MerchantParameters
	Signature        string // Ds_Signature
	SignatureVersion string // Ds_SignatureVersion
	FormURL          string
}

// RedsysNotification is the decoded payload of a callback
type RedsysNotification struct {
	OrderReference    string // Ds_Order
	ResponseCode      string // Ds_Response
	AuthorizationCode string // Ds_AuthorisationCode
	Amount            string // Ds_Amount (minor units)
	Currency          string // Ds_Currency
	MerchantCode      string // Ds_MerchantCode
	TransactionType   string // Ds_TransactionType
}
