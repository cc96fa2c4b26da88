package redsys

import (
	"fmt"
	"strconv"
	"strings"
)

// =====================================================
// REDSYS CONFIGURATION
// =====================================================

const (
	EnvironmentTest = "test"
	EnvironmentLive = "live"

	TestFormURL = "https://sis-t.redsys.es:25443/sis/realizarPago"
	LiveFormURL = "https://sis.redsys.es/sis/realizarPago"

	SignatureVersionHMACSHA256V1 = "HMAC_SHA256_V1"

	CurrencyEUR             = "978"
	TransactionTypePayment  = "0"
	ConsumerLanguageSpanish = "001"
)

type Config struct {
	MerchantCode     string // FUC code assigned by the bank
	Terminal         string // Terminal number (default "1")
	SecretKey        string // Base64 3DES merchant secret
	Currency         string // ISO 4217 numeric code (default "978")
	TransactionType  string // "0" = authorisation
	SignatureVersion string // "HMAC_SHA256_V1"
	Environment      string // test | live
	MerchantURL      string // Backend notification URL
	URLOK            string // Frontend URL after a successful payment
	URLKO            string // Frontend URL after a failed payment
	MerchantName     string
	ConsumerLanguage string
}

// NewConfig creates a Redsys configuration with gateway defaults filled in.
func NewConfig(merchantCode, terminal, secretKey, environment string) *Config {
	cfg := &Config{
		MerchantCode:     merchantCode,
		Terminal:         terminal,
		SecretKey:        secretKey,
		Environment:      environment,
		Currency:         CurrencyEUR,
		TransactionType:  TransactionTypePayment,
		SignatureVersion: SignatureVersionHMACSHA256V1,
		ConsumerLanguage: ConsumerLanguageSpanish,
	}
	if cfg.Terminal == "" {
		cfg.Terminal = "1"
	}
	if cfg.Environment == "" {
		cfg.Environment = EnvironmentTest
	}
	return cfg
}

// Validate validates configuration
func (c *Config) Validate() error {
	if c.MerchantCode == "" {
		return fmt.Errorf("redsys merchant code is required")
	}
	if c.Terminal == "" {
		return fmt.Errorf("redsys terminal is required")
	}
	if c.SecretKey == "" {
		return fmt.Errorf("redsys secret key is required")
	}
	if _, err := decodeSecret(c.SecretKey); err != nil {
		return err
	}
	if c.Currency == "" {
		return fmt.Errorf("redsys currency is required")
	}
	if c.Environment != EnvironmentTest && c.Environment != EnvironmentLive {
		return fmt.Errorf("redsys environment must be %q or %q, got %q",
			EnvironmentTest, EnvironmentLive, c.Environment)
	}
	return nil
}

// FormURL returns the endpoint the browser form is posted to.
func (c *Config) FormURL() string {
	if c.Environment == EnvironmentLive {
		return LiveFormURL
	}
	return TestFormURL
}

// =====================================================
// RESPONSE CODES
// =====================================================

const (
	MaxAuthorizedResponseCode = 99

	ResponseCodeExpiredCard       = 101
	ResponseCodeSuspectedFraud    = 102
	ResponseCodeIssuerDenied      = 180
	ResponseCodeCardholderAuth    = 184
	ResponseCodeAuthFailed        = 190
	ResponseCodeCancelledByHolder = 9915
)

// IsAuthorizedResponse reports whether a Ds_Response value is an
// authorisation: an integer within [0, 99]. Anything else, including
// a non-numeric value, is a decline.
func IsAuthorizedResponse(code string) bool {
	n, err := strconv.Atoi(strings.TrimSpace(code))
	if err != nil {
		return false
	}
	return n >= 0 && n <= MaxAuthorizedResponseCode
}

// GetResponseMessage returns a human readable reason for a Ds_Response code.
func GetResponseMessage(code string) string {
	if IsAuthorizedResponse(code) {
		return "Transaction authorised"
	}

	n, err := strconv.Atoi(strings.TrimSpace(code))
	if err != nil {
		return "Unknown response code"
	}

	messages := map[int]string{
		ResponseCodeExpiredCard:       "Card expired",
		ResponseCodeSuspectedFraud:    "Card temporarily blocked or suspected fraud",
		ResponseCodeIssuerDenied:      "Card not supported by the service",
		ResponseCodeCardholderAuth:    "Cardholder authentication failed",
		ResponseCodeAuthFailed:        "Denied without specific reason",
		ResponseCodeCancelledByHolder: "Payment cancelled by the cardholder",
	}
	if msg, ok := messages[n]; ok {
		return msg
	}
	return "Transaction declined"
}
