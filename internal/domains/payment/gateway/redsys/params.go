package redsys

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Merchant parameter keys sent to the gateway.
const (
	KeyMerchantAmount             = "DS_MERCHANT_AMOUNT"
	KeyMerchantOrder              = "DS_MERCHANT_ORDER"
	KeyMerchantCode               = "DS_MERCHANT_MERCHANTCODE"
	KeyMerchantCurrency           = "DS_MERCHANT_CURRENCY"
	KeyMerchantTransactionType    = "DS_MERCHANT_TRANSACTIONTYPE"
	KeyMerchantTerminal           = "DS_MERCHANT_TERMINAL"
	KeyMerchantURL                = "DS_MERCHANT_MERCHANTURL"
	KeyMerchantURLOK              = "DS_MERCHANT_URLOK"
	KeyMerchantURLKO              = "DS_MERCHANT_URLKO"
	KeyMerchantProductDescription = "DS_MERCHANT_PRODUCTDESCRIPTION"
	KeyMerchantName               = "DS_MERCHANT_MERCHANTNAME"
	KeyMerchantConsumerLanguage   = "DS_MERCHANT_CONSUMERLANGUAGE"
)

// Notification keys, upper-cased. The gateway mixes Ds_Order and DS_ORDER
// depending on the channel, so lookups are case-insensitive.
const (
	KeyDsOrder             = "DS_ORDER"
	KeyDsResponse          = "DS_RESPONSE"
	KeyDsAuthorisationCode = "DS_AUTHORISATIONCODE"
	KeyDsAmount            = "DS_AMOUNT"
	KeyDsCurrency          = "DS_CURRENCY"
	KeyDsMerchantCode      = "DS_MERCHANTCODE"
	KeyDsTerminal          = "DS_TERMINAL"
	KeyDsTransactionType   = "DS_TRANSACTIONTYPE"
	KeyDsDate              = "DS_DATE"
	KeyDsHour              = "DS_HOUR"
)

// MerchantParameters is the outbound payment-authorisation payload.
type MerchantParameters struct {
	Amount             int64 // minor units
	Order              string
	MerchantCode       string
	Currency           string
	TransactionType    string
	Terminal           string
	MerchantURL        string
	URLOK              string
	URLKO              string
	ProductDescription string
	MerchantName       string
	ConsumerLanguage   string
}

func (p MerchantParameters) toMap() map[string]string {
	m := map[string]string{
		KeyMerchantAmount:          strconv.FormatInt(p.Amount, 10),
		KeyMerchantOrder:           p.Order,
		KeyMerchantCode:            p.MerchantCode,
		KeyMerchantCurrency:        p.Currency,
		KeyMerchantTransactionType: p.TransactionType,
		KeyMerchantTerminal:        p.Terminal,
	}

	optional := map[string]string{
		KeyMerchantURL:                p.MerchantURL,
		KeyMerchantURLOK:              p.URLOK,
		KeyMerchantURLKO:              p.URLKO,
		KeyMerchantProductDescription: p.ProductDescription,
		KeyMerchantName:               p.MerchantName,
		KeyMerchantConsumerLanguage:   p.ConsumerLanguage,
	}
	for k, v := range optional {
		if v != "" {
			m[k] = v
		}
	}
	return m
}

// EncodeMerchantParameters serialises p as compact JSON with keys in
// lexical order and returns its standard base64 form. The returned string is
// the exact byte sequence that gets signed.
func EncodeMerchantParameters(p MerchantParameters) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	// encoding/json writes map keys sorted
	if err := enc.Encode(p.toMap()); err != nil {
		return "", fmt.Errorf("encode merchant parameters: %w", err)
	}

	raw := bytes.TrimRight(buf.Bytes(), "\n")
	return base64.StdEncoding.EncodeToString(raw), nil
}

// Notification is the decoded Ds_MerchantParameters of a callback.
type Notification struct {
	fields map[string]string
}

// DecodeMerchantParameters decodes a base64 (standard or URL-safe, padded
// or not) JSON object. Scalar values are kept as their textual form.
func DecodeMerchantParameters(encoded string) (*Notification, error) {
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return nil, fmt.Errorf("merchant parameters are empty")
	}

	raw, err := decodeBase64Lenient(encoded)
	if err != nil {
		return nil, fmt.Errorf("merchant parameters are not base64: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var values map[string]interface{}
	if err := dec.Decode(&values); err != nil {
		return nil, fmt.Errorf("merchant parameters are not a JSON object: %w", err)
	}

	fields := make(map[string]string, len(values))
	for k, v := range values {
		switch val := v.(type) {
		case nil:
			fields[strings.ToUpper(k)] = ""
		case string:
			fields[strings.ToUpper(k)] = val
		case json.Number:
			fields[strings.ToUpper(k)] = val.String()
		case bool:
			fields[strings.ToUpper(k)] = strconv.FormatBool(val)
		default:
			// nested objects are not part of the notification contract
		}
	}

	return &Notification{fields: fields}, nil
}

func decodeBase64Lenient(s string) ([]byte, error) {
	encodings := []*base64.Encoding{
		base64.StdEncoding,
		base64.URLEncoding,
		base64.RawStdEncoding,
		base64.RawURLEncoding,
	}

	var lastErr error
	for _, enc := range encodings {
		raw, err := enc.DecodeString(s)
		if err == nil {
			return raw, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

// Get returns the value of key, matched case-insensitively.
func (n *Notification) Get(key string) string {
	return strings.TrimSpace(n.fields[strings.ToUpper(key)])
}

func (n *Notification) Order() string             { return n.Get(KeyDsOrder) }
func (n *Notification) ResponseCode() string      { return n.Get(KeyDsResponse) }
func (n *Notification) AuthorisationCode() string { return n.Get(KeyDsAuthorisationCode) }
func (n *Notification) Amount() string            { return n.Get(KeyDsAmount) }
func (n *Notification) Currency() string          { return n.Get(KeyDsCurrency) }
func (n *Notification) MerchantCode() string      { return n.Get(KeyDsMerchantCode) }
func (n *Notification) TransactionType() string   { return n.Get(KeyDsTransactionType) }
