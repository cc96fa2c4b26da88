package redsys

import (
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"printshop-backend/internal/domains/payment/gateway"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()

	cfg := NewConfig("999008881", "1", testSecret, EnvironmentTest)
	cfg.MerchantURL = "https://api.example.test/api/v1/webhooks/redsys"
	cfg.URLOK = "https://shop.example.test/checkout/ok"
	cfg.URLKO = "https://shop.example.test/checkout/ko"
	cfg.MerchantName = "Print Shop"

	client, err := NewClient(cfg)
	require.NoError(t, err)
	return client
}

func TestNewClient_InvalidConfig(t *testing.T) {
	tests := map[string]*Config{
		"missing merchant": NewConfig("", "1", testSecret, EnvironmentTest),
		"missing secret":   NewConfig("999008881", "1", "", EnvironmentTest),
		"bad secret":       NewConfig("999008881", "1", "c2hvcnQ=", EnvironmentTest),
		"bad environment":  NewConfig("999008881", "1", testSecret, "staging"),
	}

	for name, cfg := range tests {
		t.Run(name, func(t *testing.T) {
			client, err := NewClient(cfg)
			assert.Error(t, err)
			assert.Nil(t, client)
		})
	}
}

func TestConfig_FormURL(t *testing.T) {
	assert.Equal(t, TestFormURL, NewConfig("m", "1", testSecret, "").FormURL())
	assert.Equal(t, LiveFormURL, NewConfig("m", "1", testSecret, EnvironmentLive).FormURL())
}

func TestClient_BuildPaymentRequest(t *testing.T) {
	client := newTestClient(t)

	signed, err := client.BuildPaymentRequest(gateway.PaymentRequest{
		OrderReference: "312345612345",
		AmountMinor:    1999,
		Description:    "Order ord_12345678",
	})
	require.NoError(t, err)

	assert.Equal(t, SignatureVersionHMACSHA256V1, signed.SignatureVersion)
	assert.Equal(t, TestFormURL, signed.FormURL)
	assert.True(t, Verify([]byte(signed.EncodedParams), "312345612345", testSecret, signed.Signature))

	raw, err := base64.StdEncoding.DecodeString(signed.EncodedParams)
	require.NoError(t, err)

	var params map[string]string
	require.NoError(t, json.Unmarshal(raw, &params))
	assert.Equal(t, "1999", params[KeyMerchantAmount])
	assert.Equal(t, "312345612345", params[KeyMerchantOrder])
	assert.Equal(t, "999008881", params[KeyMerchantCode])
	assert.Equal(t, CurrencyEUR, params[KeyMerchantCurrency])
	assert.Equal(t, TransactionTypePayment, params[KeyMerchantTransactionType])
	assert.Equal(t, "1", params[KeyMerchantTerminal])
	assert.Equal(t, "https://api.example.test/api/v1/webhooks/redsys", params[KeyMerchantURL])
	assert.Equal(t, "Order ord_12345678", params[KeyMerchantProductDescription])
}

func TestClient_BuildPaymentRequest_RejectsBadInput(t *testing.T) {
	client := newTestClient(t)

	_, err := client.BuildPaymentRequest(gateway.PaymentRequest{OrderReference: "12345", AmountMinor: 100})
	assert.Error(t, err)

	_, err = client.BuildPaymentRequest(gateway.PaymentRequest{OrderReference: "312345612345", AmountMinor: 0})
	assert.Error(t, err)
}

func TestClient_NotificationRoundTrip(t *testing.T) {
	client := newTestClient(t)

	body := `{"Ds_Order":"312345612345","Ds_Response":"0099","Ds_AuthorisationCode":"A1B2C3","Ds_MerchantCode":"999008881"}`
	encoded := base64.StdEncoding.EncodeToString([]byte(body))
	sig, err := Sign([]byte(encoded), "312345612345", testSecret)
	require.NoError(t, err)

	n, err := client.DecodeNotification(encoded)
	require.NoError(t, err)

	assert.Equal(t, "312345612345", n.OrderReference)
	assert.Equal(t, "0099", n.ResponseCode)
	assert.Equal(t, "A1B2C3", n.AuthorizationCode)
	assert.Equal(t, "999008881", n.MerchantCode)
	assert.True(t, client.VerifyNotification(encoded, n.OrderReference, sig))
	assert.False(t, client.VerifyNotification(encoded, "312345612346", sig))
}

func TestIsAuthorizedResponse(t *testing.T) {
	authorized := []string{"0", "0000", "00", "99", "0099", " 42 "}
	declined := []string{"100", "-1", "0100", "9915", "abc", "", "99.5"}

	for _, code := range authorized {
		assert.True(t, IsAuthorizedResponse(code), code)
	}
	for _, code := range declined {
		assert.False(t, IsAuthorizedResponse(code), code)
	}

	assert.Equal(t, "Payment cancelled by the cardholder", GetResponseMessage("9915"))
	assert.Equal(t, "Transaction authorised", GetResponseMessage("0000"))
}
