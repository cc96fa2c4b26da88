package redsys

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeMerchantParameters_CanonicalJSON(t *testing.T) {
	encoded, err := EncodeMerchantParameters(MerchantParameters{
		Amount:          1999,
		Order:           "312345612345",
		MerchantCode:    "999008881",
		Currency:        "978",
		TransactionType: "0",
		Terminal:        "1",
	})
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err)

	assert.Equal(t,
		`{"DS_MERCHANT_AMOUNT":"1999","DS_MERCHANT_CURRENCY":"978","DS_MERCHANT_MERCHANTCODE":"999008881",`+
			`"DS_MERCHANT_ORDER":"312345612345","DS_MERCHANT_TERMINAL":"1","DS_MERCHANT_TRANSACTIONTYPE":"0"}`,
		string(raw))
}

func TestEncodeMerchantParameters_OptionalFields(t *testing.T) {
	encoded, err := EncodeMerchantParameters(MerchantParameters{
		Amount:             500,
		Order:              "300000100000",
		MerchantCode:       "999008881",
		Currency:           "978",
		TransactionType:    "0",
		Terminal:           "1",
		MerchantURL:        "https://api.example.test/webhooks/redsys?a=1&b=2",
		ProductDescription: "Print <A4> x 10",
	})
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err)

	assert.Contains(t, string(raw), `"DS_MERCHANT_MERCHANTURL":"https://api.example.test/webhooks/redsys?a=1&b=2"`)
	assert.Contains(t, string(raw), `"DS_MERCHANT_PRODUCTDESCRIPTION":"Print <A4> x 10"`)
	assert.NotContains(t, string(raw), KeyMerchantURLOK)
	assert.NotContains(t, string(raw), "\n")
}

func TestEncodeMerchantParameters_Deterministic(t *testing.T) {
	p := MerchantParameters{
		Amount: 1, Order: "300000000001", MerchantCode: "1", Currency: "978",
		TransactionType: "0", Terminal: "1", URLOK: "https://ok", URLKO: "https://ko",
		MerchantName: "Print Shop", ConsumerLanguage: "001",
	}

	first, err := EncodeMerchantParameters(p)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := EncodeMerchantParameters(p)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestDecodeMerchantParameters(t *testing.T) {
	body := `{"Ds_Date":"16%2F10%2F2026","Ds_Order":"312345612345","Ds_Response":"0000",` +
		`"Ds_AuthorisationCode":"123456","Ds_Amount":1999,"DS_CURRENCY":"978","Ds_SecurePayment":true}`

	cases := map[string]string{
		"standard":         base64.StdEncoding.EncodeToString([]byte(body)),
		"url safe":         base64.URLEncoding.EncodeToString([]byte(body)),
		"url safe no pads": base64.RawURLEncoding.EncodeToString([]byte(body)),
	}

	for name, encoded := range cases {
		t.Run(name, func(t *testing.T) {
			n, err := DecodeMerchantParameters(encoded)
			require.NoError(t, err)

			assert.Equal(t, "312345612345", n.Order())
			assert.Equal(t, "0000", n.ResponseCode())
			assert.Equal(t, "123456", n.AuthorisationCode())
			assert.Equal(t, "1999", n.Amount())
			assert.Equal(t, "978", n.Currency())
			assert.Equal(t, "true", n.Get("ds_securepayment"))
			assert.Empty(t, n.MerchantCode())
		})
	}
}

func TestDecodeMerchantParameters_Malformed(t *testing.T) {
	tests := map[string]string{
		"empty":      "",
		"not base64": "***",
		"not json":   base64.StdEncoding.EncodeToString([]byte("not json")),
		"json array": base64.StdEncoding.EncodeToString([]byte(`["a","b"]`)),
	}

	for name, encoded := range tests {
		t.Run(name, func(t *testing.T) {
			n, err := DecodeMerchantParameters(encoded)
			assert.Error(t, err)
			assert.Nil(t, n)
		})
	}
}
