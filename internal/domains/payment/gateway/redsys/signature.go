package redsys

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"strings"
	"unicode"
)

// =====================================================
// REDSYS SIGNATURE (HMAC_SHA256_V1)
// =====================================================

// Sign computes the signature of payload for one order.
//
// Algorithm:
//  1. key := 3DES-CBC(secret, orderReference) (see DiversifyKey)
//  2. mac := HMAC-SHA256(key, payload)
//  3. standard base64 of mac, padded
//
// payload is the base64 merchant-parameters string exactly as it travels on
// the wire, never the decoded JSON.
func Sign(payload []byte, orderReference, secretBase64 string) (string, error) {
	key, err := DiversifyKey(secretBase64, orderReference)
	if err != nil {
		return "", err
	}

	mac := hmac.New(sha256.New, key)
	mac.Write(payload)

	return base64.StdEncoding.EncodeToString(mac.Sum(nil)), nil
}

// Verify recomputes the signature and compares it with received.
//
// Only received is normalised: the gateway may answer in URL-safe base64
// while Sign always emits the standard alphabet. The comparison is constant
// time. A secret that cannot be diversified never verifies.
func Verify(payload []byte, orderReference, secretBase64, received string) bool {
	expected, err := Sign(payload, orderReference, secretBase64)
	if err != nil {
		return false
	}

	normalized := NormalizeSignature(received)
	return subtle.ConstantTimeCompare([]byte(normalized), []byte(expected)) == 1
}

// NormalizeSignature maps a URL-safe or unpadded base64 signature onto the
// standard padded alphabet.
func NormalizeSignature(s string) string {
	s = strings.Map(func(r rune) rune {
		switch {
		case unicode.IsSpace(r):
			return -1
		case r == '-':
			return '+'
		case r == '_':
			return '/'
		}
		return r
	}, s)

	if rem := len(s) % 4; rem != 0 {
		s += strings.Repeat("=", 4-rem)
	}
	return s
}
