package redsys

import (
	"crypto/cipher"
	"crypto/des"
	"encoding/base64"
	"fmt"
)

// KeyDerivationError means the merchant secret cannot be turned into a
// 3DES key. No signature can be produced while it persists.
type KeyDerivationError struct {
	Reason string
	Err    error
}

func (e *KeyDerivationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("redsys key derivation failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("redsys key derivation failed: %s", e.Reason)
}

func (e *KeyDerivationError) Unwrap() error {
	return e.Err
}

// decodeSecret decodes the base64 merchant secret into a 24-byte 3DES key.
// A 16-byte (two-key) secret is expanded to K1|K2|K1.
func decodeSecret(secretBase64 string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(secretBase64)
	if err != nil {
		return nil, &KeyDerivationError{Reason: "secret is not valid base64", Err: err}
	}

	switch len(key) {
	case 24:
		return key, nil
	case 16:
		expanded := make([]byte, 0, 24)
		expanded = append(expanded, key...)
		expanded = append(expanded, key[:8]...)
		return expanded, nil
	default:
		return nil, &KeyDerivationError{
			Reason: fmt.Sprintf("secret decodes to %d bytes, want 16 or 24", len(key)),
		}
	}
}

// zeroPad right-pads msg with NUL bytes up to a multiple of the DES block size.
func zeroPad(msg []byte) []byte {
	rem := len(msg) % des.BlockSize
	if rem == 0 {
		return msg
	}
	padded := make([]byte, len(msg)+des.BlockSize-rem)
	copy(padded, msg)
	return padded
}

// DiversifyKey encrypts the order reference with the merchant secret
// (3DES-CBC, zero IV, zero padding). The raw ciphertext is the per-order
// HMAC key.
func DiversifyKey(secretBase64, orderReference string) ([]byte, error) {
	key, err := decodeSecret(secretBase64)
	if err != nil {
		return nil, err
	}

	block, err := des.NewTripleDESCipher(key)
	if err != nil {
		return nil, &KeyDerivationError{Reason: "cannot initialise 3DES cipher", Err: err}
	}

	plaintext := zeroPad([]byte(orderReference))
	ciphertext := make([]byte, len(plaintext))
	iv := make([]byte, des.BlockSize)
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, plaintext)

	return ciphertext, nil
}
