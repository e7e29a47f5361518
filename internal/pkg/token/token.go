package token

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
)

// NewOTPToken generates the opaque 24-character hex token handed to the
// client as the lookup capability for an outstanding OTP.
func NewOTPToken() (string, error) {
	b := make([]byte, 12)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate otp token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// NewOTPCode generates a uniform random 6-digit login code.
func NewOTPCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("generate otp code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
