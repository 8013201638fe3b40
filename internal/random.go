package internal

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"math/big"
	"strings"
)

// NewOTP generates a uniformly distributed numeric one-time code with the
// given number of digits. The source of randomness is crypto/rand; a
// non-cryptographic generator is never acceptable here.
func NewOTP(digits int) (string, error) {
	if digits < 6 || digits > 10 {
		return "", errors.New("invalid otp digits")
	}

	var b strings.Builder
	b.Grow(digits)

	max := big.NewInt(10)
	for i := 0; i < digits; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + n.Int64()))
	}

	otp := b.String()
	if len(otp) != digits {
		return "", fmt.Errorf("invalid otp generation length")
	}
	return otp, nil
}

// HashOTP returns the SHA-256 digest of a one-time code. Only the digest is
// ever persisted; the plaintext code exists in memory and in the outbound
// email body only.
func HashOTP(code string) [32]byte {
	return sha256.Sum256([]byte(code))
}
