package auth

import (
	"crypto/rand"
	"math/big"

	"github.com/samber/oops"
)

// Temporary password configuration. 16 symbols drawn from a 57-symbol
// alphabet carry about 93 bits of entropy.
const (
	TemporaryPasswordLength = 16
	temporaryAlphabet       = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz23456789"
)

// TemporaryGenerator produces one-time recovery secrets.
type TemporaryGenerator func() (string, error)

// GenerateTemporaryPassword returns a random temporary password built from an
// alphabet without look-alike characters, so it can be retyped from an email.
func GenerateTemporaryPassword() (string, error) {
	buf := make([]byte, TemporaryPasswordLength)
	max := big.NewInt(int64(len(temporaryAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", oops.Code("TEMP_PASSWORD_GENERATE_FAILED").Wrap(err)
		}
		buf[i] = temporaryAlphabet[n.Int64()]
	}
	return string(buf), nil
}
