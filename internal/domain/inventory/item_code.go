package inventory

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
)

const (
	itemCodePrefix   = "IT-"
	itemCodeLength   = 12
	itemCodeAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

var itemCodePattern = regexp.MustCompile(`^IT-[A-Z0-9]{12}$`)

// IsItemCode reports whether s is a well-formed item code.
// The check is case-sensitive; callers normalize input first.
func IsItemCode(s string) bool {
	return itemCodePattern.MatchString(s)
}

// GenerateItemCode returns a random item code (IT- plus 12 base36 characters)
func GenerateItemCode() (string, error) {
	buf := make([]byte, itemCodeLength)
	limit := big.NewInt(int64(len(itemCodeAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("failed to generate item code: %w", err)
		}
		buf[i] = itemCodeAlphabet[n.Int64()]
	}
	return itemCodePrefix + string(buf), nil
}
