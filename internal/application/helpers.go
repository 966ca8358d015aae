package application

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

// CanonicalCode upper-cases the code and reports whether it has the shape
// the game server issues: exactly eight latin letters or digits.
func CanonicalCode(raw string) (string, bool) {
	code := strings.ToUpper(strings.TrimSpace(raw))
	if len(code) != codeLength {
		return "", false
	}
	for i := 0; i < len(code); i++ {
		c := code[i]
		if (c < 'A' || c > 'Z') && (c < '0' || c > '9') {
			return "", false
		}
	}
	return code, true
}

func generateCode() (string, error) {
	max := big.NewInt(int64(len(codeAlphabet)))
	buf := make([]byte, codeLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate code: %w", err)
		}
		buf[i] = codeAlphabet[n.Int64()]
	}
	return string(buf), nil
}
