package session

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
)

const (
	// CodeAlphabet excludes 0, O, 1 and I
	CodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

	// CodeLength is the number of characters in a game code
	CodeLength = 6

	// DefaultMaxCodeAttempts caps collision retries when allocating a code
	DefaultMaxCodeAttempts = 100
)

// codeMask selects 5 bits; the alphabet has exactly 32 symbols so every
// masked byte maps to a symbol with equal probability.
const codeMask = len(CodeAlphabet) - 1

// generateCode draws CodeLength symbols uniformly from CodeAlphabet
func generateCode(random io.Reader) (string, error) {
	buf := make([]byte, CodeLength)
	if _, err := io.ReadFull(random, buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}

	var sb strings.Builder
	sb.Grow(CodeLength)
	for _, b := range buf {
		sb.WriteByte(CodeAlphabet[int(b)&codeMask])
	}
	return sb.String(), nil
}

// NormalizeCode trims and upper-cases a client supplied code
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidCode reports whether code has the shape of a generated code
func ValidCode(code string) bool {
	if len(code) != CodeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		if strings.IndexByte(CodeAlphabet, code[i]) < 0 {
			return false
		}
	}
	return true
}

var defaultRandom io.Reader = rand.Reader
