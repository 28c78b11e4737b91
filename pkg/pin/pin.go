package pin

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"

	"github.com/aromabox/pintone/pkg/dtmf"
)

const (
	// MinLength is the shortest PIN accepted
	MinLength = 1
	// MaxLength is the longest PIN a vending machine accepts
	MaxLength = 6
)

var (
	// ErrEmpty is returned for a PIN with no symbols.
	ErrEmpty = errors.New("pin is empty")
	// ErrTooLong is returned for a PIN longer than MaxLength.
	ErrTooLong = fmt.Errorf("pin is longer than %d symbols", MaxLength)
	// ErrInvalidSymbol is returned for a character the PIN may not contain.
	ErrInvalidSymbol = errors.New("pin contains an invalid symbol")
	// ErrInvalidLength is returned by Generate for a length outside MinLength..MaxLength.
	ErrInvalidLength = fmt.Errorf("pin length must be between %d and %d", MinLength, MaxLength)
)

// Validate checks that p is a numeric PIN of acceptable length.
func Validate(p string) error {
	return validate(p, func(r rune) bool { return r >= '0' && r <= '9' })
}

// ValidateKeypad is like Validate but also accepts '*' and '#'.
func ValidateKeypad(p string) error {
	return validate(p, dtmf.IsSymbol)
}

func validate(p string, allowed func(rune) bool) error {
	if p == "" {
		return ErrEmpty
	}
	n := 0
	for _, r := range p {
		if !allowed(r) {
			return fmt.Errorf("%w: '%c' at index %d", ErrInvalidSymbol, r, n)
		}
		n++
	}
	if n > MaxLength {
		return fmt.Errorf("%w: got %d", ErrTooLong, n)
	}
	return nil
}

// Generate returns a random numeric PIN of the given length.
func Generate(length int) (string, error) {
	if length < MinLength || length > MaxLength {
		return "", fmt.Errorf("%w: got %d", ErrInvalidLength, length)
	}
	ten := big.NewInt(10)
	digits := make([]byte, length)
	for i := range digits {
		n, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", fmt.Errorf("failed to read random digit: %w", err)
		}
		digits[i] = byte('0' + n.Int64())
	}
	return string(digits), nil
}
