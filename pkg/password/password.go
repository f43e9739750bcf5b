package password

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

// MinLength is the shortest accepted plaintext password.
const MinLength = 8

var ErrTooShort = fmt.Errorf("password must be at least %d characters long", MinLength)

// Hasher hashes and verifies passwords with bcrypt at a fixed cost.
type Hasher struct {
	Cost int
}

// NewHasher returns a Hasher, falling back to bcrypt.DefaultCost for out-of-range costs.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{Cost: cost}
}

// Hash returns the bcrypt hash of plaintext
func (h *Hasher) Hash(plaintext string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.Cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Verify reports whether plaintext matches hash
func (h *Hasher) Verify(plaintext, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	return err == nil
}

// MaxBytes is the bcrypt input limit
const MaxBytes = 72

// Validate checks the password policy before anything is persisted.
// The minimum counts characters; the maximum counts bytes because bcrypt does.
func Validate(plaintext string) error {
	if utf8.RuneCountInString(plaintext) < MinLength {
		return ErrTooShort
	}
	if len(plaintext) > MaxBytes {
		return errors.New("password must be at most 72 bytes long")
	}
	return nil
}
