// Package password verifies stored password hashes for the application
// server's local login path.
package password

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// ErrUnknownFormat indicates a stored hash is not in a recognized format.
var ErrUnknownFormat = errors.New("password: unknown hash format")

// Verify compares a stored hash with a plaintext password. It fails with
// ErrUnknownFormat rather than guessing at unrecognized hash schemes.
func Verify(hash, plaintext string) (bool, error) {
	if !IsBcryptHash(hash) {
		return false, ErrUnknownFormat
	}
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return err == nil, err
}

// Hash produces a bcrypt hash at the default cost.
func Hash(plaintext string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// IsBcryptHash detects common bcrypt PHC prefixes.
func IsBcryptHash(hash string) bool {
	return strings.HasPrefix(hash, "$2a$") || strings.HasPrefix(hash, "$2b$") || strings.HasPrefix(hash, "$2y$")
}
