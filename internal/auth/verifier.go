package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/scrypt"
)

// scrypt cost parameters. The derived key length matches the stored
// 32-byte hex hashes.
const (
	scryptN      = 32768
	scryptR      = 8
	scryptP      = 1
	scryptKeyLen = 32
)

// Verifier derives and checks salted password hashes with scrypt.
// The zero value is ready to use.
type Verifier struct{}

// Derive returns the hex-encoded scrypt key for the password and salt.
func (Verifier) Derive(password, salt string) (string, error) {
	key, err := scrypt.Key([]byte(password), []byte(salt), scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return "", fmt.Errorf("derive key: %w", err)
	}
	return hex.EncodeToString(key), nil
}

// Verify derives the password with the salt and compares against the
// expected hash in constant time. A derivation error is reported as an
// error, never as a match.
func (v Verifier) Verify(password, salt, expectedHash string) (bool, error) {
	derived, err := v.Derive(password, salt)
	if err != nil {
		return false, err
	}
	return subtle.ConstantTimeCompare([]byte(derived), []byte(expectedHash)) == 1, nil
}

// NewSalt returns a fresh random hex salt. Each credential gets exactly one.
func NewSalt() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
