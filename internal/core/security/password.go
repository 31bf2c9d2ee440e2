// Package security provides the operator confirmation gate used before
// irreversible stock operations.
package security

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// PasswordGate checks an operator-supplied password against a bcrypt hash.
// It is a confirmation step, not an identity system.
type PasswordGate struct {
	hash []byte
}

// NewPasswordGate creates a gate from an existing bcrypt hash.
func NewPasswordGate(hash string) (*PasswordGate, error) {
	hash = strings.TrimSpace(hash)
	if _, err := bcrypt.Cost([]byte(hash)); err != nil {
		return nil, fmt.Errorf("invalid bcrypt hash: %w", err)
	}
	return &PasswordGate{hash: []byte(hash)}, nil
}

// NewPasswordGateFromPlain hashes a plain password once at startup.
func NewPasswordGateFromPlain(password string) (*PasswordGate, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	return &PasswordGate{hash: []byte(hash)}, nil
}

// HashPassword returns the bcrypt hash of password. Blank passwords are rejected.
func HashPassword(password string) (string, error) {
	if strings.TrimSpace(password) == "" {
		return "", errors.New("password must not be empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Confirm reports whether password matches exactly. Blank input never matches.
func (g *PasswordGate) Confirm(password string) bool {
	if g == nil || strings.TrimSpace(password) == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword(g.hash, []byte(password)) == nil
}
