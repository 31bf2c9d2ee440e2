// Package id generates identifiers for audit records.
package id

import (
	"github.com/google/uuid"
)

// ID identifies one audit entry.
type ID = uuid.UUID

// New returns a time-ordered UUIDv7, falling back to v4.
func New() ID {
	v, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}
	return v
}

// IsNil reports whether v is the zero UUID.
func IsNil(v ID) bool {
	return v == uuid.Nil
}
