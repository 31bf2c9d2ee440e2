// Package audit defines the audit trail contract for domain operations.
package audit

import (
	"context"
)

// Action is the kind of audited operation.
type Action string

const (
	ActionCreate Action = "create"
)

// Change describes one audited operation.
type Change struct {
	EntityType string
	EntityID   string
	Action     Action
	UserID     string

	// Changes is the entity payload (marshalled to JSON by the store).
	Changes any

	// Metadata holds request context: request id, input parameters.
	Metadata map[string]any
}

// Logger records audit entries. Implementations write inside the caller's
// transaction so the entry commits or rolls back together with the change.
type Logger interface {
	Log(ctx context.Context, change Change) error
}
