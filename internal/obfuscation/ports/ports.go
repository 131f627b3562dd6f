// Package ports defines the collaborators the obfuscation service depends on.
// Object stores and audit sinks are injected through these interfaces so the
// service holds no process-wide client state.
package ports

import (
	"context"

	"obfuscator/pkg/platform/audit"
)

// ObjectStore reads and writes whole objects.
type ObjectStore interface {
	// Fetch returns the object bytes. Missing objects return an error
	// wrapping sentinel.ErrNotFound.
	Fetch(ctx context.Context, container, path string) ([]byte, error)

	// Put creates or replaces the object.
	Put(ctx context.Context, container, path string, data []byte) error
}

// StoreResolver selects the object store serving a locator scheme.
type StoreResolver interface {
	Store(scheme string) (ObjectStore, error)
}

// AuditPublisher records the outcome of every obfuscation request.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}
