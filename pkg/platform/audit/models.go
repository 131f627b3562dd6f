package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Outcome records how an obfuscation request ended.
type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeFailed    Outcome = "failed"
)

func (o Outcome) IsValid() bool {
	return o == OutcomeSucceeded || o == OutcomeFailed
}

// Event describes one obfuscation request. It carries field names and
// counts only, never field values.
type Event struct {
	ID              uuid.UUID
	Timestamp       time.Time
	RequestID       string
	Subject         string
	Source          string
	Destination     string
	Format          string
	RequestedFields []string
	MatchedFields   []string
	Rows            int
	BytesIn         int
	BytesOut        int
	Outcome         Outcome
	ErrorKind       string
	Reason          string
}

// Validate checks the fields every sink relies on.
func (e Event) Validate() error {
	if !e.Outcome.IsValid() {
		return fmt.Errorf("audit event has invalid outcome %q", e.Outcome)
	}
	if e.Outcome == OutcomeFailed && e.ErrorKind == "" {
		return fmt.Errorf("failed audit event requires ErrorKind")
	}
	return nil
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// Reader lists persisted events, most recent first.
type Reader interface {
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}
