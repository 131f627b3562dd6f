package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	audit "obfuscator/pkg/platform/audit"
)

// Schema creates the audit table. Field lists are text arrays so that
// requested and matched names stay queryable without a join.
const Schema = `
CREATE TABLE IF NOT EXISTS obfuscation_audit (
	id               UUID PRIMARY KEY,
	timestamp        TIMESTAMPTZ NOT NULL,
	request_id       TEXT NOT NULL DEFAULT '',
	subject          TEXT NOT NULL DEFAULT '',
	source           TEXT NOT NULL DEFAULT '',
	destination      TEXT NOT NULL DEFAULT '',
	format           TEXT NOT NULL DEFAULT '',
	requested_fields TEXT[] NOT NULL DEFAULT '{}',
	matched_fields   TEXT[] NOT NULL DEFAULT '{}',
	rows             INTEGER NOT NULL DEFAULT 0,
	bytes_in         INTEGER NOT NULL DEFAULT 0,
	bytes_out        INTEGER NOT NULL DEFAULT 0,
	outcome          TEXT NOT NULL,
	error_kind       TEXT NOT NULL DEFAULT '',
	reason           TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS obfuscation_audit_timestamp_idx ON obfuscation_audit (timestamp DESC);
`

// Store implements audit.Store and audit.Reader on the obfuscation_audit table.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Migrate applies Schema. It is safe to run on every start.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("migrate audit schema: %w", err)
	}
	return nil
}

// Append inserts an event. Re-delivery of the same ID is ignored.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	query := `
		INSERT INTO obfuscation_audit (
			id, timestamp, request_id, subject, source, destination, format,
			requested_fields, matched_fields, rows, bytes_in, bytes_out,
			outcome, error_kind, reason
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := s.db.ExecContext(ctx, query,
		event.ID,
		event.Timestamp,
		event.RequestID,
		event.Subject,
		event.Source,
		event.Destination,
		event.Format,
		pq.Array(nonNil(event.RequestedFields)),
		pq.Array(nonNil(event.MatchedFields)),
		event.Rows,
		event.BytesIn,
		event.BytesOut,
		string(event.Outcome),
		event.ErrorKind,
		event.Reason,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// ListRecent returns the N most recent events.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]audit.Event, error) {
	query := `
		SELECT id, timestamp, request_id, subject, source, destination, format,
		       requested_fields, matched_fields, rows, bytes_in, bytes_out,
		       outcome, error_kind, reason
		FROM obfuscation_audit
		ORDER BY timestamp DESC
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var events []audit.Event
	for rows.Next() {
		var (
			event   audit.Event
			outcome string
		)
		err := rows.Scan(
			&event.ID,
			&event.Timestamp,
			&event.RequestID,
			&event.Subject,
			&event.Source,
			&event.Destination,
			&event.Format,
			pq.Array(&event.RequestedFields),
			pq.Array(&event.MatchedFields),
			&event.Rows,
			&event.BytesIn,
			&event.BytesOut,
			&outcome,
			&event.ErrorKind,
			&event.Reason,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.Outcome = audit.Outcome(outcome)
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
