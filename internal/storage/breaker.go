package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"obfuscator/internal/obfuscation/ports"
	"obfuscator/pkg/platform/circuit"
	"obfuscator/pkg/platform/sentinel"
)

// BreakerStore fails fast with sentinel.ErrUnavailable while the backend's
// circuit is open. Missing objects, forbidden paths and cancelled contexts
// are caller errors and do not count as backend failures.
type BreakerStore struct {
	next    ports.ObjectStore
	breaker *circuit.Breaker
	logger  *slog.Logger
}

func NewBreakerStore(next ports.ObjectStore, breaker *circuit.Breaker, logger *slog.Logger) *BreakerStore {
	return &BreakerStore{next: next, breaker: breaker, logger: logger}
}

func (s *BreakerStore) Fetch(ctx context.Context, container, path string) ([]byte, error) {
	if !s.breaker.Allow() {
		return nil, s.unavailable()
	}
	data, err := s.next.Fetch(ctx, container, path)
	s.record(ctx, err)
	return data, err
}

func (s *BreakerStore) Put(ctx context.Context, container, path string, data []byte) error {
	if !s.breaker.Allow() {
		return s.unavailable()
	}
	err := s.next.Put(ctx, container, path, data)
	s.record(ctx, err)
	return err
}

func (s *BreakerStore) unavailable() error {
	return fmt.Errorf("%s store circuit open since %s: %w",
		s.breaker.Name(), s.breaker.OpenedAt().Format(time.RFC3339), sentinel.ErrUnavailable)
}

func (s *BreakerStore) record(ctx context.Context, err error) {
	if err == nil || isCallerError(err) {
		if _, change := s.breaker.RecordSuccess(); change.Closed {
			s.logger.InfoContext(ctx, "object store circuit closed", "store", s.breaker.Name())
		}
		return
	}
	if _, change := s.breaker.RecordFailure(); change.Opened {
		s.logger.WarnContext(ctx, "object store circuit opened",
			"store", s.breaker.Name(),
			"error", err,
		)
	}
}

func isCallerError(err error) bool {
	return errors.Is(err, sentinel.ErrNotFound) ||
		errors.Is(err, sentinel.ErrForbidden) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
