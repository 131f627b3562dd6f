// Package publisher stamps, validates and persists audit events.
//
// By default Emit writes synchronously and returns the store error. With
// WithAsyncBuffer, events are queued and a single goroutine drains them; a
// full buffer drops the event and Emit reports ErrBufferFull.
package publisher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	audit "obfuscator/pkg/platform/audit"
)

var (
	ErrBufferFull = errors.New("audit buffer full")
	ErrClosed     = errors.New("audit publisher closed")
)

type Publisher struct {
	store     audit.Store
	logger    *slog.Logger
	onFailure func()
	now       func() time.Time

	mu     sync.RWMutex
	closed bool
	queue  chan audit.Event
	done   chan struct{}
}

// Option configures the Publisher.
type Option func(*Publisher)

// WithLogger sets a logger for background persistence failures.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// WithAsyncBuffer queues up to size events and persists them in the background.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		if size > 0 {
			p.queue = make(chan audit.Event, size)
		}
	}
}

// WithFailureHook is called for every queued event the background drain
// fails to persist. Synchronous failures are returned from Emit instead.
func WithFailureHook(fn func()) Option {
	return func(p *Publisher) {
		p.onFailure = fn
	}
}

func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{
		store: store,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.queue != nil {
		p.done = make(chan struct{})
		go p.drain()
	}
	return p
}

// Emit records event, assigning an ID and a timestamp when they are unset.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if err := event.Validate(); err != nil {
		return err
	}
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = p.now()
	}

	if p.queue == nil {
		return p.persist(ctx, event)
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}
	select {
	case p.queue <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrBufferFull
	}
}

// List returns the most recent events when the store can be read.
func (p *Publisher) List(ctx context.Context, limit int) ([]audit.Event, error) {
	r, ok := p.store.(audit.Reader)
	if !ok {
		return nil, fmt.Errorf("audit store %T is not readable", p.store)
	}
	return r.ListRecent(ctx, limit)
}

// Close stops accepting events and waits until queued events are persisted.
func (p *Publisher) Close() error {
	if p.queue == nil {
		return nil
	}
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	<-p.done
	return nil
}

func (p *Publisher) drain() {
	defer close(p.done)
	ctx := context.Background()
	for event := range p.queue {
		err := p.persist(ctx, event)
		if err == nil {
			continue
		}
		if p.onFailure != nil {
			p.onFailure()
		}
		if p.logger != nil {
			p.logger.ErrorContext(ctx, "audit event not persisted",
				"event_id", event.ID,
				"request_id", event.RequestID,
				"outcome", event.Outcome,
				"error", err,
			)
		}
	}
}

func (p *Publisher) persist(ctx context.Context, event audit.Event) error {
	if err := p.store.Append(ctx, event); err != nil {
		return fmt.Errorf("persist audit event: %w", err)
	}
	return nil
}
