package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"obfuscator/pkg/platform/circuit"
	"obfuscator/pkg/platform/sentinel"
)

type flakyStore struct {
	err   error
	calls int
}

func (f *flakyStore) Fetch(context.Context, string, string) ([]byte, error) {
	f.calls++
	return []byte("ok"), f.err
}

func (f *flakyStore) Put(context.Context, string, string, []byte) error {
	f.calls++
	return f.err
}

func TestBreakerStore_OpensOnBackendFailures(t *testing.T) {
	ctx := context.Background()
	backend := &flakyStore{err: errors.New("connection reset")}
	b := circuit.New("s3", circuit.WithFailureThreshold(2))
	store := NewBreakerStore(backend, b, slog.New(slog.DiscardHandler))

	_, err := store.Fetch(ctx, "b", "a.csv")
	require.EqualError(t, err, "connection reset")
	require.Error(t, store.Put(ctx, "b", "a.csv", nil))
	require.True(t, b.IsOpen())

	_, err = store.Fetch(ctx, "b", "a.csv")
	assert.ErrorIs(t, err, sentinel.ErrUnavailable)
	assert.Equal(t, 2, backend.calls)
}

func TestBreakerStore_CallerErrorsDoNotTrip(t *testing.T) {
	ctx := context.Background()
	backend := &flakyStore{err: fmt.Errorf("object b/a.csv: %w", sentinel.ErrNotFound)}
	b := circuit.New("redis", circuit.WithFailureThreshold(1))
	store := NewBreakerStore(backend, b, slog.New(slog.DiscardHandler))

	for range 3 {
		_, err := store.Fetch(ctx, "b", "a.csv")
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	}
	assert.False(t, b.IsOpen())
	assert.Equal(t, 3, backend.calls)
}

func TestBreakerStore_PassesThroughSuccess(t *testing.T) {
	store := NewBreakerStore(NewMemoryStore(), circuit.New("mem"), slog.New(slog.DiscardHandler))
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "b", "a.csv", []byte("x")))
	data, err := store.Fetch(ctx, "b", "a.csv")
	require.NoError(t, err)
	assert.Equal(t, []byte("x"), data)
}
