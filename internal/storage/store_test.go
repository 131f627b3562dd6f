package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"obfuscator/internal/obfuscation/models"
	"obfuscator/pkg/platform/sentinel"
)

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	mem := NewMemoryStore()
	reg.Register("MEM", mem)

	got, err := reg.Store("mem")
	require.NoError(t, err)
	assert.Same(t, mem, got)

	got, err = reg.Store("Mem")
	require.NoError(t, err)
	assert.Same(t, mem, got)

	_, err = reg.Store("ftp")
	require.Error(t, err)
	assert.True(t, models.IsKind(err, models.KindInvalidLocator))

	reg.Register("file", NewMemoryStore())
	assert.Equal(t, []string{"file", "mem"}, reg.Schemes())
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, err := s.Fetch(ctx, "bucket", "a.csv")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)

	data := []byte("name\nAda\n")
	require.NoError(t, s.Put(ctx, "bucket", "a.csv", data))
	data[0] = 'X'

	got, err := s.Fetch(ctx, "bucket", "a.csv")
	require.NoError(t, err)
	assert.Equal(t, "name\nAda\n", string(got), "stored bytes are copied")
	assert.Equal(t, 1, s.Len())

	got[0] = 'Y'
	again, err := s.Fetch(ctx, "bucket", "a.csv")
	require.NoError(t, err)
	assert.Equal(t, "name\nAda\n", string(again), "fetched bytes are copied")
}

func TestMemoryStore_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := NewMemoryStore()
	_, err := s.Fetch(ctx, "bucket", "a.csv")
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, s.Put(ctx, "bucket", "a.csv", nil), context.Canceled)
}
