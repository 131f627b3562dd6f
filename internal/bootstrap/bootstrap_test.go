package bootstrap

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"obfuscator/internal/platform/config"
	"obfuscator/pkg/platform/audit"
)

func TestStores_Defaults(t *testing.T) {
	reg, err := Stores(context.Background(), config.Storage{}, nil, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	assert.Equal(t, []string{SchemeMemory}, reg.Schemes())
}

func TestStores_FileRoot(t *testing.T) {
	reg, err := Stores(context.Background(), config.Storage{FileRoot: t.TempDir()}, nil, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	assert.Equal(t, []string{SchemeFile, SchemeMemory}, reg.Schemes())
}

func TestStores_MissingFileRoot(t *testing.T) {
	_, err := Stores(context.Background(), config.Storage{FileRoot: filepath.Join(t.TempDir(), "absent")}, nil, slog.New(slog.DiscardHandler))
	assert.ErrorContains(t, err, "init file store")
}

func TestAuditSink_None(t *testing.T) {
	a, err := AuditSink(context.Background(), config.Audit{Sink: config.AuditSinkNone}, slog.New(slog.DiscardHandler), nil)
	require.NoError(t, err)
	assert.Nil(t, a.Publisher)
	assert.NoError(t, a.Close())
}

func TestAuditSink_Memory(t *testing.T) {
	ctx := context.Background()
	a, err := AuditSink(ctx, config.Audit{Sink: config.AuditSinkMemory, AsyncBuffer: 8}, slog.New(slog.DiscardHandler), nil)
	require.NoError(t, err)
	require.NotNil(t, a.Publisher)
	assert.True(t, a.Readable)

	require.NoError(t, a.Publisher.Emit(ctx, audit.Event{Source: "mem://b/a.csv", Outcome: audit.OutcomeSucceeded}))
	require.NoError(t, a.Close())

	events, err := a.Publisher.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "mem://b/a.csv", events[0].Source)
}

func TestAuditSink_Unknown(t *testing.T) {
	_, err := AuditSink(context.Background(), config.Audit{Sink: "syslog"}, slog.New(slog.DiscardHandler), nil)
	assert.ErrorContains(t, err, "unknown audit sink")
}
