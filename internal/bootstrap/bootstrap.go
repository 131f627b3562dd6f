// Package bootstrap builds the object stores and audit sink described by a
// config.Config. The server and the CLI share it.
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq"

	"obfuscator/internal/obfuscation/ports"
	"obfuscator/internal/platform/config"
	"obfuscator/internal/platform/redis"
	"obfuscator/internal/storage"
	"obfuscator/pkg/platform/audit"
	"obfuscator/pkg/platform/audit/publisher"
	"obfuscator/pkg/platform/audit/publishers/kafka"
	"obfuscator/pkg/platform/audit/store/memory"
	"obfuscator/pkg/platform/audit/store/postgres"
	"obfuscator/pkg/platform/circuit"
)

// Locator schemes served by the built-in stores.
const (
	SchemeMemory = "mem"
	SchemeFile   = "file"
	SchemeS3     = "s3"
	SchemeRedis  = "redis"
)

const (
	kafkaPartitions        = 3
	kafkaReplicationFactor = 1
)

// Stores registers every configured backend. mem:// is always available;
// the rest are enabled by configuration. rdb may be nil.
func Stores(ctx context.Context, cfg config.Storage, rdb *redis.Client, logger *slog.Logger) (*storage.Registry, error) {
	reg := storage.NewRegistry()
	reg.Register(SchemeMemory, storage.NewMemoryStore())

	if cfg.FileRoot != "" {
		fs, err := storage.NewFileStore(cfg.FileRoot)
		if err != nil {
			return nil, fmt.Errorf("init file store: %w", err)
		}
		reg.Register(SchemeFile, fs)
	}
	if cfg.S3Enabled {
		client, err := storage.NewS3Client(ctx, storage.S3Options{
			Region:       cfg.S3Region,
			Endpoint:     cfg.S3Endpoint,
			UsePathStyle: cfg.S3UsePathStyle,
		})
		if err != nil {
			return nil, fmt.Errorf("init s3 store: %w", err)
		}
		reg.Register(SchemeS3, guard(SchemeS3, storage.NewS3Store(client), cfg, logger))
	}
	if rdb != nil {
		reg.Register(SchemeRedis, guard(SchemeRedis, storage.NewRedisStore(rdb.Client, cfg.RedisTTL), cfg, logger))
	}

	logger.Info("object stores registered", "schemes", reg.Schemes())
	return reg, nil
}

// guard puts a remote store behind a circuit breaker.
func guard(name string, store ports.ObjectStore, cfg config.Storage, logger *slog.Logger) ports.ObjectStore {
	b := circuit.New(name,
		circuit.WithFailureThreshold(cfg.BreakerFailures),
		circuit.WithCooldown(cfg.BreakerCooldown),
	)
	return storage.NewBreakerStore(store, b, logger)
}

// Audit holds the publisher for the configured sink. Publisher is nil when
// auditing is disabled. Readable reports whether Publisher.List works.
type Audit struct {
	Publisher *publisher.Publisher
	Readable  bool
	closers   []func() error
}

// Close flushes queued events and releases the sink connection.
func (a *Audit) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// AuditSink opens the configured sink and wraps it in a publisher.
// onFailure is called for each event the background drain drops.
func AuditSink(ctx context.Context, cfg config.Audit, logger *slog.Logger, onFailure func()) (*Audit, error) {
	a := &Audit{}

	var store audit.Store
	switch cfg.Sink {
	case config.AuditSinkNone:
		logger.Info("audit disabled")
		return a, nil
	case config.AuditSinkMemory:
		store = memory.NewInMemoryStore()
	case config.AuditSinkPostgres:
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open audit database: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("ping audit database: %w", err)
		}
		pg := postgres.New(db)
		if err := pg.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrate audit table: %w", err)
		}
		a.closers = append(a.closers, db.Close)
		store = pg
	case config.AuditSinkKafka:
		sink, err := kafka.New(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			return nil, err
		}
		if err := sink.EnsureTopic(ctx, kafkaPartitions, kafkaReplicationFactor); err != nil {
			sink.Close()
			return nil, err
		}
		a.closers = append(a.closers, func() error {
			sink.Close()
			return nil
		})
		store = sink
	default:
		return nil, fmt.Errorf("unknown audit sink %q", cfg.Sink)
	}

	opts := []publisher.Option{publisher.WithLogger(logger)}
	if cfg.AsyncBuffer > 0 {
		opts = append(opts, publisher.WithAsyncBuffer(cfg.AsyncBuffer))
	}
	if onFailure != nil {
		opts = append(opts, publisher.WithFailureHook(onFailure))
	}
	a.Publisher = publisher.NewPublisher(store, opts...)
	_, a.Readable = store.(audit.Reader)
	a.closers = append(a.closers, a.Publisher.Close)

	logger.Info("audit sink ready", "sink", cfg.Sink, "async_buffer", cfg.AsyncBuffer)
	return a, nil
}
