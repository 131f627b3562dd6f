package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	flag "github.com/spf13/pflag"

	"obfuscator/internal/bootstrap"
	jwttoken "obfuscator/internal/jwt_token"
	"obfuscator/internal/obfuscation/handler"
	obfmetrics "obfuscator/internal/obfuscation/metrics"
	"obfuscator/internal/obfuscation/service"
	"obfuscator/internal/platform/config"
	"obfuscator/internal/platform/httpserver"
	"obfuscator/internal/platform/logger"
	"obfuscator/internal/platform/metrics"
	"obfuscator/internal/platform/redis"
	httptransport "obfuscator/internal/transport/http"
)

const writeTimeoutSlack = 5 * time.Second

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	envFile := flag.String("env-file", ".env", "dotenv file loaded before reading the environment")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	httpMetrics := metrics.New(reg)
	obfMetrics := obfmetrics.New(reg)

	rdb, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer func() {
			if err := rdb.Close(); err != nil {
				log.Error("Error closing redis client", "error", err)
			}
		}()
	}

	stores, err := bootstrap.Stores(ctx, cfg.Storage, rdb, log)
	if err != nil {
		return err
	}

	auditSink, err := bootstrap.AuditSink(ctx, cfg.Audit, log, obfMetrics.IncAuditFailures)
	if err != nil {
		return err
	}
	defer func() {
		if err := auditSink.Close(); err != nil {
			log.Error("Error closing audit sink", "error", err)
		}
	}()

	svcOpts := []service.Option{
		service.WithLogger(log),
		service.WithMetrics(obfMetrics),
		service.WithBatchConcurrency(cfg.Server.BatchConcurrency),
	}
	if auditSink.Publisher != nil {
		svcOpts = append(svcOpts, service.WithAuditPublisher(auditSink.Publisher))
	}
	svc := service.New(stores, svcOpts...)

	routerOpts := httptransport.Options{
		Logger:         log,
		Metrics:        httpMetrics,
		Gatherer:       reg,
		RequestTimeout: cfg.Server.RequestTimeout,
		MaxBodyBytes:   cfg.Server.MaxBodyBytes,
		HealthChecks:   map[string]httptransport.HealthCheck{},
	}
	if rdb != nil {
		routerOpts.HealthChecks["redis"] = rdb.Health
	}
	if cfg.Server.RequireAuth {
		jwt := jwttoken.NewJWTService(cfg.Server.JWTSigningKey, cfg.Server.JWTIssuer, cfg.Server.JWTAudience)
		routerOpts.Auth = jwttoken.NewJWTServiceAdapter(jwt)
	}
	var handlerOpts []handler.Option
	if auditSink.Readable {
		handlerOpts = append(handlerOpts, handler.WithAuditReader(auditSink.Publisher))
	}
	router := httptransport.NewRouter(routerOpts, handler.New(svc, log, handlerOpts...))

	srv := httpserver.New(cfg.Server.Addr, router, cfg.Server.RequestTimeout+writeTimeoutSlack)
	errCh := make(chan error, 1)
	go func() {
		log.Info("starting obfuscator", "addr", cfg.Server.Addr, "auth", cfg.Server.RequireAuth)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutdown signal received")
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info("server stopped")
	return nil
}
