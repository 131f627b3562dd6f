package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"obfuscator/internal/platform/metrics"
	"obfuscator/internal/platform/middleware"
	"obfuscator/pkg/platform/httputil"
)

// Routes is implemented by feature handlers that mount their endpoints.
type Routes interface {
	Register(r chi.Router)
}

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

// Options configures NewRouter.
type Options struct {
	Logger         *slog.Logger
	Metrics        *metrics.Metrics
	Gatherer       prometheus.Gatherer
	RequestTimeout time.Duration
	MaxBodyBytes   int64
	// Auth, when set, guards the API routes with bearer-token validation.
	Auth         middleware.JWTValidator
	HealthChecks map[string]HealthCheck
}

// NewRouter wires the operational endpoints and mounts every feature
// handler under the shared middleware chain.
func NewRouter(opts Options, features ...Routes) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(opts.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(opts.Logger))
	if opts.Metrics != nil {
		r.Use(middleware.Latency(opts.Metrics))
	}

	r.Get("/healthz", healthz(opts.HealthChecks))
	if opts.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Group(func(api chi.Router) {
		api.Use(middleware.Timeout(opts.RequestTimeout))
		api.Use(middleware.MaxBody(opts.MaxBodyBytes))
		if opts.Auth != nil {
			api.Use(middleware.RequireAuth(opts.Auth, opts.Logger))
		}
		for _, f := range features {
			f.Register(api)
		}
	})
	return r
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func healthz(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := healthResponse{Status: "ok"}
		status := http.StatusOK
		if len(checks) > 0 {
			resp.Checks = make(map[string]string, len(checks))
		}
		for name, check := range checks {
			if err := check(r.Context()); err != nil {
				resp.Checks[name] = err.Error()
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "ok"
		}
		httputil.WriteJSON(w, status, resp)
	}
}
