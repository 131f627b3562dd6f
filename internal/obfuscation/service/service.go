// Package service runs obfuscation requests end to end: locate, detect,
// fetch, decode, mask, encode and optionally write back.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"obfuscator/internal/obfuscation/codec"
	"obfuscator/internal/obfuscation/engine"
	"obfuscator/internal/obfuscation/format"
	"obfuscator/internal/obfuscation/locator"
	"obfuscator/internal/obfuscation/metrics"
	"obfuscator/internal/obfuscation/models"
	"obfuscator/internal/obfuscation/ports"
	dErrors "obfuscator/pkg/domain-errors"
	"obfuscator/pkg/platform/audit"
	"obfuscator/pkg/platform/sentinel"
	"obfuscator/pkg/requestcontext"
)

const (
	tracerName              = "obfuscator/internal/obfuscation/service"
	defaultBatchConcurrency = 4
)

// Service orchestrates obfuscation requests. It holds no per-request state
// and is safe for concurrent use.
type Service struct {
	stores           ports.StoreResolver
	logger           *slog.Logger
	metrics          *metrics.Metrics
	auditPublisher   ports.AuditPublisher
	tracer           trace.Tracer
	batchConcurrency int
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithAuditPublisher(publisher ports.AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

// WithBatchConcurrency bounds how many batch items run at once.
func WithBatchConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.batchConcurrency = n
		}
	}
}

// New constructs a Service that resolves object stores through stores.
func New(stores ports.StoreResolver, opts ...Option) *Service {
	s := &Service{
		stores:           stores,
		logger:           slog.New(slog.DiscardHandler),
		tracer:           otel.Tracer(tracerName),
		batchConcurrency: defaultBatchConcurrency,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Result describes a completed request.
type Result struct {
	Bytes        []byte
	Format       format.Kind
	Rows         int
	MaskedFields []string
	Destination  string
}

// BatchResult is the outcome of one batch item, in request order.
type BatchResult struct {
	Index  int
	Result *Result
	Err    error
}

type mode int

const (
	modeBytes mode = iota
	modeWriteBack
	modeBatchItem
)

// Obfuscate returns the source object with every requested PII field
// masked, in the source container format. req.Destination is ignored.
// On any failure no bytes are returned.
func (s *Service) Obfuscate(ctx context.Context, req models.Request) ([]byte, error) {
	res, err := s.run(ctx, req, modeBytes)
	if err != nil {
		return nil, err
	}
	return res.Bytes, nil
}

// ObfuscateTo behaves like Obfuscate and, when req.Destination is set,
// writes the obfuscated bytes there before returning.
func (s *Service) ObfuscateTo(ctx context.Context, req models.Request) (*Result, error) {
	return s.run(ctx, req, modeWriteBack)
}

// ObfuscateBatch runs every request with a destination, at most
// batchConcurrency at a time. Items fail independently.
func (s *Service) ObfuscateBatch(ctx context.Context, reqs []models.Request) []BatchResult {
	results := make([]BatchResult, len(reqs))
	var g errgroup.Group
	g.SetLimit(s.batchConcurrency)
	for i, req := range reqs {
		g.Go(func() error {
			res, err := s.run(ctx, req, modeBatchItem)
			results[i] = BatchResult{Index: i, Result: res, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// trail accumulates what a request did for logging, metrics and audit.
type trail struct {
	format  format.Kind
	rows    int
	bytesIn int
	matched []string
	dest    string
}

func (s *Service) run(ctx context.Context, req models.Request, m mode) (*Result, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "obfuscation.run", trace.WithAttributes(
		attribute.String("obfuscation.source", req.Locator),
		attribute.Int("obfuscation.requested_fields", len(req.PIIFields)),
	))
	defer span.End()

	t := &trail{}
	res, err := s.pipeline(ctx, req, m, t)
	s.finish(ctx, span, req, t, res, err, time.Since(start))
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *Service) pipeline(ctx context.Context, req models.Request, m mode, t *trail) (*Result, error) {
	src, err := locator.Parse(req.Locator)
	if err != nil {
		return nil, invalidInput(err)
	}
	kind, err := format.Detect(src.Path)
	if err != nil {
		return nil, invalidInput(err)
	}
	t.format = kind

	var (
		dst       models.Locator
		dstStore  ports.ObjectStore
		writeBack = m != modeBytes && req.Destination != ""
	)
	if m == modeBatchItem && req.Destination == "" {
		return nil, invalidInput(models.NewError(models.KindInvalidRequest, "batch item for %s has no destination", req.Locator))
	}
	if writeBack {
		if dst, err = locator.Parse(req.Destination); err != nil {
			return nil, invalidInput(err)
		}
		dstKind, err := format.Detect(dst.Path)
		if err != nil {
			return nil, invalidInput(err)
		}
		if dstKind != kind {
			return nil, invalidInput(models.NewError(models.KindUnsupportedFormat,
				"destination format %s does not match source format %s", dstKind, kind))
		}
		if dstStore, err = s.resolve(dst.Scheme); err != nil {
			return nil, err
		}
		t.dest = dst.String()
	}

	srcStore, err := s.resolve(src.Scheme)
	if err != nil {
		return nil, err
	}
	c, err := codec.For(kind)
	if err != nil {
		return nil, invalidInput(err)
	}

	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	data, err := s.fetch(ctx, srcStore, src)
	if err != nil {
		return nil, err
	}
	t.bytesIn = len(data)

	records, schema, err := c.Decode(data)
	if err != nil {
		return nil, invalidInput(err)
	}
	t.rows = len(records)
	t.matched = engine.Matched(records, schema, req.PIIFields)
	if unmatched := engine.Unmatched(req.PIIFields, t.matched); len(unmatched) > 0 {
		s.logger.DebugContext(ctx, "requested fields not present in source",
			"request_id", requestcontext.RequestID(ctx),
			"source", req.Locator,
			"fields", unmatched,
		)
	}

	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	masked, maskedSchema := engine.Obfuscate(records, req.PIIFields, schema)
	out, err := c.Encode(masked, maskedSchema)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode obfuscated data")
	}

	res := &Result{
		Bytes:        out,
		Format:       kind,
		Rows:         len(masked),
		MaskedFields: t.matched,
	}
	if writeBack {
		if err := checkContext(ctx); err != nil {
			return nil, err
		}
		if err := s.put(ctx, dstStore, dst, out); err != nil {
			return nil, err
		}
		res.Destination = dst.String()
	}
	return res, nil
}

func (s *Service) resolve(scheme string) (ports.ObjectStore, error) {
	store, err := s.stores.Store(scheme)
	if err != nil {
		if models.KindOf(err) != "" {
			return nil, invalidInput(err)
		}
		return nil, err
	}
	return store, nil
}

func (s *Service) fetch(ctx context.Context, store ports.ObjectStore, loc models.Locator) ([]byte, error) {
	ctx, span := s.tracer.Start(ctx, "obfuscation.fetch", trace.WithAttributes(
		attribute.String("store.scheme", loc.Scheme),
		attribute.String("store.container", loc.Container),
	))
	defer span.End()

	data, err := store.Fetch(ctx, loc.Container, loc.Path)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return nil, err
	}
	span.SetAttributes(attribute.Int("store.bytes", len(data)))
	return data, nil
}

func (s *Service) put(ctx context.Context, store ports.ObjectStore, loc models.Locator, data []byte) error {
	ctx, span := s.tracer.Start(ctx, "obfuscation.put", trace.WithAttributes(
		attribute.String("store.scheme", loc.Scheme),
		attribute.String("store.container", loc.Container),
		attribute.Int("store.bytes", len(data)),
	))
	defer span.End()

	if err := store.Put(ctx, loc.Container, loc.Path, data); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "put failed")
		return err
	}
	return nil
}

func (s *Service) finish(ctx context.Context, span trace.Span, req models.Request, t *trail, res *Result, err error, d time.Duration) {
	requestID := requestcontext.RequestID(ctx)
	outcome := audit.OutcomeSucceeded
	errKind := ""
	bytesOut := 0
	if err != nil {
		outcome = audit.OutcomeFailed
		errKind = ErrorKind(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, errKind)
	} else {
		bytesOut = len(res.Bytes)
		span.SetStatus(codes.Ok, "")
	}
	span.SetAttributes(
		attribute.String("obfuscation.format", string(t.format)),
		attribute.Int("obfuscation.rows", t.rows),
	)

	if s.metrics != nil {
		s.metrics.ObserveRequest(string(t.format), string(outcome), t.rows, len(t.matched), d)
	}

	switch {
	case err == nil:
		s.logger.InfoContext(ctx, "obfuscation completed",
			"request_id", requestID,
			"subject", requestcontext.Subject(ctx),
			"client_id", requestcontext.ClientID(ctx),
			"source", req.Locator,
			"destination", t.dest,
			"format", t.format,
			"rows", t.rows,
			"masked_fields", t.matched,
			"duration_ms", d.Milliseconds(),
		)
	case dErrors.HasCode(err, dErrors.CodeInvalidInput):
		s.logger.WarnContext(ctx, "obfuscation rejected",
			"request_id", requestID,
			"source", req.Locator,
			"error_kind", errKind,
			"error", err,
		)
	default:
		s.logger.ErrorContext(ctx, "obfuscation failed",
			"request_id", requestID,
			"source", req.Locator,
			"error_kind", errKind,
			"error", err,
		)
	}

	if s.auditPublisher == nil {
		return
	}
	event := audit.Event{
		RequestID:       requestID,
		Subject:         requestcontext.Subject(ctx),
		Source:          req.Locator,
		Destination:     t.dest,
		Format:          string(t.format),
		RequestedFields: req.PIIFields.Names(),
		MatchedFields:   t.matched,
		Rows:            t.rows,
		BytesIn:         t.bytesIn,
		BytesOut:        bytesOut,
		Outcome:         outcome,
		ErrorKind:       errKind,
	}
	if err != nil {
		event.Reason = err.Error()
	}
	if aerr := s.auditPublisher.Emit(context.WithoutCancel(ctx), event); aerr != nil {
		if s.metrics != nil {
			s.metrics.IncAuditFailures()
		}
		s.logger.ErrorContext(ctx, "audit emit failed",
			"request_id", requestID,
			"error", aerr,
		)
	}
}

// ErrorKind names the failure category recorded in logs and audit events.
func ErrorKind(err error) string {
	if kind := models.KindOf(err); kind != "" {
		return string(kind)
	}
	if code := dErrors.CodeOf(err); code != "" {
		return string(code)
	}
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return "not_found"
	case errors.Is(err, sentinel.ErrForbidden):
		return "forbidden"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return string(dErrors.CodeTimeout)
	default:
		return "store_error"
	}
}

func invalidInput(err error) error {
	return dErrors.Wrap(err, dErrors.CodeInvalidInput, "")
}

func checkContext(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "request stopped")
	}
	return nil
}
