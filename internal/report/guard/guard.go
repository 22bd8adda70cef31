// Package guard is the persistence failure boundary between report
// generation and storage. A completed W-3 form that was already returned to
// the operator must never be lost to a flaky database, and a flaky database
// must never turn a successful generation into a client-facing error. The
// guard persists on a best-effort basis: storage-class failures are
// swallowed after emitting exactly one audit event, everything else
// propagates because it indicates a bug rather than an outage.
package guard

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	filingmodels "wellfile/internal/filing/models"
	"wellfile/internal/report"
	"wellfile/internal/report/metrics"
	wellmodels "wellfile/internal/well/models"
	id "wellfile/pkg/domain"
	dErrors "wellfile/pkg/domain-errors"
	"wellfile/pkg/platform/audit"
)

const defaultPersistTimeout = 5 * time.Second

// WellResolver resolves natural keys to well identities, creating
// placeholder rows on first sight.
type WellResolver interface {
	Resolve(ctx context.Context, naturalKey string, fallback wellmodels.FallbackAttributes) (*wellmodels.WellIdentity, bool, error)
}

// FilingRecorder appends filing records.
type FilingRecorder interface {
	Record(ctx context.Context, well *wellmodels.WellIdentity, formType id.FormType, payload json.RawMessage, submitter string) (*filingmodels.FilingRecord, error)
}

// Sink receives the audit event raised when persistence is swallowed.
type Sink interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Archiver stores a copy of the filing payload outside the primary store.
type Archiver interface {
	Archive(ctx context.Context, record *filingmodels.FilingRecord) error
}

// Guard persists successful generation results without ever failing the
// client response over storage trouble.
type Guard struct {
	wells    WellResolver
	filings  FilingRecorder
	sink     Sink
	archiver Archiver
	logger   *slog.Logger
	metrics  *metrics.Metrics
	timeout  time.Duration
	tracer   trace.Tracer
}

// Option configures a Guard.
type Option func(*Guard)

// WithLogger sets the guard's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Guard) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithMetrics attaches report metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(g *Guard) {
		g.metrics = m
	}
}

// WithArchiver adds a best-effort payload archive. Archive failures are
// logged and counted, never surfaced.
func WithArchiver(a Archiver) Option {
	return func(g *Guard) {
		g.archiver = a
	}
}

// WithTimeout bounds each persistence attempt. Zero or negative keeps the
// 5s default.
func WithTimeout(d time.Duration) Option {
	return func(g *Guard) {
		if d > 0 {
			g.timeout = d
		}
	}
}

// New creates a Guard over the well resolver, filing recorder, and audit
// sink.
func New(wells WellResolver, filings FilingRecorder, sink Sink, opts ...Option) *Guard {
	g := &Guard{
		wells:   wells,
		filings: filings,
		sink:    sink,
		logger:  slog.New(slog.DiscardHandler),
		timeout: defaultPersistTimeout,
		tracer:  otel.Tracer("wellfile/report/guard"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Persist stores the filing behind result and returns the result annotated
// with the durable references. Unsuccessful generations pass through
// untouched. Storage-class failures (store unreachable, constraint
// rejections, slow commits) are swallowed: the result comes back without a
// filing ID, and exactly one persistence failure event is emitted. Any
// other failure is returned to the caller.
//
// Persistence runs on its own deadline, detached from the request's
// cancellation, so an operator disconnecting right after receiving the form
// does not abort the write.
func (g *Guard) Persist(ctx context.Context, result report.GenerationResult, submitter string) (report.GenerationResult, error) {
	if !result.Success {
		return result, nil
	}

	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), g.timeout)
	defer cancel()

	pctx, span := g.tracer.Start(pctx, "guard.Persist")
	defer span.End()

	start := time.Now()
	record, err := g.persist(pctx, result, submitter)
	if err != nil {
		span.RecordError(err)
		if !recoverable(err) {
			span.SetStatus(codes.Error, "persistence failed")
			return result, err
		}

		g.metrics.IncrementPersist("failed")
		span.SetAttributes(attribute.Bool("guard.swallowed", true))
		g.emitFailure(pctx, result, submitter, err)
		return result, nil
	}

	g.metrics.IncrementPersist("persisted")
	g.metrics.ObservePersist(start)
	span.SetAttributes(attribute.String("filing.id", record.ID.String()))

	if g.archiver != nil {
		if err := g.archiver.Archive(pctx, record); err != nil {
			g.logger.WarnContext(pctx, "filing archive failed",
				"filing_id", record.ID.String(),
				"error", err)
			g.metrics.IncrementArchiveFailed()
		}
	}

	result.FilingID = record.ID.String()
	result.WellNaturalKey = record.WellNaturalKey
	return result, nil
}

func (g *Guard) persist(ctx context.Context, result report.GenerationResult, submitter string) (*filingmodels.FilingRecord, error) {
	well, _, err := g.wells.Resolve(ctx, result.NaturalKeyHint, wellmodels.FallbackAttributes{
		LeaseName: result.WellNameHint,
	})
	if err != nil {
		return nil, err
	}
	return g.filings.Record(ctx, well, id.FormTypeW3, result.Form, submitter)
}

// recoverable reports whether the failure is storage trouble the guard may
// absorb. Invalid input and invariant violations are bugs and must surface.
func recoverable(err error) bool {
	return dErrors.HasCode(err, dErrors.CodeUnavailable) ||
		dErrors.HasCode(err, dErrors.CodeConstraint)
}

// emitFailure raises the single persistence failure event that stands in
// for the lost filing. If even the sink is down, the failure is only in the
// logs.
func (g *Guard) emitFailure(ctx context.Context, result report.GenerationResult, submitter string, cause error) {
	key := wellmodels.NormalizeNaturalKey(result.NaturalKeyHint)
	event := audit.Event{
		Action:     string(audit.EventFilingPersistFailed),
		NaturalKey: key,
		Submitter:  submitter,
		Detail:     cause.Error(),
	}
	if g.sink == nil {
		g.logger.ErrorContext(ctx, "filing persistence failed with no audit sink",
			"natural_key", key, "error", cause)
		return
	}
	if err := g.sink.Emit(ctx, event); err != nil {
		g.logger.ErrorContext(ctx, "persistence failure event lost",
			"natural_key", key,
			"persist_error", cause,
			"sink_error", err)
		return
	}
	g.logger.WarnContext(ctx, "filing persistence failed, response preserved",
		"natural_key", key, "error", cause)
}
