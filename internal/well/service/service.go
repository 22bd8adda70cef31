// Package service implements the well identity resolver: an idempotent,
// race-free find-or-create keyed by the natural well identifier.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	wellmetrics "wellfile/internal/well/metrics"
	"wellfile/internal/well/models"
	dErrors "wellfile/pkg/domain-errors"
	"wellfile/pkg/platform/audit"
	"wellfile/pkg/platform/sentinel"
	"wellfile/pkg/requestcontext"
)

// Store is the persistence seam for well identities. FindOrCreate must be
// atomic: concurrent callers racing on the same unseen key observe exactly
// one row.
type Store interface {
	FindOrCreate(ctx context.Context, candidate *models.WellIdentity) (*models.WellIdentity, bool, error)
	FindByKey(ctx context.Context, naturalKey string) (*models.WellIdentity, error)
}

// AuditPublisher records well lifecycle events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type serviceConfig struct {
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *wellmetrics.Metrics
	tx             StoreTx
}

// Option configures optional service dependencies.
type Option func(*serviceConfig)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *serviceConfig) { c.logger = logger }
}

// WithAuditPublisher enables audit events for well creation.
func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(c *serviceConfig) { c.auditPublisher = publisher }
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(m *wellmetrics.Metrics) Option {
	return func(c *serviceConfig) { c.metrics = m }
}

// WithTx sets the transactional boundary for resolve operations.
func WithTx(tx StoreTx) Option {
	return func(c *serviceConfig) { c.tx = tx }
}

// Service resolves natural keys to well identities.
type Service struct {
	store          Store
	tx             StoreTx
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *wellmetrics.Metrics
}

// New creates a well service backed by store.
func New(store Store, opts ...Option) *Service {
	cfg := &serviceConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.DiscardHandler)
	}
	if cfg.tx == nil {
		cfg.tx = passthroughTx{}
	}
	return &Service{
		store:          store,
		tx:             cfg.tx,
		logger:         cfg.logger,
		auditPublisher: cfg.auditPublisher,
		metrics:        cfg.metrics,
	}
}

// Resolve returns the identity for naturalKey, creating a placeholder row
// on first sight. The fallback attributes are consulted only on creation;
// an existing identity is returned untouched no matter what the caller
// supplies. The bool reports whether this call created the row.
func (s *Service) Resolve(ctx context.Context, naturalKey string, fallback models.FallbackAttributes) (*models.WellIdentity, bool, error) {
	start := time.Now()

	key := models.NormalizeNaturalKey(naturalKey)
	if key == "" {
		return nil, false, dErrors.New(dErrors.CodeInvalidInput, "well natural key is required")
	}

	var (
		well    *models.WellIdentity
		created bool
	)
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		candidate := models.NewWellIdentity(key, fallback, requestcontext.Now(txCtx))
		resolved, didCreate, err := s.store.FindOrCreate(txCtx, candidate)
		if err != nil {
			return translateStoreErr(err)
		}
		if didCreate {
			if err := s.emitWellCreated(txCtx, resolved); err != nil {
				return err
			}
		}
		well, created = resolved, didCreate
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	s.metrics.IncrementResolved(created)
	s.metrics.ObserveResolve(start)
	s.logger.DebugContext(ctx, "well resolved", "natural_key", key, "created", created)
	return well, created, nil
}

// emitWellCreated writes the creation event inside the same transaction as
// the well row, so the compliance trail cannot diverge from the data.
func (s *Service) emitWellCreated(ctx context.Context, well *models.WellIdentity) error {
	if s.auditPublisher == nil {
		return nil
	}
	event := audit.Event{
		Action:     string(audit.EventWellCreated),
		NaturalKey: well.NaturalKey,
		Detail:     "placeholder identity created on first filing",
	}
	if err := s.auditPublisher.Emit(ctx, event); err != nil {
		return translateStoreErr(err)
	}
	return nil
}

func translateStoreErr(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrUnavailable):
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "well store unreachable")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConstraint, "well store rejected write")
	default:
		if dErrors.CodeOf(err) != dErrors.CodeInternal {
			return err
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "well store failure")
	}
}
