// Package service implements the filing recorder and the cross-source
// filings aggregator.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	filingmetrics "wellfile/internal/filing/metrics"
	"wellfile/internal/filing/models"
	wellmodels "wellfile/internal/well/models"
	id "wellfile/pkg/domain"
	dErrors "wellfile/pkg/domain-errors"
	"wellfile/pkg/platform/audit"
	"wellfile/pkg/platform/sentinel"
	"wellfile/pkg/requestcontext"
)

// Store is the persistence seam for filing records. Create must be atomic;
// ListByWell must return records ordered by creation time, oldest first.
type Store interface {
	Create(ctx context.Context, record *models.FilingRecord) error
	ListByWell(ctx context.Context, naturalKey string) ([]*models.FilingRecord, error)
	FindByID(ctx context.Context, filingID id.FilingID) (*models.FilingRecord, error)
}

// AuditPublisher records filing lifecycle events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type serviceConfig struct {
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *filingmetrics.Metrics
	tx             StoreTx
}

// Option configures optional service dependencies.
type Option func(*serviceConfig)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *serviceConfig) { c.logger = logger }
}

// WithAuditPublisher enables audit events for recorded filings.
func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(c *serviceConfig) { c.auditPublisher = publisher }
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(m *filingmetrics.Metrics) Option {
	return func(c *serviceConfig) { c.metrics = m }
}

// WithTx sets the transactional boundary for record operations.
func WithTx(tx StoreTx) Option {
	return func(c *serviceConfig) { c.tx = tx }
}

// Service records draft filings against resolved wells.
type Service struct {
	store          Store
	tx             StoreTx
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *filingmetrics.Metrics
}

// New creates a filing service backed by store.
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

// Record creates the draft filing for an already-resolved well. The payload
// is stored verbatim; this service never creates well identities.
func (s *Service) Record(ctx context.Context, well *wellmodels.WellIdentity, formType id.FormType, payload json.RawMessage, submitter string) (*models.FilingRecord, error) {
	start := time.Now()

	if well == nil || well.NaturalKey == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "filing requires a resolved well")
	}

	var record *models.FilingRecord
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		created, err := models.NewFilingRecord(id.NewFilingID(), well.NaturalKey, formType, payload, submitter, requestcontext.Now(txCtx))
		if err != nil {
			return err
		}
		if err := s.store.Create(txCtx, created); err != nil {
			return translateStoreErr(err)
		}
		if err := s.emitFilingPersisted(txCtx, created); err != nil {
			return err
		}
		record = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncrementRecorded(string(record.FormType))
	s.metrics.ObserveRecord(start)
	s.logger.InfoContext(ctx, "filing recorded",
		"filing_id", record.ID,
		"natural_key", record.WellNaturalKey,
		"form_type", record.FormType,
	)
	return record, nil
}

// emitFilingPersisted writes the compliance event inside the same
// transaction as the filing row.
func (s *Service) emitFilingPersisted(ctx context.Context, record *models.FilingRecord) error {
	if s.auditPublisher == nil {
		return nil
	}
	event := audit.Event{
		Action:     string(audit.EventFilingPersisted),
		NaturalKey: record.WellNaturalKey,
		FilingID:   record.ID.String(),
		Submitter:  record.Submitter,
	}
	if err := s.auditPublisher.Emit(ctx, event); err != nil {
		return translateStoreErr(err)
	}
	return nil
}

func translateStoreErr(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrUnavailable):
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "filing store unreachable")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConstraint, "filing store integrity failure")
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, "filing not found")
	default:
		if dErrors.CodeOf(err) != dErrors.CodeInternal {
			return err
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "filing store failure")
	}
}
