// Package service orchestrates operator provisioning, credential
// verification, and deactivation.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	operatormetrics "wellfile/internal/operator/metrics"
	"wellfile/internal/operator/models"
	"wellfile/internal/operator/secrets"
	"wellfile/pkg/attrs"
	id "wellfile/pkg/domain"
	dErrors "wellfile/pkg/domain-errors"
	"wellfile/pkg/email"
	"wellfile/pkg/platform/audit"
	"wellfile/pkg/platform/sentinel"
	"wellfile/pkg/requestcontext"
)

// Store is the persistence seam for operators.
type Store interface {
	Create(ctx context.Context, op *models.Operator) error
	FindByID(ctx context.Context, operatorID id.OperatorID) (*models.Operator, error)
	Execute(ctx context.Context, operatorID id.OperatorID,
		validate func(*models.Operator) error, apply func(*models.Operator)) (*models.Operator, error)
}

// AuditPublisher records operator lifecycle and security events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type serviceConfig struct {
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *operatormetrics.Metrics
	tx             StoreTx
}

// Option configures optional service dependencies.
type Option func(*serviceConfig)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *serviceConfig) { c.logger = logger }
}

// WithAuditPublisher enables operator audit events.
func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(c *serviceConfig) { c.auditPublisher = publisher }
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(m *operatormetrics.Metrics) Option {
	return func(c *serviceConfig) { c.metrics = m }
}

// WithTx sets the transactional boundary for provisioning operations.
func WithTx(tx StoreTx) Option {
	return func(c *serviceConfig) { c.tx = tx }
}

// Service manages the operator lifecycle.
type Service struct {
	store          Store
	tx             StoreTx
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *operatormetrics.Metrics
}

// New creates an operator service backed by store.
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

// CreateOperator provisions an operator and returns it with the plaintext
// API key. The key is shown exactly once; only its hash is stored. A blank
// name is derived from the contact address.
func (s *Service) CreateOperator(ctx context.Context, name, contact string) (*models.Operator, string, error) {
	contact = email.Normalize(contact)
	if err := email.Validate(contact); err != nil {
		return nil, "", err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = email.DeriveDisplayName(contact)
	}

	apiKey, err := secrets.GenerateAPIKey()
	if err != nil {
		return nil, "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate api key")
	}
	hash, err := secrets.Hash(apiKey)
	if err != nil {
		return nil, "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash api key")
	}

	var op *models.Operator
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		candidate, err := models.NewOperator(id.NewOperatorID(), name, contact, hash, requestcontext.Now(txCtx))
		if err != nil {
			return err
		}
		if err := s.store.Create(txCtx, candidate); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.New(dErrors.CodeConflict, "operator contact already registered")
			}
			return translateStoreErr(err)
		}
		if err := s.emit(txCtx, audit.Event{
			Action:  string(audit.EventOperatorCreated),
			ActorID: "admin",
			Detail: attrs.Detail(
				"operator_id", candidate.ID.String(),
				"contact", candidate.Contact,
				"client_ip", requestcontext.ClientIP(txCtx),
			),
		}); err != nil {
			return err
		}
		op = candidate
		return nil
	})
	if err != nil {
		return nil, "", err
	}

	s.metrics.IncrementCreated()
	s.logger.InfoContext(ctx, "operator created",
		"operator_id", op.ID.String(), "contact", op.Contact)
	return op, apiKey, nil
}

// GetOperator returns the operator by ID.
func (s *Service) GetOperator(ctx context.Context, operatorID id.OperatorID) (*models.Operator, error) {
	if operatorID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "operator id is required")
	}
	op, err := s.store.FindByID(ctx, operatorID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "operator not found")
		}
		return nil, translateStoreErr(err)
	}
	return op, nil
}

// VerifyCredentials checks an operator ID and API key pair. Every rejection
// returns the same unauthorized error so callers cannot probe which part
// was wrong, and raises a security event.
func (s *Service) VerifyCredentials(ctx context.Context, operatorID id.OperatorID, apiKey string) (*models.Operator, error) {
	op, err := s.store.FindByID(ctx, operatorID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, s.rejectCredentials(ctx, operatorID, "unknown operator")
		}
		return nil, translateStoreErr(err)
	}
	if !op.Active {
		return nil, s.rejectCredentials(ctx, operatorID, "operator inactive")
	}
	if err := secrets.Verify(apiKey, op.APIKeyHash); err != nil {
		return nil, s.rejectCredentials(ctx, operatorID, "api key mismatch")
	}
	return op, nil
}

// DeactivateOperator transitions the operator to inactive. Token issuance
// starts failing immediately; outstanding tokens last until expiry.
func (s *Service) DeactivateOperator(ctx context.Context, operatorID id.OperatorID) (*models.Operator, error) {
	if operatorID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "operator id is required")
	}

	var op *models.Operator
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		now := requestcontext.Now(txCtx)
		updated, err := s.store.Execute(txCtx, operatorID,
			func(o *models.Operator) error {
				if err := o.CanDeactivate(); err != nil {
					return dErrors.New(dErrors.CodeConflict, "operator is already inactive")
				}
				return nil
			},
			func(o *models.Operator) {
				o.ApplyDeactivation(now)
			},
		)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "operator not found")
			}
			if dErrors.HasCode(err, dErrors.CodeConflict) {
				return err
			}
			return translateStoreErr(err)
		}
		if err := s.emit(txCtx, audit.Event{
			Action:  string(audit.EventOperatorDeactivated),
			ActorID: "admin",
			Detail:  attrs.Detail("operator_id", updated.ID.String()),
		}); err != nil {
			return err
		}
		op = updated
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "operator deactivated", "operator_id", op.ID.String())
	return op, nil
}

func (s *Service) rejectCredentials(ctx context.Context, operatorID id.OperatorID, why string) error {
	s.metrics.IncrementAuthFailed()
	s.logger.WarnContext(ctx, "operator credentials rejected",
		"operator_id", operatorID.String(), "reason", why)
	s.emitBestEffort(ctx, audit.Event{
		Action:  string(audit.EventAuthFailed),
		ActorID: operatorID.String(),
		Detail: attrs.Detail(
			"reason", why,
			"client_ip", requestcontext.ClientIP(ctx),
			"user_agent", requestcontext.UserAgent(ctx),
		),
	})
	return dErrors.New(dErrors.CodeUnauthorized, "invalid operator credentials")
}

func (s *Service) emit(ctx context.Context, event audit.Event) error {
	if s.auditPublisher == nil {
		return nil
	}
	if err := s.auditPublisher.Emit(ctx, event); err != nil {
		return translateStoreErr(err)
	}
	return nil
}

// emitBestEffort is for security events raised on request paths that must
// not fail because the audit store hiccuped.
func (s *Service) emitBestEffort(ctx context.Context, event audit.Event) {
	if s.auditPublisher == nil {
		return
	}
	if err := s.auditPublisher.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "security event lost", "action", event.Action, "error", err)
	}
}

func translateStoreErr(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrUnavailable):
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "operator store unreachable")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConstraint, "operator store rejected write")
	default:
		if dErrors.CodeOf(err) != dErrors.CodeInternal {
			return err
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "operator store failure")
	}
}
