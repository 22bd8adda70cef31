// Package token issues and validates operator access tokens. Tokens are
// HS256 JWTs scoped to the wellfile API; the operator ID rides in the
// subject claim.
package token

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"wellfile/pkg/attrs"
	id "wellfile/pkg/domain"
	dErrors "wellfile/pkg/domain-errors"
	"wellfile/pkg/platform/audit"
	"wellfile/pkg/requestcontext"
)

const (
	issuer     = "wellfile"
	audience   = "wellfile-api"
	defaultTTL = time.Hour
)

// Claims are the JWT claims carried by operator access tokens.
type Claims struct {
	OperatorName string `json:"operator_name,omitempty"`
	jwt.RegisteredClaims
}

// AuditPublisher records token issuance events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service issues and validates operator tokens.
type Service struct {
	signingKey     []byte
	ttl            time.Duration
	auditPublisher AuditPublisher
	logger         *slog.Logger
}

// Option configures optional service dependencies.
type Option func(*Service)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithAuditPublisher enables token issuance audit events.
func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.auditPublisher = publisher }
}

// New creates a token service. A non-positive ttl falls back to one hour.
func New(signingKey string, ttl time.Duration, opts ...Option) *Service {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	s := &Service{
		signingKey: []byte(signingKey),
		ttl:        ttl,
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issue mints an access token for the operator and returns it with its
// lifetime.
func (s *Service) Issue(ctx context.Context, operatorID id.OperatorID, operatorName string) (string, time.Duration, error) {
	now := time.Now()
	claims := Claims{
		OperatorName: operatorName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   operatorID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    issuer,
			Audience:  []string{audience},
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
	if err != nil {
		return "", 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign token")
	}

	s.emitIssued(ctx, operatorID, claims.ID)
	return signed, s.ttl, nil
}

// ValidateToken parses and verifies an access token, enforcing the signing
// method, issuer, and audience.
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{},
		func(*jwt.Token) (any, error) { return s.signingKey, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithAudience(audience),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	if !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	return claims, nil
}

// emitIssued records the issuance best-effort. A down audit store must not
// block operators from authenticating.
func (s *Service) emitIssued(ctx context.Context, operatorID id.OperatorID, tokenID string) {
	if s.auditPublisher == nil {
		return
	}
	event := audit.Event{
		Action:  string(audit.EventTokenIssued),
		ActorID: operatorID.String(),
		Detail: attrs.Detail(
			"token_id", tokenID,
			"client_ip", requestcontext.ClientIP(ctx),
		),
	}
	if err := s.auditPublisher.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "token issuance event lost",
			"operator_id", operatorID.String(), "error", err)
	}
}
