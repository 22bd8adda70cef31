// Package middleware enforces per-client request limits in front of the
// filing routes. Authenticated requests are limited per operator, anonymous
// ones per client IP.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"wellfile/internal/ratelimit/models"
	"wellfile/pkg/attrs"
	audit "wellfile/pkg/platform/audit"
	"wellfile/pkg/platform/httputil"
	"wellfile/pkg/requestcontext"
)

// window is fixed at one minute; the configured limit is requests per minute.
const window = time.Minute

// Limiter checks one key against a sliding window. Both bucket stores
// satisfy it.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.RateLimitResult, error)
}

// AuditPublisher records a security event for each denied request.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Middleware struct {
	limiter   Limiter
	perMinute int
	logger    *slog.Logger
	publisher AuditPublisher
	disabled  bool
}

type Option func(*Middleware)

// WithDisabled disables rate limiting entirely (for testing/demo mode).
func WithDisabled(disabled bool) Option {
	return func(m *Middleware) {
		m.disabled = disabled
	}
}

// WithAuditPublisher emits a security event each time a request is denied.
func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(m *Middleware) {
		m.publisher = publisher
	}
}

func New(limiter Limiter, perMinute int, logger *slog.Logger, opts ...Option) *Middleware {
	m := &Middleware{
		limiter:   limiter,
		perMinute: perMinute,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = slog.New(slog.DiscardHandler)
	}
	if m.disabled {
		m.logger.Info("rate limiting disabled")
	}
	return m
}

// Limit enforces the per-minute limit. Limiter failures let the request
// through; rate limiting protects the service but must never take it down.
func (m *Middleware) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.disabled || m.perMinute <= 0 {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		key := keyFor(ctx)

		result, err := m.limiter.Allow(ctx, key, m.perMinute, window)
		if err != nil {
			m.logger.WarnContext(ctx, "rate limit check failed, allowing request", "error", err, "key", key)
			next.ServeHTTP(w, r)
			return
		}

		// Add headers regardless of outcome.
		addRateLimitHeaders(w, result)

		if !result.Allowed {
			m.emitExceeded(ctx, key, result)
			writeRateLimitExceeded(w, result)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// keyFor prefers the authenticated operator so one operator cannot starve
// others behind a shared NAT, and falls back to the client address.
func keyFor(ctx context.Context) string {
	if operatorID := requestcontext.OperatorID(ctx); !operatorID.IsNil() {
		return models.OperatorKey(operatorID.String())
	}
	return models.IPKey(requestcontext.ClientIP(ctx))
}

// emitExceeded records the denial as a security event. Best effort: the
// client already got its 429, a lost event only loses the audit trail entry.
func (m *Middleware) emitExceeded(ctx context.Context, key string, result *models.RateLimitResult) {
	if m.publisher == nil {
		return
	}
	event := audit.Event{
		Action:  string(audit.EventRateLimitExceeded),
		ActorID: actorFrom(ctx),
		Detail: attrs.Detail(
			"key", key,
			"limit", strconv.Itoa(result.Limit),
			"client_ip", requestcontext.ClientIP(ctx),
		),
	}
	if err := m.publisher.Emit(ctx, event); err != nil {
		m.logger.ErrorContext(ctx, "rate limit event lost", "error", err, "key", key)
	}
}

func actorFrom(ctx context.Context) string {
	if operatorID := requestcontext.OperatorID(ctx); !operatorID.IsNil() {
		return operatorID.String()
	}
	return ""
}

func addRateLimitHeaders(w http.ResponseWriter, result *models.RateLimitResult) {
	if result == nil {
		return
	}
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}

func writeRateLimitExceeded(w http.ResponseWriter, result *models.RateLimitResult) {
	w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))
	httputil.WriteJSON(w, http.StatusTooManyRequests, &models.RateLimitExceededResponse{
		Error:      "rate_limit_exceeded",
		Message:    "Too many requests. Please try again later.",
		RetryAfter: result.RetryAfter,
	})
}
