// Package handler exposes the W-3 report generation endpoint: one POST that
// runs the operator's PNA exchange through the form generator and, when a
// form comes back, persists the filing behind the guard.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"wellfile/internal/platform/middleware"
	"wellfile/internal/report"
	"wellfile/internal/report/generator"
	"wellfile/internal/report/metrics"
	dErrors "wellfile/pkg/domain-errors"
	"wellfile/pkg/platform/httputil"
	"wellfile/pkg/requestcontext"
)

// maxExchangeBytes bounds the request body. PNA exchanges run a few KB;
// 1 MiB is generous.
const maxExchangeBytes = 1 << 20

// Generator produces a W-3 form from an exchange payload.
type Generator interface {
	Generate(ctx context.Context, exchange json.RawMessage) (*report.GenerationResult, error)
}

// Persister stores the filing behind a generation result.
type Persister interface {
	Persist(ctx context.Context, result report.GenerationResult, submitter string) (report.GenerationResult, error)
}

// Handler handles report generation endpoints.
type Handler struct {
	generator Generator
	guard     Persister
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

// New creates a report Handler.
func New(generator Generator, guard Persister, logger *slog.Logger, m *metrics.Metrics) *Handler {
	return &Handler{
		generator: generator,
		guard:     guard,
		logger:    logger,
		metrics:   m,
	}
}

// Register registers the report routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/v1/reports/w3", h.handleGenerateReport)
}

func (h *Handler) handleGenerateReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	exchange, err := readExchange(w, r)
	if err != nil {
		h.logger.WarnContext(ctx, "malformed report request",
			"request_id", requestID,
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}

	result, err := h.generator.Generate(ctx, exchange)
	if err != nil {
		switch {
		case errors.Is(err, generator.ErrCircuitOpen):
			h.metrics.IncrementGeneration("unavailable")
			h.logger.WarnContext(ctx, "report rejected, generator circuit open",
				"request_id", requestID,
			)
			httputil.WriteErrorStatus(w, http.StatusServiceUnavailable,
				dErrors.New(dErrors.CodeUnavailable, "form generator temporarily unavailable"))
		default:
			h.metrics.IncrementGeneration("failure")
			h.logger.ErrorContext(ctx, "form generator call failed",
				"request_id", requestID,
				"error", err.Error(),
			)
			httputil.WriteErrorStatus(w, http.StatusBadGateway,
				dErrors.New(dErrors.CodeUnavailable, "form generator failed"))
		}
		return
	}

	if result.Success {
		h.metrics.IncrementGeneration("success")
	} else {
		h.metrics.IncrementGeneration("rejected")
	}

	out, err := h.guard.Persist(ctx, *result, submitterFrom(ctx))
	if err != nil {
		h.logger.ErrorContext(ctx, "filing persistence failed unexpectedly",
			"request_id", requestID,
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "persistence failed unexpectedly"))
		return
	}

	httputil.WriteJSON(w, http.StatusOK, out)
}

// readExchange pulls the exchange payload off the request, rejecting empty
// and syntactically invalid bodies before anything reaches the generator.
func readExchange(w http.ResponseWriter, r *http.Request) (json.RawMessage, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxExchangeBytes))
	if err != nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "request body unreadable or too large")
	}
	if len(body) == 0 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "exchange payload is required")
	}
	if !json.Valid(body) {
		return nil, dErrors.New(dErrors.CodeBadRequest, "exchange payload must be valid JSON")
	}
	return body, nil
}

// submitterFrom identifies the filing submitter from request context,
// preferring the operator's display name over the raw ID.
func submitterFrom(ctx context.Context) string {
	if name := requestcontext.OperatorName(ctx); name != "" {
		return name
	}
	if operatorID := requestcontext.OperatorID(ctx); !operatorID.IsNil() {
		return operatorID.String()
	}
	return "unknown"
}
