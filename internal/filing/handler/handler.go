// Package handler exposes the filings read surface.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"wellfile/internal/filing/models"
	"wellfile/internal/platform/middleware"
	dErrors "wellfile/pkg/domain-errors"
	"wellfile/pkg/platform/httputil"
)

// Aggregator lists every filing tracked for a well across all sources.
type Aggregator interface {
	ListFilings(ctx context.Context, naturalKey string) ([]*models.FilingRecord, error)
}

// Handler handles filing listing endpoints.
type Handler struct {
	aggregator Aggregator
	logger     *slog.Logger
}

// New creates a filings Handler.
func New(aggregator Aggregator, logger *slog.Logger) *Handler {
	return &Handler{
		aggregator: aggregator,
		logger:     logger,
	}
}

// Register registers the filing routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/v1/wells/{naturalKey}/filings", h.handleListFilings)
}

func (h *Handler) handleListFilings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	naturalKey := chi.URLParam(r, "naturalKey")
	records, err := h.aggregator.ListFilings(ctx, naturalKey)
	if err != nil {
		switch {
		case dErrors.Is(err, dErrors.CodeInvalidInput):
			h.logger.WarnContext(ctx, "invalid filings listing request",
				"request_id", requestID,
				"error", err.Error(),
			)
			httputil.WriteError(w, err)
		case dErrors.Is(err, dErrors.CodeUnavailable):
			h.logger.ErrorContext(ctx, "filing store unavailable",
				"request_id", requestID,
				"natural_key", naturalKey,
				"error", err.Error(),
			)
			httputil.WriteError(w, err)
		default:
			h.logger.ErrorContext(ctx, "failed to list filings",
				"request_id", requestID,
				"natural_key", naturalKey,
				"error", err.Error(),
			)
			httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to list filings"))
		}
		return
	}

	if records == nil {
		records = []*models.FilingRecord{}
	}
	httputil.WriteJSON(w, http.StatusOK, records)
}
