// Package handler exposes operator provisioning (admin) and token issuance
// (public) endpoints.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	operatormetrics "wellfile/internal/operator/metrics"
	"wellfile/internal/operator/models"
	"wellfile/internal/platform/middleware"
	id "wellfile/pkg/domain"
	dErrors "wellfile/pkg/domain-errors"
	"wellfile/pkg/platform/httputil"
)

// Service manages the operator lifecycle.
type Service interface {
	CreateOperator(ctx context.Context, name, contact string) (*models.Operator, string, error)
	GetOperator(ctx context.Context, operatorID id.OperatorID) (*models.Operator, error)
	DeactivateOperator(ctx context.Context, operatorID id.OperatorID) (*models.Operator, error)
	VerifyCredentials(ctx context.Context, operatorID id.OperatorID, apiKey string) (*models.Operator, error)
}

// TokenIssuer mints access tokens for verified operators.
type TokenIssuer interface {
	Issue(ctx context.Context, operatorID id.OperatorID, operatorName string) (string, time.Duration, error)
}

// Handler handles operator endpoints.
type Handler struct {
	service Service
	tokens  TokenIssuer
	logger  *slog.Logger
	metrics *operatormetrics.Metrics
}

// New creates an operator Handler.
func New(service Service, tokens TokenIssuer, logger *slog.Logger, m *operatormetrics.Metrics) *Handler {
	return &Handler{
		service: service,
		tokens:  tokens,
		logger:  logger,
		metrics: m,
	}
}

// RegisterAdmin registers the provisioning routes. Mount behind the admin
// token middleware.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/admin/operators", h.handleCreateOperator)
	r.Get("/admin/operators/{operatorID}", h.handleGetOperator)
	r.Post("/admin/operators/{operatorID}/deactivate", h.handleDeactivateOperator)
}

// RegisterAuth registers the token exchange route.
func (h *Handler) RegisterAuth(r chi.Router) {
	r.Post("/v1/auth/token", h.handleToken)
}

type createOperatorRequest struct {
	Name    string `json:"name"`
	Contact string `json:"contact"`
}

// createOperatorResponse carries the plaintext API key exactly once, at
// provisioning time.
type createOperatorResponse struct {
	*models.Operator
	APIKey string `json:"api_key"`
}

func (h *Handler) handleCreateOperator(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createOperatorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	op, apiKey, err := h.service.CreateOperator(ctx, req.Name, req.Contact)
	if err != nil {
		h.logger.WarnContext(ctx, "operator provisioning rejected",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, createOperatorResponse{Operator: op, APIKey: apiKey})
}

func (h *Handler) handleGetOperator(w http.ResponseWriter, r *http.Request) {
	operatorID, err := id.ParseOperatorID(chi.URLParam(r, "operatorID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid operator id"))
		return
	}

	op, err := h.service.GetOperator(r.Context(), operatorID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, op)
}

func (h *Handler) handleDeactivateOperator(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	operatorID, err := id.ParseOperatorID(chi.URLParam(r, "operatorID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid operator id"))
		return
	}

	op, err := h.service.DeactivateOperator(ctx, operatorID)
	if err != nil {
		h.logger.WarnContext(ctx, "operator deactivation rejected",
			"request_id", middleware.GetRequestID(ctx),
			"operator_id", operatorID.String(),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, op)
}

type tokenRequest struct {
	OperatorID string `json:"operator_id"`
	APIKey     string `json:"api_key"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

func (h *Handler) handleToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	// A malformed ID gets the same rejection as wrong credentials so the
	// endpoint leaks nothing about which part failed.
	operatorID, err := id.ParseOperatorID(req.OperatorID)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid operator credentials"))
		return
	}

	op, err := h.service.VerifyCredentials(ctx, operatorID, req.APIKey)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	accessToken, expiresIn, err := h.tokens.Issue(ctx, op.ID, op.Name)
	if err != nil {
		h.logger.ErrorContext(ctx, "token issuance failed",
			"request_id", middleware.GetRequestID(ctx),
			"operator_id", op.ID.String(),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}

	h.metrics.IncrementTokenIssued()
	httputil.WriteJSON(w, http.StatusOK, tokenResponse{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int64(expiresIn.Seconds()),
	})
}
