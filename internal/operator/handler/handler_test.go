package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"wellfile/internal/operator/handler/mocks"
	"wellfile/internal/operator/models"
	id "wellfile/pkg/domain"
	dErrors "wellfile/pkg/domain-errors"
)

//go:generate mockgen -source=handler.go -destination=mocks/operator-mocks.go -package=mocks Service,TokenIssuer
type OperatorHandlerSuite struct {
	suite.Suite
	ctx context.Context
}

func (s *OperatorHandlerSuite) SetupSuite() {
	s.ctx = context.Background()
}

func TestOperatorHandlerSuite(t *testing.T) {
	suite.Run(t, new(OperatorHandlerSuite))
}

func newTestRouter(t *testing.T) (*chi.Mux, *mocks.MockService, *mocks.MockTokenIssuer) {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	mockService := mocks.NewMockService(ctrl)
	mockTokens := mocks.NewMockTokenIssuer(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	h := New(mockService, mockTokens, logger, nil)
	r := chi.NewRouter()
	h.RegisterAdmin(r)
	h.RegisterAuth(r)
	return r, mockService, mockTokens
}

func testOperator(s *OperatorHandlerSuite) *models.Operator {
	op, err := models.NewOperator(
		id.NewOperatorID(), "Lonestar Plugging", "ops@lonestar.example", "$2a$10$hash",
		time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC))
	s.Require().NoError(err)
	return op
}

func (s *OperatorHandlerSuite) postJSON(router http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func (s *OperatorHandlerSuite) TestCreateOperator() {
	router, mockService, _ := newTestRouter(s.T())
	op := testOperator(s)

	mockService.EXPECT().
		CreateOperator(gomock.Any(), "Lonestar Plugging", "ops@lonestar.example").
		Return(op, "wfk_plaintext", nil)

	rec := s.postJSON(router, "/admin/operators",
		`{"name":"Lonestar Plugging","contact":"ops@lonestar.example"}`)

	s.Equal(http.StatusCreated, rec.Code)
	var resp map[string]any
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Equal("wfk_plaintext", resp["api_key"])
	s.Equal(op.ID.String(), resp["id"])
	s.NotContains(rec.Body.String(), "$2a$10$hash", "hash never serialized")
}

func (s *OperatorHandlerSuite) TestCreateOperatorConflict() {
	router, mockService, _ := newTestRouter(s.T())

	mockService.EXPECT().
		CreateOperator(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, "", dErrors.New(dErrors.CodeConflict, "operator contact already registered"))

	rec := s.postJSON(router, "/admin/operators",
		`{"name":"Other","contact":"ops@lonestar.example"}`)

	s.Equal(http.StatusConflict, rec.Code)
}

func (s *OperatorHandlerSuite) TestCreateOperatorBadBody() {
	router, _, _ := newTestRouter(s.T())

	rec := s.postJSON(router, "/admin/operators", `{broken`)

	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *OperatorHandlerSuite) TestGetOperator() {
	router, mockService, _ := newTestRouter(s.T())
	op := testOperator(s)

	mockService.EXPECT().GetOperator(gomock.Any(), op.ID).Return(op, nil)

	req := httptest.NewRequest(http.MethodGet, "/admin/operators/"+op.ID.String(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	s.Equal(http.StatusOK, rec.Code)
	var resp map[string]any
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Equal("Lonestar Plugging", resp["name"])
}

func (s *OperatorHandlerSuite) TestGetOperatorBadID() {
	router, _, _ := newTestRouter(s.T())

	req := httptest.NewRequest(http.MethodGet, "/admin/operators/not-a-uuid", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *OperatorHandlerSuite) TestGetOperatorNotFound() {
	router, mockService, _ := newTestRouter(s.T())
	operatorID := id.NewOperatorID()

	mockService.EXPECT().GetOperator(gomock.Any(), operatorID).
		Return(nil, dErrors.New(dErrors.CodeNotFound, "operator not found"))

	req := httptest.NewRequest(http.MethodGet, "/admin/operators/"+operatorID.String(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *OperatorHandlerSuite) TestDeactivateOperator() {
	router, mockService, _ := newTestRouter(s.T())
	op := testOperator(s)
	op.Active = false

	mockService.EXPECT().DeactivateOperator(gomock.Any(), op.ID).Return(op, nil)

	rec := s.postJSON(router, "/admin/operators/"+op.ID.String()+"/deactivate", "")

	s.Equal(http.StatusOK, rec.Code)
	var resp map[string]any
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Equal(false, resp["active"])
}

func (s *OperatorHandlerSuite) TestToken() {
	router, mockService, mockTokens := newTestRouter(s.T())
	op := testOperator(s)

	mockService.EXPECT().
		VerifyCredentials(gomock.Any(), op.ID, "wfk_plaintext").
		Return(op, nil)
	mockTokens.EXPECT().
		Issue(gomock.Any(), op.ID, "Lonestar Plugging").
		Return("signed.jwt.token", time.Hour, nil)

	rec := s.postJSON(router, "/v1/auth/token",
		`{"operator_id":"`+op.ID.String()+`","api_key":"wfk_plaintext"}`)

	s.Equal(http.StatusOK, rec.Code)
	var resp tokenResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Equal("signed.jwt.token", resp.AccessToken)
	s.Equal("Bearer", resp.TokenType)
	s.Equal(int64(3600), resp.ExpiresIn)
}

func (s *OperatorHandlerSuite) TestTokenBadCredentials() {
	router, mockService, _ := newTestRouter(s.T())
	operatorID := id.NewOperatorID()

	mockService.EXPECT().
		VerifyCredentials(gomock.Any(), operatorID, "wfk_wrong").
		Return(nil, dErrors.New(dErrors.CodeUnauthorized, "invalid operator credentials"))

	rec := s.postJSON(router, "/v1/auth/token",
		`{"operator_id":"`+operatorID.String()+`","api_key":"wfk_wrong"}`)

	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *OperatorHandlerSuite) TestTokenMalformedOperatorID() {
	router, _, _ := newTestRouter(s.T())

	rec := s.postJSON(router, "/v1/auth/token",
		`{"operator_id":"not-a-uuid","api_key":"wfk_x"}`)

	s.Equal(http.StatusUnauthorized, rec.Code,
		"malformed ids are indistinguishable from wrong credentials")
}
