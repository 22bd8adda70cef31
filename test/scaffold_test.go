package test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	filinghandler "wellfile/internal/filing/handler"
	filingmodels "wellfile/internal/filing/models"
	filingservice "wellfile/internal/filing/service"
	filingstore "wellfile/internal/filing/store"
	"wellfile/internal/report"
	"wellfile/internal/report/guard"
	reporthandler "wellfile/internal/report/handler"
	wellservice "wellfile/internal/well/service"
	wellstore "wellfile/internal/well/store"
	"wellfile/pkg/testutil"
)

// echoGenerator completes every exchange naming an api_number, echoing the
// key back as the persistence hint.
type echoGenerator struct{}

func (echoGenerator) Generate(_ context.Context, exchange json.RawMessage) (*report.GenerationResult, error) {
	var fields struct {
		APINumber string `json:"api_number"`
		WellName  string `json:"well_name"`
	}
	if err := json.Unmarshal(exchange, &fields); err != nil {
		return nil, err
	}
	if fields.APINumber == "" {
		return &report.GenerationResult{Success: false, Reason: "exchange missing api_number"}, nil
	}
	return &report.GenerationResult{
		Success:        true,
		Form:           json.RawMessage(`{"form_type":"W-3"}`),
		NaturalKeyHint: fields.APINumber,
		WellNameHint:   fields.WellName,
	}, nil
}

func newScaffoldRouter() chi.Router {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	filingSt := filingstore.NewInMemoryStore()
	wells := wellservice.New(wellstore.NewInMemoryStore(), wellservice.WithLogger(logger))
	filings := filingservice.New(filingSt, filingservice.WithLogger(logger))
	aggregator := filingservice.NewAggregator(
		filingservice.PrimarySource(filingSt),
		filingservice.WithAggregatorLogger(logger))
	persistGuard := guard.New(wells, filings, nil, guard.WithLogger(logger))

	r := chi.NewRouter()
	filinghandler.New(aggregator, logger).Register(r)
	reporthandler.New(echoGenerator{}, persistGuard, logger, nil).Register(r)
	return r
}

func TestAPIScaffold(t *testing.T) {
	testutil.Given(t, "the wellfile API over in-memory stores", func(t *testing.T) {
		router := newScaffoldRouter()
		operatorID := uuid.NewString()

		testutil.When(t, "an operator submits a completed exchange", func(t *testing.T) {
			req := testutil.NewJSONRequest(t, http.MethodPost, "/v1/reports/w3", map[string]any{
				"api_number": "42-501-30270",
				"well_name":  "Mitchell 7H",
			})
			req = testutil.WithOperator(req, operatorID, "Lone Star Plugging LLC")
			req = testutil.WithClientMetadata(req, "203.0.113.7", "wellfile-cli/1.0")
			rr := testutil.DoRequest(router, req)

			testutil.Then(t, "the completed form carries durable references", func(t *testing.T) {
				testutil.AssertStatus(t, rr, http.StatusOK)
				testutil.AssertJSONHasKey(t, rr, "filing_id")
			})

			testutil.And(t, "the well natural key is echoed back", func(t *testing.T) {
				result := testutil.UnmarshalResponse[report.GenerationResult](t, rr)
				if result.WellNaturalKey != "42-501-30270" {
					t.Fatalf("expected natural key 42-501-30270, got %q", result.WellNaturalKey)
				}
			})
		})

		testutil.When(t, "listing the filings for that well", func(t *testing.T) {
			req := testutil.NewRequest(t, http.MethodGet, "/v1/wells/42-501-30270/filings")
			rr := testutil.DoRequest(router, req)

			testutil.Then(t, "the filing is attributed to the submitting operator", func(t *testing.T) {
				testutil.AssertStatus(t, rr, http.StatusOK)
				records := testutil.UnmarshalResponse[[]filingmodels.FilingRecord](t, rr)
				if len(*records) != 1 {
					t.Fatalf("expected 1 filing, got %d", len(*records))
				}
				if got := (*records)[0].Submitter; got != "Lone Star Plugging LLC" {
					t.Fatalf("expected submitter from request context, got %q", got)
				}
			})
		})

		testutil.When(t, "listing a well nothing has been filed for", func(t *testing.T) {
			req := testutil.NewRequest(t, http.MethodGet, "/v1/wells/42-999-99999/filings")
			rr := testutil.DoRequest(router, req)

			testutil.Then(t, "it responds with an empty list, not an error", func(t *testing.T) {
				testutil.AssertStatus(t, rr, http.StatusOK)
				records := testutil.UnmarshalResponse[[]filingmodels.FilingRecord](t, rr)
				if len(*records) != 0 {
					t.Fatalf("expected no filings, got %d", len(*records))
				}
			})
		})

		testutil.When(t, "submitting a report without a payload", func(t *testing.T) {
			req := testutil.NewRequest(t, http.MethodPost, "/v1/reports/w3")
			rr := testutil.DoRequest(router, req)

			testutil.Then(t, "the request is rejected before the generator", func(t *testing.T) {
				testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "bad_request")
				errBody := testutil.UnmarshalErrorResponse(t, rr)
				if errBody["error_description"] == "" {
					t.Fatal("expected an error description")
				}
			})
		})
	})
}
