package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	AdminPOST(path string, body interface{}) error
	POST(path string, body interface{}) error
	POSTWithHeaders(path string, body interface{}, headers map[string]string) error
	GetResponseField(field string) (interface{}, error)
	GetLastResponseStatus() int
	GetLastResponseBody() []byte
	SetOperatorID(id string)
	GetOperatorID() string
	SetAPIKey(key string)
	GetAPIKey() string
	SetAccessToken(token string)
}

// RegisterSteps registers report generation step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &reportSteps{tc: tc}

	ctx.Step(`^a provisioned operator "([^"]*)"$`, steps.provisionOperator)
	ctx.Step(`^the operator has exchanged its API key for an access token$`, steps.exchangeAPIKey)
	ctx.Step(`^I submit a plugging exchange for well "([^"]*)" named "([^"]*)"$`, steps.submitExchange)
	ctx.Step(`^I submit an incomplete plugging exchange$`, steps.submitIncompleteExchange)
	ctx.Step(`^I submit a plugging exchange without authentication$`, steps.submitExchangeUnauthenticated)
}

type reportSteps struct {
	tc TestContext
}

func (s *reportSteps) provisionOperator(ctx context.Context, name string) error {
	// Contact must be unique per run; the operator store enforces it.
	contact := fmt.Sprintf("e2e+%d@wellfile.test", time.Now().UnixNano())
	if err := s.tc.AdminPOST("/admin/operators", map[string]interface{}{
		"name":    name,
		"contact": contact,
	}); err != nil {
		return err
	}
	if status := s.tc.GetLastResponseStatus(); status != 201 {
		return fmt.Errorf("provisioning failed: status %d body %s", status, s.tc.GetLastResponseBody())
	}

	operatorID, err := s.tc.GetResponseField("id")
	if err != nil {
		return err
	}
	apiKey, err := s.tc.GetResponseField("api_key")
	if err != nil {
		return err
	}
	s.tc.SetOperatorID(operatorID.(string))
	s.tc.SetAPIKey(apiKey.(string))
	return nil
}

func (s *reportSteps) exchangeAPIKey(ctx context.Context) error {
	if err := s.tc.POST("/v1/auth/token", map[string]interface{}{
		"operator_id": s.tc.GetOperatorID(),
		"api_key":     s.tc.GetAPIKey(),
	}); err != nil {
		return err
	}
	if status := s.tc.GetLastResponseStatus(); status != 200 {
		return fmt.Errorf("token exchange failed: status %d body %s", status, s.tc.GetLastResponseBody())
	}

	token, err := s.tc.GetResponseField("access_token")
	if err != nil {
		return err
	}
	s.tc.SetAccessToken(token.(string))
	return nil
}

func (s *reportSteps) submitExchange(ctx context.Context, naturalKey, wellName string) error {
	return s.tc.POST("/v1/reports/w3", exchangeBody(naturalKey, wellName))
}

func (s *reportSteps) submitIncompleteExchange(ctx context.Context) error {
	// No api_number: the generator rejects the exchange.
	return s.tc.POST("/v1/reports/w3", map[string]interface{}{
		"well_name": "No Key 1",
	})
}

func (s *reportSteps) submitExchangeUnauthenticated(ctx context.Context) error {
	return s.tc.POSTWithHeaders("/v1/reports/w3", exchangeBody("42-501-30270", "Alpha 1"), nil)
}

func exchangeBody(naturalKey, wellName string) map[string]interface{} {
	return map[string]interface{}{
		"api_number": naturalKey,
		"well_name":  wellName,
		"plugs": []map[string]interface{}{
			{"depth_ft": 3200, "sacks_cement": 45},
			{"depth_ft": 1150, "sacks_cement": 30},
		},
	}
}
