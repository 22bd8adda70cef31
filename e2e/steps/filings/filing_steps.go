package filings

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	GET(path string, headers map[string]string) error
	GetLastResponseStatus() int
	GetLastResponseBody() []byte
}

// RegisterSteps registers filings listing step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &filingSteps{tc: tc}

	ctx.Step(`^I list filings for well "([^"]*)"$`, steps.listFilings)
	ctx.Step(`^the filings list should contain at least (\d+) filings?$`, steps.listShouldContainAtLeast)
	ctx.Step(`^the filings should be ordered oldest first$`, steps.listShouldBeOrderedOldestFirst)
	ctx.Step(`^every filing should reference well "([^"]*)"$`, steps.everyFilingShouldReference)
}

type filingSteps struct {
	tc TestContext
}

// filingRecord mirrors the fields of the listing response the steps assert
// on; extra fields are ignored.
type filingRecord struct {
	ID             string    `json:"id"`
	WellNaturalKey string    `json:"well_natural_key"`
	FormType       string    `json:"form_type"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
}

func (s *filingSteps) listFilings(ctx context.Context, naturalKey string) error {
	return s.tc.GET("/v1/wells/"+naturalKey+"/filings", nil)
}

func (s *filingSteps) decodeList() ([]filingRecord, error) {
	if status := s.tc.GetLastResponseStatus(); status != 200 {
		return nil, fmt.Errorf("listing failed: status %d body %s", status, s.tc.GetLastResponseBody())
	}
	var records []filingRecord
	if err := json.Unmarshal(s.tc.GetLastResponseBody(), &records); err != nil {
		return nil, fmt.Errorf("decode filings list: %w", err)
	}
	return records, nil
}

func (s *filingSteps) listShouldContainAtLeast(ctx context.Context, n int) error {
	records, err := s.decodeList()
	if err != nil {
		return err
	}
	if len(records) < n {
		return fmt.Errorf("expected at least %d filings, got %d", n, len(records))
	}
	return nil
}

func (s *filingSteps) listShouldBeOrderedOldestFirst(ctx context.Context) error {
	records, err := s.decodeList()
	if err != nil {
		return err
	}
	for i := 1; i < len(records); i++ {
		if records[i].CreatedAt.Before(records[i-1].CreatedAt) {
			return fmt.Errorf("filing %s created %s precedes %s created %s",
				records[i].ID, records[i].CreatedAt,
				records[i-1].ID, records[i-1].CreatedAt)
		}
	}
	return nil
}

func (s *filingSteps) everyFilingShouldReference(ctx context.Context, naturalKey string) error {
	records, err := s.decodeList()
	if err != nil {
		return err
	}
	for _, record := range records {
		if record.WellNaturalKey != naturalKey {
			return fmt.Errorf("filing %s references well %q, want %q",
				record.ID, record.WellNaturalKey, naturalKey)
		}
	}
	return nil
}
