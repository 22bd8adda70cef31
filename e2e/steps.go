package e2e

import (
	"github.com/cucumber/godog"

	"wellfile/e2e/steps/common"
	"wellfile/e2e/steps/filings"
	"wellfile/e2e/steps/reports"
)

// RegisterSteps registers all step definitions from modular packages
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	// Register common steps (generic requests, assertions)
	common.RegisterSteps(ctx, tc)

	// Register report generation steps
	reports.RegisterSteps(ctx, tc)

	// Register filings listing steps
	filings.RegisterSteps(ctx, tc)
}
