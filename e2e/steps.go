package e2e

import (
	"github.com/cucumber/godog"

	"tabrela/e2e/steps/common"
	"tabrela/e2e/steps/tournament"
)

// RegisterSteps registers all step definitions from modular packages
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	// Identity, raw requests and response assertions
	common.RegisterSteps(ctx, tc)

	// Round setup, allocations and ballots
	tournament.RegisterSteps(ctx, tc)
}
