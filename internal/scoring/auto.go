// Package scoring turns validation, test, analysis, and judge signals
// into scores: AutoScorer (objective, test-driven), StaticAnalyzer
// (quality metrics without execution), and Aggregator (the weighted
// final verdict).
package scoring

import (
	"context"
	"encoding/json"
	"math"

	"github.com/spboyer/vibeval/internal/functest"
	"github.com/spboyer/vibeval/internal/models"
	"github.com/spboyer/vibeval/internal/validation"
)

// AutoScore is the objective scoring result. No judge involved; it only
// reflects whether the code ran and how many functional tests passed.
type AutoScore struct {
	TestPassRate     float64
	TestsPassed      int
	TestsFailed      int
	TestsTotal       int
	ExecutionSuccess bool
	TestDetails      []models.TestResult
}

// TestScore converts the pass rate to a 0-10 score. Kept fractional for
// granularity.
func (a *AutoScore) TestScore() float64 {
	return a.TestPassRate * 10
}

// ExecutionScore rates execution on 0-10. Running code with no tests
// available lands in the middle.
func (a *AutoScore) ExecutionScore() int {
	if !a.ExecutionSuccess {
		return 0
	}
	if a.TestsTotal == 0 {
		return 5
	}
	if a.TestPassRate > 0.5 {
		return 10
	}
	return 7
}

type autoScoreJSON struct {
	TestPassRate     float64             `json:"test_pass_rate"`
	TestsPassed      int                 `json:"tests_passed"`
	TestsFailed      int                 `json:"tests_failed"`
	TestsTotal       int                 `json:"tests_total"`
	TestScore        float64             `json:"test_score"`
	ExecutionSuccess bool                `json:"execution_success"`
	ExecutionScore   int                 `json:"execution_score"`
	TestDetails      []models.TestResult `json:"test_details"`
}

// MarshalJSON includes the derived scores and caps recorded details.
func (a *AutoScore) MarshalJSON() ([]byte, error) {
	details := a.TestDetails
	if len(details) > 10 {
		details = details[:10]
	}
	return json.Marshal(autoScoreJSON{
		TestPassRate:     math.Round(a.TestPassRate*1000) / 1000,
		TestsPassed:      a.TestsPassed,
		TestsFailed:      a.TestsFailed,
		TestsTotal:       a.TestsTotal,
		TestScore:        a.TestScore(),
		ExecutionSuccess: a.ExecutionSuccess,
		ExecutionScore:   a.ExecutionScore(),
		TestDetails:      details,
	})
}

// UnmarshalJSON discards the derived fields; they recompute on demand.
func (a *AutoScore) UnmarshalJSON(data []byte) error {
	var raw autoScoreJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	a.TestPassRate = raw.TestPassRate
	a.TestsPassed = raw.TestsPassed
	a.TestsFailed = raw.TestsFailed
	a.TestsTotal = raw.TestsTotal
	a.ExecutionSuccess = raw.ExecutionSuccess
	a.TestDetails = raw.TestDetails
	return nil
}

// AutoScorer scores workspaces from functional test results, falling back
// to bare execution validation when a case ships no tests.
type AutoScorer struct {
	runner    *functest.Runner
	validator *validation.Validator
}

// NewAutoScorer wires the scorer to a test runner and a validator.
func NewAutoScorer(runner *functest.Runner, validator *validation.Validator) *AutoScorer {
	return &AutoScorer{runner: runner, validator: validator}
}

// Score runs the case's suite against the workspace. With no suite, only
// the validator's verdict feeds the score and tests_total stays 0.
func (s *AutoScorer) Score(ctx context.Context, workspaceDir string, suite *functest.Suite) *AutoScore {
	if suite == nil || len(suite.Tests) == 0 {
		report := s.validator.Validate(ctx, workspaceDir)
		return &AutoScore{ExecutionSuccess: report.Executed}
	}

	result := s.runner.Run(ctx, workspaceDir, suite)
	return &AutoScore{
		TestPassRate: result.PassRate,
		TestsPassed:  result.Passed,
		TestsFailed:  result.Failed,
		TestsTotal:   result.TotalTests,
		// Passing anything counts as running. Zero-test results fall back
		// to "did not crash".
		ExecutionSuccess: result.Passed > 0 || result.TotalTests == 0,
		TestDetails:      result.Results,
	}
}
