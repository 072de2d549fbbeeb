// Package models holds the shared data model for the scoring engine:
// execution reports, test run results, judge scores, and the final
// aggregated score. Everything here is plain data: created once per
// (workspace, case) evaluation, never mutated after construction, and
// serialized verbatim into the run's result files.
package models

import "fmt"

// FileType identifies the kind of artifact a validation ran against.
type FileType string

const (
	FileTypePython FileType = "python"
	FileTypeHTML   FileType = "html"
	FileTypeNone   FileType = "none"
)

// PersistedOutputLimit is the maximum number of stdout/stderr characters
// kept in a persisted ExecutionReport.
const PersistedOutputLimit = 5000

// ExecutionReport is the result of validating that an artifact actually runs.
type ExecutionReport struct {
	Executed       bool     `json:"executed"`
	ExitCode       int      `json:"exit_code"`
	Stdout         string   `json:"stdout"`
	Stderr         string   `json:"stderr"`
	ExecutionTime  float64  `json:"execution_time"`
	Errors         []string `json:"errors"`
	IllegalImports []string `json:"illegal_imports"`
	FileType       FileType `json:"file_type"`

	// Screenshot holds raw PNG bytes when HTML validation captured one.
	// Not persisted in the JSON report.
	Screenshot []byte `json:"-"`
}

// Clamped returns a copy with stdout/stderr truncated to
// PersistedOutputLimit characters, suitable for persistence.
func (r ExecutionReport) Clamped() ExecutionReport {
	r.Stdout = clampOutput(r.Stdout)
	r.Stderr = clampOutput(r.Stderr)
	return r
}

func clampOutput(s string) string {
	if len(s) <= PersistedOutputLimit {
		return s
	}
	return s[:PersistedOutputLimit]
}

// TestResult is the outcome of a single functional test.
type TestResult struct {
	Name       string  `json:"name"`
	Passed     bool    `json:"passed"`
	DurationMs float64 `json:"duration_ms"`
	Error      string  `json:"error,omitempty"`
}

// TestRunResult aggregates the outcomes of one functional test run.
type TestRunResult struct {
	TotalTests    int          `json:"total_tests"`
	Passed        int          `json:"passed"`
	Failed        int          `json:"failed"`
	Skipped       int          `json:"skipped"`
	PassRate      float64      `json:"pass_rate"`
	Results       []TestResult `json:"results"`
	ExecutionTime float64      `json:"execution_time"`
	Errors        []string     `json:"errors,omitempty"`
}

// Score converts the pass rate to a 0-10 score.
func (t *TestRunResult) Score() float64 {
	return t.PassRate * 10
}

// AgentMetrics carries metrics from the agent loop that produced the
// workspace. Only the fields the efficiency dimension needs.
type AgentMetrics struct {
	Turns          int `json:"turns"`
	BacktrackCount int `json:"backtrack_count"`
}

func (m *AgentMetrics) String() string {
	if m == nil {
		return "no metrics"
	}
	return fmt.Sprintf("%d turns, %d backtracks", m.Turns, m.BacktrackCount)
}
