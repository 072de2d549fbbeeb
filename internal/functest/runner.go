package functest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spboyer/vibeval/internal/browser"
	"github.com/spboyer/vibeval/internal/models"
	"github.com/spboyer/vibeval/internal/sandbox"
	"github.com/spboyer/vibeval/internal/workspace"
)

// maxErrorChars caps recorded per-test error messages.
const maxErrorChars = 200

// Runner executes suites against workspaces. HTML artifacts take priority
// over Python ones when a workspace carries both.
type Runner struct {
	pool    *browser.Pool
	timeout time.Duration
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithTimeout overrides the per-script execution timeout.
func WithTimeout(d time.Duration) RunnerOption {
	return func(r *Runner) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// NewRunner creates a runner drawing browser pages from pool. A nil pool
// means all HTML tests are skipped.
func NewRunner(pool *browser.Pool, opts ...RunnerOption) *Runner {
	r := &Runner{pool: pool, timeout: 30 * time.Second}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Run executes every test in the suite against the workspace and returns
// the aggregate result. Failures are data; Run itself never fails.
func (r *Runner) Run(ctx context.Context, workspaceDir string, suite *Suite) *models.TestRunResult {
	if suite == nil || len(suite.Tests) == 0 {
		return &models.TestRunResult{
			Errors: []string{"No test functions found in test suite"},
		}
	}

	layout, err := workspace.Scan(workspaceDir)
	if err != nil {
		return &models.TestRunResult{
			TotalTests: len(suite.Tests),
			Errors:     []string{fmt.Sprintf("Workspace scan error: %v", err)},
		}
	}

	if main, ok := layout.MainHTML(); ok {
		return r.runHTML(ctx, main, suite)
	}
	if main, ok := layout.MainPython(); ok {
		return r.runPython(ctx, layout.Root, main, suite)
	}

	return &models.TestRunResult{
		TotalTests: len(suite.Tests),
		Errors:     []string{"No HTML or Python files found in workspace"},
	}
}

func (r *Runner) runHTML(ctx context.Context, htmlFile string, suite *Suite) *models.TestRunResult {
	out := &models.TestRunResult{TotalTests: len(suite.Tests)}
	start := time.Now()
	url := "file://" + htmlFile

	for _, test := range suite.Tests {
		if test.HTML == nil {
			out.Skipped++
			out.Results = append(out.Results, models.TestResult{
				Name:  test.Name,
				Error: "skipped: not a browser test",
			})
			continue
		}

		testStart := time.Now()
		page, err := r.acquire(ctx)
		if err != nil {
			if errors.Is(err, browser.ErrUnavailable) {
				// No browser on this host: remaining browser tests are
				// skipped, not failed.
				remaining := r.skipRemaining(out, suite, test.Name)
				out.Skipped += remaining
				out.Errors = append(out.Errors, "Browser not available - browser tests skipped")
				break
			}
			out.Failed++
			out.Results = append(out.Results, models.TestResult{
				Name:       test.Name,
				DurationMs: msSince(testStart),
				Error:      truncateError(fmt.Sprintf("browser error: %v", err)),
			})
			continue
		}

		err = func() error {
			defer page.Release()
			if err := page.Navigate(url); err != nil {
				return err
			}
			return test.HTML(ctx, page)
		}()

		out.Results = append(out.Results, r.testResult(test.Name, testStart, err))
		if err == nil {
			out.Passed++
		} else {
			out.Failed++
		}
	}

	finish(out, start)
	return out
}

func (r *Runner) runPython(ctx context.Context, workspaceDir, entryFile string, suite *Suite) *models.TestRunResult {
	out := &models.TestRunResult{TotalTests: len(suite.Tests)}
	start := time.Now()

	exec, err := sandbox.NewExecutor(workspaceDir, sandbox.WithTimeout(r.timeout))
	if err != nil {
		out.Errors = append(out.Errors, fmt.Sprintf("Sandbox error: %v", err))
		finish(out, start)
		return out
	}
	target := PythonTarget{Workspace: workspaceDir, EntryFile: entryFile, Exec: exec}

	for _, test := range suite.Tests {
		if test.Python == nil {
			out.Skipped++
			out.Results = append(out.Results, models.TestResult{
				Name:  test.Name,
				Error: "skipped: not a script test",
			})
			continue
		}

		testStart := time.Now()
		err := test.Python(ctx, target)
		out.Results = append(out.Results, r.testResult(test.Name, testStart, err))
		if err == nil {
			out.Passed++
		} else {
			out.Failed++
		}
	}

	finish(out, start)
	return out
}

func (r *Runner) acquire(ctx context.Context) (*browser.Page, error) {
	if r.pool == nil {
		return nil, browser.ErrUnavailable
	}
	return r.pool.Acquire(ctx)
}

// skipRemaining records the current and all following browser tests as
// skipped and returns how many were recorded.
func (r *Runner) skipRemaining(out *models.TestRunResult, suite *Suite, fromName string) int {
	skipping := false
	n := 0
	for _, test := range suite.Tests {
		if test.Name == fromName {
			skipping = true
		}
		if !skipping || test.HTML == nil {
			continue
		}
		out.Results = append(out.Results, models.TestResult{
			Name:  test.Name,
			Error: "skipped: browser not available",
		})
		n++
	}
	return n
}

func (r *Runner) testResult(name string, start time.Time, err error) models.TestResult {
	result := models.TestResult{
		Name:       name,
		Passed:     err == nil,
		DurationMs: msSince(start),
	}
	if err == nil {
		return result
	}
	if IsFailure(err) {
		result.Error = truncateError(err.Error())
	} else {
		result.Error = truncateError(fmt.Sprintf("error: %v", err))
	}
	slog.Debug("functional test failed", "test", name, "error", result.Error)
	return result
}

func finish(out *models.TestRunResult, start time.Time) {
	out.ExecutionTime = time.Since(start).Seconds()
	if out.TotalTests > 0 {
		out.PassRate = float64(out.Passed) / float64(out.TotalTests)
	}
}

func msSince(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}

func truncateError(msg string) string {
	if len(msg) <= maxErrorChars {
		return msg
	}
	return msg[:maxErrorChars] + "..."
}
