// Package validation answers "does this artifact actually run". Python
// artifacts are syntax-checked, import-audited, and executed in the
// sandbox; HTML artifacts are loaded in a pooled browser page with error
// capture, falling back to a structural check when no browser exists.
// Validate always returns a report; every failure mode degrades into
// report errors rather than propagating.
package validation

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spboyer/vibeval/internal/browser"
	"github.com/spboyer/vibeval/internal/models"
	"github.com/spboyer/vibeval/internal/pysrc"
	"github.com/spboyer/vibeval/internal/sandbox"
	"github.com/spboyer/vibeval/internal/workspace"
)

// DefaultTimeout bounds one Python artifact execution.
const DefaultTimeout = 30 * time.Second

// pythonBin is the interpreter used for syntax checks and script runs.
const pythonBin = "python3"

// Validator validates workspaces. It borrows pages from the shared
// browser pool and never owns the pool's lifecycle.
type Validator struct {
	pool       *browser.Pool
	timeout    time.Duration
	screenshot bool
}

// Option configures a Validator.
type Option func(*Validator)

// WithTimeout overrides the Python execution timeout.
func WithTimeout(d time.Duration) Option {
	return func(v *Validator) {
		if d > 0 {
			v.timeout = d
		}
	}
}

// WithScreenshot enables screenshot capture during HTML validation.
func WithScreenshot(enabled bool) Option {
	return func(v *Validator) {
		v.screenshot = enabled
	}
}

// NewValidator creates a validator that draws browser pages from pool.
// A nil pool means HTML validation always uses the structural fallback.
func NewValidator(pool *browser.Pool, opts ...Option) *Validator {
	v := &Validator{pool: pool, timeout: DefaultTimeout}
	for _, o := range opts {
		o(v)
	}
	return v
}

// Validate finds the workspace's primary entry point and validates it.
// Python artifacts take precedence over HTML ones.
func (v *Validator) Validate(ctx context.Context, workspaceDir string) *models.ExecutionReport {
	layout, err := workspace.Scan(workspaceDir)
	if err != nil {
		return &models.ExecutionReport{
			Executed: false,
			Errors:   []string{fmt.Sprintf("Workspace scan error: %v", err)},
			FileType: models.FileTypeNone,
		}
	}

	if main, ok := layout.MainPython(); ok {
		return v.ValidatePython(ctx, main, layout.Root)
	}
	if main, ok := layout.MainHTML(); ok {
		return v.ValidateHTML(ctx, main)
	}

	return &models.ExecutionReport{
		Executed: false,
		Errors:   []string{"No Python or HTML files found to validate"},
		FileType: models.FileTypeNone,
	}
}

// ValidatePython validates a Python script: interpreter syntax check,
// import audit, then a sandboxed run. Illegal imports are recorded as
// evidence but do not themselves prevent the run attempt.
func (v *Validator) ValidatePython(ctx context.Context, filePath, workspaceDir string) *models.ExecutionReport {
	source, err := os.ReadFile(filePath)
	if err != nil {
		return &models.ExecutionReport{
			Executed: false,
			Errors:   []string{fmt.Sprintf("Read error: %v", err)},
			FileType: models.FileTypePython,
		}
	}

	exec, err := sandbox.NewExecutor(workspaceDir, sandbox.WithTimeout(v.timeout))
	if err != nil {
		return &models.ExecutionReport{
			Executed: false,
			Errors:   []string{fmt.Sprintf("Sandbox error: %v", err)},
			FileType: models.FileTypePython,
		}
	}

	rel, err := filepath.Rel(workspaceDir, filePath)
	if err != nil {
		rel = filepath.Base(filePath)
	}

	// Syntax errors are fatal for the artifact; the interpreter is the
	// oracle.
	compile := exec.Run(ctx, fmt.Sprintf("%s -m py_compile %q", pythonBin, rel))
	if !compile.Success {
		return &models.ExecutionReport{
			Executed: false,
			Errors:   []string{fmt.Sprintf("Syntax error: %s", strings.TrimSpace(compile.Stderr))},
			FileType: models.FileTypePython,
		}
	}

	_, illegal := pysrc.Audit(string(source))
	var errs []string
	if len(illegal) > 0 {
		errs = append(errs, fmt.Sprintf("Illegal imports detected: %s", strings.Join(illegal, ", ")))
	}

	start := time.Now()
	result := exec.Run(ctx, fmt.Sprintf("%s %q", pythonBin, rel))
	elapsed := time.Since(start).Seconds()

	if result.TimedOut {
		return &models.ExecutionReport{
			Executed:       false,
			ExitCode:       -1,
			ExecutionTime:  elapsed,
			Errors:         []string{fmt.Sprintf("Execution timed out after %v", v.timeout)},
			IllegalImports: illegal,
			FileType:       models.FileTypePython,
		}
	}

	if missing := extractMissingModule(result.Stderr); missing != "" {
		errs = append(errs, fmt.Sprintf("Missing module: %s", missing))
	}

	executed := result.ExitCode == 0 && len(illegal) == 0
	if result.ExitCode != 0 {
		errs = append(errs, fmt.Sprintf("Exited with code %d", result.ExitCode))
	}

	return &models.ExecutionReport{
		Executed:       executed,
		ExitCode:       result.ExitCode,
		Stdout:         result.Stdout,
		Stderr:         result.Stderr,
		ExecutionTime:  elapsed,
		Errors:         errs,
		IllegalImports: illegal,
		FileType:       models.FileTypePython,
	}
}

// ValidateHTML validates an HTML page by loading it in a pooled browser
// page and collecting uncaught exceptions and console errors. When the
// pool is unavailable it degrades to a structural check.
func (v *Validator) ValidateHTML(ctx context.Context, filePath string) *models.ExecutionReport {
	if _, err := os.Stat(filePath); err != nil {
		return &models.ExecutionReport{
			Executed: false,
			Errors:   []string{fmt.Sprintf("File not found: %s", filePath)},
			FileType: models.FileTypeHTML,
		}
	}

	var page *browser.Page
	if v.pool != nil {
		var err error
		page, err = v.pool.Acquire(ctx)
		if err != nil {
			if err != browser.ErrUnavailable {
				slog.Warn("browser acquire failed, using structural check", "error", err)
			}
			return v.validateHTMLStructural(filePath)
		}
	} else {
		return v.validateHTMLStructural(filePath)
	}
	defer page.Release()

	start := time.Now()
	abs, err := filepath.Abs(filePath)
	if err != nil {
		abs = filePath
	}

	if err := page.Navigate("file://" + abs); err != nil {
		return &models.ExecutionReport{
			Executed:      false,
			ExitCode:      -1,
			ExecutionTime: time.Since(start).Seconds(),
			Errors:        []string{fmt.Sprintf("Browser validation error: %v", err)},
			FileType:      models.FileTypeHTML,
		}
	}

	var screenshot []byte
	if v.screenshot {
		if shot, err := page.Screenshot(); err == nil {
			screenshot = shot
		}
	}

	errs := page.Errors()
	exitCode := 0
	if len(errs) > 0 {
		exitCode = 1
	}

	return &models.ExecutionReport{
		Executed:      len(errs) == 0,
		ExitCode:      exitCode,
		ExecutionTime: time.Since(start).Seconds(),
		Errors:        errs,
		FileType:      models.FileTypeHTML,
		Screenshot:    screenshot,
	}
}

// validateHTMLStructural is the no-browser fallback: the file must carry
// <html and <body tags.
func (v *Validator) validateHTMLStructural(filePath string) *models.ExecutionReport {
	start := time.Now()

	data, err := os.ReadFile(filePath)
	if err != nil {
		return &models.ExecutionReport{
			Executed: false,
			ExitCode: -1,
			Errors:   []string{fmt.Sprintf("HTML read error: %v", err)},
			FileType: models.FileTypeHTML,
		}
	}

	content := strings.ToLower(string(data))
	var errs []string
	if !strings.Contains(content, "<html") {
		errs = append(errs, "Missing <html> tag")
	}
	if !strings.Contains(content, "<body") {
		errs = append(errs, "Missing <body> tag")
	}

	exitCode := 0
	if len(errs) > 0 {
		exitCode = 1
	}

	return &models.ExecutionReport{
		Executed:      len(errs) == 0,
		ExitCode:      exitCode,
		ExecutionTime: time.Since(start).Seconds(),
		Errors:        errs,
		FileType:      models.FileTypeHTML,
		Stderr:        "Note: browser unavailable - structural validation only",
	}
}

// extractMissingModule pulls the module name out of a ModuleNotFoundError
// line, or returns "".
func extractMissingModule(stderr string) string {
	idx := strings.Index(stderr, "ModuleNotFoundError:")
	if idx < 0 {
		return ""
	}
	rest := stderr[idx+len("ModuleNotFoundError:"):]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		rest = rest[:nl]
	}
	return strings.TrimSpace(rest)
}
