// Package functest runs case-specific functional tests against a
// workspace. HTML apps get a browser page per test from the shared pool,
// Python scripts get a sandboxed execution target. Assertion failures
// (Failf) and unexpected errors are distinguished in the recorded
// results, mirroring how a test framework separates failed assertions
// from crashed tests.
package functest

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spboyer/vibeval/internal/browser"
	"github.com/spboyer/vibeval/internal/sandbox"
)

// HTMLPredicate is one browser-backed test. The page is already navigated
// to the case's entry point when the predicate runs.
type HTMLPredicate func(ctx context.Context, page *browser.Page) error

// PythonPredicate is one script-backed test.
type PythonPredicate func(ctx context.Context, target PythonTarget) error

// PythonTarget is the subject handed to Python predicates.
type PythonTarget struct {
	Workspace string
	EntryFile string
	Exec      *sandbox.Executor
}

// RunEntry executes the target's entry file through the sandbox.
func (t PythonTarget) RunEntry(ctx context.Context) *sandbox.Result {
	rel, err := filepath.Rel(t.Workspace, t.EntryFile)
	if err != nil {
		rel = filepath.Base(t.EntryFile)
	}
	return t.Exec.Run(ctx, fmt.Sprintf("python3 %q", rel))
}

// Test is one named check. Exactly one of HTML or Python is set; the
// runner skips tests whose kind does not match the workspace artifact.
type Test struct {
	Name   string
	HTML   HTMLPredicate
	Python PythonPredicate
}

// Suite is an ordered set of tests for one case.
type Suite struct {
	Tests []Test
}

// AddHTML appends a browser-backed test.
func (s *Suite) AddHTML(name string, pred HTMLPredicate) *Suite {
	s.Tests = append(s.Tests, Test{Name: name, HTML: pred})
	return s
}

// AddPython appends a script-backed test.
func (s *Suite) AddPython(name string, pred PythonPredicate) *Suite {
	s.Tests = append(s.Tests, Test{Name: name, Python: pred})
	return s
}

// failure marks an assertion failure, as opposed to an unexpected error
// (browser crash, sandbox fault). Both fail the test; only the message
// format differs.
type failure struct {
	msg string
}

func (f *failure) Error() string { return f.msg }

// Failf builds an assertion failure. Predicates return it when the check
// itself is false.
func Failf(format string, args ...any) error {
	return &failure{msg: fmt.Sprintf(format, args...)}
}

// IsFailure reports whether err is an assertion failure from Failf.
func IsFailure(err error) bool {
	_, ok := err.(*failure)
	return ok
}
