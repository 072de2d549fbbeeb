package sandbox

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"syscall"
	"time"
)

// Defaults for sandboxed execution. Callers override via options.
const (
	DefaultTimeout        = 60 * time.Second
	DefaultMaxOutputChars = 10000
)

// Result is the outcome of one sandboxed command.
type Result struct {
	Success  bool
	Stdout   string
	Stderr   string
	ExitCode int
	TimedOut bool
}

// Executor runs commands with the working directory pinned to a workspace,
// refusing gated commands before any subprocess is spawned. Safe for use
// from one goroutine at a time; independent evaluations get independent
// executors.
type Executor struct {
	workspace      string
	timeout        time.Duration
	maxOutputChars int
	gate           *Gate
}

// Option configures an Executor.
type Option func(*Executor)

// WithTimeout overrides the per-command wall-clock timeout.
func WithTimeout(d time.Duration) Option {
	return func(e *Executor) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithMaxOutputChars overrides the captured-output budget per stream.
func WithMaxOutputChars(n int) Option {
	return func(e *Executor) {
		if n > 0 {
			e.maxOutputChars = n
		}
	}
}

// WithGate substitutes the command gate.
func WithGate(g *Gate) Option {
	return func(e *Executor) {
		if g != nil {
			e.gate = g
		}
	}
}

// NewExecutor creates an executor rooted at workspace, creating the
// directory if needed.
func NewExecutor(workspace string, opts ...Option) (*Executor, error) {
	if err := os.MkdirAll(workspace, 0o755); err != nil {
		return nil, fmt.Errorf("creating workspace %q: %w", workspace, err)
	}

	e := &Executor{
		workspace:      workspace,
		timeout:        DefaultTimeout,
		maxOutputChars: DefaultMaxOutputChars,
		gate:           DefaultGate(),
	}
	for _, o := range opts {
		o(e)
	}
	return e, nil
}

// Workspace returns the absolute workspace directory.
func (e *Executor) Workspace() string {
	return e.workspace
}

// Run executes a shell command in the workspace. Gated commands are never
// spawned: they come back as a failed Result whose stderr carries the
// BLOCKED marker and the matched phrase. On timeout the whole child
// process tree is killed and the Result reports TimedOut with exit code
// -1. Run always returns a Result; failures are data, not errors.
func (e *Executor) Run(ctx context.Context, command string) *Result {
	if phrase, blocked := e.gate.Match(command); blocked {
		slog.Debug("command refused by gate", "command", command, "phrase", phrase)
		return &Result{
			Success: false,
			Stderr: fmt.Sprintf("%s: Package manager commands are not allowed. "+
				"This benchmark requires zero external dependencies.\n"+
				"Blocked command pattern: '%s'", BlockedMarker, phrase),
			ExitCode: 1,
		}
	}

	cmd := exec.Command("sh", "-c", command)
	cmd.Dir = e.workspace
	cmd.Env = append(os.Environ(), "PYTHONUNBUFFERED=1")
	// Own process group so a timeout can take down the whole tree.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return &Result{
			Success:  false,
			Stderr:   fmt.Sprintf("Execution error: %v", err),
			ExitCode: -1,
		}
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	timer := time.NewTimer(e.timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		exitCode := 0
		if err != nil {
			if ee, ok := err.(*exec.ExitError); ok {
				exitCode = ee.ExitCode()
			} else {
				exitCode = -1
			}
		}
		return &Result{
			Success:  exitCode == 0,
			Stdout:   e.truncate(stdout.String()),
			Stderr:   e.truncate(stderr.String()),
			ExitCode: exitCode,
		}

	case <-timer.C:
		e.killTree(cmd)
		<-done
		return &Result{
			Success:  false,
			Stdout:   e.truncate(stdout.String()),
			Stderr:   fmt.Sprintf("Command timed out after %v", e.timeout),
			ExitCode: -1,
			TimedOut: true,
		}

	case <-ctx.Done():
		e.killTree(cmd)
		<-done
		return &Result{
			Success:  false,
			Stdout:   e.truncate(stdout.String()),
			Stderr:   fmt.Sprintf("Execution canceled: %v", ctx.Err()),
			ExitCode: -1,
		}
	}
}

// killTree terminates the command's entire process group.
func (e *Executor) killTree(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	if err := syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL); err != nil {
		// Group kill can fail if the leader already exited; fall back to
		// the single process.
		_ = cmd.Process.Kill()
	}
}

func (e *Executor) truncate(text string) string {
	if len(text) <= e.maxOutputChars {
		return text
	}
	return text[:e.maxOutputChars] + fmt.Sprintf("\n... (truncated, %d total chars)", len(text))
}

// WriteFile writes content at a path relative to the workspace, creating
// parent directories as needed.
func (e *Executor) WriteFile(relPath, content string) (string, error) {
	abs, err := e.resolve(relPath)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return "", fmt.Errorf("creating parent dirs for %q: %w", relPath, err)
	}
	if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("writing %q: %w", relPath, err)
	}
	return abs, nil
}

// ReadFile reads a file at a path relative to the workspace.
func (e *Executor) ReadFile(relPath string) (string, error) {
	abs, err := e.resolve(relPath)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return "", fmt.Errorf("reading %q: %w", relPath, err)
	}
	return string(data), nil
}

// ListFiles returns all workspace files as sorted relative paths.
func (e *Executor) ListFiles() ([]string, error) {
	var files []string
	err := filepath.WalkDir(e.workspace, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(e.workspace, path)
		if err != nil {
			return err
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing workspace files: %w", err)
	}
	sort.Strings(files)
	return files, nil
}

// Cleanup removes everything in the workspace, leaving the empty directory
// in place.
func (e *Executor) Cleanup() error {
	if err := os.RemoveAll(e.workspace); err != nil {
		return fmt.Errorf("cleaning workspace: %w", err)
	}
	return os.MkdirAll(e.workspace, 0o755)
}

// resolve joins relPath under the workspace and refuses escapes.
func (e *Executor) resolve(relPath string) (string, error) {
	abs := filepath.Join(e.workspace, relPath)
	rel, err := filepath.Rel(e.workspace, abs)
	if err != nil || rel == ".." || len(rel) >= 3 && rel[:3] == ".."+string(filepath.Separator) {
		return "", fmt.Errorf("path %q escapes the workspace", relPath)
	}
	return abs, nil
}

// NewWorkspace creates a fresh temporary workspace directory. An empty
// baseDir uses the system temp directory.
func NewWorkspace(baseDir string) (string, error) {
	if baseDir != "" {
		if err := os.MkdirAll(baseDir, 0o755); err != nil {
			return "", fmt.Errorf("creating workspace base %q: %w", baseDir, err)
		}
		dir, err := os.MkdirTemp(baseDir, "vibeval_")
		if err != nil {
			return "", fmt.Errorf("creating workspace: %w", err)
		}
		return dir, nil
	}
	dir, err := os.MkdirTemp("", "vibeval_")
	if err != nil {
		return "", fmt.Errorf("creating workspace: %w", err)
	}
	return dir, nil
}
