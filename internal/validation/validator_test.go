package validation

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spboyer/vibeval/internal/models"
)

func requirePython(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("python3"); err != nil {
		t.Skip("python3 not available")
	}
}

func writeWorkspace(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

func TestValidate_EmptyWorkspace(t *testing.T) {
	v := NewValidator(nil)
	report := v.Validate(context.Background(), t.TempDir())
	require.False(t, report.Executed)
	require.Equal(t, models.FileTypeNone, report.FileType)
	require.Contains(t, report.Errors, "No Python or HTML files found to validate")
}

func TestValidate_PythonPriorityOverHTML(t *testing.T) {
	requirePython(t)
	dir := writeWorkspace(t, map[string]string{
		"main.py":    "print('from python')\n",
		"index.html": "<html><body></body></html>",
	})

	report := NewValidator(nil).Validate(context.Background(), dir)
	require.Equal(t, models.FileTypePython, report.FileType)
}

func TestValidatePython_Success(t *testing.T) {
	requirePython(t)
	dir := writeWorkspace(t, map[string]string{
		"main.py": "import json\nprint(json.dumps({'ok': True}))\n",
	})

	report := NewValidator(nil).Validate(context.Background(), dir)
	require.True(t, report.Executed)
	require.Equal(t, 0, report.ExitCode)
	require.Contains(t, report.Stdout, `"ok": true`)
	require.Empty(t, report.Errors)
	require.Empty(t, report.IllegalImports)
}

func TestValidatePython_SyntaxError(t *testing.T) {
	requirePython(t)
	dir := writeWorkspace(t, map[string]string{
		"main.py": "def broken(:\n    pass\n",
	})

	report := NewValidator(nil).Validate(context.Background(), dir)
	require.False(t, report.Executed)
	require.Len(t, report.Errors, 1)
	require.Contains(t, report.Errors[0], "Syntax error")
}

func TestValidatePython_IllegalImports(t *testing.T) {
	requirePython(t)
	dir := writeWorkspace(t, map[string]string{
		"main.py": "try:\n    import pandas\nexcept ImportError:\n    pass\nprint('done')\n",
	})

	report := NewValidator(nil).Validate(context.Background(), dir)
	require.False(t, report.Executed)
	require.Equal(t, []string{"pandas"}, report.IllegalImports)
	require.Contains(t, report.Errors[0], "Illegal imports detected: pandas")
	// The script still ran; the audit is what failed it.
	require.Equal(t, 0, report.ExitCode)
}

func TestValidatePython_NonzeroExit(t *testing.T) {
	requirePython(t)
	dir := writeWorkspace(t, map[string]string{
		"main.py": "import sys\nsys.exit(3)\n",
	})

	report := NewValidator(nil).Validate(context.Background(), dir)
	require.False(t, report.Executed)
	require.Equal(t, 3, report.ExitCode)
	require.Contains(t, report.Errors, "Exited with code 3")
}

func TestValidatePython_MissingModule(t *testing.T) {
	requirePython(t)
	dir := writeWorkspace(t, map[string]string{
		// Stdlib-looking name that does not exist, so the audit passes but
		// the interpreter cannot resolve it.
		"main.py": "import nonexistent_module_xyz\n",
	})

	report := NewValidator(nil).Validate(context.Background(), dir)
	require.False(t, report.Executed)

	found := false
	for _, e := range report.Errors {
		if len(e) > 15 && e[:15] == "Missing module:" {
			found = true
		}
	}
	require.True(t, found, "expected a missing-module error, got %v", report.Errors)
}

func TestValidatePython_Timeout(t *testing.T) {
	requirePython(t)
	dir := writeWorkspace(t, map[string]string{
		"main.py": "import time\ntime.sleep(30)\n",
	})

	start := time.Now()
	v := NewValidator(nil, WithTimeout(500*time.Millisecond))
	report := v.Validate(context.Background(), dir)
	elapsed := time.Since(start)

	require.False(t, report.Executed)
	require.Equal(t, -1, report.ExitCode)
	require.Contains(t, report.Errors[0], "timed out")
	require.Less(t, elapsed, 10*time.Second)
}

func TestValidateHTML_StructuralFallback(t *testing.T) {
	tests := []struct {
		name     string
		html     string
		executed bool
	}{
		{"well formed", "<!DOCTYPE html><html><body><h1>Hi</h1></body></html>", true},
		{"missing body", "<html><div>Hi</div></html>", false},
		{"fragment", "<div>just a fragment</div>", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := writeWorkspace(t, map[string]string{"index.html": tt.html})

			report := NewValidator(nil).Validate(context.Background(), dir)
			require.Equal(t, models.FileTypeHTML, report.FileType)
			require.Equal(t, tt.executed, report.Executed)
			require.Contains(t, report.Stderr, "structural validation only")
		})
	}
}

func TestExtractMissingModule(t *testing.T) {
	stderr := "Traceback (most recent call last):\n" +
		"  File \"main.py\", line 1, in <module>\n" +
		"ModuleNotFoundError: No module named 'pandas'\n"
	require.Equal(t, "No module named 'pandas'", extractMissingModule(stderr))
	require.Equal(t, "", extractMissingModule("clean run"))
}
