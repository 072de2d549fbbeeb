package actions

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spboyer/vibeval/internal/config"
)

func writeTranscript(t *testing.T, root, model, caseName, content string) {
	t.Helper()
	dir := filepath.Join(root, model)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, caseName+".txt"), []byte(content), 0o644))
}

func TestReplayGenerator(t *testing.T) {
	root := t.TempDir()
	writeTranscript(t, root, "model-a", "hello", `First attempt.

<write_file path="main.py">print('v1')</write_file>
===
Fixing the greeting.

<write_file path="main.py">print('hello')</write_file>
<done>finished</done>
===
<write_file path="extra.py">print('never')</write_file>
`)

	workspace := t.TempDir()
	gen := NewReplayGenerator(root)
	metrics, err := gen.Generate(context.Background(), "model-a", &config.Case{Name: "hello", Spec: "greet"}, workspace)
	require.NoError(t, err)
	require.NotNil(t, metrics)
	require.Equal(t, 2, metrics.Turns)
	require.Equal(t, 1, metrics.BacktrackCount)

	data, err := os.ReadFile(filepath.Join(workspace, "main.py"))
	require.NoError(t, err)
	require.Equal(t, "print('hello')", string(data))

	// The done signal ends the session; the third turn never runs.
	_, err = os.Stat(filepath.Join(workspace, "extra.py"))
	require.True(t, os.IsNotExist(err))
}

func TestReplayGenerator_MissingTranscript(t *testing.T) {
	gen := NewReplayGenerator(t.TempDir())
	_, err := gen.Generate(context.Background(), "model-a", &config.Case{Name: "absent", Spec: "s"}, t.TempDir())
	require.Error(t, err)
	require.Contains(t, err.Error(), "no transcript")
}

func TestReplayGenerator_NoActions(t *testing.T) {
	root := t.TempDir()
	writeTranscript(t, root, "model-a", "prose", "I would write some code here but never do.")

	gen := NewReplayGenerator(root)
	_, err := gen.Generate(context.Background(), "model-a", &config.Case{Name: "prose", Spec: "s"}, t.TempDir())
	require.Error(t, err)
	require.Contains(t, err.Error(), "contains no actions")
}

func TestReplayGenerator_EmptyTranscript(t *testing.T) {
	root := t.TempDir()
	writeTranscript(t, root, "model-a", "empty", "")

	gen := NewReplayGenerator(root)
	metrics, err := gen.Generate(context.Background(), "model-a", &config.Case{Name: "empty", Spec: "s"}, t.TempDir())
	require.NoError(t, err)
	require.Equal(t, 0, metrics.Turns)
}
