package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	cfg := New()
	require.Equal(t, DefaultCasesDir, cfg.Paths.Cases)
	require.Equal(t, DefaultResultsDir, cfg.Paths.Results)
	require.Equal(t, DefaultAggregation, cfg.Defaults.Aggregation)
	require.Equal(t, DefaultDisagreementThreshold, cfg.Defaults.DisagreementThreshold)
	require.Equal(t, DefaultTimeout, cfg.Defaults.Timeout)
	require.Equal(t, DefaultWorkers, cfg.Defaults.Workers)
	require.NotNil(t, cfg.Defaults.UseJudge)
	require.True(t, *cfg.Defaults.UseJudge)
	require.Equal(t, DefaultNavTimeoutMS, cfg.Browser.NavTimeoutMS)
	require.NotNil(t, cfg.Browser.Screenshot)
	require.False(t, *cfg.Browser.Screenshot)
}

func TestLoad_NoConfigFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	require.Equal(t, New(), cfg)
}

func TestLoad_MergesOverDefaults(t *testing.T) {
	dir := t.TempDir()
	content := `paths:
  cases: my_cases/
defaults:
  aggregation: average
  workers: 8
  use_judge: false
browser:
  exec_path: /usr/bin/chromium
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(content), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	// Overridden values.
	require.Equal(t, "my_cases/", cfg.Paths.Cases)
	require.Equal(t, "average", cfg.Defaults.Aggregation)
	require.Equal(t, 8, cfg.Defaults.Workers)
	require.False(t, *cfg.Defaults.UseJudge)
	require.Equal(t, "/usr/bin/chromium", cfg.Browser.ExecPath)

	// Untouched fields keep their defaults.
	require.Equal(t, DefaultResultsDir, cfg.Paths.Results)
	require.Equal(t, DefaultTimeout, cfg.Defaults.Timeout)
	require.Equal(t, DefaultNavTimeoutMS, cfg.Browser.NavTimeoutMS)
}

func TestLoad_WalksUp(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b", "c")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	content := "defaults:\n  timeout: 120\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, ConfigFileName), []byte(content), 0o644))

	cfg, err := Load(nested)
	require.NoError(t, err)
	require.Equal(t, 120, cfg.Defaults.Timeout)
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte("{not yaml"), 0o644))

	_, err := Load(dir)
	require.Error(t, err)
}
