// Package config loads project-level configuration from .vibeval.yaml and
// per-case definitions from case directories. Project config is found by
// walking up from the start directory; missing files mean defaults, not
// errors.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Default values for project configuration. New() references them and no
// other code should duplicate them.
const (
	DefaultCasesDir   = "eval_cases/"
	DefaultResultsDir = "results/"

	DefaultAggregation           = "median"
	DefaultDisagreementThreshold = 15.0
	DefaultTimeout               = 60
	DefaultWorkers               = 4
	DefaultNavTimeoutMS          = 10000
)

// ConfigFileName is the project config file searched for by Load.
const ConfigFileName = ".vibeval.yaml"

// PathsConfig holds directory paths for cases and results.
type PathsConfig struct {
	Cases   string `yaml:"cases,omitempty"`
	Results string `yaml:"results,omitempty"`
}

// DefaultsConfig holds default evaluation parameters.
type DefaultsConfig struct {
	Models                []string `yaml:"models,omitempty"`
	Judges                []string `yaml:"judges,omitempty"`
	Aggregation           string   `yaml:"aggregation,omitempty"`
	DisagreementThreshold float64  `yaml:"disagreement_threshold,omitempty"`
	Timeout               int      `yaml:"timeout,omitempty"`
	Workers               int      `yaml:"workers,omitempty"`
	UseJudge              *bool    `yaml:"use_judge,omitempty"`
}

// BrowserConfig holds headless browser settings.
type BrowserConfig struct {
	ExecPath     string `yaml:"exec_path,omitempty"`
	NavTimeoutMS int    `yaml:"nav_timeout_ms,omitempty"`
	Screenshot   *bool  `yaml:"screenshot,omitempty"`
}

// ProjectConfig is the top-level configuration loaded from .vibeval.yaml.
type ProjectConfig struct {
	Paths    PathsConfig    `yaml:"paths,omitempty"`
	Defaults DefaultsConfig `yaml:"defaults,omitempty"`
	Browser  BrowserConfig  `yaml:"browser,omitempty"`
}

// New returns a ProjectConfig with all hard-coded defaults populated.
func New() *ProjectConfig {
	return &ProjectConfig{
		Paths: PathsConfig{
			Cases:   DefaultCasesDir,
			Results: DefaultResultsDir,
		},
		Defaults: DefaultsConfig{
			Aggregation:           DefaultAggregation,
			DisagreementThreshold: DefaultDisagreementThreshold,
			Timeout:               DefaultTimeout,
			Workers:               DefaultWorkers,
			UseJudge:              boolPtr(true),
		},
		Browser: BrowserConfig{
			NavTimeoutMS: DefaultNavTimeoutMS,
			Screenshot:   boolPtr(false),
		},
	}
}

// Load finds .vibeval.yaml by walking up from startDir (max 10 levels),
// unmarshals it, and fills in missing fields with defaults. No config
// file found returns defaults with a nil error; real I/O errors are
// returned to the caller.
func Load(startDir string) (*ProjectConfig, error) {
	cfg := New()

	data, err := findConfigFile(startDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("loading %s: %w", ConfigFileName, err)
	}

	var fileCfg ProjectConfig
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", ConfigFileName, err)
	}

	mergeConfig(cfg, &fileCfg)
	return cfg, nil
}

// findConfigFile walks up from dir looking for .vibeval.yaml (max 10
// levels). Returns os.ErrNotExist when no config file exists; real I/O
// errors propagate.
func findConfigFile(dir string) ([]byte, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving path %q: %w", dir, err)
	}
	dir = absDir

	for i := 0; i < 10; i++ {
		p := filepath.Join(dir, ConfigFileName)
		data, err := os.ReadFile(p)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading %q: %w", p, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return nil, os.ErrNotExist
}

// mergeConfig overlays non-zero values from src onto dst.
func mergeConfig(dst, src *ProjectConfig) {
	if src.Paths.Cases != "" {
		dst.Paths.Cases = src.Paths.Cases
	}
	if src.Paths.Results != "" {
		dst.Paths.Results = src.Paths.Results
	}

	if len(src.Defaults.Models) > 0 {
		dst.Defaults.Models = src.Defaults.Models
	}
	if len(src.Defaults.Judges) > 0 {
		dst.Defaults.Judges = src.Defaults.Judges
	}
	if src.Defaults.Aggregation != "" {
		dst.Defaults.Aggregation = src.Defaults.Aggregation
	}
	if src.Defaults.DisagreementThreshold != 0 {
		dst.Defaults.DisagreementThreshold = src.Defaults.DisagreementThreshold
	}
	if src.Defaults.Timeout != 0 {
		dst.Defaults.Timeout = src.Defaults.Timeout
	}
	if src.Defaults.Workers != 0 {
		dst.Defaults.Workers = src.Defaults.Workers
	}
	if src.Defaults.UseJudge != nil {
		dst.Defaults.UseJudge = src.Defaults.UseJudge
	}

	if src.Browser.ExecPath != "" {
		dst.Browser.ExecPath = src.Browser.ExecPath
	}
	if src.Browser.NavTimeoutMS != 0 {
		dst.Browser.NavTimeoutMS = src.Browser.NavTimeoutMS
	}
	if src.Browser.Screenshot != nil {
		dst.Browser.Screenshot = src.Browser.Screenshot
	}
}

func boolPtr(b bool) *bool {
	return &b
}
