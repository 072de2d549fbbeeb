package functest

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-viper/mapstructure/v2"

	"github.com/spboyer/vibeval/internal/browser"
)

// CheckType identifies one declarative check kind.
type CheckType string

const (
	CheckSelectorExists CheckType = "selector_exists"
	CheckTextContains   CheckType = "text_contains"
	CheckTitleContains  CheckType = "title_contains"
	CheckStdoutContains CheckType = "stdout_contains"
	CheckStdoutMatches  CheckType = "stdout_matches"
	CheckExitZero       CheckType = "exit_zero"
)

// CheckConfig is one declaratively described test, typically loaded from a
// case definition. Params are loosely typed and decoded per check type.
type CheckConfig struct {
	Name   string         `yaml:"name" mapstructure:"name"`
	Type   CheckType      `yaml:"type" mapstructure:"type"`
	Params map[string]any `yaml:"params" mapstructure:"params"`
}

// BuildSuite turns declarative checks into a runnable suite, preserving
// order. Cases ship checks as data; no compiled predicates needed.
func BuildSuite(configs []CheckConfig) (*Suite, error) {
	suite := &Suite{}
	for i, cfg := range configs {
		name := cfg.Name
		if name == "" {
			name = fmt.Sprintf("check_%d_%s", i+1, cfg.Type)
		}

		test, err := buildCheck(name, cfg)
		if err != nil {
			return nil, fmt.Errorf("check %q: %w", name, err)
		}
		suite.Tests = append(suite.Tests, test)
	}
	return suite, nil
}

func buildCheck(name string, cfg CheckConfig) (Test, error) {
	switch cfg.Type {
	case CheckSelectorExists:
		var v struct {
			Selector string `mapstructure:"selector"`
		}
		if err := mapstructure.Decode(cfg.Params, &v); err != nil {
			return Test{}, err
		}
		if v.Selector == "" {
			return Test{}, fmt.Errorf("selector_exists requires a selector")
		}
		return Test{Name: name, HTML: selectorExists(v.Selector)}, nil

	case CheckTextContains:
		var v struct {
			Selector string `mapstructure:"selector"`
			Text     string `mapstructure:"text"`
		}
		if err := mapstructure.Decode(cfg.Params, &v); err != nil {
			return Test{}, err
		}
		if v.Selector == "" || v.Text == "" {
			return Test{}, fmt.Errorf("text_contains requires selector and text")
		}
		return Test{Name: name, HTML: textContains(v.Selector, v.Text)}, nil

	case CheckTitleContains:
		var v struct {
			Text string `mapstructure:"text"`
		}
		if err := mapstructure.Decode(cfg.Params, &v); err != nil {
			return Test{}, err
		}
		if v.Text == "" {
			return Test{}, fmt.Errorf("title_contains requires text")
		}
		return Test{Name: name, HTML: titleContains(v.Text)}, nil

	case CheckStdoutContains:
		var v struct {
			Text string `mapstructure:"text"`
		}
		if err := mapstructure.Decode(cfg.Params, &v); err != nil {
			return Test{}, err
		}
		if v.Text == "" {
			return Test{}, fmt.Errorf("stdout_contains requires text")
		}
		return Test{Name: name, Python: stdoutContains(v.Text)}, nil

	case CheckStdoutMatches:
		var v struct {
			Pattern string `mapstructure:"pattern"`
		}
		if err := mapstructure.Decode(cfg.Params, &v); err != nil {
			return Test{}, err
		}
		re, err := regexp.Compile(v.Pattern)
		if err != nil {
			return Test{}, fmt.Errorf("stdout_matches pattern: %w", err)
		}
		return Test{Name: name, Python: stdoutMatches(re)}, nil

	case CheckExitZero:
		return Test{Name: name, Python: exitZero()}, nil

	default:
		return Test{}, fmt.Errorf("unknown check type %q", cfg.Type)
	}
}

func selectorExists(selector string) HTMLPredicate {
	return func(ctx context.Context, page *browser.Page) error {
		ok, err := page.Exists(selector)
		if err != nil {
			return err
		}
		if !ok {
			return Failf("no element matches selector %q", selector)
		}
		return nil
	}
}

func textContains(selector, want string) HTMLPredicate {
	return func(ctx context.Context, page *browser.Page) error {
		text, err := page.Text(selector)
		if err != nil {
			return err
		}
		if !strings.Contains(text, want) {
			return Failf("element %q text %q does not contain %q", selector, text, want)
		}
		return nil
	}
}

func titleContains(want string) HTMLPredicate {
	return func(ctx context.Context, page *browser.Page) error {
		title, err := page.Title()
		if err != nil {
			return err
		}
		if !strings.Contains(title, want) {
			return Failf("title %q does not contain %q", title, want)
		}
		return nil
	}
}

func stdoutContains(want string) PythonPredicate {
	return func(ctx context.Context, target PythonTarget) error {
		result := target.RunEntry(ctx)
		if !strings.Contains(result.Stdout, want) {
			return Failf("stdout does not contain %q", want)
		}
		return nil
	}
}

func stdoutMatches(re *regexp.Regexp) PythonPredicate {
	return func(ctx context.Context, target PythonTarget) error {
		result := target.RunEntry(ctx)
		if !re.MatchString(result.Stdout) {
			return Failf("stdout does not match %q", re.String())
		}
		return nil
	}
}

func exitZero() PythonPredicate {
	return func(ctx context.Context, target PythonTarget) error {
		result := target.RunEntry(ctx)
		if result.ExitCode != 0 {
			return Failf("exited with code %d", result.ExitCode)
		}
		return nil
	}
}
