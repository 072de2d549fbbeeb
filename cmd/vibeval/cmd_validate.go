package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/spboyer/vibeval/internal/browser"
	"github.com/spboyer/vibeval/internal/config"
	"github.com/spboyer/vibeval/internal/validation"
)

var validateTimeout int

func newValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <workspace-dir>",
		Short: "Validate that a workspace's entry point executes",
		Long: `Validate one workspace without scoring it.

The primary artifact is located (Python before HTML), executed in the
sandbox or loaded in a headless browser, and the execution report is
printed as JSON.`,
		Args: cobra.ExactArgs(1),
		RunE: validateCommandE,
	}

	cmd.Flags().IntVar(&validateTimeout, "timeout", 0, "Execution timeout in seconds")

	return cmd
}

func validateCommandE(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(".")
	if err != nil {
		return err
	}
	timeout := cfg.Defaults.Timeout
	if validateTimeout > 0 {
		timeout = validateTimeout
	}

	pool := newBrowserPool(cfg)
	defer pool.Close()

	validator := validation.NewValidator(pool,
		validation.WithTimeout(time.Duration(timeout)*time.Second),
		validation.WithScreenshot(cfg.Browser.Screenshot != nil && *cfg.Browser.Screenshot),
	)
	report := validator.Validate(cmd.Context(), args[0])

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

// newBrowserPool builds a pool from the project's browser config.
func newBrowserPool(cfg *config.ProjectConfig) *browser.Pool {
	var opts []browser.PoolOption
	if cfg.Browser.ExecPath != "" {
		opts = append(opts, browser.WithExecPath(cfg.Browser.ExecPath))
	}
	if cfg.Browser.NavTimeoutMS > 0 {
		opts = append(opts, browser.WithNavTimeout(time.Duration(cfg.Browser.NavTimeoutMS)*time.Millisecond))
	}
	return browser.NewPool(opts...)
}
