package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spboyer/vibeval/internal/config"
	"github.com/spboyer/vibeval/internal/orchestration"
)

var scoreCaseDir string

func newScoreCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "score <workspace-dir>",
		Short: "Score one workspace against a case",
		Long: `Score a single workspace through the full pipeline: execution
validation, functional tests, static analysis, and aggregation into the
final weighted score. The final score is printed as JSON.`,
		Args: cobra.ExactArgs(1),
		RunE: scoreCommandE,
	}

	cmd.Flags().StringVar(&scoreCaseDir, "case", "", "Case directory holding spec.md and case.yaml")
	_ = cmd.MarkFlagRequired("case")

	return cmd
}

func scoreCommandE(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(".")
	if err != nil {
		return err
	}

	c, err := config.LoadCase(scoreCaseDir)
	if err != nil {
		return err
	}

	pool := newBrowserPool(cfg)
	defer pool.Close()

	runner := orchestration.NewRunner(cfg, nil, nil)
	report, final, _ := runner.EvaluateWorkspace(cmd.Context(), pool, args[0], c, nil)

	out := struct {
		Execution any `json:"execution"`
		Final     any `json:"final_score"`
	}{Execution: report, Final: final}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding score: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}
