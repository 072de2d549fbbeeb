package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/spboyer/vibeval/internal/config"
	"github.com/spboyer/vibeval/internal/reporting"
)

var (
	reportResultsDir string
	reportMarkdown   string
	reportHTML       string
)

func newReportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report [run-id]",
		Short: "Render the leaderboard for a persisted run",
		Long: `Render a persisted evaluation run as a leaderboard.

With no run ID the most recent run is used. The table is printed to
stdout; markdown and HTML reports can be written with flags.`,
		Args: cobra.MaximumNArgs(1),
		RunE: reportCommandE,
	}

	cmd.Flags().StringVar(&reportResultsDir, "results", "", "Results directory (default from config)")
	cmd.Flags().StringVar(&reportMarkdown, "markdown", "", "Write a markdown report to this file")
	cmd.Flags().StringVar(&reportHTML, "html", "", "Write an HTML report to this file")

	return cmd
}

func reportCommandE(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(".")
	if err != nil {
		return err
	}
	if reportResultsDir != "" {
		cfg.Paths.Results = reportResultsDir
	}

	store := reporting.NewStore(cfg.Paths.Results)

	var runID string
	if len(args) == 1 {
		runID = args[0]
	} else {
		runs, err := store.ListRuns()
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			return fmt.Errorf("no runs found in %q", cfg.Paths.Results)
		}
		runID = runs[len(runs)-1]
	}

	run, err := store.LoadRun(runID)
	if err != nil {
		return err
	}
	summaries := reporting.Summarize(run)

	fmt.Fprint(cmd.OutOrStdout(), reporting.RenderTable(summaries))

	if reportMarkdown != "" {
		md := reporting.RenderMarkdown(run, summaries)
		if err := os.WriteFile(reportMarkdown, []byte(md), 0o644); err != nil {
			return fmt.Errorf("writing markdown report: %w", err)
		}
	}
	if reportHTML != "" {
		doc, err := reporting.RenderHTML(run, summaries)
		if err != nil {
			return err
		}
		if err := os.WriteFile(reportHTML, doc, 0o644); err != nil {
			return fmt.Errorf("writing HTML report: %w", err)
		}
	}
	return nil
}
