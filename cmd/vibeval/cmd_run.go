package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/spboyer/vibeval/internal/actions"
	"github.com/spboyer/vibeval/internal/config"
	"github.com/spboyer/vibeval/internal/models"
	"github.com/spboyer/vibeval/internal/orchestration"
	"github.com/spboyer/vibeval/internal/reporting"
)

var (
	runCasesDir    string
	runResultsDir  string
	runCaseFilter  []string
	runModels      []string
	runWorkers     int
	runTranscripts string
)

func newRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [outputs-dir]",
		Short: "Evaluate generated outputs for every model and case",
		Long: `Run a full evaluation over pre-generated outputs.

The outputs directory is expected to contain one subdirectory per model,
each holding one workspace per case:

    outputs/<model>/<case>/...generated files...

With --transcripts, workspaces are instead materialized by replaying
recorded agent transcripts (transcripts/<model>/<case>.txt) through the
sandbox.

Every (model, case) workspace is validated, tested, analyzed, and scored;
results are persisted under the results directory and summarized as a
leaderboard.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runCommandE,
	}

	cmd.Flags().StringVar(&runCasesDir, "cases", "", "Cases directory (default from config)")
	cmd.Flags().StringVar(&runResultsDir, "results", "", "Results directory (default from config)")
	cmd.Flags().StringArrayVar(&runCaseFilter, "case", nil, "Case name to include (can be repeated; default all)")
	cmd.Flags().StringArrayVar(&runModels, "model", nil, "Model to include (can be repeated; default all found)")
	cmd.Flags().IntVar(&runWorkers, "workers", 0, "Number of concurrent workers")
	cmd.Flags().StringVar(&runTranscripts, "transcripts", "", "Replay recorded agent transcripts instead of copying outputs")

	return cmd
}

func runCommandE(cmd *cobra.Command, args []string) error {
	var gen orchestration.Generator
	var sourceDir string
	switch {
	case runTranscripts != "":
		sourceDir = runTranscripts
		gen = actions.NewReplayGenerator(runTranscripts)
	case len(args) == 1:
		sourceDir = args[0]
		gen = &outputsGenerator{root: args[0]}
	default:
		return fmt.Errorf("an outputs directory or --transcripts is required")
	}

	cfg, err := config.Load(".")
	if err != nil {
		return err
	}
	if runCasesDir != "" {
		cfg.Paths.Cases = runCasesDir
	}
	if runResultsDir != "" {
		cfg.Paths.Results = runResultsDir
	}
	if runWorkers > 0 {
		cfg.Defaults.Workers = runWorkers
	}

	cases, broken, err := config.LoadCases(cfg.Paths.Cases, runCaseFilter)
	if err != nil {
		return err
	}
	for name, loadErr := range broken {
		fmt.Fprintf(cmd.ErrOrStderr(), "skipping case %s: %v\n", name, loadErr)
	}

	modelIDs := runModels
	if len(modelIDs) == 0 {
		modelIDs, err = discoverModels(sourceDir)
		if err != nil {
			return err
		}
	}

	runner := orchestration.NewRunner(cfg, gen, nil)
	runner.OnProgress(func(event orchestration.ProgressEvent) {
		switch event.EventType {
		case orchestration.EventCaseStart:
			fmt.Fprintf(cmd.OutOrStdout(), "[%d/%d] %s / %s ...\n",
				event.PairNum, event.TotalPairs, event.Model, event.Case)
		case orchestration.EventCaseComplete:
			status := fmt.Sprintf("%.1f", event.Score)
			if event.Err != "" {
				status = "error: " + event.Err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "[%d/%d] %s / %s -> %s (%dms)\n",
				event.PairNum, event.TotalPairs, event.Model, event.Case, status, event.DurationMS)
		}
	})

	run, err := runner.Run(cmd.Context(), modelIDs, cases)
	if err != nil {
		return err
	}

	store := reporting.NewStore(cfg.Paths.Results)
	if err := store.SaveRun(run); err != nil {
		return fmt.Errorf("saving run: %w", err)
	}

	summaries := reporting.Summarize(run)
	fmt.Fprintln(cmd.OutOrStdout())
	fmt.Fprint(cmd.OutOrStdout(), reporting.RenderTable(summaries))
	fmt.Fprintf(cmd.OutOrStdout(), "\nrun %s saved to %s\n", run.RunID, cfg.Paths.Results)
	return nil
}

// discoverModels lists the model subdirectories of the source dir.
func discoverModels(sourceDir string) ([]string, error) {
	entries, err := os.ReadDir(sourceDir)
	if err != nil {
		return nil, fmt.Errorf("reading %q: %w", sourceDir, err)
	}
	var found []string
	for _, entry := range entries {
		if entry.IsDir() {
			found = append(found, entry.Name())
		}
	}
	if len(found) == 0 {
		return nil, fmt.Errorf("no model directories under %q", sourceDir)
	}
	sort.Strings(found)
	return found, nil
}

// outputsGenerator copies pre-generated artifacts into the evaluation
// workspace. It is the offline stand-in for a live agent engine.
type outputsGenerator struct {
	root string
}

func (g *outputsGenerator) Generate(ctx context.Context, model string, c *config.Case, workspaceDir string) (*models.AgentMetrics, error) {
	src := filepath.Join(g.root, model, c.Name)
	if _, err := os.Stat(src); err != nil {
		return nil, fmt.Errorf("no output for %s/%s: %w", model, c.Name, err)
	}

	err := filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		dst := filepath.Join(workspaceDir, rel)
		if d.IsDir() {
			return os.MkdirAll(dst, 0o755)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return os.WriteFile(dst, data, 0o644)
	})
	if err != nil {
		return nil, fmt.Errorf("copying output for %s/%s: %w", model, c.Name, err)
	}
	return nil, nil
}
