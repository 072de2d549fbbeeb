package main

import (
	"log/slog"

	"github.com/spf13/cobra"
)

var version = "dev"

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vibeval",
		Short: "vibeval - execution validation and scoring for generated code",
		Long: `vibeval validates and scores code generated by language models.

Candidate workspaces are executed in a sandbox, driven through functional
tests, statically analyzed, and combined into a weighted final score per
(model, case) pair.`,
		Version:      version,
		SilenceUsage: true,
	}

	debugLogging := cmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if *debugLogging {
			slog.SetLogLoggerLevel(slog.LevelDebug)
		}
	}

	cmd.AddCommand(newRunCommand())
	cmd.AddCommand(newValidateCommand())
	cmd.AddCommand(newScoreCommand())
	cmd.AddCommand(newReportCommand())

	return cmd
}

func execute() error {
	return newRootCommand().Execute()
}
