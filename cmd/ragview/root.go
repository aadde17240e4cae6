package main

import (
	"log/slog"

	"github.com/spf13/cobra"
)

var version = "dev"

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ragview",
		Short: "ragview - viewer and analysis tool for VisionRAG evaluation results",
		Long: `ragview loads the JSONL evaluation records produced by the VisionRAG
generation pipeline, joins them into with/without-context pairs, and lets a
human rater score and compare model responses.

Scores live in a session-scoped store and are made durable only through
export snapshots, which ragview can re-import later.`,
		Version:      version,
		SilenceUsage: true,
	}

	debugLogging := cmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if *debugLogging {
			slog.SetLogLoggerLevel(slog.LevelDebug)
		}
	}

	cmd.AddCommand(newServeCommand())
	cmd.AddCommand(newRateCommand())
	cmd.AddCommand(newSummaryCommand())
	cmd.AddCommand(newExportCommand())

	return cmd
}

func execute() error {
	return newRootCommand().Execute()
}
