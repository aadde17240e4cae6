package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/visionrag/ragview/internal/config"
	"github.com/visionrag/ragview/internal/dataset"
	"github.com/visionrag/ragview/internal/scorestore"
	"github.com/visionrag/ragview/internal/snapshot"
)

func newExportCommand() *cobra.Command {
	var (
		session    string
		outputPath string
	)

	cmd := &cobra.Command{
		Use:   "export <results.jsonl>",
		Short: "Write an export snapshot for a results file",
		Long: `Write a self-describing snapshot of the results file merged with the
current session's evaluations. The snapshot is the durable form of scoring
state: importing it later rebuilds the session store exactly.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(".")
			if err != nil {
				return err
			}
			if session != "" {
				cfg.Paths.Session = session
			}

			records, err := dataset.Load(args[0])
			if err != nil {
				return err
			}

			evals := scorestore.Open(cfg.Paths.Session)
			snap := snapshot.Build(records, evals)

			path := outputPath
			if path == "" {
				path = snapshot.Filename(time.Now())
			}
			f, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("creating %s: %w", path, err)
			}
			defer f.Close() //nolint:errcheck

			if err := snapshot.Write(f, snap); err != nil {
				return err
			}
			fmt.Printf("exported %d records (%d evaluated) to %s\n",
				snap.Summary.TotalResults, snap.Summary.EvaluatedResults, path)
			return nil
		},
	}

	cmd.Flags().StringVar(&session, "session", "", "Session store file (default from config)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file (default: timestamped name)")

	return cmd
}
