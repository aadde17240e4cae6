package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/visionrag/ragview/internal/config"
	"github.com/visionrag/ragview/internal/dataset"
	"github.com/visionrag/ragview/internal/grouping"
	"github.com/visionrag/ragview/internal/models"
	"github.com/visionrag/ragview/internal/query"
	"github.com/visionrag/ragview/internal/rater"
	"github.com/visionrag/ragview/internal/scorestore"
)

func newRateCommand() *cobra.Command {
	var (
		session     string
		model       string
		provider    string
		unratedOnly bool
	)

	cmd := &cobra.Command{
		Use:   "rate <results.jsonl>",
		Short: "Rate results interactively in the terminal",
		Long: `Walk the grouped results one by one and assign correctness categories.

Ratings are written to the session store immediately, so a session can be
stopped and resumed at any point. Re-selecting a record's current category
clears it, same as in the web viewer.`,
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
			units := grouping.Group(records).Units
			units = query.Apply(units, query.Filters{Model: model, Provider: provider}, evals)

			if unratedOnly {
				filtered := units[:0]
				for _, unit := range units {
					_, withOK := evals.Get(unit, models.ModeWith)
					_, withoutOK := evals.Get(unit, models.ModeWithout)
					fullyRated := (unit.WithContext == nil || withOK) &&
						(unit.WithoutContext == nil || withoutOK)
					if !fullyRated {
						filtered = append(filtered, unit)
					}
				}
				units = filtered
			}

			if len(units) == 0 {
				fmt.Println("nothing to rate")
				return nil
			}

			sess := rater.NewSession(os.Stdin, os.Stdout, evals)
			if err := sess.Run(units); err != nil {
				return err
			}
			fmt.Printf("\n%d evaluations in session store %s\n", evals.Len(), cfg.Paths.Session)
			return nil
		},
	}

	cmd.Flags().StringVar(&session, "session", "", "Session store file (default from config)")
	cmd.Flags().StringVar(&model, "model", "", "Only rate results for this model")
	cmd.Flags().StringVar(&provider, "provider", "", "Only rate results for this embedding provider")
	cmd.Flags().BoolVar(&unratedOnly, "unrated", false, "Skip groups that are already fully rated")

	return cmd
}
