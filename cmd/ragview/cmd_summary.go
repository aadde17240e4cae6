package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/visionrag/ragview/internal/config"
	"github.com/visionrag/ragview/internal/dashboard"
	"github.com/visionrag/ragview/internal/dataset"
	"github.com/visionrag/ragview/internal/grouping"
	"github.com/visionrag/ragview/internal/metrics"
	"github.com/visionrag/ragview/internal/scorestore"
)

func newSummaryCommand() *cobra.Command {
	var session string

	cmd := &cobra.Command{
		Use:   "summary <results.jsonl>",
		Short: "Print the dashboard aggregation as a terminal table",
		Args:  cobra.ExactArgs(1),
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
			summary := dashboard.Compute(units, evals)

			printSummary(os.Stdout, summary)
			return nil
		},
	}

	cmd.Flags().StringVar(&session, "session", "", "Session store file (default from config)")
	return cmd
}

func printSummary(w io.Writer, s *dashboard.Summary) {
	fmt.Fprintf(w, "Results: %d records, %d groups (%d with context, %d without, %d errors)\n",
		s.TotalRecords, s.TotalGroups, s.WithContextRecords, s.WithoutContextRecords, s.ErrorRecords)
	fmt.Fprintf(w, "Evaluations: %d\n", s.TotalEvaluations)
	fmt.Fprintf(w, "Context impact: %d positive / %d zero / %d negative\n\n",
		s.PositiveImpact, s.ZeroImpact, s.NegativeImpact)

	printEntityTable(w, "Model", s.Models)
	fmt.Fprintln(w)
	printEntityTable(w, "Provider", s.Providers)

	if len(s.Ranking) > 0 {
		fmt.Fprintf(w, "\nRanking (mean with-context score):\n")
		for i, entry := range s.Ranking {
			fmt.Fprintf(w, "  %d. %s  %.2f (%d rated)\n", i+1, entry.Name, entry.MeanWithScore, entry.RatedWith)
		}
	}
	if s.ModelPerformers.MostDirect != "" {
		fmt.Fprintf(w, "\nMost direct answers: %s", s.ModelPerformers.MostDirect)
		if s.ModelPerformers.MostHallucination != "" {
			fmt.Fprintf(w, "   Most hallucinations: %s", s.ModelPerformers.MostHallucination)
		}
		fmt.Fprintln(w)
	}
}

func printEntityTable(w io.Writer, label string, stats []dashboard.EntityStats) {
	fmt.Fprintf(w, "%-24s %8s %8s %8s %8s %8s\n",
		label, "with", "without", "impact", "direct", "halluc")
	fmt.Fprintln(w, strings.Repeat("-", 70))
	for _, s := range stats {
		fmt.Fprintf(w, "%-24s %8.2f %8.2f %+8.2f %8d %8d\n",
			cell(s.Name, 24), s.MeanWithScore, s.MeanWithoutScore, s.MeanImpact,
			s.DirectCount, s.HallucinationCount)
		fmt.Fprintf(w, "  words(with)=%.0f %s\n",
			s.With.AvgWordCount, histogramLine(s.With.Histogram))
	}
}

// cell truncates a name to the column width, accounting for wide runes.
func cell(s string, width int) string {
	if runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width-1, "…")
}

// histogramLine renders a conciseness histogram in class order, skipping
// empty buckets.
func histogramLine(hist map[metrics.Conciseness]int) string {
	var parts []string
	for _, class := range metrics.ConcisenessClasses {
		if n := hist[class]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s:%d", class, n))
		}
	}
	return strings.Join(parts, " ")
}
