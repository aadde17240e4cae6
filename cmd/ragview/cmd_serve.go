package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/visionrag/ragview/internal/config"
	"github.com/visionrag/ragview/internal/dataset"
	"github.com/visionrag/ragview/internal/scorestore"
	"github.com/visionrag/ragview/internal/webapi"
	"github.com/visionrag/ragview/internal/webserver"
)

func newServeCommand() *cobra.Command {
	var (
		port      int
		noBrowser bool
		session   string
	)

	cmd := &cobra.Command{
		Use:   "serve [results.jsonl]",
		Short: "Start the local viewer server",
		Long: `Start the local HTTP viewer server.

When a results file is given it is loaded on startup; otherwise the viewer
starts empty and records can be uploaded through the import endpoint.
Evaluations persist in the session file and survive server restarts; use
export for durable snapshots.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(".")
			if err != nil {
				return err
			}
			if port != 0 {
				cfg.Server.Port = port
			}
			if noBrowser {
				cfg.Server.NoBrowser = true
			}
			if session != "" {
				cfg.Paths.Session = session
			}

			evals := scorestore.Open(cfg.Paths.Session)
			store := webapi.NewDataStore(evals, slog.Default())

			if len(args) == 1 {
				records, err := dataset.Load(args[0])
				if err != nil {
					return err
				}
				store.ReplaceRecords(records)
				fmt.Printf("loaded %d records from %s\n", len(records), args[0])
			}

			srv := webserver.New(webserver.Config{
				Port:      cfg.Server.Port,
				Origins:   cfg.Server.Origins,
				NoBrowser: cfg.Server.NoBrowser,
				Logger:    slog.Default(),
			}, store)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			// The watcher is the cross-process fallback: another ragview
			// process writing the same session file shows up within one
			// poll interval.
			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error { return srv.ListenAndServe(ctx) })
			g.Go(func() error {
				err := evals.Watch(ctx, cfg.PollInterval())
				if err == ctx.Err() {
					return nil
				}
				return err
			})
			return g.Wait()
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (default from config, else 3000)")
	cmd.Flags().BoolVar(&noBrowser, "no-browser", false, "Do not open the browser on startup")
	cmd.Flags().StringVar(&session, "session", "", "Session store file (default from config)")

	return cmd
}
