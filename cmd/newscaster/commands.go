package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"NewsCaster/internal/app"
	"NewsCaster/internal/config"
	"NewsCaster/internal/domain"
	"NewsCaster/internal/infrastructure/storage"
	"NewsCaster/internal/logging"
)

var version = "dev"

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:          "newscaster",
		Short:        "Daily CS news digest for Telegram",
		Long:         "newscaster scrapes recent HLTV headlines, translates and summarizes them, and posts them to a Telegram chat on a daily schedule.",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config (overrides NEWSCASTER_CONFIG)")

	root.AddCommand(newServeCmd(&configPath))
	root.AddCommand(newOnceCmd(&configPath))
	root.AddCommand(newHistoryCmd(&configPath))
	root.AddCommand(newVersionCmd())
	return root
}

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the daily scheduler and answer chat commands",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			application, err := buildApp(ctx, *configPath)
			if err != nil {
				return err
			}
			defer application.Close()

			return application.Serve(ctx)
		},
	}
}

func newOnceCmd(configPath *string) *cobra.Command {
	var chatID int64

	cmd := &cobra.Command{
		Use:   "once",
		Short: "Fetch and deliver the current news a single time",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			application, err := buildApp(ctx, *configPath)
			if err != nil {
				return err
			}
			defer application.Close()

			report := application.RunOnce(ctx, domain.Destination(chatID))
			fmt.Fprintf(cmd.OutOrStdout(), "run %s: %d candidates, %d delivered, %d skipped, %d failed\n",
				report.RunID, report.Candidates, report.Delivered, report.Skipped, report.Failed)
			return nil
		},
	}
	cmd.Flags().Int64Var(&chatID, "chat", 0, "telegram chat id (defaults to the configured chat)")
	return cmd
}

func newHistoryCmd(configPath *string) *cobra.Command {
	var limit uint64

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent delivery attempts from the journal",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Load(*configPath)
			if cfg.Journal.DSN == "" {
				return fmt.Errorf("journal is disabled: set journal.dsn or JOURNAL_DSN")
			}

			db, err := storage.Open(cmd.Context(), cfg.Journal.Driver, cfg.Journal.DSN)
			if err != nil {
				return err
			}
			defer db.Close()

			records, err := storage.NewJournal(db, cfg.Journal.Driver).Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return printHistory(cmd.OutOrStdout(), records)
		},
	}
	cmd.Flags().Uint64Var(&limit, "limit", 20, "number of attempts to show")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "newscaster %s\n", version)
		},
	}
}

func buildApp(ctx context.Context, configPath string) (*app.Application, error) {
	cfg := config.Load(configPath)
	logger := logging.New(cfg.Logging.Level)
	return app.New(ctx, cfg, logger)
}

func printHistory(w io.Writer, records []domain.DeliveryRecord) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ATTEMPTED\tCHAT\tSTATUS\tTITLE\tERROR")
	for _, rec := range records {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\n",
			rec.AttemptedAt.Format(time.RFC3339), int64(rec.Destination), rec.Status, rec.Title, rec.Error)
	}
	return tw.Flush()
}
