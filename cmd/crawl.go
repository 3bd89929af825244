package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"civic-crawler/config"
	"civic-crawler/crawler"
	"civic-crawler/database"
	"civic-crawler/fetcher"
	"civic-crawler/logger"
	"civic-crawler/report"
	"civic-crawler/storage"
)

type crawlFlags struct {
	maxURLs  int
	maxDepth int
	workers  int
	output   string
	seeds    []string
	dryRun   bool
}

func crawlCommand() *cobra.Command {
	var flags crawlFlags

	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Run a crawl session",
		Long: `Run a crawl session from the configured seeds. Progress is saved to the
output directory (and PostgreSQL when database_url is set); the summary
report is printed when the session ends. Ctrl-C ends the session early and
still writes the final snapshot and report.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := flags.apply(cmd, &cfg); err != nil {
				return err
			}
			log, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			return runCrawl(cmd, cfg, flags.dryRun, log)
		},
	}

	cmd.Flags().IntVar(&flags.maxURLs, "max-urls", 0, "maximum number of URLs to fetch")
	cmd.Flags().IntVar(&flags.maxDepth, "max-depth", 0, "maximum link depth from a seed")
	cmd.Flags().IntVar(&flags.workers, "workers", 0, "number of concurrent fetch workers")
	cmd.Flags().StringVar(&flags.output, "output", "", "output directory")
	cmd.Flags().StringSliceVar(&flags.seeds, "seed", nil, "seed URL, repeatable (replaces the profile seeds)")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "crawl without persisting anything")

	return cmd
}

// apply overrides cfg with the flags the user set and re-validates it.
func (f crawlFlags) apply(cmd *cobra.Command, cfg *config.Config) error {
	if cmd.Flags().Changed("max-urls") {
		cfg.MaxURLs = f.maxURLs
	}
	if cmd.Flags().Changed("max-depth") {
		cfg.MaxDepth = f.maxDepth
	}
	if cmd.Flags().Changed("workers") {
		cfg.Workers = f.workers
	}
	if f.output != "" {
		cfg.OutputDir = f.output
	}
	if len(f.seeds) > 0 {
		cfg.Seeds = f.seeds
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}
	return nil
}

func runCrawl(cmd *cobra.Command, cfg config.Config, dryRun bool, log logger.Interface) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	persister, closeFn, err := openPersister(ctx, cfg, dryRun)
	if err != nil {
		return err
	}
	defer closeFn()

	f := fetcher.New(fetcher.Config{
		UserAgents:     cfg.UserAgents,
		RequestTimeout: cfg.RequestTimeout,
		MaxRetries:     cfg.MaxRetries,
		RetryDelay:     cfg.RetryDelay,
		RespectRobots:  cfg.RespectRobots,
	}, fetcher.WithLogger(log.With("component", "fetcher")))

	session := crawler.NewSession(cfg, f, persister, log)
	rep, runErr := session.Run(ctx)
	if rep != nil {
		report.Render(cmd.OutOrStdout(), rep)
	}
	if runErr != nil {
		return fmt.Errorf("crawl session %s: %w", session.ID(), runErr)
	}
	return nil
}

func openPersister(ctx context.Context, cfg config.Config, dryRun bool) (storage.Persister, func(), error) {
	if dryRun {
		return storage.Discard{}, func() {}, nil
	}

	fs, err := storage.NewFileStore(cfg.OutputDir)
	if err != nil {
		return nil, nil, err
	}
	if cfg.DatabaseURL == "" {
		return fs, func() {}, nil
	}

	db, err := database.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	return storage.Multi{fs, db}, func() { _ = db.Close() }, nil
}
