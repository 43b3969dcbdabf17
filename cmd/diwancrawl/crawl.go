package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/IshaanNene/diwancrawl/internal/config"
	"github.com/IshaanNene/diwancrawl/internal/engine"
	"github.com/IshaanNene/diwancrawl/internal/fetcher"
	"github.com/IshaanNene/diwancrawl/internal/observability"
	"github.com/IshaanNene/diwancrawl/internal/storage"
)

// crawlCmd creates the "crawl" subcommand.
func crawlCmd() *cobra.Command {
	var (
		outputDir string
		baseURL   string
		poemDelay time.Duration
		poetDelay time.Duration
		eras      []string
	)

	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Crawl every era, poet and poem",
		Long: `Walk the site era by era, poet by poet and poem by poem, saving each poem as
<output>/<era>/<poet>/<title>.json. Poems already on disk are skipped, so an
interrupted crawl resumes where it stopped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("output") {
				cfg.Crawl.OutputDir = outputDir
			}
			if flags.Changed("base-url") {
				cfg.Site.BaseURL = baseURL
			}
			if flags.Changed("poem-delay") {
				cfg.Crawl.PoemDelay = poemDelay
			}
			if flags.Changed("poet-delay") {
				cfg.Crawl.PoetDelay = poetDelay
			}
			if flags.Changed("era") {
				cfg.Crawl.Eras = eras
			}

			if err := config.Validate(cfg); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}
			return runCrawl(commandContext(cmd), cfg)
		},
	}

	defaults := config.DefaultConfig()
	cmd.Flags().StringVarP(&outputDir, "output", "o", defaults.Crawl.OutputDir, "root directory for poem files")
	cmd.Flags().StringVar(&baseURL, "base-url", defaults.Site.BaseURL, "site root URL")
	cmd.Flags().DurationVar(&poemDelay, "poem-delay", defaults.Crawl.PoemDelay, "pause after each fetched poem")
	cmd.Flags().DurationVar(&poetDelay, "poet-delay", defaults.Crawl.PoetDelay, "pause after each poet")
	cmd.Flags().StringArrayVar(&eras, "era", nil, "only crawl this era (repeatable)")

	return cmd
}

// runCrawl wires the fetcher, storage and metrics into a crawler and runs it
// until it finishes or the process is interrupted.
func runCrawl(parent context.Context, cfg *config.Config) error {
	logger, closeLog, err := setupLogger(cfg.Logging)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := observability.NewMetrics(logger)
	if cfg.Metrics.Enabled {
		metrics.StartServer(cfg.Metrics.Port, cfg.Metrics.Path)
	}

	store, err := buildStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("storage close error", "error", err)
		}
	}()

	httpFetcher := fetcher.NewHTTPFetcher(cfg, metrics, logger)
	defer httpFetcher.Close()

	crawler, err := engine.NewCrawler(cfg, httpFetcher, store, metrics, logger)
	if err != nil {
		return err
	}

	start := time.Now()
	err = crawler.Run(ctx)
	elapsed := time.Since(start)
	stats := metrics.Snapshot()

	switch {
	case errors.Is(err, context.Canceled):
		logger.Info("crawl interrupted, run again to resume", "elapsed", elapsed.Round(time.Millisecond).String())
	case err != nil:
		return fmt.Errorf("crawl: %w", err)
	}

	fmt.Printf("\n✅ Crawl finished in %s\n", elapsed.Round(time.Millisecond))
	fmt.Printf("   Eras:      %v found\n", stats["eras_found"])
	fmt.Printf("   Poets:     %v found, %v done\n", stats["poets_found"], stats["poets_done"])
	fmt.Printf("   Poems:     %v saved, %v skipped, %v empty, %v failed\n",
		stats["poems_saved"], stats["poems_skipped"], stats["poems_empty"], stats["poems_failed"])
	fmt.Printf("   Requests:  %v sent, %v failed, %v bytes\n",
		stats["requests_total"], stats["requests_failed"], stats["bytes_downloaded"])
	fmt.Printf("   Output:    %s\n", cfg.Crawl.OutputDir)

	return nil
}

// buildStorage returns the poem file store, fanned out to MongoDB when the
// mirror is enabled.
func buildStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.Storage, error) {
	files := storage.NewFileStorage(cfg.Crawl.OutputDir, logger)
	if !cfg.Storage.Mongo.Enabled {
		return files, nil
	}

	mc := cfg.Storage.Mongo
	mirror, err := storage.NewMongoStorage(ctx, mc.URI, mc.Database, mc.Collection, logger)
	if err != nil {
		return nil, fmt.Errorf("create mongodb mirror: %w", err)
	}
	return storage.NewMultiStorage(files, []storage.Storage{mirror}, logger), nil
}
