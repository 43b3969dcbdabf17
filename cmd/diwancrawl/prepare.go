package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/IshaanNene/diwancrawl/internal/config"
	"github.com/IshaanNene/diwancrawl/internal/corpus"
)

// prepareCmd creates the "prepare" subcommand.
func prepareCmd() *cobra.Command {
	var (
		input    string
		output   string
		valRatio float64
		seed     uint64
	)

	cmd := &cobra.Command{
		Use:   "prepare",
		Short: "Build train/val JSONL from a verse table",
		Long: `Load a verse table (CSV with Arabic headers), keep rows with a valid meter and
both hemistichs, clean the text, group verses into poems and write a seeded
train/validation split as JSONL.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("input") {
				cfg.Prepare.InputPath = input
			}
			if flags.Changed("output") {
				cfg.Prepare.OutputDir = output
			}
			if flags.Changed("val-ratio") {
				cfg.Prepare.ValidationRatio = valRatio
			}
			if flags.Changed("seed") {
				cfg.Prepare.Seed = seed
			}

			if err := config.Validate(cfg); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}

			logger, closeLog, err := setupLogger(cfg.Logging)
			if err != nil {
				return err
			}
			defer closeLog()

			ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()

			summary, err := corpus.NewPreparer(cfg.Prepare, logger).Run(ctx)
			if err != nil {
				return fmt.Errorf("prepare: %w", err)
			}

			fmt.Printf("\n✅ Corpus ready\n")
			fmt.Printf("   Verses:  %d loaded, %d kept\n", summary.Loaded, summary.Kept)
			fmt.Printf("   Poems:   %d\n", summary.Poems)
			fmt.Printf("   Split:   %d train, %d val\n", summary.Train, summary.Val)
			fmt.Printf("   Output:  %s, %s\n",
				filepath.Join(cfg.Prepare.OutputDir, corpus.TrainFile),
				filepath.Join(cfg.Prepare.OutputDir, corpus.ValFile))
			return nil
		},
	}

	defaults := config.DefaultConfig().Prepare
	cmd.Flags().StringVarP(&input, "input", "i", defaults.InputPath, "verse table CSV")
	cmd.Flags().StringVarP(&output, "output", "o", defaults.OutputDir, "output directory")
	cmd.Flags().Float64Var(&valRatio, "val-ratio", defaults.ValidationRatio, "share of poems held out for validation")
	cmd.Flags().Uint64Var(&seed, "seed", defaults.Seed, "shuffle seed")

	return cmd
}

// exportCmd creates the "export" subcommand.
func exportCmd() *cobra.Command {
	var (
		input  string
		output string
		force  bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Flatten crawled poems into a verse table",
		Long: `Walk the crawl output tree and write one CSV row per verse, using the same
columns prepare reads. The default output is <export.output_path>. An existing
file is left alone unless --force is given, and it is only replaced after the
whole tree has been read.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			root := cfg.Crawl.OutputDir
			if cmd.Flags().Changed("input") {
				root = input
			}
			if cmd.Flags().Changed("output") {
				cfg.Export.OutputPath = output
			}
			out := cfg.Export.OutputPath

			if err := config.Validate(cfg); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}

			logger, closeLog, err := setupLogger(cfg.Logging)
			if err != nil {
				return err
			}
			defer closeLog()

			ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()

			summary, err := corpus.Export(ctx, root, out, force, logger)
			if err != nil {
				return fmt.Errorf("export: %w", err)
			}

			fmt.Printf("\n✅ Exported %d verses from %d poems (%d skipped) to %s\n",
				summary.Rows, summary.Files, summary.Skipped, out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "crawl output root")
	cmd.Flags().StringVarP(&output, "output", "o", "", "verse table CSV to write")
	cmd.Flags().BoolVar(&force, "force", false, "replace an existing output file")

	return cmd
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
