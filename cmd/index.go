package cmd

import (
	"context"

	"github.com/brogergvhs/noveld/internal/config"
	"github.com/brogergvhs/noveld/internal/providers/wap"
	"github.com/brogergvhs/noveld/internal/ui"
	"github.com/brogergvhs/noveld/internal/util"

	"github.com/spf13/cobra"
)

func init() {
	indexCmd := &cobra.Command{
		Use:   "index",
		Short: "List the chapter index of a novel without downloading chapters",
		RunE:  runIndex,
	}

	addSourceFlags(indexCmd)
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, _ []string) error {
	cfg, _, err := config.LoadMerged(sourceOptions())
	if err != nil {
		return err
	}

	logSvc := ui.NewLogger(cfg.Debug)

	ctx, cancel := util.SetupInterruptHandler(context.Background(), cfg.Output, true)
	defer cancel()

	fetcher, err := newFetcher(cfg, logSvc, &ui.Stats{})
	if err != nil {
		return err
	}

	parser := wap.New()
	book, err := resolveBook(ctx, fetcher, parser, cfg.DefaultURL, flagIndex)
	if err != nil {
		return err
	}
	if book.Title != "" {
		logSvc.Infof("Book: %s\n", book.Title)
	}

	return listIndex(ctx, fetcher, parser, book.IndexURL)
}
