package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/brogergvhs/noveld/internal/chapters"
	"github.com/brogergvhs/noveld/internal/config"
	"github.com/brogergvhs/noveld/internal/downloader"
	"github.com/brogergvhs/noveld/internal/providers/wap"
	"github.com/brogergvhs/noveld/internal/ui"
	"github.com/brogergvhs/noveld/internal/util"

	"github.com/spf13/cobra"
)

var (
	flagOutput      string
	flagWorkers     int
	flagDryRun      bool
	flagKeepPartial bool
)

func init() {
	downloadCmd := &cobra.Command{
		Use:   "download",
		Short: "Download every chapter of a novel into one text file. Uses the defaults from the selected config, overwritten by CLI flags",
		RunE:  runDownload,
	}

	addSourceFlags(downloadCmd)
	downloadCmd.Flags().StringVar(&flagOutput, "output", "", "output folder for the text file")
	downloadCmd.Flags().IntVar(&flagWorkers, "workers", 0, "parallel page fetches")
	downloadCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "list the chapter index, don’t download")
	downloadCmd.Flags().BoolVar(&flagKeepPartial, "keep-partial", false, "keep unfinished output files on interrupt")

	rootCmd.AddCommand(downloadCmd)
}

func runDownload(cmd *cobra.Command, _ []string) error {
	opts := sourceOptions()
	opts.Output = flagOutput
	opts.Workers = flagWorkers
	opts.KeepPartial = flagKeepPartial

	cfg, usedPath, err := config.LoadMerged(opts)
	if err != nil {
		return err
	}

	logSvc := ui.NewLogger(cfg.Debug)
	if usedPath != "" {
		fmt.Printf("Config file: %s\n", usedPath)
	}

	if err := os.MkdirAll(cfg.Output, 0755); err != nil {
		return fmt.Errorf("cannot create output folder: %w", err)
	}

	fmt.Println("Full config:")
	cfg.Print()
	fmt.Println()

	ctx, cancel := util.SetupInterruptHandler(context.Background(), cfg.Output, cfg.KeepPartial)
	defer cancel()

	stats := &ui.Stats{}
	fetcher, err := newFetcher(cfg, logSvc, stats)
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
	logSvc.Infof("Chapter index: %s\n", book.IndexURL)

	if flagDryRun {
		return listIndex(ctx, fetcher, parser, book.IndexURL)
	}

	sanitizer, err := chapters.NewSanitizer(cfg.Filters)
	if err != nil {
		return err
	}

	pm := ui.NewProgressManager(os.Stdout)
	name := book.Title
	if name == "" {
		name = "novel"
	}

	dl, err := downloader.New(downloader.Options{
		Parser:    parser,
		Fetcher:   fetcher,
		Sanitizer: sanitizer,
		Workers:   cfg.Workers,
		Log:       logSvc,
		Stats:     stats,
		Progress:  pm.Register(name),
	})
	if err != nil {
		return err
	}

	start := time.Now()
	res, err := dl.Run(ctx, book.IndexURL)
	pm.Close()

	if err != nil {
		reportFailure(logSvc, err)
		return err
	}

	out := filepath.Join(cfg.Output, chapters.FileName(book.Title))
	if err := util.WriteTextFile(out, res.Document); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}

	fmt.Println()
	fmt.Println("Download Summary:")
	fmt.Printf("Chapters: %d\n", res.Chapters)
	fmt.Printf("Pages:    %d\n", res.Pages)
	fmt.Printf("Warnings: %d\n", len(res.Warnings))
	fmt.Printf("Data:     %s\n", util.Human(stats.TotalBytes.Load()))
	fmt.Printf("Time:     %s\n", time.Since(start).Round(time.Second))
	fmt.Printf("Output:   %s\n", out)
	fmt.Println("\nAll done.")

	return nil
}

func reportFailure(log *ui.Logger, err error) {
	var rerr *downloader.RunError
	if errors.As(err, &rerr) {
		if len(rerr.Missing) > 0 {
			log.Errorf("Missing chapters: %v\n", rerr.Missing)
		}
		for _, e := range rerr.Errors {
			log.Errorf("  %v\n", e)
		}
		return
	}

	var defect *downloader.DefectError
	if errors.As(err, &defect) && !log.Debug {
		log.Errorf("rerun with --debug for a stack trace\n")
	}
}
