package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmaher/rentleads/internal/config"
	"github.com/dmaher/rentleads/internal/engine"
	"github.com/dmaher/rentleads/internal/export"
	"github.com/dmaher/rentleads/internal/extractor"
	"github.com/dmaher/rentleads/internal/fetcher"
	"github.com/dmaher/rentleads/internal/store"
	"github.com/dmaher/rentleads/internal/types"
)

var (
	cfgFile      string
	verbose      bool
	site         string
	city         string
	state        string
	maxPages     int
	delay        string
	targetPhones int
	fetcherType  string
	outputPath   string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "rentleads",
		Short: "rentleads — rental listing contact extractor",
		Long: `rentleads crawls rental listing sites and builds a deduplicated,
phone-keyed database of landlord and property manager contacts.

Features:
  • Phone, address, and contact name extraction with layered fallbacks
  • Phone-keyed dedup across listings (multi-unit landlords roll up)
  • Kill-and-resume crawls: progress persists per listing
  • Incremental CSV export, always complete on disk
  • Headless-browser fetching with stealth for bot-hostile sites
  • Combine exports from multiple sites into one lead sheet`,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(scrapeCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(combineCmd())
	rootCmd.AddCommand(statsCmd())
	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(configCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// scrapeCmd creates the "scrape" subcommand.
func scrapeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Crawl a listing site and collect leads",
		Long: `Crawl search result pages for the configured city, visit every listing,
and store extracted contacts. Interrupting with Ctrl-C is safe: the next
run picks up where this one stopped.`,
		RunE: runScrape,
	}

	cmd.Flags().StringVarP(&site, "site", "s", "", "site to crawl: apartments or zillow")
	cmd.Flags().StringVar(&city, "city", "", "city to search")
	cmd.Flags().StringVar(&state, "state", "", "two-letter state code")
	cmd.Flags().IntVarP(&maxPages, "max-pages", "p", 0, "maximum search pages to walk (0 = config default)")
	cmd.Flags().StringVar(&delay, "delay", "", "politeness delay between requests (e.g. 2s)")
	cmd.Flags().IntVarP(&targetPhones, "target", "t", -1, "stop after this many unique phones (-1 = config default)")
	cmd.Flags().StringVarP(&fetcherType, "fetcher", "f", "", "fetcher type: http or browser")

	return cmd
}

// runScrape executes the scrape command.
func runScrape(cmd *cobra.Command, args []string) error {
	logger := setupLogger()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyCLIOverrides(cfg)
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	profile, err := extractor.ProfileFor(cfg.Crawl.Site)
	if err != nil {
		return err
	}

	for _, dir := range []string{filepath.Dir(cfg.StorePath()), filepath.Dir(cfg.ExportPath())} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create data directory: %w", err)
		}
	}

	st, err := store.Open(cfg.StorePath(), logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	f, err := fetcher.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("create fetcher: %w", err)
	}
	defer f.Close()

	ex := extractor.New(profile, logger)
	eng := engine.New(cfg, f, ex, st, logger)

	// Handle graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received signal, shutting down...", "signal", sig)
		eng.Stop()
		cancel()
	}()

	start := time.Now()
	runErr := eng.Run(ctx)

	// A final export covers the case where the last incremental write failed.
	if err := eng.ExportFinal(); err != nil {
		logger.Error("final export failed", "error", err)
	}

	if runErr != nil && !errors.Is(runErr, types.ErrCrawlStopped) {
		return runErr
	}

	elapsed := time.Since(start)
	stats := eng.Stats().Snapshot()
	phones, _ := st.UniquePhonesCount()

	fmt.Printf("\nCrawl %s in %s\n", doneWord(runErr), elapsed.Round(time.Millisecond))
	fmt.Printf("   Search pages: %v\n", stats["search_pages"])
	fmt.Printf("   Listings:     %v fetched, %v skipped (already crawled), %v failed\n",
		stats["listings_fetched"], stats["listings_skipped"], stats["fetch_failures"])
	fmt.Printf("   Leads:        %d unique phones, %v addresses\n", phones, stats["addresses_added"])
	fmt.Printf("   Output:       %s\n", cfg.ExportPath())
	if errors.Is(runErr, types.ErrCrawlStopped) {
		fmt.Println("\nInterrupted. Run the same command again to resume.")
	}
	return nil
}

func doneWord(err error) string {
	if errors.Is(err, types.ErrCrawlStopped) {
		return "interrupted"
	}
	return "complete"
}

// exportCmd creates the "export" subcommand.
func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the current lead database to CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := setupLogger()
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			applyCLIOverrides(cfg)

			st, err := store.Open(cfg.StorePath(), logger)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			records, err := st.AllPhones()
			if err != nil {
				return err
			}
			out := cfg.ExportPath()
			if outputPath != "" {
				out = outputPath
			}
			if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
				return fmt.Errorf("create output directory: %w", err)
			}
			if err := export.WriteCSV(out, records); err != nil {
				return err
			}
			fmt.Printf("Exported %d leads to %s\n", len(records), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&site, "site", "s", "", "site database to export")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "output CSV path (default from config)")
	return cmd
}

// combineCmd creates the "combine" subcommand.
func combineCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "combine [apartments.csv] [zillow.csv]",
		Short: "Merge per-site exports into one lead sheet",
		Long: `Merge two per-site CSV exports into a single deduplicated sheet.
Leads found on both sites are tagged "both"; their address sets are
unioned and unit counts recomputed.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			apartments, err := export.ReadCSV(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			zillow, err := export.ReadCSV(args[1])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[1], err)
			}

			combined := export.Combine(apartments, zillow)
			out := outputPath
			if out == "" {
				out = "./data/combined_leads.csv"
			}
			if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
				return fmt.Errorf("create output directory: %w", err)
			}
			if err := export.WriteCombinedCSV(out, combined); err != nil {
				return err
			}

			both := 0
			for _, rec := range combined {
				if rec.Source == types.SourceBoth {
					both++
				}
			}
			fmt.Printf("Combined %d + %d leads into %d unique (%d on both sites)\n",
				len(apartments), len(zillow), len(combined), both)
			fmt.Printf("Output: %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "combined CSV path")
	return cmd
}

// statsCmd creates the "stats" subcommand.
func statsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show lead counts for the configured site database",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := setupLogger()
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			applyCLIOverrides(cfg)

			st, err := store.Open(cfg.StorePath(), logger)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			records, err := st.AllPhones()
			if err != nil {
				return err
			}

			addresses := 0
			multiUnit := 0
			for _, rec := range records {
				addresses += rec.Units
				if rec.Units > 1 {
					multiUnit++
				}
			}
			fmt.Printf("Database: %s\n", cfg.StorePath())
			fmt.Printf("  Unique phones:        %d\n", len(records))
			fmt.Printf("  Addresses:            %d\n", addresses)
			fmt.Printf("  Multi-unit landlords: %d\n", multiUnit)
			return nil
		},
	}
	cmd.Flags().StringVarP(&site, "site", "s", "", "site database to inspect")
	return cmd
}

// versionCmd creates the "version" subcommand.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("rentleads %s\n", config.Version)
		},
	}
}

// configCmd creates the "config" subcommand for inspecting configuration.
func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			applyCLIOverrides(cfg)
			fmt.Printf("Crawl:\n")
			fmt.Printf("  Site:              %s\n", cfg.Crawl.Site)
			fmt.Printf("  City:              %s, %s\n", cfg.Crawl.City, cfg.Crawl.State)
			fmt.Printf("  Max Pages:         %d\n", cfg.Crawl.MaxPages)
			fmt.Printf("  Politeness Delay:  %s\n", cfg.Crawl.PolitenessDelay)
			fmt.Printf("  Max Retries:       %d\n", cfg.Crawl.MaxRetries)
			fmt.Printf("  Target Phones:     %d\n", cfg.Crawl.TargetPhones)
			fmt.Printf("\nFetcher:\n")
			fmt.Printf("  Type:              %s\n", cfg.Fetcher.Type)
			fmt.Printf("  Request Timeout:   %s\n", cfg.Fetcher.RequestTimeout)
			fmt.Printf("  Stealth:           %v\n", cfg.Fetcher.Stealth)
			fmt.Printf("  User Agents:       %d configured\n", len(cfg.Fetcher.UserAgents))
			fmt.Printf("\nPaths:\n")
			fmt.Printf("  Store:             %s\n", cfg.StorePath())
			fmt.Printf("  Export:            %s\n", cfg.ExportPath())
			return nil
		},
	}
}

// setupLogger creates a structured logger.
func setupLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return slog.New(handler)
}

// applyCLIOverrides applies command-line flag values to the config.
func applyCLIOverrides(cfg *config.Config) {
	if site != "" {
		cfg.Crawl.Site = site
	}
	if city != "" {
		cfg.Crawl.City = city
	}
	if state != "" {
		cfg.Crawl.State = state
	}
	if maxPages > 0 {
		cfg.Crawl.MaxPages = maxPages
	}
	if delay != "" {
		if d, err := time.ParseDuration(delay); err == nil {
			cfg.Crawl.PolitenessDelay = d
		}
	}
	if targetPhones >= 0 {
		cfg.Crawl.TargetPhones = targetPhones
	}
	if fetcherType != "" {
		cfg.Fetcher.Type = fetcherType
	}
}
