package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rokuosan/docmirror/internal/assets"
	"github.com/rokuosan/docmirror/internal/browser"
	"github.com/rokuosan/docmirror/internal/config"
	"github.com/rokuosan/docmirror/internal/database"
	"github.com/rokuosan/docmirror/internal/frontier"
	"github.com/rokuosan/docmirror/internal/log"
	"github.com/rokuosan/docmirror/internal/pipeline"
	"github.com/rokuosan/docmirror/internal/writer"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl <url>",
		Short: "Mirror a documentation site into a local Markdown tree",
		Long: `Crawl renders a documentation website through a headless browser and writes
a local mirror of it.

Starting from the given URL, it follows same-origin links breadth-first,
extracts the main content of each page, converts it to Markdown, and writes
one file per page mirroring the site's URL paths. Images are downloaded once
into a shared assets directory; images wider than the configured ceiling get
explicit, proportionally scaled dimensions.

Examples:
  # Mirror a site into ./docs-mirror
  docmirror crawl https://docs.example.io/

  # Mirror into a specific directory with more parallel tabs
  docmirror crawl -o ./example-docs -b 8 https://docs.example.io/

  # Continue an interrupted run
  docmirror crawl --resume https://docs.example.io/

  # Structured JSON output instead of Markdown
  docmirror crawl --format json https://docs.example.io/

Configuration file (.docmirror) example:
  sites:
    docs.example.io:
      contentSelector: ".theme-doc-markdown"
      headers:
        Authorization: "Bearer token"
      ignorePatterns:
        - /changelog/
        - /v1/`,
		Args: cobra.ExactArgs(1),
		RunE: runCrawlCmd,
	}

	// Output flags
	cmd.Flags().StringP("output", "o", config.DefaultOutputDir,
		"Directory the mirror is written into (default: named after the site host)")
	cmd.Flags().StringP("format", "f", config.FormatMarkdown,
		"Output format: markdown, json, or both")

	// Crawl behavior flags
	cmd.Flags().IntP("max-pages", "p", config.DefaultMaxPages,
		"Maximum number of pages to fetch (0 = unlimited)")
	cmd.Flags().IntP("concurrency", "b", config.DefaultConcurrency,
		"Number of pages rendered in parallel")
	cmd.Flags().Duration("delay", config.DefaultDelay,
		"Pause between batches of fetches")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Per-page navigation deadline")
	cmd.Flags().String("user-agent", config.DefaultUserAgent,
		"User-Agent for the browser and asset downloads")

	// Asset flags
	cmd.Flags().Bool("download-assets", true,
		"Download referenced images into the assets directory")
	cmd.Flags().Int("max-image-width", config.DefaultMaxImageWidth,
		"Width ceiling for images in generated Markdown (0 = no scaling)")

	// Resume flags
	cmd.Flags().Bool("resume", false,
		"Continue an interrupted run from its saved frontier")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .docmirror in current or home directory)")

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := log.NewSecureLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, finishing current batch...")
		cancel()
	}()

	return runCrawl(ctx, cfg, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.StartURL = args[0]
	cfg.Verbose = getVerboseFlag(cmd)

	var err error

	cfg.OutputDir, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}
	// Without an explicit -o, mirror into a directory named after the host
	if !cmd.Flags().Changed("output") {
		if u, perr := url.Parse(cfg.StartURL); perr == nil && u.Host != "" {
			cfg.OutputDir = "./" + u.Host
		}
	}

	cfg.Format, err = cmd.Flags().GetString("format")
	if err != nil {
		return nil, err
	}

	cfg.MaxPages, err = cmd.Flags().GetInt("max-pages")
	if err != nil {
		return nil, err
	}

	cfg.Concurrency, err = cmd.Flags().GetInt("concurrency")
	if err != nil {
		return nil, err
	}

	cfg.Delay, err = cmd.Flags().GetDuration("delay")
	if err != nil {
		return nil, err
	}

	cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}

	cfg.UserAgent, err = cmd.Flags().GetString("user-agent")
	if err != nil {
		return nil, err
	}

	cfg.DownloadAssets, err = cmd.Flags().GetBool("download-assets")
	if err != nil {
		return nil, err
	}

	cfg.MaxImageWidth, err = cmd.Flags().GetInt("max-image-width")
	if err != nil {
		return nil, err
	}

	cfg.Resume, err = cmd.Flags().GetBool("resume")
	if err != nil {
		return nil, err
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// Load site-specific configurations from config file.
	// If user explicitly specified a config file path, error if not found.
	// If no path specified, silently use empty config if no file found.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		cfg.SiteConfigs, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	} else if explicitConfigPath {
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	} else {
		cfg.SiteConfigs = &config.File{
			Sites: make(map[string]config.SiteConfig),
		}
	}

	// Resume snapshots live in the XDG data directory
	cfg.DBDir = config.XDGDataDir()

	return cfg, nil
}

// runCrawl executes the crawl.
func runCrawl(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	origin, err := url.Parse(cfg.StartURL)
	if err != nil {
		return fmt.Errorf("invalid start URL %q: %w", cfg.StartURL, err)
	}

	// Apply site-specific configuration for the target host
	siteCfg := cfg.SiteConfigs.GetSiteConfig(origin.Host)
	maxPages := cfg.MaxPages
	if siteCfg.MaxPages > 0 {
		maxPages = siteCfg.MaxPages
	}

	f := frontier.New(origin, maxPages,
		frontier.WithIgnorePatterns(siteCfg.IgnorePatterns))
	seed, ok := f.Seed(cfg.StartURL)
	if !ok {
		return fmt.Errorf("start URL %q is not crawlable", cfg.StartURL)
	}

	logger.Info("crawl configured",
		"seed", seed,
		"output", cfg.OutputDir,
		"max_pages", maxPages,
		"concurrency", cfg.Concurrency,
		"format", cfg.Format,
	)

	// Open the crawl database for resume snapshots
	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open crawl database: %w", err)
	}
	defer db.Close()

	// Assemble output writers
	w, pathSuffix, err := buildWriter(cfg)
	if err != nil {
		return err
	}

	// Asset store, shared across all pages of the run
	var store *assets.Store
	if cfg.DownloadAssets {
		assetDir := filepath.Join(cfg.OutputDir, writer.AssetsDirName)
		storeOpts := []assets.StoreOption{assets.WithUserAgent(cfg.UserAgent)}
		if len(siteCfg.Headers) > 0 {
			storeOpts = append(storeOpts, assets.WithHeaders(siteCfg.Headers))
		}
		store = assets.NewStore(assetDir, logger, storeOpts...)
	}

	// Restore a previous run's frontier when resuming
	if cfg.Resume {
		snap, err := db.LoadSnapshot(ctx, seed)
		if err != nil {
			return fmt.Errorf("failed to load resume snapshot: %w", err)
		}
		if snap == nil {
			logger.Warn("no snapshot to resume, starting fresh", "seed", seed)
		} else {
			f.Restore(snap.Visited, snap.Pending)
			if store != nil {
				store.Restore(snap.Assets)
			}
			logger.Info("resumed from snapshot",
				"visited", len(snap.Visited),
				"pending", len(snap.Pending),
				"assets", len(snap.Assets),
			)
		}
	}

	// Headless browser, shared by all tabs
	b := browser.New(
		browser.WithTimeout(cfg.Timeout),
		browser.WithUserAgent(cfg.UserAgent),
		browser.WithLogger(logger),
	)
	defer b.Close()

	crawlerOpts := []pipeline.CrawlerOption{
		pipeline.WithConcurrency(cfg.Concurrency),
		pipeline.WithDelay(cfg.Delay),
		pipeline.WithMaxImageWidth(cfg.MaxImageWidth),
		pipeline.WithPathSuffix(pathSuffix),
		pipeline.WithDatabase(db),
		pipeline.WithLogger(logger),
	}
	if store != nil {
		crawlerOpts = append(crawlerOpts, pipeline.WithAssetStore(store))
	}
	if siteCfg.ContentSelector != "" {
		crawlerOpts = append(crawlerOpts, pipeline.WithContentSelector(siteCfg.ContentSelector))
	}

	crawler := pipeline.NewCrawler(f, b, w, cfg.OutputDir, crawlerOpts...)

	fmt.Printf("Mirroring %s into %s...\n", seed, cfg.OutputDir)
	startTime := time.Now()

	summary, err := crawler.Run(ctx, seed)
	if err != nil {
		return fmt.Errorf("failed to write crawl summary: %w", err)
	}

	elapsed := time.Since(startTime)
	fmt.Printf("\nMirrored %d pages (%d errors, %d assets) in %s\n",
		summary.PagesScraped, summary.Errors, summary.AssetsDownloaded,
		elapsed.Round(time.Millisecond))
	if summary.Interrupted {
		fmt.Println("Run was interrupted; rerun with --resume to continue.")
	}

	return nil
}

// buildWriter assembles the writer stack for the configured format and
// returns it with the file suffix page paths are computed against.
func buildWriter(cfg *config.Config) (writer.Writer, string, error) {
	switch cfg.Format {
	case config.FormatMarkdown:
		return writer.NewMarkdownWriter(cfg.OutputDir), ".md", nil
	case config.FormatJSON:
		return writer.NewJSONWriter(cfg.OutputDir), ".json", nil
	case config.FormatBoth:
		// The Markdown file is the primary representation: asset
		// references and summary links point at the .md tree.
		return writer.NewMultiWriter(
			writer.NewMarkdownWriter(cfg.OutputDir),
			writer.NewJSONWriter(cfg.OutputDir),
		), ".md", nil
	default:
		return nil, "", fmt.Errorf("unknown format %q: %w", cfg.Format, config.ErrInvalidFormat)
	}
}
