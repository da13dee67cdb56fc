package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// These values are chosen for typical documentation sites: mostly static
// pages behind a JavaScript renderer, served by hosts that tolerate a
// handful of concurrent browser tabs.
const (
	// DefaultMaxPages is the maximum number of pages mirrored from one site.
	// Documentation sites with auto-generated API references can run into
	// thousands of pages; 100 covers most hand-written docs while keeping a
	// first run short. Override with the --max-pages CLI flag.
	DefaultMaxPages = 100

	// DefaultConcurrency is the number of browser tabs fetching pages at once.
	// Each tab is a full Chromium renderer, so this is bounded by memory more
	// than by network. Four tabs keep a laptop responsive; raise it on larger
	// machines via --concurrency.
	DefaultConcurrency = 4

	// DefaultDelay is the pause between batches of page fetches.
	// This is a politeness setting: documentation hosts are often small
	// static servers or rate-limited CDNs. 500ms is enough to stay under
	// typical rate limits without noticeably slowing the mirror.
	DefaultDelay = 500 * time.Millisecond

	// DefaultTimeout is the per-page deadline covering navigation, rendering,
	// and DOM evaluation. Heavy single-page-app docs can take 10-20 seconds
	// to hydrate; 30 seconds leaves headroom without hanging the run on a
	// dead page.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxImageWidth is the width ceiling, in pixels, applied to images
	// referenced from generated Markdown. Images wider than this get explicit
	// scaled dimensions so they fit typical documentation page layouts.
	// Height is scaled proportionally. Zero disables scaling.
	DefaultMaxImageWidth = 800

	// DefaultOutputDir is where mirrored Markdown and assets are written
	// when --output is not given.
	DefaultOutputDir = "./docs-mirror"

	// DefaultUserAgent identifies docmirror in HTTP requests made outside the
	// browser, such as asset downloads. A descriptive User-Agent lets site
	// operators identify mirror traffic in their logs.
	DefaultUserAgent = "docmirror/1.0 (+https://github.com/rokuosan/docmirror)"

	// AppName is the application name used for XDG directory paths.
	AppName = "docmirror"
)

// Output format names accepted by the --format flag.
const (
	// FormatMarkdown writes one Markdown file per page plus downloaded assets.
	FormatMarkdown = "markdown"

	// FormatJSON writes one JSON document per page with the structured
	// extraction result alongside the rendered Markdown.
	FormatJSON = "json"

	// FormatBoth writes both representations for every page.
	FormatBoth = "both"
)

// Config holds all configuration options for docmirror.
// This struct is designed to be populated from CLI flags and passed through
// the application via dependency injection rather than global state.
//
// Design decision: We use a single flat struct instead of nested structs
// (e.g., CrawlConfig, OutputConfig) for simplicity. The number of options
// is manageable, and nesting would add complexity without significant benefit.
// If the configuration grows significantly, consider refactoring into sub-structs.
type Config struct {
	// StartURL is the seed page of the mirror. Its origin (scheme and host)
	// defines the crawl boundary: links pointing anywhere else are ignored.
	StartURL string

	// OutputDir is the directory the mirror is written into. It is created,
	// including parents, if it does not exist.
	OutputDir string

	// MaxPages is the maximum number of pages to fetch in one run.
	// This prevents runaway crawling on auto-generated reference trees.
	// A value of 0 means unlimited.
	MaxPages int

	// Concurrency is the number of pages rendered in parallel.
	// Each unit of concurrency is a browser tab sharing one Chromium process.
	Concurrency int

	// Delay is the pause inserted between batches of fetches.
	// Lower values may trigger rate limiting on small documentation hosts.
	Delay time.Duration

	// Timeout is the per-page deadline for navigation and DOM evaluation.
	// Pages exceeding it are recorded as errors and skipped, not retried.
	Timeout time.Duration

	// DownloadAssets controls whether images referenced by pages are
	// downloaded into the output directory. When false, Markdown keeps the
	// original remote URLs.
	DownloadAssets bool

	// MaxImageWidth is the width ceiling applied to images in generated
	// Markdown. Wider images get explicit, proportionally scaled dimensions.
	// Zero disables scaling.
	MaxImageWidth int

	// Format selects the output representation: FormatMarkdown, FormatJSON,
	// or FormatBoth.
	Format string

	// Resume continues an interrupted run from the frontier snapshot stored
	// in the crawl database instead of starting from StartURL.
	Resume bool

	// DBDir is the directory holding the SQLite crawl database used for
	// resume snapshots and the asset ledger. Defaults to the XDG data
	// directory (~/.local/share/docmirror on Linux).
	DBDir string

	// UserAgent is the User-Agent header for asset downloads and the
	// browser's navigator.userAgent override.
	UserAgent string

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only info, warnings and errors are logged.
	Verbose bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches for .docmirror in the current directory
	// and then in the user's home directory.
	ConfigFilePath string

	// SiteConfigs holds site-specific configurations loaded from the config
	// file. Populated by LoadConfigFile and consulted per origin.
	SiteConfigs *File
}

// NewConfig creates a new Config with default values.
// All fields are set to safe, sensible defaults that work for most use cases.
// Users can override specific values after creation.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero (e.g., timeout, batch size).
// This also serves as documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		OutputDir:      DefaultOutputDir,
		MaxPages:       DefaultMaxPages,
		Concurrency:    DefaultConcurrency,
		Delay:          DefaultDelay,
		Timeout:        DefaultTimeout,
		DownloadAssets: true,
		MaxImageWidth:  DefaultMaxImageWidth,
		Format:         FormatMarkdown,
		UserAgent:      DefaultUserAgent,
	}
}

// XDGDataDir returns the XDG data directory for docmirror.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.local/share/docmirror
// On macOS: ~/Library/Application Support/docmirror
// On Windows: %LOCALAPPDATA%\docmirror
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for docmirror.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.config/docmirror
// On macOS: ~/Library/Application Support/docmirror
// On Windows: %APPDATA%\docmirror
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns a specific error describing what is invalid.
//
// Design decision: We validate at the config level rather than at each
// point of use to fail fast and provide clear error messages upfront.
// This is called once after CLI parsing, before the browser starts.
//
// We chose to return the first error found rather than collecting all errors
// because fixing one error often makes others irrelevant.
func (c *Config) Validate() error {
	// A seed URL is the one mandatory input
	if c.StartURL == "" {
		return ErrNoStartURL
	}

	// Timeout must be positive; zero timeout would fail every navigation
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	// Concurrency must be positive; zero would mean no fetching
	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}

	// MaxPages must be non-negative; zero means unlimited
	if c.MaxPages < 0 {
		return ErrInvalidMaxPages
	}

	// Delay must be non-negative
	if c.Delay < 0 {
		return ErrInvalidDelay
	}

	// MaxImageWidth must be non-negative; zero disables scaling
	if c.MaxImageWidth < 0 {
		return ErrInvalidMaxImageWidth
	}

	switch c.Format {
	case FormatMarkdown, FormatJSON, FormatBoth:
	default:
		return ErrInvalidFormat
	}

	return nil
}
