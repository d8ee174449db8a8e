package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// These values match the portal's observed behavior where applicable.
const (
	// DefaultSearchURL is the portal's project-announcement search page.
	DefaultSearchURL = "https://zfcg.czt.fujian.gov.cn/maincms-web/xmgg?titleType=xmgg"

	// DefaultUnitName is the procurement-unit criterion. "医院" (hospital)
	// matches the announcements this tool was built to collect.
	DefaultUnitName = "医院"

	// DefaultFlushEvery of 10 pages bounds data loss to at most ten pages
	// of records when a long crawl dies. More frequent flushing would
	// add file churn without meaningfully improving safety.
	DefaultFlushEvery = 10

	// DefaultSettleWait gives the portal's JavaScript time to render after
	// a navigation or query. The site re-renders its table client-side, so
	// acting immediately reads stale markup.
	DefaultSettleWait = 2 * time.Second

	// DefaultDetailDelay is the politeness pause between detail-page
	// visits. 1 second is conservative and keeps the session from being
	// rate limited mid-crawl.
	DefaultDetailDelay = 1 * time.Second

	// DefaultTableWait bounds how long to wait for the result table to
	// populate after a query or page transition.
	DefaultTableWait = 10 * time.Second

	// DefaultNavTimeout bounds each browser navigation.
	DefaultNavTimeout = 30 * time.Second

	// DefaultUserAgent is presented by the browser session. A desktop
	// Chrome string matches what the portal expects from real visitors.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	// AppName is the application name used for XDG directory paths.
	AppName = "zfcgcrawl"
)

// Config holds all configuration options for the crawler.
// This struct is designed to be populated from CLI flags and the optional
// config file, then passed through the application via dependency
// injection rather than global state.
//
// Design decision: We use a single flat struct instead of nested structs
// (e.g., CrawlConfig, ReportConfig) for simplicity. The number of options
// is manageable, and nesting would add complexity without significant benefit.
type Config struct {
	// SearchURL is the search page the crawl starts from.
	SearchURL string

	// UnitName is the procurement-unit text the portal is queried with.
	UnitName string

	// MaxPages caps how many result pages are traversed.
	// 0 means every page the site reports.
	MaxPages int

	// ExtractDetails controls whether each resolved row's detail document
	// is visited and extracted. Disabling it roughly halves crawl time.
	ExtractDetails bool

	// Headless runs the browser without a visible window. The CAPTCHA
	// must be read by the operator, so headless runs only make sense when
	// the gate is known to be pre-authorized for the session.
	Headless bool

	// OutputDir is where JSON/CSV outputs and the database are written.
	// Defaults to the XDG data directory.
	OutputDir string

	// FlushEvery is the checkpoint interval: accumulated records are
	// flushed after every FlushEvery pages.
	FlushEvery int

	// CaptchaRetries bounds CAPTCHA attempts. 0 means retry until the
	// operator aborts.
	CaptchaRetries int

	// NavTimeout bounds each browser navigation.
	NavTimeout time.Duration

	// TableWait bounds waits for the result table to populate.
	TableWait time.Duration

	// SettleWait is the render pause after navigations and queries.
	SettleWait time.Duration

	// DetailDelay is the politeness pause between detail-page visits.
	DetailDelay time.Duration

	// UserAgent is presented by the browser session.
	UserAgent string

	// Verbose enables detailed log output using slog.LevelDebug.
	Verbose bool

	// SaveToDB enables persisting records to the SQLite database in
	// OutputDir alongside the file outputs.
	SaveToDB bool

	// JSONReport enables JSON report output instead of human-readable format.
	// Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown report output instead of human-readable format.
	// Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the report.
	// When set, the report is written to this file instead of stdout.
	ReportFile string

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches for .zfcgcrawl in the current directory
	// and then in the user's home directory.
	ConfigFilePath string
}

// NewConfig creates a new Config with default values.
// All fields are set to safe, sensible defaults that work for most use cases.
// Users can override specific values after creation.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero (e.g., waits, the flush
// interval). This also serves as documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		SearchURL:      DefaultSearchURL,
		UnitName:       DefaultUnitName,
		ExtractDetails: true,
		OutputDir:      XDGDataDir(),
		FlushEvery:     DefaultFlushEvery,
		NavTimeout:     DefaultNavTimeout,
		TableWait:      DefaultTableWait,
		SettleWait:     DefaultSettleWait,
		DetailDelay:    DefaultDetailDelay,
		UserAgent:      DefaultUserAgent,
	}
}

// XDGDataDir returns the XDG data directory for the crawler.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.local/share/zfcgcrawl
// On macOS: ~/Library/Application Support/zfcgcrawl
// On Windows: %LOCALAPPDATA%\zfcgcrawl
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for the crawler.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.config/zfcgcrawl
// On macOS: ~/Library/Application Support/zfcgcrawl
// On Windows: %APPDATA%\zfcgcrawl
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
	if c.UnitName == "" {
		return ErrNoUnitName
	}
	if c.MaxPages < 0 {
		return ErrInvalidMaxPages
	}
	if c.FlushEvery <= 0 {
		return ErrInvalidFlushEvery
	}
	if c.CaptchaRetries < 0 {
		return ErrInvalidCaptchaRetries
	}
	if c.NavTimeout < 0 || c.TableWait < 0 || c.SettleWait < 0 || c.DetailDelay < 0 {
		return ErrInvalidDelay
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	return nil
}
