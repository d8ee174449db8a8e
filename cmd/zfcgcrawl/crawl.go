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
	"zfcgcrawl/internal/browser"
	"zfcgcrawl/internal/config"
	"zfcgcrawl/internal/crawler"
	"zfcgcrawl/internal/database"
	"zfcgcrawl/internal/extractor"
	"zfcgcrawl/internal/gate"
	"zfcgcrawl/internal/log"
	"zfcgcrawl/internal/model"
	"zfcgcrawl/internal/pager"
	"zfcgcrawl/internal/prompt"
	"zfcgcrawl/internal/report"
	"zfcgcrawl/internal/resolver"
	"zfcgcrawl/internal/sink"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Crawl procurement announcements for a procurement unit",
		Long: `Crawl queries the Fujian procurement portal for announcements matching a
procurement unit, walks every result page, and optionally visits each
announcement's detail page.

The portal requires a CAPTCHA before searching. The challenge is shown in
the browser window and the code is read from the terminal, so run with a
visible browser window unless the session is already authorized.

Records are flushed to the output directory as JSON and CSV at regular
page intervals, so an interrupted crawl keeps everything collected up to
the last checkpoint.

Examples:
  # Crawl hospital announcements with defaults
  zfcgcrawl crawl

  # Crawl school announcements, first 5 pages only
  zfcgcrawl crawl --unit 学校 --max-pages 5

  # Skip detail pages for a faster listing-only crawl
  zfcgcrawl crawl --no-details

  # Save records to SQLite alongside the file outputs
  zfcgcrawl crawl --save-db

  # Write a Markdown summary report to a file
  zfcgcrawl crawl --markdown --report-file summary.md`,
		Args: cobra.NoArgs,
		RunE: runCrawlCmd,
	}

	// Query flags
	cmd.Flags().StringP("unit", "u", config.DefaultUnitName,
		"Procurement unit to query announcements for")
	cmd.Flags().StringP("url", "s", config.DefaultSearchURL,
		"Search page URL the crawl starts from")
	cmd.Flags().IntP("max-pages", "p", 0,
		"Maximum result pages to traverse (0 means all pages)")
	cmd.Flags().Bool("no-details", false,
		"Skip detail pages and collect listing rows only")

	// Browser flags
	cmd.Flags().Bool("headless", false,
		"Run the browser without a visible window")
	cmd.Flags().Int("captcha-retries", 0,
		"CAPTCHA attempts before giving up (0 retries until aborted)")

	// Output flags
	cmd.Flags().StringP("output-dir", "o", "",
		"Directory for JSON/CSV outputs and the database (default: XDG data directory)")
	cmd.Flags().Int("flush-every", config.DefaultFlushEvery,
		"Flush accumulated records after this many pages")
	cmd.Flags().Bool("save-db", false,
		"Also persist records to a SQLite database in the output directory")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .zfcgcrawl in current or home directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON summary report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown summary report (mutually exclusive with --json)")
	cmd.Flags().String("report-file", "",
		"Write the summary report to specified file path (creates directories if needed)")

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, _ []string) error {
	// Build config from flags and the optional config file
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// Set up structured logging with credential masking
	logger := log.NewSecureLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runCrawl(ctx, cfg, logger)
}

// buildConfig creates a Config from cobra command flags, overlaying the
// optional configuration file first so flags the user set still win.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// Load the config file before reading flags so explicitly set flags
	// override file values.
	// If user explicitly specified a config file path, error if not found.
	// If no path specified, silently keep defaults when no file is found.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		file, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		file.ApplyTo(cfg)
	} else if explicitConfigPath {
		// User explicitly specified a config file that doesn't exist
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	}

	if cmd.Flags().Changed("unit") {
		cfg.UnitName, err = cmd.Flags().GetString("unit")
		if err != nil {
			return nil, err
		}
	}

	if cmd.Flags().Changed("url") {
		cfg.SearchURL, err = cmd.Flags().GetString("url")
		if err != nil {
			return nil, err
		}
	}

	if cmd.Flags().Changed("max-pages") {
		cfg.MaxPages, err = cmd.Flags().GetInt("max-pages")
		if err != nil {
			return nil, err
		}
	}

	if cmd.Flags().Changed("no-details") {
		noDetails, err := cmd.Flags().GetBool("no-details")
		if err != nil {
			return nil, err
		}
		cfg.ExtractDetails = !noDetails
	}

	if cmd.Flags().Changed("headless") {
		cfg.Headless, err = cmd.Flags().GetBool("headless")
		if err != nil {
			return nil, err
		}
	}

	if cmd.Flags().Changed("captcha-retries") {
		cfg.CaptchaRetries, err = cmd.Flags().GetInt("captcha-retries")
		if err != nil {
			return nil, err
		}
	}

	if cmd.Flags().Changed("output-dir") {
		cfg.OutputDir, err = cmd.Flags().GetString("output-dir")
		if err != nil {
			return nil, err
		}
	}

	if cmd.Flags().Changed("flush-every") {
		cfg.FlushEvery, err = cmd.Flags().GetInt("flush-every")
		if err != nil {
			return nil, err
		}
	}

	if cmd.Flags().Changed("save-db") {
		cfg.SaveToDB, err = cmd.Flags().GetBool("save-db")
		if err != nil {
			return nil, err
		}
	}

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}

	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}

	cfg.ReportFile, err = cmd.Flags().GetString("report-file")
	if err != nil {
		return nil, err
	}

	cfg.Verbose = getVerboseFlag(cmd)

	return cfg, nil
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

// runCrawl wires the browser session, CAPTCHA gate, resolver, extractor,
// pagination walker, and output sinks together and executes the crawl.
func runCrawl(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("starting crawl",
		"unit", cfg.UnitName,
		"maxPages", cfg.MaxPages,
		"extractDetails", cfg.ExtractDetails,
		"outputDir", cfg.OutputDir,
		"saveToDB", cfg.SaveToDB,
	)

	// Output sinks: JSON and CSV always, SQLite when requested.
	dataSink, closeDB, err := buildSink(cfg, logger)
	if err != nil {
		return err
	}
	defer closeDB()

	// Launch the browser session.
	fmt.Println("Launching browser...")
	sess, err := browser.New(ctx,
		browser.WithLogger(logger),
		browser.WithHeadless(cfg.Headless),
		browser.WithUserAgent(cfg.UserAgent),
		browser.WithNavTimeout(cfg.NavTimeout),
	)
	if err != nil {
		return fmt.Errorf("failed to launch browser: %w", err)
	}
	defer func() {
		if err := sess.Close(); err != nil {
			logger.Error("failed to close browser", "error", err)
		}
	}()

	captchaGate := gate.New(sess, prompt.New(os.Stdin, os.Stderr),
		gate.WithLogger(logger),
		gate.WithMaxRetries(cfg.CaptchaRetries),
		gate.WithSettleWait(cfg.SettleWait),
	)

	fieldExtractor, err := extractor.New(searchOrigin(cfg.SearchURL),
		extractor.WithLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("failed to create extractor: %w", err)
	}

	c := crawler.New(
		sess,
		captchaGate,
		resolver.New(sess, resolver.WithLogger(logger)),
		fieldExtractor,
		pager.New(sess, pager.WithLogger(logger), pager.WithTableWait(cfg.TableWait)),
		dataSink,
		crawler.WithLogger(logger),
		crawler.WithSearchURL(cfg.SearchURL),
		crawler.WithUnitName(cfg.UnitName),
		crawler.WithMaxPages(cfg.MaxPages),
		crawler.WithExtractDetails(cfg.ExtractDetails),
		crawler.WithFlushEvery(cfg.FlushEvery),
		crawler.WithSettleWait(cfg.SettleWait),
		crawler.WithDetailDelay(cfg.DetailDelay),
		crawler.WithTableWait(cfg.TableWait),
	)

	fmt.Printf("Crawling announcements for %q...\n", cfg.UnitName)
	startTime := time.Now()

	result, crawlErr := c.Run(ctx)

	elapsed := time.Since(startTime)
	fmt.Printf("\nCrawl completed in %s\n", elapsed.Round(time.Millisecond))

	summary := model.NewCrawlSummary(result, cfg.UnitName, startTime, elapsed)
	if crawlErr != nil {
		summary.Error = crawlErr.Error()
	}

	if err := outputReport(cfg, summary); err != nil {
		logger.Error("failed to output report", "error", err)
		if crawlErr == nil {
			return err
		}
	}

	return crawlErr
}

// buildSink assembles the JSON, CSV, and optional database sinks into one
// fan-out flush target. The returned closer releases the database handle
// and is a no-op when the database is disabled.
func buildSink(cfg *config.Config, logger *slog.Logger) (crawler.Sink, func(), error) {
	jsonSink, err := sink.NewJSON(cfg.OutputDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create JSON output: %w", err)
	}

	csvSink, err := sink.NewCSV(cfg.OutputDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create CSV output: %w", err)
	}

	sinks := []crawler.Sink{jsonSink, csvSink}
	closeDB := func() {}

	if cfg.SaveToDB {
		db, err := database.Open(cfg.OutputDir, database.DefaultOptions())
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open database: %w", err)
		}
		sinks = append(sinks, db)
		closeDB = func() {
			if err := db.Close(); err != nil {
				logger.Error("failed to close database", "error", err)
			}
		}
		logger.Info("database opened", "dir", cfg.OutputDir)
	}

	multi, err := sink.NewMulti(sinks...)
	if err != nil {
		closeDB()
		return nil, nil, err
	}
	return multi, closeDB, nil
}

// searchOrigin reduces the search URL to its scheme and host so relative
// detail and attachment links resolve against the portal root.
func searchOrigin(searchURL string) string {
	u, err := url.Parse(searchURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return searchURL
	}
	return u.Scheme + "://" + u.Host
}

// outputReport outputs the crawl summary in the requested format.
func outputReport(cfg *config.Config, summary *model.CrawlSummary) error {
	// Determine output destination
	var output *os.File
	if cfg.ReportFile != "" {
		// Create directories if they don't exist
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	} else {
		output = os.Stdout
	}

	// JSON output
	if cfg.JSONReport {
		_, err := report.NewJSONWriter(output, report.WithIndent(true)).Write(summary)
		return err
	}

	// Markdown output
	if cfg.MarkdownReport {
		_, err := report.NewMarkdownWriter(output).Write(summary)
		return err
	}

	// Human-readable report (default)
	_, err := report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose)).Write(summary)
	return err
}
