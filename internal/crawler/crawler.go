package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"zfcgcrawl/internal/extractor"
	"zfcgcrawl/internal/gate"
	"zfcgcrawl/internal/model"
	"zfcgcrawl/internal/pager"
	"zfcgcrawl/internal/resolver"
	"zfcgcrawl/internal/session"
)

// DefaultSearchURL is the portal's project-announcement search page.
const DefaultSearchURL = "https://zfcg.czt.fujian.gov.cn/maincms-web/xmgg?titleType=xmgg"

// unitInputSelector matches the procurement-unit criterion input.
const unitInputSelector = "input[placeholder='请输入采购单位']"

// captchaDemandNotice is echoed by the portal when a query ran without a
// verified CAPTCHA.
const captchaDemandNotice = "请完成上方验证码操作"

// Sink receives accumulated records. Flushes carry the full growing
// sequences each time, so implementations must be safe to call repeatedly
// with supersets of earlier data.
type Sink interface {
	Flush(ctx context.Context, results []model.SearchResultRecord, details []model.DetailRecord) error
}

// Crawler runs one search query and walks its paginated results.
type Crawler struct {
	sess      session.Session
	gate      *gate.CaptchaGate
	resolver  *resolver.Resolver
	extractor *extractor.Extractor
	walker    *pager.Walker
	sink      Sink
	logger    *slog.Logger

	// searchURL is the search page the crawl starts from.
	searchURL string

	// unitName is the free-text procurement-unit criterion.
	unitName string

	// maxPages caps traversal. 0 means every page the site reports.
	maxPages int

	// extractDetails controls whether each resolved row's detail document
	// is fetched and extracted.
	extractDetails bool

	// flushEvery is the checkpoint interval in pages.
	flushEvery int

	// settleWait is the pause after navigations for the page to render.
	settleWait time.Duration

	// detailDelay is the politeness pause between detail fetches.
	detailDelay time.Duration

	// tableWait bounds waits for the result table to appear.
	tableWait time.Duration
}

// Option configures a Crawler.
type Option func(*Crawler)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Crawler) {
		c.logger = logger
	}
}

// WithSearchURL overrides the search page URL.
func WithSearchURL(url string) Option {
	return func(c *Crawler) {
		c.searchURL = url
	}
}

// WithUnitName sets the procurement-unit criterion.
func WithUnitName(name string) Option {
	return func(c *Crawler) {
		c.unitName = name
	}
}

// WithMaxPages caps the number of pages traversed. 0 means no cap.
func WithMaxPages(n int) Option {
	return func(c *Crawler) {
		c.maxPages = n
	}
}

// WithExtractDetails controls detail-document fetching.
func WithExtractDetails(enabled bool) Option {
	return func(c *Crawler) {
		c.extractDetails = enabled
	}
}

// WithFlushEvery sets the checkpoint interval in pages.
func WithFlushEvery(pages int) Option {
	return func(c *Crawler) {
		if pages > 0 {
			c.flushEvery = pages
		}
	}
}

// WithSettleWait sets the post-navigation render pause.
func WithSettleWait(d time.Duration) Option {
	return func(c *Crawler) {
		c.settleWait = d
	}
}

// WithDetailDelay sets the politeness pause between detail fetches.
func WithDetailDelay(d time.Duration) Option {
	return func(c *Crawler) {
		c.detailDelay = d
	}
}

// WithTableWait bounds waits for the result table.
func WithTableWait(d time.Duration) Option {
	return func(c *Crawler) {
		c.tableWait = d
	}
}

// New creates a Crawler over an externally built session and its
// collaborators. The crawler never constructs or configures the session;
// the caller owns its lifecycle.
func New(sess session.Session, g *gate.CaptchaGate, r *resolver.Resolver, x *extractor.Extractor, w *pager.Walker, sink Sink, opts ...Option) *Crawler {
	c := &Crawler{
		sess:      sess,
		gate:      g,
		resolver:  r,
		extractor: x,
		walker:    w,
		sink:      sink,
		searchURL: DefaultSearchURL,
		unitName:  "医院",
		flushEvery: 10,
		settleWait: 2 * time.Second,
		detailDelay: time.Second,
		tableWait:   10 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// Run executes the crawl: search, gate, page loop, flushes. The returned
// result holds whatever was accumulated, even when err is non-nil; a
// best-effort final flush has always been attempted by the time Run
// returns.
func (c *Crawler) Run(ctx context.Context) (result *model.CrawlResult, err error) {
	result = &model.CrawlResult{
		SearchResults: []model.SearchResultRecord{},
		DetailRecords: []model.DetailRecord{},
	}

	flushes := 0
	defer func() {
		// The final flush runs on every exit path. Use a fresh context so
		// records survive cancellation.
		flushCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if ferr := c.sink.Flush(flushCtx, result.SearchResults, result.DetailRecords); ferr != nil {
			c.logger.Error("final flush failed", "error", ferr)
			if err == nil {
				err = ferr
			}
		}
		c.logger.Info("crawl finished",
			"pages", result.PagesVisited,
			"results", len(result.SearchResults),
			"details", len(result.DetailRecords),
			"skipped", result.RowsSkipped,
			"checkpoint_flushes", flushes)
	}()

	if err := c.search(ctx); err != nil {
		return result, err
	}
	if err := c.walker.Start(ctx); err != nil {
		return result, fmt.Errorf("initialize pagination: %w", err)
	}

	effective := c.walker.Cursor().TotalPages
	if c.maxPages > 0 && c.maxPages < effective {
		effective = c.maxPages
	}
	c.logger.Info("starting traversal",
		"unit", c.unitName,
		"total_pages", c.walker.Cursor().TotalPages,
		"effective_pages", effective)

	for {
		// Cancellation is honored here, at the top of the page loop; the
		// deferred final flush still runs.
		if cerr := ctx.Err(); cerr != nil {
			c.logger.Warn("crawl interrupted", "page", c.walker.Cursor().PageNumber)
			return result, cerr
		}

		if err := c.crawlPage(ctx, result); err != nil {
			return result, err
		}
		result.PagesVisited++

		if c.walker.Cursor().PageNumber >= effective {
			break
		}

		ok, aerr := c.walker.Advance(ctx)
		if aerr != nil {
			// Recoverable-page: stop the crawl, keep partial data.
			c.logger.Warn("pagination failed, stopping with partial results",
				"page", c.walker.Cursor().PageNumber, "error", aerr)
			break
		}
		if !ok {
			break
		}

		if result.PagesVisited%c.flushEvery == 0 {
			if ferr := c.sink.Flush(ctx, result.SearchResults, result.DetailRecords); ferr != nil {
				c.logger.Error("checkpoint flush failed", "error", ferr)
			} else {
				flushes++
			}
		}
	}

	return result, nil
}

// search navigates to the search page, fills the unit criterion, passes
// the CAPTCHA gate, and confirms a populated result table.
func (c *Crawler) search(ctx context.Context) error {
	if err := c.sess.Navigate(ctx, c.searchURL); err != nil {
		return fmt.Errorf("open search page: %w", err)
	}
	if err := c.pause(ctx, c.settleWait); err != nil {
		return err
	}

	input, err := c.sess.FindOne(ctx, unitInputSelector)
	if err != nil {
		return fmt.Errorf("unit criterion input: %w", err)
	}
	if err := input.SetValue(ctx, c.unitName); err != nil {
		return fmt.Errorf("fill unit criterion: %w", err)
	}

	// The gate fills the code and activates the query control itself, so
	// a successful pass has already submitted the search.
	if err := c.gate.EnsureAuthorized(ctx, false); err != nil {
		return fmt.Errorf("captcha gate: %w", err)
	}

	if err := c.waitForTable(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrNoResultTable, err)
	}

	text, err := c.sess.PageText(ctx)
	if err != nil {
		return fmt.Errorf("read search result page: %w", err)
	}
	if strings.Contains(text, captchaDemandNotice) {
		return ErrCaptchaUnverified
	}
	return nil
}

// crawlPage resolves every row on the current page and optionally fetches
// detail documents. Row failures are counted and skipped; only a dead
// session propagates.
func (c *Crawler) crawlPage(ctx context.Context, result *model.CrawlResult) error {
	rows, err := c.walker.Rows(ctx)
	if err != nil {
		return err
	}
	page := c.walker.Cursor().PageNumber
	c.logger.Info("extracting page", "page", page, "rows", len(rows))

	for i, row := range rows {
		resolved, rerr := c.resolver.Resolve(ctx, row)
		if rerr != nil {
			if errors.Is(rerr, session.ErrSessionLost) {
				return rerr
			}
			c.logger.Warn("row skipped", "page", page, "row", i+1, "reason", rerr)
			result.RowsSkipped++
			continue
		}

		record := model.SearchResultRecord{
			District:          resolved.District,
			ProcurementMethod: resolved.ProcurementMethod,
			ProcurementUnit:   resolved.ProcurementUnit,
			Title:             resolved.Title,
			DetailURL:         resolved.DetailURL,
			PublishTime:       resolved.PublishTime,
			CrawlTime:         time.Now(),
		}
		result.SearchResults = append(result.SearchResults, record)

		if !c.extractDetails {
			continue
		}
		detail, derr := c.fetchDetail(ctx, resolved)
		if detail != nil {
			result.DetailRecords = append(result.DetailRecords, *detail)
		}
		if derr != nil {
			if errors.Is(derr, session.ErrSessionLost) || errors.Is(derr, context.Canceled) {
				return derr
			}
			c.logger.Warn("detail extraction failed", "url", resolved.DetailURL, "error", derr)
		}
	}
	return nil
}

// fetchDetail produces the DetailRecord for one resolved row. Markup
// captured during a synthetic click is reused; otherwise the session
// visits the detail URL and returns to the listing afterwards. A nil
// record with nil error means the row carries no navigable URL.
func (c *Crawler) fetchDetail(ctx context.Context, resolved *resolver.RowData) (*model.DetailRecord, error) {
	if resolved.CapturedMarkup != "" {
		record := c.extractor.Extract(resolved.CapturedMarkup, resolved.DetailURL)
		return &record, nil
	}

	// Handler expressions recorded as URLs (strategy 2) cannot be
	// navigated; record the row without a detail document.
	if !strings.HasPrefix(resolved.DetailURL, "http") {
		c.logger.Debug("detail url not navigable", "url", resolved.DetailURL)
		return nil, nil
	}

	if err := c.pause(ctx, c.detailDelay); err != nil {
		return nil, err
	}
	if err := c.sess.Navigate(ctx, resolved.DetailURL); err != nil {
		return nil, fmt.Errorf("open detail page: %w", err)
	}
	if err := c.pause(ctx, c.settleWait); err != nil {
		return nil, err
	}

	markup, err := c.sess.PageMarkup(ctx)
	if err != nil {
		return nil, fmt.Errorf("read detail markup: %w", err)
	}
	record := c.extractor.Extract(markup, resolved.DetailURL)

	if err := c.sess.Back(ctx); err != nil {
		return &record, fmt.Errorf("return to listing: %w", err)
	}
	if err := c.waitForTable(ctx); err != nil {
		return &record, fmt.Errorf("listing table after detail visit: %w", err)
	}
	return &record, nil
}

// waitForTable blocks until the result table has populated rows.
func (c *Crawler) waitForTable(ctx context.Context) error {
	return c.sess.WaitUntil(ctx, func(ctx context.Context) (bool, error) {
		rows, err := c.sess.FindAll(ctx, pager.TableRowSelector)
		if err != nil {
			return false, err
		}
		return len(rows) > 0, nil
	}, c.tableWait)
}

// pause sleeps for d unless the context is cancelled first.
func (c *Crawler) pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
