package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"

	"zfcgcrawl/internal/session"
)

const (
	// defaultOpTimeout bounds individual DOM operations. Queries use
	// AtLeast(0) and return immediately, so this only catches a wedged
	// browser.
	defaultOpTimeout = 15 * time.Second

	// defaultNavTimeout bounds full page navigations.
	defaultNavTimeout = 30 * time.Second

	// detectPollInterval is how often ClickAndDetect re-checks the
	// document location while waiting for a click to take effect.
	detectPollInterval = 100 * time.Millisecond
)

// Browser is a chromedp-backed session over one Chrome tab.
// It is not safe for concurrent use; the crawler owns it single-threaded.
type Browser struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc

	// tab is the chromedp context of the focused tab.
	tab       context.Context
	tabCancel context.CancelFunc

	// prevTabs stacks suspended tabs while a synthetic click's target
	// holds focus.
	prevTabs []tabFrame

	logger     *slog.Logger
	headless   bool
	userAgent  string
	windowW    int
	windowH    int
	navTimeout time.Duration
	opTimeout  time.Duration
}

type tabFrame struct {
	ctx    context.Context
	cancel context.CancelFunc
}

var _ session.Session = (*Browser)(nil)

// Option configures a Browser.
type Option func(*Browser)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Browser) {
		b.logger = logger
	}
}

// WithHeadless runs Chrome without a visible window. The CAPTCHA image
// is invisible to the operator in this mode.
func WithHeadless(headless bool) Option {
	return func(b *Browser) {
		b.headless = headless
	}
}

// WithUserAgent overrides the browser user agent.
func WithUserAgent(ua string) Option {
	return func(b *Browser) {
		b.userAgent = ua
	}
}

// WithWindowSize sets the browser window dimensions.
func WithWindowSize(w, h int) Option {
	return func(b *Browser) {
		b.windowW = w
		b.windowH = h
	}
}

// WithNavTimeout bounds each page navigation.
func WithNavTimeout(d time.Duration) Option {
	return func(b *Browser) {
		b.navTimeout = d
	}
}

// New launches Chrome and opens the session's tab. The caller must call
// Close when done.
func New(ctx context.Context, opts ...Option) (*Browser, error) {
	b := &Browser{
		windowW:    1920,
		windowH:    1080,
		navTimeout: defaultNavTimeout,
		opTimeout:  defaultOpTimeout,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = slog.Default()
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", b.headless),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.WindowSize(b.windowW, b.windowH),
	)
	if b.userAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(b.userAgent))
	}

	b.allocCtx, b.allocCancel = chromedp.NewExecAllocator(ctx, allocOpts...)
	b.tab, b.tabCancel = chromedp.NewContext(b.allocCtx)

	// Starting the browser eagerly surfaces launch failures here rather
	// than on the first navigation.
	if err := chromedp.Run(b.tab); err != nil {
		b.allocCancel()
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	b.logger.Debug("browser launched", "headless", b.headless)
	return b, nil
}

// Close shuts the browser down.
func (b *Browser) Close() error {
	for i := len(b.prevTabs) - 1; i >= 0; i-- {
		b.prevTabs[i].cancel()
	}
	b.prevTabs = nil
	b.tabCancel()
	b.allocCancel()
	return nil
}

// run executes chromedp actions against the focused tab with a timeout.
func (b *Browser) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tctx, cancel := context.WithTimeout(b.tab, timeout)
	defer cancel()
	return b.mapErr(chromedp.Run(tctx, actions...))
}

// mapErr converts a dead tab into ErrSessionLost so callers can
// distinguish a closed browser from ordinary operation failures.
func (b *Browser) mapErr(err error) error {
	if err == nil {
		return nil
	}
	if b.tab.Err() != nil || strings.Contains(err.Error(), "session closed") {
		return fmt.Errorf("%w: %v", session.ErrSessionLost, err)
	}
	return err
}

// Navigate loads the URL and waits for the document body.
func (b *Browser) Navigate(ctx context.Context, url string) error {
	err := b.run(ctx, b.navTimeout,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return nil
}

// CurrentURL returns the focused document's location.
func (b *Browser) CurrentURL(ctx context.Context) (string, error) {
	var url string
	if err := b.run(ctx, b.opTimeout, chromedp.Location(&url)); err != nil {
		return "", err
	}
	return url, nil
}

// FindOne returns the first element matching the CSS selector, or
// ErrNotFound when nothing matches.
func (b *Browser) FindOne(ctx context.Context, selector string) (session.Element, error) {
	els, err := b.FindAll(ctx, selector)
	if err != nil {
		return nil, err
	}
	if len(els) == 0 {
		return nil, session.ErrNotFound
	}
	return els[0], nil
}

// FindAll returns all elements matching the CSS selector in document
// order. An empty result is not an error.
func (b *Browser) FindAll(ctx context.Context, selector string) ([]session.Element, error) {
	var nodes []*cdp.Node
	err := b.run(ctx, b.opTimeout,
		chromedp.Nodes(selector, &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0)),
	)
	if err != nil {
		return nil, err
	}

	els := make([]session.Element, 0, len(nodes))
	for _, n := range nodes {
		els = append(els, &element{browser: b, node: n})
	}
	return els, nil
}

// WaitUntil polls the predicate until it holds or the timeout expires.
// Predicate errors matching ErrNotFound are treated as "not yet".
func (b *Browser) WaitUntil(ctx context.Context, pred func(ctx context.Context) (bool, error), timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		ok, err := pred(ctx)
		if err != nil && !errors.Is(err, session.ErrNotFound) {
			return err
		}
		if ok {
			return nil
		}
		if time.Now().After(deadline) {
			return session.ErrWaitTimeout
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(detectPollInterval):
		}
	}
}

// PageText returns the visible text of the document body.
func (b *Browser) PageText(ctx context.Context) (string, error) {
	var text string
	if err := b.run(ctx, b.opTimeout, chromedp.Text("body", &text, chromedp.ByQuery)); err != nil {
		return "", err
	}
	return text, nil
}

// PageMarkup returns the document's full HTML.
func (b *Browser) PageMarkup(ctx context.Context) (string, error) {
	var html string
	if err := b.run(ctx, b.opTimeout, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", err
	}
	return html, nil
}

// Back navigates one step back in the tab's history.
func (b *Browser) Back(ctx context.Context) error {
	return b.run(ctx, b.navTimeout, chromedp.NavigateBack())
}

// ClickAndDetect clicks the element and watches for a navigation: a new
// tab shifts the session's focus to it and reports NavNewContext; a
// location change in place reports NavSameContext. A click with no
// observable navigation within the timeout returns ErrWaitTimeout.
func (b *Browser) ClickAndDetect(ctx context.Context, el session.Element, timeout time.Duration) (*session.Navigation, error) {
	fe, ok := el.(*element)
	if !ok {
		return nil, fmt.Errorf("browser: foreign element %T", el)
	}

	var before string
	if err := b.run(ctx, b.opTimeout, chromedp.Location(&before)); err != nil {
		return nil, err
	}

	newTarget := chromedp.WaitNewTarget(b.tab, func(info *target.Info) bool {
		return info.URL != ""
	})

	if err := fe.Click(ctx); err != nil {
		return nil, err
	}

	deadline := time.Now().Add(timeout)
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case id := <-newTarget:
			return b.focusTarget(ctx, id)
		case <-time.After(detectPollInterval):
		}

		var now string
		if err := b.run(ctx, b.opTimeout, chromedp.Location(&now)); err != nil {
			return nil, err
		}
		if now != before {
			return &session.Navigation{Kind: session.NavSameContext, URL: now}, nil
		}
		if time.Now().After(deadline) {
			return nil, session.ErrWaitTimeout
		}
	}
}

// focusTarget attaches to a newly opened tab and makes it the session's
// focused document.
func (b *Browser) focusTarget(ctx context.Context, id target.ID) (*session.Navigation, error) {
	tabCtx, cancel := chromedp.NewContext(b.tab, chromedp.WithTargetID(id))

	b.prevTabs = append(b.prevTabs, tabFrame{ctx: b.tab, cancel: b.tabCancel})
	b.tab, b.tabCancel = tabCtx, cancel

	var url string
	if err := b.run(ctx, b.navTimeout,
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Location(&url),
	); err != nil {
		return nil, err
	}

	b.logger.Debug("focused new tab", "url", url)
	return &session.Navigation{Kind: session.NavNewContext, URL: url}, nil
}

// Restore undoes the navigation reported by ClickAndDetect: it closes a
// spawned tab and refocuses the original document, or steps back in
// history for a same-context navigation.
func (b *Browser) Restore(ctx context.Context, nav *session.Navigation) error {
	if nav == nil {
		return nil
	}
	switch nav.Kind {
	case session.NavNewContext:
		if len(b.prevTabs) == 0 {
			return fmt.Errorf("browser: no suspended tab to restore")
		}
		// Close the spawned tab, then refocus the suspended one.
		if err := b.run(ctx, b.opTimeout, page.Close()); err != nil {
			b.logger.Warn("closing spawned tab failed", "error", err)
		}
		b.tabCancel()

		frame := b.prevTabs[len(b.prevTabs)-1]
		b.prevTabs = b.prevTabs[:len(b.prevTabs)-1]
		b.tab, b.tabCancel = frame.ctx, frame.cancel
		return nil
	case session.NavSameContext:
		return b.Back(ctx)
	default:
		return fmt.Errorf("browser: unknown navigation kind %v", nav.Kind)
	}
}
