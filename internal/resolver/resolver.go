package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"zfcgcrawl/internal/session"
)

// DefaultDetailURLPattern is the portal's detail-page endpoint. URLs
// synthesized from onclick expressions or data attributes are built on
// this base.
const DefaultDetailURLPattern = "https://zfcg.czt.fujian.gov.cn/maincms-web/articleDetail"

// defaultChannelSource is appended when data attributes carry no source
// marker of their own.
const defaultChannelSource = "ggxx"

// onclickPattern matches the portal's script-bound detail handler:
// articleDetail('TYPE','ID','PLANID','CHANNEL','SOURCE').
var onclickPattern = regexp.MustCompile(`articleDetail\('([^']+)','([^']+)','([^']+)','([^']+)','([^']+)'\)`)

// clickableDescendantSelector matches any descendant that exposes a click
// handler, an href, or a link/clickable style marker.
const clickableDescendantSelector = "[onclick], [href], [class*='link'], [class*='clickable']"

// minCells is the number of fixed leading columns a data row carries:
// district, method, unit, title, publish time.
const minCells = 5

// RowData is one fully resolved listing row. CapturedMarkup is non-empty
// only when the synthetic-click strategy ran: the detail document was
// already open, so its markup is captured in passing instead of forcing a
// second navigation.
type RowData struct {
	District          string
	ProcurementMethod string
	ProcurementUnit   string
	Title             string
	DetailURL         string
	PublishTime       string
	Strategy          string
	CapturedMarkup    string
}

// Resolver resolves listing rows against one document session.
type Resolver struct {
	sess   session.Session
	logger *slog.Logger

	// detailURLPattern is the base for synthesized detail URLs.
	detailURLPattern string

	// clickWait bounds the synthetic click's navigation detection.
	clickWait time.Duration
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// WithDetailURLPattern overrides the synthesized-URL base.
func WithDetailURLPattern(pattern string) Option {
	return func(r *Resolver) {
		r.detailURLPattern = pattern
	}
}

// WithClickWait bounds navigation detection after a synthetic click.
func WithClickWait(d time.Duration) Option {
	return func(r *Resolver) {
		r.clickWait = d
	}
}

// New creates a Resolver bound to the given session. The session is only
// used by the synthetic-click strategy; all other strategies read the row
// handle alone.
func New(sess session.Session, opts ...Option) *Resolver {
	r := &Resolver{
		sess:             sess,
		detailURLPattern: DefaultDetailURLPattern,
		clickWait:        5 * time.Second,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// link is one strategy's successful output.
type link struct {
	title    string
	url      string
	captured string
}

// strategy is one entry of the fallback chain. Returning errNoLink moves
// the chain along; any other error skips the row.
type strategy struct {
	name string
	find func(ctx context.Context, cell session.Element) (*link, error)
}

// Resolve extracts the five fixed columns from row and resolves the title
// cell's detail link through the fallback chain. ErrShortRow and
// ErrRowSkipped are recoverable: callers log them and continue with the
// next row.
func (r *Resolver) Resolve(ctx context.Context, row session.Element) (*RowData, error) {
	cells, err := row.FindAll(ctx, "td")
	if err != nil {
		return nil, fmt.Errorf("read row cells: %w", err)
	}
	if len(cells) < minCells {
		return nil, fmt.Errorf("%w: %d cells", ErrShortRow, len(cells))
	}

	district, err := cells[0].Text(ctx)
	if err != nil {
		return nil, fmt.Errorf("read district cell: %w", err)
	}
	method, err := cells[1].Text(ctx)
	if err != nil {
		return nil, fmt.Errorf("read method cell: %w", err)
	}
	unit, err := cells[2].Text(ctx)
	if err != nil {
		return nil, fmt.Errorf("read unit cell: %w", err)
	}
	publishTime, err := cells[4].Text(ctx)
	if err != nil {
		return nil, fmt.Errorf("read publish time cell: %w", err)
	}

	titleCell := cells[3]
	strategies := []strategy{
		{name: "anchor", find: r.findAnchor},
		{name: "clickable_descendant", find: r.findClickableDescendant},
		{name: "onclick_expression", find: r.findOnclickExpression},
		{name: "data_attributes", find: r.findDataAttributes},
		{name: "synthetic_click", find: r.findBySyntheticClick},
	}

	for _, s := range strategies {
		l, err := s.find(ctx, titleCell)
		if errors.Is(err, errNoLink) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if l.title == "" || l.url == "" {
			// Post-condition failed; treat as a miss and keep going.
			continue
		}
		r.logger.Debug("resolved listing row", "strategy", s.name, "title", l.title)
		return &RowData{
			District:          district,
			ProcurementMethod: method,
			ProcurementUnit:   unit,
			Title:             l.title,
			DetailURL:         l.url,
			PublishTime:       publishTime,
			Strategy:          s.name,
			CapturedMarkup:    l.captured,
		}, nil
	}

	return nil, ErrRowSkipped
}

// findAnchor is strategy 1: a direct hyperlink inside the title cell.
func (r *Resolver) findAnchor(ctx context.Context, cell session.Element) (*link, error) {
	a, err := cell.FindOne(ctx, "a")
	if errors.Is(err, session.ErrNotFound) {
		return nil, errNoLink
	}
	if err != nil {
		return nil, err
	}
	title, err := a.Text(ctx)
	if err != nil {
		return nil, err
	}
	href, ok, err := a.Attr(ctx, "href")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errNoLink
	}
	return &link{title: title, url: href}, nil
}

// findClickableDescendant is strategy 2: any descendant exposing a click
// handler, an href, or a link/clickable style marker. The detail URL is
// the href when present, otherwise the raw handler expression, preserving
// the portal crawler's historical behavior.
func (r *Resolver) findClickableDescendant(ctx context.Context, cell session.Element) (*link, error) {
	els, err := cell.FindAll(ctx, clickableDescendantSelector)
	if err != nil {
		return nil, err
	}
	if len(els) == 0 {
		return nil, errNoLink
	}
	el := els[0]
	title, err := el.Text(ctx)
	if err != nil {
		return nil, err
	}
	if href, ok, err := el.Attr(ctx, "href"); err == nil && ok && href != "" {
		return &link{title: title, url: href}, nil
	}
	if onclick, ok, err := el.Attr(ctx, "onclick"); err == nil && ok && onclick != "" {
		return &link{title: title, url: onclick}, nil
	}
	return nil, errNoLink
}

// findOnclickExpression is strategy 3: the cell itself carries a click
// handler expression in the articleDetail grammar.
func (r *Resolver) findOnclickExpression(ctx context.Context, cell session.Element) (*link, error) {
	onclick, ok, err := cell.Attr(ctx, "onclick")
	if err != nil {
		return nil, err
	}
	if !ok || onclick == "" {
		return nil, errNoLink
	}
	url, ok := r.urlFromOnclick(onclick)
	if !ok {
		return nil, errNoLink
	}
	title, err := cell.Text(ctx)
	if err != nil {
		return nil, err
	}
	return &link{title: title, url: url}, nil
}

// urlFromOnclick parses the articleDetail grammar and synthesizes the
// detail URL. The "soure" query key reproduces the portal's own
// misspelling and must stay byte-exact.
func (r *Resolver) urlFromOnclick(onclick string) (string, bool) {
	m := onclickPattern.FindStringSubmatch(onclick)
	if m == nil {
		return "", false
	}
	return fmt.Sprintf("%s?type=%s&id=%s&planId=%s&channel=%s&soure=%s",
		r.detailURLPattern, m[1], m[2], m[3], m[4], m[5]), true
}

// findDataAttributes is strategy 4: structured data attributes on the
// cell or a descendant. id and type are required; plan-id and channel are
// optional, and the source defaults to ggxx when absent.
func (r *Resolver) findDataAttributes(ctx context.Context, cell session.Element) (*link, error) {
	carriers := []session.Element{cell}
	if descendants, err := cell.FindAll(ctx, "[data-id]"); err == nil {
		carriers = append(carriers, descendants...)
	}

	for _, el := range carriers {
		id, okID, err := el.Attr(ctx, "data-id")
		if err != nil {
			return nil, err
		}
		typ, okType, err := el.Attr(ctx, "data-type")
		if err != nil {
			return nil, err
		}
		if !okID || !okType || id == "" || typ == "" {
			continue
		}

		params := fmt.Sprintf("type=%s&id=%s", typ, id)
		if planID, ok, err := el.Attr(ctx, "data-plan-id"); err == nil && ok && planID != "" {
			params += "&planId=" + planID
		}
		if channel, ok, err := el.Attr(ctx, "data-channel"); err == nil && ok && channel != "" {
			params += "&channel=" + channel
		}
		params += "&soure=" + defaultChannelSource

		title, err := cell.Text(ctx)
		if err != nil {
			return nil, err
		}
		return &link{title: title, url: r.detailURLPattern + "?" + params}, nil
	}
	return nil, errNoLink
}

// findBySyntheticClick is strategy 5: no link signal at all, but the cell
// has visible text. Activate the cell, detect the navigation, capture the
// detail document while it is focused, and restore the listing page.
func (r *Resolver) findBySyntheticClick(ctx context.Context, cell session.Element) (*link, error) {
	title, err := cell.Text(ctx)
	if err != nil {
		return nil, err
	}
	if title == "" {
		return nil, errNoLink
	}

	nav, err := r.sess.ClickAndDetect(ctx, cell, r.clickWait)
	if errors.Is(err, session.ErrWaitTimeout) {
		// The click went nowhere; the listing page is untouched.
		return nil, errNoLink
	}
	if err != nil {
		return nil, err
	}

	markup, err := r.sess.PageMarkup(ctx)
	if err != nil {
		// Capture failed but the URL is known; restore and carry on with
		// an empty capture rather than losing the row.
		r.logger.Warn("detail capture after synthetic click failed", "url", nav.URL, "error", err)
		markup = ""
	}

	if err := r.sess.Restore(ctx, nav); err != nil {
		return nil, fmt.Errorf("restore listing page after synthetic click: %w", err)
	}
	return &link{title: title, url: nav.URL, captured: markup}, nil
}
