package pager

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/width"

	"zfcgcrawl/internal/model"
	"zfcgcrawl/internal/session"
)

// Selectors anchored to the portal's Element UI pagination widgets.
const (
	// nextControlSelector matches the next-page button.
	nextControlSelector = "button.btn-next"

	// disabledClassToken marks the next button dead on the last page.
	disabledClassToken = "is-disabled"

	// pagerItemSelector matches the numbered page controls; the last
	// numeric item is the fallback source for the total page count.
	pagerItemSelector = "ul.el-pager li"

	// pageInputSelector matches the jump-to-page input.
	pageInputSelector = "input[placeholder='页码']"

	// goLabel is the visible label of the jump control.
	goLabel = "前往"

	// TableRowSelector matches the populated result rows the walker waits
	// on after every transition.
	TableRowSelector = "table tbody tr"
)

// totalPagesPattern reads the "共 N 页" label. The page text is folded to
// halfwidth first, so fullwidth digits match too.
var totalPagesPattern = regexp.MustCompile(`共\s*(\d+)\s*页`)

// Walker traverses the paginated result table of one session.
type Walker struct {
	sess   session.Session
	logger *slog.Logger

	// tableWait bounds the wait for the table to re-populate after a
	// pagination transition.
	tableWait time.Duration

	// cursor tracks the walker's position. PageNumber moves by exactly 1
	// per successful Advance; GotoPage may jump arbitrarily.
	cursor model.PageCursor
}

// Option configures a Walker.
type Option func(*Walker)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Walker) {
		w.logger = logger
	}
}

// WithTableWait bounds the table re-population wait.
func WithTableWait(d time.Duration) Option {
	return func(w *Walker) {
		w.tableWait = d
	}
}

// New creates a Walker over the given session. Call Start once the
// session is showing the first result page.
func New(sess session.Session, opts ...Option) *Walker {
	w := &Walker{
		sess:      sess,
		tableWait: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = slog.Default()
	}
	return w
}

// Cursor returns the walker's current position.
func (w *Walker) Cursor() model.PageCursor {
	return w.cursor
}

// Start initializes the cursor against the currently loaded result page.
func (w *Walker) Start(ctx context.Context) error {
	total, err := w.TotalPages(ctx)
	if err != nil {
		return err
	}
	rows, err := w.Rows(ctx)
	if err != nil {
		return err
	}
	w.cursor = model.PageCursor{PageNumber: 1, TotalPages: total, RowsOnPage: len(rows)}
	return nil
}

// TotalPages reads the total page count: the "共 N 页" label first, then
// the last numeric pager item, then 1. It never fails on a missing
// control; only a dead session is an error.
func (w *Walker) TotalPages(ctx context.Context) (int, error) {
	text, err := w.sess.PageText(ctx)
	if err != nil {
		return 0, fmt.Errorf("read page text: %w", err)
	}
	if m := totalPagesPattern.FindStringSubmatch(width.Narrow.String(text)); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			return n, nil
		}
	}

	items, err := w.sess.FindAll(ctx, pagerItemSelector)
	if err != nil {
		return 0, fmt.Errorf("read pager items: %w", err)
	}
	for i := len(items) - 1; i >= 0; i-- {
		text, err := items[i].Text(ctx)
		if err != nil {
			continue
		}
		if n, err := strconv.Atoi(strings.TrimSpace(width.Narrow.String(text))); err == nil && n > 0 {
			return n, nil
		}
	}

	return 1, nil
}

// Rows returns the current page's populated table rows.
func (w *Walker) Rows(ctx context.Context) ([]session.Element, error) {
	rows, err := w.sess.FindAll(ctx, TableRowSelector)
	if err != nil {
		return nil, fmt.Errorf("read table rows: %w", err)
	}
	w.cursor.RowsOnPage = len(rows)
	return rows, nil
}

// Advance moves to the next page. The boolean reports whether a next page
// was entered: (false, nil) is the normal end of pagination, signalled by
// a disabled next control. A non-nil error means the transition itself
// failed and the caller may retry once or stop the crawl.
func (w *Walker) Advance(ctx context.Context) (bool, error) {
	next, err := w.sess.FindOne(ctx, nextControlSelector)
	if errors.Is(err, session.ErrNotFound) {
		return false, fmt.Errorf("next-page control missing: %w", err)
	}
	if err != nil {
		return false, err
	}

	class, _, err := next.Attr(ctx, "class")
	if err != nil {
		return false, err
	}
	if strings.Contains(class, disabledClassToken) {
		w.logger.Debug("next control disabled, end of pagination", "page", w.cursor.PageNumber)
		return false, nil
	}

	if err := next.Click(ctx); err != nil {
		return false, fmt.Errorf("activate next-page control: %w", err)
	}
	if err := w.waitForTable(ctx); err != nil {
		return false, fmt.Errorf("table did not re-populate after advance: %w", err)
	}

	w.cursor.PageNumber++
	return true, nil
}

// GotoPage jumps to page n via the page-number input. The total page
// count is re-validated after the jump; a changed total aborts with
// ErrTotalPagesChanged because the result set shifted underneath us.
func (w *Walker) GotoPage(ctx context.Context, n int) error {
	input, err := w.sess.FindOne(ctx, pageInputSelector)
	if err != nil {
		return fmt.Errorf("page-number input: %w", err)
	}
	if err := input.SetValue(ctx, strconv.Itoa(n)); err != nil {
		return fmt.Errorf("fill page-number input: %w", err)
	}

	control, err := w.findGoControl(ctx)
	if err != nil {
		return err
	}
	if err := control.Click(ctx); err != nil {
		return fmt.Errorf("activate go control: %w", err)
	}
	if err := w.waitForTable(ctx); err != nil {
		return fmt.Errorf("table did not re-populate after jump: %w", err)
	}

	total, err := w.TotalPages(ctx)
	if err != nil {
		return err
	}
	if total != w.cursor.TotalPages {
		return fmt.Errorf("%w: %d -> %d", ErrTotalPagesChanged, w.cursor.TotalPages, total)
	}
	w.cursor.PageNumber = n
	return nil
}

// waitForTable blocks until the result table has populated rows.
func (w *Walker) waitForTable(ctx context.Context) error {
	return w.sess.WaitUntil(ctx, func(ctx context.Context) (bool, error) {
		rows, err := w.sess.FindAll(ctx, TableRowSelector)
		if err != nil {
			return false, err
		}
		return len(rows) > 0, nil
	}, w.tableWait)
}

// findGoControl locates the jump control by its visible label.
func (w *Walker) findGoControl(ctx context.Context) (session.Element, error) {
	buttons, err := w.sess.FindAll(ctx, "button")
	if err != nil {
		return nil, err
	}
	for _, b := range buttons {
		text, err := b.Text(ctx)
		if err != nil {
			continue
		}
		if strings.Contains(text, goLabel) {
			return b, nil
		}
	}
	return nil, fmt.Errorf("go control: %w", session.ErrNotFound)
}
