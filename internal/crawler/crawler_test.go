package crawler

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"zfcgcrawl/internal/extractor"
	"zfcgcrawl/internal/gate"
	"zfcgcrawl/internal/model"
	"zfcgcrawl/internal/pager"
	"zfcgcrawl/internal/resolver"
	"zfcgcrawl/internal/session/sessiontest"
)

const testSearchURL = "https://example.test/xmgg?titleType=xmgg"

// fakeSink records flushes for assertions.
type fakeSink struct {
	flushes     int
	lastResults []model.SearchResultRecord
	lastDetails []model.DetailRecord
}

func (s *fakeSink) Flush(_ context.Context, results []model.SearchResultRecord, details []model.DetailRecord) error {
	s.flushes++
	s.lastResults = append([]model.SearchResultRecord(nil), results...)
	s.lastDetails = append([]model.DetailRecord(nil), details...)
	return nil
}

// searchPage is the pre-query page: criterion input, captcha input, and
// the query control.
const searchPage = `<html><body>
	<input placeholder="请输入采购单位">
	<input placeholder="请输入验证码">
	<button class="el-button"><span> 查询 </span></button>
</body></html>`

// listingPage renders a result page with the shared pagination controls.
func listingPage(rows string, nextDisabled bool) string {
	next := `<button class="btn-next"></button>`
	if nextDisabled {
		next = `<button class="btn-next is-disabled"></button>`
	}
	return `<html><body>
		<input placeholder="请输入验证码">
		<table><tbody>` + rows + `</tbody></table>
		<span>共 2 页</span>` + next + `
	</body></html>`
}

// anchorRow renders a row whose title cell has a direct anchor.
func anchorRow(n int) string {
	return fmt.Sprintf(`<tr>
		<td>福州市</td><td>公开招标</td><td>医院%d</td>
		<td><a href="https://example.test/detail/%d">公告%d</a></td>
		<td>2024-04-0%d 10:00:00</td>
	</tr>`, n, n, n, n%9+1)
}

func detailPage(n int) string {
	return fmt.Sprintf(`<html><body>
		<h2>公告%d</h2>
		<div class="content">正文%d 2024-04-01 10:00:00</div>
	</body></html>`, n, n)
}

// newCrawlFake scripts a two-page crawl: 5 rows on page one, 3 on page
// two, all resolvable via direct anchors.
func newCrawlFake(t *testing.T) *sessiontest.Fake {
	t.Helper()

	fake := sessiontest.New()
	fake.AddPage(testSearchURL, searchPage)
	for i := 1; i <= 8; i++ {
		fake.AddPage(fmt.Sprintf("https://example.test/detail/%d", i), detailPage(i))
	}

	var pageOne, pageTwo string
	for i := 1; i <= 5; i++ {
		pageOne += anchorRow(i)
	}
	for i := 6; i <= 8; i++ {
		pageTwo += anchorRow(i)
	}

	// The query control renders page one; the next control renders page
	// two with a disabled next.
	fake.OnClick("button.el-button", func(f *sessiontest.Fake) error {
		f.SetCurrent(listingPage(pageOne, false))
		return nil
	})
	fake.OnClick("button.btn-next", func(f *sessiontest.Fake) error {
		f.SetCurrent(listingPage(pageTwo, true))
		return nil
	})
	return fake
}

func newTestCrawler(fake *sessiontest.Fake, sink Sink, w *pager.Walker, opts ...Option) *Crawler {
	prompter := &sessiontest.Prompter{Lines: []string{"1234"}}
	g := gate.New(fake, prompter, gate.WithSettleWait(0))
	r := resolver.New(fake)
	x, _ := extractor.New("https://example.test")

	base := []Option{
		WithSearchURL(testSearchURL),
		WithUnitName("医院"),
		WithSettleWait(0),
		WithDetailDelay(0),
	}
	return New(fake, g, r, x, w, sink, append(base, opts...)...)
}

// TestCrawlEndToEnd tests the §2 data flow: two pages with 5 and 3
// resolvable rows yield 8 search records and one detail each, with
// exactly one flush after the loop exits.
func TestCrawlEndToEnd(t *testing.T) {
	t.Parallel()

	fake := newCrawlFake(t)
	sink := &fakeSink{}
	c := newTestCrawler(fake, sink, pager.New(fake), WithMaxPages(2), WithExtractDetails(true))

	result, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(result.SearchResults) != 8 {
		t.Errorf("search results = %d, want 8", len(result.SearchResults))
	}
	if len(result.DetailRecords) != 8 {
		t.Errorf("detail records = %d, want 8", len(result.DetailRecords))
	}
	if result.PagesVisited != 2 {
		t.Errorf("pages visited = %d, want 2", result.PagesVisited)
	}
	if sink.flushes != 1 {
		t.Errorf("flushes = %d, want exactly one final flush", sink.flushes)
	}
	if len(sink.lastResults) != 8 || len(sink.lastDetails) != 8 {
		t.Errorf("flushed %d results and %d details", len(sink.lastResults), len(sink.lastDetails))
	}

	// Records join on detail URL.
	if sink.lastResults[0].DetailURL != "https://example.test/detail/1" {
		t.Errorf("first record url = %q", sink.lastResults[0].DetailURL)
	}
	if sink.lastDetails[0].URL != sink.lastResults[0].DetailURL {
		t.Errorf("detail record url %q != result url %q", sink.lastDetails[0].URL, sink.lastResults[0].DetailURL)
	}
	if sink.lastDetails[0].Title != "公告1" {
		t.Errorf("detail title = %q", sink.lastDetails[0].Title)
	}
}

// TestCrawlWithoutDetails tests that extractDetails=false skips detail
// fetching entirely.
func TestCrawlWithoutDetails(t *testing.T) {
	t.Parallel()

	fake := newCrawlFake(t)
	sink := &fakeSink{}
	c := newTestCrawler(fake, sink, pager.New(fake), WithMaxPages(2), WithExtractDetails(false))

	result, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.SearchResults) != 8 {
		t.Errorf("search results = %d, want 8", len(result.SearchResults))
	}
	if len(result.DetailRecords) != 0 {
		t.Errorf("detail records = %d, want 0", len(result.DetailRecords))
	}
}

// TestCrawlMaxPagesCap tests that the page cap stops traversal early.
func TestCrawlMaxPagesCap(t *testing.T) {
	t.Parallel()

	fake := newCrawlFake(t)
	sink := &fakeSink{}
	c := newTestCrawler(fake, sink, pager.New(fake), WithMaxPages(1), WithExtractDetails(false))

	result, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.SearchResults) != 5 {
		t.Errorf("search results = %d, want the 5 rows of page one", len(result.SearchResults))
	}
	if result.PagesVisited != 1 {
		t.Errorf("pages visited = %d, want 1", result.PagesVisited)
	}
}

// TestCrawlSkipsUnresolvableRows tests recoverable-row semantics: dead
// rows are counted and skipped, the page is never aborted.
func TestCrawlSkipsUnresolvableRows(t *testing.T) {
	t.Parallel()

	fake := sessiontest.New()
	fake.AddPage(testSearchURL, searchPage)
	rows := anchorRow(1) + `<tr>
		<td>莆田市</td><td>询价</td><td>医院九</td>
		<td></td>
		<td>2024-04-09 10:00:00</td>
	</tr>` + anchorRow(2)
	fake.AddPage("https://example.test/detail/1", detailPage(1))
	fake.AddPage("https://example.test/detail/2", detailPage(2))
	fake.OnClick("button.el-button", func(f *sessiontest.Fake) error {
		f.SetCurrent(listingPage(rows, true))
		return nil
	})

	sink := &fakeSink{}
	c := newTestCrawler(fake, sink, pager.New(fake), WithExtractDetails(false))

	result, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.SearchResults) != 2 {
		t.Errorf("search results = %d, want 2", len(result.SearchResults))
	}
	if result.RowsSkipped != 1 {
		t.Errorf("rows skipped = %d, want 1", result.RowsSkipped)
	}
}

// TestCrawlCancellation tests that an interrupt at the page loop still
// produces a final flush of partial data.
func TestCrawlCancellation(t *testing.T) {
	t.Parallel()

	fake := newCrawlFake(t)
	ctx, cancel := context.WithCancel(context.Background())

	// Cancel during the first pagination transition so the loop's next
	// iteration observes it.
	fake.OnClick("button.btn-next", func(f *sessiontest.Fake) error {
		cancel()
		f.SetCurrent(listingPage(anchorRow(6), true))
		return nil
	})

	sink := &fakeSink{}
	c := newTestCrawler(fake, sink, pager.New(fake), WithMaxPages(2), WithExtractDetails(false))

	result, err := c.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(result.SearchResults) != 5 {
		t.Errorf("partial results = %d, want 5", len(result.SearchResults))
	}
	if sink.flushes != 1 {
		t.Errorf("flushes = %d, want the final flush despite cancellation", sink.flushes)
	}
}

// TestCrawlCaptchaDemandNotice tests that a post-gate captcha demand is
// surfaced as a failed query attempt.
func TestCrawlCaptchaDemandNotice(t *testing.T) {
	t.Parallel()

	fake := sessiontest.New()
	fake.AddPage(testSearchURL, searchPage)
	fake.OnClick("button.el-button", func(f *sessiontest.Fake) error {
		f.SetCurrent(`<html><body>
			<input placeholder="请输入验证码">
			<div>请完成上方验证码操作</div>
			<table><tbody><tr><td>占位</td></tr></tbody></table>
		</body></html>`)
		return nil
	})

	sink := &fakeSink{}
	c := newTestCrawler(fake, sink, pager.New(fake))

	_, err := c.Run(context.Background())
	if !errors.Is(err, ErrCaptchaUnverified) {
		t.Fatalf("expected ErrCaptchaUnverified, got %v", err)
	}
	if sink.flushes != 1 {
		t.Errorf("flushes = %d, want the final flush on failure", sink.flushes)
	}
}

// TestCrawlPaginationFailureKeepsPartialData tests recoverable-page
// semantics: a stuck transition stops the crawl with data intact.
func TestCrawlPaginationFailureKeepsPartialData(t *testing.T) {
	t.Parallel()

	fake := sessiontest.New()
	fake.AddPage(testSearchURL, searchPage)
	var pageOne string
	for i := 1; i <= 5; i++ {
		pageOne += anchorRow(i)
	}
	fake.OnClick("button.el-button", func(f *sessiontest.Fake) error {
		f.SetCurrent(listingPage(pageOne, false))
		return nil
	})
	// The next control empties the table and nothing re-populates it.
	fake.OnClick("button.btn-next", func(f *sessiontest.Fake) error {
		f.SetCurrent(listingPage("", false))
		return nil
	})

	sink := &fakeSink{}
	w := pager.New(fake, pager.WithTableWait(0))
	c := newTestCrawler(fake, sink, w, WithMaxPages(5), WithExtractDetails(false), WithTableWait(0))

	result, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.SearchResults) != 5 {
		t.Errorf("partial results = %d, want 5", len(result.SearchResults))
	}
	if sink.flushes != 1 {
		t.Errorf("flushes = %d, want 1", sink.flushes)
	}
}
