package sessiontest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"zfcgcrawl/internal/session"
)

// Fake is a scriptable session.Session backed by static HTML pages.
// It is not safe for concurrent use, matching the single-threaded
// ownership contract of the real session.
type Fake struct {
	// pages maps URLs to HTML documents.
	pages map[string]string

	// current is the URL of the focused document.
	current string

	// doc is the parsed focused document.
	doc *goquery.Document

	// history records visited URLs for Back support.
	history []string

	// clickHandlers maps CSS selectors to scripted side effects. When a
	// clicked element matches a selector, its handler runs.
	clickHandlers map[string]func(f *Fake) error

	// navTargets maps CSS selectors to scripted ClickAndDetect outcomes.
	navTargets map[string]session.Navigation

	// ops counts every call that touches the session. Tests use it to
	// prove a code path never contacted the document session.
	ops int

	// Lost simulates a permanently dead browsing context. When set, every
	// call fails with session.ErrSessionLost.
	Lost bool
}

// New creates a Fake with no pages loaded.
func New() *Fake {
	return &Fake{
		pages:         make(map[string]string),
		clickHandlers: make(map[string]func(f *Fake) error),
		navTargets:    make(map[string]session.Navigation),
	}
}

// AddPage registers an HTML document under a URL.
func (f *Fake) AddPage(url, html string) {
	f.pages[url] = html
}

// SetCurrent replaces the focused document's HTML in place, keeping the
// current URL. Click handlers use it to simulate a re-rendered table.
func (f *Fake) SetCurrent(html string) {
	f.pages[f.current] = html
	f.doc = parse(html)
}

// OnClick registers a side effect for clicks on elements matching the
// CSS selector.
func (f *Fake) OnClick(selector string, handler func(f *Fake) error) {
	f.clickHandlers[selector] = handler
}

// OnClickNavigate scripts a ClickAndDetect outcome for elements matching
// the CSS selector. The destination URL must have been registered with
// AddPage.
func (f *Fake) OnClickNavigate(selector string, kind session.NavigationKind, url string) {
	f.navTargets[selector] = session.Navigation{Kind: kind, URL: url}
}

// Ops returns how many calls have touched the session.
func (f *Fake) Ops() int {
	return f.ops
}

// CurrentHTML returns the focused document's registered HTML source.
func (f *Fake) CurrentHTML() string {
	return f.pages[f.current]
}

func parse(html string) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		// Static test HTML; a parse failure is a broken test, not a
		// runtime condition.
		panic(fmt.Sprintf("sessiontest: unparsable page: %v", err))
	}
	return doc
}

func (f *Fake) touch() error {
	f.ops++
	if f.Lost {
		return session.ErrSessionLost
	}
	return nil
}

// Navigate loads a registered page.
func (f *Fake) Navigate(_ context.Context, url string) error {
	if err := f.touch(); err != nil {
		return err
	}
	html, ok := f.pages[url]
	if !ok {
		return fmt.Errorf("sessiontest: no page registered for %q", url)
	}
	if f.current != "" {
		f.history = append(f.history, f.current)
	}
	f.current = url
	f.doc = parse(html)
	return nil
}

// CurrentURL returns the focused document's URL.
func (f *Fake) CurrentURL(_ context.Context) (string, error) {
	if err := f.touch(); err != nil {
		return "", err
	}
	return f.current, nil
}

// FindOne returns the first match in the focused document.
func (f *Fake) FindOne(_ context.Context, selector string) (session.Element, error) {
	if err := f.touch(); err != nil {
		return nil, err
	}
	sel := f.doc.Find(selector).First()
	if sel.Length() == 0 {
		return nil, session.ErrNotFound
	}
	return &fakeElement{fake: f, sel: sel}, nil
}

// FindAll returns all matches in the focused document.
func (f *Fake) FindAll(_ context.Context, selector string) ([]session.Element, error) {
	if err := f.touch(); err != nil {
		return nil, err
	}
	var els []session.Element
	f.doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		els = append(els, &fakeElement{fake: f, sel: s})
	})
	return els, nil
}

// WaitUntil polls the predicate until it holds or the timeout expires.
// The fake polls without sleeping first so scripted pages that are already
// in the desired state succeed immediately.
func (f *Fake) WaitUntil(ctx context.Context, pred func(ctx context.Context) (bool, error), timeout time.Duration) error {
	if err := f.touch(); err != nil {
		return err
	}
	deadline := time.Now().Add(timeout)
	for {
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
		time.Sleep(time.Millisecond)
	}
}

// PageText returns the focused document's visible text.
func (f *Fake) PageText(_ context.Context) (string, error) {
	if err := f.touch(); err != nil {
		return "", err
	}
	return f.doc.Text(), nil
}

// PageMarkup returns the focused document's HTML source.
func (f *Fake) PageMarkup(_ context.Context) (string, error) {
	if err := f.touch(); err != nil {
		return "", err
	}
	return f.pages[f.current], nil
}

// Back pops one history entry.
func (f *Fake) Back(_ context.Context) error {
	if err := f.touch(); err != nil {
		return err
	}
	if len(f.history) == 0 {
		return fmt.Errorf("sessiontest: no history to go back to")
	}
	prev := f.history[len(f.history)-1]
	f.history = f.history[:len(f.history)-1]
	f.current = prev
	f.doc = parse(f.pages[prev])
	return nil
}

// ClickAndDetect consults the scripted navigation outcomes. An element
// with no scripted outcome behaves like a dead click: the wait expires.
func (f *Fake) ClickAndDetect(ctx context.Context, el session.Element, _ time.Duration) (*session.Navigation, error) {
	if err := f.touch(); err != nil {
		return nil, err
	}
	fe, ok := el.(*fakeElement)
	if !ok {
		return nil, fmt.Errorf("sessiontest: foreign element %T", el)
	}
	for selector, nav := range f.navTargets {
		if fe.sel.Is(selector) {
			if err := f.Navigate(ctx, nav.URL); err != nil {
				return nil, err
			}
			result := nav
			return &result, nil
		}
	}
	return nil, session.ErrWaitTimeout
}

// Restore undoes a ClickAndDetect by going back in history. Both
// navigation kinds end up on the prior document in the fake.
func (f *Fake) Restore(ctx context.Context, _ *session.Navigation) error {
	return f.Back(ctx)
}

// fakeElement wraps a goquery selection as a session.Element.
type fakeElement struct {
	fake *Fake
	sel  *goquery.Selection
}

// Text returns the element's visible text, trimmed.
func (e *fakeElement) Text(_ context.Context) (string, error) {
	if err := e.fake.touch(); err != nil {
		return "", err
	}
	return strings.TrimSpace(e.sel.Text()), nil
}

// Attr returns the named attribute and whether it exists.
func (e *fakeElement) Attr(_ context.Context, name string) (string, bool, error) {
	if err := e.fake.touch(); err != nil {
		return "", false, err
	}
	v, ok := e.sel.Attr(name)
	return v, ok, nil
}

// Markup returns the element's outer HTML.
func (e *fakeElement) Markup(_ context.Context) (string, error) {
	if err := e.fake.touch(); err != nil {
		return "", err
	}
	return goquery.OuterHtml(e.sel)
}

// SetValue records the value in the element's value attribute.
func (e *fakeElement) SetValue(_ context.Context, value string) error {
	if err := e.fake.touch(); err != nil {
		return err
	}
	e.sel.SetAttr("value", value)
	return nil
}

// Click runs the first scripted handler whose selector matches.
func (e *fakeElement) Click(_ context.Context) error {
	if err := e.fake.touch(); err != nil {
		return err
	}
	for selector, handler := range e.fake.clickHandlers {
		if e.sel.Is(selector) {
			return handler(e.fake)
		}
	}
	return nil
}

// FindOne returns the first matching descendant.
func (e *fakeElement) FindOne(_ context.Context, selector string) (session.Element, error) {
	if err := e.fake.touch(); err != nil {
		return nil, err
	}
	sel := e.sel.Find(selector).First()
	if sel.Length() == 0 {
		return nil, session.ErrNotFound
	}
	return &fakeElement{fake: e.fake, sel: sel}, nil
}

// FindAll returns all matching descendants in document order.
func (e *fakeElement) FindAll(_ context.Context, selector string) ([]session.Element, error) {
	if err := e.fake.touch(); err != nil {
		return nil, err
	}
	var els []session.Element
	e.sel.Find(selector).Each(func(_ int, s *goquery.Selection) {
		els = append(els, &fakeElement{fake: e.fake, sel: s})
	})
	return els, nil
}

// Prompter is a scripted session.Prompter feeding canned lines.
type Prompter struct {
	// Lines are returned one per ReadLine call.
	Lines []string

	// Prompts records every prompt shown.
	Prompts []string

	next int
}

// ReadLine returns the next scripted line.
func (p *Prompter) ReadLine(prompt string) (string, error) {
	p.Prompts = append(p.Prompts, prompt)
	if p.next >= len(p.Lines) {
		return "", fmt.Errorf("sessiontest: prompter exhausted after %d lines", len(p.Lines))
	}
	line := p.Lines[p.next]
	p.next++
	return line, nil
}
