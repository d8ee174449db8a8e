package session

import (
	"context"
	"time"
)

// Element is a handle to one rendered DOM element.
type Element interface {
	// Text returns the element's visible text, trimmed.
	Text(ctx context.Context) (string, error)

	// Attr returns the named attribute's value. The boolean reports
	// whether the attribute is present at all; an empty present value and
	// an absent attribute are different answers.
	Attr(ctx context.Context, name string) (string, bool, error)

	// Markup returns the element's outer HTML.
	Markup(ctx context.Context) (string, error)

	// SetValue replaces the element's input value, clearing any prior
	// content first.
	SetValue(ctx context.Context, value string) error

	// Click activates the element.
	Click(ctx context.Context) error

	// FindOne returns the first descendant matching the CSS selector,
	// or ErrNotFound.
	FindOne(ctx context.Context, selector string) (Element, error)

	// FindAll returns all descendants matching the CSS selector, in
	// document order. An empty result is not an error.
	FindAll(ctx context.Context, selector string) ([]Element, error)
}

// NavigationKind discriminates what a synthetic click did to the session.
type NavigationKind int

const (
	// NavNewContext means the click opened a new browsing context (tab or
	// window) and the session is now focused on it.
	NavNewContext NavigationKind = iota

	// NavSameContext means the click navigated the current context to a
	// new URL.
	NavSameContext
)

// Navigation is the discriminated result of ClickAndDetect. Callers
// extract whatever they need from the detail context, then hand the value
// back to Restore so the session returns to the listing page.
type Navigation struct {
	// Kind reports whether a new context was opened or the current one
	// navigated.
	Kind NavigationKind

	// URL is the detail document's URL in the destination context.
	URL string
}

// Session is the renderable document session the crawl engine drives.
// One session owns one focused document view; the engine assumes
// single-threaded ownership and never calls it concurrently.
type Session interface {
	// Navigate loads the given URL in the current context.
	Navigate(ctx context.Context, url string) error

	// CurrentURL returns the focused context's URL.
	CurrentURL(ctx context.Context) (string, error)

	// FindOne returns the first element matching the CSS selector, or
	// ErrNotFound.
	FindOne(ctx context.Context, selector string) (Element, error)

	// FindAll returns all elements matching the CSS selector, in document
	// order. An empty result is not an error.
	FindAll(ctx context.Context, selector string) ([]Element, error)

	// WaitUntil polls the predicate until it reports true or the timeout
	// expires, returning ErrWaitTimeout on expiry. Predicate errors other
	// than ErrNotFound are surfaced immediately.
	WaitUntil(ctx context.Context, pred func(ctx context.Context) (bool, error), timeout time.Duration) error

	// PageText returns the focused document's visible text.
	PageText(ctx context.Context) (string, error)

	// PageMarkup returns the focused document's HTML.
	PageMarkup(ctx context.Context) (string, error)

	// Back navigates the current context one step back in history.
	Back(ctx context.Context) error

	// ClickAndDetect activates el and watches for either a new browsing
	// context or a URL change in the current one, within the timeout.
	// On success the session is focused on the destination document.
	// Expiry of both waits returns ErrWaitTimeout with the session still
	// on the original document.
	ClickAndDetect(ctx context.Context, el Element, timeout time.Duration) (*Navigation, error)

	// Restore returns the session to the document that was focused before
	// ClickAndDetect: closing the new context, or navigating back,
	// depending on nav.Kind.
	Restore(ctx context.Context, nav *Navigation) error
}

// Prompter is the blocking human input channel. It is used only by the
// CAPTCHA gate; the wait is unbounded by design because a human is on the
// other end.
type Prompter interface {
	// ReadLine shows the prompt and blocks until one line of input is
	// available.
	ReadLine(prompt string) (string, error)
}
