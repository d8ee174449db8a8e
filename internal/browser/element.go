package browser

import (
	"context"
	"strings"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"

	"zfcgcrawl/internal/session"
)

// element wraps a DOM node as a session.Element. Operations address the
// node by its full XPath, so an element handle goes stale once the page
// re-renders; callers re-query after any mutation.
type element struct {
	browser *Browser
	node    *cdp.Node
}

// Text returns the element's visible text, trimmed.
func (e *element) Text(ctx context.Context) (string, error) {
	var text string
	err := e.browser.run(ctx, e.browser.opTimeout,
		chromedp.Text(e.node.FullXPath(), &text, chromedp.BySearch),
	)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// Attr returns the named attribute and whether it exists.
func (e *element) Attr(ctx context.Context, name string) (string, bool, error) {
	var value string
	var ok bool
	err := e.browser.run(ctx, e.browser.opTimeout,
		chromedp.AttributeValue(e.node.FullXPath(), name, &value, &ok, chromedp.BySearch),
	)
	if err != nil {
		return "", false, err
	}
	return value, ok, nil
}

// Markup returns the element's outer HTML.
func (e *element) Markup(ctx context.Context) (string, error) {
	var html string
	err := e.browser.run(ctx, e.browser.opTimeout,
		chromedp.OuterHTML(e.node.FullXPath(), &html, chromedp.BySearch),
	)
	if err != nil {
		return "", err
	}
	return html, nil
}

// SetValue clears the element and types the value. Typing rather than
// setting the DOM property fires the input events the portal's
// framework listens for.
func (e *element) SetValue(ctx context.Context, value string) error {
	xp := e.node.FullXPath()
	return e.browser.run(ctx, e.browser.opTimeout,
		chromedp.SetValue(xp, "", chromedp.BySearch),
		chromedp.SendKeys(xp, value, chromedp.BySearch),
	)
}

// Click dispatches a mouse click on the element.
func (e *element) Click(ctx context.Context) error {
	return e.browser.run(ctx, e.browser.opTimeout, chromedp.MouseClickNode(e.node))
}

// FindOne returns the first matching descendant, or ErrNotFound.
func (e *element) FindOne(ctx context.Context, selector string) (session.Element, error) {
	els, err := e.FindAll(ctx, selector)
	if err != nil {
		return nil, err
	}
	if len(els) == 0 {
		return nil, session.ErrNotFound
	}
	return els[0], nil
}

// FindAll returns all matching descendants in document order.
func (e *element) FindAll(ctx context.Context, selector string) ([]session.Element, error) {
	var nodes []*cdp.Node
	err := e.browser.run(ctx, e.browser.opTimeout,
		chromedp.Nodes(selector, &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0), chromedp.FromNode(e.node)),
	)
	if err != nil {
		return nil, err
	}

	els := make([]session.Element, 0, len(nodes))
	for _, n := range nodes {
		els = append(els, &element{browser: e.browser, node: n})
	}
	return els, nil
}
