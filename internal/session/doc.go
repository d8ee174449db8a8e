// Package session defines the renderable-document-session capability the
// crawl engine drives.
//
// The engine never constructs or configures a session: acquiring a browser
// and pointing it at the portal belongs to the caller (see the browser
// package for the chromedp implementation, and sessiontest for a
// scriptable fake). Everything the engine needs from a live page is
// expressed through the Session and Element interfaces so the gate,
// resolver, walker, and orchestrator stay independent of any driver.
//
// Design decision: Elements are handles, not snapshots. Text, attributes,
// and descendants are read on demand because the target site re-renders
// its table between pagination transitions, and a stale snapshot would
// hide that.
package session
