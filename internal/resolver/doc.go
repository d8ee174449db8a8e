// Package resolver turns one listing-table row into its structured
// columns and a usable detail link.
//
// The portal renders the title cell inconsistently: sometimes a plain
// anchor, sometimes a script-bound click handler, sometimes only data
// attributes, and sometimes nothing but text that happens to be
// clickable. The resolver models this as an ordered chain of strategy
// functions, each returning a result or declining, and stops at the
// first success. Exhausting the chain skips the row; it never fails the
// page.
//
// The final strategy performs a synthetic click and watches for either a
// new browsing context or a URL change, captures the detail document's
// markup while it is focused, and restores the listing page before
// returning.
package resolver
