// Package pager drives page-by-page traversal of the portal's paginated
// result table.
//
// The pagination controls are Element UI widgets: a "共 N 页" label, a
// numbered pager list, a next button that gains an is-disabled class on
// the last page, and a page-number input with a go control. Every read
// has a fallback (label, then last pager item, then 1) and every
// transition is a bounded wait on the table re-populating; expiry is
// reported as a recoverable failure, never thrown away as fatal.
package pager
