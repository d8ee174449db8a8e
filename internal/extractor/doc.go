// Package extractor pulls structured fields out of a rendered detail
// document.
//
// Detail pages on the portal are free-form announcement text, so the
// extractor works by pattern: the first announcement-flagged heading, the
// first timestamp-shaped substring, the first content-flagged container,
// label-anchored contract fields, and every document-typed attachment
// link. Each step degrades independently to its empty value; a partially
// extractable page still yields a record.
package extractor
