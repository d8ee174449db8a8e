// Package model defines the core data structures used throughout zfcgcrawl.
//
// This package contains the following main types:
//   - SessionState: The CAPTCHA gate's authorization state machine values
//   - SearchResultRecord: One resolved row of the paginated results table
//   - DetailRecord: Structured fields extracted from one detail document
//   - ContractInfo: Optional contract fields present on contract notices
//   - PageCursor: The pagination walker's position within the result set
//   - CrawlResult: The accumulated output of one crawl run
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. Multiple packages (gate, resolver, extractor, crawler, sink)
// need to use these types, so centralizing them prevents import cycles.
//
// The models are designed to be serializable to JSON for sink output and
// database storage.
package model
