// Package crawler coordinates one crawl of the procurement portal: a
// single search query and its paginated results.
//
// # Architecture
//
// The Crawler type owns the control loop. It drives its collaborators in
// a fixed order: the gate authorizes the session, the walker traverses
// pages, the resolver turns each row into a record, the extractor pulls
// structured fields from detail documents, and accumulated records are
// flushed to the sink.
//
// # Control flow
//
//  1. Navigate to the search page, fill the unit criterion, pass the
//     CAPTCHA gate (which submits the query).
//  2. Loop over pages up to the effective cap: resolve every row,
//     optionally fetch and extract details, advance pagination.
//  3. Flush accumulated records to the sink every few pages and
//     unconditionally at loop exit, success or failure.
//
// # Failure semantics
//
// Row failures are logged and skipped; a pagination failure stops the
// crawl gracefully with partial data; only a lost browsing session
// terminates with an error, and even then the final flush runs first.
// Cancellation is honored at the top of the per-page loop.
//
// # Concurrency
//
// One crawler owns one session and runs on one goroutine. The record
// slices are mutated only by that control thread, so no locking exists
// here. Parallelizing detail fetches would require a session, gate, and
// walker per worker plus a concurrency-safe accumulator.
package crawler
