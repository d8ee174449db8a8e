// Package database provides SQLite-based storage for crawl records.
//
// The database acts both as a queryable archive of past crawls and as a
// flush target: CrawlDB implements the crawler's Flush contract, so
// checkpoints land in SQLite alongside the file outputs. Records are
// keyed by detail URL and upserted, so repeated flushes of growing
// record sequences stay idempotent.
//
// We use modernc.org/sqlite, a pure Go SQLite implementation, to avoid
// CGO dependencies and simplify cross-compilation.
package database
