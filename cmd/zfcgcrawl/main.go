// Package main provides the entry point for the zfcgcrawl CLI.
//
// zfcgcrawl collects government procurement announcements from the Fujian
// provincial procurement portal. It drives a real browser session through
// the portal's CAPTCHA gate, walks the paginated result table, and writes
// the collected records as JSON, CSV, and optionally SQLite.
//
// Usage:
//
//	zfcgcrawl crawl
//	zfcgcrawl crawl --unit 学校 --max-pages 5
//
// See --help for all available options.
package main

// main is the entry point for zfcgcrawl.
func main() {
	Execute()
}
