// Package report renders crawl summaries in multiple output formats.
//
// Three formats are supported: plain text for terminal display,
// Markdown for documentation and sharing, and JSON for machine
// consumption. A MultiWriter fans one summary out to several formats
// at once, which the CLI uses to print to the terminal while also
// writing a report file.
package report
