package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"zfcgcrawl/internal/model"
)

// summaryDurationUnit is the rounding granularity for displayed durations.
const summaryDurationUnit = time.Second

// SimpleWriter outputs human-readable text summaries.
// This format is designed for terminal display.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type SimpleWriter struct {
	baseWriter

	// verbose enables the per-method breakdown section.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output with the method breakdown.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the summary in human-readable format.
func (w *SimpleWriter) Write(summary *model.CrawlSummary) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, summary)
	w.writeCounts(&sb, summary)
	if w.verbose {
		w.writeMethods(&sb, summary)
	}
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the summary header with run information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, summary *model.CrawlSummary) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                         CRAWL SUMMARY\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Search Unit:    %s\n", summary.UnitName))
	sb.WriteString(fmt.Sprintf("Started:        %s\n", summary.StartedAt.Format("2006-01-02 15:04:05 MST")))
	sb.WriteString(fmt.Sprintf("Duration:       %s\n", summary.Duration.Round(summaryDurationUnit)))

	if summary.Error != "" {
		sb.WriteString(fmt.Sprintf("Status:         ERROR - %s\n", summary.Error))
	} else {
		sb.WriteString("Status:         Complete\n")
	}
	sb.WriteString("\n")
}

// writeCounts writes the record count section.
func (w *SimpleWriter) writeCounts(sb *strings.Builder, summary *model.CrawlSummary) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("RESULTS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("  Pages visited:   %d\n", summary.PagesVisited))
	sb.WriteString(fmt.Sprintf("  Search results:  %d\n", summary.ResultCount))
	sb.WriteString(fmt.Sprintf("  Detail records:  %d\n", summary.DetailCount))
	sb.WriteString(fmt.Sprintf("  Contracts:       %d\n", summary.ContractCount))
	sb.WriteString(fmt.Sprintf("  Attachments:     %d\n", summary.AttachmentCount))
	sb.WriteString(fmt.Sprintf("  Rows skipped:    %d\n", summary.RowsSkipped))
	sb.WriteString("\n")
}

// writeMethods writes the per-method breakdown.
func (w *SimpleWriter) writeMethods(sb *strings.Builder, summary *model.CrawlSummary) {
	if len(summary.MethodCounts) == 0 {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("PROCUREMENT METHODS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	for _, method := range summary.SortedMethods() {
		sb.WriteString(fmt.Sprintf("  %-20s %d\n", method, summary.MethodCounts[method]))
	}
	sb.WriteString("\n")
}

// writeFooter writes the summary footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
