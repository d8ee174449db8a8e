package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"zfcgcrawl/internal/model"
)

// MarkdownWriter outputs summaries in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the summary in Markdown format.
func (w *MarkdownWriter) Write(summary *model.CrawlSummary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, summary)
	w.writeCounts(md, summary)
	w.writeMethods(md, summary)
	w.writeAlert(md, summary)

	return len(md.String()), md.Build()
}

// writeHeader writes the summary header with run information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, summary *model.CrawlSummary) {
	md.H1("Procurement Crawl Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Search Unit", summary.UnitName},
			{"Started", summary.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Duration", summary.Duration.Round(summaryDurationUnit).String()},
			{"Status", w.getStatusText(summary)},
		},
	})
	md.PlainText("")
}

// getStatusText returns the status text based on summary state.
func (w *MarkdownWriter) getStatusText(summary *model.CrawlSummary) string {
	if summary.Error != "" {
		return "❌ Error - " + summary.Error
	}
	return "✅ Complete"
}

// writeCounts writes the record count section.
func (w *MarkdownWriter) writeCounts(md *markdown.Markdown, summary *model.CrawlSummary) {
	md.H2("Results")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Count"},
		Rows: [][]string{
			{"Pages visited", strconv.Itoa(summary.PagesVisited)},
			{"Search results", strconv.Itoa(summary.ResultCount)},
			{"Detail records", strconv.Itoa(summary.DetailCount)},
			{"Contracts", strconv.Itoa(summary.ContractCount)},
			{"Attachments", strconv.Itoa(summary.AttachmentCount)},
			{"Rows skipped", strconv.Itoa(summary.RowsSkipped)},
		},
	})
	md.PlainText("")
}

// writeMethods writes the procurement method breakdown with a pie chart.
func (w *MarkdownWriter) writeMethods(md *markdown.Markdown, summary *model.CrawlSummary) {
	if len(summary.MethodCounts) == 0 {
		return
	}

	md.H2("Procurement Methods")
	md.PlainText("")

	methods := summary.SortedMethods()
	rows := make([][]string, len(methods))
	for i, m := range methods {
		rows[i] = []string{m, strconv.Itoa(summary.MethodCounts[m])}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Method", "Count"},
		Rows:   rows,
	})
	md.PlainText("")

	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Procurement Method Distribution"),
		piechart.WithShowData(true),
	)
	for _, m := range methods {
		chart.LabelAndIntValue(m, uint64(summary.MethodCounts[m]))
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an appropriate alert based on the run outcome.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, summary *model.CrawlSummary) {
	switch {
	case summary.Error != "":
		md.Cautionf("The crawl ended with an error: %s. Records collected before the failure were flushed.", summary.Error)
	case summary.RowsSkipped > 0:
		md.Warningf("%d listing row(s) could not be resolved and were skipped.", summary.RowsSkipped)
	case summary.ResultCount == 0:
		md.Note("No records matched the search criterion.")
	default:
		md.Tip("All listing rows resolved successfully.")
	}
	md.PlainText("")
}
