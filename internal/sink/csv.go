package sink

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"zfcgcrawl/internal/model"
)

// resultsCSVFile holds search result records in spreadsheet form.
const resultsCSVFile = "search_results.csv"

// utf8BOM prefixes the CSV so spreadsheet applications detect UTF-8 and
// render the CJK columns correctly.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// csvHeader matches the JSON field names of SearchResultRecord.
var csvHeader = []string{
	"district",
	"procurement_method",
	"procurement_unit",
	"title",
	"detail_url",
	"publish_time",
	"crawl_time",
}

// CSVSink writes search results as a CSV file in a directory. Detail
// records have no tabular shape and are left to the JSON outputs.
type CSVSink struct {
	dir string
}

// NewCSV creates a CSVSink writing into dir, creating it if needed.
func NewCSV(dir string) (*CSVSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory %q: %w", dir, err)
	}
	return &CSVSink{dir: dir}, nil
}

// Flush rewrites the CSV with the full result sequence. An empty
// sequence leaves the previous file untouched.
func (s *CSVSink) Flush(_ context.Context, results []model.SearchResultRecord, _ []model.DetailRecord) error {
	if len(results) == 0 {
		return nil
	}

	path := filepath.Join(s.dir, resultsCSVFile)
	tmp, err := os.CreateTemp(s.dir, resultsCSVFile+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(utf8BOM); err != nil {
		tmp.Close()
		return fmt.Errorf("write byte order mark: %w", err)
	}

	w := csv.NewWriter(tmp)
	if err := w.Write(csvHeader); err != nil {
		tmp.Close()
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range results {
		record := []string{
			r.District,
			r.ProcurementMethod,
			r.ProcurementUnit,
			r.Title,
			r.DetailURL,
			r.PublishTime,
			r.CrawlTime.Format(time.RFC3339),
		}
		if err := w.Write(record); err != nil {
			tmp.Close()
			return fmt.Errorf("write csv record: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("flush csv records: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace %s: %w", resultsCSVFile, err)
	}
	return nil
}
