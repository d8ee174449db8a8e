package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"zfcgcrawl/internal/model"
)

const (
	// resultsJSONFile holds every search result record.
	resultsJSONFile = "search_results.json"

	// detailsJSONFile holds detail records. It is only written when at
	// least one detail record exists.
	detailsJSONFile = "detail_data.json"
)

// JSONSink writes records as indented JSON documents in a directory.
type JSONSink struct {
	dir string
}

// NewJSON creates a JSONSink writing into dir, creating it if needed.
func NewJSON(dir string) (*JSONSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory %q: %w", dir, err)
	}
	return &JSONSink{dir: dir}, nil
}

// Flush rewrites the JSON outputs with the full record sequences.
func (s *JSONSink) Flush(_ context.Context, results []model.SearchResultRecord, details []model.DetailRecord) error {
	if err := writeJSON(filepath.Join(s.dir, resultsJSONFile), results); err != nil {
		return err
	}
	if len(details) > 0 {
		if err := writeJSON(filepath.Join(s.dir, detailsJSONFile), details); err != nil {
			return err
		}
	}
	return nil
}

// writeJSON encodes v into path via a temp file and rename, so a crash
// mid-write never corrupts the previous checkpoint.
func writeJSON(path string, v any) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		tmp.Close()
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace %s: %w", filepath.Base(path), err)
	}
	return nil
}
