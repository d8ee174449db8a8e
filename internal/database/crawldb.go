package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"zfcgcrawl/internal/model"
)

// CrawlDB provides SQLite-based storage for crawl records.
//
// Design decision: We use a single database file per output directory
// rather than one per crawl run. Repeated runs against the same unit
// upsert into the same tables, so the database accumulates the full
// record history and duplicate announcements collapse on detail URL.
type CrawlDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures CrawlDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	// This is recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a CrawlDB at the specified directory.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*CrawlDB, error) {
	dbPath := filepath.Join(dbDir, "zfcgcrawl.db")

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite connection string: mode=rw prevents creating new
	// files, mode=rwc allows creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cdb := &CrawlDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := cdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return cdb, nil
}

// Close closes the database connection.
func (cdb *CrawlDB) Close() error {
	return cdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (cdb *CrawlDB) createTables() error {
	schema := `
	-- Search results store one row per listing-table row
	CREATE TABLE IF NOT EXISTS search_results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		district TEXT,
		procurement_method TEXT,
		procurement_unit TEXT,
		title TEXT NOT NULL,
		detail_url TEXT NOT NULL UNIQUE,
		publish_time TEXT,
		crawl_time DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_results_unit ON search_results(procurement_unit);
	CREATE INDEX IF NOT EXISTS idx_results_publish ON search_results(publish_time);

	-- Detail records store extracted detail documents keyed by URL
	CREATE TABLE IF NOT EXISTS detail_records (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		url TEXT NOT NULL UNIQUE,
		title TEXT,
		publish_time TEXT,
		content TEXT,
		contract_json TEXT,
		crawl_time DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_details_publish ON detail_records(publish_time);

	-- Attachments belong to a detail record and are replaced on upsert
	CREATE TABLE IF NOT EXISTS attachments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		detail_url TEXT NOT NULL,
		name TEXT,
		url TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_attachments_detail ON attachments(detail_url);

	-- Checkpoints record every flush for crash diagnosis
	CREATE TABLE IF NOT EXISTS checkpoints (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		saved_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		result_count INTEGER NOT NULL,
		detail_count INTEGER NOT NULL
	);
	`

	_, err := cdb.db.ExecContext(context.Background(), schema)
	return err
}

// Flush upserts the full record sequences and records a checkpoint row.
// It satisfies the crawler's Sink contract.
func (cdb *CrawlDB) Flush(ctx context.Context, results []model.SearchResultRecord, details []model.DetailRecord) error {
	if err := cdb.UpsertSearchResults(ctx, results); err != nil {
		return err
	}
	if err := cdb.UpsertDetailRecords(ctx, details); err != nil {
		return err
	}
	return cdb.recordCheckpoint(ctx, len(results), len(details))
}

// UpsertSearchResults inserts or updates search results keyed by detail URL.
func (cdb *CrawlDB) UpsertSearchResults(ctx context.Context, results []model.SearchResultRecord) error {
	if len(results) == 0 {
		return nil
	}

	tx, err := cdb.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	query := `
	INSERT INTO search_results (district, procurement_method, procurement_unit, title, detail_url, publish_time, crawl_time)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(detail_url) DO UPDATE SET
		district = excluded.district,
		procurement_method = excluded.procurement_method,
		procurement_unit = excluded.procurement_unit,
		title = excluded.title,
		publish_time = excluded.publish_time,
		crawl_time = excluded.crawl_time
	`
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, r := range results {
		_, err := stmt.ExecContext(ctx,
			r.District,
			r.ProcurementMethod,
			r.ProcurementUnit,
			r.Title,
			r.DetailURL,
			r.PublishTime,
			r.CrawlTime.UTC().Format("2006-01-02 15:04:05"),
		)
		if err != nil {
			return fmt.Errorf("failed to upsert search result %q: %w", r.DetailURL, err)
		}
	}

	return tx.Commit()
}

// UpsertDetailRecords inserts or updates detail records keyed by URL.
// Each record's attachments are replaced wholesale.
func (cdb *CrawlDB) UpsertDetailRecords(ctx context.Context, details []model.DetailRecord) error {
	if len(details) == 0 {
		return nil
	}

	tx, err := cdb.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	upsert := `
	INSERT INTO detail_records (url, title, publish_time, content, contract_json, crawl_time)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(url) DO UPDATE SET
		title = excluded.title,
		publish_time = excluded.publish_time,
		content = excluded.content,
		contract_json = excluded.contract_json,
		crawl_time = excluded.crawl_time
	`

	for _, d := range details {
		var contractJSON sql.NullString
		if d.ContractInfo != nil {
			data, err := json.Marshal(d.ContractInfo)
			if err != nil {
				return fmt.Errorf("failed to serialize contract info: %w", err)
			}
			contractJSON = sql.NullString{String: string(data), Valid: true}
		}

		_, err := tx.ExecContext(ctx, upsert,
			d.URL,
			d.Title,
			d.PublishTime,
			d.Content,
			contractJSON,
			d.CrawlTime.UTC().Format("2006-01-02 15:04:05"),
		)
		if err != nil {
			return fmt.Errorf("failed to upsert detail record %q: %w", d.URL, err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM attachments WHERE detail_url = ?`, d.URL); err != nil {
			return fmt.Errorf("failed to clear attachments: %w", err)
		}
		for _, a := range d.Attachments {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO attachments (detail_url, name, url) VALUES (?, ?, ?)`,
				d.URL, a.Name, a.URL,
			)
			if err != nil {
				return fmt.Errorf("failed to insert attachment: %w", err)
			}
		}
	}

	return tx.Commit()
}

// GetSearchResult retrieves a search result by detail URL.
// Returns nil without error when no row matches.
func (cdb *CrawlDB) GetSearchResult(ctx context.Context, detailURL string) (*model.SearchResultRecord, error) {
	query := `
	SELECT district, procurement_method, procurement_unit, title, detail_url, publish_time, crawl_time
	FROM search_results
	WHERE detail_url = ?
	`

	var record model.SearchResultRecord
	var crawlTime string

	err := cdb.db.QueryRowContext(ctx, query, detailURL).Scan(
		&record.District,
		&record.ProcurementMethod,
		&record.ProcurementUnit,
		&record.Title,
		&record.DetailURL,
		&record.PublishTime,
		&crawlTime,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get search result: %w", err)
	}

	record.CrawlTime = parseTimestamp(crawlTime)
	return &record, nil
}

// ListSearchResults returns all stored search results ordered by publish time.
func (cdb *CrawlDB) ListSearchResults(ctx context.Context) ([]model.SearchResultRecord, error) {
	query := `
	SELECT district, procurement_method, procurement_unit, title, detail_url, publish_time, crawl_time
	FROM search_results
	ORDER BY publish_time DESC
	`

	rows, err := cdb.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list search results: %w", err)
	}
	defer rows.Close()

	var results []model.SearchResultRecord
	for rows.Next() {
		var record model.SearchResultRecord
		var crawlTime string

		err := rows.Scan(
			&record.District,
			&record.ProcurementMethod,
			&record.ProcurementUnit,
			&record.Title,
			&record.DetailURL,
			&record.PublishTime,
			&crawlTime,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan search result: %w", err)
		}

		record.CrawlTime = parseTimestamp(crawlTime)
		results = append(results, record)
	}

	return results, rows.Err()
}

// GetDetailRecord retrieves a detail record with its attachments by URL.
// Returns nil without error when no row matches.
func (cdb *CrawlDB) GetDetailRecord(ctx context.Context, url string) (*model.DetailRecord, error) {
	query := `
	SELECT url, title, publish_time, content, contract_json, crawl_time
	FROM detail_records
	WHERE url = ?
	`

	var record model.DetailRecord
	var contractJSON sql.NullString
	var crawlTime string

	err := cdb.db.QueryRowContext(ctx, query, url).Scan(
		&record.URL,
		&record.Title,
		&record.PublishTime,
		&record.Content,
		&contractJSON,
		&crawlTime,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get detail record: %w", err)
	}

	record.CrawlTime = parseTimestamp(crawlTime)

	if contractJSON.Valid && contractJSON.String != "" {
		var info model.ContractInfo
		if err := json.Unmarshal([]byte(contractJSON.String), &info); err != nil {
			return nil, fmt.Errorf("failed to parse contract info: %w", err)
		}
		record.ContractInfo = &info
	}

	attachments, err := cdb.attachmentsFor(ctx, url)
	if err != nil {
		return nil, err
	}
	record.Attachments = attachments

	return &record, nil
}

// attachmentsFor loads the attachments belonging to a detail URL.
func (cdb *CrawlDB) attachmentsFor(ctx context.Context, detailURL string) ([]model.Attachment, error) {
	rows, err := cdb.db.QueryContext(ctx,
		`SELECT name, url FROM attachments WHERE detail_url = ? ORDER BY id`, detailURL)
	if err != nil {
		return nil, fmt.Errorf("failed to query attachments: %w", err)
	}
	defer rows.Close()

	var attachments []model.Attachment
	for rows.Next() {
		var a model.Attachment
		if err := rows.Scan(&a.Name, &a.URL); err != nil {
			return nil, fmt.Errorf("failed to scan attachment: %w", err)
		}
		attachments = append(attachments, a)
	}

	return attachments, rows.Err()
}

// CountSearchResults returns the number of stored search results.
func (cdb *CrawlDB) CountSearchResults(ctx context.Context) (int, error) {
	var count int
	if err := cdb.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM search_results`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count search results: %w", err)
	}
	return count, nil
}

// Checkpoint summarizes one recorded flush.
type Checkpoint struct {
	// ID is the unique identifier in the database.
	ID int64

	// SavedAt is when the flush happened.
	SavedAt time.Time

	// ResultCount is how many search results the flush carried.
	ResultCount int

	// DetailCount is how many detail records the flush carried.
	DetailCount int
}

// recordCheckpoint appends a checkpoint row for one flush.
func (cdb *CrawlDB) recordCheckpoint(ctx context.Context, results, details int) error {
	_, err := cdb.db.ExecContext(ctx,
		`INSERT INTO checkpoints (result_count, detail_count) VALUES (?, ?)`,
		results, details,
	)
	if err != nil {
		return fmt.Errorf("failed to record checkpoint: %w", err)
	}
	return nil
}

// LatestCheckpoint returns the most recent checkpoint, or nil when the
// database has never been flushed.
func (cdb *CrawlDB) LatestCheckpoint(ctx context.Context) (*Checkpoint, error) {
	query := `
	SELECT id, saved_at, result_count, detail_count
	FROM checkpoints
	ORDER BY id DESC
	LIMIT 1
	`

	var cp Checkpoint
	var savedAt string

	err := cdb.db.QueryRowContext(ctx, query).Scan(&cp.ID, &savedAt, &cp.ResultCount, &cp.DetailCount)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get checkpoint: %w", err)
	}

	cp.SavedAt = parseTimestamp(savedAt)
	return &cp, nil
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// SQLite may return timestamps in different formats depending on configuration.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
