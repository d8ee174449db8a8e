package database

import (
	"context"
	"testing"
	"time"

	"zfcgcrawl/internal/model"
)

func openTestDB(t *testing.T) *CrawlDB {
	t.Helper()

	cdb, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() {
		if err := cdb.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return cdb
}

func TestOpenRequiresExistingDatabase(t *testing.T) {
	t.Parallel()

	opts := Options{CreateIfNotExists: false, EnableWAL: true}
	if _, err := Open(t.TempDir(), opts); err == nil {
		t.Error("expected error opening a missing database without create")
	}
}

func TestUpsertAndGetSearchResult(t *testing.T) {
	t.Parallel()

	cdb := openTestDB(t)
	ctx := context.Background()

	record := model.SearchResultRecord{
		District:          "福州市",
		ProcurementMethod: "公开招标",
		ProcurementUnit:   "某医院",
		Title:             "医疗设备采购公告",
		DetailURL:         "https://example.test/detail/1",
		PublishTime:       "2024-04-01 10:00:00",
		CrawlTime:         time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC),
	}
	if err := cdb.UpsertSearchResults(ctx, []model.SearchResultRecord{record}); err != nil {
		t.Fatalf("UpsertSearchResults: %v", err)
	}

	got, err := cdb.GetSearchResult(ctx, record.DetailURL)
	if err != nil {
		t.Fatalf("GetSearchResult: %v", err)
	}
	if got == nil {
		t.Fatal("GetSearchResult returned nil for a stored record")
	}
	if got.ProcurementUnit != "某医院" || got.Title != record.Title {
		t.Errorf("got %+v", got)
	}
	if got.CrawlTime.IsZero() {
		t.Error("crawl time was not stored")
	}
}

func TestGetSearchResultMissing(t *testing.T) {
	t.Parallel()

	cdb := openTestDB(t)
	got, err := cdb.GetSearchResult(context.Background(), "https://example.test/nowhere")
	if err != nil {
		t.Fatalf("GetSearchResult: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for a missing record, got %+v", got)
	}
}

func TestUpsertSearchResultsIsIdempotent(t *testing.T) {
	t.Parallel()

	cdb := openTestDB(t)
	ctx := context.Background()

	record := model.SearchResultRecord{
		Title:     "医疗设备采购公告",
		DetailURL: "https://example.test/detail/1",
		CrawlTime: time.Now(),
	}

	for range 3 {
		if err := cdb.UpsertSearchResults(ctx, []model.SearchResultRecord{record}); err != nil {
			t.Fatalf("UpsertSearchResults: %v", err)
		}
	}

	count, err := cdb.CountSearchResults(ctx)
	if err != nil {
		t.Fatalf("CountSearchResults: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1 after repeated upserts", count)
	}
}

func TestUpsertSearchResultsUpdatesExisting(t *testing.T) {
	t.Parallel()

	cdb := openTestDB(t)
	ctx := context.Background()

	record := model.SearchResultRecord{
		Title:     "旧标题",
		DetailURL: "https://example.test/detail/1",
		CrawlTime: time.Now(),
	}
	if err := cdb.UpsertSearchResults(ctx, []model.SearchResultRecord{record}); err != nil {
		t.Fatalf("seed upsert: %v", err)
	}

	record.Title = "新标题"
	if err := cdb.UpsertSearchResults(ctx, []model.SearchResultRecord{record}); err != nil {
		t.Fatalf("update upsert: %v", err)
	}

	got, err := cdb.GetSearchResult(ctx, record.DetailURL)
	if err != nil {
		t.Fatalf("GetSearchResult: %v", err)
	}
	if got.Title != "新标题" {
		t.Errorf("title = %q, want the updated value", got.Title)
	}
}

func TestDetailRecordRoundTrip(t *testing.T) {
	t.Parallel()

	cdb := openTestDB(t)
	ctx := context.Background()

	record := model.DetailRecord{
		URL:         "https://example.test/detail/1",
		Title:       "医疗设备合同公告",
		PublishTime: "2024-04-01 10:00:00",
		Content:     "正文内容",
		ContractInfo: &model.ContractInfo{
			ContractNumber: "HT-2024-001",
			ContractName:   "设备采购合同",
			ContractAmount: "1,000,000元",
		},
		Attachments: []model.Attachment{
			{Name: "合同文本.pdf", URL: "https://example.test/files/ht.pdf"},
			{Name: "清单.docx", URL: "https://example.test/files/list.docx"},
		},
		CrawlTime: time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC),
	}
	if err := cdb.UpsertDetailRecords(ctx, []model.DetailRecord{record}); err != nil {
		t.Fatalf("UpsertDetailRecords: %v", err)
	}

	got, err := cdb.GetDetailRecord(ctx, record.URL)
	if err != nil {
		t.Fatalf("GetDetailRecord: %v", err)
	}
	if got == nil {
		t.Fatal("GetDetailRecord returned nil for a stored record")
	}
	if got.ContractInfo == nil {
		t.Fatal("contract info was dropped")
	}
	if got.ContractInfo.ContractNumber != "HT-2024-001" {
		t.Errorf("contract number = %q", got.ContractInfo.ContractNumber)
	}
	if len(got.Attachments) != 2 {
		t.Fatalf("attachments = %d, want 2", len(got.Attachments))
	}
	if got.Attachments[0].Name != "合同文本.pdf" {
		t.Errorf("attachment name = %q", got.Attachments[0].Name)
	}
}

func TestDetailRecordWithoutContract(t *testing.T) {
	t.Parallel()

	cdb := openTestDB(t)
	ctx := context.Background()

	record := model.DetailRecord{
		URL:       "https://example.test/detail/2",
		Title:     "采购公告",
		Content:   "正文",
		CrawlTime: time.Now(),
	}
	if err := cdb.UpsertDetailRecords(ctx, []model.DetailRecord{record}); err != nil {
		t.Fatalf("UpsertDetailRecords: %v", err)
	}

	got, err := cdb.GetDetailRecord(ctx, record.URL)
	if err != nil {
		t.Fatalf("GetDetailRecord: %v", err)
	}
	if got.ContractInfo != nil {
		t.Errorf("expected nil contract info, got %+v", got.ContractInfo)
	}
	if len(got.Attachments) != 0 {
		t.Errorf("expected no attachments, got %d", len(got.Attachments))
	}
}

func TestUpsertDetailRecordsReplacesAttachments(t *testing.T) {
	t.Parallel()

	cdb := openTestDB(t)
	ctx := context.Background()

	record := model.DetailRecord{
		URL:       "https://example.test/detail/1",
		Title:     "公告",
		CrawlTime: time.Now(),
		Attachments: []model.Attachment{
			{Name: "a.pdf", URL: "https://example.test/a.pdf"},
			{Name: "b.pdf", URL: "https://example.test/b.pdf"},
		},
	}
	if err := cdb.UpsertDetailRecords(ctx, []model.DetailRecord{record}); err != nil {
		t.Fatalf("seed upsert: %v", err)
	}

	record.Attachments = []model.Attachment{
		{Name: "c.pdf", URL: "https://example.test/c.pdf"},
	}
	if err := cdb.UpsertDetailRecords(ctx, []model.DetailRecord{record}); err != nil {
		t.Fatalf("update upsert: %v", err)
	}

	got, err := cdb.GetDetailRecord(ctx, record.URL)
	if err != nil {
		t.Fatalf("GetDetailRecord: %v", err)
	}
	if len(got.Attachments) != 1 || got.Attachments[0].Name != "c.pdf" {
		t.Errorf("attachments = %+v, want the replacement set", got.Attachments)
	}
}

func TestFlushRecordsCheckpoint(t *testing.T) {
	t.Parallel()

	cdb := openTestDB(t)
	ctx := context.Background()

	cp, err := cdb.LatestCheckpoint(ctx)
	if err != nil {
		t.Fatalf("LatestCheckpoint: %v", err)
	}
	if cp != nil {
		t.Fatalf("expected no checkpoint in a fresh database, got %+v", cp)
	}

	results := []model.SearchResultRecord{
		{Title: "公告一", DetailURL: "https://example.test/detail/1", CrawlTime: time.Now()},
		{Title: "公告二", DetailURL: "https://example.test/detail/2", CrawlTime: time.Now()},
	}
	details := []model.DetailRecord{
		{URL: "https://example.test/detail/1", Title: "公告一", CrawlTime: time.Now()},
	}
	if err := cdb.Flush(ctx, results, details); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	cp, err = cdb.LatestCheckpoint(ctx)
	if err != nil {
		t.Fatalf("LatestCheckpoint: %v", err)
	}
	if cp == nil {
		t.Fatal("expected a checkpoint after flush")
	}
	if cp.ResultCount != 2 || cp.DetailCount != 1 {
		t.Errorf("checkpoint = %+v, want counts 2/1", cp)
	}

	count, err := cdb.CountSearchResults(ctx)
	if err != nil {
		t.Fatalf("CountSearchResults: %v", err)
	}
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}
}

func TestListSearchResults(t *testing.T) {
	t.Parallel()

	cdb := openTestDB(t)
	ctx := context.Background()

	records := []model.SearchResultRecord{
		{Title: "早公告", DetailURL: "https://example.test/detail/1", PublishTime: "2024-04-01 10:00:00", CrawlTime: time.Now()},
		{Title: "晚公告", DetailURL: "https://example.test/detail/2", PublishTime: "2024-04-05 10:00:00", CrawlTime: time.Now()},
	}
	if err := cdb.UpsertSearchResults(ctx, records); err != nil {
		t.Fatalf("UpsertSearchResults: %v", err)
	}

	list, err := cdb.ListSearchResults(ctx)
	if err != nil {
		t.Fatalf("ListSearchResults: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("list = %d records, want 2", len(list))
	}
	// Newest publish time first.
	if list[0].Title != "晚公告" {
		t.Errorf("first record = %q, want the most recent", list[0].Title)
	}
}
