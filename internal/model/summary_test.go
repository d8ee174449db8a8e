package model

import (
	"testing"
	"time"
)

func TestNewCrawlSummary(t *testing.T) {
	t.Parallel()

	t.Run("counts results, details, contracts, and attachments", func(t *testing.T) {
		t.Parallel()

		result := &CrawlResult{
			SearchResults: []SearchResultRecord{
				{Title: "a", ProcurementMethod: "公开招标"},
				{Title: "b", ProcurementMethod: "询价"},
				{Title: "c", ProcurementMethod: "公开招标"},
				{Title: "d"},
			},
			DetailRecords: []DetailRecord{
				{URL: "u1", ContractInfo: &ContractInfo{ContractNumber: "C-1"}},
				{URL: "u2", Attachments: []Attachment{{Name: "f1"}, {Name: "f2"}}},
			},
			PagesVisited: 2,
			RowsSkipped:  1,
		}

		started := time.Now()
		s := NewCrawlSummary(result, "医院", started, 5*time.Second)

		if s.UnitName != "医院" {
			t.Errorf("expected unit '医院', got %q", s.UnitName)
		}
		if s.ResultCount != 4 {
			t.Errorf("expected 4 results, got %d", s.ResultCount)
		}
		if s.DetailCount != 2 {
			t.Errorf("expected 2 details, got %d", s.DetailCount)
		}
		if s.ContractCount != 1 {
			t.Errorf("expected 1 contract, got %d", s.ContractCount)
		}
		if s.AttachmentCount != 2 {
			t.Errorf("expected 2 attachments, got %d", s.AttachmentCount)
		}
		if s.PagesVisited != 2 {
			t.Errorf("expected 2 pages, got %d", s.PagesVisited)
		}
		if s.RowsSkipped != 1 {
			t.Errorf("expected 1 skipped row, got %d", s.RowsSkipped)
		}
		if s.MethodCounts["公开招标"] != 2 {
			t.Errorf("expected 2 公开招标, got %d", s.MethodCounts["公开招标"])
		}
		if s.Error != "" {
			t.Errorf("expected empty error, got %q", s.Error)
		}
	})

	t.Run("empty result yields zero counts and nil method map", func(t *testing.T) {
		t.Parallel()

		s := NewCrawlSummary(&CrawlResult{}, "医院", time.Now(), 0)
		if s.ResultCount != 0 || s.DetailCount != 0 {
			t.Errorf("expected zero counts, got %d/%d", s.ResultCount, s.DetailCount)
		}
		if s.MethodCounts != nil {
			t.Errorf("expected nil method map, got %v", s.MethodCounts)
		}
	})
}

func TestCrawlSummarySortedMethods(t *testing.T) {
	t.Parallel()

	s := &CrawlSummary{
		MethodCounts: map[string]int{
			"询价":   3,
			"公开招标": 7,
			"竞争性磋商": 3,
		},
	}

	got := s.SortedMethods()
	want := []string{"公开招标", "竞争性磋商", "询价"}

	if len(got) != len(want) {
		t.Fatalf("expected %d methods, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}
