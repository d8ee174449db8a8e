package model

import (
	"sort"
	"time"
)

// CrawlSummary condenses one crawl run for reporting. It carries counts
// only, never record payloads, so writers stay cheap even for large runs.
type CrawlSummary struct {
	// UnitName is the procurement-unit criterion the run searched for.
	UnitName string `json:"unit_name"`

	// StartedAt is when the run began.
	StartedAt time.Time `json:"started_at"`

	// Duration is the wall-clock length of the run.
	Duration time.Duration `json:"duration"`

	// PagesVisited is how many result pages were crawled.
	PagesVisited int `json:"pages_visited"`

	// ResultCount is how many search result records were collected.
	ResultCount int `json:"result_count"`

	// DetailCount is how many detail documents were extracted.
	DetailCount int `json:"detail_count"`

	// ContractCount is how many detail documents were contract-flagged.
	ContractCount int `json:"contract_count"`

	// AttachmentCount is the total number of attachments found.
	AttachmentCount int `json:"attachment_count"`

	// RowsSkipped is how many listing rows could not be resolved.
	RowsSkipped int `json:"rows_skipped"`

	// MethodCounts breaks results down by procurement method.
	MethodCounts map[string]int `json:"method_counts,omitempty"`

	// Error is the run's terminal error text, empty on success.
	Error string `json:"error,omitempty"`
}

// NewCrawlSummary builds a summary from a finished crawl result.
func NewCrawlSummary(result *CrawlResult, unitName string, startedAt time.Time, duration time.Duration) *CrawlSummary {
	s := &CrawlSummary{
		UnitName:     unitName,
		StartedAt:    startedAt,
		Duration:     duration,
		PagesVisited: result.PagesVisited,
		ResultCount:  len(result.SearchResults),
		DetailCount:  len(result.DetailRecords),
		RowsSkipped:  result.RowsSkipped,
	}

	for _, d := range result.DetailRecords {
		if d.ContractInfo != nil {
			s.ContractCount++
		}
		s.AttachmentCount += len(d.Attachments)
	}

	for _, r := range result.SearchResults {
		if r.ProcurementMethod == "" {
			continue
		}
		if s.MethodCounts == nil {
			s.MethodCounts = make(map[string]int)
		}
		s.MethodCounts[r.ProcurementMethod]++
	}

	return s
}

// SortedMethods returns the procurement methods ordered by descending
// count, ties broken alphabetically. Writers use it for stable output.
func (s *CrawlSummary) SortedMethods() []string {
	methods := make([]string, 0, len(s.MethodCounts))
	for m := range s.MethodCounts {
		methods = append(methods, m)
	}
	sort.Slice(methods, func(i, j int) bool {
		if s.MethodCounts[methods[i]] != s.MethodCounts[methods[j]] {
			return s.MethodCounts[methods[i]] > s.MethodCounts[methods[j]]
		}
		return methods[i] < methods[j]
	})
	return methods
}
