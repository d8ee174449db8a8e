package model

// PageCursor tracks the pagination walker's position in the result set.
// It is mutated only by the walker, once per successful page transition.
// Invariant: 1 <= PageNumber <= TotalPages while traversal is active.
type PageCursor struct {
	// PageNumber is the 1-based page currently loaded in the session.
	PageNumber int `json:"page_number"`

	// TotalPages is the page count read from the pagination controls.
	// Defaults to 1 when the site exposes no usable label.
	TotalPages int `json:"total_pages"`

	// RowsOnPage is the number of data rows observed on the current page.
	RowsOnPage int `json:"rows_on_page"`
}

// CrawlResult is the accumulated output of one crawl run. Both slices are
// append-only and owned by the orchestrator's single control thread until
// flushed to a sink.
type CrawlResult struct {
	// SearchResults holds one record per resolved listing row, in
	// traversal order across pages.
	SearchResults []SearchResultRecord `json:"search_results"`

	// DetailRecords holds at most one record per resolved row. Rows whose
	// detail fetch failed simply contribute nothing here.
	DetailRecords []DetailRecord `json:"detail_records"`

	// PagesVisited is the number of pages whose rows were extracted.
	PagesVisited int `json:"pages_visited"`

	// RowsSkipped counts rows no resolution strategy could handle.
	RowsSkipped int `json:"rows_skipped"`
}
