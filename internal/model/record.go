package model

import "time"

// SearchResultRecord is one resolved row of the paginated results table.
// It is created once per successfully resolved row and is immutable after
// creation. Records are identified by DetailURL; the same URL may appear
// on more than one page and the crawler intentionally does not deduplicate.
type SearchResultRecord struct {
	// District is the administrative district column, verbatim.
	District string `json:"district"`

	// ProcurementMethod is the procurement method column, verbatim.
	ProcurementMethod string `json:"procurement_method"`

	// ProcurementUnit is the procuring unit column, verbatim.
	ProcurementUnit string `json:"procurement_unit"`

	// Title is the visible text of the announcement title cell.
	Title string `json:"title"`

	// DetailURL is the resolved link to the detail document. Depending on
	// which resolution strategy succeeded this is a plain href, a URL
	// synthesized from an onclick expression or data attributes, or the
	// URL observed after a synthetic click.
	DetailURL string `json:"detail_url"`

	// PublishTime is the publish time column, verbatim.
	PublishTime string `json:"publish_time"`

	// CrawlTime is when this row was extracted.
	CrawlTime time.Time `json:"crawl_time"`
}

// Attachment is one downloadable document linked from a detail page.
type Attachment struct {
	// Name is the link's visible text.
	Name string `json:"name"`

	// URL is the absolute attachment URL. Relative targets are resolved
	// against the site's base origin during extraction.
	URL string `json:"url"`
}

// ContractInfo holds the named fields extracted from contract notices.
// Each field is present only if its label pattern matched; absent fields
// stay empty and are omitted from JSON output, never serialized as "".
type ContractInfo struct {
	ContractNumber    string `json:"contract_number,omitempty"`
	ContractName      string `json:"contract_name,omitempty"`
	ProjectNumber     string `json:"project_number,omitempty"`
	Buyer             string `json:"buyer,omitempty"`
	Supplier          string `json:"supplier,omitempty"`
	ContractAmount    string `json:"contract_amount,omitempty"`
	PerformancePeriod string `json:"performance_period,omitempty"`
}

// IsZero reports whether no contract field matched.
func (c ContractInfo) IsZero() bool {
	return c == ContractInfo{}
}

// DetailRecord holds the structured fields extracted from one detail
// document. Every field degrades independently: a missing element or an
// unmatched pattern leaves its field empty rather than failing the record.
type DetailRecord struct {
	// URL is the detail document's URL, joining this record to its
	// SearchResultRecord.
	URL string `json:"url"`

	// Title is the first announcement-flagged heading, or empty.
	Title string `json:"title"`

	// PublishTime is the first "YYYY-MM-DD HH:MM:SS" substring found
	// anywhere in the document text, or empty.
	PublishTime string `json:"publish_time"`

	// Content is the text of the first content-flagged container, falling
	// back to the whole document's visible text.
	Content string `json:"content"`

	// ContractInfo is present only when the title carries the contract
	// keyword. A nil pointer means the document is not contract-flagged.
	ContractInfo *ContractInfo `json:"contract_info,omitempty"`

	// Attachments lists linked .pdf/.doc/.docx documents in document
	// order. Duplicates are permitted.
	Attachments []Attachment `json:"attachments"`

	// CrawlTime is when this document was extracted.
	CrawlTime time.Time `json:"crawl_time"`
}
