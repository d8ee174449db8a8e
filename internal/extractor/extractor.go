package extractor

import (
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"zfcgcrawl/internal/model"
)

// Domain keywords that flag a page as an announcement or a contract
// notice.
const (
	announcementKeyword = "公告"
	contractKeyword     = "合同"
)

// publishTimePattern matches the portal's timestamp format anywhere in
// the document text.
var publishTimePattern = regexp.MustCompile(`\d{4}-\d{2}-\d{2}\s+\d{2}:\d{2}:\d{2}`)

// contentClassTokens mark a container as the announcement body. Matching
// is a case-insensitive substring test against the class attribute.
var contentClassTokens = []string{"content", "article", "detail"}

// attachmentExtensions are the document types recorded as attachments.
var attachmentExtensions = []string{".pdf", ".doc", ".docx"}

// contractField binds a ContractInfo field setter to its label pattern.
// Labels accept both the fullwidth and the ASCII colon.
type contractField struct {
	pattern *regexp.Regexp
	assign  func(info *model.ContractInfo, value string)
}

var contractFields = []contractField{
	{labelPattern(`合同编号`), func(i *model.ContractInfo, v string) { i.ContractNumber = v }},
	{labelPattern(`合同名称`), func(i *model.ContractInfo, v string) { i.ContractName = v }},
	{labelPattern(`项目编号`), func(i *model.ContractInfo, v string) { i.ProjectNumber = v }},
	{labelPattern(`采购人\(甲方\)`), func(i *model.ContractInfo, v string) { i.Buyer = v }},
	{labelPattern(`供应商\(乙方\)`), func(i *model.ContractInfo, v string) { i.Supplier = v }},
	{labelPattern(`合同金额`), func(i *model.ContractInfo, v string) { i.ContractAmount = v }},
	{labelPattern(`履约期限`), func(i *model.ContractInfo, v string) { i.PerformancePeriod = v }},
}

func labelPattern(label string) *regexp.Regexp {
	return regexp.MustCompile(label + `[：:]\s*([^\n\r]+)`)
}

// Extractor converts detail-document markup into DetailRecords.
type Extractor struct {
	// base is the site origin relative attachment targets resolve against.
	base   *url.URL
	logger *slog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) {
		e.logger = logger
	}
}

// New creates an Extractor resolving relative attachment links against
// baseOrigin (scheme and host, e.g. "https://zfcg.czt.fujian.gov.cn").
func New(baseOrigin string, opts ...Option) (*Extractor, error) {
	base, err := url.Parse(baseOrigin)
	if err != nil {
		return nil, fmt.Errorf("parse base origin: %w", err)
	}
	e := &Extractor{base: base}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e, nil
}

// Extract builds a DetailRecord from one detail document's markup. Every
// field degrades independently; Extract itself never fails. Unparsable
// markup yields a record carrying only the URL and crawl time.
func (e *Extractor) Extract(markup, pageURL string) model.DetailRecord {
	record := model.DetailRecord{
		URL:         pageURL,
		Attachments: []model.Attachment{},
		CrawlTime:   time.Now(),
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		e.logger.Warn("detail markup unparsable", "url", pageURL, "error", err)
		return record
	}

	record.Title = e.extractTitle(doc)
	record.PublishTime = e.extractPublishTime(doc)
	record.Content = e.extractContent(doc)

	// Contract fields exist only on contract-flagged notices. A body full
	// of contract-shaped labels under a non-contract title stays absent.
	if strings.Contains(record.Title, contractKeyword) {
		info := e.extractContractInfo(doc)
		record.ContractInfo = &info
	}

	record.Attachments = e.extractAttachments(doc)
	return record
}

// extractTitle returns the first heading whose text carries the
// announcement keyword, or empty.
func (e *Extractor) extractTitle(doc *goquery.Document) string {
	var title string
	doc.Find("h1, h2, h3, h4").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := strings.TrimSpace(s.Text())
		if strings.Contains(text, announcementKeyword) {
			title = text
			return false
		}
		return true
	})
	return title
}

// extractPublishTime returns the first timestamp-shaped substring in the
// document text, or empty.
func (e *Extractor) extractPublishTime(doc *goquery.Document) string {
	return publishTimePattern.FindString(doc.Text())
}

// extractContent returns the text of the first content-flagged container,
// falling back to the whole document's visible text.
func (e *Extractor) extractContent(doc *goquery.Document) string {
	var content string
	doc.Find("div[class]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		class, _ := s.Attr("class")
		class = strings.ToLower(class)
		for _, token := range contentClassTokens {
			if strings.Contains(class, token) {
				content = strings.TrimSpace(s.Text())
				return false
			}
		}
		return true
	})
	if content == "" {
		content = strings.TrimSpace(doc.Text())
	}
	return content
}

// extractContractInfo applies each label pattern independently to the
// full document text. Unmatched labels leave their field absent.
func (e *Extractor) extractContractInfo(doc *goquery.Document) model.ContractInfo {
	text := doc.Text()
	var info model.ContractInfo
	for _, f := range contractFields {
		if m := f.pattern.FindStringSubmatch(text); m != nil {
			f.assign(&info, strings.TrimSpace(m[1]))
		}
	}
	return info
}

// extractAttachments records every hyperlink whose target path ends in a
// document extension, resolving relative targets against the base origin.
// Document order is preserved and duplicates are permitted.
func (e *Extractor) extractAttachments(doc *goquery.Document) []model.Attachment {
	attachments := []model.Attachment{}
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if !hasAttachmentExtension(href) {
			return
		}
		resolved := href
		if ref, err := url.Parse(href); err == nil {
			resolved = e.base.ResolveReference(ref).String()
		}
		attachments = append(attachments, model.Attachment{
			Name: strings.TrimSpace(s.Text()),
			URL:  resolved,
		})
	})
	return attachments
}

func hasAttachmentExtension(href string) bool {
	for _, ext := range attachmentExtensions {
		if strings.HasSuffix(href, ext) {
			return true
		}
	}
	return false
}
