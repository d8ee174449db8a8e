package extractor

import (
	"strings"
	"testing"
)

const baseOrigin = "https://zfcg.example.test"

func newTestExtractor(t *testing.T) *Extractor {
	t.Helper()
	e, err := New(baseOrigin)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

// TestExtractTitleAndTime tests announcement-flagged heading selection and
// timestamp matching.
func TestExtractTitleAndTime(t *testing.T) {
	t.Parallel()

	e := newTestExtractor(t)

	t.Run("first announcement heading wins", func(t *testing.T) {
		t.Parallel()

		markup := `<html><body>
			<h1>页面导航</h1>
			<h2>某医院设备采购公告</h2>
			<h3>另一条公告标题</h3>
			<p>发布于 2024-05-12 09:35:00 网站</p>
		</body></html>`

		got := e.Extract(markup, "https://zfcg.example.test/detail/1")
		if got.Title != "某医院设备采购公告" {
			t.Errorf("title = %q", got.Title)
		}
		if got.PublishTime != "2024-05-12 09:35:00" {
			t.Errorf("publish time = %q", got.PublishTime)
		}
	})

	t.Run("no announcement heading leaves title empty", func(t *testing.T) {
		t.Parallel()

		got := e.Extract(`<html><body><h1>普通页面</h1></body></html>`, "u")
		if got.Title != "" {
			t.Errorf("title = %q, want empty", got.Title)
		}
	})
}

// TestExtractContent tests the content container fallback chain.
func TestExtractContent(t *testing.T) {
	t.Parallel()

	e := newTestExtractor(t)

	tests := []struct {
		name   string
		markup string
		want   string
	}{
		{
			name:   "content class token",
			markup: `<html><body><div class="page-Content-main">正文甲</div><div>别的</div></body></html>`,
			want:   "正文甲",
		},
		{
			name:   "article class token",
			markup: `<html><body><div class="articleBody">正文乙</div></body></html>`,
			want:   "正文乙",
		},
		{
			name:   "detail class token",
			markup: `<html><body><div class="detail-wrap">正文丙</div></body></html>`,
			want:   "正文丙",
		},
		{
			name:   "fallback to document text",
			markup: `<html><body><div class="other">正文丁</div></body></html>`,
			want:   "正文丁",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := e.Extract(tt.markup, "u")
			if !strings.Contains(got.Content, tt.want) {
				t.Errorf("content = %q, want it to contain %q", got.Content, tt.want)
			}
		})
	}
}

// TestExtractContractInfo tests contract gating and per-label field
// extraction.
func TestExtractContractInfo(t *testing.T) {
	t.Parallel()

	e := newTestExtractor(t)

	t.Run("contract-flagged title extracts fields", func(t *testing.T) {
		t.Parallel()

		markup := `<html><body>
			<h2>某医院政府采购合同公告</h2>
			<div class="content">
				合同编号：HT-2024-001
				合同名称：医疗设备采购合同
				项目编号: XM-77
				采购人(甲方)：某医院
				供应商(乙方)：某公司
				合同金额：1,200,000元
				履约期限：自签订之日起一年
			</div>
		</body></html>`

		got := e.Extract(markup, "u")
		if got.ContractInfo == nil {
			t.Fatal("contract info absent on a contract-flagged notice")
		}
		ci := got.ContractInfo
		if ci.ContractNumber != "HT-2024-001" {
			t.Errorf("contract number = %q", ci.ContractNumber)
		}
		if ci.ContractName != "医疗设备采购合同" {
			t.Errorf("contract name = %q", ci.ContractName)
		}
		if ci.ProjectNumber != "XM-77" {
			t.Errorf("project number = %q", ci.ProjectNumber)
		}
		if ci.Buyer != "某医院" {
			t.Errorf("buyer = %q", ci.Buyer)
		}
		if ci.Supplier != "某公司" {
			t.Errorf("supplier = %q", ci.Supplier)
		}
		if ci.ContractAmount != "1,200,000元" {
			t.Errorf("contract amount = %q", ci.ContractAmount)
		}
		if ci.PerformancePeriod != "自签订之日起一年" {
			t.Errorf("performance period = %q", ci.PerformancePeriod)
		}
	})

	t.Run("partial labels leave other fields absent", func(t *testing.T) {
		t.Parallel()

		markup := `<html><body>
			<h2>合同公告</h2>
			<p>合同编号：HT-2024-002</p>
		</body></html>`

		got := e.Extract(markup, "u")
		if got.ContractInfo == nil {
			t.Fatal("contract info absent")
		}
		if got.ContractInfo.ContractNumber != "HT-2024-002" {
			t.Errorf("contract number = %q", got.ContractInfo.ContractNumber)
		}
		if got.ContractInfo.ContractName != "" || got.ContractInfo.Buyer != "" {
			t.Error("unmatched labels must stay empty")
		}
	})

	t.Run("non-contract title suppresses contract fields entirely", func(t *testing.T) {
		t.Parallel()

		markup := `<html><body>
			<h2>某医院设备采购公告</h2>
			<p>合同编号：HT-2024-003</p>
			<p>合同金额：5元</p>
		</body></html>`

		got := e.Extract(markup, "u")
		if got.ContractInfo != nil {
			t.Errorf("contract info = %+v, want absent", got.ContractInfo)
		}
	})
}

// TestExtractAttachments tests document-extension filtering, relative URL
// resolution, ordering, and duplicates.
func TestExtractAttachments(t *testing.T) {
	t.Parallel()

	e := newTestExtractor(t)

	markup := `<html><body>
		<a href="/files/notice.pdf">招标文件</a>
		<a href="https://cdn.example.test/contract.docx">合同文本</a>
		<a href="/files/form.doc">报名表</a>
		<a href="/files/notice.pdf">招标文件再次</a>
		<a href="/files/image.png">图片</a>
		<a href="/detail?id=1">普通链接</a>
	</body></html>`

	got := e.Extract(markup, "u")
	if len(got.Attachments) != 4 {
		t.Fatalf("got %d attachments, want 4: %+v", len(got.Attachments), got.Attachments)
	}
	if got.Attachments[0].URL != baseOrigin+"/files/notice.pdf" {
		t.Errorf("relative target not resolved: %q", got.Attachments[0].URL)
	}
	if got.Attachments[0].Name != "招标文件" {
		t.Errorf("attachment name = %q", got.Attachments[0].Name)
	}
	if got.Attachments[1].URL != "https://cdn.example.test/contract.docx" {
		t.Errorf("absolute target rewritten: %q", got.Attachments[1].URL)
	}
	// Duplicates are recorded, in document order.
	if got.Attachments[3].URL != got.Attachments[0].URL {
		t.Errorf("duplicate attachment missing: %+v", got.Attachments)
	}
}

// TestExtractDegradesNeverFails tests the failure policy on hostile input.
func TestExtractDegradesNeverFails(t *testing.T) {
	t.Parallel()

	e := newTestExtractor(t)

	for _, markup := range []string{"", "<<<<not html", "<html><body></body></html>"} {
		got := e.Extract(markup, "https://zfcg.example.test/x")
		if got.URL != "https://zfcg.example.test/x" {
			t.Errorf("url = %q", got.URL)
		}
		if got.Attachments == nil {
			t.Error("attachments must be an empty slice, not nil")
		}
		if got.CrawlTime.IsZero() {
			t.Error("crawl time not set")
		}
	}
}
