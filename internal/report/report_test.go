package report_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"faq_scrap/internal/faq"
	"faq_scrap/internal/report"
)

func TestAddError_AndCounts(t *testing.T) {
	var rep report.Report
	rep.AddError(faq.NewFetchError("https://b.example.com", errors.New("timeout")))
	rep.AddError(faq.NewParseError("https://a.example.com/sitemap.xml", errors.New("bad xml")))
	rep.AddError(faq.NewFetchError("https://a.example.com", errors.New("500")))
	rep.AddError(nil)

	if len(rep.Errors) != 3 {
		t.Fatalf("expected 3 errors, got %d", len(rep.Errors))
	}
	counts := rep.ErrorCounts()
	if counts[faq.KindFetch] != 2 || counts[faq.KindParse] != 1 {
		t.Fatalf("unexpected counts: %v", counts)
	}

	rep.SortErrors()
	if rep.Errors[0].URL != "https://a.example.com" || rep.Errors[1].URL != "https://b.example.com" {
		t.Fatalf("expected fetch errors sorted by url, got %+v", rep.Errors)
	}
	if rep.Errors[2].Kind != faq.KindParse {
		t.Fatalf("expected parse error last, got %+v", rep.Errors[2])
	}
}

func TestRender(t *testing.T) {
	rep := report.Report{
		RunID:      "run-1",
		Prefilter:  "pattern",
		Discovered: 5,
		Relevant:   2,
		Fetched:    2,
		Extracted:  4,
		Duplicates: 1,
		Kept:       3,
		Duration:   1500 * time.Millisecond,
	}
	rep.AddError(faq.NewFetchError("https://example.com/x", errors.New("http status 500")))

	var buf bytes.Buffer
	report.Render(&buf, rep)
	out := buf.String()
	for _, want := range []string{"run-1", "Relevant (pattern)", "Kept", "1.5s", "http status 500"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestRenderItems_Clips(t *testing.T) {
	items := []faq.Item{{Question: "Q1", Answer: strings.Repeat("a", 50), SourceURL: "https://example.com"}}
	var buf bytes.Buffer
	report.RenderItems(&buf, items, 10)
	out := buf.String()
	if !strings.Contains(out, "aaaaaaaaaa...") {
		t.Fatalf("expected clipped answer, got:\n%s", out)
	}
	if strings.Contains(out, strings.Repeat("a", 11)) {
		t.Fatalf("answer not clipped:\n%s", out)
	}
}
