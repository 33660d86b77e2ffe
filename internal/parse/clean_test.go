package parse

import (
	"strings"
	"testing"
)

func TestRemoveSelectors(t *testing.T) {
	html := `<div><p class="keep">a</p><p class="rm">b</p><div class="rm">c</div></div>`
	doc, err := NewDocument(html)
	if err != nil {
		t.Fatalf("NewDocument error: %v", err)
	}
	if n := RemoveSelectors(doc.Selection, ".rm"); n != 2 {
		t.Fatalf("expected 2 removed, got %d", n)
	}
	out, err := doc.Html()
	if err != nil {
		t.Fatalf("Html error: %v", err)
	}
	if strings.Contains(out, "class=\"rm\"") || strings.Contains(out, ">b<") || strings.Contains(out, ">c<") {
		t.Fatalf("expected removed content, got: %s", out)
	}
	if !strings.Contains(out, "class=\"keep\"") {
		t.Fatalf("expected keep content, got: %s", out)
	}
	if n := RemoveSelectors(nil, ".rm"); n != 0 {
		t.Fatalf("expected 0 for nil selection, got %d", n)
	}
}

func TestStripNonContent(t *testing.T) {
	doc, err := NewDocument(`<body><script>var x;</script><style>p{}</style><p>Visible</p><noscript>js off</noscript></body>`)
	if err != nil {
		t.Fatalf("NewDocument error: %v", err)
	}
	if n := StripNonContent(doc.Selection); n != 3 {
		t.Fatalf("expected 3 removed, got %d", n)
	}
	if got := CollapseWhitespace(doc.Text()); got != "Visible" {
		t.Fatalf("expected only visible text, got %q", got)
	}
}
