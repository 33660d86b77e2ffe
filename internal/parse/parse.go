package parse

import (
	"errors"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/unicode/norm"
)

// nonContent lists elements whose text never counts as page content.
const nonContent = "script, style, noscript, template"

func NewDocument(htmlText string) (*goquery.Document, error) {
	if strings.TrimSpace(htmlText) == "" {
		return nil, errors.New("empty html")
	}
	return goquery.NewDocumentFromReader(strings.NewReader(htmlText))
}

// CollapseWhitespace trims s and folds every run of whitespace into a single space.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// NormalizeText collapses whitespace and applies Unicode NFC so visually equal
// strings compare equal.
func NormalizeText(s string) string {
	return norm.NFC.String(CollapseWhitespace(s))
}

// SelectionText returns the normalized visible text of sel.
func SelectionText(sel *goquery.Selection) string {
	if sel == nil || sel.Length() == 0 {
		return ""
	}
	clone := sel.Clone()
	StripNonContent(clone)
	return NormalizeText(clone.Text())
}

// PageText returns the visible text of the whole document. The document is
// not modified.
func PageText(doc *goquery.Document) string {
	if doc == nil {
		return ""
	}
	return SelectionText(doc.Selection)
}

// Preview strips non-content elements from doc in place and returns at most
// limit runes of what remains.
func Preview(doc *goquery.Document, limit int) string {
	if doc == nil {
		return ""
	}
	StripNonContent(doc.Selection)
	return Truncate(NormalizeText(doc.Text()), limit)
}

// Truncate cuts s to limit runes. A non-positive limit returns s unchanged.
func Truncate(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

// FirstImage returns the src of the first img in the document, resolved
// against base. It returns "" when the page has no usable image.
func FirstImage(doc *goquery.Document, base string) string {
	if doc == nil {
		return ""
	}
	src := ""
	doc.Find("img[src]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		src = strings.TrimSpace(s.AttrOr("src", ""))
		return src == ""
	})
	if src == "" {
		return ""
	}
	return ResolveURL(base, src)
}

// ResolveURL resolves ref against base. Unparseable input is returned as is.
func ResolveURL(base, ref string) string {
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	b, err := url.Parse(base)
	if err != nil || b.Scheme == "" {
		return ref
	}
	return b.ResolveReference(r).String()
}
