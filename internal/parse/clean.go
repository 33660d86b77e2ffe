package parse

import "github.com/PuerkitoBio/goquery"

// RemoveSelectors deletes every element under sel matching selector and
// reports how many were removed.
func RemoveSelectors(sel *goquery.Selection, selector string) int {
	if sel == nil || selector == "" {
		return 0
	}
	found := sel.Find(selector)
	n := found.Length()
	found.Remove()
	return n
}

// StripNonContent removes scripts, styles and other elements whose text is
// never shown to a reader.
func StripNonContent(sel *goquery.Selection) int {
	return RemoveSelectors(sel, nonContent)
}
