package extract

import (
	"strings"

	htmltomd "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	"github.com/PuerkitoBio/goquery"

	"faq_scrap/internal/parse"
)

// markdownConverter renders answer markup as GitHub flavored Markdown.
// Relative links and images are resolved against the page URL first.
type markdownConverter struct {
	md      *htmltomd.Converter
	baseURL string
}

func newMarkdownConverter(baseURL string) *markdownConverter {
	conv := htmltomd.NewConverter("", true, nil)
	conv.Use(plugin.GitHubFlavored())
	conv.Remove("script", "style", "noscript", "button")
	conv.AddRules(definitionRules()...)
	return &markdownConverter{md: conv, baseURL: baseURL}
}

func (c *markdownConverter) convert(sel *goquery.Selection) (string, error) {
	clone := sel.Clone()
	resolveAttr(clone.Find("a[href]"), "href", c.baseURL)
	resolveAttr(clone.Find("img[src]"), "src", c.baseURL)
	html, err := clone.Html()
	if err != nil {
		return "", err
	}
	out, err := c.md.ConvertString(html)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func resolveAttr(sel *goquery.Selection, attr, baseURL string) {
	sel.Each(func(_ int, s *goquery.Selection) {
		v := strings.TrimSpace(s.AttrOr(attr, ""))
		if v == "" || strings.HasPrefix(v, "#") {
			return
		}
		s.SetAttr(attr, parse.ResolveURL(baseURL, v))
	})
}

// definitionRules renders <dl> lists, common in answer bodies, as bold terms
// followed by ": definition" lines.
func definitionRules() []htmltomd.Rule {
	return []htmltomd.Rule{
		{
			Filter: []string{"dt"},
			Replacement: func(content string, _ *goquery.Selection, _ *htmltomd.Options) *string {
				res := "\n**" + strings.TrimSpace(content) + "**\n"
				return &res
			},
		},
		{
			Filter: []string{"dd"},
			Replacement: func(content string, _ *goquery.Selection, _ *htmltomd.Options) *string {
				res := ": " + strings.TrimSpace(content) + "\n"
				return &res
			},
		},
	}
}
