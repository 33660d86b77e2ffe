// Package inspect implements the inspect subcommand: fetch one page and show
// what the configured scrape patterns find on it.
package inspect

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"faq_scrap/internal/app"
	"faq_scrap/internal/cli"
	"faq_scrap/internal/extract"
	"faq_scrap/internal/faq"
	"faq_scrap/internal/fetch"
	"faq_scrap/internal/parse"
)

const previewChars = 100

type Options struct {
	URL           string
	CheckSelector string
	Patterns      []faq.Pattern
	Fetch         fetch.Options
	AnswerFormat  string
	AnswerWidth   int
}

type candidate struct {
	Selector string
	Matches  int
	Text     int
}

// faqSelectors are common FAQ markup shapes, probed when building a new
// pattern for a site.
var faqSelectors = []string{
	"[itemtype*='FAQPage'] [itemtype*='Question']",
	"details",
	"dl",
	".faq",
	".faqs",
	"[class*='faq']",
	"[id*='faq']",
	"[class*='accordion']",
	"[class*='question']",
	"[aria-expanded]",
}

func Command(env *cli.Env) *cobra.Command {
	var (
		checkSelector string
		mode          string
		answerWidth   int
	)
	cmd := &cobra.Command{
		Use:   "inspect <url>",
		Short: "Show what the scrape patterns find on one page",
		Long: `Fetches a single page and reports, per configured scrape pattern, how many
containers matched and which question/answer pairs were extracted.

Example:
  faq_scrap inspect https://example.com/help/faq --config configs/example.json
  faq_scrap inspect https://example.com/help/faq --check-selector ".faq-item"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := env.Load()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			opts := Options{
				URL:           args[0],
				CheckSelector: checkSelector,
				Patterns:      cfg.ScrapePatterns,
				Fetch:         app.FetchOptions(cfg),
				AnswerFormat:  cfg.AnswerFormat,
				AnswerWidth:   answerWidth,
			}
			if mode != "" {
				opts.Fetch.Mode = fetch.Mode(mode)
			}
			return Run(cmd.Context(), opts, env.Stdout)
		},
	}
	cmd.Flags().StringVar(&checkSelector, "check-selector", "", "Inspect a single CSS selector instead of the scrape patterns")
	cmd.Flags().StringVar(&mode, "mode", "", "Fetch mode override (static|dynamic|auto)")
	cmd.Flags().IntVar(&answerWidth, "answer-width", 80, "Truncate answers in the item table (0 = full)")
	return cmd
}

func Run(ctx context.Context, opts Options, w io.Writer) error {
	if strings.TrimSpace(opts.URL) == "" {
		return errors.New("url is required")
	}

	fo := opts.Fetch
	fo.URL = opts.URL
	result, err := fetch.Fetch(ctx, fo)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", opts.URL, err)
	}
	doc, err := parse.NewDocument(result.HTML)
	if err != nil {
		return fmt.Errorf("parse %s: %w", opts.URL, err)
	}
	fmt.Fprintf(w, "Fetched %s (%s)\n", opts.URL, result.SourceInfo)

	if strings.TrimSpace(opts.CheckSelector) != "" {
		return inspectSpecificSelector(w, doc, opts.CheckSelector)
	}

	for _, p := range opts.Patterns {
		if err := extract.ValidatePattern(p); err != nil {
			fmt.Fprintf(w, "Skipping pattern: %v\n", err)
		}
	}

	ex := extract.New(extract.Options{AnswerFormat: opts.AnswerFormat})
	matches := ex.Match(doc, opts.URL, opts.Patterns)
	printMatches(w, matches)

	var items []faq.Item
	for _, m := range matches {
		items = append(items, m.Items...)
	}
	items = faq.Aggregate([][]faq.Item{items})
	if len(items) > 0 {
		fmt.Fprintf(w, "\n%d item(s) after de-duplication:\n", len(items))
		printItems(w, items, opts.AnswerWidth)
		return nil
	}

	fmt.Fprintln(w, "\nNo items extracted. Candidate FAQ containers:")
	printCandidates(w, collectCandidates(doc))
	return nil
}

func printMatches(w io.Writer, matches []extract.PatternMatch) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Pattern", "Containers", "Items"})
	for _, m := range matches {
		t.AppendRow(table.Row{m.Pattern.Label(), m.Containers, len(m.Items)})
	}
	t.Render()
}

func printItems(w io.Writer, items []faq.Item, answerWidth int) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "Question", "Answer", "Image"})
	for i, it := range items {
		image := ""
		if it.Image != nil {
			image = *it.Image
		}
		t.AppendRow(table.Row{i + 1, it.Question, parse.Truncate(it.Answer, answerWidth), image})
	}
	t.Render()
}

func collectCandidates(doc *goquery.Document) []candidate {
	candidates := []candidate{}
	for _, sel := range faqSelectors {
		found := doc.Find(sel)
		if found.Length() == 0 {
			continue
		}
		candidates = append(candidates, candidate{
			Selector: sel,
			Matches:  found.Length(),
			Text:     len([]rune(parse.CollapseWhitespace(found.Text()))),
		})
	}
	return candidates
}

func printCandidates(w io.Writer, candidates []candidate) {
	if len(candidates) == 0 {
		fmt.Fprintln(w, "- none")
		return
	}
	for _, c := range candidates {
		fmt.Fprintf(w, "- %s: matches=%d text=%d\n", c.Selector, c.Matches, c.Text)
	}
}

func nodeSelector(s *goquery.Selection) string {
	if s.Length() == 0 {
		return ""
	}
	if id, exists := s.Attr("id"); exists && id != "" {
		return fmt.Sprintf("#%s", id)
	}
	if classStr, exists := s.Attr("class"); exists {
		classes := strings.Fields(classStr)
		if len(classes) > 0 {
			return fmt.Sprintf("%s.%s", s.Get(0).Data, strings.Join(classes, "."))
		}
	}
	return s.Get(0).Data
}

func inspectSpecificSelector(w io.Writer, doc *goquery.Document, selector string) error {
	if err := extract.ValidatePattern(faq.Pattern{Selector: selector, Question: selector, Answer: selector}); err != nil {
		return err
	}
	sel := doc.Find(selector)
	fmt.Fprintf(w, "Inspecting selector: '%s'\n", selector)
	fmt.Fprintf(w, "Found %d matching element(s)\n", sel.Length())

	sel.Each(func(i int, s *goquery.Selection) {
		if i >= 3 {
			return
		}
		fmt.Fprintf(w, "\n--- Match #%d ---\n", i+1)
		fmt.Fprintf(w, "Element: %s\n", nodeSelector(s))

		text := parse.CollapseWhitespace(s.Text())
		fmt.Fprintf(w, "Text Length: %d chars\n", len([]rune(text)))
		fmt.Fprintf(w, "Text Preview: %s\n", parse.Truncate(text, previewChars))
		fmt.Fprintf(w, "Children: %d\n", s.Children().Length())
	})
	return nil
}
