// Package report summarizes a pipeline run for humans and machines.
package report

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"faq_scrap/internal/faq"
)

// Report counts what happened to URLs and items during one run. Failures
// are localized, so a run with errors is still a successful run.
type Report struct {
	RunID     string        `json:"run_id"`
	Sitemap   string        `json:"sitemap"`
	Prefilter string        `json:"prefilter"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`

	Discovered int `json:"discovered"`
	Relevant   int `json:"relevant"`
	Fetched    int `json:"fetched"`
	Failed     int `json:"failed"`
	Gated      int `json:"gated"`
	Extracted  int `json:"extracted"`
	Rejected   int `json:"rejected"`
	Duplicates int `json:"duplicates"`
	Kept       int `json:"kept"`

	Errors []Entry `json:"errors,omitempty"`
}

// Entry is one localized failure.
type Entry struct {
	Kind    faq.Kind `json:"kind"`
	URL     string   `json:"url,omitempty"`
	Message string   `json:"message"`
}

func (r *Report) AddError(err *faq.Error) {
	if err == nil {
		return
	}
	msg := ""
	if err.Cause != nil {
		msg = err.Cause.Error()
	}
	r.Errors = append(r.Errors, Entry{Kind: err.Kind, URL: err.URL, Message: msg})
}

// ErrorCounts returns the number of failures per kind.
func (r Report) ErrorCounts() map[faq.Kind]int {
	counts := map[faq.Kind]int{}
	for _, e := range r.Errors {
		counts[e.Kind]++
	}
	return counts
}

// SortErrors orders errors by kind, then URL, so output is stable
// regardless of worker completion order.
func (r *Report) SortErrors() {
	sort.SliceStable(r.Errors, func(i, j int) bool {
		if r.Errors[i].Kind != r.Errors[j].Kind {
			return r.Errors[i].Kind < r.Errors[j].Kind
		}
		return r.Errors[i].URL < r.Errors[j].URL
	})
}

// Render writes the run summary and, when present, the error list.
func Render(w io.Writer, r Report) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle(fmt.Sprintf("Run %s", r.RunID))
	t.AppendHeader(table.Row{"Stage", "Count"})
	t.AppendRows([]table.Row{
		{"Sitemap URLs", r.Discovered},
		{"Relevant (" + r.Prefilter + ")", r.Relevant},
		{"Fetched", r.Fetched},
		{"Failed", r.Failed},
		{"Gated out", r.Gated},
		{"Items extracted", r.Extracted},
		{"Items rejected", r.Rejected},
		{"Duplicates", r.Duplicates},
	})
	t.AppendFooter(table.Row{"Kept", r.Kept})
	t.Render()
	_, _ = fmt.Fprintf(w, "Duration: %s\n", r.Duration.Round(time.Millisecond))

	if len(r.Errors) == 0 {
		return
	}
	et := table.NewWriter()
	et.SetOutputMirror(w)
	et.SetStyle(table.StyleLight)
	et.AppendHeader(table.Row{"Kind", "URL", "Error"})
	for _, e := range r.Errors {
		et.AppendRow(table.Row{e.Kind, e.URL, e.Message})
	}
	et.Render()
}

// RenderItems prints extracted items, truncating long answers.
func RenderItems(w io.Writer, items []faq.Item, answerWidth int) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "Question", "Answer", "Source"})
	for i, it := range items {
		t.AppendRow(table.Row{i + 1, it.Question, clip(it.Answer, answerWidth), it.SourceURL})
	}
	t.Render()
}

func clip(s string, width int) string {
	r := []rune(s)
	if width <= 0 || len(r) <= width {
		return s
	}
	return string(r[:width]) + "..."
}
