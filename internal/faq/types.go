// Package faq holds the question/answer domain types shared by the
// discovery pipeline, and the first-seen deduplication used to merge
// per-page results.
package faq

import "strings"

// Pattern describes one structural extraction rule. Selector matches the
// container; Question and Answer are resolved inside each container.
type Pattern struct {
	Name     string `json:"name,omitempty" mapstructure:"name" yaml:"name,omitempty"`
	Selector string `json:"selector" mapstructure:"selector" yaml:"selector"`
	Question string `json:"question" mapstructure:"question" yaml:"question"`
	Answer   string `json:"answer" mapstructure:"answer" yaml:"answer"`
}

// Complete reports whether all three selectors are present. Incomplete
// patterns are never partially applied.
func (p Pattern) Complete() bool {
	return strings.TrimSpace(p.Selector) != "" &&
		strings.TrimSpace(p.Question) != "" &&
		strings.TrimSpace(p.Answer) != ""
}

// Label returns the pattern name, falling back to its container selector.
func (p Pattern) Label() string {
	if p.Name != "" {
		return p.Name
	}
	return p.Selector
}

// Item is one extracted question/answer pair.
type Item struct {
	Question  string  `json:"question" yaml:"question"`
	Answer    string  `json:"answer" yaml:"answer"`
	Image     *string `json:"image" yaml:"image"`
	SourceURL string  `json:"source_url" yaml:"source_url"`
}

// PageResult is the outcome of processing one page. Err is nil on success;
// a failed page always carries zero items.
type PageResult struct {
	URL   string
	Items []Item
	Err   *Error
}

// OK reports whether the page was processed without a localized failure.
func (r PageResult) OK() bool {
	return r.Err == nil
}
