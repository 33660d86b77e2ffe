package faq

import (
	"errors"
	"fmt"
)

// Kind categorizes a localized pipeline failure.
type Kind string

const (
	KindFetch          Kind = "fetch"
	KindParse          Kind = "parse"
	KindClassification Kind = "classification"
	KindConfig         Kind = "config"
)

// Error is a failure scoped to a single URL (or to configuration). It never
// aborts a run; callers log it and continue with an empty result.
type Error struct {
	Kind  Kind
	URL   string
	Cause error
}

func (e *Error) Error() string {
	if e.URL == "" {
		return fmt.Sprintf("[%s] %v", e.Kind, e.Cause)
	}
	return fmt.Sprintf("[%s] %s: %v", e.Kind, e.URL, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// NewFetchError wraps a transport failure (timeout, DNS, non-2xx).
func NewFetchError(url string, cause error) *Error {
	return &Error{Kind: KindFetch, URL: url, Cause: cause}
}

// NewParseError wraps a malformed sitemap or HTML document.
func NewParseError(url string, cause error) *Error {
	return &Error{Kind: KindParse, URL: url, Cause: cause}
}

// NewClassificationError wraps an embedding or similarity failure.
func NewClassificationError(url string, cause error) *Error {
	return &Error{Kind: KindClassification, URL: url, Cause: cause}
}

// NewConfigError wraps a missing or malformed configuration document.
func NewConfigError(path string, cause error) *Error {
	return &Error{Kind: KindConfig, URL: path, Cause: cause}
}

// KindOf returns the kind of the first *Error in err's chain, or "".
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
