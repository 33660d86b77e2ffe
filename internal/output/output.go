// Package output serializes result sets as JSON or YAML.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"

	"faq_scrap/internal/faq"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts json, yaml or yml, case-insensitively. Empty means JSON.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown output format: %s", s)
	}
}

// FormatForPath picks the format from a file extension, falling back to def.
func FormatForPath(path string, def Format) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".json":
		return FormatJSON
	}
	return def
}

// Marshal encodes items. A nil slice encodes as an empty list.
func Marshal(items []faq.Item, format Format) ([]byte, error) {
	if items == nil {
		items = []faq.Item{}
	}
	switch format {
	case FormatYAML:
		return yaml.Marshal(items)
	case FormatJSON, "":
		data, err := json.MarshalIndent(items, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	default:
		return nil, fmt.Errorf("unknown output format: %s", format)
	}
}

func Write(w io.Writer, items []faq.Item, format Format) error {
	data, err := Marshal(items, format)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// WriteFile writes items to path, creating parent directories.
func WriteFile(path string, items []faq.Item, format Format) (string, error) {
	data, err := Marshal(items, format)
	if err != nil {
		return "", err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", err
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", err
	}
	return path, nil
}
