package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"faq_scrap/internal/faq"
)

// EnvPrefix is prepended to environment overrides, e.g. FAQ_SCRAP_SITEMAP or
// FAQ_SCRAP_FETCH_MAX_IN_FLIGHT.
const EnvPrefix = "FAQ_SCRAP"

const (
	PrefilterPattern  = "pattern"
	PrefilterSemantic = "semantic"
	PrefilterNone     = "none"

	AnswerText     = "text"
	AnswerMarkdown = "markdown"

	EncoderHash = "hash"
	EncoderHTTP = "http"
)

type Config struct {
	Sitemap         string        `json:"sitemap" mapstructure:"sitemap"`
	FAQURLPattern   string        `json:"faq_url_pattern,omitempty" mapstructure:"faq_url_pattern"`
	Prefilter       string        `json:"prefilter,omitempty" mapstructure:"prefilter"`
	ScrapePatterns  []faq.Pattern `json:"scrape_patterns" mapstructure:"scrape_patterns"`
	MaxSitemapDepth int           `json:"max_sitemap_depth" mapstructure:"max_sitemap_depth"`
	AnswerFormat    string        `json:"answer_format" mapstructure:"answer_format"`
	Fetch           Fetch         `json:"fetch" mapstructure:"fetch"`
	Semantic        Semantic      `json:"semantic" mapstructure:"semantic"`
	Server          Server        `json:"server" mapstructure:"server"`
	Log             Log           `json:"log" mapstructure:"log"`
	Output          Output        `json:"output" mapstructure:"output"`
}

type Fetch struct {
	Mode               string `json:"mode" mapstructure:"mode"`
	TimeoutSeconds     int    `json:"timeout_seconds" mapstructure:"timeout_seconds"`
	UserAgent          string `json:"user_agent,omitempty" mapstructure:"user_agent"`
	Headless           bool   `json:"headless" mapstructure:"headless"`
	WaitFor            string `json:"wait_for,omitempty" mapstructure:"wait_for"`
	MaxInFlight        int    `json:"max_in_flight" mapstructure:"max_in_flight"`
	PreviewChars       int    `json:"preview_chars" mapstructure:"preview_chars"`
	InsecureSkipVerify bool   `json:"insecure_skip_verify" mapstructure:"insecure_skip_verify"`
}

type Semantic struct {
	ValidateItems    bool    `json:"validate_items" mapstructure:"validate_items"`
	PageGate         bool    `json:"page_gate" mapstructure:"page_gate"`
	URLThreshold     float64 `json:"url_threshold" mapstructure:"url_threshold"`
	ContentThreshold float64 `json:"content_threshold" mapstructure:"content_threshold"`
	MaxTokens        int     `json:"max_tokens" mapstructure:"max_tokens"`
	MinItemChars     int     `json:"min_item_chars" mapstructure:"min_item_chars"`
	Encoder          Encoder `json:"encoder" mapstructure:"encoder"`
}

type Encoder struct {
	Kind           string `json:"kind" mapstructure:"kind"`
	Endpoint       string `json:"endpoint,omitempty" mapstructure:"endpoint"`
	Model          string `json:"model,omitempty" mapstructure:"model"`
	APIKey         string `json:"api_key,omitempty" mapstructure:"api_key"`
	Dimensions     int    `json:"dimensions" mapstructure:"dimensions"`
	TimeoutSeconds int    `json:"timeout_seconds" mapstructure:"timeout_seconds"`
}

type Server struct {
	Address     string   `json:"address" mapstructure:"address"`
	CORSOrigins []string `json:"cors_origins" mapstructure:"cors_origins"`
}

type Log struct {
	Level       string `json:"level" mapstructure:"level"`
	Development bool   `json:"development" mapstructure:"development"`
}

type Output struct {
	Format string `json:"format" mapstructure:"format"`
	Path   string `json:"path,omitempty" mapstructure:"path"`
}

// Default returns the configuration used when no document is available.
func Default() Config {
	return Config{
		MaxSitemapDepth: 5,
		AnswerFormat:    AnswerText,
		Fetch: Fetch{
			Mode:           "static",
			TimeoutSeconds: 10,
			Headless:       true,
			MaxInFlight:    4,
			PreviewChars:   500,
		},
		Semantic: Semantic{
			URLThreshold:     0.7,
			ContentThreshold: 0.5,
			MaxTokens:        200,
			MinItemChars:     20,
			Encoder: Encoder{
				Kind:           EncoderHash,
				Dimensions:     256,
				TimeoutSeconds: 10,
			},
		},
		Server: Server{Address: ":5000", CORSOrigins: []string{"*"}},
		Log:    Log{Level: "info"},
		Output: Output{Format: "json"},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("sitemap", d.Sitemap)
	v.SetDefault("faq_url_pattern", d.FAQURLPattern)
	v.SetDefault("prefilter", d.Prefilter)
	v.SetDefault("max_sitemap_depth", d.MaxSitemapDepth)
	v.SetDefault("answer_format", d.AnswerFormat)
	v.SetDefault("fetch.mode", d.Fetch.Mode)
	v.SetDefault("fetch.timeout_seconds", d.Fetch.TimeoutSeconds)
	v.SetDefault("fetch.user_agent", d.Fetch.UserAgent)
	v.SetDefault("fetch.headless", d.Fetch.Headless)
	v.SetDefault("fetch.wait_for", d.Fetch.WaitFor)
	v.SetDefault("fetch.max_in_flight", d.Fetch.MaxInFlight)
	v.SetDefault("fetch.preview_chars", d.Fetch.PreviewChars)
	v.SetDefault("fetch.insecure_skip_verify", d.Fetch.InsecureSkipVerify)
	v.SetDefault("semantic.validate_items", d.Semantic.ValidateItems)
	v.SetDefault("semantic.page_gate", d.Semantic.PageGate)
	v.SetDefault("semantic.url_threshold", d.Semantic.URLThreshold)
	v.SetDefault("semantic.content_threshold", d.Semantic.ContentThreshold)
	v.SetDefault("semantic.max_tokens", d.Semantic.MaxTokens)
	v.SetDefault("semantic.min_item_chars", d.Semantic.MinItemChars)
	v.SetDefault("semantic.encoder.kind", d.Semantic.Encoder.Kind)
	v.SetDefault("semantic.encoder.endpoint", d.Semantic.Encoder.Endpoint)
	v.SetDefault("semantic.encoder.model", d.Semantic.Encoder.Model)
	v.SetDefault("semantic.encoder.api_key", d.Semantic.Encoder.APIKey)
	v.SetDefault("semantic.encoder.dimensions", d.Semantic.Encoder.Dimensions)
	v.SetDefault("semantic.encoder.timeout_seconds", d.Semantic.Encoder.TimeoutSeconds)
	v.SetDefault("server.address", d.Server.Address)
	v.SetDefault("server.cors_origins", d.Server.CORSOrigins)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.development", d.Log.Development)
	v.SetDefault("output.format", d.Output.Format)
	v.SetDefault("output.path", d.Output.Path)
}

// Load reads the document at path (JSON or YAML by extension) and applies
// FAQ_SCRAP_* environment overrides. An empty path loads defaults and
// environment only. On failure Load still returns a usable configuration
// (defaults plus environment) together with the error, so callers can log
// it and carry on.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var readErr error
	if strings.TrimSpace(path) != "" {
		v.SetConfigFile(path)
		if filepath.Ext(path) == "" {
			v.SetConfigType("json")
		}
		if err := v.ReadInConfig(); err != nil {
			readErr = fmt.Errorf("read config %s: %w", path, err)
			v = viper.New()
			setDefaults(v)
			v.SetEnvPrefix(EnvPrefix)
			v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
			v.AutomaticEnv()
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Default(), errors.Join(readErr, fmt.Errorf("decode config: %w", err))
	}
	cfg.normalize()
	return cfg, readErr
}

func (c *Config) normalize() {
	d := Default()
	if c.MaxSitemapDepth <= 0 {
		c.MaxSitemapDepth = d.MaxSitemapDepth
	}
	c.AnswerFormat = strings.ToLower(strings.TrimSpace(c.AnswerFormat))
	if c.AnswerFormat != AnswerMarkdown {
		c.AnswerFormat = AnswerText
	}
	if c.Fetch.TimeoutSeconds <= 0 {
		c.Fetch.TimeoutSeconds = d.Fetch.TimeoutSeconds
	}
	if c.Fetch.MaxInFlight <= 0 {
		c.Fetch.MaxInFlight = d.Fetch.MaxInFlight
	}
	if c.Fetch.PreviewChars <= 0 {
		c.Fetch.PreviewChars = d.Fetch.PreviewChars
	}
	if c.Semantic.MaxTokens <= 0 {
		c.Semantic.MaxTokens = d.Semantic.MaxTokens
	}
	if c.Semantic.URLThreshold < 0 || c.Semantic.URLThreshold > 1 {
		c.Semantic.URLThreshold = d.Semantic.URLThreshold
	}
	if c.Semantic.ContentThreshold < 0 || c.Semantic.ContentThreshold > 1 {
		c.Semantic.ContentThreshold = d.Semantic.ContentThreshold
	}
	if c.Semantic.Encoder.Dimensions <= 0 {
		c.Semantic.Encoder.Dimensions = d.Semantic.Encoder.Dimensions
	}
	c.Prefilter = strings.ToLower(strings.TrimSpace(c.Prefilter))
}

// PrefilterStrategy resolves the configured relevance strategy name. An
// empty setting means pattern matching when a URL pattern is configured and
// no filtering otherwise.
func (c Config) PrefilterStrategy() string {
	switch c.Prefilter {
	case PrefilterPattern, PrefilterSemantic, PrefilterNone:
		return c.Prefilter
	}
	if strings.TrimSpace(c.FAQURLPattern) != "" {
		return PrefilterPattern
	}
	return PrefilterNone
}

// UsesEncoder reports whether any stage needs the embedding encoder.
func (c Config) UsesEncoder() bool {
	return c.PrefilterStrategy() == PrefilterSemantic || c.Semantic.ValidateItems || c.Semantic.PageGate
}

// Patterns returns the complete scrape patterns in configured order.
func (c Config) Patterns() []faq.Pattern {
	out := make([]faq.Pattern, 0, len(c.ScrapePatterns))
	for _, p := range c.ScrapePatterns {
		if p.Complete() {
			out = append(out, p)
		}
	}
	return out
}

func Marshal(cfg Config) ([]byte, error) {
	return json.MarshalIndent(cfg, "", "  ")
}

// Save writes cfg as indented JSON.
func Save(path string, cfg Config) error {
	data, err := Marshal(cfg)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0600)
}
