// Package metrics exposes Prometheus instrumentation for pipeline runs.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "faq_scrap"

// Page outcomes.
const (
	PageFiltered = "filtered"
	PageFetched  = "fetched"
	PageFailed   = "failed"
	PageGated    = "gated"
)

// Item outcomes.
const (
	ItemExtracted = "extracted"
	ItemRejected  = "rejected"
	ItemDuplicate = "duplicate"
	ItemKept      = "kept"
)

// Classification stages and results.
const (
	StageURL  = "url"
	StagePage = "page"
	StageItem = "item"

	ResultAccepted = "accepted"
	ResultRejected = "rejected"
	ResultError    = "error"
)

// Metrics holds the pipeline collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	registry *prometheus.Registry

	SitemapURLs     prometheus.Counter
	Pages           *prometheus.CounterVec
	Items           *prometheus.CounterVec
	Classifications *prometheus.CounterVec
	Runs            *prometheus.CounterVec
	RunDuration     prometheus.Histogram
}

// New registers all collectors on a fresh registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewWithRegistry(reg)
}

// NewWithRegistry registers the pipeline collectors on reg.
func NewWithRegistry(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		SitemapURLs: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sitemap_urls_total",
			Help:      "Page URLs discovered in sitemaps",
		}),
		Pages: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pages_total",
			Help:      "Pages by outcome (filtered, fetched, failed, gated)",
		}, []string{"outcome"}),
		Items: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_total",
			Help:      "Question/answer items by outcome (extracted, rejected, duplicate, kept)",
		}, []string{"outcome"}),
		Classifications: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "classifications_total",
			Help:      "Semantic classifications by stage and result",
		}, []string{"stage", "result"}),
		Runs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Pipeline runs by status",
		}, []string{"status"}),
		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of a full pipeline run",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}),
	}
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler returns the Prometheus HTTP handler for /metrics.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.registry == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) AddSitemapURLs(n int) {
	if m == nil {
		return
	}
	m.SitemapURLs.Add(float64(n))
}

func (m *Metrics) AddPages(outcome string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.Pages.WithLabelValues(outcome).Add(float64(n))
}

func (m *Metrics) AddItems(outcome string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.Items.WithLabelValues(outcome).Add(float64(n))
}

func (m *Metrics) RecordClassification(stage string, accepted bool, err error) {
	if m == nil {
		return
	}
	result := ResultRejected
	switch {
	case err != nil:
		result = ResultError
	case accepted:
		result = ResultAccepted
	}
	m.Classifications.WithLabelValues(stage, result).Inc()
}

func (m *Metrics) RecordRun(status string, d time.Duration) {
	if m == nil {
		return
	}
	m.Runs.WithLabelValues(status).Inc()
	m.RunDuration.Observe(d.Seconds())
}
