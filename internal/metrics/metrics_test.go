package metrics_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"faq_scrap/internal/metrics"
)

func TestRecorders(t *testing.T) {
	m := metrics.NewWithRegistry(prometheus.NewRegistry())

	m.AddSitemapURLs(5)
	m.AddPages(metrics.PageFetched, 3)
	m.AddPages(metrics.PageFailed, 1)
	m.AddItems(metrics.ItemKept, 4)
	m.RecordClassification(metrics.StageItem, true, nil)
	m.RecordClassification(metrics.StageItem, false, nil)
	m.RecordClassification(metrics.StageItem, true, errors.New("boom"))
	m.RecordRun("ok", 2*time.Second)

	assert.InDelta(t, 5, testutil.ToFloat64(m.SitemapURLs), 0)
	assert.InDelta(t, 3, testutil.ToFloat64(m.Pages.WithLabelValues(metrics.PageFetched)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Pages.WithLabelValues(metrics.PageFailed)), 0)
	assert.InDelta(t, 4, testutil.ToFloat64(m.Items.WithLabelValues(metrics.ItemKept)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Classifications.WithLabelValues(metrics.StageItem, metrics.ResultAccepted)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Classifications.WithLabelValues(metrics.StageItem, metrics.ResultRejected)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Classifications.WithLabelValues(metrics.StageItem, metrics.ResultError)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Runs.WithLabelValues("ok")), 0)
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *metrics.Metrics
	assert.NotPanics(t, func() {
		m.AddSitemapURLs(1)
		m.AddPages(metrics.PageFetched, 1)
		m.AddItems(metrics.ItemKept, 1)
		m.RecordClassification(metrics.StageURL, true, nil)
		m.RecordRun("ok", time.Second)
	})
	assert.Nil(t, m.Registry())
}

func TestHandlerServesRegistry(t *testing.T) {
	m := metrics.New()
	m.AddItems(metrics.ItemKept, 2)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `faq_scrap_items_total{outcome="kept"} 2`), body)
	assert.Contains(t, body, "go_goroutines")
}
