package entrypoint

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-yaml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"faq_scrap/internal/cli"
	"faq_scrap/internal/faq"
)

func newSite(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	var base string
	mux.HandleFunc("/sitemap.xml", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<urlset><url><loc>%[1]s/help/faq</loc></url><url><loc>%[1]s/blog</loc></url></urlset>`, base)
	})
	mux.HandleFunc("/help/faq", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body>
<div class="qa"><h3>How do I enlist?</h3><p>Visit a recruiter.</p></div>
<div class="qa"><h3>Is there an age limit?</h3><p>Yes, 39.</p></div>
</body></html>`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	base = srv.URL
	return srv
}

func writeConfig(t *testing.T, sitemap string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "site.json")
	body := fmt.Sprintf(`{
  "sitemap": %q,
  "faq_url_pattern": "faq",
  "scrape_patterns": [{"name": "qa", "selector": ".qa", "question": "h3", "answer": "p"}],
  "fetch": {"timeout_seconds": 5},
  "log": {"level": "error"}
}`, sitemap)
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
	return path
}

func run(t *testing.T, args ...string) (code int, stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	code, err = execute(context.Background(), cli.NewEnv(&out, &errOut), args)
	return code, out.String(), errOut.String(), err
}

func TestScrape_DefaultCommandWritesJSON(t *testing.T) {
	srv := newSite(t)
	cfgPath := writeConfig(t, srv.URL+"/sitemap.xml")

	code, stdout, stderr, err := run(t, "--config", cfgPath)
	require.NoError(t, err)
	assert.Equal(t, 0, code)

	var items []faq.Item
	require.NoError(t, json.Unmarshal([]byte(stdout), &items))
	require.Len(t, items, 2)
	assert.Equal(t, "How do I enlist", items[0].Question)
	assert.Equal(t, srv.URL+"/help/faq", items[0].SourceURL)
	assert.Nil(t, items[0].Image)

	assert.Contains(t, stderr, "Sitemap URLs")
}

func TestScrape_OutputFileYAML(t *testing.T) {
	srv := newSite(t)
	cfgPath := writeConfig(t, srv.URL+"/sitemap.xml")
	outPath := filepath.Join(t.TempDir(), "out", "faqs.yaml")

	code, stdout, stderr, err := run(t, "scrape", "--config", cfgPath, "-o", outPath, "-q")
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Empty(t, stdout)
	assert.Empty(t, stderr)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	var items []faq.Item
	require.NoError(t, yaml.Unmarshal(data, &items))
	require.Len(t, items, 2)
	assert.Equal(t, "Is there an age limit", items[1].Question)
}

func TestScrape_MissingSitemapWritesEmptyList(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "empty.json")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`{"log": {"level": "error"}}`), 0600))

	code, stdout, stderr, err := run(t, "scrape", "--config", cfgPath)
	require.NoError(t, err)
	assert.Equal(t, 0, code)

	var items []faq.Item
	require.NoError(t, json.Unmarshal([]byte(stdout), &items))
	assert.Empty(t, items)
	assert.Contains(t, stderr, "sitemap url is required")
}

func TestScrape_BadFormat(t *testing.T) {
	srv := newSite(t)
	cfgPath := writeConfig(t, srv.URL+"/sitemap.xml")

	code, _, _, err := run(t, "--config", cfgPath, "--format", "xml")
	require.Error(t, err)
	assert.Equal(t, 2, code)
}

func TestUnknownFlag(t *testing.T) {
	code, _, _, err := run(t, "inspect", "--no-such-flag", "https://example.com")
	require.Error(t, err)
	assert.Equal(t, 1, code)
}

func TestWithDefaultCommand(t *testing.T) {
	root := NewRootCommand(cli.NewEnv(&bytes.Buffer{}, &bytes.Buffer{}))

	assert.Equal(t, []string{"scrape"}, withDefaultCommand(root, nil))
	assert.Equal(t, []string{"scrape", "--config", "c.json"}, withDefaultCommand(root, []string{"--config", "c.json"}))
	assert.Equal(t, []string{"inspect", "https://x"}, withDefaultCommand(root, []string{"inspect", "https://x"}))
	assert.Equal(t, []string{"serve", "--addr", ":0"}, withDefaultCommand(root, []string{"serve", "--addr", ":0"}))
	assert.Equal(t, []string{"--help"}, withDefaultCommand(root, []string{"--help"}))
}
