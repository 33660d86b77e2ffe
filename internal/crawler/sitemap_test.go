package crawler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"faq_scrap/internal/crawler"
	"faq_scrap/internal/faq"
)

func writeXML(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/xml")
	_, _ = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>` + "\n" + body))
}

func urlsetOf(locs ...string) string {
	out := `<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">`
	for _, loc := range locs {
		out += "<url><loc>" + loc + "</loc></url>"
	}
	return out + "</urlset>"
}

func indexOf(locs ...string) string {
	out := `<sitemapindex xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">`
	for _, loc := range locs {
		out += "<sitemap><loc>" + loc + "</loc></sitemap>"
	}
	return out + "</sitemapindex>"
}

func resolve(t *testing.T, opts crawler.SitemapOptions, url string) []string {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return crawler.NewSitemapResolver(opts).Resolve(ctx, url)
}

func TestResolve_BasicURLSet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeXML(w, urlsetOf(
			"https://example.com/page1",
			"https://example.com/page2",
			"https://example.com/page3",
		))
	}))
	defer srv.Close()

	urls := resolve(t, crawler.SitemapOptions{}, srv.URL)
	assert.Equal(t, []string{
		"https://example.com/page1",
		"https://example.com/page2",
		"https://example.com/page3",
	}, urls)
}

func TestResolve_DeclaredLatin1Encoding(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	latin1 := func(w http.ResponseWriter, body string) {
		w.Header().Set("Content-Type", "application/xml")
		_, _ = w.Write([]byte(`<?xml version="1.0" encoding="ISO-8859-1"?>` + "\n" + body))
	}
	mux.HandleFunc("/index.xml", func(w http.ResponseWriter, r *http.Request) {
		latin1(w, indexOf(srv.URL+"/pages.xml"))
	})
	mux.HandleFunc("/pages.xml", func(w http.ResponseWriter, r *http.Request) {
		latin1(w, urlsetOf("https://example.com/caf\xe9", "https://example.com/faq"))
	})

	var errs []*faq.Error
	urls := resolve(t, crawler.SitemapOptions{OnError: func(e *faq.Error) { errs = append(errs, e) }}, srv.URL+"/index.xml")
	assert.Equal(t, []string{"https://example.com/caf\u00e9", "https://example.com/faq"}, urls)
	assert.Empty(t, errs)
}

func TestResolve_IndexConcatenatesChildrenInOrder(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/sitemap-index.xml", func(w http.ResponseWriter, r *http.Request) {
		writeXML(w, indexOf(srv.URL+"/sitemap1.xml", srv.URL+"/sitemap2.xml"))
	})
	mux.HandleFunc("/sitemap1.xml", func(w http.ResponseWriter, r *http.Request) {
		writeXML(w, urlsetOf("https://example.com/a1", "https://example.com/a2", "https://example.com/a3"))
	})
	mux.HandleFunc("/sitemap2.xml", func(w http.ResponseWriter, r *http.Request) {
		writeXML(w, urlsetOf("https://example.com/b1", "https://example.com/b2"))
	})

	urls := resolve(t, crawler.SitemapOptions{}, srv.URL+"/sitemap-index.xml")
	assert.Equal(t, []string{
		"https://example.com/a1",
		"https://example.com/a2",
		"https://example.com/a3",
		"https://example.com/b1",
		"https://example.com/b2",
	}, urls)
}

func TestResolve_SkipsBlankLocs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeXML(w, urlsetOf("https://example.com/valid", "  ", ""))
	}))
	defer srv.Close()

	urls := resolve(t, crawler.SitemapOptions{}, srv.URL)
	assert.Equal(t, []string{"https://example.com/valid"}, urls)
}

func TestResolve_FailedChildDoesNotStopSiblings(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/index.xml", func(w http.ResponseWriter, r *http.Request) {
		writeXML(w, indexOf(srv.URL+"/missing.xml", srv.URL+"/broken.xml", srv.URL+"/ok.xml"))
	})
	mux.HandleFunc("/missing.xml", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("/broken.xml", func(w http.ResponseWriter, r *http.Request) {
		writeXML(w, "<urlset><url><loc>https://example.com/x")
	})
	mux.HandleFunc("/ok.xml", func(w http.ResponseWriter, r *http.Request) {
		writeXML(w, urlsetOf("https://example.com/ok"))
	})

	var mu sync.Mutex
	var kinds []faq.Kind
	opts := crawler.SitemapOptions{OnError: func(err *faq.Error) {
		mu.Lock()
		defer mu.Unlock()
		kinds = append(kinds, err.Kind)
	}}

	urls := resolve(t, opts, srv.URL+"/index.xml")
	assert.Equal(t, []string{"https://example.com/ok"}, urls)
	assert.Equal(t, []faq.Kind{faq.KindFetch, faq.KindParse}, kinds)
}

func TestResolve_RootFailureIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	assert.Empty(t, resolve(t, crawler.SitemapOptions{}, srv.URL))
}

func TestResolve_UnexpectedRoot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeXML(w, "<rss><channel></channel></rss>")
	}))
	defer srv.Close()

	var got *faq.Error
	urls := resolve(t, crawler.SitemapOptions{OnError: func(err *faq.Error) { got = err }}, srv.URL)
	assert.Empty(t, urls)
	require.NotNil(t, got)
	assert.Equal(t, faq.KindParse, got.Kind)
}

func TestResolve_CycleIsVisitedOnce(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	var mu sync.Mutex
	hits := map[string]int{}
	count := func(r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		hits[r.URL.Path]++
	}

	mux.HandleFunc("/a.xml", func(w http.ResponseWriter, r *http.Request) {
		count(r)
		writeXML(w, indexOf(srv.URL+"/b.xml", srv.URL+"/leaf.xml"))
	})
	mux.HandleFunc("/b.xml", func(w http.ResponseWriter, r *http.Request) {
		count(r)
		writeXML(w, indexOf(srv.URL+"/a.xml"))
	})
	mux.HandleFunc("/leaf.xml", func(w http.ResponseWriter, r *http.Request) {
		count(r)
		writeXML(w, urlsetOf("https://example.com/leaf"))
	})

	urls := resolve(t, crawler.SitemapOptions{}, srv.URL+"/a.xml")
	assert.Equal(t, []string{"https://example.com/leaf"}, urls)
	assert.Equal(t, 1, hits["/a.xml"])
	assert.Equal(t, 1, hits["/b.xml"])
}

func TestResolve_MaxDepth(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/root.xml", func(w http.ResponseWriter, r *http.Request) {
		writeXML(w, indexOf(srv.URL+"/mid.xml", srv.URL+"/shallow.xml"))
	})
	mux.HandleFunc("/mid.xml", func(w http.ResponseWriter, r *http.Request) {
		writeXML(w, indexOf(srv.URL+"/deep.xml"))
	})
	mux.HandleFunc("/deep.xml", func(w http.ResponseWriter, r *http.Request) {
		writeXML(w, urlsetOf("https://example.com/deep"))
	})
	mux.HandleFunc("/shallow.xml", func(w http.ResponseWriter, r *http.Request) {
		writeXML(w, urlsetOf("https://example.com/shallow"))
	})

	urls := resolve(t, crawler.SitemapOptions{MaxDepth: 1}, srv.URL+"/root.xml")
	assert.Equal(t, []string{"https://example.com/shallow"}, urls)
}
