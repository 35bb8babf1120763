package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const samplePage = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title> Acme Widgets | Home </title>
<meta name="description" content="Widgets for everyone">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta property="og:title" content="Acme Widgets">
<meta property="og:description" content="The widget company">
<script>var tracked = true;</script>
<style>body { margin: 0; }</style>
</head>
<body>
<nav><a href="/about">About</a><a href="/pricing">Pricing</a></nav>
<h1>Welcome to Acme</h1>
<main>
<article>We build the finest widgets in the land.</article>
<img src="a.png" alt="a widget"><img src="b.png">
<form><button>Subscribe</button></form>
</main>
<footer>Copyright Acme</footer>
</body>
</html>`

func serve(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchExtractsSignals(t *testing.T) {
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/":
			fmt.Fprint(w, samplePage)
		case "/sitemap.xml", "/robots.txt":
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	sig, err := New().Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if sig.Title != "Acme Widgets | Home" {
		t.Errorf("Title = %q", sig.Title)
	}
	if sig.SiteName != "Acme Widgets" {
		t.Errorf("SiteName = %q, want title before pipe", sig.SiteName)
	}
	if sig.MetaDescription != "Widgets for everyone" {
		t.Errorf("MetaDescription = %q", sig.MetaDescription)
	}
	if sig.OGTitle != "Acme Widgets" || sig.OGDescription != "The widget company" {
		t.Errorf("og tags = %q / %q", sig.OGTitle, sig.OGDescription)
	}
	if !strings.Contains(sig.Viewport, "device-width") {
		t.Errorf("Viewport = %q", sig.Viewport)
	}
	if !sig.HasCharset {
		t.Error("HasCharset = false")
	}
	if !sig.HasH1 || sig.H1Count != 1 {
		t.Errorf("H1Count = %d", sig.H1Count)
	}
	if !sig.HasNav || !sig.HasFooter || !sig.HasMain {
		t.Errorf("landmarks nav=%v footer=%v main=%v", sig.HasNav, sig.HasFooter, sig.HasMain)
	}
	if sig.ImgCount != 2 || sig.ImgWithAlt != 1 {
		t.Errorf("images = %d with alt %d", sig.ImgCount, sig.ImgWithAlt)
	}
	if sig.FormCount != 1 || sig.ButtonCount != 1 {
		t.Errorf("forms = %d buttons = %d", sig.FormCount, sig.ButtonCount)
	}
	if sig.LinkCount != 2 {
		t.Errorf("LinkCount = %d", sig.LinkCount)
	}
	if !sig.HasSitemap || !sig.HasRobots {
		t.Errorf("sitemap=%v robots=%v", sig.HasSitemap, sig.HasRobots)
	}
	if sig.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d", sig.StatusCode)
	}
}

func TestFetchContentSkipsBoilerplate(t *testing.T) {
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, samplePage)
	})

	sig, err := New().Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if !strings.Contains(sig.Content, "finest widgets") {
		t.Errorf("Content missing article text: %q", sig.Content)
	}
	for _, boiler := range []string{"tracked", "margin", "Pricing", "Copyright"} {
		if strings.Contains(sig.Content, boiler) {
			t.Errorf("Content includes boilerplate %q: %q", boiler, sig.Content)
		}
	}
	if sig.WordCount == 0 {
		t.Error("WordCount = 0")
	}
}

func TestFetchNonSuccessStatus(t *testing.T) {
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := New().Fetch(context.Background(), srv.URL)
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("err = %v, want *FetchError", err)
	}
	if fe.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("StatusCode = %d", fe.StatusCode)
	}
}

func TestFetchUnreachableHost(t *testing.T) {
	_, err := New().Fetch(context.Background(), "http://127.0.0.1:1")
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("err = %v, want *FetchError", err)
	}
	if fe.Err == nil {
		t.Error("FetchError.Err = nil for transport failure")
	}
}

func TestFetchSendsUserAgent(t *testing.T) {
	var got string
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			got = r.Header.Get("User-Agent")
		}
		fmt.Fprint(w, "<html><body>hi</body></html>")
	})

	if _, err := New().Fetch(context.Background(), srv.URL); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !strings.Contains(got, "Mozilla") {
		t.Errorf("User-Agent = %q", got)
	}
}

func TestBrokenLinkSample(t *testing.T) {
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/":
			// Two absolute links back at this server: one live, one dead.
			fmt.Fprintf(w, `<html><body>
<a href="%s/alive">ok</a>
<a href="%s/gone">dead</a>
<a href="/relative">skipped</a>
</body></html>`, serverURL(r), serverURL(r))
		case "/alive":
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	sig, err := New().Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if sig.BrokenLinks != 1 {
		t.Errorf("BrokenLinks = %d, want 1", sig.BrokenLinks)
	}
}

func serverURL(r *http.Request) string {
	return "http://" + r.Host
}

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"example.com", "https://example.com"},
		{"http://example.com", "http://example.com"},
		{"https://example.com/path", "https://example.com/path"},
	}
	for _, tt := range tests {
		if got := NormalizeURL(tt.in); got != tt.want {
			t.Errorf("NormalizeURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSiteNameFallsBackToDomain(t *testing.T) {
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><body>untitled</body></html>")
	})

	sig, err := New().Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if sig.SiteName == "" {
		t.Error("SiteName empty for untitled page")
	}
}
