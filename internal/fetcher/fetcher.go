// Package fetcher retrieves a page and derives the normalized signals the
// evaluation core runs on. One fetch produces one immutable snapshot.
package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"

	"weblser/internal/domain"
)

const (
	defaultTimeout = 10 * time.Second
	// probeTimeout bounds the auxiliary HEAD checks (sitemap, robots,
	// broken-link sample) so a slow third party cannot stall the fetch.
	probeTimeout = 2 * time.Second
	// linkSampleSize caps how many outbound links are probed for integrity.
	linkSampleSize = 10

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
)

// FetchError is fatal to a whole evaluation run: target unreachable,
// non-success HTTP status, or timeout.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Fetcher fetches pages over HTTP. Safe for concurrent use.
type Fetcher struct {
	client *http.Client
	probe  *http.Client
}

type Option func(*Fetcher)

// WithTimeout overrides the page-fetch timeout.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) { f.client.Timeout = d }
}

func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		client: &http.Client{Timeout: defaultTimeout},
		probe:  &http.Client{Timeout: probeTimeout},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch retrieves rawurl and computes its page signals. Scheme-less URLs
// default to https.
func (f *Fetcher) Fetch(ctx context.Context, rawurl string) (*domain.PageSignals, error) {
	target := NormalizeURL(rawurl)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &FetchError{URL: target, Err: err}
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: target, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &FetchError{URL: target, StatusCode: resp.StatusCode}
	}

	sig, links, err := extractSignals(resp.Body)
	if err != nil {
		return nil, &FetchError{URL: target, Err: fmt.Errorf("parse HTML: %w", err)}
	}

	final := resp.Request.URL
	sig.URL = target
	sig.FinalURL = final.String()
	sig.HTTPS = final.Scheme == "https"
	sig.StatusCode = resp.StatusCode
	sig.SiteName = siteName(sig.Title, final)

	base := final.Scheme + "://" + final.Host
	sig.HasSitemap = f.headOK(ctx, base+"/sitemap.xml")
	sig.HasRobots = f.headOK(ctx, base+"/robots.txt")
	sig.BrokenLinks = f.sampleBrokenLinks(ctx, links)

	return sig, nil
}

// NormalizeURL defaults scheme-less URLs to secure transport.
func NormalizeURL(rawurl string) string {
	if strings.HasPrefix(rawurl, "http://") || strings.HasPrefix(rawurl, "https://") {
		return rawurl
	}
	return "https://" + rawurl
}

// siteName prefers the title segment before the first "|", then the
// registrable domain, then the bare hostname.
func siteName(title string, u *url.URL) string {
	if title != "" {
		return strings.TrimSpace(strings.SplitN(title, "|", 2)[0])
	}
	host := u.Hostname()
	if registrable, err := publicsuffix.EffectiveTLDPlusOne(host); err == nil {
		return registrable
	}
	return strings.TrimPrefix(host, "www.")
}

func (f *Fetcher) headOK(ctx context.Context, target string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, target, nil)
	if err != nil {
		return false
	}
	resp, err := f.probe.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// sampleBrokenLinks probes the first few absolute links and counts the ones
// returning a 4xx/5xx or failing outright.
func (f *Fetcher) sampleBrokenLinks(ctx context.Context, links []string) int {
	broken := 0
	checked := 0
	for _, href := range links {
		if checked == linkSampleSize {
			break
		}
		if !strings.HasPrefix(href, "http://") && !strings.HasPrefix(href, "https://") {
			continue
		}
		checked++
		req, err := http.NewRequestWithContext(ctx, http.MethodHead, href, nil)
		if err != nil {
			broken++
			continue
		}
		resp, err := f.probe.Do(req)
		if err != nil {
			broken++
			continue
		}
		resp.Body.Close()
		if resp.StatusCode >= 400 {
			broken++
		}
	}
	return broken
}
