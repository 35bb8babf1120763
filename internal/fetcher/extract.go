package fetcher

import (
	"io"
	"strings"

	"golang.org/x/net/html"

	"weblser/internal/domain"
)

// contentCap bounds the extracted body text handed to summary generation.
const contentCap = 5000

// extractSignals parses the document and derives structural signals plus the
// raw href list for link probing.
func extractSignals(r io.Reader) (*domain.PageSignals, []string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, nil, err
	}

	w := &walker{sig: &domain.PageSignals{}}
	w.walk(doc)

	sig := w.sig
	sig.Title = strings.TrimSpace(sig.Title)
	sig.TitleLength = len(sig.Title)
	sig.HasH1 = sig.H1Count > 0
	sig.Content = extractContent(doc, w.contentRoot)
	sig.WordCount = len(strings.Fields(sig.Content))
	return sig, w.links, nil
}

type walker struct {
	sig   *domain.PageSignals
	links []string

	// contentRoot is the first <main> or <article> encountered; body text is
	// extracted from it when present instead of the whole document.
	contentRoot *html.Node

	inTitle bool
}

func (w *walker) walk(n *html.Node) {
	switch n.Type {
	case html.ElementNode:
		w.element(n)
	case html.TextNode:
		if w.inTitle {
			w.sig.Title += n.Data
		}
	}

	entered := n.Type == html.ElementNode && n.Data == "title"
	if entered {
		w.inTitle = true
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.walk(c)
	}
	if entered {
		w.inTitle = false
	}
}

func (w *walker) element(n *html.Node) {
	sig := w.sig
	switch n.Data {
	case "meta":
		w.meta(n)
	case "h1":
		sig.H1Count++
	case "nav":
		sig.HasNav = true
	case "footer":
		sig.HasFooter = true
	case "main":
		sig.HasMain = true
		if w.contentRoot == nil {
			w.contentRoot = n
		}
	case "article":
		if w.contentRoot == nil {
			w.contentRoot = n
		}
	case "img":
		sig.ImgCount++
		if attr(n, "alt") != "" {
			sig.ImgWithAlt++
		}
	case "form":
		sig.FormCount++
	case "button":
		sig.ButtonCount++
	case "a":
		if href := attr(n, "href"); href != "" {
			sig.LinkCount++
			w.links = append(w.links, href)
		}
	}
}

func (w *walker) meta(n *html.Node) {
	sig := w.sig
	content := attr(n, "content")
	if attr(n, "charset") != "" {
		sig.HasCharset = true
	}
	switch strings.ToLower(attr(n, "name")) {
	case "description":
		sig.MetaDescription = content
	case "viewport":
		sig.Viewport = content
	}
	switch strings.ToLower(attr(n, "property")) {
	case "og:title":
		sig.OGTitle = content
	case "og:description":
		sig.OGDescription = content
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// extractContent gathers readable body text. Boilerplate containers and
// non-content elements are skipped; a <main>/<article> root wins when present.
func extractContent(doc *html.Node, root *html.Node) string {
	if root == nil {
		root = doc
	}
	var b strings.Builder
	collectText(root, &b)
	text := strings.Join(strings.Fields(b.String()), " ")
	if len(text) > contentCap {
		text = text[:contentCap]
	}
	return text
}

var skippedContainers = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"nav":      true,
	"footer":   true,
	"aside":    true,
}

func collectText(n *html.Node, b *strings.Builder) {
	if n.Type == html.ElementNode && skippedContainers[n.Data] {
		return
	}
	if n.Type == html.TextNode {
		b.WriteString(n.Data)
		b.WriteByte(' ')
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, b)
	}
}
