// Package analyzer produces a concise natural-language summary of a single
// page. Unlike a full evaluation run, a failed fetch is reported inside the
// result rather than as an error: the caller always gets a renderable record.
package analyzer

import (
	"context"
	"fmt"
	"log"
	"strings"

	"weblser/internal/domain"
	"weblser/internal/ports"
)

const summaryMaxTokens = 300

type Analyzer struct {
	fetcher ports.Fetcher
	gen     ports.Generator
}

func New(fetcher ports.Fetcher, gen ports.Generator) *Analyzer {
	return &Analyzer{fetcher: fetcher, gen: gen}
}

// Analyze fetches the page and generates a summary. Fetch failures yield
// Success=false; generation failures still count as a successful analysis
// with the error noted in the summary text.
func (a *Analyzer) Analyze(ctx context.Context, rawurl string) domain.AnalysisResult {
	sig, err := a.fetcher.Fetch(ctx, rawurl)
	if err != nil {
		return domain.AnalysisResult{
			URL:     rawurl,
			Summary: fmt.Sprintf("Error fetching website: %v", err),
			Success: false,
		}
	}

	result := domain.AnalysisResult{
		URL:              sig.URL,
		Title:            sig.Title,
		MetaDescription:  sig.MetaDescription,
		ExtractedContent: sig.Content,
		Success:          true,
	}

	summary, err := a.gen.Complete(ctx, summaryPrompt(sig), summaryMaxTokens)
	if err != nil {
		log.Printf("analyzer: summary generation for %s failed: %v", sig.URL, err)
		result.Summary = fmt.Sprintf("Error generating summary: %v", err)
		return result
	}
	result.Summary = strings.TrimSpace(summary)
	return result
}

func summaryPrompt(sig *domain.PageSignals) string {
	var b strings.Builder
	b.WriteString("Summarize the purpose and content of this website in 2-3 sentences.\n\n")
	fmt.Fprintf(&b, "URL: %s\n", sig.URL)
	if sig.Title != "" {
		fmt.Fprintf(&b, "Title: %s\n", sig.Title)
	}
	if sig.MetaDescription != "" {
		fmt.Fprintf(&b, "Description: %s\n", sig.MetaDescription)
	}
	if sig.Content != "" {
		fmt.Fprintf(&b, "\nPage content:\n%s\n", sig.Content)
	}
	b.WriteString("\nRespond with the summary only, no preamble.")
	return b.String()
}
