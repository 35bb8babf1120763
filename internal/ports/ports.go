package ports

import (
	"context"

	"weblser/internal/domain"
)

// Fetcher retrieves a page snapshot and its derived signals. A non-success
// HTTP status, timeout, or unreachable host surfaces as *fetcher.FetchError.
type Fetcher interface {
	Fetch(ctx context.Context, rawurl string) (*domain.PageSignals, error)
}

// Generator is the text-generation collaborator. Treated as unreliable: the
// returned text may wrap JSON in prose or fences, be truncated, or the call
// may fail transiently.
type Generator interface {
	Complete(ctx context.Context, prompt string, maxTokens int) (string, error)
}
