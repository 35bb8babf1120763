// Package anthropic is a minimal messages-API client for text generation.
package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/semaphore"
)

const (
	defaultBaseURL    = "https://api.anthropic.com"
	defaultModel      = "claude-3-5-haiku-20241022"
	defaultTimeout    = 60 * time.Second
	defaultConcurrent = 4
	defaultRetries    = 2

	apiVersion = "2023-06-01"
)

// GenerationError reports a failed generation attempt. Callers treat it as
// recoverable: a degraded result is produced instead of failing the run.
type GenerationError struct {
	StatusCode int
	Err        error
}

func (e *GenerationError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("generation failed: status %d", e.StatusCode)
	}
	return fmt.Sprintf("generation failed: %v", e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

type Config struct {
	APIKey        string
	BaseURL       string
	Model         string
	TimeoutSecs   int
	MaxConcurrent int64
	MaxRetries    uint64
}

func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURL
	}
	if c.Model == "" {
		c.Model = defaultModel
	}
	if c.TimeoutSecs <= 0 {
		c.TimeoutSecs = int(defaultTimeout.Seconds())
	}
	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = defaultConcurrent
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = defaultRetries
	}
	return c
}

// Client calls the messages API. Safe for concurrent use; in-flight requests
// are bounded by a weighted semaphore shared across all callers of one Client.
type Client struct {
	cfg  Config
	http *http.Client
	sem  *semaphore.Weighted
}

func New(cfg Config) *Client {
	cfg = cfg.withDefaults()
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: time.Duration(cfg.TimeoutSecs) * time.Second},
		sem:  semaphore.NewWeighted(cfg.MaxConcurrent),
	}
}

type messageRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messageResponse struct {
	Content []contentBlock `json:"content"`
	Error   *apiError      `json:"error,omitempty"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type apiError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Complete sends a single-turn prompt and returns the concatenated text
// blocks of the response. Rate-limit and server errors are retried with
// exponential backoff before giving up.
func (c *Client) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return "", &GenerationError{Err: err}
	}
	defer c.sem.Release(1)

	body, err := json.Marshal(messageRequest{
		Model:     c.cfg.Model,
		MaxTokens: maxTokens,
		Messages:  []message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", &GenerationError{Err: err}
	}

	var text string
	backoff := retry.WithMaxRetries(c.cfg.MaxRetries, retry.NewExponential(500*time.Millisecond))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		text, err = c.send(ctx, body)
		return err
	})
	if err != nil {
		var ge *GenerationError
		if errors.As(err, &ge) {
			return "", ge
		}
		return "", &GenerationError{Err: err}
	}
	return text, nil
}

func (c *Client) send(ctx context.Context, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return "", &GenerationError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", c.cfg.APIKey)
	req.Header.Set("Anthropic-Version", apiVersion)

	resp, err := c.http.Do(req)
	if err != nil {
		// Transport failures are worth another attempt.
		return "", retry.RetryableError(&GenerationError{Err: err})
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", retry.RetryableError(&GenerationError{Err: err})
	}

	if resp.StatusCode != http.StatusOK {
		ge := &GenerationError{StatusCode: resp.StatusCode}
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return "", retry.RetryableError(ge)
		}
		return "", ge
	}

	var mr messageResponse
	if err := json.Unmarshal(raw, &mr); err != nil {
		return "", &GenerationError{Err: fmt.Errorf("decode response: %w", err)}
	}
	if mr.Error != nil {
		return "", &GenerationError{Err: fmt.Errorf("%s: %s", mr.Error.Type, mr.Error.Message)}
	}

	var out string
	for _, block := range mr.Content {
		if block.Type == "text" {
			out += block.Text
		}
	}
	if out == "" {
		return "", &GenerationError{Err: fmt.Errorf("empty completion")}
	}
	return out, nil
}
