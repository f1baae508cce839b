package source

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

// Fetcher supplies the free-form text the extractor scans. Implementations
// may fail; the pipeline falls back to the built-in candidate list.
type Fetcher interface {
	Fetch(ctx context.Context) (string, error)
}

// GitHub fetches an issue body from the GitHub issues API. Candidate
// endpoints are maintained as a plain-text issue, so the body is all we
// read from the response.
type GitHub struct {
	client *resty.Client
	url    string
}

// NewGitHub builds a fetcher for the given issues API URL. token is
// optional; set it to raise the unauthenticated rate limit.
func NewGitHub(url, token string, timeout time.Duration) *GitHub {
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(3).
		SetRetryWaitTime(500 * time.Millisecond).
		SetHeader("Accept", "application/vnd.github+json").
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return r.StatusCode() == 429 || r.StatusCode() >= 500
		})
	if token != "" {
		client.SetAuthToken(token)
	}
	return &GitHub{client: client, url: url}
}

type issue struct {
	Body string `json:"body"`
}

// Fetch returns the issue body text.
func (g *GitHub) Fetch(ctx context.Context) (string, error) {
	var out issue
	resp, err := g.client.R().
		SetContext(ctx).
		SetResult(&out).
		Get(g.url)
	if err != nil {
		return "", fmt.Errorf("fetch source text: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("fetch source text: %s returned %s", g.url, resp.Status())
	}
	log.Debug().
		Str("url", g.url).
		Int("bytes", len(out.Body)).
		Msg("Fetched source text")
	return out.Body, nil
}
