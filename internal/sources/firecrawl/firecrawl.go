// Package firecrawl adapts the Firecrawl scrape API in cache-first mode:
// maxAge asks for a cached copy no older than the configured window before
// falling back to a live scrape.
package firecrawl

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/webrewind/webrewind/internal/config"
	"github.com/webrewind/webrewind/internal/errorwrapper"
	"github.com/webrewind/webrewind/internal/httpclient"
	"github.com/webrewind/webrewind/internal/models"
	"github.com/webrewind/webrewind/internal/sources"
	"github.com/webrewind/webrewind/internal/urlhandler"
)

// Adapter scrapes through api.firecrawl.dev.
type Adapter struct {
	config config.FirecrawlConfig
	apiKey string
	client *http.Client
	logger zerolog.Logger

	// authFailed remembers a 401/403 so subsequent calls fast-path to empty
	// until the adapter is rebuilt.
	authFailed atomic.Bool
}

// AdapterBuilder provides a fluent interface for creating the Firecrawl adapter.
type AdapterBuilder struct {
	config config.FirecrawlConfig
	apiKey string
	client *http.Client
	logger zerolog.Logger
}

// NewAdapterBuilder creates a new builder reading the API key from the environment.
func NewAdapterBuilder(logger zerolog.Logger) *AdapterBuilder {
	return &AdapterBuilder{
		config: config.DefaultFirecrawlConfig(),
		apiKey: config.APIKeysFromEnv().FirecrawlAPIKey,
		logger: logger.With().Str("component", "FirecrawlAdapter").Logger(),
	}
}

// WithConfig sets the adapter configuration.
func (b *AdapterBuilder) WithConfig(cfg config.FirecrawlConfig) *AdapterBuilder {
	b.config = cfg
	return b
}

// WithAPIKey overrides the environment-sourced API key.
func (b *AdapterBuilder) WithAPIKey(key string) *AdapterBuilder {
	b.apiKey = key
	return b
}

// WithHTTPClient injects the shared HTTP client.
func (b *AdapterBuilder) WithHTTPClient(client *http.Client) *AdapterBuilder {
	b.client = client
	return b
}

// Build creates the adapter. A missing API key is not an error: the adapter
// reports unavailable and acts as a no-op.
func (b *AdapterBuilder) Build() (*Adapter, error) {
	if b.config.Endpoint == "" {
		return nil, errorwrapper.NewValidationError("endpoint", b.config.Endpoint, "firecrawl endpoint cannot be empty")
	}
	client := b.client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	adapter := &Adapter{config: b.config, apiKey: b.apiKey, client: client, logger: b.logger}
	if b.apiKey == "" {
		b.logger.Debug().Msg("FIRECRAWL_API_KEY not set, adapter disabled")
	}
	return adapter, nil
}

// Source implements sources.Adapter.
func (a *Adapter) Source() models.ArchiveSource {
	return models.SourceFirecrawl
}

// Available implements sources.Adapter.
func (a *Adapter) Available() bool {
	return a.apiKey != "" && !a.authFailed.Load()
}

type scrapeRequest struct {
	URL     string   `json:"url"`
	Formats []string `json:"formats"`
	MaxAge  int64    `json:"maxAge,omitempty"` // milliseconds
}

type scrapeResponse struct {
	Success bool `json:"success"`
	Data    struct {
		HTML     string `json:"html"`
		Markdown string `json:"markdown"`
		Metadata struct {
			Title      string `json:"title"`
			StatusCode int    `json:"statusCode"`
		} `json:"metadata"`
	} `json:"data"`
}

// Fetch scrapes the URL, preferring Firecrawl's cache up to the configured age.
func (a *Adapter) Fetch(ctx context.Context, targetURL string, opts sources.FetchOptions) (*models.FetchResult, error) {
	if strings.TrimSpace(targetURL) == "" {
		return nil, errorwrapper.NewValidationError("url", targetURL, "url cannot be empty")
	}
	if err := opts.DateRange.Validate(); err != nil {
		return nil, err
	}
	if !a.Available() {
		return models.EmptyFetchResult(targetURL, models.SourceFirecrawl), nil
	}

	maxAgeDays := a.config.MaxAgeDays
	if maxAgeDays <= 0 {
		maxAgeDays = config.DefaultFirecrawlMaxAgeDays
	}
	payload, _ := json.Marshal(scrapeRequest{
		URL:     targetURL,
		Formats: []string{"html", "markdown"},
		MaxAge:  int64(maxAgeDays) * 24 * int64(time.Hour/time.Millisecond),
	})

	resp, err := httpclient.Do(ctx, a.client, httpclient.RequestOptions{
		Method: http.MethodPost,
		URL:    a.config.Endpoint + "/scrape",
		Headers: map[string]string{
			"Authorization": "Bearer " + a.apiKey,
			"Content-Type":  "application/json",
		},
		Body:    bytes.NewReader(payload),
		Timeout: opts.Timeout,
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		a.logger.Debug().Err(err).Str("url", targetURL).Msg("Scrape request failed")
		return models.EmptyFetchResult(targetURL, models.SourceFirecrawl), nil
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		if !a.authFailed.Swap(true) {
			a.logger.Error().Int("status", resp.StatusCode).Msg("Firecrawl authentication failed, adapter disabled")
		}
		return models.EmptyFetchResult(targetURL, models.SourceFirecrawl), nil
	}
	if !resp.IsSuccess() {
		a.logger.Debug().Int("status", resp.StatusCode).Str("url", targetURL).Msg("Scrape rejected")
		return models.EmptyFetchResult(targetURL, models.SourceFirecrawl), nil
	}

	var parsed scrapeResponse
	if err := json.Unmarshal(resp.Body, &parsed); err != nil || !parsed.Success {
		a.logger.Debug().Err(err).Str("url", targetURL).Msg("Scrape response unusable")
		return models.EmptyFetchResult(targetURL, models.SourceFirecrawl), nil
	}

	result := &models.FetchResult{
		URL:        targetURL,
		Source:     models.SourceFirecrawl,
		StatusCode: parsed.Data.Metadata.StatusCode,
		HTML:       parsed.Data.HTML,
		Content:    parsed.Data.Markdown,
	}
	if parsed.Data.Metadata.Title != "" {
		result.WithMetadata("title", parsed.Data.Metadata.Title)
	}
	return result, nil
}

// Exists scrapes and reports whether content came back.
func (a *Adapter) Exists(ctx context.Context, targetURL string, dateRange urlhandler.DateRange) (bool, error) {
	result, err := a.Fetch(ctx, targetURL, sources.FetchOptions{DateRange: dateRange})
	if err != nil {
		return false, err
	}
	return result.Success(), nil
}

// ListSnapshots is not a capability: Firecrawl holds at most one cached copy.
func (a *Adapter) ListSnapshots(context.Context, string, sources.ListOptions) ([]models.Snapshot, error) {
	return nil, errorwrapper.ErrUnsupportedOperation
}
