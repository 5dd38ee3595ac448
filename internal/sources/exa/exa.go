// Package exa adapts the Exa search API, whose ISO-8601 published-date bounds
// make it a historical discovery source.
package exa

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

// Adapter queries api.exa.ai.
type Adapter struct {
	config config.ExaConfig
	apiKey string
	client *http.Client
	logger zerolog.Logger

	authFailed atomic.Bool
}

// AdapterBuilder provides a fluent interface for creating the Exa adapter.
type AdapterBuilder struct {
	config config.ExaConfig
	apiKey string
	client *http.Client
	logger zerolog.Logger
}

// NewAdapterBuilder creates a new builder reading the API key from the environment.
func NewAdapterBuilder(logger zerolog.Logger) *AdapterBuilder {
	return &AdapterBuilder{
		config: config.DefaultExaConfig(),
		apiKey: config.APIKeysFromEnv().ExaAPIKey,
		logger: logger.With().Str("component", "ExaAdapter").Logger(),
	}
}

// WithConfig sets the adapter configuration.
func (b *AdapterBuilder) WithConfig(cfg config.ExaConfig) *AdapterBuilder {
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

// Build creates the adapter. A missing API key disables it cleanly.
func (b *AdapterBuilder) Build() (*Adapter, error) {
	if b.config.Endpoint == "" {
		return nil, errorwrapper.NewValidationError("endpoint", b.config.Endpoint, "exa endpoint cannot be empty")
	}
	client := b.client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if b.apiKey == "" {
		b.logger.Debug().Msg("EXA_API_KEY not set, adapter disabled")
	}
	return &Adapter{config: b.config, apiKey: b.apiKey, client: client, logger: b.logger}, nil
}

// Source implements sources.Adapter.
func (a *Adapter) Source() models.ArchiveSource {
	return models.SourceExaHistorical
}

// Available implements sources.Adapter.
func (a *Adapter) Available() bool {
	return a.apiKey != "" && !a.authFailed.Load()
}

// SearchResult is one document returned by Exa search.
type SearchResult struct {
	URL           string `json:"url"`
	Title         string `json:"title"`
	PublishedDate string `json:"publishedDate"`
	Text          string `json:"text,omitempty"`
}

type searchResponse struct {
	Results []SearchResult `json:"results"`
}

// Search runs a query bounded by the caller's date range (translated to
// ISO-8601 published-date bounds).
func (a *Adapter) Search(ctx context.Context, query string, dateRange urlhandler.DateRange, limit int) ([]SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, errorwrapper.NewValidationError("query", query, "query cannot be empty")
	}
	if err := dateRange.Validate(); err != nil {
		return nil, err
	}
	if !a.Available() {
		return nil, nil
	}

	body := map[string]any{
		"query":      query,
		"numResults": limit,
		"contents":   map[string]any{"text": true},
	}
	if dateRange.From != "" {
		body["startPublishedDate"] = dateRange.From + "T00:00:00.000Z"
	}
	if dateRange.To != "" {
		body["endPublishedDate"] = dateRange.To + "T23:59:59.999Z"
	}
	return a.postResults(ctx, "/search", body)
}

// FindSimilar returns documents similar to the given URL.
func (a *Adapter) FindSimilar(ctx context.Context, targetURL string, limit int) ([]SearchResult, error) {
	if strings.TrimSpace(targetURL) == "" {
		return nil, errorwrapper.NewValidationError("url", targetURL, "url cannot be empty")
	}
	if !a.Available() {
		return nil, nil
	}
	return a.postResults(ctx, "/findSimilar", map[string]any{
		"url":        targetURL,
		"numResults": limit,
		"contents":   map[string]any{"text": true},
	})
}

// Fetch retrieves a URL's text through the contents endpoint.
func (a *Adapter) Fetch(ctx context.Context, targetURL string, opts sources.FetchOptions) (*models.FetchResult, error) {
	if strings.TrimSpace(targetURL) == "" {
		return nil, errorwrapper.NewValidationError("url", targetURL, "url cannot be empty")
	}
	if err := opts.DateRange.Validate(); err != nil {
		return nil, err
	}
	if !a.Available() {
		return models.EmptyFetchResult(targetURL, models.SourceExaHistorical), nil
	}

	results, err := a.postResults(ctx, "/contents", map[string]any{
		"urls": []string{targetURL},
		"text": true,
	})
	if err != nil || len(results) == 0 {
		return models.EmptyFetchResult(targetURL, models.SourceExaHistorical), nil
	}

	result := &models.FetchResult{
		URL:     targetURL,
		Source:  models.SourceExaHistorical,
		Content: results[0].Text,
	}
	if results[0].Title != "" {
		result.WithMetadata("title", results[0].Title)
	}
	if results[0].PublishedDate != "" {
		result.WithMetadata("published_date", results[0].PublishedDate)
	}
	return result, nil
}

// Exists reports whether Exa can produce content for the URL.
func (a *Adapter) Exists(ctx context.Context, targetURL string, dateRange urlhandler.DateRange) (bool, error) {
	result, err := a.Fetch(ctx, targetURL, sources.FetchOptions{DateRange: dateRange})
	if err != nil {
		return false, err
	}
	return result.Success(), nil
}

// ListSnapshots is not a capability: Exa indexes current documents, not captures.
func (a *Adapter) ListSnapshots(context.Context, string, sources.ListOptions) ([]models.Snapshot, error) {
	return nil, errorwrapper.ErrUnsupportedOperation
}

func (a *Adapter) postResults(ctx context.Context, path string, body map[string]any) ([]SearchResult, error) {
	payload, _ := json.Marshal(body)
	resp, err := httpclient.Do(ctx, a.client, httpclient.RequestOptions{
		Method: http.MethodPost,
		URL:    a.config.Endpoint + path,
		Headers: map[string]string{
			"x-api-key":    a.apiKey,
			"Content-Type": "application/json",
		},
		Body: bytes.NewReader(payload),
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		a.logger.Debug().Err(err).Str("path", path).Msg("Exa request failed")
		return nil, nil
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		if !a.authFailed.Swap(true) {
			a.logger.Error().Int("status", resp.StatusCode).Msg("Exa authentication failed, adapter disabled")
		}
		return nil, nil
	}
	if !resp.IsSuccess() {
		a.logger.Debug().Int("status", resp.StatusCode).Str("path", path).Msg("Exa request rejected")
		return nil, nil
	}

	var parsed searchResponse
	if err := json.Unmarshal(resp.Body, &parsed); err != nil {
		a.logger.Debug().Err(err).Msg("Exa response unparseable")
		return nil, nil
	}
	return parsed.Results, nil
}
