// Package wayback adapts the Internet Archive's CDX index and content
// endpoints to the source contract.
package wayback

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/webrewind/webrewind/internal/config"
	"github.com/webrewind/webrewind/internal/errorwrapper"
	"github.com/webrewind/webrewind/internal/httpclient"
	"github.com/webrewind/webrewind/internal/models"
	"github.com/webrewind/webrewind/internal/sources"
	"github.com/webrewind/webrewind/internal/urlhandler"
)

// Adapter queries web.archive.org.
type Adapter struct {
	config config.WaybackConfig
	client *http.Client
	logger zerolog.Logger
}

// AdapterBuilder provides a fluent interface for creating the Wayback adapter.
type AdapterBuilder struct {
	config config.WaybackConfig
	client *http.Client
	logger zerolog.Logger
}

// NewAdapterBuilder creates a new builder.
func NewAdapterBuilder(logger zerolog.Logger) *AdapterBuilder {
	return &AdapterBuilder{
		config: config.DefaultWaybackConfig(),
		logger: logger.With().Str("component", "WaybackAdapter").Logger(),
	}
}

// WithConfig sets the adapter configuration.
func (b *AdapterBuilder) WithConfig(cfg config.WaybackConfig) *AdapterBuilder {
	b.config = cfg
	return b
}

// WithHTTPClient injects the shared HTTP client.
func (b *AdapterBuilder) WithHTTPClient(client *http.Client) *AdapterBuilder {
	b.client = client
	return b
}

// Build creates the adapter.
func (b *AdapterBuilder) Build() (*Adapter, error) {
	if b.config.CDXEndpoint == "" || b.config.ContentEndpoint == "" {
		return nil, errorwrapper.NewValidationError("endpoints", b.config, "wayback endpoints cannot be empty")
	}
	client := b.client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Adapter{
		config: b.config,
		client: client,
		logger: b.logger,
	}, nil
}

// Source implements sources.Adapter.
func (a *Adapter) Source() models.ArchiveSource {
	return models.SourceWaybackCDX
}

// Available implements sources.Adapter. Wayback needs no credentials.
func (a *Adapter) Available() bool {
	return true
}

// ListSnapshots queries the CDX endpoint, newest first. Near-duplicates are
// collapsed to one capture per day; 4xx/5xx captures are excluded unless the
// caller opts in.
func (a *Adapter) ListSnapshots(ctx context.Context, targetURL string, opts sources.ListOptions) ([]models.Snapshot, error) {
	if strings.TrimSpace(targetURL) == "" {
		return nil, errorwrapper.NewValidationError("url", targetURL, "url cannot be empty")
	}
	if err := opts.DateRange.Validate(); err != nil {
		return nil, err
	}

	records, err := a.queryCDX(ctx, cdxQuery{
		url:           targetURL,
		dateRange:     opts.DateRange,
		limit:         opts.Limit,
		includeErrors: opts.IncludeErrors,
		collapse:      a.config.Collapse,
	})
	if err != nil {
		a.logger.Debug().Err(err).Str("url", targetURL).Msg("CDX listing failed")
		return nil, nil
	}

	snapshots := make([]models.Snapshot, 0, len(records))
	for _, rec := range records {
		snapshots = append(snapshots, rec.ToSnapshot(models.SourceWaybackCDX, a.viewURL(rec.Timestamp, rec.URL)))
	}
	models.SortSnapshotsDesc(snapshots)
	return snapshots, nil
}

// Fetch retrieves the unmodified original bytes via the id_ modifier. Without
// a timestamp the newest capture is used.
func (a *Adapter) Fetch(ctx context.Context, targetURL string, opts sources.FetchOptions) (*models.FetchResult, error) {
	if strings.TrimSpace(targetURL) == "" {
		return nil, errorwrapper.NewValidationError("url", targetURL, "url cannot be empty")
	}
	if err := opts.DateRange.Validate(); err != nil {
		return nil, err
	}

	timestamp := opts.Timestamp
	if timestamp == "" {
		snapshots, err := a.ListSnapshots(ctx, targetURL, sources.ListOptions{DateRange: opts.DateRange, Limit: 1})
		if err != nil {
			return nil, err
		}
		if len(snapshots) == 0 {
			return models.EmptyFetchResult(targetURL, a.Source()), nil
		}
		timestamp = snapshots[0].Timestamp
	}

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = time.Duration(a.config.FetchTimeoutSecs) * time.Second
	}

	fetchURL := a.config.ContentEndpoint + "/" + timestamp + "id_/" + targetURL
	resp, err := httpclient.Do(ctx, a.client, httpclient.RequestOptions{
		URL:     fetchURL,
		Timeout: timeout,
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		a.logger.Debug().Err(err).Str("url", fetchURL).Msg("Content fetch failed")
		return models.EmptyFetchResult(targetURL, a.Source()), nil
	}

	// Results carry the adapter's registered source so a pinned fetch is
	// tagged with the source it was pinned to; the content endpoint stays
	// visible as provenance metadata.
	result := &models.FetchResult{
		URL:        targetURL,
		Timestamp:  timestamp,
		Source:     a.Source(),
		StatusCode: resp.StatusCode,
		MIMEType:   resp.ContentType(),
	}
	result.WithMetadata("endpoint", models.SourceWaybackData.String())
	if resp.IsSuccess() {
		result.HTML = string(resp.Body)
	}
	return result, nil
}

// Exists reports whether the archive holds any capture of the URL.
func (a *Adapter) Exists(ctx context.Context, targetURL string, dateRange urlhandler.DateRange) (bool, error) {
	snapshots, err := a.ListSnapshots(ctx, targetURL, sources.ListOptions{DateRange: dateRange, Limit: 1})
	if err != nil {
		return false, err
	}
	return len(snapshots) > 0, nil
}

// ListYear lists captures matching a URL pattern (wildcards allowed, e.g.
// "example.com/*") within one calendar year. Used by the streaming search
// engine to walk its year grid.
func (a *Adapter) ListYear(ctx context.Context, pattern string, year, limit int) ([]models.Snapshot, error) {
	if strings.TrimSpace(pattern) == "" {
		return nil, errorwrapper.NewValidationError("pattern", pattern, "pattern cannot be empty")
	}
	yearStr := strconv.Itoa(year)
	dateRange := urlhandler.DateRange{From: yearStr + "-01-01", To: yearStr + "-12-31"}

	records, err := a.queryCDX(ctx, cdxQuery{
		url:       pattern,
		dateRange: dateRange,
		limit:     limit,
		collapse:  a.config.Collapse,
	})
	if err != nil {
		a.logger.Debug().Err(err).Str("pattern", pattern).Int("year", year).Msg("Year listing failed")
		return nil, nil
	}

	snapshots := make([]models.Snapshot, 0, len(records))
	for _, rec := range records {
		snapshots = append(snapshots, rec.ToSnapshot(models.SourceWaybackCDX, a.viewURL(rec.Timestamp, rec.URL)))
	}
	return snapshots, nil
}

// ClosestSnapshot returns the capture nearest to the target date (YYYY-MM-DD).
func (a *Adapter) ClosestSnapshot(ctx context.Context, targetURL, date string) (*models.Snapshot, error) {
	if strings.TrimSpace(targetURL) == "" {
		return nil, errorwrapper.NewValidationError("url", targetURL, "url cannot be empty")
	}
	target := urlhandler.DateRange{From: date}
	if err := target.Validate(); err != nil {
		return nil, err
	}
	closestTS, _ := target.ArchiveBounds()

	records, err := a.queryCDX(ctx, cdxQuery{url: targetURL, closest: closestTS, limit: 1})
	if err != nil {
		a.logger.Debug().Err(err).Str("url", targetURL).Msg("Closest lookup failed")
		return nil, nil
	}
	if len(records) == 0 {
		return nil, nil
	}
	snap := records[0].ToSnapshot(models.SourceWaybackCDX, a.viewURL(records[0].Timestamp, records[0].URL))
	return &snap, nil
}

// SavePageNow submits the URL for archiving and returns without waiting for
// the capture to complete.
func (a *Adapter) SavePageNow(ctx context.Context, targetURL string) (bool, error) {
	if strings.TrimSpace(targetURL) == "" {
		return false, errorwrapper.NewValidationError("url", targetURL, "url cannot be empty")
	}

	form := url.Values{"url": {targetURL}}
	resp, err := httpclient.Do(ctx, a.client, httpclient.RequestOptions{
		Method:  http.MethodPost,
		URL:     a.config.SaveEndpoint,
		Headers: map[string]string{"Content-Type": "application/x-www-form-urlencoded"},
		Body:    strings.NewReader(form.Encode()),
	})
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		a.logger.Debug().Err(err).Str("url", targetURL).Msg("Save page now failed")
		return false, nil
	}
	return resp.IsSuccess(), nil
}

// FetchPrefix retrieves only the first maxBytes of a capture via a range
// request against the id_ form. The streaming search engine uses this as its
// ghost fetch: a cheap keyword probe before committing to a full download.
func (a *Adapter) FetchPrefix(ctx context.Context, timestamp, targetURL string, maxBytes int) (string, error) {
	if strings.TrimSpace(targetURL) == "" {
		return "", errorwrapper.NewValidationError("url", targetURL, "url cannot be empty")
	}
	if maxBytes <= 0 {
		return "", errorwrapper.NewValidationError("max_bytes", maxBytes, "max bytes must be positive")
	}

	fetchURL := a.config.ContentEndpoint + "/" + timestamp + "id_/" + targetURL
	resp, err := httpclient.Do(ctx, a.client, httpclient.RequestOptions{
		URL:          fetchURL,
		RangeBytes:   maxBytes,
		MaxBodyBytes: int64(maxBytes),
	})
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		a.logger.Debug().Err(err).Str("url", fetchURL).Msg("Ghost fetch failed")
		return "", nil
	}
	if !resp.IsSuccess() {
		return "", nil
	}
	return string(resp.Body), nil
}

// ListDomain enumerates captures across a whole domain (matchType=domain
// covers subdomains) for the mapper. Dedup is by URL, first capture kept.
func (a *Adapter) ListDomain(ctx context.Context, domain string, dateRange urlhandler.DateRange, limit int) ([]models.Snapshot, error) {
	if strings.TrimSpace(domain) == "" {
		return nil, errorwrapper.NewValidationError("domain", domain, "domain cannot be empty")
	}
	if err := dateRange.Validate(); err != nil {
		return nil, err
	}

	records, err := a.queryCDX(ctx, cdxQuery{
		url:       domain,
		matchType: "domain",
		dateRange: dateRange,
		limit:     limit,
		collapse:  "urlkey",
	})
	if err != nil {
		a.logger.Debug().Err(err).Str("domain", domain).Msg("Domain listing failed")
		return nil, nil
	}

	seen := make(map[string]struct{}, len(records))
	snapshots := make([]models.Snapshot, 0, len(records))
	for _, rec := range records {
		if _, dup := seen[rec.URL]; dup {
			continue
		}
		seen[rec.URL] = struct{}{}
		snapshots = append(snapshots, rec.ToSnapshot(models.SourceWaybackCDX, a.viewURL(rec.Timestamp, rec.URL)))
	}
	return snapshots, nil
}

func (a *Adapter) viewURL(timestamp, original string) string {
	return a.config.ContentEndpoint + "/" + timestamp + "/" + original
}
