// Package memento adapts the Time Travel aggregator, which federates roughly
// forty public web archives behind one TimeMap endpoint.
package memento

import (
	"context"
	"net/http"
	"net/url"
	"sort"
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

// Adapter queries the Memento aggregator.
type Adapter struct {
	config config.MementoConfig
	client *http.Client
	logger zerolog.Logger
}

// AdapterBuilder provides a fluent interface for creating the Memento adapter.
type AdapterBuilder struct {
	config config.MementoConfig
	client *http.Client
	logger zerolog.Logger
}

// NewAdapterBuilder creates a new builder.
func NewAdapterBuilder(logger zerolog.Logger) *AdapterBuilder {
	return &AdapterBuilder{
		config: config.DefaultMementoConfig(),
		logger: logger.With().Str("component", "MementoAdapter").Logger(),
	}
}

// WithConfig sets the adapter configuration.
func (b *AdapterBuilder) WithConfig(cfg config.MementoConfig) *AdapterBuilder {
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
	if b.config.TimeMapEndpoint == "" {
		return nil, errorwrapper.NewValidationError("timemap_endpoint", b.config.TimeMapEndpoint, "memento endpoint cannot be empty")
	}
	client := b.client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Adapter{config: b.config, client: client, logger: b.logger}, nil
}

// Source implements sources.Adapter.
func (a *Adapter) Source() models.ArchiveSource {
	return models.SourceMemento
}

// Available implements sources.Adapter. The aggregator is unauthenticated.
func (a *Adapter) Available() bool {
	return true
}

// ListSnapshots parses the aggregator's JSON TimeMap, identifies each capture's
// source archive from the memento URL's host, and ranks by the configured
// archive preference, newest first within a rank.
func (a *Adapter) ListSnapshots(ctx context.Context, targetURL string, opts sources.ListOptions) ([]models.Snapshot, error) {
	if strings.TrimSpace(targetURL) == "" {
		return nil, errorwrapper.NewValidationError("url", targetURL, "url cannot be empty")
	}
	if err := opts.DateRange.Validate(); err != nil {
		return nil, err
	}

	mementos, err := a.queryTimeMap(ctx, targetURL)
	if err != nil {
		a.logger.Debug().Err(err).Str("url", targetURL).Msg("TimeMap query failed")
		return nil, nil
	}

	snapshots := make([]models.Snapshot, 0, len(mementos))
	for _, m := range mementos {
		// The aggregator has no native range support; filter client-side.
		if !opts.DateRange.Contains(m.timestamp) {
			continue
		}
		snapshots = append(snapshots, models.Snapshot{
			URL:       targetURL,
			Timestamp: m.timestamp,
			Source:    models.SourceMemento,
			ViewURL:   m.uri,
			MIMEType:  "",
		})
	}
	a.rank(snapshots)
	if opts.Limit > 0 && len(snapshots) > opts.Limit {
		snapshots = snapshots[:opts.Limit]
	}
	return snapshots, nil
}

// Fetch tries the top-ranked capture candidates sequentially and returns the
// first one that answers 2xx.
func (a *Adapter) Fetch(ctx context.Context, targetURL string, opts sources.FetchOptions) (*models.FetchResult, error) {
	snapshots, err := a.ListSnapshots(ctx, targetURL, sources.ListOptions{DateRange: opts.DateRange})
	if err != nil {
		return nil, err
	}

	candidates := a.config.FetchCandidates
	if candidates <= 0 {
		candidates = config.DefaultMementoFetchCandidates
	}
	if len(snapshots) > candidates {
		snapshots = snapshots[:candidates]
	}

	for _, snap := range snapshots {
		resp, err := httpclient.Do(ctx, a.client, httpclient.RequestOptions{
			URL:     snap.ViewURL,
			Timeout: opts.Timeout,
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			a.logger.Debug().Err(err).Str("memento", snap.ViewURL).Msg("Memento fetch failed, trying next")
			continue
		}
		if !resp.IsSuccess() {
			continue
		}
		return &models.FetchResult{
			URL:        targetURL,
			Timestamp:  snap.Timestamp,
			Source:     models.SourceMemento,
			StatusCode: resp.StatusCode,
			MIMEType:   resp.ContentType(),
			HTML:       string(resp.Body),
			Metadata:   map[string]string{"archive": ArchiveForURL(snap.ViewURL)},
		}, nil
	}
	return models.EmptyFetchResult(targetURL, models.SourceMemento), nil
}

// Exists reports whether any federated archive holds a capture of the URL.
func (a *Adapter) Exists(ctx context.Context, targetURL string, dateRange urlhandler.DateRange) (bool, error) {
	snapshots, err := a.ListSnapshots(ctx, targetURL, sources.ListOptions{DateRange: dateRange, Limit: 1})
	if err != nil {
		return false, err
	}
	return len(snapshots) > 0, nil
}

// ArchiveSummary is the per-archive roll-up of one URL's captures.
type ArchiveSummary struct {
	Archive string `json:"archive"`
	Count   int    `json:"count"`
	Oldest  string `json:"oldest"`
	Newest  string `json:"newest"`
}

// CompareArchives groups a URL's captures by source archive and summarizes
// each archive's coverage.
func (a *Adapter) CompareArchives(ctx context.Context, targetURL string) ([]ArchiveSummary, error) {
	snapshots, err := a.ListSnapshots(ctx, targetURL, sources.ListOptions{})
	if err != nil {
		return nil, err
	}

	byArchive := make(map[string]*ArchiveSummary)
	for _, snap := range snapshots {
		archive := ArchiveForURL(snap.ViewURL)
		summary, ok := byArchive[archive]
		if !ok {
			summary = &ArchiveSummary{Archive: archive, Oldest: snap.Timestamp, Newest: snap.Timestamp}
			byArchive[archive] = summary
		}
		summary.Count++
		if snap.Timestamp < summary.Oldest {
			summary.Oldest = snap.Timestamp
		}
		if snap.Timestamp > summary.Newest {
			summary.Newest = snap.Timestamp
		}
	}

	summaries := make([]ArchiveSummary, 0, len(byArchive))
	for _, summary := range byArchive {
		summaries = append(summaries, *summary)
	}
	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].Count != summaries[j].Count {
			return summaries[i].Count > summaries[j].Count
		}
		return summaries[i].Archive < summaries[j].Archive
	})
	return summaries, nil
}

// rank orders snapshots by configured archive preference, then newest first.
func (a *Adapter) rank(snapshots []models.Snapshot) {
	rankOf := func(viewURL string) int {
		host, err := urlhandler.ExtractHostname(viewURL)
		if err != nil {
			return len(a.config.PreferredArchives)
		}
		for i, preferred := range a.config.PreferredArchives {
			if urlhandler.IsSameOrSubdomain(host, preferred) {
				return i
			}
		}
		return len(a.config.PreferredArchives)
	}
	sort.SliceStable(snapshots, func(i, j int) bool {
		ri, rj := rankOf(snapshots[i].ViewURL), rankOf(snapshots[j].ViewURL)
		if ri != rj {
			return ri < rj
		}
		return snapshots[i].Timestamp > snapshots[j].Timestamp
	})
}

func (a *Adapter) queryTimeMap(ctx context.Context, targetURL string) ([]memento, error) {
	endpoint := a.config.TimeMapEndpoint + url.QueryEscape(targetURL)
	resp, err := httpclient.Do(ctx, a.client, httpclient.RequestOptions{
		URL:     endpoint,
		Headers: map[string]string{"Accept": "application/json"},
	})
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if !resp.IsSuccess() {
		return nil, errorwrapper.NewHTTPErrorWithURL(resp.StatusCode, "TimeMap query failed", targetURL)
	}
	return parseTimeMap(resp.Body)
}
