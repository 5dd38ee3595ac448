// Package commoncrawl adapts CommonCrawl's hosted CDX server, its sharded
// cluster index, and the external WARC/WAT fetcher binary to the source
// contract.
package commoncrawl

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/webrewind/webrewind/internal/config"
	"github.com/webrewind/webrewind/internal/errorwrapper"
	"github.com/webrewind/webrewind/internal/models"
	"github.com/webrewind/webrewind/internal/sources"
	"github.com/webrewind/webrewind/internal/urlhandler"
)

// IndexAdapter answers metadata queries from the CommonCrawl index: the CDX
// server for single-URL lookups, the cluster index for domain-wide
// enumeration. Content fetching belongs to the DataAdapter.
type IndexAdapter struct {
	config  config.CommonCrawlConfig
	client  *http.Client
	catalog *Catalog
	cluster *ClusterIndex
	logger  zerolog.Logger
}

// IndexAdapterBuilder provides a fluent interface for creating the index adapter.
type IndexAdapterBuilder struct {
	config  config.CommonCrawlConfig
	dataDir string
	client  *http.Client
	logger  zerolog.Logger
}

// NewIndexAdapterBuilder creates a new builder.
func NewIndexAdapterBuilder(logger zerolog.Logger) *IndexAdapterBuilder {
	return &IndexAdapterBuilder{
		config:  config.DefaultCommonCrawlConfig(),
		dataDir: config.DefaultDataDir,
		logger:  logger.With().Str("component", "CCIndexAdapter").Logger(),
	}
}

// WithConfig sets the adapter configuration.
func (b *IndexAdapterBuilder) WithConfig(cfg config.CommonCrawlConfig) *IndexAdapterBuilder {
	b.config = cfg
	return b
}

// WithDataDir sets the cluster.idx cache directory.
func (b *IndexAdapterBuilder) WithDataDir(dir string) *IndexAdapterBuilder {
	b.dataDir = dir
	return b
}

// WithHTTPClient injects the shared HTTP client.
func (b *IndexAdapterBuilder) WithHTTPClient(client *http.Client) *IndexAdapterBuilder {
	b.client = client
	return b
}

// Build creates the adapter.
func (b *IndexAdapterBuilder) Build() (*IndexAdapter, error) {
	if b.config.IndexServerURL == "" || b.config.DataServerURL == "" {
		return nil, errorwrapper.NewValidationError("endpoints", b.config, "commoncrawl endpoints cannot be empty")
	}
	client := b.client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	ttl := time.Duration(b.config.CollectionCacheTTLMins) * time.Minute
	return &IndexAdapter{
		config:  b.config,
		client:  client,
		catalog: NewCatalog(b.config.IndexServerURL, ttl, client, b.logger),
		cluster: NewClusterIndex(b.config, b.dataDir, client, b.logger),
		logger:  b.logger,
	}, nil
}

// Source implements sources.Adapter.
func (a *IndexAdapter) Source() models.ArchiveSource {
	return models.SourceCommonCrawlIndex
}

// Available implements sources.Adapter. The index server is unauthenticated.
func (a *IndexAdapter) Available() bool {
	return true
}

// Fetch is not a capability of the index: it holds metadata, not bytes.
func (a *IndexAdapter) Fetch(context.Context, string, sources.FetchOptions) (*models.FetchResult, error) {
	return nil, errorwrapper.ErrUnsupportedOperation
}

// ListSnapshots looks the URL up in the CDX server, newest first.
func (a *IndexAdapter) ListSnapshots(ctx context.Context, targetURL string, opts sources.ListOptions) ([]models.Snapshot, error) {
	if strings.TrimSpace(targetURL) == "" {
		return nil, errorwrapper.NewValidationError("url", targetURL, "url cannot be empty")
	}
	if err := opts.DateRange.Validate(); err != nil {
		return nil, err
	}

	archive, err := a.resolveArchive(ctx)
	if err != nil {
		a.logger.Debug().Err(err).Msg("Archive resolution failed")
		return nil, nil
	}

	records, err := a.queryCDXServer(ctx, archive, targetURL, opts.DateRange, opts.Limit)
	if err != nil {
		a.logger.Debug().Err(err).Str("url", targetURL).Msg("CDX server query failed")
		return nil, nil
	}

	snapshots := make([]models.Snapshot, 0, len(records))
	for _, rec := range records {
		if !opts.IncludeErrors && rec.StatusCode >= 400 {
			continue
		}
		snapshots = append(snapshots, rec.ToSnapshot(models.SourceCommonCrawlIndex, ""))
	}
	models.SortSnapshotsDesc(snapshots)
	return snapshots, nil
}

// Exists reports whether the index has any capture of the URL.
func (a *IndexAdapter) Exists(ctx context.Context, targetURL string, dateRange urlhandler.DateRange) (bool, error) {
	snapshots, err := a.ListSnapshots(ctx, targetURL, sources.ListOptions{DateRange: dateRange, Limit: 1})
	if err != nil {
		return false, err
	}
	return len(snapshots) > 0, nil
}

// DomainRecords enumerates a domain through the cluster index. An empty
// archive resolves to the newest collection.
func (a *IndexAdapter) DomainRecords(ctx context.Context, archive, domain string, query ClusterQuery) ([]models.CDXRecord, error) {
	if archive == "" {
		resolved, err := a.resolveArchive(ctx)
		if err != nil {
			return nil, err
		}
		archive = resolved
	}
	return a.cluster.DomainRecords(ctx, archive, domain, query)
}

// URLRecords looks one URL up in the CDX server and returns the raw records,
// WARC coordinates included, for the data fetcher to consume.
func (a *IndexAdapter) URLRecords(ctx context.Context, targetURL string, dateRange urlhandler.DateRange, limit int) ([]models.CDXRecord, error) {
	if strings.TrimSpace(targetURL) == "" {
		return nil, errorwrapper.NewValidationError("url", targetURL, "url cannot be empty")
	}
	archive, err := a.resolveArchive(ctx)
	if err != nil {
		return nil, err
	}
	return a.queryCDXServer(ctx, archive, targetURL, dateRange, limit)
}

func (a *IndexAdapter) resolveArchive(ctx context.Context) (string, error) {
	if a.config.DefaultArchive != "" {
		return a.config.DefaultArchive, nil
	}
	return a.catalog.LatestArchive(ctx)
}

func timeoutSeconds(secs int) time.Duration {
	return time.Duration(secs) * time.Second
}
