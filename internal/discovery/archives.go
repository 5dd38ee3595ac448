package discovery

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/webrewind/webrewind/internal/models"
	"github.com/webrewind/webrewind/internal/sources/commoncrawl"
	"github.com/webrewind/webrewind/internal/sources/wayback"
)

// WaybackSource enumerates a domain's archived URLs through the Wayback CDX
// domain listing. Filters for MIME and status are applied to the returned
// records.
type WaybackSource struct {
	adapter *wayback.Adapter
	logger  zerolog.Logger
}

// NewWaybackSource wraps the Wayback adapter as a discovery source.
func NewWaybackSource(adapter *wayback.Adapter, logger zerolog.Logger) *WaybackSource {
	return &WaybackSource{
		adapter: adapter,
		logger:  logger.With().Str("component", "WaybackSource").Logger(),
	}
}

// Name implements Source.
func (s *WaybackSource) Name() string { return "wayback" }

// Available implements Source.
func (s *WaybackSource) Available() bool { return s.adapter != nil && s.adapter.Available() }

// Discover lists the domain's captures (subdomains included) and converts
// them into discovered URLs carrying the capture timestamp.
func (s *WaybackSource) Discover(ctx context.Context, domain string, opts Options) ([]models.DiscoveredURL, error) {
	snapshots, err := s.adapter.ListDomain(ctx, domain, opts.DateRange, opts.Limit)
	if err != nil {
		return nil, err
	}

	urls := make([]models.DiscoveredURL, 0, len(snapshots))
	for _, snap := range snapshots {
		if opts.MIMEFilter != "" && snap.MIMEType != opts.MIMEFilter {
			continue
		}
		if opts.StatusFilter != 0 && snap.StatusCode != opts.StatusFilter {
			continue
		}
		d := newDiscovered(snap.URL, domain, s.Name(), models.SourceWaybackCDX)
		d.Timestamp = snap.Timestamp
		d.ViewURL = snap.ViewURL
		d.MIMEType = snap.MIMEType
		d.Status = snap.StatusCode
		urls = append(urls, d)
	}
	return urls, nil
}

// CommonCrawlSource enumerates a domain's URLs through the CC cluster index.
// MIME and date filters push down into the block scan.
type CommonCrawlSource struct {
	adapter *commoncrawl.IndexAdapter
	logger  zerolog.Logger
}

// NewCommonCrawlSource wraps the CC index adapter as a discovery source.
func NewCommonCrawlSource(adapter *commoncrawl.IndexAdapter, logger zerolog.Logger) *CommonCrawlSource {
	return &CommonCrawlSource{
		adapter: adapter,
		logger:  logger.With().Str("component", "CommonCrawlSource").Logger(),
	}
}

// Name implements Source.
func (s *CommonCrawlSource) Name() string { return "commoncrawl" }

// Available implements Source.
func (s *CommonCrawlSource) Available() bool { return s.adapter != nil && s.adapter.Available() }

// Discover scans the newest collection's cluster index for the domain.
func (s *CommonCrawlSource) Discover(ctx context.Context, domain string, opts Options) ([]models.DiscoveredURL, error) {
	records, err := s.adapter.DomainRecords(ctx, "", domain, commoncrawl.ClusterQuery{
		DateRange:  opts.DateRange,
		MIMEFilter: opts.MIMEFilter,
		Limit:      opts.Limit,
	})
	if err != nil {
		return nil, err
	}

	urls := make([]models.DiscoveredURL, 0, len(records))
	for _, rec := range records {
		if opts.StatusFilter != 0 && rec.StatusCode != opts.StatusFilter {
			continue
		}
		d := newDiscovered(rec.URL, domain, s.Name(), models.SourceCommonCrawlIndex)
		d.Timestamp = rec.Timestamp
		d.MIMEType = rec.MIMEType
		d.Status = rec.StatusCode
		urls = append(urls, d)
	}
	return urls, nil
}
