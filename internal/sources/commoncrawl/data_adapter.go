package commoncrawl

import (
	"context"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/webrewind/webrewind/internal/errorwrapper"
	"github.com/webrewind/webrewind/internal/models"
	"github.com/webrewind/webrewind/internal/sources"
	"github.com/webrewind/webrewind/internal/urlhandler"
)

// DataAdapter retrieves page bytes out of CommonCrawl WARC files through the
// external fetcher binary. It leans on the IndexAdapter for WARC coordinates.
type DataAdapter struct {
	index   *IndexAdapter
	fetcher *FetcherBinary
	logger  zerolog.Logger
}

// NewDataAdapter wires the data adapter to an index adapter and a fetcher binary.
func NewDataAdapter(index *IndexAdapter, fetcher *FetcherBinary, logger zerolog.Logger) *DataAdapter {
	return &DataAdapter{
		index:   index,
		fetcher: fetcher,
		logger:  logger.With().Str("component", "CCDataAdapter").Logger(),
	}
}

// Source implements sources.Adapter.
func (a *DataAdapter) Source() models.ArchiveSource {
	return models.SourceCommonCrawlData
}

// Available reports whether the fetcher binary is installed.
func (a *DataAdapter) Available() bool {
	return a.fetcher.Available()
}

// Fetch looks the URL up in the CDX server and hands its WARC coordinates to
// the fetcher binary.
func (a *DataAdapter) Fetch(ctx context.Context, targetURL string, opts sources.FetchOptions) (*models.FetchResult, error) {
	if strings.TrimSpace(targetURL) == "" {
		return nil, errorwrapper.NewValidationError("url", targetURL, "url cannot be empty")
	}
	if err := opts.DateRange.Validate(); err != nil {
		return nil, err
	}
	if !a.Available() {
		return models.EmptyFetchResult(targetURL, models.SourceCommonCrawlData), nil
	}

	records, err := a.index.URLRecords(ctx, targetURL, opts.DateRange, 5)
	if err != nil || len(records) == 0 {
		if err != nil {
			a.logger.Debug().Err(err).Str("url", targetURL).Msg("Index lookup for WARC fetch failed")
		}
		return models.EmptyFetchResult(targetURL, models.SourceCommonCrawlData), nil
	}

	workDir, err := os.MkdirTemp("", "webrewind_warc_*")
	if err != nil {
		a.logger.Debug().Err(err).Msg("Temp dir creation failed")
		return models.EmptyFetchResult(targetURL, models.SourceCommonCrawlData), nil
	}
	defer os.RemoveAll(workDir)

	inputs := make([]FetcherInputRecord, 0, len(records))
	for _, rec := range records {
		inputs = append(inputs, FetcherInputRecord{
			URL:      rec.URL,
			Filename: rec.WARCFilename,
			Offset:   rec.WARCOffset,
			Length:   rec.WARCLength,
		})
	}
	inputPath, err := WriteInputRecords(workDir, inputs)
	if err != nil {
		a.logger.Debug().Err(err).Msg("Fetcher input write failed")
		return models.EmptyFetchResult(targetURL, models.SourceCommonCrawlData), nil
	}

	archive, err := a.index.resolveArchive(ctx)
	if err != nil {
		a.logger.Debug().Err(err).Msg("Archive resolution failed")
		return models.EmptyFetchResult(targetURL, models.SourceCommonCrawlData), nil
	}

	output, err := a.fetcher.Run(ctx, "warc", archive, RunInput{InputPath: inputPath})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		a.logger.Debug().Err(err).Str("url", targetURL).Msg("WARC fetch failed")
		return models.EmptyFetchResult(targetURL, models.SourceCommonCrawlData), nil
	}

	for _, rec := range output {
		if rec.HTML == "" && rec.Text == "" {
			continue
		}
		return &models.FetchResult{
			URL:        rec.URL,
			Timestamp:  rec.Timestamp,
			Source:     models.SourceCommonCrawlData,
			StatusCode: rec.Status,
			MIMEType:   rec.MIME,
			Digest:     rec.Digest,
			HTML:       rec.HTML,
			Content:    rec.Text,
		}, nil
	}
	return models.EmptyFetchResult(targetURL, models.SourceCommonCrawlData), nil
}

// Exists delegates to the index: the data layer holds no metadata of its own.
func (a *DataAdapter) Exists(ctx context.Context, targetURL string, dateRange urlhandler.DateRange) (bool, error) {
	return a.index.Exists(ctx, targetURL, dateRange)
}

// ListSnapshots is not a capability of the data layer.
func (a *DataAdapter) ListSnapshots(context.Context, string, sources.ListOptions) ([]models.Snapshot, error) {
	return nil, errorwrapper.ErrUnsupportedOperation
}

// WATAdapter extracts link metadata from CommonCrawl WAT sidecars through the
// fetcher binary's "wat" subcommand.
type WATAdapter struct {
	fetcher *FetcherBinary
	logger  zerolog.Logger
}

// NewWATAdapter wires the WAT adapter to a fetcher binary.
func NewWATAdapter(fetcher *FetcherBinary, logger zerolog.Logger) *WATAdapter {
	return &WATAdapter{
		fetcher: fetcher,
		logger:  logger.With().Str("component", "CCWATAdapter").Logger(),
	}
}

// Available reports whether the fetcher binary is installed.
func (a *WATAdapter) Available() bool {
	return a.fetcher.Available()
}

// WATLink is one outward edge extracted from a WAT record.
type WATLink struct {
	SourceURL string `json:"source_url"`
	Target    string `json:"target"`
	Anchor    string `json:"anchor,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

// ExtractLinks runs the binary over the given domains and flattens the
// per-record link lists.
func (a *WATAdapter) ExtractLinks(ctx context.Context, archive string, domains []string) ([]WATLink, error) {
	if len(domains) == 0 {
		return nil, errorwrapper.NewValidationError("domains", domains, "domains cannot be empty")
	}
	if !a.Available() {
		return nil, nil
	}

	records, err := a.fetcher.Run(ctx, "wat", archive, RunInput{Domains: domains})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		a.logger.Debug().Err(err).Msg("WAT extraction failed")
		return nil, nil
	}

	var links []WATLink
	for _, rec := range records {
		for _, link := range rec.Links {
			if link.Target == "" {
				continue
			}
			links = append(links, WATLink{
				SourceURL: rec.URL,
				Target:    link.Target,
				Anchor:    link.Anchor,
				Timestamp: rec.Timestamp,
			})
		}
	}
	return links, nil
}
