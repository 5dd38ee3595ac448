// Package differ computes how a domain and its pages changed over archived
// time: per-year evolution, period set comparison, pairwise page change
// scoring, page history, and content appearance search.
package differ

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/webrewind/webrewind/internal/config"
	"github.com/webrewind/webrewind/internal/errorwrapper"
	"github.com/webrewind/webrewind/internal/extractor"
	"github.com/webrewind/webrewind/internal/mapper"
	"github.com/webrewind/webrewind/internal/models"
	"github.com/webrewind/webrewind/internal/sources"
	"github.com/webrewind/webrewind/internal/urlhandler"
)

// DomainMapper enumerates a domain's URLs. Satisfied by *mapper.Mapper.
type DomainMapper interface {
	MapDomain(ctx context.Context, domain string, filters mapper.Filters) (*models.DomainMap, error)
}

// ArchiveFetcher retrieves archived captures for content comparison.
// Satisfied by the Wayback adapter.
type ArchiveFetcher interface {
	Fetch(ctx context.Context, url string, opts sources.FetchOptions) (*models.FetchResult, error)
	ListSnapshots(ctx context.Context, url string, opts sources.ListOptions) ([]models.Snapshot, error)
}

// Differ wires the mapper and an archive fetcher to the change computations.
type Differ struct {
	config  config.DifferConfig
	mapper  DomainMapper
	fetcher ArchiveFetcher
	text    *extractor.TextExtractor
	dmp     *diffmatchpatch.DiffMatchPatch
	logger  zerolog.Logger
}

// Builder provides a fluent interface for creating the differ.
type Builder struct {
	config  config.DifferConfig
	mapper  DomainMapper
	fetcher ArchiveFetcher
	logger  zerolog.Logger
}

// NewBuilder creates a new builder.
func NewBuilder(logger zerolog.Logger) *Builder {
	return &Builder{
		config: config.DefaultDifferConfig(),
		logger: logger.With().Str("component", "Differ").Logger(),
	}
}

// WithConfig sets the differ configuration.
func (b *Builder) WithConfig(cfg config.DifferConfig) *Builder {
	b.config = cfg
	return b
}

// WithMapper injects the domain mapper.
func (b *Builder) WithMapper(m DomainMapper) *Builder {
	b.mapper = m
	return b
}

// WithFetcher injects the archive fetcher used for content comparison.
func (b *Builder) WithFetcher(f ArchiveFetcher) *Builder {
	b.fetcher = f
	return b
}

// Build creates the differ.
func (b *Builder) Build() (*Differ, error) {
	if b.mapper == nil {
		return nil, errorwrapper.NewValidationError("mapper", nil, "differ needs a domain mapper")
	}
	if b.fetcher == nil {
		return nil, errorwrapper.NewValidationError("fetcher", nil, "differ needs an archive fetcher")
	}
	return &Differ{
		config:  b.config,
		mapper:  b.mapper,
		fetcher: b.fetcher,
		text:    extractor.NewTextExtractor(),
		dmp:     diffmatchpatch.New(),
		logger:  b.logger,
	}, nil
}

// fetchText retrieves one capture and extracts its visible text. Empty on any
// failure.
func (d *Differ) fetchText(ctx context.Context, url, timestamp string) string {
	result, err := d.fetcher.Fetch(ctx, url, sources.FetchOptions{Timestamp: timestamp})
	if err != nil || !result.Success() {
		return ""
	}
	return d.text.ExtractText(result.Body())
}

func (d *Differ) mapFilters(dateRange urlhandler.DateRange) mapper.Filters {
	return mapper.Filters{DateRange: dateRange}
}
