// Package mapper merges the discovery sources into one deduplicated stream of
// URLs per domain. Producers write concurrently into a shared bounded
// channel; the consumer dedups by normalized URL in arrival order, so fast
// sources (sitemap, crt.sh) surface before slow backlink APIs.
package mapper

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/webrewind/webrewind/internal/config"
	"github.com/webrewind/webrewind/internal/discovery"
	"github.com/webrewind/webrewind/internal/errorwrapper"
	"github.com/webrewind/webrewind/internal/models"
	"github.com/webrewind/webrewind/internal/urlhandler"
)

// Mapper runs the enabled discovery sources for one domain at a time.
type Mapper struct {
	config     config.MapperConfig
	sources    []discovery.Source
	normalizer *urlhandler.URLNormalizer
	verifier   LiveVerifier
	logger     zerolog.Logger
}

// LiveVerifier is the optional post-pass that marks which discovered URLs
// still resolve on the live site.
type LiveVerifier interface {
	Verify(ctx context.Context, urls []models.DiscoveredURL)
}

// Builder provides a fluent interface for creating the mapper.
type Builder struct {
	config   config.MapperConfig
	sources  []discovery.Source
	verifier LiveVerifier
	logger   zerolog.Logger
}

// NewBuilder creates a new builder.
func NewBuilder(logger zerolog.Logger) *Builder {
	return &Builder{
		config: config.DefaultMapperConfig(),
		logger: logger.With().Str("component", "Mapper").Logger(),
	}
}

// WithConfig sets the mapper configuration.
func (b *Builder) WithConfig(cfg config.MapperConfig) *Builder {
	b.config = cfg
	return b
}

// WithSource appends one discovery source.
func (b *Builder) WithSource(source discovery.Source) *Builder {
	if source != nil {
		b.sources = append(b.sources, source)
	}
	return b
}

// WithVerifier sets the live verifier used when VerifyLive is configured.
func (b *Builder) WithVerifier(verifier LiveVerifier) *Builder {
	b.verifier = verifier
	return b
}

// Build creates the mapper.
func (b *Builder) Build() (*Mapper, error) {
	if len(b.sources) == 0 {
		return nil, errorwrapper.NewValidationError("sources", b.sources, "mapper needs at least one discovery source")
	}
	return &Mapper{
		config:     b.config,
		sources:    b.sources,
		normalizer: urlhandler.NewURLNormalizer(urlhandler.DefaultURLNormalizationConfig()),
		verifier:   b.verifier,
		logger:     b.logger,
	}, nil
}

// Filters narrow one mapping run. Zero values fall back to the configured
// defaults; an explicit DisableDedup passes raw arrivals through.
type Filters struct {
	DateRange    urlhandler.DateRange
	Limit        int
	MIMEFilter   string
	StatusFilter int
	DisableDedup bool
	Sources      []string // restrict to these source names when non-empty
}

// sourceResult rides the merge channel: either one discovered URL or a
// producer's terminal record.
type sourceResult struct {
	url  *models.DiscoveredURL
	done *producerDone
}

type producerDone struct {
	source string
	count  int
	err    error
}

// MapDomainStream starts every enabled source as a producer and returns the
// merged, deduplicated stream. The channel closes once every producer has
// reported completion; that close is the stream's end marker.
func (m *Mapper) MapDomainStream(ctx context.Context, domain string, filters Filters) (<-chan models.DiscoveredURL, error) {
	host, err := urlhandler.ExtractHostname(domain)
	if err != nil {
		return nil, err
	}
	if err := filters.DateRange.Validate(); err != nil {
		return nil, err
	}

	out := make(chan models.DiscoveredURL, m.streamBuffer())
	go func() {
		defer close(out)
		m.merge(ctx, host, filters, func(d models.DiscoveredURL) bool {
			select {
			case out <- d:
				return true
			case <-ctx.Done():
				return false
			}
		}, nil)
	}()
	return out, nil
}

// MapDomain accumulates the stream into a batch result with per-source and
// per-year statistics.
func (m *Mapper) MapDomain(ctx context.Context, domain string, filters Filters) (*models.DomainMap, error) {
	host, err := urlhandler.ExtractHostname(domain)
	if err != nil {
		return nil, err
	}
	if err := filters.DateRange.Validate(); err != nil {
		return nil, err
	}

	result := &models.DomainMap{
		Domain:    host,
		StartedAt: time.Now().UTC(),
		Stats: models.DomainMapStats{
			SourceCounts: make(map[string]int),
			YearCounts:   make(map[string]int),
		},
	}

	m.merge(ctx, host, filters, func(d models.DiscoveredURL) bool {
		result.URLs = append(result.URLs, d)
		result.Stats.SourceCounts[d.SourceName]++
		if len(d.Timestamp) >= 4 {
			year := d.Timestamp[:4]
			result.Stats.YearCounts[year]++
			if result.Stats.EarliestSeen == "" || d.Timestamp < result.Stats.EarliestSeen {
				result.Stats.EarliestSeen = d.Timestamp
			}
			if d.Timestamp > result.Stats.LatestSeen {
				result.Stats.LatestSeen = d.Timestamp
			}
		}
		return true
	}, &result.Stats)

	result.Stats.UniqueURLs = len(result.URLs)
	if m.config.VerifyLive && m.verifier != nil && ctx.Err() == nil {
		m.verifier.Verify(ctx, result.URLs)
	}
	result.CompletedAt = time.Now().UTC()
	return result, ctx.Err()
}

// merge fans the producers into one channel and feeds unique arrivals to
// emit until emit declines or every producer is done. stats, when non-nil,
// collects totals and failures.
func (m *Mapper) merge(ctx context.Context, domain string, filters Filters, emit func(models.DiscoveredURL) bool, stats *models.DomainMapStats) {
	active := m.enabledSources(filters)
	if len(active) == 0 {
		return
	}

	opts := discovery.Options{
		DateRange:    filters.DateRange,
		Limit:        m.perSourceLimit(filters),
		MIMEFilter:   m.mimeFilter(filters),
		StatusFilter: m.statusFilter(filters),
	}

	results := make(chan sourceResult, m.streamBuffer())
	var wg sync.WaitGroup
	for _, src := range active {
		wg.Add(1)
		go func(source discovery.Source) {
			defer wg.Done()
			m.produce(ctx, source, domain, opts, results)
		}(src)
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	dedup := m.config.Dedup && !filters.DisableDedup
	seen := make(map[string]struct{})
	stopped := false
	for res := range results {
		if res.done != nil {
			m.logger.Debug().
				Str("source", res.done.source).
				Int("count", res.done.count).
				Msg("Discovery source finished")
			if stats != nil {
				stats.TotalURLs += res.done.count
				if res.done.err != nil {
					stats.SourcesFailed = append(stats.SourcesFailed, res.done.source)
				}
			}
			continue
		}
		if stopped {
			continue // drain so producers are not blocked on a full channel
		}
		if dedup {
			key, err := m.normalizer.Normalize(res.url.URL)
			if err != nil {
				continue
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
		}
		if !emit(*res.url) {
			stopped = true
		}
	}
}

// produce runs one source and forwards its URLs, ending with the producer's
// terminal record. Validation errors and cancellation propagate as a failed
// source; everything else the source already swallowed.
func (m *Mapper) produce(ctx context.Context, source discovery.Source, domain string, opts discovery.Options, results chan<- sourceResult) {
	urls, err := source.Discover(ctx, domain, opts)
	if err != nil {
		m.logger.Debug().Err(err).Str("source", source.Name()).Msg("Discovery source failed")
	}

	sent := 0
	for i := range urls {
		select {
		case results <- sourceResult{url: &urls[i]}:
			sent++
		case <-ctx.Done():
			results <- sourceResult{done: &producerDone{source: source.Name(), count: sent, err: ctx.Err()}}
			return
		}
	}
	results <- sourceResult{done: &producerDone{source: source.Name(), count: sent, err: err}}
}

// enabledSources filters by availability and the optional name restriction.
func (m *Mapper) enabledSources(filters Filters) []discovery.Source {
	allowed := make(map[string]struct{}, len(filters.Sources))
	for _, name := range filters.Sources {
		allowed[name] = struct{}{}
	}

	var active []discovery.Source
	for _, src := range m.sources {
		if !src.Available() {
			continue
		}
		if len(allowed) > 0 {
			if _, ok := allowed[src.Name()]; !ok {
				continue
			}
		}
		active = append(active, src)
	}
	return active
}

func (m *Mapper) streamBuffer() int {
	if m.config.StreamBufferSize > 0 {
		return m.config.StreamBufferSize
	}
	return config.DefaultStreamBufferSize
}

func (m *Mapper) perSourceLimit(filters Filters) int {
	if filters.Limit > 0 {
		return filters.Limit
	}
	if m.config.PerSourceLimit > 0 {
		return m.config.PerSourceLimit
	}
	return config.DefaultPerSourceLimit
}

func (m *Mapper) mimeFilter(filters Filters) string {
	if filters.MIMEFilter != "" {
		return filters.MIMEFilter
	}
	return m.config.MIMEFilter
}

func (m *Mapper) statusFilter(filters Filters) int {
	if filters.StatusFilter != 0 {
		return filters.StatusFilter
	}
	return m.config.StatusFilter
}
