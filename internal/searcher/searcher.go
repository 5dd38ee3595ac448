// Package searcher is the streaming archive search engine: it walks a
// year × source matrix with two levels of bounded concurrency and streams
// hits, progress, and errors as one event sequence.
package searcher

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
	"github.com/webrewind/webrewind/internal/config"
	"github.com/webrewind/webrewind/internal/errorwrapper"
	"github.com/webrewind/webrewind/internal/extractor"
	"github.com/webrewind/webrewind/internal/models"
	"github.com/webrewind/webrewind/internal/sources"
	"github.com/webrewind/webrewind/internal/urlhandler"
)

// ArchiveLister is the per-source surface the engine walks: year-bounded
// snapshot listing, full content fetch, and the range-request ghost fetch.
// The Wayback adapter satisfies it natively.
type ArchiveLister interface {
	Source() models.ArchiveSource
	ListYear(ctx context.Context, pattern string, year, limit int) ([]models.Snapshot, error)
	Fetch(ctx context.Context, url string, opts sources.FetchOptions) (*models.FetchResult, error)
	FetchPrefix(ctx context.Context, timestamp, url string, maxBytes int) (string, error)
}

// Engine streams archived snapshots matching keyword filters.
type Engine struct {
	config   config.SearcherConfig
	sources  []ArchiveLister
	text     *extractor.TextExtractor
	outlinks *extractor.OutlinkExtractor
	logger   zerolog.Logger
}

// EngineBuilder provides a fluent interface for creating the engine.
type EngineBuilder struct {
	config  config.SearcherConfig
	sources []ArchiveLister
	logger  zerolog.Logger
}

// NewEngineBuilder creates a new builder.
func NewEngineBuilder(logger zerolog.Logger) *EngineBuilder {
	return &EngineBuilder{
		config: config.DefaultSearcherConfig(),
		logger: logger.With().Str("component", "SearchEngine").Logger(),
	}
}

// WithConfig sets the engine configuration.
func (b *EngineBuilder) WithConfig(cfg config.SearcherConfig) *EngineBuilder {
	b.config = cfg
	return b
}

// WithSource appends one archive source to the matrix.
func (b *EngineBuilder) WithSource(source ArchiveLister) *EngineBuilder {
	if source != nil {
		b.sources = append(b.sources, source)
	}
	return b
}

// Build creates the engine.
func (b *EngineBuilder) Build() (*Engine, error) {
	if len(b.sources) == 0 {
		return nil, errorwrapper.NewValidationError("sources", b.sources, "engine needs at least one archive source")
	}
	return &Engine{
		config:   b.config,
		sources:  b.sources,
		text:     extractor.NewTextExtractor(),
		outlinks: extractor.NewOutlinkExtractor(b.config.MaxOutlinks),
		logger:   b.logger,
	}, nil
}

// Request shapes one streamed search.
type Request struct {
	Domain   string
	Years    []int
	Keywords []string
	// SnapshotLimit bounds the per-pattern CDX listing for each year; zero
	// means 200.
	SnapshotLimit int
}

const defaultSnapshotLimit = 200

// Search starts the walk and returns the event stream. The channel is closed
// exactly once when every producer has finished; that close is the stream's
// sentinel. Abandoning consumers cancel ctx to tear the producers down.
func (e *Engine) Search(ctx context.Context, req Request) (<-chan models.ArchiveEvent, error) {
	domain, err := urlhandler.ExtractHostname(req.Domain)
	if err != nil {
		return nil, err
	}
	if len(req.Years) == 0 {
		return nil, errorwrapper.NewValidationError("years", req.Years, "at least one year is required")
	}

	bufferSize := e.config.EventBufferSize
	if bufferSize <= 0 {
		bufferSize = config.DefaultEventBufferSize
	}
	events := make(chan models.ArchiveEvent, bufferSize)
	go e.run(ctx, domain, req, events)
	return events, nil
}

func (e *Engine) run(ctx context.Context, domain string, req Request, events chan<- models.ArchiveEvent) {
	defer close(events)

	outer := e.config.MaxConcurrentYears
	if outer <= 0 {
		outer = config.DefaultMaxConcurrentYears
	}
	sem := make(chan struct{}, outer)
	var completed atomic.Int32
	var wg sync.WaitGroup

	for _, year := range req.Years {
		wg.Add(1)
		go func(y int) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				// Cancelled years still count toward completion so the
				// progress tally always reaches the requested total.
				e.emitYearComplete(ctx, events, y, int(completed.Add(1)), len(req.Years))
				return
			}
			defer func() { <-sem }()

			for _, src := range e.sources {
				e.walkYearSource(ctx, domain, y, src, req, events)
			}
			e.emitYearComplete(ctx, events, y, int(completed.Add(1)), len(req.Years))
		}(year)
	}
	wg.Wait()
}

func (e *Engine) emitYearComplete(ctx context.Context, events chan<- models.ArchiveEvent, year, completed, total int) {
	e.send(ctx, events, models.NewProgressEvent(&models.SearchProgress{
		Year:      year,
		Completed: completed,
		Total:     total,
		Percent:   100 * float64(completed) / float64(total),
		Message:   fmt.Sprintf("year %d complete (%d/%d)", year, completed, total),
	}))
}

// yearPatterns are the URL patterns unioned per year so both the apex, the
// www form, and every subdomain are covered.
func yearPatterns(domain string) []string {
	return []string{
		domain,
		domain + "/*",
		"www." + domain,
		"www." + domain + "/*",
		"*." + domain + "/*",
	}
}

func (e *Engine) walkYearSource(ctx context.Context, domain string, year int, src ArchiveLister, req Request, events chan<- models.ArchiveEvent) {
	limit := req.SnapshotLimit
	if limit <= 0 {
		limit = defaultSnapshotLimit
	}

	seen := make(map[string]struct{})
	var snapshots []models.Snapshot
	for _, pattern := range yearPatterns(domain) {
		if ctx.Err() != nil {
			return
		}
		listed, err := src.ListYear(ctx, pattern, year, limit)
		if err != nil {
			if errorwrapper.IsValidationError(err) {
				e.send(ctx, events, models.NewErrorEvent(err.Error()))
			}
			continue
		}
		for _, snap := range listed {
			key := snap.Timestamp + "|" + snap.URL
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			snapshots = append(snapshots, snap)
		}
	}
	if len(snapshots) == 0 {
		return
	}

	rankSnapshots(snapshots, e.config.PriorityTerms, e.config.Direction)

	inner := e.config.MaxConcurrentPerYear
	if inner <= 0 {
		inner = config.DefaultMaxConcurrentPerYear
	}
	sem := make(chan struct{}, inner)
	var wg sync.WaitGroup
	for _, snap := range snapshots {
		wg.Add(1)
		go func(s models.Snapshot) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return
			}
			defer func() { <-sem }()
			e.scanSnapshot(ctx, src, s, req, events)
		}(snap)
	}
	wg.Wait()
}

// scanSnapshot fetches one capture, filters by keyword, and emits a hit.
func (e *Engine) scanSnapshot(ctx context.Context, src ArchiveLister, snap models.Snapshot, req Request, events chan<- models.ArchiveEvent) {
	if ctx.Err() != nil {
		return
	}
	e.send(ctx, events, models.NewDeepStatusEvent(fmt.Sprintf("scanning %s@%s", snap.URL, snap.Timestamp)))

	skipKeywordFilter := len(req.Keywords) == 0

	// Ghost fetch: a range read of the first N bytes can prove a keyword
	// match without the full download.
	if e.config.FastFirst && !skipKeywordFilter {
		prefix, err := src.FetchPrefix(ctx, snap.Timestamp, snap.URL, e.ghostBytes())
		if err == nil && prefix != "" {
			text := e.text.ExtractText(prefix)
			if match, ok := matchKeywords(text, req.Keywords); ok {
				e.emitHit(ctx, events, src, snap, prefix, text, &match)
				return
			}
		}
	}

	result, err := src.Fetch(ctx, snap.URL, sources.FetchOptions{Timestamp: snap.Timestamp})
	if err != nil || !result.Success() {
		return
	}
	text := e.text.ExtractText(result.Body())

	if skipKeywordFilter {
		e.emitHitResult(ctx, events, result, snap, text, nil)
		return
	}
	if match, ok := matchKeywords(text, req.Keywords); ok {
		e.emitHitResult(ctx, events, result, snap, text, &match)
	}
}

func (e *Engine) ghostBytes() int {
	if e.config.GhostFetchBytes > 0 {
		return e.config.GhostFetchBytes
	}
	return config.DefaultGhostFetchBytes
}

func (e *Engine) snippetRadius() int {
	if e.config.SnippetRadius > 0 {
		return e.config.SnippetRadius
	}
	return config.DefaultSnippetRadius
}

// emitHit builds a result from ghost-fetched bytes and emits it.
func (e *Engine) emitHit(ctx context.Context, events chan<- models.ArchiveEvent, src ArchiveLister, snap models.Snapshot, html, text string, match *keywordMatch) {
	result := &models.FetchResult{
		URL:        snap.URL,
		Timestamp:  snap.Timestamp,
		Source:     src.Source(),
		StatusCode: snap.StatusCode,
		MIMEType:   snap.MIMEType,
		Digest:     snap.Digest,
		HTML:       html,
		Content:    text,
	}
	e.emitHitResult(ctx, events, result, snap, text, match)
}

func (e *Engine) emitHitResult(ctx context.Context, events chan<- models.ArchiveEvent, result *models.FetchResult, snap models.Snapshot, text string, match *keywordMatch) {
	hit := &models.SearchHit{Result: result}
	if match != nil {
		hit.Keyword = match.Keyword
		hit.Snippet = extractor.Snippet(match.Text, match.Index, e.snippetRadius())
	}
	if result.HTML != "" {
		links := e.outlinks.Extract(result.HTML, snap.URL)
		hit.Outlinks = links.URLs
		hit.OutlinkNotes = links.Notes
		hit.OutlinkDomains = links.Domains
	}

	e.send(ctx, events, models.NewHitEvent(hit))
	e.send(ctx, events, models.ArchiveEvent{
		Type:    models.EventStatus,
		Channel: models.ChannelDeep,
		State:   models.StateHit,
		Message: fmt.Sprintf("hit %s@%s", snap.URL, snap.Timestamp),
	})
}

// send delivers one event unless the consumer has gone away.
func (e *Engine) send(ctx context.Context, events chan<- models.ArchiveEvent, event models.ArchiveEvent) {
	select {
	case events <- event:
	case <-ctx.Done():
	}
}
