// Package orchestrator races the enabled archive sources for single-URL
// fetches and fans out for snapshot unions and existence checks.
package orchestrator

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/webrewind/webrewind/internal/config"
	"github.com/webrewind/webrewind/internal/errorwrapper"
	"github.com/webrewind/webrewind/internal/models"
	"github.com/webrewind/webrewind/internal/sources"
	"github.com/webrewind/webrewind/internal/urlhandler"
)

// Orchestrator coordinates the registered adapters. Adapter order is priority
// order: the first success in insertion order wins a gathered race.
type Orchestrator struct {
	config   config.OrchestratorConfig
	adapters []sources.Adapter
	logger   zerolog.Logger
}

// Builder provides a fluent interface for creating the orchestrator.
type Builder struct {
	config   config.OrchestratorConfig
	adapters []sources.Adapter
	logger   zerolog.Logger
}

// NewBuilder creates a new builder.
func NewBuilder(logger zerolog.Logger) *Builder {
	return &Builder{
		config: config.DefaultOrchestratorConfig(),
		logger: logger.With().Str("component", "Orchestrator").Logger(),
	}
}

// WithConfig sets the orchestrator configuration.
func (b *Builder) WithConfig(cfg config.OrchestratorConfig) *Builder {
	b.config = cfg
	return b
}

// WithAdapter appends one adapter; call order sets race priority.
func (b *Builder) WithAdapter(adapter sources.Adapter) *Builder {
	if adapter != nil {
		b.adapters = append(b.adapters, adapter)
	}
	return b
}

// Build creates the orchestrator.
func (b *Builder) Build() (*Orchestrator, error) {
	return &Orchestrator{
		config:   b.config,
		adapters: b.adapters,
		logger:   b.logger,
	}, nil
}

// FetchRequest shapes one orchestrated fetch.
type FetchRequest struct {
	URL       string
	DateRange urlhandler.DateRange
	// Prefer pins a single source; the race is skipped entirely.
	Prefer models.ArchiveSource
	// Timeout bounds the whole race; zero means the configured default.
	Timeout time.Duration
}

// enabled returns the adapters that are both toggled on and available, in
// priority order.
func (o *Orchestrator) enabled() []sources.Adapter {
	out := make([]sources.Adapter, 0, len(o.adapters))
	for _, adapter := range o.adapters {
		if !o.sourceEnabled(adapter.Source()) || !adapter.Available() {
			continue
		}
		out = append(out, adapter)
	}
	return out
}

func (o *Orchestrator) sourceEnabled(source models.ArchiveSource) bool {
	switch {
	case source == models.SourceWaybackCDX || source == models.SourceWaybackData:
		return o.config.EnableWayback
	case source.IsCommonCrawl():
		return o.config.EnableCommonCrawl
	case source == models.SourceMemento:
		return o.config.EnableMemento
	case source == models.SourceFirecrawl:
		return o.config.EnableFirecrawl
	case source == models.SourceExaHistorical:
		return o.config.EnableExa
	default:
		return true
	}
}

func (o *Orchestrator) fetchTimeout(req FetchRequest) time.Duration {
	if req.Timeout > 0 {
		return req.Timeout
	}
	secs := o.config.FetchTimeoutSecs
	if secs <= 0 {
		secs = config.DefaultFetchTimeoutSecs
	}
	return time.Duration(secs) * time.Second
}

// Fetch returns the first usable archived copy of the URL. With Prefer set,
// only that source is tried. Otherwise every enabled source runs as an
// independent task; a failing source never poisons the race.
func (o *Orchestrator) Fetch(ctx context.Context, req FetchRequest) (*models.FetchResult, error) {
	if strings.TrimSpace(req.URL) == "" {
		return nil, errorwrapper.NewValidationError("url", req.URL, "url cannot be empty")
	}
	if err := req.DateRange.Validate(); err != nil {
		return nil, err
	}

	if req.Prefer != "" {
		return o.fetchPreferred(ctx, req)
	}

	adapters := o.enabled()
	if len(adapters) == 0 {
		return models.EmptyFetchResult(req.URL, ""), nil
	}

	ctx, cancel := context.WithTimeout(ctx, o.fetchTimeout(req))
	defer cancel()

	if o.config.TrueRacing {
		return o.raceFetch(ctx, cancel, adapters, req), nil
	}
	return o.gatherFetch(ctx, adapters, req), nil
}

// fetchPreferred tries only the pinned source. A result from another source
// never leaks through: an unknown or disabled source yields an empty result.
func (o *Orchestrator) fetchPreferred(ctx context.Context, req FetchRequest) (*models.FetchResult, error) {
	for _, adapter := range o.enabled() {
		if adapter.Source() != req.Prefer {
			continue
		}
		result, err := o.tryFetch(ctx, adapter, req)
		if err != nil {
			return nil, err
		}
		return result, nil
	}
	return models.EmptyFetchResult(req.URL, ""), nil
}

// gatherFetch awaits every source, then scans for the first success in
// priority order. This mirrors the historical behavior; TrueRacing changes
// latency, not results.
func (o *Orchestrator) gatherFetch(ctx context.Context, adapters []sources.Adapter, req FetchRequest) *models.FetchResult {
	// Stragglers may still be writing when the timeout fires; the mutex
	// orders their writes against the post-timeout snapshot.
	var mu sync.Mutex
	results := make([]*models.FetchResult, len(adapters))
	var wg sync.WaitGroup
	for i, adapter := range adapters {
		wg.Add(1)
		go func(idx int, a sources.Adapter) {
			defer wg.Done()
			result, err := o.tryFetch(ctx, a, req)
			if err != nil {
				return
			}
			mu.Lock()
			results[idx] = result
			mu.Unlock()
		}(i, adapter)
	}

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-ctx.Done():
		// Timeout elapsed: return whatever has arrived.
	}

	mu.Lock()
	arrived := make([]*models.FetchResult, len(results))
	copy(arrived, results)
	mu.Unlock()

	for _, result := range arrived {
		if result.Success() {
			return result
		}
	}
	return models.EmptyFetchResult(req.URL, "")
}

// raceFetch returns the first success and cancels the losers.
func (o *Orchestrator) raceFetch(ctx context.Context, cancel context.CancelFunc, adapters []sources.Adapter, req FetchRequest) *models.FetchResult {
	wins := make(chan *models.FetchResult, len(adapters))
	var wg sync.WaitGroup
	for _, adapter := range adapters {
		wg.Add(1)
		go func(a sources.Adapter) {
			defer wg.Done()
			result, err := o.tryFetch(ctx, a, req)
			if err == nil && result.Success() {
				wins <- result
			}
		}(adapter)
	}
	go func() { wg.Wait(); close(wins) }()

	if result, ok := <-wins; ok {
		cancel()
		return result
	}
	return models.EmptyFetchResult(req.URL, "")
}

// tryFetch runs one adapter, swallowing everything except cancellation and
// precondition violations.
func (o *Orchestrator) tryFetch(ctx context.Context, adapter sources.Adapter, req FetchRequest) (*models.FetchResult, error) {
	result, err := adapter.Fetch(ctx, req.URL, sources.FetchOptions{DateRange: req.DateRange})
	if err != nil {
		if errorwrapper.IsValidationError(err) || ctx.Err() != nil {
			return nil, err
		}
		o.logger.Debug().Err(err).Str("source", adapter.Source().String()).Str("url", req.URL).Msg("Source fetch failed in race")
		return models.EmptyFetchResult(req.URL, adapter.Source()), nil
	}
	return result, nil
}

// BatchFetch races each URL independently with a bounded number in flight.
// Result order matches input order.
func (o *Orchestrator) BatchFetch(ctx context.Context, urls []string, req FetchRequest) ([]*models.FetchResult, error) {
	if len(urls) == 0 {
		return nil, nil
	}
	concurrency := o.config.BatchConcurrency
	if concurrency <= 0 {
		concurrency = config.DefaultBatchConcurrency
	}

	results := make([]*models.FetchResult, len(urls))
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup
	for i, u := range urls {
		wg.Add(1)
		go func(idx int, fetchURL string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			perURL := req
			perURL.URL = fetchURL
			result, err := o.Fetch(ctx, perURL)
			if err != nil {
				results[idx] = models.EmptyFetchResult(fetchURL, "")
				return
			}
			results[idx] = result
		}(i, u)
	}
	wg.Wait()
	return results, nil
}

// ListSnapshots fans out to every enabled source, concatenates, dedups
// equivalent captures, and sorts newest first.
func (o *Orchestrator) ListSnapshots(ctx context.Context, targetURL string, opts sources.ListOptions) ([]models.Snapshot, error) {
	if strings.TrimSpace(targetURL) == "" {
		return nil, errorwrapper.NewValidationError("url", targetURL, "url cannot be empty")
	}
	if err := opts.DateRange.Validate(); err != nil {
		return nil, err
	}

	adapters := o.enabled()
	lists := make([][]models.Snapshot, len(adapters))
	var wg sync.WaitGroup
	for i, adapter := range adapters {
		wg.Add(1)
		go func(idx int, a sources.Adapter) {
			defer wg.Done()
			snapshots, err := a.ListSnapshots(ctx, targetURL, opts)
			if err != nil {
				if !errorwrapper.IsValidationError(err) && ctx.Err() == nil {
					o.logger.Debug().Err(err).Str("source", a.Source().String()).Msg("Snapshot listing failed")
				}
				return
			}
			lists[idx] = snapshots
		}(i, adapter)
	}
	wg.Wait()

	var union []models.Snapshot
	for _, list := range lists {
		union = append(union, list...)
	}
	union = models.DedupSnapshots(union)
	models.SortSnapshotsDesc(union)
	return union, nil
}

// Exists fans out and reports true as soon as any source confirms a capture.
func (o *Orchestrator) Exists(ctx context.Context, targetURL string, dateRange urlhandler.DateRange) (bool, error) {
	if strings.TrimSpace(targetURL) == "" {
		return false, errorwrapper.NewValidationError("url", targetURL, "url cannot be empty")
	}
	if err := dateRange.Validate(); err != nil {
		return false, err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	adapters := o.enabled()
	positives := make(chan bool, len(adapters))
	var wg sync.WaitGroup
	for _, adapter := range adapters {
		wg.Add(1)
		go func(a sources.Adapter) {
			defer wg.Done()
			found, err := a.Exists(ctx, targetURL, dateRange)
			if err == nil && found {
				positives <- true
			}
		}(adapter)
	}
	go func() { wg.Wait(); close(positives) }()

	if _, ok := <-positives; ok {
		cancel()
		return true, nil
	}
	return false, nil
}
