package orchestrator

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/webrewind/webrewind/internal/config"
	"github.com/webrewind/webrewind/internal/models"
	"github.com/webrewind/webrewind/internal/sources"
	"github.com/webrewind/webrewind/internal/urlhandler"
)

type fakeAdapter struct {
	source    models.ArchiveSource
	available bool
	delay     time.Duration
	// ignoreCancel keeps the fake running past context cancellation, like an
	// adapter mid-request when the overall deadline fires.
	ignoreCancel bool
	html         string
	fetchErr     error
	snapshots    []models.Snapshot
	found        bool
	calls        atomic.Int32
}

func (f *fakeAdapter) Source() models.ArchiveSource { return f.source }
func (f *fakeAdapter) Available() bool              { return f.available }

func (f *fakeAdapter) Fetch(ctx context.Context, url string, opts sources.FetchOptions) (*models.FetchResult, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		if f.ignoreCancel {
			time.Sleep(f.delay)
		} else {
			select {
			case <-time.After(f.delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	if f.html == "" {
		return models.EmptyFetchResult(url, f.source), nil
	}
	return &models.FetchResult{URL: url, Source: f.source, StatusCode: 200, HTML: f.html}, nil
}

func (f *fakeAdapter) Exists(ctx context.Context, url string, dateRange urlhandler.DateRange) (bool, error) {
	return f.found, nil
}

func (f *fakeAdapter) ListSnapshots(ctx context.Context, url string, opts sources.ListOptions) ([]models.Snapshot, error) {
	return f.snapshots, nil
}

func newTestOrchestrator(t *testing.T, cfg config.OrchestratorConfig, adapters ...sources.Adapter) *Orchestrator {
	t.Helper()
	builder := NewBuilder(zerolog.Nop()).WithConfig(cfg)
	for _, a := range adapters {
		builder = builder.WithAdapter(a)
	}
	o, err := builder.Build()
	require.NoError(t, err)
	return o
}

func TestFetch_GatherPicksFirstSuccessInPriorityOrder(t *testing.T) {
	// The slower adapter comes first and must still win the gather.
	slow := &fakeAdapter{source: "slow", available: true, delay: 30 * time.Millisecond, html: "slow body"}
	fast := &fakeAdapter{source: "fast", available: true, html: "fast body"}
	o := newTestOrchestrator(t, config.DefaultOrchestratorConfig(), slow, fast)

	result, err := o.Fetch(context.Background(), FetchRequest{URL: "https://example.com"})
	require.NoError(t, err)
	assert.Equal(t, models.ArchiveSource("slow"), result.Source)
	assert.Equal(t, "slow body", result.HTML)
}

func TestFetch_TimeoutReturnsWhatArrived(t *testing.T) {
	// The straggler outlives the overall deadline and completes its write
	// only after the gather has scanned; the fast success must come back
	// without tripping the race detector.
	straggler := &fakeAdapter{source: "straggler", available: true, delay: 150 * time.Millisecond, ignoreCancel: true, html: "late body"}
	fast := &fakeAdapter{source: "fast", available: true, html: "fast body"}
	o := newTestOrchestrator(t, config.DefaultOrchestratorConfig(), straggler, fast)

	result, err := o.Fetch(context.Background(), FetchRequest{URL: "https://example.com", Timeout: 50 * time.Millisecond})
	require.NoError(t, err)
	assert.Equal(t, models.ArchiveSource("fast"), result.Source)
	assert.Equal(t, "fast body", result.HTML)

	// Keep the test alive until the straggler's late write lands.
	time.Sleep(150 * time.Millisecond)
}

func TestFetch_FailingSourceNeverPoisonsTheRace(t *testing.T) {
	broken := &fakeAdapter{source: "broken", available: true, fetchErr: errors.New("connection refused")}
	healthy := &fakeAdapter{source: "healthy", available: true, html: "recovered"}
	o := newTestOrchestrator(t, config.DefaultOrchestratorConfig(), broken, healthy)

	result, err := o.Fetch(context.Background(), FetchRequest{URL: "https://example.com"})
	require.NoError(t, err)
	assert.Equal(t, models.ArchiveSource("healthy"), result.Source)
}

func TestFetch_TrueRacingReturnsASuccess(t *testing.T) {
	cfg := config.DefaultOrchestratorConfig()
	cfg.TrueRacing = true
	a := &fakeAdapter{source: "a", available: true, delay: 50 * time.Millisecond, html: "a body"}
	b := &fakeAdapter{source: "b", available: true, html: "b body"}
	o := newTestOrchestrator(t, cfg, a, b)

	result, err := o.Fetch(context.Background(), FetchRequest{URL: "https://example.com"})
	require.NoError(t, err)
	assert.True(t, result.Success())
}

func TestFetch_PreferPinsSource(t *testing.T) {
	first := &fakeAdapter{source: "first", available: true, html: "first body"}
	second := &fakeAdapter{source: "second", available: true, html: "second body"}
	o := newTestOrchestrator(t, config.DefaultOrchestratorConfig(), first, second)

	result, err := o.Fetch(context.Background(), FetchRequest{URL: "https://example.com", Prefer: "second"})
	require.NoError(t, err)
	assert.Equal(t, models.ArchiveSource("second"), result.Source)
	assert.Equal(t, int32(0), first.calls.Load())
}

func TestFetch_PreferUnknownSourceYieldsEmptyNotFallback(t *testing.T) {
	available := &fakeAdapter{source: "available", available: true, html: "body"}
	o := newTestOrchestrator(t, config.DefaultOrchestratorConfig(), available)

	result, err := o.Fetch(context.Background(), FetchRequest{URL: "https://example.com", Prefer: "no-such-source"})
	require.NoError(t, err)
	assert.False(t, result.Success())
	assert.Equal(t, int32(0), available.calls.Load())
}

func TestFetch_UnavailableAdaptersAreSkipped(t *testing.T) {
	offline := &fakeAdapter{source: "offline", available: false, html: "should not appear"}
	online := &fakeAdapter{source: "online", available: true, html: "online body"}
	o := newTestOrchestrator(t, config.DefaultOrchestratorConfig(), offline, online)

	result, err := o.Fetch(context.Background(), FetchRequest{URL: "https://example.com"})
	require.NoError(t, err)
	assert.Equal(t, models.ArchiveSource("online"), result.Source)
	assert.Equal(t, int32(0), offline.calls.Load())
}

func TestFetch_EmptyURLIsPreconditionViolation(t *testing.T) {
	o := newTestOrchestrator(t, config.DefaultOrchestratorConfig())
	_, err := o.Fetch(context.Background(), FetchRequest{URL: "  "})
	assert.Error(t, err)
}

func TestListSnapshots_UnionDedupedNewestFirst(t *testing.T) {
	a := &fakeAdapter{source: "a", available: true, snapshots: []models.Snapshot{
		{URL: "https://example.com/", Timestamp: "20200101000000", Source: "a", Digest: "SAME"},
		{URL: "https://example.com/", Timestamp: "20230601000000", Source: "a", Digest: "AAA"},
	}}
	b := &fakeAdapter{source: "b", available: true, snapshots: []models.Snapshot{
		{URL: "https://example.com/", Timestamp: "20200101120000", Source: "b", Digest: "SAME"},
		{URL: "https://example.com/", Timestamp: "20210101000000", Source: "b", Digest: "BBB"},
	}}
	o := newTestOrchestrator(t, config.DefaultOrchestratorConfig(), a, b)

	snapshots, err := o.ListSnapshots(context.Background(), "https://example.com", sources.ListOptions{})
	require.NoError(t, err)

	require.Len(t, snapshots, 3)
	assert.Equal(t, "20230601000000", snapshots[0].Timestamp)
	assert.Equal(t, "20210101000000", snapshots[1].Timestamp)
	assert.Equal(t, "20200101000000", snapshots[2].Timestamp)
}

func TestExists_AnyPositiveWins(t *testing.T) {
	no := &fakeAdapter{source: "no", available: true}
	yes := &fakeAdapter{source: "yes", available: true, found: true}
	o := newTestOrchestrator(t, config.DefaultOrchestratorConfig(), no, yes)

	found, err := o.Exists(context.Background(), "https://example.com", urlhandler.DateRange{})
	require.NoError(t, err)
	assert.True(t, found)
}

func TestExists_AllNegative(t *testing.T) {
	a := &fakeAdapter{source: "a", available: true}
	b := &fakeAdapter{source: "b", available: true}
	o := newTestOrchestrator(t, config.DefaultOrchestratorConfig(), a, b)

	found, err := o.Exists(context.Background(), "https://example.com", urlhandler.DateRange{})
	require.NoError(t, err)
	assert.False(t, found)
}

func TestBatchFetch_PreservesInputOrder(t *testing.T) {
	adapter := &fakeAdapter{source: "a", available: true, html: "body"}
	o := newTestOrchestrator(t, config.DefaultOrchestratorConfig(), adapter)

	urls := []string{"https://example.com/1", "https://example.com/2", "https://example.com/3"}
	results, err := o.BatchFetch(context.Background(), urls, FetchRequest{})
	require.NoError(t, err)

	require.Len(t, results, len(urls))
	for i, result := range results {
		assert.Equal(t, urls[i], result.URL)
	}
}
