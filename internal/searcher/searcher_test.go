package searcher

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/webrewind/webrewind/internal/config"
	"github.com/webrewind/webrewind/internal/models"
	"github.com/webrewind/webrewind/internal/sources"
)

// fakeLister serves canned snapshots for the bare-domain pattern and canned
// page bodies per URL.
type fakeLister struct {
	source      models.ArchiveSource
	snapshots   []models.Snapshot
	pages       map[string]string // url -> html
	prefix      string
	fetchCalls  atomic.Int32
	prefixCalls atomic.Int32
}

func (f *fakeLister) Source() models.ArchiveSource { return f.source }

func (f *fakeLister) ListYear(ctx context.Context, pattern string, year, limit int) ([]models.Snapshot, error) {
	// Only answer the apex pattern so the five per-year patterns don't
	// quintuple the fixture.
	if strings.Contains(pattern, "*") || strings.HasPrefix(pattern, "www.") {
		return nil, nil
	}
	return f.snapshots, nil
}

func (f *fakeLister) Fetch(ctx context.Context, url string, opts sources.FetchOptions) (*models.FetchResult, error) {
	f.fetchCalls.Add(1)
	html := f.pages[url]
	return &models.FetchResult{URL: url, Timestamp: opts.Timestamp, Source: f.source, StatusCode: 200, HTML: html}, nil
}

func (f *fakeLister) FetchPrefix(ctx context.Context, timestamp, url string, maxBytes int) (string, error) {
	f.prefixCalls.Add(1)
	return f.prefix, nil
}

func newTestEngine(t *testing.T, cfg config.SearcherConfig, listers ...ArchiveLister) *Engine {
	t.Helper()
	builder := NewEngineBuilder(zerolog.Nop()).WithConfig(cfg)
	for _, l := range listers {
		builder = builder.WithSource(l)
	}
	engine, err := builder.Build()
	require.NoError(t, err)
	return engine
}

func collect(t *testing.T, events <-chan models.ArchiveEvent) []models.ArchiveEvent {
	t.Helper()
	var all []models.ArchiveEvent
	for event := range events {
		all = append(all, event)
	}
	return all
}

func splitEvents(all []models.ArchiveEvent) (hits []models.ArchiveEvent, yearComplete []models.ArchiveEvent) {
	for _, event := range all {
		switch {
		case event.Type == models.EventHit:
			hits = append(hits, event)
		case event.State == models.StateYearComplete:
			yearComplete = append(yearComplete, event)
		}
	}
	return hits, yearComplete
}

func TestSearch_KeywordHitWithSnippet(t *testing.T) {
	lister := &fakeLister{
		source:    models.SourceWaybackCDX,
		snapshots: []models.Snapshot{{URL: "https://example.com/about", Timestamp: "20200315000000"}},
		pages: map[string]string{
			"https://example.com/about": "<html><body>Our team builds submarine cables across the Atlantic.</body></html>",
		},
	}
	engine := newTestEngine(t, config.DefaultSearcherConfig(), lister)

	events, err := engine.Search(context.Background(), Request{
		Domain:   "example.com",
		Years:    []int{2020},
		Keywords: []string{"submarine"},
	})
	require.NoError(t, err)

	hits, yearComplete := splitEvents(collect(t, events))
	require.Len(t, hits, 1)
	assert.Equal(t, "submarine", hits[0].Hit.Keyword)
	assert.Contains(t, hits[0].Hit.Snippet, "submarine")
	assert.Equal(t, "20200315000000", hits[0].Hit.Result.Timestamp)

	// One year_complete progress event per requested year, and the final one
	// reports full completion.
	require.Len(t, yearComplete, 1)
	assert.Equal(t, 100.0, yearComplete[0].Progress.Percent)
}

func TestSearch_OneYearCompletePerYear(t *testing.T) {
	lister := &fakeLister{source: models.SourceWaybackCDX}
	engine := newTestEngine(t, config.DefaultSearcherConfig(), lister)

	events, err := engine.Search(context.Background(), Request{
		Domain: "example.com",
		Years:  []int{2019, 2020, 2021},
	})
	require.NoError(t, err)

	_, yearComplete := splitEvents(collect(t, events))
	assert.Len(t, yearComplete, 3)
}

func TestSearch_NonMatchingKeywordEmitsNoHit(t *testing.T) {
	lister := &fakeLister{
		source:    models.SourceWaybackCDX,
		snapshots: []models.Snapshot{{URL: "https://example.com/", Timestamp: "20200101000000"}},
		pages:     map[string]string{"https://example.com/": "<html>nothing of interest</html>"},
	}
	engine := newTestEngine(t, config.DefaultSearcherConfig(), lister)

	events, err := engine.Search(context.Background(), Request{
		Domain:   "example.com",
		Years:    []int{2020},
		Keywords: []string{"unicorn"},
	})
	require.NoError(t, err)

	hits, _ := splitEvents(collect(t, events))
	assert.Empty(t, hits)
}

func TestSearch_NoKeywordsEmitsEverySnapshot(t *testing.T) {
	lister := &fakeLister{
		source: models.SourceWaybackCDX,
		snapshots: []models.Snapshot{
			{URL: "https://example.com/a", Timestamp: "20200101000000"},
			{URL: "https://example.com/b", Timestamp: "20200201000000"},
		},
		pages: map[string]string{
			"https://example.com/a": "<html>a</html>",
			"https://example.com/b": "<html>b</html>",
		},
	}
	engine := newTestEngine(t, config.DefaultSearcherConfig(), lister)

	events, err := engine.Search(context.Background(), Request{Domain: "example.com", Years: []int{2020}})
	require.NoError(t, err)

	hits, _ := splitEvents(collect(t, events))
	assert.Len(t, hits, 2)
}

func TestSearch_GhostFetchAvoidsFullDownload(t *testing.T) {
	cfg := config.DefaultSearcherConfig()
	cfg.FastFirst = true

	lister := &fakeLister{
		source:    models.SourceWaybackCDX,
		snapshots: []models.Snapshot{{URL: "https://example.com/report", Timestamp: "20210101000000"}},
		prefix:    "<html><head><title>Annual budget report</title></head>",
	}
	engine := newTestEngine(t, cfg, lister)

	events, err := engine.Search(context.Background(), Request{
		Domain:   "example.com",
		Years:    []int{2021},
		Keywords: []string{"budget"},
	})
	require.NoError(t, err)

	hits, _ := splitEvents(collect(t, events))
	require.Len(t, hits, 1)
	assert.Equal(t, int32(1), lister.prefixCalls.Load())
	assert.Equal(t, int32(0), lister.fetchCalls.Load())
}

func TestSearch_AccentFoldedMatch(t *testing.T) {
	lister := &fakeLister{
		source:    models.SourceWaybackCDX,
		snapshots: []models.Snapshot{{URL: "https://example.com/jobs", Timestamp: "20220101000000"}},
		pages:     map[string]string{"https://example.com/jobs": "<html>Send your resume to hr</html>"},
	}
	engine := newTestEngine(t, config.DefaultSearcherConfig(), lister)

	events, err := engine.Search(context.Background(), Request{
		Domain:   "example.com",
		Years:    []int{2022},
		Keywords: []string{"résumé"},
	})
	require.NoError(t, err)

	hits, _ := splitEvents(collect(t, events))
	require.Len(t, hits, 1)
	assert.Equal(t, "résumé", hits[0].Hit.Keyword)
}

func TestSearch_RequiresYears(t *testing.T) {
	lister := &fakeLister{source: models.SourceWaybackCDX}
	engine := newTestEngine(t, config.DefaultSearcherConfig(), lister)

	_, err := engine.Search(context.Background(), Request{Domain: "example.com"})
	assert.Error(t, err)
}

func TestMatchKeywords(t *testing.T) {
	match, ok := matchKeywords("the quick brown fox", []string{"missing", "BROWN"})
	require.True(t, ok)
	assert.Equal(t, "BROWN", match.Keyword)
	assert.Equal(t, strings.Index("the quick brown fox", "brown"), match.Index)

	_, ok = matchKeywords("nothing here", []string{"absent"})
	assert.False(t, ok)

	_, ok = matchKeywords("anything", nil)
	assert.False(t, ok)
}

func TestRankSnapshots_DocumentsFirstThenPriorityTerms(t *testing.T) {
	snapshots := []models.Snapshot{
		{URL: "https://example.com/news", Timestamp: "20200301000000"},
		{URL: "https://example.com/pricing", Timestamp: "20200201000000"},
		{URL: "https://example.com/annual.pdf", Timestamp: "20200101000000"},
	}

	rankSnapshots(snapshots, []string{"pricing"}, "")
	assert.Equal(t, "https://example.com/annual.pdf", snapshots[0].URL)
	assert.Equal(t, "https://example.com/pricing", snapshots[1].URL)
	assert.Equal(t, "https://example.com/news", snapshots[2].URL)
}

func TestRankSnapshots_TiesFollowDirection(t *testing.T) {
	backwards := []models.Snapshot{
		{URL: "https://example.com/a", Timestamp: "20200101000000"},
		{URL: "https://example.com/b", Timestamp: "20200601000000"},
	}
	rankSnapshots(backwards, nil, "")
	assert.Equal(t, "20200601000000", backwards[0].Timestamp)

	forwards := []models.Snapshot{
		{URL: "https://example.com/a", Timestamp: "20200601000000"},
		{URL: "https://example.com/b", Timestamp: "20200101000000"},
	}
	rankSnapshots(forwards, nil, "forwards")
	assert.Equal(t, "20200101000000", forwards[0].Timestamp)
}
