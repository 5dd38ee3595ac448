package differ

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/webrewind/webrewind/internal/config"
	"github.com/webrewind/webrewind/internal/mapper"
	"github.com/webrewind/webrewind/internal/models"
	"github.com/webrewind/webrewind/internal/sources"
	"github.com/webrewind/webrewind/internal/urlhandler"
)

// fakeMapper returns one canned map per call, repeating the last.
type fakeMapper struct {
	maps  []*models.DomainMap
	calls int
}

func (f *fakeMapper) MapDomain(ctx context.Context, domain string, filters mapper.Filters) (*models.DomainMap, error) {
	idx := f.calls
	if idx >= len(f.maps) {
		idx = len(f.maps) - 1
	}
	f.calls++
	return f.maps[idx], nil
}

// fakeFetcher serves page bodies keyed by "url@timestamp".
type fakeFetcher struct {
	pages      map[string]string
	snapshots  []models.Snapshot
	fetchCalls int
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string, opts sources.FetchOptions) (*models.FetchResult, error) {
	f.fetchCalls++
	html := f.pages[url+"@"+opts.Timestamp]
	return &models.FetchResult{URL: url, Timestamp: opts.Timestamp, HTML: html}, nil
}

func (f *fakeFetcher) ListSnapshots(ctx context.Context, url string, opts sources.ListOptions) ([]models.Snapshot, error) {
	return f.snapshots, nil
}

func newTestDiffer(t *testing.T, m DomainMapper, fetcher ArchiveFetcher) *Differ {
	t.Helper()
	if m == nil {
		m = &fakeMapper{maps: []*models.DomainMap{{Domain: "example.com"}}}
	}
	if fetcher == nil {
		fetcher = &fakeFetcher{}
	}
	d, err := NewBuilder(zerolog.Nop()).
		WithConfig(config.DefaultDifferConfig()).
		WithMapper(m).
		WithFetcher(fetcher).
		Build()
	require.NoError(t, err)
	return d
}

func domainMapOf(domain string, urls ...models.DiscoveredURL) *models.DomainMap {
	return &models.DomainMap{Domain: domain, URLs: urls}
}

func urlAt(rawURL, timestamp string) models.DiscoveredURL {
	return models.DiscoveredURL{URL: rawURL, Domain: "example.com", Timestamp: timestamp}
}

func TestComparePages_IdenticalTextShortCircuits(t *testing.T) {
	d := newTestDiffer(t, nil, nil)

	change := d.ComparePages("https://example.com/", "20200101000000", "20210101000000",
		"same   content here", "same content here")

	assert.Equal(t, models.ChangeIdentical, change.ChangeType)
	assert.Equal(t, 1.0, change.Similarity)
	assert.Equal(t, change.FromHash, change.ToHash)
	assert.Zero(t, change.LinesAdded)
	assert.Zero(t, change.LinesRemoved)
}

func TestComparePages_CompleteRewriteIsMajor(t *testing.T) {
	d := newTestDiffer(t, nil, nil)

	change := d.ComparePages("https://example.com/", "20200101000000", "20210101000000",
		"aaaa aaaa aaaa aaaa aaaa", "zzzz zzzz zzzz zzzz zzzz")

	assert.Equal(t, models.ChangeMajor, change.ChangeType)
	assert.Less(t, change.Similarity, 0.5)
	assert.NotEqual(t, change.FromHash, change.ToHash)
}

func TestComparePages_SmallEditIsMinor(t *testing.T) {
	d := newTestDiffer(t, nil, nil)

	base := strings.Repeat("stable paragraph text. ", 50)
	addition := "A new closing paragraph announcing the upcoming product launch and the revised support contact address."
	change := d.ComparePages("https://example.com/", "20200101000000", "20210101000000",
		base, base+addition)

	assert.Equal(t, models.ChangeMinor, change.ChangeType)
	assert.GreaterOrEqual(t, change.Similarity, 0.90)
	assert.Less(t, change.Similarity, 0.99)
	assert.Equal(t, 1, change.LinesAdded)
}

func TestDomainEvolution_ConsecutiveYearSetDiff(t *testing.T) {
	m := &fakeMapper{maps: []*models.DomainMap{domainMapOf("example.com",
		urlAt("https://example.com/kept", "20190101000000"),
		urlAt("https://example.com/old", "20190601000000"),
		urlAt("https://example.com/kept", "20200101000000"),
		urlAt("https://example.com/new", "20200601000000"),
	)}}
	d := newTestDiffer(t, m, nil)

	evolution, err := d.DomainEvolution(context.Background(), "example.com")
	require.NoError(t, err)

	require.Len(t, evolution.Periods, 2)
	assert.Equal(t, "2019", evolution.Periods[0].Year)
	assert.Equal(t, 2, evolution.Periods[0].URLCount)
	assert.Equal(t, "2020", evolution.Periods[1].Year)

	assert.Equal(t, 1, evolution.TotalAdded)
	assert.Equal(t, []string{"https://example.com/new"}, evolution.PagesAdded)
	assert.Equal(t, 1, evolution.TotalRemoved)
	assert.Equal(t, []string{"https://example.com/old"}, evolution.PagesRemoved)
}

func TestComparePeriods_SetAlgebra(t *testing.T) {
	m := &fakeMapper{maps: []*models.DomainMap{
		domainMapOf("example.com",
			urlAt("https://example.com/common", "20190201000000"),
			urlAt("https://example.com/gone", "20190301000000"),
		),
		domainMapOf("example.com",
			urlAt("https://example.com/common", "20220201000000"),
			urlAt("https://example.com/fresh", "20220301000000"),
		),
	}}
	d := newTestDiffer(t, m, nil)

	comparison, err := d.ComparePeriods(context.Background(), "example.com",
		urlhandler.DateRange{From: "2019-01-01", To: "2019-12-31"},
		urlhandler.DateRange{From: "2022-01-01", To: "2022-12-31"},
		false)
	require.NoError(t, err)

	assert.Equal(t, "2019-01-01..2019-12-31", comparison.Period1)
	assert.Equal(t, []string{"https://example.com/fresh"}, comparison.URLsAdded)
	assert.Equal(t, []string{"https://example.com/common"}, comparison.URLsCommon)
	assert.Equal(t, []string{"https://example.com/gone"}, comparison.URLsRemoved)

	// The second period's population is exactly added + common.
	assert.Equal(t, comparison.Period2Count, len(comparison.URLsAdded)+len(comparison.URLsCommon))
}

func TestComparePeriods_ContentSampling(t *testing.T) {
	m := &fakeMapper{maps: []*models.DomainMap{
		domainMapOf("example.com", urlAt("https://example.com/page", "20190101000000")),
		domainMapOf("example.com", urlAt("https://example.com/page", "20220101000000")),
	}}
	fetcher := &fakeFetcher{pages: map[string]string{
		"https://example.com/page@20190101000000": "<html>original wording</html>",
		"https://example.com/page@20220101000000": "<html>rewritten body entirely</html>",
	}}
	d := newTestDiffer(t, m, fetcher)

	comparison, err := d.ComparePeriods(context.Background(), "example.com",
		urlhandler.DateRange{From: "2019-01-01"},
		urlhandler.DateRange{From: "2022-01-01"},
		true)
	require.NoError(t, err)

	require.Len(t, comparison.PageChanges, 1)
	assert.Equal(t, "https://example.com/page", comparison.PageChanges[0].URL)
	assert.NotEqual(t, models.ChangeIdentical, comparison.PageChanges[0].ChangeType)
}

func TestPageHistory_SkipsDigestEqualPairs(t *testing.T) {
	fetcher := &fakeFetcher{
		snapshots: []models.Snapshot{
			{URL: "https://example.com/", Timestamp: "20200101000000", Digest: "AAA"},
			{URL: "https://example.com/", Timestamp: "20200601000000", Digest: "AAA"},
			{URL: "https://example.com/", Timestamp: "20210101000000", Digest: "BBB"},
		},
		pages: map[string]string{
			"https://example.com/@20200601000000": "<html>version one</html>",
			"https://example.com/@20210101000000": "<html>a completely different second version</html>",
		},
	}
	d := newTestDiffer(t, nil, fetcher)

	changes, err := d.PageHistory(context.Background(), "https://example.com/", urlhandler.DateRange{})
	require.NoError(t, err)

	// The digest-equal pair costs no fetches; only the changed pair is scored.
	require.Len(t, changes, 1)
	assert.Equal(t, "20200601000000", changes[0].FromTimestamp)
	assert.Equal(t, "20210101000000", changes[0].ToTimestamp)
	assert.Equal(t, 2, fetcher.fetchCalls)
}

func TestPageHistory_FewerThanTwoSnapshots(t *testing.T) {
	fetcher := &fakeFetcher{snapshots: []models.Snapshot{
		{URL: "https://example.com/", Timestamp: "20200101000000"},
	}}
	d := newTestDiffer(t, nil, fetcher)

	changes, err := d.PageHistory(context.Background(), "https://example.com/", urlhandler.DateRange{})
	require.NoError(t, err)
	assert.Empty(t, changes)
}

func TestFindContentChange_Appeared(t *testing.T) {
	m := &fakeMapper{maps: []*models.DomainMap{domainMapOf("example.com",
		urlAt("https://example.com/", "20190101000000"),
		urlAt("https://example.com/", "20200101000000"),
	)}}
	fetcher := &fakeFetcher{pages: map[string]string{
		"https://example.com/@20190101000000": "<html>nothing notable yet</html>",
		"https://example.com/@20200101000000": "<html>We proudly announce our acquisition today.</html>",
	}}
	d := newTestDiffer(t, m, fetcher)

	result, err := d.FindContentChange(context.Background(), "example.com", "acquisition", ChangeAppeared)
	require.NoError(t, err)

	assert.True(t, result.Found)
	assert.Equal(t, "20200101000000", result.Timestamp)
	assert.Equal(t, "https://example.com/", result.URL)
	assert.Contains(t, result.SurroundingText, "acquisition")
}

func TestFindContentChange_Disappeared(t *testing.T) {
	m := &fakeMapper{maps: []*models.DomainMap{domainMapOf("example.com",
		urlAt("https://example.com/", "20190101000000"),
		urlAt("https://example.com/", "20200101000000"),
	)}}
	fetcher := &fakeFetcher{pages: map[string]string{
		"https://example.com/@20190101000000": "<html>Our flagship product ships worldwide.</html>",
		"https://example.com/@20200101000000": "<html>Catalog under revision.</html>",
	}}
	d := newTestDiffer(t, m, fetcher)

	result, err := d.FindContentChange(context.Background(), "example.com", "flagship product", ChangeDisappeared)
	require.NoError(t, err)

	assert.True(t, result.Found)
	assert.Equal(t, "20200101000000", result.Timestamp)
}

func TestFindContentChange_ValidatesInput(t *testing.T) {
	d := newTestDiffer(t, nil, nil)

	_, err := d.FindContentChange(context.Background(), "example.com", "", ChangeAppeared)
	assert.Error(t, err)

	_, err = d.FindContentChange(context.Background(), "example.com", "text", "sideways")
	assert.Error(t, err)
}
