package discovery

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// routedClient answers each URL with a canned body; unknown URLs get 404.
func routedClient(routes map[string]string) *http.Client {
	return &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		body, ok := routes[r.URL.String()]
		status := http.StatusOK
		if !ok {
			status = http.StatusNotFound
		}
		return &http.Response{
			StatusCode: status,
			Body:       io.NopCloser(strings.NewReader(body)),
			Header:     make(http.Header),
			Request:    r,
		}, nil
	})}
}

func TestSitemap_RobotsDeclarationsWin(t *testing.T) {
	client := routedClient(map[string]string{
		"https://example.com/robots.txt": "User-agent: *\nDisallow: /admin\nSITEMAP: https://example.com/map-a.xml\nsitemap: https://example.com/map-b.xml\n",
		"https://example.com/map-a.xml": `<?xml version="1.0"?>
<urlset><url><loc>https://example.com/page-a</loc><priority>0.8</priority></url></urlset>`,
		"https://example.com/map-b.xml": `<?xml version="1.0"?>
<urlset><url><loc>https://example.com/page-b</loc></url></urlset>`,
	})
	source := NewSitemapSource(client, zerolog.Nop())

	urls, err := source.Discover(context.Background(), "example.com", Options{})
	require.NoError(t, err)
	require.Len(t, urls, 2)

	assert.Equal(t, "https://example.com/page-a", urls[0].URL)
	assert.Equal(t, 0.8, urls[0].Priority)
	assert.Equal(t, "sitemap", urls[0].SourceName)
	assert.Equal(t, "https://example.com/page-b", urls[1].URL)
}

func TestSitemap_FallsBackToConventionalLocation(t *testing.T) {
	client := routedClient(map[string]string{
		"https://example.com/sitemap.xml": `<?xml version="1.0"?>
<urlset><url><loc>https://example.com/only</loc></url></urlset>`,
	})
	source := NewSitemapSource(client, zerolog.Nop())

	urls, err := source.Discover(context.Background(), "example.com", Options{})
	require.NoError(t, err)
	require.Len(t, urls, 1)
	assert.Equal(t, "https://example.com/only", urls[0].URL)
}

func TestSitemap_IndexFollowedOneLevelDeep(t *testing.T) {
	client := routedClient(map[string]string{
		"https://example.com/sitemap.xml": `<?xml version="1.0"?>
<sitemapindex>
  <sitemap><loc>https://example.com/map-1.xml</loc></sitemap>
  <sitemap><loc>https://example.com/nested-index.xml</loc></sitemap>
</sitemapindex>`,
		"https://example.com/map-1.xml": `<?xml version="1.0"?>
<urlset><url><loc>https://example.com/from-child</loc></url></urlset>`,
		// A second index level must not recurse.
		"https://example.com/nested-index.xml": `<?xml version="1.0"?>
<sitemapindex><sitemap><loc>https://example.com/map-2.xml</loc></sitemap></sitemapindex>`,
		"https://example.com/map-2.xml": `<?xml version="1.0"?>
<urlset><url><loc>https://example.com/too-deep</loc></url></urlset>`,
	})
	source := NewSitemapSource(client, zerolog.Nop())

	urls, err := source.Discover(context.Background(), "example.com", Options{})
	require.NoError(t, err)
	require.Len(t, urls, 1)
	assert.Equal(t, "https://example.com/from-child", urls[0].URL)
}

func TestSitemap_OffDomainEntriesFiltered(t *testing.T) {
	client := routedClient(map[string]string{
		"https://example.com/sitemap.xml": `<?xml version="1.0"?>
<urlset>
  <url><loc>https://example.com/kept</loc></url>
  <url><loc>https://cdn.other-host.net/dropped</loc></url>
  <url><loc>https://sub.example.com/kept-too</loc></url>
</urlset>`,
	})
	source := NewSitemapSource(client, zerolog.Nop())

	urls, err := source.Discover(context.Background(), "example.com", Options{})
	require.NoError(t, err)

	got := make([]string, 0, len(urls))
	for _, u := range urls {
		got = append(got, u.URL)
	}
	assert.ElementsMatch(t, []string{"https://example.com/kept", "https://sub.example.com/kept-too"}, got)
}

func TestSitemap_NothingRetrievableYieldsEmpty(t *testing.T) {
	source := NewSitemapSource(routedClient(nil), zerolog.Nop())

	urls, err := source.Discover(context.Background(), "example.com", Options{})
	require.NoError(t, err)
	assert.Empty(t, urls)
}
