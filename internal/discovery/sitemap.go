package discovery

import (
	"context"
	"encoding/xml"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/webrewind/webrewind/internal/httpclient"
	"github.com/webrewind/webrewind/internal/models"
)

// SitemapSource discovers URLs from the live site's robots.txt sitemap
// declarations and the conventional /sitemap.xml location. Sitemap index
// files are followed one level deep.
type SitemapSource struct {
	client *http.Client
	logger zerolog.Logger
}

// NewSitemapSource creates the sitemap discovery source.
func NewSitemapSource(client *http.Client, logger zerolog.Logger) *SitemapSource {
	return &SitemapSource{
		client: client,
		logger: logger.With().Str("component", "SitemapSource").Logger(),
	}
}

// Name implements Source.
func (s *SitemapSource) Name() string { return "sitemap" }

// Available implements Source.
func (s *SitemapSource) Available() bool { return s.client != nil }

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc      string `xml:"loc"`
	Priority string `xml:"priority"`
}

type sitemapIndex struct {
	XMLName  xml.Name `xml:"sitemapindex"`
	Sitemaps []struct {
		Loc string `xml:"loc"`
	} `xml:"sitemap"`
}

// Discover collects sitemap locations from robots.txt, falls back to
// /sitemap.xml, and parses each into discovered URLs.
func (s *SitemapSource) Discover(ctx context.Context, domain string, opts Options) ([]models.DiscoveredURL, error) {
	locations := s.robotsSitemaps(ctx, domain)
	if len(locations) == 0 {
		locations = []string{"https://" + domain + "/sitemap.xml"}
	}

	seen := make(map[string]struct{})
	var urls []models.DiscoveredURL
	for _, loc := range locations {
		if ctx.Err() != nil {
			return urls, ctx.Err()
		}
		for _, d := range s.parseSitemap(ctx, loc, domain, true) {
			if _, dup := seen[d.URL]; dup {
				continue
			}
			seen[d.URL] = struct{}{}
			urls = append(urls, d)
			if opts.Limit > 0 && len(urls) >= opts.Limit {
				return urls, nil
			}
		}
	}
	return urls, nil
}

// robotsSitemaps extracts the Sitemap: lines from the domain's robots.txt.
func (s *SitemapSource) robotsSitemaps(ctx context.Context, domain string) []string {
	resp, err := httpclient.Do(ctx, s.client, httpclient.RequestOptions{
		URL: "https://" + domain + "/robots.txt",
	})
	if err != nil || !resp.IsSuccess() {
		return nil
	}

	var locations []string
	for _, line := range strings.Split(string(resp.Body), "\n") {
		line = strings.TrimSpace(line)
		if len(line) < 8 || !strings.EqualFold(line[:8], "sitemap:") {
			continue
		}
		if loc := strings.TrimSpace(line[8:]); loc != "" {
			locations = append(locations, loc)
		}
	}
	return locations
}

// parseSitemap fetches one sitemap document. Index files recurse once;
// deeper nesting is ignored.
func (s *SitemapSource) parseSitemap(ctx context.Context, location, domain string, followIndex bool) []models.DiscoveredURL {
	resp, err := httpclient.Do(ctx, s.client, httpclient.RequestOptions{URL: location})
	if err != nil || !resp.IsSuccess() {
		s.logger.Debug().Str("sitemap", location).Msg("Sitemap not retrievable")
		return nil
	}

	var set sitemapURLSet
	if err := xml.Unmarshal(resp.Body, &set); err == nil && len(set.URLs) > 0 {
		urls := make([]models.DiscoveredURL, 0, len(set.URLs))
		for _, entry := range set.URLs {
			loc := strings.TrimSpace(entry.Loc)
			if loc == "" || !keepResult(loc, domain) {
				continue
			}
			d := newDiscovered(loc, domain, s.Name(), "")
			if p, perr := strconv.ParseFloat(strings.TrimSpace(entry.Priority), 64); perr == nil {
				d.Priority = p
			}
			urls = append(urls, d)
		}
		return urls
	}

	if !followIndex {
		return nil
	}
	var index sitemapIndex
	if err := xml.Unmarshal(resp.Body, &index); err != nil || len(index.Sitemaps) == 0 {
		s.logger.Debug().Str("sitemap", location).Msg("Sitemap not parseable")
		return nil
	}
	var urls []models.DiscoveredURL
	for _, child := range index.Sitemaps {
		if ctx.Err() != nil {
			return urls
		}
		urls = append(urls, s.parseSitemap(ctx, strings.TrimSpace(child.Loc), domain, false)...)
	}
	return urls
}
