// Package discovery holds the mapper's URL discovery sources: subdomain
// enumeration, search-engine site: queries, archive enumeration, sitemap
// parsing, backlink APIs, and the local Elasticsearch bridge.
package discovery

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/webrewind/webrewind/internal/models"
	"github.com/webrewind/webrewind/internal/urlhandler"
)

// Options bound one discovery run. Sources that cannot push a filter down to
// their service apply it client-side.
type Options struct {
	DateRange    urlhandler.DateRange
	Limit        int
	MIMEFilter   string
	StatusFilter int
}

// Source is one URL discovery producer. Discover never raises on network
// errors; it returns what it found and logs the rest at debug. Unavailable
// sources (missing key, no client) are skipped by the mapper.
type Source interface {
	Name() string
	Available() bool
	Discover(ctx context.Context, domain string, opts Options) ([]models.DiscoveredURL, error)
}

// newDiscovered builds the common header of a discovered URL.
func newDiscovered(rawURL, domain, sourceName string, source models.ArchiveSource) models.DiscoveredURL {
	d := models.DiscoveredURL{
		URL:          rawURL,
		Domain:       domain,
		Source:       source,
		SourceName:   sourceName,
		DiscoveredAt: time.Now().UTC(),
	}
	if parsed, err := url.Parse(rawURL); err == nil {
		d.Path = parsed.Path
		host := strings.ToLower(parsed.Hostname())
		if sub := subdomainOf(host, domain); sub != "" {
			d.Subdomain = sub
		}
	}
	return d
}

// subdomainOf returns the label prefix of host relative to domain, or empty.
func subdomainOf(host, domain string) string {
	h := urlhandler.RegistrableHost(host)
	d := urlhandler.RegistrableHost(domain)
	if h == d || !strings.HasSuffix(h, "."+d) {
		return ""
	}
	return strings.TrimSuffix(h, "."+d)
}

// keepResult applies the shared client-side filters for link results coming
// from search engines and backlink APIs: the URL must belong to the mapped
// domain.
func keepResult(rawURL, domain string) bool {
	host, err := urlhandler.ExtractHostname(rawURL)
	if err != nil {
		return false
	}
	return urlhandler.IsSameOrSubdomain(host, domain)
}
