package extractor

import (
	"net/url"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/webrewind/webrewind/internal/models"
	"github.com/webrewind/webrewind/internal/urlhandler"
)

// OutlinkSet is the outward link structure of one archived page.
type OutlinkSet struct {
	URLs    []string             // deduplicated external links, capped
	Notes   []models.OutlinkNote // links paired with their anchor text
	Domains []string             // sorted unique outlink domains
}

// OutlinkExtractor collects external links from archived HTML.
type OutlinkExtractor struct {
	maxOutlinks int
}

// NewOutlinkExtractor creates an extractor capped at maxOutlinks links.
func NewOutlinkExtractor(maxOutlinks int) *OutlinkExtractor {
	if maxOutlinks <= 0 {
		maxOutlinks = 50
	}
	return &OutlinkExtractor{maxOutlinks: maxOutlinks}
}

// Extract parses anchors, resolves them against baseURL, keeps only http(s)
// links pointing off the page's own domain, dedups, and caps the result.
func (oe *OutlinkExtractor) Extract(html, baseURL string) OutlinkSet {
	var set OutlinkSet

	base, err := url.Parse(baseURL)
	if err != nil {
		return set
	}
	baseHost, err := urlhandler.ExtractHostname(baseURL)
	if err != nil {
		return set
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return set
	}

	seen := make(map[string]struct{})
	domains := make(map[string]struct{})

	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		resolved := urlhandler.ResolveURL(href, base)
		if resolved == "" {
			return true
		}
		host, err := urlhandler.ExtractHostname(resolved)
		if err != nil || urlhandler.IsSameOrSubdomain(host, baseHost) {
			return true
		}
		if _, dup := seen[resolved]; dup {
			return true
		}
		seen[resolved] = struct{}{}
		domains[urlhandler.RegistrableHost(host)] = struct{}{}

		set.URLs = append(set.URLs, resolved)
		set.Notes = append(set.Notes, models.OutlinkNote{
			URL:    resolved,
			Anchor: NormalizeWhitespace(sel.Text()),
		})
		return len(set.URLs) < oe.maxOutlinks
	})

	set.Domains = make([]string, 0, len(domains))
	for domain := range domains {
		set.Domains = append(set.Domains, domain)
	}
	sort.Strings(set.Domains)

	return set
}
