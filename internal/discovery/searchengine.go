package discovery

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
	"github.com/webrewind/webrewind/internal/httpclient"
	"github.com/webrewind/webrewind/internal/models"
)

// GoogleSource runs site: queries against the Google Custom Search JSON API.
// The CSE quota is tight, so requests go through the shared per-source
// limiter.
type GoogleSource struct {
	apiKey   string
	cseID    string
	rps      float64
	client   *http.Client
	limiters *httpclient.RateLimiterRegistry
	logger   zerolog.Logger
}

// NewGoogleSource creates the Google Custom Search discovery source.
func NewGoogleSource(apiKey, cseID string, rps float64, client *http.Client, limiters *httpclient.RateLimiterRegistry, logger zerolog.Logger) *GoogleSource {
	return &GoogleSource{
		apiKey:   apiKey,
		cseID:    cseID,
		rps:      rps,
		client:   client,
		limiters: limiters,
		logger:   logger.With().Str("component", "GoogleSource").Logger(),
	}
}

// Name implements Source.
func (s *GoogleSource) Name() string { return "google_cse" }

// Available implements Source.
func (s *GoogleSource) Available() bool { return s.apiKey != "" && s.cseID != "" }

type googleSearchResponse struct {
	Items []struct {
		Link string `json:"link"`
	} `json:"items"`
}

// Discover pages through the CSE API (10 results per page, 10 pages max per
// the API contract).
func (s *GoogleSource) Discover(ctx context.Context, domain string, opts Options) ([]models.DiscoveredURL, error) {
	var urls []models.DiscoveredURL
	for start := 1; start <= 91; start += 10 {
		if err := s.limiters.Wait(ctx, s.Name(), s.rps); err != nil {
			return urls, err
		}

		query := url.Values{
			"key":   {s.apiKey},
			"cx":    {s.cseID},
			"q":     {"site:" + domain},
			"start": {strconv.Itoa(start)},
		}
		resp, err := httpclient.Do(ctx, s.client, httpclient.RequestOptions{
			URL: "https://www.googleapis.com/customsearch/v1?" + query.Encode(),
		})
		if err != nil {
			if ctx.Err() != nil {
				return urls, ctx.Err()
			}
			s.logger.Debug().Err(err).Msg("CSE query failed")
			return urls, nil
		}
		if resp.StatusCode == http.StatusTooManyRequests {
			s.logger.Debug().Msg("CSE rate limited, keeping partial results")
			return urls, nil
		}
		if !resp.IsSuccess() {
			return urls, nil
		}

		var parsed googleSearchResponse
		if err := json.Unmarshal(resp.Body, &parsed); err != nil || len(parsed.Items) == 0 {
			return urls, nil
		}
		for _, item := range parsed.Items {
			if !keepResult(item.Link, domain) {
				continue
			}
			urls = append(urls, newDiscovered(item.Link, domain, s.Name(), ""))
			if opts.Limit > 0 && len(urls) >= opts.Limit {
				return urls, nil
			}
		}
	}
	return urls, nil
}

// BraveSource runs site: queries against the Brave Search API.
type BraveSource struct {
	apiKey   string
	rps      float64
	client   *http.Client
	limiters *httpclient.RateLimiterRegistry
	logger   zerolog.Logger
}

// NewBraveSource creates the Brave Search discovery source.
func NewBraveSource(apiKey string, rps float64, client *http.Client, limiters *httpclient.RateLimiterRegistry, logger zerolog.Logger) *BraveSource {
	return &BraveSource{
		apiKey:   apiKey,
		rps:      rps,
		client:   client,
		limiters: limiters,
		logger:   logger.With().Str("component", "BraveSource").Logger(),
	}
}

// Name implements Source.
func (s *BraveSource) Name() string { return "brave" }

// Available implements Source.
func (s *BraveSource) Available() bool { return s.apiKey != "" }

type braveSearchResponse struct {
	Web struct {
		Results []struct {
			URL string `json:"url"`
		} `json:"results"`
	} `json:"web"`
}

// Discover queries Brave web search, 20 results per page.
func (s *BraveSource) Discover(ctx context.Context, domain string, opts Options) ([]models.DiscoveredURL, error) {
	var urls []models.DiscoveredURL
	for offset := 0; offset < 9; offset++ {
		if err := s.limiters.Wait(ctx, s.Name(), s.rps); err != nil {
			return urls, err
		}

		query := url.Values{
			"q":      {"site:" + domain},
			"count":  {"20"},
			"offset": {strconv.Itoa(offset)},
		}
		resp, err := httpclient.Do(ctx, s.client, httpclient.RequestOptions{
			URL: "https://api.search.brave.com/res/v1/web/search?" + query.Encode(),
			Headers: map[string]string{
				"Accept":               "application/json",
				"X-Subscription-Token": s.apiKey,
			},
		})
		if err != nil {
			if ctx.Err() != nil {
				return urls, ctx.Err()
			}
			s.logger.Debug().Err(err).Msg("Brave query failed")
			return urls, nil
		}
		if resp.StatusCode == http.StatusTooManyRequests || !resp.IsSuccess() {
			return urls, nil
		}

		var parsed braveSearchResponse
		if err := json.Unmarshal(resp.Body, &parsed); err != nil || len(parsed.Web.Results) == 0 {
			return urls, nil
		}
		for _, item := range parsed.Web.Results {
			if !keepResult(item.URL, domain) {
				continue
			}
			urls = append(urls, newDiscovered(item.URL, domain, s.Name(), ""))
			if opts.Limit > 0 && len(urls) >= opts.Limit {
				return urls, nil
			}
		}
	}
	return urls, nil
}

// DuckDuckGoSource scrapes the DuckDuckGo HTML endpoint, which needs no
// credentials. Result links arrive via a redirect wrapper whose uddg
// parameter carries the destination.
type DuckDuckGoSource struct {
	client *http.Client
	logger zerolog.Logger
}

// NewDuckDuckGoSource creates the DuckDuckGo discovery source.
func NewDuckDuckGoSource(client *http.Client, logger zerolog.Logger) *DuckDuckGoSource {
	return &DuckDuckGoSource{
		client: client,
		logger: logger.With().Str("component", "DuckDuckGoSource").Logger(),
	}
}

// Name implements Source.
func (s *DuckDuckGoSource) Name() string { return "duckduckgo" }

// Available implements Source.
func (s *DuckDuckGoSource) Available() bool { return s.client != nil }

// Discover scrapes one page of HTML results for site:domain.
func (s *DuckDuckGoSource) Discover(ctx context.Context, domain string, opts Options) ([]models.DiscoveredURL, error) {
	resp, err := httpclient.Do(ctx, s.client, httpclient.RequestOptions{
		URL: "https://html.duckduckgo.com/html/?q=" + url.QueryEscape("site:"+domain),
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.logger.Debug().Err(err).Msg("DuckDuckGo query failed")
		return nil, nil
	}
	if !resp.IsSuccess() {
		return nil, nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(resp.Body)))
	if err != nil {
		s.logger.Debug().Err(err).Msg("DuckDuckGo response not parseable")
		return nil, nil
	}

	var urls []models.DiscoveredURL
	doc.Find("a.result__a").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, ok := sel.Attr("href")
		if !ok {
			return true
		}
		target := decodeDuckDuckGoLink(href)
		if target == "" || !keepResult(target, domain) {
			return true
		}
		urls = append(urls, newDiscovered(target, domain, s.Name(), ""))
		return opts.Limit <= 0 || len(urls) < opts.Limit
	})
	return urls, nil
}

// decodeDuckDuckGoLink unwraps //duckduckgo.com/l/?uddg=<encoded> redirects.
func decodeDuckDuckGoLink(href string) string {
	parsed, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if uddg := parsed.Query().Get("uddg"); uddg != "" {
		return uddg
	}
	if parsed.Scheme == "http" || parsed.Scheme == "https" {
		return href
	}
	return ""
}

// bingMarkets are queried in parallel; different markets surface different
// result sets for the same site: query.
var bingMarkets = []string{"en-US", "en-GB", "de-DE", "fr-FR"}

// BingSource runs Bing site: queries through SerpAPI across several markets.
type BingSource struct {
	apiKey string
	client *http.Client
	logger zerolog.Logger
}

// NewBingSource creates the SerpAPI-backed Bing discovery source.
func NewBingSource(apiKey string, client *http.Client, logger zerolog.Logger) *BingSource {
	return &BingSource{
		apiKey: apiKey,
		client: client,
		logger: logger.With().Str("component", "BingSource").Logger(),
	}
}

// Name implements Source.
func (s *BingSource) Name() string { return "bing_serpapi" }

// Available implements Source.
func (s *BingSource) Available() bool { return s.apiKey != "" }

type serpAPIResponse struct {
	OrganicResults []struct {
		Link string `json:"link"`
	} `json:"organic_results"`
}

// Discover fans one query out across the market list and merges the results,
// dedup by URL.
func (s *BingSource) Discover(ctx context.Context, domain string, opts Options) ([]models.DiscoveredURL, error) {
	results := make([][]string, len(bingMarkets))
	var wg sync.WaitGroup
	for i, market := range bingMarkets {
		wg.Add(1)
		go func(idx int, mkt string) {
			defer wg.Done()
			results[idx] = s.queryMarket(ctx, domain, mkt)
		}(i, market)
	}
	wg.Wait()
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	seen := make(map[string]struct{})
	var urls []models.DiscoveredURL
	for _, links := range results {
		for _, link := range links {
			if _, dup := seen[link]; dup {
				continue
			}
			seen[link] = struct{}{}
			if !keepResult(link, domain) {
				continue
			}
			urls = append(urls, newDiscovered(link, domain, s.Name(), ""))
			if opts.Limit > 0 && len(urls) >= opts.Limit {
				return urls, nil
			}
		}
	}
	return urls, nil
}

func (s *BingSource) queryMarket(ctx context.Context, domain, market string) []string {
	query := url.Values{
		"engine":  {"bing"},
		"q":       {"site:" + domain},
		"mkt":     {market},
		"api_key": {s.apiKey},
	}
	resp, err := httpclient.Do(ctx, s.client, httpclient.RequestOptions{
		URL: "https://serpapi.com/search.json?" + query.Encode(),
	})
	if err != nil || !resp.IsSuccess() {
		s.logger.Debug().Str("market", market).Msg("SerpAPI query failed")
		return nil
	}
	var parsed serpAPIResponse
	if err := json.Unmarshal(resp.Body, &parsed); err != nil {
		return nil
	}
	links := make([]string, 0, len(parsed.OrganicResults))
	for _, item := range parsed.OrganicResults {
		links = append(links, item.Link)
	}
	return links
}
