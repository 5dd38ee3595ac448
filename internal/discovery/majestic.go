package discovery

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/webrewind/webrewind/internal/httpclient"
	"github.com/webrewind/webrewind/internal/models"
)

const majesticEndpoint = "https://api.majestic.com/api/json"

// MajesticSource discovers URLs from Majestic's backlink index: pages of the
// domain that other sites link to, annotated with TrustFlow/CitationFlow.
type MajesticSource struct {
	apiKey   string
	rps      float64
	client   *http.Client
	limiters *httpclient.RateLimiterRegistry
	logger   zerolog.Logger
}

// NewMajesticSource creates the Majestic backlink discovery source.
func NewMajesticSource(apiKey string, rps float64, client *http.Client, limiters *httpclient.RateLimiterRegistry, logger zerolog.Logger) *MajesticSource {
	return &MajesticSource{
		apiKey:   apiKey,
		rps:      rps,
		client:   client,
		limiters: limiters,
		logger:   logger.With().Str("component", "MajesticSource").Logger(),
	}
}

// Name implements Source.
func (s *MajesticSource) Name() string { return "majestic" }

// Available implements Source.
func (s *MajesticSource) Available() bool { return s.apiKey != "" }

type majesticResponse struct {
	Code   string `json:"Code"`
	Tables []struct {
		Rows []struct {
			TargetURL          string `json:"TargetURL"`
			TargetTrustFlow    int    `json:"TargetTrustFlow"`
			TargetCitationFlow int    `json:"TargetCitationFlow"`
		} `json:"Rows"`
	} `json:"Tables"`
}

// Discover calls GetBackLinkData for the root domain and keeps the distinct
// link targets under the domain.
func (s *MajesticSource) Discover(ctx context.Context, domain string, opts Options) ([]models.DiscoveredURL, error) {
	if err := s.limiters.Wait(ctx, s.Name(), s.rps); err != nil {
		return nil, err
	}

	count := opts.Limit
	if count <= 0 || count > 1000 {
		count = 1000
	}
	query := url.Values{
		"app_api_key": {s.apiKey},
		"cmd":         {"GetBackLinkData"},
		"item":        {domain},
		"Count":       {strconv.Itoa(count)},
		"Mode":        {"1"}, // aggregate by target page
	}
	resp, err := httpclient.Do(ctx, s.client, httpclient.RequestOptions{
		URL: majesticEndpoint + "?" + query.Encode(),
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.logger.Debug().Err(err).Msg("Majestic query failed")
		return nil, nil
	}
	if !resp.IsSuccess() {
		return nil, nil
	}

	var parsed majesticResponse
	if err := json.Unmarshal(resp.Body, &parsed); err != nil {
		s.logger.Debug().Err(err).Msg("Majestic response not parseable")
		return nil, nil
	}
	if parsed.Code != "OK" {
		s.logger.Debug().Str("code", parsed.Code).Msg("Majestic returned error code")
		return nil, nil
	}

	seen := make(map[string]struct{})
	var urls []models.DiscoveredURL
	for _, table := range parsed.Tables {
		for _, row := range table.Rows {
			if row.TargetURL == "" || !keepResult(row.TargetURL, domain) {
				continue
			}
			if _, dup := seen[row.TargetURL]; dup {
				continue
			}
			seen[row.TargetURL] = struct{}{}
			d := newDiscovered(row.TargetURL, domain, s.Name(), "")
			d.TrustFlow = row.TargetTrustFlow
			d.CitationFlow = row.TargetCitationFlow
			urls = append(urls, d)
			if opts.Limit > 0 && len(urls) >= opts.Limit {
				return urls, nil
			}
		}
	}
	return urls, nil
}
