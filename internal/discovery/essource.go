package discovery

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"
	"github.com/webrewind/webrewind/internal/models"
	"github.com/webrewind/webrewind/internal/sources/esbridge"
)

// ESSource discovers URLs from the local unified domains index: pages already
// ingested by earlier pipeline runs.
type ESSource struct {
	bridge *esbridge.Bridge
	logger zerolog.Logger
}

// NewESSource wraps the Elasticsearch bridge as a discovery source.
func NewESSource(bridge *esbridge.Bridge, logger zerolog.Logger) *ESSource {
	return &ESSource{
		bridge: bridge,
		logger: logger.With().Str("component", "ESSource").Logger(),
	}
}

// Name implements Source.
func (s *ESSource) Name() string { return "es_domains" }

// Available implements Source.
func (s *ESSource) Available() bool { return s.bridge != nil && s.bridge.Available() }

// Discover queries the unified domains index for documents belonging to the
// domain and emits their URLs.
func (s *ESSource) Discover(ctx context.Context, domain string, opts Options) ([]models.DiscoveredURL, error) {
	hits, err := s.bridge.SearchDomains(ctx, domain, opts.Limit, false)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var urls []models.DiscoveredURL
	for _, hit := range hits {
		var doc struct {
			URL    string `json:"url"`
			Domain string `json:"domain"`
		}
		if err := json.Unmarshal(hit.Source, &doc); err != nil {
			continue
		}
		target := doc.URL
		if target == "" && doc.Domain != "" {
			target = "https://" + doc.Domain + "/"
		}
		if target == "" || !keepResult(target, domain) {
			continue
		}
		if _, dup := seen[target]; dup {
			continue
		}
		seen[target] = struct{}{}
		urls = append(urls, newDiscovered(target, domain, s.Name(), models.SourceESDomainUnified))
		if opts.Limit > 0 && len(urls) >= opts.Limit {
			break
		}
	}
	return urls, nil
}
