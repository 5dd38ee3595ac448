package discovery

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"github.com/webrewind/webrewind/internal/httpclient"
	"github.com/webrewind/webrewind/internal/models"
)

const crtshEndpoint = "https://crt.sh/"

// CrtShSource enumerates subdomains from certificate transparency logs via
// crt.sh's JSON endpoint. No credentials required.
type CrtShSource struct {
	client *http.Client
	logger zerolog.Logger
}

// NewCrtShSource creates the crt.sh discovery source.
func NewCrtShSource(client *http.Client, logger zerolog.Logger) *CrtShSource {
	return &CrtShSource{
		client: client,
		logger: logger.With().Str("component", "CrtShSource").Logger(),
	}
}

// Name implements Source.
func (s *CrtShSource) Name() string { return "crtsh" }

// Available implements Source.
func (s *CrtShSource) Available() bool { return s.client != nil }

type crtshEntry struct {
	NameValue  string `json:"name_value"`
	CommonName string `json:"common_name"`
}

// Discover queries crt.sh for certificates covering the domain and emits one
// https root URL per unique certificate name. Wildcard labels are dropped.
func (s *CrtShSource) Discover(ctx context.Context, domain string, opts Options) ([]models.DiscoveredURL, error) {
	resp, err := httpclient.Do(ctx, s.client, httpclient.RequestOptions{
		URL: crtshEndpoint + "?q=%25." + domain + "&output=json",
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.logger.Debug().Err(err).Str("domain", domain).Msg("crt.sh query failed")
		return nil, nil
	}
	if !resp.IsSuccess() {
		s.logger.Debug().Int("status", resp.StatusCode).Str("domain", domain).Msg("crt.sh returned non-success")
		return nil, nil
	}

	var entries []crtshEntry
	if err := json.Unmarshal(resp.Body, &entries); err != nil {
		s.logger.Debug().Err(err).Msg("crt.sh response not parseable")
		return nil, nil
	}

	seen := make(map[string]struct{})
	var urls []models.DiscoveredURL
	for _, entry := range entries {
		// name_value can hold several newline-separated SANs.
		for _, name := range strings.Split(entry.NameValue+"\n"+entry.CommonName, "\n") {
			host := strings.ToLower(strings.TrimSpace(name))
			if host == "" || strings.HasPrefix(host, "*.") {
				continue
			}
			if _, dup := seen[host]; dup {
				continue
			}
			seen[host] = struct{}{}
			if !keepResult("https://"+host+"/", domain) {
				continue
			}
			urls = append(urls, newDiscovered("https://"+host+"/", domain, s.Name(), ""))
			if opts.Limit > 0 && len(urls) >= opts.Limit {
				return urls, nil
			}
		}
	}
	return urls, nil
}
