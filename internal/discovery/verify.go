package discovery

import (
	"context"
	"net/http"
	"sync"

	"github.com/rs/zerolog"
	"github.com/webrewind/webrewind/internal/httpclient"
	"github.com/webrewind/webrewind/internal/models"
)

const verifyConcurrency = 10

// LiveVerifier probes discovered URLs against the live site with HEAD
// requests so the mapper can mark which archived URLs still exist.
type LiveVerifier struct {
	client *http.Client
	logger zerolog.Logger
}

// NewLiveVerifier creates a verifier on the shared HTTP client.
func NewLiveVerifier(client *http.Client, logger zerolog.Logger) *LiveVerifier {
	return &LiveVerifier{
		client: client,
		logger: logger.With().Str("component", "LiveVerifier").Logger(),
	}
}

// Verify annotates each URL in place with Verified/Exists. Probes run with
// bounded concurrency; a failed probe leaves Exists false but still marks the
// URL verified.
func (v *LiveVerifier) Verify(ctx context.Context, urls []models.DiscoveredURL) {
	sem := make(chan struct{}, verifyConcurrency)
	var wg sync.WaitGroup
	for i := range urls {
		wg.Add(1)
		go func(d *models.DiscoveredURL) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return
			}
			defer func() { <-sem }()

			d.Verified = true
			d.Exists = v.probe(ctx, d.URL)
		}(&urls[i])
	}
	wg.Wait()
}

func (v *LiveVerifier) probe(ctx context.Context, target string) bool {
	resp, err := httpclient.Do(ctx, v.client, httpclient.RequestOptions{
		Method: http.MethodHead,
		URL:    target,
	})
	if err != nil {
		return false
	}
	// 405 means the server rejects HEAD, not that the page is gone.
	return resp.IsSuccess() || resp.StatusCode == http.StatusMethodNotAllowed
}
