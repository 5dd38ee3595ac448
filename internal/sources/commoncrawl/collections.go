package commoncrawl

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/webrewind/webrewind/internal/errorwrapper"
	"github.com/webrewind/webrewind/internal/httpclient"
)

// Collection is one CommonCrawl archive listed in collinfo.json.
type Collection struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	CDXAPI  string `json:"cdx-api"`
	TimeGap string `json:"timegate,omitempty"`
}

// Catalog resolves CommonCrawl collection IDs, caching the collinfo.json
// listing in memory for a configurable TTL (default one hour).
type Catalog struct {
	endpoint string
	ttl      time.Duration
	client   *http.Client
	logger   zerolog.Logger

	mu        sync.Mutex
	cached    []Collection
	fetchedAt time.Time
}

// NewCatalog creates a collection catalog against the index server.
func NewCatalog(indexServerURL string, ttl time.Duration, client *http.Client, logger zerolog.Logger) *Catalog {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Catalog{
		endpoint: indexServerURL + "/collinfo.json",
		ttl:      ttl,
		client:   client,
		logger:   logger.With().Str("component", "CCCatalog").Logger(),
	}
}

// Collections returns the archive listing, newest first, refreshing the cache
// when stale.
func (c *Catalog) Collections(ctx context.Context) ([]Collection, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cached != nil && time.Since(c.fetchedAt) < c.ttl {
		return c.cached, nil
	}

	resp, err := httpclient.Do(ctx, c.client, httpclient.RequestOptions{URL: c.endpoint})
	if err != nil {
		return nil, errorwrapper.WrapError(err, "failed to fetch collinfo.json")
	}
	if !resp.IsSuccess() {
		return nil, errorwrapper.NewHTTPErrorWithURL(resp.StatusCode, "collinfo.json fetch failed", c.endpoint)
	}

	var collections []Collection
	if err := json.Unmarshal(resp.Body, &collections); err != nil {
		return nil, errorwrapper.WrapError(err, "failed to parse collinfo.json")
	}

	c.cached = collections
	c.fetchedAt = time.Now()
	c.logger.Debug().Int("count", len(collections)).Msg("Collection catalog refreshed")
	return collections, nil
}

// LatestArchive resolves the newest collection ID. collinfo.json lists
// collections newest first.
func (c *Catalog) LatestArchive(ctx context.Context) (string, error) {
	collections, err := c.Collections(ctx)
	if err != nil {
		return "", err
	}
	if len(collections) == 0 {
		return "", errorwrapper.NewError("collinfo.json listed no collections")
	}
	return collections[0].ID, nil
}
