// Package esbridge is a thin query adapter to the local Elasticsearch cluster
// holding entity, web-graph, domain, and PDF indices. It builds the queries
// and returns raw hits; index schemas belong to the cluster's owner.
package esbridge

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"

	es "github.com/elastic/go-elasticsearch/v8"
	"github.com/rs/zerolog"
	"github.com/webrewind/webrewind/internal/config"
	"github.com/webrewind/webrewind/internal/errorwrapper"
)

// Bridge wraps the Elasticsearch client with the engine's seven query surfaces.
type Bridge struct {
	config config.ESConfig
	client *es.Client
	logger zerolog.Logger
}

// BridgeBuilder provides a fluent interface for creating the bridge.
type BridgeBuilder struct {
	config   config.ESConfig
	username string
	password string
	logger   zerolog.Logger
}

// NewBridgeBuilder creates a new builder reading credentials from the environment.
func NewBridgeBuilder(logger zerolog.Logger) *BridgeBuilder {
	keys := config.APIKeysFromEnv()
	return &BridgeBuilder{
		config:   config.DefaultESConfig(),
		username: keys.ESUsername,
		password: keys.ESPassword,
		logger:   logger.With().Str("component", "ESBridge").Logger(),
	}
}

// WithConfig sets the bridge configuration.
func (b *BridgeBuilder) WithConfig(cfg config.ESConfig) *BridgeBuilder {
	b.config = cfg
	return b
}

// WithCredentials overrides the environment-sourced basic-auth credentials.
func (b *BridgeBuilder) WithCredentials(username, password string) *BridgeBuilder {
	b.username = username
	b.password = password
	return b
}

// Build creates the bridge. Connection problems surface on first query, not here.
func (b *BridgeBuilder) Build() (*Bridge, error) {
	if len(b.config.Addresses) == 0 {
		return nil, errorwrapper.NewValidationError("addresses", b.config.Addresses, "elasticsearch addresses cannot be empty")
	}

	clientConfig := es.Config{Addresses: b.config.Addresses}
	if b.username != "" {
		clientConfig.Username = b.username
		clientConfig.Password = b.password
	}
	client, err := es.NewClient(clientConfig)
	if err != nil {
		return nil, errorwrapper.WrapError(err, "failed to create elasticsearch client")
	}
	return &Bridge{config: b.config, client: client, logger: b.logger}, nil
}

// Available reports whether the bridge holds a constructed client. Cluster
// reachability surfaces on first query, not here.
func (br *Bridge) Available() bool {
	return br != nil && br.client != nil
}

// Hit is one raw document hit decorated with provenance metadata.
type Hit struct {
	ID     string            `json:"id"`
	Index  string            `json:"index"`
	Score  float64           `json:"score"`
	Source json.RawMessage   `json:"source"`
	Meta   map[string]string `json:"meta,omitempty"` // index_source, index_year
}

type searchEnvelope struct {
	Hits struct {
		Hits []struct {
			ID     string          `json:"_id"`
			Index  string          `json:"_index"`
			Score  float64         `json:"_score"`
			Source json.RawMessage `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
	Aggregations map[string]json.RawMessage `json:"aggregations,omitempty"`
}

// pageSize clamps a caller-requested size to the configured maximum.
func (br *Bridge) pageSize(size int) int {
	max := br.config.MaxPageSize
	if max <= 0 {
		max = 100
	}
	if size <= 0 || size > max {
		return max
	}
	return size
}

// search runs one query against one index and decorates the hits. Transient
// failures are swallowed: debug log, empty slice.
func (br *Bridge) search(ctx context.Context, index, indexSource string, query map[string]any) ([]Hit, error) {
	envelope, err := br.rawSearch(ctx, index, query)
	if err != nil {
		br.logger.Debug().Err(err).Str("index", index).Msg("Search failed")
		return nil, nil
	}

	hits := make([]Hit, 0, len(envelope.Hits.Hits))
	for _, h := range envelope.Hits.Hits {
		hit := Hit{
			ID:     h.ID,
			Index:  h.Index,
			Score:  h.Score,
			Source: h.Source,
			Meta:   map[string]string{"index_source": indexSource},
		}
		if year := indexYear(h.Index); year != "" {
			hit.Meta["index_year"] = year
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

func (br *Bridge) rawSearch(ctx context.Context, index string, query map[string]any) (*searchEnvelope, error) {
	payload, err := json.Marshal(query)
	if err != nil {
		return nil, errorwrapper.WrapError(err, "failed to marshal query")
	}

	res, err := br.client.Search(
		br.client.Search.WithContext(ctx),
		br.client.Search.WithIndex(index),
		br.client.Search.WithBody(bytes.NewReader(payload)),
	)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return nil, errorwrapper.NewHTTPError(res.StatusCode, string(body))
	}

	var envelope searchEnvelope
	if err := json.NewDecoder(res.Body).Decode(&envelope); err != nil {
		return nil, errorwrapper.WrapError(err, "failed to decode search response")
	}
	return &envelope, nil
}

// indexYear extracts a trailing four-digit year from index names like
// "domains-unified-2023".
func indexYear(index string) string {
	idx := strings.LastIndexByte(index, '-')
	if idx < 0 || len(index)-idx-1 != 4 {
		return ""
	}
	year := index[idx+1:]
	for _, r := range year {
		if r < '0' || r > '9' {
			return ""
		}
	}
	return year
}

// multiMatch builds the standard weighted multi_match body used by the entity
// and document queries. Field weights are stable per index.
func multiMatch(query string, fields []string, size int) map[string]any {
	return map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  query,
				"fields": fields,
			},
		},
		"size": size,
	}
}
