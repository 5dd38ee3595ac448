package esbridge

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/webrewind/webrewind/internal/errorwrapper"
)

// Direction selects which edges of a host to return.
type Direction string

const (
	DirectionInbound  Direction = "inbound"
	DirectionOutbound Direction = "outbound"
	DirectionBoth     Direction = "both"
)

func (d Direction) valid() bool {
	switch d {
	case DirectionInbound, DirectionOutbound, DirectionBoth:
		return true
	}
	return false
}

// HostEdges queries the WDC edges index, which keys edges by hostname strings
// (source, target).
func (br *Bridge) HostEdges(ctx context.Context, host string, direction Direction, size int) ([]Hit, error) {
	if strings.TrimSpace(host) == "" {
		return nil, errorwrapper.NewValidationError("host", host, "host cannot be empty")
	}
	if !direction.valid() {
		return nil, errorwrapper.NewValidationError("direction", direction, "direction must be inbound, outbound, or both")
	}
	query := map[string]any{
		"query": edgeQuery(host, direction, "source", "target"),
		"size":  br.pageSize(size),
	}
	return br.search(ctx, br.config.WDCEdgesIndex, "webgraph_wdc", query)
}

// VertexEdges queries the Cymonides edges index, which keys edges by integer
// vertex IDs. The domain is first resolved to its vertex through the vertices
// index; a domain without a vertex yields no edges and no edge query.
func (br *Bridge) VertexEdges(ctx context.Context, domain string, direction Direction, size int) ([]Hit, error) {
	if strings.TrimSpace(domain) == "" {
		return nil, errorwrapper.NewValidationError("domain", domain, "domain cannot be empty")
	}
	if !direction.valid() {
		return nil, errorwrapper.NewValidationError("direction", direction, "direction must be inbound, outbound, or both")
	}

	vertexID, found, err := br.resolveVertex(ctx, domain)
	if err != nil || !found {
		return nil, err
	}

	query := map[string]any{
		"query": edgeQuery(vertexID, direction, "src_id", "dst_id"),
		"size":  br.pageSize(size),
	}
	return br.search(ctx, br.config.CymEdgesIndex, "webgraph_cym", query)
}

// resolveVertex finds the integer vertex ID of a domain via a term query.
func (br *Bridge) resolveVertex(ctx context.Context, domain string) (int64, bool, error) {
	query := map[string]any{
		"query": map[string]any{
			"term": map[string]any{"host": domain},
		},
		"size": 1,
	}
	envelope, err := br.rawSearch(ctx, br.config.VerticesIndex, query)
	if err != nil {
		br.logger.Debug().Err(err).Str("domain", domain).Msg("Vertex resolution failed")
		return 0, false, nil
	}
	if len(envelope.Hits.Hits) == 0 {
		return 0, false, nil
	}

	var vertex struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(envelope.Hits.Hits[0].Source, &vertex); err != nil {
		return 0, false, nil
	}
	return vertex.ID, true, nil
}

// edgeQuery builds the direction-aware edge filter. "both" is a should over
// the two term queries.
func edgeQuery(key any, direction Direction, sourceField, targetField string) map[string]any {
	inbound := map[string]any{"term": map[string]any{targetField: key}}
	outbound := map[string]any{"term": map[string]any{sourceField: key}}
	switch direction {
	case DirectionInbound:
		return inbound
	case DirectionOutbound:
		return outbound
	default:
		return map[string]any{
			"bool": map[string]any{
				"should":               []any{inbound, outbound},
				"minimum_should_match": 1,
			},
		}
	}
}
