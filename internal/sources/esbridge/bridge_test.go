package esbridge

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/webrewind/webrewind/internal/config"
)

// esHandler answers like an Elasticsearch node: the v8 client refuses to talk
// to servers missing the product header.
func esHandler(fn func(index string, body map[string]any) string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")

		index := strings.TrimPrefix(strings.SplitN(r.URL.Path, "/_search", 2)[0], "/")
		var body map[string]any
		if raw, _ := io.ReadAll(r.Body); len(raw) > 0 {
			json.Unmarshal(raw, &body)
		}
		w.Write([]byte(fn(index, body)))
	})
}

func newTestBridge(t *testing.T, server *httptest.Server) *Bridge {
	t.Helper()
	cfg := config.DefaultESConfig()
	cfg.Addresses = []string{server.URL}

	bridge, err := NewBridgeBuilder(zerolog.Nop()).
		WithConfig(cfg).
		WithCredentials("", "").
		Build()
	require.NoError(t, err)
	return bridge
}

func hitsJSON(hits ...string) string {
	return fmt.Sprintf(`{"hits":{"hits":[%s]}}`, strings.Join(hits, ","))
}

func TestSearchOrganizations_DecoratesHits(t *testing.T) {
	var gotIndex string
	var gotBody map[string]any
	server := httptest.NewServer(esHandler(func(index string, body map[string]any) string {
		gotIndex = index
		gotBody = body
		return hitsJSON(`{"_id":"1","_index":"entities-org","_score":2.5,"_source":{"name":"Acme"}}`)
	}))
	defer server.Close()

	bridge := newTestBridge(t, server)
	hits, err := bridge.SearchOrganizations(context.Background(), "acme", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)

	assert.Equal(t, "1", hits[0].ID)
	assert.Equal(t, 2.5, hits[0].Score)
	assert.Equal(t, "entity_org", hits[0].Meta["index_source"])
	assert.Equal(t, "entities-org", gotIndex)

	mm := gotBody["query"].(map[string]any)["multi_match"].(map[string]any)
	assert.Equal(t, "acme", mm["query"])
	assert.Contains(t, mm["fields"], "name^3")
}

func TestSearchDomains_AttachesIndexYear(t *testing.T) {
	server := httptest.NewServer(esHandler(func(index string, body map[string]any) string {
		return hitsJSON(`{"_id":"d1","_index":"domains-unified-2023","_score":1.0,"_source":{"domain":"example.com"}}`)
	}))
	defer server.Close()

	bridge := newTestBridge(t, server)
	hits, err := bridge.SearchDomains(context.Background(), "example", 5, false)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "2023", hits[0].Meta["index_year"])
}

func TestSearchDomains_BacklinkEnrichment(t *testing.T) {
	server := httptest.NewServer(esHandler(func(index string, body map[string]any) string {
		if index == "webgraph-wdc-edges" {
			return `{"hits":{"hits":[]},"aggregations":{"per_domain":{"buckets":[{"key":"example.com","doc_count":42}]}}}`
		}
		return hitsJSON(`{"_id":"d1","_index":"domains-unified","_score":1.0,"_source":{"domain":"example.com"}}`)
	}))
	defer server.Close()

	bridge := newTestBridge(t, server)
	hits, err := bridge.SearchDomains(context.Background(), "example", 5, true)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "42", hits[0].Meta["backlink_count"])
}

func TestSearch_ClusterErrorYieldsEmptyNotError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error":"unavailable"}`))
	}))
	defer server.Close()

	bridge := newTestBridge(t, server)
	hits, err := bridge.SearchPDFs(context.Background(), "report", 5)
	assert.NoError(t, err)
	assert.Empty(t, hits)
}

func TestSearch_EmptyQueryIsPreconditionViolation(t *testing.T) {
	server := httptest.NewServer(esHandler(func(string, map[string]any) string {
		t.Fatal("no query expected")
		return ""
	}))
	defer server.Close()

	bridge := newTestBridge(t, server)
	_, err := bridge.SearchPersons(context.Background(), "   ", 5)
	assert.Error(t, err)
}

func TestHostEdges_DirectionBoth(t *testing.T) {
	var gotBody map[string]any
	server := httptest.NewServer(esHandler(func(index string, body map[string]any) string {
		gotBody = body
		return hitsJSON(`{"_id":"e1","_index":"webgraph-wdc-edges","_score":1.0,"_source":{"source":"a.com","target":"example.com"}}`)
	}))
	defer server.Close()

	bridge := newTestBridge(t, server)
	hits, err := bridge.HostEdges(context.Background(), "example.com", DirectionBoth, 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)

	boolQuery := gotBody["query"].(map[string]any)["bool"].(map[string]any)
	assert.Len(t, boolQuery["should"], 2)
}

func TestHostEdges_InvalidDirection(t *testing.T) {
	server := httptest.NewServer(esHandler(func(string, map[string]any) string { return hitsJSON() }))
	defer server.Close()

	bridge := newTestBridge(t, server)
	_, err := bridge.HostEdges(context.Background(), "example.com", Direction("sideways"), 10)
	assert.Error(t, err)
}

func TestVertexEdges_ResolvesVertexFirst(t *testing.T) {
	var edgeBody map[string]any
	server := httptest.NewServer(esHandler(func(index string, body map[string]any) string {
		switch index {
		case "webgraph-vertices":
			return hitsJSON(`{"_id":"v1","_index":"webgraph-vertices","_score":1.0,"_source":{"id":77,"host":"example.com"}}`)
		case "webgraph-cym-edges":
			edgeBody = body
			return hitsJSON(`{"_id":"e1","_index":"webgraph-cym-edges","_score":1.0,"_source":{"src_id":77,"dst_id":12}}`)
		}
		return hitsJSON()
	}))
	defer server.Close()

	bridge := newTestBridge(t, server)
	hits, err := bridge.VertexEdges(context.Background(), "example.com", DirectionOutbound, 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)

	term := edgeBody["query"].(map[string]any)["term"].(map[string]any)
	assert.Equal(t, float64(77), term["src_id"])
}

func TestVertexEdges_UnresolvedDomainYieldsNothing(t *testing.T) {
	server := httptest.NewServer(esHandler(func(index string, body map[string]any) string {
		return hitsJSON()
	}))
	defer server.Close()

	bridge := newTestBridge(t, server)
	hits, err := bridge.VertexEdges(context.Background(), "nowhere.example", DirectionBoth, 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestIndexYear(t *testing.T) {
	assert.Equal(t, "2023", indexYear("domains-unified-2023"))
	assert.Equal(t, "", indexYear("domains-unified"))
	assert.Equal(t, "", indexYear("domains-unified-20x3"))
}
