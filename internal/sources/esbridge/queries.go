package esbridge

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/webrewind/webrewind/internal/errorwrapper"
)

// Stable field selections per index. Weights favor canonical-name fields over
// free text.
var (
	orgFields    = []string{"name^3", "aliases^2", "description", "domains"}
	personFields = []string{"full_name^3", "aliases^2", "roles", "affiliations"}
	productFields = []string{"name^3", "vendor^2", "description"}
	domainFields = []string{"domain^3", "title^2", "description", "keywords"}
	pdfFields    = []string{"title^3", "content", "author"}
)

// SearchOrganizations queries the organization entity index.
func (br *Bridge) SearchOrganizations(ctx context.Context, query string, size int) ([]Hit, error) {
	if strings.TrimSpace(query) == "" {
		return nil, errorwrapper.NewValidationError("query", query, "query cannot be empty")
	}
	return br.search(ctx, br.config.OrgIndex, "entity_org", multiMatch(query, orgFields, br.pageSize(size)))
}

// SearchPersons queries the person entity index.
func (br *Bridge) SearchPersons(ctx context.Context, query string, size int) ([]Hit, error) {
	if strings.TrimSpace(query) == "" {
		return nil, errorwrapper.NewValidationError("query", query, "query cannot be empty")
	}
	return br.search(ctx, br.config.PersonIndex, "entity_person", multiMatch(query, personFields, br.pageSize(size)))
}

// SearchProducts queries the product entity index.
func (br *Bridge) SearchProducts(ctx context.Context, query string, size int) ([]Hit, error) {
	if strings.TrimSpace(query) == "" {
		return nil, errorwrapper.NewValidationError("query", query, "query cannot be empty")
	}
	return br.search(ctx, br.config.ProductIndex, "entity_product", multiMatch(query, productFields, br.pageSize(size)))
}

// SearchPDFs queries the PDF document index.
func (br *Bridge) SearchPDFs(ctx context.Context, query string, size int) ([]Hit, error) {
	if strings.TrimSpace(query) == "" {
		return nil, errorwrapper.NewValidationError("query", query, "query cannot be empty")
	}
	return br.search(ctx, br.config.PDFIndex, "pdf", multiMatch(query, pdfFields, br.pageSize(size)))
}

// SearchDomains queries the unified domains index. With enrichBacklinks set, a
// second aggregation query against the WDC edges index attaches per-domain
// backlink counts to the hit metadata.
func (br *Bridge) SearchDomains(ctx context.Context, query string, size int, enrichBacklinks bool) ([]Hit, error) {
	if strings.TrimSpace(query) == "" {
		return nil, errorwrapper.NewValidationError("query", query, "query cannot be empty")
	}
	hits, err := br.search(ctx, br.config.DomainsIndex, "domain_unified", multiMatch(query, domainFields, br.pageSize(size)))
	if err != nil || len(hits) == 0 || !enrichBacklinks {
		return hits, err
	}

	domains := make([]string, 0, len(hits))
	for _, hit := range hits {
		if d := domainOfHit(hit); d != "" {
			domains = append(domains, d)
		}
	}
	counts := br.backlinkCounts(ctx, domains)
	for i := range hits {
		if count, ok := counts[domainOfHit(hits[i])]; ok {
			hits[i].Meta["backlink_count"] = strconv.FormatInt(count, 10)
		}
	}
	return hits, nil
}

// domainOfHit pulls the domain field out of a raw hit.
func domainOfHit(hit Hit) string {
	var doc struct {
		Domain string `json:"domain"`
	}
	if err := json.Unmarshal(hit.Source, &doc); err != nil {
		return ""
	}
	return doc.Domain
}

// backlinkCounts aggregates inbound edge counts per target domain. A failing
// aggregation degrades to no enrichment.
func (br *Bridge) backlinkCounts(ctx context.Context, domains []string) map[string]int64 {
	if len(domains) == 0 {
		return nil
	}
	query := map[string]any{
		"size": 0,
		"query": map[string]any{
			"terms": map[string]any{"target": domains},
		},
		"aggs": map[string]any{
			"per_domain": map[string]any{
				"terms": map[string]any{"field": "target", "size": len(domains)},
			},
		},
	}

	envelope, err := br.rawSearch(ctx, br.config.WDCEdgesIndex, query)
	if err != nil {
		br.logger.Debug().Err(err).Msg("Backlink aggregation failed")
		return nil
	}
	raw, ok := envelope.Aggregations["per_domain"]
	if !ok {
		return nil
	}

	var agg struct {
		Buckets []struct {
			Key      string `json:"key"`
			DocCount int64  `json:"doc_count"`
		} `json:"buckets"`
	}
	if err := json.Unmarshal(raw, &agg); err != nil {
		return nil
	}

	counts := make(map[string]int64, len(agg.Buckets))
	for _, bucket := range agg.Buckets {
		counts[bucket.Key] = bucket.DocCount
	}
	return counts
}
