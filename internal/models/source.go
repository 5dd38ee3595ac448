package models

// ArchiveSource identifies one of the supported upstream archive services.
// The tag travels with every result for provenance.
type ArchiveSource string

const (
	SourceCommonCrawlIndex ArchiveSource = "commoncrawl_index"
	SourceCommonCrawlData  ArchiveSource = "commoncrawl_data"
	SourceCommonCrawlWAT   ArchiveSource = "commoncrawl_wat"
	SourceWaybackCDX       ArchiveSource = "wayback_cdx"
	SourceWaybackData      ArchiveSource = "wayback_data"
	SourceMemento          ArchiveSource = "memento_aggregator"
	SourceESEntityOrg      ArchiveSource = "es_entity_org"
	SourceESEntityPerson   ArchiveSource = "es_entity_person"
	SourceESWebGraph       ArchiveSource = "es_webgraph"
	SourceESDomainUnified  ArchiveSource = "es_domain_unified"
	SourceESPDF            ArchiveSource = "es_pdf"
	SourceFirecrawl        ArchiveSource = "firecrawl_cache"
	SourceExaHistorical    ArchiveSource = "exa_historical"
)

// String returns the wire representation of the source tag.
func (s ArchiveSource) String() string {
	return string(s)
}

// IsCommonCrawl reports whether the source reads CommonCrawl datasets.
func (s ArchiveSource) IsCommonCrawl() bool {
	switch s {
	case SourceCommonCrawlIndex, SourceCommonCrawlData, SourceCommonCrawlWAT:
		return true
	default:
		return false
	}
}

// IsElasticsearch reports whether the source queries the local Elasticsearch cluster.
func (s ArchiveSource) IsElasticsearch() bool {
	switch s {
	case SourceESEntityOrg, SourceESEntityPerson, SourceESWebGraph, SourceESDomainUnified, SourceESPDF:
		return true
	default:
		return false
	}
}
