package config

// WaybackConfig configures the Internet Archive adapter.
type WaybackConfig struct {
	CDXEndpoint     string `json:"cdx_endpoint,omitempty" yaml:"cdx_endpoint,omitempty" validate:"omitempty,url"`
	ContentEndpoint string `json:"content_endpoint,omitempty" yaml:"content_endpoint,omitempty" validate:"omitempty,url"`
	SaveEndpoint    string `json:"save_endpoint,omitempty" yaml:"save_endpoint,omitempty" validate:"omitempty,url"`
	// Collapse reduces near-duplicate captures; "timestamp:8" keeps one per day.
	Collapse             string `json:"collapse,omitempty" yaml:"collapse,omitempty"`
	IncludeErrorStatuses bool   `json:"include_error_statuses,omitempty" yaml:"include_error_statuses,omitempty"`
	SnapshotLimit        int    `json:"snapshot_limit,omitempty" yaml:"snapshot_limit,omitempty" validate:"omitempty,gt=0"`
	ListTimeoutSecs      int    `json:"list_timeout_secs,omitempty" yaml:"list_timeout_secs,omitempty" validate:"omitempty,gt=0"`
	FetchTimeoutSecs     int    `json:"fetch_timeout_secs,omitempty" yaml:"fetch_timeout_secs,omitempty" validate:"omitempty,gt=0"`
}

// DefaultWaybackConfig returns the default Wayback configuration.
func DefaultWaybackConfig() WaybackConfig {
	return WaybackConfig{
		CDXEndpoint:      DefaultWaybackCDXEndpoint,
		ContentEndpoint:  DefaultWaybackContentEndpoint,
		SaveEndpoint:     DefaultWaybackSaveEndpoint,
		Collapse:         DefaultWaybackCollapse,
		SnapshotLimit:    DefaultWaybackLimit,
		ListTimeoutSecs:  DefaultListTimeoutSecs,
		FetchTimeoutSecs: DefaultHTTPTimeoutSecs,
	}
}

// CommonCrawlConfig configures the CommonCrawl index and data adapters.
type CommonCrawlConfig struct {
	IndexServerURL string `json:"index_server_url,omitempty" yaml:"index_server_url,omitempty" validate:"omitempty,url"`
	DataServerURL  string `json:"data_server_url,omitempty" yaml:"data_server_url,omitempty" validate:"omitempty,url"`
	// DefaultArchive pins a collection ID (e.g. CC-MAIN-2024-51); empty means
	// resolve the latest from collinfo.json.
	DefaultArchive           string `json:"default_archive,omitempty" yaml:"default_archive,omitempty"`
	MaxBlocks                int    `json:"max_blocks,omitempty" yaml:"max_blocks,omitempty" validate:"omitempty,gt=0"`
	BlockConcurrency         int    `json:"block_concurrency,omitempty" yaml:"block_concurrency,omitempty" validate:"omitempty,gt=0"`
	IndexDownloadTimeoutSecs int    `json:"index_download_timeout_secs,omitempty" yaml:"index_download_timeout_secs,omitempty" validate:"omitempty,gt=0"`
	CollectionCacheTTLMins   int    `json:"collection_cache_ttl_mins,omitempty" yaml:"collection_cache_ttl_mins,omitempty" validate:"omitempty,gt=0"`

	// External WARC/WAT fetcher binary. Empty path means the data adapters
	// report themselves unavailable and the engine degrades to CDX metadata.
	FetcherBinaryPath  string `json:"fetcher_binary_path,omitempty" yaml:"fetcher_binary_path,omitempty"`
	FetcherThreads     int    `json:"fetcher_threads,omitempty" yaml:"fetcher_threads,omitempty" validate:"omitempty,gt=0"`
	FetcherTimeoutSecs int    `json:"fetcher_timeout_secs,omitempty" yaml:"fetcher_timeout_secs,omitempty" validate:"omitempty,gt=0"`
}

// DefaultCommonCrawlConfig returns the default CommonCrawl configuration.
func DefaultCommonCrawlConfig() CommonCrawlConfig {
	return CommonCrawlConfig{
		IndexServerURL:           DefaultCCIndexServerURL,
		DataServerURL:            DefaultCCDataServerURL,
		MaxBlocks:                DefaultCCMaxBlocks,
		BlockConcurrency:         DefaultCCBlockConcurrency,
		IndexDownloadTimeoutSecs: DefaultIndexDownloadTimeout,
		CollectionCacheTTLMins:   DefaultCCCollectionTTLMins,
		FetcherThreads:           DefaultCCFetcherThreads,
		FetcherTimeoutSecs:       DefaultCCFetcherTimeout,
	}
}

// MementoConfig configures the Memento aggregator adapter.
type MementoConfig struct {
	TimeMapEndpoint string `json:"timemap_endpoint,omitempty" yaml:"timemap_endpoint,omitempty" validate:"omitempty,url"`
	// PreferredArchives ranks candidate archives when fetching; unlisted
	// archives fall behind listed ones, newest capture first within a rank.
	PreferredArchives []string `json:"preferred_archives,omitempty" yaml:"preferred_archives,omitempty"`
	FetchCandidates   int      `json:"fetch_candidates,omitempty" yaml:"fetch_candidates,omitempty" validate:"omitempty,gt=0"`
}

// DefaultMementoConfig returns the default Memento configuration.
func DefaultMementoConfig() MementoConfig {
	return MementoConfig{
		TimeMapEndpoint:   DefaultMementoEndpoint,
		PreferredArchives: []string{"web.archive.org", "archive.today"},
		FetchCandidates:   DefaultMementoFetchCandidates,
	}
}

// ESConfig configures the local Elasticsearch bridge.
type ESConfig struct {
	Addresses []string `json:"addresses,omitempty" yaml:"addresses,omitempty"`
	// Credentials come from ES_USERNAME / ES_PASSWORD at adapter init.
	MaxPageSize int `json:"max_page_size,omitempty" yaml:"max_page_size,omitempty" validate:"omitempty,gt=0"`

	OrgIndex      string `json:"org_index,omitempty" yaml:"org_index,omitempty"`
	PersonIndex   string `json:"person_index,omitempty" yaml:"person_index,omitempty"`
	ProductIndex  string `json:"product_index,omitempty" yaml:"product_index,omitempty"`
	WDCEdgesIndex string `json:"wdc_edges_index,omitempty" yaml:"wdc_edges_index,omitempty"`
	CymEdgesIndex string `json:"cym_edges_index,omitempty" yaml:"cym_edges_index,omitempty"`
	VerticesIndex string `json:"vertices_index,omitempty" yaml:"vertices_index,omitempty"`
	DomainsIndex  string `json:"domains_index,omitempty" yaml:"domains_index,omitempty"`
	PDFIndex      string `json:"pdf_index,omitempty" yaml:"pdf_index,omitempty"`
}

// DefaultESConfig returns the default Elasticsearch bridge configuration.
func DefaultESConfig() ESConfig {
	return ESConfig{
		Addresses:     []string{"http://localhost:9200"},
		MaxPageSize:   100,
		OrgIndex:      "entities-org",
		PersonIndex:   "entities-person",
		ProductIndex:  "entities-product",
		WDCEdgesIndex: "webgraph-wdc-edges",
		CymEdgesIndex: "webgraph-cym-edges",
		VerticesIndex: "webgraph-vertices",
		DomainsIndex:  "domains-unified",
		PDFIndex:      "documents-pdf",
	}
}

// FirecrawlConfig configures the Firecrawl cache-first scraper adapter.
type FirecrawlConfig struct {
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty" validate:"omitempty,url"`
	// MaxAgeDays is translated into the scrape request's maxAge (milliseconds);
	// cached copies younger than this are served without a live scrape.
	MaxAgeDays int `json:"max_age_days,omitempty" yaml:"max_age_days,omitempty" validate:"omitempty,gt=0"`
}

// DefaultFirecrawlConfig returns the default Firecrawl configuration.
func DefaultFirecrawlConfig() FirecrawlConfig {
	return FirecrawlConfig{
		Endpoint:   DefaultFirecrawlEndpoint,
		MaxAgeDays: DefaultFirecrawlMaxAgeDays,
	}
}

// ExaConfig configures the Exa historical search adapter.
type ExaConfig struct {
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty" validate:"omitempty,url"`
}

// DefaultExaConfig returns the default Exa configuration.
func DefaultExaConfig() ExaConfig {
	return ExaConfig{Endpoint: DefaultExaEndpoint}
}
