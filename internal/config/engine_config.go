package config

// OrchestratorConfig configures the racing fetch orchestrator.
type OrchestratorConfig struct {
	EnableWayback     bool `json:"enable_wayback" yaml:"enable_wayback"`
	EnableCommonCrawl bool `json:"enable_commoncrawl" yaml:"enable_commoncrawl"`
	EnableMemento     bool `json:"enable_memento" yaml:"enable_memento"`
	EnableFirecrawl   bool `json:"enable_firecrawl" yaml:"enable_firecrawl"`
	EnableExa         bool `json:"enable_exa" yaml:"enable_exa"`

	// TrueRacing makes the first success cancel the remaining sources. The
	// default awaits every source and scans for the first success, which has
	// identical results but different latency.
	TrueRacing       bool `json:"true_racing,omitempty" yaml:"true_racing,omitempty"`
	FetchTimeoutSecs int  `json:"fetch_timeout_secs,omitempty" yaml:"fetch_timeout_secs,omitempty" validate:"omitempty,gt=0"`
	BatchConcurrency int  `json:"batch_concurrency,omitempty" yaml:"batch_concurrency,omitempty" validate:"omitempty,gt=0"`
}

// DefaultOrchestratorConfig returns the default orchestrator configuration.
func DefaultOrchestratorConfig() OrchestratorConfig {
	return OrchestratorConfig{
		EnableWayback:     true,
		EnableCommonCrawl: true,
		EnableMemento:     true,
		FetchTimeoutSecs:  DefaultFetchTimeoutSecs,
		BatchConcurrency:  DefaultBatchConcurrency,
	}
}

// SearcherConfig configures the streaming archive search engine.
type SearcherConfig struct {
	MaxConcurrentYears   int      `json:"max_concurrent_years,omitempty" yaml:"max_concurrent_years,omitempty" validate:"omitempty,gt=0"`
	MaxConcurrentPerYear int      `json:"max_concurrent_per_year,omitempty" yaml:"max_concurrent_per_year,omitempty" validate:"omitempty,gt=0"`
	PriorityTerms        []string `json:"priority_terms,omitempty" yaml:"priority_terms,omitempty"`
	MaxOutlinks          int      `json:"max_outlinks,omitempty" yaml:"max_outlinks,omitempty" validate:"omitempty,gt=0"`
	// FastFirst enables the ghost fetch: a range request for the first
	// GhostFetchBytes tested for keywords before committing to a full download.
	FastFirst       bool   `json:"fast_first,omitempty" yaml:"fast_first,omitempty"`
	GhostFetchBytes int    `json:"ghost_fetch_bytes,omitempty" yaml:"ghost_fetch_bytes,omitempty" validate:"omitempty,gt=0"`
	Direction       string `json:"direction,omitempty" yaml:"direction,omitempty" validate:"omitempty,oneof=backwards forwards"`
	EventBufferSize int    `json:"event_buffer_size,omitempty" yaml:"event_buffer_size,omitempty" validate:"omitempty,gt=0"`
	SnippetRadius   int    `json:"snippet_radius,omitempty" yaml:"snippet_radius,omitempty" validate:"omitempty,gt=0"`
}

// DefaultSearcherConfig returns the default searcher configuration.
func DefaultSearcherConfig() SearcherConfig {
	return SearcherConfig{
		MaxConcurrentYears:   DefaultMaxConcurrentYears,
		MaxConcurrentPerYear: DefaultMaxConcurrentPerYear,
		PriorityTerms:        DefaultPriorityTerms,
		MaxOutlinks:          DefaultMaxOutlinks,
		GhostFetchBytes:      DefaultGhostFetchBytes,
		Direction:            "backwards",
		EventBufferSize:      DefaultEventBufferSize,
		SnippetRadius:        DefaultSnippetRadius,
	}
}

// MapperConfig configures the unified URL discovery pipeline.
type MapperConfig struct {
	EnableCrtSh       bool `json:"enable_crtsh" yaml:"enable_crtsh"`
	EnableSitemap     bool `json:"enable_sitemap" yaml:"enable_sitemap"`
	EnableWayback     bool `json:"enable_wayback" yaml:"enable_wayback"`
	EnableCommonCrawl bool `json:"enable_commoncrawl" yaml:"enable_commoncrawl"`
	EnableGoogle      bool `json:"enable_google" yaml:"enable_google"`
	EnableBing        bool `json:"enable_bing" yaml:"enable_bing"`
	EnableBrave       bool `json:"enable_brave" yaml:"enable_brave"`
	EnableDuckDuckGo  bool `json:"enable_duckduckgo" yaml:"enable_duckduckgo"`
	EnableMajestic    bool `json:"enable_majestic" yaml:"enable_majestic"`
	EnableES          bool `json:"enable_es" yaml:"enable_es"`

	PerSourceLimit   int    `json:"per_source_limit,omitempty" yaml:"per_source_limit,omitempty" validate:"omitempty,gt=0"`
	StreamBufferSize int    `json:"stream_buffer_size,omitempty" yaml:"stream_buffer_size,omitempty" validate:"omitempty,gt=0"`
	Dedup            bool   `json:"dedup" yaml:"dedup"`
	MIMEFilter       string `json:"mime_filter,omitempty" yaml:"mime_filter,omitempty"`
	StatusFilter     int    `json:"status_filter,omitempty" yaml:"status_filter,omitempty"`
	VerifyLive       bool   `json:"verify_live,omitempty" yaml:"verify_live,omitempty"`

	// Per-source request rates (requests per second) for providers that
	// throttle hard. Zero means unlimited.
	GoogleRPS   float64 `json:"google_rps,omitempty" yaml:"google_rps,omitempty" validate:"omitempty,gt=0"`
	BraveRPS    float64 `json:"brave_rps,omitempty" yaml:"brave_rps,omitempty" validate:"omitempty,gt=0"`
	MajesticRPS float64 `json:"majestic_rps,omitempty" yaml:"majestic_rps,omitempty" validate:"omitempty,gt=0"`
}

// DefaultMapperConfig returns the default mapper configuration.
func DefaultMapperConfig() MapperConfig {
	return MapperConfig{
		EnableCrtSh:       true,
		EnableSitemap:     true,
		EnableWayback:     true,
		EnableCommonCrawl: true,
		EnableDuckDuckGo:  true,
		PerSourceLimit:    DefaultPerSourceLimit,
		StreamBufferSize:  DefaultStreamBufferSize,
		Dedup:             true,
		MIMEFilter:        DefaultMapperMIMEFilter,
		StatusFilter:      DefaultMapperStatus,
		GoogleRPS:         1,
		BraveRPS:          1,
		MajesticRPS:       1,
	}
}

// DifferConfig configures the domain evolution differ.
type DifferConfig struct {
	// MaxComparedKB caps the text length handed to the diff engine so one
	// comparison stays a bounded inline cost.
	MaxComparedKB        int `json:"max_compared_kb,omitempty" yaml:"max_compared_kb,omitempty" validate:"omitempty,gt=0"`
	MaxSampledPages      int `json:"max_sampled_pages,omitempty" yaml:"max_sampled_pages,omitempty" validate:"omitempty,gt=0"`
	MaxSampleURLs        int `json:"max_sample_urls,omitempty" yaml:"max_sample_urls,omitempty" validate:"omitempty,gt=0"`
	MaxChangeListEntries int `json:"max_change_list_entries,omitempty" yaml:"max_change_list_entries,omitempty" validate:"omitempty,gt=0"`
	TimestampSamples     int `json:"timestamp_samples,omitempty" yaml:"timestamp_samples,omitempty" validate:"omitempty,gt=0"`
	URLsPerTimestamp     int `json:"urls_per_timestamp,omitempty" yaml:"urls_per_timestamp,omitempty" validate:"omitempty,gt=0"`
}

// DefaultDifferConfig returns the default differ configuration.
func DefaultDifferConfig() DifferConfig {
	return DifferConfig{
		MaxComparedKB:        DefaultMaxComparedKB,
		MaxSampledPages:      DefaultMaxSampledPages,
		MaxSampleURLs:        DefaultMaxSampleURLs,
		MaxChangeListEntries: DefaultMaxChangeListEntries,
		TimestampSamples:     DefaultTimestampSamples,
		URLsPerTimestamp:     DefaultURLsPerTimestamp,
	}
}
