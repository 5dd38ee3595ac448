package config

// GlobalConfig is the root configuration for the engine. Every component
// receives only its own section.
type GlobalConfig struct {
	LogConfig          LogConfig          `json:"log_config,omitempty" yaml:"log_config,omitempty"`
	HTTPClientConfig   HTTPClientConfig   `json:"http_client_config,omitempty" yaml:"http_client_config,omitempty"`
	StorageConfig      StorageConfig      `json:"storage_config,omitempty" yaml:"storage_config,omitempty"`
	WaybackConfig      WaybackConfig      `json:"wayback_config,omitempty" yaml:"wayback_config,omitempty"`
	CommonCrawlConfig  CommonCrawlConfig  `json:"commoncrawl_config,omitempty" yaml:"commoncrawl_config,omitempty"`
	MementoConfig      MementoConfig      `json:"memento_config,omitempty" yaml:"memento_config,omitempty"`
	ESConfig           ESConfig           `json:"es_config,omitempty" yaml:"es_config,omitempty"`
	FirecrawlConfig    FirecrawlConfig    `json:"firecrawl_config,omitempty" yaml:"firecrawl_config,omitempty"`
	ExaConfig          ExaConfig          `json:"exa_config,omitempty" yaml:"exa_config,omitempty"`
	OrchestratorConfig OrchestratorConfig `json:"orchestrator_config,omitempty" yaml:"orchestrator_config,omitempty"`
	SearcherConfig     SearcherConfig     `json:"searcher_config,omitempty" yaml:"searcher_config,omitempty"`
	MapperConfig       MapperConfig       `json:"mapper_config,omitempty" yaml:"mapper_config,omitempty"`
	DifferConfig       DifferConfig       `json:"differ_config,omitempty" yaml:"differ_config,omitempty"`
}

// NewDefaultGlobalConfig returns a GlobalConfig with every section at its defaults.
func NewDefaultGlobalConfig() *GlobalConfig {
	return &GlobalConfig{
		LogConfig:          DefaultLogConfig(),
		HTTPClientConfig:   DefaultHTTPClientConfig(),
		StorageConfig:      DefaultStorageConfig(),
		WaybackConfig:      DefaultWaybackConfig(),
		CommonCrawlConfig:  DefaultCommonCrawlConfig(),
		MementoConfig:      DefaultMementoConfig(),
		ESConfig:           DefaultESConfig(),
		FirecrawlConfig:    DefaultFirecrawlConfig(),
		ExaConfig:          DefaultExaConfig(),
		OrchestratorConfig: DefaultOrchestratorConfig(),
		SearcherConfig:     DefaultSearcherConfig(),
		MapperConfig:       DefaultMapperConfig(),
		DifferConfig:       DefaultDifferConfig(),
	}
}

// LogConfig configures logging output.
type LogConfig struct {
	LogLevel      string `json:"log_level,omitempty" yaml:"log_level,omitempty" validate:"omitempty,oneof=trace debug info warn error fatal panic"`
	LogFormat     string `json:"log_format,omitempty" yaml:"log_format,omitempty" validate:"omitempty,oneof=console json"`
	LogFile       string `json:"log_file,omitempty" yaml:"log_file,omitempty"`
	MaxLogSizeMB  int    `json:"max_log_size_mb,omitempty" yaml:"max_log_size_mb,omitempty" validate:"omitempty,gt=0"`
	MaxLogBackups int    `json:"max_log_backups,omitempty" yaml:"max_log_backups,omitempty" validate:"omitempty,gte=0"`
}

// DefaultLogConfig returns the default logging configuration.
func DefaultLogConfig() LogConfig {
	return LogConfig{
		LogLevel:      DefaultLogLevel,
		LogFormat:     DefaultLogFormat,
		LogFile:       DefaultLogFile,
		MaxLogSizeMB:  DefaultMaxLogSizeMB,
		MaxLogBackups: DefaultMaxLogBackups,
	}
}

// HTTPClientConfig configures the shared outbound HTTP client.
type HTTPClientConfig struct {
	TimeoutSecs         int    `json:"timeout_secs,omitempty" yaml:"timeout_secs,omitempty" validate:"omitempty,gt=0"`
	MaxIdleConns        int    `json:"max_idle_conns,omitempty" yaml:"max_idle_conns,omitempty" validate:"omitempty,gt=0"`
	MaxIdleConnsPerHost int    `json:"max_idle_conns_per_host,omitempty" yaml:"max_idle_conns_per_host,omitempty" validate:"omitempty,gt=0"`
	FollowRedirects     bool   `json:"follow_redirects,omitempty" yaml:"follow_redirects,omitempty"`
	MaxRedirects        int    `json:"max_redirects,omitempty" yaml:"max_redirects,omitempty" validate:"omitempty,gte=0"`
	EnableHTTP2         bool   `json:"enable_http2,omitempty" yaml:"enable_http2,omitempty"`
	UserAgent           string `json:"user_agent,omitempty" yaml:"user_agent,omitempty"`
}

// DefaultHTTPClientConfig returns the default HTTP client configuration.
func DefaultHTTPClientConfig() HTTPClientConfig {
	return HTTPClientConfig{
		TimeoutSecs:         DefaultHTTPTimeoutSecs,
		MaxIdleConns:        DefaultMaxIdleConns,
		MaxIdleConnsPerHost: DefaultMaxIdleConnsPerHost,
		FollowRedirects:     true,
		MaxRedirects:        DefaultMaxRedirects,
		EnableHTTP2:         true,
		UserAgent:           DefaultUserAgent,
	}
}

// StorageConfig configures process-local persistence. All of it is cache-like
// and safe to delete.
type StorageConfig struct {
	DataDir          string `json:"data_dir,omitempty" yaml:"data_dir,omitempty"`
	HistoryDBPath    string `json:"history_db_path,omitempty" yaml:"history_db_path,omitempty"`
	InventoryDir     string `json:"inventory_dir,omitempty" yaml:"inventory_dir,omitempty"`
	CompressionCodec string `json:"compression_codec,omitempty" yaml:"compression_codec,omitempty" validate:"omitempty,oneof=zstd snappy gzip uncompressed"`
}

// DefaultStorageConfig returns the default storage configuration.
func DefaultStorageConfig() StorageConfig {
	return StorageConfig{
		DataDir:          DefaultDataDir,
		HistoryDBPath:    DefaultHistoryDBPath,
		InventoryDir:     DefaultInventoryDir,
		CompressionCodec: DefaultCompressionCodec,
	}
}
