package config

const (
	// Log defaults
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "console"
	DefaultLogFile       = ""
	DefaultMaxLogSizeMB  = 100
	DefaultMaxLogBackups = 3

	// HTTP client defaults
	DefaultHTTPTimeoutSecs      = 30
	DefaultMaxIdleConns         = 100
	DefaultMaxIdleConnsPerHost  = 10
	DefaultMaxRedirects         = 10
	DefaultUserAgent            = "webrewind/1.0 (+https://github.com/webrewind/webrewind)"
	DefaultListTimeoutSecs      = 20
	DefaultIndexDownloadTimeout = 60

	// Wayback defaults
	DefaultWaybackCDXEndpoint     = "https://web.archive.org/cdx/search/cdx"
	DefaultWaybackContentEndpoint = "https://web.archive.org/web"
	DefaultWaybackSaveEndpoint    = "https://web.archive.org/save"
	DefaultWaybackCollapse        = "timestamp:8" // one capture per day
	DefaultWaybackLimit           = 1000

	// CommonCrawl defaults
	DefaultCCIndexServerURL    = "https://index.commoncrawl.org"
	DefaultCCDataServerURL     = "https://data.commoncrawl.org"
	DefaultCCMaxBlocks         = 20
	DefaultCCBlockConcurrency  = 8
	DefaultCCCollectionTTLMins = 60
	DefaultCCFetcherThreads    = 4
	DefaultCCFetcherTimeout    = 300

	// Memento defaults
	DefaultMementoEndpoint        = "http://timetravel.mementoweb.org/timemap/json/"
	DefaultMementoFetchCandidates = 5

	// Firecrawl / Exa defaults
	DefaultFirecrawlEndpoint   = "https://api.firecrawl.dev/v1"
	DefaultFirecrawlMaxAgeDays = 30
	DefaultExaEndpoint         = "https://api.exa.ai"

	// Orchestrator defaults
	DefaultFetchTimeoutSecs = 30
	DefaultBatchConcurrency = 50

	// Searcher defaults
	DefaultMaxConcurrentYears   = 4
	DefaultMaxConcurrentPerYear = 20
	DefaultMaxOutlinks          = 50
	DefaultGhostFetchBytes      = 16384
	DefaultSnippetRadius        = 150
	DefaultEventBufferSize      = 100

	// Mapper defaults
	DefaultPerSourceLimit   = 10000
	DefaultStreamBufferSize = 500
	DefaultMapperMIMEFilter = "text/html"
	DefaultMapperStatus     = 200

	// Differ defaults
	DefaultMaxComparedKB        = 50
	DefaultMaxSampledPages      = 20
	DefaultMaxSampleURLs        = 100
	DefaultMaxChangeListEntries = 500
	DefaultTimestampSamples     = 20
	DefaultURLsPerTimestamp     = 5

	// Storage defaults
	DefaultDataDir          = "data"
	DefaultHistoryDBPath    = "data/history/webrewind_history.db"
	DefaultInventoryDir     = "data/inventory"
	DefaultCompressionCodec = "zstd"
)

// DefaultPriorityTerms boost snapshots whose URL mentions investigator-relevant
// sections; used by the streaming search engine's priority score.
var DefaultPriorityTerms = []string{
	"report", "annual", "investor", "team", "board", "press",
	"10-k", "10-q", "financial", "leadership", "management", "about",
}
