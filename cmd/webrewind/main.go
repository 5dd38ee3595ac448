package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/webrewind/webrewind/internal/config"
	"github.com/webrewind/webrewind/internal/datastore"
	"github.com/webrewind/webrewind/internal/differ"
	"github.com/webrewind/webrewind/internal/discovery"
	"github.com/webrewind/webrewind/internal/history"
	"github.com/webrewind/webrewind/internal/httpclient"
	"github.com/webrewind/webrewind/internal/logger"
	"github.com/webrewind/webrewind/internal/mapper"
	"github.com/webrewind/webrewind/internal/models"
	"github.com/webrewind/webrewind/internal/orchestrator"
	"github.com/webrewind/webrewind/internal/searcher"
	"github.com/webrewind/webrewind/internal/sources"
	"github.com/webrewind/webrewind/internal/sources/commoncrawl"
	"github.com/webrewind/webrewind/internal/sources/esbridge"
	"github.com/webrewind/webrewind/internal/sources/exa"
	"github.com/webrewind/webrewind/internal/sources/firecrawl"
	"github.com/webrewind/webrewind/internal/sources/memento"
	"github.com/webrewind/webrewind/internal/sources/wayback"
	"github.com/webrewind/webrewind/internal/urlhandler"
)

func main() {
	flags := ParseFlags()

	gCfg, err := config.LoadGlobalConfig(flags.GlobalConfigFile)
	if err != nil {
		log.Fatalf("[FATAL] Could not load global config from '%s': %v", flags.GlobalConfigFile, err)
	}

	zLogger, err := logger.NewLoggerBuilder().
		WithLevel(gCfg.LogConfig.LogLevel).
		WithFormat(gCfg.LogConfig.LogFormat).
		WithFile(gCfg.LogConfig.LogFile, gCfg.LogConfig.MaxLogSizeMB, gCfg.LogConfig.MaxLogBackups).
		Build()
	if err != nil {
		log.Fatalf("[FATAL] Could not initialize logger: %v", err)
	}

	app, err := newApp(gCfg, zLogger)
	if err != nil {
		zLogger.Fatal().Err(err).Msg("Engine initialization failed")
	}
	defer app.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, flags); err != nil {
		zLogger.Fatal().Err(err).Str("command", flags.Command).Msg("Command failed")
	}
}

// app holds every wired component for the lifetime of one invocation.
type app struct {
	config       *config.GlobalConfig
	logger       zerolog.Logger
	orchestrator *orchestrator.Orchestrator
	engine       *searcher.Engine
	mapper       *mapper.Mapper
	differ       *differ.Differ
	historyStore *history.Store
	inventory    *datastore.ParquetInventoryStore
	waybackAd    *wayback.Adapter
}

func newApp(gCfg *config.GlobalConfig, zLogger zerolog.Logger) (*app, error) {
	client, err := httpclient.NewSharedClient(gCfg.HTTPClientConfig, zLogger)
	if err != nil {
		return nil, err
	}
	keys := config.APIKeysFromEnv()
	limiters := httpclient.NewRateLimiterRegistry()

	waybackAdapter, err := wayback.NewAdapterBuilder(zLogger).
		WithConfig(gCfg.WaybackConfig).
		WithHTTPClient(client).
		Build()
	if err != nil {
		return nil, err
	}

	ccIndex, err := commoncrawl.NewIndexAdapterBuilder(zLogger).
		WithConfig(gCfg.CommonCrawlConfig).
		WithDataDir(gCfg.StorageConfig.DataDir).
		WithHTTPClient(client).
		Build()
	if err != nil {
		return nil, err
	}
	ccFetcher := commoncrawl.NewFetcherBinary(gCfg.CommonCrawlConfig, zLogger)
	ccData := commoncrawl.NewDataAdapter(ccIndex, ccFetcher, zLogger)

	mementoAdapter, err := memento.NewAdapterBuilder(zLogger).
		WithConfig(gCfg.MementoConfig).
		WithHTTPClient(client).
		Build()
	if err != nil {
		return nil, err
	}

	firecrawlAdapter, err := firecrawl.NewAdapterBuilder(zLogger).
		WithConfig(gCfg.FirecrawlConfig).
		WithAPIKey(keys.FirecrawlAPIKey).
		WithHTTPClient(client).
		Build()
	if err != nil {
		return nil, err
	}
	exaAdapter, err := exa.NewAdapterBuilder(zLogger).
		WithConfig(gCfg.ExaConfig).
		WithAPIKey(keys.ExaAPIKey).
		WithHTTPClient(client).
		Build()
	if err != nil {
		return nil, err
	}

	bridge, err := esbridge.NewBridgeBuilder(zLogger).
		WithConfig(gCfg.ESConfig).
		WithCredentials(keys.ESUsername, keys.ESPassword).
		Build()
	if err != nil {
		return nil, err
	}

	// Adapter order is fetch priority when results tie.
	orch, err := orchestrator.NewBuilder(zLogger).
		WithConfig(gCfg.OrchestratorConfig).
		WithAdapter(waybackAdapter).
		WithAdapter(ccData).
		WithAdapter(mementoAdapter).
		WithAdapter(firecrawlAdapter).
		WithAdapter(exaAdapter).
		Build()
	if err != nil {
		return nil, err
	}

	engine, err := searcher.NewEngineBuilder(zLogger).
		WithConfig(gCfg.SearcherConfig).
		WithSource(waybackAdapter).
		Build()
	if err != nil {
		return nil, err
	}

	mapperBuilder := mapper.NewBuilder(zLogger).
		WithConfig(gCfg.MapperConfig).
		WithVerifier(discovery.NewLiveVerifier(client, zLogger))
	for _, src := range discoverySources(gCfg, keys, client, limiters, waybackAdapter, ccIndex, bridge, zLogger) {
		mapperBuilder.WithSource(src)
	}
	domainMapper, err := mapperBuilder.Build()
	if err != nil {
		return nil, err
	}

	domainDiffer, err := differ.NewBuilder(zLogger).
		WithConfig(gCfg.DifferConfig).
		WithMapper(domainMapper).
		WithFetcher(waybackAdapter).
		Build()
	if err != nil {
		return nil, err
	}

	historyStore, err := history.NewStore(gCfg.StorageConfig.HistoryDBPath, zLogger)
	if err != nil {
		return nil, err
	}
	inventory, err := datastore.NewParquetInventoryStore(gCfg.StorageConfig, zLogger)
	if err != nil {
		historyStore.Close()
		return nil, err
	}

	return &app{
		config:       gCfg,
		logger:       zLogger,
		orchestrator: orch,
		engine:       engine,
		mapper:       domainMapper,
		differ:       domainDiffer,
		historyStore: historyStore,
		inventory:    inventory,
		waybackAd:    waybackAdapter,
	}, nil
}

// discoverySources assembles the mapper's producer set honoring the enable
// toggles. Sources missing credentials stay in the list; the mapper skips
// them via Available().
func discoverySources(
	gCfg *config.GlobalConfig,
	keys config.APIKeys,
	client *http.Client,
	limiters *httpclient.RateLimiterRegistry,
	waybackAdapter *wayback.Adapter,
	ccIndex *commoncrawl.IndexAdapter,
	bridge *esbridge.Bridge,
	zLogger zerolog.Logger,
) []discovery.Source {
	mc := gCfg.MapperConfig
	var out []discovery.Source
	if mc.EnableCrtSh {
		out = append(out, discovery.NewCrtShSource(client, zLogger))
	}
	if mc.EnableSitemap {
		out = append(out, discovery.NewSitemapSource(client, zLogger))
	}
	if mc.EnableWayback {
		out = append(out, discovery.NewWaybackSource(waybackAdapter, zLogger))
	}
	if mc.EnableCommonCrawl {
		out = append(out, discovery.NewCommonCrawlSource(ccIndex, zLogger))
	}
	if mc.EnableGoogle {
		out = append(out, discovery.NewGoogleSource(keys.GoogleAPIKey, keys.GoogleCSEID, mc.GoogleRPS, client, limiters, zLogger))
	}
	if mc.EnableBing {
		out = append(out, discovery.NewBingSource(keys.SerpAPIKey, client, zLogger))
	}
	if mc.EnableBrave {
		out = append(out, discovery.NewBraveSource(keys.BraveAPIKey, mc.BraveRPS, client, limiters, zLogger))
	}
	if mc.EnableDuckDuckGo {
		out = append(out, discovery.NewDuckDuckGoSource(client, zLogger))
	}
	if mc.EnableMajestic {
		out = append(out, discovery.NewMajesticSource(keys.MajesticAPIKey, mc.MajesticRPS, client, limiters, zLogger))
	}
	if mc.EnableES {
		out = append(out, discovery.NewESSource(bridge, zLogger))
	}
	out = append(out,
		discovery.NewSubdomainDiscovery(discovery.NewSublist3rSource(zLogger)),
		discovery.NewSubdomainDiscovery(discovery.NewDNSDumpsterSource(zLogger)),
		discovery.NewSubdomainDiscovery(discovery.NewWhoisXMLSource(zLogger)),
	)
	return out
}

func (a *app) Close() {
	if a.historyStore != nil {
		a.historyStore.Close()
	}
}

// Run dispatches the parsed command.
func (a *app) Run(ctx context.Context, flags AppFlags) error {
	dateRange := urlhandler.DateRange{From: flags.From, To: flags.To}

	switch flags.Command {
	case "fetch":
		result, err := a.orchestrator.Fetch(ctx, orchestrator.FetchRequest{
			URL:       flags.URL,
			DateRange: dateRange,
			Prefer:    models.ArchiveSource(flags.Prefer),
		})
		if err != nil {
			return err
		}
		return a.emit(flags.Output, result)

	case "snapshots":
		snapshots, err := a.orchestrator.ListSnapshots(ctx, flags.URL, sources.ListOptions{DateRange: dateRange})
		if err != nil {
			return err
		}
		return a.emit(flags.Output, snapshots)

	case "search":
		return a.runSearch(ctx, flags)

	case "map":
		return a.runMap(ctx, flags, dateRange)

	case "evolution":
		runID, _ := a.historyStore.RecordStart(history.RunKindEvolution, flags.Domain, time.Now())
		evolution, err := a.differ.DomainEvolution(ctx, flags.Domain)
		a.finishRun(runID, err, countEvolutionURLs(evolution), 0)
		if err != nil {
			return err
		}
		return a.emit(flags.Output, evolution)

	case "compare":
		period1, err := parsePeriod(flags.CompareFrom)
		if err != nil {
			return err
		}
		period2, err := parsePeriod(flags.CompareTo)
		if err != nil {
			return err
		}
		runID, _ := a.historyStore.RecordStart(history.RunKindCompare, flags.Domain, time.Now())
		comparison, err := a.differ.ComparePeriods(ctx, flags.Domain, period1, period2, flags.CompareContent)
		count := 0
		if comparison != nil {
			count = comparison.Period1Count + comparison.Period2Count
		}
		a.finishRun(runID, err, count, 0)
		if err != nil {
			return err
		}
		return a.emit(flags.Output, comparison)

	case "history":
		changes, err := a.differ.PageHistory(ctx, flags.URL, dateRange)
		if err != nil {
			return err
		}
		return a.emit(flags.Output, changes)

	default:
		return fmt.Errorf("unknown command %q", flags.Command)
	}
}

// runSearch streams events as NDJSON to stdout as they arrive.
func (a *app) runSearch(ctx context.Context, flags AppFlags) error {
	runID, _ := a.historyStore.RecordStart(history.RunKindSearch, flags.Domain, time.Now())

	events, err := a.engine.Search(ctx, searcher.Request{
		Domain:   flags.Domain,
		Years:    flags.Years,
		Keywords: flags.Keywords,
	})
	if err != nil {
		a.finishRun(runID, err, 0, 0)
		return err
	}

	encoder := json.NewEncoder(os.Stdout)
	hits := 0
	for event := range events {
		if event.Type == models.EventHit {
			hits++
		}
		if err := encoder.Encode(event); err != nil {
			a.finishRun(runID, err, 0, hits)
			return err
		}
	}
	a.finishRun(runID, ctx.Err(), 0, hits)
	return ctx.Err()
}

func (a *app) runMap(ctx context.Context, flags AppFlags, dateRange urlhandler.DateRange) error {
	runID, _ := a.historyStore.RecordStart(history.RunKindMap, flags.Domain, time.Now())

	domainMap, err := a.mapper.MapDomain(ctx, flags.Domain, mapper.Filters{DateRange: dateRange})
	if err != nil {
		a.finishRun(runID, err, 0, 0)
		return err
	}
	if storeErr := a.inventory.StoreDomainMap(domainMap); storeErr != nil {
		a.logger.Error().Err(storeErr).Str("domain", domainMap.Domain).Msg("Inventory write failed")
	}
	a.finishRun(runID, nil, domainMap.Stats.UniqueURLs, 0)
	return a.emit(flags.Output, domainMap)
}

func (a *app) finishRun(runID int64, runErr error, urlCount, hitCount int) {
	status := history.StatusCompleted
	summary := ""
	if runErr != nil {
		status = history.StatusFailed
		summary = runErr.Error()
	}
	if err := a.historyStore.RecordCompletion(runID, time.Now(), status, urlCount, hitCount, summary); err != nil {
		a.logger.Debug().Err(err).Int64("run_id", runID).Msg("History update failed")
	}
}

// emit writes v as indented JSON to the output file or stdout.
func (a *app) emit(path string, v any) error {
	out := os.Stdout
	if path != "" {
		file, err := os.Create(path)
		if err != nil {
			return err
		}
		defer file.Close()
		out = file
	}
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// parsePeriod splits "YYYY-MM-DD..YYYY-MM-DD" into a date range; a bare date
// is an open-ended range.
func parsePeriod(raw string) (urlhandler.DateRange, error) {
	if raw == "" {
		return urlhandler.DateRange{}, fmt.Errorf("period is required (YYYY-MM-DD..YYYY-MM-DD)")
	}
	var dr urlhandler.DateRange
	if idx := indexDots(raw); idx >= 0 {
		dr.From = raw[:idx]
		dr.To = raw[idx+2:]
	} else {
		dr.From = raw
	}
	if err := dr.Validate(); err != nil {
		return urlhandler.DateRange{}, err
	}
	return dr, nil
}

func indexDots(s string) int {
	for i := 0; i+1 < len(s); i++ {
		if s[i] == '.' && s[i+1] == '.' {
			return i
		}
	}
	return -1
}

func countEvolutionURLs(evolution *models.DomainEvolution) int {
	if evolution == nil {
		return 0
	}
	total := 0
	for _, period := range evolution.Periods {
		total += period.URLCount
	}
	return total
}
