package commoncrawl

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/webrewind/webrewind/internal/config"
	"github.com/webrewind/webrewind/internal/errorwrapper"
	"github.com/webrewind/webrewind/internal/httpclient"
	"github.com/webrewind/webrewind/internal/models"
	"github.com/webrewind/webrewind/internal/urlhandler"
)

// ClusterIndex reads CommonCrawl's sparse top-level index (cluster.idx): a
// sorted sequence of (SURT-key, shard, offset, length) entries whose block
// data is a gzip-compressed NDJSON range inside the shard file. cluster.idx
// is a few MB per archive and amortizes across every domain query, so it is
// downloaded once, cached on disk, and kept in memory.
type ClusterIndex struct {
	config  config.CommonCrawlConfig
	dataDir string
	client  *http.Client
	logger  zerolog.Logger

	mu     sync.Mutex
	loaded map[string]*clusterEntries
}

// clusterEntries is the parsed cluster.idx of one archive. blocks and keys are
// parallel; keys exist so the bisection touches a flat string slice.
type clusterEntries struct {
	blocks []models.IndexBlock
	keys   []string
}

// ClusterQuery bounds one domain enumeration through the cluster index.
type ClusterQuery struct {
	DateRange urlhandler.DateRange
	// MIMEFilter keeps only records with this MIME type when non-empty.
	MIMEFilter string
	// MaxBlocks caps how many candidate blocks are fetched; zero means the
	// configured default. Large domains may span more blocks than the cap.
	MaxBlocks int
	// Limit caps the number of returned records; zero means unbounded.
	Limit int
}

// NewClusterIndex creates a cluster index reader caching under dataDir.
func NewClusterIndex(cfg config.CommonCrawlConfig, dataDir string, client *http.Client, logger zerolog.Logger) *ClusterIndex {
	return &ClusterIndex{
		config:  cfg,
		dataDir: dataDir,
		client:  client,
		logger:  logger.With().Str("component", "CCClusterIndex").Logger(),
		loaded:  make(map[string]*clusterEntries),
	}
}

// DomainRecords enumerates every indexed capture of a domain (and its
// subdomains) in one archive via SURT-prefix bisection and bounded concurrent
// range reads.
func (ci *ClusterIndex) DomainRecords(ctx context.Context, archive, domain string, query ClusterQuery) ([]models.CDXRecord, error) {
	prefix, err := urlhandler.SURTKey(domain)
	if err != nil {
		return nil, err
	}
	if err := query.DateRange.Validate(); err != nil {
		return nil, err
	}

	entries, err := ci.ensureLoaded(ctx, archive)
	if err != nil {
		return nil, err
	}

	candidates := selectBlocks(entries, prefix, ci.maxBlocks(query))
	if len(candidates) == 0 {
		return nil, nil
	}

	lines := ci.fetchBlocks(ctx, archive, candidates)
	return ci.filterRecords(lines, prefix, query), nil
}

func (ci *ClusterIndex) maxBlocks(query ClusterQuery) int {
	if query.MaxBlocks > 0 {
		return query.MaxBlocks
	}
	if ci.config.MaxBlocks > 0 {
		return ci.config.MaxBlocks
	}
	return config.DefaultCCMaxBlocks
}

// ensureLoaded returns the parsed cluster.idx for an archive, downloading and
// disk-caching it on first use.
func (ci *ClusterIndex) ensureLoaded(ctx context.Context, archive string) (*clusterEntries, error) {
	ci.mu.Lock()
	defer ci.mu.Unlock()

	if entries, ok := ci.loaded[archive]; ok {
		return entries, nil
	}

	cachePath := filepath.Join(ci.dataDir, fmt.Sprintf("cluster_%s.idx", archive))
	data, err := os.ReadFile(cachePath)
	if err != nil {
		data, err = ci.download(ctx, archive, cachePath)
		if err != nil {
			return nil, err
		}
	}

	entries := parseClusterIndex(data)
	if len(entries.blocks) == 0 {
		return nil, errorwrapper.NewError("cluster.idx for %s parsed to zero blocks", archive)
	}
	ci.loaded[archive] = entries
	ci.logger.Debug().Str("archive", archive).Int("blocks", len(entries.blocks)).Msg("Cluster index loaded")
	return entries, nil
}

// download fetches cluster.idx and writes the cache atomically (temp file then
// rename) so concurrent processes racing the first fetch stay safe.
func (ci *ClusterIndex) download(ctx context.Context, archive, cachePath string) ([]byte, error) {
	endpoint := fmt.Sprintf("%s/cc-index/collections/%s/indexes/cluster.idx", ci.config.DataServerURL, archive)
	timeout := ci.config.IndexDownloadTimeoutSecs
	if timeout <= 0 {
		timeout = config.DefaultIndexDownloadTimeout
	}

	resp, err := httpclient.Do(ctx, ci.client, httpclient.RequestOptions{
		URL:          endpoint,
		Timeout:      timeoutSeconds(timeout),
		MaxBodyBytes: 1 << 30,
	})
	if err != nil {
		return nil, errorwrapper.WrapError(err, "failed to download cluster.idx")
	}
	if !resp.IsSuccess() {
		return nil, errorwrapper.NewHTTPErrorWithURL(resp.StatusCode, "cluster.idx download failed", endpoint)
	}

	if err := os.MkdirAll(filepath.Dir(cachePath), 0o755); err != nil {
		return nil, errorwrapper.WrapError(err, "failed to create cluster cache directory")
	}
	tmp, err := os.CreateTemp(filepath.Dir(cachePath), "cluster_*.idx.tmp")
	if err != nil {
		return nil, errorwrapper.WrapError(err, "failed to create cluster cache temp file")
	}
	if _, err := tmp.Write(resp.Body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, errorwrapper.WrapError(err, "failed to write cluster cache")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return nil, errorwrapper.WrapError(err, "failed to close cluster cache temp file")
	}
	if err := os.Rename(tmp.Name(), cachePath); err != nil {
		os.Remove(tmp.Name())
		return nil, errorwrapper.WrapError(err, "failed to move cluster cache into place")
	}

	return resp.Body, nil
}

// parseClusterIndex parses cluster.idx lines of the form
// "<surt-key> <timestamp>\t<shard>\t<offset>\t<length>\t<id>".
func parseClusterIndex(data []byte) *clusterEntries {
	entries := &clusterEntries{}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 4 {
			fields = strings.Fields(line)
			if len(fields) < 4 {
				continue
			}
		}
		offset, err := strconv.ParseInt(strings.TrimSpace(fields[2]), 10, 64)
		if err != nil {
			continue
		}
		length, err := strconv.ParseInt(strings.TrimSpace(fields[3]), 10, 64)
		if err != nil {
			continue
		}
		key := strings.TrimSpace(fields[0])
		entries.blocks = append(entries.blocks, models.IndexBlock{
			SURTKey: key,
			Shard:   strings.TrimSpace(fields[1]),
			Offset:  offset,
			Length:  length,
		})
		entries.keys = append(entries.keys, key)
	}
	return entries
}

// selectBlocks bisects for the rightmost block whose key is <= the SURT
// prefix, then walks forward collecting blocks that may contain the domain:
// blocks whose key is strictly less than the prefix or begins with it.
func selectBlocks(entries *clusterEntries, prefix string, maxBlocks int) []models.IndexBlock {
	start := sort.Search(len(entries.keys), func(i int) bool {
		return entries.keys[i] > prefix
	}) - 1
	if start < 0 {
		start = 0
	}

	var candidates []models.IndexBlock
	for i := start; i < len(entries.blocks) && len(candidates) < maxBlocks; i++ {
		key := entries.keys[i]
		if i > start && key >= prefix && !strings.HasPrefix(key, prefix) {
			break
		}
		candidates = append(candidates, entries.blocks[i])
	}
	return candidates
}

// fetchBlocks retrieves candidate blocks concurrently (semaphore-bounded) as
// HTTP range requests and decompresses each gzip body. A failing block is
// skipped, never fatal for the query.
func (ci *ClusterIndex) fetchBlocks(ctx context.Context, archive string, blocks []models.IndexBlock) []string {
	concurrency := ci.config.BlockConcurrency
	if concurrency <= 0 {
		concurrency = config.DefaultCCBlockConcurrency
	}

	results := make([][]string, len(blocks))
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for i, block := range blocks {
		wg.Add(1)
		go func(idx int, blk models.IndexBlock) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			lines, err := ci.fetchBlock(ctx, archive, blk)
			if err != nil {
				ci.logger.Debug().Err(err).Str("shard", blk.Shard).Int64("offset", blk.Offset).Msg("Block fetch failed, skipping")
				return
			}
			results[idx] = lines
		}(i, block)
	}
	wg.Wait()

	var all []string
	for _, lines := range results {
		all = append(all, lines...)
	}
	return all
}

func (ci *ClusterIndex) fetchBlock(ctx context.Context, archive string, block models.IndexBlock) ([]string, error) {
	endpoint := fmt.Sprintf("%s/cc-index/collections/%s/indexes/%s", ci.config.DataServerURL, archive, block.Shard)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", block.Offset, block.Offset+block.Length-1))

	resp, err := ci.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusPartialContent && resp.StatusCode != http.StatusOK {
		return nil, errorwrapper.NewHTTPError(resp.StatusCode, "range request rejected")
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, block.Length))
	if err != nil {
		return nil, err
	}

	gz, err := gzip.NewReader(bytes.NewReader(body))
	if err != nil {
		return nil, errorwrapper.WrapError(err, "block is not valid gzip")
	}
	decompressed, err := io.ReadAll(gz)
	if err != nil {
		return nil, errorwrapper.WrapError(err, "block decompression failed")
	}

	return strings.Split(string(decompressed), "\n"), nil
}

// blockRecord is the JSON tail of one cluster block line.
type blockRecord struct {
	URL      string `json:"url"`
	Status   string `json:"status"`
	MIME     string `json:"mime"`
	Digest   string `json:"digest"`
	Filename string `json:"filename"`
	Offset   string `json:"offset"`
	Length   string `json:"length"`
}

// filterRecords parses block lines ("<surt-key> <ts> <json>") and applies the
// SURT boundary check, the robotstxt/crawldiagnostics exclusion, URL dedup,
// and the caller's date and MIME filters. The boundary check is not optional:
// without it "com,example" silently matches "com,examplecompany".
func (ci *ClusterIndex) filterRecords(lines []string, prefix string, query ClusterQuery) []models.CDXRecord {
	var records []models.CDXRecord
	seen := make(map[string]struct{})

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, " ", 3)
		if len(parts) != 3 {
			continue
		}
		surtKey, timestamp, rawJSON := parts[0], parts[1], parts[2]

		if !urlhandler.SURTMatchesDomain(surtKey, prefix) {
			continue
		}

		var rec blockRecord
		if err := json.Unmarshal([]byte(rawJSON), &rec); err != nil {
			continue
		}
		if rec.URL == "" {
			continue
		}
		if strings.Contains(rec.Filename, "robotstxt/") || strings.Contains(rec.Filename, "crawldiagnostics/") {
			continue
		}
		if _, dup := seen[rec.URL]; dup {
			continue
		}
		if !query.DateRange.Contains(timestamp) {
			continue
		}
		if query.MIMEFilter != "" && rec.MIME != query.MIMEFilter {
			continue
		}
		seen[rec.URL] = struct{}{}

		out := models.CDXRecord{
			URL:          rec.URL,
			Timestamp:    timestamp,
			MIMEType:     rec.MIME,
			Digest:       rec.Digest,
			WARCFilename: rec.Filename,
		}
		if status, err := strconv.Atoi(rec.Status); err == nil {
			out.StatusCode = status
		}
		if offset, err := strconv.ParseInt(rec.Offset, 10, 64); err == nil {
			out.WARCOffset = offset
		}
		if length, err := strconv.ParseInt(rec.Length, 10, 64); err == nil {
			out.WARCLength = length
		}
		records = append(records, out)

		if query.Limit > 0 && len(records) >= query.Limit {
			break
		}
	}
	return records
}
