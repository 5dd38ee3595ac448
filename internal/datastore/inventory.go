// Package datastore persists mapper output: one Parquet inventory file per
// mapped domain, rewritten on each run with the merged URL set.
package datastore

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/rs/zerolog"
	"github.com/webrewind/webrewind/internal/config"
	"github.com/webrewind/webrewind/internal/models"
)

const inventoryFileFormat = "%s_inventory.parquet"

// InventoryRecord is the Parquet row shape for one discovered URL.
type InventoryRecord struct {
	URL          string `parquet:"url"`
	Domain       string `parquet:"domain"`
	Subdomain    string `parquet:"subdomain,optional"`
	Path         string `parquet:"path,optional"`
	Source       string `parquet:"source,optional"`
	SourceName   string `parquet:"source_name,optional"`
	Timestamp    string `parquet:"timestamp,optional"`
	MIMEType     string `parquet:"mime_type,optional"`
	Status       int32  `parquet:"status,optional"`
	DiscoveredAt int64  `parquet:"discovered_at"` // unix milliseconds
	Verified     bool   `parquet:"verified"`
	Exists       bool   `parquet:"exists"`
}

// ParquetInventoryStore reads and writes per-domain URL inventories.
type ParquetInventoryStore struct {
	storageConfig config.StorageConfig
	logger        zerolog.Logger
	mutexes       sync.Map // domain -> *sync.Mutex
}

// NewParquetInventoryStore creates the store and ensures the inventory
// directory exists.
func NewParquetInventoryStore(cfg config.StorageConfig, logger zerolog.Logger) (*ParquetInventoryStore, error) {
	dir := cfg.InventoryDir
	if dir == "" {
		dir = config.DefaultInventoryDir
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating inventory directory '%s': %w", dir, err)
	}
	cfg.InventoryDir = dir
	return &ParquetInventoryStore{
		storageConfig: cfg,
		logger:        logger.With().Str("component", "InventoryStore").Logger(),
	}, nil
}

func (s *ParquetInventoryStore) domainMutex(domain string) *sync.Mutex {
	mu, _ := s.mutexes.LoadOrStore(domain, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

func (s *ParquetInventoryStore) inventoryPath(domain string) string {
	safe := strings.ReplaceAll(domain, string(os.PathSeparator), "_")
	return filepath.Join(s.storageConfig.InventoryDir, fmt.Sprintf(inventoryFileFormat, safe))
}

// StoreDomainMap merges the run's URLs into the domain's inventory file. The
// existing file's records are kept; new URLs are appended, existing ones keep
// their first-seen attributes.
func (s *ParquetInventoryStore) StoreDomainMap(domainMap *models.DomainMap) error {
	if domainMap == nil || domainMap.Domain == "" {
		return fmt.Errorf("domain map is empty")
	}
	mu := s.domainMutex(domainMap.Domain)
	mu.Lock()
	defer mu.Unlock()

	path := s.inventoryPath(domainMap.Domain)
	existing, err := s.readRecords(path)
	if err != nil {
		s.logger.Error().Err(err).Str("path", path).Msg("Existing inventory unreadable, rewriting")
		existing = nil
	}

	seen := make(map[string]struct{}, len(existing))
	for _, rec := range existing {
		seen[rec.URL] = struct{}{}
	}
	merged := existing
	for _, u := range domainMap.URLs {
		if _, dup := seen[u.URL]; dup {
			continue
		}
		seen[u.URL] = struct{}{}
		merged = append(merged, toRecord(u))
	}

	if err := s.writeRecords(path, merged); err != nil {
		return err
	}
	s.logger.Debug().
		Str("domain", domainMap.Domain).
		Int("total", len(merged)).
		Int("new", len(merged)-len(existing)).
		Msg("Inventory updated")
	return nil
}

// LoadDomainURLs returns the domain's full inventory, newest discovery first.
func (s *ParquetInventoryStore) LoadDomainURLs(domain string) ([]models.DiscoveredURL, error) {
	mu := s.domainMutex(domain)
	mu.Lock()
	defer mu.Unlock()

	records, err := s.readRecords(s.inventoryPath(domain))
	if err != nil {
		return nil, err
	}
	sort.SliceStable(records, func(a, b int) bool {
		return records[a].DiscoveredAt > records[b].DiscoveredAt
	})

	urls := make([]models.DiscoveredURL, 0, len(records))
	for _, rec := range records {
		urls = append(urls, fromRecord(rec))
	}
	return urls, nil
}

func (s *ParquetInventoryStore) readRecords(path string) ([]InventoryRecord, error) {
	osFile, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening inventory file '%s': %w", path, err)
	}
	defer osFile.Close()

	stat, err := osFile.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat inventory file '%s': %w", path, err)
	}
	if stat.Size() == 0 {
		return nil, nil
	}

	pqFile, err := parquet.OpenFile(osFile, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("opening parquet file '%s': %w", path, err)
	}

	reader := parquet.NewReader(pqFile)
	var records []InventoryRecord
	for {
		var rec InventoryRecord
		if err := reader.Read(&rec); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("reading record from '%s': %w", path, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func (s *ParquetInventoryStore) writeRecords(path string, records []InventoryRecord) error {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("opening inventory file '%s' for writing: %w", path, err)
	}
	defer file.Close()

	writer := parquet.NewWriter(file, parquet.SchemaOf(InventoryRecord{}), s.compressionOption())
	for _, rec := range records {
		if err := writer.Write(rec); err != nil {
			s.logger.Error().Err(err).Str("url", rec.URL).Msg("Failed to write inventory record")
		}
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("closing parquet writer: %w", err)
	}
	return nil
}

func (s *ParquetInventoryStore) compressionOption() parquet.WriterOption {
	switch strings.ToLower(s.storageConfig.CompressionCodec) {
	case "snappy":
		return parquet.Compression(&parquet.Snappy)
	case "gzip":
		return parquet.Compression(&parquet.Gzip)
	case "zstd":
		return parquet.Compression(&parquet.Zstd)
	default:
		return parquet.Compression(&parquet.Uncompressed)
	}
}

func toRecord(u models.DiscoveredURL) InventoryRecord {
	return InventoryRecord{
		URL:          u.URL,
		Domain:       u.Domain,
		Subdomain:    u.Subdomain,
		Path:         u.Path,
		Source:       string(u.Source),
		SourceName:   u.SourceName,
		Timestamp:    u.Timestamp,
		MIMEType:     u.MIMEType,
		Status:       int32(u.Status),
		DiscoveredAt: u.DiscoveredAt.UnixMilli(),
		Verified:     u.Verified,
		Exists:       u.Exists,
	}
}

func fromRecord(rec InventoryRecord) models.DiscoveredURL {
	return models.DiscoveredURL{
		URL:          rec.URL,
		Domain:       rec.Domain,
		Subdomain:    rec.Subdomain,
		Path:         rec.Path,
		Source:       models.ArchiveSource(rec.Source),
		SourceName:   rec.SourceName,
		Timestamp:    rec.Timestamp,
		MIMEType:     rec.MIMEType,
		Status:       int(rec.Status),
		DiscoveredAt: time.UnixMilli(rec.DiscoveredAt).UTC(),
		Verified:     rec.Verified,
		Exists:       rec.Exists,
	}
}
