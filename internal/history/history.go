// Package history records engine runs (mapping, search, evolution) in a
// process-local SQLite database so operators can audit what ran against which
// domain and with what outcome.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

// Run kinds recorded in the history table.
const (
	RunKindMap       = "map"
	RunKindSearch    = "search"
	RunKindEvolution = "evolution"
	RunKindCompare   = "compare"
)

// Run statuses.
const (
	StatusStarted   = "STARTED"
	StatusCompleted = "COMPLETED"
	StatusFailed    = "FAILED"
)

// Store wraps the SQL connection and the run_history schema.
type Store struct {
	db     *sql.DB
	logger zerolog.Logger
}

// RunEntry is one recorded engine run.
type RunEntry struct {
	ID         int64
	Kind       string
	Domain     string
	StartTime  time.Time
	EndTime    sql.NullTime
	Status     string
	URLCount   int
	HitCount   int
	LogSummary sql.NullString
}

// NewStore opens (creating if needed) the history database at path and
// ensures the schema exists.
func NewStore(path string, logger zerolog.Logger) (*Store, error) {
	logger = logger.With().Str("component", "HistoryStore").Logger()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create history database directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sql.Open failed for %s: %w", path, err)
	}

	store := &Store{db: db, logger: logger}
	if err := store.initSchema(); err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	logger.Debug().Str("path", path).Msg("History database ready")
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS run_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		kind TEXT NOT NULL,
		domain TEXT NOT NULL,
		start_time DATETIME NOT NULL,
		end_time DATETIME,
		status TEXT NOT NULL,
		url_count INTEGER DEFAULT 0,
		hit_count INTEGER DEFAULT 0,
		log_summary TEXT
	);
	`
	if _, err := s.db.Exec(query); err != nil {
		s.logger.Error().Err(err).Msg("Failed to initialize history schema")
		return err
	}
	return nil
}

// RecordStart inserts a STARTED run and returns its row id.
func (s *Store) RecordStart(kind, domain string, startTime time.Time) (int64, error) {
	result, err := s.db.Exec(
		`INSERT INTO run_history (kind, domain, start_time, status) VALUES (?, ?, ?, ?)`,
		kind, domain, startTime.UTC(), StatusStarted,
	)
	if err != nil {
		s.logger.Error().Err(err).Str("kind", kind).Str("domain", domain).Msg("Failed to record run start")
		return 0, err
	}
	return result.LastInsertId()
}

// RecordCompletion finalizes a run with its outcome and counters.
func (s *Store) RecordCompletion(id int64, endTime time.Time, status string, urlCount, hitCount int, logSummary string) error {
	_, err := s.db.Exec(
		`UPDATE run_history SET end_time = ?, status = ?, url_count = ?, hit_count = ?, log_summary = ? WHERE id = ?`,
		endTime.UTC(), status, urlCount, hitCount, logSummary, id,
	)
	if err != nil {
		s.logger.Error().Err(err).Int64("run_id", id).Msg("Failed to record run completion")
	}
	return err
}

// LastRun returns the most recent run of one kind for a domain, or nil.
func (s *Store) LastRun(kind, domain string) (*RunEntry, error) {
	row := s.db.QueryRow(
		`SELECT id, kind, domain, start_time, end_time, status, url_count, hit_count, log_summary
		 FROM run_history WHERE kind = ? AND domain = ? ORDER BY start_time DESC LIMIT 1`,
		kind, domain,
	)
	var entry RunEntry
	err := row.Scan(&entry.ID, &entry.Kind, &entry.Domain, &entry.StartTime, &entry.EndTime,
		&entry.Status, &entry.URLCount, &entry.HitCount, &entry.LogSummary)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// RecentRuns lists the newest runs across all kinds, newest first.
func (s *Store) RecentRuns(limit int) ([]RunEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(
		`SELECT id, kind, domain, start_time, end_time, status, url_count, hit_count, log_summary
		 FROM run_history ORDER BY start_time DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []RunEntry
	for rows.Next() {
		var entry RunEntry
		if err := rows.Scan(&entry.ID, &entry.Kind, &entry.Domain, &entry.StartTime, &entry.EndTime,
			&entry.Status, &entry.URLCount, &entry.HitCount, &entry.LogSummary); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
