package history

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "history", "runs.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore_RecordAndReadBackRun(t *testing.T) {
	store := newTestStore(t)

	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	id, err := store.RecordStart(RunKindMap, "example.com", start)
	require.NoError(t, err)
	require.NotZero(t, id)

	end := start.Add(90 * time.Second)
	require.NoError(t, store.RecordCompletion(id, end, StatusCompleted, 140, 0, "mapped 140 urls"))

	entry, err := store.LastRun(RunKindMap, "example.com")
	require.NoError(t, err)
	require.NotNil(t, entry)

	assert.Equal(t, id, entry.ID)
	assert.Equal(t, RunKindMap, entry.Kind)
	assert.Equal(t, "example.com", entry.Domain)
	assert.Equal(t, StatusCompleted, entry.Status)
	assert.Equal(t, 140, entry.URLCount)
	assert.True(t, entry.EndTime.Valid)
	assert.Equal(t, "mapped 140 urls", entry.LogSummary.String)
}

func TestStore_LastRunScopedByKindAndDomain(t *testing.T) {
	store := newTestStore(t)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err := store.RecordStart(RunKindMap, "example.com", base)
	require.NoError(t, err)
	_, err = store.RecordStart(RunKindSearch, "example.com", base.Add(time.Hour))
	require.NoError(t, err)
	newest, err := store.RecordStart(RunKindMap, "example.com", base.Add(2*time.Hour))
	require.NoError(t, err)
	_, err = store.RecordStart(RunKindMap, "other.org", base.Add(3*time.Hour))
	require.NoError(t, err)

	entry, err := store.LastRun(RunKindMap, "example.com")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, newest, entry.ID)
}

func TestStore_LastRunMissingReturnsNilNil(t *testing.T) {
	store := newTestStore(t)

	entry, err := store.LastRun(RunKindEvolution, "never-mapped.example")
	assert.NoError(t, err)
	assert.Nil(t, entry)
}

func TestStore_RecentRunsNewestFirstWithLimit(t *testing.T) {
	store := newTestStore(t)

	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		_, err := store.RecordStart(RunKindSearch, "example.com", base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, err)
	}

	entries, err := store.RecentRuns(3)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.True(t, entries[0].StartTime.After(entries[1].StartTime))
	assert.True(t, entries[1].StartTime.After(entries[2].StartTime))
}

func TestStore_RecentRunsDefaultLimit(t *testing.T) {
	store := newTestStore(t)

	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 25; i++ {
		_, err := store.RecordStart(RunKindMap, "example.com", base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, err)
	}

	entries, err := store.RecentRuns(0)
	require.NoError(t, err)
	assert.Len(t, entries, 20)
}

func TestStore_FailedRunKeepsFailureStatus(t *testing.T) {
	store := newTestStore(t)

	id, err := store.RecordStart(RunKindCompare, "example.com", time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, store.RecordCompletion(id, time.Now().UTC(), StatusFailed, 0, 0, "upstream timeout"))

	entry, err := store.LastRun(RunKindCompare, "example.com")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, StatusFailed, entry.Status)
	assert.Equal(t, "upstream timeout", entry.LogSummary.String)
}
