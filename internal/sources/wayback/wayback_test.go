package wayback

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/webrewind/webrewind/internal/config"
	"github.com/webrewind/webrewind/internal/models"
	"github.com/webrewind/webrewind/internal/sources"
	"github.com/webrewind/webrewind/internal/urlhandler"
)

func newTestAdapter(t *testing.T, server *httptest.Server) *Adapter {
	t.Helper()
	cfg := config.DefaultWaybackConfig()
	cfg.CDXEndpoint = server.URL + "/cdx/search/cdx"
	cfg.ContentEndpoint = server.URL + "/web"
	cfg.SaveEndpoint = server.URL + "/save"

	adapter, err := NewAdapterBuilder(zerolog.Nop()).
		WithConfig(cfg).
		WithHTTPClient(server.Client()).
		Build()
	require.NoError(t, err)
	return adapter
}

func cdxTable(rows ...[]string) []byte {
	table := [][]string{{"timestamp", "original", "statuscode", "mimetype", "digest"}}
	table = append(table, rows...)
	data, _ := json.Marshal(table)
	return data
}

func TestListSnapshots_NewestFirstAndFiltered(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write(cdxTable(
			[]string{"20200101000000", "https://example.com/", "200", "text/html", "AAA"},
			[]string{"20230601120000", "https://example.com/", "200", "text/html", "BBB"},
			[]string{"20210315000000", "https://example.com/", "200", "text/html", "CCC"},
		))
	}))
	defer server.Close()

	adapter := newTestAdapter(t, server)
	snapshots, err := adapter.ListSnapshots(context.Background(), "https://example.com", sources.ListOptions{Limit: 10})
	require.NoError(t, err)

	require.Len(t, snapshots, 3)
	assert.Equal(t, "20230601120000", snapshots[0].Timestamp)
	assert.Equal(t, "20200101000000", snapshots[2].Timestamp)

	// error statuses excluded by default, one capture per day collapse
	assert.Contains(t, gotQuery, "filter=%21statuscode%3A%5B45%5D..")
	assert.Contains(t, gotQuery, "collapse=timestamp%3A8")
}

func TestListSnapshots_EmptyURLIsPreconditionViolation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no external call expected")
	}))
	defer server.Close()

	adapter := newTestAdapter(t, server)
	_, err := adapter.ListSnapshots(context.Background(), "  ", sources.ListOptions{})
	assert.Error(t, err)
}

func TestListSnapshots_ServerErrorYieldsEmptyNotError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	adapter := newTestAdapter(t, server)
	snapshots, err := adapter.ListSnapshots(context.Background(), "https://example.com", sources.ListOptions{})
	assert.NoError(t, err)
	assert.Empty(t, snapshots)
}

func TestFetch_UsesIDModifierAndNewestSnapshot(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/cdx/search/cdx":
			w.Write(cdxTable([]string{"20240501000000", "https://example.com/", "200", "text/html", "XYZ"}))
		case r.URL.Path == "/web/20240501000000id_/https://example.com":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Write([]byte("<html>archived body</html>"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	adapter := newTestAdapter(t, server)
	result, err := adapter.Fetch(context.Background(), "https://example.com", sources.FetchOptions{})
	require.NoError(t, err)

	assert.True(t, result.Success())
	assert.Equal(t, "20240501000000", result.Timestamp)
	assert.Equal(t, "text/html", result.MIMEType)
	assert.Contains(t, result.HTML, "archived body")
}

func TestFetch_ResultCarriesRegisteredSource(t *testing.T) {
	// A pinned orchestrated fetch matches adapters on Source(), so the result
	// must carry that same tag; the content endpoint is metadata only.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>archived body</html>"))
	}))
	defer server.Close()

	adapter := newTestAdapter(t, server)
	result, err := adapter.Fetch(context.Background(), "https://example.com", sources.FetchOptions{Timestamp: "20240501000000"})
	require.NoError(t, err)

	assert.True(t, result.Success())
	assert.Equal(t, models.SourceWaybackCDX, result.Source)
	assert.Equal(t, adapter.Source(), result.Source)
	assert.Equal(t, models.SourceWaybackData.String(), result.Metadata["endpoint"])
}

func TestFetch_Non2xxCarriesStatusWithoutHTML(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	adapter := newTestAdapter(t, server)
	result, err := adapter.Fetch(context.Background(), "https://example.com", sources.FetchOptions{Timestamp: "20240501000000"})
	require.NoError(t, err)

	assert.False(t, result.Success())
	assert.Equal(t, http.StatusNotFound, result.StatusCode)
}

func TestFetch_InvalidDateRange(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no external call expected")
	}))
	defer server.Close()

	adapter := newTestAdapter(t, server)
	_, err := adapter.Fetch(context.Background(), "https://example.com", sources.FetchOptions{
		DateRange: urlhandler.DateRange{From: "2024-01-01", To: "2023-01-01"},
	})
	assert.Error(t, err)
}

func TestSavePageNow(t *testing.T) {
	var gotForm string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, r.ParseForm())
		gotForm = r.PostForm.Get("url")
	}))
	defer server.Close()

	adapter := newTestAdapter(t, server)
	ok, err := adapter.SavePageNow(context.Background(), "https://example.com/page")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "https://example.com/page", gotForm)
}

func TestClosestSnapshot(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write(cdxTable([]string{"20220615000000", "https://example.com/", "200", "text/html", "DDD"}))
	}))
	defer server.Close()

	adapter := newTestAdapter(t, server)
	snap, err := adapter.ClosestSnapshot(context.Background(), "https://example.com", "2022-06-14")
	require.NoError(t, err)
	require.NotNil(t, snap)

	assert.Equal(t, "20220615000000", snap.Timestamp)
	assert.Contains(t, gotQuery, "closest=20220614")
	assert.Contains(t, gotQuery, "sort=closest")
}
