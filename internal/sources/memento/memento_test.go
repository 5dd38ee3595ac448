package memento

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
	"github.com/webrewind/webrewind/internal/sources"
	"github.com/webrewind/webrewind/internal/urlhandler"
)

func newTestAdapter(t *testing.T, server *httptest.Server) *Adapter {
	t.Helper()
	cfg := config.DefaultMementoConfig()
	cfg.TimeMapEndpoint = server.URL + "/timemap/json/"

	adapter, err := NewAdapterBuilder(zerolog.Nop()).
		WithConfig(cfg).
		WithHTTPClient(server.Client()).
		Build()
	require.NoError(t, err)
	return adapter
}

func timeMapJSON(entries ...map[string]string) []byte {
	payload := map[string]any{
		"original_uri": "https://example.com/",
		"mementos":     map[string]any{"list": entries},
	}
	data, _ := json.Marshal(payload)
	return data
}

func TestListSnapshots_RanksPreferredArchivesFirst(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(timeMapJSON(
			map[string]string{"datetime": "2021-05-01T00:00:00Z", "uri": "https://arquivo.pt/wayback/20210501000000/https://example.com/"},
			map[string]string{"datetime": "2019-03-01T00:00:00Z", "uri": "https://web.archive.org/web/20190301000000/https://example.com/"},
			map[string]string{"datetime": "2023-07-01T00:00:00Z", "uri": "https://web.archive.org/web/20230701000000/https://example.com/"},
		))
	}))
	defer server.Close()

	adapter := newTestAdapter(t, server)
	snapshots, err := adapter.ListSnapshots(context.Background(), "https://example.com", sources.ListOptions{})
	require.NoError(t, err)
	require.Len(t, snapshots, 3)

	// web.archive.org outranks unlisted archives; newest first within a rank.
	assert.Equal(t, "20230701000000", snapshots[0].Timestamp)
	assert.Equal(t, "20190301000000", snapshots[1].Timestamp)
	assert.Contains(t, snapshots[2].ViewURL, "arquivo.pt")
}

func TestListSnapshots_DateRangeFiltersClientSide(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(timeMapJSON(
			map[string]string{"datetime": "2018-01-01T00:00:00Z", "uri": "https://web.archive.org/web/20180101000000/https://example.com/"},
			map[string]string{"datetime": "2022-06-15T12:00:00Z", "uri": "https://web.archive.org/web/20220615120000/https://example.com/"},
		))
	}))
	defer server.Close()

	adapter := newTestAdapter(t, server)
	snapshots, err := adapter.ListSnapshots(context.Background(), "https://example.com", sources.ListOptions{
		DateRange: urlhandler.DateRange{From: "2022-01-01", To: "2022-12-31"},
	})
	require.NoError(t, err)
	require.Len(t, snapshots, 1)
	assert.Equal(t, "20220615120000", snapshots[0].Timestamp)
}

func TestListSnapshots_AggregatorFailureYieldsEmptyNotError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	adapter := newTestAdapter(t, server)
	snapshots, err := adapter.ListSnapshots(context.Background(), "https://example.com", sources.ListOptions{})
	assert.NoError(t, err)
	assert.Empty(t, snapshots)
}

func TestListSnapshots_EmptyURLIsPreconditionViolation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no external call expected")
	}))
	defer server.Close()

	adapter := newTestAdapter(t, server)
	_, err := adapter.ListSnapshots(context.Background(), "", sources.ListOptions{})
	assert.Error(t, err)
}

func TestFetch_ReturnsFirstCandidateThatAnswers(t *testing.T) {
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/timemap/json/", func(w http.ResponseWriter, r *http.Request) {
		w.Write(timeMapJSON(
			map[string]string{"datetime": "2023-02-01T00:00:00Z", "uri": server.URL + "/dead/20230201000000"},
			map[string]string{"datetime": "2022-02-01T00:00:00Z", "uri": server.URL + "/live/20220201000000"},
		))
	})
	mux.HandleFunc("/dead/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("/live/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html>recovered</html>"))
	})

	adapter := newTestAdapter(t, server)
	result, err := adapter.Fetch(context.Background(), "https://example.com", sources.FetchOptions{})
	require.NoError(t, err)

	assert.True(t, result.Success())
	assert.Equal(t, "20220201000000", result.Timestamp)
	assert.Contains(t, result.HTML, "recovered")
}

func TestFetch_NoAnsweringCandidateYieldsEmptyResult(t *testing.T) {
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/timemap/json/", func(w http.ResponseWriter, r *http.Request) {
		w.Write(timeMapJSON(
			map[string]string{"datetime": "2023-02-01T00:00:00Z", "uri": server.URL + "/dead/20230201000000"},
		))
	})
	mux.HandleFunc("/dead/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	adapter := newTestAdapter(t, server)
	result, err := adapter.Fetch(context.Background(), "https://example.com", sources.FetchOptions{})
	require.NoError(t, err)
	assert.False(t, result.Success())
}

func TestCompareArchives_GroupsByArchive(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(timeMapJSON(
			map[string]string{"datetime": "2019-01-01T00:00:00Z", "uri": "https://web.archive.org/web/20190101000000/https://example.com/"},
			map[string]string{"datetime": "2021-01-01T00:00:00Z", "uri": "https://web.archive.org/web/20210101000000/https://example.com/"},
			map[string]string{"datetime": "2020-01-01T00:00:00Z", "uri": "https://arquivo.pt/wayback/20200101000000/https://example.com/"},
		))
	}))
	defer server.Close()

	adapter := newTestAdapter(t, server)
	summaries, err := adapter.CompareArchives(context.Background(), "https://example.com")
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	assert.Equal(t, "Internet Archive", summaries[0].Archive)
	assert.Equal(t, 2, summaries[0].Count)
	assert.Equal(t, "20190101000000", summaries[0].Oldest)
	assert.Equal(t, "20210101000000", summaries[0].Newest)
	assert.Equal(t, "Arquivo.pt", summaries[1].Archive)
}

func TestParseMementoDateTime_AcceptedForms(t *testing.T) {
	cases := map[string]string{
		"2023-04-05T06:07:08Z":          "20230405060708",
		"Wed, 05 Apr 2023 06:07:08 GMT": "20230405060708",
		"20230405060708":                "20230405060708",
	}
	for input, want := range cases {
		got, ok := parseMementoDateTime(input)
		require.True(t, ok, input)
		assert.Equal(t, want, got)
	}

	_, ok := parseMementoDateTime("not a date")
	assert.False(t, ok)
}

func TestArchiveForURL(t *testing.T) {
	assert.Equal(t, "Internet Archive", ArchiveForURL("https://web.archive.org/web/2024/https://example.com/"))
	assert.Equal(t, "Archive Today", ArchiveForURL("https://archive.ph/abc123"))
	assert.Equal(t, "some.unknown-archive.org", ArchiveForURL("https://some.unknown-archive.org/x"))
}
