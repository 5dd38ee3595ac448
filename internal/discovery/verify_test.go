package discovery

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/webrewind/webrewind/internal/models"
)

func TestVerify_AnnotatesInPlace(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodHead, r.Method)
		switch r.URL.Path {
		case "/alive":
			w.WriteHeader(http.StatusOK)
		case "/no-head":
			w.WriteHeader(http.StatusMethodNotAllowed)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	urls := []models.DiscoveredURL{
		{URL: server.URL + "/alive"},
		{URL: server.URL + "/no-head"},
		{URL: server.URL + "/gone"},
	}

	verifier := NewLiveVerifier(server.Client(), zerolog.Nop())
	verifier.Verify(context.Background(), urls)

	for _, u := range urls {
		assert.True(t, u.Verified, u.URL)
	}
	assert.True(t, urls[0].Exists)
	// 405 means the server rejects HEAD, not that the page is gone.
	assert.True(t, urls[1].Exists)
	assert.False(t, urls[2].Exists)
}

func TestVerify_UnreachableHostLeavesExistsFalse(t *testing.T) {
	urls := []models.DiscoveredURL{{URL: "http://127.0.0.1:1/unreachable"}}

	verifier := NewLiveVerifier(&http.Client{}, zerolog.Nop())
	verifier.Verify(context.Background(), urls)

	assert.True(t, urls[0].Verified)
	assert.False(t, urls[0].Exists)
}
