package urlhandler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSURTKey(t *testing.T) {
	tests := []struct {
		name     string
		host     string
		expected string
		wantErr  bool
	}{
		{name: "second level domain", host: "example.com", expected: "com,example"},
		{name: "subdomain", host: "api.example.com", expected: "com,example,api"},
		{name: "www stripped", host: "www.example.com", expected: "com,example"},
		{name: "uppercase folded", host: "Example.COM", expected: "com,example"},
		{name: "deep subdomain", host: "a.b.c.example.co.uk", expected: "uk,co,example,c,b,a"},
		{name: "empty host", host: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SURTKey(tt.host)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestSURTPrefix(t *testing.T) {
	prefix, err := SURTPrefix("example.com")
	require.NoError(t, err)
	assert.Equal(t, "com,example)", prefix)
}

func TestHostFromSURTRoundTrip(t *testing.T) {
	for _, host := range []string{"example.com", "api.example.com", "a.b.c.example.co.uk"} {
		key, err := SURTKey(host)
		require.NoError(t, err)
		assert.Equal(t, host, HostFromSURT(key))
		assert.Equal(t, host, HostFromSURT(key+")/path/page.html"))
	}
}

func TestSURTMatchesDomain(t *testing.T) {
	tests := []struct {
		name    string
		surtKey string
		domain  string
		matches bool
	}{
		{name: "exact domain", surtKey: "com,example)/", domain: "com,example", matches: true},
		{name: "subdomain", surtKey: "com,example,api)/v1", domain: "com,example", matches: true},
		{name: "bare key", surtKey: "com,example", domain: "com,example", matches: true},
		{name: "longer company name", surtKey: "com,examplecompany)/", domain: "com,example", matches: false},
		{name: "sibling domain", surtKey: "com,exampleco)/", domain: "com,example", matches: false},
		{name: "unrelated", surtKey: "org,example)/", domain: "com,example", matches: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.matches, SURTMatchesDomain(tt.surtKey, tt.domain))
		})
	}
}

// Subdomain ordering: the SURT of a.b.c sorts before the SURT of a.bz.c iff
// b < bz, so all subdomains of a domain occupy a contiguous range.
func TestSURTOrderingClustersSubdomains(t *testing.T) {
	low, err := SURTKey("a.b.c")
	require.NoError(t, err)
	high, err := SURTKey("a.bz.c")
	require.NoError(t, err)
	assert.Less(t, low, high)

	root, _ := SURTKey("example.com")
	sub1, _ := SURTKey("api.example.com")
	sub2, _ := SURTKey("zz.example.com")
	next, _ := SURTKey("exampleco.com")

	// contiguity: both subdomains share the root prefix, the sibling does not
	assert.True(t, SURTMatchesDomain(sub1, root))
	assert.True(t, SURTMatchesDomain(sub2, root))
	assert.False(t, SURTMatchesDomain(next, root))
}
