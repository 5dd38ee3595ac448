package urlhandler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestURLNormalizer_Normalize(t *testing.T) {
	normalizer := NewURLNormalizer(DefaultURLNormalizationConfig())

	tests := []struct {
		name     string
		inputURL string
		expected string
		wantErr  bool
	}{
		{
			name:     "lowercases scheme and host",
			inputURL: "HTTPS://Example.COM/Path",
			expected: "https://example.com/Path",
		},
		{
			name:     "strips www",
			inputURL: "https://www.example.com/page",
			expected: "https://example.com/page",
		},
		{
			name:     "strips fragment",
			inputURL: "https://example.com/page#section",
			expected: "https://example.com/page",
		},
		{
			name:     "strips tracking params keeps others",
			inputURL: "https://example.com/page?utm_source=x&q=1",
			expected: "https://example.com/page?q=1",
		},
		{
			name:     "drops default port",
			inputURL: "https://example.com:443/page",
			expected: "https://example.com/page",
		},
		{
			name:     "keeps non-default port",
			inputURL: "http://example.com:8080/page",
			expected: "http://example.com:8080/page",
		},
		{
			name:     "bare host gets scheme",
			inputURL: "example.com",
			expected: "https://example.com",
		},
		{
			name:     "root path trimmed",
			inputURL: "https://example.com/",
			expected: "https://example.com",
		},
		{
			name:     "empty url",
			inputURL: "   ",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := normalizer.Normalize(tt.inputURL)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestURLNormalizer_Idempotent(t *testing.T) {
	normalizer := NewURLNormalizer(DefaultURLNormalizationConfig())

	inputs := []string{
		"HTTPS://WWW.Example.com/A/B?utm_source=x&b=2&a=1#frag",
		"http://example.com:80/",
		"example.com/path",
	}
	for _, input := range inputs {
		once, err := normalizer.Normalize(input)
		require.NoError(t, err)
		twice, err := normalizer.Normalize(once)
		require.NoError(t, err)
		assert.Equal(t, once, twice, "normalize must be idempotent for %q", input)
	}
}

func TestIsSameOrSubdomain(t *testing.T) {
	assert.True(t, IsSameOrSubdomain("example.com", "example.com"))
	assert.True(t, IsSameOrSubdomain("api.example.com", "example.com"))
	assert.True(t, IsSameOrSubdomain("www.example.com", "example.com"))
	assert.False(t, IsSameOrSubdomain("examplecompany.com", "example.com"))
	assert.False(t, IsSameOrSubdomain("exampleco.com", "example.com"))
}

func TestDateRange(t *testing.T) {
	t.Run("valid range converts to archive bounds", func(t *testing.T) {
		dr := DateRange{From: "2023-01-15", To: "2024-06-30"}
		require.NoError(t, dr.Validate())
		from, to := dr.ArchiveBounds()
		assert.Equal(t, "20230115000000", from)
		assert.Equal(t, "20240630235959", to)
	})

	t.Run("start after end is a precondition violation", func(t *testing.T) {
		dr := DateRange{From: "2024-01-01", To: "2023-01-01"}
		assert.Error(t, dr.Validate())
	})

	t.Run("contains filters client side", func(t *testing.T) {
		dr := DateRange{From: "2023-01-01", To: "2023-12-31"}
		assert.True(t, dr.Contains("20230615120000"))
		assert.False(t, dr.Contains("20220615120000"))
		assert.False(t, dr.Contains("20240101000000"))
		assert.True(t, DateRange{}.Contains("19960101000000"))
	})
}

func TestHasDocumentExtension(t *testing.T) {
	assert.True(t, HasDocumentExtension("https://example.com/annual-report.pdf"))
	assert.True(t, HasDocumentExtension("https://example.com/a.XLSX?dl=1"))
	assert.False(t, HasDocumentExtension("https://example.com/page.html"))
}
