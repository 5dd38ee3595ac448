package extractor

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePage = `<!DOCTYPE html>
<html>
<head><title>Acme Corp - Annual Report</title>
<script>var tracked = true;</script>
<style>body { color: red; }</style>
</head>
<body>
<nav><a href="/home">Home</a></nav>
<h1>Annual Report 2023</h1>
<p>Revenue grew by 40 percent.</p>
<a href="https://partner.example.org/deal">Our partner</a>
<a href="https://partner.example.org/deal">Our partner again</a>
<a href="/about">About us</a>
<a href="mailto:info@acme.com">Mail</a>
<a href="https://Other.example.NET/page">Other</a>
<footer>Copyright Acme</footer>
</body>
</html>`

func TestTextExtractor_ExtractText(t *testing.T) {
	te := NewTextExtractor()
	text := te.ExtractText(samplePage)

	assert.Contains(t, text, "Annual Report 2023")
	assert.Contains(t, text, "Revenue grew by 40 percent.")
	assert.NotContains(t, text, "var tracked")
	assert.NotContains(t, text, "color: red")
	assert.NotContains(t, text, "Copyright Acme") // footer stripped
	assert.False(t, strings.Contains(text, "\n"))
}

func TestTextExtractor_ExtractTitle(t *testing.T) {
	te := NewTextExtractor()
	assert.Equal(t, "Acme Corp - Annual Report", te.ExtractTitle(samplePage))
}

func TestContentHash(t *testing.T) {
	h1 := ContentHash("hello   world")
	h2 := ContentHash("hello world")
	h3 := ContentHash("hello mars")

	require.Len(t, h1, 16)
	assert.Equal(t, h1, h2, "whitespace differences must not change the hash")
	assert.NotEqual(t, h1, h3)
}

func TestSnippet(t *testing.T) {
	text := strings.Repeat("a", 200) + "NEEDLE" + strings.Repeat("b", 200)
	idx := strings.Index(text, "NEEDLE")

	snippet := Snippet(text, idx, 150)
	assert.Contains(t, snippet, "NEEDLE")
	assert.LessOrEqual(t, len(snippet), 300+len("NEEDLE"))

	assert.Equal(t, "", Snippet("short", 99, 150))
}

func TestSnippet_NeverSplitsMultiByteRunes(t *testing.T) {
	// An odd radius over two-byte runes puts both raw cut points mid-rune.
	text := strings.Repeat("é", 100) + "NEEDLE" + strings.Repeat("é", 100)
	idx := strings.Index(text, "NEEDLE")

	snippet := Snippet(text, idx, 151)
	assert.Contains(t, snippet, "NEEDLE")
	assert.True(t, utf8.ValidString(snippet))
}

func TestOutlinkExtractor_Extract(t *testing.T) {
	oe := NewOutlinkExtractor(50)
	set := oe.Extract(samplePage, "https://www.acme.com/reports")

	// same-domain, mailto, and duplicate links are dropped
	assert.Equal(t, []string{
		"https://partner.example.org/deal",
		"https://Other.example.NET/page",
	}, set.URLs)
	assert.Equal(t, []string{"other.example.net", "partner.example.org"}, set.Domains)

	require.Len(t, set.Notes, 2)
	assert.Equal(t, "Our partner", set.Notes[0].Anchor)
}

func TestOutlinkExtractor_Cap(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("<html><body>")
	for i := 0; i < 10; i++ {
		sb.WriteString(`<a href="https://ext` + string(rune('a'+i)) + `.com/x">link</a>`)
	}
	sb.WriteString("</body></html>")

	oe := NewOutlinkExtractor(3)
	set := oe.Extract(sb.String(), "https://acme.com")
	assert.Len(t, set.URLs, 3)
}
