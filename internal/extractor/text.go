package extractor

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// elements whose text is navigation chrome, not page content
const strippedElements = "script, style, noscript, nav, footer, header, aside"

// TextExtractor turns raw archived HTML into visible text.
type TextExtractor struct{}

// NewTextExtractor creates a new text extractor.
func NewTextExtractor() *TextExtractor {
	return &TextExtractor{}
}

// ExtractText strips markup and chrome elements and returns the page's
// visible text with normalized whitespace. Unparseable input degrades to the
// raw string so keyword scanning still has something to work with.
func (te *TextExtractor) ExtractText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return NormalizeWhitespace(html)
	}
	doc.Find(strippedElements).Remove()
	return NormalizeWhitespace(doc.Text())
}

// ExtractTitle returns the document title, or empty.
func (te *TextExtractor) ExtractTitle(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}

// NormalizeWhitespace collapses all whitespace runs to single spaces.
func NormalizeWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// ContentHash returns the first 16 hex characters of the MD5 over
// whitespace-normalized text. Used for equality only, never ordering.
func ContentHash(text string) string {
	sum := md5.Sum([]byte(NormalizeWhitespace(text)))
	return hex.EncodeToString(sum[:])[:16]
}

// Snippet returns the text surrounding position idx with the given radius,
// clamped to the text bounds. Bounds are widened to rune boundaries so the
// slice never splits a multi-byte character.
func Snippet(text string, idx, radius int) string {
	if idx < 0 || idx >= len(text) {
		return ""
	}
	start := idx - radius
	if start < 0 {
		start = 0
	}
	end := idx + radius
	if end > len(text) {
		end = len(text)
	}
	for start > 0 && !utf8.RuneStart(text[start]) {
		start--
	}
	for end < len(text) && !utf8.RuneStart(text[end]) {
		end++
	}
	return strings.TrimSpace(text[start:end])
}
