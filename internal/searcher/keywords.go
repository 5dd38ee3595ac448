package searcher

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// accentFolder strips combining marks after NFKD decomposition, so "résumé"
// matches "resume".
var accentFolder = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// foldAccents lowercases and removes diacritics. Falls back to plain
// lowercasing when the transform fails.
func foldAccents(s string) string {
	folded, _, err := transform.String(accentFolder, s)
	if err != nil {
		return strings.ToLower(s)
	}
	return strings.ToLower(folded)
}

// keywordMatch locates the first matching keyword in a page's text.
type keywordMatch struct {
	Keyword string
	// Text is the representation the index refers to: the original text for a
	// plain match, the folded text for an accent-folded match.
	Text  string
	Index int
}

// matchKeywords scans for any keyword, case-insensitively first, then with
// NFKD accent folding. The first match short-circuits.
func matchKeywords(text string, keywords []string) (keywordMatch, bool) {
	if len(keywords) == 0 {
		return keywordMatch{}, false
	}

	lower := strings.ToLower(text)
	var folded string // computed lazily; folding a large page is not free

	for _, keyword := range keywords {
		kw := strings.ToLower(strings.TrimSpace(keyword))
		if kw == "" {
			continue
		}
		if idx := strings.Index(lower, kw); idx >= 0 {
			return keywordMatch{Keyword: keyword, Text: lower, Index: idx}, true
		}
		foldedKw := foldAccents(keyword)
		if foldedKw == kw {
			continue
		}
		if folded == "" {
			folded = foldAccents(text)
		}
		if idx := strings.Index(folded, foldedKw); idx >= 0 {
			return keywordMatch{Keyword: keyword, Text: folded, Index: idx}, true
		}
	}
	return keywordMatch{}, false
}
