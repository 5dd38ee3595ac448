package models

// ChangeType classifies a pairwise page comparison by similarity thresholds.
type ChangeType string

const (
	ChangeIdentical ChangeType = "identical"    // similarity >= 0.99
	ChangeMinor     ChangeType = "minor_change" // similarity >= 0.90
	ChangeModified  ChangeType = "modified"     // similarity >= 0.50
	ChangeMajor     ChangeType = "major_change" // similarity < 0.50
)

// ClassifyChange maps a similarity ratio in [0,1] onto a change category.
func ClassifyChange(similarity float64) ChangeType {
	switch {
	case similarity >= 0.99:
		return ChangeIdentical
	case similarity >= 0.90:
		return ChangeMinor
	case similarity >= 0.50:
		return ChangeModified
	default:
		return ChangeMajor
	}
}

// PageVersion is one observed version of a page. Equality is on (URL, ContentHash).
type PageVersion struct {
	URL         string        `json:"url"`
	Timestamp   string        `json:"timestamp"`
	Source      ArchiveSource `json:"source,omitempty"`
	ContentHash string        `json:"content_hash,omitempty"` // truncated MD5 of whitespace-normalized text
	Title       string        `json:"title,omitempty"`
	Length      int           `json:"length,omitempty"`
	StatusCode  int           `json:"status_code,omitempty"`
}

// PageChange compares two versions of the same URL.
type PageChange struct {
	URL           string     `json:"url"`
	FromTimestamp string     `json:"from_timestamp"`
	ToTimestamp   string     `json:"to_timestamp"`
	ChangeType    ChangeType `json:"change_type"`
	Similarity    float64    `json:"similarity"` // in [0,1]
	LinesAdded    int        `json:"lines_added"`
	LinesRemoved  int        `json:"lines_removed"`
	FromHash      string     `json:"from_hash,omitempty"`
	ToHash        string     `json:"to_hash,omitempty"`
}

// EvolutionPeriod is the URL population of one domain in one year.
type EvolutionPeriod struct {
	Year       string   `json:"year"`
	URLCount   int      `json:"url_count"`
	SampleURLs []string `json:"sample_urls,omitempty"` // capped at 100 per period
}

// DomainEvolution tracks one domain across years. Derived, recomputed on demand.
type DomainEvolution struct {
	Domain       string            `json:"domain"`
	Periods      []EvolutionPeriod `json:"periods"`
	PagesAdded   []string          `json:"pages_added,omitempty"`   // first 500
	PagesRemoved []string          `json:"pages_removed,omitempty"` // first 500
	TotalAdded   int               `json:"total_added"`
	TotalRemoved int               `json:"total_removed"`
	EarliestSeen string            `json:"earliest_seen,omitempty"`
	LatestSeen   string            `json:"latest_seen,omitempty"`
}

// PeriodComparison is a pure set comparison of one domain between two periods.
type PeriodComparison struct {
	Domain       string       `json:"domain"`
	Period1      string       `json:"period1"`
	Period2      string       `json:"period2"`
	URLsAdded    []string     `json:"urls_added"`
	URLsRemoved  []string     `json:"urls_removed"`
	URLsCommon   []string     `json:"urls_common"`
	PageChanges  []PageChange `json:"page_changes,omitempty"` // sampled content comparison
	Period1Count int          `json:"period1_count"`
	Period2Count int          `json:"period2_count"`
}

// ContentChangeResult reports when a piece of text appeared or disappeared on a domain.
type ContentChangeResult struct {
	Domain          string `json:"domain"`
	Text            string `json:"text"`
	ChangeType      string `json:"change_type"` // "appeared" | "disappeared"
	Found           bool   `json:"found"`
	Timestamp       string `json:"timestamp,omitempty"`
	URL             string `json:"url,omitempty"`
	SurroundingText string `json:"surrounding_text,omitempty"`
}
