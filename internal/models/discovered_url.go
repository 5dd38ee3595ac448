package models

import "time"

// DiscoveredURL is a URL found during domain mapping. Equality and hashing are
// by URL alone; per-source attributes ride in the extension fields.
type DiscoveredURL struct {
	URL          string        `json:"url"`
	Domain       string        `json:"domain"`
	Subdomain    string        `json:"subdomain,omitempty"`
	Path         string        `json:"path,omitempty"`
	Source       ArchiveSource `json:"source,omitempty"`
	SourceName   string        `json:"source_name,omitempty"` // discovery source label (crtsh, sitemap, ...)
	DiscoveredAt time.Time     `json:"discovered_at"`

	// Archive-style extensions
	Timestamp string `json:"timestamp,omitempty"` // 14-digit capture timestamp when known
	ViewURL   string `json:"view_url,omitempty"`
	MIMEType  string `json:"mime_type,omitempty"`
	Status    int    `json:"status,omitempty"`

	// Sitemap extension
	Priority float64 `json:"priority,omitempty"`

	// Backlink API extension
	TrustFlow    int `json:"trust_flow,omitempty"`
	CitationFlow int `json:"citation_flow,omitempty"`

	// Live verification extension
	Verified bool `json:"verified,omitempty"`
	Exists   bool `json:"exists,omitempty"`
}

// DomainMapStats summarizes one batch mapping run.
type DomainMapStats struct {
	TotalURLs     int            `json:"total_urls"`
	UniqueURLs    int            `json:"unique_urls"`
	SourceCounts  map[string]int `json:"source_counts"`
	YearCounts    map[string]int `json:"year_counts"`
	EarliestSeen  string         `json:"earliest_seen,omitempty"` // 14-digit timestamp
	LatestSeen    string         `json:"latest_seen,omitempty"`
	SourcesFailed []string       `json:"sources_failed,omitempty"`
}

// DomainMap is the accumulated result of mapping one domain.
type DomainMap struct {
	Domain      string          `json:"domain"`
	URLs        []DiscoveredURL `json:"urls"`
	Stats       DomainMapStats  `json:"stats"`
	StartedAt   time.Time       `json:"started_at"`
	CompletedAt time.Time       `json:"completed_at"`
}
