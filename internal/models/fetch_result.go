package models

// FetchResult represents the outcome of retrieving one archived URL from one source.
type FetchResult struct {
	URL        string            `json:"url"`
	Timestamp  string            `json:"timestamp,omitempty"` // 14-digit YYYYMMDDhhmmss, empty when unknown
	Source     ArchiveSource     `json:"source,omitempty"`
	StatusCode int               `json:"status_code,omitempty"`
	MIMEType   string            `json:"mime_type,omitempty"`
	Digest     string            `json:"digest,omitempty"`
	HTML       string            `json:"html,omitempty"`
	Content    string            `json:"content,omitempty"` // extracted text, when available
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// Success is derived, never stored: a fetch succeeded when it produced content.
func (fr *FetchResult) Success() bool {
	if fr == nil {
		return false
	}
	return fr.HTML != "" || fr.Content != ""
}

// Body returns the best available content representation, preferring raw HTML.
func (fr *FetchResult) Body() string {
	if fr.HTML != "" {
		return fr.HTML
	}
	return fr.Content
}

// WithMetadata sets a metadata entry, allocating the map on first use.
func (fr *FetchResult) WithMetadata(key, value string) *FetchResult {
	if fr.Metadata == nil {
		fr.Metadata = make(map[string]string)
	}
	fr.Metadata[key] = value
	return fr
}

// EmptyFetchResult returns a failed result carrying only the request URL and source.
func EmptyFetchResult(url string, source ArchiveSource) *FetchResult {
	return &FetchResult{URL: url, Source: source}
}
