package models

// ArchiveEventType discriminates the streaming search engine's event union.
type ArchiveEventType string

const (
	EventHit    ArchiveEventType = "hit"
	EventStatus ArchiveEventType = "status"
	EventError  ArchiveEventType = "error"
)

// Event channel labels.
const (
	ChannelDeep     = "deep"
	ChannelProgress = "progress"
)

// Event state labels.
const (
	StateProgress     = "progress"
	StateHit          = "hit"
	StateYearComplete = "year_complete"
)

// OutlinkNote pairs an outlink with the anchor text it was found under.
type OutlinkNote struct {
	URL    string `json:"url"`
	Anchor string `json:"anchor,omitempty"`
}

// SearchHit is the payload of a hit event: the matched snapshot enriched with
// the matching keyword, a contextual snippet, and the page's outward links.
type SearchHit struct {
	Result         *FetchResult  `json:"result"`
	Keyword        string        `json:"keyword,omitempty"`
	Snippet        string        `json:"snippet,omitempty"`
	Outlinks       []string      `json:"outlinks,omitempty"`
	OutlinkNotes   []OutlinkNote `json:"outlink_notes,omitempty"`
	OutlinkDomains []string      `json:"outlink_domains,omitempty"` // sorted, unique
}

// SearchProgress reports year-level completion.
type SearchProgress struct {
	Year      int     `json:"year"`
	Completed int     `json:"completed"`
	Total     int     `json:"total"`
	Percent   float64 `json:"percent"`
	Message   string  `json:"message,omitempty"`
}

// ArchiveEvent is one item in the streaming search engine's output. Exactly one
// of Hit, Progress, Message, or Err is populated according to Type/State.
type ArchiveEvent struct {
	Type     ArchiveEventType `json:"type"`
	Channel  string           `json:"channel,omitempty"`
	State    string           `json:"state,omitempty"`
	Hit      *SearchHit       `json:"hit,omitempty"`
	Progress *SearchProgress  `json:"progress,omitempty"`
	Message  string           `json:"message,omitempty"`
	Err      string           `json:"error,omitempty"`
}

// NewHitEvent builds a deep-channel hit event.
func NewHitEvent(hit *SearchHit) ArchiveEvent {
	return ArchiveEvent{Type: EventHit, Channel: ChannelDeep, State: StateHit, Hit: hit}
}

// NewProgressEvent builds a year_complete progress event.
func NewProgressEvent(progress *SearchProgress) ArchiveEvent {
	return ArchiveEvent{Type: EventStatus, Channel: ChannelProgress, State: StateYearComplete, Progress: progress}
}

// NewDeepStatusEvent builds a per-snapshot deep-channel status event for UIs.
func NewDeepStatusEvent(message string) ArchiveEvent {
	return ArchiveEvent{Type: EventStatus, Channel: ChannelDeep, State: StateProgress, Message: message}
}

// NewErrorEvent builds an error event. The engine never throws across the
// stream boundary; failures arrive as values.
func NewErrorEvent(message string) ArchiveEvent {
	return ArchiveEvent{Type: EventError, Channel: ChannelDeep, Err: message}
}
