package memento

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/webrewind/webrewind/internal/errorwrapper"
	"github.com/webrewind/webrewind/internal/urlhandler"
)

// memento is one capture parsed out of a TimeMap.
type memento struct {
	uri       string
	timestamp string // 14-digit
}

// timeMapResponse is the aggregator's JSON TimeMap shape.
type timeMapResponse struct {
	OriginalURI string `json:"original_uri"`
	Mementos    struct {
		List []timeMapEntry `json:"list"`
	} `json:"mementos"`
}

type timeMapEntry struct {
	DateTime string `json:"datetime"`
	URI      string `json:"uri"`
}

// parseTimeMap decodes a JSON TimeMap. Entries with unparseable datetimes are
// skipped, never fatal.
func parseTimeMap(body []byte) ([]memento, error) {
	if len(body) == 0 {
		return nil, nil
	}
	var tm timeMapResponse
	if err := json.Unmarshal(body, &tm); err != nil {
		return nil, errorwrapper.WrapError(err, "failed to parse TimeMap")
	}

	mementos := make([]memento, 0, len(tm.Mementos.List))
	for _, entry := range tm.Mementos.List {
		if entry.URI == "" {
			continue
		}
		ts, ok := parseMementoDateTime(entry.DateTime)
		if !ok {
			continue
		}
		mementos = append(mementos, memento{uri: entry.URI, timestamp: ts})
	}
	return mementos, nil
}

// parseMementoDateTime accepts the datetime forms the aggregator emits
// (RFC 3339 and RFC 1123) and converts to the 14-digit archive form.
func parseMementoDateTime(value string) (string, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", false
	}
	for _, layout := range []string{time.RFC3339, time.RFC1123, time.RFC1123Z} {
		if t, err := time.Parse(layout, value); err == nil {
			return urlhandler.FormatArchiveTimestamp(t), true
		}
	}
	// Some archives return the 14-digit form directly.
	if t, err := urlhandler.ParseArchiveTimestamp(value); err == nil {
		return urlhandler.FormatArchiveTimestamp(t), true
	}
	return "", false
}

// knownArchiveHosts maps memento URL hosts to human-readable archive names.
var knownArchiveHosts = map[string]string{
	"web.archive.org":          "Internet Archive",
	"archive.today":            "Archive Today",
	"archive.ph":               "Archive Today",
	"archive.is":               "Archive Today",
	"arquivo.pt":               "Arquivo.pt",
	"webarchive.org.uk":        "UK Web Archive",
	"webarchive.nationalarchives.gov.uk": "UK Government Web Archive",
	"swap.stanford.edu":        "Stanford Web Archive",
	"wayback.archive-it.org":   "Archive-It",
	"perma.cc":                 "Perma.cc",
	"webarchive.loc.gov":       "Library of Congress",
	"haw.nsk.hr":               "Croatian Web Archive",
	"webarchive.bac-lac.gc.ca": "Library and Archives Canada",
	"vefsafn.is":               "Icelandic Web Archive",
	"webarchive.proni.gov.uk":  "PRONI Web Archive",
	"web.archive.org.au":       "Australian Web Archive",
}

// ArchiveForURL identifies the source archive behind a memento URL, falling
// back to the bare host when the archive is not in the lookup table.
func ArchiveForURL(mementoURL string) string {
	host, err := urlhandler.ExtractHostname(mementoURL)
	if err != nil {
		return "unknown"
	}
	for known, name := range knownArchiveHosts {
		if urlhandler.IsSameOrSubdomain(host, known) {
			return name
		}
	}
	return host
}
