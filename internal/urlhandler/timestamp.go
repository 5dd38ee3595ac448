package urlhandler

import (
	"strings"
	"time"

	"github.com/webrewind/webrewind/internal/errorwrapper"
)

// Archive services use 14-digit YYYYMMDDhhmmss timestamps; callers supply
// dates as YYYY-MM-DD.

const (
	archiveTimestampLayout = "20060102150405"
	callerDateLayout       = "2006-01-02"
)

// DateRange bounds a query by caller-supplied dates. Zero values mean open.
type DateRange struct {
	From string // YYYY-MM-DD
	To   string // YYYY-MM-DD
}

// IsZero reports whether no bounds are set.
func (dr DateRange) IsZero() bool {
	return dr.From == "" && dr.To == ""
}

// Validate checks date formats and ordering. A range with From > To is a
// precondition violation: callers get an error, not an empty remote query.
func (dr DateRange) Validate() error {
	var from, to time.Time
	var err error
	if dr.From != "" {
		if from, err = time.Parse(callerDateLayout, dr.From); err != nil {
			return errorwrapper.NewValidationError("from", dr.From, "date must be YYYY-MM-DD")
		}
	}
	if dr.To != "" {
		if to, err = time.Parse(callerDateLayout, dr.To); err != nil {
			return errorwrapper.NewValidationError("to", dr.To, "date must be YYYY-MM-DD")
		}
	}
	if dr.From != "" && dr.To != "" && from.After(to) {
		return errorwrapper.NewValidationError("range", dr.From+".."+dr.To, "start date is after end date")
	}
	return nil
}

// ArchiveBounds converts the range to 14-digit archive timestamps
// (From floored to midnight, To ceiled to end of day).
func (dr DateRange) ArchiveBounds() (string, string) {
	var from, to string
	if dr.From != "" {
		from = strings.ReplaceAll(dr.From, "-", "") + "000000"
	}
	if dr.To != "" {
		to = strings.ReplaceAll(dr.To, "-", "") + "235959"
	}
	return from, to
}

// Contains reports whether a 14-digit timestamp falls inside the range.
// Used for client-side filtering when a service lacks native range support.
func (dr DateRange) Contains(timestamp string) bool {
	if dr.IsZero() {
		return true
	}
	from, to := dr.ArchiveBounds()
	if from != "" && timestamp < from {
		return false
	}
	if to != "" && padTimestamp(timestamp) > to {
		return false
	}
	return true
}

// ParseArchiveTimestamp parses a 14-digit archive timestamp into UTC time.
func ParseArchiveTimestamp(timestamp string) (time.Time, error) {
	padded := padTimestamp(timestamp)
	if len(padded) != 14 {
		return time.Time{}, errorwrapper.NewValidationError("timestamp", timestamp, "timestamp must be YYYYMMDDhhmmss")
	}
	parsed, err := time.Parse(archiveTimestampLayout, padded)
	if err != nil {
		return time.Time{}, errorwrapper.WrapError(err, "failed to parse archive timestamp")
	}
	return parsed.UTC(), nil
}

// FormatArchiveTimestamp renders a time as a 14-digit archive timestamp.
func FormatArchiveTimestamp(t time.Time) string {
	return t.UTC().Format(archiveTimestampLayout)
}

// padTimestamp right-pads short timestamps (e.g. "2024" or "20240131") with
// zeros up to the full 14 digits.
func padTimestamp(timestamp string) string {
	if len(timestamp) >= 14 {
		return timestamp[:14]
	}
	return timestamp + strings.Repeat("0", 14-len(timestamp))
}
