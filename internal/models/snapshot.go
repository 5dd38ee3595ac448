package models

import "sort"

// Snapshot is a single observation of a URL at one time by one archive.
type Snapshot struct {
	URL        string        `json:"url"`
	Timestamp  string        `json:"timestamp"` // 14-digit YYYYMMDDhhmmss
	Source     ArchiveSource `json:"source"`
	StatusCode int           `json:"status_code,omitempty"`
	MIMEType   string        `json:"mime_type,omitempty"`
	Digest     string        `json:"digest,omitempty"`
	ViewURL    string        `json:"view_url,omitempty"` // where the capture can be viewed in the source archive
}

// Year returns the four-digit year of the capture, or empty when the timestamp is malformed.
func (s *Snapshot) Year() string {
	if len(s.Timestamp) < 4 {
		return ""
	}
	return s.Timestamp[:4]
}

// DedupKey identifies equivalent captures across archives: by digest when
// present, otherwise by (URL, day-truncated timestamp).
func (s *Snapshot) DedupKey() string {
	if s.Digest != "" {
		return s.Digest
	}
	ts := s.Timestamp
	if len(ts) > 8 {
		ts = ts[:8]
	}
	return s.URL + "@" + ts
}

// SortSnapshotsDesc orders snapshots newest-first.
func SortSnapshotsDesc(snapshots []Snapshot) {
	sort.SliceStable(snapshots, func(i, j int) bool {
		return snapshots[i].Timestamp > snapshots[j].Timestamp
	})
}

// SortSnapshotsAsc orders snapshots oldest-first.
func SortSnapshotsAsc(snapshots []Snapshot) {
	sort.SliceStable(snapshots, func(i, j int) bool {
		return snapshots[i].Timestamp < snapshots[j].Timestamp
	})
}

// DedupSnapshots drops equivalent captures, keeping the first occurrence.
func DedupSnapshots(snapshots []Snapshot) []Snapshot {
	seen := make(map[string]struct{}, len(snapshots))
	out := snapshots[:0]
	for _, snap := range snapshots {
		key := snap.DedupKey()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, snap)
	}
	return out
}
