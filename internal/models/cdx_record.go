package models

// CDXRecord is one capture record from a CDX-style index server
// (Wayback or CommonCrawl).
type CDXRecord struct {
	URL          string `json:"url"`
	Timestamp    string `json:"timestamp"`
	StatusCode   int    `json:"status"`
	MIMEType     string `json:"mime"`
	Digest       string `json:"digest,omitempty"`
	WARCFilename string `json:"filename,omitempty"`
	WARCOffset   int64  `json:"offset,omitempty"`
	WARCLength   int64  `json:"length,omitempty"`
}

// ToSnapshot converts a CDX record into a Snapshot tagged with the given source.
func (r *CDXRecord) ToSnapshot(source ArchiveSource, viewURL string) Snapshot {
	return Snapshot{
		URL:        r.URL,
		Timestamp:  r.Timestamp,
		Source:     source,
		StatusCode: r.StatusCode,
		MIMEType:   r.MIMEType,
		Digest:     r.Digest,
		ViewURL:    viewURL,
	}
}

// IndexBlock is one entry in CommonCrawl's cluster.idx: the data for the block
// is a gzip-compressed NDJSON range inside the named shard file.
type IndexBlock struct {
	SURTKey string
	Shard   string
	Offset  int64
	Length  int64
}
