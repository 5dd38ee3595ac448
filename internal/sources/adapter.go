package sources

import (
	"context"
	"time"

	"github.com/webrewind/webrewind/internal/models"
	"github.com/webrewind/webrewind/internal/urlhandler"
)

// FetchOptions shape a single-URL retrieval.
type FetchOptions struct {
	// Timestamp pins a specific 14-digit capture; empty means newest available.
	Timestamp string
	DateRange urlhandler.DateRange
	Timeout   time.Duration
}

// ListOptions shape a snapshot enumeration.
type ListOptions struct {
	DateRange urlhandler.DateRange
	Limit     int
	// IncludeErrors keeps 4xx/5xx captures in the listing.
	IncludeErrors bool
}

// Adapter is the capability contract every archive source implements. Not all
// adapters implement every capability; unsupported ones fail with
// errorwrapper.ErrUnsupportedOperation. Adapters never raise on network or
// 5xx failures: they log at debug and return an empty result.
type Adapter interface {
	// Source returns the provenance tag attached to every result.
	Source() models.ArchiveSource
	// Available reports whether the adapter has its prerequisites (API key,
	// binary, reachable endpoint config). Unavailable adapters are no-ops.
	Available() bool
	// Fetch retrieves one archived copy of the URL.
	Fetch(ctx context.Context, url string, opts FetchOptions) (*models.FetchResult, error)
	// Exists reports whether the archive holds any capture of the URL.
	Exists(ctx context.Context, url string, dateRange urlhandler.DateRange) (bool, error)
	// ListSnapshots enumerates captures of the URL, newest first.
	ListSnapshots(ctx context.Context, url string, opts ListOptions) ([]models.Snapshot, error)
}
