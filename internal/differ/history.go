package differ

import (
	"context"
	"sort"

	"github.com/webrewind/webrewind/internal/errorwrapper"
	"github.com/webrewind/webrewind/internal/models"
	"github.com/webrewind/webrewind/internal/sources"
	"github.com/webrewind/webrewind/internal/urlhandler"
)

// PageHistory walks one URL's captures in ascending timestamp order and
// scores every consecutive pair whose content actually differs. Pairs whose
// archive digests already match are skipped without fetching.
func (d *Differ) PageHistory(ctx context.Context, url string, dateRange urlhandler.DateRange) ([]models.PageChange, error) {
	snapshots, err := d.fetcher.ListSnapshots(ctx, url, sources.ListOptions{DateRange: dateRange})
	if err != nil {
		return nil, err
	}
	if len(snapshots) < 2 {
		return nil, nil
	}
	sort.Slice(snapshots, func(a, b int) bool {
		return snapshots[a].Timestamp < snapshots[b].Timestamp
	})

	var changes []models.PageChange
	prevText := ""
	prevFetched := false
	for i := 1; i < len(snapshots); i++ {
		if ctx.Err() != nil {
			return changes, ctx.Err()
		}
		prev, curr := snapshots[i-1], snapshots[i]
		if prev.Digest != "" && prev.Digest == curr.Digest {
			prevFetched = false
			continue
		}

		if !prevFetched {
			prevText = d.fetchText(ctx, url, prev.Timestamp)
		}
		currText := d.fetchText(ctx, url, curr.Timestamp)

		change := d.ComparePages(url, prev.Timestamp, curr.Timestamp, prevText, currText)
		if change.FromHash != change.ToHash {
			changes = append(changes, change)
		}

		prevText = currText
		prevFetched = true
	}
	return changes, nil
}

// ChangeAppeared and ChangeDisappeared select the direction of a content
// change search.
const (
	ChangeAppeared    = "appeared"
	ChangeDisappeared = "disappeared"
)

// FindContentChange locates when a piece of text first appeared on (or
// disappeared from) a domain, by sampling the archive timeline.
func (d *Differ) FindContentChange(ctx context.Context, domain, text, changeType string) (*models.ContentChangeResult, error) {
	if text == "" {
		return nil, errorwrapper.NewValidationError("text", text, "search text cannot be empty")
	}
	if changeType != ChangeAppeared && changeType != ChangeDisappeared {
		return nil, errorwrapper.NewValidationError("change_type", changeType, "change type must be appeared or disappeared")
	}

	domainMap, err := d.mapper.MapDomain(ctx, domain, d.mapFilters(urlhandler.DateRange{}))
	if err != nil {
		return nil, err
	}

	result := &models.ContentChangeResult{
		Domain:     domainMap.Domain,
		Text:       text,
		ChangeType: changeType,
	}

	observations := d.scanTimeline(ctx, domainMap.URLs, text)
	if len(observations) == 0 {
		return result, ctx.Err()
	}

	switch changeType {
	case ChangeAppeared:
		for i, obs := range observations {
			if obs.found && (i == 0 || !observations[i-1].found) {
				result.Found = true
				result.Timestamp = obs.timestamp
				result.URL = obs.url
				result.SurroundingText = obs.context
				return result, nil
			}
		}
	case ChangeDisappeared:
		present := false
		for _, obs := range observations {
			if obs.found {
				present = true
				continue
			}
			if present {
				result.Found = true
				result.Timestamp = obs.timestamp
				return result, nil
			}
		}
	}
	return result, ctx.Err()
}
