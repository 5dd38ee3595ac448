package differ

import (
	"context"
	"sort"
	"strings"

	"github.com/webrewind/webrewind/internal/config"
	"github.com/webrewind/webrewind/internal/extractor"
	"github.com/webrewind/webrewind/internal/models"
)

const surroundingTextRadius = 100

// observation is one sampled timestamp's verdict: was the text visible on any
// of that timestamp's sampled pages.
type observation struct {
	timestamp string
	found     bool
	url       string
	context   string
}

// scanTimeline samples the domain's capture timestamps uniformly and probes a
// few URLs at each for the search text. Observations come back in ascending
// timestamp order. Small timelines are scanned exhaustively.
func (d *Differ) scanTimeline(ctx context.Context, urls []models.DiscoveredURL, text string) []observation {
	byTimestamp := make(map[string][]string)
	for _, u := range urls {
		if u.Timestamp == "" {
			continue
		}
		byTimestamp[u.Timestamp] = append(byTimestamp[u.Timestamp], u.URL)
	}
	if len(byTimestamp) == 0 {
		return nil
	}

	timestamps := make([]string, 0, len(byTimestamp))
	for ts := range byTimestamp {
		timestamps = append(timestamps, ts)
	}
	sort.Strings(timestamps)

	samples := d.config.TimestampSamples
	if samples <= 0 {
		samples = config.DefaultTimestampSamples
	}
	stride := len(timestamps) / samples
	if stride < 1 {
		stride = 1
	}

	urlsPer := d.config.URLsPerTimestamp
	if urlsPer <= 0 {
		urlsPer = config.DefaultURLsPerTimestamp
	}
	needle := strings.ToLower(text)

	var observations []observation
	for i := 0; i < len(timestamps); i += stride {
		if ctx.Err() != nil {
			return observations
		}
		ts := timestamps[i]
		obs := observation{timestamp: ts}
		candidates := byTimestamp[ts]
		if len(candidates) > urlsPer {
			candidates = candidates[:urlsPer]
		}
		for _, u := range candidates {
			pageText := d.fetchText(ctx, u, ts)
			if pageText == "" {
				continue
			}
			if idx := strings.Index(strings.ToLower(pageText), needle); idx >= 0 {
				obs.found = true
				obs.url = u
				obs.context = extractor.Snippet(pageText, idx, surroundingTextRadius)
				break
			}
		}
		observations = append(observations, obs)
	}
	return observations
}
