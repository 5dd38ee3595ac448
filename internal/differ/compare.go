package differ

import (
	"context"
	"sort"

	"github.com/webrewind/webrewind/internal/config"
	"github.com/webrewind/webrewind/internal/models"
	"github.com/webrewind/webrewind/internal/urlhandler"
)

// ComparePeriods maps the domain once per period and reports the set algebra
// between the two URL populations. With compareContent set, up to the
// configured number of common URLs are fetched at both periods' timestamps
// and scored.
func (d *Differ) ComparePeriods(ctx context.Context, domain string, period1, period2 urlhandler.DateRange, compareContent bool) (*models.PeriodComparison, error) {
	if err := period1.Validate(); err != nil {
		return nil, err
	}
	if err := period2.Validate(); err != nil {
		return nil, err
	}

	map1, err := d.mapper.MapDomain(ctx, domain, d.mapFilters(period1))
	if err != nil {
		return nil, err
	}
	map2, err := d.mapper.MapDomain(ctx, domain, d.mapFilters(period2))
	if err != nil {
		return nil, err
	}

	ts1 := urlTimestamps(map1.URLs)
	ts2 := urlTimestamps(map2.URLs)

	comparison := &models.PeriodComparison{
		Domain:       map1.Domain,
		Period1:      periodLabel(period1),
		Period2:      periodLabel(period2),
		Period1Count: len(ts1),
		Period2Count: len(ts2),
	}
	for _, u := range sortedKeys(ts2) {
		if _, existed := ts1[u]; existed {
			comparison.URLsCommon = append(comparison.URLsCommon, u)
		} else {
			comparison.URLsAdded = append(comparison.URLsAdded, u)
		}
	}
	for _, u := range sortedKeys(ts1) {
		if _, still := ts2[u]; !still {
			comparison.URLsRemoved = append(comparison.URLsRemoved, u)
		}
	}

	if !compareContent || len(comparison.URLsCommon) == 0 {
		return comparison, nil
	}

	sampleCap := d.config.MaxSampledPages
	if sampleCap <= 0 {
		sampleCap = config.DefaultMaxSampledPages
	}
	for _, u := range comparison.URLsCommon {
		if len(comparison.PageChanges) >= sampleCap {
			break
		}
		if ctx.Err() != nil {
			return comparison, ctx.Err()
		}
		fromText := d.fetchText(ctx, u, ts1[u])
		toText := d.fetchText(ctx, u, ts2[u])
		if fromText == "" && toText == "" {
			continue
		}
		comparison.PageChanges = append(comparison.PageChanges, d.ComparePages(u, ts1[u], ts2[u], fromText, toText))
	}
	return comparison, nil
}

// urlTimestamps keeps one capture timestamp per URL, preferring the earliest
// so both periods anchor near their start.
func urlTimestamps(urls []models.DiscoveredURL) map[string]string {
	out := make(map[string]string, len(urls))
	for _, u := range urls {
		if u.Timestamp == "" {
			continue
		}
		if existing, ok := out[u.URL]; !ok || u.Timestamp < existing {
			out[u.URL] = u.Timestamp
		}
	}
	return out
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func periodLabel(r urlhandler.DateRange) string {
	if r.To == "" {
		return r.From
	}
	return r.From + ".." + r.To
}
