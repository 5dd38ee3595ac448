package differ

import (
	"context"
	"sort"

	"github.com/webrewind/webrewind/internal/config"
	"github.com/webrewind/webrewind/internal/models"
	"github.com/webrewind/webrewind/internal/urlhandler"
)

// DomainEvolution maps the whole domain, groups URLs by capture year, and
// reports what appeared and disappeared between consecutive observed years.
func (d *Differ) DomainEvolution(ctx context.Context, domain string) (*models.DomainEvolution, error) {
	domainMap, err := d.mapper.MapDomain(ctx, domain, d.mapFilters(urlhandler.DateRange{}))
	if err != nil {
		return nil, err
	}

	byYear := make(map[string]map[string]struct{})
	for _, u := range domainMap.URLs {
		if len(u.Timestamp) < 4 {
			continue
		}
		year := u.Timestamp[:4]
		if byYear[year] == nil {
			byYear[year] = make(map[string]struct{})
		}
		byYear[year][u.URL] = struct{}{}
	}

	years := make([]string, 0, len(byYear))
	for year := range byYear {
		years = append(years, year)
	}
	sort.Strings(years)

	evolution := &models.DomainEvolution{
		Domain:       domainMap.Domain,
		EarliestSeen: domainMap.Stats.EarliestSeen,
		LatestSeen:   domainMap.Stats.LatestSeen,
	}

	sampleCap := d.config.MaxSampleURLs
	if sampleCap <= 0 {
		sampleCap = config.DefaultMaxSampleURLs
	}
	listCap := d.config.MaxChangeListEntries
	if listCap <= 0 {
		listCap = config.DefaultMaxChangeListEntries
	}

	for i, year := range years {
		urls := byYear[year]
		period := models.EvolutionPeriod{Year: year, URLCount: len(urls)}
		for _, u := range sortedURLs(urls) {
			if len(period.SampleURLs) >= sampleCap {
				break
			}
			period.SampleURLs = append(period.SampleURLs, u)
		}
		evolution.Periods = append(evolution.Periods, period)

		if i == 0 {
			continue
		}
		previous := byYear[years[i-1]]
		for _, u := range sortedURLs(urls) {
			if _, existed := previous[u]; existed {
				continue
			}
			evolution.TotalAdded++
			if len(evolution.PagesAdded) < listCap {
				evolution.PagesAdded = append(evolution.PagesAdded, u)
			}
		}
		for _, u := range sortedURLs(previous) {
			if _, still := urls[u]; still {
				continue
			}
			evolution.TotalRemoved++
			if len(evolution.PagesRemoved) < listCap {
				evolution.PagesRemoved = append(evolution.PagesRemoved, u)
			}
		}
	}
	return evolution, nil
}

// sortedURLs gives set iteration a stable order so samples and change lists
// are deterministic across runs.
func sortedURLs(set map[string]struct{}) []string {
	urls := make([]string, 0, len(set))
	for u := range set {
		urls = append(urls, u)
	}
	sort.Strings(urls)
	return urls
}
