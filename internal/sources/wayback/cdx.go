package wayback

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"time"

	"github.com/webrewind/webrewind/internal/errorwrapper"
	"github.com/webrewind/webrewind/internal/httpclient"
	"github.com/webrewind/webrewind/internal/models"
	"github.com/webrewind/webrewind/internal/urlhandler"
)

// cdxFields is the stable field selection for every CDX query.
const cdxFields = "timestamp,original,statuscode,mimetype,digest"

type cdxQuery struct {
	url           string
	dateRange     urlhandler.DateRange
	limit         int
	includeErrors bool
	collapse      string
	closest       string // 14-digit target for /closest-style lookups
	matchType     string // "exact" (default), "prefix", "domain"
}

// queryCDX performs one CDX request and parses the JSON array-of-arrays
// response (first row is the header).
func (a *Adapter) queryCDX(ctx context.Context, q cdxQuery) ([]models.CDXRecord, error) {
	params := url.Values{}
	params.Set("url", q.url)
	params.Set("output", "json")
	params.Set("fl", cdxFields)
	if q.collapse != "" {
		params.Set("collapse", q.collapse)
	}
	if q.limit > 0 {
		params.Set("limit", strconv.Itoa(q.limit))
	}
	if q.matchType != "" {
		params.Set("matchType", q.matchType)
	}
	if !q.includeErrors {
		params.Set("filter", "!statuscode:[45]..")
	}
	if q.closest != "" {
		params.Set("closest", q.closest[:8])
		params.Set("sort", "closest")
	}
	if from, to := q.dateRange.ArchiveBounds(); from != "" || to != "" {
		if from != "" {
			params.Set("from", from[:8])
		}
		if to != "" {
			params.Set("to", to[:8])
		}
	}

	resp, err := httpclient.Do(ctx, a.client, httpclient.RequestOptions{
		URL:     a.config.CDXEndpoint + "?" + params.Encode(),
		Timeout: time.Duration(a.config.ListTimeoutSecs) * time.Second,
	})
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, errorwrapper.NewHTTPErrorWithURL(resp.StatusCode, "CDX query failed", q.url)
	}

	return parseCDXResponse(resp.Body)
}

// parseCDXResponse decodes the CDX JSON table. Malformed rows are skipped,
// never fatal.
func parseCDXResponse(body []byte) ([]models.CDXRecord, error) {
	if len(body) == 0 {
		return nil, nil
	}

	var rows [][]string
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, errorwrapper.WrapError(err, "failed to parse CDX response")
	}
	if len(rows) < 2 {
		return nil, nil
	}

	header := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		header[name] = i
	}

	records := make([]models.CDXRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rec, ok := rowToRecord(header, row)
		if !ok {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

func rowToRecord(header map[string]int, row []string) (models.CDXRecord, bool) {
	field := func(name string) string {
		idx, ok := header[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return row[idx]
	}

	rec := models.CDXRecord{
		URL:       field("original"),
		Timestamp: field("timestamp"),
		MIMEType:  field("mimetype"),
		Digest:    field("digest"),
	}
	if rec.URL == "" || rec.Timestamp == "" {
		return rec, false
	}
	if status := field("statuscode"); status != "" && status != "-" {
		code, err := strconv.Atoi(status)
		if err != nil {
			return rec, false
		}
		rec.StatusCode = code
	}
	return rec, true
}
