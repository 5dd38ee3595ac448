package commoncrawl

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/url"
	"strconv"

	"github.com/webrewind/webrewind/internal/errorwrapper"
	"github.com/webrewind/webrewind/internal/httpclient"
	"github.com/webrewind/webrewind/internal/models"
	"github.com/webrewind/webrewind/internal/urlhandler"
)

// cdxLine is one record from the CommonCrawl CDX server. Every field arrives
// as a string on the wire.
type cdxLine struct {
	URL       string `json:"url"`
	Timestamp string `json:"timestamp"`
	Status    string `json:"status"`
	MIME      string `json:"mime"`
	Digest    string `json:"digest"`
	Filename  string `json:"filename"`
	Offset    string `json:"offset"`
	Length    string `json:"length"`
}

func (l cdxLine) toRecord() models.CDXRecord {
	rec := models.CDXRecord{
		URL:          l.URL,
		Timestamp:    l.Timestamp,
		MIMEType:     l.MIME,
		Digest:       l.Digest,
		WARCFilename: l.Filename,
	}
	if status, err := strconv.Atoi(l.Status); err == nil {
		rec.StatusCode = status
	}
	if offset, err := strconv.ParseInt(l.Offset, 10, 64); err == nil {
		rec.WARCOffset = offset
	}
	if length, err := strconv.ParseInt(l.Length, 10, 64); err == nil {
		rec.WARCLength = length
	}
	return rec
}

// queryCDXServer performs one lookup against the hosted CDX API
// ({ARCHIVE}-index?url=...&output=json). The response is newline-separated
// JSON, one record per line; malformed lines are skipped.
func (a *IndexAdapter) queryCDXServer(ctx context.Context, archive, targetURL string, dateRange urlhandler.DateRange, limit int) ([]models.CDXRecord, error) {
	params := url.Values{}
	params.Set("url", targetURL)
	params.Set("output", "json")
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	if from, to := dateRange.ArchiveBounds(); from != "" || to != "" {
		if from != "" {
			params.Set("from", from)
		}
		if to != "" {
			params.Set("to", to)
		}
	}

	endpoint := a.config.IndexServerURL + "/" + archive + "-index?" + params.Encode()
	resp, err := httpclient.Do(ctx, a.client, httpclient.RequestOptions{URL: endpoint})
	if err != nil {
		return nil, err
	}
	// The CDX server answers 404 for URLs it has never seen.
	if resp.StatusCode == 404 {
		return nil, nil
	}
	if !resp.IsSuccess() {
		return nil, errorwrapper.NewHTTPErrorWithURL(resp.StatusCode, "CDX server query failed", targetURL)
	}

	return parseCDXLines(resp.Body), nil
}

// parseCDXLines decodes newline-separated JSON records, skipping bad lines.
func parseCDXLines(body []byte) []models.CDXRecord {
	var records []models.CDXRecord
	scanner := bufio.NewScanner(bytes.NewReader(body))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var parsed cdxLine
		if err := json.Unmarshal(line, &parsed); err != nil {
			continue
		}
		if parsed.URL == "" || parsed.Timestamp == "" {
			continue
		}
		records = append(records, parsed.toRecord())
	}
	return records
}
