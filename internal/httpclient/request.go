package httpclient

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// RequestOptions shape one outbound request made through Do.
type RequestOptions struct {
	Method    string
	URL       string
	Headers   map[string]string
	Body      io.Reader
	Timeout   time.Duration // per-request deadline layered over the client timeout
	UserAgent string
	// RangeBytes issues a Range header for the first N bytes when positive
	// (the ghost fetch path).
	RangeBytes int
	// MaxBodyBytes caps how much of the response body is read; zero means 10 MB.
	MaxBodyBytes int64
}

// Response is the decoded outcome of one request.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

const defaultMaxBodyBytes = 10 << 20

// Do performs one HTTP request with the shared client, honoring context
// cancellation at every suspension point and bounding the body read.
func Do(ctx context.Context, client *http.Client, opts RequestOptions) (*Response, error) {
	if opts.Method == "" {
		opts.Method = http.MethodGet
	}
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, opts.Method, opts.URL, opts.Body)
	if err != nil {
		return nil, err
	}
	if opts.UserAgent != "" {
		req.Header.Set("User-Agent", opts.UserAgent)
	}
	for key, value := range opts.Headers {
		req.Header.Set(key, value)
	}
	if opts.RangeBytes > 0 {
		req.Header.Set("Range", "bytes=0-"+strconv.Itoa(opts.RangeBytes-1))
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	limit := opts.MaxBodyBytes
	if limit <= 0 {
		limit = defaultMaxBodyBytes
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		// A partial body from a cut range read is still usable; surface what arrived.
		if len(body) == 0 {
			return nil, err
		}
	}

	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: body}, nil
}

// IsSuccess reports whether the response carries a 2xx status.
func (r *Response) IsSuccess() bool {
	return r != nil && r.StatusCode >= 200 && r.StatusCode < 300
}

// ContentType returns the media type without parameters.
func (r *Response) ContentType() string {
	ct := r.Header.Get("Content-Type")
	if idx := strings.IndexByte(ct, ';'); idx >= 0 {
		ct = ct[:idx]
	}
	return strings.TrimSpace(ct)
}
