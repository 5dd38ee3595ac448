package httpclient

import (
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/webrewind/webrewind/internal/config"
	"github.com/webrewind/webrewind/internal/errorwrapper"
	"golang.org/x/net/http2"
)

// NewSharedClient builds the one pooled HTTP client every adapter consumes.
// Adapters allocate a private client only when none is injected (test path).
func NewSharedClient(cfg config.HTTPClientConfig, logger zerolog.Logger) (*http.Client, error) {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          cfg.MaxIdleConns,
		MaxIdleConnsPerHost:   cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	if cfg.EnableHTTP2 {
		if err := http2.ConfigureTransport(transport); err != nil {
			return nil, errorwrapper.WrapError(err, "failed to enable HTTP/2")
		}
	}

	client := &http.Client{
		Transport: transport,
		Timeout:   time.Duration(cfg.TimeoutSecs) * time.Second,
	}

	if !cfg.FollowRedirects {
		client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		}
	} else if cfg.MaxRedirects > 0 {
		maxRedirects := cfg.MaxRedirects
		client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return http.ErrUseLastResponse
			}
			return nil
		}
	}

	logger.Debug().
		Int("timeout_secs", cfg.TimeoutSecs).
		Int("max_idle_conns", cfg.MaxIdleConns).
		Bool("http2", cfg.EnableHTTP2).
		Msg("Shared HTTP client created")

	return client, nil
}
