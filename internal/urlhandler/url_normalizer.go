package urlhandler

import (
	"net/url"
	"strings"

	"github.com/webrewind/webrewind/internal/errorwrapper"
)

// URLNormalizationConfig configures URL normalization behavior.
type URLNormalizationConfig struct {
	// Strip fragments from URLs to avoid duplicates (e.g., #section)
	StripFragments bool
	// Strip a leading "www." from the host
	StripWWW bool
	// Strip common tracking parameters
	StripTrackingParams bool
}

// DefaultURLNormalizationConfig returns the default configuration.
func DefaultURLNormalizationConfig() URLNormalizationConfig {
	return URLNormalizationConfig{
		StripFragments:      true,
		StripWWW:            true,
		StripTrackingParams: true,
	}
}

// Common tracking parameters stripped during normalization.
var trackingParams = map[string]bool{
	"utm_source": true, "utm_medium": true, "utm_campaign": true,
	"utm_term": true, "utm_content": true,
	"fbclid": true, "gclid": true, "msclkid": true,
	"mc_cid": true, "mc_eid": true,
}

// URLNormalizer produces canonical URL keys for deduplication. Normalization
// is idempotent: normalize(normalize(u)) == normalize(u).
type URLNormalizer struct {
	config URLNormalizationConfig
}

// NewURLNormalizer creates a new URL normalizer.
func NewURLNormalizer(config URLNormalizationConfig) *URLNormalizer {
	return &URLNormalizer{config: config}
}

// Normalize lowercases the scheme and host, optionally strips "www.",
// fragments, and tracking parameters, and drops default ports.
func (un *URLNormalizer) Normalize(inputURL string) (string, error) {
	trimmed := strings.TrimSpace(inputURL)
	if trimmed == "" {
		return "", errorwrapper.NewValidationError("url", inputURL, "url cannot be empty")
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return "", errorwrapper.WrapError(err, "failed to parse URL")
	}

	parsed.Scheme = strings.ToLower(parsed.Scheme)
	host := strings.ToLower(parsed.Hostname())
	if un.config.StripWWW {
		host = strings.TrimPrefix(host, "www.")
	}
	if port := parsed.Port(); port != "" && !isDefaultPort(parsed.Scheme, port) {
		parsed.Host = host + ":" + port
	} else {
		parsed.Host = host
	}

	if un.config.StripFragments {
		parsed.Fragment = ""
	}
	if un.config.StripTrackingParams {
		stripQueryParameters(parsed)
	}
	if parsed.Path == "/" {
		parsed.Path = ""
	}

	return parsed.String(), nil
}

// stripQueryParameters removes tracking parameters from a parsed URL.
func stripQueryParameters(parsed *url.URL) {
	if parsed.RawQuery == "" {
		return
	}
	values := parsed.Query()
	modified := false
	for param := range values {
		if trackingParams[strings.ToLower(param)] {
			values.Del(param)
			modified = true
		}
	}
	if modified {
		parsed.RawQuery = values.Encode()
	}
}

func isDefaultPort(scheme, port string) bool {
	return (scheme == "http" && port == "80") || (scheme == "https" && port == "443")
}
