package urlhandler

import (
	"net/url"
	"strings"

	"github.com/webrewind/webrewind/internal/errorwrapper"
)

// ExtractHostname returns the lowercased hostname of a URL, accepting bare
// hosts ("example.com") as well as full URLs.
func ExtractHostname(rawURL string) (string, error) {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return "", errorwrapper.NewValidationError("url", rawURL, "url cannot be empty")
	}

	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return "", errorwrapper.WrapError(err, "failed to parse URL")
	}
	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		return "", errorwrapper.NewValidationError("url", rawURL, "url has no hostname")
	}
	return host, nil
}

// RegistrableHost strips a leading "www." from a hostname.
func RegistrableHost(host string) string {
	return strings.TrimPrefix(strings.ToLower(host), "www.")
}

// IsSameOrSubdomain reports whether host is domain itself or one of its
// subdomains. Both sides are compared case-insensitively with "www." ignored.
func IsSameOrSubdomain(host, domain string) bool {
	h := RegistrableHost(host)
	d := RegistrableHost(domain)
	return h == d || strings.HasSuffix(h, "."+d)
}

// ResolveURL resolves a possibly relative href against a base URL and returns
// the absolute http(s) form, or an empty string when resolution is impossible.
func ResolveURL(href string, base *url.URL) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	resolved := base.ResolveReference(ref)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	resolved.Fragment = ""
	return resolved.String()
}

// HasDocumentExtension reports whether the URL path ends in a document
// extension. The streaming search engine boosts these snapshots.
func HasDocumentExtension(rawURL string) bool {
	path := rawURL
	if idx := strings.IndexAny(path, "?#"); idx >= 0 {
		path = path[:idx]
	}
	path = strings.ToLower(path)
	for _, ext := range documentExtensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

var documentExtensions = []string{
	".pdf", ".doc", ".docx", ".xls", ".xlsx", ".ppt", ".pptx", ".rtf", ".odt", ".csv",
}
