package urlhandler

import (
	"strings"

	"github.com/webrewind/webrewind/internal/errorwrapper"
)

// SURT (Sort-friendly URI Reordering Transform) reverses hostname labels and
// joins them with commas so that all URLs of a domain and its subdomains sort
// together in CommonCrawl's cluster index. For "api.example.com" the SURT is
// "com,example,api".

// SURTKey converts a hostname to its SURT form: downcase, drop a leading
// "www.", split on ".", reverse, join with ",".
func SURTKey(host string) (string, error) {
	h := RegistrableHost(strings.TrimSpace(host))
	if h == "" {
		return "", errorwrapper.NewValidationError("host", host, "host cannot be empty")
	}
	labels := strings.Split(h, ".")
	for i, j := 0, len(labels)-1; i < j; i, j = i+1, j-1 {
		labels[i], labels[j] = labels[j], labels[i]
	}
	return strings.Join(labels, ","), nil
}

// SURTPrefix returns the lookup prefix for a domain root, i.e. the SURT key
// with the closing ")" appended: "com,example)".
func SURTPrefix(host string) (string, error) {
	key, err := SURTKey(host)
	if err != nil {
		return "", err
	}
	return key + ")", nil
}

// HostFromSURT reverses a SURT key (with or without the ")/path" suffix) back
// into the original hostname, modulo case.
func HostFromSURT(surt string) string {
	if idx := strings.IndexByte(surt, ')'); idx >= 0 {
		surt = surt[:idx]
	}
	labels := strings.Split(surt, ",")
	for i, j := 0, len(labels)-1; i < j; i, j = i+1, j-1 {
		labels[i], labels[j] = labels[j], labels[i]
	}
	return strings.Join(labels, ".")
}

// SURTMatchesDomain applies the boundary check on a raw cluster-index key: the
// character immediately after the domain's SURT key must be ")" or "," so that
// "com,example" never matches "com,examplecompany". Omitting this check yields
// silent false positives.
func SURTMatchesDomain(surtKey, domainSURT string) bool {
	if !strings.HasPrefix(surtKey, domainSURT) {
		return false
	}
	if len(surtKey) == len(domainSURT) {
		return true
	}
	next := surtKey[len(domainSURT)]
	return next == ')' || next == ','
}
