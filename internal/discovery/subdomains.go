package discovery

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/webrewind/webrewind/internal/errorwrapper"
	"github.com/webrewind/webrewind/internal/models"
)

// SubdomainSource enumerates hostnames under a registrable domain. crt.sh is
// the only implementation that talks to a real service; the commercial
// providers are declared but report unavailable until wired to credentials
// and client code.
type SubdomainSource interface {
	Name() string
	Available() bool
	Enumerate(ctx context.Context, domain string) ([]string, error)
}

// Enumerate implements SubdomainSource on top of the certificate transparency
// source.
func (s *CrtShSource) Enumerate(ctx context.Context, domain string) ([]string, error) {
	urls, err := s.Discover(ctx, domain, Options{})
	if err != nil {
		return nil, err
	}
	hosts := make([]string, 0, len(urls))
	for _, d := range urls {
		if d.Subdomain != "" {
			hosts = append(hosts, d.Subdomain+"."+domain)
		}
	}
	return hosts, nil
}

// stubSubdomainSource is a declared-but-not-wired provider. Enumerate returns
// the unavailable sentinel so callers that ignore Available() still get a
// classified error.
type stubSubdomainSource struct {
	name   string
	logger zerolog.Logger
}

func (s *stubSubdomainSource) Name() string    { return s.name }
func (s *stubSubdomainSource) Available() bool { return false }

func (s *stubSubdomainSource) Enumerate(context.Context, string) ([]string, error) {
	return nil, errorwrapper.ErrSourceUnavailable
}

// NewSublist3rSource returns the Sublist3r provider stub.
func NewSublist3rSource(logger zerolog.Logger) SubdomainSource {
	return &stubSubdomainSource{name: "sublist3r", logger: logger}
}

// NewDNSDumpsterSource returns the DNSDumpster provider stub.
func NewDNSDumpsterSource(logger zerolog.Logger) SubdomainSource {
	return &stubSubdomainSource{name: "dnsdumpster", logger: logger}
}

// NewWhoisXMLSource returns the WhoisXML provider stub.
func NewWhoisXMLSource(logger zerolog.Logger) SubdomainSource {
	return &stubSubdomainSource{name: "whoisxml", logger: logger}
}

// SubdomainDiscovery adapts any SubdomainSource to the discovery contract so
// the mapper can merge subdomain enumerations with the URL streams.
type SubdomainDiscovery struct {
	inner SubdomainSource
}

// NewSubdomainDiscovery wraps a subdomain enumerator as a discovery source.
func NewSubdomainDiscovery(inner SubdomainSource) *SubdomainDiscovery {
	return &SubdomainDiscovery{inner: inner}
}

// Name implements Source.
func (s *SubdomainDiscovery) Name() string { return s.inner.Name() }

// Available implements Source.
func (s *SubdomainDiscovery) Available() bool { return s.inner.Available() }

// Discover enumerates subdomains and emits one https root URL each.
func (s *SubdomainDiscovery) Discover(ctx context.Context, domain string, opts Options) ([]models.DiscoveredURL, error) {
	hosts, err := s.inner.Enumerate(ctx, domain)
	if err != nil {
		return nil, err
	}
	urls := make([]models.DiscoveredURL, 0, len(hosts))
	for _, host := range hosts {
		urls = append(urls, newDiscovered("https://"+host+"/", domain, s.Name(), ""))
		if opts.Limit > 0 && len(urls) >= opts.Limit {
			break
		}
	}
	return urls, nil
}
