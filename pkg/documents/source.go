package documents

import (
	"net/url"
	"strings"

	"github.com/weppos/publicsuffix-go/publicsuffix"
)

// LocalSource is the source label of documents read from the filesystem.
const LocalSource = "local"

// SourceDomain returns the registrable domain the document is published on,
// e.g. "https://www.finra.org/rules-guidance/rulebooks/finra-rules/2010" ->
// "finra.org". Non-http locators are reported as LocalSource.
func (d Document) SourceDomain() string {
	return SourceDomain(d.Locator)
}

// SourceDomain is the locator form of Document.SourceDomain.
func SourceDomain(locator string) string {
	u, err := url.Parse(strings.TrimSpace(locator))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return LocalSource
	}
	host := strings.ToLower(u.Hostname())
	if !strings.Contains(host, ".") {
		return host
	}
	domain, err := publicsuffix.Domain(host)
	if err != nil {
		return host
	}
	return domain
}

// IsRemote reports whether the locator is fetched over HTTP.
func IsRemote(locator string) bool {
	l := strings.ToLower(strings.TrimSpace(locator))
	return strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://")
}
