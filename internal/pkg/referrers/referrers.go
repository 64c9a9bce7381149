// Package referrers normalizes referrer domains into traffic source names.
package referrers

import "strings"

// Direct is the bucket for sessions with no referrer domain at all.
// Unlike the other breakdowns, absence is meaningful here and is shown,
// not excluded.
const Direct = "Direct"

// sourceFragment maps a known domain fragment to its display name.
// Matching is substring-based so regional variants (google.co.uk,
// m.facebook.com, l.instagram.com) collapse into one source.
type sourceFragment struct {
	fragment string
	name     string
}

// knownSources is checked in order; first match wins
var knownSources = []sourceFragment{
	{"google", "Google"},
	{"bing", "Bing"},
	{"yahoo", "Yahoo"},
	{"facebook", "Facebook"},
	{"twitter", "X/Twitter"},
	{"x.com", "X/Twitter"},
	{"t.co", "X/Twitter"},
	{"linkedin", "LinkedIn"},
	{"instagram", "Instagram"},
}

// SourceName maps a referrer domain to its normalized source name.
// An unmatched non-empty domain passes through unchanged; an empty domain
// is direct traffic.
func SourceName(referrerDomain string) string {
	domain := strings.ToLower(strings.TrimSpace(referrerDomain))
	if domain == "" {
		return Direct
	}

	for _, source := range knownSources {
		if matchesFragment(domain, source.fragment) {
			return source.name
		}
	}
	return domain
}

// matchesFragment does substring matching for bare word fragments.
// Fragments that are themselves a domain (x.com, t.co) match only as the
// domain or one of its subdomains, so netflix.com does not classify as
// X/Twitter.
func matchesFragment(domain, fragment string) bool {
	if strings.Contains(fragment, ".") {
		return domain == fragment || strings.HasSuffix(domain, "."+fragment)
	}
	return strings.Contains(domain, fragment)
}
