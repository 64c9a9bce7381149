package referrers_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"sitepulse/internal/pkg/referrers"
)

func TestSourceName(t *testing.T) {
	tests := []struct {
		domain string
		want   string
	}{
		{"google.com", "Google"},
		{"www.google.co.uk", "Google"},
		{"bing.com", "Bing"},
		{"search.yahoo.com", "Yahoo"},
		{"m.facebook.com", "Facebook"},
		{"twitter.com", "X/Twitter"},
		{"x.com", "X/Twitter"},
		{"t.co", "X/Twitter"},
		{"linkedin.com", "LinkedIn"},
		{"l.instagram.com", "Instagram"},
		{"news.ycombinator.com", "news.ycombinator.com"},
		{"netflix.com", "netflix.com"},
		{"Example.COM", "example.com"},
		{"", referrers.Direct},
		{"   ", referrers.Direct},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, referrers.SourceName(tc.domain), "domain %q", tc.domain)
	}
}
