package domain

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsSameDomain(t *testing.T) {
	tests := []struct {
		name     string
		baseHost string
		url      string
		want     bool
	}{
		{"exact host", "www.example.com", "https://www.example.com/about", true},
		{"subdomain", "example.com", "http://blog.example.com/post", true},
		{"scheme ignored", "www.example.com", "ftp://www.example.com/file", true},
		{"other site", "www.example.com", "https://www.other.com/", false},
		{"suffix without dot", "example.com", "https://badexample.com/", false},
		{"sibling of www host", "www.example.com", "https://blog.example.com/", false},
		{"port is part of host", "127.0.0.1:8080", "http://127.0.0.1:9090/", false},
		{"same port", "127.0.0.1:8080", "http://127.0.0.1:8080/a", true},
		{"case sensitive", "www.example.com", "https://WWW.EXAMPLE.COM/", false},
		{"mailto", "www.example.com", "mailto:info@www.example.com", false},
		{"relative", "www.example.com", "/about", false},
		{"empty base", "", "https://www.example.com/", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsSameDomain(tt.baseHost, tt.url))
		})
	}
}

func TestCanonicalURL(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"https://www.example.com", "https://www.example.com/"},
		{"https://www.example.com/a#top", "https://www.example.com/a"},
		{"https://www.example.com/a?x=1#frag", "https://www.example.com/a?x=1"},
		{"https://www.example.com/a/", "https://www.example.com/a/"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := CanonicalURL(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolve(t *testing.T) {
	page, err := url.Parse("https://www.example.com/docs/index.html")
	require.NoError(t, err)

	tests := []struct {
		href string
		want string
	}{
		{"/about", "https://www.example.com/about"},
		{"guide.html", "https://www.example.com/docs/guide.html"},
		{"../up", "https://www.example.com/up"},
		{"#section", "https://www.example.com/docs/index.html"},
		{"https://other.org", "https://other.org/"},
		{"  /trimmed  ", "https://www.example.com/trimmed"},
		{"mailto:me@example.com", "mailto:me@example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.href, func(t *testing.T) {
			got, err := Resolve(page, tt.href)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWithWWW(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"http://example.com/x", "http://www.example.com/x"},
		{"http://www.example.com", "http://www.example.com"},
		{"http://example.com:8080", "http://www.example.com:8080"},
		{"http://127.0.0.1:8080", "http://127.0.0.1:8080"},
		{"http://localhost:3000", "http://localhost:3000"},
		{"http://[::1]:3000", "http://[::1]:3000"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			u, err := url.Parse(tt.input)
			require.NoError(t, err)
			WithWWW(u)
			assert.Equal(t, tt.want, u.String())
		})
	}
}

func TestGetHost(t *testing.T) {
	host, err := GetHost("https://www.example.com:8443/path")
	require.NoError(t, err)
	assert.Equal(t, "www.example.com:8443", host)

	_, err = GetHost("/relative")
	assert.ErrorIs(t, err, ErrNoHost)
}

func TestGroupBySource(t *testing.T) {
	records := []DeadlinkRecord{
		{Source: "https://a/", Deadlink: "https://a/x"},
		{Source: "https://b/", Deadlink: "https://a/x"},
		{Source: "https://a/", Deadlink: "https://a/y"},
		{Source: "https://a/", Deadlink: "https://a/x"},
	}

	pages := GroupBySource(records)
	require.Len(t, pages, 2)
	assert.Equal(t, "https://a/", pages[0].URL)
	assert.Equal(t, 3, pages[0].DeadLinkCount)
	assert.Equal(t, []string{"https://a/x", "https://a/y", "https://a/x"}, pages[0].DeadLinks)
	assert.Equal(t, "https://b/", pages[1].URL)
	assert.Equal(t, 1, pages[1].DeadLinkCount)

	assert.Empty(t, GroupBySource(nil))
}
