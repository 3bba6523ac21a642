package domain

import (
	"errors"
	"net"
	"net/url"
	"strings"
)

var ErrNoHost = errors.New("URL has no host")

// GetHost returns the host of a given URL exactly as written, port included.
func GetHost(u string) (string, error) {
	parsedUrl, err := url.Parse(u)
	if err != nil {
		return "", errors.New("error parsing URL")
	}
	if parsedUrl.Host == "" {
		return "", ErrNoHost
	}
	return parsedUrl.Host, nil
}

// IsSameDomain reports whether u is hosted on baseHost or one of its subdomains.
func IsSameDomain(baseHost string, u string) bool {
	host, err := GetHost(u)
	if err != nil || baseHost == "" {
		return false
	}
	// Subdomains must end on a label boundary: "badexample.com" is not
	// in scope for "example.com".
	return host == baseHost || strings.HasSuffix(host, "."+baseHost)
}

// CanonicalURL returns the form of u used as a dedupe key: the fragment is
// dropped and an empty path becomes "/".
func CanonicalURL(u string) (string, error) {
	parsedUrl, err := url.Parse(u)
	if err != nil {
		return "", err
	}
	return canonical(parsedUrl), nil
}

// Resolve resolves href against the page it was found on and returns the
// canonical absolute URL.
func Resolve(page *url.URL, href string) (string, error) {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", err
	}
	return canonical(page.ResolveReference(ref)), nil
}

// WithWWW prefixes the host with "www." unless it already has it. IP
// addresses and localhost are left alone.
func WithWWW(u *url.URL) {
	hostname := u.Hostname()
	if hostname == "" || hostname == "localhost" || strings.HasPrefix(hostname, "www.") {
		return
	}
	if net.ParseIP(hostname) != nil {
		return
	}
	u.Host = "www." + u.Host
}

func canonical(u *url.URL) string {
	c := *u
	c.Fragment = ""
	c.RawFragment = ""
	if c.Host != "" && c.Path == "" && c.Opaque == "" {
		c.Path = "/"
	}
	return c.String()
}
