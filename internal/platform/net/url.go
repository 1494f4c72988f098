// SPDX-License-Identifier: MIT

package net

import (
	"net/url"
	"strings"
)

// SanitizeURL strips credentials and the query string so a URL can be
// logged without leaking tokens.
func SanitizeURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "invalid-url-redacted"
	}
	u.User = nil
	u.RawQuery = ""
	return u.String()
}

// ParseDirectHTTPURL validates that s is a plain absolute http(s) URL:
// a recognised scheme and non-empty host, no embedded credentials, no
// fragment. It is the cheap syntactic check run before the full
// outbound policy.
func ParseDirectHTTPURL(s string) (*url.URL, bool) {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return nil, false
	}
	switch {
	case !strings.EqualFold(u.Scheme, "http") && !strings.EqualFold(u.Scheme, "https"):
		return nil, false
	case u.Host == "", u.User != nil, u.Fragment != "":
		return nil, false
	}
	return u, true
}
