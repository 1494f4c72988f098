// SPDX-License-Identifier: MIT

// Package net enforces the outbound access policy for dataset
// registration from remote URLs. Every fetch target is validated
// against an allowlist before any connection is made, so a hostile
// registration request cannot reach loopback, link-local, or
// otherwise internal addresses.
package net

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/net/idna"
)

var (
	// ErrOutboundDisabled indicates outbound HTTP(S) access is disabled by policy.
	ErrOutboundDisabled = errors.New("outbound http(s) disabled")
	// ErrOutboundNotAllowed indicates the URL did not match the allowlist.
	ErrOutboundNotAllowed = errors.New("outbound url not allowed")
)

// OutboundAllowlist defines the allowed outbound URL components.
type OutboundAllowlist struct {
	Hosts   []string
	CIDRs   []string
	Ports   []int
	Schemes []string
}

// OutboundPolicy defines the outbound access policy.
type OutboundPolicy struct {
	Enabled bool
	Allow   OutboundAllowlist
}

// allowSet is the compiled, comparison-ready form of an allowlist.
type allowSet struct {
	hosts    map[string]struct{}
	prefixes []netip.Prefix
	ports    map[int]struct{}
	schemes  map[string]struct{}
}

func (a OutboundAllowlist) compile() (*allowSet, error) {
	set := &allowSet{
		hosts:   make(map[string]struct{}, len(a.Hosts)),
		ports:   make(map[int]struct{}, len(a.Ports)),
		schemes: make(map[string]struct{}, len(a.Schemes)),
	}
	for _, h := range a.Hosts {
		normalized, err := NormalizeHost(h)
		if err != nil {
			return nil, err
		}
		set.hosts[normalized] = struct{}{}
	}
	for _, entry := range a.CIDRs {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		pfx, err := netip.ParsePrefix(entry)
		if err != nil {
			// Bare IPs are accepted as single-address prefixes.
			addr, aerr := netip.ParseAddr(entry)
			if aerr != nil {
				return nil, fmt.Errorf("invalid CIDR or IP: %s", entry)
			}
			pfx = netip.PrefixFrom(addr, addr.BitLen())
		}
		set.prefixes = append(set.prefixes, pfx.Masked())
	}
	for _, p := range a.Ports {
		set.ports[p] = struct{}{}
	}
	for _, s := range a.Schemes {
		set.schemes[strings.ToLower(strings.TrimSpace(s))] = struct{}{}
	}
	return set, nil
}

func (s *allowSet) containsAddr(addr netip.Addr) bool {
	addr = addr.Unmap()
	for _, pfx := range s.prefixes {
		if pfx.Contains(addr) {
			return true
		}
	}
	return false
}

// blockedAddr reports whether addr may never be fetched unless an
// allowlist CIDR covers it explicitly: loopback, unspecified,
// link-local, and multicast ranges.
func blockedAddr(addr netip.Addr) bool {
	addr = addr.Unmap()
	return addr.IsLoopback() ||
		addr.IsUnspecified() ||
		addr.IsLinkLocalUnicast() ||
		addr.IsLinkLocalMulticast() ||
		addr.IsMulticast()
}

// NormalizeHost validates and normalizes a host for comparison.
// IP literals are canonicalized (IPv4-mapped IPv6 unmapped), names are
// IDNA-folded to lowercase ASCII, and trailing dots are dropped.
func NormalizeHost(raw string) (string, error) {
	host := strings.TrimSpace(raw)
	if host == "" {
		return "", fmt.Errorf("host is empty")
	}
	switch {
	case strings.Contains(host, "://"):
		return "", fmt.Errorf("host must not include scheme: %s", raw)
	case strings.Contains(host, "/"):
		return "", fmt.Errorf("host must not include path: %s", raw)
	case strings.Contains(host, "@"):
		return "", fmt.Errorf("host must not include userinfo: %s", raw)
	case strings.Contains(host, "%"):
		return "", fmt.Errorf("host must not include zone: %s", raw)
	}
	if strings.HasPrefix(host, "[") && strings.HasSuffix(host, "]") {
		host = host[1 : len(host)-1]
	}
	host = strings.TrimSuffix(host, ".")
	if host == "" {
		return "", fmt.Errorf("host is empty")
	}
	if addr, err := netip.ParseAddr(host); err == nil {
		return addr.Unmap().String(), nil
	}
	if strings.Contains(host, ":") {
		return "", fmt.Errorf("host must not include port: %s", raw)
	}
	ascii, err := idna.Lookup.ToASCII(host)
	if err != nil {
		return "", fmt.Errorf("invalid host %q: %w", raw, err)
	}
	return strings.ToLower(ascii), nil
}

// ValidateOutboundURL verifies a URL against the outbound policy and
// returns a normalized URL string safe to hand to the fetcher. The
// hostname is resolved here so the block decision covers every address
// the name points at, not just the literal.
func ValidateOutboundURL(ctx context.Context, raw string, policy OutboundPolicy) (string, error) {
	if !policy.Enabled {
		return "", ErrOutboundDisabled
	}
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", fmt.Errorf("outbound url empty")
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("invalid url: %w", err)
	}
	switch {
	case u.Scheme == "":
		return "", fmt.Errorf("missing url scheme")
	case u.Host == "":
		return "", fmt.Errorf("missing url host")
	case u.User != nil:
		return "", fmt.Errorf("userinfo not allowed")
	case u.Fragment != "":
		return "", fmt.Errorf("fragments not allowed")
	}

	allow, err := policy.Allow.compile()
	if err != nil {
		return "", err
	}

	scheme := strings.ToLower(u.Scheme)
	if _, ok := allow.schemes[scheme]; !ok {
		return "", fmt.Errorf("scheme %q not allowed", scheme)
	}

	port, err := effectivePort(u.Port(), scheme)
	if err != nil {
		return "", err
	}
	if _, ok := allow.ports[port]; !ok {
		return "", fmt.Errorf("port %d not allowed", port)
	}

	host, err := NormalizeHost(u.Hostname())
	if err != nil {
		return "", err
	}
	addrs, err := resolveAddrs(ctx, host)
	if err != nil {
		return "", err
	}

	_, hostAllowed := allow.hosts[host]
	addrAllowed := false
	for _, addr := range addrs {
		inAllow := allow.containsAddr(addr)
		if blockedAddr(addr) && !inAllow {
			return "", fmt.Errorf("blocked ip %s", addr)
		}
		if inAllow {
			addrAllowed = true
		}
	}
	if !hostAllowed && !addrAllowed {
		return "", ErrOutboundNotAllowed
	}

	u.Host = joinHostPort(host, u.Port())
	return u.String(), nil
}

func effectivePort(portStr, scheme string) (int, error) {
	if portStr == "" {
		switch scheme {
		case "http":
			return 80, nil
		case "https":
			return 443, nil
		}
		return 0, fmt.Errorf("unknown scheme %q", scheme)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return 0, fmt.Errorf("invalid port %q: %w", portStr, err)
	}
	return port, nil
}

func resolveAddrs(ctx context.Context, host string) ([]netip.Addr, error) {
	if addr, err := netip.ParseAddr(host); err == nil {
		return []netip.Addr{addr}, nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	addrs, err := net.DefaultResolver.LookupNetIP(ctx, "ip", host)
	if err != nil {
		return nil, fmt.Errorf("resolve host %q: %w", host, err)
	}
	if len(addrs) == 0 {
		return nil, fmt.Errorf("resolve host %q: no addresses", host)
	}
	return addrs, nil
}

func joinHostPort(host, port string) string {
	if port == "" {
		if strings.Contains(host, ":") {
			return "[" + host + "]"
		}
		return host
	}
	return net.JoinHostPort(host, port)
}
