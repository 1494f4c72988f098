// SPDX-License-Identifier: MIT

package api

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
	"sync"
)

var (
	trustedProxies []netip.Prefix
	trustedOnce    sync.Once
)

// SetTrustedProxies installs the proxy allowlist from a comma-separated
// list of CIDRs or single addresses. Only the first call takes effect;
// forwarding headers are ignored until it happens.
func SetTrustedProxies(csv string) {
	trustedOnce.Do(func() {
		for _, part := range strings.Split(csv, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if pfx, err := netip.ParsePrefix(part); err == nil {
				trustedProxies = append(trustedProxies, pfx)
				continue
			}
			if addr, err := netip.ParseAddr(part); err == nil {
				trustedProxies = append(trustedProxies, netip.PrefixFrom(addr, addr.BitLen()))
			}
		}
	})
}

// proxyTrusted reports whether the peer address belongs to the allowlist.
func proxyTrusted(remote string) bool {
	if len(trustedProxies) == 0 {
		return false
	}
	host := remote
	if h, _, err := net.SplitHostPort(remote); err == nil {
		host = h
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return false
	}
	for _, pfx := range trustedProxies {
		if pfx.Contains(addr) {
			return true
		}
	}
	return false
}

// clientIP resolves the originating client address. Forwarding headers
// (X-Forwarded-For first hop, then X-Real-IP) are honored only when the
// direct peer is a trusted proxy, so untrusted clients cannot spoof
// their identity in audit logs.
func clientIP(r *http.Request) string {
	if proxyTrusted(r.RemoteAddr) {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			if first = strings.TrimSpace(first); first != "" {
				return first
			}
		}
		if xr := r.Header.Get("X-Real-IP"); xr != "" {
			return xr
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}
