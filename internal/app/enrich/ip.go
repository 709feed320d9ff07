package enrich

import (
	"net/netip"
	"strings"
)

// proxyHeaders lists client-IP headers in trust order, most specific first.
// Platform headers (set by the edge itself) outrank the spoofable generic ones.
var proxyHeaders = []string{
	"cf-connecting-ip",
	"true-client-ip",
	"x-real-ip",
	"x-forwarded-for",
	"x-client-ip",
}

// ProxyHeaders returns the header names consulted by ClientIP, so callers can
// snapshot request headers before dispatching background work.
func ProxyHeaders() []string {
	out := make([]string, len(proxyHeaders))
	copy(out, proxyHeaders)
	return out
}

// ClientIP extracts the client address from proxy headers. Header names are
// matched case-insensitively. Comma-separated values are scanned left to
// right and the first syntactically valid, public address wins. When no
// header yields a candidate, fallback (the connection's remote address) is
// returned as-is.
func ClientIP(headers map[string]string, fallback string) string {
	lowered := make(map[string]string, len(headers))
	for name, value := range headers {
		lowered[strings.ToLower(name)] = value
	}

	for _, name := range proxyHeaders {
		value := lowered[name]
		if value == "" {
			continue
		}
		for _, part := range strings.Split(value, ",") {
			candidate := strings.TrimSpace(part)
			if isPublicIP(candidate) {
				return candidate
			}
		}
	}
	return fallback
}

func isPublicIP(s string) bool {
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return false
	}
	if addr.IsLoopback() || addr.IsPrivate() || addr.IsLinkLocalUnicast() || addr.IsUnspecified() {
		return false
	}
	return true
}
