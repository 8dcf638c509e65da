package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// TrustedRealIP replaces RemoteAddr with the client address from X-Real-IP
// or the first X-Forwarded-For entry, but only when the connection comes
// from one of trustedCIDRs. Otherwise RemoteAddr is reduced to its IP so
// rate limiting and the audit trail never see spoofed headers.
//
// Entries may be prefixes ("10.0.0.0/8") or single addresses.
func TrustedRealIP(trustedCIDRs []string) func(http.Handler) http.Handler {
	trusted := parsePrefixes(trustedCIDRs)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			remote, ok := remoteAddr(r.RemoteAddr)
			if ok {
				r.RemoteAddr = remote.String()
				if isTrusted(remote, trusted) {
					if client, ok := forwardedFor(r.Header); ok {
						r.RemoteAddr = client.String()
					}
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func parsePrefixes(cidrs []string) []netip.Prefix {
	var out []netip.Prefix
	for _, cidr := range cidrs {
		cidr = strings.TrimSpace(cidr)
		if cidr == "" {
			continue
		}
		if p, err := netip.ParsePrefix(cidr); err == nil {
			out = append(out, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(cidr)
		if err != nil {
			slog.Warn("realip: invalid trusted proxy, skipping", "cidr", cidr, "error", err)
			continue
		}
		out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return out
}

// remoteAddr parses "host:port" or a bare address.
func remoteAddr(addr string) (netip.Addr, bool) {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		addr = host
	}
	ip, err := netip.ParseAddr(addr)
	if err != nil {
		return netip.Addr{}, false
	}
	return ip.Unmap(), true
}

// forwardedFor reads X-Real-IP, falling back to the first X-Forwarded-For
// entry. Values that are not IP addresses are ignored.
func forwardedFor(h http.Header) (netip.Addr, bool) {
	if rip := strings.TrimSpace(h.Get("X-Real-IP")); rip != "" {
		ip, err := netip.ParseAddr(rip)
		return ip.Unmap(), err == nil
	}
	if xff := h.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		ip, err := netip.ParseAddr(strings.TrimSpace(first))
		return ip.Unmap(), err == nil
	}
	return netip.Addr{}, false
}

func isTrusted(ip netip.Addr, trusted []netip.Prefix) bool {
	for _, p := range trusted {
		if p.Contains(ip) {
			return true
		}
	}
	return false
}
