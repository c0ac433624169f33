package ratelimit

import (
	"net"
	"net/http"
	"strings"
)

// IdentifierUnknown is the bucket used when no source address can be
// determined; the request is still limited rather than failed.
const IdentifierUnknown = "unknown"

// IdentifierFromRequest classifies the request's principal. Authenticated
// requests are keyed by user id; anonymous requests by client address, with
// X-Forwarded-For's first hop preferred over the raw peer address.
//
// The header is inherited as-is: a client can spoof X-Forwarded-For to evade
// its own bucket or to frame another address. Not hardened here.
func IdentifierFromRequest(r *http.Request, userID string) string {
	if userID != "" {
		return "user:" + userID
	}

	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		if first := strings.TrimSpace(strings.Split(forwarded, ",")[0]); first != "" {
			return "ip:" + first
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// RemoteAddr without a port, e.g. in tests.
		host = r.RemoteAddr
	}
	if host == "" {
		return IdentifierUnknown
	}
	return "ip:" + host
}
