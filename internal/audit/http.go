package audit

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"
)

// FromRequest builds an entry carrying the caller address and user agent.
func FromRequest(r *http.Request, actor, action, resourceType, resourceID string, meta map[string]any) Entry {
	entry := Entry{
		Actor:        actor,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
	}
	if len(meta) > 0 {
		if payload, err := json.Marshal(meta); err == nil {
			entry.Metadata = payload
		}
	}
	if r != nil {
		entry.IP = ClientIP(r)
		entry.UserAgent = r.UserAgent()
	}
	return entry
}

// ClientIP returns the first forwarded address, X-Real-IP, or the remote host.
func ClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	for _, hop := range strings.Split(r.Header.Get("X-Forwarded-For"), ",") {
		if hop = strings.TrimSpace(hop); hop != "" {
			return hop
		}
	}
	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
