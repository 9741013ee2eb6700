package logger

import (
	"net"
	"strings"
)

// RedactEmail masks an email address for safe logging.
// "ada.obi@example.com" → "ad***@example.com"
// Short local parts (≤2 chars) are fully masked: "ab@example.com" → "***@example.com"
func RedactEmail(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return "***@***"
	}
	name := parts[0]
	if len(name) > 2 {
		return name[:2] + "***@" + parts[1]
	}
	return "***@" + parts[1]
}

// RedactIP keeps the network part of a client address.
// "102.89.34.7" → "102.89.34.x", "2c0f:f5c0::1" → "2c0f:f5c0:…"
func RedactIP(addr string) string {
	ip := net.ParseIP(addr)
	if ip == nil {
		return "***"
	}
	if v4 := ip.To4(); v4 != nil {
		s := v4.String()
		return s[:strings.LastIndex(s, ".")] + ".x"
	}
	groups := strings.SplitN(ip.String(), ":", 3)
	if len(groups) < 3 {
		return "***"
	}
	return groups[0] + ":" + groups[1] + ":…"
}
