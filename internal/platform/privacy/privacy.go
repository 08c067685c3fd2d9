// Package privacy keeps credentials and client addresses out of logs and traces.
package privacy

import (
	"fmt"
	"net"
	"strings"
)

// visiblePrefix is how many leading characters MaskSecret leaves readable.
const visiblePrefix = 4

// MaskSecret hides all but the first few characters of a credential
// ("sp-key-123456" -> "sp-k****"). Short values are fully masked.
func MaskSecret(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= visiblePrefix*2 {
		return "****"
	}
	return secret[:visiblePrefix] + "****"
}

// RedactSecret replaces every occurrence of secret in s with its masked form.
// Used for URLs that embed a credential in the path.
func RedactSecret(s, secret string) string {
	if secret == "" {
		return s
	}
	return strings.ReplaceAll(s, secret, MaskSecret(secret))
}

// AnonymizeIP truncates an address to its network prefix: /24 for IPv4,
// /48 for IPv6. Empty input is "unknown", unparseable input is "invalid".
// A host:port pair is accepted.
func AnonymizeIP(addr string) string {
	if addr == "" || addr == "unknown" {
		return "unknown"
	}
	if host, _, err := net.SplitHostPort(addr); err == nil {
		addr = host
	}

	ip := net.ParseIP(addr)
	if ip == nil {
		return "invalid"
	}
	if v4 := ip.To4(); v4 != nil {
		return fmt.Sprintf("%d.%d.%d.0", v4[0], v4[1], v4[2])
	}
	return fmt.Sprintf("%02x%02x:%02x%02x:%02x%02x::", ip[0], ip[1], ip[2], ip[3], ip[4], ip[5])
}
