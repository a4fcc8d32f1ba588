// Package proxyline parses the "proto://[user:pass@]ip:port" / "ip:port"
// line format accepted by the validate, import, and schedule endpoints
// (spec.md §6, "Parsing of a proxy line").
package proxyline

import (
	"strconv"
	"strings"

	"github.com/proxyhive/proxyhive/internal/models"
)

// Parsed is one decoded proxy line.
type Parsed struct {
	Protocol    models.Protocol
	IP          string
	Port        uint16
	Credentials *models.ProxyCredentials
}

// Parse decodes a single line. Invalid lines return ok=false and must be
// silently dropped by callers per spec.md §6.
func Parse(line string) (Parsed, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Parsed{}, false
	}

	protocol := models.ProtocolHTTP
	rest := line
	if idx := strings.Index(line, "://"); idx >= 0 {
		scheme := strings.ToLower(line[:idx])
		switch scheme {
		case "http", "https", "socks4", "socks5":
			protocol = models.Protocol(scheme)
		default:
			return Parsed{}, false
		}
		rest = line[idx+3:]
	}

	var creds *models.ProxyCredentials
	if at := strings.LastIndex(rest, "@"); at >= 0 {
		userinfo := rest[:at]
		rest = rest[at+1:]
		user, pass, _ := strings.Cut(userinfo, ":")
		creds = &models.ProxyCredentials{Username: user, Password: pass}
	}

	host, portStr, ok := strings.Cut(rest, ":")
	if !ok || host == "" || portStr == "" {
		return Parsed{}, false
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return Parsed{}, false
	}

	return Parsed{Protocol: protocol, IP: host, Port: uint16(port), Credentials: creds}, true
}

// Format renders the canonical "protocol://ip:port" line used when handing
// catalog rows to the validator (credentials are never re-serialized since
// the catalog never stores them).
func Format(ip string, port uint16, protocol models.Protocol) string {
	return string(protocol) + "://" + ip + ":" + strconv.Itoa(int(port))
}
