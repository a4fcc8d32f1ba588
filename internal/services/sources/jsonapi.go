package sources

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/proxyhive/proxyhive/internal/interfaces"
	"github.com/proxyhive/proxyhive/internal/models"
)

// pubProxyAdapter parses pubproxy's /api/proxy JSON response shape, where
// https is reported as a boolean or boolean-like string.
type pubProxyAdapter struct{}

func NewPubProxyAdapter() interfaces.SourceAdapter { return &pubProxyAdapter{} }

func (a *pubProxyAdapter) ID() string { return "pubproxy" }

type pubProxyEntry struct {
	IP      string      `json:"ip"`
	Port    json.Number `json:"port"`
	Country string      `json:"country"`
	HTTPS   interface{} `json:"https"`
}

type pubProxyResponse struct {
	Data []pubProxyEntry `json:"data"`
}

func (a *pubProxyAdapter) Fetch(ctx context.Context, params interfaces.FetchParams) []models.ProxyCandidate {
	url := "http://pubproxy.com/api/proxy?limit=20&format=json"
	if params.Country != "" {
		url += "&country=" + strings.ToUpper(params.Country)
	}

	var candidates []models.ProxyCandidate
	policy := DefaultRetryPolicy(params.Retries)
	err := ExecuteWithRetry(ctx, policy, func() error {
		body, fetchErr := fetchBody(ctx, url, params.Timeout)
		if fetchErr != nil {
			return fetchErr
		}

		var parsed pubProxyResponse
		if jsonErr := json.Unmarshal(body, &parsed); jsonErr != nil {
			return jsonErr
		}

		for _, entry := range parsed.Data {
			port, ok := parsePort(entry.Port.String())
			if entry.IP == "" || !ok {
				continue
			}
			protocol := models.ProtocolHTTP
			if isTruthy(entry.HTTPS) {
				protocol = models.ProtocolHTTPS
			}
			if !wantsProtocol(params.Protocols, protocol) {
				continue
			}
			candidates = append(candidates, models.ProxyCandidate{
				IP: entry.IP, Port: port, Protocol: protocol, Country: entry.Country, Source: "pubproxy",
			})
		}
		return nil
	})
	if err != nil {
		return nil
	}
	return truncate(candidates, params.Quantity)
}

func isTruthy(v interface{}) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return strings.EqualFold(t, "true") || t == "1" || strings.EqualFold(t, "yes")
	default:
		return false
	}
}

// proxyScanAdapter parses proxyscan.io's JSON listing, where "Type" may be a
// single protocol string or an array of protocol strings.
type proxyScanAdapter struct{}

func NewProxyScanAdapter() interfaces.SourceAdapter { return &proxyScanAdapter{} }

func (a *proxyScanAdapter) ID() string { return "proxyscan" }

type proxyScanEntry struct {
	IP      string          `json:"Ip"`
	Port    json.Number     `json:"Port"`
	Country string          `json:"Location_country"`
	Type    json.RawMessage `json:"Type"`
}

func (a *proxyScanAdapter) Fetch(ctx context.Context, params interfaces.FetchParams) []models.ProxyCandidate {
	url := "https://www.proxyscan.io/api/proxy?format=json&limit=100"

	var candidates []models.ProxyCandidate
	policy := DefaultRetryPolicy(params.Retries)
	err := ExecuteWithRetry(ctx, policy, func() error {
		body, fetchErr := fetchBody(ctx, url, params.Timeout)
		if fetchErr != nil {
			return fetchErr
		}

		var entries []proxyScanEntry
		if jsonErr := json.Unmarshal(body, &entries); jsonErr != nil {
			return jsonErr
		}

		for _, entry := range entries {
			port, ok := parsePort(entry.Port.String())
			if entry.IP == "" || !ok {
				continue
			}
			for _, protocol := range proxyScanTypes(entry.Type) {
				if !wantsProtocol(params.Protocols, protocol) {
					continue
				}
				candidates = append(candidates, models.ProxyCandidate{
					IP: entry.IP, Port: port, Protocol: protocol, Country: entry.Country, Source: "proxyscan",
				})
			}
		}
		return nil
	})
	if err != nil {
		return nil
	}
	return truncate(candidates, params.Quantity)
}

// proxyScanTypes normalizes the "Type" field's duck-typed shape (string or
// array of strings) into our Protocol enum, dropping anything unrecognized.
func proxyScanTypes(raw json.RawMessage) []models.Protocol {
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		if p, ok := normalizeProtocol(single); ok {
			return []models.Protocol{p}
		}
		return nil
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		var protocols []models.Protocol
		for _, s := range list {
			if p, ok := normalizeProtocol(s); ok {
				protocols = append(protocols, p)
			}
		}
		return protocols
	}

	return nil
}

func normalizeProtocol(s string) (models.Protocol, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "http":
		return models.ProtocolHTTP, true
	case "https":
		return models.ProtocolHTTPS, true
	case "socks4":
		return models.ProtocolSOCKS4, true
	case "socks5":
		return models.ProtocolSOCKS5, true
	default:
		return "", false
	}
}
