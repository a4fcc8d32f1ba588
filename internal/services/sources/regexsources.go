package sources

import (
	"context"
	"regexp"
	"strings"

	"github.com/proxyhive/proxyhive/internal/interfaces"
	"github.com/proxyhive/proxyhive/internal/models"
)

// gatherProxyAdapter scrapes gatherproxy.com's embedded JS object literals
// of the form gp.insertPrx({..."PROXY_IP":"1.2.3.4","PROXY_PORT":"1F90"...}).
// Only http is ever emitted since the upstream publishes no protocol flag.
type gatherProxyAdapter struct{}

func NewGatherProxyAdapter() interfaces.SourceAdapter { return &gatherProxyAdapter{} }

func (a *gatherProxyAdapter) ID() string { return "gatherproxy" }

var gatherProxyPattern = regexp.MustCompile(`"PROXY_IP":"([^"]+)".*?"PROXY_PORT":"([^"]+)"`)

func (a *gatherProxyAdapter) Fetch(ctx context.Context, params interfaces.FetchParams) []models.ProxyCandidate {
	if !wantsProtocol(params.Protocols, models.ProtocolHTTP) {
		return nil
	}

	url := "http://www.gatherproxy.com/proxylist/country/?c=" + params.Country
	if params.Country == "" {
		url = "http://www.gatherproxy.com/"
	}

	var candidates []models.ProxyCandidate
	policy := DefaultRetryPolicy(params.Retries)
	err := ExecuteWithRetry(ctx, policy, func() error {
		body, fetchErr := fetchBody(ctx, url, params.Timeout)
		if fetchErr != nil {
			return fetchErr
		}

		for _, match := range gatherProxyPattern.FindAllStringSubmatch(string(body), -1) {
			ip := strings.TrimSpace(match[1])
			port, ok := parsePort(match[2])
			if ip == "" || !ok {
				continue
			}
			candidates = append(candidates, models.ProxyCandidate{
				IP: ip, Port: port, Protocol: models.ProtocolHTTP, Country: params.Country, Source: "gatherproxy",
			})
		}
		return nil
	})
	if err != nil {
		return nil
	}
	return truncate(candidates, params.Quantity)
}

// spysOneAdapter scrapes spys.one's loosely-structured HTML for bare
// IP:PORT pairs. Like gatherproxy, the upstream exposes no protocol flag so
// every candidate is tagged http.
type spysOneAdapter struct{}

func NewSpysOneAdapter() interfaces.SourceAdapter { return &spysOneAdapter{} }

func (a *spysOneAdapter) ID() string { return "spys.one" }

var spysOnePattern = regexp.MustCompile(`\b(\d{1,3}(?:\.\d{1,3}){3}):(\d{2,5})\b`)

func (a *spysOneAdapter) Fetch(ctx context.Context, params interfaces.FetchParams) []models.ProxyCandidate {
	if !wantsProtocol(params.Protocols, models.ProtocolHTTP) {
		return nil
	}

	url := "http://spys.one/en/free-proxy-list/"
	if params.Country != "" {
		url = "http://spys.one/free-proxy-list/" + strings.ToUpper(params.Country) + "/"
	}

	var candidates []models.ProxyCandidate
	policy := DefaultRetryPolicy(params.Retries)
	err := ExecuteWithRetry(ctx, policy, func() error {
		body, fetchErr := fetchBody(ctx, url, params.Timeout)
		if fetchErr != nil {
			return fetchErr
		}

		for _, match := range spysOnePattern.FindAllStringSubmatch(string(body), -1) {
			port, ok := parsePort(match[2])
			if !ok {
				continue
			}
			candidates = append(candidates, models.ProxyCandidate{
				IP: match[1], Port: port, Protocol: models.ProtocolHTTP, Country: params.Country, Source: "spys.one",
			})
		}
		return nil
	})
	if err != nil {
		return nil
	}
	return truncate(candidates, params.Quantity)
}
