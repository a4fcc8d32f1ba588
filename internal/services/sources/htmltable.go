package sources

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/proxyhive/proxyhive/internal/interfaces"
	"github.com/proxyhive/proxyhive/internal/models"
)

// htmlTableAdapter scrapes the free-proxy-list-family `#proxylisttable` HTML
// table shared by free-proxy-list.net, sslproxies.org and us-proxy.org.
// Column rule (spec.md §4.2): 0=ip, 1=port, 3=country, 6=https_flag.
type htmlTableAdapter struct {
	id          string
	url         string
	forceHTTPS  bool // sslproxies.org: always https when the flag column is "yes"
}

func NewFreeProxyListAdapter() interfaces.SourceAdapter {
	return &htmlTableAdapter{id: "free-proxy-list", url: "https://free-proxy-list.net/"}
}

func NewSSLProxiesAdapter() interfaces.SourceAdapter {
	return &htmlTableAdapter{id: "sslproxies", url: "https://www.sslproxies.org/", forceHTTPS: true}
}

func NewUSProxyAdapter() interfaces.SourceAdapter {
	return &htmlTableAdapter{id: "us-proxy", url: "https://www.us-proxy.org/"}
}

func (a *htmlTableAdapter) ID() string { return a.id }

func (a *htmlTableAdapter) Fetch(ctx context.Context, params interfaces.FetchParams) []models.ProxyCandidate {
	var candidates []models.ProxyCandidate

	policy := DefaultRetryPolicy(params.Retries)
	err := ExecuteWithRetry(ctx, policy, func() error {
		body, fetchErr := fetchBody(ctx, a.url, params.Timeout)
		if fetchErr != nil {
			return fetchErr
		}

		doc, parseErr := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
		if parseErr != nil {
			return parseErr
		}

		candidates = a.parseTable(doc, params)
		return nil
	})
	if err != nil {
		return nil
	}
	return truncate(candidates, params.Quantity)
}

func (a *htmlTableAdapter) parseTable(doc *goquery.Document, params interfaces.FetchParams) []models.ProxyCandidate {
	var candidates []models.ProxyCandidate

	doc.Find("table#proxylisttable tbody tr").Each(func(_ int, row *goquery.Selection) {
		cols := row.Find("td")
		if cols.Length() < 7 {
			return
		}

		ip := strings.TrimSpace(cols.Eq(0).Text())
		port, ok := parsePort(strings.TrimSpace(cols.Eq(1).Text()))
		if ip == "" || !ok {
			return
		}
		country := strings.TrimSpace(cols.Eq(3).Text())
		httpsFlag := strings.EqualFold(strings.TrimSpace(cols.Eq(6).Text()), "yes")

		protocol := models.ProtocolHTTP
		if httpsFlag || a.forceHTTPS {
			protocol = models.ProtocolHTTPS
		}
		if !wantsProtocol(params.Protocols, protocol) {
			return
		}
		if params.Country != "" && country != "" && !strings.EqualFold(country, params.Country) {
			return
		}

		candidates = append(candidates, models.ProxyCandidate{
			IP:       ip,
			Port:     port,
			Protocol: protocol,
			Country:  country,
			Source:   a.id,
		})
	})

	return candidates
}
