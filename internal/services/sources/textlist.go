package sources

import (
	"bufio"
	"context"
	"strings"

	"github.com/proxyhive/proxyhive/internal/interfaces"
	"github.com/proxyhive/proxyhive/internal/models"
)

// textListAdapter fetches one plain-text endpoint per requested protocol,
// each line an "ip:port" pair. Used by proxyscrape, proxy-list.download,
// and the raw-text GitHub lists (speedx/shiftytr/monosans/jetkai).
type textListAdapter struct {
	id            string
	urlByProtocol map[models.Protocol]string
}

func NewProxyScrapeAdapter() interfaces.SourceAdapter {
	return &textListAdapter{
		id: "proxyscrape",
		urlByProtocol: map[models.Protocol]string{
			models.ProtocolHTTP:  "https://api.proxyscrape.com/v2/?request=getproxies&protocol=http",
			models.ProtocolHTTPS: "https://api.proxyscrape.com/v2/?request=getproxies&protocol=https",
		},
	}
}

func NewProxyListDownloadAdapter() interfaces.SourceAdapter {
	return &textListAdapter{
		id: "proxy-list.download",
		urlByProtocol: map[models.Protocol]string{
			models.ProtocolHTTP:  "https://www.proxy-list.download/api/v1/get?type=http",
			models.ProtocolHTTPS: "https://www.proxy-list.download/api/v1/get?type=https",
		},
	}
}

func NewGitHubSpeedXAdapter() interfaces.SourceAdapter {
	return &textListAdapter{
		id: "github-speedx",
		urlByProtocol: map[models.Protocol]string{
			models.ProtocolHTTP:   "https://raw.githubusercontent.com/TheSpeedX/PROXY-List/master/http.txt",
			models.ProtocolSOCKS4: "https://raw.githubusercontent.com/TheSpeedX/PROXY-List/master/socks4.txt",
			models.ProtocolSOCKS5: "https://raw.githubusercontent.com/TheSpeedX/PROXY-List/master/socks5.txt",
		},
	}
}

func NewGitHubShiftyTRAdapter() interfaces.SourceAdapter {
	return &textListAdapter{
		id: "github-shiftytr",
		urlByProtocol: map[models.Protocol]string{
			models.ProtocolHTTP:   "https://raw.githubusercontent.com/ShiftyTR/Proxy-List/master/http.txt",
			models.ProtocolHTTPS:  "https://raw.githubusercontent.com/ShiftyTR/Proxy-List/master/https.txt",
			models.ProtocolSOCKS4: "https://raw.githubusercontent.com/ShiftyTR/Proxy-List/master/socks4.txt",
			models.ProtocolSOCKS5: "https://raw.githubusercontent.com/ShiftyTR/Proxy-List/master/socks5.txt",
		},
	}
}

func NewGitHubMonosansAdapter() interfaces.SourceAdapter {
	return &textListAdapter{
		id: "github-monosans",
		urlByProtocol: map[models.Protocol]string{
			models.ProtocolHTTP:   "https://raw.githubusercontent.com/monosans/proxy-list/main/proxies/http.txt",
			models.ProtocolSOCKS4: "https://raw.githubusercontent.com/monosans/proxy-list/main/proxies/socks4.txt",
			models.ProtocolSOCKS5: "https://raw.githubusercontent.com/monosans/proxy-list/main/proxies/socks5.txt",
		},
	}
}

func NewGitHubJetKAIAdapter() interfaces.SourceAdapter {
	return &textListAdapter{
		id: "github-jetkai",
		urlByProtocol: map[models.Protocol]string{
			models.ProtocolHTTP:   "https://raw.githubusercontent.com/jetkai/proxy-list/main/online-proxies/txt/proxies-http.txt",
			models.ProtocolSOCKS4: "https://raw.githubusercontent.com/jetkai/proxy-list/main/online-proxies/txt/proxies-socks4.txt",
			models.ProtocolSOCKS5: "https://raw.githubusercontent.com/jetkai/proxy-list/main/online-proxies/txt/proxies-socks5.txt",
		},
	}
}

func (a *textListAdapter) ID() string { return a.id }

func (a *textListAdapter) Fetch(ctx context.Context, params interfaces.FetchParams) []models.ProxyCandidate {
	protocols := params.Protocols
	if len(protocols) == 0 {
		for p := range a.urlByProtocol {
			protocols = append(protocols, p)
		}
	}

	var candidates []models.ProxyCandidate
	policy := DefaultRetryPolicy(params.Retries)

	for _, protocol := range protocols {
		url, ok := a.urlByProtocol[protocol]
		if !ok {
			continue
		}

		var lines []string
		err := ExecuteWithRetry(ctx, policy, func() error {
			body, fetchErr := fetchBody(ctx, url, params.Timeout)
			if fetchErr != nil {
				return fetchErr
			}
			lines = splitLines(string(body))
			return nil
		})
		if err != nil {
			continue
		}

		for _, line := range lines {
			ip, port, ok := parseIPPort(line)
			if !ok {
				continue
			}
			candidates = append(candidates, models.ProxyCandidate{
				IP:       ip,
				Port:     port,
				Protocol: protocol,
				Source:   a.id,
			})
			if params.Quantity > 0 && len(candidates) >= params.Quantity {
				return candidates
			}
		}
	}

	return candidates
}

func splitLines(body string) []string {
	var lines []string
	scanner := bufio.NewScanner(strings.NewReader(body))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// parseIPPort extracts an "ip:port" pair from a bare text line.
func parseIPPort(line string) (string, uint16, bool) {
	parts := strings.SplitN(line, ":", 2)
	if len(parts) != 2 {
		return "", 0, false
	}
	ip := strings.TrimSpace(parts[0])
	port, ok := parsePort(parts[1])
	if ip == "" || !ok {
		return "", 0, false
	}
	return ip, port, true
}
