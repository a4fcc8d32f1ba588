package sources

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/proxyhive/proxyhive/internal/models"
)

var sharedClient = &http.Client{}

// fetchBody performs one GET with the given timeout and returns the response
// body; non-2xx responses are treated as transient failures for the retry
// policy to absorb.
func fetchBody(ctx context.Context, url string, timeout time.Duration) ([]byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "proxyhive/1.0")

	resp, err := sharedClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &httpStatusError{url: url, status: resp.StatusCode}
	}
	return io.ReadAll(resp.Body)
}

type httpStatusError struct {
	url    string
	status int
}

func (e *httpStatusError) Error() string {
	return "unexpected status " + strconv.Itoa(e.status) + " fetching " + e.url
}

// wantsProtocol reports whether protocol is acceptable under an adapter's
// requested protocol filter; an empty filter accepts everything.
func wantsProtocol(filter []models.Protocol, protocol models.Protocol) bool {
	if len(filter) == 0 {
		return true
	}
	for _, p := range filter {
		if p == protocol {
			return true
		}
	}
	return false
}

// parsePort accepts decimal, 0x-prefixed hex, or bare hex (tried only when the
// string is not decimal) port strings, as gatherproxy's embedded JS encodes
// them either way.
func parsePort(raw string) (uint16, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	base := 10
	if strings.HasPrefix(strings.ToLower(raw), "0x") {
		raw = raw[2:]
		base = 16
	}
	n, err := strconv.ParseUint(raw, base, 32)
	if err != nil && base == 10 {
		n, err = strconv.ParseUint(raw, 16, 32)
	}
	if err != nil || n == 0 || n > 65535 {
		return 0, false
	}
	return uint16(n), true
}

func truncate(candidates []models.ProxyCandidate, quantity int) []models.ProxyCandidate {
	if quantity > 0 && len(candidates) > quantity {
		return candidates[:quantity]
	}
	return candidates
}
