package validator

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/proxyhive/proxyhive/internal/models"
	"golang.org/x/net/proxy"
)

// ErrSOCKSUnavailable is surfaced verbatim in a ValidationResult.Error when a
// socks4 transport is requested; golang.org/x/net/proxy implements SOCKS5
// only, so socks4 candidates fail explicitly rather than silently bypassing
// the proxy.
var ErrSOCKSUnavailable = errors.New("socks transport unavailable")

// buildTransport returns an *http.Transport that routes every request
// through the candidate proxy endpoint.
func buildTransport(protocol models.Protocol, ip string, port uint16, creds *models.ProxyCredentials) (*http.Transport, error) {
	addr := fmt.Sprintf("%s:%d", ip, port)

	switch protocol {
	case models.ProtocolHTTP, models.ProtocolHTTPS:
		u := &url.URL{Scheme: string(protocol), Host: addr}
		if creds != nil && creds.Username != "" {
			u.User = url.UserPassword(creds.Username, creds.Password)
		}
		return &http.Transport{Proxy: http.ProxyURL(u)}, nil

	case models.ProtocolSOCKS5:
		var auth *proxy.Auth
		if creds != nil && creds.Username != "" {
			auth = &proxy.Auth{User: creds.Username, Password: creds.Password}
		}
		dialer, err := proxy.SOCKS5("tcp", addr, auth, proxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSOCKSUnavailable, err)
		}
		return &http.Transport{DialContext: contextDial(dialer)}, nil

	case models.ProtocolSOCKS4:
		return nil, ErrSOCKSUnavailable

	default:
		return nil, fmt.Errorf("unsupported protocol %q", protocol)
	}
}

// contextDial adapts a proxy.Dialer (no context support) to DialContext,
// honoring cancellation on a best-effort basis via a background dial.
func contextDial(dialer proxy.Dialer) func(ctx context.Context, network, addr string) (net.Conn, error) {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		if cd, ok := dialer.(proxy.ContextDialer); ok {
			return cd.DialContext(ctx, network, addr)
		}

		type result struct {
			conn net.Conn
			err  error
		}
		ch := make(chan result, 1)
		go func() {
			conn, err := dialer.Dial(network, addr)
			ch <- result{conn, err}
		}()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case r := <-ch:
			return r.conn, r.err
		}
	}
}

func httpClientFor(transport *http.Transport, timeout time.Duration) *http.Client {
	return &http.Client{Transport: transport, Timeout: timeout}
}
