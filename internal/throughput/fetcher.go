package throughput

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/tkjaer/netspeed/pkg/dnscache"
)

// Fetcher opens a streaming download for a candidate URL
type Fetcher interface {
	Fetch(ctx context.Context, url string) (io.ReadCloser, error)
}

// HTTPFetcher streams candidates over HTTP(S).
// connectTimeout bounds dialing, the TLS handshake and waiting for headers;
// reading the body is bounded by the caller's context only.
type HTTPFetcher struct {
	client *http.Client
}

// NewHTTPFetcher creates a fetcher dialing through resolver
func NewHTTPFetcher(resolver *dnscache.Resolver, connectTimeout time.Duration, insecure bool) *HTTPFetcher {
	dialer := &net.Dialer{
		Timeout:   connectTimeout,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           resolver.DialFunc(dialer),
		TLSHandshakeTimeout:   connectTimeout,
		ResponseHeaderTimeout: connectTimeout,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: insecure,
		},
		// Count bytes as they arrive on the wire
		DisableCompression: true,
	}
	return &HTTPFetcher{
		client: &http.Client{Transport: transport},
	}
}

// Fetch issues a GET and returns the body once a 2xx response arrives
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return resp.Body, nil
}
