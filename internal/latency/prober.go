package latency

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/tkjaer/netspeed/internal/shared"
	"github.com/tkjaer/netspeed/pkg/dnscache"
)

// Prober performs a single latency attempt against target
type Prober interface {
	Probe(ctx context.Context, target string) shared.ProbeResult
}

// HTTPHeadProber measures latency as the duration of a HEAD request.
// Keep-alives are disabled so every attempt pays for a full round trip.
type HTTPHeadProber struct {
	client *http.Client
	now    func() time.Time
}

// NewHTTPHeadProber creates a prober whose connections are dialed through resolver
func NewHTTPHeadProber(resolver *dnscache.Resolver, timeout time.Duration) *HTTPHeadProber {
	dialer := &net.Dialer{Timeout: timeout}
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         resolver.DialFunc(dialer),
		TLSHandshakeTimeout: timeout,
		DisableKeepAlives:   true,
	}
	return &HTTPHeadProber{
		client: &http.Client{
			Transport: transport,
			// A redirect is still a completed round trip
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		now: time.Now,
	}
}

// Probe issues one HEAD request. Any error yields an unsuccessful result.
func (p *HTTPHeadProber) Probe(ctx context.Context, target string) shared.ProbeResult {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, target, nil)
	if err != nil {
		return shared.ProbeResult{Err: err}
	}

	start := p.now()
	resp, err := p.client.Do(req)
	if err != nil {
		return shared.ProbeResult{Err: err}
	}
	resp.Body.Close()

	return shared.ProbeResult{
		ElapsedMillis: float64(p.now().Sub(start)) / float64(time.Millisecond),
		Success:       true,
	}
}
