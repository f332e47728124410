package dnscache

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// Resolver resolves hostnames with a TTL cache so that repeated probes to
// the same host do not pay for a DNS lookup on every connection.
type Resolver struct {
	cache      *ttlcache.Cache[string, []string]
	lookupFunc func(ctx context.Context, host string) ([]string, error)
	retries    int
	retryDelay time.Duration
}

// NewResolver creates a Resolver caching answers for ttl.
// A ttl of zero disables caching.
func NewResolver(ttl time.Duration) *Resolver {
	r := &Resolver{
		lookupFunc: net.DefaultResolver.LookupHost,
		retries:    3,
		retryDelay: 100 * time.Millisecond,
	}
	if ttl > 0 {
		r.cache = ttlcache.New(
			ttlcache.WithTTL[string, []string](ttl),
			ttlcache.WithDisableTouchOnHit[string, []string](),
		)
	}
	return r
}

// LookupHost returns the addresses for host, from cache when possible
func (r *Resolver) LookupHost(ctx context.Context, host string) ([]string, error) {
	if ip := net.ParseIP(host); ip != nil {
		return []string{host}, nil
	}
	if r.cache != nil {
		if item := r.cache.Get(host); item != nil {
			return item.Value(), nil
		}
	}

	var lastErr error
	attempts := max(r.retries, 1)
	for i := range attempts {
		addrs, err := r.lookupFunc(ctx, host)
		if err == nil && len(addrs) > 0 {
			if r.cache != nil {
				r.cache.Set(host, addrs, ttlcache.DefaultTTL)
			}
			return addrs, nil
		}
		if err == nil {
			err = errors.New("no addresses returned")
		}
		lastErr = err
		slog.Debug("DNS lookup failed", "host", host, "attempt", i+1, "error", err)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if i < attempts-1 && r.retryDelay > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(r.retryDelay):
			}
		}
	}
	return nil, lastErr
}

// DialFunc returns a DialContext function that resolves through r and then
// dials the addresses in order with d.
func (r *Resolver) DialFunc(d *net.Dialer) func(ctx context.Context, network, addr string) (net.Conn, error) {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		host, port, err := net.SplitHostPort(addr)
		if err != nil {
			return nil, err
		}
		addrs, err := r.LookupHost(ctx, host)
		if err != nil {
			return nil, err
		}
		var lastErr error
		for _, a := range addrs {
			conn, err := d.DialContext(ctx, network, net.JoinHostPort(a, port))
			if err == nil {
				return conn, nil
			}
			lastErr = err
			if ctx.Err() != nil {
				break
			}
		}
		return nil, lastErr
	}
}

// Len returns the number of cached hosts
func (r *Resolver) Len() int {
	if r.cache == nil {
		return 0
	}
	return r.cache.Len()
}
