package throughput

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/tkjaer/netspeed/internal/shared"
	"golang.org/x/time/rate"
)

const (
	DefaultMaxDuration    = 5 * time.Second
	DefaultConnectTimeout = 10 * time.Second

	// ChunkSize is the read buffer used while streaming
	ChunkSize = 8192

	// readGrace is the minimum time left for reading when connecting
	// already used up the time box. A stalled read can therefore end up
	// to readGrace past maxDuration.
	readGrace = 250 * time.Millisecond
)

// DefaultCandidates are tried in order until one streams successfully
var DefaultCandidates = []string{
	"https://speed.cloudflare.com/__down?bytes=10000000",
	"https://proof.ovh.net/files/10Mb.dat",
}

// ProgressFunc receives an intermediate estimate after every chunk.
// It is called on the measuring goroutine and must not block.
type ProgressFunc func(sample shared.ThroughputSample, mbps, fraction float64)

// Result is the outcome of a full measurement
type Result struct {
	Mbps   float64
	URL    string // Candidate that produced the result, empty if none did
	Sample shared.ThroughputSample
}

type attemptStatus int

const (
	statusCompleted attemptStatus = iota
	statusConnectFailed
	statusStreamFailed
	statusEmpty
	statusCancelled
)

func (s attemptStatus) String() string {
	switch s {
	case statusCompleted:
		return "completed"
	case statusConnectFailed:
		return "connect_failed"
	case statusStreamFailed:
		return "stream_failed"
	case statusEmpty:
		return "empty"
	case statusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// attempt is the result of streaming a single candidate
type attempt struct {
	sample shared.ThroughputSample
	status attemptStatus
	err    error
}

// Probe measures download throughput against a ranked candidate list
type Probe struct {
	fetcher     Fetcher
	maxDuration time.Duration
	now         func() time.Time
}

type Option func(*Probe)

// WithNow overrides the clock used for elapsed time
func WithNow(now func() time.Time) Option {
	return func(p *Probe) {
		if now != nil {
			p.now = now
		}
	}
}

// NewProbe creates a Probe that stops reading after maxDuration
func NewProbe(fetcher Fetcher, maxDuration time.Duration, opts ...Option) *Probe {
	if maxDuration <= 0 {
		maxDuration = DefaultMaxDuration
	}
	p := &Probe{
		fetcher:     fetcher,
		maxDuration: maxDuration,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// MaxDuration returns the time box of a single candidate
func (p *Probe) MaxDuration() time.Duration {
	return p.maxDuration
}

// Measure streams candidates in order and returns the speed of the first
// one that delivers data. A zero Result means no candidate was usable.
func (p *Probe) Measure(ctx context.Context, candidates []string, progress ProgressFunc) Result {
	for i, url := range candidates {
		if ctx.Err() != nil {
			return Result{}
		}

		a := p.try(ctx, url, progress)
		switch a.status {
		case statusCompleted:
			mbps := a.sample.Mbps()
			slog.Debug("Download candidate completed",
				"url", url,
				"bytes", a.sample.BytesReceived,
				"seconds", a.sample.ElapsedSeconds,
				"mbps", mbps,
			)
			return Result{Mbps: mbps, URL: url, Sample: a.sample}
		case statusCancelled:
			slog.Debug("Download cancelled", "url", url)
			return Result{}
		default:
			slog.Debug("Download candidate failed, trying next",
				"url", url,
				"index", i,
				"status", a.status.String(),
				"error", a.err,
			)
		}
	}
	slog.Debug("No download candidate succeeded", "candidates", len(candidates))
	return Result{}
}

func (p *Probe) try(ctx context.Context, url string, progress ProgressFunc) attempt {
	streamCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	start := p.now()
	body, err := p.fetcher.Fetch(streamCtx, url)
	if err != nil {
		if ctx.Err() != nil {
			return attempt{status: statusCancelled, err: ctx.Err()}
		}
		return attempt{status: statusConnectFailed, err: err}
	}
	defer body.Close()

	// Bound blocking reads by whatever is left of the time box
	var boxExpired atomic.Bool
	remaining := max(p.maxDuration-p.now().Sub(start), readGrace)
	timer := time.AfterFunc(remaining, func() {
		boxExpired.Store(true)
		cancel()
	})
	defer timer.Stop()

	limit := p.maxDuration.Seconds()
	logSample := rate.Sometimes{Interval: 500 * time.Millisecond}
	buf := make([]byte, ChunkSize)
	var sample shared.ThroughputSample

	for {
		n, err := body.Read(buf)
		if n > 0 {
			sample.BytesReceived += int64(n)
			sample.ElapsedSeconds = p.now().Sub(start).Seconds()
			if sample.Valid() {
				mbps := sample.Mbps()
				fraction := min(sample.ElapsedSeconds/limit, 1.0)
				if progress != nil {
					progress(sample, mbps, fraction)
				}
				logSample.Do(func() {
					slog.Debug("Download sample", "url", url, "bytes", sample.BytesReceived, "mbps", mbps)
				})
			}
			if sample.ElapsedSeconds > limit {
				break
			}
		}

		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if ctx.Err() != nil {
				return attempt{sample: sample, status: statusCancelled, err: ctx.Err()}
			}
			if boxExpired.Load() && sample.BytesReceived > 0 {
				break
			}
			return attempt{sample: sample, status: statusStreamFailed, err: err}
		}
	}

	if sample.BytesReceived == 0 {
		return attempt{status: statusEmpty, err: errors.New("no data received")}
	}
	sample.ElapsedSeconds = p.now().Sub(start).Seconds()
	return attempt{sample: sample, status: statusCompleted}
}
