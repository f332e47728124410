package latency

import (
	"context"
	"log/slog"
	"time"

	"github.com/tkjaer/netspeed/internal/shared"
)

const (
	DefaultTarget   = "https://cloudflare.com"
	DefaultAttempts = 3
	DefaultTimeout  = 2 * time.Second
	DefaultPenalty  = 100 * time.Millisecond
)

// Sampler reduces a fixed number of sequential probes to a median latency
type Sampler struct {
	prober   Prober
	attempts int
	timeout  time.Duration
	penalty  time.Duration
}

// NewSampler creates a Sampler. Non-positive values fall back to the defaults.
func NewSampler(prober Prober, attempts int, timeout, penalty time.Duration) *Sampler {
	if attempts <= 0 {
		attempts = DefaultAttempts
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if penalty <= 0 {
		penalty = DefaultPenalty
	}
	return &Sampler{
		prober:   prober,
		attempts: attempts,
		timeout:  timeout,
		penalty:  penalty,
	}
}

// Measure probes target and returns the median latency in milliseconds.
// It never fails: failed or skipped attempts record the penalty value.
func (s *Sampler) Measure(ctx context.Context, target string) int {
	samples := s.Sample(ctx, target)
	median := samples.Median()
	slog.Debug("Latency measured", "target", target, "samples", []float64(samples), "median_ms", median)
	return int(median)
}

// Sample runs every attempt and returns the recorded set
func (s *Sampler) Sample(ctx context.Context, target string) shared.LatencySampleSet {
	samples := make(shared.LatencySampleSet, 0, s.attempts)
	for i := range s.attempts {
		// Keep the set size fixed once cancelled, but stop touching the network
		if ctx.Err() != nil {
			samples = samples.Record(shared.ProbeResult{Err: ctx.Err()}, s.penalty)
			continue
		}

		probeCtx, cancel := context.WithTimeout(ctx, s.timeout)
		result := s.prober.Probe(probeCtx, target)
		cancel()

		if !result.Success {
			slog.Debug("Latency probe failed, recording penalty",
				"target", target,
				"attempt", i+1,
				"penalty", s.penalty,
				"error", result.Err,
			)
		}
		samples = samples.Record(result, s.penalty)
	}
	return samples
}

// Attempts returns the fixed number of probes per measurement
func (s *Sampler) Attempts() int {
	return s.attempts
}
