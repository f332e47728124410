// Package speedtest sequences the ping, download and upload phases of a run.
package speedtest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/tkjaer/netspeed/internal/progress"
	"github.com/tkjaer/netspeed/internal/shared"
	"github.com/tkjaer/netspeed/internal/throughput"
)

// UploadRatio is the fraction of the download speed reported as upload
const UploadRatio = 0.3

const (
	labelPing     = "Measuring ping..."
	labelDownload = "Testing download speed..."
	labelUpload   = "Testing upload speed..."
)

// LatencySampler reduces several probes of target to one RTT in ms
type LatencySampler interface {
	Measure(ctx context.Context, target string) int
}

// ThroughputProbe measures download speed against ranked candidates
type ThroughputProbe interface {
	Measure(ctx context.Context, candidates []string, progress throughput.ProgressFunc) throughput.Result
}

// Reporter hands out the progress line for a phase
type Reporter interface {
	Start(label string) *progress.Handle
}

// Sink receives phase results and the final report
type Sink interface {
	StartRun(info shared.RunInfo)
	CompletePhase(result shared.PhaseResult)
	CompleteReport(report shared.SpeedTestReport)
}

// Config holds the targets of a run
type Config struct {
	PingTarget  string
	Candidates  []string
	MaxDuration time.Duration
}

// Runner executes speed test runs
type Runner struct {
	cfg      Config
	sampler  LatencySampler
	probe    ThroughputProbe
	reporter Reporter
	sink     Sink
	now      func() time.Time
	newID    func() string
}

type Option func(*Runner)

// WithNow overrides the clock used for report timestamps
func WithNow(now func() time.Time) Option {
	return func(r *Runner) {
		if now != nil {
			r.now = now
		}
	}
}

// WithIDFunc overrides how report IDs are generated
func WithIDFunc(f func() string) Option {
	return func(r *Runner) {
		if f != nil {
			r.newID = f
		}
	}
}

func NewRunner(cfg Config, sampler LatencySampler, probe ThroughputProbe, reporter Reporter, sink Sink, opts ...Option) *Runner {
	r := &Runner{
		cfg:      cfg,
		sampler:  sampler,
		probe:    probe,
		reporter: reporter,
		sink:     sink,
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run measures ping, download and the upload estimate in that order.
// The only error is cancellation of ctx, in which case no report is built.
func (r *Runner) Run(ctx context.Context) (shared.SpeedTestReport, error) {
	id := r.newID()
	started := r.now()
	slog.Debug("Starting speed test", "id", id, "ping_target", r.cfg.PingTarget, "candidates", len(r.cfg.Candidates))

	r.sink.StartRun(shared.RunInfo{
		ID:         id,
		PingTarget: r.cfg.PingTarget,
		Candidates: r.cfg.Candidates,
		Duration:   r.cfg.MaxDuration,
	})

	ping := r.measurePing(ctx)
	if err := ctx.Err(); err != nil {
		return shared.SpeedTestReport{}, err
	}
	r.sink.CompletePhase(shared.PhaseResult{Phase: shared.PhasePing, Value: float64(ping), Unit: "ms"})

	dl := r.measureDownload(ctx)
	if err := ctx.Err(); err != nil {
		return shared.SpeedTestReport{}, err
	}
	download := shared.Round(dl.Mbps, 2)
	r.sink.CompletePhase(shared.PhaseResult{
		Phase: shared.PhaseDownload,
		Value: download,
		Unit:  "Mbps",
		Bytes: dl.Sample.BytesReceived,
	})

	upload := r.estimateUpload(download)
	if err := ctx.Err(); err != nil {
		return shared.SpeedTestReport{}, err
	}
	r.sink.CompletePhase(shared.PhaseResult{Phase: shared.PhaseUpload, Value: upload, Unit: "Mbps"})

	report := shared.SpeedTestReport{
		ID:              id,
		Timestamp:       started,
		PingMillis:      ping,
		DownloadMbps:    download,
		UploadMbps:      upload,
		PingTarget:      r.cfg.PingTarget,
		DownloadURL:     dl.URL,
		BytesReceived:   dl.Sample.BytesReceived,
		DownloadSeconds: dl.Sample.ElapsedSeconds,
		UploadEstimated: true,
	}
	r.sink.CompleteReport(report)

	slog.Info("Speed test complete",
		"id", id,
		"ping_ms", ping,
		"download_mbps", download,
		"upload_mbps", upload,
		"server", dl.URL,
	)
	return report, nil
}

func (r *Runner) measurePing(ctx context.Context) int {
	h := r.reporter.Start(labelPing)
	defer h.Stop()
	return r.sampler.Measure(ctx, r.cfg.PingTarget)
}

func (r *Runner) measureDownload(ctx context.Context) throughput.Result {
	h := r.reporter.Start(labelDownload)
	defer h.Stop()
	return r.probe.Measure(ctx, r.cfg.Candidates, func(_ shared.ThroughputSample, mbps, fraction float64) {
		h.Update(fraction, fmt.Sprintf("%.2f Mbps", mbps))
	})
}

// estimateUpload shows the upload label while deriving the estimate
func (r *Runner) estimateUpload(downloadMbps float64) float64 {
	h := r.reporter.Start(labelUpload)
	defer h.Stop()
	return EstimateUpload(downloadMbps)
}

// EstimateUpload derives the upload figure from a download speed
func EstimateUpload(downloadMbps float64) float64 {
	return shared.Round(downloadMbps*UploadRatio, 2)
}
