package shared

import (
	"math"
	"slices"
	"time"
)

// bitsPerMegabit is the divisor used for Mbps (2^20 bits)
const bitsPerMegabit = 1024 * 1024

// minElapsedSeconds guards speed calculations against a zero duration
const minElapsedSeconds = 1e-9

// Phase identifies one step of a speed test run
type Phase string

const (
	PhasePing     Phase = "ping"
	PhaseDownload Phase = "download"
	PhaseUpload   Phase = "upload"
)

// Phases lists the phases in execution order
var Phases = []Phase{PhasePing, PhaseDownload, PhaseUpload}

// ProbeResult holds the outcome of a single latency attempt
type ProbeResult struct {
	ElapsedMillis float64
	Success       bool
	Err           error // failure reason, only set when Success is false
}

// LatencySampleSet holds the recorded latency of every attempt in a run,
// with failed attempts already replaced by the penalty value.
type LatencySampleSet []float64

// Record appends the latency for r, substituting penalty on failure
func (s LatencySampleSet) Record(r ProbeResult, penalty time.Duration) LatencySampleSet {
	if !r.Success {
		return append(s, float64(penalty)/float64(time.Millisecond))
	}
	return append(s, r.ElapsedMillis)
}

// Median returns the element at index len/2 of the sorted samples.
// An empty set has a median of 0.
func (s LatencySampleSet) Median() float64 {
	if len(s) == 0 {
		return 0
	}
	sorted := slices.Clone(s)
	slices.Sort(sorted)
	return sorted[len(sorted)/2]
}

// ThroughputSample is a cumulative snapshot taken during a download
type ThroughputSample struct {
	BytesReceived  int64   `json:"bytes_received"`
	ElapsedSeconds float64 `json:"elapsed_seconds"`
}

// Valid reports whether enough time has passed to derive a speed
func (s ThroughputSample) Valid() bool {
	return s.ElapsedSeconds >= minElapsedSeconds
}

// Mbps returns the average speed of the sample in megabits (2^20) per second
func (s ThroughputSample) Mbps() float64 {
	if !s.Valid() {
		return 0
	}
	return float64(s.BytesReceived) * 8 / bitsPerMegabit / s.ElapsedSeconds
}

// SpeedTestReport is the final result of one full run
type SpeedTestReport struct {
	ID              string    `json:"id"`
	Timestamp       time.Time `json:"timestamp"`
	PingMillis      int       `json:"ping_ms"`
	DownloadMbps    float64   `json:"download_mbps"`
	UploadMbps      float64   `json:"upload_mbps"`
	PingTarget      string    `json:"ping_target"`
	DownloadURL     string    `json:"download_url"`     // Candidate that served the download, empty if none did
	BytesReceived   int64     `json:"bytes_received"`   // Bytes read during the download phase
	DownloadSeconds float64   `json:"download_seconds"` // Duration of the download phase
	UploadEstimated bool      `json:"upload_estimated"` // Upload is derived from download, not measured
}

// PhaseResult is handed to outputs when a phase completes
type PhaseResult struct {
	Phase Phase
	Value float64
	Unit  string
	Bytes int64 // Only set for the download phase
}

// RunInfo describes a run that is about to start
type RunInfo struct {
	ID         string
	PingTarget string
	Candidates []string
	Duration   time.Duration
}

// Round rounds v to the given number of decimal places
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
