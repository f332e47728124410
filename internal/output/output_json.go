package output

import (
	"encoding/json"
	"log/slog"
	"os"
	"sync"

	"github.com/tkjaer/netspeed/internal/shared"
)

// JSONOutput writes one JSON line per completed report to a file or stdout
type JSONOutput struct {
	mu       sync.Mutex
	file     *os.File
	enc      *json.Encoder
	toStdout bool
}

// NewJSONOutput writes to stdout when filename is empty. Files are
// appended to so a long-running exporter can follow them.
func NewJSONOutput(filename string) (*JSONOutput, error) {
	if filename == "" {
		return &JSONOutput{
			file:     os.Stdout,
			enc:      json.NewEncoder(os.Stdout),
			toStdout: true,
		}, nil
	}
	f, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return &JSONOutput{
		file: f,
		enc:  json.NewEncoder(f),
	}, nil
}

func (j *JSONOutput) StartRun(info shared.RunInfo) {
	// No-op for JSON, only output on complete report
}

func (j *JSONOutput) CompletePhase(result shared.PhaseResult) {
	// No-op for JSON, only output on complete report
}

func (j *JSONOutput) CompleteReport(report shared.SpeedTestReport) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if err := j.enc.Encode(report); err != nil {
		slog.Error("Failed to write JSON report", "id", report.ID, "error", err)
	}
}

func (j *JSONOutput) Close() error {
	if j.toStdout {
		return nil
	}
	return j.file.Close()
}
