package output

import (
	"log/slog"

	"github.com/tkjaer/netspeed/internal/shared"
)

// Output interface for different output types
type Output interface {
	StartRun(info shared.RunInfo)
	CompletePhase(result shared.PhaseResult)
	CompleteReport(report shared.SpeedTestReport)
	Close() error
}

// OutputManager manages multiple outputs
type OutputManager struct {
	outputs []Output
}

func (om *OutputManager) Register(o Output) {
	om.outputs = append(om.outputs, o)
}

func (om *OutputManager) StartRun(info shared.RunInfo) {
	for _, o := range om.outputs {
		o.StartRun(info)
	}
}

func (om *OutputManager) CompletePhase(result shared.PhaseResult) {
	for _, o := range om.outputs {
		o.CompletePhase(result)
	}
}

func (om *OutputManager) CompleteReport(report shared.SpeedTestReport) {
	for _, o := range om.outputs {
		o.CompleteReport(report)
	}
}

func (om *OutputManager) Close() {
	for _, o := range om.outputs {
		if err := o.Close(); err != nil {
			slog.Warn("Failed to close output", "error", err)
		}
	}
}
