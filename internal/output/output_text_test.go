package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/tkjaer/netspeed/internal/shared"
)

func TestFormatValue(t *testing.T) {
	tests := []struct {
		name   string
		result shared.PhaseResult
		want   string
	}{
		{"ping truncates", shared.PhaseResult{Phase: shared.PhasePing, Value: 42.9, Unit: "ms"}, "42 ms"},
		{"download two decimals", shared.PhaseResult{Phase: shared.PhaseDownload, Value: 19.07, Unit: "Mbps"}, "19.07 Mbps"},
		{"upload pads decimals", shared.PhaseResult{Phase: shared.PhaseUpload, Value: 6, Unit: "Mbps"}, "6.00 Mbps"},
		{"zero download", shared.PhaseResult{Phase: shared.PhaseDownload, Unit: "Mbps"}, "0.00 Mbps"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatValue(tt.result); got != tt.want {
				t.Errorf("formatValue() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRenderBox_EqualWidths(t *testing.T) {
	for phase, style := range phaseStyles {
		box := renderBox(style, "123.45 Mbps")
		lines := strings.Split(box, "\n")
		if len(lines) != 3 {
			t.Fatalf("%s: box has %d lines, want 3", phase, len(lines))
		}
		w := lipgloss.Width(lines[0])
		for i, l := range lines[1:] {
			if got := lipgloss.Width(l); got != w {
				t.Errorf("%s: line %d width = %d, want %d", phase, i+1, got, w)
			}
		}
		if !strings.Contains(lines[0], style.title) {
			t.Errorf("%s: top border %q missing title", phase, lines[0])
		}
		if !strings.Contains(lines[1], style.icon) {
			t.Errorf("%s: content %q missing icon", phase, lines[1])
		}
	}
}

func TestDownloadSummary(t *testing.T) {
	got := downloadSummary(shared.SpeedTestReport{
		DownloadURL:     "https://speed.example.net/__down?bytes=10000000",
		BytesReceived:   12000000,
		DownloadSeconds: 5,
	})
	want := "Downloaded 12 MB from speed.example.net in 5.0s"
	if got != want {
		t.Errorf("downloadSummary() = %q, want %q", got, want)
	}
}

func TestTextOutput_Run(t *testing.T) {
	var buf bytes.Buffer
	out := NewTextOutput(&buf)

	out.StartRun(shared.RunInfo{ID: "x"})
	out.CompletePhase(shared.PhaseResult{Phase: shared.PhasePing, Value: 23, Unit: "ms"})
	out.CompletePhase(shared.PhaseResult{Phase: shared.PhaseDownload, Value: 20, Unit: "Mbps"})
	out.CompletePhase(shared.PhaseResult{Phase: shared.PhaseUpload, Value: 6, Unit: "Mbps"})
	out.CompleteReport(shared.SpeedTestReport{
		DownloadURL:     "https://speed.example.net/x",
		BytesReceived:   1000,
		UploadEstimated: true,
	})
	if err := out.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}

	s := buf.String()
	for _, want := range []string{"NETSPEED", "PING", "23 ms", "DOWNLOAD", "20.00 Mbps", "UPLOAD", "6.00 Mbps", "speed.example.net", "estimated"} {
		if !strings.Contains(s, want) {
			t.Errorf("output missing %q", want)
		}
	}
	if strings.Index(s, "PING") > strings.Index(s, "DOWNLOAD") || strings.Index(s, "DOWNLOAD") > strings.Index(s, "UPLOAD") {
		t.Error("phases printed out of order")
	}
}

func TestTextOutput_NoServer(t *testing.T) {
	var buf bytes.Buffer
	out := NewTextOutput(&buf)

	out.CompleteReport(shared.SpeedTestReport{})

	if !strings.Contains(buf.String(), "No download server could be reached") {
		t.Errorf("output = %q, want unreachable notice", buf.String())
	}
}
