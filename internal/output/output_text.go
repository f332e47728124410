package output

import (
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/tkjaer/netspeed/internal/shared"
)

// boxInnerWidth is the number of cells between the box borders
const boxInnerWidth = 20

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#22D3EE")).
			Border(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color("#22D3EE")).
			Padding(0, 9)

	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#E5E7EB"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F87171"))
)

// phaseStyle describes how a phase result is boxed
type phaseStyle struct {
	title string
	icon  string
	color lipgloss.Style
}

var phaseStyles = map[shared.Phase]phaseStyle{
	shared.PhasePing:     {"PING", "⚡", lipgloss.NewStyle().Foreground(lipgloss.Color("#FBBF24"))},
	shared.PhaseDownload: {"DOWNLOAD", "📥", lipgloss.NewStyle().Foreground(lipgloss.Color("#34D399"))},
	shared.PhaseUpload:   {"UPLOAD", "📤", lipgloss.NewStyle().Foreground(lipgloss.Color("#E879F9"))},
}

// TextOutput prints a banner and one colored box per phase
type TextOutput struct {
	mu sync.Mutex
	w  io.Writer
}

func NewTextOutput(w io.Writer) *TextOutput {
	return &TextOutput{w: w}
}

func (t *TextOutput) StartRun(info shared.RunInfo) {
	t.mu.Lock()
	defer t.mu.Unlock()

	fmt.Fprintln(t.w)
	fmt.Fprintln(t.w, headerStyle.Render("NETSPEED"))
	fmt.Fprintln(t.w)
	fmt.Fprintln(t.w, mutedStyle.Render("  Starting speed test..."))
	fmt.Fprintln(t.w)
}

func (t *TextOutput) CompletePhase(result shared.PhaseResult) {
	t.mu.Lock()
	defer t.mu.Unlock()

	style, ok := phaseStyles[result.Phase]
	if !ok {
		style = phaseStyle{title: strings.ToUpper(string(result.Phase)), icon: "•", color: lipgloss.NewStyle()}
	}
	fmt.Fprintln(t.w)
	fmt.Fprintln(t.w, renderBox(style, formatValue(result)))
}

func (t *TextOutput) CompleteReport(report shared.SpeedTestReport) {
	t.mu.Lock()
	defer t.mu.Unlock()

	fmt.Fprintln(t.w)
	if report.DownloadURL == "" {
		fmt.Fprintln(t.w, warnStyle.Render("  No download server could be reached"))
	} else {
		fmt.Fprintln(t.w, mutedStyle.Render("  "+downloadSummary(report)))
	}
	if report.UploadEstimated {
		fmt.Fprintln(t.w, mutedStyle.Render("  Upload is estimated from download speed"))
	}
	fmt.Fprintln(t.w)
	fmt.Fprintln(t.w, mutedStyle.Render("  "+strings.Repeat("─", 40)))
	fmt.Fprintln(t.w)
}

func (t *TextOutput) Close() error { return nil }

// formatValue renders a phase value with its unit
func formatValue(result shared.PhaseResult) string {
	if result.Phase == shared.PhasePing {
		return fmt.Sprintf("%d %s", int(result.Value), result.Unit)
	}
	return fmt.Sprintf("%.2f %s", result.Value, result.Unit)
}

// renderBox draws a titled box whose lines all have the same width
func renderBox(style phaseStyle, value string) string {
	title := style.title
	topFill := max(boxInnerWidth-lipgloss.Width(title)-3, 0)
	top := "┌─ " + title + " " + strings.Repeat("─", topFill) + "┐"

	content := style.icon + " " + value
	pad := max(boxInnerWidth-lipgloss.Width(content)-1, 0)
	mid := borderStyle.Render("│ ") + style.color.Render(content) + strings.Repeat(" ", pad) + borderStyle.Render("│")

	bottom := "└" + strings.Repeat("─", max(boxInnerWidth, lipgloss.Width(title)+3)) + "┘"

	return "  " + borderStyle.Render(top) + "\n" +
		"  " + mid + "\n" +
		"  " + borderStyle.Render(bottom)
}

// downloadSummary describes how much was transferred and from where
func downloadSummary(report shared.SpeedTestReport) string {
	host := report.DownloadURL
	if u, err := url.Parse(report.DownloadURL); err == nil && u.Host != "" {
		host = u.Host
	}
	return fmt.Sprintf("Downloaded %s from %s in %.1fs",
		humanize.Bytes(uint64(max(report.BytesReceived, 0))), host, report.DownloadSeconds)
}
