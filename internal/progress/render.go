package progress

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const (
	barWidth   = 30
	barFilled  = "█"
	barEmpty   = "░"
	labelWidth = 60
)

var (
	frameStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#22D3EE"))
	bracketStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#22D3EE"))
	barStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#34D399"))
	speedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FBBF24"))
)

// renderSpinner draws the spinner line for the given frame index
func renderSpinner(frame int, label string) string {
	glyph := spinnerFrames[frame%len(spinnerFrames)]
	return frameStyle.Render(glyph) + " " + truncate(label, labelWidth)
}

// renderBar draws a fixed-width bar for fraction in [0, 1]
func renderBar(fraction float64, speed string) string {
	return bracketStyle.Render("[") + barStyle.Render(bar(fraction, barWidth)) + bracketStyle.Render("]") +
		" " + speedStyle.Render(speed)
}

// bar returns width cells, filled proportionally to fraction
func bar(fraction float64, width int) string {
	if width <= 0 {
		return ""
	}
	filled := int(fraction * float64(width))
	filled = min(max(filled, 0), width)
	return strings.Repeat(barFilled, filled) + strings.Repeat(barEmpty, width-filled)
}

// clearSequence overwrites width cells and returns the cursor to column 0
func clearSequence(width int) string {
	return "\r" + strings.Repeat(" ", max(width, 0)) + "\r"
}

func truncate(s string, width int) string {
	if lipgloss.Width(s) <= width {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && lipgloss.Width(string(r)) > width {
		r = r[:len(r)-1]
	}
	return string(r)
}
