// Package update reinstalls netspeed from the latest published module.
package update

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Package is the install path of the netspeed command
const Package = "github.com/tkjaer/netspeed/cmd/netspeed@latest"

var (
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#22D3EE"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#34D399"))
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F87171"))
)

// Dependencies provides optional overrides for testing.
type Dependencies struct {
	RunCommand func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ManualCommand is the command users can run themselves when updating fails
func ManualCommand() string {
	return "go install " + Package
}

// Run installs the latest release and reports progress on out.
// The returned error is also described on out.
func Run(ctx context.Context, out io.Writer, deps Dependencies) error {
	if deps.RunCommand == nil {
		deps.RunCommand = func(ctx context.Context, name string, args ...string) ([]byte, error) {
			cmd := exec.CommandContext(ctx, name, args...)
			return cmd.CombinedOutput()
		}
	}

	fmt.Fprintln(out, infoStyle.Render("  Checking for updates..."))
	fmt.Fprintln(out)

	output, err := deps.RunCommand(ctx, "go", "install", Package)
	if trimmed := bytes.TrimSpace(output); len(trimmed) > 0 {
		slog.Debug("go install output", "output", string(trimmed))
	}
	if err != nil {
		slog.Error("Update failed", "error", err)
		fmt.Fprintln(out, failStyle.Render("  ✗ Update failed. Try running: "+ManualCommand()))
		if msg := firstLine(output); msg != "" {
			fmt.Fprintln(out, failStyle.Render("    "+msg))
		}
		return fmt.Errorf("go install: %w", err)
	}

	fmt.Fprintln(out, successStyle.Render("  ✓ Update successful!"))
	return nil
}

func firstLine(b []byte) string {
	s := strings.TrimSpace(string(b))
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return s
}
