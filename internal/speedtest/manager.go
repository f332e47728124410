package speedtest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/tkjaer/netspeed/internal/config"
	"github.com/tkjaer/netspeed/internal/latency"
	"github.com/tkjaer/netspeed/internal/menu"
	"github.com/tkjaer/netspeed/internal/output"
	"github.com/tkjaer/netspeed/internal/progress"
	"github.com/tkjaer/netspeed/internal/throughput"
	"github.com/tkjaer/netspeed/internal/update"
	"github.com/tkjaer/netspeed/internal/version"
	"github.com/tkjaer/netspeed/pkg/dnscache"
)

// Manager owns one process lifetime: a single run, or the menu loop
type Manager struct {
	// Coordination
	ctx      context.Context
	cancel   context.CancelFunc
	stopOnce sync.Once

	mode string
	in   io.Reader
	out  io.Writer

	runner   *Runner
	outputs  *output.OutputManager
	resolver *dnscache.Resolver

	// Overridable for tests
	prompt     func(ctx context.Context, in io.Reader, out io.Writer) (menu.Choice, error)
	pauseFunc  func(in io.Reader, out io.Writer) error
	updateDeps update.Dependencies
}

// NewManager wires the measurement engine and outputs from args
func NewManager(a config.Args, in io.Reader, out io.Writer) (*Manager, error) {
	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		ctx:       ctx,
		cancel:    cancel,
		mode:      a.Mode(),
		in:        in,
		out:       out,
		resolver:  dnscache.NewResolver(a.DNSTTL),
		prompt:    menu.Prompt,
		pauseFunc: menu.Pause,
	}

	outputs, err := m.createOutputs(a)
	if err != nil {
		cancel()
		return nil, err
	}
	m.outputs = outputs

	if a.Insecure {
		slog.Warn("TLS certificate verification disabled for download servers")
	}

	prober := latency.NewHTTPHeadProber(m.resolver, a.PingTimeout)
	sampler := latency.NewSampler(prober, int(a.PingCount), a.PingTimeout, a.PingPenalty)
	fetcher := throughput.NewHTTPFetcher(m.resolver, a.ConnectTimeout, a.Insecure)
	probe := throughput.NewProbe(fetcher, a.Duration)

	reporter := progress.New(out,
		progress.WithEnabled(m.mode != "json" && progress.IsTerminal(out)),
	)

	m.runner = NewRunner(Config{
		PingTarget:  a.PingTarget,
		Candidates:  a.Servers,
		MaxDuration: a.Duration,
	}, sampler, probe, reporter, m.outputs)

	return m, nil
}

// createOutputs registers the outputs for the configured mode
func (m *Manager) createOutputs(a config.Args) (*output.OutputManager, error) {
	om := &output.OutputManager{}

	// JSON mode replaces the text output
	if a.Json {
		jsonOut, err := output.NewJSONOutput("") // empty string = stdout
		if err != nil {
			return nil, err
		}
		om.Register(jsonOut)
	} else {
		om.Register(output.NewTextOutput(m.out))
	}

	if a.JsonFile != "" {
		jsonOut, err := output.NewJSONOutput(a.JsonFile)
		if err != nil {
			om.Close()
			return nil, fmt.Errorf("open json file: %w", err)
		}
		om.Register(jsonOut)
	}

	return om, nil
}

// Run executes a single test or the menu loop, depending on the mode.
// It returns context.Canceled when interrupted.
func (m *Manager) Run() error {
	defer m.outputs.Close()

	if m.mode != "menu" {
		_, err := m.runner.Run(m.ctx)
		return err
	}

	for {
		choice, err := m.prompt(m.ctx, m.in, m.out)
		if m.ctx.Err() != nil {
			return m.ctx.Err()
		}
		if err != nil {
			return err
		}
		slog.Debug("Menu choice", "choice", choice.String())

		switch choice {
		case menu.ChoiceRun:
			if _, err := m.runner.Run(m.ctx); err != nil {
				return err
			}
		case menu.ChoiceVersion:
			fmt.Fprintln(m.out, menu.RenderVersion(version.Version, version.GoVersion()))
			fmt.Fprintln(m.out)
		case menu.ChoiceUpdate:
			// Failures are reported on the terminal by update.Run
			_ = update.Run(m.ctx, m.out, m.updateDeps)
			fmt.Fprintln(m.out)
		case menu.ChoiceExit:
			fmt.Fprintln(m.out, "  Goodbye! 👋")
			fmt.Fprintln(m.out)
			return nil
		case menu.ChoiceCancel:
			m.Stop()
			return m.ctx.Err()
		default:
			continue
		}

		if err := m.pause(); err != nil {
			return err
		}
	}
}

// pause waits for enter, returning early when the manager is stopped
func (m *Manager) pause() error {
	done := make(chan error, 1)
	go func() {
		done <- m.pauseFunc(m.in, m.out)
	}()

	select {
	case err := <-done:
		return err
	case <-m.ctx.Done():
		return m.ctx.Err()
	}
}

// Stop cancels the current run. Run returns once the active phase has
// released the progress line.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		slog.Debug("Stopping speed test manager")
		m.cancel()
	})
}
