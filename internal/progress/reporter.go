package progress

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"golang.org/x/term"
)

const (
	DefaultInterval  = 80 * time.Millisecond
	defaultLineWidth = 80
)

// Reporter draws a single progress line. At most one Handle is live at a time.
type Reporter struct {
	out      io.Writer
	interval time.Duration
	width    int
	enabled  bool

	mu     sync.Mutex
	active *Handle
}

type Option func(*Reporter)

// WithInterval sets the redraw cadence
func WithInterval(d time.Duration) Option {
	return func(r *Reporter) {
		if d > 0 {
			r.interval = d
		}
	}
}

// WithWidth sets the number of cells cleared on stop
func WithWidth(w int) Option {
	return func(r *Reporter) {
		if w > 0 {
			r.width = w
		}
	}
}

// WithEnabled turns rendering on or off. Disabled reporters hand out
// handles whose methods do nothing.
func WithEnabled(enabled bool) Option {
	return func(r *Reporter) {
		r.enabled = enabled
	}
}

// New creates a Reporter writing to out
func New(out io.Writer, opts ...Option) *Reporter {
	r := &Reporter{
		out:      out,
		interval: DefaultInterval,
		width:    terminalWidth(out),
		enabled:  true,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// terminalWidth returns the usable width of out if it is a terminal
func terminalWidth(out io.Writer) int {
	f, ok := out.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return defaultLineWidth
	}
	w, _, err := term.GetSize(int(f.Fd()))
	if err != nil || w <= 1 {
		return defaultLineWidth
	}
	// Writing into the last column wraps on some terminals
	return w - 1
}

// IsTerminal reports whether out is an interactive terminal
func IsTerminal(out io.Writer) bool {
	f, ok := out.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Start launches a render goroutine showing label and returns its handle.
// A handle that is still live is stopped first.
func (r *Reporter) Start(label string) *Handle {
	r.mu.Lock()
	prev := r.active
	r.active = nil
	r.mu.Unlock()
	if prev != nil {
		slog.Debug("Progress handle still live on start, stopping it", "label", prev.label)
		prev.Stop()
	}

	h := &Handle{
		reporter: r,
		label:    label,
		updates:  make(chan update, 1),
		done:     make(chan struct{}),
	}
	if !r.enabled {
		h.disabled = true
		close(h.done)
		return h
	}

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel

	r.mu.Lock()
	r.active = h
	r.mu.Unlock()

	go h.run(ctx)
	return h
}

// Active returns the live handle, or nil
func (r *Reporter) Active() *Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

func (r *Reporter) release(h *Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active == h {
		r.active = nil
	}
}

// update is the latest measurement state handed to the render goroutine
type update struct {
	fraction float64
	speed    string
}

// Handle owns one render goroutine. Its frame index and last update live
// in that goroutine only.
type Handle struct {
	reporter *Reporter
	label    string
	updates  chan update
	cancel   context.CancelFunc
	done     chan struct{}
	disabled bool
	stopOnce sync.Once
}

// Update hands the renderer a new fraction and speed label. It never
// blocks: an update the renderer has not picked up yet is replaced.
func (h *Handle) Update(fraction float64, speedLabel string) {
	if h == nil || h.disabled {
		return
	}
	u := update{fraction: fraction, speed: speedLabel}
	for {
		select {
		case h.updates <- u:
			return
		default:
		}
		select {
		case <-h.updates:
		default:
		}
	}
}

// Stop terminates the render goroutine, waits for it to exit and clears
// the line. Nothing is written by the handle after Stop returns.
func (h *Handle) Stop() {
	if h == nil {
		return
	}
	h.stopOnce.Do(func() {
		if h.disabled {
			return
		}
		h.cancel()
		<-h.done
		h.reporter.write(clearSequence(h.reporter.width))
		h.reporter.release(h)
	})
}

// Done is closed once the render goroutine has exited
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

func (h *Handle) run(ctx context.Context) {
	defer close(h.done)

	ticker := time.NewTicker(h.reporter.interval)
	defer ticker.Stop()

	frame := 0
	var last *update
	clear := clearSequence(h.reporter.width)

	draw := func() {
		if last != nil {
			h.reporter.write(clear + renderBar(last.fraction, last.speed))
		} else {
			h.reporter.write(clear + renderSpinner(frame, h.label))
			frame = (frame + 1) % len(spinnerFrames)
		}
	}

	draw()
	for {
		select {
		case <-ctx.Done():
			return
		case u := <-h.updates:
			last = &u
		case <-ticker.C:
			draw()
		}
	}
}

func (r *Reporter) write(s string) {
	if _, err := io.WriteString(r.out, s); err != nil {
		slog.Debug("Progress write failed", "error", err)
	}
}
