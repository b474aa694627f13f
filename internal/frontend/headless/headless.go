// Package headless is a frontend without any output device. It polls the
// display like a screen would, which makes it suitable for scripted runs
// and CI.
package headless

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/retroenv/retrogolib/log"

	"github.com/tuboc/chip8vm/internal/clock"
	"github.com/tuboc/chip8vm/internal/frontend"
)

// FramePeriod is the display polling interval.
const FramePeriod = time.Second / 60

// Options configure a headless run.
type Options struct {
	// Duration trips the fuse after the given time. 0 runs until the fuse
	// is tripped elsewhere.
	Duration time.Duration
	// Dump receives the final frame and registers from Finish, if set.
	Dump io.Writer
	// Clock defaults to the wall clock.
	Clock clock.Clock
}

// Headless counts frames until the fuse trips.
type Headless struct {
	logger *log.Logger
	s      frontend.Surfaces
	opts   Options

	frames  uint64
	redraws uint64
}

// New returns a headless frontend.
func New(logger *log.Logger, s frontend.Surfaces, opts Options) *Headless {
	if opts.Clock == nil {
		opts.Clock = clock.Real{}
	}
	return &Headless{logger: logger, s: s, opts: opts}
}

// Run polls the display once per frame until the fuse trips.
func (h *Headless) Run() error {
	start := h.opts.Clock.Now()
	version := h.s.Display.Version()

	for !h.s.Fuse.IsTripped() {
		select {
		case <-h.s.Fuse.Done():
		case now := <-h.opts.Clock.After(FramePeriod):
			h.frames++
			if v := h.s.Display.Version(); v != version {
				version = v
				h.redraws++
			}
			if h.opts.Duration > 0 && now.Sub(start) >= h.opts.Duration {
				h.logger.Debug("Run duration reached", log.Stringer("duration", h.opts.Duration))
				h.s.Fuse.Trip()
			}
		}
	}

	h.logger.Debug("Headless run finished",
		log.Int("frames", int(h.frames)),
		log.Int("redraws", int(h.redraws)))
	return nil
}

// Finish writes the dump. It is called once the scheduler has stopped, so
// the frame and the registers belong to the same final state.
func (h *Headless) Finish() error {
	if h.opts.Dump == nil {
		return nil
	}
	return h.dump()
}

// Frames returns the number of frames polled so far.
func (h *Headless) Frames() uint64 {
	return h.frames
}

// Redraws returns the number of polled frames in which the display changed.
func (h *Headless) Redraws() uint64 {
	return h.redraws
}

func (h *Headless) dump() error {
	st := h.s.Control.Status()
	var b strings.Builder
	b.WriteString(h.s.Display.Snapshot().String())
	b.WriteString(frontend.Title("chip8vm", st) + "\n")
	for _, line := range frontend.Registers(st) {
		b.WriteString(line + "\n")
	}
	if _, err := io.WriteString(h.opts.Dump, b.String()); err != nil {
		return fmt.Errorf("writing dump: %w", err)
	}
	return nil
}
