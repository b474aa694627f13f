// Package machine wires the surfaces, the scheduler, the optional file
// watcher and a frontend together and owns the lifecycle of one run.
//
// The scheduler and the watcher run in their own goroutines. The frontend
// runs on the goroutine calling Run, which for the window frontend must be
// the main OS thread.
package machine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/retroenv/retrogolib/log"
	"golang.org/x/sync/errgroup"

	"github.com/tuboc/chip8vm/internal/config"
	"github.com/tuboc/chip8vm/internal/display"
	"github.com/tuboc/chip8vm/internal/frontend"
	"github.com/tuboc/chip8vm/internal/frontend/headless"
	"github.com/tuboc/chip8vm/internal/frontend/terminal"
	"github.com/tuboc/chip8vm/internal/frontend/window"
	"github.com/tuboc/chip8vm/internal/fuse"
	"github.com/tuboc/chip8vm/internal/keypad"
	"github.com/tuboc/chip8vm/internal/reload"
	"github.com/tuboc/chip8vm/internal/scheduler"
)

// FrontendFunc creates the frontend of a run.
type FrontendFunc func(s frontend.Surfaces) (frontend.Frontend, error)

// Machine runs programs with a fixed configuration.
type Machine struct {
	logger *log.Logger
	cfg    config.Config

	// NewFrontend defaults to the frontend named in the configuration.
	NewFrontend FrontendFunc
	// Stdout receives the headless dump.
	Stdout io.Writer
}

// New returns a machine for cfg, which must be valid.
func New(logger *log.Logger, cfg config.Config) *Machine {
	m := &Machine{
		logger: logger,
		cfg:    cfg,
		Stdout: os.Stdout,
	}
	m.NewFrontend = m.configuredFrontend
	return m
}

func (m *Machine) configuredFrontend(s frontend.Surfaces) (frontend.Frontend, error) {
	switch m.cfg.Frontend {
	case config.Window:
		return window.New(m.logger, s, m.cfg.Scale)
	case config.Terminal:
		return terminal.New(m.logger, s, nil), nil
	case config.Headless:
		opts := headless.Options{Duration: m.cfg.Duration}
		if m.cfg.Dump {
			opts.Dump = m.Stdout
		}
		return headless.New(m.logger, s, opts), nil
	}
	return nil, fmt.Errorf("unknown frontend %q", m.cfg.Frontend)
}

// Run executes image until ctx is cancelled, the frontend quits or the
// program faults. A fault is returned as an *emulator.Fault.
func (m *Machine) Run(ctx context.Context, image []byte) error {
	f := fuse.New(ctx)
	defer f.Trip()

	s := frontend.Surfaces{
		Fuse:    f,
		Display: display.New(),
		Keypad:  keypad.New(),
	}

	interval := m.cfg.TickInterval(m.logger)
	sched, err := scheduler.New(m.logger, f, s.Display, s.Keypad, image, scheduler.Config{
		Interval: interval,
		Cycles:   m.cfg.Cycles,
		Paused:   m.cfg.Paused,
		Options:  m.cfg.Options(),
	})
	if err != nil {
		return fmt.Errorf("creating scheduler: %w", err)
	}
	s.Control = sched

	var watcher *reload.Watcher
	if m.cfg.Watch {
		if watcher, err = reload.New(m.logger, m.cfg.ROM, sched); err != nil {
			return err
		}
	}

	front, err := m.NewFrontend(s)
	if err != nil {
		return fmt.Errorf("creating frontend: %w", err)
	}

	m.logger.Info("Starting",
		log.String("rom", romName(m.cfg.ROM)),
		log.Int("size", len(image)),
		log.String("speed", m.cfg.Speed),
		log.Int("cycles", m.cfg.Cycles),
		log.Stringer("tick", interval),
		log.String("frontend", m.cfg.Frontend))

	var g errgroup.Group
	g.Go(sched.Run)
	if watcher != nil {
		g.Go(func() error { return watcher.Run(f.Context()) })
	}

	frontErr := front.Run()
	f.Trip()
	runErr := g.Wait()

	var finishErr error
	if fin, ok := front.(frontend.Finisher); ok {
		finishErr = fin.Finish()
	}

	if fault := f.Fault(); fault != nil {
		return fault
	}
	return errors.Join(frontErr, runErr, finishErr)
}

func romName(path string) string {
	if path == "" {
		return "demo"
	}
	return path
}
