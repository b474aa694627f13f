// Package config handles run configuration and logger setup.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/retroenv/retrogolib/log"

	"github.com/tuboc/chip8vm/emulator"
	"github.com/tuboc/chip8vm/internal/freq"
)

// Frontend names.
const (
	Window   = "window"
	Terminal = "terminal"
	Headless = "headless"
)

const (
	// DefaultSpeed is the clock of the COSMAC VIP.
	DefaultSpeed  = "1.76MHz"
	DefaultCycles = 14
	DefaultScale  = 10
)

// Config holds everything needed to start a run.
type Config struct {
	ROM      string // empty runs the built-in demo program
	Speed    string
	Cycles   int
	Frontend string
	Scale    int

	Watch    bool
	Paused   bool
	Duration time.Duration // headless only, 0 runs until stopped
	Dump     bool          // headless only

	SkipInvalid bool
	Quirks      emulator.Quirks

	Debug bool
	Quiet bool
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Speed:    DefaultSpeed,
		Cycles:   DefaultCycles,
		Frontend: Window,
		Scale:    DefaultScale,
	}
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch {
	case c.Cycles <= 0:
		return fmt.Errorf("cycles must be positive, got %d", c.Cycles)
	case c.Frontend != Window && c.Frontend != Terminal && c.Frontend != Headless:
		return fmt.Errorf("unknown frontend %q", c.Frontend)
	case c.Scale <= 0:
		return fmt.Errorf("scale must be positive, got %d", c.Scale)
	case c.Duration < 0:
		return errors.New("duration must not be negative")
	case c.Watch && c.ROM == "":
		return errors.New("watch needs a rom file")
	}
	return nil
}

// TickInterval returns how long one batch of Cycles instructions takes at
// the configured speed. An unparsable speed is logged and replaced by
// DefaultSpeed.
func (c Config) TickInterval(logger *log.Logger) time.Duration {
	hz, err := freq.Parse(c.Speed)
	if err != nil {
		logger.Warn("Using default speed",
			log.String("speed", c.Speed),
			log.String("default", DefaultSpeed),
			log.Err(err))
		hz, _ = freq.Parse(DefaultSpeed)
	}
	return freq.Period(hz) * time.Duration(c.Cycles)
}

// Options returns the interpreter options for the configuration.
func (c Config) Options() emulator.Options {
	return emulator.Options{
		Quirks:             c.Quirks,
		SkipInvalidOpcodes: c.SkipInvalid,
	}
}

// CreateLogger creates a logger with appropriate settings.
func CreateLogger(debug, quiet bool) *log.Logger {
	cfg := log.DefaultConfig()
	if debug {
		cfg.Level = log.DebugLevel
	} else if quiet {
		cfg.Level = log.ErrorLevel
	}
	return log.NewWithConfig(cfg)
}

// Logger creates the logger for a run. The terminal frontend owns the tty,
// so it only gets errors unless debugging was asked for.
func (c Config) Logger() *log.Logger {
	return CreateLogger(c.Debug, c.Quiet || c.Frontend == Terminal)
}
