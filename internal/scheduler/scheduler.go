// Package scheduler drives the interpreter at a configured rate and counts
// its timers down at 60 Hz, independently of how many instructions run per
// tick.
package scheduler

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/retroenv/retrogolib/log"

	"github.com/tuboc/chip8vm/emulator"
	"github.com/tuboc/chip8vm/internal/clock"
	"github.com/tuboc/chip8vm/internal/fuse"
)

const (
	// TimerPeriod is the interval of one delay and sound timer decrement.
	TimerPeriod = time.Second / 60
	// MaxLag is how far the scheduler may fall behind before it gives up
	// catching up and continues from the current time.
	MaxLag = 250 * time.Millisecond

	commandQueue = 16
)

// Config controls the pacing of a Scheduler.
type Config struct {
	// Interval is the duration of one tick.
	Interval time.Duration
	// Cycles is the number of instructions executed per tick.
	Cycles int
	// Paused starts the scheduler paused.
	Paused bool
	// Clock defaults to the wall clock.
	Clock clock.Clock
	// Options are passed to every interpreter the scheduler creates.
	Options emulator.Options
}

// Status is a snapshot published after every change of state. A published
// Status is never modified.
type Status struct {
	emulator.Snapshot
	Ticks  uint64
	Paused bool
	Sound  bool
	Fault  error
}

type commandKind uint8

const (
	cmdPause commandKind = iota
	cmdResume
	cmdStep
	cmdReset
	cmdLoad
)

var commandNames = map[commandKind]string{
	cmdPause:  "pause",
	cmdResume: "resume",
	cmdStep:   "step",
	cmdReset:  "reset",
	cmdLoad:   "load",
}

type command struct {
	kind  commandKind
	image []byte
}

// Scheduler owns an interpreter and runs it until the fuse trips. The
// control methods are safe to call from any goroutine; the commands are
// applied between ticks.
type Scheduler struct {
	logger *log.Logger
	clock  clock.Clock
	fuse   *fuse.Fuse
	disp   emulator.Display
	keys   emulator.Keypad
	cfg    Config

	commands chan command
	status   atomic.Pointer[Status]

	// owned by the Run goroutine
	image       []byte
	cpu         *emulator.Chip8
	paused      bool
	ticks       uint64
	next        time.Time // start of the next tick
	timerBase   time.Time // start of the current timer period
	lastPublish time.Time
}

// New returns a scheduler for image. The image is validated before anything
// else so an unloadable program never starts.
func New(logger *log.Logger, f *fuse.Fuse, disp emulator.Display, keys emulator.Keypad,
	image []byte, cfg Config) (*Scheduler, error) {

	if cfg.Cycles <= 0 {
		return nil, fmt.Errorf("cycles must be positive, got %d", cfg.Cycles)
	}
	if cfg.Interval <= 0 {
		return nil, fmt.Errorf("interval must be positive, got %s", cfg.Interval)
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real{}
	}

	s := &Scheduler{
		logger:   logger,
		clock:    cfg.Clock,
		fuse:     f,
		disp:     disp,
		keys:     keys,
		cfg:      cfg,
		commands: make(chan command, commandQueue),
		paused:   cfg.Paused,
	}
	if err := s.load(image); err != nil {
		return nil, err
	}
	s.publish()
	return s, nil
}

// Status returns the most recently published status.
func (s *Scheduler) Status() *Status {
	return s.status.Load()
}

// Pause stops executing instructions and counting timers down.
func (s *Scheduler) Pause() { s.send(command{kind: cmdPause}) }

// Resume continues after Pause or StepOnce.
func (s *Scheduler) Resume() { s.send(command{kind: cmdResume}) }

// StepOnce pauses and executes a single instruction.
func (s *Scheduler) StepOnce() { s.send(command{kind: cmdStep}) }

// Reset restarts the current program from a cleared display.
func (s *Scheduler) Reset() { s.send(command{kind: cmdReset}) }

// Load replaces the running program with image and restarts it. A rejected
// image leaves the current program running.
func (s *Scheduler) Load(image []byte) error {
	if err := emulator.ValidateImage(image); err != nil {
		s.logger.Error("Keeping current program", log.Err(err))
		return err
	}
	s.send(command{kind: cmdLoad, image: append([]byte(nil), image...)})
	return nil
}

func (s *Scheduler) send(cmd command) {
	select {
	case s.commands <- cmd:
	case <-s.fuse.Done():
	}
}

// Run executes ticks until the fuse trips. An execution fault trips the
// fuse with the fault as cause and is returned.
func (s *Scheduler) Run() error {
	s.resync()
	defer s.publish()

	for {
		// The fuse is checked on its own first: a select with a ready
		// command picks between the two at random.
		if s.fuse.IsTripped() {
			return nil
		}
		select {
		case cmd := <-s.commands:
			if err := s.applyUntripped(cmd); err != nil {
				return err
			}
			continue
		default:
		}

		if s.paused {
			s.publish()
			select {
			case <-s.fuse.Done():
				return nil
			case cmd := <-s.commands:
				if err := s.applyUntripped(cmd); err != nil {
					return err
				}
			}
			continue
		}

		if err := s.tick(); err != nil {
			return s.fail(err)
		}
		if s.fuse.IsTripped() {
			return nil
		}
		s.sleep()
	}
}

// tick executes one batch of instructions, then counts the timers down.
func (s *Scheduler) tick() error {
	for i := 0; i < s.cfg.Cycles; i++ {
		state, err := s.cpu.Step()
		if err != nil {
			return err
		}
		if state == emulator.WaitingForKey {
			break
		}
	}
	s.ticks++

	now := s.clock.Now()
	s.countDown(now)
	if now.Sub(s.lastPublish) >= TimerPeriod {
		s.publish()
	}
	return nil
}

// countDown decrements the timers once for every timer period that has
// passed since the last decrement.
func (s *Scheduler) countDown(now time.Time) {
	n := int(now.Sub(s.timerBase) / TimerPeriod)
	if n <= 0 {
		return
	}
	s.cpu.DecrementTimers(n)
	s.timerBase = s.timerBase.Add(time.Duration(n) * TimerPeriod)
}

func (s *Scheduler) sleep() {
	s.next = s.next.Add(s.cfg.Interval)
	now := s.clock.Now()
	if lag := now.Sub(s.next); lag > MaxLag {
		s.logger.Debug("Scheduler behind, skipping ticks", log.Stringer("lag", lag))
		s.next = now
		return
	}
	wait := s.next.Sub(now)
	if wait <= 0 {
		return
	}
	select {
	case <-s.fuse.Done():
	case <-s.clock.After(wait):
	}
}

// resync restarts tick and timer pacing from the current time.
func (s *Scheduler) resync() {
	now := s.clock.Now()
	s.next = now
	s.timerBase = now
}

// applyUntripped drops cmd if the fuse tripped after it was queued.
func (s *Scheduler) applyUntripped(cmd command) error {
	if s.fuse.IsTripped() {
		return nil
	}
	if err := s.apply(cmd); err != nil {
		return s.fail(err)
	}
	return nil
}

func (s *Scheduler) apply(cmd command) error {
	s.logger.Debug("Scheduler command", log.String("command", commandNames[cmd.kind]))

	switch cmd.kind {
	case cmdPause:
		s.paused = true

	case cmdResume:
		if s.paused {
			s.paused = false
			s.resync()
		}

	case cmdStep:
		s.paused = true
		if _, err := s.cpu.Step(); err != nil {
			return err
		}
		s.ticks++

	case cmdReset:
		if err := s.load(s.image); err != nil {
			return err
		}
		s.resync()

	case cmdLoad:
		if err := s.load(cmd.image); err != nil {
			s.logger.Error("Keeping current program", log.Err(err))
			return nil
		}
		s.resync()
	}
	s.publish()
	return nil
}

// load creates a fresh interpreter for image and clears the display.
func (s *Scheduler) load(image []byte) error {
	cpu, err := emulator.New(image, s.disp, s.keys, s.cfg.Options)
	if err != nil {
		return err
	}
	s.image = image
	s.cpu = cpu
	s.ticks = 0
	s.disp.Clear()
	return nil
}

func (s *Scheduler) fail(err error) error {
	var fault *emulator.Fault
	if errors.As(err, &fault) {
		s.logger.Error("Execution fault",
			log.Stringer("fault", fault.Code),
			log.Hex("opcode", fault.Op),
			log.Hex("address", fault.Addr))
	}
	// publish first so whoever wakes up on the fuse sees the fault
	s.publishFault(err)
	s.fuse.Fail(err)
	return err
}

func (s *Scheduler) publish() {
	s.publishFault(s.Status().faultOrNil())
}

func (s *Scheduler) publishFault(fault error) {
	st := &Status{
		Snapshot: s.cpu.Snapshot(),
		Ticks:    s.ticks,
		Paused:   s.paused,
		Sound:    s.cpu.SoundActive(),
		Fault:    fault,
	}
	s.lastPublish = s.clock.Now()
	s.status.Store(st)
}

func (st *Status) faultOrNil() error {
	if st == nil {
		return nil
	}
	return st.Fault
}
