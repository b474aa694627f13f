package terminal

import (
	"sync"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/retroenv/retrogolib/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuboc/chip8vm/emulator"
	"github.com/tuboc/chip8vm/internal/display"
	"github.com/tuboc/chip8vm/internal/frontend"
	"github.com/tuboc/chip8vm/internal/fuse"
	"github.com/tuboc/chip8vm/internal/keypad"
	"github.com/tuboc/chip8vm/internal/scheduler"
)

type fakeControl struct {
	mu     sync.Mutex
	calls  []string
	status *scheduler.Status
}

func (f *fakeControl) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeControl) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeControl) Pause()    { f.record("pause") }
func (f *fakeControl) Resume()   { f.record("resume") }
func (f *fakeControl) StepOnce() { f.record("step") }
func (f *fakeControl) Reset()    { f.record("reset") }

func (f *fakeControl) Status() *scheduler.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

type fixture struct {
	term    *Terminal
	sim     tcell.SimulationScreen
	control *fakeControl
	s       frontend.Surfaces
	done    chan error
}

func start(t *testing.T) fixture {
	t.Helper()
	control := &fakeControl{status: &scheduler.Status{
		Snapshot: emulator.Snapshot{PC: 0x200, History: []string{"200-00E0 CLS"}},
	}}
	s := frontend.Surfaces{
		Fuse:    fuse.New(t.Context()),
		Display: display.New(),
		Keypad:  keypad.New(),
		Control: control,
	}
	sim := tcell.NewSimulationScreen("UTF-8")
	f := fixture{
		term:    New(log.NewTestLogger(t), s, sim),
		sim:     sim,
		control: control,
		s:       s,
		done:    make(chan error, 1),
	}
	go func() { f.done <- f.term.Run() }()
	return f
}

func (f fixture) wait(t *testing.T) error {
	t.Helper()
	select {
	case err := <-f.done:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("terminal did not stop")
		return nil
	}
}

func (f fixture) cell(x, y int) rune {
	cells, w, _ := f.sim.GetContents()
	if y*w+x >= len(cells) || len(cells[y*w+x].Runes) == 0 {
		return 0
	}
	return cells[y*w+x].Runes[0]
}

func TestRendersHalfBlocks(t *testing.T) {
	f := start(t)
	f.s.Display.DrawSprite([]byte{0x80, 0xC0, 0x00, 0x40}, 0, 0)

	// The display starts inside the border at (1,1).
	require.Eventually(t, func() bool {
		return f.cell(1, 1) == '█' && f.cell(2, 1) == '▄' && f.cell(2, 2) == '▄' && f.cell(1, 2) == ' '
	}, 2*time.Second, 10*time.Millisecond)

	f.s.Fuse.Trip()
	assert.NoError(t, f.wait(t))
}

func TestKeysAutoRelease(t *testing.T) {
	f := start(t)

	f.sim.InjectKey(tcell.KeyRune, 'Q', tcell.ModNone)
	require.Eventually(t, func() bool { return f.s.Keypad.Pressed(0x4) }, 2*time.Second, time.Millisecond)
	require.Eventually(t, func() bool { return !f.s.Keypad.Pressed(0x4) }, 2*time.Second, 10*time.Millisecond)

	f.s.Fuse.Trip()
	assert.NoError(t, f.wait(t))
}

func TestControlKeys(t *testing.T) {
	f := start(t)

	f.sim.InjectKey(tcell.KeyRune, ' ', tcell.ModNone)
	f.sim.InjectKey(tcell.KeyEnter, 0, tcell.ModNone)
	f.sim.InjectKey(tcell.KeyF5, 0, tcell.ModNone)
	require.Eventually(t, func() bool { return len(f.control.Calls()) == 3 }, 2*time.Second, time.Millisecond)
	assert.Equal(t, []string{"pause", "resume", "reset"}, f.control.Calls())

	f.sim.InjectKey(tcell.KeyEscape, 0, tcell.ModNone)
	assert.NoError(t, f.wait(t))
	assert.True(t, f.s.Fuse.IsTripped())
}

func TestQuitWhileRefreshing(t *testing.T) {
	for i := 0; i < 20; i++ {
		f := start(t)
		select {
		case <-f.term.ready:
		case <-time.After(5 * time.Second):
			t.Fatal("terminal did not draw")
		}
		// Keep the refresh goroutine busy queueing redraws.
		f.s.Display.DrawSprite([]byte{0xFF}, i, 0)
		f.sim.InjectKey(tcell.KeyEscape, 0, tcell.ModNone)

		require.NoError(t, f.wait(t))
		assert.True(t, f.s.Fuse.IsTripped())
	}
}

func TestFuseTrippedBeforeFirstDraw(t *testing.T) {
	f := start(t)
	f.s.Fuse.Trip()
	assert.NoError(t, f.wait(t))
}

func TestTrippedFuseStopsTerminal(t *testing.T) {
	f := start(t)
	time.Sleep(50 * time.Millisecond)
	f.s.Fuse.Fail(emulator.StackOverflow)
	assert.NoError(t, f.wait(t))
}

func TestHalfBlock(t *testing.T) {
	assert.Equal(t, ' ', halfBlock(false, false))
	assert.Equal(t, '▀', halfBlock(true, false))
	assert.Equal(t, '▄', halfBlock(false, true))
	assert.Equal(t, '█', halfBlock(true, true))
}
