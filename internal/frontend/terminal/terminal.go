// Package terminal is a text mode frontend. The display is drawn with half
// block characters, two pixel rows per terminal row, next to a register
// panel and the recent instruction history.
package terminal

import (
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/gdamore/tcell/v2"
	"github.com/retroenv/retrogolib/log"
	"github.com/rivo/tview"

	"github.com/tuboc/chip8vm/internal/display"
	"github.com/tuboc/chip8vm/internal/frontend"
	"github.com/tuboc/chip8vm/internal/keypad"
	"github.com/tuboc/chip8vm/internal/scheduler"
)

const (
	Title         = "chip8vm"
	RefreshPeriod = time.Second / 60
	// KeyHold is how long a key stays pressed after the terminal reported
	// it. Terminals send no key release events, and repeats arrive while a
	// key is held.
	KeyHold = 150 * time.Millisecond

	help = "Esc quit  Space step  Enter run  F5 reset"
)

var runeKeys = map[rune]uint8{
	'1': 0x1, '2': 0x2, '3': 0x3, '4': 0xc,
	'q': 0x4, 'w': 0x5, 'e': 0x6, 'r': 0xd,
	'a': 0x7, 's': 0x8, 'd': 0x9, 'f': 0xe,
	'z': 0xa, 'x': 0x0, 'c': 0xb, 'v': 0xf,
}

var pixelStyle = tcell.StyleDefault.Foreground(tcell.ColorGreen)

// Terminal is a tview application showing the machine state.
type Terminal struct {
	logger *log.Logger
	s      frontend.Surfaces

	app     *tview.Application
	screen  *tview.Box
	regs    *tview.TextView
	history *tview.TextView
	state   *tview.TextView

	mu        sync.Mutex
	releaseAt [keypad.Keys]time.Time

	ready     chan struct{} // closed after the first draw
	readyOnce sync.Once

	// owned by the refresh goroutine
	version uint64
	status  *scheduler.Status
	keys    keypad.State
}

// New builds the interface. A nil screen uses the controlling terminal.
func New(logger *log.Logger, s frontend.Surfaces, screen tcell.Screen) *Terminal {
	t := &Terminal{
		logger: logger,
		s:      s,
		app:    tview.NewApplication(),
		screen: tview.NewBox().
			SetBorder(true).
			SetTitle(" " + Title + " "),
		regs: tview.NewTextView().
			SetWrap(false),
		history: tview.NewTextView().
			SetWrap(false),
		state: tview.NewTextView().
			SetWrap(false),
		ready: make(chan struct{}),
	}
	if screen != nil {
		t.app.SetScreen(screen)
	}
	t.screen.SetDrawFunc(t.drawDisplay)
	t.state.SetBackgroundColor(tcell.ColorDarkBlue)
	t.history.SetBorder(true).SetTitle(" history ")

	cols := tview.NewFlex().
		AddItem(t.screen, display.Width+2, 0, false).
		AddItem(t.regs, 0, 1, false)
	rows := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(cols, display.Height/2+2, 0, false).
		AddItem(t.history, 0, 1, false).
		AddItem(t.state, 1, 0, false)
	t.app.SetRoot(rows, true)
	t.app.SetInputCapture(t.handleKey)
	t.app.SetAfterDrawFunc(func(tcell.Screen) {
		t.readyOnce.Do(func() { close(t.ready) })
	})
	return t
}

// Run shows the interface until the fuse trips or the user quits, which
// trips the fuse.
func (t *Terminal) Run() error {
	if t.s.Fuse.IsTripped() {
		return nil
	}

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		t.refresh(done)
	}()

	err := t.app.Run()
	t.s.Fuse.Trip()
	close(done)
	wg.Wait()
	if err != nil {
		return fmt.Errorf("running terminal: %w", err)
	}
	return nil
}

func (t *Terminal) refresh(done <-chan struct{}) {
	// Stopping before the first draw would race with Run creating the screen.
	select {
	case <-t.ready:
	case <-done:
		return
	}

	ticker := time.NewTicker(RefreshPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-t.s.Fuse.Done():
			// Every queued update has completed here, so the event loop
			// can be stopped without leaving anything waiting on it.
			t.app.Stop()
			return
		case now := <-ticker.C:
			t.releaseExpired(now)

			st := t.s.Control.Status()
			version := t.s.Display.Version()
			keys := t.s.Keypad.Snapshot()
			if st == t.status && version == t.version && keys == t.keys {
				continue
			}
			t.status, t.version, t.keys = st, version, keys
			if !t.queueDraw(done, func() { t.update(st, keys) }) {
				return
			}
		}
	}
}

// queueDraw runs f on the event loop and redraws. It gives up when done is
// closed, since an event loop that has exited never runs queued updates.
func (t *Terminal) queueDraw(done <-chan struct{}, f func()) bool {
	drawn := make(chan struct{})
	go func() {
		t.app.QueueUpdateDraw(f)
		close(drawn)
	}()
	select {
	case <-drawn:
		return true
	case <-done:
		return false
	}
}

func (t *Terminal) update(st *scheduler.Status, keys keypad.State) {
	var b strings.Builder
	for i := 0; i < 8; i++ {
		fmt.Fprintf(&b, " V%X=%02X V%X=%02X\n", i, st.V[i], i+8, st.V[i+8])
	}
	fmt.Fprintf(&b, " DT=%02X ST=%02X\n", st.DT, st.ST)
	fmt.Fprintf(&b, " SP=%02X I=%04X\n", st.SP, st.I)
	fmt.Fprintf(&b, " PC=%04X\n\n", st.PC)
	for _, line := range frontend.Keys(keys) {
		b.WriteString(" " + line + "\n")
	}
	t.regs.SetText(b.String())

	t.history.SetText(strings.Join(st.History, "\n"))
	t.history.ScrollToEnd()

	t.state.SetText(frontend.Title(Title, st) + "  " + help)
}

func (t *Terminal) drawDisplay(screen tcell.Screen, x, y, width, height int) (int, int, int, int) {
	x, y, width, height = x+1, y+1, width-2, height-2
	frame := t.s.Display.Snapshot()
	for row := 0; row < display.Height/2 && row < height; row++ {
		for col := 0; col < display.Width && col < width; col++ {
			screen.SetContent(x+col, y+row, halfBlock(frame[2*row][col], frame[2*row+1][col]), nil, pixelStyle)
		}
	}
	return x, y, width, height
}

func halfBlock(top, bottom bool) rune {
	switch {
	case top && bottom:
		return '█'
	case top:
		return '▀'
	case bottom:
		return '▄'
	}
	return ' '
}

func (t *Terminal) handleKey(ev *tcell.EventKey) *tcell.EventKey {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		t.logger.Debug("Quit requested")
		t.s.Fuse.Trip()
	case tcell.KeyEnter:
		t.s.Control.Resume()
	case tcell.KeyF5:
		t.s.Control.Reset()
	case tcell.KeyRune:
		r := unicode.ToLower(ev.Rune())
		if r == ' ' {
			if t.s.Control.Status().Paused {
				t.s.Control.StepOnce()
			} else {
				t.s.Control.Pause()
			}
			break
		}
		if key, ok := runeKeys[r]; ok {
			t.press(key, time.Now())
		}
	}
	return nil
}

func (t *Terminal) press(key uint8, now time.Time) {
	t.mu.Lock()
	t.releaseAt[key] = now.Add(KeyHold)
	t.mu.Unlock()
	t.s.Keypad.Set(key, true)
}

func (t *Terminal) releaseExpired(now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for key, at := range t.releaseAt {
		if !at.IsZero() && now.After(at) {
			t.releaseAt[key] = time.Time{}
			t.s.Keypad.Set(uint8(key), false)
		}
	}
}
