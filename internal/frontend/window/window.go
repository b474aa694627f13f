// Package window is the SDL2 frontend. SDL requires all of its calls to come
// from the main OS thread, so New and Run must be called from the main
// goroutine of a program that locked it.
package window

import (
	"fmt"
	"time"

	"github.com/retroenv/retrogolib/log"
	"github.com/veandco/go-sdl2/img"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/tuboc/chip8vm/internal/display"
	"github.com/tuboc/chip8vm/internal/frontend"
	"github.com/tuboc/chip8vm/internal/frontend/fontatlas"
	"github.com/tuboc/chip8vm/internal/keypad"
	"github.com/tuboc/chip8vm/internal/scheduler"
)

const (
	Title        = "chip8vm"
	FramePeriod  = time.Second / 60
	InformationH = frontend.PanelRows*fontatlas.CellH + 2*panelMargin

	panelMargin = 4
)

var scanCode2Key = map[int]byte{
	sdl.SCANCODE_4: 0x1,
	sdl.SCANCODE_5: 0x2,
	sdl.SCANCODE_6: 0x3,
	sdl.SCANCODE_7: 0xc,
	sdl.SCANCODE_R: 0x4,
	sdl.SCANCODE_T: 0x5,
	sdl.SCANCODE_Y: 0x6,
	sdl.SCANCODE_U: 0xd,
	sdl.SCANCODE_F: 0x7,
	sdl.SCANCODE_G: 0x8,
	sdl.SCANCODE_H: 0x9,
	sdl.SCANCODE_J: 0xe,
	sdl.SCANCODE_V: 0xa,
	sdl.SCANCODE_B: 0x0,
	sdl.SCANCODE_N: 0xb,
	sdl.SCANCODE_M: 0xf,
}

// Window renders the display into an SDL window and feeds keyboard input
// into the keypad.
type Window struct {
	logger   *log.Logger
	s        frontend.Surfaces
	scale    int32
	window   *sdl.Window
	renderer *sdl.Renderer
	font     *sdl.Texture

	version     uint64
	status      *scheduler.Status
	keys        keypad.State
	focusPaused bool // paused because the window lost focus
}

// New opens a window showing the display scaled by scale.
func New(logger *log.Logger, s frontend.Surfaces, scale int) (*Window, error) {
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return nil, fmt.Errorf("initializing SDL: %w", err)
	}
	w := &Window{
		logger:  logger,
		s:       s,
		scale:   int32(scale),
		version: s.Display.Version() - 1,
	}
	if err := w.initRenderer(); err != nil {
		w.destroy()
		return nil, err
	}
	return w, nil
}

func (w *Window) initRenderer() error {
	width := max(display.Width*w.scale, frontend.PanelCols*fontatlas.CellW)
	height := display.Height*w.scale + InformationH
	window, err := sdl.CreateWindow(Title, sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED,
		width, height, sdl.WINDOW_SHOWN)
	if err != nil {
		return fmt.Errorf("creating window: %w", err)
	}
	w.window = window

	renderer, err := sdl.CreateRenderer(window, -1, sdl.RENDERER_PRESENTVSYNC)
	if err != nil {
		return fmt.Errorf("creating renderer: %w", err)
	}
	w.renderer = renderer

	// workaround for https://bugzilla.libsdl.org/show_bug.cgi?id=4272
	window.Hide()
	sdl.PumpEvents()
	window.Show()

	return w.initFont()
}

func (w *Window) initFont() error {
	atlas, err := fontatlas.PNG()
	if err != nil {
		return err
	}
	rw, err := sdl.RWFromMem(atlas)
	if err != nil {
		return fmt.Errorf("opening font atlas: %w", err)
	}
	surface, err := img.LoadRW(rw, true)
	if err != nil {
		return fmt.Errorf("loading font atlas: %w", err)
	}
	defer surface.Free()

	texture, err := w.renderer.CreateTextureFromSurface(surface)
	if err != nil {
		return fmt.Errorf("creating font texture: %w", err)
	}
	_ = texture.SetBlendMode(sdl.BLENDMODE_BLEND)
	w.font = texture
	return nil
}

func (w *Window) destroy() {
	if w.font != nil {
		_ = w.font.Destroy()
	}
	if w.renderer != nil {
		_ = w.renderer.Destroy()
	}
	if w.window != nil {
		_ = w.window.Destroy()
	}
	sdl.Quit()
}

// Run draws frames and handles events until the fuse trips. Closing the
// window or pressing Escape trips it.
func (w *Window) Run() error {
	defer w.destroy()

	ticker := time.NewTicker(FramePeriod)
	defer ticker.Stop()

	for {
		w.pollEvents()
		w.draw()

		select {
		case <-w.s.Fuse.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (w *Window) draw() {
	st := w.s.Control.Status()
	statusChanged := st != w.status
	if statusChanged {
		w.status = st
		w.window.SetTitle(frontend.Title(Title, st))
	}
	keys := w.s.Keypad.Snapshot()
	keysChanged := keys != w.keys
	w.keys = keys

	frame, version, changed := w.s.Display.SnapshotIfChanged(w.version)
	if !changed && !statusChanged && !keysChanged {
		return
	}
	if changed {
		w.version = version
	} else {
		frame = w.s.Display.Snapshot()
	}

	_ = w.renderer.SetDrawColor(0, 0, 0, 255)
	_ = w.renderer.Clear()

	_ = w.renderer.SetDrawColor(0, 255, 0, 255)
	for y := int32(0); y < display.Height; y++ {
		for x := int32(0); x < display.Width; x++ {
			if frame[y][x] {
				_ = w.renderer.FillRect(&sdl.Rect{X: x * w.scale, Y: y * w.scale, W: w.scale, H: w.scale})
			}
		}
	}

	w.drawDebugInfo(st, keys)

	w.renderer.Present()
}

func (w *Window) drawDebugInfo(st *scheduler.Status, keys keypad.State) {
	top := display.Height * w.scale
	width, _ := w.window.GetSize()
	_ = w.renderer.SetDrawColor(32, 32, 32, 255)
	_ = w.renderer.FillRect(&sdl.Rect{X: 0, Y: top, W: width, H: InformationH})

	for _, text := range frontend.Panel(st, keys) {
		w.drawText(text.S, panelMargin+text.Col*fontatlas.CellW, int(top)+panelMargin+text.Row*fontatlas.CellH)
	}
}

func (w *Window) drawText(s string, x, y int) {
	for i, r := range []rune(s) {
		cell := fontatlas.Cell(r)
		_ = w.renderer.Copy(w.font,
			&sdl.Rect{X: int32(cell.Min.X), Y: int32(cell.Min.Y), W: fontatlas.CellW, H: fontatlas.CellH},
			&sdl.Rect{X: int32(x + i*fontatlas.CellW), Y: int32(y), W: fontatlas.CellW, H: fontatlas.CellH})
	}
}

func (w *Window) pollEvents() {
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch ev := event.(type) {
		case *sdl.QuitEvent:
			w.logger.Debug("Window closed")
			w.s.Fuse.Trip()

		case *sdl.KeyboardEvent:
			switch ev.Type {
			case sdl.KEYDOWN:
				if i, ok := scanCode2Key[int(ev.Keysym.Scancode)]; ok {
					w.s.Keypad.Set(i, true)
					break
				}
				if ev.Repeat != 0 {
					break
				}
				w.command(ev.Keysym.Scancode)
			case sdl.KEYUP:
				if i, ok := scanCode2Key[int(ev.Keysym.Scancode)]; ok {
					w.s.Keypad.Set(i, false)
				}
			}

		case *sdl.WindowEvent:
			switch ev.Event {
			case sdl.WINDOWEVENT_FOCUS_LOST:
				w.s.Keypad.Release()
				if !w.s.Control.Status().Paused {
					w.focusPaused = true
					w.s.Control.Pause()
				}
			case sdl.WINDOWEVENT_FOCUS_GAINED:
				if w.focusPaused {
					w.focusPaused = false
					w.s.Control.Resume()
				}
			}
		}
	}
}

func (w *Window) command(code sdl.Scancode) {
	switch code {
	case sdl.SCANCODE_ESCAPE:
		w.s.Fuse.Trip()
	case sdl.SCANCODE_SPACE:
		if w.s.Control.Status().Paused {
			w.s.Control.StepOnce()
		} else {
			w.s.Control.Pause()
		}
	case sdl.SCANCODE_RETURN:
		w.focusPaused = false
		w.s.Control.Resume()
	case sdl.SCANCODE_Z:
		w.s.Control.Reset()
	}
}
