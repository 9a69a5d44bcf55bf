// Package term draws resolved surface controls and panels on a terminal
// screen using tcell.
package term

import (
	"fmt"
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/openfab/forgebench/internal/surface"
)

// Frontend renders resolved controls and panels and routes mouse clicks
// back to the controls drawn at the clicked cells.
type Frontend struct {
	mu     sync.Mutex
	screen tcell.Screen
	owned  bool

	// spans maps drawn toolbar extents to their controls, rebuilt on
	// every DrawToolbar.
	spans    []span
	spansRow int
}

type span struct {
	x0, x1  int
	control surface.Control
}

// New creates a frontend on a real terminal screen.
func New() (*Frontend, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if err := screen.Init(); err != nil {
		return nil, err
	}
	screen.EnableMouse()
	return &Frontend{screen: screen, owned: true}, nil
}

// NewWithScreen wraps an already-initialized screen. Used with tcell's
// SimulationScreen in tests; Close does not finalize a wrapped screen.
func NewWithScreen(screen tcell.Screen) *Frontend {
	return &Frontend{screen: screen}
}

// Size returns the screen dimensions.
func (f *Frontend) Size() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.screen.Size()
}

// Clear clears the screen and the recorded click spans.
func (f *Frontend) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.screen.Clear()
	f.spans = nil
}

// Show flushes pending drawing to the terminal.
func (f *Frontend) Show() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.screen.Show()
}

// PollEvent blocks for the next terminal event.
func (f *Frontend) PollEvent() tcell.Event {
	return f.screen.PollEvent()
}

// Close releases the terminal if the frontend owns it.
func (f *Frontend) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.owned {
		f.screen.Fini()
	}
}

// DrawToolbar draws controls left to right on the given row and records
// the span each control occupies. Standalone controls draw as [Label];
// groups draw as [name +n] with their member count. The active item's
// control draws reversed.
func (f *Frontend) DrawToolbar(row int, controls []surface.Control) {
	f.mu.Lock()
	defer f.mu.Unlock()

	width, _ := f.screen.Size()
	f.spans = f.spans[:0]
	f.spansRow = row

	x := 0
	for _, control := range controls {
		label, active := controlLabel(control)
		text := "[" + label + "]"
		if x+len([]rune(text)) > width {
			break
		}

		style := tcell.StyleDefault
		if active {
			style = style.Reverse(true)
		}

		start := x
		x = f.drawText(x, row, text, style)
		f.spans = append(f.spans, span{x0: start, x1: x, control: control})
		x++ // gap
	}
}

// controlLabel formats a control's toolbar text and reports whether it
// contains the active item.
func controlLabel(control surface.Control) (string, bool) {
	active := false
	for _, item := range control.Items {
		if item.Active {
			active = true
			break
		}
	}

	if control.Kind == surface.ControlGroup {
		return fmt.Sprintf("%s +%d", control.Group, len(control.Items)), active
	}
	if len(control.Items) == 0 {
		return "", active
	}
	label := control.Items[0].Label
	if label == "" {
		label = control.Items[0].ID
	}
	return label, active
}

// DrawPanels draws rendered panels top to bottom starting at the given
// row. Panel titles draw bold, content lines indented beneath them.
func (f *Frontend) DrawPanels(x, row int, panels []surface.Panel) {
	f.mu.Lock()
	defer f.mu.Unlock()

	_, height := f.screen.Size()
	y := row
	for _, panel := range panels {
		if y >= height {
			return
		}
		title := panel.Content.Title
		if title == "" {
			title = panel.ID
		}
		f.drawText(x, y, title, tcell.StyleDefault.Bold(true))
		y++

		for _, line := range panel.Content.Lines {
			if y >= height {
				return
			}
			f.drawText(x+2, y, line, tcell.StyleDefault)
			y++
		}
		y++ // blank separator
	}
}

// ControlAt returns the control drawn under the given cell, if any.
func (f *Frontend) ControlAt(x, y int) (surface.Control, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if y != f.spansRow {
		return surface.Control{}, false
	}
	for _, sp := range f.spans {
		if x >= sp.x0 && x < sp.x1 {
			return sp.control, true
		}
	}
	return surface.Control{}, false
}

// ActivateAt activates the control under the given cell. A standalone
// control activates its item directly; a group activates its first member,
// standing in for the expanded disclosure a richer frontend would show.
func (f *Frontend) ActivateAt(x, y int) bool {
	control, ok := f.ControlAt(x, y)
	if !ok || len(control.Items) == 0 {
		return false
	}
	control.Items[0].Activate()
	return true
}

// drawText draws a string and returns the x position after it. The caller
// must hold the mutex.
func (f *Frontend) drawText(x, y int, text string, style tcell.Style) int {
	width, _ := f.screen.Size()
	for _, r := range text {
		if x >= width {
			return x
		}
		f.screen.SetContent(x, y, r, nil, style)
		x++
	}
	return x
}
