package term

import (
	"strings"
	"testing"

	"github.com/gdamore/tcell/v2"

	"github.com/openfab/forgebench/internal/extension"
	"github.com/openfab/forgebench/internal/surface"
)

func simFrontend(t *testing.T) (*Frontend, tcell.SimulationScreen) {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatalf("screen Init() error = %v", err)
	}
	screen.SetSize(80, 24)
	t.Cleanup(screen.Fini)
	return NewWithScreen(screen), screen
}

// rowText reads a drawn row back from the simulation screen.
func rowText(screen tcell.SimulationScreen, row, width int) string {
	var sb strings.Builder
	for x := 0; x < width; x++ {
		r, _, _, _ := screen.GetContent(x, row)
		sb.WriteRune(r)
	}
	return strings.TrimRight(sb.String(), " ")
}

func resolvedControls(t *testing.T) []surface.Control {
	t.Helper()
	reg := extension.NewRegistry()
	defs := []extension.Definition{
		{ID: "sketch.line", Surface: extension.SurfaceToolbar,
			Metadata: extension.Metadata{Label: "Line", Group: "sketch"}},
		{ID: "sketch.arc", Surface: extension.SurfaceToolbar,
			Metadata: extension.Metadata{Label: "Arc", Group: "sketch"}},
		{ID: "export.step", Surface: extension.SurfaceToolbar,
			Metadata: extension.Metadata{Label: "Export"}},
	}
	for _, def := range defs {
		if err := reg.Register(def); err != nil {
			t.Fatalf("Register() error = %v", err)
		}
	}
	return surface.NewResolver(reg, nil).Controls(extension.SurfaceToolbar)
}

func TestDrawToolbar(t *testing.T) {
	f, screen := simFrontend(t)

	f.DrawToolbar(0, resolvedControls(t))
	f.Show()

	got := rowText(screen, 0, 80)
	want := "[sketch +2] [Export]"
	if got != want {
		t.Errorf("toolbar row = %q, want %q", got, want)
	}
}

func TestControlAt(t *testing.T) {
	f, _ := simFrontend(t)
	f.DrawToolbar(0, resolvedControls(t))

	// "[sketch +2]" occupies columns 0-10.
	control, ok := f.ControlAt(3, 0)
	if !ok || control.Kind != surface.ControlGroup || control.Group != "sketch" {
		t.Errorf("ControlAt(3,0) = %+v ok=%v, want the sketch group", control, ok)
	}

	// "[Export]" starts after the gap at column 12.
	control, ok = f.ControlAt(12, 0)
	if !ok || control.Kind != surface.ControlStandalone {
		t.Errorf("ControlAt(12,0) = %+v ok=%v, want the export control", control, ok)
	}

	// The gap and the wrong row hit nothing.
	if _, ok := f.ControlAt(11, 0); ok {
		t.Error("ControlAt() hit a control in the gap")
	}
	if _, ok := f.ControlAt(3, 1); ok {
		t.Error("ControlAt() hit a control on the wrong row")
	}
}

func TestActivateAt(t *testing.T) {
	f, _ := simFrontend(t)

	reg := extension.NewRegistry()
	activated := ""
	def := extension.Definition{
		ID:      "export.step",
		Surface: extension.SurfaceToolbar,
		Metadata: extension.Metadata{
			Label: "Export",
		},
		Handler: func() { activated = "export.step" },
	}
	if err := reg.Register(def); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	controls := surface.NewResolver(reg, nil).Controls(extension.SurfaceToolbar)
	f.DrawToolbar(0, controls)

	if !f.ActivateAt(1, 0) {
		t.Fatal("ActivateAt() missed the drawn control")
	}
	if activated != "export.step" {
		t.Errorf("activated = %q, want export.step", activated)
	}
	if f.ActivateAt(70, 0) {
		t.Error("ActivateAt() activated in empty space")
	}
}

func TestDrawPanels(t *testing.T) {
	f, screen := simFrontend(t)

	panels := []surface.Panel{
		{
			ID:      "props.panel",
			Content: extension.Content{Title: "Properties", Lines: []string{"width: 4", "height: 2"}},
		},
		{
			ID:      "untitled.panel",
			Content: extension.Content{Lines: []string{"line"}},
		},
	}

	f.DrawPanels(0, 2, panels)
	f.Show()

	if got := rowText(screen, 2, 80); got != "Properties" {
		t.Errorf("row 2 = %q, want Properties", got)
	}
	if got := rowText(screen, 3, 80); got != "  width: 4" {
		t.Errorf("row 3 = %q", got)
	}
	if got := rowText(screen, 4, 80); got != "  height: 2" {
		t.Errorf("row 4 = %q", got)
	}
	// A panel without a title falls back to its id, after the separator.
	if got := rowText(screen, 6, 80); got != "untitled.panel" {
		t.Errorf("row 6 = %q, want untitled.panel", got)
	}
}

func TestClearDropsSpans(t *testing.T) {
	f, _ := simFrontend(t)
	f.DrawToolbar(0, resolvedControls(t))
	f.Clear()

	if _, ok := f.ControlAt(3, 0); ok {
		t.Error("ControlAt() hit a control after Clear()")
	}
}
