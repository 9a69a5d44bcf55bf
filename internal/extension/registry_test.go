package extension

import (
	"errors"
	"testing"
)

func toolbarDef(id string) Definition {
	return Definition{
		ID:      id,
		Surface: SurfaceToolbar,
		Metadata: Metadata{
			Label: "Label " + id,
		},
	}
}

func TestRegistryRegister(t *testing.T) {
	r := NewRegistry()

	if err := r.Register(toolbarDef("a")); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if !r.Has("a") {
		t.Error("Has(a) = false, want true")
	}
	if r.Count() != 1 {
		t.Errorf("Count() = %d, want 1", r.Count())
	}
}

func TestRegistryRegisterDuplicate(t *testing.T) {
	r := NewRegistry()

	a := toolbarDef("tool")
	b := Definition{
		ID:       "tool",
		Surface:  SurfaceSidebar,
		Metadata: Metadata{Label: "other"},
	}

	if err := r.Register(a); err != nil {
		t.Fatalf("first Register() error = %v", err)
	}
	err := r.Register(b)
	if !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("second Register() error = %v, want ErrDuplicateID", err)
	}

	// Registry still reports only A.
	got, ok := r.Get("tool")
	if !ok {
		t.Fatal("Get(tool) not found after failed duplicate register")
	}
	if got.Surface != SurfaceToolbar {
		t.Errorf("definition surface = %q, want toolbar (original preserved)", got.Surface)
	}
	if r.Count() != 1 {
		t.Errorf("Count() = %d, want 1", r.Count())
	}
}

func TestRegistryRegisterValidation(t *testing.T) {
	r := NewRegistry()

	if err := r.Register(Definition{Surface: SurfaceToolbar}); !errors.Is(err, ErrEmptyID) {
		t.Errorf("Register(empty id) error = %v, want ErrEmptyID", err)
	}
	if err := r.Register(Definition{ID: "x", Surface: "statusbar"}); !errors.Is(err, ErrInvalidSurface) {
		t.Errorf("Register(bad surface) error = %v, want ErrInvalidSurface", err)
	}
	if r.Count() != 0 {
		t.Errorf("Count() = %d, want 0", r.Count())
	}
}

func TestRegistryUnregisterIdempotent(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(toolbarDef("a")); err != nil {
		t.Fatal(err)
	}

	r.Unregister("a")
	if r.Has("a") {
		t.Error("Has(a) = true after Unregister")
	}

	// Second removal and removal of a never-registered id are no-ops.
	r.Unregister("a")
	r.Unregister("never-registered")
	if r.Count() != 0 {
		t.Errorf("Count() = %d, want 0", r.Count())
	}
}

func TestRegistryQueryBySurfaceOrder(t *testing.T) {
	r := NewRegistry()
	ids := []string{"c", "a", "b"}
	for _, id := range ids {
		if err := r.Register(toolbarDef(id)); err != nil {
			t.Fatal(err)
		}
	}
	if err := r.Register(Definition{ID: "panel", Surface: SurfaceSidebar}); err != nil {
		t.Fatal(err)
	}

	got := r.QueryBySurface(SurfaceToolbar)
	if len(got) != 3 {
		t.Fatalf("QueryBySurface returned %d definitions, want 3", len(got))
	}
	for i, id := range ids {
		if got[i].ID != id {
			t.Errorf("result[%d].ID = %q, want %q (registration order)", i, got[i].ID, id)
		}
	}
}

func TestRegistryQuerySnapshot(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(toolbarDef("a")); err != nil {
		t.Fatal(err)
	}

	snap := r.QueryBySurface(SurfaceToolbar)
	r.Unregister("a")
	if err := r.Register(toolbarDef("b")); err != nil {
		t.Fatal(err)
	}

	if len(snap) != 1 || snap[0].ID != "a" {
		t.Errorf("snapshot changed after registry mutation: %+v", snap)
	}
}

func TestRegistryQueryUnknownSurface(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(toolbarDef("a")); err != nil {
		t.Fatal(err)
	}

	if got := r.QueryBySurface("statusbar"); len(got) != 0 {
		t.Errorf("QueryBySurface(unknown) returned %d definitions, want 0", len(got))
	}
}

func TestDefinitionDisplayLabel(t *testing.T) {
	tests := []struct {
		name string
		meta Metadata
		want string
	}{
		{"label wins", Metadata{Label: "Circle", Name: "circle"}, "Circle"},
		{"falls back to name", Metadata{Name: "circle"}, "circle"},
		{"empty", Metadata{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Definition{ID: "x", Metadata: tt.meta}
			if got := d.DisplayLabel(); got != tt.want {
				t.Errorf("DisplayLabel() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDefinitionGroupName(t *testing.T) {
	d := Definition{ID: "x"}
	if got := d.GroupName(); got != DefaultGroup {
		t.Errorf("GroupName() = %q, want %q", got, DefaultGroup)
	}
	d.Metadata.Group = "measure"
	if got := d.GroupName(); got != "measure" {
		t.Errorf("GroupName() = %q, want measure", got)
	}
}

func TestDefinitionMatchesPosition(t *testing.T) {
	unset := Definition{ID: "a"}
	left := Definition{ID: "b", Metadata: Metadata{Position: PositionLeft}}

	for _, pos := range []Position{PositionLeft, PositionCenter, PositionRight} {
		if !unset.MatchesPosition(pos) {
			t.Errorf("unset position should match filter %q", pos)
		}
	}
	if !left.MatchesPosition(PositionLeft) {
		t.Error("left position should match left filter")
	}
	if left.MatchesPosition(PositionRight) {
		t.Error("left position should not match right filter")
	}
}
