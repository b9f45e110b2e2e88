package canopy

import (
	"math"
	"testing"
)

func TestDrainEdges(t *testing.T) {
	in := NewInput()

	tests := []struct {
		name                    string
		held                    bool
		pressed, down, released bool
	}{
		{"idle", false, false, false, false},
		{"press", true, true, true, false},
		{"hold", true, false, true, false},
		{"release", false, false, false, true},
		{"idle again", false, false, false, false},
	}
	for _, tt := range tests {
		in.SetHeld(tt.held)
		f := in.Drain()
		if f.Pressed != tt.pressed || f.Held != tt.down || f.Released != tt.released {
			t.Errorf("%s: got pressed=%v held=%v released=%v", tt.name, f.Pressed, f.Held, f.Released)
		}
	}
}

func TestDrainClearsAccumulators(t *testing.T) {
	in := NewInput()
	in.AddWheel(120)
	in.AddWheel(-20)
	in.Push(Request{Action: ActionStart})
	in.MovePointer(5, 6)

	f := in.Drain()
	if f.Wheel != 100 {
		t.Errorf("wheel = %v, want 100", f.Wheel)
	}
	if len(f.Requests) != 1 || f.Requests[0].Action != ActionStart {
		t.Errorf("requests = %+v", f.Requests)
	}

	f = in.Drain()
	if f.Wheel != 0 || len(f.Requests) != 0 {
		t.Errorf("second drain should be empty, got %+v", f)
	}
	if f.ScreenX != 5 || f.ScreenY != 6 {
		t.Error("pointer position persists between drains")
	}
}

func TestDrainRequestsAreCopied(t *testing.T) {
	in := NewInput()
	in.Push(Request{Action: ActionEnter, Section: 1})
	f := in.Drain()
	in.Push(Request{Action: ActionExit})
	if f.Requests[0].Action != ActionEnter {
		t.Error("a drained frame must not alias the pending buffer")
	}
}

func TestAddWheelIgnoresNonFinite(t *testing.T) {
	in := NewInput()
	in.AddWheel(math.NaN())
	in.AddWheel(math.Inf(1))
	in.AddWheel(10)
	if got := in.Drain().Wheel; got != 10 {
		t.Errorf("wheel = %v, want 10", got)
	}
}
