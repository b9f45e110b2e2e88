package canopy

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// wheelPixels converts one Ebitengine wheel notch into document pixels.
const wheelPixels = 100

// Action is a discrete request raised by a key or button.
type Action uint8

const (
	ActionNone Action = iota
	// ActionEnter asks to enter the immersive section in Request.Section.
	ActionEnter
	// ActionExit asks to leave the active immersive section.
	ActionExit
	// ActionStart skips the intro charge and starts the transition.
	ActionStart
	// ActionDebug toggles the debug overlay.
	ActionDebug
	// ActionMute toggles the ambient loop.
	ActionMute
)

// Request is one pending Action.
type Request struct {
	Action  Action
	Section int
}

// Frame is the input consumed by one tick. Pointer coordinates are in
// screen pixels; Experience converts them to the [-1, 1] convention.
type Frame struct {
	ScreenX, ScreenY float64
	// PointerX and PointerY are normalized, Y up.
	PointerX, PointerY float64

	Held     bool
	Pressed  bool
	Released bool

	// Wheel is the accumulated scroll delta in pixels, positive downward.
	Wheel float64

	Requests []Request
}

// Input collects device events between ticks. It only stores pending
// values; nothing here touches the scene. Experience drains it once per
// tick before any update runs.
type Input struct {
	screenX, screenY float64
	held             bool
	wasHeld          bool
	wheel            float64
	requests         []Request

	injectQueue []syntheticEvent
	touchID     ebiten.TouchID
	touching    bool
}

// NewInput creates an empty input buffer.
func NewInput() *Input {
	return &Input{}
}

// MovePointer records the pointer position in screen pixels.
func (in *Input) MovePointer(x, y float64) {
	in.screenX, in.screenY = x, y
}

// SetHeld records whether the primary button or touch is down.
func (in *Input) SetHeld(held bool) {
	in.held = held
}

// AddWheel accumulates a scroll delta in pixels.
func (in *Input) AddWheel(dy float64) {
	if finite(dy) {
		in.wheel += dy
	}
}

// Push queues a discrete request.
func (in *Input) Push(r Request) {
	in.requests = append(in.requests, r)
}

// Pending reports whether injected events are still queued.
func (in *Input) Pending() bool {
	return len(in.injectQueue) > 0
}

// PollEbiten reads the mouse, touch, wheel and keyboard. Real devices are
// ignored while injected events are queued so scripted runs stay
// deterministic.
func (in *Input) PollEbiten() {
	if len(in.injectQueue) > 0 {
		return
	}

	mx, my := ebiten.CursorPosition()
	held := ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft)

	if in.touching && inpututil.IsTouchJustReleased(in.touchID) {
		in.touching = false
	}
	if !in.touching {
		if ids := inpututil.AppendJustPressedTouchIDs(nil); len(ids) > 0 {
			in.touchID, in.touching = ids[0], true
		}
	}
	if in.touching {
		mx, my = ebiten.TouchPosition(in.touchID)
		held = true
	}

	in.MovePointer(float64(mx), float64(my))
	in.SetHeld(held)

	if _, yoff := ebiten.Wheel(); yoff != 0 {
		in.AddWheel(-yoff * wheelPixels)
	}

	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyEscape):
		in.Push(Request{Action: ActionExit})
	case inpututil.IsKeyJustPressed(ebiten.KeyEnter), inpututil.IsKeyJustPressed(ebiten.KeySpace):
		in.Push(Request{Action: ActionStart})
	case inpututil.IsKeyJustPressed(ebiten.KeyF3):
		in.Push(Request{Action: ActionDebug})
	case inpututil.IsKeyJustPressed(ebiten.KeyM):
		in.Push(Request{Action: ActionMute})
	}
	for i, k := range []ebiten.Key{ebiten.Key1, ebiten.Key2, ebiten.Key3} {
		if inpututil.IsKeyJustPressed(k) {
			in.Push(Request{Action: ActionEnter, Section: i})
		}
	}
}

// Drain applies at most one injected event, then returns the pending input
// and clears the accumulators.
func (in *Input) Drain() Frame {
	in.processInjected()

	f := Frame{
		ScreenX:  in.screenX,
		ScreenY:  in.screenY,
		Held:     in.held,
		Pressed:  in.held && !in.wasHeld,
		Released: !in.held && in.wasHeld,
		Wheel:    in.wheel,
	}
	if len(in.requests) > 0 {
		f.Requests = append([]Request(nil), in.requests...)
	}
	in.wasHeld = in.held
	in.wheel = 0
	in.requests = in.requests[:0]
	return f
}
