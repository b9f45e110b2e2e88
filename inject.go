package canopy

type syntheticKind uint8

const (
	synthMove syntheticKind = iota
	synthPress
	synthRelease
	synthWheel
	synthRequest
)

// syntheticEvent is a single injected input event. Pointer coordinates are
// in screen pixels, the same space screenshots are taken in.
type syntheticEvent struct {
	kind    syntheticKind
	x, y    float64
	dy      float64
	request Request
}

// InjectMove queues a pointer move. The event is applied on the next Drain.
func (in *Input) InjectMove(x, y float64) {
	in.injectQueue = append(in.injectQueue, syntheticEvent{kind: synthMove, x: x, y: y})
}

// InjectPress queues a press at the given screen coordinates. The button
// stays held until InjectRelease.
func (in *Input) InjectPress(x, y float64) {
	in.injectQueue = append(in.injectQueue, syntheticEvent{kind: synthPress, x: x, y: y})
}

// InjectRelease queues a release at the given screen coordinates.
func (in *Input) InjectRelease(x, y float64) {
	in.injectQueue = append(in.injectQueue, syntheticEvent{kind: synthRelease, x: x, y: y})
}

// InjectWheel spreads a scroll delta of dy pixels evenly over frames
// events. Minimum frames is 1.
func (in *Input) InjectWheel(dy float64, frames int) {
	frames = max(frames, 1)
	step := dy / float64(frames)
	for i := 0; i < frames; i++ {
		in.injectQueue = append(in.injectQueue, syntheticEvent{kind: synthWheel, dy: step})
	}
}

// InjectRequest queues a discrete request, as if a key had been pressed.
func (in *Input) InjectRequest(r Request) {
	in.injectQueue = append(in.injectQueue, syntheticEvent{kind: synthRequest, request: r})
}

// processInjected pops one event from the inject queue and applies it to the
// pending values. Returns true if an event was consumed.
func (in *Input) processInjected() bool {
	if len(in.injectQueue) == 0 {
		return false
	}
	evt := in.injectQueue[0]
	copy(in.injectQueue, in.injectQueue[1:])
	in.injectQueue = in.injectQueue[:len(in.injectQueue)-1]

	switch evt.kind {
	case synthMove:
		in.MovePointer(evt.x, evt.y)
	case synthPress:
		in.MovePointer(evt.x, evt.y)
		in.SetHeld(true)
	case synthRelease:
		in.MovePointer(evt.x, evt.y)
		in.SetHeld(false)
	case synthWheel:
		in.AddWheel(evt.dy)
	case synthRequest:
		in.Push(evt.request)
	}
	return true
}
