package canopy

import (
	"fmt"
	"log/slog"
)

type listener[T any] struct {
	id uint32
	fn func(T)
}

// Signal is a typed notification with any number of listeners. Listeners run
// synchronously in registration order. A panicking listener is logged and
// skipped; the remaining listeners still run.
type Signal[T any] struct {
	name      string
	log       *slog.Logger
	listeners []listener[T]
	nextID    uint32
}

// NewSignal creates a named signal. The name only appears in logs.
func NewSignal[T any](name string, log *slog.Logger) *Signal[T] {
	return &Signal[T]{name: name, log: log}
}

// Subscription removes a listener registered with Signal.On.
type Subscription struct {
	remove func()
}

// Remove unregisters the listener. Calling it twice is harmless.
func (s Subscription) Remove() {
	if s.remove != nil {
		s.remove()
	}
}

// On registers fn and returns a handle to unregister it.
func (s *Signal[T]) On(fn func(T)) Subscription {
	s.nextID++
	id := s.nextID
	s.listeners = append(s.listeners, listener[T]{id: id, fn: fn})
	return Subscription{remove: func() { s.off(id) }}
}

func (s *Signal[T]) off(id uint32) {
	for i := range s.listeners {
		if s.listeners[i].id == id {
			// Copy on write: an Emit in progress keeps iterating the old slice.
			next := make([]listener[T], 0, len(s.listeners)-1)
			next = append(next, s.listeners[:i]...)
			s.listeners = append(next, s.listeners[i+1:]...)
			return
		}
	}
}

// Len returns the number of listeners.
func (s *Signal[T]) Len() int { return len(s.listeners) }

// Emit delivers v to every listener.
func (s *Signal[T]) Emit(v T) {
	for _, l := range s.listeners {
		s.call(l, v)
	}
}

func (s *Signal[T]) call(l listener[T], v T) {
	defer func() {
		if r := recover(); r != nil && s.log != nil {
			s.log.Error("listener panicked", "signal", s.name, "err", fmt.Sprint(r))
		}
	}()
	l.fn(v)
}

// ModeChange is emitted when the top-level mode switches.
type ModeChange struct {
	From, To Mode
}

// ImmersiveChange is emitted when an immersive section is entered or left.
type ImmersiveChange struct {
	Active  bool
	Section int
}

// Events bundles every notification the runtime publishes. UI and analytics
// code subscribe here instead of reaching into the state machine.
type Events struct {
	// ScrollProgress carries t once per frame in main mode while not immersive.
	ScrollProgress *Signal[float64]
	// SectionChanged fires when the resolved section index changes.
	SectionChanged *Signal[SectionPosition]
	ModeChanged    *Signal[ModeChange]
	// ImmersiveChanged fires after an enter or exit has fully applied.
	ImmersiveChanged *Signal[ImmersiveChange]
	// MainReady fires once when the transition completes.
	MainReady *Signal[struct{}]
	// ProjectFocused carries the focused gallery node, or -1.
	ProjectFocused *Signal[int]
	// MoodChanged carries the crown pillar name.
	MoodChanged *Signal[string]
}

// NewEvents creates every signal.
func NewEvents(log *slog.Logger) *Events {
	return &Events{
		ScrollProgress:   NewSignal[float64]("scroll-progress", log),
		SectionChanged:   NewSignal[SectionPosition]("section-changed", log),
		ModeChanged:      NewSignal[ModeChange]("mode-changed", log),
		ImmersiveChanged: NewSignal[ImmersiveChange]("immersive-changed", log),
		MainReady:        NewSignal[struct{}]("main-ready", log),
		ProjectFocused:   NewSignal[int]("project-focused", log),
		MoodChanged:      NewSignal[string]("mood-changed", log),
	}
}
