package canopy

import "time"

// Mode is the top-level state of the experience. Exactly one mode is active
// at a time and there is no terminal mode.
type Mode uint8

const (
	ModeIntro Mode = iota
	ModeMainTransition
	ModeMain
)

func (m Mode) String() string {
	switch m {
	case ModeIntro:
		return "intro"
	case ModeMainTransition:
		return "main-transition"
	case ModeMain:
		return "main"
	default:
		return "unknown"
	}
}

// State is the single value object describing where the experience is.
// Experience owns it; everything else reads copies through
// Experience.State.
type State struct {
	Mode Mode

	// Immersive is only ever true in ModeMain. ImmersiveSection is
	// NoSection whenever Immersive is false.
	Immersive        bool
	ImmersiveSection int

	// T is the last scroll progress read in main mode.
	T float64
	// Section is the last resolved position on the main timeline.
	Section SectionPosition

	// TransitionProgress runs from 0 to 1 during ModeMainTransition.
	TransitionProgress float64

	// RestoreLockUntil is the clock time until which steady-state fog and
	// opacity writes are suspended after an immersive exit.
	RestoreLockUntil time.Duration
}

func initialState() State {
	return State{
		Mode:             ModeIntro,
		ImmersiveSection: NoSection,
		Section:          SectionPosition{Index: NoSection},
	}
}

// RestoreLocked reports whether the restore lock is active at clock time now.
func (s State) RestoreLocked(now time.Duration) bool {
	return now < s.RestoreLockUntil
}

// Consistent reports whether the orthogonal flags agree with the mode.
func (s State) Consistent() bool {
	if s.Immersive {
		return s.Mode == ModeMain && s.ImmersiveSection >= 0
	}
	return s.ImmersiveSection == NoSection
}
