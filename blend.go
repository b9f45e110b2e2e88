package canopy

import "time"

// MoodSource returns the target mood of a section index. *Palette implements
// it.
type MoodSource interface {
	MoodAt(index int) Mood
}

// BlendState is the crossfade between the previously and currently active
// sections. Factor ramps from 0 to 1 after every section change.
type BlendState struct {
	Previous int
	Current  int
	Factor   float64
}

// SectionBlender crossfades per-section visual parameters. The factor is
// derived from accumulated elapsed time, never from a frame count, so it
// converges in the same wall-clock time at any frame rate.
type SectionBlender struct {
	duration time.Duration
	moods    MoodSource

	state   BlendState
	elapsed time.Duration
	from    Mood
	localT  float64
}

// NewSectionBlender creates a blender that starts settled on the title mood.
func NewSectionBlender(duration time.Duration, moods MoodSource) *SectionBlender {
	return &SectionBlender{
		duration: duration,
		moods:    moods,
		state:    BlendState{Previous: NoSection, Current: NoSection, Factor: 1},
		from:     moods.MoodAt(NoSection),
	}
}

// OnSectionChange reports a newly resolved section. Repeating the current
// index only forwards localT. A real change snapshots the interpolated mood
// as the new starting point and restarts the ramp. It reports whether the
// active section changed.
func (b *SectionBlender) OnSectionChange(index int, localT float64) bool {
	b.localT = clamp01(localT)
	if index == b.state.Current {
		return false
	}
	b.from = b.Mood()
	b.state.Previous = b.state.Current
	b.state.Current = index
	b.state.Factor = 0
	b.elapsed = 0
	if b.duration <= 0 {
		b.state.Factor = 1
	}
	return true
}

// Advance moves the blend forward by dt. Negative deltas are ignored.
func (b *SectionBlender) Advance(dt time.Duration) {
	if b.state.Factor >= 1 || dt <= 0 {
		return
	}
	b.elapsed += dt
	if b.elapsed >= b.duration {
		b.elapsed = b.duration
		b.state.Factor = 1
		return
	}
	b.state.Factor = float64(b.elapsed) / float64(b.duration)
}

// State returns a copy of the blend state.
func (b *SectionBlender) State() BlendState { return b.state }

// LocalT returns the last forwarded in-section progress.
func (b *SectionBlender) LocalT() float64 { return b.localT }

// Mood returns the interpolated mood for the current factor.
func (b *SectionBlender) Mood() Mood {
	target := b.moods.MoodAt(b.state.Current)
	if b.state.Factor >= 1 {
		return target
	}
	return b.from.Lerp(target, b.state.Factor)
}

// Settle jumps to the end of the ramp.
func (b *SectionBlender) Settle() {
	b.elapsed = b.duration
	b.state.Factor = 1
}
