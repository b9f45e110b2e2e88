package canopy

import (
	"errors"
	"fmt"
)

// ErrInvalidSpans is returned when section spans are unordered, overlapping,
// empty, or outside [0, 1].
var ErrInvalidSpans = errors.New("canopy: invalid section spans")

// NoSection is the index reported for the title screen and the dead zones.
const NoSection = -1

// Span is a section's sub-range of the active scroll range, in normalized
// coordinates.
type Span struct {
	Start float64 `yaml:"start"`
	End   float64 `yaml:"end"`
}

// SectionPosition is a resolved location on the main timeline.
type SectionPosition struct {
	Index  int
	LocalT float64
}

// UniformSpans splits the timeline into count equal, gapless spans. Configs
// that list palette sections without spans get this layout.
func UniformSpans(count int) []Span {
	spans := make([]Span, 0, count)
	step := 1 / float64(max(1, count))
	for i := 0; i < count; i++ {
		end := float64(i+1) * step
		if i == count-1 {
			end = 1
		}
		spans = append(spans, Span{Start: float64(i) * step, End: end})
	}
	return spans
}

// SectionMap partitions the main timeline into sections. Progress below MinT
// or above MaxT is a dead zone reserved for the intro and outro.
type SectionMap struct {
	minT, maxT float64
	spans      []Span
}

// NewSectionMap validates spans and builds a map over [minT, maxT].
func NewSectionMap(spans []Span, minT, maxT float64) (*SectionMap, error) {
	if !(minT >= 0 && minT < maxT && maxT <= 1) {
		return nil, fmt.Errorf("%w: active range [%v, %v]", ErrInvalidSpans, minT, maxT)
	}
	prevEnd := 0.0
	for i, s := range spans {
		if !(s.Start >= prevEnd && s.Start < s.End && s.End <= 1) {
			return nil, fmt.Errorf("%w: span %d [%v, %v]", ErrInvalidSpans, i, s.Start, s.End)
		}
		prevEnd = s.End
	}
	return &SectionMap{
		minT:  minT,
		maxT:  maxT,
		spans: append([]Span(nil), spans...),
	}, nil
}

// Len returns the number of sections.
func (m *SectionMap) Len() int {
	return len(m.spans)
}

// Span returns the configured span of section i.
func (m *SectionMap) Span(i int) (Span, bool) {
	if i < 0 || i >= len(m.spans) {
		return Span{}, false
	}
	return m.spans[i], true
}

// Resolve maps global progress t to a section and the local progress inside
// it. Dead zones and gaps between spans resolve to NoSection. Spans are
// half-open except the last, which includes its end.
func (m *SectionMap) Resolve(t float64) SectionPosition {
	t = clamp01(t)
	if t < m.minT || t > m.maxT {
		return SectionPosition{Index: NoSection}
	}
	n := (t - m.minT) / (m.maxT - m.minT)
	last := len(m.spans) - 1
	for i, s := range m.spans {
		if n >= s.Start && (n < s.End || (i == last && n <= s.End)) {
			return SectionPosition{Index: i, LocalT: (n - s.Start) / (s.End - s.Start)}
		}
	}
	return SectionPosition{Index: NoSection}
}

// CenterT returns the global progress of section i's midpoint.
func (m *SectionMap) CenterT(i int) (float64, bool) {
	s, ok := m.Span(i)
	if !ok {
		return 0, false
	}
	mid := (s.Start + s.End) / 2
	return m.minT + mid*(m.maxT-m.minT), true
}
