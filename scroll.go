package canopy

import "math"

// ScrollMetrics is a snapshot of the page's vertical scroll geometry.
type ScrollMetrics struct {
	ScrollY        float64
	ScrollHeight   float64
	ViewportHeight float64
}

// ComputeT maps scroll metrics to normalized progress in [0, 1]. Pages with no
// scrollable overflow always report 0.
func ComputeT(m ScrollMetrics) float64 {
	scrollable := m.ScrollHeight - m.ViewportHeight
	if scrollable <= 0 || !finite(m.ScrollY) {
		return 0
	}
	return clamp01(m.ScrollY / math.Max(1, scrollable))
}

// ScrollSource is the native scroll position: read-only for the main flow
// except for programmatic resynchronization through ScrollTo.
type ScrollSource interface {
	Metrics() ScrollMetrics
	ScrollTo(y float64)
}

// ScrollSignal derives the main timeline's progress from a ScrollSource.
type ScrollSignal struct {
	src ScrollSource
}

// NewScrollSignal wraps src.
func NewScrollSignal(src ScrollSource) *ScrollSignal {
	return &ScrollSignal{src: src}
}

// ComputeT returns the current progress. It has no side effects.
func (s *ScrollSignal) ComputeT() float64 {
	if s.src == nil {
		return 0
	}
	return ComputeT(s.src.Metrics())
}

// SeekT moves the native scroll position so that ComputeT reports t.
func (s *ScrollSignal) SeekT(t float64) {
	if s.src == nil {
		return
	}
	m := s.src.Metrics()
	s.src.ScrollTo(clamp01(t) * math.Max(1, m.ScrollHeight-m.ViewportHeight))
}

// VirtualScroll emulates a tall document inside a fixed window. The page is
// PageMultiple viewports tall; wheel input scrolls it unless it is locked.
type VirtualScroll struct {
	// PageMultiple is the page height expressed in viewport heights.
	PageMultiple float64

	y        float64
	viewport float64
	locked   bool
}

// NewVirtualScroll creates a page of pageMultiple viewports, each
// viewportHeight pixels tall.
func NewVirtualScroll(viewportHeight, pageMultiple float64) *VirtualScroll {
	if pageMultiple < 1 {
		pageMultiple = 1
	}
	return &VirtualScroll{PageMultiple: pageMultiple, viewport: math.Max(0, viewportHeight)}
}

// Metrics implements ScrollSource.
func (v *VirtualScroll) Metrics() ScrollMetrics {
	return ScrollMetrics{
		ScrollY:        v.y,
		ScrollHeight:   v.viewport * v.PageMultiple,
		ViewportHeight: v.viewport,
	}
}

// ScrollTo implements ScrollSource. It works even while locked.
func (v *VirtualScroll) ScrollTo(y float64) {
	v.y = clamp(y, 0, v.maxScroll())
}

// ScrollBy applies a user scroll delta. Locked pages ignore it.
func (v *VirtualScroll) ScrollBy(dy float64) {
	if v.locked || !finite(dy) {
		return
	}
	v.ScrollTo(v.y + dy)
}

// Lock suspends user scrolling.
func (v *VirtualScroll) Lock() { v.locked = true }

// Unlock restores user scrolling.
func (v *VirtualScroll) Unlock() { v.locked = false }

// Locked reports whether user scrolling is suspended.
func (v *VirtualScroll) Locked() bool { return v.locked }

// Resize changes the viewport height, keeping the scroll ratio.
func (v *VirtualScroll) Resize(viewportHeight float64) {
	t := ComputeT(v.Metrics())
	v.viewport = math.Max(0, viewportHeight)
	v.y = t * v.maxScroll()
}

func (v *VirtualScroll) maxScroll() float64 {
	return math.Max(0, v.viewport*v.PageMultiple-v.viewport)
}
