package canopy

import (
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

func newTestRuntime(t *testing.T) *Runtime {
	t.Helper()
	rt, err := NewRuntime(DefaultConfig(), discardLogger())
	if err != nil {
		t.Fatalf("NewRuntime: %v", err)
	}
	return rt
}

// runSection advances tweens and the controller together for d.
func runSection(rt *Runtime, c SectionController, d time.Duration) {
	for elapsed := time.Duration(0); elapsed < d; elapsed += step {
		rt.Tweens.Update(step)
		_ = c.Update(step.Seconds(), Frame{})
	}
}

func TestBranchesNodesAlternateSides(t *testing.T) {
	rt := newTestRuntime(t)
	b := NewBranches(rt)
	if len(b.nodes) != len(rt.Config.Projects) {
		t.Fatalf("%d nodes for %d projects", len(b.nodes), len(rt.Config.Projects))
	}

	if !approxEqual(b.nodes[0].t, 0.12, 1e-12) {
		t.Errorf("first node t = %v, want 0.12", b.nodes[0].t)
	}
	if last := b.nodes[len(b.nodes)-1].t; !approxEqual(last, 0.87, 1e-12) {
		t.Errorf("last node t = %v, want 0.87", last)
	}
	for i := 1; i < len(b.nodes); i++ {
		if b.nodes[i].t <= b.nodes[i-1].t {
			t.Errorf("node %d t = %v, not after %v", i, b.nodes[i].t, b.nodes[i-1].t)
		}
	}

	// Consecutive nodes sit on opposite sides of the path.
	for i := 0; i+1 < len(b.nodes); i++ {
		p0 := b.curve.PointAt(b.nodes[i].t)
		tan := b.curve.TangentAt(b.nodes[i].t)
		right := worldUp.Cross(tan)
		side := b.nodes[i].pos.Sub(p0).Dot(right)
		if (i%2 == 0) != (side > 0) || side == 0 {
			t.Errorf("node %d side = %v", i, side)
		}
	}
}

func TestBranchesEnterTimeline(t *testing.T) {
	rt := newTestRuntime(t)
	b := NewBranches(rt)
	b.Enter()

	if !b.Visible() || !b.IntroAnimating() {
		t.Fatalf("Visible = %v, IntroAnimating = %v after Enter", b.Visible(), b.IntroAnimating())
	}
	if b.groupY != -60 {
		t.Errorf("groupY = %v, want -60", b.groupY)
	}
	for i, n := range b.nodes {
		if n.scale != 0 {
			t.Errorf("node %d scale = %v, want 0", i, n.scale)
		}
	}

	// Wheel input is ignored during the intro.
	b.OnWheel(1000)
	if b.TargetProgress() != 0 {
		t.Errorf("TargetProgress = %v during the intro, want 0", b.TargetProgress())
	}

	runSection(rt, b, 4*time.Second)
	if !approxEqual(b.groupY, 0, 1e-6) {
		t.Errorf("groupY = %v after the rise, want 0", b.groupY)
	}
	if !b.IntroAnimating() {
		t.Error("intro finished before the growth stage")
	}

	runSection(rt, b, 5*time.Second)
	if b.IntroAnimating() {
		t.Error("intro still animating after 9s")
	}
	if !approxEqual(b.TargetProgress(), rt.Config.Branches.IntroTarget, 1e-6) {
		t.Errorf("TargetProgress = %v, want %v", b.TargetProgress(), rt.Config.Branches.IntroTarget)
	}
	for i, n := range b.nodes {
		if n.scale <= 0.5 {
			t.Errorf("node %d scale = %v, want > 0.5", i, n.scale)
		}
	}
	if b.Progress() <= 0 {
		t.Errorf("Progress = %v, want > 0", b.Progress())
	}
}

func TestBranchesWheelClamps(t *testing.T) {
	rt := newTestRuntime(t)
	b := NewBranches(rt)
	b.Enter()
	runSection(rt, b, 9*time.Second)
	if b.IntroAnimating() {
		t.Fatal("intro still animating")
	}

	b.OnWheel(1e6)
	if got, want := b.TargetProgress(), rt.Config.Branches.MaxProgress; got != want {
		t.Errorf("TargetProgress = %v, want max %v", got, want)
	}
	b.OnWheel(-1e7)
	if got := b.TargetProgress(); got != 0 {
		t.Errorf("TargetProgress = %v, want 0", got)
	}
	b.OnWheel(math.NaN())
	if got := b.TargetProgress(); got != 0 {
		t.Errorf("TargetProgress after NaN = %v, want 0", got)
	}

	b.OnWheel(100)
	if got, want := b.TargetProgress(), 100*rt.Config.Branches.WheelScale; !approxEqual(got, want, 1e-12) {
		t.Errorf("TargetProgress = %v, want %v", got, want)
	}
}

func TestBranchesProgressEasesTowardTarget(t *testing.T) {
	rt := newTestRuntime(t)
	b := NewBranches(rt)
	b.Enter()
	runSection(rt, b, 9*time.Second)

	b.OnWheel(1e6)
	prev := b.Progress()
	for i := 0; i < 30; i++ {
		if err := b.Update(step.Seconds(), Frame{}); err != nil {
			t.Fatalf("Update: %v", err)
		}
		if b.Progress() < prev || b.Progress() > b.TargetProgress() {
			t.Errorf("frame %d progress = %v, want in [%v, %v]", i, b.Progress(), prev, b.TargetProgress())
		}
		prev = b.Progress()
	}
	if want := b.curve.PointAt(b.Progress()); rt.Camera.Position != want {
		t.Errorf("camera at %v, want %v", rt.Camera.Position, want)
	}
}

func TestBranchesProgressFrameRateIndependent(t *testing.T) {
	fast := newTestRuntime(t)
	slow := newTestRuntime(t)
	bf, bs := NewBranches(fast), NewBranches(slow)
	for _, b := range []*Branches{bf, bs} {
		b.active, b.visible = true, true
		b.target = 0.5
	}
	for i := 0; i < 60; i++ {
		if err := bf.Update(1.0/60, Frame{}); err != nil {
			t.Fatal(err)
		}
	}
	for i := 0; i < 30; i++ {
		if err := bs.Update(1.0/30, Frame{}); err != nil {
			t.Fatal(err)
		}
	}
	if !approxEqual(bf.Progress(), bs.Progress(), 1e-9) {
		t.Errorf("60 FPS progress %v != 30 FPS progress %v", bf.Progress(), bs.Progress())
	}
}

// selectorFixture places the camera at the origin looking down -Z with
// nodes at fixed positions.
func selectorFixture(t *testing.T, positions ...mgl64.Vec3) *Branches {
	t.Helper()
	rt := newTestRuntime(t)
	b := NewBranches(rt)
	b.nodes = b.nodes[:0]
	for _, p := range positions {
		b.nodes = append(b.nodes, branchNode{pos: p, baseY: p.Y(), scale: 1})
	}
	rt.Camera.Position = mgl64.Vec3{}
	rt.Camera.Target = mgl64.Vec3{0, 0, -1}
	rt.Camera.Roll = 0
	return b
}

func TestBranchesSelectorPrefersCloseAndCentered(t *testing.T) {
	b := selectorFixture(t,
		mgl64.Vec3{6, 0, -18},
		mgl64.Vec3{0, 0, -19},
		mgl64.Vec3{0, 0, 10},
	)
	if got := b.closestVisible(); got != 1 {
		t.Errorf("closestVisible = %d, want 1", got)
	}
}

func TestBranchesSelectorRejectsBehindAndFar(t *testing.T) {
	b := selectorFixture(t,
		mgl64.Vec3{0, 0, 10},
		mgl64.Vec3{0, 0, -40},
		mgl64.Vec3{30, 0, -5},
	)
	if got := b.closestVisible(); got != NoSection {
		t.Errorf("closestVisible = %d, want NoSection", got)
	}
}

func TestBranchesSelectorHysteresis(t *testing.T) {
	b := selectorFixture(t, mgl64.Vec3{0, 0, -25})
	sel := b.cfg.Selector
	if !(sel.ActivateDistance < 25 && 25 < sel.DeactivateDistance) {
		t.Fatalf("fixture distance 25 outside (%v, %v)", sel.ActivateDistance, sel.DeactivateDistance)
	}

	if got := b.closestVisible(); got != NoSection {
		t.Errorf("outside the activate range: closestVisible = %d", got)
	}
	b.focus = 0
	if got := b.closestVisible(); got != 0 {
		t.Errorf("inside the deactivate range: closestVisible = %d, want 0", got)
	}

	b.nodes[0].pos = mgl64.Vec3{0, 0, -30}
	if got := b.closestVisible(); got != NoSection {
		t.Errorf("past the deactivate range: closestVisible = %d", got)
	}
}

func TestBranchesFocusEvents(t *testing.T) {
	rt := newTestRuntime(t)
	b := NewBranches(rt)
	var got []int
	rt.Events.ProjectFocused.On(func(i int) { got = append(got, i) })

	b.setFocus(2)
	b.setFocus(2)
	b.setFocus(NoSection)
	if want := []int{2, NoSection}; !reflect.DeepEqual(got, want) {
		t.Errorf("focus events = %v, want %v", got, want)
	}
}

func TestBranchesEndClearsFocus(t *testing.T) {
	rt := newTestRuntime(t)
	b := NewBranches(rt)
	b.active, b.visible = true, true
	b.focus = 1
	b.progress, b.target = 0.99, 0.99
	if err := b.Update(step.Seconds(), Frame{}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got := b.Focus(); got != NoSection {
		t.Errorf("Focus = %d at the end of the path, want NoSection", got)
	}
}

func TestBranchesExitDropsAndHides(t *testing.T) {
	rt := newTestRuntime(t)
	b := NewBranches(rt)
	b.Enter()
	runSection(rt, b, time.Second)

	b.Exit()
	if b.IntroAnimating() {
		t.Error("intro still animating after Exit")
	}
	if !b.Visible() {
		t.Error("hidden before the drop finished")
	}
	b.OnWheel(100)
	if b.TargetProgress() != 0 {
		t.Errorf("TargetProgress = %v after Exit, want 0", b.TargetProgress())
	}

	for elapsed := time.Duration(0); elapsed < 1500*time.Millisecond; elapsed += step {
		rt.Tweens.Update(step)
	}
	if b.Visible() {
		t.Error("visible after the drop")
	}
	if b.groupY != 0 {
		t.Errorf("groupY = %v after the drop, want 0", b.groupY)
	}
}

func TestBranchesEmit(t *testing.T) {
	rt := newTestRuntime(t)
	b := NewBranches(rt)
	dl := NewDrawList()
	dl.Reset(rt.Camera, Fog{}, 0)
	b.Emit(dl, rt.Camera)
	if dl.Len() != 0 {
		t.Errorf("hidden branches emitted %d items", dl.Len())
	}

	b.Enter()
	runSection(rt, b, 9*time.Second)
	dl.Reset(rt.Camera, Fog{}, 0)
	b.Emit(dl, rt.Camera)
	if dl.Len() == 0 {
		t.Error("visible branches emitted nothing")
	}
}
