package canopy

import (
	"log/slog"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

const epsilon = 1e-9

func approxEqual(a, b, eps float64) bool {
	return math.Abs(a-b) < eps
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func newTestPath() *PathController {
	cam := NewCamera(Rect{Width: 1280, Height: 720})
	return NewPathController(cam, DefaultConfig().Camera, discardLogger())
}

// --- Camera ---

func TestCameraProjectCenter(t *testing.T) {
	cam := NewCamera(Rect{Width: 800, Height: 600})
	cam.Target = mgl64.Vec3{}
	sx, sy, depth, ok := cam.WorldToScreen(mgl64.Vec3{})
	if !ok {
		t.Fatal("origin should be visible")
	}
	if !approxEqual(sx, 400, 1e-6) || !approxEqual(sy, 300, 1e-6) {
		t.Errorf("WorldToScreen(origin) = (%f,%f), want (400,300)", sx, sy)
	}
	if !approxEqual(depth, 5, 1e-6) {
		t.Errorf("depth = %f, want 5", depth)
	}
}

func TestCameraProjectBehind(t *testing.T) {
	cam := NewCamera(Rect{Width: 800, Height: 600})
	if _, _, _, ok := cam.WorldToScreen(mgl64.Vec3{0, 0, 10}); ok {
		t.Error("point behind the camera must not project")
	}
}

func TestCameraProjectUpIsUp(t *testing.T) {
	cam := NewCamera(Rect{Width: 800, Height: 600})
	_, sy, _, _ := cam.WorldToScreen(mgl64.Vec3{0, 1, 0})
	if sy >= 300 {
		t.Errorf("world +Y should map above the center, got sy=%f", sy)
	}
}

func TestCameraRollRotatesUp(t *testing.T) {
	cam := NewCamera(Rect{Width: 800, Height: 600})
	cam.Roll = math.Pi / 2
	up := cam.Up()
	if !approxEqual(math.Abs(up.X()), 1, 1e-9) || !approxEqual(up.Y(), 0, 1e-9) {
		t.Errorf("Up after quarter roll = %v, want +-X", up)
	}
}

func TestPointerToNDC(t *testing.T) {
	cam := NewCamera(Rect{Width: 200, Height: 100})
	tests := []struct {
		sx, sy, x, y float64
	}{
		{0, 0, -1, 1},
		{200, 100, 1, -1},
		{100, 50, 0, 0},
		{-50, 500, -1, -1},
	}
	for _, tt := range tests {
		x, y := cam.PointerToNDC(tt.sx, tt.sy)
		if !approxEqual(x, tt.x, epsilon) || !approxEqual(y, tt.y, epsilon) {
			t.Errorf("PointerToNDC(%v,%v) = (%v,%v), want (%v,%v)", tt.sx, tt.sy, x, y, tt.x, tt.y)
		}
	}
}

// --- PathController ---

func TestBuildPathFramesBounds(t *testing.T) {
	pc := newTestPath()
	b := Bounds{Center: mgl64.Vec3{0, 3, 0}, Size: mgl64.Vec3{4, 6, 4}}
	pc.BuildPath(b)

	if pc.UsingDefault() {
		t.Fatal("valid bounds should not fall back")
	}
	if got := pc.Anchor(); !got.ApproxEqual(mgl64.Vec3{0, 3 + 6*0.46, 0}) {
		t.Errorf("anchor = %v", got)
	}
	pts := pc.Curve().Points()
	if len(pts) != 4 {
		t.Fatalf("control points = %d, want 4", len(pts))
	}
	lifts := []float64{6 * 0.35, 6 * 0.55, 6 * 0.75, 6}
	for i, p := range pts {
		if !approxEqual(p.Y(), 3+lifts[i], epsilon) {
			t.Errorf("point %d y = %f, want %f", i, p.Y(), 3+lifts[i])
		}
	}
	// Heights strictly increase along the path.
	for i := 1; i < len(pts); i++ {
		if pts[i].Y() <= pts[i-1].Y() {
			t.Errorf("point %d not above point %d", i, i-1)
		}
	}
	if pc.Camera.Near < 0.1 || pc.Camera.Far != 2000 {
		t.Errorf("clip planes = (%f, %f)", pc.Camera.Near, pc.Camera.Far)
	}
	if !pc.PointAt(0).ApproxEqualThreshold(pts[0], 1e-9) {
		t.Errorf("PointAt(0) = %v, want %v", pc.PointAt(0), pts[0])
	}
}

func TestBuildPathInvalidFallsBack(t *testing.T) {
	tests := []struct {
		name string
		b    Bounds
	}{
		{"nan center", Bounds{Center: mgl64.Vec3{math.NaN(), 0, 0}, Size: mgl64.Vec3{1, 1, 1}}},
		{"inf size", Bounds{Size: mgl64.Vec3{math.Inf(1), 1, 1}}},
		{"negative size", Bounds{Size: mgl64.Vec3{-1, 1, 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pc := newTestPath()
			pc.BuildPath(DefaultBounds)
			pc.BuildPath(tt.b)
			if !pc.UsingDefault() {
				t.Error("expected default path")
			}
			if got := pc.Anchor(); got != defaultAnchor {
				t.Errorf("anchor = %v, want %v", got, defaultAnchor)
			}
		})
	}
}

func TestBuildPathFromNilWorld(t *testing.T) {
	pc := newTestPath()
	pc.BuildPathFromWorld(nil)
	if !pc.UsingDefault() {
		t.Error("nil world should use the default path")
	}
}

func TestUpdateFromTImmediateIsIdempotent(t *testing.T) {
	pc := newTestPath()
	pc.BuildPath(DefaultBounds)
	pc.SetPointer(0.3, -0.2)

	for _, tt := range []float64{0, 0.37, 1} {
		pc.UpdateFromT(tt, true, 1.0/60)
		a := *pc.Camera
		pc.UpdateFromT(tt, true, 1.0/60)
		b := *pc.Camera
		if a != b {
			t.Errorf("t=%v: immediate seek drifted: %+v vs %+v", tt, a, b)
		}
		if !a.Position.ApproxEqual(pc.PointAt(tt)) {
			t.Errorf("t=%v: position %v not on path %v", tt, a.Position, pc.PointAt(tt))
		}
	}
}

func TestUpdateFromTSmoothingFrameRateIndependent(t *testing.T) {
	run := func(fps int) mgl64.Vec3 {
		pc := newTestPath()
		pc.BuildPath(DefaultBounds)
		pc.UpdateFromT(0, true, 0)
		dt := 1.0 / float64(fps)
		for i := 0; i < fps/2; i++ {
			pc.UpdateFromT(0.8, false, dt)
		}
		return pc.Camera.Position
	}
	a, b := run(120), run(30)
	if !a.ApproxEqualThreshold(b, 1e-9) {
		t.Errorf("position after 0.5s differs: 120fps %v, 30fps %v", a, b)
	}
}

func TestUpdateFromTConverges(t *testing.T) {
	pc := newTestPath()
	pc.BuildPath(DefaultBounds)
	pc.UpdateFromT(0, true, 0)
	for i := 0; i < 600; i++ {
		pc.UpdateFromT(0.5, false, 1.0/60)
	}
	if !pc.Camera.Position.ApproxEqualThreshold(pc.PointAt(0.5), 1e-6) {
		t.Errorf("camera %v did not converge to %v", pc.Camera.Position, pc.PointAt(0.5))
	}
	bank := -pc.TangentAt(0.5).X() * DefaultConfig().Camera.Bank
	if !approxEqual(pc.Camera.Roll, bank, 1e-4) {
		t.Errorf("roll = %f, want ~%f", pc.Camera.Roll, bank)
	}
}

func TestUpdateFromTLooksAtAnchorWithParallax(t *testing.T) {
	pc := newTestPath()
	pc.BuildPath(DefaultBounds)
	pc.SetPointer(1, -1)
	pc.UpdateFromT(0.2, true, 0)
	want := pc.Anchor().Add(mgl64.Vec3{0.6, -0.4, 0})
	if !pc.Camera.Target.ApproxEqual(want) {
		t.Errorf("target = %v, want %v", pc.Camera.Target, want)
	}
}

func TestUpdateTransitionEndpoints(t *testing.T) {
	pc := newTestPath()
	pc.BuildPath(DefaultBounds)
	pc.UpdateTransition(0)
	if pc.Camera.Position != (mgl64.Vec3{0, 0, 5}) {
		t.Errorf("start pose = %v", pc.Camera.Position)
	}
	pc.UpdateTransition(1)
	if !pc.Camera.Position.ApproxEqual(pc.Curve().Points()[0]) {
		t.Errorf("end pose = %v, want first control point", pc.Camera.Position)
	}
	if !pc.Camera.Target.ApproxEqual(pc.Anchor()) {
		t.Errorf("end target = %v, want anchor", pc.Camera.Target)
	}
}

func BenchmarkUpdateFromT(b *testing.B) {
	pc := newTestPath()
	pc.BuildPath(DefaultBounds)
	t := 0.0
	for b.Loop() {
		pc.UpdateFromT(t, false, 1.0/60)
		t += 0.0005
		if t > 1 {
			t = 0
		}
	}
}
