package canopy

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"
)

// --- Rect.Contains ---

func TestRectContains(t *testing.T) {
	r := Rect{10, 20, 100, 50}
	tests := []struct {
		name   string
		x, y   float64
		expect bool
	}{
		{"inside", 50, 40, true},
		{"top-left corner", 10, 20, true},
		{"bottom-right corner", 110, 70, true},
		{"outside left", 9, 40, false},
		{"outside below", 50, 71, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.Contains(tt.x, tt.y)
			if got != tt.expect {
				t.Errorf("Rect%v.Contains(%v, %v) = %v, want %v", r, tt.x, tt.y, got, tt.expect)
			}
		})
	}
}

// --- Bounds ---

func TestBoundsFromPoints(t *testing.T) {
	b, ok := BoundsFromPoints([]mgl64.Vec3{{-1, 0, -2}, {1, 5, 2}, {0, 2, 0}})
	if !ok {
		t.Fatal("BoundsFromPoints returned !ok for non-empty input")
	}
	if !b.Center.ApproxEqual(mgl64.Vec3{0, 2.5, 0}) {
		t.Errorf("Center = %v, want (0,2.5,0)", b.Center)
	}
	if !b.Size.ApproxEqual(mgl64.Vec3{2, 5, 4}) {
		t.Errorf("Size = %v, want (2,5,4)", b.Size)
	}
	if _, ok := BoundsFromPoints(nil); ok {
		t.Error("BoundsFromPoints(nil) ok = true, want false")
	}
}

func TestBoundsValid(t *testing.T) {
	tests := []struct {
		name   string
		b      Bounds
		expect bool
	}{
		{"default", DefaultBounds, true},
		{"zero", Bounds{}, true},
		{"nan center", Bounds{Center: mgl64.Vec3{math.NaN(), 0, 0}}, false},
		{"inf size", Bounds{Size: mgl64.Vec3{math.Inf(1), 1, 1}}, false},
		{"negative size", Bounds{Size: mgl64.Vec3{1, -1, 1}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.b.Valid(); got != tt.expect {
				t.Errorf("Valid() = %v, want %v", got, tt.expect)
			}
		})
	}
}

// --- BlendMode.EbitenBlend ---

func TestBlendModeEbitenBlend(t *testing.T) {
	if got := BlendNormal.EbitenBlend(); got != ebiten.BlendSourceOver {
		t.Errorf("BlendNormal.EbitenBlend() = %v, want BlendSourceOver", got)
	}
	if got := BlendAdd.EbitenBlend(); got != ebiten.BlendLighter {
		t.Errorf("BlendAdd.EbitenBlend() = %v, want BlendLighter", got)
	}
	if got := BlendScreen.EbitenBlend(); got == (ebiten.Blend{}) {
		t.Error("BlendScreen.EbitenBlend() returned zero blend")
	}
}

func TestColorLerp(t *testing.T) {
	got := Color{0, 0, 0, 1}.Lerp(Color{1, 0.5, 0, 0}, 0.5)
	want := Color{0.5, 0.25, 0, 0.5}
	if got != want {
		t.Errorf("Lerp = %v, want %v", got, want)
	}
}

func TestColorToRGBAClamps(t *testing.T) {
	got := Color{R: 2, G: -1, B: 0.5, A: 1}.toRGBA()
	if got.R != 255 || got.G != 0 || got.B != 128 || got.A != 255 {
		t.Errorf("toRGBA = %v, want {255 0 128 255}", got)
	}
}

func TestSmoothingAlphaFrameRateIndependent(t *testing.T) {
	// Two half steps must land where one full step lands.
	rate := 5.0
	full := smoothingAlpha(rate, 1.0/30)
	half := smoothingAlpha(rate, 1.0/60)
	twoHalves := 1 - (1-half)*(1-half)
	if math.Abs(full-twoHalves) > 1e-12 {
		t.Errorf("full = %v, two halves = %v", full, twoHalves)
	}
	if smoothingAlpha(rate, 0) != 0 {
		t.Error("zero dt must not move")
	}
}

// --- Benchmarks (verify zero allocations) ---

func BenchmarkRectContains(b *testing.B) {
	r := Rect{10, 20, 100, 50}
	b.ReportAllocs()
	for b.Loop() {
		_ = r.Contains(50, 40)
	}
}
