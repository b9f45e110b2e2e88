package canopy

import (
	"image/color"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"
)

// Color represents an RGBA color with components in [0, 1]. Not premultiplied.
// Premultiplication occurs at render submission time.
type Color struct {
	R, G, B, A float64
}

// ColorWhite is the default tint (no color modification).
var ColorWhite = Color{1, 1, 1, 1}

// Lerp linearly interpolates every component from c toward to by t.
func (c Color) Lerp(to Color, t float64) Color {
	return Color{
		R: c.R + (to.R-c.R)*t,
		G: c.G + (to.G-c.G)*t,
		B: c.B + (to.B-c.B)*t,
		A: c.A + (to.A-c.A)*t,
	}
}

// Scale multiplies the RGB components by s, leaving alpha untouched.
func (c Color) Scale(s float64) Color {
	return Color{R: c.R * s, G: c.G * s, B: c.B * s, A: c.A}
}

// toRGBA converts to a premultiplied color.RGBA, clamping each channel.
func (c Color) toRGBA() color.RGBA {
	a := clamp01(c.A)
	return color.RGBA{
		R: uint8(clamp01(c.R)*a*255 + 0.5),
		G: uint8(clamp01(c.G)*a*255 + 0.5),
		B: uint8(clamp01(c.B)*a*255 + 0.5),
		A: uint8(a*255 + 0.5),
	}
}

// Rect is an axis-aligned rectangle. The coordinate system has its origin at
// the top-left, with Y increasing downward.
type Rect struct {
	X, Y, Width, Height float64
}

// Contains reports whether the point (x, y) lies inside the rectangle.
// Points on the edge are considered inside.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width &&
		y >= r.Y && y <= r.Y+r.Height
}

// Bounds is an axis-aligned bounding volume in world space, described by its
// center and full size along each axis.
type Bounds struct {
	Center mgl64.Vec3
	Size   mgl64.Vec3
}

// DefaultBounds is the volume reported by a world with no content yet. It
// matches a 2x5x2 box standing on the origin.
var DefaultBounds = Bounds{
	Center: mgl64.Vec3{0, 2.5, 0},
	Size:   mgl64.Vec3{2, 5, 2},
}

// BoundsFromPoints returns the bounding volume of pts. ok is false when pts is
// empty.
func BoundsFromPoints(pts []mgl64.Vec3) (b Bounds, ok bool) {
	if len(pts) == 0 {
		return Bounds{}, false
	}
	lo, hi := pts[0], pts[0]
	for _, p := range pts[1:] {
		for i := 0; i < 3; i++ {
			lo[i] = math.Min(lo[i], p[i])
			hi[i] = math.Max(hi[i], p[i])
		}
	}
	return Bounds{
		Center: lo.Add(hi).Mul(0.5),
		Size:   hi.Sub(lo),
	}, true
}

// Valid reports whether every component is finite and the size is not
// negative on any axis.
func (b Bounds) Valid() bool {
	for i := 0; i < 3; i++ {
		if !finite(b.Center[i]) || !finite(b.Size[i]) || b.Size[i] < 0 {
			return false
		}
	}
	return true
}

// Radius returns the radius of the bounding sphere enclosing b.
func (b Bounds) Radius() float64 {
	return b.Size.Len() / 2
}

// BlendMode selects a compositing operation for draw commands.
type BlendMode uint8

const (
	BlendNormal BlendMode = iota // source-over (standard alpha blending)
	BlendAdd                     // additive / lighter
	BlendScreen                  // screen (1 - (1-src)*(1-dst); only brightens)
)

// EbitenBlend returns the ebiten.Blend value corresponding to this BlendMode.
func (b BlendMode) EbitenBlend() ebiten.Blend {
	switch b {
	case BlendAdd:
		return ebiten.BlendLighter
	case BlendScreen:
		return ebiten.Blend{
			BlendFactorSourceRGB:        ebiten.BlendFactorOne,
			BlendFactorSourceAlpha:      ebiten.BlendFactorOne,
			BlendFactorDestinationRGB:   ebiten.BlendFactorOneMinusSourceColor,
			BlendFactorDestinationAlpha: ebiten.BlendFactorOneMinusSourceAlpha,
			BlendOperationRGB:           ebiten.BlendOperationAdd,
			BlendOperationAlpha:         ebiten.BlendOperationAdd,
		}
	default:
		return ebiten.BlendSourceOver
	}
}

func clamp01(x float64) float64 {
	return clamp(x, 0, 1)
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

// smoothingAlpha converts a per-second rate into the lerp weight for a step
// of dt seconds: 1 - e^(-rate*dt). The result is frame-rate independent.
func smoothingAlpha(rate, dt float64) float64 {
	if rate <= 0 || dt <= 0 {
		return 0
	}
	return 1 - math.Exp(-rate*dt)
}
