package canopy

import (
	"math"

	"github.com/hajimehoshi/ebiten/v2"
)

// Filter is a full-screen pass over the rendered frame.
type Filter interface {
	// Apply renders src into dst with the filter effect.
	Apply(src, dst *ebiten.Image)
}

// --- Kage shader sources ---
// Ebitengine uses premultiplied alpha; shaders un-premultiply before
// processing and re-premultiply the output.

const brightPassShaderSrc = `//kage:unit pixels
package main

var Threshold float
var Knee float

func Fragment(dst vec4, src vec2, color vec4) vec4 {
	c := imageSrc0At(src)
	if c.a > 0 {
		c.rgb /= c.a
	}
	l := dot(c.rgb, vec3(0.2126, 0.7152, 0.0722))
	w := smoothstep(Threshold-Knee, Threshold+Knee, l)
	a := c.a * w
	return vec4(c.rgb*a, a)
}
`

// --- Lazy shader compilation (single-threaded, no sync.Once) ---

var brightPassShader *ebiten.Shader

func ensureBrightPassShader() *ebiten.Shader {
	if brightPassShader == nil {
		s, err := ebiten.NewShader([]byte(brightPassShaderSrc))
		if err != nil {
			panic("canopy: failed to compile bright pass shader: " + err.Error())
		}
		brightPassShader = s
	}
	return brightPassShader
}

// --- BlurFilter ---

// BlurFilter applies a Kawase iterative blur using downscale/upscale passes.
// Bilinear filtering during DrawImage does the work.
type BlurFilter struct {
	Radius int
	temps  []*ebiten.Image
	imgOp  ebiten.DrawImageOptions
}

// NewBlurFilter creates a blur filter with the given radius in pixels.
func NewBlurFilter(radius int) *BlurFilter {
	return &BlurFilter{Radius: max(radius, 0)}
}

// blurPasses returns the number of half-size steps for a radius: log2(radius),
// minimum 1. A zero radius needs none.
func blurPasses(radius int) int {
	if radius <= 0 {
		return 0
	}
	return max(int(math.Ceil(math.Log2(float64(radius)))), 1)
}

// Apply renders a Kawase blur from src into dst.
func (f *BlurFilter) Apply(src, dst *ebiten.Image) {
	op := &f.imgOp
	passes := blurPasses(f.Radius)
	if passes == 0 {
		op.GeoM.Reset()
		op.ColorScale.Reset()
		op.Filter = ebiten.FilterNearest
		dst.DrawImage(src, op)
		return
	}

	for len(f.temps) < passes {
		f.temps = append(f.temps, nil)
	}
	// Deallocate images left over from a larger radius.
	for i := passes; i < len(f.temps); i++ {
		if f.temps[i] != nil {
			f.temps[i].Deallocate()
			f.temps[i] = nil
		}
	}
	f.temps = f.temps[:passes]

	w, h := src.Bounds().Dx(), src.Bounds().Dy()

	// Downscale passes: each half-size.
	current := src
	for i := 0; i < passes; i++ {
		w = max(w/2, 1)
		h = max(h/2, 1)
		if f.temps[i] == nil || f.temps[i].Bounds().Dx() != w || f.temps[i].Bounds().Dy() != h {
			if f.temps[i] != nil {
				f.temps[i].Deallocate()
			}
			f.temps[i] = ebiten.NewImage(w, h)
		} else {
			f.temps[i].Clear()
		}
		f.scaleInto(f.temps[i], current)
		current = f.temps[i]
	}

	// Upscale back through the chain.
	for i := passes - 2; i >= 0; i-- {
		f.temps[i].Clear()
		f.scaleInto(f.temps[i], current)
		current = f.temps[i]
	}
	f.scaleInto(dst, current)
}

func (f *BlurFilter) scaleInto(dst, src *ebiten.Image) {
	op := &f.imgOp
	op.GeoM.Reset()
	op.ColorScale.Reset()
	op.GeoM.Scale(
		float64(dst.Bounds().Dx())/float64(src.Bounds().Dx()),
		float64(dst.Bounds().Dy())/float64(src.Bounds().Dy()),
	)
	op.Filter = ebiten.FilterLinear
	dst.DrawImage(src, op)
}

// --- BloomFilter ---

// BloomFilter copies the frame, then adds a blurred bright pass on top.
type BloomFilter struct {
	// Threshold is the luminance where glow starts; Knee softens the edge.
	Threshold float64
	Knee      float64
	// Strength scales the added glow. Zero makes Apply a plain copy.
	Strength float64

	blur     *BlurFilter
	bright   *ebiten.Image
	blurred  *ebiten.Image
	uniforms map[string]any
	shaderOp ebiten.DrawRectShaderOptions
	imgOp    ebiten.DrawImageOptions
}

// NewBloomFilter creates a bloom pass with a blur radius in pixels.
func NewBloomFilter(radius int) *BloomFilter {
	return &BloomFilter{
		Threshold: 0.55,
		Knee:      0.2,
		blur:      NewBlurFilter(radius),
		uniforms:  make(map[string]any, 2),
	}
}

// SetMood maps a mood's bloom onto the pass. Stronger moods also lower the
// threshold so more of the scene glows.
func (f *BloomFilter) SetMood(m Mood) {
	f.Strength = clamp(m.Bloom, 0, 3) * 0.6
	f.Threshold = clamp(0.7-m.Bloom*0.12, 0.3, 0.7)
}

// Apply implements Filter.
func (f *BloomFilter) Apply(src, dst *ebiten.Image) {
	op := &f.imgOp
	op.GeoM.Reset()
	op.ColorScale.Reset()
	op.Blend = ebiten.Blend{}
	op.Filter = ebiten.FilterNearest
	dst.DrawImage(src, op)
	if f.Strength <= 0 {
		return
	}

	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	f.bright = ensureImage(f.bright, w, h)
	f.blurred = ensureImage(f.blurred, w, h)

	f.uniforms["Threshold"] = float32(f.Threshold)
	f.uniforms["Knee"] = float32(f.Knee)
	f.shaderOp.Images[0] = src
	f.shaderOp.Uniforms = f.uniforms
	f.bright.DrawRectShader(w, h, ensureBrightPassShader(), &f.shaderOp)

	f.blur.Apply(f.bright, f.blurred)

	s := float32(f.Strength)
	op.ColorScale.Scale(s, s, s, s)
	op.Blend = ebiten.BlendLighter
	op.Filter = ebiten.FilterLinear
	dst.DrawImage(f.blurred, op)
}

// ensureImage returns img cleared, or a new image when the size changed.
func ensureImage(img *ebiten.Image, w, h int) *ebiten.Image {
	if img != nil && img.Bounds().Dx() == w && img.Bounds().Dy() == h {
		img.Clear()
		return img
	}
	if img != nil {
		img.Deallocate()
	}
	return ebiten.NewImage(w, h)
}
