package canopy

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// CommandType identifies the kind of draw command.
type CommandType uint8

const (
	CommandPoint CommandType = iota // feathered sprite quad
	CommandLine                     // vector stroke
)

// DrawCommand is a single projected draw instruction. Colors are already
// fogged; alpha carries the world opacity.
type DrawCommand struct {
	Type   CommandType
	X, Y   float32
	X2, Y2 float32
	// Radius is the point radius or the line width, in pixels.
	Radius float32
	Color  Color
	Blend  BlendMode
	// Depth is the view-axis distance, used for far-to-near ordering.
	Depth float64
	order int
}

// Fog is exponential-squared distance fog.
type Fog struct {
	Color   Color
	Density float64
}

// Factor returns the fog weight at depth: 1 - e^-(density*depth)^2.
func (f Fog) Factor(depth float64) float64 {
	d := f.Density * depth
	return clamp01(1 - math.Exp(-d*d))
}

// DrawList collects projected commands for one frame. Emitters call Point
// and Line with world coordinates; the list projects, fogs, and culls them.
type DrawList struct {
	// Alpha multiplies every emitted color. Worlds set it to their opacity
	// before emitting.
	Alpha float64
	// Bloom scales the additive halo drawn around bright points.
	Bloom float64

	cam      *Camera
	fog      Fog
	commands []DrawCommand
	sortBuf  []DrawCommand
	order    int
	sorted   bool

	verts []ebiten.Vertex
	inds  []uint32
}

// NewDrawList creates an empty list.
func NewDrawList() *DrawList {
	return &DrawList{Alpha: 1}
}

// Reset clears the list and binds the camera and fog for this frame.
func (dl *DrawList) Reset(cam *Camera, fog Fog, bloom float64) {
	dl.cam = cam
	dl.fog = fog
	dl.Bloom = bloom
	dl.Alpha = 1
	dl.commands = dl.commands[:0]
	dl.order = 0
}

// Len returns the number of queued commands.
func (dl *DrawList) Len() int { return len(dl.commands) }

// Commands returns the queued commands. The slice is reused next frame.
func (dl *DrawList) Commands() []DrawCommand { return dl.commands }

// Point queues a world-space point of the given world size. Points outside
// the clip range are dropped.
func (dl *DrawList) Point(p mgl64.Vec3, size float64, c Color, blend BlendMode) {
	if dl.cam == nil {
		return
	}
	sx, sy, depth, ok := dl.cam.WorldToScreen(p)
	if !ok {
		return
	}
	r := size * dl.pixelsPerUnit(depth)
	if r < 0.25 {
		r = 0.25
	}
	dl.push(DrawCommand{
		Type:   CommandPoint,
		X:      float32(sx),
		Y:      float32(sy),
		Radius: float32(r),
		Color:  dl.shade(c, depth),
		Blend:  blend,
		Depth:  depth,
	})
}

// Line queues a world-space segment width pixels wide. Both ends must be
// inside the clip range.
func (dl *DrawList) Line(a, b mgl64.Vec3, width float64, c Color) {
	if dl.cam == nil {
		return
	}
	ax, ay, da, okA := dl.cam.WorldToScreen(a)
	bx, by, db, okB := dl.cam.WorldToScreen(b)
	if !okA || !okB {
		return
	}
	depth := (da + db) / 2
	dl.push(DrawCommand{
		Type:   CommandLine,
		X:      float32(ax),
		Y:      float32(ay),
		X2:     float32(bx),
		Y2:     float32(by),
		Radius: float32(width),
		Color:  dl.shade(c, depth),
		Depth:  depth,
	})
}

func (dl *DrawList) push(cmd DrawCommand) {
	if cmd.Color.A <= 0 {
		return
	}
	dl.order++
	cmd.order = dl.order
	dl.commands = append(dl.commands, cmd)
	dl.sorted = false
}

func (dl *DrawList) pixelsPerUnit(depth float64) float64 {
	h := math.Tan(dl.cam.FOV/2) * depth * 2
	if h <= 0 {
		return 0
	}
	return dl.cam.Viewport.Height / h
}

func (dl *DrawList) shade(c Color, depth float64) Color {
	f := dl.fog.Factor(depth)
	out := c.Lerp(Color{dl.fog.Color.R, dl.fog.Color.G, dl.fog.Color.B, c.A}, f)
	out.A = c.A * dl.Alpha * (1 - f*0.5)
	return out
}

// --- Merge sort ---

// commandLessOrEqual orders far before near. Using <= on order keeps
// emission order for equal depths.
func commandLessOrEqual(a, b DrawCommand) bool {
	if a.Depth != b.Depth {
		return a.Depth > b.Depth
	}
	return a.order <= b.order
}

// Sort orders the commands far to near in place using dl.sortBuf as
// scratch space. Bottom-up merge sort: zero allocations after the sort
// buffer reaches high-water mark.
func (dl *DrawList) Sort() {
	n := len(dl.commands)
	if dl.sorted || n <= 1 {
		return
	}
	dl.sorted = true
	if cap(dl.sortBuf) < n {
		dl.sortBuf = make([]DrawCommand, n)
	}
	dl.sortBuf = dl.sortBuf[:n]

	a := dl.commands
	b := dl.sortBuf
	swapped := false

	for width := 1; width < n; width *= 2 {
		for i := 0; i < n; i += 2 * width {
			lo := i
			mid := min(lo+width, n)
			hi := min(lo+2*width, n)
			mergeRun(a, b, lo, mid, hi)
		}
		a, b = b, a
		swapped = !swapped
	}

	if swapped {
		copy(dl.commands, dl.sortBuf)
	}
}

// mergeRun merges two sorted runs [lo, mid) and [mid, hi) from src into dst.
func mergeRun(src, dst []DrawCommand, lo, mid, hi int) {
	i, j, k := lo, mid, lo
	for i < mid && j < hi {
		if commandLessOrEqual(src[i], src[j]) {
			dst[k] = src[i]
			i++
		} else {
			dst[k] = src[j]
			j++
		}
		k++
	}
	for i < mid {
		dst[k] = src[i]
		i++
		k++
	}
	for j < hi {
		dst[k] = src[j]
		j++
		k++
	}
}

// --- Submission ---

const spriteRadius = 32

var pointSprite *ebiten.Image

// ensurePointSprite returns a lazily-initialized feathered white circle.
func ensurePointSprite() *ebiten.Image {
	if pointSprite == nil {
		pointSprite = generateCircle(spriteRadius)
	}
	return pointSprite
}

// generateCircle creates a feathered white circle image with the given
// radius. Uses smoothstep falloff and premultiplied alpha.
func generateCircle(radius float64) *ebiten.Image {
	size := max(int(math.Ceil(radius*2)), 1)
	img := ebiten.NewImage(size, size)
	pix := make([]byte, size*size*4)

	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			dx := float64(x) + 0.5 - radius
			dy := float64(y) + 0.5 - radius
			dist := math.Sqrt(dx*dx+dy*dy) / radius

			var alpha float64
			if dist < 1 {
				t := 1 - dist
				alpha = t * t * (3 - 2*t)
			}

			a := uint8(alpha * 255)
			off := (y*size + x) * 4
			pix[off+0] = a
			pix[off+1] = a
			pix[off+2] = a
			pix[off+3] = a
		}
	}
	img.WritePixels(pix)
	return img
}

// Draw sorts the list if needed and submits it. Consecutive points with the same blend
// mode are batched into one DrawTriangles32 call; lines flush the batch and
// draw with vector strokes so depth order is kept.
func (dl *DrawList) Draw(dst *ebiten.Image) {
	dl.Sort()
	sprite := ensurePointSprite()
	batchBlend := BlendNormal

	for i := range dl.commands {
		cmd := &dl.commands[i]
		switch cmd.Type {
		case CommandLine:
			dl.flush(dst, sprite, batchBlend)
			vector.StrokeLine(dst, cmd.X, cmd.Y, cmd.X2, cmd.Y2, cmd.Radius, cmd.Color.toRGBA(), true)
		case CommandPoint:
			if len(dl.inds) > 0 && cmd.Blend != batchBlend {
				dl.flush(dst, sprite, batchBlend)
			}
			batchBlend = cmd.Blend
			dl.appendQuad(cmd.X, cmd.Y, cmd.Radius, cmd.Color)
			if dl.Bloom > 0 && cmd.Blend == BlendAdd {
				halo := cmd.Color
				halo.A *= clamp01(dl.Bloom * 0.25)
				dl.appendQuad(cmd.X, cmd.Y, cmd.Radius*float32(1+dl.Bloom), halo)
			}
		}
	}
	dl.flush(dst, sprite, batchBlend)
}

func (dl *DrawList) appendQuad(x, y, r float32, c Color) {
	p := c.toRGBA()
	cr := float32(p.R) / 255
	cg := float32(p.G) / 255
	cb := float32(p.B) / 255
	ca := float32(p.A) / 255
	s := float32(spriteRadius * 2)
	base := uint32(len(dl.verts))
	dl.verts = append(dl.verts,
		ebiten.Vertex{DstX: x - r, DstY: y - r, SrcX: 0, SrcY: 0, ColorR: cr, ColorG: cg, ColorB: cb, ColorA: ca},
		ebiten.Vertex{DstX: x + r, DstY: y - r, SrcX: s, SrcY: 0, ColorR: cr, ColorG: cg, ColorB: cb, ColorA: ca},
		ebiten.Vertex{DstX: x - r, DstY: y + r, SrcX: 0, SrcY: s, ColorR: cr, ColorG: cg, ColorB: cb, ColorA: ca},
		ebiten.Vertex{DstX: x + r, DstY: y + r, SrcX: s, SrcY: s, ColorR: cr, ColorG: cg, ColorB: cb, ColorA: ca},
	)
	// Two triangles: TL-TR-BL, TR-BR-BL
	dl.inds = append(dl.inds,
		base+0, base+1, base+2,
		base+1, base+3, base+2,
	)
}

func (dl *DrawList) flush(dst, sprite *ebiten.Image, blend BlendMode) {
	if len(dl.inds) == 0 {
		return
	}
	var triOp ebiten.DrawTrianglesOptions
	triOp.Blend = blend.EbitenBlend()
	triOp.ColorScaleMode = ebiten.ColorScaleModePremultipliedAlpha
	dst.DrawTriangles32(dl.verts, dl.inds, sprite, &triOp)
	dl.verts = dl.verts[:0]
	dl.inds = dl.inds[:0]
}

// fillBackground clears dst to the fog color so distant geometry dissolves
// into it.
func fillBackground(dst *ebiten.Image, fog Fog) {
	c := fog.Color
	c.A = 1
	dst.Fill(c.toRGBA())
}
