package canopy

import (
	"math"
	"math/rand/v2"

	"github.com/go-gl/mathgl/mgl64"
)

// World is the content layer the runtime frames and fades. Implementations
// must answer ContentBounds before any content exists.
type World interface {
	BoundsProvider
	// Atmosphere returns the mutable mood and opacity the world renders
	// with. The runtime writes it every frame in main mode.
	Atmosphere() *Atmosphere
	// Show makes the main scene visible.
	Show()
	// FadeOutIntro starts hiding intro-only visuals.
	FadeOutIntro()
	// SetTransition applies the eased transition factor to material
	// opacities.
	SetTransition(eased float64)
	// OnTransitionEnd finalizes materials once the transition completes.
	OnTransitionEnd()
	// Update advances animation. Interactive is true in main mode outside
	// immersive sections, when hover picking is allowed.
	Update(dt float64, f Frame, cam *Camera, interactive bool)
	// Emit queues the world's draw commands.
	Emit(dl *DrawList, cam *Camera)
}

// Atmosphere is the live visual state shared by the world and the runtime.
type Atmosphere struct {
	Mood Mood
	// Opacity scales the main scene materials.
	Opacity float64
}

// Apply writes the steady-state mood. While locked the fog density is left
// to whatever restore tween owns it.
func (a *Atmosphere) Apply(m Mood, locked bool) {
	if locked {
		m.FogDensity = a.Mood.FogDensity
	}
	a.Mood = m
}

// Fog returns the fog the draw list applies.
func (a *Atmosphere) Fog() Fog {
	return Fog{Color: a.Mood.FogColor, Density: a.Mood.FogDensity}
}

// perFrame converts a per-frame lerp weight tuned at 60 FPS into the weight
// for a step of dt seconds.
func perFrame(weight, dt float64) float64 {
	if weight >= 1 {
		return 1
	}
	if weight <= 0 || dt <= 0 {
		return 0
	}
	return 1 - math.Pow(1-weight, dt*60)
}

// groveNode is a clickable project marker on the tree.
type groveNode struct {
	pos      mgl64.Vec3
	title    string
	emissive float64
	scale    float64
}

type segment struct {
	a, b  mgl64.Vec3
	width float64
}

// Grove is the default world: a trunk with two branches, three project
// nodes, a water plane, and a ring of drifting motes.
type Grove struct {
	atm Atmosphere

	visible       bool
	introFading   bool
	introAlpha    float64
	groundOpacity float64
	rotation      float64
	pointer       mgl64.Vec2

	segments []segment
	nodes    []groveNode
	hovered  int
	motes    *PointCloud
}

const (
	groveMotes     = 1200
	groveNodeSize  = 0.2
	groveGroundY   = 0.0
	groveGridHalf  = 30.0
	groveGridStep  = 3.0
	groveGroundMax = 0.85
	groveSpin      = 0.03
)

// NewGrove builds the default world with motes seeded from seed.
func NewGrove(mood Mood, seed uint64) *Grove {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	g := &Grove{
		atm:        Atmosphere{Mood: mood},
		introAlpha: 1,
		hovered:    -1,
		segments: []segment{
			{mgl64.Vec3{0, 0, 0}, mgl64.Vec3{0, 5, 0}, 6},
			{mgl64.Vec3{0.1, 2.3, 0}, mgl64.Vec3{1.5, 3.7, 0}, 3},
			{mgl64.Vec3{-0.1, 3.3, 0.2}, mgl64.Vec3{-1.2, 4.8, 0.7}, 3},
		},
		nodes: []groveNode{
			{pos: mgl64.Vec3{1.5, 3.7, 0}, title: "Project · Roots", emissive: 1.5, scale: 1},
			{pos: mgl64.Vec3{-1.2, 4.8, 0.7}, title: "Project · Branches", emissive: 1.5, scale: 1},
			{pos: mgl64.Vec3{0, 5.2, 0}, title: "Project · Crown", emissive: 1.5, scale: 1},
		},
	}
	g.motes = NewPointCloud(PointConfig{
		Count: groveMotes,
		Size:  Range{0.02, 0.06},
		Sway:  0.12,
		Speed: 0.6,
		Tint:  mood.ParticleTint,
		Blend: BlendAdd,
		Place: func(_ int, r *rand.Rand) mgl64.Vec3 {
			radius := 3.5 + r.Float64()*1.8
			angle := r.Float64() * math.Pi * 2
			y := 4 + r.Float64()*3.2
			return mgl64.Vec3{
				math.Cos(angle) * radius * (0.8 + r.Float64()*0.4),
				y + (r.Float64()-0.5)*0.7,
				math.Sin(angle) * radius * (0.8 + r.Float64()*0.4),
			}
		},
	}, rng)
	return g
}

// ContentBounds implements BoundsProvider. The tree is static, so the
// bounds never depend on load state; each axis is at least 0.1 wide.
func (g *Grove) ContentBounds() Bounds {
	pts := make([]mgl64.Vec3, 0, len(g.segments)*2+len(g.nodes))
	for _, s := range g.segments {
		pts = append(pts, s.a, s.b)
	}
	for _, n := range g.nodes {
		pts = append(pts, n.pos.Add(mgl64.Vec3{groveNodeSize, groveNodeSize, groveNodeSize}))
		pts = append(pts, n.pos.Sub(mgl64.Vec3{groveNodeSize, groveNodeSize, groveNodeSize}))
	}
	b, ok := BoundsFromPoints(pts)
	if !ok {
		return DefaultBounds
	}
	for i := 0; i < 3; i++ {
		b.Size[i] = math.Max(b.Size[i], 0.1)
	}
	return b
}

// Atmosphere implements World.
func (g *Grove) Atmosphere() *Atmosphere { return &g.atm }

// Show implements World.
func (g *Grove) Show() { g.visible = true }

// Visible reports whether the main scene is shown.
func (g *Grove) Visible() bool { return g.visible }

// FadeOutIntro implements World. The seed glow shown behind the intro
// fades over the next frames.
func (g *Grove) FadeOutIntro() { g.introFading = true }

// SetTransition implements World.
func (g *Grove) SetTransition(eased float64) {
	e := clamp01(eased)
	g.atm.Opacity = e
	g.groundOpacity = lerp(0, groveGroundMax, e)
}

// OnTransitionEnd implements World.
func (g *Grove) OnTransitionEnd() {
	g.atm.Opacity = 1
	g.groundOpacity = groveGroundMax
}

// Hovered returns the title of the node under the pointer.
func (g *Grove) Hovered() (string, bool) {
	if g.hovered < 0 {
		return "", false
	}
	return g.nodes[g.hovered].title, true
}

// Update implements World.
func (g *Grove) Update(dt float64, f Frame, cam *Camera, interactive bool) {
	g.rotation += groveSpin * dt
	if g.introFading {
		g.introAlpha = lerp(g.introAlpha, 0, perFrame(0.05, dt))
	}
	g.motes.Tint = g.atm.Mood.ParticleTint
	g.motes.Update(dt)

	if !interactive || cam == nil {
		g.hovered = -1
		return
	}
	g.pointer = g.pointer.Add(mgl64.Vec2{f.PointerX, f.PointerY}.Sub(g.pointer).Mul(perFrame(0.05, dt)))

	g.hovered = g.pick(f.ScreenX, f.ScreenY, cam)
	for i := range g.nodes {
		n := &g.nodes[i]
		if i == g.hovered {
			n.emissive = 3
			n.scale = lerp(n.scale, 1.2, perFrame(0.3, dt))
			continue
		}
		n.emissive = lerp(n.emissive, 1.5, perFrame(0.1, dt))
		n.scale = lerp(n.scale, 1, perFrame(0.15, dt))
	}
}

// pick returns the nearest node whose projected disc contains the pointer.
func (g *Grove) pick(sx, sy float64, cam *Camera) int {
	best, bestDepth := -1, math.Inf(1)
	for i, n := range g.nodes {
		p := g.worldPos(n.pos)
		x, y, depth, ok := cam.WorldToScreen(p)
		if !ok {
			continue
		}
		r := groveNodeSize * n.scale * cam.Viewport.Height / (2 * math.Tan(cam.FOV/2) * depth)
		dx, dy := sx-x, sy-y
		if dx*dx+dy*dy <= r*r && depth < bestDepth {
			best, bestDepth = i, depth
		}
	}
	return best
}

func (g *Grove) worldPos(p mgl64.Vec3) mgl64.Vec3 {
	s, c := math.Sincos(g.rotation)
	return mgl64.Vec3{p.X()*c + p.Z()*s, p.Y(), -p.X()*s + p.Z()*c}
}

// Emit implements World.
func (g *Grove) Emit(dl *DrawList, cam *Camera) {
	if g.introAlpha > 0.01 {
		dl.Alpha = g.introAlpha
		dl.Point(mgl64.Vec3{0, 0.2, 0}, 0.35, Color{0.53, 0.8, 1, 1}, BlendAdd)
		dl.Alpha = 1
	}
	if !g.visible {
		return
	}
	op := g.atm.Opacity

	dl.Alpha = g.groundOpacity * op
	water := Color{0, 0.2, 0.4, 1}
	for x := -groveGridHalf; x <= groveGridHalf; x += groveGridStep {
		dl.Line(mgl64.Vec3{x, groveGroundY, -groveGridHalf}, mgl64.Vec3{x, groveGroundY, groveGridHalf}, 1, water)
		dl.Line(mgl64.Vec3{-groveGridHalf, groveGroundY, x}, mgl64.Vec3{groveGridHalf, groveGroundY, x}, 1, water)
	}

	dl.Alpha = op
	bark := Color{0.85, 0.88, 0.92, 1}
	for _, s := range g.segments {
		dl.Line(g.worldPos(s.a), g.worldPos(s.b), s.width, bark)
	}
	glow := Color{0.8, 0.93, 1, 1}
	for _, n := range g.nodes {
		dl.Point(g.worldPos(n.pos), groveNodeSize*n.scale*(0.6+n.emissive*0.3), glow, BlendAdd)
	}

	g.motes.Emit(dl, mgl64.Vec3{g.pointer.X() * 0.3, g.pointer.Y() * 0.2, 0})
	dl.Alpha = 1
}
