package canopy

import (
	"math"
	"math/rand/v2"

	"github.com/go-gl/mathgl/mgl64"
)

// RootsState is the pipeline stage the data panel shows.
type RootsState uint8

const (
	RootsRaw RootsState = iota
	RootsFilter
	RootsFlow
)

func (s RootsState) String() string {
	switch s {
	case RootsRaw:
		return "raw"
	case RootsFilter:
		return "filter"
	case RootsFlow:
		return "flow"
	default:
		return "unknown"
	}
}

// RootsStateAt maps panel progress to its stage.
func RootsStateAt(p float64) RootsState {
	switch {
	case p < 0.34:
		return RootsRaw
	case p < 0.67:
		return RootsFilter
	default:
		return RootsFlow
	}
}

// rootsStateProgress is where SetState parks the progress for each stage.
var rootsStateProgress = [...]float64{RootsRaw: 0.05, RootsFilter: 0.52, RootsFlow: 0.95}

// RootsZone is a pipeline module the pointer can focus.
type RootsZone int8

const (
	ZoneNone RootsZone = iota - 1
	ZoneInput
	ZoneProcessing
	ZoneOutput
)

const (
	rootsParticles = 2000
	rootsDragGain  = 1.15
	rootsIdleGlow  = 0.15
	rootsGridLines = 21
)

var (
	// rootsOrigin places the panel below the grove.
	rootsOrigin = mgl64.Vec3{0, -40, 0}
	rootsCamera = mgl64.Vec3{0, 0.5, 7.5}
	rootsNodes  = [3]mgl64.Vec3{{-2, 0, 0}, {0, 0, 0}, {2, 0, 0}}

	rootsRawColor    = Color{1, 0.25, 0.05, 1}
	rootsFilterColor = Color{0.5, 0.2, 1, 1}
	rootsFlowColor   = Color{0, 1, 0.6, 1}
	rootsFrameColor  = mustHex("#445566")
	rootsGridColor   = mustHex("#223344")
	rootsNodeColor   = mustHex("#44aaff")
)

type rootsParticle struct {
	pos   mgl64.Vec3
	seed  float64
	lane  int
	speed float64
	// Flow curve control point offsets.
	lift1, lift2 float64
	jitter       mgl64.Vec3
}

// Roots is the data systems section: a glass panel in which particles
// morph from noisy drift into ordered flow between three pipeline nodes as
// the panel progress rises. Wheel and vertical drag move the progress.
type Roots struct {
	rt  *Runtime
	cfg RootsConfig

	active  bool
	visible bool
	time    float64

	progress float64
	shown    float64
	state    RootsState

	intensity       float64
	intensityTarget float64
	zone            RootsZone
	focusX          float64
	focusAmt        float64

	pointer   mgl64.Vec2
	dragging  bool
	dragY     float64
	dragStart float64

	particles []rootsParticle
}

// NewRoots builds the panel particles.
func NewRoots(rt *Runtime) *Roots {
	rng := rand.New(rand.NewPCG(rt.Config.Seed, 0x5eed))
	r := &Roots{
		rt:        rt,
		cfg:       rt.Config.Roots,
		zone:      ZoneNone,
		particles: make([]rootsParticle, rootsParticles),
	}
	for i := range r.particles {
		r.particles[i] = rootsParticle{
			pos:   mgl64.Vec3{(rng.Float64() - 0.5) * 5, (rng.Float64() - 0.5) * 2, (rng.Float64() - 0.5) * 2},
			seed:  rng.Float64(),
			lane:  rng.IntN(3),
			speed: 0.5 + rng.Float64()*0.8,
			lift1: (rng.Float64() - 0.5) * 2,
			lift2: (rng.Float64() - 0.5) * 2,
			jitter: mgl64.Vec3{
				rng.Float64() - 0.5,
				rng.Float64() - 0.5,
				rng.Float64() - 0.5,
			},
		}
	}
	return r
}

// Progress returns the input progress in [0, 1].
func (r *Roots) Progress() float64 { return r.progress }

// Shown returns the eased progress the particles display.
func (r *Roots) Shown() float64 { return r.shown }

// State returns the current stage.
func (r *Roots) State() RootsState { return r.state }

// Intensity returns the current glow energy.
func (r *Roots) Intensity() float64 { return r.intensity }

// Zone returns the focused pipeline module.
func (r *Roots) Zone() RootsZone { return r.zone }

// Visible implements Visibility.
func (r *Roots) Visible() bool { return r.visible }

// SetProgress moves the panel progress and updates the stage.
func (r *Roots) SetProgress(p float64) {
	if !finite(p) {
		return
	}
	r.progress = clamp01(p)
	if s := RootsStateAt(r.progress); s != r.state {
		r.rt.Log.Debug("roots state", "from", r.state, "to", s, "progress", r.progress)
		r.state = s
	}
}

// SetState jumps to a stage and parks the progress inside it.
func (r *Roots) SetState(s RootsState) {
	if int(s) >= len(rootsStateProgress) {
		return
	}
	r.state = s
	r.progress = rootsStateProgress[s]
	r.setIntensity(0.65)
}

func (r *Roots) setIntensity(v float64) {
	r.intensityTarget = clamp01(v)
}

// Enter implements SectionController. The panel starts at the raw stage.
func (r *Roots) Enter() {
	r.active = true
	r.visible = true
	r.time = 0
	r.dragging = false
	r.zone = ZoneNone
	r.SetState(RootsRaw)
	r.shown = r.progress
	cam := r.rt.Camera
	cam.Position = rootsOrigin.Add(rootsCamera)
	cam.Target = rootsOrigin
	cam.Roll = 0
}

// Exit implements SectionController.
func (r *Roots) Exit() {
	r.active = false
	r.visible = false
	r.dragging = false
	r.zone = ZoneNone
	r.focusAmt = 0
	r.setIntensity(0)
}

// OnWheel implements SectionController. Scrolling down lowers the
// progress.
func (r *Roots) OnWheel(dy float64) {
	if !r.active {
		return
	}
	r.SetProgress(r.progress - dy*r.cfg.WheelScale)
	r.setIntensity(0.55)
}

// Resize implements SectionController.
func (r *Roots) Resize(Rect) {}

// Update implements SectionController.
func (r *Roots) Update(dt float64, f Frame) error {
	if !r.active {
		return nil
	}
	r.time += dt
	moved := f.PointerX != r.pointer.X() || f.PointerY != r.pointer.Y()
	r.pointer = mgl64.Vec2{f.PointerX, f.PointerY}

	switch {
	case f.Pressed:
		r.dragging = true
		r.dragY = f.ScreenY
		r.dragStart = r.progress
		r.setIntensity(1)
	case f.Released:
		r.dragging = false
	case r.dragging && f.Held:
		h := math.Max(1, r.rt.Viewport().Height)
		r.SetProgress(r.dragStart + (r.dragY-f.ScreenY)/h*rootsDragGain)
		r.setIntensity(0.9)
	case moved:
		r.setIntensity(0.12)
	}

	r.updateZone()

	r.shown = lerp(r.shown, r.progress, perFrame(r.cfg.Ease, dt))
	r.intensity = lerp(r.intensity, r.intensityTarget+rootsIdleGlow, perFrame(0.1, dt))
	r.intensityTarget *= math.Pow(0.95, dt*60)

	want := 0.0
	if r.zone != ZoneNone {
		want = 1
	}
	r.focusAmt = lerp(r.focusAmt, want, perFrame(0.1, dt))

	cam := r.rt.Camera
	tx := rootsOrigin.X() + rootsCamera.X() + r.pointer.X()*1.5
	ty := rootsOrigin.Y() + rootsCamera.Y() + r.pointer.Y()*0.5
	a := perFrame(0.05, dt)
	cam.Position[0] += (tx - cam.Position[0]) * a
	cam.Position[1] += (ty - cam.Position[1]) * a
	cam.Target = rootsOrigin
	return nil
}

// updateZone focuses the module under the pointer when it is over the
// panel's middle band.
func (r *Roots) updateZone() {
	zone := ZoneNone
	if !r.dragging && math.Abs(r.pointer.Y()) < 0.5 {
		switch x := r.pointer.X(); {
		case x < -1.0/3:
			zone = ZoneInput
		case x < 1.0/3:
			zone = ZoneProcessing
		default:
			zone = ZoneOutput
		}
	}
	if zone == r.zone {
		return
	}
	r.zone = zone
	if zone != ZoneNone {
		r.focusX = float64(zone) - 1
		r.setIntensity(0.75)
	}
}

// rootsTheme returns the particle color for a progress value.
func rootsTheme(p float64) Color {
	if p < 0.5 {
		return rootsRawColor.Lerp(rootsFilterColor, p*2)
	}
	return rootsFilterColor.Lerp(rootsFlowColor, (p-0.5)*2)
}

func bezier3(a, b, c, d mgl64.Vec3, t float64) mgl64.Vec3 {
	u := 1 - t
	return a.Mul(u * u * u).Add(b.Mul(3 * u * u * t)).Add(c.Mul(3 * u * t * t)).Add(d.Mul(t * t * t))
}

// particleAt returns particle i's panel-local position.
func (r *Roots) particleAt(i int) mgl64.Vec3 {
	p := &r.particles[i]
	t := r.time * (p.speed*0.6 + r.intensity*0.2)

	amp := 0.1 + r.intensity*0.1
	raw := p.pos.Add(mgl64.Vec3{
		math.Sin(t*1.5+p.seed*10) * amp,
		math.Cos(t*1.2+p.seed*8) * amp,
		math.Sin(t+p.seed*15) * amp,
	})

	var start, end mgl64.Vec3
	switch p.lane {
	case 0:
		start, end = rootsNodes[0], rootsNodes[1]
	case 1:
		start, end = rootsNodes[1], rootsNodes[2]
	default:
		start, end = rootsNodes[0], rootsNodes[2]
	}
	c1 := start.Add(end.Sub(start).Mul(0.33)).Add(mgl64.Vec3{0, p.lift1, 0})
	c2 := start.Add(end.Sub(start).Mul(0.66)).Add(mgl64.Vec3{0, p.lift2, 0})
	cycle := t*0.4 + p.seed
	cycle -= math.Floor(cycle)
	flow := bezier3(start, c1, c2, end, cycle).Add(p.jitter.Mul((1 - r.shown) * 0.2))

	return raw.Add(flow.Sub(raw).Mul(smoothstep(0, 0.7, r.shown)))
}

// Emit implements Emitter.
func (r *Roots) Emit(dl *DrawList, _ *Camera) {
	if !r.visible {
		return
	}
	r.emitFrame(dl)

	node := rootsNodeColor
	node.A = 0.4
	core := ColorWhite
	core.A = 0.3 + r.intensity*0.4
	for i, n := range rootsNodes {
		pulse := 1 + math.Sin(r.time*3+float64(i))*0.05 + r.intensity*0.1
		p := rootsOrigin.Add(n)
		dl.Point(p, 0.56*pulse, node, BlendAdd)
		dl.Point(p, 0.24*pulse, core, BlendAdd)
	}

	base := rootsTheme(r.shown).Lerp(ColorWhite, 0.1+r.intensity*0.3)
	energy := 1 + r.intensity*0.5
	for i := range r.particles {
		p := r.particleAt(i)
		focus := (1 - smoothstep(0, 0.8, math.Abs(p.X()/2-r.focusX))) * r.focusAmt
		c := base
		c.A = clamp01(0.7 + r.intensity*0.1 + focus*0.2)
		dl.Point(rootsOrigin.Add(p), 0.035*energy*(1+focus*0.6), c, BlendAdd)
	}
}

// boxEdges are the twelve edges of a unit cube centered on the origin.
var boxEdges = [12][2]mgl64.Vec3{
	{{-1, -1, -1}, {1, -1, -1}}, {{-1, 1, -1}, {1, 1, -1}}, {{-1, -1, 1}, {1, -1, 1}}, {{-1, 1, 1}, {1, 1, 1}},
	{{-1, -1, -1}, {-1, 1, -1}}, {{1, -1, -1}, {1, 1, -1}}, {{-1, -1, 1}, {-1, 1, 1}}, {{1, -1, 1}, {1, 1, 1}},
	{{-1, -1, -1}, {-1, -1, 1}}, {{1, -1, -1}, {1, -1, 1}}, {{-1, 1, -1}, {-1, 1, 1}}, {{1, 1, -1}, {1, 1, 1}},
}

func (r *Roots) emitFrame(dl *DrawList) {
	half := mgl64.Vec3{2.6, 1.4, 1}
	edge := rootsFrameColor
	edge.A = 0.3
	for _, e := range boxEdges {
		a := rootsOrigin.Add(mgl64.Vec3{e[0].X() * half.X(), e[0].Y() * half.Y(), e[0].Z() * half.Z()})
		b := rootsOrigin.Add(mgl64.Vec3{e[1].X() * half.X(), e[1].Y() * half.Y(), e[1].Z() * half.Z()})
		dl.Line(a, b, 1, edge)
	}

	grid := rootsGridColor
	grid.A = 0.15
	shift := math.Mod(r.time*0.5, 2)
	y := rootsOrigin.Y() - 1.5
	for i := 0; i < rootsGridLines; i++ {
		o := -10 + float64(i)
		dl.Line(mgl64.Vec3{o, y, -10 + shift}, mgl64.Vec3{o, y, 10 + shift}, 1, grid)
		dl.Line(mgl64.Vec3{-10, y, o + shift}, mgl64.Vec3{10, y, o + shift}, 1, grid)
	}
}
